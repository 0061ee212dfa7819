package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/arbitrage-dashboard/internal/apperror"
)

func TestAddWalletRequest_Validate(t *testing.T) {
	tests := []struct {
		name     string
		req      AddWalletRequest
		wantCode apperror.Code
	}{
		{"valid", AddWalletRequest{Address: " 0x52908400098527886e0f7030069857d2e4169ee7 ", Label: "hot", Network: "ethereum"}, ""},
		{"not_hex", AddWalletRequest{Address: "0xZZ", Label: "hot", Network: "ethereum"}, apperror.CodeInvalidWalletAddress},
		{"short", AddWalletRequest{Address: "0x1234", Label: "hot", Network: "ethereum"}, apperror.CodeInvalidWalletAddress},
		{"empty_label", AddWalletRequest{Address: "0x52908400098527886e0f7030069857d2e4169ee7", Label: "  ", Network: "ethereum"}, apperror.CodeInvalidWalletLabel},
		{"long_label", AddWalletRequest{Address: "0x52908400098527886e0f7030069857d2e4169ee7", Label: strings.Repeat("x", 33), Network: "ethereum"}, apperror.CodeInvalidWalletLabel},
		{"no_network", AddWalletRequest{Address: "0x52908400098527886e0f7030069857d2e4169ee7", Label: "hot"}, apperror.CodeRequiredField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			err := req.Validate()
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, "0x52908400098527886E0F7030069857D2E4169EE7", req.Address)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperror.GetCode(err))
		})
	}
}

func TestSystemSettings_Validate(t *testing.T) {
	ok := SystemSettings{PollIntervalSeconds: 5, MinProfitUSD: decimal.NewFromInt(1), MaxGasGwei: decimal.NewFromInt(80)}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.PollIntervalSeconds = 0
	assert.Error(t, bad.Validate())

	bad = ok
	bad.MinProfitUSD = decimal.NewFromInt(-1)
	assert.Error(t, bad.Validate())

	bad = ok
	bad.MaxGasGwei = decimal.Zero
	assert.Error(t, bad.Validate())
}

func TestSecuritySettings_Validate(t *testing.T) {
	ok := SecuritySettings{SessionTimeoutMinutes: 30, IPWhitelist: []string{"10.0.0.1", "192.168.0.0/16", "::1"}}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.IPWhitelist = []string{"not-an-ip"}
	err := bad.Validate()
	require.Error(t, err)
	assert.Equal(t, apperror.CodeInvalidSettings, apperror.GetCode(err))

	bad = ok
	bad.SessionTimeoutMinutes = 1
	assert.Error(t, bad.Validate())
}

func TestTransactionPage_Paging(t *testing.T) {
	p := TransactionPage{Page: 1, Limit: 20, Total: 45}
	assert.Equal(t, 3, p.Pages())
	assert.True(t, p.HasNext())
	assert.False(t, p.HasPrev())

	p.Page = 3
	assert.False(t, p.HasNext())
	assert.True(t, p.HasPrev())

	assert.Equal(t, 1, TransactionPage{}.Pages())
}

func TestPageQuery_Normalize(t *testing.T) {
	assert.Equal(t, PageQuery{Page: 1, Limit: DefaultPageLimit}, PageQuery{}.Normalize())
	assert.Equal(t, PageQuery{Page: 4, Limit: 100}, PageQuery{Page: 4, Limit: 500}.Normalize())
}

func TestTransactionStats_DecodesStringAndNumberDecimals(t *testing.T) {
	var s TransactionStats
	err := json.Unmarshal([]byte(`{"total_transactions":10,"total_profit_usd":"1234.50","total_gas_usd":34.5,"success_rate":90}`), &s)
	require.NoError(t, err)

	assert.Equal(t, int64(10), s.TotalTransactions)
	assert.True(t, s.NetProfitUSD().Equal(decimal.RequireFromString("1200")))
}

func TestMergeNetworkStatus_RPCWins(t *testing.T) {
	now := time.Now()
	api := []NetworkStatus{
		{Name: "Ethereum", BlockNumber: 100, Healthy: true},
		{Name: "Arbitrum", BlockNumber: 5, Healthy: true},
	}
	rpc := []NetworkStatus{
		{Name: "ethereum", BlockNumber: 101, Healthy: true, CheckedAt: now, LatencyMs: 42},
		{Name: "Base", BlockNumber: 7, Healthy: false},
	}

	got := MergeNetworkStatus(api, rpc)
	require.Len(t, got, 3)

	assert.Equal(t, "Arbitrum", got[0].Name)
	assert.Equal(t, SourceAPI, got[0].Source)
	assert.Equal(t, "Base", got[1].Name)
	assert.Equal(t, SourceRPC, got[1].Source)
	assert.Equal(t, uint64(101), got[2].BlockNumber)
	assert.Equal(t, SourceRPC, got[2].Source)
	assert.Equal(t, 42*time.Millisecond, got[2].Latency())
}

func TestAlerts(t *testing.T) {
	alerts := []Alert{{ID: "1"}, {ID: "2", Acknowledged: true}, {ID: "3"}}
	assert.Equal(t, 2, Unacknowledged(alerts))
	assert.Greater(t, SeverityCritical.Rank(), SeverityWarning.Rank())
}

func TestBestOpportunity(t *testing.T) {
	_, ok := BestOpportunity(nil)
	assert.False(t, ok)

	best, ok := BestOpportunity([]Opportunity{
		{ID: "a", ProfitUSD: decimal.NewFromInt(3)},
		{ID: "b", ProfitUSD: decimal.NewFromInt(9)},
		{ID: "c", ProfitUSD: decimal.NewFromInt(-2)},
	})
	require.True(t, ok)
	assert.Equal(t, "b", best.ID)
}

func TestResource_Valid(t *testing.T) {
	assert.True(t, ResourceAlerts.Valid())
	assert.False(t, Resource("bogus").Valid())
}
