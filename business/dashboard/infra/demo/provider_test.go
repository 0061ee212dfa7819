package demo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/arbitrage-dashboard/business/dashboard/app"
	"github.com/fd1az/arbitrage-dashboard/business/dashboard/domain"
	"github.com/fd1az/arbitrage-dashboard/internal/apperror"
)

var _ app.DataSource = (*Provider)(nil)

func fixedClock() func() time.Time {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t0 }
}

type snapshot struct {
	stats   domain.TransactionStats
	history domain.TransactionPage
	alerts  []domain.Alert
	wallets []domain.Wallet
	opps    []domain.Opportunity
	nets    []domain.NetworkStatus
}

func run(t *testing.T, p *Provider, rounds int) []snapshot {
	t.Helper()
	ctx := context.Background()

	var out []snapshot
	for i := 0; i < rounds; i++ {
		var s snapshot
		var err error
		s.stats, err = p.TransactionStats(ctx)
		require.NoError(t, err)
		s.history, err = p.TransactionHistory(ctx, domain.PageQuery{Page: 1, Limit: 5})
		require.NoError(t, err)
		s.alerts, err = p.ActiveAlerts(ctx)
		require.NoError(t, err)
		s.wallets, err = p.Wallets(ctx)
		require.NoError(t, err)
		s.opps, err = p.Opportunities(ctx)
		require.NoError(t, err)
		s.nets, err = p.NetworkStatus(ctx)
		require.NoError(t, err)
		out = append(out, s)
	}
	return out
}

func TestProvider_DeterministicUnderSeed(t *testing.T) {
	a := run(t, New(7, WithClock(fixedClock())), 20)
	b := run(t, New(7, WithClock(fixedClock())), 20)
	assert.Equal(t, a, b)

	c := run(t, New(8, WithClock(fixedClock())), 20)
	assert.NotEqual(t, a, c)
}

func TestProvider_StatsAreConsistent(t *testing.T) {
	p := New(DefaultSeed, WithClock(fixedClock()))
	ctx := context.Background()

	var prev int64
	for i := 0; i < 50; i++ {
		s, err := p.TransactionStats(ctx)
		require.NoError(t, err)

		assert.Equal(t, s.TotalTransactions, s.Successful+s.Failed)
		assert.GreaterOrEqual(t, s.TotalTransactions, prev)
		assert.InDelta(t, float64(s.Successful)/float64(s.TotalTransactions)*100, s.SuccessRate, 1e-9)
		prev = s.TotalTransactions
	}

	page, err := p.TransactionHistory(ctx, domain.PageQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, prev, page.Total)
	assert.Len(t, page.Items, 10)
}

func TestProvider_HistoryPaging(t *testing.T) {
	p := New(1, WithClock(fixedClock()))
	ctx := context.Background()

	first, err := p.TransactionHistory(ctx, domain.PageQuery{Page: 1, Limit: 15})
	require.NoError(t, err)
	second, err := p.TransactionHistory(ctx, domain.PageQuery{Page: 2, Limit: 15})
	require.NoError(t, err)

	assert.Equal(t, int64(40), first.Total)
	assert.Len(t, second.Items, 15)
	assert.NotEqual(t, first.Items[0].ID, second.Items[0].ID)

	past, err := p.TransactionHistory(ctx, domain.PageQuery{Page: 9, Limit: 15})
	require.NoError(t, err)
	assert.Empty(t, past.Items)
	assert.False(t, past.HasNext())
}

func TestProvider_AcknowledgeAlert(t *testing.T) {
	p := New(3, WithClock(fixedClock()))
	ctx := context.Background()

	var alerts []domain.Alert
	for i := 0; i < 200 && len(alerts) == 0; i++ {
		var err error
		alerts, err = p.ActiveAlerts(ctx)
		require.NoError(t, err)
	}
	require.NotEmpty(t, alerts)

	require.NoError(t, p.AcknowledgeAlert(ctx, alerts[0].ID))

	after, err := p.ActiveAlerts(ctx)
	require.NoError(t, err)
	for _, a := range after {
		assert.NotEqual(t, alerts[0].ID, a.ID)
	}

	err = p.AcknowledgeAlert(ctx, "missing")
	assert.Equal(t, apperror.CodeAPINotFound, apperror.GetCode(err))
}

func TestProvider_AddWallet(t *testing.T) {
	p := New(5, WithClock(fixedClock()))
	ctx := context.Background()
	req := domain.AddWalletRequest{Address: "0x52908400098527886E0F7030069857D2E4169EE7", Label: "cold", Network: "Ethereum"}

	w, err := p.AddWallet(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "ethereum", w.Network)

	wallets, err := p.Wallets(ctx)
	require.NoError(t, err)
	assert.Len(t, wallets, 4)

	_, err = p.AddWallet(ctx, req)
	assert.Equal(t, apperror.CodeInvalidWalletAddress, apperror.GetCode(err))
}

func TestProvider_SettingsRoundTrip(t *testing.T) {
	p := New(5)
	ctx := context.Background()

	sys, err := p.SystemSettings(ctx)
	require.NoError(t, err)
	require.NoError(t, sys.Validate())

	sys.AutoExecute = true
	_, err = p.UpdateSystemSettings(ctx, sys)
	require.NoError(t, err)

	got, err := p.SystemSettings(ctx)
	require.NoError(t, err)
	assert.True(t, got.AutoExecute)

	sec, err := p.SecuritySettings(ctx)
	require.NoError(t, err)
	require.NoError(t, sec.Validate())
}

func TestProvider_HonoursCancelledContext(t *testing.T) {
	p := New(5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Opportunities(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
