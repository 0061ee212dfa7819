package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/arbitrage-dashboard/business/dashboard/domain"
	"github.com/fd1az/arbitrage-dashboard/internal/apperror"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   string
}

// backend serves canned bodies keyed by path and records requests.
type backend struct {
	mu       sync.Mutex
	requests []recordedRequest
	bodies   map[string]string
	status   map[string]int
}

func newBackend() *backend {
	return &backend{bodies: map[string]string{}, status: map[string]int{}}
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	b.mu.Lock()
	b.requests = append(b.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Auth:   r.Header.Get("Authorization"),
		Body:   string(body),
	})
	status, ok := b.status[r.URL.Path]
	resp := b.bodies[r.URL.Path]
	b.mu.Unlock()

	if !ok {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	w.Write([]byte(resp))
}

func (b *backend) last() recordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[len(b.requests)-1]
}

func newTestClient(t *testing.T, b *backend) *Client {
	t.Helper()
	server := httptest.NewServer(b)
	t.Cleanup(server.Close)

	cfg := DefaultConfig(server.URL)
	cfg.Token = "tkn"
	c, err := NewClient(cfg, nil)
	require.NoError(t, err)
	return c
}

const prefix = "/api/proxy/api/v2/"

func TestClient_EnvelopeAndBareDecodeIdentically(t *testing.T) {
	stats := `{"total_transactions":12,"successful":10,"failed":2,"total_profit_usd":"345.67","total_gas_usd":"12.5","success_rate":83.3}`

	for name, body := range map[string]string{
		"bare":     stats,
		"envelope": `{"data":` + stats + `}`,
	} {
		t.Run(name, func(t *testing.T) {
			b := newBackend()
			b.bodies[prefix+"transactions/stats"] = body
			c := newTestClient(t, b)

			got, err := c.TransactionStats(context.Background())
			require.NoError(t, err)

			assert.Equal(t, int64(12), got.TotalTransactions)
			assert.True(t, got.TotalProfitUSD.Equal(decimal.RequireFromString("345.67")))
			assert.Equal(t, "Bearer tkn", b.last().Auth)
		})
	}
}

func TestClient_ListsInEnvelope(t *testing.T) {
	b := newBackend()
	b.bodies[prefix+"alerts/active"] = `{"data":[{"id":"a1","severity":"critical","title":"Gas spike"},{"id":"a2","severity":"info"}]}`
	b.bodies[prefix+"alerts/rules"] = `[{"id":"r1","name":"low profit","threshold":"5","enabled":true}]`
	b.bodies[prefix+"opportunities"] = `{"data":null}`
	c := newTestClient(t, b)

	alerts, err := c.ActiveAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, domain.SeverityCritical, alerts[0].Severity)

	rules, err := c.AlertRules(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.True(t, rules[0].Enabled)

	opps, err := c.Opportunities(context.Background())
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestClient_HistoryPaging(t *testing.T) {
	b := newBackend()
	b.bodies[prefix+"transactions/history"] = `{"data":{"items":[{"id":"t1","status":"success","profit_usd":"1.5"}],"total":41}}`
	c := newTestClient(t, b)

	page, err := c.TransactionHistory(context.Background(), domain.PageQuery{Page: 3, Limit: 20})
	require.NoError(t, err)

	assert.Equal(t, "limit=20&page=3", b.last().Query)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 20, page.Limit)
	assert.Equal(t, int64(41), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, domain.TxSuccess, page.Items[0].Status)
}

func TestClient_HistoryBareList(t *testing.T) {
	b := newBackend()
	b.bodies[prefix+"transactions/history"] = `[{"id":"t1"},{"id":"t2"}]`
	c := newTestClient(t, b)

	page, err := c.TransactionHistory(context.Background(), domain.PageQuery{Page: 2, Limit: 10})
	require.NoError(t, err)

	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, int64(12), page.Total)
}

func TestClient_NonSuccessIsReadableError(t *testing.T) {
	b := newBackend()
	b.status[prefix+"wallets"] = http.StatusInternalServerError
	b.bodies[prefix+"wallets"] = `{"error":"wallet store offline"}`
	c := newTestClient(t, b)

	_, err := c.Wallets(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperror.CodeAPIRequestFailed, apperror.GetCode(err))
	assert.Contains(t, apperror.Message(err), "wallet store offline")
}

func TestClient_MalformedBodyIsDecodeError(t *testing.T) {
	b := newBackend()
	b.bodies[prefix+"networks/status"] = `<html>oops</html>`
	c := newTestClient(t, b)

	_, err := c.NetworkStatus(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperror.CodeAPIDecodeFailed, apperror.GetCode(err))
}

func TestClient_EmptyBodyOnReadIsError(t *testing.T) {
	b := newBackend()
	c := newTestClient(t, b)

	_, err := c.SystemSettings(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperror.CodeAPIDecodeFailed, apperror.GetCode(err))
}

func TestClient_AcknowledgeAlert(t *testing.T) {
	b := newBackend()
	c := newTestClient(t, b)

	require.NoError(t, c.AcknowledgeAlert(context.Background(), "a/1"))

	last := b.last()
	assert.Equal(t, http.MethodPost, last.Method)
	assert.Equal(t, prefix+"alerts/a/1/acknowledge", last.Path)
}

func TestClient_AddWallet(t *testing.T) {
	req := domain.AddWalletRequest{Address: "0x52908400098527886E0F7030069857D2E4169EE7", Label: "hot", Network: "ethereum"}

	t.Run("echoes request on bare ack", func(t *testing.T) {
		b := newBackend()
		b.bodies[prefix+"wallets/add"] = `{"success":true}`
		c := newTestClient(t, b)

		w, err := c.AddWallet(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, req.Address, w.Address.Hex())
		assert.Equal(t, "hot", w.Label)

		var sent map[string]string
		require.NoError(t, json.Unmarshal([]byte(b.last().Body), &sent))
		assert.Equal(t, "ethereum", sent["network"])
	})

	t.Run("uses server wallet when returned", func(t *testing.T) {
		b := newBackend()
		b.bodies[prefix+"wallets/add"] = `{"data":{"address":"0x52908400098527886E0F7030069857D2E4169EE7","label":"server-label","balance_eth":"1.25"}}`
		c := newTestClient(t, b)

		w, err := c.AddWallet(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "server-label", w.Label)
		assert.True(t, w.BalanceETH.Equal(decimal.RequireFromString("1.25")))
	})
}

func TestClient_UpdateSettingsFallsBackToInput(t *testing.T) {
	b := newBackend()
	c := newTestClient(t, b)

	in := domain.SystemSettings{PollIntervalSeconds: 7, MaxGasGwei: decimal.NewFromInt(50)}
	saved, err := c.UpdateSystemSettings(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 7, saved.PollIntervalSeconds)
	assert.Equal(t, http.MethodPut, b.last().Method)
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	b := newBackend()
	b.status[prefix+"opportunities"] = http.StatusServiceUnavailable
	c := newTestClient(t, b)

	for i := 0; i < 5; i++ {
		_, err := c.Opportunities(context.Background())
		require.Error(t, err)
	}

	_, err := c.Opportunities(context.Background())
	assert.Equal(t, apperror.CodeCircuitOpen, apperror.GetCode(err))
}

func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	b := newBackend()
	b.status[prefix+"alerts/rules"] = http.StatusNotFound
	c := newTestClient(t, b)

	for i := 0; i < 8; i++ {
		_, err := c.AlertRules(context.Background())
		assert.Equal(t, apperror.CodeAPINotFound, apperror.GetCode(err))
	}
}

func TestDecode(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	require.NoError(t, Decode([]byte(` {"data":{"name":"x"}} `), &v))
	assert.Equal(t, "x", v.Name)

	require.NoError(t, Decode([]byte(`{"name":"y"}`), &v))
	assert.Equal(t, "y", v.Name)

	assert.ErrorIs(t, Decode([]byte("  "), &v), ErrEmptyBody)
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{}, nil)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeConfigurationError, apperror.GetCode(err))
}
