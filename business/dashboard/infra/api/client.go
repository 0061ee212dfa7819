// Package api is the HTTP JSON client for the dashboard backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/arbitrage-dashboard/business/dashboard/domain"
	"github.com/fd1az/arbitrage-dashboard/internal/apperror"
	"github.com/fd1az/arbitrage-dashboard/internal/circuitbreaker"
	"github.com/fd1az/arbitrage-dashboard/internal/httpclient"
	"github.com/fd1az/arbitrage-dashboard/internal/logger"
)

const tracerName = "github.com/fd1az/arbitrage-dashboard/business/dashboard/infra/api"

// DefaultPrefix is where the backend mounts its versioned API.
const DefaultPrefix = "/api/proxy/api/v2/"

// Config holds backend connection settings.
type Config struct {
	BaseURL string
	Prefix  string
	Token   string
	Timeout time.Duration
	Breaker circuitbreaker.Config
}

// DefaultConfig returns defaults for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Prefix:  DefaultPrefix,
		Timeout: 10 * time.Second,
		Breaker: circuitbreaker.DefaultConfig("dashboard-api"),
	}
}

// Client implements the dashboard DataSource over HTTP.
type Client struct {
	http   httpclient.Client
	cb     *circuitbreaker.CircuitBreaker[*httpclient.Response]
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewClient creates a Client.
func NewClient(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("api base url is required"))
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}

	base, err := url.JoinPath(cfg.BaseURL, cfg.Prefix)
	if err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithCause(err),
			apperror.WithContext("invalid api base url"))
	}

	opts := []httpclient.ClientOption{
		httpclient.WithBaseURL(base),
		httpclient.WithProviderName("dashboard-api"),
		httpclient.WithBearerToken(cfg.Token),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, httpclient.WithRequestTimeout(cfg.Timeout))
	}

	hc, err := httpclient.NewInstrumentedClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("http client: %w", err)
	}

	if log == nil {
		log = logger.NewNop()
	}

	breaker := cfg.Breaker
	if breaker.Name == "" {
		breaker = circuitbreaker.DefaultConfig("dashboard-api")
	}
	if breaker.IsSuccessful == nil {
		// Client errors say nothing about backend health.
		breaker.IsSuccessful = func(err error) bool {
			if err == nil {
				return true
			}
			var appErr *apperror.AppError
			return errors.As(err, &appErr) && !appErr.Retryable()
		}
	}
	if breaker.OnStateChange == nil {
		breaker.OnStateChange = func(name string, from, to gobreaker.State) {
			log.Warn(context.Background(), "circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		}
	}

	return &Client{
		http:   hc,
		cb:     circuitbreaker.New[*httpclient.Response](breaker),
		logger: log,
		tracer: otel.Tracer(tracerName),
	}, nil
}

// call runs one request through the breaker and decodes the response into
// out, which may be nil. With allowEmpty an empty body leaves out untouched.
func (c *Client) call(ctx context.Context, name string, out any, allowEmpty bool, do func(ctx context.Context) (*httpclient.Response, error)) error {
	ctx, span := c.tracer.Start(ctx, "api."+name)
	defer span.End()

	resp, err := c.cb.Execute(func() (*httpclient.Response, error) {
		return do(ctx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return apperror.Wrap(err, apperror.CodeAPIRequestFailed, name)
	}

	if out != nil && !(allowEmpty && len(bytes.TrimSpace(resp.Body())) == 0) {
		if err := Decode(resp.Body(), out); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode failed")
			return apperror.New(apperror.CodeAPIDecodeFailed,
				apperror.WithCause(err),
				apperror.WithContext(name))
		}
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	span.SetStatus(codes.Ok, "ok")
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.call(ctx, path, out, false, func(ctx context.Context) (*httpclient.Response, error) {
		return c.http.NewRequest().Get(ctx, path)
	})
}

// TransactionStats fetches transactions/stats.
func (c *Client) TransactionStats(ctx context.Context) (domain.TransactionStats, error) {
	var stats domain.TransactionStats
	err := c.get(ctx, "transactions/stats", &stats)
	return stats, err
}

// TransactionHistory fetches one page of transactions/history.
func (c *Client) TransactionHistory(ctx context.Context, q domain.PageQuery) (domain.TransactionPage, error) {
	q = q.Normalize()

	var raw json.RawMessage
	err := c.call(ctx, "transactions/history", &raw, false, func(ctx context.Context) (*httpclient.Response, error) {
		return c.http.NewRequest().
			SetQueryParam("page", strconv.Itoa(q.Page)).
			SetQueryParam("limit", strconv.Itoa(q.Limit)).
			Get(ctx, "transactions/history")
	})
	if err != nil {
		return domain.TransactionPage{}, err
	}

	page, err := decodePage(raw, q)
	if err != nil {
		return domain.TransactionPage{}, apperror.New(apperror.CodeAPIDecodeFailed,
			apperror.WithCause(err),
			apperror.WithContext("transactions/history"))
	}
	return page, nil
}

// decodePage accepts either a page object or a bare list of transactions.
func decodePage(raw json.RawMessage, q domain.PageQuery) (domain.TransactionPage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []domain.Transaction
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return domain.TransactionPage{}, err
		}
		return domain.TransactionPage{
			Items: items,
			Page:  q.Page,
			Limit: q.Limit,
			Total: int64((q.Page-1)*q.Limit + len(items)),
		}, nil
	}

	var page domain.TransactionPage
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return domain.TransactionPage{}, err
	}
	if page.Page == 0 {
		page.Page = q.Page
	}
	if page.Limit == 0 {
		page.Limit = q.Limit
	}
	return page, nil
}

// ActiveAlerts fetches alerts/active.
func (c *Client) ActiveAlerts(ctx context.Context) ([]domain.Alert, error) {
	alerts := []domain.Alert{}
	err := c.get(ctx, "alerts/active", &alerts)
	return alerts, err
}

// AlertRules fetches alerts/rules.
func (c *Client) AlertRules(ctx context.Context) ([]domain.AlertRule, error) {
	rules := []domain.AlertRule{}
	err := c.get(ctx, "alerts/rules", &rules)
	return rules, err
}

// AcknowledgeAlert posts alerts/{id}/acknowledge.
func (c *Client) AcknowledgeAlert(ctx context.Context, id string) error {
	path := "alerts/" + url.PathEscape(id) + "/acknowledge"
	return c.call(ctx, "alerts/acknowledge", nil, true, func(ctx context.Context) (*httpclient.Response, error) {
		return c.http.NewRequest().Post(ctx, path)
	})
}

// Wallets fetches wallets.
func (c *Client) Wallets(ctx context.Context) ([]domain.Wallet, error) {
	wallets := []domain.Wallet{}
	err := c.get(ctx, "wallets", &wallets)
	return wallets, err
}

// AddWallet posts wallets/add. Backends that answer with an empty body or
// a bare acknowledgement get the request echoed back as the wallet.
func (c *Client) AddWallet(ctx context.Context, req domain.AddWalletRequest) (domain.Wallet, error) {
	var raw json.RawMessage
	err := c.call(ctx, "wallets/add", &raw, true, func(ctx context.Context) (*httpclient.Response, error) {
		return c.http.NewRequest().SetBody(req).Post(ctx, "wallets/add")
	})
	if err != nil {
		return domain.Wallet{}, err
	}

	var w domain.Wallet
	if json.Unmarshal(raw, &w) != nil || w.Address == (common.Address{}) {
		return domain.Wallet{
			Address: common.HexToAddress(req.Address),
			Label:   req.Label,
			Network: req.Network,
			AddedAt: time.Now(),
		}, nil
	}
	return w, nil
}

// SystemSettings fetches settings/system.
func (c *Client) SystemSettings(ctx context.Context) (domain.SystemSettings, error) {
	var s domain.SystemSettings
	err := c.get(ctx, "settings/system", &s)
	return s, err
}

// UpdateSystemSettings puts settings/system.
func (c *Client) UpdateSystemSettings(ctx context.Context, s domain.SystemSettings) (domain.SystemSettings, error) {
	var raw json.RawMessage
	err := c.call(ctx, "settings/system", &raw, true, func(ctx context.Context) (*httpclient.Response, error) {
		return c.http.NewRequest().SetBody(s).Put(ctx, "settings/system")
	})
	if err != nil {
		return domain.SystemSettings{}, err
	}

	var saved domain.SystemSettings
	if json.Unmarshal(raw, &saved) != nil || saved.PollIntervalSeconds == 0 {
		return s, nil
	}
	return saved, nil
}

// SecuritySettings fetches settings/security.
func (c *Client) SecuritySettings(ctx context.Context) (domain.SecuritySettings, error) {
	var s domain.SecuritySettings
	err := c.get(ctx, "settings/security", &s)
	return s, err
}

// UpdateSecuritySettings puts settings/security.
func (c *Client) UpdateSecuritySettings(ctx context.Context, s domain.SecuritySettings) (domain.SecuritySettings, error) {
	var raw json.RawMessage
	err := c.call(ctx, "settings/security", &raw, true, func(ctx context.Context) (*httpclient.Response, error) {
		return c.http.NewRequest().SetBody(s).Put(ctx, "settings/security")
	})
	if err != nil {
		return domain.SecuritySettings{}, err
	}

	var saved domain.SecuritySettings
	if json.Unmarshal(raw, &saved) != nil || saved.SessionTimeoutMinutes == 0 {
		return s, nil
	}
	return saved, nil
}

// Opportunities fetches opportunities.
func (c *Client) Opportunities(ctx context.Context) ([]domain.Opportunity, error) {
	opps := []domain.Opportunity{}
	err := c.get(ctx, "opportunities", &opps)
	return opps, err
}

// NetworkStatus fetches networks/status.
func (c *Client) NetworkStatus(ctx context.Context) ([]domain.NetworkStatus, error) {
	rows := []domain.NetworkStatus{}
	if err := c.get(ctx, "networks/status", &rows); err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Source = domain.SourceAPI
	}
	return rows, nil
}
