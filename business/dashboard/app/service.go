package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/arbitrage-dashboard/business/dashboard/domain"
	"github.com/fd1az/arbitrage-dashboard/internal/apperror"
	"github.com/fd1az/arbitrage-dashboard/internal/logger"
	"github.com/fd1az/arbitrage-dashboard/internal/poller"
	"github.com/fd1az/arbitrage-dashboard/internal/ratelimit"
)

const tracerName = "github.com/fd1az/arbitrage-dashboard/business/dashboard/app"

// Config holds polling settings for the dashboard service.
type Config struct {
	Intervals        map[domain.Resource]time.Duration
	DefaultInterval  time.Duration
	RefreshPerMinute int
	RefreshBurst     int
	HistoryPageSize  int
	HistoryCacheSize int
}

// DefaultConfig returns the intervals the dashboard ships with.
func DefaultConfig() Config {
	return Config{
		Intervals: map[domain.Resource]time.Duration{
			domain.ResourceStats:            5 * time.Second,
			domain.ResourceHistory:          15 * time.Second,
			domain.ResourceAlerts:           5 * time.Second,
			domain.ResourceAlertRules:       30 * time.Second,
			domain.ResourceWallets:          15 * time.Second,
			domain.ResourceSystemSettings:   30 * time.Second,
			domain.ResourceSecuritySettings: 60 * time.Second,
			domain.ResourceOpportunities:    3 * time.Second,
			domain.ResourceNetworks:         10 * time.Second,
		},
		DefaultInterval:  10 * time.Second,
		RefreshPerMinute: 20,
		RefreshBurst:     3,
		HistoryPageSize:  domain.DefaultPageLimit,
		HistoryCacheSize: 16,
	}
}

// Service polls every dashboard resource and forwards results to a Reporter.
type Service struct {
	source   DataSource
	probe    NetworkProbe
	reporter Reporter
	config   Config
	logger   logger.LoggerInterface
	tracer   trace.Tracer
	limiters *ratelimit.Keyed
	history  *HistoryCache

	// pageMu orders history reports against page switches.
	pageMu sync.Mutex

	mu        sync.Mutex
	handles   map[domain.Resource]*poller.Handle
	page      domain.PageQuery
	lastTotal int64
	statsSeen bool
	statsErr  error
}

// NewService creates a Service. probe may be nil.
func NewService(source DataSource, probe NetworkProbe, reporter Reporter, cfg Config, log logger.LoggerInterface) (*Service, error) {
	history, err := NewHistoryCache(cfg.HistoryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("history cache: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Service{
		source:   source,
		probe:    probe,
		reporter: reporter,
		config:   cfg,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
		limiters: ratelimit.NewKeyed(cfg.RefreshPerMinute, cfg.RefreshBurst),
		history:  history,
		handles:  make(map[domain.Resource]*poller.Handle),
		page:     domain.PageQuery{Page: 1, Limit: cfg.HistoryPageSize}.Normalize(),
	}, nil
}

func (s *Service) interval(r domain.Resource) time.Duration {
	if d, ok := s.config.Intervals[r]; ok {
		return d
	}
	return s.config.DefaultInterval
}

// startPoller wires one resource to the reporter. after sees every
// delivered result before it is reported.
func startPoller[T any](ctx context.Context, s *Service, r domain.Resource, fetch poller.FetchFunc[T], after func(T, error)) *poller.Handle {
	deliver := func(res poller.Result[T]) {
		if after != nil {
			after(res.Value, res.Err)
		}
		s.report(r, res.Value, res.Err, res.Manual, res.FetchedAt)
	}
	return runPoller(ctx, s, r, fetch, deliver)
}

func runPoller[T any](ctx context.Context, s *Service, r domain.Resource, fetch poller.FetchFunc[T], deliver poller.DeliverFunc[T]) *poller.Handle {
	p := poller.New(r.String(), s.interval(r), fetch, deliver,
		poller.WithRefreshLimiter(s.limiters.For(r.String())),
		poller.WithLogger(s.logger),
	)
	return p.Start(ctx)
}

func (s *Service) report(r domain.Resource, value any, err error, manual bool, at time.Time) {
	s.reporter.Report(Update{
		Resource:  r,
		Value:     value,
		Err:       err,
		Manual:    manual,
		FetchedAt: at,
	})
}

// Start starts the reporter and one poller per resource.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info(ctx, "starting dashboard service")

	if err := s.reporter.Start(ctx); err != nil {
		return fmt.Errorf("start reporter: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.handles[domain.ResourceStats] = startPoller(ctx, s, domain.ResourceStats, s.source.TransactionStats, s.observeStats)
	s.handles[domain.ResourceHistory] = runPoller(ctx, s, domain.ResourceHistory, s.fetchHistory, s.deliverHistory)
	s.handles[domain.ResourceAlerts] = startPoller(ctx, s, domain.ResourceAlerts, s.source.ActiveAlerts, nil)
	s.handles[domain.ResourceAlertRules] = startPoller(ctx, s, domain.ResourceAlertRules, s.source.AlertRules, nil)
	s.handles[domain.ResourceWallets] = startPoller(ctx, s, domain.ResourceWallets, s.source.Wallets, nil)
	s.handles[domain.ResourceSystemSettings] = startPoller(ctx, s, domain.ResourceSystemSettings, s.source.SystemSettings, nil)
	s.handles[domain.ResourceSecuritySettings] = startPoller(ctx, s, domain.ResourceSecuritySettings, s.source.SecuritySettings, nil)
	s.handles[domain.ResourceOpportunities] = startPoller(ctx, s, domain.ResourceOpportunities, s.source.Opportunities, nil)
	s.handles[domain.ResourceNetworks] = startPoller(ctx, s, domain.ResourceNetworks, s.fetchNetworks, nil)

	return nil
}

// Stop stops every poller, then the reporter. No update is reported after
// the pollers have stopped.
func (s *Service) Stop() error {
	s.mu.Lock()
	handles := s.handles
	s.handles = make(map[domain.Resource]*poller.Handle)
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, h := range handles {
		wg.Add(1)
		go func(h *poller.Handle) {
			defer wg.Done()
			h.Stop()
		}(h)
	}
	wg.Wait()

	s.logger.Info(context.Background(), "dashboard service stopped")
	return s.reporter.Stop()
}

func (s *Service) handle(r domain.Resource) *poller.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handles[r]
}

// Refresh is a user-requested poll of r. It returns false when throttled or
// when r is not running.
func (s *Service) Refresh(r domain.Resource) bool {
	h := s.handle(r)
	if h == nil {
		return false
	}
	return h.Refresh()
}

// Invalidate polls r now, bypassing the user refresh limiter.
func (s *Service) Invalidate(r domain.Resource) bool {
	h := s.handle(r)
	if h == nil {
		return false
	}
	return h.Trigger()
}

// HistoryPage returns the history page being polled.
func (s *Service) HistoryPage() domain.PageQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// SetHistoryPage switches the polled history page. A cached copy of the page
// is reported at once, then the page is refetched. Results still in flight
// for the previous page are dropped. It may block on the reporter.
func (s *Service) SetHistoryPage(page int) domain.PageQuery {
	q := s.switchPage(page)
	// Not under pageMu: the poller holds its own lock while delivering.
	s.Invalidate(domain.ResourceHistory)
	return q
}

func (s *Service) switchPage(page int) domain.PageQuery {
	s.pageMu.Lock()
	defer s.pageMu.Unlock()

	s.mu.Lock()
	s.page = domain.PageQuery{Page: page, Limit: s.page.Limit}.Normalize()
	q := s.page
	s.mu.Unlock()

	if cached, ok := s.history.Get(q); ok {
		s.reporter.Report(Update{
			Resource:  domain.ResourceHistory,
			Value:     cached,
			Cached:    true,
			FetchedAt: time.Now(),
		})
	}
	return q
}

// historyFetch is a history page with the query that produced it.
type historyFetch struct {
	query domain.PageQuery
	page  domain.TransactionPage
}

func (s *Service) fetchHistory(ctx context.Context) (historyFetch, error) {
	q := s.HistoryPage()

	page, err := s.source.TransactionHistory(ctx, q)
	if err != nil {
		return historyFetch{query: q}, err
	}
	if page.Page == 0 {
		page.Page = q.Page
	}
	if page.Limit == 0 {
		page.Limit = q.Limit
	}
	s.history.Put(q, page)
	return historyFetch{query: q, page: page}, nil
}

func (s *Service) deliverHistory(res poller.Result[historyFetch]) {
	s.pageMu.Lock()
	defer s.pageMu.Unlock()

	if current := s.HistoryPage(); res.Value.query != current {
		s.logger.Debug(context.Background(), "dropping history for a previous page",
			"fetched", res.Value.query.Page, "current", current.Page, "seq", res.Seq)
		return
	}
	s.report(domain.ResourceHistory, res.Value.page, res.Err, res.Manual, res.FetchedAt)
}

// observeStats records the poll outcome for health checks and purges cached
// history once the transaction total moves.
func (s *Service) observeStats(stats domain.TransactionStats, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.statsErr = err
	if err != nil {
		return
	}
	if s.statsSeen && stats.TotalTransactions != s.lastTotal {
		s.history.Purge()
	}
	s.lastTotal = stats.TotalTransactions
	s.statsSeen = true
}

func (s *Service) fetchNetworks(ctx context.Context) ([]domain.NetworkStatus, error) {
	apiRows, apiErr := s.source.NetworkStatus(ctx)
	if s.probe == nil {
		return apiRows, apiErr
	}

	rpcRows, rpcErr := s.probe.Probe(ctx)
	if apiErr != nil && rpcErr != nil {
		return nil, apiErr
	}
	if apiErr != nil {
		s.logger.Warn(ctx, "network status from api failed, showing rpc probes only", "error", apiErr)
	}
	if rpcErr != nil {
		s.logger.Warn(ctx, "rpc probe failed", "error", rpcErr)
	}
	return domain.MergeNetworkStatus(apiRows, rpcRows), nil
}

// History exposes the page cache.
func (s *Service) History() *HistoryCache { return s.history }

// AddWallet validates req, submits it and refreshes the wallet list.
func (s *Service) AddWallet(ctx context.Context, req domain.AddWalletRequest) (domain.Wallet, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.add_wallet",
		trace.WithAttributes(attribute.String("network", req.Network)),
	)
	defer span.End()

	if err := req.Validate(); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		return domain.Wallet{}, err
	}

	w, err := s.source.AddWallet(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "add wallet failed")
		return domain.Wallet{}, err
	}

	s.logger.Info(ctx, "wallet added", "address", req.Address, "label", req.Label)
	s.Invalidate(domain.ResourceWallets)
	span.SetStatus(codes.Ok, "added")
	return w, nil
}

// AcknowledgeAlert acknowledges id and refreshes the active alerts.
func (s *Service) AcknowledgeAlert(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "dashboard.ack_alert",
		trace.WithAttributes(attribute.String("alert_id", id)),
	)
	defer span.End()

	if id == "" {
		return apperror.Validation(apperror.CodeRequiredField, "alert id is required")
	}

	if err := s.source.AcknowledgeAlert(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ack failed")
		return err
	}

	s.Invalidate(domain.ResourceAlerts)
	span.SetStatus(codes.Ok, "acknowledged")
	return nil
}

// UpdateSystemSettings validates and saves settings, then refreshes them.
func (s *Service) UpdateSystemSettings(ctx context.Context, settings domain.SystemSettings) (domain.SystemSettings, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.update_system_settings")
	defer span.End()

	if err := settings.Validate(); err != nil {
		span.SetStatus(codes.Error, "invalid settings")
		return domain.SystemSettings{}, err
	}

	saved, err := s.source.UpdateSystemSettings(ctx, settings)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return domain.SystemSettings{}, err
	}

	s.Invalidate(domain.ResourceSystemSettings)
	span.SetStatus(codes.Ok, "updated")
	return saved, nil
}

// UpdateSecuritySettings validates and saves settings, then refreshes them.
func (s *Service) UpdateSecuritySettings(ctx context.Context, settings domain.SecuritySettings) (domain.SecuritySettings, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.update_security_settings")
	defer span.End()

	if err := settings.Validate(); err != nil {
		span.SetStatus(codes.Error, "invalid settings")
		return domain.SecuritySettings{}, err
	}

	saved, err := s.source.UpdateSecuritySettings(ctx, settings)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return domain.SecuritySettings{}, err
	}

	s.Invalidate(domain.ResourceSecuritySettings)
	span.SetStatus(codes.Ok, "updated")
	return saved, nil
}

// BackendHealth reports the outcome of the most recent stats poll.
func (s *Service) BackendHealth(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.statsSeen && s.statsErr == nil {
		return apperror.New(apperror.CodeServiceUnavailable, apperror.WithContext("no stats received yet"))
	}
	return s.statsErr
}
