// Package live turns backend push events into immediate polls.
//
// The feed never carries data itself. Each event names what changed and the
// feed asks the service to poll those resources now, so results still flow
// through the pollers and their ordering rules.
package live

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/arbitrage-dashboard/business/dashboard/domain"
	"github.com/fd1az/arbitrage-dashboard/internal/apperror"
	"github.com/fd1az/arbitrage-dashboard/internal/logger"
	"github.com/fd1az/arbitrage-dashboard/internal/ratelimit"
	"github.com/fd1az/arbitrage-dashboard/internal/wsconn"
)

const meterName = "github.com/fd1az/arbitrage-dashboard/business/dashboard/infra/live"

// Event is one push notification from the backend.
type Event struct {
	Type string `json:"type"`
}

// eventResources maps event types to the resources they invalidate.
var eventResources = map[string][]domain.Resource{
	"transactions":  {domain.ResourceStats, domain.ResourceHistory},
	"alerts":        {domain.ResourceAlerts, domain.ResourceAlertRules},
	"wallets":       {domain.ResourceWallets},
	"settings":      {domain.ResourceSystemSettings, domain.ResourceSecuritySettings},
	"opportunities": {domain.ResourceOpportunities},
	"networks":      {domain.ResourceNetworks},
}

// Resources returns the resources invalidated by an event type. Resource
// names are accepted as event types too.
func Resources(eventType string) []domain.Resource {
	t := strings.ToLower(strings.TrimSpace(eventType))
	if rs, ok := eventResources[t]; ok {
		return rs
	}
	if r := domain.Resource(t); r.Valid() {
		return []domain.Resource{r}
	}
	return nil
}

// Invalidator polls a resource immediately. app.Service implements it.
type Invalidator interface {
	Invalidate(r domain.Resource) bool
}

// Config holds live feed settings.
type Config struct {
	URL string
	// PerMinute and Burst bound how often one resource is invalidated by
	// pushes. A chatty backend otherwise turns every event into a request.
	PerMinute int
	Burst     int
}

// DefaultConfig returns defaults for url.
func DefaultConfig(url string) Config {
	return Config{URL: url, PerMinute: 60, Burst: 2}
}

// Feed subscribes to backend events and invalidates resources.
type Feed struct {
	client   *wsconn.Client
	target   Invalidator
	limiters *ratelimit.Keyed
	logger   logger.LoggerInterface
	events   metric.Int64Counter

	mu      sync.Mutex
	onState func(wsconn.State)
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a Feed. It does not connect.
func New(cfg Config, target Invalidator, log logger.LoggerInterface) (*Feed, error) {
	if log == nil {
		log = logger.NewNop()
	}

	wsCfg := wsconn.DefaultConfig(cfg.URL, "live-feed")
	wsCfg.Logger = log
	client, err := wsconn.New(wsCfg)
	if err != nil {
		return nil, err
	}

	events, err := otel.Meter(meterName).Int64Counter(
		"dashboard_live_events_total",
		metric.WithDescription("Push events received, by type and outcome"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	f := &Feed{
		client:   client,
		target:   target,
		limiters: ratelimit.NewKeyed(cfg.PerMinute, cfg.Burst),
		logger:   log,
		events:   events,
	}
	client.OnMessage(f.handle)
	client.OnStateChange(f.stateChanged)
	return f, nil
}

// OnStateChange registers fn to observe connection state.
func (f *Feed) OnStateChange(fn func(wsconn.State)) {
	f.mu.Lock()
	f.onState = fn
	f.mu.Unlock()
}

func (f *Feed) stateChanged(state wsconn.State, err error) {
	if err != nil {
		f.logger.Warn(context.Background(), "live feed state changed", "state", state, "error", err)
	} else {
		f.logger.Info(context.Background(), "live feed state changed", "state", state)
	}

	f.mu.Lock()
	fn := f.onState
	f.mu.Unlock()
	if fn != nil {
		fn(state)
	}
}

// Start connects in the background, retrying until Stop. It never blocks on
// the network.
func (f *Feed) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	f.mu.Lock()
	f.cancel = cancel
	f.done = done
	f.mu.Unlock()

	go func() {
		defer close(done)
		if err := f.client.ConnectWithRetry(ctx); err != nil && ctx.Err() == nil {
			f.logger.Error(ctx, "live feed gave up connecting", "error", err)
		}
	}()
	return nil
}

// Stop disconnects. It is safe to call more than once.
func (f *Feed) Stop() error {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return f.client.Close()
}

// State returns the connection state.
func (f *Feed) State() wsconn.State {
	return f.client.State()
}

// Ping reports whether the feed is connected. Used by health checks.
func (f *Feed) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.client.IsConnected() {
		return nil
	}
	return apperror.New(apperror.CodeWebSocketConnectionError,
		apperror.WithContext("live feed is "+string(f.client.State())))
}

func (f *Feed) handle(ctx context.Context, msg []byte) {
	var ev Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		f.record(ctx, "", "malformed")
		f.logger.Debug(ctx, "live feed: malformed event", "error", err)
		return
	}

	resources := Resources(ev.Type)
	if len(resources) == 0 {
		f.record(ctx, ev.Type, "ignored")
		f.logger.Debug(ctx, "live feed: unknown event type", "type", ev.Type)
		return
	}

	f.record(ctx, ev.Type, f.dispatch(resources))
}

// dispatch invalidates every resource its limiter allows and names the
// outcome: invalidated if any poll was requested, not_running if the limiter
// allowed one but the target refused it, throttled otherwise.
func (f *Feed) dispatch(resources []domain.Resource) string {
	outcome := "throttled"
	for _, r := range resources {
		if !f.limiters.Allow(r.String()) {
			continue
		}
		if f.target.Invalidate(r) {
			outcome = "invalidated"
		} else if outcome == "throttled" {
			outcome = "not_running"
		}
	}
	return outcome
}

func (f *Feed) record(ctx context.Context, eventType, outcome string) {
	f.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", eventType),
		attribute.String("outcome", outcome),
	))
}
