// Package poller runs a fetch function on a fixed interval and hands results
// to a consumer, newest-issued wins.
//
// Every poll cycle, scheduled or manual, is tagged with a sequence number at
// issue time. Cycles may overlap; a result is delivered only if no cycle
// issued after it has already been delivered. Stop cancels in-flight fetches
// and guarantees nothing is delivered once it returns.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/arbitrage-dashboard/internal/logger"
	"github.com/fd1az/arbitrage-dashboard/internal/ratelimit"
)

const tracerName = "github.com/fd1az/arbitrage-dashboard/internal/poller"

// FetchFunc loads one snapshot of a resource.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// DeliverFunc receives results. It is called from fetch goroutines, never
// concurrently with itself for the same poller.
type DeliverFunc[T any] func(Result[T])

// Result is the outcome of one poll cycle.
type Result[T any] struct {
	Resource  string
	Seq       uint64
	Value     T
	Err       error
	Manual    bool
	FetchedAt time.Time
	Took      time.Duration
}

// Option configures a Poller.
type Option func(*options)

type options struct {
	limiter *ratelimit.Limiter
	logger  logger.LoggerInterface
	now     func() time.Time
}

// WithRefreshLimiter throttles manual refreshes.
func WithRefreshLimiter(l *ratelimit.Limiter) Option {
	return func(o *options) { o.limiter = l }
}

// WithLogger sets the logger.
func WithLogger(l logger.LoggerInterface) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the time source used for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Poller is the schedule definition. Start it to get a running Handle.
type Poller[T any] struct {
	name     string
	interval time.Duration
	fetch    FetchFunc[T]
	deliver  DeliverFunc[T]
	opts     options
	tracer   trace.Tracer
}

// New creates a poller for the named resource. A non-positive interval
// disables the schedule: only the first poll and manual refreshes run.
func New[T any](name string, interval time.Duration, fetch FetchFunc[T], deliver DeliverFunc[T], opts ...Option) *Poller[T] {
	o := options{
		logger: logger.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Poller[T]{
		name:     name,
		interval: interval,
		fetch:    fetch,
		deliver:  deliver,
		opts:     o,
		tracer:   otel.Tracer(tracerName),
	}
}

// Name returns the resource name.
func (p *Poller[T]) Name() string { return p.name }

// Interval returns the schedule interval.
func (p *Poller[T]) Interval() time.Duration { return p.interval }

// Handle controls a running poller.
type Handle struct {
	name    string
	cancel  context.CancelFunc
	refresh chan struct{}
	limiter *ratelimit.Limiter
	wg      sync.WaitGroup

	seq       atomic.Uint64
	discarded atomic.Uint64

	// mu serialises delivery against Stop.
	mu            sync.Mutex
	stopped       bool
	lastDelivered uint64

	stopOnce sync.Once
}

// Start launches the poll loop. The first poll is issued immediately.
func (p *Poller[T]) Start(ctx context.Context) *Handle {
	ctx, cancel := context.WithCancel(ctx)

	h := &Handle{
		name:    p.name,
		cancel:  cancel,
		refresh: make(chan struct{}, 1),
		limiter: p.opts.limiter,
	}

	h.wg.Add(1)
	go p.run(ctx, h)

	return h
}

func (p *Poller[T]) run(ctx context.Context, h *Handle) {
	defer h.wg.Done()

	p.opts.logger.Debug(ctx, "poller started", "resource", p.name, "interval", p.interval)

	p.issue(ctx, h, false)

	var tick <-chan time.Time
	if p.interval > 0 {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			p.opts.logger.Debug(ctx, "poller stopped", "resource", p.name)
			return
		case <-tick:
			p.issue(ctx, h, false)
		case <-h.refresh:
			p.issue(ctx, h, true)
		}
	}
}

// issue starts one poll cycle. Cycles are not deduplicated: a manual refresh
// while a scheduled fetch is in flight runs alongside it.
func (p *Poller[T]) issue(ctx context.Context, h *Handle, manual bool) {
	seq := h.seq.Add(1)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		ctx, span := p.tracer.Start(ctx, "poll."+p.name,
			trace.WithAttributes(
				attribute.Int64("seq", int64(seq)),
				attribute.Bool("manual", manual),
			),
		)
		defer span.End()

		start := p.opts.now()
		value, err := p.fetch(ctx)
		took := p.opts.now().Sub(start)

		if ctx.Err() != nil {
			// Torn down while fetching.
			span.SetStatus(codes.Error, "cancelled")
			return
		}

		outcome := outcomeSuccess
		if err != nil {
			outcome = outcomeError
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetch failed")
			p.opts.logger.Warn(ctx, "poll failed", "resource", p.name, "seq", seq, "error", err)
		} else {
			span.SetStatus(codes.Ok, "fetched")
		}

		res := Result[T]{
			Resource:  p.name,
			Seq:       seq,
			Value:     value,
			Err:       err,
			Manual:    manual,
			FetchedAt: p.opts.now(),
			Took:      took,
		}

		if !h.deliverIf(seq, func() { p.deliver(res) }) {
			h.discarded.Add(1)
			recordDiscard(ctx, p.name)
			span.AddEvent("discarded")
			return
		}
		recordPoll(ctx, p.name, outcome, took)
	}()
}

// deliverIf runs fn if seq is newer than anything delivered and the handle is
// still live. It reports whether fn ran.
func (h *Handle) deliverIf(seq uint64, fn func()) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped || seq <= h.lastDelivered {
		return false
	}
	h.lastDelivered = seq
	fn()
	return true
}

// Refresh requests an immediate poll. It returns false if the handle is
// stopped or the refresh was throttled. Joining a refresh that is already
// pending costs no token.
func (h *Handle) Refresh() bool {
	if h.Stopped() {
		return false
	}
	if len(h.refresh) == cap(h.refresh) {
		return true
	}
	if !h.limiter.Allow() {
		return false
	}
	return h.Trigger()
}

// Trigger requests an immediate poll without consulting the refresh limiter.
// It is meant for refreshes the program itself initiates, such as after a
// successful mutation.
func (h *Handle) Trigger() bool {
	if h.Stopped() {
		return false
	}

	select {
	case h.refresh <- struct{}{}:
	default:
		// A refresh is already pending; it will pick up fresh data.
	}
	return true
}

// Stop cancels the poller, aborts in-flight fetches and waits for every
// goroutine to exit. It is safe to call more than once.
func (h *Handle) Stop() {
	h.stopOnce.Do(func() {
		h.mu.Lock()
		h.stopped = true
		h.mu.Unlock()

		h.cancel()
		h.wg.Wait()
	})
}

// Stopped reports whether Stop has been called.
func (h *Handle) Stopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}

// Name returns the resource name.
func (h *Handle) Name() string { return h.name }

// Issued returns how many poll cycles have been started.
func (h *Handle) Issued() uint64 { return h.seq.Load() }

// Discarded returns how many results were dropped as stale.
func (h *Handle) Discarded() uint64 { return h.discarded.Load() }
