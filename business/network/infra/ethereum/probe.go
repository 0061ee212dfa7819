// Package ethereum probes Ethereum JSON-RPC endpoints with go-ethereum.
package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	dashDomain "github.com/fd1az/arbitrage-dashboard/business/dashboard/domain"
	"github.com/fd1az/arbitrage-dashboard/business/network/domain"
	"github.com/fd1az/arbitrage-dashboard/internal/apperror"
	"github.com/fd1az/arbitrage-dashboard/internal/circuitbreaker"
	"github.com/fd1az/arbitrage-dashboard/internal/logger"
)

const (
	tracerName = "github.com/fd1az/arbitrage-dashboard/business/network/infra/ethereum"
	meterName  = "github.com/fd1az/arbitrage-dashboard/business/network/infra/ethereum"
)

// RPCClient is the subset of *ethclient.Client the probe uses.
type RPCClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	Close()
}

// Dialer opens an RPC connection.
type Dialer func(ctx context.Context, url string) (RPCClient, error)

// DialEthclient dials with ethclient.DialContext.
func DialEthclient(ctx context.Context, url string) (RPCClient, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ProbeConfig holds configuration for one chain probe.
type ProbeConfig struct {
	Endpoint    domain.Endpoint
	Timeout     time.Duration // per check
	MaxGasPrice *big.Int      // sanity cap, nil disables
	Dial        Dialer
}

// DefaultProbeConfig returns sensible defaults.
func DefaultProbeConfig(ep domain.Endpoint) ProbeConfig {
	return ProbeConfig{
		Endpoint:    ep,
		Timeout:     5 * time.Second,
		MaxGasPrice: domain.MaxGasPriceWei,
		Dial:        DialEthclient,
	}
}

type probeMetrics struct {
	checks   metric.Int64Counter
	latency  metric.Float64Histogram
	gasPrice metric.Float64Gauge
	head     metric.Int64Gauge
}

type reading struct {
	header *types.Header
	gasWei *big.Int
}

// Probe checks one chain. It dials lazily and redials after failures.
type Probe struct {
	config ProbeConfig
	logger logger.LoggerInterface
	now    func() time.Time

	client   RPCClient
	clientMu sync.Mutex

	cb *circuitbreaker.CircuitBreaker[reading]

	tracer  trace.Tracer
	metrics *probeMetrics
}

// NewProbe creates a probe. It does not dial.
func NewProbe(cfg ProbeConfig, log logger.LoggerInterface) (*Probe, error) {
	if cfg.Endpoint.RPCURL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(fmt.Sprintf("network %q has no rpc url", cfg.Endpoint.Name)))
	}
	if cfg.Dial == nil {
		cfg.Dial = DialEthclient
	}
	if log == nil {
		log = logger.NewNop()
	}

	p := &Probe{
		config: cfg,
		logger: log,
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
	}

	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	cbCfg := circuitbreaker.DefaultConfig("rpc-" + cfg.Endpoint.Key())
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "rpc circuit breaker state changed",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	p.cb = circuitbreaker.New[reading](cbCfg)

	return p, nil
}

func (p *Probe) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	p.metrics = &probeMetrics{}

	p.metrics.checks, err = meter.Int64Counter(
		"rpc_probe_checks_total",
		metric.WithDescription("RPC health checks, by network and outcome"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return err
	}

	p.metrics.latency, err = meter.Float64Histogram(
		"rpc_probe_latency_ms",
		metric.WithDescription("Round-trip time of an RPC health check"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	p.metrics.gasPrice, err = meter.Float64Gauge(
		"gas_price_gwei",
		metric.WithDescription("Current gas price in gwei"),
		metric.WithUnit("gwei"),
	)
	if err != nil {
		return err
	}

	p.metrics.head, err = meter.Int64Gauge(
		"rpc_probe_block_number",
		metric.WithDescription("Latest block number seen"),
		metric.WithUnit("{block}"),
	)
	return err
}

// Endpoint returns the probed endpoint.
func (p *Probe) Endpoint() domain.Endpoint {
	return p.config.Endpoint
}

func (p *Probe) connect(ctx context.Context) (RPCClient, error) {
	p.clientMu.Lock()
	defer p.clientMu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	client, err := p.config.Dial(ctx, p.config.Endpoint.RPCURL)
	if err != nil {
		return nil, apperror.New(apperror.CodeRPCConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext(p.config.Endpoint.Name))
	}

	if want := p.config.Endpoint.ChainID; want != 0 {
		got, err := client.ChainID(ctx)
		if err != nil {
			client.Close()
			return nil, apperror.New(apperror.CodeRPCCallFailed,
				apperror.WithCause(err),
				apperror.WithContext(p.config.Endpoint.Name+": chain id"))
		}
		if got.Uint64() != want {
			client.Close()
			return nil, apperror.New(apperror.CodeConfigurationError,
				apperror.WithContext(fmt.Sprintf("%s: rpc reports chain %d, expected %d",
					p.config.Endpoint.Name, got.Uint64(), want)))
		}
	}

	p.client = client
	p.logger.Info(ctx, "rpc endpoint connected", "network", p.config.Endpoint.Name)
	return client, nil
}

// drop forgets the current client so the next check redials.
func (p *Probe) drop() {
	p.clientMu.Lock()
	defer p.clientMu.Unlock()
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
}

// Check reads the latest header and suggested gas price.
func (p *Probe) Check(ctx context.Context) (dashDomain.NetworkStatus, error) {
	ep := p.config.Endpoint

	ctx, span := p.tracer.Start(ctx, "rpc.check",
		trace.WithAttributes(attribute.String("network", ep.Name)),
	)
	defer span.End()

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	status := dashDomain.NetworkStatus{
		Name:    ep.Name,
		ChainID: ep.ChainID,
		Source:  dashDomain.SourceRPC,
	}

	start := p.now()
	r, err := p.cb.Execute(func() (reading, error) {
		client, err := p.connect(ctx)
		if err != nil {
			return reading{}, err
		}

		header, err := client.HeaderByNumber(ctx, nil)
		if err != nil {
			p.drop()
			return reading{}, apperror.New(apperror.CodeRPCCallFailed,
				apperror.WithCause(err),
				apperror.WithContext(ep.Name+": latest header"))
		}

		gas, err := client.SuggestGasPrice(ctx)
		if err != nil {
			p.drop()
			return reading{}, apperror.New(apperror.CodeRPCCallFailed,
				apperror.WithCause(err),
				apperror.WithContext(ep.Name+": gas price"))
		}
		return reading{header: header, gasWei: gas}, nil
	})
	took := p.now().Sub(start)
	status.CheckedAt = p.now()
	status.LatencyMs = float64(took.Microseconds()) / 1000

	outcome := "success"
	defer func() {
		p.metrics.checks.Add(ctx, 1, metric.WithAttributes(
			attribute.String("network", ep.Name),
			attribute.String("outcome", outcome),
		))
		p.metrics.latency.Record(ctx, status.LatencyMs, metric.WithAttributes(
			attribute.String("network", ep.Name),
		))
	}()

	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "check failed")
		status.Error = apperror.Message(err)
		return status, err
	}

	wei, clamped := domain.ClampGasPrice(r.gasWei, p.config.MaxGasPrice)
	if clamped {
		span.AddEvent("gas_price_exceeded_max",
			trace.WithAttributes(attribute.String("wei", r.gasWei.String())))
		p.logger.Warn(ctx, "gas price exceeds max", "network", ep.Name, "wei", r.gasWei.String())
	}

	status.BlockNumber = r.header.Number.Uint64()
	status.GasGwei = domain.WeiToGwei(wei)
	status.Healthy = true

	attrs := metric.WithAttributes(attribute.String("network", ep.Name))
	p.metrics.gasPrice.Record(ctx, status.GasGwei, attrs)
	p.metrics.head.Record(ctx, int64(status.BlockNumber), attrs)

	span.SetAttributes(
		attribute.Int64("block", int64(status.BlockNumber)),
		attribute.Float64("gwei", status.GasGwei),
	)
	span.SetStatus(codes.Ok, "checked")
	return status, nil
}

// Close closes the RPC connection.
func (p *Probe) Close() error {
	p.drop()
	return nil
}
