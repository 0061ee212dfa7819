package app

import (
	"context"
	"errors"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	dashDomain "github.com/fd1az/arbitrage-dashboard/business/dashboard/domain"
	"github.com/fd1az/arbitrage-dashboard/internal/apperror"
)

const tracerName = "github.com/fd1az/arbitrage-dashboard/business/network/app"

// maxParallelProbes bounds concurrent RPC checks per poll.
const maxParallelProbes = 4

// NetworkService probes every configured chain. It implements the
// dashboard's NetworkProbe port.
type NetworkService struct {
	probes []ChainProbe
	tracer trace.Tracer
}

// NewNetworkService creates a NetworkService.
func NewNetworkService(probes ...ChainProbe) *NetworkService {
	return &NetworkService{
		probes: probes,
		tracer: otel.Tracer(tracerName),
	}
}

// Len returns the number of probed chains.
func (s *NetworkService) Len() int { return len(s.probes) }

// Probe checks every chain concurrently. Failing chains are reported as
// unhealthy rows; an error is returned only when every chain failed.
func (s *NetworkService) Probe(ctx context.Context) ([]dashDomain.NetworkStatus, error) {
	ctx, span := s.tracer.Start(ctx, "network.probe",
		trace.WithAttributes(attribute.Int("chains", len(s.probes))),
	)
	defer span.End()

	if len(s.probes) == 0 {
		return nil, nil
	}

	rows := make([]dashDomain.NetworkStatus, len(s.probes))
	errs := make([]error, len(s.probes))

	var g errgroup.Group
	g.SetLimit(maxParallelProbes)
	for i, p := range s.probes {
		g.Go(func() error {
			rows[i], errs[i] = p.Check(ctx)
			return nil
		})
	}
	g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	span.SetAttributes(attribute.Int("failed", failed))

	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })

	if failed == len(s.probes) {
		err := errors.Join(errs...)
		span.RecordError(err)
		span.SetStatus(codes.Error, "all probes failed")
		return rows, apperror.New(apperror.CodeRPCConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext("every rpc endpoint failed"))
	}

	span.SetStatus(codes.Ok, "probed")
	return rows, nil
}

// Ping is a health check: it succeeds when at least one chain answers.
func (s *NetworkService) Ping(ctx context.Context) error {
	_, err := s.Probe(ctx)
	return err
}

// Close closes every probe.
func (s *NetworkService) Close() error {
	var errs []error
	for _, p := range s.probes {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
