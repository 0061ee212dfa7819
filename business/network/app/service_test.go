package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashDomain "github.com/fd1az/arbitrage-dashboard/business/dashboard/domain"
	"github.com/fd1az/arbitrage-dashboard/business/network/domain"
	"github.com/fd1az/arbitrage-dashboard/internal/apperror"
)

type stubProbe struct {
	name   string
	err    error
	closed bool
}

func (s *stubProbe) Endpoint() domain.Endpoint { return domain.Endpoint{Name: s.name} }

func (s *stubProbe) Check(context.Context) (dashDomain.NetworkStatus, error) {
	row := dashDomain.NetworkStatus{Name: s.name, Healthy: s.err == nil, Source: dashDomain.SourceRPC}
	return row, s.err
}

func (s *stubProbe) Close() error {
	s.closed = true
	return nil
}

func TestNetworkService_Probe(t *testing.T) {
	svc := NewNetworkService(
		&stubProbe{name: "optimism"},
		&stubProbe{name: "arbitrum", err: errors.New("down")},
		&stubProbe{name: "ethereum"},
	)

	rows, err := svc.Probe(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "arbitrum", rows[0].Name)
	assert.False(t, rows[0].Healthy)
	assert.True(t, rows[1].Healthy)
	assert.NoError(t, svc.Ping(context.Background()))
}

func TestNetworkService_AllFailing(t *testing.T) {
	svc := NewNetworkService(
		&stubProbe{name: "a", err: errors.New("x")},
		&stubProbe{name: "b", err: errors.New("y")},
	)

	rows, err := svc.Probe(context.Background())
	assert.Len(t, rows, 2)
	assert.Equal(t, apperror.CodeRPCConnectionFailed, apperror.GetCode(err))
}

func TestNetworkService_Empty(t *testing.T) {
	svc := NewNetworkService()
	rows, err := svc.Probe(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, rows)
	assert.Zero(t, svc.Len())
}

func TestNetworkService_Close(t *testing.T) {
	a, b := &stubProbe{name: "a"}, &stubProbe{name: "b"}
	require.NoError(t, NewNetworkService(a, b).Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}
