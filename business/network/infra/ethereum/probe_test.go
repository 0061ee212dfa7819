package ethereum

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashDomain "github.com/fd1az/arbitrage-dashboard/business/dashboard/domain"
	"github.com/fd1az/arbitrage-dashboard/business/network/domain"
	"github.com/fd1az/arbitrage-dashboard/internal/apperror"
)

type fakeRPC struct {
	mu       sync.Mutex
	chainID  int64
	block    int64
	gasWei   *big.Int
	headErr  error
	closed   int
	gasCalls int
}

func (f *fakeRPC) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(f.chainID), nil
}

func (f *fakeRPC) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &types.Header{Number: big.NewInt(f.block)}, nil
}

func (f *fakeRPC) SuggestGasPrice(context.Context) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gasCalls++
	return f.gasWei, nil
}

func (f *fakeRPC) Close() {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
}

func newTestProbe(t *testing.T, ep domain.Endpoint, rpc *fakeRPC, dials *int) *Probe {
	t.Helper()
	cfg := DefaultProbeConfig(ep)
	cfg.Dial = func(ctx context.Context, url string) (RPCClient, error) {
		*dials++
		return rpc, nil
	}
	p, err := NewProbe(cfg, nil)
	require.NoError(t, err)
	return p
}

func TestProbe_Check(t *testing.T) {
	rpc := &fakeRPC{chainID: 1, block: 19_000_000, gasWei: big.NewInt(25_000_000_000)}
	dials := 0
	p := newTestProbe(t, domain.Endpoint{Name: "Ethereum", ChainID: 1, RPCURL: "http://node"}, rpc, &dials)

	status, err := p.Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Ethereum", status.Name)
	assert.Equal(t, uint64(19_000_000), status.BlockNumber)
	assert.InDelta(t, 25.0, status.GasGwei, 1e-9)
	assert.True(t, status.Healthy)
	assert.Equal(t, dashDomain.SourceRPC, status.Source)
	assert.GreaterOrEqual(t, status.LatencyMs, 0.0)

	_, err = p.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, dials, "connection is reused")
}

func TestProbe_ClampsGasPrice(t *testing.T) {
	huge := new(big.Int).Mul(big.NewInt(9_000), big.NewInt(1_000_000_000))
	rpc := &fakeRPC{chainID: 1, block: 1, gasWei: huge}
	dials := 0
	p := newTestProbe(t, domain.Endpoint{Name: "ethereum", RPCURL: "http://node"}, rpc, &dials)

	status, err := p.Check(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 500.0, status.GasGwei, 1e-9)
}

func TestProbe_FailureIsUnhealthyRowAndRedials(t *testing.T) {
	rpc := &fakeRPC{chainID: 1, block: 1, gasWei: big.NewInt(1), headErr: errors.New("timeout")}
	dials := 0
	p := newTestProbe(t, domain.Endpoint{Name: "base", RPCURL: "http://node"}, rpc, &dials)

	status, err := p.Check(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperror.CodeRPCCallFailed, apperror.GetCode(err))
	assert.False(t, status.Healthy)
	assert.NotEmpty(t, status.Error)
	assert.Equal(t, "base", status.Name)
	assert.Equal(t, 1, rpc.closed)

	rpc.mu.Lock()
	rpc.headErr = nil
	rpc.mu.Unlock()

	_, err = p.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, dials)
}

func TestProbe_ChainIDMismatch(t *testing.T) {
	rpc := &fakeRPC{chainID: 10, block: 1, gasWei: big.NewInt(1)}
	dials := 0
	p := newTestProbe(t, domain.Endpoint{Name: "ethereum", ChainID: 1, RPCURL: "http://node"}, rpc, &dials)

	_, err := p.Check(context.Background())
	assert.Equal(t, apperror.CodeConfigurationError, apperror.GetCode(err))
	assert.Equal(t, 1, rpc.closed)
}

func TestProbe_BreakerOpens(t *testing.T) {
	dials := 0
	cfg := DefaultProbeConfig(domain.Endpoint{Name: "dead", RPCURL: "http://node"})
	cfg.Dial = func(context.Context, string) (RPCClient, error) {
		dials++
		return nil, errors.New("connection refused")
	}
	p, err := NewProbe(cfg, nil)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := p.Check(context.Background())
		assert.Equal(t, apperror.CodeRPCConnectionFailed, apperror.GetCode(err))
	}

	_, err = p.Check(context.Background())
	assert.Equal(t, apperror.CodeCircuitOpen, apperror.GetCode(err))
	assert.Equal(t, 5, dials)
}

func TestNewProbe_RequiresURL(t *testing.T) {
	_, err := NewProbe(DefaultProbeConfig(domain.Endpoint{Name: "x"}), nil)
	assert.Error(t, err)
}
