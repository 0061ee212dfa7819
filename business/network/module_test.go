package network

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	networkDI "github.com/fd1az/arbitrage-dashboard/business/network/di"
	"github.com/fd1az/arbitrage-dashboard/internal/config"
	"github.com/fd1az/arbitrage-dashboard/internal/monolith"
)

func TestModule_BuildsProbePerNetwork(t *testing.T) {
	cfg := &config.Config{
		Networks: []config.NetworkConfig{
			{Name: "ethereum", ChainID: 1, RPCURL: "http://127.0.0.1:1"},
			{Name: "broken"},
		},
	}
	app := monolith.New(cfg, nil)
	m := &Module{}

	require.NoError(t, app.RegisterModules(m))
	require.NoError(t, app.StartModules(context.Background(), m))

	svc := networkDI.GetNetworkService(app.Services())
	assert.Equal(t, 1, svc.Len())
	assert.Contains(t, app.Health().Names(), "rpc")

	require.NoError(t, app.StopModules(context.Background()))
}

func TestModule_NoNetworks(t *testing.T) {
	app := monolith.New(&config.Config{}, nil)
	m := &Module{}

	require.NoError(t, app.RegisterModules(m))
	require.NoError(t, app.StartModules(context.Background(), m))

	assert.Empty(t, app.Health().Names())
}
