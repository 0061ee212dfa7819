// Package network implements the network bounded context: direct JSON-RPC
// probes of the chains the dashboard watches.
package network

import (
	"context"
	"time"

	"github.com/fd1az/arbitrage-dashboard/business/network/app"
	networkDI "github.com/fd1az/arbitrage-dashboard/business/network/di"
	"github.com/fd1az/arbitrage-dashboard/business/network/domain"
	"github.com/fd1az/arbitrage-dashboard/business/network/infra/ethereum"
	"github.com/fd1az/arbitrage-dashboard/internal/config"
	"github.com/fd1az/arbitrage-dashboard/internal/di"
	"github.com/fd1az/arbitrage-dashboard/internal/health"
	"github.com/fd1az/arbitrage-dashboard/internal/logger"
	"github.com/fd1az/arbitrage-dashboard/internal/monolith"
)

// Module implements the network bounded context.
type Module struct {
	service *app.NetworkService
}

// RegisterServices registers the network service with the DI container. A
// network that cannot be probed is logged and skipped.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, networkDI.NetworkService, func(sr di.ServiceRegistry) *app.NetworkService {
		cfg := sr.Get(monolith.ConfigKey).(*config.Config)
		log := sr.Get(monolith.LoggerKey).(logger.LoggerInterface)

		probes := make([]app.ChainProbe, 0, len(cfg.Networks))
		for _, n := range cfg.Networks {
			probeCfg := ethereum.DefaultProbeConfig(domain.Endpoint{
				Name:    n.Name,
				ChainID: n.ChainID,
				RPCURL:  n.RPCURL,
			})
			if n.Timeout > 0 {
				probeCfg.Timeout = n.Timeout
			}

			probe, err := ethereum.NewProbe(probeCfg, log)
			if err != nil {
				log.Error(context.Background(), "skipping network", "network", n.Name, "error", err)
				continue
			}
			probes = append(probes, probe)
		}
		return app.NewNetworkService(probes...)
	})

	return nil
}

// Startup registers the RPC health check when networks are configured.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	svc := networkDI.GetNetworkService(mono.Services())
	m.service = svc
	if svc.Len() == 0 {
		mono.Logger().Info(ctx, "network module started without rpc endpoints")
		return nil
	}

	mono.Health().RegisterCheck("rpc", health.FromError(func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		return svc.Ping(ctx)
	}))

	mono.Logger().Info(ctx, "network module started", "networks", svc.Len())
	return nil
}

// Shutdown closes every RPC client.
func (m *Module) Shutdown(ctx context.Context) error {
	if m.service == nil {
		return nil
	}
	return m.service.Close()
}
