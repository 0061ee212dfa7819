// Package dashboard implements the dashboard bounded context: polling the
// backend API and reporting every resource to the UI.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fd1az/arbitrage-dashboard/business/dashboard/app"
	dashboardDI "github.com/fd1az/arbitrage-dashboard/business/dashboard/di"
	"github.com/fd1az/arbitrage-dashboard/business/dashboard/domain"
	"github.com/fd1az/arbitrage-dashboard/business/dashboard/infra/api"
	"github.com/fd1az/arbitrage-dashboard/business/dashboard/infra/demo"
	"github.com/fd1az/arbitrage-dashboard/business/dashboard/infra/live"
	networkDI "github.com/fd1az/arbitrage-dashboard/business/network/di"
	"github.com/fd1az/arbitrage-dashboard/internal/config"
	"github.com/fd1az/arbitrage-dashboard/internal/di"
	"github.com/fd1az/arbitrage-dashboard/internal/health"
	"github.com/fd1az/arbitrage-dashboard/internal/logger"
	"github.com/fd1az/arbitrage-dashboard/internal/monolith"
)

// Module implements the dashboard bounded context.
type Module struct {
	service *app.Service
	feed    *live.Feed
}

// RegisterServices registers all dashboard services with the DI container.
// The entrypoint registers dashboardDI.Reporter.
func (m *Module) RegisterServices(c di.Container) error {
	// Register DataSource (private - internal dependency)
	di.RegisterToken(c, dashboardDI.DataSource, func(sr di.ServiceRegistry) app.DataSource {
		cfg := sr.Get(monolith.ConfigKey).(*config.Config)
		log := sr.Get(monolith.LoggerKey).(logger.LoggerInterface)

		if cfg.API.Demo {
			log.Info(context.Background(), "using demo data", "seed", cfg.API.DemoSeed)
			return demo.New(cfg.API.DemoSeed)
		}

		apiCfg := api.DefaultConfig(cfg.API.BaseURL)
		if cfg.API.Prefix != "" {
			apiCfg.Prefix = cfg.API.Prefix
		}
		apiCfg.Token = cfg.API.Token
		if cfg.API.Timeout > 0 {
			apiCfg.Timeout = cfg.API.Timeout
		}

		client, err := api.NewClient(apiCfg, log)
		if err != nil {
			panic("failed to create api client: " + err.Error())
		}
		return client
	})

	// Register DashboardService (public - exposed to other modules)
	di.RegisterToken(c, dashboardDI.DashboardService, func(sr di.ServiceRegistry) *app.Service {
		cfg := sr.Get(monolith.ConfigKey).(*config.Config)
		log := sr.Get(monolith.LoggerKey).(logger.LoggerInterface)

		var probe app.NetworkProbe
		if sr.Has(networkDI.NetworkService.Name()) {
			if ns := networkDI.GetNetworkService(sr); ns.Len() > 0 {
				probe = ns
			}
		}

		svc, err := app.NewService(
			dashboardDI.GetDataSource(sr),
			probe,
			dashboardDI.GetReporter(sr),
			ServiceConfig(cfg.Polling),
			log,
		)
		if err != nil {
			panic("failed to create dashboard service: " + err.Error())
		}
		return svc
	})

	// Register LiveFeed (public - the UI shows its state)
	di.RegisterToken(c, dashboardDI.LiveFeed, func(sr di.ServiceRegistry) *live.Feed {
		cfg := sr.Get(monolith.ConfigKey).(*config.Config)
		if !cfg.Live.Enabled {
			return nil
		}
		log := sr.Get(monolith.LoggerKey).(logger.LoggerInterface)

		feedCfg := live.DefaultConfig(cfg.Live.URL)
		if cfg.Live.PerMinute > 0 {
			feedCfg.PerMinute = cfg.Live.PerMinute
		}
		if cfg.Live.Burst > 0 {
			feedCfg.Burst = cfg.Live.Burst
		}

		feed, err := live.New(feedCfg, dashboardDI.GetDashboardService(sr), log)
		if err != nil {
			panic("failed to create live feed: " + err.Error())
		}
		return feed
	})

	return nil
}

// ServiceConfig converts polling config into service config. Unknown
// resource names are ignored.
func ServiceConfig(p config.PollingConfig) app.Config {
	cfg := app.DefaultConfig()

	for name, d := range p.Intervals {
		r := domain.Resource(strings.ToLower(name))
		if r.Valid() && d > 0 {
			cfg.Intervals[r] = d
		}
	}
	if p.DefaultInterval > 0 {
		cfg.DefaultInterval = p.DefaultInterval
	}
	if p.RefreshPerMinute > 0 {
		cfg.RefreshPerMinute = p.RefreshPerMinute
	}
	if p.RefreshBurst > 0 {
		cfg.RefreshBurst = p.RefreshBurst
	}
	if p.HistoryPageSize > 0 {
		cfg.HistoryPageSize = p.HistoryPageSize
	}
	if p.HistoryCacheSize > 0 {
		cfg.HistoryCacheSize = p.HistoryCacheSize
	}
	return cfg
}

// Startup starts polling and, when enabled, the live feed.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	svc := dashboardDI.GetDashboardService(mono.Services())
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start dashboard service: %w", err)
	}
	m.service = svc

	mono.Health().RegisterCheck("backend", health.FromError(svc.BackendHealth))

	if feed := dashboardDI.GetLiveFeed(mono.Services()); feed != nil {
		if err := feed.Start(ctx); err != nil {
			log.Error(ctx, "failed to start live feed", "error", err)
		} else {
			m.feed = feed
			mono.Health().RegisterCheck("live", health.FromError(feed.Ping))
		}
	}

	log.Info(ctx, "dashboard module started")
	return nil
}

// Shutdown stops the feed, then the pollers and the reporter.
func (m *Module) Shutdown(ctx context.Context) error {
	var errs []error
	if m.feed != nil {
		errs = append(errs, m.feed.Stop())
	}
	if m.service != nil {
		errs = append(errs, m.service.Stop())
	}
	return errors.Join(errs...)
}
