// Package di contains dependency injection tokens for the dashboard context.
package di

import (
	"github.com/fd1az/arbitrage-dashboard/business/dashboard/app"
	"github.com/fd1az/arbitrage-dashboard/business/dashboard/infra/live"
	"github.com/fd1az/arbitrage-dashboard/internal/di"
)

// Public service tokens - exposed to other modules
var (
	DashboardService = di.NewToken[*app.Service]("dashboard.DashboardService")
	// Reporter is registered by the entrypoint: TUI or console.
	Reporter = di.NewToken[app.Reporter]("dashboard.Reporter")
	// LiveFeed is nil when the feed is disabled.
	LiveFeed = di.NewToken[*live.Feed]("dashboard.LiveFeed")
)

// Private dependency tokens - internal to dashboard module
var (
	DataSource = di.NewToken[app.DataSource]("dashboard:dataSource")
)

// Helper functions for type-safe access
func GetDashboardService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, DashboardService)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}

func GetLiveFeed(c di.ServiceRegistry) *live.Feed {
	return di.GetToken(c, LiveFeed)
}

func GetDataSource(c di.ServiceRegistry) app.DataSource {
	return di.GetToken(c, DataSource)
}
