// Package app contains application services and port definitions for the dashboard context.
package app

import (
	"context"
	"time"

	"github.com/fd1az/arbitrage-dashboard/business/dashboard/domain"
)

// DataSource is everything the dashboard reads from or writes to the
// backend. The HTTP client and the demo provider both implement it.
type DataSource interface {
	TransactionStats(ctx context.Context) (domain.TransactionStats, error)
	TransactionHistory(ctx context.Context, q domain.PageQuery) (domain.TransactionPage, error)

	ActiveAlerts(ctx context.Context) ([]domain.Alert, error)
	AlertRules(ctx context.Context) ([]domain.AlertRule, error)
	AcknowledgeAlert(ctx context.Context, id string) error

	Wallets(ctx context.Context) ([]domain.Wallet, error)
	AddWallet(ctx context.Context, req domain.AddWalletRequest) (domain.Wallet, error)

	SystemSettings(ctx context.Context) (domain.SystemSettings, error)
	UpdateSystemSettings(ctx context.Context, s domain.SystemSettings) (domain.SystemSettings, error)
	SecuritySettings(ctx context.Context) (domain.SecuritySettings, error)
	UpdateSecuritySettings(ctx context.Context, s domain.SecuritySettings) (domain.SecuritySettings, error)

	Opportunities(ctx context.Context) ([]domain.Opportunity, error)
	NetworkStatus(ctx context.Context) ([]domain.NetworkStatus, error)
}

// NetworkProbe checks chains directly over RPC. Optional.
type NetworkProbe interface {
	Probe(ctx context.Context) ([]domain.NetworkStatus, error)
}

// Update carries one poll result to a reporter.
type Update struct {
	Resource  domain.Resource
	Value     any // concrete type depends on Resource
	Err       error
	Manual    bool
	Cached    bool // served from the history cache, a fetch is on its way
	FetchedAt time.Time
}

// Reporter renders updates. The TUI and the console both implement it.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// Report delivers one update. It must not block for long: it is called
	// from poll goroutines.
	Report(u Update)

	// Stop gracefully shuts down the reporter.
	Stop() error
}
