// Package infra contains infrastructure adapters for the dashboard context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fd1az/arbitrage-dashboard/business/dashboard/app"
	"github.com/fd1az/arbitrage-dashboard/business/dashboard/domain"
	"github.com/fd1az/arbitrage-dashboard/internal/apperror"
)

// ConsoleReporter implements Reporter for CLI output: one line per update.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleReporter creates a ConsoleReporter writing to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return NewConsoleReporterTo(os.Stdout)
}

// NewConsoleReporterTo creates a ConsoleReporter writing to out.
func NewConsoleReporterTo(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out}
}

// Start prints the banner.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, "Arbitrage Dashboard Started")
	fmt.Fprintln(r.out, "===========================")
	return nil
}

// Report prints a one-line summary of u.
func (r *ConsoleReporter) Report(u app.Update) {
	at := u.FetchedAt
	if at.IsZero() {
		at = time.Now()
	}

	line := Summarize(u)
	if u.Err != nil {
		line = "ERROR " + apperror.Message(u.Err)
	}

	tag := ""
	switch {
	case u.Cached:
		tag = " (cached)"
	case u.Manual:
		tag = " (manual)"
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "[%s] %-18s %s%s\n", at.Format("15:04:05"), u.Resource, line, tag)
}

// Stop prints the shutdown line.
func (r *ConsoleReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Arbitrage Dashboard Stopped")
	return nil
}

// Summarize renders the value of a successful update as a short line.
func Summarize(u app.Update) string {
	switch v := u.Value.(type) {
	case domain.TransactionStats:
		return fmt.Sprintf("%d txs, %.1f%% success, profit $%s, gas $%s",
			v.TotalTransactions, v.SuccessRate, v.TotalProfitUSD.StringFixed(2), v.TotalGasUSD.StringFixed(2))
	case domain.TransactionPage:
		return fmt.Sprintf("page %d/%d, %d rows of %d", v.Page, v.Pages(), len(v.Items), v.Total)
	case []domain.Alert:
		return fmt.Sprintf("%d active, %d unacknowledged", len(v), domain.Unacknowledged(v))
	case []domain.AlertRule:
		enabled := 0
		for _, rule := range v {
			if rule.Enabled {
				enabled++
			}
		}
		return fmt.Sprintf("%d rules, %d enabled", len(v), enabled)
	case []domain.Wallet:
		return fmt.Sprintf("%d wallets, $%s total", len(v), domain.TotalBalanceUSD(v).StringFixed(2))
	case domain.SystemSettings:
		return fmt.Sprintf("poll %ds, min profit $%s, max gas %s gwei, auto-execute %t",
			v.PollIntervalSeconds, v.MinProfitUSD.StringFixed(2), v.MaxGasGwei.String(), v.AutoExecute)
	case domain.SecuritySettings:
		return fmt.Sprintf("2fa %t, session %dm, %d whitelisted",
			v.TwoFactorEnabled, v.SessionTimeoutMinutes, len(v.IPWhitelist))
	case []domain.Opportunity:
		best, ok := domain.BestOpportunity(v)
		if !ok {
			return "none"
		}
		return fmt.Sprintf("%d found, best %s %s->%s $%s",
			len(v), best.Pair, best.BuyVenue, best.SellVenue, best.ProfitUSD.StringFixed(2))
	case []domain.NetworkStatus:
		healthy := 0
		for _, n := range v {
			if n.Healthy {
				healthy++
			}
		}
		return fmt.Sprintf("%d/%d healthy", healthy, len(v))
	case nil:
		return "no data"
	}
	return fmt.Sprintf("%v", u.Value)
}
