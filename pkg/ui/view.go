package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/arbitrage-dashboard/business/dashboard/domain"
	"github.com/fd1az/arbitrage-dashboard/internal/apperror"
	"github.com/fd1az/arbitrage-dashboard/pkg/ui/components"
)

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	var b strings.Builder

	// Title
	title := m.styles.Title.Render(" ⚡ Arbitrage Dashboard ")
	if m.demo {
		title += " " + m.styles.Warning.Bold(true).Render("DEMO DATA")
	}
	b.WriteString(title)
	b.WriteString("\n\n")

	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	b.WriteString(m.renderPage())
	b.WriteString("\n\n")

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render(m.help.View(m.keys)))

	return b.String()
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, pageCount)
	for p := Page(0); p < pageCount; p++ {
		label := fmt.Sprintf("%d %s", p+1, p)
		style := m.styles.Tab
		if p == m.page {
			style = m.styles.ActiveTab
		}
		tab := style.Render(label)
		if m.prefs != nil {
			if n := m.prefs.Badge(p.String()); n > 0 {
				tab += m.styles.Badge.Render(fmt.Sprint(n))
			}
		}
		tabs = append(tabs, tab)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderPage() string {
	switch m.page {
	case PageOverview:
		return m.renderOverview()
	case PageOpportunities:
		return m.renderOpportunities()
	case PageTransactions:
		return m.renderTransactions()
	case PageAlerts:
		return m.renderAlerts()
	case PageWallets:
		return m.renderWallets()
	case PageSettings:
		return m.renderSettings()
	case PageHelp:
		return m.renderHelp()
	}
	return ""
}

func (m Model) renderStatusBar() string {
	var parts []string

	parts = append(parts, m.styles.Muted.Render("theme: "+m.styles.Theme))

	if m.live != "" {
		style := m.styles.Negative
		if m.live == "connected" {
			style = m.styles.Positive
		}
		parts = append(parts, style.Render("live: "+m.live))
	}

	if m.stats.Loaded {
		parts = append(parts, m.styles.Muted.Render("updated "+FormatAgo(m.stats.UpdatedAt, m.now())))
	}

	if m.version != "" {
		parts = append(parts, m.styles.Muted.Render(m.version))
	}

	if m.notice != "" {
		style := m.styles.Positive
		if m.noticeErr {
			style = m.styles.Negative
		}
		parts = append(parts, style.Render(m.notice))
	}

	return strings.Join(parts, "  │  ")
}

// section renders a titled block for one resource: a spinner before the
// first load, an error with a retry hint when nothing loaded, and otherwise
// the data, with any later error shown beneath it.
func section[T any](m Model, title string, r Resource[T], body func(T) string) string {
	head := m.styles.Header.Render(strings.ToUpper(title))
	switch {
	case r.Cached:
		head += m.styles.Muted.Render(" (cached, refreshing…)")
	case r.Refreshing && r.Loaded:
		head += m.styles.Muted.Render(" refreshing…")
	}

	if r.Failed() {
		return head + "\n" +
			m.styles.Negative.Render(apperror.Message(r.Err)) + "\n" +
			m.styles.Muted.Render("r: retry")
	}
	if r.Loading() {
		return head + "\n" + m.spinner.View() + m.styles.Muted.Render(" Loading...")
	}

	out := head + "\n" + body(r.Data)
	if r.Err != nil {
		out += "\n" + m.styles.Negative.Render("⚠ "+apperror.Message(r.Err)) +
			m.styles.Muted.Render("  r: retry")
	}
	return out
}

type viewState interface {
	Loading() bool
	Failed() bool
}

// card builds a metric card from an animated value.
func (m Model) card(label, valueKey string, state viewState, format func(float64) string, tone func(float64) components.Tone) components.Card {
	c := components.Card{Label: label}

	switch {
	case state.Failed():
		c.Value = "error"
		c.Tone = components.ToneNegative
		c.Hint = "r: retry"
	case state.Loading():
		c.Loading = true
	default:
		f := m.values.Frame(valueKey)
		c.Value = format(f.Value)
		c.Animating = f.IsAnimating
		if tone != nil {
			c.Tone = tone(f.Value)
		}
	}
	return c
}

func signTone(f float64) components.Tone {
	switch {
	case f > 0:
		return components.TonePositive
	case f < 0:
		return components.ToneNegative
	}
	return components.ToneNeutral
}

func alertTone(f float64) components.Tone {
	if f > 0 {
		return components.ToneWarning
	}
	return components.ToneNeutral
}

func (m Model) statsCards() []components.Card {
	return []components.Card{
		m.card("Transactions", valTotalTx, m.stats, FormatCount, nil),
		m.card("Success rate", valSuccessRate, m.stats, FormatPercent, nil),
		m.card("Net profit", valNetProfit, m.stats, FormatUSDFloat, signTone),
		m.card("Gas spent", valGasSpent, m.stats, FormatUSDFloat, nil),
	}
}

func (m Model) renderOverview() string {
	cards := m.statsCards()
	cards = append(cards,
		m.card("Opportunities 24h", valOpps24h, m.stats, FormatCount, nil),
		m.card("Best opportunity", valBestProfit, m.opps, FormatUSDFloat, signTone),
		m.card("Active alerts", valActiveAlerts, m.alerts, FormatCount, alertTone),
		m.card("Wallet balance", valWalletUSD, m.wallets, FormatUSDFloat, nil),
	)

	var b strings.Builder
	b.WriteString(components.RenderCards(cards, m.width, m.styles.Palette, m.spinner.View()+" Loading"))
	b.WriteString("\n\n")
	b.WriteString(section(m, "Networks", m.networks, func([]domain.NetworkStatus) string {
		return m.networkView.View(m.styles.Palette)
	}))
	return b.String()
}

func (m Model) tableHeight() int {
	return max(m.height-14, 5)
}

func (m Model) renderOpportunities() string {
	return section(m, "Opportunities", m.opps, func(opps []domain.Opportunity) string {
		if len(opps) == 0 {
			return m.styles.Muted.Render("No opportunities detected")
		}

		rows := make([]table.Row, 0, len(opps))
		for _, o := range opps {
			rows = append(rows, table.Row{
				o.Pair,
				o.BuyVenue + " → " + o.SellVenue,
				o.Network,
				fmt.Sprintf("%+.1f", o.SpreadBps.InexactFloat64()),
				FormatUSD(o.ProfitUSD),
				o.Status,
				FormatAgo(o.DetectedAt, m.now()),
			})
		}

		return components.NewTable([]table.Column{
			{Title: "Pair", Width: 12},
			{Title: "Route", Width: 24},
			{Title: "Network", Width: 10},
			{Title: "Spread bps", Width: 10},
			{Title: "Profit", Width: 12},
			{Title: "Status", Width: 10},
			{Title: "Seen", Width: 10},
		}, rows, m.tableHeight(), m.styles.Palette).View()
	})
}

func (m Model) renderTransactions() string {
	var b strings.Builder

	cards := append(m.statsCards(),
		m.card("Avg execution", valAvgExec, m.stats, func(f float64) string {
			return fmt.Sprintf("%.0fms", f)
		}, nil),
	)
	b.WriteString(components.RenderCards(cards, m.width, m.styles.Palette, m.spinner.View()+" Loading"))
	b.WriteString("\n\n")

	b.WriteString(section(m, "History", m.history, func(pg domain.TransactionPage) string {
		if len(pg.Items) == 0 {
			return m.styles.Muted.Render("No transactions yet")
		}

		rows := make([]table.Row, 0, len(pg.Items))
		for _, tx := range pg.Items {
			rows = append(rows, table.Row{
				tx.Timestamp.Local().Format("01-02 15:04:05"),
				tx.Pair,
				tx.Network,
				string(tx.Status),
				FormatUSD(tx.ProfitUSD),
				FormatUSD(tx.GasUSD),
				Shorten(tx.Hash, 6),
			})
		}

		tbl := components.NewTable([]table.Column{
			{Title: "Time", Width: 15},
			{Title: "Pair", Width: 12},
			{Title: "Network", Width: 10},
			{Title: "Status", Width: 8},
			{Title: "Profit", Width: 12},
			{Title: "Gas", Width: 10},
			{Title: "Hash", Width: 15},
		}, rows, m.tableHeight(), m.styles.Palette).View()

		pager := fmt.Sprintf("page %d/%d • %s transactions", pg.Page, pg.Pages(), FormatCount(float64(pg.Total)))
		if pg.HasPrev() {
			pager = "← " + pager
		}
		if pg.HasNext() {
			pager += " →"
		}
		return tbl + "\n" + m.styles.Muted.Render(pager)
	}))

	return b.String()
}

func (m Model) severityStyle(s domain.Severity) lipgloss.Style {
	switch s {
	case domain.SeverityCritical:
		return m.styles.Negative.Bold(true)
	case domain.SeverityWarning:
		return m.styles.Warning
	}
	return m.styles.Muted
}

func (m Model) renderAlerts() string {
	var b strings.Builder

	b.WriteString(section(m, "Active alerts", m.alerts, func(alerts []domain.Alert) string {
		if len(alerts) == 0 {
			return m.styles.Positive.Render("All clear")
		}

		var sb strings.Builder
		for i, a := range alerts {
			cursor := "  "
			if i == m.alertCursor {
				cursor = m.styles.Selected.Render("▸ ")
			}
			mark := "●"
			if a.Acknowledged {
				mark = "✓"
			}
			sb.WriteString(fmt.Sprintf("%s%s %s %s %s\n",
				cursor,
				m.severityStyle(a.Severity).Render(mark+" "+strings.ToUpper(string(a.Severity))),
				a.Title,
				m.styles.Muted.Render(a.Message),
				m.styles.Muted.Render(FormatAgo(a.CreatedAt, m.now())),
			))
		}
		sb.WriteString(m.styles.Muted.Render("↑/↓: select • a: acknowledge"))
		return sb.String()
	}))
	b.WriteString("\n\n")

	b.WriteString(section(m, "Rules", m.rules, func(rules []domain.AlertRule) string {
		if len(rules) == 0 {
			return m.styles.Muted.Render("No rules configured")
		}

		rows := make([]table.Row, 0, len(rules))
		for _, r := range rules {
			enabled := "off"
			if r.Enabled {
				enabled = "on"
			}
			rows = append(rows, table.Row{
				r.Name,
				fmt.Sprintf("%s %s %s", r.Metric, r.Operator, r.Threshold.String()),
				enabled,
			})
		}
		return components.NewTable([]table.Column{
			{Title: "Rule", Width: 24},
			{Title: "Condition", Width: 32},
			{Title: "Enabled", Width: 8},
		}, rows, m.tableHeight()/2, m.styles.Palette).View()
	}))

	return b.String()
}

func (m Model) renderWallets() string {
	var b strings.Builder

	b.WriteString(section(m, "Wallets", m.wallets, func(wallets []domain.Wallet) string {
		if len(wallets) == 0 {
			return m.styles.Muted.Render("No wallets monitored • n: add wallet")
		}

		rows := make([]table.Row, 0, len(wallets))
		for _, w := range wallets {
			rows = append(rows, table.Row{
				w.Label,
				Shorten(w.Address.Hex(), 6),
				w.Network,
				w.BalanceETH.StringFixed(4),
				FormatUSD(w.BalanceUSD),
			})
		}

		tbl := components.NewTable([]table.Column{
			{Title: "Label", Width: 16},
			{Title: "Address", Width: 15},
			{Title: "Network", Width: 10},
			{Title: "ETH", Width: 12},
			{Title: "USD", Width: 14},
		}, rows, m.tableHeight(), m.styles.Palette).View()

		total := "Total " + FormatUSD(domain.TotalBalanceUSD(wallets))
		return tbl + "\n" + m.styles.Muted.Render(total+" • n: add wallet")
	}))

	if m.form != nil {
		b.WriteString("\n\n")
		b.WriteString(m.form.View(m.styles.Palette))
	}

	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (m Model) settingLine(row int, text string) string {
	if row == m.settingsCursor {
		return m.styles.Selected.Render("▸ " + text)
	}
	return "  " + text
}

func (m Model) renderSettings() string {
	var b strings.Builder

	b.WriteString(section(m, "System", m.system, func(s domain.SystemSettings) string {
		lines := []string{
			m.settingLine(settingAutoExecute, checkbox(s.AutoExecute)+" Auto execute"),
			fmt.Sprintf("  Poll interval   %ds", s.PollIntervalSeconds),
			fmt.Sprintf("  Min profit      %s", FormatUSD(s.MinProfitUSD)),
			fmt.Sprintf("  Max gas         %s gwei", s.MaxGasGwei.StringFixed(1)),
			fmt.Sprintf("  Networks        %s", strings.Join(s.Networks, ", ")),
		}
		return strings.Join(lines, "\n")
	}))
	b.WriteString("\n\n")

	b.WriteString(section(m, "Security", m.security, func(s domain.SecuritySettings) string {
		whitelist := "any"
		if len(s.IPWhitelist) > 0 {
			whitelist = strings.Join(s.IPWhitelist, ", ")
		}
		lines := []string{
			m.settingLine(settingTwoFactor, checkbox(s.TwoFactorEnabled)+" Two-factor authentication"),
			fmt.Sprintf("  Session timeout %dm", s.SessionTimeoutMinutes),
			fmt.Sprintf("  IP whitelist    %s", whitelist),
			fmt.Sprintf("  Key rotation    every %d days", s.APIKeyRotationDays),
		}
		return strings.Join(lines, "\n")
	}))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Muted.Render("↑/↓: select • space: toggle"))

	return b.String()
}

func (m Model) renderHelp() string {
	h := m.help
	h.ShowAll = true

	pages := make([]string, 0, pageCount)
	for p := Page(0); p < pageCount; p++ {
		pages = append(pages, fmt.Sprintf("  %d  %s", p+1, p))
	}

	var b strings.Builder
	b.WriteString(m.styles.Header.Render("KEYS"))
	b.WriteString("\n")
	b.WriteString(h.View(m.keys))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Header.Render("PAGES"))
	b.WriteString("\n")
	b.WriteString(strings.Join(pages, "\n"))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Muted.Render(
		"Data refreshes on its own. Counters glide to new values; r refreshes the current page."))
	return b.String()
}
