package ui

import (
	"context"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/arbitrage-dashboard/business/dashboard/app"
	"github.com/fd1az/arbitrage-dashboard/business/dashboard/domain"
	"github.com/fd1az/arbitrage-dashboard/internal/apperror"
	"github.com/fd1az/arbitrage-dashboard/internal/prefs"
	"github.com/fd1az/arbitrage-dashboard/pkg/ui/anim"
	"github.com/fd1az/arbitrage-dashboard/pkg/ui/components"
)

// Page is one dashboard screen.
type Page int

const (
	PageOverview Page = iota
	PageOpportunities
	PageTransactions
	PageAlerts
	PageWallets
	PageSettings
	PageHelp
	pageCount
)

var pageNames = [pageCount]string{
	"Overview", "Opportunities", "Transactions", "Alerts", "Wallets", "Settings", "Help",
}

func (p Page) String() string {
	if p < 0 || p >= pageCount {
		return "unknown"
	}
	return pageNames[p]
}

// Resources lists what a page shows, which is what r refreshes.
func (p Page) Resources() []domain.Resource {
	switch p {
	case PageOverview:
		return []domain.Resource{domain.ResourceStats, domain.ResourceNetworks,
			domain.ResourceOpportunities, domain.ResourceAlerts, domain.ResourceWallets}
	case PageOpportunities:
		return []domain.Resource{domain.ResourceOpportunities}
	case PageTransactions:
		return []domain.Resource{domain.ResourceStats, domain.ResourceHistory}
	case PageAlerts:
		return []domain.Resource{domain.ResourceAlerts, domain.ResourceAlertRules}
	case PageWallets:
		return []domain.Resource{domain.ResourceWallets}
	case PageSettings:
		return []domain.Resource{domain.ResourceSystemSettings, domain.ResourceSecuritySettings}
	}
	return nil
}

// Keys of the animated metric values.
const (
	valTotalTx      = "total_tx"
	valSuccessRate  = "success_rate"
	valNetProfit    = "net_profit"
	valGasSpent     = "gas_spent"
	valOpps24h      = "opps_24h"
	valAvgExec      = "avg_exec_ms"
	valActiveAlerts = "active_alerts"
	valWalletUSD    = "wallet_usd"
	valBestProfit   = "best_profit"
)

// Controller is what the UI asks the dashboard service to do.
// *app.Service implements it.
type Controller interface {
	Refresh(r domain.Resource) bool
	SetHistoryPage(page int) domain.PageQuery
	AcknowledgeAlert(ctx context.Context, id string) error
	AddWallet(ctx context.Context, req domain.AddWalletRequest) (domain.Wallet, error)
	UpdateSystemSettings(ctx context.Context, s domain.SystemSettings) (domain.SystemSettings, error)
	UpdateSecuritySettings(ctx context.Context, s domain.SecuritySettings) (domain.SecuritySettings, error)
}

var _ Controller = (*app.Service)(nil)

// Options configures the model.
type Options struct {
	Controller        Controller
	Prefs             *prefs.Context
	AnimationDuration time.Duration
	Animate           bool
	FrameInterval     time.Duration
	Demo              bool
	Version           string
	DefaultNetwork    string
	ActionTimeout     time.Duration
	Now               func() time.Time // defaults to time.Now
}

// NoticeDuration is how long transient notices stay in the status bar.
const NoticeDuration = 4 * time.Second

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	ctrl    Controller
	prefs   *prefs.Context
	keys    KeyMap
	styles  Styles
	help    help.Model
	spinner spinner.Model
	now     func() time.Time

	// Animation
	values        *anim.Group
	animate       bool
	frameInterval time.Duration
	framing       bool
	spinning      bool

	// Layout
	page     Page
	lastPage Page
	width    int
	height   int
	quitting bool

	// Resources
	stats    Resource[domain.TransactionStats]
	history  Resource[domain.TransactionPage]
	alerts   Resource[[]domain.Alert]
	rules    Resource[[]domain.AlertRule]
	wallets  Resource[[]domain.Wallet]
	system   Resource[domain.SystemSettings]
	security Resource[domain.SecuritySettings]
	opps     Resource[[]domain.Opportunity]
	networks Resource[[]domain.NetworkStatus]

	networkView *components.NetworksComponent

	// Interaction
	alertCursor    int
	settingsCursor int
	form           *components.WalletForm

	live           string
	notice         string
	noticeErr      bool
	noticeID       int
	demo           bool
	version        string
	defaultNetwork string
	actionTimeout  time.Duration
}

// New creates a new TUI model.
func New(opts Options) Model {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	frame := opts.FrameInterval
	if frame <= 0 {
		frame = time.Second / 60
	}
	timeout := opts.ActionTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	network := opts.DefaultNetwork
	if network == "" {
		network = "ethereum"
	}

	theme := prefs.DefaultTheme
	if opts.Prefs != nil {
		theme = opts.Prefs.Theme()
	}
	styles := NewStyles(theme)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = styles.Selected

	return Model{
		ctrl:           opts.Controller,
		prefs:          opts.Prefs,
		keys:           DefaultKeyMap(),
		styles:         styles,
		help:           help.New(),
		spinner:        sp,
		now:            now,
		values:         anim.NewGroup(opts.AnimationDuration),
		animate:        opts.Animate,
		frameInterval:  frame,
		spinning:       true,
		width:          100,
		height:         30,
		networkView:    components.NewNetworksComponent(),
		demo:           opts.Demo,
		version:        opts.Version,
		defaultNetwork: network,
		actionTimeout:  timeout,
	}
}

// Init starts the loading spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case app.Update:
		return m.handleUpdate(msg)

	case frameMsg:
		m.framing = false
		m.values.Tick(m.now())
		return m, m.scheduleFrame()

	case spinner.TickMsg:
		if !m.anyLoading() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case LiveStateMsg:
		m.live = msg.State
		return m, nil

	case mutationMsg:
		return m.handleMutation(msg)

	case noticeExpiredMsg:
		if msg.id == m.noticeID {
			m.notice = ""
		}
		return m, nil
	}

	return m, nil
}

// scheduleFrame asks for the next animation frame while anything moves.
func (m *Model) scheduleFrame() tea.Cmd {
	if m.framing || !m.values.Animating() {
		return nil
	}
	m.framing = true
	return tea.Tick(m.frameInterval, func(time.Time) tea.Msg {
		return frameMsg{}
	})
}

// ensureSpinner restarts the spinner when something is loading again.
func (m *Model) ensureSpinner() tea.Cmd {
	if m.spinning || !m.anyLoading() {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

func (m *Model) anyLoading() bool {
	return m.stats.Loading() || m.history.Loading() || m.alerts.Loading() ||
		m.rules.Loading() || m.wallets.Loading() || m.system.Loading() ||
		m.security.Loading() || m.opps.Loading() || m.networks.Loading()
}

func (m *Model) setValue(k string, raw float64) {
	m.values.Set(k, raw, m.animate, m.now())
}

func (m Model) handleUpdate(u app.Update) (tea.Model, tea.Cmd) {
	switch u.Resource {
	case domain.ResourceStats:
		applyUpdate(&m.stats, u)
		if u.Err == nil {
			s := m.stats.Data
			m.setValue(valTotalTx, float64(s.TotalTransactions))
			m.setValue(valSuccessRate, s.SuccessRate)
			m.setValue(valNetProfit, s.NetProfitUSD().InexactFloat64())
			m.setValue(valGasSpent, s.TotalGasUSD.InexactFloat64())
			m.setValue(valOpps24h, float64(s.Opportunities24h))
			m.setValue(valAvgExec, s.AvgExecutionMs)
		}

	case domain.ResourceHistory:
		applyUpdate(&m.history, u)

	case domain.ResourceAlerts:
		applyUpdate(&m.alerts, u)
		if u.Err == nil {
			active := domain.Unacknowledged(m.alerts.Data)
			if m.prefs != nil {
				m.prefs.SetBadge(PageAlerts.String(), active)
			}
			m.setValue(valActiveAlerts, float64(active))
			m.alertCursor = clampCursor(m.alertCursor, len(m.alerts.Data))
		}

	case domain.ResourceAlertRules:
		applyUpdate(&m.rules, u)

	case domain.ResourceWallets:
		applyUpdate(&m.wallets, u)
		if u.Err == nil {
			m.setValue(valWalletUSD, domain.TotalBalanceUSD(m.wallets.Data).InexactFloat64())
		}

	case domain.ResourceSystemSettings:
		applyUpdate(&m.system, u)

	case domain.ResourceSecuritySettings:
		applyUpdate(&m.security, u)

	case domain.ResourceOpportunities:
		applyUpdate(&m.opps, u)
		if u.Err == nil {
			best, ok := domain.BestOpportunity(m.opps.Data)
			if ok {
				m.setValue(valBestProfit, best.ProfitUSD.InexactFloat64())
			} else {
				m.setValue(valBestProfit, 0)
			}
		}

	case domain.ResourceNetworks:
		applyUpdate(&m.networks, u)
		if u.Err == nil {
			m.networkView.Set(networkRows(m.networks.Data))
		}
	}

	return m, tea.Batch(m.scheduleFrame(), m.ensureSpinner())
}

func networkRows(rows []domain.NetworkStatus) []components.NetworkRow {
	out := make([]components.NetworkRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, components.NetworkRow{
			Name:      r.Name,
			Healthy:   r.Healthy,
			Block:     r.BlockNumber,
			GasGwei:   r.GasGwei,
			Latency:   r.Latency(),
			Source:    string(r.Source),
			Error:     r.Error,
			CheckedAt: r.CheckedAt,
		})
	}
	return out
}

func clampCursor(cursor, n int) int {
	if n == 0 || cursor < 0 {
		return 0
	}
	if cursor >= n {
		return n - 1
	}
	return cursor
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form != nil {
		return m.handleFormKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Pages):
		m.page = Page(msg.String()[0] - '1')
		return m, nil

	case key.Matches(msg, m.keys.NextPage):
		m.page = (m.page + 1) % pageCount
		return m, nil

	case key.Matches(msg, m.keys.PrevPage):
		m.page = (m.page + pageCount - 1) % pageCount
		return m, nil

	case key.Matches(msg, m.keys.Help):
		if m.page == PageHelp {
			m.page = m.lastPage
		} else {
			m.lastPage = m.page
			m.page = PageHelp
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m.refreshPage()

	case key.Matches(msg, m.keys.Theme):
		return m.cycleTheme()

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevItem):
		if m.page == PageTransactions {
			return m.pageHistory(-1)
		}

	case key.Matches(msg, m.keys.NextItem):
		if m.page == PageTransactions {
			return m.pageHistory(1)
		}

	case key.Matches(msg, m.keys.Ack):
		if m.page == PageAlerts {
			return m.acknowledge()
		}

	case key.Matches(msg, m.keys.AddWallet):
		if m.page == PageWallets {
			m.form = components.NewWalletForm(m.defaultNetwork, domain.MaxWalletLabel)
			return m, textinput.Blink
		}

	case key.Matches(msg, m.keys.Toggle):
		if m.page == PageSettings {
			return m.toggleSetting()
		}
	}

	return m, nil
}

// begin marks r in flight.
func (m *Model) begin(r domain.Resource) {
	switch r {
	case domain.ResourceStats:
		m.stats.Begin()
	case domain.ResourceHistory:
		m.history.Begin()
	case domain.ResourceAlerts:
		m.alerts.Begin()
	case domain.ResourceAlertRules:
		m.rules.Begin()
	case domain.ResourceWallets:
		m.wallets.Begin()
	case domain.ResourceSystemSettings:
		m.system.Begin()
	case domain.ResourceSecuritySettings:
		m.security.Begin()
	case domain.ResourceOpportunities:
		m.opps.Begin()
	case domain.ResourceNetworks:
		m.networks.Begin()
	}
}

func (m Model) refreshPage() (tea.Model, tea.Cmd) {
	resources := m.page.Resources()
	if len(resources) == 0 || m.ctrl == nil {
		return m, nil
	}

	accepted := 0
	for _, r := range resources {
		if m.ctrl.Refresh(r) {
			m.begin(r)
			accepted++
		}
	}
	if accepted == 0 {
		return m.flash("Refresh throttled, try again in a moment", true)
	}
	return m, m.ensureSpinner()
}

func (m Model) cycleTheme() (tea.Model, tea.Cmd) {
	if m.prefs == nil {
		return m, nil
	}
	name, err := m.prefs.CycleTheme()
	if err != nil {
		return m.flash("Theme not saved: "+apperror.Message(err), true)
	}
	m.styles = NewStyles(name)
	m.spinner.Style = m.styles.Selected
	return m.flash("Theme: "+name, false)
}

func (m *Model) moveCursor(delta int) {
	switch m.page {
	case PageAlerts:
		m.alertCursor = clampCursor(m.alertCursor+delta, len(m.alerts.Data))
	case PageSettings:
		m.settingsCursor = clampCursor(m.settingsCursor+delta, settingsCount)
	}
}

func (m Model) pageHistory(delta int) (tea.Model, tea.Cmd) {
	if !m.history.Loaded || m.ctrl == nil {
		return m, nil
	}
	pg := m.history.Data
	if (delta < 0 && !pg.HasPrev()) || (delta > 0 && !pg.HasNext()) {
		return m, nil
	}

	// The controller may report the cached page straight away, so it must
	// not be called from the update loop.
	ctrl, next := m.ctrl, pg.Page+delta
	m.history.Begin()
	return m, func() tea.Msg {
		ctrl.SetHistoryPage(next)
		return nil
	}
}

func (m Model) acknowledge() (tea.Model, tea.Cmd) {
	if len(m.alerts.Data) == 0 || m.ctrl == nil {
		return m, nil
	}
	a := m.alerts.Data[clampCursor(m.alertCursor, len(m.alerts.Data))]
	if a.Acknowledged {
		return m.flash("Already acknowledged", false)
	}

	ctrl := m.ctrl
	return m, m.mutate("Alert acknowledged", func(ctx context.Context) error {
		return ctrl.AcknowledgeAlert(ctx, a.ID)
	})
}

// Settings rows the cursor can toggle.
const (
	settingAutoExecute = iota
	settingTwoFactor
	settingsCount
)

func (m Model) toggleSetting() (tea.Model, tea.Cmd) {
	if m.ctrl == nil {
		return m, nil
	}
	ctrl := m.ctrl

	switch m.settingsCursor {
	case settingAutoExecute:
		if !m.system.Loaded {
			return m, nil
		}
		s := m.system.Data
		s.Networks = slices.Clone(s.Networks)
		s.AutoExecute = !s.AutoExecute
		return m, m.mutate("System settings saved", func(ctx context.Context) error {
			_, err := ctrl.UpdateSystemSettings(ctx, s)
			return err
		})

	case settingTwoFactor:
		if !m.security.Loaded {
			return m, nil
		}
		s := m.security.Data
		s.IPWhitelist = slices.Clone(s.IPWhitelist)
		s.TwoFactorEnabled = !s.TwoFactorEnabled
		return m, m.mutate("Security settings saved", func(ctx context.Context) error {
			_, err := ctrl.UpdateSecuritySettings(ctx, s)
			return err
		})
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "esc":
		m.form = nil
		return m, nil
	case "tab", "down":
		return m, m.form.Next()
	case "shift+tab", "up":
		return m, m.form.Prev()
	case "enter":
		return m.submitWallet()
	}
	return m, m.form.Update(msg)
}

const actionAddWallet = "Wallet added"

func (m Model) submitWallet() (tea.Model, tea.Cmd) {
	if m.form.Pending() || m.ctrl == nil {
		return m, nil
	}

	address, label, network := m.form.Values()
	req := domain.AddWalletRequest{Address: address, Label: label, Network: network}
	if err := req.Validate(); err != nil {
		m.form.SetError(apperror.Message(err))
		return m, nil
	}

	m.form.SetError("")
	m.form.SetPending(true)

	ctrl := m.ctrl
	return m, m.mutate(actionAddWallet, func(ctx context.Context) error {
		_, err := ctrl.AddWallet(ctx, req)
		return err
	})
}

// mutate runs fn off the UI loop and reports its outcome as a mutationMsg.
func (m Model) mutate(action string, fn func(ctx context.Context) error) tea.Cmd {
	timeout := m.actionTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return mutationMsg{action: action, err: fn(ctx)}
	}
}

func (m Model) handleMutation(msg mutationMsg) (tea.Model, tea.Cmd) {
	if msg.action == actionAddWallet && m.form != nil {
		m.form.SetPending(false)
		if msg.err != nil {
			m.form.SetError(apperror.Message(msg.err))
			return m, nil
		}
		m.form = nil
	}

	if msg.err != nil {
		return m.flash(apperror.Message(msg.err), true)
	}
	return m.flash(msg.action, false)
}

// flash shows a notice in the status bar for NoticeDuration.
func (m Model) flash(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.noticeID++
	m.notice = text
	m.noticeErr = isErr

	id := m.noticeID
	return m, tea.Tick(NoticeDuration, func(time.Time) tea.Msg {
		return noticeExpiredMsg{id: id}
	})
}

// Page returns the current page.
func (m Model) Page() Page {
	return m.page
}

// Animating reports whether any metric is mid-transition.
func (m Model) Animating() bool {
	return m.values.Animating()
}
