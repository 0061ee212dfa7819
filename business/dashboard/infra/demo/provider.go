// Package demo is a self-contained DataSource that fabricates plausible
// dashboard data from a seeded random walk. It backs --demo mode and is
// never consulted when a real backend is configured.
package demo

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fd1az/arbitrage-dashboard/business/dashboard/domain"
	"github.com/fd1az/arbitrage-dashboard/internal/apperror"
)

// DefaultSeed is used when no seed is configured.
const DefaultSeed int64 = 42

var (
	pairs  = []string{"WETH/USDC", "WBTC/USDT", "ARB/USDC", "OP/WETH", "LINK/WETH"}
	venues = []string{"uniswap-v3", "sushiswap", "curve", "balancer", "binance"}
)

type chain struct {
	name    string
	chainID uint64
	block   uint64
	gas     float64
	blockMs int64
}

// Option configures a Provider.
type Option func(*Provider)

// WithClock sets the time source for generated timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

// Provider implements the dashboard DataSource with generated data. Every
// call advances the walk, so two providers with the same seed and clock
// produce the same answers to the same call sequence.
type Provider struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time

	stats    domain.TransactionStats
	txs      []domain.Transaction // newest first
	alerts   []domain.Alert
	rules    []domain.AlertRule
	wallets  []domain.Wallet
	system   domain.SystemSettings
	security domain.SecuritySettings
	chains   []chain
	ethUSD   decimal.Decimal
}

// New creates a provider seeded with seed.
func New(seed int64, opts ...Option) *Provider {
	p := &Provider{
		rng:    rand.New(rand.NewSource(seed)),
		now:    time.Now,
		ethUSD: decimal.NewFromInt(3200),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.seed()
	return p
}

func (p *Provider) seed() {
	p.system = domain.SystemSettings{
		PollIntervalSeconds: 5,
		MinProfitUSD:        decimal.NewFromInt(10),
		MaxGasGwei:          decimal.NewFromInt(150),
		AutoExecute:         false,
		Networks:            []string{"ethereum", "arbitrum", "optimism", "base"},
	}
	p.security = domain.SecuritySettings{
		TwoFactorEnabled:      true,
		SessionTimeoutMinutes: 60,
		IPWhitelist:           []string{"10.0.0.0/8"},
		APIKeyRotationDays:    90,
	}
	p.rules = []domain.AlertRule{
		{ID: "rule-gas", Name: "Gas above limit", Metric: "gas_gwei", Operator: ">", Threshold: decimal.NewFromInt(150), Enabled: true},
		{ID: "rule-fail", Name: "Failure rate", Metric: "failure_rate", Operator: ">", Threshold: decimal.NewFromInt(20), Enabled: true},
		{ID: "rule-profit", Name: "Daily profit floor", Metric: "profit_24h_usd", Operator: "<", Threshold: decimal.NewFromInt(100), Enabled: false},
	}
	p.chains = []chain{
		{name: "ethereum", chainID: 1, block: 21_000_000, gas: 18, blockMs: 12_000},
		{name: "arbitrum", chainID: 42161, block: 280_000_000, gas: 0.1, blockMs: 250},
		{name: "optimism", chainID: 10, block: 128_000_000, gas: 0.05, blockMs: 2_000},
		{name: "base", chainID: 8453, block: 22_000_000, gas: 0.08, blockMs: 2_000},
	}

	now := p.now()
	for i := 0; i < 3; i++ {
		p.wallets = append(p.wallets, domain.Wallet{
			Address:    p.address(),
			Label:      fmt.Sprintf("executor-%d", i+1),
			Network:    p.chains[i].name,
			BalanceETH: decimal.NewFromFloat(0.5 + p.rng.Float64()*4).Round(4),
			AddedAt:    now.Add(-time.Duration(30-i) * 24 * time.Hour),
		})
	}
	p.priceWallets()

	for i := 0; i < 40; i++ {
		p.addTransaction(now.Add(-time.Duration(40-i) * 7 * time.Minute))
	}
}

func (p *Provider) address() common.Address {
	var a common.Address
	p.rng.Read(a[:])
	return a
}

func (p *Provider) id() string {
	id, err := uuid.NewRandomFromReader(p.rng)
	if err != nil {
		return fmt.Sprintf("%016x", p.rng.Uint64())
	}
	return id.String()
}

func (p *Provider) money(min, max float64) decimal.Decimal {
	return decimal.NewFromFloat(min + p.rng.Float64()*(max-min)).Round(2)
}

func (p *Provider) addTransaction(at time.Time) {
	tx := domain.Transaction{
		ID:        p.id(),
		Hash:      common.BytesToHash(p.address().Bytes()).Hex(),
		Pair:      pairs[p.rng.Intn(len(pairs))],
		Network:   p.chains[p.rng.Intn(len(p.chains))].name,
		GasUSD:    p.money(0.2, 6),
		Timestamp: at,
	}
	if p.rng.Float64() < 0.86 {
		tx.Status = domain.TxSuccess
		tx.ProfitUSD = p.money(0.5, 45)
		p.stats.Successful++
	} else {
		tx.Status = domain.TxFailed
		tx.ProfitUSD = decimal.Zero
		p.stats.Failed++
	}

	p.stats.TotalTransactions++
	p.stats.TotalProfitUSD = p.stats.TotalProfitUSD.Add(tx.ProfitUSD)
	p.stats.TotalGasUSD = p.stats.TotalGasUSD.Add(tx.GasUSD)
	p.stats.SuccessRate = float64(p.stats.Successful) / float64(p.stats.TotalTransactions) * 100
	p.stats.AvgExecutionMs = 180 + p.rng.Float64()*240

	p.txs = append([]domain.Transaction{tx}, p.txs...)
}

func (p *Provider) priceWallets() {
	for i := range p.wallets {
		p.wallets[i].BalanceUSD = p.wallets[i].BalanceETH.Mul(p.ethUSD).Round(2)
	}
}

// walk nudges v by up to ±pct percent, never below floor.
func (p *Provider) walk(v, pct, floor float64) float64 {
	v *= 1 + (p.rng.Float64()*2-1)*pct/100
	if v < floor {
		v = floor
	}
	return v
}

func (p *Provider) lock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	return nil
}

// TransactionStats advances the walk by zero to two transactions.
func (p *Provider) TransactionStats(ctx context.Context) (domain.TransactionStats, error) {
	if err := p.lock(ctx); err != nil {
		return domain.TransactionStats{}, err
	}
	defer p.mu.Unlock()

	now := p.now()
	for n := p.rng.Intn(3); n > 0; n-- {
		p.addTransaction(now)
	}
	p.stats.Opportunities24h = int64(120 + p.rng.Intn(60))
	return p.stats, nil
}

// TransactionHistory pages through generated transactions, newest first.
func (p *Provider) TransactionHistory(ctx context.Context, q domain.PageQuery) (domain.TransactionPage, error) {
	if err := p.lock(ctx); err != nil {
		return domain.TransactionPage{}, err
	}
	defer p.mu.Unlock()

	q = q.Normalize()
	start := (q.Page - 1) * q.Limit
	end := start + q.Limit
	if start > len(p.txs) {
		start = len(p.txs)
	}
	if end > len(p.txs) {
		end = len(p.txs)
	}

	return domain.TransactionPage{
		Items: append([]domain.Transaction(nil), p.txs[start:end]...),
		Page:  q.Page,
		Limit: q.Limit,
		Total: int64(len(p.txs)),
	}, nil
}

// ActiveAlerts occasionally raises a new alert.
func (p *Provider) ActiveAlerts(ctx context.Context) ([]domain.Alert, error) {
	if err := p.lock(ctx); err != nil {
		return nil, err
	}
	defer p.mu.Unlock()

	if p.rng.Float64() < 0.15 && len(p.alerts) < 8 {
		c := p.chains[p.rng.Intn(len(p.chains))]
		sev := []domain.Severity{domain.SeverityInfo, domain.SeverityWarning, domain.SeverityCritical}[p.rng.Intn(3)]
		p.alerts = append(p.alerts, domain.Alert{
			ID:        p.id(),
			Severity:  sev,
			Title:     fmt.Sprintf("Gas spike on %s", c.name),
			Message:   fmt.Sprintf("gas at %.2f gwei", c.gas*3),
			CreatedAt: p.now(),
		})
	}

	out := make([]domain.Alert, 0, len(p.alerts))
	for _, a := range p.alerts {
		if !a.Acknowledged {
			out = append(out, a)
		}
	}
	return out, nil
}

// AlertRules returns the configured rules.
func (p *Provider) AlertRules(ctx context.Context) ([]domain.AlertRule, error) {
	if err := p.lock(ctx); err != nil {
		return nil, err
	}
	defer p.mu.Unlock()
	return append([]domain.AlertRule(nil), p.rules...), nil
}

// AcknowledgeAlert marks id acknowledged.
func (p *Provider) AcknowledgeAlert(ctx context.Context, id string) error {
	if err := p.lock(ctx); err != nil {
		return err
	}
	defer p.mu.Unlock()

	for i := range p.alerts {
		if p.alerts[i].ID == id {
			p.alerts[i].Acknowledged = true
			return nil
		}
	}
	return apperror.New(apperror.CodeAPINotFound, apperror.WithContext("alert "+id))
}

// Wallets returns the monitored wallets with drifting balances.
func (p *Provider) Wallets(ctx context.Context) ([]domain.Wallet, error) {
	if err := p.lock(ctx); err != nil {
		return nil, err
	}
	defer p.mu.Unlock()

	p.ethUSD = decimal.NewFromFloat(p.walk(p.ethUSD.InexactFloat64(), 0.4, 500)).Round(2)
	for i := range p.wallets {
		bal := p.walk(p.wallets[i].BalanceETH.InexactFloat64(), 1, 0)
		p.wallets[i].BalanceETH = decimal.NewFromFloat(bal).Round(4)
	}
	p.priceWallets()
	return append([]domain.Wallet(nil), p.wallets...), nil
}

// AddWallet appends a wallet. Duplicate addresses are rejected.
func (p *Provider) AddWallet(ctx context.Context, req domain.AddWalletRequest) (domain.Wallet, error) {
	if err := p.lock(ctx); err != nil {
		return domain.Wallet{}, err
	}
	defer p.mu.Unlock()

	addr := common.HexToAddress(req.Address)
	for _, w := range p.wallets {
		if w.Address == addr {
			return domain.Wallet{}, apperror.Validation(apperror.CodeInvalidWalletAddress,
				fmt.Sprintf("%s is already monitored", addr.Hex()))
		}
	}

	w := domain.Wallet{
		Address:    addr,
		Label:      req.Label,
		Network:    strings.ToLower(req.Network),
		BalanceETH: decimal.Zero,
		BalanceUSD: decimal.Zero,
		AddedAt:    p.now(),
	}
	p.wallets = append(p.wallets, w)
	return w, nil
}

// SystemSettings returns the current system settings.
func (p *Provider) SystemSettings(ctx context.Context) (domain.SystemSettings, error) {
	if err := p.lock(ctx); err != nil {
		return domain.SystemSettings{}, err
	}
	defer p.mu.Unlock()

	s := p.system
	s.Networks = append([]string(nil), p.system.Networks...)
	return s, nil
}

// UpdateSystemSettings stores s.
func (p *Provider) UpdateSystemSettings(ctx context.Context, s domain.SystemSettings) (domain.SystemSettings, error) {
	if err := p.lock(ctx); err != nil {
		return domain.SystemSettings{}, err
	}
	defer p.mu.Unlock()

	p.system = s
	return s, nil
}

// SecuritySettings returns the current security settings.
func (p *Provider) SecuritySettings(ctx context.Context) (domain.SecuritySettings, error) {
	if err := p.lock(ctx); err != nil {
		return domain.SecuritySettings{}, err
	}
	defer p.mu.Unlock()

	s := p.security
	s.IPWhitelist = append([]string(nil), p.security.IPWhitelist...)
	return s, nil
}

// UpdateSecuritySettings stores s.
func (p *Provider) UpdateSecuritySettings(ctx context.Context, s domain.SecuritySettings) (domain.SecuritySettings, error) {
	if err := p.lock(ctx); err != nil {
		return domain.SecuritySettings{}, err
	}
	defer p.mu.Unlock()

	p.security = s
	return s, nil
}

// Opportunities generates a fresh batch of opportunities.
func (p *Provider) Opportunities(ctx context.Context) ([]domain.Opportunity, error) {
	if err := p.lock(ctx); err != nil {
		return nil, err
	}
	defer p.mu.Unlock()

	now := p.now()
	n := 2 + p.rng.Intn(6)
	out := make([]domain.Opportunity, 0, n)
	for i := 0; i < n; i++ {
		buy := p.rng.Intn(len(venues))
		sell := (buy + 1 + p.rng.Intn(len(venues)-1)) % len(venues)
		spread := p.money(-5, 60)

		status := "detected"
		if spread.GreaterThan(p.system.MinProfitUSD) {
			status = "profitable"
		}

		out = append(out, domain.Opportunity{
			ID:         p.id(),
			Pair:       pairs[p.rng.Intn(len(pairs))],
			BuyVenue:   venues[buy],
			SellVenue:  venues[sell],
			Network:    p.chains[p.rng.Intn(len(p.chains))].name,
			SpreadBps:  spread,
			ProfitUSD:  spread.Mul(decimal.NewFromFloat(0.8)).Round(2),
			DetectedAt: now.Add(-time.Duration(p.rng.Intn(3000)) * time.Millisecond),
			Status:     status,
		})
	}
	return out, nil
}

// NetworkStatus advances every chain's head and gas price.
func (p *Provider) NetworkStatus(ctx context.Context) ([]domain.NetworkStatus, error) {
	if err := p.lock(ctx); err != nil {
		return nil, err
	}
	defer p.mu.Unlock()

	now := p.now()
	out := make([]domain.NetworkStatus, 0, len(p.chains))
	for i := range p.chains {
		c := &p.chains[i]
		c.block += uint64(1 + p.rng.Int63n(10_000/c.blockMs+1))
		c.gas = p.walk(c.gas, 8, 0.01)

		out = append(out, domain.NetworkStatus{
			Name:        c.name,
			ChainID:     c.chainID,
			BlockNumber: c.block,
			GasGwei:     c.gas,
			LatencyMs:   20 + p.rng.Float64()*180,
			Healthy:     p.rng.Float64() > 0.03,
			CheckedAt:   now,
			Source:      domain.SourceAPI,
		})
	}
	return out, nil
}
