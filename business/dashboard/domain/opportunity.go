package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Opportunity is an arbitrage opportunity as reported by the backend.
type Opportunity struct {
	ID         string          `json:"id"`
	Pair       string          `json:"pair"`
	BuyVenue   string          `json:"buy_venue"`
	SellVenue  string          `json:"sell_venue"`
	Network    string          `json:"network"`
	SpreadBps  decimal.Decimal `json:"spread_bps"`
	ProfitUSD  decimal.Decimal `json:"profit_usd"`
	DetectedAt time.Time       `json:"detected_at"`
	Status     string          `json:"status"`
}

// IsProfitable reports positive expected profit.
func (o Opportunity) IsProfitable() bool {
	return o.ProfitUSD.IsPositive()
}

// BestOpportunity returns the most profitable opportunity, if any.
func BestOpportunity(opps []Opportunity) (Opportunity, bool) {
	if len(opps) == 0 {
		return Opportunity{}, false
	}
	best := opps[0]
	for _, o := range opps[1:] {
		if o.ProfitUSD.GreaterThan(best.ProfitUSD) {
			best = o
		}
	}
	return best, true
}
