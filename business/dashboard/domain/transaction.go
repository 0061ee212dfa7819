package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the execution outcome of an arbitrage transaction.
type TransactionStatus string

const (
	TxSuccess TransactionStatus = "success"
	TxFailed  TransactionStatus = "failed"
	TxPending TransactionStatus = "pending"
)

// TransactionStats aggregates executed transactions.
type TransactionStats struct {
	TotalTransactions int64           `json:"total_transactions"`
	Successful        int64           `json:"successful"`
	Failed            int64           `json:"failed"`
	TotalProfitUSD    decimal.Decimal `json:"total_profit_usd"`
	TotalGasUSD       decimal.Decimal `json:"total_gas_usd"`
	SuccessRate       float64         `json:"success_rate"`
	AvgExecutionMs    float64         `json:"avg_execution_ms"`
	Opportunities24h  int64           `json:"opportunities_24h"`
}

// NetProfitUSD is profit after gas.
func (s TransactionStats) NetProfitUSD() decimal.Decimal {
	return s.TotalProfitUSD.Sub(s.TotalGasUSD)
}

// Transaction is one executed (or attempted) arbitrage.
type Transaction struct {
	ID        string            `json:"id"`
	Hash      string            `json:"hash"`
	Pair      string            `json:"pair"`
	Network   string            `json:"network"`
	Status    TransactionStatus `json:"status"`
	ProfitUSD decimal.Decimal   `json:"profit_usd"`
	GasUSD    decimal.Decimal   `json:"gas_usd"`
	Timestamp time.Time         `json:"timestamp"`
}

// TransactionPage is one page of history.
type TransactionPage struct {
	Items []Transaction `json:"items"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Total int64         `json:"total"`
}

// Pages returns the number of pages at the page's limit.
func (p TransactionPage) Pages() int {
	if p.Limit <= 0 || p.Total <= 0 {
		return 1
	}
	return int((p.Total + int64(p.Limit) - 1) / int64(p.Limit))
}

// HasNext reports whether a later page exists.
func (p TransactionPage) HasNext() bool {
	return p.Page < p.Pages()
}

// HasPrev reports whether an earlier page exists.
func (p TransactionPage) HasPrev() bool {
	return p.Page > 1
}

// PageQuery identifies a history page.
type PageQuery struct {
	Page  int
	Limit int
}

// DefaultPageLimit is the history page size when none is given.
const DefaultPageLimit = 20

// Normalize clamps page to >= 1 and limit to (0, 100].
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return q
}
