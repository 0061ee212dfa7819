package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Severity ranks alerts.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rank orders severities, critical highest.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	}
	return 0
}

// Alert is an active alert raised by the backend.
type Alert struct {
	ID           string    `json:"id"`
	Severity     Severity  `json:"severity"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"created_at"`
	Acknowledged bool      `json:"acknowledged"`
}

// AlertRule is a configured alerting threshold.
type AlertRule struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Metric    string          `json:"metric"`
	Operator  string          `json:"operator"`
	Threshold decimal.Decimal `json:"threshold"`
	Enabled   bool            `json:"enabled"`
}

// Unacknowledged counts alerts nobody has acknowledged yet.
func Unacknowledged(alerts []Alert) int {
	n := 0
	for _, a := range alerts {
		if !a.Acknowledged {
			n++
		}
	}
	return n
}
