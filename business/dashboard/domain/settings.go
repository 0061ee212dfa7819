package domain

import (
	"fmt"
	"net"

	"github.com/shopspring/decimal"

	"github.com/fd1az/arbitrage-dashboard/internal/apperror"
)

// SystemSettings are the backend's runtime knobs.
type SystemSettings struct {
	PollIntervalSeconds int             `json:"poll_interval_seconds"`
	MinProfitUSD        decimal.Decimal `json:"min_profit_usd"`
	MaxGasGwei          decimal.Decimal `json:"max_gas_gwei"`
	AutoExecute         bool            `json:"auto_execute"`
	Networks            []string        `json:"networks"`
}

// Validate rejects settings the backend would refuse.
func (s SystemSettings) Validate() error {
	if s.PollIntervalSeconds < 1 || s.PollIntervalSeconds > 3600 {
		return apperror.Validation(apperror.CodeInvalidSettings,
			fmt.Sprintf("poll interval %ds outside 1..3600", s.PollIntervalSeconds))
	}
	if s.MinProfitUSD.IsNegative() {
		return apperror.Validation(apperror.CodeInvalidSettings, "min profit cannot be negative")
	}
	if !s.MaxGasGwei.IsPositive() {
		return apperror.Validation(apperror.CodeInvalidSettings, "max gas must be positive")
	}
	return nil
}

// SecuritySettings control access to the backend.
type SecuritySettings struct {
	TwoFactorEnabled      bool     `json:"two_factor_enabled"`
	SessionTimeoutMinutes int      `json:"session_timeout_minutes"`
	IPWhitelist           []string `json:"ip_whitelist"`
	APIKeyRotationDays    int      `json:"api_key_rotation_days"`
}

// Validate rejects malformed security settings.
func (s SecuritySettings) Validate() error {
	if s.SessionTimeoutMinutes < 5 || s.SessionTimeoutMinutes > 1440 {
		return apperror.Validation(apperror.CodeInvalidSettings,
			fmt.Sprintf("session timeout %dm outside 5..1440", s.SessionTimeoutMinutes))
	}
	if s.APIKeyRotationDays < 0 {
		return apperror.Validation(apperror.CodeInvalidSettings, "key rotation cannot be negative")
	}
	for _, entry := range s.IPWhitelist {
		if net.ParseIP(entry) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(entry); err == nil {
			continue
		}
		return apperror.Validation(apperror.CodeInvalidSettings,
			fmt.Sprintf("whitelist entry %q is not an IP or CIDR", entry))
	}
	return nil
}
