package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/arbitrage-dashboard/internal/apperror"
)

// MaxWalletLabel is the longest label accepted for a wallet.
const MaxWalletLabel = 32

// Wallet is a monitored address.
type Wallet struct {
	Address    common.Address  `json:"address"`
	Label      string          `json:"label"`
	Network    string          `json:"network"`
	BalanceETH decimal.Decimal `json:"balance_eth"`
	BalanceUSD decimal.Decimal `json:"balance_usd"`
	AddedAt    time.Time       `json:"added_at"`
}

// AddWalletRequest is the payload for adding a wallet.
type AddWalletRequest struct {
	Address string `json:"address"`
	Label   string `json:"label"`
	Network string `json:"network"`
}

// Validate checks and normalises the request in place. The address is
// rewritten in checksummed form.
func (r *AddWalletRequest) Validate() error {
	r.Address = strings.TrimSpace(r.Address)
	r.Label = strings.TrimSpace(r.Label)
	r.Network = strings.TrimSpace(r.Network)

	if !common.IsHexAddress(r.Address) {
		return apperror.Validation(apperror.CodeInvalidWalletAddress,
			fmt.Sprintf("%q is not a hex address", r.Address))
	}
	if r.Label == "" {
		return apperror.Validation(apperror.CodeInvalidWalletLabel, "label is required")
	}
	if utf8.RuneCountInString(r.Label) > MaxWalletLabel {
		return apperror.Validation(apperror.CodeInvalidWalletLabel,
			fmt.Sprintf("label longer than %d characters", MaxWalletLabel))
	}
	if r.Network == "" {
		return apperror.Validation(apperror.CodeRequiredField, "network is required")
	}

	r.Address = common.HexToAddress(r.Address).Hex()
	return nil
}

// TotalBalanceUSD sums wallet balances.
func TotalBalanceUSD(wallets []Wallet) decimal.Decimal {
	total := decimal.Zero
	for _, w := range wallets {
		total = total.Add(w.BalanceUSD)
	}
	return total
}
