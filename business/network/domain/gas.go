// Package domain contains the core domain types for the network context.
package domain

import (
	"math/big"
	"strings"
)

// MaxGasPriceWei is the sanity cap applied to reported gas prices: 500 gwei.
var MaxGasPriceWei = big.NewInt(500_000_000_000)

// WeiToGwei converts wei to gwei.
func WeiToGwei(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	gwei := new(big.Float).SetInt(wei)
	gwei.Quo(gwei, big.NewFloat(1e9))
	f, _ := gwei.Float64()
	return f
}

// ClampGasPrice limits wei to max. It reports whether clamping happened.
// A nil max disables the cap.
func ClampGasPrice(wei, max *big.Int) (*big.Int, bool) {
	if wei == nil || max == nil || wei.Cmp(max) <= 0 {
		return wei, false
	}
	return new(big.Int).Set(max), true
}

// Endpoint is one chain to probe.
type Endpoint struct {
	Name    string
	ChainID uint64 // 0 skips the chain id check
	RPCURL  string
}

// Key is the endpoint's case-insensitive name.
func (e Endpoint) Key() string {
	return strings.ToLower(strings.TrimSpace(e.Name))
}
