package domain

import (
	"math/big"
	"testing"
)

func TestWeiToGwei(t *testing.T) {
	tests := []struct {
		wei  *big.Int
		want float64
	}{
		{nil, 0},
		{big.NewInt(0), 0},
		{big.NewInt(1_500_000_000), 1.5},
		{big.NewInt(100_000_000), 0.1},
	}
	for _, tt := range tests {
		if got := WeiToGwei(tt.wei); got != tt.want {
			t.Errorf("WeiToGwei(%v) = %v, want %v", tt.wei, got, tt.want)
		}
	}
}

func TestClampGasPrice(t *testing.T) {
	max := big.NewInt(100)

	got, clamped := ClampGasPrice(big.NewInt(50), max)
	if clamped || got.Int64() != 50 {
		t.Fatalf("below cap: got %v clamped=%v", got, clamped)
	}

	got, clamped = ClampGasPrice(big.NewInt(500), max)
	if !clamped || got.Int64() != 100 {
		t.Fatalf("above cap: got %v clamped=%v", got, clamped)
	}
	if got == max {
		t.Fatal("clamped value must not alias the cap")
	}

	if _, clamped := ClampGasPrice(big.NewInt(500), nil); clamped {
		t.Fatal("nil cap must not clamp")
	}
}
