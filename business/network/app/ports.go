// Package app contains application services and port definitions for the network context.
package app

import (
	"context"

	dashDomain "github.com/fd1az/arbitrage-dashboard/business/dashboard/domain"
	"github.com/fd1az/arbitrage-dashboard/business/network/domain"
)

// ChainProbe checks one chain over JSON-RPC.
type ChainProbe interface {
	// Endpoint describes the probed chain.
	Endpoint() domain.Endpoint

	// Check reads the chain head and gas price. A failed check still returns
	// a status row, marked unhealthy, alongside the error.
	Check(ctx context.Context) (dashDomain.NetworkStatus, error)

	// Close releases the RPC connection.
	Close() error
}
