// Package di contains dependency injection tokens for the network context.
package di

import (
	"github.com/fd1az/arbitrage-dashboard/business/network/app"
	"github.com/fd1az/arbitrage-dashboard/internal/di"
)

// Public service tokens - exposed to other modules
var (
	NetworkService = di.NewToken[*app.NetworkService]("network.NetworkService")
)

// Helper functions for type-safe access
func GetNetworkService(c di.ServiceRegistry) *app.NetworkService {
	return di.GetToken(c, NetworkService)
}
