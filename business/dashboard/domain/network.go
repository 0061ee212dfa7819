package domain

import (
	"sort"
	"strings"
	"time"
)

// StatusSource says where a network status row came from.
type StatusSource string

const (
	SourceAPI StatusSource = "api"
	SourceRPC StatusSource = "rpc"
)

// NetworkStatus is the health of one chain.
type NetworkStatus struct {
	Name        string       `json:"name"`
	ChainID     uint64       `json:"chain_id"`
	BlockNumber uint64       `json:"block_number"`
	GasGwei     float64      `json:"gas_gwei"`
	LatencyMs   float64      `json:"latency_ms"`
	Healthy     bool         `json:"healthy"`
	CheckedAt   time.Time    `json:"checked_at"`
	Source      StatusSource `json:"source"`
	Error       string       `json:"error,omitempty"`
}

// Latency returns LatencyMs as a duration.
func (s NetworkStatus) Latency() time.Duration {
	return time.Duration(s.LatencyMs * float64(time.Millisecond))
}

// MergeNetworkStatus combines rows from the API and from direct RPC probes,
// keyed by case-insensitive network name. A probe row replaces the API row
// for the same network. The result is sorted by name.
func MergeNetworkStatus(api, rpc []NetworkStatus) []NetworkStatus {
	byName := make(map[string]NetworkStatus, len(api)+len(rpc))
	for _, s := range api {
		if s.Source == "" {
			s.Source = SourceAPI
		}
		byName[strings.ToLower(s.Name)] = s
	}
	for _, s := range rpc {
		s.Source = SourceRPC
		byName[strings.ToLower(s.Name)] = s
	}

	out := make([]NetworkStatus, 0, len(byName))
	for _, s := range byName {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}
