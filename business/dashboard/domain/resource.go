// Package domain contains the core domain types for the dashboard context.
package domain

// Resource names one independently polled backend resource.
type Resource string

const (
	ResourceStats            Resource = "stats"
	ResourceHistory          Resource = "history"
	ResourceAlerts           Resource = "alerts"
	ResourceAlertRules       Resource = "alert_rules"
	ResourceWallets          Resource = "wallets"
	ResourceSystemSettings   Resource = "system_settings"
	ResourceSecuritySettings Resource = "security_settings"
	ResourceOpportunities    Resource = "opportunities"
	ResourceNetworks         Resource = "networks"
)

// AllResources lists every resource in display order.
var AllResources = []Resource{
	ResourceStats,
	ResourceHistory,
	ResourceAlerts,
	ResourceAlertRules,
	ResourceWallets,
	ResourceSystemSettings,
	ResourceSecuritySettings,
	ResourceOpportunities,
	ResourceNetworks,
}

// String returns the resource name.
func (r Resource) String() string {
	return string(r)
}

// Valid reports whether r is a known resource.
func (r Resource) Valid() bool {
	for _, known := range AllResources {
		if r == known {
			return true
		}
	}
	return false
}
