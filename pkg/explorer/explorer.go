package explorer

import "context"

// Service is the representation of a ledger-data provider that allows to
// fetch the activity of single addresses.
type Service interface {
	// Name returns a short identifier of the provider mode, for reporting.
	Name() string
	// URL returns the provider's base endpoint, for reporting.
	URL() string
	// Capped reports whether the provider truncates per-address transaction
	// lists.
	Capped() bool
	// GetAddressActivity fetches balance, funded/spent totals and the
	// transaction list of the given address. The returned activity reports
	// truncation explicitly so callers can warn instead of silently dropping
	// data.
	GetAddressActivity(ctx context.Context, address string) (*AddressActivity, error)
}
