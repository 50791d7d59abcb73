package domain

// DerivedAddress is one address at one (path, encoding) of a key. The
// fingerprint is a back-reference to the owning key, not ownership.
type DerivedAddress struct {
	KeyFingerprint string
	Path           DerivationPath
	Type           AddressType
	Address        string
	// CashAddress is the alternate rendition of the same hash, filled only
	// for assets that define one.
	CashAddress string
}

// AddressStatus is the three-valued outcome of probing one address.
type AddressStatus int

const (
	// StatusInactive means the provider reported zero activity.
	StatusInactive AddressStatus = iota
	// StatusActive means the provider reported at least one transaction.
	StatusActive
	// StatusUnknown means the provider could not be reached; it must never
	// be folded into StatusInactive.
	StatusUnknown
)

func (s AddressStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusUnknown:
		return "unknown"
	default:
		return "inactive"
	}
}

// AddressStats summarizes the observed activity of one address. All values
// are integers in the asset's base unit.
type AddressStats struct {
	Funded  int64
	Spent   int64
	TxCount int
}

// Balance returns funded minus spent, holding the balance invariant by
// construction.
func (s AddressStats) Balance() int64 { return s.Funded - s.Spent }

// ScanEntry is one probed index of a chain scan.
type ScanEntry struct {
	Address DerivedAddress
	Status  AddressStatus
	Stats   *AddressStats
	// Raw is the provider-reported transaction list, kept unlabeled until
	// the whole address book is known.
	Raw []RawTx
	// Truncated reports that the provider capped the transaction list for
	// this address.
	Truncated bool
	// Cached reports that the entry was served from the scan cache instead
	// of the provider.
	Cached bool
}

// AddressBook is the set of addresses owned by the scanned key, indexed by
// every known rendition of each address.
type AddressBook struct {
	byAddress map[string]*DerivedAddress
}

// NewAddressBook builds a book from scan entries. Only addresses derived
// from the key belong in the book, whatever their activity status.
func NewAddressBook(entries []ScanEntry) *AddressBook {
	book := &AddressBook{byAddress: make(map[string]*DerivedAddress)}
	for i := range entries {
		addr := entries[i].Address
		book.add(addr)
	}
	return book
}

func (b *AddressBook) add(addr DerivedAddress) {
	a := addr
	b.byAddress[a.Address] = &a
	if a.CashAddress != "" {
		b.byAddress[a.CashAddress] = &a
	}
}

// Lookup returns the derived address owning the given string, if any.
func (b *AddressBook) Lookup(address string) (*DerivedAddress, bool) {
	a, ok := b.byAddress[address]
	return a, ok
}

// Owns reports whether the given address string is derived from the key.
func (b *AddressBook) Owns(address string) bool {
	_, ok := b.byAddress[address]
	return ok
}

// IsChange reports whether the given address string belongs to the key's
// change chain.
func (b *AddressBook) IsChange(address string) bool {
	a, ok := b.byAddress[address]
	return ok && a.Path.Chain == ChainInternal
}

// Size returns the number of address strings known to the book.
func (b *AddressBook) Size() int { return len(b.byAddress) }
