package explorer

import (
	"errors"
	"time"
)

// ErrProviderUnavailable is returned once the bounded retry policy of a
// provider has been exhausted. Callers must treat the address as unknown,
// never as inactive.
var ErrProviderUnavailable = errors.New("explorer provider unavailable")

// TxOutput is one output of an observed transaction.
type TxOutput struct {
	Address string
	Value   int64
}

// Tx is one raw transaction observed for an address, before any semantic
// labeling. Input and output addresses are kept as reported by the provider.
type Tx struct {
	TxID        string
	BlockHeight int
	BlockTime   time.Time
	Confirmed   bool
	Inputs      []TxOutput
	Outputs     []TxOutput
}

// AddressActivity is the full observed history of one address. All monetary
// values are integers in the asset's base unit.
type AddressActivity struct {
	Address string
	Funded  int64
	Spent   int64
	TxCount int
	Txs     []Tx
	// Truncated reports that the provider capped Txs below TxCount.
	Truncated bool
}

// Balance returns funded minus spent.
func (a AddressActivity) Balance() int64 { return a.Funded - a.Spent }
