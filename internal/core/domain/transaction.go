package domain

import "time"

// OperationType is the semantic category assigned to a transaction by the
// classifier.
type OperationType string

const (
	OperationSent          OperationType = "Sent"
	OperationReceived      OperationType = "Received"
	OperationSentToSelf    OperationType = "Sent to self"
	OperationSentToSibling OperationType = "Sent to sibling"
	// OperationReceivedToChange marks a deposit made by a non-sibling
	// directly to a change-chain address.
	OperationReceivedToChange OperationType = "Received (non-sibling to change)"
)

// Movement is one funding or paying side of a raw transaction.
type Movement struct {
	Address string
	Value   int64
}

// RawTx is one transaction as reported by the provider, before the net
// effect on an owned address has been computed.
type RawTx struct {
	TxID        string
	BlockHeight int
	Date        time.Time
	Inputs      []Movement
	Outputs     []Movement
}

// Transaction is one ledger event observed for one owned address. It is
// immutable once labeled by the classifier.
type Transaction struct {
	TxID        string
	BlockHeight int
	Date        time.Time
	// Address is the owned address the event was observed for.
	Address     string
	CashAddress string
	// Amount is the signed net effect on Address in base units.
	Amount int64
	// Counterpart is the other side of the transfer: the funding address on
	// incoming transactions, the paid address on outgoing ones.
	Counterpart string
	Type        OperationType
}

// Sender returns the address that funded the transaction.
func (t Transaction) Sender() string {
	if t.Amount < 0 {
		return t.Address
	}
	return t.Counterpart
}

// Receiver returns the address that was paid by the transaction.
func (t Transaction) Receiver() string {
	if t.Amount < 0 {
		return t.Counterpart
	}
	return t.Address
}
