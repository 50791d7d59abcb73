package domain

import "time"

// ImportedOperation is one record of an externally supplied transaction
// history. Every field but the date may be absent: a zero-length Address or
// TxID and a nil Amount mean the source did not provide them.
type ImportedOperation struct {
	Date    time.Time
	Address string
	Amount  *int64
	TxID    string
	Type    OperationType
}

// HasExactKey reports whether the record carries both sides of the primary
// reconciliation key.
func (o ImportedOperation) HasExactKey() bool {
	return o.TxID != "" && o.Address != ""
}

// ComparisonStatus is the verdict of matching one imported record against
// the actual transaction set.
type ComparisonStatus string

const (
	ComparisonMatch    ComparisonStatus = "match"
	ComparisonMismatch ComparisonStatus = "mismatch"
)

// ComparisonResult pairs at most one imported record with at most one actual
// transaction. Exactly one of Imported/Actual may be nil, never both.
type ComparisonResult struct {
	Status   ComparisonStatus
	Imported *ImportedOperation
	Actual   *Transaction
	// Ambiguous flags pairs that were resolved by the deterministic
	// tie-break among several equally good candidates.
	Ambiguous bool
}
