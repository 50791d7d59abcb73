package domain

import (
	"context"
	"fmt"
	"time"
)

// ScanRecord is the cached outcome of probing one (key, path, encoding).
// Unknown results are never cached.
type ScanRecord struct {
	ID             string `badgerhold:"key"`
	KeyFingerprint string
	Account        uint32
	Chain          uint32
	Index          uint32
	AddressType    string
	Address        string
	Funded         int64
	Spent          int64
	TxCount        int
	Active         bool
	SessionID      string
	UpdatedAt      time.Time
}

// ScanRecordID builds the canonical cache key for one probed position.
func ScanRecordID(fingerprint string, path DerivationPath, addrType AddressType) string {
	return fmt.Sprintf("%s:%d:%d:%d:%s", fingerprint, path.Account, path.Chain, path.Index, addrType)
}

// ScanRepository is the abstraction for any kind of database intended to
// persist scan records across runs, making interrupted scans re-runnable
// without re-querying the provider for already settled positions.
type ScanRepository interface {
	// GetScanRecord returns the record for the given id, or nil when the
	// position has never been cached.
	GetScanRecord(ctx context.Context, id string) (*ScanRecord, error)
	// PutScanRecord inserts or replaces the record for its position.
	PutScanRecord(ctx context.Context, record *ScanRecord) error
	// ListScanRecords returns all records cached for the given key
	// fingerprint.
	ListScanRecords(ctx context.Context, fingerprint string) ([]ScanRecord, error)
}
