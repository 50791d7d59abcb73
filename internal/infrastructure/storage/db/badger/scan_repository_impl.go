package dbbadger

import (
	"context"
	"errors"

	"github.com/timshannon/badgerhold/v4"

	"github.com/dandanlen/xpub-scan/internal/core/domain"
)

type scanRepositoryImpl struct {
	store *badgerhold.Store
}

// NewScanRepositoryImpl initialize a badger implementation of the
// domain.ScanRepository
func NewScanRepositoryImpl(store *badgerhold.Store) domain.ScanRepository {
	return scanRepositoryImpl{store}
}

func (r scanRepositoryImpl) GetScanRecord(
	_ context.Context, id string,
) (*domain.ScanRecord, error) {
	var record domain.ScanRecord
	if err := r.store.Get(id, &record); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r scanRepositoryImpl) PutScanRecord(
	_ context.Context, record *domain.ScanRecord,
) error {
	return r.store.Upsert(record.ID, record)
}

func (r scanRepositoryImpl) ListScanRecords(
	_ context.Context, fingerprint string,
) ([]domain.ScanRecord, error) {
	query := badgerhold.Where("KeyFingerprint").Eq(fingerprint)
	records := make([]domain.ScanRecord, 0)
	if err := r.store.Find(&records, query); err != nil {
		return nil, err
	}
	return records, nil
}
