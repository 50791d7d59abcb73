package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dandanlen/xpub-scan/internal/core/domain"
)

func amount(v int64) *int64 { return &v }

func actualTx(txid, address string, amount int64, date time.Time) domain.Transaction {
	return domain.Transaction{
		TxID:    txid,
		Address: address,
		Amount:  amount,
		Date:    date,
		Type:    domain.OperationReceived,
	}
}

func TestCompareMatchesOnExactKey(t *testing.T) {
	date := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
	imported := []domain.ImportedOperation{
		{Date: date, Address: "addr1", Amount: amount(5000), TxID: "tx1"},
	}
	actual := []domain.Transaction{actualTx("tx1", "addr1", 5000, date)}

	results := NewReconciliationService().Compare(imported, actual)
	require.Len(t, results, 1)

	assert.Equal(t, domain.ComparisonMatch, results[0].Status)
	assert.NotNil(t, results[0].Imported)
	assert.NotNil(t, results[0].Actual)
	assert.False(t, results[0].Ambiguous)
}

func TestCompareFallsBackToDateAndAmount(t *testing.T) {
	date := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
	// Bank-style export: no txid, no address, amount unsigned.
	imported := []domain.ImportedOperation{
		{Date: date.Add(6 * time.Hour), Amount: amount(7500)},
	}
	actual := []domain.Transaction{actualTx("tx9", "addr1", -7500, date)}

	results := NewReconciliationService().Compare(imported, actual)
	require.Len(t, results, 1)

	assert.Equal(t, domain.ComparisonMatch, results[0].Status)
	assert.Equal(t, "tx9", results[0].Actual.TxID)
}

func TestCompareFallbackRespectsDateTolerance(t *testing.T) {
	date := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
	imported := []domain.ImportedOperation{
		{Date: date.Add(48 * time.Hour), Amount: amount(7500)},
	}
	actual := []domain.Transaction{actualTx("tx9", "addr1", 7500, date)}

	results := NewReconciliationService().Compare(imported, actual)
	require.Len(t, results, 2)

	// Neither side matched: one mismatch per record.
	assert.Equal(t, domain.ComparisonMismatch, results[0].Status)
	assert.Nil(t, results[0].Actual)
	assert.Equal(t, domain.ComparisonMismatch, results[1].Status)
	assert.Nil(t, results[1].Imported)
}

func TestCompareFlagsAmbiguousCandidates(t *testing.T) {
	date := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
	imported := []domain.ImportedOperation{
		{Date: date, Amount: amount(5000)},
	}
	actual := []domain.Transaction{
		actualTx("tx-b", "addr1", 5000, date.Add(2*time.Hour)),
		actualTx("tx-a", "addr2", 5000, date.Add(time.Hour)),
	}

	results := NewReconciliationService().Compare(imported, actual)
	require.Len(t, results, 2)

	// Deterministic tie-break: earliest actual date wins, pair is flagged.
	assert.True(t, results[0].Ambiguous)
	assert.Equal(t, "tx-a", results[0].Actual.TxID)
	assert.Equal(t, "tx-b", results[1].Actual.TxID)
	assert.Nil(t, results[1].Imported)
}

func TestComparePairedRecordWithDifferingFieldIsMismatch(t *testing.T) {
	date := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
	imported := []domain.ImportedOperation{
		{Date: date, Address: "addr-other", Amount: amount(5000), TxID: "tx1"},
	}
	actual := []domain.Transaction{actualTx("tx1", "addr1", 5000, date)}

	results := NewReconciliationService().Compare(imported, actual)

	// The exact key requires the address to agree, so the imported record
	// stays unmatched and both sides surface as mismatches.
	require.Len(t, results, 2)
	assert.Equal(t, domain.ComparisonMismatch, results[0].Status)
	assert.NotNil(t, results[0].Imported)
	assert.Nil(t, results[0].Actual)
	assert.Nil(t, results[1].Imported)
}

func TestComparePairedAmountMismatchCarriesBothSides(t *testing.T) {
	date := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
	imported := []domain.ImportedOperation{
		{Date: date, Address: "addr1", Amount: amount(600), TxID: "tx1"},
	}
	actual := []domain.Transaction{actualTx("tx1", "addr1", 5000, date)}

	results := NewReconciliationService().Compare(imported, actual)
	require.Len(t, results, 1)

	assert.Equal(t, domain.ComparisonMismatch, results[0].Status)
	assert.NotNil(t, results[0].Imported)
	assert.NotNil(t, results[0].Actual)
}

func TestComparePartitionsEveryRecordExactlyOnce(t *testing.T) {
	date := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	imported := []domain.ImportedOperation{
		{Date: date, Address: "addr1", Amount: amount(100), TxID: "tx1"},
		{Date: date.Add(time.Hour), Amount: amount(200)},
		{Date: date.Add(2 * time.Hour), Amount: amount(999)}, // matches nothing
	}
	actual := []domain.Transaction{
		actualTx("tx1", "addr1", 100, date),
		actualTx("tx2", "addr2", 200, date.Add(time.Hour)),
		actualTx("tx3", "addr3", 300, date), // matches nothing
	}

	results := NewReconciliationService().Compare(imported, actual)

	importedSeen := 0
	actualSeen := make(map[string]int)
	for _, res := range results {
		require.False(t, res.Imported == nil && res.Actual == nil)
		if res.Imported != nil {
			importedSeen++
		}
		if res.Actual != nil {
			actualSeen[res.Actual.TxID]++
		}
	}

	assert.Equal(t, len(imported), importedSeen)
	assert.Len(t, actualSeen, len(actual))
	for txid, count := range actualSeen {
		assert.Equal(t, 1, count, "actual %s appears in more than one pair", txid)
	}
}

func TestCompareOneToOneMatching(t *testing.T) {
	date := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	// Two identical imported records, one actual candidate: only one pairs.
	imported := []domain.ImportedOperation{
		{Date: date, Amount: amount(500)},
		{Date: date, Amount: amount(500)},
	}
	actual := []domain.Transaction{actualTx("tx1", "addr1", 500, date)}

	results := NewReconciliationService().Compare(imported, actual)
	require.Len(t, results, 2)

	assert.Equal(t, domain.ComparisonMatch, results[0].Status)
	assert.Equal(t, domain.ComparisonMismatch, results[1].Status)
	assert.Nil(t, results[1].Actual)
}
