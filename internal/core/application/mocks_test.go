package application

import (
	"context"
	"sync"
	"time"

	"github.com/dandanlen/xpub-scan/internal/core/domain"
	"github.com/dandanlen/xpub-scan/pkg/explorer"
)

// BIP32 test vector 1 master public key.
const testXpub = "xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybGhePY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EGMcet8"

type mockExplorer struct {
	mtx      sync.Mutex
	activity map[string]*explorer.AddressActivity
	failing  map[string]bool
	failAll  bool
	delays   map[string]time.Duration
	onProbe  func(address string)
	probed   map[string]int
}

func newMockExplorer() *mockExplorer {
	return &mockExplorer{
		activity: make(map[string]*explorer.AddressActivity),
		failing:  make(map[string]bool),
		delays:   make(map[string]time.Duration),
		probed:   make(map[string]int),
	}
}

func (m *mockExplorer) Name() string { return "mock" }
func (m *mockExplorer) URL() string  { return "http://mock.local" }
func (m *mockExplorer) Capped() bool { return false }

func (m *mockExplorer) setActive(address string, funded, spent int64, txs ...explorer.Tx) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if len(txs) == 0 {
		// An active address must report at least one transaction; synthesize
		// a funding tx so probes classify seeded addresses as active.
		txs = []explorer.Tx{{
			TxID:      "mock-" + address,
			Confirmed: true,
			Outputs:   []explorer.TxOutput{{Address: address, Value: funded}},
		}}
	}
	m.activity[address] = &explorer.AddressActivity{
		Address: address,
		Funded:  funded,
		Spent:   spent,
		TxCount: len(txs),
		Txs:     txs,
	}
}

func (m *mockExplorer) setFailing(address string) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.failing[address] = true
}

func (m *mockExplorer) probeCount(address string) int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.probed[address]
}

func (m *mockExplorer) totalProbes() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	total := 0
	for _, n := range m.probed {
		total += n
	}
	return total
}

func (m *mockExplorer) GetAddressActivity(
	ctx context.Context, address string,
) (*explorer.AddressActivity, error) {
	m.mtx.Lock()
	m.probed[address]++
	failing := m.failing[address] || m.failAll
	activity := m.activity[address]
	delay := m.delays[address]
	onProbe := m.onProbe
	m.mtx.Unlock()

	if onProbe != nil {
		onProbe(address)
	}
	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if failing {
		return nil, explorer.ErrProviderUnavailable
	}
	if activity != nil {
		copied := *activity
		return &copied, nil
	}
	return &explorer.AddressActivity{Address: address}, nil
}

type mockScanRepository struct {
	mtx     sync.Mutex
	records map[string]domain.ScanRecord
}

func newMockScanRepository() *mockScanRepository {
	return &mockScanRepository{records: make(map[string]domain.ScanRecord)}
}

func (m *mockScanRepository) GetScanRecord(
	_ context.Context, id string,
) (*domain.ScanRecord, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	record, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (m *mockScanRepository) PutScanRecord(
	_ context.Context, record *domain.ScanRecord,
) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.records[record.ID] = *record
	return nil
}

func (m *mockScanRepository) ListScanRecords(
	_ context.Context, fingerprint string,
) ([]domain.ScanRecord, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	records := make([]domain.ScanRecord, 0)
	for _, record := range m.records {
		if record.KeyFingerprint == fingerprint {
			records = append(records, record)
		}
	}
	return records, nil
}

func mustKey(raw string) *domain.ExtendedKey {
	key, err := domain.NewExtendedKey(raw)
	if err != nil {
		panic(err)
	}
	return key
}

// deriveAddress returns the address string at the given position, letting
// tests seed the mock explorer without hardcoding derived strings.
func deriveAddress(
	deriver *DerivationService,
	key *domain.ExtendedKey,
	account uint32,
	chain domain.Chain,
	index uint32,
	addrType domain.AddressType,
) string {
	derived, err := deriver.Derive(
		key, domain.DerivationPath{Account: account, Chain: chain, Index: index}, addrType,
	)
	if err != nil {
		panic(err)
	}
	return derived.Address
}
