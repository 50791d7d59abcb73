package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dandanlen/xpub-scan/internal/core/domain"
	"github.com/dandanlen/xpub-scan/pkg/explorer"
)

// ScannerService drives derivation and explorer queries across increasing
// indices of a chain until the gap-limit stopping rule fires.
//
// Queries are issued with bounded concurrency and may complete out of order;
// results are reassembled into strict index order before the stopping rule is
// evaluated. The dispatcher never issues an index the ordered decision
// sequence cannot still require, so a scan probes exactly the indices the
// stopping rule defines.
// maxUnknownRun is the number of consecutive unknown results after which a
// chain scan aborts with ErrProviderUnreachable instead of extending the
// horizon further.
const maxUnknownRun = 10

type ScannerService struct {
	deriver     *DerivationService
	explorerSvc explorer.Service
	repo        domain.ScanRepository
	gapLimit    int
	concurrency int
	sessionID   string
}

// NewScannerService returns a scanner. repo may be nil to scan without the
// cache.
func NewScannerService(
	deriver *DerivationService,
	explorerSvc explorer.Service,
	repo domain.ScanRepository,
	gapLimit, concurrency int,
) *ScannerService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ScannerService{
		deriver:     deriver,
		explorerSvc: explorerSvc,
		repo:        repo,
		gapLimit:    gapLimit,
		concurrency: concurrency,
		sessionID:   uuid.New().String(),
	}
}

// SessionID identifies this scanner's run in cached records.
func (s *ScannerService) SessionID() string { return s.sessionID }

type scanResult struct {
	index uint32
	entry domain.ScanEntry
}

// ScanChain probes indices 0, 1, 2, ... of one chain in order and stops once
// gapLimit consecutive inactive results have been observed. Index 0 is
// always probed. Unknown results never count toward the gap, so a transient
// provider failure cannot be mistaken for an unused address. After
// maxUnknownRun consecutive unknown results the scan returns the entries
// assembled so far along with ErrProviderUnreachable.
//
// On cancellation the entries assembled so far are returned along with the
// context error; the prefix is internally consistent and a re-run resumes
// from the cache without duplicating state.
func (s *ScannerService) ScanChain(
	ctx context.Context,
	key *domain.ExtendedKey,
	account uint32,
	chain domain.Chain,
	addrType domain.AddressType,
) ([]domain.ScanEntry, error) {
	if !s.deriver.Supports(addrType) {
		return nil, domain.ErrUnsupportedAddressType
	}

	frontier := s.activeFrontier(ctx, key, account, chain, addrType)

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan uint32)
	results := make(chan scanResult, s.concurrency)

	var wg sync.WaitGroup
	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case index, ok := <-jobs:
					if !ok {
						return
					}
					res := s.probe(workerCtx, key, account, chain, addrType, index, frontier)
					select {
					case results <- res:
					case <-workerCtx.Done():
						return
					}
				}
			}
		}()
	}

	entries := make([]domain.ScanEntry, 0, s.gapLimit+1)
	pending := make(map[uint32]scanResult)
	var next, issued uint32
	var scanErr error
	inflight := 0
	gapRun := 0
	unknownRun := 0

	// horizon is the highest index the stopping rule can still require:
	// after processing index p with a run of r consecutive inactive results
	// the scan terminates at p+(gapLimit-r) at the latest. Index 0 is
	// probed whatever the gap limit.
	horizon := int64(s.gapLimit) - 1
	if horizon < 0 {
		horizon = 0
	}

	for {
		var jobCh chan uint32
		if int64(issued) <= horizon {
			jobCh = jobs
		}
		if jobCh == nil && inflight == 0 {
			break
		}

		select {
		case <-ctx.Done():
			return entries, ctx.Err()

		case jobCh <- issued:
			issued++
			inflight++

		case res := <-results:
			inflight--
			pending[res.index] = res
			for {
				r, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				entries = append(entries, r.entry)

				switch r.entry.Status {
				case domain.StatusActive:
					gapRun = 0
					unknownRun = 0
					horizon = int64(next) + int64(s.gapLimit)
				case domain.StatusUnknown:
					// Keeps the run and extends the horizon by one, but a
					// sustained run of unknowns means the provider is down
					// and the scan must give up instead of growing forever.
					unknownRun++
					if unknownRun >= maxUnknownRun {
						horizon = -1
						scanErr = ErrProviderUnreachable
					} else {
						horizon = int64(next) + int64(s.gapLimit-gapRun)
					}
				default:
					gapRun++
					unknownRun = 0
					if gapRun >= s.gapLimit {
						horizon = -1
					} else {
						horizon = int64(next) + int64(s.gapLimit-gapRun)
					}
				}
				next++
			}
		}
	}

	close(jobs)
	wg.Wait()

	return entries, scanErr
}

// ScanSpecific performs a single lookup of (account, index) on the receive
// chain with no stopping logic, one entry per requested encoding.
func (s *ScannerService) ScanSpecific(
	ctx context.Context,
	key *domain.ExtendedKey,
	account, index uint32,
	types []domain.AddressType,
) ([]domain.ScanEntry, error) {
	path := domain.DerivationPath{Account: account, Chain: domain.ChainExternal, Index: index}

	entries := make([]domain.ScanEntry, 0, len(types))
	for _, addrType := range types {
		if !s.deriver.Supports(addrType) {
			log.Debugf("skipping unsupported address type %s", addrType)
			continue
		}
		frontier := s.activeFrontier(ctx, key, account, domain.ChainExternal, addrType)
		res := s.probe(ctx, key, account, domain.ChainExternal, addrType, path.Index, frontier)
		entries = append(entries, res.entry)
		if err := ctx.Err(); err != nil {
			return entries, err
		}
	}
	if len(entries) == 0 {
		return nil, ErrNoAddressTypes
	}
	return entries, nil
}

// ScanAccount runs the receive and change chains of every requested encoding
// as independent concurrent chain scans and returns all probed entries
// ordered by encoding, chain, index.
func (s *ScannerService) ScanAccount(
	ctx context.Context,
	key *domain.ExtendedKey,
	account uint32,
	types []domain.AddressType,
) ([]domain.ScanEntry, error) {
	type chainKey struct {
		addrType domain.AddressType
		chain    domain.Chain
	}

	supported := make([]domain.AddressType, 0, len(types))
	for _, addrType := range types {
		if s.deriver.Supports(addrType) {
			supported = append(supported, addrType)
		} else {
			log.Debugf("skipping unsupported address type %s", addrType)
		}
	}
	if len(supported) == 0 {
		return nil, ErrNoAddressTypes
	}

	var mtx sync.Mutex
	byChain := make(map[chainKey][]domain.ScanEntry)

	g, gctx := errgroup.WithContext(ctx)
	for _, addrType := range supported {
		for _, chain := range []domain.Chain{domain.ChainExternal, domain.ChainInternal} {
			addrType, chain := addrType, chain
			g.Go(func() error {
				entries, err := s.ScanChain(gctx, key, account, chain, addrType)
				mtx.Lock()
				byChain[chainKey{addrType, chain}] = entries
				mtx.Unlock()
				return err
			})
		}
	}
	err := g.Wait()

	all := make([]domain.ScanEntry, 0)
	for _, addrType := range supported {
		for _, chain := range []domain.Chain{domain.ChainExternal, domain.ChainInternal} {
			all = append(all, byChain[chainKey{addrType, chain}]...)
		}
	}
	return all, err
}

// probe derives and queries a single position. Provider failures surface as
// StatusUnknown, never as inactive.
func (s *ScannerService) probe(
	ctx context.Context,
	key *domain.ExtendedKey,
	account uint32,
	chain domain.Chain,
	addrType domain.AddressType,
	index uint32,
	frontier int64,
) scanResult {
	path := domain.DerivationPath{Account: account, Chain: chain, Index: index}

	derived, err := s.deriver.Derive(key, path, addrType)
	if err != nil {
		log.WithError(err).Warnf("could not derive %s", path)
		return scanResult{index: index, entry: domain.ScanEntry{
			Address: domain.DerivedAddress{KeyFingerprint: key.Fingerprint(), Path: path, Type: addrType},
			Status:  domain.StatusUnknown,
		}}
	}

	if entry, ok := s.fromCache(ctx, key, path, addrType, derived, frontier); ok {
		return scanResult{index: index, entry: entry}
	}

	activity, err := s.explorerSvc.GetAddressActivity(ctx, derived.Address)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.WithError(err).Warnf("address %s marked unknown", derived.Address)
		}
		return scanResult{index: index, entry: domain.ScanEntry{
			Address: *derived,
			Status:  domain.StatusUnknown,
		}}
	}

	entry := domain.ScanEntry{
		Address: *derived,
		Status:  domain.StatusInactive,
		Stats: &domain.AddressStats{
			Funded:  activity.Funded,
			Spent:   activity.Spent,
			TxCount: activity.TxCount,
		},
		Truncated: activity.Truncated,
	}
	if activity.TxCount > 0 {
		entry.Status = domain.StatusActive
		entry.Raw = rawTxs(activity.Txs)
	}

	s.toCache(ctx, key, path, addrType, entry)

	return scanResult{index: index, entry: entry}
}

// fromCache serves inactive results settled by a previous session, so an
// interrupted run resumes without re-querying the provider for them. Active
// addresses are always re-fetched to pick up fresh balances, and only
// positions at or below the chain's known active frontier are trusted: an
// inactive position beyond the last active index may have gained activity
// since the record was written.
func (s *ScannerService) fromCache(
	ctx context.Context,
	key *domain.ExtendedKey,
	path domain.DerivationPath,
	addrType domain.AddressType,
	derived *domain.DerivedAddress,
	frontier int64,
) (domain.ScanEntry, bool) {
	if s.repo == nil || int64(path.Index) > frontier {
		return domain.ScanEntry{}, false
	}

	id := domain.ScanRecordID(key.Fingerprint(), path, addrType)
	record, err := s.repo.GetScanRecord(ctx, id)
	if err != nil {
		log.WithError(err).Warnf("scan cache lookup failed for %s", id)
		return domain.ScanEntry{}, false
	}
	if record == nil || record.Active || record.SessionID == s.sessionID {
		return domain.ScanEntry{}, false
	}

	return domain.ScanEntry{
		Address: *derived,
		Status:  domain.StatusInactive,
		Stats:   &domain.AddressStats{},
		Cached:  true,
	}, true
}

// activeFrontier returns the highest index previously cached as active for
// (key, account, chain, encoding), or -1 when nothing is known. Cache reads
// degrade to a plain re-probe on any repository failure.
func (s *ScannerService) activeFrontier(
	ctx context.Context,
	key *domain.ExtendedKey,
	account uint32,
	chain domain.Chain,
	addrType domain.AddressType,
) int64 {
	if s.repo == nil {
		return -1
	}

	records, err := s.repo.ListScanRecords(ctx, key.Fingerprint())
	if err != nil {
		log.WithError(err).Warn("scan cache listing failed")
		return -1
	}

	frontier := int64(-1)
	for i := range records {
		r := &records[i]
		if !r.Active || r.Account != account ||
			r.Chain != uint32(chain) || r.AddressType != string(addrType) {
			continue
		}
		if int64(r.Index) > frontier {
			frontier = int64(r.Index)
		}
	}
	return frontier
}

func (s *ScannerService) toCache(
	ctx context.Context,
	key *domain.ExtendedKey,
	path domain.DerivationPath,
	addrType domain.AddressType,
	entry domain.ScanEntry,
) {
	if s.repo == nil {
		return
	}

	record := &domain.ScanRecord{
		ID:             domain.ScanRecordID(key.Fingerprint(), path, addrType),
		KeyFingerprint: key.Fingerprint(),
		Account:        path.Account,
		Chain:          uint32(path.Chain),
		Index:          path.Index,
		AddressType:    string(addrType),
		Address:        entry.Address.Address,
		Funded:         entry.Stats.Funded,
		Spent:          entry.Stats.Spent,
		TxCount:        entry.Stats.TxCount,
		Active:         entry.Status == domain.StatusActive,
		SessionID:      s.sessionID,
		UpdatedAt:      time.Now().UTC(),
	}
	if err := s.repo.PutScanRecord(ctx, record); err != nil {
		log.WithError(err).Warnf("scan cache write failed for %s", record.ID)
	}
}

func rawTxs(txs []explorer.Tx) []domain.RawTx {
	raw := make([]domain.RawTx, 0, len(txs))
	for _, t := range txs {
		inputs := make([]domain.Movement, 0, len(t.Inputs))
		for _, in := range t.Inputs {
			inputs = append(inputs, domain.Movement{Address: in.Address, Value: in.Value})
		}
		outputs := make([]domain.Movement, 0, len(t.Outputs))
		for _, out := range t.Outputs {
			outputs = append(outputs, domain.Movement{Address: out.Address, Value: out.Value})
		}
		raw = append(raw, domain.RawTx{
			TxID:        t.TxID,
			BlockHeight: t.BlockHeight,
			Date:        t.BlockTime,
			Inputs:      inputs,
			Outputs:     outputs,
		})
	}
	sort.SliceStable(raw, func(i, j int) bool { return raw[i].Date.Before(raw[j].Date) })
	return raw
}
