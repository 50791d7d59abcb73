package application

import (
	"sort"
	"time"

	"github.com/dandanlen/xpub-scan/internal/core/domain"
)

// defaultDateTolerance is the window of the approximate (date, amount)
// fallback key, wide enough to absorb the timezone and settlement skew of
// bank-style exports.
const defaultDateTolerance = 24 * time.Hour

// ReconciliationService matches an externally supplied operation list
// against the actual transaction set, one-to-one: once a pair is formed
// neither record participates in another pair.
type ReconciliationService struct {
	dateTolerance time.Duration
}

func NewReconciliationService() *ReconciliationService {
	return &ReconciliationService{dateTolerance: defaultDateTolerance}
}

// Compare produces one ComparisonResult per record of imported ∪ actual.
// The primary match key is (txid, address) when the imported record supplies
// both; records lacking one fall back to (date within tolerance, absolute
// amount). Ambiguities are resolved by earliest actual date, then smallest
// txid, and flagged instead of being chosen silently.
func (s *ReconciliationService) Compare(
	imported []domain.ImportedOperation, actual []domain.Transaction,
) []domain.ComparisonResult {
	used := make([]bool, len(actual))
	paired := make([]int, len(imported))
	ambiguous := make([]bool, len(imported))
	for i := range paired {
		paired[i] = -1
	}

	// Exact key pass.
	byExactKey := make(map[string][]int)
	for i := range actual {
		byExactKey[actual[i].TxID+"|"+actual[i].Address] = append(
			byExactKey[actual[i].TxID+"|"+actual[i].Address], i,
		)
		if actual[i].CashAddress != "" {
			byExactKey[actual[i].TxID+"|"+actual[i].CashAddress] = append(
				byExactKey[actual[i].TxID+"|"+actual[i].CashAddress], i,
			)
		}
	}
	for i := range imported {
		op := &imported[i]
		if !op.HasExactKey() {
			continue
		}
		candidates := available(byExactKey[op.TxID+"|"+op.Address], used)
		if len(candidates) == 0 {
			continue
		}
		best := pickCandidate(candidates, actual)
		paired[i] = best
		ambiguous[i] = len(candidates) > 1
		used[best] = true
	}

	// Approximate key pass for the records an exact key could not settle.
	for i := range imported {
		op := &imported[i]
		if paired[i] >= 0 || op.HasExactKey() || op.Amount == nil {
			continue
		}
		candidates := make([]int, 0)
		for j := range actual {
			if used[j] {
				continue
			}
			if abs(actual[j].Amount) != abs(*op.Amount) {
				continue
			}
			if dateDistance(op.Date, actual[j].Date) > s.dateTolerance {
				continue
			}
			candidates = append(candidates, j)
		}
		if len(candidates) == 0 {
			continue
		}
		best := pickCandidate(candidates, actual)
		paired[i] = best
		ambiguous[i] = len(candidates) > 1
		used[best] = true
	}

	// Verdicts: every imported and every actual record lands in exactly one
	// result.
	results := make([]domain.ComparisonResult, 0, len(imported)+len(actual))
	for i := range imported {
		op := imported[i]
		if paired[i] < 0 {
			results = append(results, domain.ComparisonResult{
				Status:   domain.ComparisonMismatch,
				Imported: &op,
			})
			continue
		}
		tx := actual[paired[i]]
		results = append(results, domain.ComparisonResult{
			Status:    s.verdict(op, tx),
			Imported:  &op,
			Actual:    &tx,
			Ambiguous: ambiguous[i],
		})
	}
	for j := range actual {
		if used[j] {
			continue
		}
		tx := actual[j]
		results = append(results, domain.ComparisonResult{
			Status: domain.ComparisonMismatch,
			Actual: &tx,
		})
	}

	return results
}

func (s *ReconciliationService) verdict(
	op domain.ImportedOperation, tx domain.Transaction,
) domain.ComparisonStatus {
	if op.TxID != "" && op.TxID != tx.TxID {
		return domain.ComparisonMismatch
	}
	if op.Address != "" && op.Address != tx.Address && op.Address != tx.CashAddress {
		return domain.ComparisonMismatch
	}
	if op.Amount != nil && abs(*op.Amount) != abs(tx.Amount) {
		return domain.ComparisonMismatch
	}
	if dateDistance(op.Date, tx.Date) > s.dateTolerance {
		return domain.ComparisonMismatch
	}
	return domain.ComparisonMatch
}

// pickCandidate resolves among equally good candidates deterministically:
// earliest date first, smallest txid on equal dates.
func pickCandidate(candidates []int, actual []domain.Transaction) int {
	sorted := make([]int, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(a, b int) bool {
		ta, tb := actual[sorted[a]], actual[sorted[b]]
		if !ta.Date.Equal(tb.Date) {
			return ta.Date.Before(tb.Date)
		}
		return ta.TxID < tb.TxID
	})
	return sorted[0]
}

func available(indexes []int, used []bool) []int {
	free := make([]int, 0, len(indexes))
	for _, i := range indexes {
		if !used[i] {
			free = append(free, i)
		}
	}
	return free
}

func dateDistance(a, b time.Time) time.Duration {
	if a.After(b) {
		return a.Sub(b)
	}
	return b.Sub(a)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
