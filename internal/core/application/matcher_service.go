package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dandanlen/xpub-scan/internal/core/domain"
)

// Wildcard is the pattern character standing for one unknown character.
const Wildcard = '?'

// SearchSpace bounds the derivation space a pattern search walks.
type SearchSpace struct {
	MinAccount, MaxAccount uint32
	MinIndex, MaxIndex     uint32
	Types                  []domain.AddressType
}

func (s SearchSpace) validate() error {
	if s.MaxAccount < s.MinAccount || s.MaxIndex < s.MinIndex || len(s.Types) == 0 {
		return ErrEmptySearchSpace
	}
	return nil
}

// PatternMatch is one surviving candidate of a pattern search.
type PatternMatch struct {
	Path    domain.DerivationPath
	Type    domain.AddressType
	Address string
	// Perfect marks a match produced by a pattern without wildcards.
	Perfect bool
	// Confidence is inversely related to the number of wildcard positions.
	Confidence float64
}

// MatcherService searches the derivation space of a key for addresses
// matching a wildcard-tolerant pattern.
type MatcherService struct {
	deriver *DerivationService
}

func NewMatcherService(deriver *DerivationService) *MatcherService {
	return &MatcherService{deriver: deriver}
}

// Search compares every candidate address within the space against the
// pattern character by character, eliminating a candidate at the first
// mismatch on a non-wildcard position. All surviving candidates are
// returned, ranked by confidence: a pattern may legitimately match several
// derivation paths.
func (m *MatcherService) Search(
	ctx context.Context,
	key *domain.ExtendedKey,
	pattern string,
	space SearchSpace,
) ([]PatternMatch, error) {
	if pattern == "" || strings.Count(pattern, string(Wildcard)) == len(pattern) {
		return nil, domain.ErrInvalidPattern
	}
	if err := space.validate(); err != nil {
		return nil, err
	}

	wildcards := strings.Count(pattern, string(Wildcard))
	confidence := 1 - float64(wildcards)/float64(len(pattern))

	matches := make([]PatternMatch, 0)
	for account := space.MinAccount; account <= space.MaxAccount; account++ {
		for _, chain := range []domain.Chain{domain.ChainExternal, domain.ChainInternal} {
			for index := space.MinIndex; index <= space.MaxIndex; index++ {
				if err := ctx.Err(); err != nil {
					return matches, err
				}
				path := domain.DerivationPath{Account: account, Chain: chain, Index: index}
				for _, addrType := range space.Types {
					derived, err := m.deriver.Derive(key, path, addrType)
					if err != nil {
						if errors.Is(err, domain.ErrUnsupportedAddressType) {
							continue
						}
						return matches, fmt.Errorf("deriving %s: %w", path, err)
					}
					for _, candidate := range renditions(derived) {
						if !matchPattern(pattern, candidate) {
							continue
						}
						matches = append(matches, PatternMatch{
							Path:       path,
							Type:       addrType,
							Address:    candidate,
							Perfect:    wildcards == 0,
							Confidence: confidence,
						})
					}
				}
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		if matches[i].Path.Account != matches[j].Path.Account {
			return matches[i].Path.Account < matches[j].Path.Account
		}
		if matches[i].Path.Chain != matches[j].Path.Chain {
			return matches[i].Path.Chain < matches[j].Path.Chain
		}
		return matches[i].Path.Index < matches[j].Path.Index
	})

	return matches, nil
}

func renditions(derived *domain.DerivedAddress) []string {
	if derived.CashAddress != "" {
		return []string{derived.Address, derived.CashAddress}
	}
	return []string{derived.Address}
}

// matchPattern reports whether the candidate survives the pattern: equal
// length, and every non-wildcard position identical. The first eliminating
// mismatch short-circuits.
func matchPattern(pattern, candidate string) bool {
	if len(pattern) != len(candidate) {
		return false
	}
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == Wildcard {
			continue
		}
		if pattern[i] != candidate[i] {
			return false
		}
	}
	return true
}
