package application

import "errors"

var (
	// ErrNoAddressTypes is thrown when none of the requested encodings is
	// defined for the scanned asset.
	ErrNoAddressTypes = errors.New("no supported address types to scan")
	// ErrEmptySearchSpace is thrown when a pattern search is given a space
	// with no candidates.
	ErrEmptySearchSpace = errors.New("search space is empty")
	// ErrProviderUnreachable is thrown when a chain scan gives up after too
	// many consecutive addresses could not be checked.
	ErrProviderUnreachable = errors.New("provider unreachable, scan aborted")
)
