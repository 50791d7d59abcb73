package domain

import "errors"

var (
	// ErrInvalidExtendedKey is thrown when the given key has a bad checksum,
	// a bad length or an unrecognized version prefix.
	ErrInvalidExtendedKey = errors.New("extended key is not valid")
	// ErrUnsupportedAddressType is thrown when an address encoding is
	// requested that the key's asset does not define.
	ErrUnsupportedAddressType = errors.New("address type not supported for this key")
	// ErrInvalidDerivationPath ...
	ErrInvalidDerivationPath = errors.New("derivation path is not valid")
	// ErrInvalidPattern is thrown when a search pattern is empty or contains
	// characters outside the address alphabets.
	ErrInvalidPattern = errors.New("address pattern is not valid")
)
