package domain

import "fmt"

// AddressType identifies one of the supported address encodings of a key.
type AddressType string

const (
	// AddressTypeLegacy is the base58 P2PKH encoding.
	AddressTypeLegacy AddressType = "legacy"
	// AddressTypeWrappedSegwit is the P2WPKH-in-P2SH encoding.
	AddressTypeWrappedSegwit AddressType = "p2sh-segwit"
	// AddressTypeNativeSegwit is the bech32 P2WPKH encoding.
	AddressTypeNativeSegwit AddressType = "native-segwit"
	// AddressTypeCashAddr is the cash-address rendition of the legacy
	// encoding, defined only for fork assets that use it.
	AddressTypeCashAddr AddressType = "cashaddr"
)

// ParseAddressType converts the string form used by CLI flags and cache
// records to an AddressType.
func ParseAddressType(s string) (AddressType, error) {
	switch AddressType(s) {
	case AddressTypeLegacy, AddressTypeWrappedSegwit, AddressTypeNativeSegwit, AddressTypeCashAddr:
		return AddressType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAddressType, s)
	}
}

// Chain selects one of the two conventional sub-trees of an account.
type Chain uint32

const (
	// ChainExternal is the receive chain.
	ChainExternal Chain = 0
	// ChainInternal is the change chain.
	ChainInternal Chain = 1
)

func (c Chain) String() string {
	if c == ChainInternal {
		return "internal"
	}
	return "external"
}

// DerivationPath is one position in the key's tree. All steps are
// non-hardened, relative to the account-level extended public key.
type DerivationPath struct {
	Account uint32
	Chain   Chain
	Index   uint32
}

func (p DerivationPath) String() string {
	return fmt.Sprintf("m/%d/%d/%d", p.Account, p.Chain, p.Index)
}
