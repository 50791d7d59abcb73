package application

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	bchchaincfg "github.com/gcash/bchd/chaincfg"
	"github.com/gcash/bchutil"

	"github.com/dandanlen/xpub-scan/internal/core/domain"
)

// DerivationService turns positions of a key's tree into address strings.
// Derivation is pure: identical inputs always produce the identical address.
type DerivationService struct {
	currency domain.Currency
}

func NewDerivationService(currency domain.Currency) *DerivationService {
	return &DerivationService{currency: currency}
}

// Currency returns the asset the service derives addresses for.
func (s *DerivationService) Currency() domain.Currency { return s.currency }

// Supports reports whether the service can derive the given encoding.
func (s *DerivationService) Supports(t domain.AddressType) bool {
	return s.currency.Supports(t)
}

// Derive returns the address of the key at the given path and encoding.
// Requesting an encoding the asset does not define yields
// domain.ErrUnsupportedAddressType; callers skip that encoding and continue
// with the others.
func (s *DerivationService) Derive(
	key *domain.ExtendedKey, path domain.DerivationPath, addrType domain.AddressType,
) (*domain.DerivedAddress, error) {
	if !s.currency.Supports(addrType) {
		return nil, fmt.Errorf(
			"%w: %s on %s", domain.ErrUnsupportedAddressType, addrType, s.currency,
		)
	}

	pubKey, err := key.PublicKeyAt(path)
	if err != nil {
		return nil, err
	}
	pkHash := btcutil.Hash160(pubKey.SerializeCompressed())

	address, err := encodeAddress(pkHash, addrType, key.Network())
	if err != nil {
		return nil, err
	}

	derived := &domain.DerivedAddress{
		KeyFingerprint: key.Fingerprint(),
		Path:           path,
		Type:           addrType,
		Address:        address,
	}

	// Fork assets carry the cash rendition of every legacy address.
	if addrType == domain.AddressTypeLegacy && s.currency.HasCashAddress() {
		cash, err := encodeAddress(pkHash, domain.AddressTypeCashAddr, key.Network())
		if err != nil {
			return nil, err
		}
		derived.CashAddress = cash
	}

	return derived, nil
}

func encodeAddress(
	pkHash []byte, addrType domain.AddressType, net *chaincfg.Params,
) (string, error) {
	switch addrType {
	case domain.AddressTypeLegacy:
		addr, err := btcutil.NewAddressPubKeyHash(pkHash, net)
		if err != nil {
			return "", err
		}
		return addr.EncodeAddress(), nil

	case domain.AddressTypeWrappedSegwit:
		witnessProg, err := txscript.NewScriptBuilder().
			AddOp(txscript.OP_0).AddData(pkHash).Script()
		if err != nil {
			return "", err
		}
		addr, err := btcutil.NewAddressScriptHash(witnessProg, net)
		if err != nil {
			return "", err
		}
		return addr.EncodeAddress(), nil

	case domain.AddressTypeNativeSegwit:
		addr, err := btcutil.NewAddressWitnessPubKeyHash(pkHash, net)
		if err != nil {
			return "", err
		}
		return addr.EncodeAddress(), nil

	case domain.AddressTypeCashAddr:
		addr, err := bchutil.NewAddressPubKeyHash(pkHash, bchParams(net))
		if err != nil {
			return "", err
		}
		return addr.EncodeAddress(), nil

	default:
		return "", domain.ErrUnsupportedAddressType
	}
}

func bchParams(net *chaincfg.Params) *bchchaincfg.Params {
	if net == &chaincfg.TestNet3Params {
		return &bchchaincfg.TestNet3Params
	}
	return &bchchaincfg.MainNetParams
}
