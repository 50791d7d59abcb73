package domain

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const serializedKeyLen = 78

// keyVersion describes one recognized extended public key version prefix and
// the address encodings it pins by convention.
type keyVersion struct {
	prefix  string
	net     *chaincfg.Params
	version uint32
	types   []AddressType
}

var keyVersions = map[uint32]keyVersion{
	0x0488b21e: {"xpub", &chaincfg.MainNetParams, 0x0488b21e, []AddressType{AddressTypeLegacy, AddressTypeWrappedSegwit, AddressTypeNativeSegwit}},
	0x049d7cb2: {"ypub", &chaincfg.MainNetParams, 0x049d7cb2, []AddressType{AddressTypeWrappedSegwit}},
	0x04b24746: {"zpub", &chaincfg.MainNetParams, 0x04b24746, []AddressType{AddressTypeNativeSegwit}},
	0x043587cf: {"tpub", &chaincfg.TestNet3Params, 0x043587cf, []AddressType{AddressTypeLegacy, AddressTypeWrappedSegwit, AddressTypeNativeSegwit}},
	0x044a5262: {"upub", &chaincfg.TestNet3Params, 0x044a5262, []AddressType{AddressTypeWrappedSegwit}},
	0x045f1cf6: {"vpub", &chaincfg.TestNet3Params, 0x045f1cf6, []AddressType{AddressTypeNativeSegwit}},
}

// canonical serialization versions accepted by hdkeychain for each network.
var canonicalVersion = map[*chaincfg.Params]uint32{
	&chaincfg.MainNetParams:  0x0488b21e,
	&chaincfg.TestNet3Params: 0x043587cf,
}

// ExtendedKey is the hierarchical deterministic public key under analysis.
// It is created once at startup and never mutated afterwards.
type ExtendedKey struct {
	raw          string
	prefix       string
	key          *hdkeychain.ExtendedKey
	net          *chaincfg.Params
	defaultTypes []AddressType
	fingerprint  string
}

// NewExtendedKey parses and validates a serialized extended public key.
// SLIP-132 prefixes (ypub, zpub, ...) are recognized and normalized to the
// network's canonical version before derivation. It returns
// ErrInvalidExtendedKey on bad length, bad checksum or unknown version.
func NewExtendedKey(raw string) (*ExtendedKey, error) {
	decoded := base58.Decode(raw)
	if len(decoded) != serializedKeyLen+4 {
		return nil, fmt.Errorf("%w: bad length", ErrInvalidExtendedKey)
	}

	payload := decoded[:serializedKeyLen]
	checksum := decoded[serializedKeyLen:]
	expected := chainhash.DoubleHashB(payload)[:4]
	for i := range checksum {
		if checksum[i] != expected[i] {
			return nil, fmt.Errorf("%w: bad checksum", ErrInvalidExtendedKey)
		}
	}

	version := binary.BigEndian.Uint32(payload[:4])
	kv, ok := keyVersions[version]
	if !ok {
		return nil, fmt.Errorf("%w: unknown version %08x", ErrInvalidExtendedKey, version)
	}

	normalized := payload
	if canonical := canonicalVersion[kv.net]; version != canonical {
		normalized = make([]byte, serializedKeyLen)
		copy(normalized, payload)
		binary.BigEndian.PutUint32(normalized[:4], canonical)
	}

	serialized := make([]byte, 0, serializedKeyLen+4)
	serialized = append(serialized, normalized...)
	serialized = append(serialized, chainhash.DoubleHashB(normalized)[:4]...)

	key, err := hdkeychain.NewKeyFromString(base58.Encode(serialized))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExtendedKey, err)
	}
	if key.IsPrivate() {
		return nil, fmt.Errorf("%w: private keys are not accepted", ErrInvalidExtendedKey)
	}

	pubKey, err := key.ECPubKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExtendedKey, err)
	}
	fingerprint := hex.EncodeToString(btcutil.Hash160(pubKey.SerializeCompressed())[:4])

	return &ExtendedKey{
		raw:          raw,
		prefix:       kv.prefix,
		key:          key,
		net:          kv.net,
		defaultTypes: kv.types,
		fingerprint:  fingerprint,
	}, nil
}

// String returns the key exactly as it was supplied.
func (k *ExtendedKey) String() string { return k.raw }

// Prefix returns the SLIP-132 version prefix of the supplied key.
func (k *ExtendedKey) Prefix() string { return k.prefix }

// Network returns the chain parameters the key belongs to.
func (k *ExtendedKey) Network() *chaincfg.Params { return k.net }

// Fingerprint returns the hex encoded 4-byte identifier of the key, used to
// key cached scan records.
func (k *ExtendedKey) Fingerprint() string { return k.fingerprint }

// DefaultAddressTypes returns the encodings pinned by the key's version
// prefix.
func (k *ExtendedKey) DefaultAddressTypes() []AddressType {
	types := make([]AddressType, len(k.defaultTypes))
	copy(types, k.defaultTypes)
	return types
}

// PublicKeyAt derives the public key at the given path with non-hardened
// steps account/chain/index.
func (k *ExtendedKey) PublicKeyAt(path DerivationPath) (*btcec.PublicKey, error) {
	child := k.key
	for _, step := range []uint32{path.Account, uint32(path.Chain), path.Index} {
		var err error
		if child, err = child.Derive(step); err != nil {
			return nil, fmt.Errorf("deriving %s: %w", path, err)
		}
	}
	return child.ECPubKey()
}
