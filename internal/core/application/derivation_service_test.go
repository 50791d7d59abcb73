package application

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dandanlen/xpub-scan/internal/core/domain"
)

func TestDeriveIsDeterministic(t *testing.T) {
	deriver := NewDerivationService(domain.CurrencyBTC)
	key := mustKey(testXpub)
	path := domain.DerivationPath{Account: 0, Chain: domain.ChainExternal, Index: 7}

	for _, addrType := range domain.CurrencyBTC.AddressTypes() {
		first, err := deriver.Derive(key, path, addrType)
		require.NoError(t, err)
		second, err := deriver.Derive(key, path, addrType)
		require.NoError(t, err)

		assert.Equal(t, first.Address, second.Address)
		assert.NotEmpty(t, first.Address)
		assert.Equal(t, path, first.Path)
		assert.Equal(t, key.Fingerprint(), first.KeyFingerprint)
	}
}

func TestDeriveEncodingPrefixes(t *testing.T) {
	deriver := NewDerivationService(domain.CurrencyBTC)
	key := mustKey(testXpub)
	path := domain.DerivationPath{Account: 0, Chain: domain.ChainExternal, Index: 0}

	legacy, err := deriver.Derive(key, path, domain.AddressTypeLegacy)
	require.NoError(t, err)
	wrapped, err := deriver.Derive(key, path, domain.AddressTypeWrappedSegwit)
	require.NoError(t, err)
	native, err := deriver.Derive(key, path, domain.AddressTypeNativeSegwit)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(legacy.Address, "1"))
	assert.True(t, strings.HasPrefix(wrapped.Address, "3"))
	assert.True(t, strings.HasPrefix(native.Address, "bc1q"))
	assert.Empty(t, legacy.CashAddress)
}

func TestDeriveDistinctPerPosition(t *testing.T) {
	deriver := NewDerivationService(domain.CurrencyBTC)
	key := mustKey(testXpub)

	seen := make(map[string]struct{})
	for index := uint32(0); index < 5; index++ {
		for _, chain := range []domain.Chain{domain.ChainExternal, domain.ChainInternal} {
			path := domain.DerivationPath{Account: 0, Chain: chain, Index: index}
			derived, err := deriver.Derive(key, path, domain.AddressTypeLegacy)
			require.NoError(t, err)

			_, dup := seen[derived.Address]
			assert.False(t, dup, "duplicate address at %s", path)
			seen[derived.Address] = struct{}{}
		}
	}
}

func TestDeriveCashAddressForForkAsset(t *testing.T) {
	deriver := NewDerivationService(domain.CurrencyBCH)
	key := mustKey(testXpub)
	path := domain.DerivationPath{Account: 0, Chain: domain.ChainExternal, Index: 0}

	derived, err := deriver.Derive(key, path, domain.AddressTypeLegacy)
	require.NoError(t, err)

	assert.NotEmpty(t, derived.CashAddress)
	assert.NotEqual(t, derived.Address, derived.CashAddress)
}

func TestDeriveUnsupportedEncoding(t *testing.T) {
	key := mustKey(testXpub)
	path := domain.DerivationPath{Account: 0, Chain: domain.ChainExternal, Index: 0}

	_, err := NewDerivationService(domain.CurrencyBTC).Derive(key, path, domain.AddressTypeCashAddr)
	assert.ErrorIs(t, err, domain.ErrUnsupportedAddressType)

	_, err = NewDerivationService(domain.CurrencyBCH).Derive(key, path, domain.AddressTypeNativeSegwit)
	assert.ErrorIs(t, err, domain.ErrUnsupportedAddressType)
}
