package domain

import (
	"fmt"
	"strings"
)

// Currency identifies the asset whose address encodings a scan uses.
type Currency string

const (
	CurrencyBTC Currency = "btc"
	CurrencyBCH Currency = "bch"
)

// ParseCurrency converts the string form used by CLI flags to a Currency.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(strings.ToLower(s)) {
	case CurrencyBTC:
		return CurrencyBTC, nil
	case CurrencyBCH:
		return CurrencyBCH, nil
	default:
		return "", fmt.Errorf("unknown currency %q", s)
	}
}

// AddressTypes returns the encodings the asset defines.
func (c Currency) AddressTypes() []AddressType {
	if c == CurrencyBCH {
		return []AddressType{AddressTypeLegacy, AddressTypeCashAddr}
	}
	return []AddressType{AddressTypeLegacy, AddressTypeWrappedSegwit, AddressTypeNativeSegwit}
}

// Supports reports whether the asset defines the given encoding.
func (c Currency) Supports(t AddressType) bool {
	for _, supported := range c.AddressTypes() {
		if supported == t {
			return true
		}
	}
	return false
}

// HasCashAddress reports whether the asset carries the alternate cash
// rendition alongside the legacy encoding.
func (c Currency) HasCashAddress() bool { return c == CurrencyBCH }

// Unit returns the name of the asset's base unit.
func (c Currency) Unit() string { return "satoshi" }

func (c Currency) String() string { return strings.ToUpper(string(c)) }
