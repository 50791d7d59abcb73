package importer

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// baseUnitExponent converts display amounts to base units (1 coin = 1e8).
const baseUnitExponent = 8

// parseAmount converts a decimal display amount ("0.00015", "-1.2") into an
// integer base-unit value. Floats never touch the conversion. An amount with
// more precision than the base unit is rejected rather than rounded.
func parseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	shifted := d.Shift(baseUnitExponent)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount %q exceeds base unit precision", s)
	}
	return shifted.IntPart(), nil
}
