package server

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Amounts converts between the API's decimal amount strings and the integer
// base units the auction logic operates on.
type Amounts struct {
	// Decimals is how many decimal places one asset unit carries.
	Decimals int32
}

// Parse converts a decimal string into base units. It rejects negative
// amounts, amounts with too many decimal places, and amounts that overflow.
func (a Amounts) Parse(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q is negative", s)
	}
	shifted := d.Shift(a.Decimals)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount %q has more than %d decimal places", s, a.Decimals)
	}
	bi := shifted.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("amount %q is out of range", s)
	}
	return bi.Uint64(), nil
}

// Format renders base units as a decimal string.
func (a Amounts) Format(v uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), -a.Decimals).String()
}
