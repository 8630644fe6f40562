package brickfolio

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BasisPoints is a rate expressed in hundredths of a percent.
// 10000 bps is 100%.
type BasisPoints int64

// MaxFeeBps caps every platform fee and royalty rate at 10%.
const MaxFeeBps BasisPoints = 1000

// Apply returns v scaled by the rate. Division by 10000 is exact in
// decimal arithmetic, so Split-style conservation never loses a remainder.
func (b BasisPoints) Apply(v decimal.Decimal) decimal.Decimal {
	return v.Mul(decimal.New(int64(b), -4))
}

func (b BasisPoints) String() string {
	return fmt.Sprintf("%.2f%%", float64(b)/100)
}

// validFee reports whether the rate is usable as a fee or royalty rate.
func (b BasisPoints) validFee() bool { return b >= 0 && b <= MaxFeeBps }
