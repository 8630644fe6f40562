package brickfolio

import "github.com/shopspring/decimal"

// newDecimal is a convenient factory for decimal.Decimal
func newDecimal[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float32:
		return decimal.NewFromFloat32(v)
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case uint:
		return decimal.NewFromUint64(uint64(v))
	case uint32:
		return decimal.NewFromUint64(uint64(v))
	case uint64:
		return decimal.NewFromUint64(v)
	default:
		panic("unsupported type")
	}
}

// Shares is a count of fractional ownership units in one property.
// Shares are fungible within a property only.
type Shares struct {
	value decimal.Decimal
}

func S[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Shares {
	return Shares{value: newDecimal(value)}
}

func (s Shares) Equal(t Shares) bool              { return s.value.Equal(t.value) }
func (s Shares) LessThan(t Shares) bool           { return s.value.LessThan(t.value) }
func (s Shares) GreaterThan(t Shares) bool        { return s.value.GreaterThan(t.value) }
func (s Shares) GreaterThanOrEqual(t Shares) bool { return s.value.GreaterThanOrEqual(t.value) }
func (s Shares) Add(t Shares) Shares              { return Shares{value: s.value.Add(t.value)} }
func (s Shares) Sub(t Shares) Shares              { return Shares{value: s.value.Sub(t.value)} }
func (s Shares) IsNegative() bool                 { return s.value.IsNegative() }
func (s Shares) IsPositive() bool                 { return s.value.IsPositive() }
func (s Shares) IsZero() bool                     { return s.value.IsZero() }
func (s Shares) String() string                   { return s.value.String() }

// Decimal returns the exact decimal share count.
func (s Shares) Decimal() decimal.Decimal { return s.value }

// ApplyRate returns the share count scaled by a basis-point rate.
func (s Shares) ApplyRate(rate BasisPoints) Shares {
	return Shares{value: rate.Apply(s.value)}
}

// MarshalJSON implements the json.Marshaler interface for Shares.
func (s Shares) MarshalJSON() ([]byte, error) {
	return s.value.MarshalJSON()
}

func (s *Shares) UnmarshalJSON(decimalBytes []byte) error {
	return s.value.UnmarshalJSON(decimalBytes)
}
