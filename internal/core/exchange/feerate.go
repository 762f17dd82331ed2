package exchange

import (
	"fmt"
	"math/big"
)

// Scale is the denominator of a fixed-point fee rate.
type Scale uint64

const (
	// PerThousand expresses rates in thousandths of a unit.
	PerThousand Scale = 1_000
	// PerMillion expresses rates in millionths of a unit.
	PerMillion Scale = 1_000_000
)

// FeeRate is a fixed-point ratio used for exchange fees and price scaling.
// Arithmetic results may exceed one unit (e.g. one plus the fee) but a rate
// constructed with NewFeeRate is always in [0, 1].
type FeeRate struct {
	parts uint64
	scale Scale
}

// DefaultFeeRate is the exchange-wide default of 0.3%.
func DefaultFeeRate() FeeRate {
	return FeeRate{parts: 3_000, scale: PerMillion}
}

// NewFeeRate builds a rate of parts/scale. Rates above one unit are rejected.
func NewFeeRate(parts uint64, scale Scale) (FeeRate, error) {
	if scale == 0 {
		return FeeRate{}, fmt.Errorf("fee rate scale cannot be zero: %w", ErrDivideByZero)
	}
	if parts > uint64(scale) {
		return FeeRate{}, fmt.Errorf("fee rate %d/%d exceeds one unit: %w", parts, scale, ErrOverflow)
	}
	return FeeRate{parts: parts, scale: scale}, nil
}

func feeRateFromParts(parts uint64, scale Scale) FeeRate {
	return FeeRate{parts: parts, scale: scale}
}

// FeeRateOne is the multiplicative identity at the given scale.
func FeeRateOne(scale Scale) FeeRate {
	return FeeRate{parts: uint64(scale), scale: scale}
}

// Parts returns the fixed-point numerator.
func (f FeeRate) Parts() uint64 { return f.parts }

// Scale returns the fixed-point denominator.
func (f FeeRate) Scale() Scale { return f.scale }

// IsZero reports whether the rate is zero.
func (f FeeRate) IsZero() bool { return f.parts == 0 }

// Convert re-expresses the rate at another scale. The conversion must be
// lossless: upscaling fails on numerator overflow, downscaling fails when the
// value is not exactly representable at the coarser scale.
func (f FeeRate) Convert(to Scale) (FeeRate, error) {
	if to == f.scale {
		return f, nil
	}
	if to > f.scale {
		factor := uint64(to) / uint64(f.scale)
		if f.parts > 0 && f.parts*factor/f.parts != factor {
			return FeeRate{}, fmt.Errorf("converting %d/%d to scale %d: %w", f.parts, f.scale, to, ErrConversionOverflow)
		}
		return FeeRate{parts: f.parts * factor, scale: to}, nil
	}
	factor := uint64(f.scale) / uint64(to)
	if f.parts%factor != 0 {
		return FeeRate{}, fmt.Errorf("converting %d/%d to scale %d loses precision: %w", f.parts, f.scale, to, ErrConversionOverflow)
	}
	return FeeRate{parts: f.parts / factor, scale: to}, nil
}

// CheckedAdd sums two rates of the same scale.
func (f FeeRate) CheckedAdd(o FeeRate) (FeeRate, error) {
	if f.scale != o.scale {
		return FeeRate{}, fmt.Errorf("adding rates of scale %d and %d: %w", f.scale, o.scale, ErrConversionOverflow)
	}
	sum := f.parts + o.parts
	if sum < f.parts {
		return FeeRate{}, fmt.Errorf("fee rate addition: %w", ErrOverflow)
	}
	return FeeRate{parts: sum, scale: f.scale}, nil
}

// CheckedMul multiplies two rates of the same scale, flooring the result.
// The intermediate product is computed at double width.
func (f FeeRate) CheckedMul(o FeeRate) (FeeRate, error) {
	if f.scale != o.scale {
		return FeeRate{}, fmt.Errorf("multiplying rates of scale %d and %d: %w", f.scale, o.scale, ErrConversionOverflow)
	}
	out := new(big.Int).Mul(new(big.Int).SetUint64(f.parts), new(big.Int).SetUint64(o.parts))
	out.Quo(out, new(big.Int).SetUint64(uint64(f.scale)))
	if !out.IsUint64() {
		return FeeRate{}, fmt.Errorf("fee rate multiplication: %w", ErrOverflow)
	}
	return FeeRate{parts: out.Uint64(), scale: f.scale}, nil
}

// CheckedDiv divides f by o at the same scale, flooring the result.
func (f FeeRate) CheckedDiv(o FeeRate) (FeeRate, error) {
	if f.scale != o.scale {
		return FeeRate{}, fmt.Errorf("dividing rates of scale %d and %d: %w", f.scale, o.scale, ErrConversionOverflow)
	}
	if o.parts == 0 {
		return FeeRate{}, fmt.Errorf("fee rate division: %w", ErrDivideByZero)
	}
	out := new(big.Int).Mul(new(big.Int).SetUint64(f.parts), new(big.Int).SetUint64(uint64(f.scale)))
	out.Quo(out, new(big.Int).SetUint64(o.parts))
	if !out.IsUint64() {
		return FeeRate{}, fmt.Errorf("fee rate division: %w", ErrOverflow)
	}
	return FeeRate{parts: out.Uint64(), scale: f.scale}, nil
}

func (f FeeRate) String() string {
	return fmt.Sprintf("%d/%d", f.parts, uint64(f.scale))
}
