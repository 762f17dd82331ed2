package exchange

import (
	"fmt"
	"math/big"

	"github.com/cennznet/cennzx-go/internal/core/assets"
)

// Pricing functions are pure: they read nothing but their arguments and every
// intermediate product is computed at arbitrary precision before narrowing
// back to a Balance. Rounding is asymmetric on purpose: payouts floor, costs
// round up, so integer truncation can never drain the pool.

// OutputPrice returns the amount of input asset a buyer must pay to take
// `outputAmount` of the output asset from a pool with the given reserves.
//
//	price = floor(inputReserve * outputAmount / (outputReserve - outputAmount)) + 1
//	result = floor(price * (1 + fee))
//
// The +1 applies even when the division is exact; the pool never undercharges.
func OutputPrice(outputAmount, inputReserve, outputReserve assets.Balance, fee FeeRate) (assets.Balance, error) {
	if inputReserve == 0 || outputReserve == 0 {
		return 0, fmt.Errorf("empty exchange pool: %w", ErrInsufficientLiquidity)
	}
	if outputAmount >= outputReserve {
		return 0, fmt.Errorf("output %d exceeds reserve %d: %w", outputAmount, outputReserve, ErrInsufficientLiquidity)
	}

	numerator := new(big.Int).Mul(big.NewInt(0).SetUint64(inputReserve), big.NewInt(0).SetUint64(outputAmount))
	denominator := new(big.Int).SetUint64(outputReserve - outputAmount)
	price := numerator.Quo(numerator, denominator)
	price.Add(price, big.NewInt(1))

	scale := new(big.Int).SetUint64(uint64(fee.Scale()))
	feePlusOne := new(big.Int).Add(scale, new(big.Int).SetUint64(fee.Parts()))
	price.Mul(price, feePlusOne)
	price.Quo(price, scale)

	if !price.IsUint64() {
		return 0, fmt.Errorf("output price: %w", ErrOverflow)
	}
	return price.Uint64(), nil
}

// InputPrice returns the amount of output asset paid out for selling
// `inputAmount` of the input asset into a pool with the given reserves.
// The fee is taken off the input before the constant-product payout:
//
//	scaled = floor(inputAmount / (1 + fee))
//	result = floor(outputReserve * scaled / (scaled + inputReserve))
func InputPrice(inputAmount, inputReserve, outputReserve assets.Balance, fee FeeRate) (assets.Balance, error) {
	if inputReserve == 0 || outputReserve == 0 {
		return 0, fmt.Errorf("empty exchange pool: %w", ErrInsufficientLiquidity)
	}

	scale := new(big.Int).SetUint64(uint64(fee.Scale()))
	feePlusOne := new(big.Int).Add(scale, new(big.Int).SetUint64(fee.Parts()))
	scaled := new(big.Int).Mul(new(big.Int).SetUint64(inputAmount), scale)
	scaled.Quo(scaled, feePlusOne)

	numerator := new(big.Int).Mul(new(big.Int).SetUint64(outputReserve), scaled)
	denominator := new(big.Int).Add(scaled, new(big.Int).SetUint64(inputReserve))
	price := numerator.Quo(numerator, denominator)

	if !price.IsUint64() {
		return 0, fmt.Errorf("input price: %w", ErrOverflow)
	}
	out := price.Uint64()
	if out >= outputReserve {
		return 0, fmt.Errorf("payout %d exceeds reserve %d: %w", out, outputReserve, ErrInsufficientLiquidity)
	}
	return out, nil
}

// mulDiv computes floor(a*b/den) at double width. den must be nonzero.
func mulDiv(a, b, den assets.Balance) (assets.Balance, error) {
	out := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
	out.Quo(out, new(big.Int).SetUint64(den))
	if !out.IsUint64() {
		return 0, fmt.Errorf("mul-div: %w", ErrOverflow)
	}
	return out.Uint64(), nil
}
