package exchange

import "errors"

var (
	// ErrZeroAmount is returned when an amount parameter is zero where a
	// positive value is required.
	ErrZeroAmount = errors.New("amount cannot be zero")

	// ErrInsufficientLiquidity is returned when a pool reserve is empty, or a
	// requested output meets or exceeds the available reserve.
	ErrInsufficientLiquidity = errors.New("insufficient exchange pool liquidity")

	// ErrInsufficientBalance is returned when the caller lacks the asset
	// balance required to complete the operation.
	ErrInsufficientBalance = errors.New("insufficient account balance")

	// ErrSlippageExceeded is returned when a computed amount violates the
	// caller's stated min/max bound.
	ErrSlippageExceeded = errors.New("price moved beyond the stated limit")

	// ErrBelowMinimumLiquidity is returned when minted liquidity falls short
	// of the caller's floor.
	ErrBelowMinimumLiquidity = errors.New("liquidity mintable is below required minimum")

	// ErrBelowMinimumWithdrawal is returned when withdrawn amounts fall short
	// of the caller's floor.
	ErrBelowMinimumWithdrawal = errors.New("withdrawal is below required minimum")

	// ErrSameAsset is returned when an asset would be swapped for itself.
	ErrSameAsset = errors.New("asset cannot be swapped for itself")

	// ErrOverflow is returned when arithmetic exceeds the representable
	// integer range.
	ErrOverflow = errors.New("arithmetic overflow")

	// ErrConversionOverflow is returned when a fee rate cannot be converted
	// between scales without loss.
	ErrConversionOverflow = errors.New("fee rate conversion overflow")

	// ErrDivideByZero is returned on division by a zero rate.
	ErrDivideByZero = errors.New("divide by zero")
)
