package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var zeroFee = feeRateFromParts(0, PerMillion)

func TestOutputPrice(t *testing.T) {
	// floor(1000*100/900) + 1
	price, err := OutputPrice(100, 1000, 1000, zeroFee)
	require.NoError(t, err)
	assert.Equal(t, uint64(112), price)

	// The round-up applies even when the division is exact.
	price, err = OutputPrice(500, 1000, 1000, zeroFee)
	require.NoError(t, err)
	assert.Equal(t, uint64(1001), price)
}

func TestOutputPriceWithFee(t *testing.T) {
	// floor(100000*10000/90000)+1 = 11112, then floor(11112 * 1.003)
	price, err := OutputPrice(10_000, 100_000, 100_000, DefaultFeeRate())
	require.NoError(t, err)
	assert.Equal(t, uint64(11_145), price)
}

func TestOutputPriceInsufficientLiquidity(t *testing.T) {
	_, err := OutputPrice(1000, 1000, 1000, zeroFee)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	_, err = OutputPrice(1001, 1000, 1000, zeroFee)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	_, err = OutputPrice(1, 0, 1000, zeroFee)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	_, err = OutputPrice(1, 1000, 0, zeroFee)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestInputPrice(t *testing.T) {
	// floor(1000*100/1100)
	price, err := InputPrice(100, 1000, 1000, zeroFee)
	require.NoError(t, err)
	assert.Equal(t, uint64(90), price)
}

func TestInputPriceWithFee(t *testing.T) {
	// scaled = floor(10000/1.003) = 9970, floor(100000*9970/109970)
	price, err := InputPrice(10_000, 100_000, 100_000, DefaultFeeRate())
	require.NoError(t, err)
	assert.Equal(t, uint64(9_066), price)
}

func TestInputPriceEmptyPool(t *testing.T) {
	_, err := InputPrice(100, 0, 1000, zeroFee)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	_, err = InputPrice(100, 1000, 0, zeroFee)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestPricingDeterminism(t *testing.T) {
	fee := DefaultFeeRate()
	for i := 0; i < 10; i++ {
		out, err := OutputPrice(123, 98_765, 43_210, fee)
		require.NoError(t, err)
		assert.Equal(t, uint64(282), out)

		in, err := InputPrice(123, 98_765, 43_210, fee)
		require.NoError(t, err)
		assert.Equal(t, uint64(53), in)
	}
}

func TestPricingRoundTripNeverProfits(t *testing.T) {
	// Buying X then selling the cost back can never return more than X.
	fee := DefaultFeeRate()
	reserveIn := uint64(1_000_000)
	reserveOut := uint64(500_000)
	for _, amount := range []uint64{1, 17, 999, 250_000} {
		cost, err := OutputPrice(amount, reserveIn, reserveOut, fee)
		require.NoError(t, err)

		back, err := InputPrice(cost, reserveIn, reserveOut, fee)
		require.NoError(t, err)
		assert.LessOrEqual(t, back, amount, "amount %d", amount)
	}
}
