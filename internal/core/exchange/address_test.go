package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExchangeAddressDeterministic(t *testing.T) {
	a1 := ExchangeAddress(16_001, 16_002)
	a2 := ExchangeAddress(16_001, 16_002)
	assert.Equal(t, a1, a2)
}

func TestExchangeAddressDistinct(t *testing.T) {
	base := ExchangeAddress(16_001, 16_002)
	assert.NotEqual(t, base, ExchangeAddress(16_001, 16_003))
	assert.NotEqual(t, base, ExchangeAddress(16_000, 16_002))
	// Asset order matters.
	assert.NotEqual(t, base, ExchangeAddress(16_002, 16_001))
}
