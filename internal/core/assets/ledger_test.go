package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addr(b byte) Address {
	var a Address
	a[0] = b
	return a
}

func TestTransfer(t *testing.T) {
	l := NewInMemoryLedger()
	l.SetBalance(1, addr(1), 100)

	require.NoError(t, l.Transfer(1, addr(1), addr(2), 40))
	assert.Equal(t, Balance(60), l.Balance(1, addr(1)))
	assert.Equal(t, Balance(40), l.Balance(1, addr(2)))
}

func TestTransferInsufficientBalance(t *testing.T) {
	l := NewInMemoryLedger()
	l.SetBalance(1, addr(1), 10)

	err := l.Transfer(1, addr(1), addr(2), 11)
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, Balance(10), l.Balance(1, addr(1)))
	assert.Equal(t, Balance(0), l.Balance(1, addr(2)))
}

func TestTransferZeroAmount(t *testing.T) {
	l := NewInMemoryLedger()
	l.SetBalance(1, addr(1), 10)

	require.ErrorIs(t, l.Transfer(1, addr(1), addr(2), 0), ErrZeroTransfer)
}

func TestApplyAllAtomic(t *testing.T) {
	l := NewInMemoryLedger()
	l.SetBalance(1, addr(1), 100)
	l.SetBalance(2, addr(2), 5)

	// Second transfer is underfunded; the first must not stick.
	err := l.ApplyAll([]Transfer{
		{Asset: 1, From: addr(1), To: addr(2), Amount: 50},
		{Asset: 2, From: addr(2), To: addr(1), Amount: 6},
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, Balance(100), l.Balance(1, addr(1)))
	assert.Equal(t, Balance(5), l.Balance(2, addr(2)))
	assert.Equal(t, Balance(0), l.Balance(1, addr(2)))
}

func TestApplyAllChainedSpend(t *testing.T) {
	// A batch may spend funds received earlier in the same batch.
	l := NewInMemoryLedger()
	l.SetBalance(1, addr(1), 30)

	require.NoError(t, l.ApplyAll([]Transfer{
		{Asset: 1, From: addr(1), To: addr(2), Amount: 30},
		{Asset: 1, From: addr(2), To: addr(3), Amount: 30},
	}))
	assert.Equal(t, Balance(0), l.Balance(1, addr(1)))
	assert.Equal(t, Balance(0), l.Balance(1, addr(2)))
	assert.Equal(t, Balance(30), l.Balance(1, addr(3)))
}

func TestEndowments(t *testing.T) {
	l := NewLedgerWithEndowments([]Endowment{
		{Asset: 1, Account: addr(1), Amount: 100},
		{Asset: 1, Account: addr(1), Amount: 50},
		{Asset: 2, Account: addr(2), Amount: 7},
	})
	assert.Equal(t, Balance(150), l.Balance(1, addr(1)))
	assert.Equal(t, Balance(7), l.Balance(2, addr(2)))
}

func TestAddressHexRoundTrip(t *testing.T) {
	a := addr(0xAB)
	parsed, err := AddressFromHex(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)

	_, err = AddressFromHex("zz")
	assert.Error(t, err)

	_, err = AddressFromHex("abcd")
	assert.Error(t, err)
}
