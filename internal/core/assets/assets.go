// Package assets provides a multi-asset balance ledger. The exchange engine
// moves funds through this interface only; it never mutates balances directly.
package assets

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// AssetID identifies a fungible asset class.
type AssetID uint32

// Balance is an amount of a single asset.
type Balance = uint64

// Address identifies an account holding asset balances.
type Address [32]byte

// String returns the hex encoding of the address.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// AddressFromHex parses a 64-character hex string into an Address.
func AddressFromHex(s string) (Address, error) {
	var addr Address
	raw, err := hex.DecodeString(s)
	if err != nil {
		return addr, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if len(raw) != len(addr) {
		return addr, fmt.Errorf("invalid address %q: expected %d bytes, got %d", s, len(addr), len(raw))
	}
	copy(addr[:], raw)
	return addr, nil
}

// MarshalJSON encodes the address as a hex string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes a hex string into the address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := AddressFromHex(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Transfer is a single balance movement between two accounts.
type Transfer struct {
	Asset  AssetID
	From   Address
	To     Address
	Amount Balance
}

// Ledger is the asset balance capability consumed by the exchange.
//
// ApplyAll commits a batch of transfers atomically: either every transfer in
// the batch is applied, or none is. This is what makes chained two-pool swaps
// all-or-nothing.
type Ledger interface {
	Balance(asset AssetID, who Address) Balance
	Transfer(asset AssetID, from, to Address, amount Balance) error
	ApplyAll(transfers []Transfer) error
}
