package exchange

import (
	"crypto/sha512"
	"encoding/binary"

	"github.com/cennznet/cennzx-go/internal/core/assets"
)

// exchangeAddressPrefix salts pool escrow addresses so they cannot collide
// with any address derived for another purpose.
const exchangeAddressPrefix = "cennz-x-spot:"

// ExchangeAddress derives the deterministic escrow account holding the pooled
// reserves for a (core asset, trade asset) pair. The address is the sha512-half
// of a fixed prefix plus both asset ids in little-endian order.
func ExchangeAddress(coreAsset, tradeAsset assets.AssetID) assets.Address {
	buf := make([]byte, 0, len(exchangeAddressPrefix)+16)
	buf = append(buf, exchangeAddressPrefix...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(coreAsset))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(tradeAsset))

	digest := sha512.Sum512(buf)
	var addr assets.Address
	copy(addr[:], digest[:32])
	return addr
}
