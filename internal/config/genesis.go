package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cennznet/cennzx-go/internal/core/assets"
)

// genesisFile is the JSON shape of a genesis endowment file.
type genesisFile struct {
	Endowments []genesisEndowment `json:"endowments"`
}

type genesisEndowment struct {
	Asset   uint32 `json:"asset"`
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

// LoadGenesis reads initial account balances from a JSON file.
func LoadGenesis(path string) ([]assets.Endowment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis file: %w", err)
	}

	var file genesisFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse genesis file %s: %w", path, err)
	}

	endowments := make([]assets.Endowment, 0, len(file.Endowments))
	for i, entry := range file.Endowments {
		addr, err := assets.AddressFromHex(entry.Address)
		if err != nil {
			return nil, fmt.Errorf("genesis endowment %d: %w", i, err)
		}
		if entry.Amount == 0 {
			return nil, fmt.Errorf("genesis endowment %d: amount cannot be zero", i)
		}
		endowments = append(endowments, assets.Endowment{
			Asset:   assets.AssetID(entry.Asset),
			Account: addr,
			Amount:  entry.Amount,
		})
	}
	return endowments, nil
}
