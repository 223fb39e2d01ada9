package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"synthmint/native/synth"
)

const positionPrefix = "synth/pos/"

// StateStore persists engine positions in a key-value database using a JSON
// codec. It implements synth.EngineState.
type StateStore struct {
	db Database
}

// NewStateStore wraps the database with the position codec.
func NewStateStore(db Database) *StateStore {
	return &StateStore{db: db}
}

type storedPosition struct {
	Collateral map[string]string `json:"collateral"`
	Debt       string            `json:"debt"`
}

func positionKey(addr common.Address) []byte {
	return []byte(positionPrefix + addr.Hex())
}

// GetPosition loads the stored position for the address. A missing record
// returns a nil position so the engine zero-initialises it.
func (s *StateStore) GetPosition(addr common.Address) (*synth.Position, error) {
	raw, err := s.db.Get(positionKey(addr))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stored storedPosition
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("storage: decode position %s: %w", addr.Hex(), err)
	}
	pos := synth.NewPosition()
	for symbol, amount := range stored.Collateral {
		value, err := parseAmount(amount)
		if err != nil {
			return nil, fmt.Errorf("storage: position %s asset %s: %w", addr.Hex(), symbol, err)
		}
		pos.Collateral[symbol] = value
	}
	debt, err := parseAmount(stored.Debt)
	if err != nil {
		return nil, fmt.Errorf("storage: position %s debt: %w", addr.Hex(), err)
	}
	pos.Debt = debt
	return pos, nil
}

// PutPosition stores the position, deleting empty records.
func (s *StateStore) PutPosition(addr common.Address, pos *synth.Position) error {
	if pos == nil {
		return s.db.Delete(positionKey(addr))
	}
	stored := storedPosition{Collateral: make(map[string]string), Debt: "0"}
	empty := true
	for symbol, amount := range pos.Collateral {
		if amount == nil || amount.Sign() == 0 {
			continue
		}
		stored.Collateral[symbol] = amount.String()
		empty = false
	}
	if pos.Debt != nil && pos.Debt.Sign() > 0 {
		stored.Debt = pos.Debt.String()
		empty = false
	}
	if empty {
		return s.db.Delete(positionKey(addr))
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return s.db.Put(positionKey(addr), raw)
}

func parseAmount(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok || parsed.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return parsed, nil
}
