package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"synthmint/native/token"
)

const ledgerPrefix = "synth/ledger/"

func ledgerKey(symbol string) []byte {
	return []byte(ledgerPrefix + symbol)
}

// SaveLedger persists the non-zero balances of a token ledger.
func (s *StateStore) SaveLedger(ledger *token.Ledger) error {
	balances := ledger.Balances()
	stored := make(map[string]string, len(balances))
	for addr, amount := range balances {
		stored[addr.Hex()] = amount.String()
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return s.db.Put(ledgerKey(ledger.Symbol()), raw)
}

// LoadLedger restores previously saved balances into the ledger. A missing
// record leaves the ledger untouched.
func (s *StateStore) LoadLedger(ledger *token.Ledger) error {
	raw, err := s.db.Get(ledgerKey(ledger.Symbol()))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	var stored map[string]string
	if err := json.Unmarshal(raw, &stored); err != nil {
		return fmt.Errorf("storage: decode ledger %s: %w", ledger.Symbol(), err)
	}
	for hexAddr, amount := range stored {
		if !common.IsHexAddress(hexAddr) {
			return fmt.Errorf("storage: ledger %s: invalid address %q", ledger.Symbol(), hexAddr)
		}
		value, ok := new(big.Int).SetString(amount, 10)
		if !ok || value.Sign() < 0 {
			return fmt.Errorf("storage: ledger %s: invalid amount %q", ledger.Symbol(), amount)
		}
		ledger.SetBalance(common.HexToAddress(hexAddr), value)
	}
	return nil
}
