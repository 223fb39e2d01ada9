package token

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// StableUnit is the synthetic pegged asset ledger. Supply changes are gated
// to a single authority address, which is transferred to the engine during
// deployment wiring and never reclaimed.
type StableUnit struct {
	Ledger
	muAuth    sync.RWMutex
	authority common.Address
}

// NewStableUnit constructs the stable unit ledger with the initial authority.
func NewStableUnit(symbol string, authority common.Address) *StableUnit {
	return &StableUnit{
		Ledger: Ledger{
			symbol:     symbol,
			decimals:   18,
			balances:   make(map[common.Address]*big.Int),
			allowances: make(map[common.Address]map[common.Address]*big.Int),
		},
		authority: authority,
	}
}

// Authority returns the address permitted to mint and burn.
func (s *StableUnit) Authority() common.Address {
	s.muAuth.RLock()
	defer s.muAuth.RUnlock()
	return s.authority
}

// TransferAuthority hands supply control to the next address. Only the
// current authority may call it.
func (s *StableUnit) TransferAuthority(caller, next common.Address) error {
	s.muAuth.Lock()
	defer s.muAuth.Unlock()
	if caller != s.authority {
		return ErrUnauthorized
	}
	s.authority = next
	return nil
}

// Mint creates amount units for the recipient. Restricted to the authority.
func (s *StableUnit) Mint(caller, to common.Address, amount *big.Int) error {
	if caller != s.Authority() {
		return ErrUnauthorized
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	s.mu.Lock()
	s.credit(to, amount)
	s.mu.Unlock()
	return nil
}

// Burn destroys amount units held by the caller. Restricted to the authority,
// which first pulls the units into its own balance.
func (s *StableUnit) Burn(caller common.Address, amount *big.Int) error {
	if caller != s.Authority() {
		return ErrUnauthorized
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debit(caller, amount)
}
