package token

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrInvalidAmount indicates a zero, negative, or nil amount.
	ErrInvalidAmount = errors.New("token: amount must be positive")
	// ErrInsufficientBalance indicates the debited account holds less than
	// the requested amount. Balances never wrap.
	ErrInsufficientBalance = errors.New("token: insufficient balance")
	// ErrInsufficientAllowance indicates the spender's approved amount does
	// not cover the transfer.
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	// ErrUnauthorized indicates the caller is not the ledger authority.
	ErrUnauthorized = errors.New("token: caller is not the authority")
)

// Ledger is a fungible balance ledger with allowance based delegated
// transfers. All methods are safe for concurrent use.
type Ledger struct {
	mu         sync.RWMutex
	symbol     string
	decimals   uint8
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
}

// NewLedger constructs an empty ledger for the given asset symbol.
func NewLedger(symbol string, decimals uint8) *Ledger {
	return &Ledger{
		symbol:     symbol,
		decimals:   decimals,
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
	}
}

// Symbol returns the asset symbol the ledger tracks.
func (l *Ledger) Symbol() string { return l.symbol }

// Decimals returns the base-unit precision of the asset.
func (l *Ledger) Decimals() uint8 { return l.decimals }

// BalanceOf returns a copy of the account balance.
func (l *Ledger) BalanceOf(addr common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if bal, ok := l.balances[addr]; ok {
		return new(big.Int).Set(bal)
	}
	return big.NewInt(0)
}

// SetBalance overwrites an account balance. Used for genesis seeding and
// state restoration only.
func (l *Ledger) SetBalance(addr common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() < 0 {
		return
	}
	l.mu.Lock()
	l.balances[addr] = new(big.Int).Set(amount)
	l.mu.Unlock()
}

// Balances returns a snapshot of every non-zero balance.
func (l *Ledger) Balances() map[common.Address]*big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[common.Address]*big.Int, len(l.balances))
	for addr, bal := range l.balances {
		if bal.Sign() > 0 {
			out[addr] = new(big.Int).Set(bal)
		}
	}
	return out
}

// Transfer moves amount from one account to another.
func (l *Ledger) Transfer(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(from, to, amount)
}

// Approve records the amount the spender may move out of the owner account.
func (l *Ledger) Approve(owner, spender common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	grants, ok := l.allowances[owner]
	if !ok {
		grants = make(map[common.Address]*big.Int)
		l.allowances[owner] = grants
	}
	grants[spender] = new(big.Int).Set(amount)
	return nil
}

// Allowance returns the remaining amount the spender may move from owner.
func (l *Ledger) Allowance(owner, spender common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if grants, ok := l.allowances[owner]; ok {
		if remaining, ok := grants[spender]; ok {
			return new(big.Int).Set(remaining)
		}
	}
	return big.NewInt(0)
}

// TransferFrom moves amount from the owner account using the spender's
// allowance. The allowance is reduced by the transferred amount.
func (l *Ledger) TransferFrom(spender, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	grants := l.allowances[from]
	remaining := grants[spender]
	if remaining == nil || remaining.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := l.move(from, to, amount); err != nil {
		return err
	}
	grants[spender] = new(big.Int).Sub(remaining, amount)
	return nil
}

// move assumes the lock is held and the amount already validated.
func (l *Ledger) move(from, to common.Address, amount *big.Int) error {
	fromBal := l.balances[from]
	if fromBal == nil || fromBal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	l.balances[from] = new(big.Int).Sub(fromBal, amount)
	toBal := l.balances[to]
	if toBal == nil {
		toBal = big.NewInt(0)
	}
	l.balances[to] = new(big.Int).Add(toBal, amount)
	return nil
}

func (l *Ledger) credit(addr common.Address, amount *big.Int) {
	bal := l.balances[addr]
	if bal == nil {
		bal = big.NewInt(0)
	}
	l.balances[addr] = new(big.Int).Add(bal, amount)
}

func (l *Ledger) debit(addr common.Address, amount *big.Int) error {
	bal := l.balances[addr]
	if bal == nil || bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	l.balances[addr] = new(big.Int).Sub(bal, amount)
	return nil
}
