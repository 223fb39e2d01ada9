package synth

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"synthmint/core/events"
)

// EngineState is the narrow persistence surface the engine mutates. Positions
// are the only state the engine owns; token balances live in their ledgers.
type EngineState interface {
	GetPosition(addr common.Address) (*Position, error)
	PutPosition(addr common.Address, pos *Position) error
}

// CollateralToken is the fungible-asset surface the engine needs from a
// registered collateral ledger. A failed transfer aborts the operation that
// issued it.
type CollateralToken interface {
	Transfer(from, to common.Address, amount *big.Int) error
	BalanceOf(addr common.Address) *big.Int
}

// StableToken is the synthetic asset ledger surface. Mint and Burn are gated
// so only the engine may call them.
type StableToken interface {
	Mint(caller, to common.Address, amount *big.Int) error
	Burn(caller common.Address, amount *big.Int) error
	Transfer(from, to common.Address, amount *big.Int) error
	BalanceOf(addr common.Address) *big.Int
}

// CollateralAsset binds a registered asset to the ledger holding it.
type CollateralAsset struct {
	Asset
	Ledger CollateralToken
}

// Engine tracks per-account collateral and debt, prices collateral through
// the valuation service, and enforces the minimum health factor as a
// post-condition on every mutating operation. Each externally reachable
// mutating call holds the reentrancy guard for its whole duration, and all
// internal ledger mutations commit before any external token call is issued.
type Engine struct {
	state     EngineState
	custody   common.Address
	assets    []Asset
	ledgers   map[string]CollateralToken
	feeds     map[string]string
	stable    StableToken
	valuation *Valuation
	params    Params
	emitter   events.Emitter
	guard     reentrancyGuard
}

// NewEngine constructs the engine over a fixed collateral whitelist. The
// asset set cannot change after construction.
func NewEngine(custody common.Address, stable StableToken, valuation *Valuation, params Params, assets []CollateralAsset) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if stable == nil {
		return nil, fmt.Errorf("synth engine: stable unit ledger required")
	}
	if valuation == nil {
		return nil, fmt.Errorf("synth engine: valuation service required")
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("synth engine: at least one collateral asset required")
	}
	e := &Engine{
		custody:   custody,
		stable:    stable,
		valuation: valuation,
		params:    params.Clone(),
		ledgers:   make(map[string]CollateralToken, len(assets)),
		feeds:     make(map[string]string, len(assets)),
		emitter:   events.NoopEmitter{},
	}
	for _, asset := range assets {
		if asset.Symbol == "" || asset.FeedID == "" || asset.Ledger == nil {
			return nil, fmt.Errorf("synth engine: incomplete collateral registration %q", asset.Symbol)
		}
		if _, exists := e.ledgers[asset.Symbol]; exists {
			return nil, fmt.Errorf("synth engine: duplicate collateral asset %q", asset.Symbol)
		}
		e.assets = append(e.assets, asset.Asset)
		e.ledgers[asset.Symbol] = asset.Ledger
		e.feeds[asset.Symbol] = asset.FeedID
	}
	return e, nil
}

// SetState wires the engine to its persistence layer.
func (e *Engine) SetState(state EngineState) { e.state = state }

// SetEmitter configures event delivery. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// Custody returns the address holding deposited collateral.
func (e *Engine) Custody() common.Address { return e.custody }

// Params returns a copy of the configured solvency limits.
func (e *Engine) Params() Params { return e.params.Clone() }

// CollateralAssets returns the registered assets in registration order.
func (e *Engine) CollateralAssets() []Asset {
	out := make([]Asset, len(e.assets))
	copy(out, e.assets)
	return out
}

// DepositCollateral pulls amount of the asset from the caller into engine
// custody and credits the caller's collateral position.
func (e *Engine) DepositCollateral(caller common.Address, symbol string, amount *big.Int) error {
	release, err := e.guard.enter()
	if err != nil {
		return err
	}
	defer release()

	evt, err := e.deposit(caller, symbol, amount)
	if err != nil {
		return err
	}
	e.emitter.Emit(evt)
	return nil
}

// MintStableUnit creates amount stable units against the caller's collateral.
func (e *Engine) MintStableUnit(caller common.Address, amount *big.Int) error {
	release, err := e.guard.enter()
	if err != nil {
		return err
	}
	defer release()

	evt, err := e.mint(caller, amount)
	if err != nil {
		return err
	}
	e.emitter.Emit(evt)
	return nil
}

// DepositCollateralAndMintStableUnit runs deposit then mint as one atomic
// operation: a failed mint unwinds the deposit as well. Events are held back
// until both halves commit so an unwound composite leaves no event trail.
func (e *Engine) DepositCollateralAndMintStableUnit(caller common.Address, symbol string, collateralAmount, mintAmount *big.Int) error {
	release, err := e.guard.enter()
	if err != nil {
		return err
	}
	defer release()

	depositEvt, err := e.deposit(caller, symbol, collateralAmount)
	if err != nil {
		return err
	}
	mintEvt, err := e.mint(caller, mintAmount)
	if err != nil {
		e.unwindDeposit(caller, symbol, collateralAmount)
		return err
	}
	e.emitter.Emit(depositEvt)
	e.emitter.Emit(mintEvt)
	return nil
}

// RedeemCollateral releases amount of the asset from the caller's position
// back to the caller, provided the position stays healthy.
func (e *Engine) RedeemCollateral(caller common.Address, symbol string, amount *big.Int) error {
	release, err := e.guard.enter()
	if err != nil {
		return err
	}
	defer release()

	evt, err := e.redeem(symbol, amount, caller, caller)
	if err != nil {
		return err
	}
	e.emitter.Emit(evt)
	return nil
}

// BurnStableUnit destroys amount of the caller's stable units and reduces
// their debt position.
func (e *Engine) BurnStableUnit(caller common.Address, amount *big.Int) error {
	release, err := e.guard.enter()
	if err != nil {
		return err
	}
	defer release()

	evt, err := e.burn(caller, caller, amount)
	if err != nil {
		return err
	}
	e.emitter.Emit(evt)
	return nil
}

// RedeemCollateralForStableUnit burns debt first and then frees collateral,
// atomically. Burning first keeps the health check from passing against
// collateral that is about to leave the position. Events are held back until
// both halves commit so an unwound composite leaves no event trail.
func (e *Engine) RedeemCollateralForStableUnit(caller common.Address, symbol string, collateralAmount, debtAmount *big.Int) error {
	release, err := e.guard.enter()
	if err != nil {
		return err
	}
	defer release()

	burnEvt, err := e.burn(caller, caller, debtAmount)
	if err != nil {
		return err
	}
	redeemEvt, err := e.redeem(symbol, collateralAmount, caller, caller)
	if err != nil {
		e.unwindBurn(caller, debtAmount)
		return err
	}
	e.emitter.Emit(burnEvt)
	e.emitter.Emit(redeemEvt)
	return nil
}

// Liquidate lets the caller cover debtToCover of the target's debt in
// exchange for a bonus-adjusted seizure of the target's collateral in the
// given asset. The target must start below the minimum health factor and the
// final state must strictly improve it.
func (e *Engine) Liquidate(caller common.Address, symbol string, target common.Address, debtToCover *big.Int) error {
	release, err := e.guard.enter()
	if err != nil {
		return err
	}
	defer release()

	if e.state == nil {
		return ErrNilState
	}
	if debtToCover == nil || debtToCover.Sign() <= 0 {
		return ErrInvalidAmount
	}
	feedID, ok := e.feeds[symbol]
	if !ok {
		return ErrUnsupportedAsset
	}
	ledger := e.ledgers[symbol]

	pos, err := e.loadPosition(target)
	if err != nil {
		return err
	}
	snapshot := pos.Clone()

	startValue, err := e.collateralValue(pos)
	if err != nil {
		return err
	}
	startFactor := HealthFactor(pos.Debt, startValue, e.params.LiquidationThreshold)
	if IsHealthy(startFactor, e.params.MinHealthFactor) {
		return ErrTargetHealthy
	}

	// Seizure sizing reads the freshest unchecked price; see Valuation.TokenAmount.
	baseAmount, err := e.valuation.TokenAmount(feedID, debtToCover)
	if err != nil {
		return err
	}
	totalSeize := new(big.Int).Add(baseAmount, percentOf(baseAmount, e.params.LiquidationBonus))

	remainingCollateral, ok := checkedSub(pos.Collateral[symbol], totalSeize)
	if !ok {
		return ErrInsufficientCollateral
	}
	remainingDebt, ok := checkedSub(pos.Debt, debtToCover)
	if !ok {
		return ErrInsufficientDebt
	}

	pos.Collateral[symbol] = remainingCollateral
	pos.Debt = remainingDebt
	if err := e.state.PutPosition(target, pos); err != nil {
		return err
	}

	endValue, err := e.collateralValue(pos)
	if err != nil {
		e.restore(target, snapshot)
		return err
	}
	endFactor := HealthFactor(pos.Debt, endValue, e.params.LiquidationThreshold)
	if endFactor.Cmp(startFactor) <= 0 {
		e.restore(target, snapshot)
		return ErrHealthNotImproved
	}

	// The final solvency check runs on the liquidator's position, including
	// when they liquidate themselves: a self-liquidation that improves the
	// factor but leaves it below the minimum is rejected.
	if err := e.requireHealthy(caller); err != nil {
		e.restore(target, snapshot)
		return err
	}

	if err := ledger.Transfer(e.custody, caller, totalSeize); err != nil {
		e.restore(target, snapshot)
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := e.stable.Transfer(caller, e.custody, debtToCover); err != nil {
		_ = ledger.Transfer(caller, e.custody, totalSeize)
		e.restore(target, snapshot)
		return fmt.Errorf("%w: %v", ErrBurnFailed, err)
	}
	if err := e.stable.Burn(e.custody, debtToCover); err != nil {
		_ = e.stable.Transfer(e.custody, caller, debtToCover)
		_ = ledger.Transfer(caller, e.custody, totalSeize)
		e.restore(target, snapshot)
		return fmt.Errorf("%w: %v", ErrBurnFailed, err)
	}

	e.emitter.Emit(Liquidated{
		Liquidator:       caller,
		Account:          target,
		Asset:            symbol,
		DebtCovered:      new(big.Int).Set(debtToCover),
		CollateralSeized: totalSeize,
	})
	e.emitter.Emit(CollateralRedeemed{
		Account:   target,
		Recipient: caller,
		Asset:     symbol,
		Amount:    new(big.Int).Set(totalSeize),
	})
	return nil
}

// The internal operation helpers return their event instead of emitting it,
// so composite operations can hold emission back until every half commits.
func (e *Engine) deposit(caller common.Address, symbol string, amount *big.Int) (events.Event, error) {
	if e.state == nil {
		return nil, ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	ledger, ok := e.ledgers[symbol]
	if !ok {
		return nil, ErrUnsupportedAsset
	}

	pos, err := e.loadPosition(caller)
	if err != nil {
		return nil, err
	}
	snapshot := pos.Clone()

	current := pos.Collateral[symbol]
	if current == nil {
		current = big.NewInt(0)
	}
	pos.Collateral[symbol] = new(big.Int).Add(current, amount)
	if err := e.state.PutPosition(caller, pos); err != nil {
		return nil, err
	}

	if err := e.checkHealth(caller, pos); err != nil {
		e.restore(caller, snapshot)
		return nil, err
	}

	if err := ledger.Transfer(caller, e.custody, amount); err != nil {
		e.restore(caller, snapshot)
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	return CollateralDeposited{Account: caller, Asset: symbol, Amount: new(big.Int).Set(amount)}, nil
}

func (e *Engine) mint(caller common.Address, amount *big.Int) (events.Event, error) {
	if e.state == nil {
		return nil, ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	pos, err := e.loadPosition(caller)
	if err != nil {
		return nil, err
	}
	snapshot := pos.Clone()

	pos.Debt = new(big.Int).Add(pos.Debt, amount)
	if err := e.state.PutPosition(caller, pos); err != nil {
		return nil, err
	}

	if err := e.checkHealth(caller, pos); err != nil {
		e.restore(caller, snapshot)
		return nil, err
	}

	if err := e.stable.Mint(e.custody, caller, amount); err != nil {
		e.restore(caller, snapshot)
		return nil, fmt.Errorf("%w: %v", ErrMintFailed, err)
	}

	return StableMinted{Account: caller, Amount: new(big.Int).Set(amount)}, nil
}

// redeem decreases from's collateral position and transfers the asset out to
// the recipient. Self-redemption and liquidation seizure share it.
func (e *Engine) redeem(symbol string, amount *big.Int, from, to common.Address) (events.Event, error) {
	if e.state == nil {
		return nil, ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	ledger, ok := e.ledgers[symbol]
	if !ok {
		return nil, ErrUnsupportedAsset
	}

	pos, err := e.loadPosition(from)
	if err != nil {
		return nil, err
	}
	snapshot := pos.Clone()

	remaining, ok := checkedSub(pos.Collateral[symbol], amount)
	if !ok {
		return nil, ErrInsufficientCollateral
	}
	pos.Collateral[symbol] = remaining
	if err := e.state.PutPosition(from, pos); err != nil {
		return nil, err
	}

	if err := e.checkHealth(from, pos); err != nil {
		e.restore(from, snapshot)
		return nil, err
	}

	if err := ledger.Transfer(e.custody, to, amount); err != nil {
		e.restore(from, snapshot)
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	return CollateralRedeemed{Account: from, Recipient: to, Asset: symbol, Amount: new(big.Int).Set(amount)}, nil
}

// burn reduces onBehalf's debt position, pulling the stable units from payer
// and destroying them.
func (e *Engine) burn(onBehalf, payer common.Address, amount *big.Int) (events.Event, error) {
	if e.state == nil {
		return nil, ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	pos, err := e.loadPosition(onBehalf)
	if err != nil {
		return nil, err
	}
	snapshot := pos.Clone()

	remaining, ok := checkedSub(pos.Debt, amount)
	if !ok {
		return nil, ErrInsufficientDebt
	}
	pos.Debt = remaining
	if err := e.state.PutPosition(onBehalf, pos); err != nil {
		return nil, err
	}

	// Burning only raises the ratio; the check is defensive, not load-bearing.
	if err := e.checkHealth(onBehalf, pos); err != nil {
		e.restore(onBehalf, snapshot)
		return nil, err
	}

	if err := e.stable.Transfer(payer, e.custody, amount); err != nil {
		e.restore(onBehalf, snapshot)
		return nil, fmt.Errorf("%w: %v", ErrBurnFailed, err)
	}
	if err := e.stable.Burn(e.custody, amount); err != nil {
		_ = e.stable.Transfer(e.custody, payer, amount)
		e.restore(onBehalf, snapshot)
		return nil, fmt.Errorf("%w: %v", ErrBurnFailed, err)
	}

	return StableBurned{Account: onBehalf, Amount: new(big.Int).Set(amount)}, nil
}

// unwindDeposit reverses a committed deposit when a later step of a composite
// operation fails. Custody holds the freshly pulled amount, so the
// compensating transfer cannot come up short.
func (e *Engine) unwindDeposit(caller common.Address, symbol string, amount *big.Int) {
	pos, err := e.loadPosition(caller)
	if err != nil {
		return
	}
	if remaining, ok := checkedSub(pos.Collateral[symbol], amount); ok {
		pos.Collateral[symbol] = remaining
		_ = e.state.PutPosition(caller, pos)
	}
	_ = e.ledgers[symbol].Transfer(e.custody, caller, amount)
}

// unwindBurn reverses a committed burn by re-minting the destroyed units and
// restoring the debt position.
func (e *Engine) unwindBurn(caller common.Address, amount *big.Int) {
	pos, err := e.loadPosition(caller)
	if err != nil {
		return
	}
	pos.Debt = new(big.Int).Add(pos.Debt, amount)
	_ = e.state.PutPosition(caller, pos)
	_ = e.stable.Mint(e.custody, caller, amount)
}

// AccountInformation returns the debt, total collateral value, and health
// factor for the account.
func (e *Engine) AccountInformation(addr common.Address) (AccountInfo, error) {
	release, err := e.guard.enter()
	if err != nil {
		return AccountInfo{}, err
	}
	defer release()
	return e.accountInformation(addr)
}

// AccountCollateralValue sums the reference-currency value of every
// registered asset in the account's position.
func (e *Engine) AccountCollateralValue(addr common.Address) (*big.Int, error) {
	release, err := e.guard.enter()
	if err != nil {
		return nil, err
	}
	defer release()
	pos, err := e.loadPosition(addr)
	if err != nil {
		return nil, err
	}
	return e.collateralValue(pos)
}

// HealthFactorOf returns the account's current health factor.
func (e *Engine) HealthFactorOf(addr common.Address) (*big.Int, error) {
	info, err := e.AccountInformation(addr)
	if err != nil {
		return nil, err
	}
	return info.HealthFactor, nil
}

// CollateralBalanceOf returns the account's deposited amount of one asset.
func (e *Engine) CollateralBalanceOf(addr common.Address, symbol string) (*big.Int, error) {
	release, err := e.guard.enter()
	if err != nil {
		return nil, err
	}
	defer release()
	if _, ok := e.ledgers[symbol]; !ok {
		return nil, ErrUnsupportedAsset
	}
	pos, err := e.loadPosition(addr)
	if err != nil {
		return nil, err
	}
	return pos.CollateralOf(symbol), nil
}

// ReferenceValueOf prices an asset amount in reference-currency units.
func (e *Engine) ReferenceValueOf(symbol string, amount *big.Int) (*big.Int, error) {
	release, err := e.guard.enter()
	if err != nil {
		return nil, err
	}
	defer release()
	feedID, ok := e.feeds[symbol]
	if !ok {
		return nil, ErrUnsupportedAsset
	}
	return e.valuation.ReferenceValue(feedID, amount)
}

// TokenAmountFromReference converts a reference-currency amount into an
// asset quantity at the current price.
func (e *Engine) TokenAmountFromReference(symbol string, refAmount *big.Int) (*big.Int, error) {
	release, err := e.guard.enter()
	if err != nil {
		return nil, err
	}
	defer release()
	feedID, ok := e.feeds[symbol]
	if !ok {
		return nil, ErrUnsupportedAsset
	}
	return e.valuation.TokenAmount(feedID, refAmount)
}

func (e *Engine) accountInformation(addr common.Address) (AccountInfo, error) {
	pos, err := e.loadPosition(addr)
	if err != nil {
		return AccountInfo{}, err
	}
	value, err := e.collateralValue(pos)
	if err != nil {
		return AccountInfo{}, err
	}
	return AccountInfo{
		Address:         addr,
		Debt:            new(big.Int).Set(pos.Debt),
		CollateralValue: value,
		HealthFactor:    HealthFactor(pos.Debt, value, e.params.LiquidationThreshold),
	}, nil
}

// checkHealth enforces the post-condition gate: the position must be at or
// above the minimum health factor after the mutation.
func (e *Engine) checkHealth(addr common.Address, pos *Position) error {
	value, err := e.collateralValue(pos)
	if err != nil {
		return err
	}
	factor := HealthFactor(pos.Debt, value, e.params.LiquidationThreshold)
	if !IsHealthy(factor, e.params.MinHealthFactor) {
		return fmt.Errorf("%w: account %s factor %s", ErrHealthCheckFailed, addr.Hex(), factor)
	}
	return nil
}

func (e *Engine) requireHealthy(addr common.Address) error {
	pos, err := e.loadPosition(addr)
	if err != nil {
		return err
	}
	return e.checkHealth(addr, pos)
}

func (e *Engine) collateralValue(pos *Position) (*big.Int, error) {
	total := big.NewInt(0)
	for _, asset := range e.assets {
		amount := pos.Collateral[asset.Symbol]
		if amount == nil || amount.Sign() == 0 {
			continue
		}
		value, err := e.valuation.ReferenceValue(asset.FeedID, amount)
		if err != nil {
			return nil, err
		}
		total.Add(total, value)
	}
	return total, nil
}

func (e *Engine) loadPosition(addr common.Address) (*Position, error) {
	if e.state == nil {
		return nil, ErrNilState
	}
	pos, err := e.state.GetPosition(addr)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		pos = NewPosition()
	}
	if pos.Collateral == nil {
		pos.Collateral = make(map[string]*big.Int)
	}
	if pos.Debt == nil {
		pos.Debt = big.NewInt(0)
	}
	return pos, nil
}

func (e *Engine) restore(addr common.Address, snapshot *Position) {
	_ = e.state.PutPosition(addr, snapshot)
}
