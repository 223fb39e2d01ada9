package synth

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	EventTypeCollateralDeposited = "synth.collateral_deposited"
	EventTypeCollateralRedeemed  = "synth.collateral_redeemed"
	EventTypeStableMinted        = "synth.stable_minted"
	EventTypeStableBurned        = "synth.stable_burned"
	EventTypeLiquidated          = "synth.liquidated"
)

// CollateralDeposited is emitted after collateral enters engine custody.
type CollateralDeposited struct {
	Account common.Address
	Asset   string
	Amount  *big.Int
}

func (CollateralDeposited) EventType() string { return EventTypeCollateralDeposited }

// CollateralRedeemed is emitted after collateral leaves engine custody,
// whether by self-redemption or liquidation seizure.
type CollateralRedeemed struct {
	Account   common.Address
	Recipient common.Address
	Asset     string
	Amount    *big.Int
}

func (CollateralRedeemed) EventType() string { return EventTypeCollateralRedeemed }

// StableMinted is emitted after new stable units are created for an account.
type StableMinted struct {
	Account common.Address
	Amount  *big.Int
}

func (StableMinted) EventType() string { return EventTypeStableMinted }

// StableBurned is emitted after stable units are destroyed against debt.
type StableBurned struct {
	Account common.Address
	Amount  *big.Int
}

func (StableBurned) EventType() string { return EventTypeStableBurned }

// Liquidated is emitted after a third party covers part of an account's debt
// in exchange for seized collateral.
type Liquidated struct {
	Liquidator       common.Address
	Account          common.Address
	Asset            string
	DebtCovered      *big.Int
	CollateralSeized *big.Int
}

func (Liquidated) EventType() string { return EventTypeLiquidated }
