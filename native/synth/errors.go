package synth

import "errors"

var (
	// ErrNilState is returned when the engine has no persistence wired.
	ErrNilState = errors.New("synth engine: state not configured")
	// ErrInvalidAmount rejects zero, negative, or nil amounts before any
	// state change.
	ErrInvalidAmount = errors.New("synth engine: amount must be positive")
	// ErrUnsupportedAsset rejects assets outside the registered set.
	ErrUnsupportedAsset = errors.New("synth engine: collateral asset not registered")
	// ErrInsufficientCollateral is returned when a redemption or seizure
	// exceeds the recorded collateral position.
	ErrInsufficientCollateral = errors.New("synth engine: amount exceeds collateral position")
	// ErrInsufficientDebt is returned when a burn exceeds the outstanding
	// debt position.
	ErrInsufficientDebt = errors.New("synth engine: amount exceeds debt position")
	// ErrHealthCheckFailed unwinds an operation whose post-condition health
	// factor fell below the minimum.
	ErrHealthCheckFailed = errors.New("synth engine: health factor below minimum")
	// ErrTargetHealthy rejects liquidation of an account at or above the
	// minimum health factor.
	ErrTargetHealthy = errors.New("synth engine: target account is healthy")
	// ErrHealthNotImproved rejects a liquidation whose final state does not
	// strictly improve the target's health factor.
	ErrHealthNotImproved = errors.New("synth engine: liquidation did not improve health factor")
	// ErrTransferFailed propagates a failed collateral token movement.
	ErrTransferFailed = errors.New("synth engine: collateral transfer failed")
	// ErrMintFailed propagates a failed stable unit mint.
	ErrMintFailed = errors.New("synth engine: stable unit mint failed")
	// ErrBurnFailed propagates a failed stable unit pull or burn.
	ErrBurnFailed = errors.New("synth engine: stable unit burn failed")
	// ErrReentrantCall rejects a call entering the engine while another
	// operation is still executing.
	ErrReentrantCall = errors.New("synth engine: reentrant call rejected")
)
