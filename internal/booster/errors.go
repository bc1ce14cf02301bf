package booster

import "errors"

var (
	// ErrInvalidAmount is returned before any transaction is built when a
	// trade amount is zero. In the trading loop it means "nothing to trade".
	ErrInvalidAmount = errors.New("invalid trade amount")

	// ErrSwapFailed wraps any failure to build, sign or submit a swap.
	ErrSwapFailed = errors.New("swap failed")

	// ErrAccountProvisionFailed is returned once the provisioning retry
	// policy is exhausted.
	ErrAccountProvisionFailed = errors.New("token account provisioning failed")

	// ErrNothingToWrap means the native balance cannot fund a wrapped SOL
	// account after rent and the fee reserve.
	ErrNothingToWrap = errors.New("native balance too low to wrap")

	// ErrRotationAborted leaves the engine on its current wallet. No funds moved.
	ErrRotationAborted = errors.New("wallet rotation aborted")

	ErrTimeout = errors.New("timed out waiting for on-chain state")

	errNotProvisioned = errors.New("token accounts not provisioned")
)
