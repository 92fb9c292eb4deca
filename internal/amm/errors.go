package amm

import "errors"

// Every failure mode carries a distinct sentinel so callers can assert on
// cause with errors.Is.
var (
	ErrInvalidPairConfiguration = errors.New("invalid pair configuration")
	ErrTransferFailed           = errors.New("transfer failed")
	ErrZeroShareMint            = errors.New("zero share mint")
	ErrZeroRedemption           = errors.New("zero redemption")
	ErrInsufficientShares       = errors.New("insufficient shares")
	ErrNoOutputRequested        = errors.New("no output requested")
	ErrInsufficientLiquidity    = errors.New("insufficient liquidity")
	ErrNoInputProvided          = errors.New("no input provided")
	ErrInvariantViolated        = errors.New("invariant violated")
	ErrReserveOverflow          = errors.New("reserve overflow")
)
