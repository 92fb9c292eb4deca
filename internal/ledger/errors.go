package ledger

import "errors"

var (
	ErrUnknownAsset          = errors.New("unknown asset")
	ErrAssetExists           = errors.New("asset already registered")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)
