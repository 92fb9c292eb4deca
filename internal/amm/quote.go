package amm

import (
	"fmt"
	"math/big"
)

// Read-only pricing helpers for callers sizing a swap. 0.3% fee: inputs
// count at 997/1000.
var feeRetained = big.NewInt(997)

// QuoteOut returns the maximum output obtainable for amountIn against the
// given reserves.
func QuoteOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("%w: input amount must be positive", ErrNoInputProvided)
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, fmt.Errorf("%w: reserves must be positive", ErrInsufficientLiquidity)
	}

	inWithFee := new(big.Int).Mul(amountIn, feeRetained)
	numerator := new(big.Int).Mul(inWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, feeScale)
	denominator.Add(denominator, inWithFee)

	return numerator.Quo(numerator, denominator), nil
}

// QuoteIn returns the minimum input required to receive amountOut against
// the given reserves. Rounds up so the quoted input always passes the
// invariant check.
func QuoteIn(amountOut, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountOut == nil || amountOut.Sign() <= 0 {
		return nil, fmt.Errorf("%w: output amount must be positive", ErrNoOutputRequested)
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, fmt.Errorf("%w: reserves must be positive", ErrInsufficientLiquidity)
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, fmt.Errorf("%w: output %s >= reserve %s", ErrInsufficientLiquidity, amountOut, reserveOut)
	}

	numerator := new(big.Int).Mul(reserveIn, amountOut)
	numerator.Mul(numerator, feeScale)
	denominator := new(big.Int).Sub(reserveOut, amountOut)
	denominator.Mul(denominator, feeRetained)

	amountIn := numerator.Quo(numerator, denominator)
	return amountIn.Add(amountIn, big.NewInt(1)), nil
}
