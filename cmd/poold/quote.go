package main

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"pairpool/internal/amm"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	amountIn, err := optionalAmount(cmd, "amount-in")
	if err != nil {
		return err
	}
	amountOut, err := optionalAmount(cmd, "amount-out")
	if err != nil {
		return err
	}
	reserveIn, err := requiredAmount(cmd, "reserve-in")
	if err != nil {
		return err
	}
	reserveOut, err := requiredAmount(cmd, "reserve-out")
	if err != nil {
		return err
	}

	switch {
	case amountIn != nil && amountOut != nil:
		return fmt.Errorf("set either amount-in or amount-out, not both")
	case amountIn != nil:
		out, err := amm.QuoteOut(amountIn, reserveIn, reserveOut)
		if err != nil {
			return err
		}
		fmt.Printf("amount_out=%s\n", out)
	case amountOut != nil:
		in, err := amm.QuoteIn(amountOut, reserveIn, reserveOut)
		if err != nil {
			return err
		}
		fmt.Printf("amount_in=%s\n", in)
	default:
		return fmt.Errorf("amount-in or amount-out is required")
	}
	return nil
}

func optionalAmount(cmd *cobra.Command, name string) (*big.Int, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return nil, nil
	}
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s %q", name, value)
	}
	return amount, nil
}

func requiredAmount(cmd *cobra.Command, name string) (*big.Int, error) {
	amount, err := optionalAmount(cmd, name)
	if err != nil {
		return nil, err
	}
	if amount == nil {
		return nil, fmt.Errorf("%s is required", name)
	}
	return amount, nil
}
