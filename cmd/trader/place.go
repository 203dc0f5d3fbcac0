package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"rangeTrader/internal/config"
	"rangeTrader/internal/model"
	"rangeTrader/internal/order"
)

func runBuy(cmd *cobra.Command, _ []string) error {
	return runPlace(cmd, model.SideBuy)
}

func runSell(cmd *cobra.Command, _ []string) error {
	return runPlace(cmd, model.SideSell)
}

func runPlace(cmd *cobra.Command, side model.OrderSide) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokenInRaw, _ := cmd.Flags().GetString("token-in")
	tokenIn, err := config.ParseAddress(tokenInRaw)
	if err != nil {
		return fmt.Errorf("token-in: %w", err)
	}
	tokenOutRaw, _ := cmd.Flags().GetString("token-out")
	tokenOut, err := config.ParseAddress(tokenOutRaw)
	if err != nil {
		return fmt.Errorf("token-out: %w", err)
	}

	amount, err := parseAmount(cmd, "amount")
	if err != nil {
		return err
	}
	if amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	priceRaw, _ := cmd.Flags().GetString("price")
	price, err := decimal.NewFromString(priceRaw)
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", priceRaw, err)
	}

	fee, _ := cmd.Flags().GetUint32("fee")

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var result order.PlaceResult
	if side == model.SideBuy {
		result, err = a.service.PlaceBuyOrder(ctx, tokenIn, tokenOut, amount, price, fee)
	} else {
		result, err = a.service.PlaceSellOrder(ctx, tokenIn, tokenOut, amount, price, fee)
	}
	if err != nil {
		return err
	}

	fmt.Printf("order %s placed in pool %s\n", result.OrderID, result.Pool.Hex())
	fmt.Printf("  range      [%d, %d]\n", result.TickLower, result.TickUpper)
	fmt.Printf("  liquidity  %s\n", result.Liquidity)
	fmt.Printf("  deposited  %s token0 / %s token1\n", result.Amount0, result.Amount1)
	fmt.Printf("  fills after a %.4f%% price move\n", result.PriceMovePct)
	fmt.Printf("  tx         %s\n", result.TxHash.Hex())
	return nil
}
