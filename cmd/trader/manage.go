package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func runIncrease(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orderID, err := parseOrderID(cmd)
	if err != nil {
		return err
	}
	amount0, err := parseAmount(cmd, "amount0")
	if err != nil {
		return err
	}
	amount1, err := parseAmount(cmd, "amount1")
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.service.IncreaseLiquidity(ctx, orderID, amount0, amount1)
	if err != nil {
		return err
	}

	fmt.Printf("order %s increased by %s liquidity (%s token0 / %s token1), tx %s\n",
		result.OrderID, result.Liquidity, result.Amount0, result.Amount1, result.TxHash.Hex())
	return nil
}

func runDecrease(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orderID, err := parseOrderID(cmd)
	if err != nil {
		return err
	}
	percent, _ := cmd.Flags().GetUint8("percent")

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.service.DecreaseLiquidity(ctx, orderID, percent)
	if err != nil {
		return err
	}

	fmt.Printf("order %s decreased by %s liquidity (%s token0 / %s token1 owed), tx %s\n",
		result.OrderID, result.Liquidity, result.Amount0, result.Amount1, result.TxHash.Hex())
	fmt.Println("run collect to claim the owed tokens")
	return nil
}

// runCancel removes all liquidity and immediately collects it. The two
// contract calls are separate transactions; if collect fails after the
// decrease succeeds, the owed tokens remain claimable via collect.
func runCancel(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orderID, err := parseOrderID(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	decrease, err := a.service.DecreaseLiquidity(ctx, orderID, 100)
	if err != nil {
		return err
	}
	fmt.Printf("order %s liquidity withdrawn, tx %s\n", decrease.OrderID, decrease.TxHash.Hex())

	collect, err := a.service.Collect(ctx, orderID)
	if err != nil {
		return fmt.Errorf("liquidity withdrawn but collect failed, retry with collect: %w", err)
	}

	fmt.Printf("order %s cancelled, received %s token0 / %s token1, tx %s\n",
		collect.OrderID, collect.Amount0, collect.Amount1, collect.TxHash.Hex())
	return nil
}

func runCollect(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orderID, err := parseOrderID(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.service.Collect(ctx, orderID)
	if err != nil {
		return err
	}

	fmt.Printf("order %s collected %s token0 / %s token1, tx %s\n",
		result.OrderID, result.Amount0, result.Amount1, result.TxHash.Hex())
	return nil
}
