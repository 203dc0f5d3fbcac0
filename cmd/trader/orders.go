package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func runOrders(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.service.OrderBook(ctx, a.signer.From(), a.eventLoader())
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("no positions")
		return nil
	}

	fmt.Printf("%-10s %-8s %-8s %-22s %-12s %s\n", "ORDER", "SIDE", "STATUS", "RANGE", "TICK", "LIQUIDITY")
	for _, entry := range entries {
		snap := entry.Snapshot
		side := string(entry.Side)
		if side == "" {
			side = "-"
		}
		fmt.Printf("%-10s %-8s %-8s [%8d, %8d] %-12d %s\n",
			snap.OrderID, side, entry.Status, snap.TickLower, snap.TickUpper, snap.CurrentTick, snap.Liquidity)
		if snap.TokensOwed0.Sign() > 0 || snap.TokensOwed1.Sign() > 0 {
			fmt.Printf("%10s owed: %s token0 / %s token1\n", "", snap.TokensOwed0, snap.TokensOwed1)
		}
	}
	return nil
}
