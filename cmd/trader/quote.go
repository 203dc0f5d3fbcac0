package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"rangeTrader/internal/chain"
	"rangeTrader/internal/config"
	"rangeTrader/internal/dex"
	"rangeTrader/internal/order"
)

// runQuote is read-only: it connects without a signer and reports the pool's
// current price from slot0.
func runQuote(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	factory, err := config.ParseAddress(cfg.Factory)
	if err != nil {
		return fmt.Errorf("factory: %w", err)
	}

	tokenARaw, _ := cmd.Flags().GetString("token-a")
	tokenA, err := config.ParseAddress(tokenARaw)
	if err != nil {
		return fmt.Errorf("token-a: %w", err)
	}
	tokenBRaw, _ := cmd.Flags().GetString("token-b")
	tokenB, err := config.ParseAddress(tokenBRaw)
	if err != nil {
		return fmt.Errorf("token-b: %w", err)
	}
	fee, _ := cmd.Flags().GetUint32("fee")

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	pool, found, err := dex.ResolvePool(ctx, client, factory, tokenA, tokenB, fee)
	if err != nil {
		return fmt.Errorf("resolve pool: %w", err)
	}
	if !found {
		return errors.New("no pool for pair and fee tier")
	}

	state, err := dex.FetchPoolState(ctx, client, pool)
	if err != nil {
		return fmt.Errorf("fetch pool state: %w", err)
	}

	meta0, err := dex.FetchTokenMeta(ctx, client, state.Token0, logger)
	if err != nil {
		return fmt.Errorf("token0 meta: %w", err)
	}
	meta1, err := dex.FetchTokenMeta(ctx, client, state.Token1, logger)
	if err != nil {
		return fmt.Errorf("token1 meta: %w", err)
	}

	price := order.PriceOfTick(state.Tick, meta0.Decimals, meta1.Decimals)

	fmt.Printf("pool          %s\n", pool.Hex())
	fmt.Printf("pair          %s / %s (fee %d)\n", meta0.Symbol, meta1.Symbol, state.Fee)
	fmt.Printf("tick          %d (spacing %d)\n", state.Tick, state.TickSpacing)
	fmt.Printf("price         %s %s per %s\n", price.StringFixed(8), meta1.Symbol, meta0.Symbol)
	fmt.Printf("liquidity     %s\n", state.Liquidity)
	fmt.Printf("sqrtPriceX96  %s\n", state.SqrtPriceX96)
	return nil
}
