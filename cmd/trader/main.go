package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Best effort; the key usually lives in .env as TRADER_PRIVATE_KEY.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "trader",
		Short:        "Uniswap v3 range-order trader",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("rpc", "", "RPC URL")
	root.PersistentFlags().String("factory", "", "Uniswap v3 factory address")
	root.PersistentFlags().String("position-manager", "", "NonfungiblePositionManager address")
	root.PersistentFlags().Float64("slippage-pct", 0.5, "slippage tolerance in percent")
	root.PersistentFlags().Duration("deadline", 20*time.Minute, "transaction deadline")
	root.PersistentFlags().Duration("tx-wait", 3*time.Minute, "receipt wait timeout")
	root.PersistentFlags().String("journal", "./data/orders.jsonl", "order journal JSONL path")
	root.PersistentFlags().String("pg-dsn", "", "Postgres DSN for the order journal (overrides JSONL)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	buyCmd := &cobra.Command{
		Use:   "buy",
		Short: "Place a limit buy order below the current price",
		Long: `Escrows token-in just below the market; it converts into token-out as the
price falls through the target. Mind the quote direction: --price is the
amount of token-in paid per unit of token-out acquired, not the inverse.`,
		RunE: runBuy,
	}
	addPlaceFlags(buyCmd)
	root.AddCommand(buyCmd)

	sellCmd := &cobra.Command{
		Use:   "sell",
		Short: "Place a limit sell order above the current price",
		Long: `Escrows token-in just above the market; it converts into token-out as the
price rises through the target. --price is the amount of token-out received
per unit of token-in sold.`,
		RunE: runSell,
	}
	addPlaceFlags(sellCmd)
	root.AddCommand(sellCmd)

	increaseCmd := &cobra.Command{
		Use:   "increase",
		Short: "Add funds to an existing order",
		RunE:  runIncrease,
	}
	increaseCmd.Flags().String("order", "", "order id")
	increaseCmd.Flags().String("amount0", "0", "token0 amount to add (raw units)")
	increaseCmd.Flags().String("amount1", "0", "token1 amount to add (raw units)")
	root.AddCommand(increaseCmd)

	decreaseCmd := &cobra.Command{
		Use:   "decrease",
		Short: "Withdraw a percentage of an order's liquidity",
		RunE:  runDecrease,
	}
	decreaseCmd.Flags().String("order", "", "order id")
	decreaseCmd.Flags().Uint8("percent", 100, "percentage of liquidity to remove (1-100)")
	root.AddCommand(decreaseCmd)

	cancelCmd := &cobra.Command{
		Use:   "cancel",
		Short: "Withdraw all liquidity and collect the proceeds",
		RunE:  runCancel,
	}
	cancelCmd.Flags().String("order", "", "order id")
	root.AddCommand(cancelCmd)

	collectCmd := &cobra.Command{
		Use:   "collect",
		Short: "Claim everything owed to an order",
		RunE:  runCollect,
	}
	collectCmd.Flags().String("order", "", "order id")
	root.AddCommand(collectCmd)

	ordersCmd := &cobra.Command{
		Use:   "orders",
		Short: "List the wallet's open orders",
		RunE:  runOrders,
	}
	root.AddCommand(ordersCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Show the current pool price and tick for a pair",
		RunE:  runQuote,
	}
	quoteCmd.Flags().String("token-a", "", "first token address")
	quoteCmd.Flags().String("token-b", "", "second token address")
	quoteCmd.Flags().Uint32("fee", 3000, "fee tier (e.g. 500, 3000, 10000)")
	root.AddCommand(quoteCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addPlaceFlags(cmd *cobra.Command) {
	cmd.Flags().String("token-in", "", "token to spend")
	cmd.Flags().String("token-out", "", "token to receive")
	cmd.Flags().String("amount", "", "amount of token-in to commit (raw units)")
	cmd.Flags().String("price", "", "target price (buy: token-in per token-out; sell: token-out per token-in)")
	cmd.Flags().Uint32("fee", 3000, "fee tier (e.g. 500, 3000, 10000)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
