package main

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rangeTrader/internal/chain"
	"rangeTrader/internal/config"
	"rangeTrader/internal/order"
	"rangeTrader/internal/storage"
	"rangeTrader/internal/storage/postgres"
)

// app bundles the wired components behind a command. Build one per
// invocation with newApp and release it with Close.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	client  *chain.Client
	signer  *chain.Signer
	service *order.Service
	pg      *postgres.Store
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	if cfg.PrivateKey == "" {
		return nil, fmt.Errorf("TRADER_PRIVATE_KEY is required")
	}

	factory, err := config.ParseAddress(cfg.Factory)
	if err != nil {
		return nil, fmt.Errorf("factory: %w", err)
	}
	manager, err := config.ParseAddress(cfg.PositionManager)
	if err != nil {
		return nil, fmt.Errorf("position-manager: %w", err)
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	signer, err := chain.NewSigner(ctx, client, strings.TrimPrefix(cfg.PrivateKey, "0x"), cfg.TxWait, logger)
	if err != nil {
		client.Close()
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, client: client, signer: signer}

	if balance, err := client.BalanceAt(ctx, signer.From()); err == nil {
		logger.Debug("wallet connected",
			zap.String("wallet", signer.From().Hex()),
			zap.String("native_balance", balance.String()),
		)
	}

	var journal storage.Journal
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			a.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		a.pg = store
		journal = store
	} else if cfg.Journal != "" {
		journal = storage.NewJsonlJournal(cfg.Journal)
	}

	service, err := order.NewService(client, signer, order.Config{
		Factory:         factory,
		PositionManager: manager,
		SlippageBps:     cfg.SlippageBps(),
		Deadline:        cfg.Deadline,
		ChainID:         signer.ChainID().Uint64(),
	}, journal, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.service = service

	return a, nil
}

func (a *app) Close() {
	if a.pg != nil {
		a.pg.Close()
	}
	if a.client != nil {
		a.client.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// eventLoader exposes the journal read path when Postgres is configured.
// The JSONL journal is write-only; orders fall back to range-only status.
func (a *app) eventLoader() order.EventLoader {
	if a.pg != nil {
		return a.pg
	}
	return nil
}

func parseOrderID(cmd *cobra.Command) (*big.Int, error) {
	raw, _ := cmd.Flags().GetString("order")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("order id is required")
	}
	id, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("invalid order id %q", raw)
	}
	return id, nil
}

func parseAmount(cmd *cobra.Command, flag string) (*big.Int, error) {
	raw, _ := cmd.Flags().GetString(flag)
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s %q", flag, raw)
	}
	return amount, nil
}
