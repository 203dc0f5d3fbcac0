package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
// PrivateKey is env-only (TRADER_PRIVATE_KEY); it is never read from flags
// or a config file so it cannot leak into shell history or committed files.
type Config struct {
	RPCURL          string
	PrivateKey      string
	Factory         string
	PositionManager string
	SlippagePct     float64
	Deadline        time.Duration
	TxWait          time.Duration
	Journal         string
	PGDSN           string
	LogLevel        string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TRADER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("slippage-pct", 0.5)
	v.SetDefault("deadline", 20*time.Minute)
	v.SetDefault("tx-wait", 3*time.Minute)
	v.SetDefault("journal", "./data/orders.jsonl")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:          v.GetString("rpc"),
		PrivateKey:      v.GetString("private-key"),
		Factory:         v.GetString("factory"),
		PositionManager: v.GetString("position-manager"),
		SlippagePct:     v.GetFloat64("slippage-pct"),
		Deadline:        v.GetDuration("deadline"),
		TxWait:          v.GetDuration("tx-wait"),
		Journal:         v.GetString("journal"),
		PGDSN:           v.GetString("pg-dsn"),
		LogLevel:        v.GetString("log-level"),
	}

	if cfg.SlippagePct < 0 || cfg.SlippagePct >= 100 {
		return Config{}, fmt.Errorf("slippage-pct %v out of range [0, 100)", cfg.SlippagePct)
	}

	return cfg, nil
}

// SlippageBps converts the percentage setting to basis points for on-chain
// minimum calculations.
func (c Config) SlippageBps() uint32 {
	return uint32(c.SlippagePct * 100)
}

// ParseAddress validates and normalizes a hex contract address.
func ParseAddress(raw string) (common.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return common.Address{}, fmt.Errorf("address is empty")
	}
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("invalid address %q", trimmed)
	}
	return common.HexToAddress(trimmed), nil
}
