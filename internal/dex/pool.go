package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"rangeTrader/internal/model"
)

// Caller performs read-only contract calls.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// ResolvePool asks the factory for the pool of a token pair and fee tier.
// The zero address means no pool exists; that is terminal, not transient.
func ResolvePool(ctx context.Context, caller Caller, factory, tokenA, tokenB common.Address, fee uint32) (common.Address, bool, error) {
	factoryABI, err := V3FactoryABI()
	if err != nil {
		return common.Address{}, false, fmt.Errorf("parse factory abi: %w", err)
	}

	values, err := callMethod(ctx, caller, factory, factoryABI, "getPool", tokenA, tokenB, big.NewInt(int64(fee)))
	if err != nil {
		return common.Address{}, false, err
	}
	pool, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, false, fmt.Errorf("getPool: %w", err)
	}
	if pool == (common.Address{}) {
		return common.Address{}, false, nil
	}
	return pool, true, nil
}

// FetchPoolState reads the pool's current slot0, liquidity, tick spacing,
// tokens, and fee in one snapshot.
func FetchPoolState(ctx context.Context, caller Caller, pool common.Address) (model.PoolState, error) {
	if caller == nil {
		return model.PoolState{}, fmt.Errorf("caller is nil")
	}

	poolABI, err := V3PoolABI()
	if err != nil {
		return model.PoolState{}, fmt.Errorf("parse pool abi: %w", err)
	}

	state := model.PoolState{Address: pool}

	values, err := callMethod(ctx, caller, pool, poolABI, "token0")
	if err != nil {
		return model.PoolState{}, err
	}
	if state.Token0, err = asAddress(values[0]); err != nil {
		return model.PoolState{}, fmt.Errorf("token0: %w", err)
	}

	values, err = callMethod(ctx, caller, pool, poolABI, "token1")
	if err != nil {
		return model.PoolState{}, err
	}
	if state.Token1, err = asAddress(values[0]); err != nil {
		return model.PoolState{}, fmt.Errorf("token1: %w", err)
	}

	values, err = callMethod(ctx, caller, pool, poolABI, "fee")
	if err != nil {
		return model.PoolState{}, err
	}
	feeInt, err := asBigInt(values[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("fee: %w", err)
	}
	state.Fee = uint32(feeInt.Uint64())

	values, err = callMethod(ctx, caller, pool, poolABI, "tickSpacing")
	if err != nil {
		return model.PoolState{}, err
	}
	spacingInt, err := asBigInt(values[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("tick spacing: %w", err)
	}
	if state.TickSpacing, err = int24FromBig(spacingInt); err != nil {
		return model.PoolState{}, fmt.Errorf("tick spacing: %w", err)
	}

	values, err = callMethod(ctx, caller, pool, poolABI, "liquidity")
	if err != nil {
		return model.PoolState{}, err
	}
	if state.Liquidity, err = asBigInt(values[0]); err != nil {
		return model.PoolState{}, fmt.Errorf("liquidity: %w", err)
	}

	values, err = callMethod(ctx, caller, pool, poolABI, "slot0")
	if err != nil {
		return model.PoolState{}, err
	}
	if len(values) < 2 {
		return model.PoolState{}, fmt.Errorf("slot0: unexpected output arity %d", len(values))
	}
	if state.SqrtPriceX96, err = asBigInt(values[0]); err != nil {
		return model.PoolState{}, fmt.Errorf("slot0 sqrt price: %w", err)
	}
	tickInt, err := asBigInt(values[1])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("slot0 tick: %w", err)
	}
	if state.Tick, err = int24FromBig(tickInt); err != nil {
		return model.PoolState{}, fmt.Errorf("slot0 tick: %w", err)
	}

	return state, nil
}

// FetchTokenDecimals reads the ERC20 decimals for a token.
func FetchTokenDecimals(ctx context.Context, caller Caller, token common.Address) (uint8, error) {
	erc20, err := ERC20ABI()
	if err != nil {
		return 0, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := callMethod(ctx, caller, token, erc20, "decimals")
	if err != nil {
		return 0, err
	}
	return asUint8(values[0])
}

// FetchTokenMeta loads token metadata via ERC20 calls, falling back to the
// bytes32 symbol/name variants used by older tokens.
func FetchTokenMeta(ctx context.Context, caller Caller, token common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: token.Hex()}
	if caller == nil {
		return meta, fmt.Errorf("caller is nil")
	}

	stringABI, err := ERC20ABI()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	values, err := callMethod(ctx, caller, token, stringABI, "decimals")
	if err != nil {
		return meta, err
	}
	if meta.Decimals, err = asUint8(values[0]); err != nil {
		return meta, err
	}

	if values, err := callMethod(ctx, caller, token, stringABI, "symbol"); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := callMethod(ctx, caller, token, bytes32ABI, "symbol"); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	} else if logger != nil {
		logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	if values, err := callMethod(ctx, caller, token, stringABI, "name"); err == nil {
		if name, ok := values[0].(string); ok {
			meta.Name = name
		}
	} else if values, err := callMethod(ctx, caller, token, bytes32ABI, "name"); err == nil {
		if name, ok := bytes32ToString(values[0]); ok {
			meta.Name = name
		}
	} else if logger != nil {
		logger.Debug("name call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}

func callMethod(ctx context.Context, caller Caller, contract common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &contract, Data: data}
	resp, err := caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16:
		return uint8(v), nil
	case uint32:
		return uint8(v), nil
	case uint64:
		return uint8(v), nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}

func int24FromBig(value *big.Int) (int32, error) {
	min := big.NewInt(-1 << 23)
	max := big.NewInt((1 << 23) - 1)
	if value.Cmp(min) < 0 || value.Cmp(max) > 0 {
		return 0, fmt.Errorf("int24 overflow: %s", value.String())
	}
	return int32(value.Int64()), nil
}
