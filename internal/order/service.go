package order

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"rangeTrader/internal/dex"
	"rangeTrader/internal/model"
	"rangeTrader/internal/storage"
)

const defaultDeadline = 20 * time.Minute

// TransactionSender signs and submits a contract call, blocking until the
// receipt is available. Implementations perform no retries: each call is
// at-most-once.
type TransactionSender interface {
	From() common.Address
	Send(ctx context.Context, to common.Address, calldata []byte) (*types.Receipt, error)
}

// Config holds the contract addresses and trading parameters for a Service.
// SlippageBps of zero is honored as zero tolerance: on-chain minimums equal
// the computed amounts. The CLI defaults it to 50 (0.5%) in the config layer.
type Config struct {
	Factory         common.Address
	PositionManager common.Address
	SlippageBps     uint32
	Deadline        time.Duration
	ChainID         uint64
}

// Service places and manages synthetic limit orders backed by one-sided
// concentrated-liquidity positions. All state lives on-chain; the journal
// only records intent for the order book view.
type Service struct {
	caller  dex.Caller
	sender  TransactionSender
	cfg     Config
	journal storage.Journal
	logger  *zap.Logger
	now     func() time.Time
}

// NewService builds a Service. The journal may be nil when no persistence
// is configured.
func NewService(caller dex.Caller, sender TransactionSender, cfg Config, journal storage.Journal, logger *zap.Logger) (*Service, error) {
	if caller == nil {
		return nil, fmt.Errorf("caller is nil")
	}
	if sender == nil {
		return nil, fmt.Errorf("sender is nil")
	}
	if cfg.Factory == (common.Address{}) {
		return nil, fmt.Errorf("factory address is required")
	}
	if cfg.PositionManager == (common.Address{}) {
		return nil, fmt.Errorf("position manager address is required")
	}
	if cfg.SlippageBps >= slippageDenominatorBps {
		return nil, fmt.Errorf("slippage %d bps out of range [0, %d)", cfg.SlippageBps, slippageDenominatorBps)
	}
	if cfg.Deadline <= 0 {
		cfg.Deadline = defaultDeadline
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		caller:  caller,
		sender:  sender,
		cfg:     cfg,
		journal: journal,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// PlaceResult describes a freshly minted order.
type PlaceResult struct {
	OrderID      *big.Int
	Pool         common.Address
	ZeroForOne   bool
	TickLower    int32
	TickUpper    int32
	Liquidity    *big.Int
	Amount0      *big.Int
	Amount1      *big.Int
	TxHash       common.Hash
	PriceMovePct float64
}

// ChangeResult describes an increase or decrease of an order's liquidity.
type ChangeResult struct {
	OrderID   *big.Int
	Liquidity *big.Int
	Amount0   *big.Int
	Amount1   *big.Int
	TxHash    common.Hash
}

// CollectResult describes the tokens claimed by a collect call.
type CollectResult struct {
	OrderID *big.Int
	Amount0 *big.Int
	Amount1 *big.Int
	TxHash  common.Hash
}

// PlaceBuyOrder places a limit order that acquires tokenOut with amountIn
// of tokenIn once the market reaches targetPrice. targetPrice is the price
// of tokenOut denominated in tokenIn and must sit below the current market
// price of tokenOut.
func (s *Service) PlaceBuyOrder(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int, targetPrice decimal.Decimal, fee uint32) (PlaceResult, error) {
	return s.place(ctx, model.SideBuy, tokenIn, tokenOut, amountIn, targetPrice, fee)
}

// PlaceSellOrder places a limit order that sells amountIn of tokenIn for
// tokenOut once the market reaches targetPrice. targetPrice is the price
// of tokenIn denominated in tokenOut and must sit above the current market
// price of tokenIn.
func (s *Service) PlaceSellOrder(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int, targetPrice decimal.Decimal, fee uint32) (PlaceResult, error) {
	return s.place(ctx, model.SideSell, tokenIn, tokenOut, amountIn, targetPrice, fee)
}

func (s *Service) place(ctx context.Context, side model.OrderSide, tokenIn, tokenOut common.Address, amountIn *big.Int, targetPrice decimal.Decimal, fee uint32) (PlaceResult, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return PlaceResult{}, fmt.Errorf("amount in must be positive")
	}
	if targetPrice.Sign() <= 0 {
		return PlaceResult{}, fmt.Errorf("target price must be positive")
	}

	pool, found, err := dex.ResolvePool(ctx, s.caller, s.cfg.Factory, tokenIn, tokenOut, fee)
	if err != nil {
		return PlaceResult{}, fmt.Errorf("resolve pool: %w", err)
	}
	if !found {
		return PlaceResult{}, fmt.Errorf("%w: %s/%s fee %d", ErrNoPool, tokenIn.Hex(), tokenOut.Hex(), fee)
	}

	state, err := dex.FetchPoolState(ctx, s.caller, pool)
	if err != nil {
		return PlaceResult{}, fmt.Errorf("fetch pool state: %w", err)
	}

	if tokenIn != state.Token0 && tokenIn != state.Token1 {
		return PlaceResult{}, fmt.Errorf("%w: %s", ErrUnknownToken, tokenIn.Hex())
	}
	zeroForOne := tokenIn == state.Token0

	decimals0, err := dex.FetchTokenDecimals(ctx, s.caller, state.Token0)
	if err != nil {
		return PlaceResult{}, fmt.Errorf("token0 decimals: %w", err)
	}
	decimals1, err := dex.FetchTokenDecimals(ctx, s.caller, state.Token1)
	if err != nil {
		return PlaceResult{}, fmt.Errorf("token1 decimals: %w", err)
	}

	// The user quotes the traded asset's price: tokenOut for a buy,
	// tokenIn for a sell. Normalize to the pool's token1-per-token0 form.
	asset := tokenIn
	if side == model.SideBuy {
		asset = tokenOut
	}
	poolPrice := targetPrice
	if asset == state.Token1 {
		poolPrice = decimal.NewFromInt(1).Div(targetPrice)
	}

	targetTick, err := TickForPrice(poolPrice, decimals0, decimals1)
	if err != nil {
		return PlaceResult{}, err
	}

	tickLower, tickUpper, err := ResolveRange(targetTick, state.Tick, state.TickSpacing, zeroForOne)
	if err != nil {
		return PlaceResult{}, err
	}

	amount0Desired := big.NewInt(0)
	amount1Desired := big.NewInt(0)
	if zeroForOne {
		amount0Desired = amountIn
	} else {
		amount1Desired = amountIn
	}

	sizing, err := ComputeMintAmounts(state, tickLower, tickUpper, amount0Desired, amount1Desired)
	if err != nil {
		return PlaceResult{}, err
	}

	required := sizing.Amount1
	if zeroForOne {
		required = sizing.Amount0
	}
	balance, err := dex.BalanceOf(ctx, s.caller, tokenIn, s.sender.From())
	if err != nil {
		return PlaceResult{}, fmt.Errorf("read balance: %w", err)
	}
	if balance.Cmp(required) < 0 {
		return PlaceResult{}, fmt.Errorf("%w: have %s, need %s of %s", ErrInsufficientBalance, balance, required, tokenIn.Hex())
	}
	if err := s.ensureAllowance(ctx, tokenIn, required); err != nil {
		return PlaceResult{}, err
	}

	calldata, err := dex.PackMint(dex.MintParams{
		Token0:         state.Token0,
		Token1:         state.Token1,
		Fee:            big.NewInt(int64(state.Fee)),
		TickLower:      big.NewInt(int64(tickLower)),
		TickUpper:      big.NewInt(int64(tickUpper)),
		Amount0Desired: sizing.Amount0,
		Amount1Desired: sizing.Amount1,
		Amount0Min:     ApplySlippage(sizing.Amount0, s.cfg.SlippageBps),
		Amount1Min:     ApplySlippage(sizing.Amount1, s.cfg.SlippageBps),
		Recipient:      s.sender.From(),
		Deadline:       s.deadline(),
	})
	if err != nil {
		return PlaceResult{}, err
	}

	receipt, err := s.sender.Send(ctx, s.cfg.PositionManager, calldata)
	if err != nil {
		return PlaceResult{}, fmt.Errorf("mint: %w", err)
	}

	outcome, err := dex.DecodeMintOutcome(receipt, s.cfg.PositionManager)
	if err != nil {
		// Gas was spent and the position may exist; this must surface as a
		// tracking failure, not be swallowed as success or revert.
		return PlaceResult{}, fmt.Errorf("%w: %v", ErrMintEventMissing, err)
	}

	targetBound := tickLower
	if !zeroForOne {
		targetBound = tickUpper
	}
	result := PlaceResult{
		OrderID:      outcome.TokenID,
		Pool:         pool,
		ZeroForOne:   zeroForOne,
		TickLower:    tickLower,
		TickUpper:    tickUpper,
		Liquidity:    outcome.Liquidity,
		Amount0:      outcome.Amount0,
		Amount1:      outcome.Amount1,
		TxHash:       receipt.TxHash,
		PriceMovePct: PriceMovePct(state.Tick, targetBound),
	}

	s.logger.Info("order placed",
		zap.String("order_id", outcome.TokenID.String()),
		zap.String("pool", pool.Hex()),
		zap.String("side", string(side)),
		zap.Int32("tick_lower", tickLower),
		zap.Int32("tick_upper", tickUpper),
		zap.String("tx", receipt.TxHash.Hex()),
	)

	s.journalEvent(ctx, model.OrderEvent{
		ChainID:    s.cfg.ChainID,
		OrderID:    outcome.TokenID.String(),
		Wallet:     s.sender.From().Hex(),
		Pool:       pool.Hex(),
		Kind:       model.EventPlaced,
		Side:       side,
		ZeroForOne: zeroForOne,
		TickLower:  tickLower,
		TickUpper:  tickUpper,
		Liquidity:  bigString(outcome.Liquidity),
		Amount0:    bigString(outcome.Amount0),
		Amount1:    bigString(outcome.Amount1),
		TxHash:     receipt.TxHash.Hex(),
		Timestamp:  s.now().Unix(),
	})

	return result, nil
}

// IncreaseLiquidity adds funds to an existing order at its original range.
func (s *Service) IncreaseLiquidity(ctx context.Context, orderID *big.Int, amount0, amount1 *big.Int) (ChangeResult, error) {
	if orderID == nil {
		return ChangeResult{}, fmt.Errorf("order id is required")
	}
	if amount0 == nil {
		amount0 = big.NewInt(0)
	}
	if amount1 == nil {
		amount1 = big.NewInt(0)
	}
	if amount0.Sign() <= 0 && amount1.Sign() <= 0 {
		return ChangeResult{}, fmt.Errorf("at least one amount must be positive")
	}

	pos, err := dex.FetchPosition(ctx, s.caller, s.cfg.PositionManager, orderID)
	if err != nil {
		return ChangeResult{}, fmt.Errorf("fetch position %s: %w", orderID, err)
	}

	if amount0.Sign() > 0 {
		if err := s.ensureAllowance(ctx, pos.Token0, amount0); err != nil {
			return ChangeResult{}, err
		}
	}
	if amount1.Sign() > 0 {
		if err := s.ensureAllowance(ctx, pos.Token1, amount1); err != nil {
			return ChangeResult{}, err
		}
	}

	calldata, err := dex.PackIncreaseLiquidity(dex.IncreaseParams{
		TokenId:        orderID,
		Amount0Desired: amount0,
		Amount1Desired: amount1,
		Amount0Min:     ApplySlippage(amount0, s.cfg.SlippageBps),
		Amount1Min:     ApplySlippage(amount1, s.cfg.SlippageBps),
		Deadline:       s.deadline(),
	})
	if err != nil {
		return ChangeResult{}, err
	}

	receipt, err := s.sender.Send(ctx, s.cfg.PositionManager, calldata)
	if err != nil {
		return ChangeResult{}, fmt.Errorf("increase liquidity: %w", err)
	}

	change, err := dex.DecodeIncreaseOutcome(receipt, s.cfg.PositionManager)
	if err != nil {
		return ChangeResult{}, fmt.Errorf("decode increase outcome: %w", err)
	}

	s.journalEvent(ctx, model.OrderEvent{
		ChainID:   s.cfg.ChainID,
		OrderID:   orderID.String(),
		Wallet:    s.sender.From().Hex(),
		Kind:      model.EventIncreased,
		TickLower: pos.TickLower,
		TickUpper: pos.TickUpper,
		Liquidity: bigString(change.Liquidity),
		Amount0:   bigString(change.Amount0),
		Amount1:   bigString(change.Amount1),
		TxHash:    receipt.TxHash.Hex(),
		Timestamp: s.now().Unix(),
	})

	return ChangeResult{
		OrderID:   orderID,
		Liquidity: change.Liquidity,
		Amount0:   change.Amount0,
		Amount1:   change.Amount1,
		TxHash:    receipt.TxHash,
	}, nil
}

// DecreaseLiquidity removes a percentage (1-100) of an order's liquidity.
// 100% is how an unfilled order is cancelled and how a filled order is
// realized; the contract does not distinguish the two.
func (s *Service) DecreaseLiquidity(ctx context.Context, orderID *big.Int, percent uint8) (ChangeResult, error) {
	if orderID == nil {
		return ChangeResult{}, fmt.Errorf("order id is required")
	}
	if percent < 1 || percent > 100 {
		return ChangeResult{}, fmt.Errorf("%w: got %d", ErrInvalidPercentage, percent)
	}

	pos, err := dex.FetchPosition(ctx, s.caller, s.cfg.PositionManager, orderID)
	if err != nil {
		return ChangeResult{}, fmt.Errorf("fetch position %s: %w", orderID, err)
	}
	if pos.Liquidity == nil || pos.Liquidity.Sign() == 0 {
		return ChangeResult{}, fmt.Errorf("%w: position %s holds no liquidity", ErrZeroLiquidity, orderID)
	}

	liquidity := new(big.Int).Mul(pos.Liquidity, big.NewInt(int64(percent)))
	liquidity.Div(liquidity, big.NewInt(100))
	if liquidity.Sign() == 0 {
		return ChangeResult{}, fmt.Errorf("%w: %d%% of %s rounds to zero", ErrZeroLiquidity, percent, pos.Liquidity)
	}

	pool, found, err := dex.ResolvePool(ctx, s.caller, s.cfg.Factory, pos.Token0, pos.Token1, pos.Fee)
	if err != nil {
		return ChangeResult{}, fmt.Errorf("resolve pool: %w", err)
	}
	if !found {
		return ChangeResult{}, fmt.Errorf("%w: position %s", ErrNoPool, orderID)
	}
	state, err := dex.FetchPoolState(ctx, s.caller, pool)
	if err != nil {
		return ChangeResult{}, fmt.Errorf("fetch pool state: %w", err)
	}

	expected0, expected1, err := ComputeBurnAmounts(state, pos.TickLower, pos.TickUpper, liquidity)
	if err != nil {
		return ChangeResult{}, err
	}

	calldata, err := dex.PackDecreaseLiquidity(dex.DecreaseParams{
		TokenId:    orderID,
		Liquidity:  liquidity,
		Amount0Min: ApplySlippage(expected0, s.cfg.SlippageBps),
		Amount1Min: ApplySlippage(expected1, s.cfg.SlippageBps),
		Deadline:   s.deadline(),
	})
	if err != nil {
		return ChangeResult{}, err
	}

	receipt, err := s.sender.Send(ctx, s.cfg.PositionManager, calldata)
	if err != nil {
		return ChangeResult{}, fmt.Errorf("decrease liquidity: %w", err)
	}

	change, err := dex.DecodeDecreaseOutcome(receipt, s.cfg.PositionManager)
	if err != nil {
		return ChangeResult{}, fmt.Errorf("decode decrease outcome: %w", err)
	}

	s.journalEvent(ctx, model.OrderEvent{
		ChainID:   s.cfg.ChainID,
		OrderID:   orderID.String(),
		Wallet:    s.sender.From().Hex(),
		Pool:      pool.Hex(),
		Kind:      model.EventDecreased,
		TickLower: pos.TickLower,
		TickUpper: pos.TickUpper,
		Liquidity: bigString(change.Liquidity),
		Amount0:   bigString(change.Amount0),
		Amount1:   bigString(change.Amount1),
		TxHash:    receipt.TxHash.Hex(),
		Timestamp: s.now().Unix(),
	})

	return ChangeResult{
		OrderID:   orderID,
		Liquidity: change.Liquidity,
		Amount0:   change.Amount0,
		Amount1:   change.Amount1,
		TxHash:    receipt.TxHash,
	}, nil
}

// Collect claims everything owed to the order: filled proceeds, withdrawn
// principal, and accrued fees. Collecting when nothing is owed transfers
// zero and is not an error.
func (s *Service) Collect(ctx context.Context, orderID *big.Int) (CollectResult, error) {
	if orderID == nil {
		return CollectResult{}, fmt.Errorf("order id is required")
	}

	calldata, err := dex.PackCollect(dex.CollectParams{
		TokenId:    orderID,
		Recipient:  s.sender.From(),
		Amount0Max: dex.MaxUint128,
		Amount1Max: dex.MaxUint128,
	})
	if err != nil {
		return CollectResult{}, err
	}

	receipt, err := s.sender.Send(ctx, s.cfg.PositionManager, calldata)
	if err != nil {
		return CollectResult{}, fmt.Errorf("collect: %w", err)
	}

	outcome, err := dex.DecodeCollectOutcome(receipt, s.cfg.PositionManager)
	if err != nil {
		return CollectResult{}, fmt.Errorf("decode collect outcome: %w", err)
	}

	s.journalEvent(ctx, model.OrderEvent{
		ChainID:   s.cfg.ChainID,
		OrderID:   orderID.String(),
		Wallet:    s.sender.From().Hex(),
		Kind:      model.EventCollected,
		Amount0:   bigString(outcome.Amount0),
		Amount1:   bigString(outcome.Amount1),
		TxHash:    receipt.TxHash.Hex(),
		Timestamp: s.now().Unix(),
	})

	return CollectResult{
		OrderID: orderID,
		Amount0: outcome.Amount0,
		Amount1: outcome.Amount1,
		TxHash:  receipt.TxHash,
	}, nil
}

// ensureAllowance reads the wallet's allowance for the position manager and,
// when short, approves exactly the required amount and waits for it to
// confirm before the caller proceeds. An approval failure aborts the flow
// before any mint is attempted.
func (s *Service) ensureAllowance(ctx context.Context, token common.Address, required *big.Int) error {
	if required == nil || required.Sign() <= 0 {
		return nil
	}

	allowance, err := dex.Allowance(ctx, s.caller, token, s.sender.From(), s.cfg.PositionManager)
	if err != nil {
		return fmt.Errorf("read allowance: %w", err)
	}
	if allowance.Cmp(required) >= 0 {
		return nil
	}

	calldata, err := dex.PackApprove(s.cfg.PositionManager, required)
	if err != nil {
		return err
	}

	receipt, err := s.sender.Send(ctx, token, calldata)
	if err != nil {
		return fmt.Errorf("approve %s for %s: %w", required, token.Hex(), err)
	}

	s.logger.Info("allowance granted",
		zap.String("token", token.Hex()),
		zap.String("amount", required.String()),
		zap.String("tx", receipt.TxHash.Hex()),
	)
	return nil
}

func (s *Service) deadline() *big.Int {
	return big.NewInt(s.now().Add(s.cfg.Deadline).Unix())
}

func (s *Service) journalEvent(ctx context.Context, event model.OrderEvent) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Append(ctx, []model.OrderEvent{event}); err != nil {
		s.logger.Warn("journal append failed",
			zap.String("order_id", event.OrderID),
			zap.String("kind", string(event.Kind)),
			zap.Error(err),
		)
	}
}

func bigString(value *big.Int) string {
	if value == nil {
		return ""
	}
	return value.String()
}
