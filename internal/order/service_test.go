package order

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/daoleno/uniswapv3-sdk/utils"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"rangeTrader/internal/dex"
	"rangeTrader/internal/model"
	"rangeTrader/internal/storage"
)

var (
	testOwner   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testFactory = common.HexToAddress("0xFFff000000000000000000000000000000000001")
	testManager = common.HexToAddress("0xC36442b4a4522E871399CD717aBDD847Ab11FE88")
	testPool    = common.HexToAddress("0x9999000000000000000000000000000000000009")
	testToken0  = common.HexToAddress("0xAAaa00000000000000000000000000000000000A")
	testToken1  = common.HexToAddress("0xBBbb00000000000000000000000000000000000b")

	testTime = time.Unix(1_700_000_000, 0)
)

// fakeCaller answers read-only calls from fixtures keyed by contract address
// and 4-byte selector. Arguments are not inspected. Queued answers, when
// present, are consumed one per call ahead of the registered fixture.
type fakeCaller struct {
	outputs map[string][]byte
	queues  map[string][]queuedResult
}

type queuedResult struct {
	out []byte
	err error
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{
		outputs: make(map[string][]byte),
		queues:  make(map[string][]queuedResult),
	}
}

func callKey(to common.Address, selector []byte) string {
	return strings.ToLower(to.Hex()) + ":" + common.Bytes2Hex(selector)
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if msg.To == nil || len(msg.Data) < 4 {
		return nil, fmt.Errorf("malformed call")
	}
	key := callKey(*msg.To, msg.Data[:4])
	if queue := f.queues[key]; len(queue) > 0 {
		next := queue[0]
		f.queues[key] = queue[1:]
		return next.out, next.err
	}
	out, ok := f.outputs[key]
	if !ok {
		return nil, fmt.Errorf("no fixture for call to %s selector %x", msg.To.Hex(), msg.Data[:4])
	}
	return out, nil
}

func (f *fakeCaller) register(t *testing.T, to common.Address, parsed abi.ABI, method string, values ...interface{}) {
	t.Helper()
	m, ok := parsed.Methods[method]
	if !ok {
		t.Fatalf("method %s not in abi", method)
	}
	out, err := m.Outputs.Pack(values...)
	if err != nil {
		t.Fatalf("pack %s outputs: %v", method, err)
	}
	f.outputs[callKey(to, m.ID)] = out
}

func (f *fakeCaller) enqueue(t *testing.T, to common.Address, parsed abi.ABI, method string, values ...interface{}) {
	t.Helper()
	m, ok := parsed.Methods[method]
	if !ok {
		t.Fatalf("method %s not in abi", method)
	}
	out, err := m.Outputs.Pack(values...)
	if err != nil {
		t.Fatalf("pack %s outputs: %v", method, err)
	}
	key := callKey(to, m.ID)
	f.queues[key] = append(f.queues[key], queuedResult{out: out})
}

func (f *fakeCaller) enqueueError(t *testing.T, to common.Address, parsed abi.ABI, method string, callErr error) {
	t.Helper()
	m, ok := parsed.Methods[method]
	if !ok {
		t.Fatalf("method %s not in abi", method)
	}
	key := callKey(to, m.ID)
	f.queues[key] = append(f.queues[key], queuedResult{err: callErr})
}

type sentTx struct {
	To   common.Address
	Data []byte
}

// fakeSender records every submitted transaction and answers with the
// receipt configured for the destination address.
type fakeSender struct {
	from     common.Address
	receipts map[common.Address]*types.Receipt
	sent     []sentTx
}

func newFakeSender() *fakeSender {
	return &fakeSender{from: testOwner, receipts: make(map[common.Address]*types.Receipt)}
}

func (f *fakeSender) From() common.Address { return f.from }

func (f *fakeSender) Send(_ context.Context, to common.Address, data []byte) (*types.Receipt, error) {
	f.sent = append(f.sent, sentTx{To: to, Data: data})
	receipt, ok := f.receipts[to]
	if !ok {
		return nil, fmt.Errorf("unexpected send to %s", to.Hex())
	}
	return receipt, nil
}

type memJournal struct {
	events []model.OrderEvent
}

func (m *memJournal) Append(_ context.Context, events []model.OrderEvent) error {
	m.events = append(m.events, events...)
	return nil
}

func newTestService(t *testing.T, caller dex.Caller, sender TransactionSender, journal *memJournal) *Service {
	t.Helper()
	// A nil *memJournal must become a nil interface, not a typed nil that the
	// service's nil check cannot see.
	var j storage.Journal
	if journal != nil {
		j = journal
	}
	svc, err := NewService(caller, sender, Config{
		Factory:         testFactory,
		PositionManager: testManager,
		SlippageBps:     50,
		ChainID:         56,
	}, j, zap.NewNop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.now = func() time.Time { return testTime }
	return svc
}

// registerPool installs the read fixtures for a pool at the given tick.
func registerPool(t *testing.T, caller *fakeCaller, tick int32) model.PoolState {
	t.Helper()
	poolABI, err := dex.V3PoolABI()
	if err != nil {
		t.Fatalf("pool abi: %v", err)
	}
	factoryABI, err := dex.V3FactoryABI()
	if err != nil {
		t.Fatalf("factory abi: %v", err)
	}
	erc20ABI, err := dex.ERC20ABI()
	if err != nil {
		t.Fatalf("erc20 abi: %v", err)
	}

	sqrtPrice, err := utils.GetSqrtRatioAtTick(int(tick))
	if err != nil {
		t.Fatalf("sqrt ratio at tick %d: %v", tick, err)
	}
	liquidity := new(big.Int).Exp(big.NewInt(10), big.NewInt(20), nil)

	caller.register(t, testFactory, factoryABI, "getPool", testPool)
	caller.register(t, testPool, poolABI, "token0", testToken0)
	caller.register(t, testPool, poolABI, "token1", testToken1)
	caller.register(t, testPool, poolABI, "fee", big.NewInt(3000))
	caller.register(t, testPool, poolABI, "tickSpacing", big.NewInt(10))
	caller.register(t, testPool, poolABI, "liquidity", liquidity)
	caller.register(t, testPool, poolABI, "slot0",
		sqrtPrice, big.NewInt(int64(tick)), uint16(0), uint16(0), uint16(0), uint8(0), true)

	caller.register(t, testToken0, erc20ABI, "decimals", uint8(18))
	caller.register(t, testToken1, erc20ABI, "decimals", uint8(18))

	return model.PoolState{
		Address:      testPool,
		Token0:       testToken0,
		Token1:       testToken1,
		Fee:          3000,
		TickSpacing:  10,
		SqrtPriceX96: sqrtPrice,
		Tick:         tick,
		Liquidity:    liquidity,
	}
}

func registerAllowance(t *testing.T, caller *fakeCaller, token common.Address, allowance *big.Int) {
	t.Helper()
	erc20ABI, err := dex.ERC20ABI()
	if err != nil {
		t.Fatalf("erc20 abi: %v", err)
	}
	caller.register(t, token, erc20ABI, "allowance", allowance)
}

func registerBalance(t *testing.T, caller *fakeCaller, token common.Address, balance *big.Int) {
	t.Helper()
	erc20ABI, err := dex.ERC20ABI()
	if err != nil {
		t.Fatalf("erc20 abi: %v", err)
	}
	caller.register(t, token, erc20ABI, "balanceOf", balance)
}

func mintReceipt(t *testing.T, tokenID, liquidity, amount0, amount1 *big.Int) *types.Receipt {
	t.Helper()
	managerABI, err := dex.PositionManagerABI()
	if err != nil {
		t.Fatalf("manager abi: %v", err)
	}
	data, err := managerABI.Events["IncreaseLiquidity"].Inputs.NonIndexed().Pack(liquidity, amount0, amount1)
	if err != nil {
		t.Fatalf("pack IncreaseLiquidity: %v", err)
	}

	return &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		TxHash: common.HexToHash("0xbeef"),
		Logs: []*types.Log{
			{
				Address: testManager,
				Topics: []common.Hash{
					managerABI.Events["Transfer"].ID,
					common.Hash{},
					common.BytesToHash(testOwner.Bytes()),
					common.BigToHash(tokenID),
				},
			},
			{
				Address: testManager,
				Topics: []common.Hash{
					managerABI.Events["IncreaseLiquidity"].ID,
					common.BigToHash(tokenID),
				},
				Data: data,
			},
		},
	}
}

func eventReceipt(t *testing.T, name string, tokenID *big.Int, values ...interface{}) *types.Receipt {
	t.Helper()
	managerABI, err := dex.PositionManagerABI()
	if err != nil {
		t.Fatalf("manager abi: %v", err)
	}
	data, err := managerABI.Events[name].Inputs.NonIndexed().Pack(values...)
	if err != nil {
		t.Fatalf("pack %s: %v", name, err)
	}
	return &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		TxHash: common.HexToHash("0xcafe"),
		Logs: []*types.Log{{
			Address: testManager,
			Topics:  []common.Hash{managerABI.Events[name].ID, common.BigToHash(tokenID)},
			Data:    data,
		}},
	}
}

func TestPlaceSellOrderApprovesAndMints(t *testing.T) {
	caller := newFakeCaller()
	state := registerPool(t, caller, 1000)
	registerAllowance(t, caller, testToken0, big.NewInt(0))
	registerBalance(t, caller, testToken0, dex.MaxUint128)

	amountIn := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	sizing, err := ComputeMintAmounts(state, 1050, 1060, amountIn, nil)
	if err != nil {
		t.Fatalf("compute mint amounts: %v", err)
	}

	sender := newFakeSender()
	sender.receipts[testToken0] = &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: common.HexToHash("0xa1")}
	sender.receipts[testManager] = mintReceipt(t, big.NewInt(42), sizing.Liquidity, sizing.Amount0, big.NewInt(0))

	journal := &memJournal{}
	svc := newTestService(t, caller, sender, journal)

	// Selling token0 above market: 1.0001^1047, one spacing above lands the
	// range at [1050, 1060].
	price, _ := decimal.NewFromString("1.1103707")
	result, err := svc.PlaceSellOrder(context.Background(), testToken0, testToken1, amountIn, price, 3000)
	if err != nil {
		t.Fatalf("place sell order: %v", err)
	}

	if len(sender.sent) != 2 {
		t.Fatalf("expected approve then mint, got %d sends", len(sender.sent))
	}

	approveData, err := dex.PackApprove(testManager, sizing.Amount0)
	if err != nil {
		t.Fatalf("pack approve: %v", err)
	}
	if sender.sent[0].To != testToken0 || !bytes.Equal(sender.sent[0].Data, approveData) {
		t.Fatalf("first send is not the exact-amount approval")
	}

	mintData, err := dex.PackMint(dex.MintParams{
		Token0:         testToken0,
		Token1:         testToken1,
		Fee:            big.NewInt(3000),
		TickLower:      big.NewInt(1050),
		TickUpper:      big.NewInt(1060),
		Amount0Desired: sizing.Amount0,
		Amount1Desired: sizing.Amount1,
		Amount0Min:     ApplySlippage(sizing.Amount0, 50),
		Amount1Min:     ApplySlippage(sizing.Amount1, 50),
		Recipient:      testOwner,
		Deadline:       big.NewInt(testTime.Add(20 * time.Minute).Unix()),
	})
	if err != nil {
		t.Fatalf("pack mint: %v", err)
	}
	if sender.sent[1].To != testManager || !bytes.Equal(sender.sent[1].Data, mintData) {
		t.Fatalf("mint calldata mismatch")
	}

	if result.OrderID.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("order id mismatch: %s", result.OrderID)
	}
	if result.TickLower != 1050 || result.TickUpper != 1060 {
		t.Fatalf("range mismatch: [%d, %d]", result.TickLower, result.TickUpper)
	}
	if !result.ZeroForOne {
		t.Fatalf("expected zeroForOne for a token0 entry")
	}
	if result.PriceMovePct <= 0 {
		t.Fatalf("expected positive price move, got %v", result.PriceMovePct)
	}

	if len(journal.events) != 1 {
		t.Fatalf("expected one journal event, got %d", len(journal.events))
	}
	event := journal.events[0]
	if event.Kind != model.EventPlaced || event.Side != model.SideSell || !event.ZeroForOne {
		t.Fatalf("journal event mismatch: %+v", event)
	}
	if event.OrderID != "42" || event.Wallet != testOwner.Hex() {
		t.Fatalf("journal identity mismatch: %+v", event)
	}
}

func TestPlaceBuyOrderSkipsApprovalWhenFunded(t *testing.T) {
	caller := newFakeCaller()
	state := registerPool(t, caller, 1000)
	registerAllowance(t, caller, testToken1, dex.MaxUint128)
	registerBalance(t, caller, testToken1, dex.MaxUint128)

	amountIn := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	sizing, err := ComputeMintAmounts(state, 940, 950, nil, amountIn)
	if err != nil {
		t.Fatalf("compute mint amounts: %v", err)
	}

	sender := newFakeSender()
	sender.receipts[testManager] = mintReceipt(t, big.NewInt(7), sizing.Liquidity, big.NewInt(0), sizing.Amount1)

	journal := &memJournal{}
	svc := newTestService(t, caller, sender, journal)

	// Buying token0 with token1 below market: price 1.1 maps to tick 953,
	// aligned to 950, so the range sits at [940, 950].
	price, _ := decimal.NewFromString("1.1")
	result, err := svc.PlaceBuyOrder(context.Background(), testToken1, testToken0, amountIn, price, 3000)
	if err != nil {
		t.Fatalf("place buy order: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected a single mint send, got %d", len(sender.sent))
	}
	if sender.sent[0].To != testManager {
		t.Fatalf("unexpected destination %s", sender.sent[0].To.Hex())
	}
	if result.TickLower != 940 || result.TickUpper != 950 {
		t.Fatalf("range mismatch: [%d, %d]", result.TickLower, result.TickUpper)
	}
	if result.ZeroForOne {
		t.Fatalf("token1 entry must not be zeroForOne")
	}
	if len(journal.events) != 1 || journal.events[0].Side != model.SideBuy || journal.events[0].ZeroForOne {
		t.Fatalf("journal event mismatch: %+v", journal.events)
	}
}

func TestPlaceRejectsWrongSideWithoutSending(t *testing.T) {
	caller := newFakeCaller()
	registerPool(t, caller, 1000)

	sender := newFakeSender()
	svc := newTestService(t, caller, sender, nil)

	// Parity price maps to tick 0, at or below the current tick 1000.
	_, err := svc.PlaceSellOrder(context.Background(), testToken0, testToken1, big.NewInt(1_000_000), decimal.NewFromInt(1), 3000)
	if !errors.Is(err, ErrWrongSideOfPrice) {
		t.Fatalf("expected ErrWrongSideOfPrice, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("no transaction may be sent for a rejected order, got %d", len(sender.sent))
	}
}

func TestPlaceNoPool(t *testing.T) {
	caller := newFakeCaller()
	factoryABI, err := dex.V3FactoryABI()
	if err != nil {
		t.Fatalf("factory abi: %v", err)
	}
	caller.register(t, testFactory, factoryABI, "getPool", common.Address{})

	sender := newFakeSender()
	svc := newTestService(t, caller, sender, nil)

	price, _ := decimal.NewFromString("1.2")
	_, err = svc.PlaceSellOrder(context.Background(), testToken0, testToken1, big.NewInt(1_000_000), price, 3000)
	if !errors.Is(err, ErrNoPool) {
		t.Fatalf("expected ErrNoPool, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("no transaction may be sent without a pool")
	}
}

func TestPlaceRejectsForeignToken(t *testing.T) {
	caller := newFakeCaller()
	registerPool(t, caller, 1000)

	sender := newFakeSender()
	svc := newTestService(t, caller, sender, nil)

	intruder := common.HexToAddress("0xDDdd00000000000000000000000000000000000d")
	price, _ := decimal.NewFromString("1.2")
	_, err := svc.PlaceSellOrder(context.Background(), intruder, testToken1, big.NewInt(1_000_000), price, 3000)
	if !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}
}

func TestPlaceRejectsInsufficientBalance(t *testing.T) {
	caller := newFakeCaller()
	registerPool(t, caller, 1000)
	registerBalance(t, caller, testToken0, big.NewInt(1))

	sender := newFakeSender()
	svc := newTestService(t, caller, sender, nil)

	price, _ := decimal.NewFromString("1.1103707")
	amountIn := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	_, err := svc.PlaceSellOrder(context.Background(), testToken0, testToken1, amountIn, price, 3000)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("no transaction may be sent without funds")
	}
}

func TestPlaceMintEventMissing(t *testing.T) {
	caller := newFakeCaller()
	registerPool(t, caller, 1000)
	registerAllowance(t, caller, testToken0, dex.MaxUint128)
	registerBalance(t, caller, testToken0, dex.MaxUint128)

	sender := newFakeSender()
	// A successful receipt with no Transfer log: gas was spent, the id is
	// unrecoverable from the receipt.
	sender.receipts[testManager] = &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		TxHash: common.HexToHash("0xdead"),
	}

	svc := newTestService(t, caller, sender, nil)

	price, _ := decimal.NewFromString("1.1103707")
	amountIn := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	_, err := svc.PlaceSellOrder(context.Background(), testToken0, testToken1, amountIn, price, 3000)
	if !errors.Is(err, ErrMintEventMissing) {
		t.Fatalf("expected ErrMintEventMissing, got %v", err)
	}
}

func registerPosition(t *testing.T, caller *fakeCaller, tickLower, tickUpper int32, liquidity *big.Int) {
	t.Helper()
	managerABI, err := dex.PositionManagerABI()
	if err != nil {
		t.Fatalf("manager abi: %v", err)
	}
	caller.register(t, testManager, managerABI, "positions",
		big.NewInt(0),     // nonce
		common.Address{},  // operator
		testToken0,
		testToken1,
		big.NewInt(3000),
		big.NewInt(int64(tickLower)),
		big.NewInt(int64(tickUpper)),
		liquidity,
		big.NewInt(0), // feeGrowthInside0LastX128
		big.NewInt(0), // feeGrowthInside1LastX128
		big.NewInt(0), // tokensOwed0
		big.NewInt(0), // tokensOwed1
	)
}

func TestDecreaseLiquidityPercent(t *testing.T) {
	caller := newFakeCaller()
	state := registerPool(t, caller, 1000)
	registerPosition(t, caller, 1050, 1060, big.NewInt(1000))

	orderID := big.NewInt(42)
	removed := big.NewInt(400) // 40% of 1000

	expected0, expected1, err := ComputeBurnAmounts(state, 1050, 1060, removed)
	if err != nil {
		t.Fatalf("compute burn amounts: %v", err)
	}

	sender := newFakeSender()
	sender.receipts[testManager] = eventReceipt(t, "DecreaseLiquidity", orderID, removed, expected0, expected1)

	journal := &memJournal{}
	svc := newTestService(t, caller, sender, journal)

	result, err := svc.DecreaseLiquidity(context.Background(), orderID, 40)
	if err != nil {
		t.Fatalf("decrease liquidity: %v", err)
	}

	expectedData, err := dex.PackDecreaseLiquidity(dex.DecreaseParams{
		TokenId:    orderID,
		Liquidity:  removed,
		Amount0Min: ApplySlippage(expected0, 50),
		Amount1Min: ApplySlippage(expected1, 50),
		Deadline:   big.NewInt(testTime.Add(20 * time.Minute).Unix()),
	})
	if err != nil {
		t.Fatalf("pack decrease: %v", err)
	}
	if len(sender.sent) != 1 || !bytes.Equal(sender.sent[0].Data, expectedData) {
		t.Fatalf("decrease calldata mismatch")
	}
	if result.Liquidity.Cmp(removed) != 0 {
		t.Fatalf("removed liquidity mismatch: %s", result.Liquidity)
	}
	if len(journal.events) != 1 || journal.events[0].Kind != model.EventDecreased {
		t.Fatalf("journal event mismatch: %+v", journal.events)
	}
}

func TestDecreaseLiquidityRejectsBadPercent(t *testing.T) {
	caller := newFakeCaller()
	sender := newFakeSender()
	svc := newTestService(t, caller, sender, nil)

	for _, percent := range []uint8{0, 101, 255} {
		if _, err := svc.DecreaseLiquidity(context.Background(), big.NewInt(42), percent); !errors.Is(err, ErrInvalidPercentage) {
			t.Fatalf("percent %d: expected ErrInvalidPercentage, got %v", percent, err)
		}
	}
	if len(sender.sent) != 0 {
		t.Fatalf("no transaction may be sent for an invalid percent")
	}
}

func TestDecreaseLiquidityEmptyPosition(t *testing.T) {
	caller := newFakeCaller()
	registerPosition(t, caller, 1050, 1060, big.NewInt(0))

	sender := newFakeSender()
	svc := newTestService(t, caller, sender, nil)

	if _, err := svc.DecreaseLiquidity(context.Background(), big.NewInt(42), 100); !errors.Is(err, ErrZeroLiquidity) {
		t.Fatalf("expected ErrZeroLiquidity, got %v", err)
	}
}

func TestCollectIsIdempotent(t *testing.T) {
	caller := newFakeCaller()
	orderID := big.NewInt(42)

	sender := newFakeSender()
	sender.receipts[testManager] = eventReceipt(t, "Collect", orderID, testOwner, big.NewInt(0), big.NewInt(0))

	svc := newTestService(t, caller, sender, nil)

	expectedData, err := dex.PackCollect(dex.CollectParams{
		TokenId:    orderID,
		Recipient:  testOwner,
		Amount0Max: dex.MaxUint128,
		Amount1Max: dex.MaxUint128,
	})
	if err != nil {
		t.Fatalf("pack collect: %v", err)
	}

	for i := 0; i < 2; i++ {
		result, err := svc.Collect(context.Background(), orderID)
		if err != nil {
			t.Fatalf("collect attempt %d: %v", i+1, err)
		}
		if result.Amount0.Sign() != 0 || result.Amount1.Sign() != 0 {
			t.Fatalf("expected zero amounts, got %s / %s", result.Amount0, result.Amount1)
		}
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected two collect sends, got %d", len(sender.sent))
	}
	if !bytes.Equal(sender.sent[0].Data, expectedData) {
		t.Fatalf("collect calldata mismatch")
	}
}

func TestPlaceHonorsZeroSlippage(t *testing.T) {
	caller := newFakeCaller()
	state := registerPool(t, caller, 1000)
	registerAllowance(t, caller, testToken0, dex.MaxUint128)
	registerBalance(t, caller, testToken0, dex.MaxUint128)

	amountIn := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	sizing, err := ComputeMintAmounts(state, 1050, 1060, amountIn, nil)
	if err != nil {
		t.Fatalf("compute mint amounts: %v", err)
	}

	sender := newFakeSender()
	sender.receipts[testManager] = mintReceipt(t, big.NewInt(11), sizing.Liquidity, sizing.Amount0, big.NewInt(0))

	// An explicit zero is zero tolerance, not a request for the default.
	svc, err := NewService(caller, sender, Config{
		Factory:         testFactory,
		PositionManager: testManager,
		SlippageBps:     0,
		ChainID:         56,
	}, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.now = func() time.Time { return testTime }

	price, _ := decimal.NewFromString("1.1103707")
	if _, err := svc.PlaceSellOrder(context.Background(), testToken0, testToken1, amountIn, price, 3000); err != nil {
		t.Fatalf("place sell order: %v", err)
	}

	mintData, err := dex.PackMint(dex.MintParams{
		Token0:         testToken0,
		Token1:         testToken1,
		Fee:            big.NewInt(3000),
		TickLower:      big.NewInt(1050),
		TickUpper:      big.NewInt(1060),
		Amount0Desired: sizing.Amount0,
		Amount1Desired: sizing.Amount1,
		Amount0Min:     sizing.Amount0,
		Amount1Min:     sizing.Amount1,
		Recipient:      testOwner,
		Deadline:       big.NewInt(testTime.Add(20 * time.Minute).Unix()),
	})
	if err != nil {
		t.Fatalf("pack mint: %v", err)
	}
	if len(sender.sent) != 1 || !bytes.Equal(sender.sent[0].Data, mintData) {
		t.Fatalf("zero-slippage minimums must equal the desired amounts")
	}
}

func TestIncreaseLiquidity(t *testing.T) {
	caller := newFakeCaller()
	registerPosition(t, caller, 1050, 1060, big.NewInt(1000))
	registerAllowance(t, caller, testToken0, dex.MaxUint128)

	orderID := big.NewInt(42)
	add0 := big.NewInt(500_000)

	sender := newFakeSender()
	sender.receipts[testManager] = eventReceipt(t, "IncreaseLiquidity", orderID, big.NewInt(250), add0, big.NewInt(0))

	journal := &memJournal{}
	svc := newTestService(t, caller, sender, journal)

	result, err := svc.IncreaseLiquidity(context.Background(), orderID, add0, nil)
	if err != nil {
		t.Fatalf("increase liquidity: %v", err)
	}
	if result.Liquidity.Cmp(big.NewInt(250)) != 0 {
		t.Fatalf("liquidity mismatch: %s", result.Liquidity)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected a single send with a sufficient allowance, got %d", len(sender.sent))
	}
	if len(journal.events) != 1 || journal.events[0].Kind != model.EventIncreased {
		t.Fatalf("journal event mismatch: %+v", journal.events)
	}
}
