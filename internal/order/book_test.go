package order

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"rangeTrader/internal/dex"
	"rangeTrader/internal/model"
)

type memLoader struct {
	events []model.OrderEvent
	err    error
}

func (m *memLoader) LoadEvents(context.Context, string) ([]model.OrderEvent, error) {
	return m.events, m.err
}

func TestListPositionsSkipsFailingReads(t *testing.T) {
	caller := newFakeCaller()
	registerPool(t, caller, 1000)
	registerPosition(t, caller, 1050, 1060, big.NewInt(1000))

	managerABI, err := dex.PositionManagerABI()
	if err != nil {
		t.Fatalf("manager abi: %v", err)
	}
	caller.register(t, testManager, managerABI, "balanceOf", big.NewInt(2))
	caller.enqueue(t, testManager, managerABI, "tokenOfOwnerByIndex", big.NewInt(7))
	caller.enqueue(t, testManager, managerABI, "tokenOfOwnerByIndex", big.NewInt(8))
	// The first position read reverts; the second is served by the fixture.
	caller.enqueueError(t, testManager, managerABI, "positions", errors.New("execution reverted"))

	svc := newTestService(t, caller, newFakeSender(), nil)

	snapshots, err := svc.ListPositions(context.Background(), testOwner)
	if err != nil {
		t.Fatalf("list positions: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("expected only the surviving position, got %d", len(snapshots))
	}
	snap := snapshots[0]
	if snap.OrderID.Cmp(big.NewInt(8)) != 0 {
		t.Fatalf("order id mismatch: %s", snap.OrderID)
	}
	if snap.CurrentTick != 1000 || snap.RangeSide != model.RangeAbovePrice {
		t.Fatalf("snapshot mismatch: %+v", snap)
	}
}

func TestOrderBookJoinsJournaledSide(t *testing.T) {
	caller := newFakeCaller()
	registerPool(t, caller, 1070)
	registerPosition(t, caller, 1050, 1060, big.NewInt(1000))

	managerABI, err := dex.PositionManagerABI()
	if err != nil {
		t.Fatalf("manager abi: %v", err)
	}
	caller.register(t, testManager, managerABI, "balanceOf", big.NewInt(1))
	caller.register(t, testManager, managerABI, "tokenOfOwnerByIndex", big.NewInt(9))

	svc := newTestService(t, caller, newFakeSender(), nil)

	loader := &memLoader{events: []model.OrderEvent{{
		OrderID:    "9",
		Kind:       model.EventPlaced,
		Side:       model.SideSell,
		ZeroForOne: true,
	}}}
	entries, err := svc.OrderBook(context.Background(), testOwner, loader)
	if err != nil {
		t.Fatalf("order book: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if entries[0].Side != model.SideSell || entries[0].Status != model.StatusFilled {
		t.Fatalf("joined entry mismatch: side %q status %s", entries[0].Side, entries[0].Status)
	}

	// Without a journal the direction is unknown; a crossed range can only
	// be called pending.
	entries, err = svc.OrderBook(context.Background(), testOwner, nil)
	if err != nil {
		t.Fatalf("order book without loader: %v", err)
	}
	if len(entries) != 1 || entries[0].Side != "" || entries[0].Status != model.StatusPending {
		t.Fatalf("fallback entry mismatch: %+v", entries)
	}
}

func snapshotAt(currentTick, lower, upper int32, liquidity int64) model.PositionSnapshot {
	return model.PositionSnapshot{
		OrderID:     big.NewInt(1),
		TickLower:   lower,
		TickUpper:   upper,
		Liquidity:   big.NewInt(liquidity),
		CurrentTick: currentTick,
		RangeSide:   classifyRange(currentTick, lower, upper),
	}
}

func TestInferStatus(t *testing.T) {
	cases := []struct {
		name       string
		snap       model.PositionSnapshot
		zeroForOne bool
		want       model.OrderStatus
	}{
		{"token0 waiting below range", snapshotAt(1000, 1050, 1060, 500), true, model.StatusPending},
		{"token0 price inside range", snapshotAt(1055, 1050, 1060, 500), true, model.StatusPartial},
		{"token0 price crossed range", snapshotAt(1070, 1050, 1060, 500), true, model.StatusFilled},
		{"token0 price at upper bound", snapshotAt(1060, 1050, 1060, 500), true, model.StatusFilled},
		{"token1 waiting above range", snapshotAt(1000, 940, 950, 500), false, model.StatusPending},
		{"token1 price inside range", snapshotAt(945, 940, 950, 500), false, model.StatusPartial},
		{"token1 price crossed range", snapshotAt(930, 940, 950, 500), false, model.StatusFilled},
		{"no liquidity is closed", snapshotAt(1000, 1050, 1060, 0), true, model.StatusClosed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := InferStatus(tc.snap, tc.zeroForOne); got != tc.want {
				t.Fatalf("status mismatch: got %s want %s", got, tc.want)
			}
		})
	}
}

func TestClassifyRange(t *testing.T) {
	cases := []struct {
		currentTick int32
		lower       int32
		upper       int32
		want        model.RangeSide
	}{
		{1000, 1050, 1060, model.RangeAbovePrice},
		{1070, 1050, 1060, model.RangeBelowPrice},
		{1060, 1050, 1060, model.RangeBelowPrice},
		{1055, 1050, 1060, model.RangeInPrice},
		{1050, 1050, 1060, model.RangeInPrice},
	}

	for _, tc := range cases {
		if got := classifyRange(tc.currentTick, tc.lower, tc.upper); got != tc.want {
			t.Fatalf("tick %d range [%d, %d]: got %s want %s", tc.currentTick, tc.lower, tc.upper, got, tc.want)
		}
	}
}

func TestStatusFromRangeFallback(t *testing.T) {
	if got := statusFromRange(snapshotAt(1055, 1050, 1060, 500)); got != model.StatusPartial {
		t.Fatalf("in-range fallback: got %s", got)
	}
	if got := statusFromRange(snapshotAt(1000, 1050, 1060, 500)); got != model.StatusPending {
		t.Fatalf("out-of-range fallback: got %s", got)
	}
	if got := statusFromRange(snapshotAt(1000, 1050, 1060, 0)); got != model.StatusClosed {
		t.Fatalf("closed fallback: got %s", got)
	}
}
