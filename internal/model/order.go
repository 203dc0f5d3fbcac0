package model

// OrderSide is the caller's intent for a range order.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// OrderStatus is inferred from on-chain state, never stored on chain.
type OrderStatus string

const (
	StatusPending OrderStatus = "pending"
	StatusPartial OrderStatus = "partial"
	StatusFilled  OrderStatus = "filled"
	StatusClosed  OrderStatus = "closed"
)

// OrderEventKind labels a lifecycle transition in the journal.
type OrderEventKind string

const (
	EventPlaced    OrderEventKind = "placed"
	EventIncreased OrderEventKind = "increased"
	EventDecreased OrderEventKind = "decreased"
	EventCollected OrderEventKind = "collected"
)

// OrderEvent is an append-only journal record of an order lifecycle step.
// Amounts are decimal strings to survive JSON and numeric columns intact.
type OrderEvent struct {
	ChainID    uint64         `json:"chain_id"`
	OrderID    string         `json:"order_id"`
	Wallet     string         `json:"wallet"`
	Pool       string         `json:"pool"`
	Kind       OrderEventKind `json:"kind"`
	Side       OrderSide      `json:"side,omitempty"`
	ZeroForOne bool           `json:"zero_for_one"`
	TickLower  int32          `json:"tick_lower"`
	TickUpper  int32          `json:"tick_upper"`
	Liquidity  string         `json:"liquidity,omitempty"`
	Amount0    string         `json:"amount0,omitempty"`
	Amount1    string         `json:"amount1,omitempty"`
	TxHash     string         `json:"tx_hash"`
	Timestamp  int64          `json:"timestamp"`
}
