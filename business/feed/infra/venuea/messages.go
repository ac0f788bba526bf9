// Package venuea implements the Feed's venue-A WebSocket wire protocol: a
// single authenticated connection carrying the L2 order book, order,
// execution, and position topics, with an application-level ping/pong
// heartbeat (spec.md §4.1, §4.6).
package venuea

import (
	"github.com/shopspring/decimal"

	domain "github.com/fd1az/xvenue-mm/business/feed/domain"
)

// SubscribeRequest subscribes to one or more topics.
type SubscribeRequest struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

// PingRequest is the application-level heartbeat ping.
type PingRequest struct {
	Op string `json:"op"`
}

// PongResponse is the application-level heartbeat reply.
type PongResponse struct {
	RetMsg  string `json:"ret_msg"`
	Success bool   `json:"success"`
}

// OrderBookLevelWire is one L2 level as carried on the wire.
type OrderBookLevelWire struct {
	Price string `json:"price"`
	Side  string `json:"side"` // "Buy" or "Sell"
	Size  int64  `json:"size"`
}

// OrderBookSnapshotMessage is a full-book snapshot push:
// {"topic":"orderBookL2_25.{symbol}","type":"snapshot","data":[...]}
type OrderBookSnapshotMessage struct {
	Topic string               `json:"topic"`
	Type  string               `json:"type"`
	Data  []OrderBookLevelWire `json:"data"`
}

// OrderBookDeltaData is the delta payload's three category buckets.
type OrderBookDeltaData struct {
	Delete []OrderBookLevelWire `json:"delete"`
	Update []OrderBookLevelWire `json:"update"`
	Insert []OrderBookLevelWire `json:"insert"`
}

// OrderBookDeltaMessage is an incremental delta push:
// {"topic":"orderBookL2_25.{symbol}","type":"delta","data":{...}}
type OrderBookDeltaMessage struct {
	Topic string             `json:"topic"`
	Type  string             `json:"type"`
	Data  OrderBookDeltaData `json:"data"`
}

// OrderWire is one entry of an "order" topic push.
type OrderWire struct {
	OrderLinkID string `json:"order_link_id"` // client-assigned id
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	Price       string `json:"price"`
	Qty         int64  `json:"qty"`
	LeavesQty   int64  `json:"leaves_qty"`
	OrderStatus string `json:"order_status"`
}

// OrderMessage is an order-topic push: {"topic":"order","data":[...]}.
type OrderMessage struct {
	Topic string      `json:"topic"`
	Data  []OrderWire `json:"data"`
}

// ExecutionWire is one entry of an "execution" topic push.
type ExecutionWire struct {
	OrderLinkID string `json:"order_link_id"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	ExecType    string `json:"exec_type"`
	ExecQty     int64  `json:"exec_qty"`
	LeavesQty   int64  `json:"leaves_qty"`
}

// ExecutionMessage is an execution-topic push:
// {"topic":"execution","data":[...]}.
type ExecutionMessage struct {
	Topic string          `json:"topic"`
	Data  []ExecutionWire `json:"data"`
}

// PositionWire is one entry of a "position" topic push or a position-list
// REST snapshot. Size is unsigned; Side carries the direction.
type PositionWire struct {
	Symbol string `json:"symbol"`
	Side   string `json:"side"` // "Buy", "Sell", or "None" (flat)
	Size   int64  `json:"size"`
}

// PositionMessage is a position-topic push: {"topic":"position","data":[...]}.
type PositionMessage struct {
	Topic string         `json:"topic"`
	Data  []PositionWire `json:"data"`
}

// envelope is used only to sniff a message's topic/type before decoding
// it into its concrete shape.
type envelope struct {
	Topic   string `json:"topic"`
	Type    string `json:"type"`
	RetMsg  string `json:"ret_msg"`
	Success bool   `json:"success"`
}

// SignedSize returns the position size with venue A's sign convention
// applied: long (Buy/Long) positive, short (Sell/Short) negative, flat zero.
func (p PositionWire) SignedSize() int64 {
	switch p.Side {
	case "Buy", "Long":
		return p.Size
	case "Sell", "Short":
		return -p.Size
	default:
		return 0
	}
}

func parsePrice(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func toDomainSide(wireSide string) domain.Side {
	if wireSide == "Sell" {
		return domain.SideSell
	}
	return domain.SideBuy
}

func toDeltaCategory(levels []OrderBookLevelWire, category domain.DeltaCategory) []domain.DeltaA {
	out := make([]domain.DeltaA, 0, len(levels))
	for _, l := range levels {
		out = append(out, domain.DeltaA{
			Category: category,
			Side:     toDomainSide(l.Side),
			Price:    parsePrice(l.Price),
			Size:     l.Size,
		})
	}
	return out
}

func mapOrderStatus(status string) domain.OrderStatus {
	switch status {
	case "Created":
		return domain.StatusCreated
	case "New":
		return domain.StatusNew
	case "PartiallyFilled":
		return domain.StatusPartiallyFilled
	case "Filled":
		return domain.StatusFilled
	case "Cancelled":
		return domain.StatusCancelled
	case "Rejected":
		return domain.StatusRejected
	case "PendingCancel":
		return domain.StatusPendingCancel
	default:
		return domain.StatusCreated
	}
}

// SubscribeTopics returns the topic set this feed client subscribes to for
// symbol (spec.md §4.3, §6).
func SubscribeTopics(symbol string) []string {
	return []string{
		"orderBookL2_25." + symbol,
		"order",
		"execution",
		"position",
	}
}
