// Package venueb implements the Feed's venue-B WebSocket and REST wire
// protocol: a single per-listen-key user data stream connection with the
// symbol's depth diff stream subscribed onto it.
package venueb

import "github.com/shopspring/decimal"

// WSRequest is a stream subscription request sent on the listen-key
// connection (e.g. to add the depth diff stream).
type WSRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

// User-data and market-data event type discriminants (the "e" field).
const (
	EventTypeDepthUpdate      = "depthUpdate"
	EventTypeAccountUpdate    = "ACCOUNT_UPDATE"
	EventTypeOrderTradeUpdate = "ORDER_TRADE_UPDATE"
)

// DepthUpdateEvent is a diff depth update carrying the first/final
// update-id pair used for snapshot reconciliation.
// Stream: <symbol>@depth@100ms
type DepthUpdateEvent struct {
	EventType     string     `json:"e"`
	EventTime     int64      `json:"E"`
	Symbol        string     `json:"s"`
	FirstUpdateID int64      `json:"U"`
	FinalUpdateID int64      `json:"u"`
	Bids          [][]string `json:"b"`
	Asks          [][]string `json:"a"`
}

// DepthResponse is the REST depth-snapshot response.
type DepthResponse struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

// AccountUpdatePosition is one position entry inside an ACCOUNT_UPDATE's
// "a"."P" array.
type AccountUpdatePosition struct {
	Symbol       string `json:"s"`
	PositionAmt  string `json:"pa"`
	EntryPrice   string `json:"ep"`
	PositionSide string `json:"ps"`
}

// AccountUpdatePayload is the "a" object of an ACCOUNT_UPDATE user-data
// event.
type AccountUpdatePayload struct {
	Positions []AccountUpdatePosition `json:"P"`
}

// AccountUpdateEvent is a user-data-stream account/position push.
type AccountUpdateEvent struct {
	EventType string               `json:"e"`
	EventTime int64                `json:"E"`
	Payload   AccountUpdatePayload `json:"a"`
}

// OrderTradeUpdateOrder is the "o" object of an ORDER_TRADE_UPDATE event.
type OrderTradeUpdateOrder struct {
	Symbol        string `json:"s"`
	ClientOrderID string `json:"c"`
	Side          string `json:"S"`
	OrderStatus   string `json:"X"`
	ExecutionType string `json:"x"`
	OrderPrice    string `json:"p"`
	OrigQty       string `json:"q"`
	LastFilledQty string `json:"l"`
	CumulativeQty string `json:"z"`
}

// OrderTradeUpdateEvent is a user-data-stream order/execution push.
type OrderTradeUpdateEvent struct {
	EventType string                `json:"e"`
	EventTime int64                 `json:"E"`
	Order     OrderTradeUpdateOrder `json:"o"`
}

// PositionRiskEntry is one element of a GET /positionRisk response.
type PositionRiskEntry struct {
	Symbol      string `json:"symbol"`
	PositionAmt string `json:"positionAmt"`
}

// ParsePrice parses a decimal-string field, returning zero on a blank
// string (absent levels in a partial array).
func ParsePrice(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseSize parses a decimal-string quantity field into whole contracts.
func ParseSize(s string) int64 {
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.IntPart()
}

// DepthDiffStream returns the diff-depth stream name for a symbol.
func DepthDiffStream(symbol string) string {
	return lowercase(symbol) + "@depth@100ms"
}

func lowercase(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 32
		}
	}
	return string(b)
}
