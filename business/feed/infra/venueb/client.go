package venueb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	domain "github.com/fd1az/xvenue-mm/business/feed/domain"
	"github.com/fd1az/xvenue-mm/internal/apperror"
	"github.com/fd1az/xvenue-mm/internal/logger"
	"github.com/fd1az/xvenue-mm/internal/wsconn"
)

const (
	tracerName = "feed.venueb"
	meterName  = "feed.venueb"

	// Fallback listen-key refresh interval if ClientConfig leaves one unset.
	keepAliveInterval = 2 * time.Minute
)

// ClientConfig holds configuration for the venue-B market + user data
// client.
type ClientConfig struct {
	BaseURL      string // WebSocket base URL, e.g. wss://dstream.binance.com
	Symbol       string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// ListenKeyRefresh is how often Connect re-issues the user data
	// stream's listen key (spec.md §4.6).
	ListenKeyRefresh time.Duration
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(symbol string) ClientConfig {
	return ClientConfig{
		BaseURL:          "wss://dstream.binance.com",
		Symbol:           symbol,
		ReadTimeout:      30 * time.Second,
		WriteTimeout:     10 * time.Second,
		ListenKeyRefresh: 30 * time.Minute,
	}
}

// ListenKeyIssuer creates and keeps alive the user-data-stream listen key.
// Implemented by the venue-B gateway, which holds the signed REST client.
type ListenKeyIssuer interface {
	CreateListenKey(ctx context.Context) (string, error)
	KeepAliveListenKey(ctx context.Context, listenKey string) error
}

// clientMetrics holds OTEL metric instruments.
type clientMetrics struct {
	messagesReceived metric.Int64Counter
	depthUpdates     metric.Int64Counter
	parseErrors      metric.Int64Counter
}

// Client is the venue-B market + user data WebSocket client. It
// demultiplexes the listen-key connection into business/feed/domain
// events and hands them to the registered handlers (spec.md §4.3).
type Client struct {
	config     ClientConfig
	logger     logger.LoggerInterface
	listenKeys ListenKeyIssuer

	conn   *wsconn.Client
	connMu sync.RWMutex

	onEvent      func(domain.Event)
	onDepthDelta func(domain.DeltaB)
	stateHandler func(wsconn.State, error)
	handlersMu   sync.RWMutex

	stopKeepAlive chan struct{}

	tracer  trace.Tracer
	metrics *clientMetrics

	running atomic.Bool
}

// NewClient creates a new venue-B client.
func NewClient(cfg ClientConfig, keys ListenKeyIssuer, log logger.LoggerInterface) (*Client, error) {
	c := &Client{
		config:        cfg,
		listenKeys:    keys,
		logger:        log,
		stopKeepAlive: make(chan struct{}),
		tracer:        otel.Tracer(tracerName),
	}
	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return c, nil
}

func (c *Client) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error
	c.metrics = &clientMetrics{}

	c.metrics.messagesReceived, err = meter.Int64Counter(
		"venueb_messages_total",
		metric.WithDescription("Total messages received on the venue-B listen-key stream"))
	if err != nil {
		return err
	}
	c.metrics.depthUpdates, err = meter.Int64Counter(
		"venueb_depth_updates_total",
		metric.WithDescription("Total depth diff updates received"))
	if err != nil {
		return err
	}
	c.metrics.parseErrors, err = meter.Int64Counter(
		"venueb_parse_errors_total",
		metric.WithDescription("Message parse errors"))
	return err
}

// OnEvent registers the handler fed every demuxed position/order/execution
// domain event. Depth deltas are not strategy-facing events: register
// OnDepthDelta to receive them, since applying them to a book and
// detecting a BBO change is the Feed app layer's job, not this client's.
func (c *Client) OnEvent(handler func(domain.Event)) {
	c.handlersMu.Lock()
	c.onEvent = handler
	c.handlersMu.Unlock()
}

// OnDepthDelta registers the handler fed every parsed depth diff update.
func (c *Client) OnDepthDelta(handler func(domain.DeltaB)) {
	c.handlersMu.Lock()
	c.onDepthDelta = handler
	c.handlersMu.Unlock()
}

// OnStateChange forwards the underlying connection's state transitions, so
// the Feed app layer can reset its book on disconnect (spec.md §4.2 "Book
// reset"). Must be called before Connect.
func (c *Client) OnStateChange(handler func(wsconn.State, error)) {
	c.stateHandler = handler
}

func (c *Client) emit(ev domain.Event) {
	c.handlersMu.RLock()
	h := c.onEvent
	c.handlersMu.RUnlock()
	if h != nil {
		h(ev)
	}
}

func (c *Client) emitDelta(d domain.DeltaB) {
	c.handlersMu.RLock()
	h := c.onDepthDelta
	c.handlersMu.RUnlock()
	if h != nil {
		h(d)
	}
}

// Connect issues a fresh listen key, connects to the per-listen-key user
// data stream, and subscribes the symbol's depth diff stream on the same
// connection (spec.md §4.6; grounded on original_source/ws_client.py's
// BinanceWsClient.start, which dials wss://.../ws/{listenKey} rather than
// the combined-stream endpoint).
func (c *Client) Connect(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "venueb.connect",
		trace.WithAttributes(attribute.String("symbol", c.config.Symbol)))
	defer span.End()

	if c.config.Symbol == "" {
		return apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("no symbol configured"))
	}

	listenKey, err := c.listenKeys.CreateListenKey(ctx)
	if err != nil {
		return apperror.New(apperror.CodeTransportError,
			apperror.WithCause(err),
			apperror.WithContext("failed to create venue-B listen key"))
	}

	u, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return err
	}
	u.Path = "/ws/" + listenKey
	wsURL := u.String()

	wsCfg := wsconn.DefaultConfig(wsURL, "venueb")
	wsCfg.ReadTimeout = c.config.ReadTimeout
	wsCfg.WriteTimeout = c.config.WriteTimeout

	conn, err := wsconn.New(wsCfg)
	if err != nil {
		return apperror.New(apperror.CodeTransportError,
			apperror.WithCause(err),
			apperror.WithContext("failed to create venue-B wsconn"))
	}
	conn.OnMessage(c.handleMessage)
	if c.stateHandler != nil {
		conn.OnStateChange(c.stateHandler)
	}

	if err := conn.ConnectWithRetry(ctx); err != nil {
		return apperror.New(apperror.CodeTransportError,
			apperror.WithCause(err),
			apperror.WithContext("failed to connect to venue B"))
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	sub := WSRequest{Method: "SUBSCRIBE", Params: []string{DepthDiffStream(c.config.Symbol)}, ID: 1}
	subData, _ := json.Marshal(sub)
	if err := conn.Send(ctx, subData); err != nil {
		return apperror.New(apperror.CodeTransportError,
			apperror.WithCause(err),
			apperror.WithContext("failed to subscribe venue-B depth stream"))
	}

	c.running.Store(true)
	go c.keepAlive(ctx, listenKey)

	c.logger.Info(ctx, "venue-b client connected", "url", wsURL, "symbol", c.config.Symbol)
	return nil
}

// handleMessage processes incoming user-data-stream + depth-diff messages
// arriving on the single per-listen-key connection.
func (c *Client) handleMessage(ctx context.Context, data []byte) {
	c.metrics.messagesReceived.Add(ctx, 1)

	var probe struct {
		EventType string `json:"e"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		c.metrics.parseErrors.Add(ctx, 1)
		c.logger.Debug(ctx, "failed to parse venue-b message", "error", err)
		return
	}
	if probe.EventType == "" {
		return // subscription confirmation: {"result":null,"id":1}
	}

	switch probe.EventType {
	case EventTypeDepthUpdate:
		var d DepthUpdateEvent
		if err := json.Unmarshal(data, &d); err != nil {
			c.metrics.parseErrors.Add(ctx, 1)
			return
		}
		c.metrics.depthUpdates.Add(ctx, 1)
		c.emitDelta(ParseDelta(d))

	case EventTypeAccountUpdate:
		var a AccountUpdateEvent
		if err := json.Unmarshal(data, &a); err != nil {
			c.metrics.parseErrors.Add(ctx, 1)
			return
		}
		for _, p := range a.Payload.Positions {
			if p.Symbol != c.config.Symbol {
				continue
			}
			c.emit(domain.PositionUpdateEvent{Venue: domain.VenueB, Size: ParseSize(p.PositionAmt)})
		}

	case EventTypeOrderTradeUpdate:
		var o OrderTradeUpdateEvent
		if err := json.Unmarshal(data, &o); err != nil {
			c.metrics.parseErrors.Add(ctx, 1)
			return
		}
		c.emit(orderUpdateFrom(o.Order))
		if o.Order.ExecutionType == "TRADE" {
			c.emit(executionFrom(o.Order))
		}
	}
}

// ParseDelta converts a wire DepthUpdateEvent into a domain.DeltaB.
func ParseDelta(d DepthUpdateEvent) domain.DeltaB {
	return domain.DeltaB{
		FirstUpdateID: d.FirstUpdateID,
		FinalUpdateID: d.FinalUpdateID,
		Bids:          toLevels(d.Bids),
		Asks:          toLevels(d.Asks),
	}
}

// ParseSnapshot converts a REST DepthResponse into a domain.SnapshotB.
func ParseSnapshot(r DepthResponse) domain.SnapshotB {
	return domain.SnapshotB{
		LastUpdateID: r.LastUpdateID,
		Bids:         toLevels(r.Bids),
		Asks:         toLevels(r.Asks),
	}
}

func toLevels(raw [][]string) []domain.Level {
	levels := make([]domain.Level, 0, len(raw))
	for _, r := range raw {
		if len(r) < 2 {
			continue
		}
		levels = append(levels, domain.Level{Price: ParsePrice(r[0]), Size: ParseSize(r[1])})
	}
	return levels
}

func orderUpdateFrom(o OrderTradeUpdateOrder) domain.OrderUpdateEvent {
	side := domain.SideBuy
	if o.Side == "SELL" {
		side = domain.SideSell
	}
	return domain.OrderUpdateEvent{
		ClientID: o.ClientOrderID,
		Side:     side,
		Price:    ParsePrice(o.OrderPrice),
		Status:   mapOrderStatus(o.OrderStatus),
	}
}

func executionFrom(o OrderTradeUpdateOrder) domain.ExecutionEvent {
	side := domain.SideBuy
	if o.Side == "SELL" {
		side = domain.SideSell
	}
	orig := ParseSize(o.OrigQty)
	filled := ParseSize(o.CumulativeQty)
	leaves := orig - filled
	if leaves < 0 {
		leaves = 0
	}
	return domain.ExecutionEvent{
		ClientID:  o.ClientOrderID,
		Side:      side,
		ExecType:  domain.ExecTypeTrade,
		ExecQty:   ParseSize(o.LastFilledQty),
		LeavesQty: leaves,
	}
}

func mapOrderStatus(status string) domain.OrderStatus {
	switch status {
	case "NEW":
		return domain.StatusNew
	case "PARTIALLY_FILLED":
		return domain.StatusPartiallyFilled
	case "FILLED":
		return domain.StatusFilled
	case "CANCELED", "EXPIRED":
		return domain.StatusCancelled
	case "REJECTED":
		return domain.StatusRejected
	case "PENDING_CANCEL":
		return domain.StatusPendingCancel
	default:
		return domain.StatusCreated
	}
}

// keepAlive renews the listen key on ListenKeyRefresh (spec.md §4.6); a
// renewal failure is logged and the same key is renewed again on the next
// tick. It does not reconnect or issue a fresh listen key.
func (c *Client) keepAlive(ctx context.Context, listenKey string) {
	interval := c.config.ListenKeyRefresh
	if interval <= 0 {
		interval = keepAliveInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopKeepAlive:
			return
		case <-ticker.C:
			if !c.running.Load() {
				return
			}
			if err := c.listenKeys.KeepAliveListenKey(ctx, listenKey); err != nil {
				c.logger.Warn(ctx, "venue-b listen key renewal failed", "error", err)
			}
		}
	}
}

// Close closes the client connection.
func (c *Client) Close() error {
	c.running.Store(false)
	close(c.stopKeepAlive)

	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected returns whether the client is connected.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.conn != nil && c.conn.IsConnected()
}
