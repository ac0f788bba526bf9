package venuea

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
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
	tracerName = "feed.venuea"
	meterName  = "feed.venuea"

	// Venue A closes a connection that misses two consecutive pongs; ping
	// well inside that window (original_source/ws_client.py: 30s).
	pingInterval = 30 * time.Second

	// wsURIExpirySkew is added to "now" for the signed connect URI's
	// expires param (original_source/api_auth.py: +5000ms).
	wsURIExpirySkew = 5 * time.Second
)

// Credentials holds the API key/secret pair used to sign the WS connect
// URI (spec.md §6).
type Credentials struct {
	Key    string
	Secret string
}

// ClientConfig holds configuration for the venue-A client.
type ClientConfig struct {
	BaseURL      string // e.g. wss://stream.bybit.com/realtime
	Symbol       string
	Credentials  Credentials
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(symbol string, creds Credentials) ClientConfig {
	return ClientConfig{
		BaseURL:      "wss://stream.bybit.com/realtime",
		Symbol:       symbol,
		Credentials:  creds,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

type clientMetrics struct {
	messagesReceived metric.Int64Counter
	deltasReceived   metric.Int64Counter
	pongMisses       metric.Int64Counter
	parseErrors      metric.Int64Counter
}

// Client is the venue-A authenticated WebSocket client: one connection
// carrying the order book, order, execution, and position topics plus an
// application-level ping/pong heartbeat.
type Client struct {
	config ClientConfig
	logger logger.LoggerInterface

	conn   *wsconn.Client
	connMu sync.RWMutex

	onSnapshot   func([]domain.SnapshotLevelA)
	onDelta      func([]domain.DeltaA)
	onEvent      func(domain.Event)
	stateHandler func(wsconn.State, error)
	handlersMu   sync.RWMutex

	stopHeartbeat chan struct{}
	pongSeen      atomic.Bool

	tracer  trace.Tracer
	metrics *clientMetrics

	running atomic.Bool
}

// NewClient creates a new venue-A client.
func NewClient(cfg ClientConfig, log logger.LoggerInterface) (*Client, error) {
	c := &Client{
		config:        cfg,
		logger:        log,
		stopHeartbeat: make(chan struct{}),
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
		"venuea_messages_total", metric.WithDescription("Total messages received"))
	if err != nil {
		return err
	}
	c.metrics.deltasReceived, err = meter.Int64Counter(
		"venuea_book_deltas_total", metric.WithDescription("Total order book delta batches received"))
	if err != nil {
		return err
	}
	c.metrics.pongMisses, err = meter.Int64Counter(
		"venuea_pong_misses_total", metric.WithDescription("Heartbeat pong misses"))
	if err != nil {
		return err
	}
	c.metrics.parseErrors, err = meter.Int64Counter(
		"venuea_parse_errors_total", metric.WithDescription("Message parse errors"))
	return err
}

// OnSnapshot registers the handler fed a full order book snapshot.
func (c *Client) OnSnapshot(handler func([]domain.SnapshotLevelA)) {
	c.handlersMu.Lock()
	c.onSnapshot = handler
	c.handlersMu.Unlock()
}

// OnDelta registers the handler fed each order book delta batch.
func (c *Client) OnDelta(handler func([]domain.DeltaA)) {
	c.handlersMu.Lock()
	c.onDelta = handler
	c.handlersMu.Unlock()
}

// OnEvent registers the handler fed order/execution/position events.
func (c *Client) OnEvent(handler func(domain.Event)) {
	c.handlersMu.Lock()
	c.onEvent = handler
	c.handlersMu.Unlock()
}

// OnStateChange forwards the underlying connection's state transitions, so
// the Feed app layer can reset its book on disconnect. Must be called
// before Connect.
func (c *Client) OnStateChange(handler func(wsconn.State, error)) {
	c.stateHandler = handler
}

// Connect signs a connect URI, dials it, subscribes the venue-A topic set,
// and starts the application-level heartbeat (spec.md §4.6, §6).
func (c *Client) Connect(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "venuea.connect",
		trace.WithAttributes(attribute.String("symbol", c.config.Symbol)))
	defer span.End()

	if c.config.Symbol == "" {
		return apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("no symbol configured"))
	}

	wsURL, err := c.signedConnectURI()
	if err != nil {
		return err
	}

	wsCfg := wsconn.DefaultConfig(wsURL, "venuea")
	wsCfg.ReadTimeout = c.config.ReadTimeout
	wsCfg.WriteTimeout = c.config.WriteTimeout

	conn, err := wsconn.New(wsCfg)
	if err != nil {
		return apperror.New(apperror.CodeTransportError,
			apperror.WithCause(err), apperror.WithContext("failed to create venue-A wsconn"))
	}
	conn.OnMessage(c.handleMessage)
	if c.stateHandler != nil {
		conn.OnStateChange(c.stateHandler)
	}

	if err := conn.ConnectWithRetry(ctx); err != nil {
		return apperror.New(apperror.CodeTransportError,
			apperror.WithCause(err), apperror.WithContext("failed to connect to venue A"))
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	sub := SubscribeRequest{Op: "subscribe", Args: SubscribeTopics(c.config.Symbol)}
	subData, _ := json.Marshal(sub)
	if err := conn.Send(ctx, subData); err != nil {
		return apperror.New(apperror.CodeTransportError,
			apperror.WithCause(err), apperror.WithContext("failed to subscribe venue-A topics"))
	}

	c.running.Store(true)
	c.pongSeen.Store(true)
	c.stopHeartbeat = make(chan struct{})
	go c.heartbeat(ctx)

	c.logger.Info(ctx, "venue-a client connected", "symbol", c.config.Symbol)
	return nil
}

// signedConnectURI builds the authenticated WebSocket URI: the signature
// covers "GET/realtime" + expires, per original_source/api_auth.py's
// get_websocket_uri.
func (c *Client) signedConnectURI() (string, error) {
	expires := time.Now().Add(wsURIExpirySkew).UnixMilli()
	sig := c.sign(fmt.Sprintf("GET/realtime%d", expires))

	u, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("api_key", c.config.Credentials.Key)
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("signature", sig)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) sign(message string) string {
	mac := hmac.New(sha256.New, []byte(c.config.Credentials.Secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// handleMessage routes one incoming frame by topic or heartbeat reply.
func (c *Client) handleMessage(ctx context.Context, data []byte) {
	c.metrics.messagesReceived.Add(ctx, 1)

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.metrics.parseErrors.Add(ctx, 1)
		c.logger.Debug(ctx, "failed to parse venue-a message", "error", err)
		return
	}

	if env.RetMsg == "pong" && env.Success {
		c.pongSeen.Store(true)
		return
	}

	switch env.Topic {
	case "orderBookL2_25." + c.config.Symbol:
		c.routeOrderBook(ctx, env.Type, data)
	case "order":
		c.routeOrder(ctx, data)
	case "execution":
		c.routeExecution(ctx, data)
	case "position":
		c.routePosition(ctx, data)
	}
}

func (c *Client) routeOrderBook(ctx context.Context, msgType string, data []byte) {
	if msgType == "snapshot" {
		var snap OrderBookSnapshotMessage
		if err := json.Unmarshal(data, &snap); err != nil {
			c.metrics.parseErrors.Add(ctx, 1)
			return
		}
		levels := make([]domain.SnapshotLevelA, 0, len(snap.Data))
		for _, l := range snap.Data {
			levels = append(levels, domain.SnapshotLevelA{
				Side: toDomainSide(l.Side), Price: parsePrice(l.Price), Size: l.Size,
			})
		}
		c.handlersMu.RLock()
		h := c.onSnapshot
		c.handlersMu.RUnlock()
		if h != nil {
			h(levels)
		}
		return
	}

	var delta OrderBookDeltaMessage
	if err := json.Unmarshal(data, &delta); err != nil {
		c.metrics.parseErrors.Add(ctx, 1)
		return
	}
	deltas := make([]domain.DeltaA, 0,
		len(delta.Data.Delete)+len(delta.Data.Update)+len(delta.Data.Insert))
	deltas = append(deltas, toDeltaCategory(delta.Data.Delete, domain.DeltaDelete)...)
	deltas = append(deltas, toDeltaCategory(delta.Data.Update, domain.DeltaUpdate)...)
	deltas = append(deltas, toDeltaCategory(delta.Data.Insert, domain.DeltaInsert)...)

	c.metrics.deltasReceived.Add(ctx, 1)
	c.handlersMu.RLock()
	h := c.onDelta
	c.handlersMu.RUnlock()
	if h != nil {
		h(deltas)
	}
}

func (c *Client) routeOrder(ctx context.Context, data []byte) {
	var msg OrderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.metrics.parseErrors.Add(ctx, 1)
		return
	}
	for _, o := range msg.Data {
		c.emit(domain.OrderUpdateEvent{
			ClientID: o.OrderLinkID,
			Side:     toDomainSide(o.Side),
			Price:    parsePrice(o.Price),
			Status:   mapOrderStatus(o.OrderStatus),
		})
	}
}

func (c *Client) routeExecution(ctx context.Context, data []byte) {
	var msg ExecutionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.metrics.parseErrors.Add(ctx, 1)
		return
	}
	for _, e := range msg.Data {
		c.emit(domain.ExecutionEvent{
			ClientID:  e.OrderLinkID,
			Side:      toDomainSide(e.Side),
			ExecType:  domain.ExecTypeTrade,
			ExecQty:   e.ExecQty,
			LeavesQty: e.LeavesQty,
		})
	}
}

func (c *Client) routePosition(ctx context.Context, data []byte) {
	var msg PositionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.metrics.parseErrors.Add(ctx, 1)
		return
	}
	for _, p := range msg.Data {
		if p.Symbol != c.config.Symbol {
			continue
		}
		c.emit(domain.PositionUpdateEvent{Venue: domain.VenueA, Size: p.SignedSize()})
	}
}

func (c *Client) emit(ev domain.Event) {
	c.handlersMu.RLock()
	h := c.onEvent
	c.handlersMu.RUnlock()
	if h != nil {
		h(ev)
	}
}

// heartbeat sends an application-level ping every pingInterval. A missed
// pong is a TransportError at the venue's own protocol level, distinct
// from wsconn's raw WebSocket ping: the socket can stay technically open
// while venue A stops answering JSON pings, so a miss forces the
// reconnect path directly rather than waiting on wsconn's own liveness
// check to notice (spec.md §4.6, §7).
func (c *Client) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopHeartbeat:
			return
		case <-ticker.C:
			if !c.running.Load() {
				return
			}
			if !c.pongSeen.Swap(false) {
				c.metrics.pongMisses.Add(ctx, 1)
				c.logger.Warn(ctx, "venue-a heartbeat pong missed, forcing reconnect",
					"code", apperror.CodeHeartbeatMiss)

				c.connMu.RLock()
				conn := c.conn
				c.connMu.RUnlock()
				if conn != nil {
					conn.ForceReconnect(ctx, apperror.New(apperror.CodeHeartbeatMiss,
						apperror.WithContext("venue-a heartbeat pong missed")))
				}
				// pongSeen is reset on the next successful Connect; avoid
				// re-triggering every tick until then.
				c.pongSeen.Store(true)
				continue
			}

			c.connMu.RLock()
			conn := c.conn
			c.connMu.RUnlock()
			if conn == nil {
				continue
			}
			data, _ := json.Marshal(PingRequest{Op: "ping"})
			if err := conn.Send(ctx, data); err != nil {
				c.logger.Warn(ctx, "venue-a ping send failed", "error", err)
			}
		}
	}
}

// Close closes the client connection.
func (c *Client) Close() error {
	c.running.Store(false)
	close(c.stopHeartbeat)

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
