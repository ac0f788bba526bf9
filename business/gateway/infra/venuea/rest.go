package venuea

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	gatewayApp "github.com/fd1az/xvenue-mm/business/gateway/app"
	strategyDomain "github.com/fd1az/xvenue-mm/business/strategy/domain"
	"github.com/fd1az/xvenue-mm/internal/apperror"
	"github.com/fd1az/xvenue-mm/internal/circuitbreaker"
	"github.com/fd1az/xvenue-mm/internal/httpclient"
	"github.com/fd1az/xvenue-mm/internal/logger"
	"github.com/fd1az/xvenue-mm/internal/ratelimit"
)

const (
	// BaseAPIURL is venue A's private REST base (original_source/gateway.py).
	BaseAPIURL = "https://api.bybit.com"

	createOrderEndpoint  = "/v2/private/order/create"
	replaceOrderEndpoint = "/v2/private/order/replace"
	cancelAllEndpoint    = "/v2/private/order/cancelAll"

	httpTimeout       = 10 * time.Second
	requestsPerMinute = 600
	tracerName        = "gateway.venuea"
)

// HTTPClientConfig holds configuration for the venue-A order dispatch
// client.
type HTTPClientConfig struct {
	BaseURL string
	Symbol  string
	Timeout time.Duration
}

// DefaultHTTPClientConfig returns sensible defaults for symbol.
func DefaultHTTPClientConfig(symbol string) HTTPClientConfig {
	return HTTPClientConfig{BaseURL: BaseAPIURL, Symbol: symbol, Timeout: httpTimeout}
}

// Signer produces venue A's sorted, URL-encoded signature. Satisfied by
// HMACSigner.
type Signer interface {
	Sign(params map[string]string) map[string]string
}

// orderAckResponse is the shape of a Bybit order create/replace ack,
// including the rate-limit fields original_source/gateway.py's
// amend_bybit_order checks.
type orderAckResponse struct {
	RetCode          int    `json:"ret_code"`
	RetMsg           string `json:"ret_msg"`
	RateLimitStatus  int64  `json:"rate_limit_status"`
	RateLimitResetMs int64  `json:"rate_limit_reset_ms"`
}

// HTTPClient implements gatewayApp.VenueARESTClient: signed new-order,
// amend and cancel-all dispatch against venue A's private order endpoints.
type HTTPClient struct {
	client  httpclient.Client
	config  HTTPClientConfig
	signer  Signer
	logger  logger.LoggerInterface
	tracer  trace.Tracer
	breaker *circuitbreaker.CircuitBreaker[gatewayApp.VenueAResponse]
	limiter *ratelimit.Limiter
}

// NewHTTPClient creates a new venue-A order dispatch client.
func NewHTTPClient(cfg HTTPClientConfig, signer Signer, log logger.LoggerInterface) (*HTTPClient, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseAPIURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = httpTimeout
	}

	tracer := otel.Tracer(tracerName)
	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("venuea-gateway"),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest, httpclient.TraceResponse),
		httpclient.WithHeaders(map[string]string{"Content-Type": "application/json"}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create venue-a gateway HTTP client: %w", err)
	}

	return &HTTPClient{
		client:  client,
		config:  cfg,
		signer:  signer,
		logger:  log,
		tracer:  tracer,
		breaker: circuitbreaker.New[gatewayApp.VenueAResponse](circuitbreaker.DefaultConfig("venuea-gateway")),
		limiter: ratelimit.New(requestsPerMinute),
	}, nil
}

// PlaceOrder implements gatewayApp.VenueARESTClient.
func (c *HTTPClient) PlaceOrder(ctx context.Context, req gatewayApp.VenueAOrderRequest) (gatewayApp.VenueAResponse, error) {
	side := "Buy"
	if req.Side == strategyDomain.SideSell {
		side = "Sell"
	}
	params := map[string]string{
		"symbol":        c.config.Symbol,
		"side":          side,
		"order_type":    "Limit",
		"qty":           fmt.Sprintf("%d", req.Size),
		"price":         req.Price.String(),
		"time_in_force": "PostOnly",
		"order_link_id": req.ClientID,
	}
	return c.dispatch(ctx, "venuea.gateway.place_order", createOrderEndpoint, params,
		attribute.String("client_id", req.ClientID), attribute.String("side", side))
}

// AmendOrder implements gatewayApp.VenueARESTClient.
func (c *HTTPClient) AmendOrder(ctx context.Context, req gatewayApp.VenueAAmendRequest) (gatewayApp.VenueAResponse, error) {
	params := map[string]string{
		"symbol":        c.config.Symbol,
		"order_link_id": req.ClientID,
		"p_r_price":     req.Price.String(),
	}
	return c.dispatch(ctx, "venuea.gateway.amend_order", replaceOrderEndpoint, params,
		attribute.String("client_id", req.ClientID))
}

// CancelOrder implements gatewayApp.VenueARESTClient. Venue A exposes no
// per-order cancel; cancelAll clears every resting order for the
// configured symbol (spec.md §6), which is also all the Gateway ever has
// resting at once (one bid slot, one ask slot).
func (c *HTTPClient) CancelOrder(ctx context.Context, req gatewayApp.VenueACancelRequest) (gatewayApp.VenueAResponse, error) {
	params := map[string]string{
		"symbol": c.config.Symbol,
	}
	return c.dispatch(ctx, "venuea.gateway.cancel_order", cancelAllEndpoint, params,
		attribute.String("client_id", req.ClientID))
}

func (c *HTTPClient) dispatch(ctx context.Context, spanName, endpoint string, params map[string]string, attrs ...attribute.KeyValue) (gatewayApp.VenueAResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return gatewayApp.VenueAResponse{}, apperror.New(apperror.CodeRateLimited, apperror.WithCause(err))
	}

	ctx, span := c.tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
	defer span.End()

	signed := c.signer.Sign(params)

	return c.breaker.Execute(func() (gatewayApp.VenueAResponse, error) {
		var result orderAckResponse
		resp, err := c.client.NewRequestWithOptions(
			httpclient.WithLabels(httpclient.NewLabel("endpoint", endpoint)),
		).
			SetBody(signed).
			SetResult(&result).
			Post(ctx, endpoint)
		if err != nil {
			span.RecordError(err)
			return gatewayApp.VenueAResponse{}, apperror.New(apperror.CodeTransportError,
				apperror.WithCause(err), apperror.WithContext("venue-a order dispatch failed"))
		}

		out := gatewayApp.VenueAResponse{Success: resp.IsSuccess() && result.RetCode == 0}
		if result.RateLimitStatus == 0 {
			out.RateLimited = true
			out.ResetAt = time.UnixMilli(result.RateLimitResetMs)
			if out.ResetAt.Before(time.Now()) {
				out.ResetAt = time.Now().Add(time.Second)
			}
		}
		return out, nil
	})
}
