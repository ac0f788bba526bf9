// Package venueb dispatches signed hedge market orders to venue B's
// coin-margined futures REST API. It reuses feed's venue-B HMAC signer
// (business/feed/infra/venueb.HMACSigner) since both contexts sign the
// same timestamped, URL-encoded scheme (original_source/api_auth.py's
// BinanceApiAuth).
package venueb

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
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
	// BaseAPIURL is venue B's coin-margined futures REST base.
	BaseAPIURL = "https://dapi.binance.com"

	orderEndpoint = "/dapi/v1/order"

	httpTimeout       = 10 * time.Second
	requestsPerMinute = 1200
	tracerName        = "gateway.venueb"
)

// HTTPClientConfig holds configuration for the venue-B hedge order client.
type HTTPClientConfig struct {
	BaseURL string
	Symbol  string
	Timeout time.Duration
}

// DefaultHTTPClientConfig returns sensible defaults for symbol.
func DefaultHTTPClientConfig(symbol string) HTTPClientConfig {
	return HTTPClientConfig{BaseURL: BaseAPIURL, Symbol: symbol, Timeout: httpTimeout}
}

// Signer produces venue B's timestamped, URL-encoded signature. Satisfied
// directly by business/feed/infra/venueb.HMACSigner.
type Signer interface {
	Sign(params map[string]string) (signedQuery string, apiKeyHeader string)
}

// HTTPClient implements gatewayApp.VenueBRESTClient: signed market-order
// dispatch for hedge fills (spec.md §4.5.4, original_source/gateway.py's
// send_binance_new_order).
type HTTPClient struct {
	client  httpclient.Client
	config  HTTPClientConfig
	signer  Signer
	logger  logger.LoggerInterface
	tracer  trace.Tracer
	breaker *circuitbreaker.CircuitBreaker[gatewayApp.VenueBResponse]
	limiter *ratelimit.Limiter
}

// NewHTTPClient creates a new venue-B hedge order client.
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
		httpclient.WithProviderName("venueb-gateway"),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest, httpclient.TraceResponse),
		httpclient.WithHeaders(map[string]string{"Accept": "application/json"}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create venue-b gateway HTTP client: %w", err)
	}

	return &HTTPClient{
		client:  client,
		config:  cfg,
		signer:  signer,
		logger:  log,
		tracer:  tracer,
		breaker: circuitbreaker.New[gatewayApp.VenueBResponse](circuitbreaker.DefaultConfig("venueb-gateway")),
		limiter: ratelimit.New(requestsPerMinute),
	}, nil
}

// orderResponse is the shape of a successful market-order ack.
type orderResponse struct {
	OrderID int64  `json:"orderId"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Msg     string `json:"msg"`
}

// PlaceMarketOrder implements gatewayApp.VenueBRESTClient.
func (c *HTTPClient) PlaceMarketOrder(ctx context.Context, req gatewayApp.VenueBMarketOrderRequest) (gatewayApp.VenueBResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return gatewayApp.VenueBResponse{}, apperror.New(apperror.CodeRateLimited, apperror.WithCause(err))
	}

	ctx, span := c.tracer.Start(ctx, "venueb.gateway.place_market_order",
		trace.WithAttributes(attribute.String("side", string(req.Side)), attribute.Int64("size", req.Size)))
	defer span.End()

	side := "BUY"
	if req.Side == strategyDomain.SideSell {
		side = "SELL"
	}
	params := map[string]string{
		"symbol":   c.config.Symbol,
		"side":     side,
		"type":     "MARKET",
		"quantity": strconv.FormatInt(req.Size, 10),
	}
	query, apiKey := c.signer.Sign(params)

	return c.breaker.Execute(func() (gatewayApp.VenueBResponse, error) {
		var result orderResponse
		resp, err := c.client.NewRequestWithOptions(
			httpclient.WithResponseErrorHandler(venueBGatewayErrorHandler),
		).
			SetHeader("X-MBX-APIKEY", apiKey).
			SetResult(&result).
			Post(ctx, orderEndpoint+"?"+query)
		if err != nil {
			span.RecordError(err)
			return gatewayApp.VenueBResponse{}, apperror.New(apperror.CodeTransportError,
				apperror.WithCause(err), apperror.WithContext("venue-b hedge order dispatch failed"))
		}

		if resp.StatusCode == 429 || resp.StatusCode == 418 {
			resetAt := time.Now().Add(time.Second)
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				if secs, convErr := strconv.Atoi(retryAfter); convErr == nil {
					resetAt = time.Now().Add(time.Duration(secs) * time.Second)
				}
			}
			return gatewayApp.VenueBResponse{RateLimited: true, ResetAt: resetAt}, nil
		}

		return gatewayApp.VenueBResponse{Success: resp.IsSuccess() && result.Code == 0}, nil
	})
}

// venueBGatewayErrorHandler preserves HTTP 429/418 responses as regular
// (non-error) outcomes so PlaceMarketOrder can classify them as
// rate-limited rather than a transport failure.
func venueBGatewayErrorHandler(statusCode int, body []byte) error {
	if statusCode == 429 || statusCode == 418 {
		return nil
	}
	if statusCode >= 400 {
		var apiErr struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != 0 {
			return fmt.Errorf("venue-b API error %d: %s", apiErr.Code, apiErr.Msg)
		}
		return fmt.Errorf("HTTP %d: %s", statusCode, string(body))
	}
	return nil
}
