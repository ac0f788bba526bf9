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

	domain "github.com/fd1az/xvenue-mm/business/feed/domain"
	"github.com/fd1az/xvenue-mm/internal/apperror"
	"github.com/fd1az/xvenue-mm/internal/httpclient"
	"github.com/fd1az/xvenue-mm/internal/logger"
)

const (
	// BaseAPIURL is venue B's coin-margined futures REST base.
	BaseAPIURL = "https://dapi.binance.com"

	depthEndpoint        = "/dapi/v1/depth"
	listenKeyEndpoint    = "/dapi/v1/listenKey"
	positionRiskEndpoint = "/dapi/v1/positionRisk"

	httpTimeout = 10 * time.Second
)

// HTTPClientConfig holds configuration for the venue-B REST snapshot and
// listen-key client.
type HTTPClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultHTTPClientConfig returns sensible defaults.
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{BaseURL: BaseAPIURL, Timeout: httpTimeout}
}

// Signer produces the auth parameters for venue B's timestamped,
// URL-encoded REST signing scheme (implemented by HMACSigner).
type Signer interface {
	// Sign returns params with "timestamp" and "signature" added, and the
	// API key header value to send alongside it.
	Sign(params map[string]string) (signedQuery string, apiKeyHeader string)
}

// HTTPClient provides venue-B REST access: depth snapshots (public) and
// listen-key lifecycle + position risk (signed, via Signer).
type HTTPClient struct {
	client httpclient.Client
	config HTTPClientConfig
	signer Signer
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewHTTPClient creates a new venue-B HTTP client.
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
		httpclient.WithProviderName("venueb"),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest, httpclient.TraceResponse),
		httpclient.WithHeaders(map[string]string{"Accept": "application/json"}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &HTTPClient{client: client, config: cfg, signer: signer, logger: log, tracer: tracer}, nil
}

// GetDepth fetches an order book snapshot for symbol via the public depth
// endpoint (spec.md §4.2 "Snapshot fetch").
func (c *HTTPClient) GetDepth(ctx context.Context, symbol string, limit int) (*DepthResponse, error) {
	ctx, span := c.tracer.Start(ctx, "venueb.http.get_depth",
		trace.WithAttributes(attribute.String("symbol", symbol), attribute.Int("limit", limit)))
	defer span.End()

	validLimits := map[int]bool{5: true, 10: true, 20: true, 50: true, 100: true, 500: true, 1000: true}
	if !validLimits[limit] {
		limit = 1000
	}

	var result DepthResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(
			httpclient.NewLabel("endpoint", "depth"),
			httpclient.NewLabel("symbol", symbol)),
		httpclient.WithResponseErrorHandler(venueBErrorHandler),
	).
		SetQueryParam("symbol", symbol).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&result).
		Get(ctx, depthEndpoint)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeTransportError,
			apperror.WithCause(err),
			apperror.WithContext("failed to fetch venue-b depth snapshot"))
	}
	if resp.IsError() {
		return nil, apperror.New(apperror.CodeTransportError,
			apperror.WithContext(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.String())))
	}

	span.SetAttributes(
		attribute.Int("bids", len(result.Bids)),
		attribute.Int("asks", len(result.Asks)),
		attribute.Int64("last_update_id", result.LastUpdateID))
	return &result, nil
}

// FetchSnapshot fetches and parses a depth snapshot, implementing
// business/feed/app's SnapshotFetcher port.
func (c *HTTPClient) FetchSnapshot(ctx context.Context, symbol string, limit int) (domain.SnapshotB, error) {
	resp, err := c.GetDepth(ctx, symbol, limit)
	if err != nil {
		return domain.SnapshotB{}, err
	}
	return ParseSnapshot(*resp), nil
}

// listenKeyResponse is the shape of {"listenKey": "..."}.
type listenKeyResponse struct {
	ListenKey string `json:"listenKey"`
}

// CreateListenKey starts a new user-data-stream listen key. Implements
// ListenKeyIssuer.
func (c *HTTPClient) CreateListenKey(ctx context.Context) (string, error) {
	query, apiKey := c.signer.Sign(map[string]string{})

	var result listenKeyResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithResponseErrorHandler(venueBErrorHandler),
	).
		SetHeader("X-MBX-APIKEY", apiKey).
		SetResult(&result).
		Post(ctx, listenKeyEndpoint+"?"+query)
	if err != nil {
		return "", apperror.New(apperror.CodeTransportError,
			apperror.WithCause(err), apperror.WithContext("failed to create listen key"))
	}
	if resp.IsError() {
		return "", apperror.New(apperror.CodeVenueReject,
			apperror.WithContext(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.String())))
	}
	return result.ListenKey, nil
}

// KeepAliveListenKey renews the user-data-stream listen key's TTL.
// Implements ListenKeyIssuer.
func (c *HTTPClient) KeepAliveListenKey(ctx context.Context, listenKey string) error {
	query, apiKey := c.signer.Sign(map[string]string{"listenKey": listenKey})

	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithResponseErrorHandler(venueBErrorHandler),
	).
		SetHeader("X-MBX-APIKEY", apiKey).
		Put(ctx, listenKeyEndpoint+"?"+query)
	if err != nil {
		return apperror.New(apperror.CodeTransportError,
			apperror.WithCause(err), apperror.WithContext("failed to renew listen key"))
	}
	if resp.IsError() {
		return apperror.New(apperror.CodeVenueReject,
			apperror.WithContext(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.String())))
	}
	return nil
}

// GetPositionRisk fetches the authoritative signed position for pair
// (spec.md §4.5.5 position-snapshot startup gate).
func (c *HTTPClient) GetPositionRisk(ctx context.Context, pair string) ([]PositionRiskEntry, error) {
	query, apiKey := c.signer.Sign(map[string]string{"pair": pair})

	var result []PositionRiskEntry
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithResponseErrorHandler(venueBErrorHandler),
	).
		SetHeader("X-MBX-APIKEY", apiKey).
		SetResult(&result).
		Get(ctx, positionRiskEndpoint+"?"+query)
	if err != nil {
		return nil, apperror.New(apperror.CodeTransportError,
			apperror.WithCause(err), apperror.WithContext("failed to fetch venue-b position risk"))
	}
	if resp.IsError() {
		return nil, apperror.New(apperror.CodeVenueReject,
			apperror.WithContext(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.String())))
	}
	return result, nil
}

// VenueBAPIError represents an error response from venue B's REST API.
type VenueBAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func (e *VenueBAPIError) Error() string {
	return fmt.Sprintf("venue-b API error %d: %s", e.Code, e.Message)
}

func venueBErrorHandler(statusCode int, body []byte) error {
	if statusCode >= 400 {
		var apiErr VenueBAPIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != 0 {
			return &apiErr
		}
		return fmt.Errorf("HTTP %d: %s", statusCode, string(body))
	}
	return nil
}
