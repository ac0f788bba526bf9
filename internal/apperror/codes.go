package apperror

// Code represents a unique error code for the application.
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Error kinds named in spec.md §7.
const (
	// TransportError: WebSocket handshake/close, REST content-type error.
	CodeTransportError Code = "TRANSPORT_ERROR"

	// BookInconsistent: top bid not strictly below top ask after applying
	// a full batch of deltas.
	CodeBookInconsistent Code = "BOOK_INCONSISTENT"

	// VenueReject: REST response reports a non-success order-op result.
	CodeVenueReject Code = "VENUE_REJECT"

	// RateLimited: venue reports exhausted quota; backoff until reset_at.
	CodeRateLimited Code = "RATE_LIMITED"

	// AuthError: signature rejected by the venue. Fatal for that venue's
	// pipeline per spec.md §7.
	CodeAuthError Code = "AUTH_ERROR"

	// HeartbeatMiss: ping unanswered before the next scheduled ping.
	// Treated as TransportError (triggers reconnect).
	CodeHeartbeatMiss Code = "HEARTBEAT_MISS"
)

// Cache / circuit breaker (ambient infra, kept from the teacher).
const (
	CodeCacheMiss    Code = "CACHE_MISS"
	CodeCacheExpired Code = "CACHE_EXPIRED"

	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
