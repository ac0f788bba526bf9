package apperror

// messages maps error codes to human-readable messages.
var messages = map[Code]string{
	CodeRequiredField:   "required field is missing",
	CodeInvalidInput:    "invalid input provided",
	CodeInvalidFormat:   "invalid data format",
	CodeInvalidState:    "invalid state for this operation",
	CodeNotFound:        "resource not found",
	CodeValidationError: "validation error",

	CodeConfigurationError: "configuration error",

	CodeExternalServiceError: "external service error",
	CodeServiceTimeout:       "service request timeout",
	CodeServiceUnavailable:   "service temporarily unavailable",
	CodeRateLimitExceeded:    "rate limit exceeded",

	CodeInternalError: "internal error",
	CodeUnknownError:  "unknown error",

	CodeTransportError:   "transport error: socket or REST content-type failure",
	CodeBookInconsistent: "order book inconsistent after delta batch",
	CodeVenueReject:      "venue rejected the order operation",
	CodeRateLimited:      "venue rate limit in effect",
	CodeAuthError:        "venue rejected request signature",
	CodeHeartbeatMiss:    "heartbeat pong not received before next ping",

	CodeCacheMiss:    "cache miss",
	CodeCacheExpired: "cache entry expired",

	CodeCircuitOpen:     "circuit breaker is open",
	CodeCircuitHalfOpen: "circuit breaker is half-open",
}
