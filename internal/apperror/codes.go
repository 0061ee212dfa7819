package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeServiceTimeout     Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded  Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Dashboard-specific error codes
const (
	// Backend API
	CodeAPIRequestFailed Code = "API_REQUEST_FAILED"
	CodeAPIDecodeFailed  Code = "API_DECODE_FAILED"
	CodeAPIUnauthorized  Code = "API_UNAUTHORIZED"
	CodeAPINotFound      Code = "API_NOT_FOUND"
	CodeAPIUnavailable   Code = "API_UNAVAILABLE"

	// Input validation
	CodeInvalidWalletAddress Code = "INVALID_WALLET_ADDRESS"
	CodeInvalidWalletLabel   Code = "INVALID_WALLET_LABEL"
	CodeInvalidSettings      Code = "INVALID_SETTINGS"
	CodeInvalidTheme         Code = "INVALID_THEME"

	// Local preferences
	CodePreferencesIOFailed Code = "PREFERENCES_IO_FAILED"

	// Ethereum RPC (network status probe)
	CodeRPCConnectionFailed Code = "RPC_CONNECTION_FAILED"
	CodeRPCCallFailed       Code = "RPC_CALL_FAILED"

	// WebSocket live feed
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"

	// Polling
	CodePollerStopped Code = "POLLER_STOPPED"

	// Circuit breaker
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
