package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeServiceTimeout:     "Service request timeout",
	CodeServiceUnavailable: "Service temporarily unavailable",
	CodeRateLimitExceeded:  "Too many refreshes, slow down",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeAPIRequestFailed: "Could not reach the dashboard API",
	CodeAPIDecodeFailed:  "The dashboard API returned data we could not read",
	CodeAPIUnauthorized:  "The dashboard API rejected our credentials",
	CodeAPINotFound:      "The dashboard API does not know this resource",
	CodeAPIUnavailable:   "The dashboard API is unavailable",

	CodeInvalidWalletAddress: "Wallet address must be a 0x-prefixed 20-byte hex address",
	CodeInvalidWalletLabel:   "Wallet label must be between 1 and 32 characters",
	CodeInvalidSettings:      "Settings are invalid",
	CodeInvalidTheme:         "Unknown theme",

	CodePreferencesIOFailed: "Could not read or write local preferences",

	CodeRPCConnectionFailed: "Failed to connect to the Ethereum node",
	CodeRPCCallFailed:       "Ethereum RPC call failed",

	CodeWebSocketConnectionError: "Live feed connection error",
	CodeWebSocketClosed:          "Live feed connection closed",
	CodeWebSocketSendError:       "Failed to send on the live feed",

	CodePollerStopped: "Polling has been stopped",

	CodeCircuitOpen: "Too many recent failures, pausing requests",
}
