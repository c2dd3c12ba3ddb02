package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Gateway transport errors
	CodeGatewayConnectionFailed: "Failed to connect to gateway",
	CodeGatewayTimeout:          "Gateway request timed out",
	CodeGatewayHTTPError:        "Gateway returned an error response",
	CodeGatewayOffline:          "Gateway is offline",
	CodeCertificateError:        "Failed to load client certificates",

	// Transaction errors
	CodeTransactionSubmitFailed: "Failed to submit transaction",
	CodeTransactionFailed:       "Transaction failed on chain",
	CodeTransactionTimeout:      "Transaction confirmation timed out",
	CodePollFailed:              "Transaction poll failed",

	// Fee estimation errors
	CodeFeeEstimationFailed:     "Priority fee estimation failed",
	CodeFeeConfigMissing:        "Fee configuration missing for network",
	CodeComputeUnitsUnavailable: "Compute units unavailable for transaction type",

	// Wallet errors
	CodeWalletNotFound:     "Wallet not found",
	CodeWalletFetchFailed:  "Failed to fetch wallets from gateway",
	CodeInvalidWalletEntry: "Invalid wallet entry",

	// Connector errors
	CodeConnectorFetchFailed: "Failed to fetch connectors from gateway",
	CodeConnectorNotFound:    "Connector not found",

	// Circuit breaker errors
	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
