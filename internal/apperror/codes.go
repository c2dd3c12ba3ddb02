package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
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

// Gateway-specific error codes
const (
	// Gateway transport errors
	CodeGatewayConnectionFailed Code = "GATEWAY_CONNECTION_FAILED"
	CodeGatewayTimeout          Code = "GATEWAY_TIMEOUT"
	CodeGatewayHTTPError        Code = "GATEWAY_HTTP_ERROR"
	CodeGatewayOffline          Code = "GATEWAY_OFFLINE"
	CodeCertificateError        Code = "CERTIFICATE_ERROR"

	// Transaction errors
	CodeTransactionSubmitFailed Code = "TRANSACTION_SUBMIT_FAILED"
	CodeTransactionFailed       Code = "TRANSACTION_FAILED"
	CodeTransactionTimeout      Code = "TRANSACTION_TIMEOUT"
	CodePollFailed              Code = "POLL_FAILED"

	// Fee estimation errors
	CodeFeeEstimationFailed     Code = "FEE_ESTIMATION_FAILED"
	CodeFeeConfigMissing        Code = "FEE_CONFIG_MISSING"
	CodeComputeUnitsUnavailable Code = "COMPUTE_UNITS_UNAVAILABLE"

	// Wallet errors
	CodeWalletNotFound     Code = "WALLET_NOT_FOUND"
	CodeWalletFetchFailed  Code = "WALLET_FETCH_FAILED"
	CodeInvalidWalletEntry Code = "INVALID_WALLET_ENTRY"

	// Connector errors
	CodeConnectorFetchFailed Code = "CONNECTOR_FETCH_FAILED"
	CodeConnectorNotFound    Code = "CONNECTOR_NOT_FOUND"

	// Circuit breaker errors
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
