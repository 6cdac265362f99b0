package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Wallet and connection error codes
const (
	CodeWalletNotAuthorized     Code = "WALLET_NOT_AUTHORIZED"
	CodeWalletActivationFailed  Code = "WALLET_ACTIVATION_FAILED"
	CodeWalletUnavailable       Code = "WALLET_UNAVAILABLE"
	CodeUnsupportedChainID      Code = "UNSUPPORTED_CHAIN_ID"
	CodeNoActiveConnection      Code = "NO_ACTIVE_CONNECTION"
	CodeEthereumConnectionError Code = "ETHEREUM_CONNECTION_ERROR"
	CodeEthereumRPCError        Code = "ETHEREUM_RPC_ERROR"
	CodeEthereumSubscribeFailed Code = "ETHEREUM_SUBSCRIBE_FAILED"
)

// Contract error codes
const (
	CodeContractConstructionFailed Code = "CONTRACT_CONSTRUCTION_FAILED"
	CodeContractReadOnly           Code = "CONTRACT_READ_ONLY"
	CodeContractCallFailed         Code = "CONTRACT_CALL_FAILED"
	CodeContractTransactFailed     Code = "CONTRACT_TRANSACT_FAILED"
	CodeInvalidABI                 Code = "INVALID_ABI"
	CodeInvalidAddress             Code = "INVALID_ADDRESS"
)

// Gas error codes
const (
	CodeGasPriceFetchFailed Code = "GAS_PRICE_FETCH_FAILED"
	CodeUnknownGasTier      Code = "UNKNOWN_GAS_TIER"
)

// Transport error codes
const (
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"

	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
