package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeWalletNotAuthorized:     "Wallet has not authorized this application",
	CodeWalletActivationFailed:  "Failed to activate wallet connector",
	CodeWalletUnavailable:       "No injected wallet provider is available",
	CodeUnsupportedChainID:      "Connected to an unsupported chain",
	CodeNoActiveConnection:      "No active connection",
	CodeEthereumConnectionError: "Failed to connect to Ethereum node",
	CodeEthereumRPCError:        "Ethereum RPC call failed",
	CodeEthereumSubscribeFailed: "Failed to subscribe to Ethereum events",

	CodeContractConstructionFailed: "Failed to construct contract handle",
	CodeContractReadOnly:           "Contract handle is read-only",
	CodeContractCallFailed:         "Smart contract call failed",
	CodeContractTransactFailed:     "Smart contract transaction failed",
	CodeInvalidABI:                 "Invalid contract ABI",
	CodeInvalidAddress:             "Invalid contract address",

	CodeGasPriceFetchFailed: "Failed to fetch gas price",
	CodeUnknownGasTier:      "Unknown gas price tier",

	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",

	CodeCircuitOpen: "Circuit breaker is open",
}
