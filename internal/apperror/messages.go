package apperror

// messages maps error codes to human-readable messages.
var messages = map[Code]string{
	CodeInvalidInput:       "Invalid input provided",
	CodeInvalidState:       "Invalid state for this operation",
	CodeNotFound:           "Resource not found",
	CodeConfigurationError: "Configuration error",
	CodeInternalError:      "Internal error",
	CodeUnknownError:       "An unknown error occurred",

	CodeGatewayUnreachable: "Market data gateway is unreachable",
	CodeGatewayStatus:      "Market data gateway returned a non-success status",
	CodeGatewayDecode:      "Failed to decode gateway response",
	CodeRateLimited:        "Gateway request rate limit exceeded",
	CodeCircuitOpen:        "Gateway circuit breaker is open",

	CodeSearchFailed:          "Catalog search failed",
	CodeRecommendationsFailed: "Failed to fetch recommendations",
	CodeDetailsFetchFailed:    "Failed to fetch product details",
	CodeKeywordsFetchFailed:   "Failed to fetch trending keywords",

	CodeRefreshInProgress:    "A trend refresh cycle is already running",
	CodeRefreshTriggerFailed: "Failed to trigger trend refresh",
	CodeRefreshPollFailed:    "Trend refresh polling failed",
	CodeStatsFetchFailed:     "Failed to fetch market stats",
	CodeTrendsFetchFailed:    "Failed to fetch trends",
	CodeWatchMutationFailed:  "Watchlist update failed",
	CodeWatchReloadFailed:    "Watchlist reload failed",
}
