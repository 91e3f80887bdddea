package apperror

// Code is a unique error code for the application.
type Code string

// General error codes
const (
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeInvalidState       Code = "INVALID_STATE"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConfigurationError Code = "CONFIGURATION_ERROR"
	CodeInternalError      Code = "INTERNAL_ERROR"
	CodeUnknownError       Code = "UNKNOWN_ERROR"
)

// Gateway error codes
const (
	CodeGatewayUnreachable Code = "GATEWAY_UNREACHABLE"
	CodeGatewayStatus      Code = "GATEWAY_STATUS"
	CodeGatewayDecode      Code = "GATEWAY_DECODE"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeCircuitOpen        Code = "CIRCUIT_OPEN"
)

// Catalog error codes
const (
	CodeSearchFailed          Code = "SEARCH_FAILED"
	CodeRecommendationsFailed Code = "RECOMMENDATIONS_FAILED"
	CodeDetailsFetchFailed    Code = "DETAILS_FETCH_FAILED"
	CodeKeywordsFetchFailed   Code = "KEYWORDS_FETCH_FAILED"
)

// Sync error codes
const (
	CodeRefreshInProgress    Code = "REFRESH_IN_PROGRESS"
	CodeRefreshTriggerFailed Code = "REFRESH_TRIGGER_FAILED"
	CodeRefreshPollFailed    Code = "REFRESH_POLL_FAILED"
	CodeStatsFetchFailed     Code = "STATS_FETCH_FAILED"
	CodeTrendsFetchFailed    Code = "TRENDS_FETCH_FAILED"
	CodeWatchMutationFailed  Code = "WATCH_MUTATION_FAILED"
	CodeWatchReloadFailed    Code = "WATCH_RELOAD_FAILED"
)
