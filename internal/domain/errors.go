package domain

import "errors"

var (
	// ErrEmptyQuery is returned when the trimmed search query is empty
	ErrEmptyQuery = errors.New("query is empty")

	// ErrQueryTooShort is returned when the trimmed search query is shorter than MinQueryLength
	ErrQueryTooShort = errors.New("query is too short")

	// ErrRequestFailed is returned for any failure of the LLM call: transport, auth, status or unparseable output
	ErrRequestFailed = errors.New("recommendation request failed")

	// ErrEmptyCompletion is returned when the provider answers without any content
	ErrEmptyCompletion = errors.New("llm returned no content")

	// ErrProductNotFound is returned when a product id is not in the catalog
	ErrProductNotFound = errors.New("product not found in catalog")

	// ErrInvalidCatalog is returned when catalog data breaks a catalog invariant
	ErrInvalidCatalog = errors.New("invalid catalog")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when no result is stored for a session
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when the result cache backend cannot be reached
	ErrCacheUnavailable = errors.New("cache service unavailable")
)

// User facing messages.
const (
	EmptyQueryMessage    = "Please enter a search query"
	ShortQueryMessage    = "Query must be at least 3 characters long"
	APIErrorMessage      = "Failed to get recommendations. Please check your API key and try again."
	GenericErrorMessage  = "Something went wrong. Please try again."
	ErrorAlertTitle      = "Error"
	ValidationKindEmpty  = "EMPTY"
	ValidationKindShort  = "TOO_SHORT"
	RequestFailureKind   = "API_ERROR"
)

// ValidationError reports why a query was rejected before any network access.
type ValidationError struct {
	Kind string
}

func (e *ValidationError) Error() string {
	return e.Message()
}

// Message returns the text shown to the user.
func (e *ValidationError) Message() string {
	switch e.Kind {
	case ValidationKindEmpty:
		return EmptyQueryMessage
	case ValidationKindShort:
		return ShortQueryMessage
	default:
		return GenericErrorMessage
	}
}

// Is lets errors.Is match a ValidationError against ErrEmptyQuery and ErrQueryTooShort.
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrEmptyQuery:
		return e.Kind == ValidationKindEmpty
	case ErrQueryTooShort:
		return e.Kind == ValidationKindShort
	}
	return false
}
