package types

// ParseURLRequest is the body of POST /api/v1/recipes/parse-url.
type ParseURLRequest struct {
	URL string `json:"url" binding:"required"`
}

// ConsolidateRequest is the body of POST /api/v1/shopping-lists/consolidate.
type ConsolidateRequest struct {
	Items []string `json:"items" binding:"required"`
}

// LunchSuggestionRequest is the body of POST /api/v1/suggestions/lunch.
type LunchSuggestionRequest struct {
	Preferences string `json:"preferences" binding:"required"`
}

// ErrorResponse is the uniform error body for all pipeline endpoints.
type ErrorResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}
