package models

// RateLimitExceededResponse is the 429 body. It uses the same success/error
// envelope as the scoring endpoints.
type RateLimitExceededResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
