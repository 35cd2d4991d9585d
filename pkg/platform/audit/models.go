// Package audit records credit decisions and security-relevant events in an
// append-only trail. Stores and sinks fan out from a single Event shape.
package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers lending decisions that must be retained.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers abuse signals such as rate limit violations.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine activity that may be sampled.
	CategoryOperations EventCategory = "operations"
)

// AuditEvent names an action recorded in the trail.
type AuditEvent string

const (
	EventCreditScored      AuditEvent = "credit_scored"
	EventBatchScored       AuditEvent = "credit_batch_scored"
	EventModelViewed       AuditEvent = "credit_model_viewed"
	EventRateLimitExceeded AuditEvent = "rate_limit_exceeded"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventCreditScored:      CategoryCompliance,
	EventBatchScored:       CategoryCompliance,
	EventRateLimitExceeded: CategorySecurity,
	EventModelViewed:       CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted by the scoring service and the rate limiter. It carries
// only the decision outcome, never the applicant's raw profile.
type Event struct {
	ID        string        `json:"id"`
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	// Subject identifies what the event is about: an applicant index within
	// a batch, a client IP, or a route.
	Subject   string `json:"subject,omitempty"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	// Score is set for credit decisions.
	Score *int `json:"score,omitempty"`
}

// Store persists audit events. Implementations must be safe for concurrent
// use.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Lister is implemented by stores that can read events back.
type Lister interface {
	ListByRequest(ctx context.Context, requestID string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
