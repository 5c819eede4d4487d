package models

import "time"

type FailedEventStatus string

const (
	FailedEventFailed    FailedEventStatus = "FAILED"
	FailedEventRetrying  FailedEventStatus = "RETRYING"
	FailedEventResolved  FailedEventStatus = "RESOLVED"
	FailedEventDiscarded FailedEventStatus = "DISCARDED"
)

// FailedEvent is owned by each backend. The gateway relays it without
// interpreting the payload.
type FailedEvent struct {
	ID           int64             `json:"id"`
	Topic        string            `json:"topic"`
	EventKey     string            `json:"eventKey"`
	Payload      string            `json:"payload"`
	ErrorMessage string            `json:"errorMessage"`
	Status       FailedEventStatus `json:"status"`
	RetryCount   int               `json:"retryCount"`
	MaxRetries   int               `json:"maxRetries"`
	CreatedAt    time.Time         `json:"createdAt"`
	ResolvedAt   *time.Time        `json:"resolvedAt"`
}

// Page is the pagination envelope list endpoints return.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Size          int   `json:"size"`
	Number        int   `json:"number"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
	Empty         bool  `json:"empty"`
}

// ServiceCount is recomputed on every dashboard load.
type ServiceCount struct {
	Service     ServiceName `json:"service"`
	FailedCount int64       `json:"failedCount"`
}
