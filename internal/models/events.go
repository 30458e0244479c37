package models

import "time"

// Event types
const (
	EventTypeSyncRequested = "SYNC_REQUESTED"
	EventTypeSyncCompleted = "SYNC_COMPLETED"
	EventTypeSyncFailed    = "SYNC_FAILED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// SyncRequestedEvent enqueues one sync pass for one store. Dates use
// the YYYY-MM-DD form and only apply to the custom period.
type SyncRequestedEvent struct {
	BaseEvent
	StoreID   int64  `json:"store_id"`
	Period    string `json:"period"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// SyncCompletedEvent published after a pass finishes
type SyncCompletedEvent struct {
	BaseEvent
	StoreID int64       `json:"store_id"`
	Summary SyncSummary `json:"summary"`
}

// SyncFailedEvent published when a pass aborts. Failures are
// observable only here and in the logs; nothing is retried.
type SyncFailedEvent struct {
	BaseEvent
	StoreID int64  `json:"store_id"`
	Reason  string `json:"reason"`
}
