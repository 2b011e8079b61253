package realtime

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventComplaintCreated = "complaint.created"
	EventComplaintUpdated = "complaint.updated"
)

// Event is a complaint lifecycle notification fanned out to subscribers.
type Event struct {
	ID          uuid.UUID  `json:"id"`
	Type        string     `json:"type"`
	ComplaintID uuid.UUID  `json:"complaint_id"`
	CitizenID   uuid.UUID  `json:"citizen_id"`
	Status      string     `json:"status"`
	Category    string     `json:"category,omitempty"`
	Priority    int        `json:"priority"`
	AssignedTo  *string    `json:"assigned_to,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

func NewEvent(eventType string) Event {
	return Event{ID: uuid.New(), Type: eventType, OccurredAt: time.Now().UTC()}
}
