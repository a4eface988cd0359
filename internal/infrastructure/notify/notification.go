package notify

import (
	"time"

	"github.com/google/uuid"
	"github.com/stitchline/backend/internal/domain/review"
	"github.com/stitchline/backend/internal/domain/shared"
)

// ReviewNotification is the wire form of a review lifecycle event as
// delivered to stream subscribers and mirrored across instances.
type ReviewNotification struct {
	EventID    uuid.UUID `json:"event_id"`
	EventType  string    `json:"event_type"`
	ReviewID   uuid.UUID `json:"review_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Status     string    `json:"status,omitempty"`
	FromStatus string    `json:"from_status,omitempty"`
	Timestamp  int64     `json:"timestamp"`
	// Origin identifies the instance that produced the notification,
	// so the Redis mirror can drop its own echoes.
	Origin string `json:"origin,omitempty"`
}

// FromDomainEvent converts a review domain event to its notification
// form. Unknown event types still produce a generic notification so a
// new event kind reaches subscribers without a bridge change.
func FromDomainEvent(event shared.DomainEvent) ReviewNotification {
	n := ReviewNotification{
		EventID:    event.EventID(),
		EventType:  event.EventType(),
		ReviewID:   event.AggregateID(),
		CustomerID: event.CustomerID(),
		Timestamp:  event.OccurredAt().UnixNano(),
	}

	switch e := event.(type) {
	case *review.ReviewSubmittedEvent:
		n.Status = review.ReviewStatusPending.String()
	case *review.ReviewStatusChangedEvent:
		n.Status = e.ToStatus.String()
		n.FromStatus = e.FromStatus.String()
	}

	return n
}

// IsStale reports whether the notification is older than the given
// horizon. Used to drop long-delayed mirror deliveries.
func (n ReviewNotification) IsStale(horizon time.Duration) bool {
	if n.Timestamp == 0 {
		return false
	}
	return time.Since(time.Unix(0, n.Timestamp)) > horizon
}
