package review

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stitchline/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeReviewOrder = "ReviewOrder"

// Event type constants. Every state change of the review workflow is
// broadcast under one of these kinds; delivery is fire-and-forget.
const (
	EventTypeReviewSubmitted       = "review.submitted"
	EventTypeReviewStatusChanged   = "review.status_changed"
	EventTypePictureReplyUploaded  = "review.picture_reply_uploaded"
	EventTypeReviewCustomerConfirm = "review.customer_confirmed"
)

// ReviewSubmittedEvent is raised when a customer submits a cart for review
type ReviewSubmittedEvent struct {
	shared.BaseDomainEvent
	ReviewID    uuid.UUID       `json:"review_id"`
	UserID      uuid.UUID       `json:"user_id"`
	ItemCount   int             `json:"item_count"`
	Total       decimal.Decimal `json:"total"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// NewReviewSubmittedEvent creates a new ReviewSubmittedEvent
func NewReviewSubmittedEvent(order *ReviewOrder) *ReviewSubmittedEvent {
	return &ReviewSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReviewSubmitted, AggregateTypeReviewOrder, order.ID, order.CustomerID),
		ReviewID:        order.ID,
		UserID:          order.CustomerID,
		ItemCount:       order.ItemCount(),
		Total:           order.Total,
		SubmittedAt:     order.SubmittedAt,
	}
}

// EventType returns the event type name
func (e *ReviewSubmittedEvent) EventType() string {
	return EventTypeReviewSubmitted
}

// ReviewStatusChangedEvent is raised on every status transition,
// including the forced move to pending-payment after confirmation
type ReviewStatusChangedEvent struct {
	shared.BaseDomainEvent
	ReviewID   uuid.UUID    `json:"review_id"`
	UserID     uuid.UUID    `json:"user_id"`
	FromStatus ReviewStatus `json:"from_status"`
	ToStatus   ReviewStatus `json:"to_status"`
	AdminNotes string       `json:"admin_notes,omitempty"`
}

// NewReviewStatusChangedEvent creates a new ReviewStatusChangedEvent
func NewReviewStatusChangedEvent(order *ReviewOrder, from ReviewStatus) *ReviewStatusChangedEvent {
	return &ReviewStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReviewStatusChanged, AggregateTypeReviewOrder, order.ID, order.CustomerID),
		ReviewID:        order.ID,
		UserID:          order.CustomerID,
		FromStatus:      from,
		ToStatus:        order.Status,
		AdminNotes:      order.AdminNotes,
	}
}

// EventType returns the event type name
func (e *ReviewStatusChangedEvent) EventType() string {
	return EventTypeReviewStatusChanged
}

// PictureReplyUploadedEvent is raised when an admin attaches proof
// images, addressed to the owning customer and the admin room
type PictureReplyUploadedEvent struct {
	shared.BaseDomainEvent
	ReviewID   uuid.UUID `json:"review_id"`
	UserID     uuid.UUID `json:"user_id"`
	ReplyCount int       `json:"reply_count"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// NewPictureReplyUploadedEvent creates a new PictureReplyUploadedEvent
func NewPictureReplyUploadedEvent(order *ReviewOrder) *PictureReplyUploadedEvent {
	e := &PictureReplyUploadedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePictureReplyUploaded, AggregateTypeReviewOrder, order.ID, order.CustomerID),
		ReviewID:        order.ID,
		UserID:          order.CustomerID,
		ReplyCount:      len(order.PictureReplies),
	}
	if order.PictureReplyUploadedAt != nil {
		e.UploadedAt = *order.PictureReplyUploadedAt
	}
	return e
}

// EventType returns the event type name
func (e *PictureReplyUploadedEvent) EventType() string {
	return EventTypePictureReplyUploaded
}

// CustomerConfirmedEvent is raised when the customer acknowledges the
// picture replies
type CustomerConfirmedEvent struct {
	shared.BaseDomainEvent
	ReviewID          uuid.UUID `json:"review_id"`
	UserID            uuid.UUID `json:"user_id"`
	ConfirmationCount int       `json:"confirmation_count"`
	AllConfirmed      bool      `json:"all_confirmed"`
}

// NewCustomerConfirmedEvent creates a new CustomerConfirmedEvent
func NewCustomerConfirmedEvent(order *ReviewOrder) *CustomerConfirmedEvent {
	allConfirmed := true
	for _, c := range order.CustomerConfirmations {
		if !c.Confirmed {
			allConfirmed = false
			break
		}
	}
	return &CustomerConfirmedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeReviewCustomerConfirm, AggregateTypeReviewOrder, order.ID, order.CustomerID),
		ReviewID:          order.ID,
		UserID:            order.CustomerID,
		ConfirmationCount: len(order.CustomerConfirmations),
		AllConfirmed:      allConfirmed,
	}
}

// EventType returns the event type name
func (e *CustomerConfirmedEvent) EventType() string {
	return EventTypeReviewCustomerConfirm
}
