package review

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stitchline/backend/internal/domain/shared"
)

// ReviewStatus represents the status of an order under review
type ReviewStatus string

const (
	// ReviewStatusPending is the initial status after submission
	ReviewStatusPending ReviewStatus = "pending"
	// ReviewStatusApproved is accepted as admin input only; it is
	// remapped to pending-payment before persistence and never stored
	ReviewStatusApproved ReviewStatus = "approved"
	// ReviewStatusRejected is a stable non-progressing status
	ReviewStatusRejected ReviewStatus = "rejected"
	// ReviewStatusNeedsChanges returns control to the customer; the
	// admin can re-review the same aggregate later
	ReviewStatusNeedsChanges ReviewStatus = "needs-changes"
	// ReviewStatusPendingPayment hands the order to the payment collaborator
	ReviewStatusPendingPayment ReviewStatus = "pending-payment"
	// ReviewStatusApprovedProcessing hands the order to fulfillment
	ReviewStatusApprovedProcessing ReviewStatus = "approved-processing"
)

// IsValid checks whether the status is acceptable as admin input
func (s ReviewStatus) IsValid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected,
		ReviewStatusNeedsChanges, ReviewStatusPendingPayment, ReviewStatusApprovedProcessing:
		return true
	}
	return false
}

// IsStorable checks whether the status may be persisted. "approved"
// is an input alias, not a stored status.
func (s ReviewStatus) IsStorable() bool {
	return s.IsValid() && s != ReviewStatusApproved
}

// String returns the string representation of ReviewStatus
func (s ReviewStatus) String() string {
	return string(s)
}

// ResolveReviewStatus maps an admin-requested status to the status that
// gets persisted, and reports whether linked cart items move to
// "approved". Approval's only purpose in this workflow is to unlock
// payment, so the admin-facing "approved" outcome is rewritten to
// pending-payment here rather than at the call sites.
func ResolveReviewStatus(requested ReviewStatus) (ReviewStatus, bool, error) {
	if !requested.IsValid() {
		return "", false, shared.NewDomainError("INVALID_STATUS",
			fmt.Sprintf("Unknown review status %q", requested))
	}
	if requested == ReviewStatusApproved {
		return ReviewStatusPendingPayment, true, nil
	}
	return requested, false, nil
}

// totalTolerance bounds rounding drift between the client-computed
// total and subtotal + shipping + tax.
var totalTolerance = decimal.NewFromFloat(0.01)

// LineItem is one entry of the immutable snapshot taken at submission
// time. It is a denormalized copy of the cart item, not a live join;
// later cart edits do not affect it.
type LineItem struct {
	ItemID        uuid.UUID     `json:"item_id"`
	ProductRef    string        `json:"product_ref"`
	Quantity      int           `json:"quantity"`
	Customization Customization `json:"customization,omitempty"`
}

// LineItems implements GORM Scanner/Valuer for JSONB storage
type LineItems []LineItem

// Value implements driver.Valuer
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner
func (l *LineItems) Scan(value interface{}) error {
	return scanJSON(value, l, "LineItems")
}

// PictureReply is an admin-supplied proof image and note attached to
// one line item before production.
type PictureReply struct {
	ItemID     uuid.UUID `json:"item_id"`
	Image      string    `json:"image"`
	Notes      string    `json:"notes,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// PictureReplies implements GORM Scanner/Valuer for JSONB storage
type PictureReplies []PictureReply

// Value implements driver.Valuer
func (p PictureReplies) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner
func (p *PictureReplies) Scan(value interface{}) error {
	return scanJSON(value, p, "PictureReplies")
}

// CustomerConfirmation is the customer's acknowledgment of a picture
// reply for one line item.
type CustomerConfirmation struct {
	ItemID    uuid.UUID `json:"item_id"`
	Confirmed bool      `json:"confirmed"`
	Notes     string    `json:"notes,omitempty"`
}

// CustomerConfirmations implements GORM Scanner/Valuer for JSONB storage
type CustomerConfirmations []CustomerConfirmation

// Value implements driver.Valuer
func (c CustomerConfirmations) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner
func (c *CustomerConfirmations) Scan(value interface{}) error {
	return scanJSON(value, c, "CustomerConfirmations")
}

func scanJSON(value interface{}, dest interface{}, kind string) error {
	if value == nil {
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan " + kind + ": unsupported type")
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, dest)
}

// ReviewOrder is the order-under-review aggregate root. It is created
// once per submission, carries an immutable snapshot of the submitted
// cart items, and moves through the review state machine until it is
// handed off to payment or fulfillment.
type ReviewOrder struct {
	shared.CustomerAggregateRoot
	// CustomerName is denormalized from the submitter's identity at
	// submission time for admin display.
	CustomerName           string                `gorm:"size:200"`
	Snapshot               LineItems             `gorm:"type:jsonb;not null"`
	Subtotal               decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	Shipping               decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	Tax                    decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	Total                  decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	Status                 ReviewStatus          `gorm:"size:30;not null;index"`
	SubmittedAt            time.Time             `gorm:"not null"`
	ReviewedAt             *time.Time
	AdminNotes             string                `gorm:"type:text"`
	PictureReplies         PictureReplies        `gorm:"type:jsonb"`
	CustomerConfirmations  CustomerConfirmations `gorm:"type:jsonb"`
	PictureReplyUploadedAt *time.Time
	CustomerConfirmedAt    *time.Time
}

// NewReviewOrder creates a review order from a submitted cart. The
// items slice becomes the verbatim snapshot; totals arrive computed
// and are checked against the total invariant.
func NewReviewOrder(customerID uuid.UUID, customerName string, items []LineItem, subtotal, shipping, tax, total decimal.Decimal, submittedAt time.Time) (*ReviewOrder, error) {
	if customerID == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Submission requires at least one item")
	}
	if subtotal.IsNegative() || shipping.IsNegative() || tax.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Amounts cannot be negative")
	}
	expected := subtotal.Add(shipping).Add(tax)
	if total.Sub(expected).Abs().GreaterThan(totalTolerance) {
		return nil, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Total %s does not equal subtotal + shipping + tax (%s)", total, expected))
	}
	if submittedAt.IsZero() {
		submittedAt = time.Now()
	}

	order := &ReviewOrder{
		CustomerAggregateRoot: shared.NewCustomerAggregateRoot(customerID),
		CustomerName:          customerName,
		Snapshot:              append(LineItems(nil), items...),
		Subtotal:              subtotal,
		Shipping:              shipping,
		Tax:                   tax,
		Total:                 total,
		Status:                ReviewStatusPending,
		SubmittedAt:           submittedAt,
	}

	order.AddDomainEvent(NewReviewSubmittedEvent(order))

	return order, nil
}

// Review applies an admin review decision. The requested status runs
// through ResolveReviewStatus, so "approved" lands as pending-payment.
// Returns true when linked cart items should be marked approved.
func (o *ReviewOrder) Review(requested ReviewStatus, adminNotes string) (bool, error) {
	persisted, syncItems, err := ResolveReviewStatus(requested)
	if err != nil {
		return false, err
	}

	from := o.Status
	now := time.Now()
	o.Status = persisted
	o.ReviewedAt = &now
	if adminNotes != "" {
		o.AdminNotes = adminNotes
	}
	o.UpdatedAt = now

	o.AddDomainEvent(NewReviewStatusChangedEvent(o, from))

	return syncItems, nil
}

// AttachPictureReplies replaces the picture-reply list wholesale. Each
// entry gets a server-side upload timestamp; caller-supplied timestamps
// are ignored to prevent clock-skew spoofing. A second partial upload
// discards earlier entries unless the caller resends the full list.
func (o *ReviewOrder) AttachPictureReplies(replies []PictureReply) error {
	if len(replies) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "Picture replies cannot be empty")
	}

	now := time.Now()
	stamped := make(PictureReplies, len(replies))
	for i, r := range replies {
		r.UploadedAt = now
		stamped[i] = r
	}

	o.PictureReplies = stamped
	o.PictureReplyUploadedAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewPictureReplyUploadedEvent(o))

	return nil
}

// ConfirmPictures records the customer's confirmations and
// unconditionally drives the order to pending-payment, regardless of
// whether individual entries rejected an item. Whether a rejected
// confirmation should instead branch to needs-changes is an open
// product decision; current behavior is to keep moving toward payment.
// Calling this again on a pending-payment order is a no-op transition.
func (o *ReviewOrder) ConfirmPictures(confirmations []CustomerConfirmation) error {
	if len(confirmations) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "Confirmations cannot be empty")
	}

	from := o.Status
	now := time.Now()
	o.CustomerConfirmations = append(CustomerConfirmations(nil), confirmations...)
	o.CustomerConfirmedAt = &now
	o.Status = ReviewStatusPendingPayment
	if o.ReviewedAt == nil {
		o.ReviewedAt = &now
	}
	o.UpdatedAt = now

	o.AddDomainEvent(NewCustomerConfirmedEvent(o))
	o.AddDomainEvent(NewReviewStatusChangedEvent(o, from))

	return nil
}

// SnapshotItemIDs returns the cart item identifiers stored in the
// snapshot. Used as the fallback path when the cart items' review
// back-reference column cannot be used for the approval sync.
func (o *ReviewOrder) SnapshotItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(o.Snapshot))
	for _, item := range o.Snapshot {
		if item.ItemID != uuid.Nil {
			ids = append(ids, item.ItemID)
		}
	}
	return ids
}

// ItemCount returns the number of snapshot line items
func (o *ReviewOrder) ItemCount() int {
	return len(o.Snapshot)
}

// IsPaymentReady reports whether the payment collaborator takes over
func (o *ReviewOrder) IsPaymentReady() bool {
	return o.Status == ReviewStatusPendingPayment
}

// IsStalled reports whether the order sits in a stable non-progressing
// status (rejected or needs-changes)
func (o *ReviewOrder) IsStalled() bool {
	return o.Status == ReviewStatusRejected || o.Status == ReviewStatusNeedsChanges
}
