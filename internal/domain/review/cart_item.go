package review

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stitchline/backend/internal/domain/shared"
)

// CartReviewStatus represents where a cart item stands in the review workflow
type CartReviewStatus string

const (
	CartReviewStatusPending   CartReviewStatus = "pending"
	CartReviewStatusSubmitted CartReviewStatus = "submitted"
	CartReviewStatusApproved  CartReviewStatus = "approved"
)

// IsValid checks if the status is a valid CartReviewStatus
func (s CartReviewStatus) IsValid() bool {
	switch s {
	case CartReviewStatusPending, CartReviewStatusSubmitted, CartReviewStatusApproved:
		return true
	}
	return false
}

// String returns the string representation of CartReviewStatus
func (s CartReviewStatus) String() string {
	return string(s)
}

// CustomProductRef is the product reference sentinel for fully custom
// items that have no catalog product behind them.
const CustomProductRef = "custom"

// Customization holds the free-form customization payload of a cart
// item (embroidery text, placement, embedded image data). Stored as
// JSONB; opaque to the workflow.
type Customization json.RawMessage

// Value implements driver.Valuer for GORM to store as JSONB
func (c Customization) Value() (driver.Value, error) {
	if len(c) == 0 {
		return nil, nil
	}
	return []byte(c), nil
}

// Scan implements sql.Scanner for GORM to read from JSONB
func (c *Customization) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*c = Customization(append([]byte(nil), v...))
	case string:
		*c = Customization(v)
	default:
		return errors.New("failed to scan Customization: unsupported type")
	}
	return nil
}

// MarshalJSON passes the raw payload through
func (c Customization) MarshalJSON() ([]byte, error) {
	if len(c) == 0 {
		return []byte("null"), nil
	}
	return c, nil
}

// UnmarshalJSON stores the raw payload verbatim
func (c *Customization) UnmarshalJSON(data []byte) error {
	*c = Customization(append([]byte(nil), data...))
	return nil
}

// CartItem represents a pending purchase intent in a customer's cart.
// Regular products reference a catalog product ID; custom embroidery
// items carry the CustomProductRef sentinel plus a customization
// payload.
type CartItem struct {
	shared.BaseEntity
	CustomerID    uuid.UUID        `gorm:"type:uuid;not null;index"`
	ProductRef    string           `gorm:"size:64;not null"`
	Quantity      int              `gorm:"not null"`
	Customization Customization    `gorm:"type:jsonb"`
	ReviewStatus  CartReviewStatus `gorm:"size:20;not null;default:'pending'"`
	// ReviewOrderID back-references the review the item was rolled
	// into. Set exactly once at submission, never reassigned.
	ReviewOrderID *uuid.UUID `gorm:"type:uuid;index"`
}

// NewCartItem creates a new cart item
func NewCartItem(customerID uuid.UUID, productRef string, quantity int, customization Customization) (*CartItem, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if productRef == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product reference cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if productRef == CustomProductRef && len(customization) == 0 {
		return nil, shared.NewDomainError("INVALID_CUSTOMIZATION", "Custom items require a customization payload")
	}

	return &CartItem{
		BaseEntity:    shared.NewBaseEntity(),
		CustomerID:    customerID,
		ProductRef:    productRef,
		Quantity:      quantity,
		Customization: customization,
		ReviewStatus:  CartReviewStatusPending,
	}, nil
}

// UpdateQuantity updates the item quantity. Allowed regardless of
// review status; review snapshots are denormalized copies and are not
// affected by later cart edits.
func (i *CartItem) UpdateQuantity(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	i.Quantity = quantity
	i.Touch()
	return nil
}

// UpdateCustomization replaces the customization payload
func (i *CartItem) UpdateCustomization(customization Customization) {
	i.Customization = customization
	i.Touch()
}

// AttachToReview marks the item submitted and records the review it
// was rolled into. The back-reference is write-once.
func (i *CartItem) AttachToReview(reviewID uuid.UUID) error {
	if reviewID == uuid.Nil {
		return shared.NewDomainError("INVALID_REVIEW", "Review ID cannot be empty")
	}
	if i.ReviewOrderID != nil {
		return shared.NewDomainError("ALREADY_SUBMITTED", "Cart item already belongs to a review")
	}
	i.ReviewOrderID = &reviewID
	i.ReviewStatus = CartReviewStatusSubmitted
	i.Touch()
	return nil
}

// MarkApproved moves the item to the approved review status
func (i *CartItem) MarkApproved() {
	i.ReviewStatus = CartReviewStatusApproved
	i.Touch()
}

// IsCustom reports whether the item is a fully custom (non-catalog) item
func (i *CartItem) IsCustom() bool {
	return i.ProductRef == CustomProductRef
}

// Touch bumps the updated timestamp
func (i *CartItem) Touch() {
	i.UpdatedAt = time.Now()
}
