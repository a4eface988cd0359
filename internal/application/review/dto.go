package review

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stitchline/backend/internal/domain/review"
)

// ==================== Cart DTOs ====================

// AddCartItemRequest represents a request to add an item to the cart
type AddCartItemRequest struct {
	ProductRef    string               `json:"product_ref"`
	Quantity      int                  `json:"quantity"`
	Customization review.Customization `json:"customization,omitempty"`
}

// UpdateCartItemRequest represents a request to edit a cart item
type UpdateCartItemRequest struct {
	Quantity      *int                  `json:"quantity"`
	Customization *review.Customization `json:"customization"`
}

// CartItemResponse represents a cart item in service responses
type CartItemResponse struct {
	ID            uuid.UUID            `json:"id"`
	ProductRef    string               `json:"product_ref"`
	Quantity      int                  `json:"quantity"`
	Customization review.Customization `json:"customization,omitempty"`
	ReviewStatus  string               `json:"review_status"`
	ReviewOrderID *uuid.UUID           `json:"review_order_id,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// ToCartItemResponse converts a cart item to its response form
func ToCartItemResponse(item *review.CartItem) CartItemResponse {
	return CartItemResponse{
		ID:            item.ID,
		ProductRef:    item.ProductRef,
		Quantity:      item.Quantity,
		Customization: item.Customization,
		ReviewStatus:  item.ReviewStatus.String(),
		ReviewOrderID: item.ReviewOrderID,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

// ToCartItemResponses converts a slice of cart items
func ToCartItemResponses(items []review.CartItem) []CartItemResponse {
	responses := make([]CartItemResponse, len(items))
	for i := range items {
		responses[i] = ToCartItemResponse(&items[i])
	}
	return responses
}

// ==================== Review Order DTOs ====================

// SubmitItemInput is one cart line carried into the submission snapshot
type SubmitItemInput struct {
	ItemID        uuid.UUID            `json:"item_id"`
	ProductRef    string               `json:"product_ref"`
	Quantity      int                  `json:"quantity"`
	Customization review.Customization `json:"customization,omitempty"`
}

// SubmitReviewRequest represents a cart submission
type SubmitReviewRequest struct {
	Items       []SubmitItemInput `json:"items"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	Shipping    decimal.Decimal   `json:"shipping"`
	Tax         decimal.Decimal   `json:"tax"`
	Total       decimal.Decimal   `json:"total"`
	SubmittedAt *time.Time        `json:"submitted_at"`
}

// AdminReviewRequest represents an admin review decision
type AdminReviewRequest struct {
	Status     review.ReviewStatus `json:"status"`
	AdminNotes string              `json:"admin_notes"`
}

// PictureReplyInput is one proof image attached by an admin
type PictureReplyInput struct {
	ItemID uuid.UUID `json:"item_id"`
	Image  string    `json:"image"`
	Notes  string    `json:"notes"`
}

// ConfirmationInput is one customer acknowledgment of a picture reply
type ConfirmationInput struct {
	ItemID    uuid.UUID `json:"item_id"`
	Confirmed bool      `json:"confirmed"`
	Notes     string    `json:"notes"`
}

// SubmitReviewResponse is returned from a successful submission
type SubmitReviewResponse struct {
	ReviewID    uuid.UUID `json:"review_id"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
	ItemCount   int       `json:"item_count"`
}

// ReviewOrderResponse represents a review order in service responses
type ReviewOrderResponse struct {
	ID                     uuid.UUID                    `json:"id"`
	CustomerID             uuid.UUID                    `json:"customer_id"`
	CustomerName           string                       `json:"customer_name,omitempty"`
	Snapshot               review.LineItems             `json:"snapshot"`
	Subtotal               decimal.Decimal              `json:"subtotal"`
	Shipping               decimal.Decimal              `json:"shipping"`
	Tax                    decimal.Decimal              `json:"tax"`
	Total                  decimal.Decimal              `json:"total"`
	Status                 string                       `json:"status"`
	SubmittedAt            time.Time                    `json:"submitted_at"`
	ReviewedAt             *time.Time                   `json:"reviewed_at,omitempty"`
	AdminNotes             string                       `json:"admin_notes,omitempty"`
	PictureReplies         review.PictureReplies        `json:"picture_replies,omitempty"`
	CustomerConfirmations  review.CustomerConfirmations `json:"customer_confirmations,omitempty"`
	PictureReplyUploadedAt *time.Time                   `json:"picture_reply_uploaded_at,omitempty"`
	CustomerConfirmedAt    *time.Time                   `json:"customer_confirmed_at,omitempty"`
	CreatedAt              time.Time                    `json:"created_at"`
	UpdatedAt              time.Time                    `json:"updated_at"`
}

// ToReviewOrderResponse converts a review order to its response form
func ToReviewOrderResponse(order *review.ReviewOrder) ReviewOrderResponse {
	return ReviewOrderResponse{
		ID:                     order.ID,
		CustomerID:             order.CustomerID,
		CustomerName:           order.CustomerName,
		Snapshot:               order.Snapshot,
		Subtotal:               order.Subtotal,
		Shipping:               order.Shipping,
		Tax:                    order.Tax,
		Total:                  order.Total,
		Status:                 order.Status.String(),
		SubmittedAt:            order.SubmittedAt,
		ReviewedAt:             order.ReviewedAt,
		AdminNotes:             order.AdminNotes,
		PictureReplies:         order.PictureReplies,
		CustomerConfirmations:  order.CustomerConfirmations,
		PictureReplyUploadedAt: order.PictureReplyUploadedAt,
		CustomerConfirmedAt:    order.CustomerConfirmedAt,
		CreatedAt:              order.CreatedAt,
		UpdatedAt:              order.UpdatedAt,
	}
}

// ToReviewOrderResponses converts a slice of review orders
func ToReviewOrderResponses(orders []review.ReviewOrder) []ReviewOrderResponse {
	responses := make([]ReviewOrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToReviewOrderResponse(&orders[i])
	}
	return responses
}
