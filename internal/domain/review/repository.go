package review

import (
	"context"

	"github.com/google/uuid"
	"github.com/stitchline/backend/internal/domain/shared"
)

// CartItemRepository defines the interface for cart item persistence
type CartItemRepository interface {
	// FindByID finds a cart item by ID
	FindByID(ctx context.Context, id uuid.UUID) (*CartItem, error)

	// FindByIDForCustomer finds a cart item scoped to its owner
	FindByIDForCustomer(ctx context.Context, customerID, id uuid.UUID) (*CartItem, error)

	// FindByCustomer finds all cart items for a customer, oldest first
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]CartItem, error)

	// Save creates or updates a cart item
	Save(ctx context.Context, item *CartItem) error

	// Delete removes a cart item scoped to its owner
	Delete(ctx context.Context, customerID, id uuid.UUID) error

	// ClearForCustomer removes all cart items for a customer
	ClearForCustomer(ctx context.Context, customerID uuid.UUID) error

	// MarkSubmitted marks the given items submitted and stamps the
	// review back-reference. Returns the number of rows updated.
	MarkSubmitted(ctx context.Context, customerID uuid.UUID, itemIDs []uuid.UUID, reviewID uuid.UUID) (int64, error)

	// MarkApprovedByReview marks every item linked to the review as
	// approved via the back-reference column
	MarkApprovedByReview(ctx context.Context, reviewID uuid.UUID) (int64, error)

	// MarkApprovedByIDs marks items approved by explicit identifier
	// list; the compatibility path when the back-reference column
	// cannot be used
	MarkApprovedByIDs(ctx context.Context, itemIDs []uuid.UUID) (int64, error)
}

// ReviewOrderRepository defines the interface for review order persistence
type ReviewOrderRepository interface {
	// FindByID finds a review order by ID (admin scope)
	FindByID(ctx context.Context, id uuid.UUID) (*ReviewOrder, error)

	// FindByIDForCustomer finds a review order matching both id and
	// owner. Foreign rows surface as NOT_FOUND so existence does not
	// leak across customers.
	FindByIDForCustomer(ctx context.Context, customerID, id uuid.UUID) (*ReviewOrder, error)

	// FindByCustomer finds all review orders owned by a customer,
	// newest first
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]ReviewOrder, error)

	// FindAll finds review orders system-wide (admin scope)
	FindAll(ctx context.Context, filter shared.Filter) ([]ReviewOrder, error)

	// Save creates or updates a review order
	Save(ctx context.Context, order *ReviewOrder) error

	// CountByCustomer counts review orders owned by a customer
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)

	// Count counts review orders system-wide with filters
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
