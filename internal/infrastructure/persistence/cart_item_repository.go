package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stitchline/backend/internal/domain/review"
	"github.com/stitchline/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormCartItemRepository implements CartItemRepository using GORM
type GormCartItemRepository struct {
	db *gorm.DB
}

// NewGormCartItemRepository creates a new GormCartItemRepository
func NewGormCartItemRepository(db *gorm.DB) *GormCartItemRepository {
	return &GormCartItemRepository{db: db}
}

// FindByID finds a cart item by its ID
func (r *GormCartItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*review.CartItem, error) {
	var item review.CartItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindByIDForCustomer finds a cart item scoped to its owner. A row
// owned by someone else reads as NOT_FOUND.
func (r *GormCartItemRepository) FindByIDForCustomer(ctx context.Context, customerID, id uuid.UUID) (*review.CartItem, error) {
	var item review.CartItem
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND id = ?", customerID, id).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindByCustomer finds all cart items for a customer, oldest first
func (r *GormCartItemRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]review.CartItem, error) {
	var items []review.CartItem
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Save creates or updates a cart item
func (r *GormCartItemRepository) Save(ctx context.Context, item *review.CartItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// Delete removes a cart item scoped to its owner
func (r *GormCartItemRepository) Delete(ctx context.Context, customerID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("customer_id = ? AND id = ?", customerID, id).
		Delete(&review.CartItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ClearForCustomer removes all cart items for a customer
func (r *GormCartItemRepository) ClearForCustomer(ctx context.Context, customerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Delete(&review.CartItem{}).Error
}

// MarkSubmitted marks the given items submitted and stamps the review
// back-reference. Items already attached to another review are left
// untouched. Returns the number of rows updated.
func (r *GormCartItemRepository) MarkSubmitted(ctx context.Context, customerID uuid.UUID, itemIDs []uuid.UUID, reviewID uuid.UUID) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&review.CartItem{}).
		Where("customer_id = ? AND id IN ? AND review_order_id IS NULL", customerID, itemIDs).
		Updates(map[string]interface{}{
			"review_status":   review.CartReviewStatusSubmitted,
			"review_order_id": reviewID,
		})
	return result.RowsAffected, result.Error
}

// MarkApprovedByReview marks every item linked to the review as
// approved via the back-reference column
func (r *GormCartItemRepository) MarkApprovedByReview(ctx context.Context, reviewID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&review.CartItem{}).
		Where("review_order_id = ?", reviewID).
		Update("review_status", review.CartReviewStatusApproved)
	return result.RowsAffected, result.Error
}

// MarkApprovedByIDs marks items approved by explicit identifier list
func (r *GormCartItemRepository) MarkApprovedByIDs(ctx context.Context, itemIDs []uuid.UUID) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&review.CartItem{}).
		Where("id IN ?", itemIDs).
		Update("review_status", review.CartReviewStatusApproved)
	return result.RowsAffected, result.Error
}

var _ review.CartItemRepository = (*GormCartItemRepository)(nil)
