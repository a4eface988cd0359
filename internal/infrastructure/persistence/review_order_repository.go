package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/stitchline/backend/internal/domain/review"
	"github.com/stitchline/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormReviewOrderRepository implements ReviewOrderRepository using GORM
type GormReviewOrderRepository struct {
	db *gorm.DB
}

// NewGormReviewOrderRepository creates a new GormReviewOrderRepository
func NewGormReviewOrderRepository(db *gorm.DB) *GormReviewOrderRepository {
	return &GormReviewOrderRepository{db: db}
}

// FindByID finds a review order by its ID (admin scope)
func (r *GormReviewOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*review.ReviewOrder, error) {
	var order review.ReviewOrder
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByIDForCustomer finds a review order matching both id and owner.
// A row owned by someone else reads as NOT_FOUND so existence does not
// leak across customers.
func (r *GormReviewOrderRepository) FindByIDForCustomer(ctx context.Context, customerID, id uuid.UUID) (*review.ReviewOrder, error) {
	var order review.ReviewOrder
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND id = ?", customerID, id).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByCustomer finds all review orders owned by a customer
func (r *GormReviewOrderRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]review.ReviewOrder, error) {
	var orders []review.ReviewOrder
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&review.ReviewOrder{}).Where("customer_id = ?", customerID),
		filter,
	)
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindAll finds review orders system-wide (admin scope)
func (r *GormReviewOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]review.ReviewOrder, error) {
	var orders []review.ReviewOrder
	query := r.applyFilter(r.db.WithContext(ctx).Model(&review.ReviewOrder{}), filter)
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Save creates or updates a review order
func (r *GormReviewOrderRepository) Save(ctx context.Context, order *review.ReviewOrder) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// CountByCustomer counts review orders owned by a customer
func (r *GormReviewOrderRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&review.ReviewOrder{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error
	return count, err
}

// Count counts review orders system-wide with filters
func (r *GormReviewOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&review.ReviewOrder{}),
		filter,
	)
	err := query.Count(&count).Error
	return count, err
}

func (r *GormReviewOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(orderColumn(filter.OrderBy) + " " + orderDir)
	} else {
		query = query.Order("submitted_at DESC")
	}

	return query
}

func (r *GormReviewOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		}
	}
	return query
}

// orderColumn whitelists sortable columns; anything else falls back to
// the submission timestamp
func orderColumn(requested string) string {
	switch requested {
	case "submitted_at", "reviewed_at", "total", "status", "created_at", "updated_at":
		return requested
	}
	return "submitted_at"
}

var _ review.ReviewOrderRepository = (*GormReviewOrderRepository)(nil)
