package review

import (
	"context"

	"github.com/google/uuid"
	"github.com/stitchline/backend/internal/domain/review"
	"github.com/stitchline/backend/internal/domain/shared"
)

// CartService handles cart item business operations
type CartService struct {
	cartRepo review.CartItemRepository
}

// NewCartService creates a new CartService
func NewCartService(cartRepo review.CartItemRepository) *CartService {
	return &CartService{cartRepo: cartRepo}
}

// Add adds a new item to the customer's cart
func (s *CartService) Add(ctx context.Context, customerID uuid.UUID, req AddCartItemRequest) (*CartItemResponse, error) {
	item, err := review.NewCartItem(customerID, req.ProductRef, req.Quantity, req.Customization)
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.Save(ctx, item); err != nil {
		return nil, err
	}

	response := ToCartItemResponse(item)
	return &response, nil
}

// List returns all cart items owned by the customer
func (s *CartService) List(ctx context.Context, customerID uuid.UUID) ([]CartItemResponse, error) {
	items, err := s.cartRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return ToCartItemResponses(items), nil
}

// Update edits the quantity or customization of an owned cart item
func (s *CartService) Update(ctx context.Context, customerID, itemID uuid.UUID, req UpdateCartItemRequest) (*CartItemResponse, error) {
	item, err := s.cartRepo.FindByIDForCustomer(ctx, customerID, itemID)
	if err != nil {
		return nil, err
	}

	if req.Quantity != nil {
		if err := item.UpdateQuantity(*req.Quantity); err != nil {
			return nil, err
		}
	}
	if req.Customization != nil {
		item.UpdateCustomization(*req.Customization)
	}

	if err := s.cartRepo.Save(ctx, item); err != nil {
		return nil, err
	}

	response := ToCartItemResponse(item)
	return &response, nil
}

// Remove deletes an owned cart item
func (s *CartService) Remove(ctx context.Context, customerID, itemID uuid.UUID) error {
	if itemID == uuid.Nil {
		return shared.ErrInvalidInput
	}
	return s.cartRepo.Delete(ctx, customerID, itemID)
}

// Clear removes every cart item owned by the customer
func (s *CartService) Clear(ctx context.Context, customerID uuid.UUID) error {
	return s.cartRepo.ClearForCustomer(ctx, customerID)
}
