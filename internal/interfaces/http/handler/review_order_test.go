package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	reviewapp "github.com/stitchline/backend/internal/application/review"
	"github.com/stitchline/backend/internal/domain/review"
	"github.com/stitchline/backend/internal/domain/shared"
	"github.com/stitchline/backend/internal/infrastructure/auth"
	"github.com/stitchline/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Mock Repositories
// ============================================================================

// MockReviewOrderRepository is a mock implementation of ReviewOrderRepository
type MockReviewOrderRepository struct {
	mock.Mock
}

func (m *MockReviewOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*review.ReviewOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*review.ReviewOrder), args.Error(1)
}

func (m *MockReviewOrderRepository) FindByIDForCustomer(ctx context.Context, customerID, id uuid.UUID) (*review.ReviewOrder, error) {
	args := m.Called(ctx, customerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*review.ReviewOrder), args.Error(1)
}

func (m *MockReviewOrderRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]review.ReviewOrder, error) {
	args := m.Called(ctx, customerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]review.ReviewOrder), args.Error(1)
}

func (m *MockReviewOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]review.ReviewOrder, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]review.ReviewOrder), args.Error(1)
}

func (m *MockReviewOrderRepository) Save(ctx context.Context, order *review.ReviewOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockReviewOrderRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReviewOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockCartItemRepository is a mock implementation of CartItemRepository
type MockCartItemRepository struct {
	mock.Mock
}

func (m *MockCartItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*review.CartItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*review.CartItem), args.Error(1)
}

func (m *MockCartItemRepository) FindByIDForCustomer(ctx context.Context, customerID, id uuid.UUID) (*review.CartItem, error) {
	args := m.Called(ctx, customerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*review.CartItem), args.Error(1)
}

func (m *MockCartItemRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]review.CartItem, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]review.CartItem), args.Error(1)
}

func (m *MockCartItemRepository) Save(ctx context.Context, item *review.CartItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockCartItemRepository) Delete(ctx context.Context, customerID, id uuid.UUID) error {
	args := m.Called(ctx, customerID, id)
	return args.Error(0)
}

func (m *MockCartItemRepository) ClearForCustomer(ctx context.Context, customerID uuid.UUID) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

func (m *MockCartItemRepository) MarkSubmitted(ctx context.Context, customerID uuid.UUID, itemIDs []uuid.UUID, reviewID uuid.UUID) (int64, error) {
	args := m.Called(ctx, customerID, itemIDs, reviewID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCartItemRepository) MarkApprovedByReview(ctx context.Context, reviewID uuid.UUID) (int64, error) {
	args := m.Called(ctx, reviewID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCartItemRepository) MarkApprovedByIDs(ctx context.Context, itemIDs []uuid.UUID) (int64, error) {
	args := m.Called(ctx, itemIDs)
	return args.Get(0).(int64), args.Error(1)
}

// ============================================================================
// Test setup
// ============================================================================

// withIdentity injects authenticated identity the way the JWT
// middleware would
func withIdentity(userID uuid.UUID, username, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.JWTUserIDKey, userID.String())
		c.Set(middleware.JWTUsernameKey, username)
		c.Set(middleware.JWTRoleKey, role)
		c.Next()
	}
}

func newReviewOrderRouter(orderRepo *MockReviewOrderRepository, cartRepo *MockCartItemRepository, userID uuid.UUID, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
	service := reviewapp.NewReviewOrderService(orderRepo, cartRepo, nil)
	h := NewReviewOrderHandler(service)

	router := gin.New()
	router.Use(withIdentity(userID, "Amara Okafor", role))
	api := router.Group("/api/v1")
	h.RegisterRoutes(api)
	h.RegisterAdminRoutes(api)
	return router
}

func testOrder(t *testing.T, customerID uuid.UUID) *review.ReviewOrder {
	t.Helper()
	items := []review.LineItem{
		{ItemID: uuid.New(), ProductRef: "hoodie-black", Quantity: 2},
	}
	order, err := review.NewReviewOrder(
		customerID, "Amara Okafor", items,
		decimal.NewFromInt(80), decimal.NewFromInt(10), decimal.NewFromInt(8), decimal.NewFromInt(98),
		time.Now(),
	)
	require.NoError(t, err)
	order.ClearDomainEvents()
	return order
}

func performJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ============================================================================
// Tests
// ============================================================================

func TestReviewOrderHandler_Submit(t *testing.T) {
	t.Run("creates a review order", func(t *testing.T) {
		orderRepo := new(MockReviewOrderRepository)
		cartRepo := new(MockCartItemRepository)
		customerID := uuid.New()
		router := newReviewOrderRouter(orderRepo, cartRepo, customerID, auth.RoleCustomer)

		orderRepo.On("Save", mock.Anything, mock.AnythingOfType("*review.ReviewOrder")).Return(nil)
		cartRepo.On("MarkSubmitted", mock.Anything, customerID, mock.Anything, mock.Anything).Return(int64(1), nil)

		body := gin.H{
			"items": []gin.H{
				{"item_id": uuid.New(), "product_ref": "hoodie-black", "quantity": 2},
			},
			"subtotal": "80",
			"shipping": "10",
			"tax":      "8",
			"total":    "98",
		}

		w := performJSON(router, http.MethodPost, "/api/v1/review-orders", body)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "review_id")
		assert.Contains(t, w.Body.String(), review.ReviewStatusPending.String())
		orderRepo.AssertExpectations(t)
		cartRepo.AssertExpectations(t)
	})

	t.Run("rejects an empty submission", func(t *testing.T) {
		orderRepo := new(MockReviewOrderRepository)
		cartRepo := new(MockCartItemRepository)
		router := newReviewOrderRouter(orderRepo, cartRepo, uuid.New(), auth.RoleCustomer)

		body := gin.H{
			"items":    []gin.H{},
			"subtotal": "80",
			"total":    "98",
		}

		w := performJSON(router, http.MethodPost, "/api/v1/review-orders", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		orderRepo.AssertNotCalled(t, "Save")
	})

	t.Run("rejects a total mismatch", func(t *testing.T) {
		orderRepo := new(MockReviewOrderRepository)
		cartRepo := new(MockCartItemRepository)
		router := newReviewOrderRouter(orderRepo, cartRepo, uuid.New(), auth.RoleCustomer)

		body := gin.H{
			"items": []gin.H{
				{"item_id": uuid.New(), "product_ref": "hoodie-black", "quantity": 2},
			},
			"subtotal": "80",
			"shipping": "10",
			"tax":      "8",
			"total":    "200",
		}

		w := performJSON(router, http.MethodPost, "/api/v1/review-orders", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		orderRepo.AssertNotCalled(t, "Save")
	})
}

func TestReviewOrderHandler_Get(t *testing.T) {
	t.Run("returns an owned order", func(t *testing.T) {
		orderRepo := new(MockReviewOrderRepository)
		cartRepo := new(MockCartItemRepository)
		customerID := uuid.New()
		router := newReviewOrderRouter(orderRepo, cartRepo, customerID, auth.RoleCustomer)

		order := testOrder(t, customerID)
		orderRepo.On("FindByIDForCustomer", mock.Anything, customerID, order.ID).Return(order, nil)

		w := performJSON(router, http.MethodGet, "/api/v1/review-orders/"+order.ID.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), order.ID.String())
		assert.Contains(t, w.Body.String(), "hoodie-black")
	})

	t.Run("returns 404 for a foreign order", func(t *testing.T) {
		orderRepo := new(MockReviewOrderRepository)
		cartRepo := new(MockCartItemRepository)
		customerID := uuid.New()
		router := newReviewOrderRouter(orderRepo, cartRepo, customerID, auth.RoleCustomer)

		foreignID := uuid.New()
		orderRepo.On("FindByIDForCustomer", mock.Anything, customerID, foreignID).Return(nil, shared.ErrNotFound)

		w := performJSON(router, http.MethodGet, "/api/v1/review-orders/"+foreignID.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("returns 400 for a malformed id", func(t *testing.T) {
		orderRepo := new(MockReviewOrderRepository)
		cartRepo := new(MockCartItemRepository)
		router := newReviewOrderRouter(orderRepo, cartRepo, uuid.New(), auth.RoleCustomer)

		w := performJSON(router, http.MethodGet, "/api/v1/review-orders/not-a-uuid", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReviewOrderHandler_List(t *testing.T) {
	orderRepo := new(MockReviewOrderRepository)
	cartRepo := new(MockCartItemRepository)
	customerID := uuid.New()
	router := newReviewOrderRouter(orderRepo, cartRepo, customerID, auth.RoleCustomer)

	order := testOrder(t, customerID)
	orderRepo.On("FindByCustomer", mock.Anything, customerID, mock.Anything).Return([]review.ReviewOrder{*order}, nil)
	orderRepo.On("CountByCustomer", mock.Anything, customerID).Return(int64(1), nil)

	w := performJSON(router, http.MethodGet, "/api/v1/review-orders?page=1&page_size=10", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
}

func TestReviewOrderHandler_AdminReview(t *testing.T) {
	t.Run("approval moves the order to pending-payment", func(t *testing.T) {
		orderRepo := new(MockReviewOrderRepository)
		cartRepo := new(MockCartItemRepository)
		router := newReviewOrderRouter(orderRepo, cartRepo, uuid.New(), auth.RoleAdmin)

		order := testOrder(t, uuid.New())
		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
		orderRepo.On("Save", mock.Anything, order).Return(nil)
		cartRepo.On("MarkApprovedByReview", mock.Anything, order.ID).Return(int64(1), nil)

		body := gin.H{"status": "approved", "admin_notes": "looks good"}
		w := performJSON(router, http.MethodPatch, "/api/v1/admin/review-orders/"+order.ID.String(), body)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), review.ReviewStatusPendingPayment.String())
		cartRepo.AssertExpectations(t)
	})

	t.Run("rejects an unknown status", func(t *testing.T) {
		orderRepo := new(MockReviewOrderRepository)
		cartRepo := new(MockCartItemRepository)
		router := newReviewOrderRouter(orderRepo, cartRepo, uuid.New(), auth.RoleAdmin)

		order := testOrder(t, uuid.New())
		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		body := gin.H{"status": "shipped"}
		w := performJSON(router, http.MethodPatch, "/api/v1/admin/review-orders/"+order.ID.String(), body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		orderRepo.AssertNotCalled(t, "Save")
	})
}

func TestReviewOrderHandler_AdminUploadPictures(t *testing.T) {
	orderRepo := new(MockReviewOrderRepository)
	cartRepo := new(MockCartItemRepository)
	router := newReviewOrderRouter(orderRepo, cartRepo, uuid.New(), auth.RoleAdmin)

	order := testOrder(t, uuid.New())
	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	orderRepo.On("Save", mock.Anything, order).Return(nil)

	body := gin.H{
		"picture_replies": []gin.H{
			{"item_id": order.Snapshot[0].ItemID, "image": "https://cdn.example.com/proof-1.jpg", "notes": "front"},
		},
	}
	w := performJSON(router, http.MethodPost,
		fmt.Sprintf("/api/v1/admin/review-orders/%s/picture-reply", order.ID), body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "picture_replies")
	assert.Contains(t, w.Body.String(), "proof-1.jpg")
}

func TestReviewOrderHandler_ConfirmPictures(t *testing.T) {
	orderRepo := new(MockReviewOrderRepository)
	cartRepo := new(MockCartItemRepository)
	customerID := uuid.New()
	router := newReviewOrderRouter(orderRepo, cartRepo, customerID, auth.RoleCustomer)

	order := testOrder(t, customerID)
	orderRepo.On("FindByIDForCustomer", mock.Anything, customerID, order.ID).Return(order, nil)
	orderRepo.On("Save", mock.Anything, order).Return(nil)
	cartRepo.On("MarkApprovedByReview", mock.Anything, order.ID).Return(int64(1), nil)

	body := gin.H{
		"confirmations": []gin.H{
			{"item_id": order.Snapshot[0].ItemID, "confirmed": true},
		},
	}
	w := performJSON(router, http.MethodPost,
		fmt.Sprintf("/api/v1/review-orders/%s/confirm-pictures", order.ID), body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), review.ReviewStatusPendingPayment.String())
}
