package review

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stitchline/backend/internal/domain/review"
	"github.com/stitchline/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ReviewOrderService orchestrates the order-review workflow: cart
// submission, admin review decisions, the picture-reply sub-workflow
// and the notification fan-out on every transition.
type ReviewOrderService struct {
	orderRepo      review.ReviewOrderRepository
	cartRepo       review.CartItemRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewReviewOrderService creates a new ReviewOrderService
func NewReviewOrderService(orderRepo review.ReviewOrderRepository, cartRepo review.CartItemRepository, logger *zap.Logger) *ReviewOrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewOrderService{
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		logger:    logger,
	}
}

// SetEventPublisher sets the publisher for the notification fan-out
func (s *ReviewOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Submit aggregates the submitted cart lines into a new review order.
// The aggregate insert is the primary write; marking the contributing
// cart items "submitted" is best-effort bookkeeping whose failure is
// logged but never fails the submission.
func (s *ReviewOrderService) Submit(ctx context.Context, customerID uuid.UUID, customerName string, req SubmitReviewRequest) (*SubmitReviewResponse, error) {
	if customerID == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}
	if len(req.Items) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Submission requires at least one item")
	}

	items := make([]review.LineItem, len(req.Items))
	for i, in := range req.Items {
		items[i] = review.LineItem{
			ItemID:        in.ItemID,
			ProductRef:    in.ProductRef,
			Quantity:      in.Quantity,
			Customization: in.Customization,
		}
	}

	var submittedAt time.Time
	if req.SubmittedAt != nil {
		submittedAt = *req.SubmittedAt
	}

	order, err := review.NewReviewOrder(customerID, customerName, items, req.Subtotal, req.Shipping, req.Tax, req.Total, submittedAt)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	itemIDs := order.SnapshotItemIDs()
	if len(itemIDs) > 0 {
		if _, err := s.cartRepo.MarkSubmitted(ctx, customerID, itemIDs, order.ID); err != nil {
			// Best-effort by contract: the aggregate exists and is
			// retrievable even if the cart bookkeeping lags behind.
			s.logger.Warn("failed to mark cart items submitted",
				zap.String("review_id", order.ID.String()),
				zap.Int("item_count", len(itemIDs)),
				zap.Error(err),
			)
		}
	}

	s.publishEvents(ctx, order)

	return &SubmitReviewResponse{
		ReviewID:    order.ID,
		Status:      order.Status.String(),
		SubmittedAt: order.SubmittedAt,
		ItemCount:   order.ItemCount(),
	}, nil
}

// GetForCustomer retrieves an owned review order. Foreign aggregates
// surface as NOT_FOUND.
func (s *ReviewOrderService) GetForCustomer(ctx context.Context, customerID, reviewID uuid.UUID) (*ReviewOrderResponse, error) {
	order, err := s.orderRepo.FindByIDForCustomer(ctx, customerID, reviewID)
	if err != nil {
		return nil, err
	}
	response := ToReviewOrderResponse(order)
	return &response, nil
}

// Get retrieves a review order by ID regardless of owner
func (s *ReviewOrderService) Get(ctx context.Context, reviewID uuid.UUID) (*ReviewOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	response := ToReviewOrderResponse(order)
	return &response, nil
}

// ListForCustomer returns the caller's review orders, newest first
func (s *ReviewOrderService) ListForCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]ReviewOrderResponse, int64, error) {
	applyFilterDefaults(&filter)

	orders, err := s.orderRepo.FindByCustomer(ctx, customerID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.CountByCustomer(ctx, customerID)
	if err != nil {
		return nil, 0, err
	}
	return ToReviewOrderResponses(orders), total, nil
}

// ListAll returns review orders system-wide for the admin dashboard,
// newest first, with the submitter name denormalized on each row
func (s *ReviewOrderService) ListAll(ctx context.Context, filter shared.Filter) ([]ReviewOrderResponse, int64, error) {
	applyFilterDefaults(&filter)

	orders, err := s.orderRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToReviewOrderResponses(orders), total, nil
}

// AdminReview applies an admin review decision to the aggregate. The
// "approved" input lands as pending-payment; when the decision approves
// the order, linked cart items are synced to "approved".
func (s *ReviewOrderService) AdminReview(ctx context.Context, reviewID uuid.UUID, req AdminReviewRequest) (*ReviewOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	syncItems, err := order.Review(req.Status, req.AdminNotes)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	if syncItems {
		s.approveLinkedCartItems(ctx, order)
	}

	s.publishEvents(ctx, order)

	response := ToReviewOrderResponse(order)
	return &response, nil
}

// UploadPictureReplies replaces the aggregate's picture-reply list with
// freshly stamped entries and notifies the owning customer
func (s *ReviewOrderService) UploadPictureReplies(ctx context.Context, reviewID uuid.UUID, replies []PictureReplyInput) (*ReviewOrderResponse, error) {
	if len(replies) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Picture replies cannot be empty")
	}

	order, err := s.orderRepo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	domainReplies := make([]review.PictureReply, len(replies))
	for i, r := range replies {
		domainReplies[i] = review.PictureReply{
			ItemID: r.ItemID,
			Image:  r.Image,
			Notes:  r.Notes,
		}
	}

	if err := order.AttachPictureReplies(domainReplies); err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, order)

	response := ToReviewOrderResponse(order)
	return &response, nil
}

// ConfirmPictureReplies records the owning customer's confirmations and
// drives the order to pending-payment. The caller must own the
// aggregate; foreign rows read as NOT_FOUND.
func (s *ReviewOrderService) ConfirmPictureReplies(ctx context.Context, customerID, reviewID uuid.UUID, confirmations []ConfirmationInput) (*ReviewOrderResponse, error) {
	if len(confirmations) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Confirmations cannot be empty")
	}

	order, err := s.orderRepo.FindByIDForCustomer(ctx, customerID, reviewID)
	if err != nil {
		return nil, err
	}

	domainConfs := make([]review.CustomerConfirmation, len(confirmations))
	for i, c := range confirmations {
		domainConfs[i] = review.CustomerConfirmation{
			ItemID:    c.ItemID,
			Confirmed: c.Confirmed,
			Notes:     c.Notes,
		}
	}

	if err := order.ConfirmPictures(domainConfs); err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	s.approveLinkedCartItems(ctx, order)

	s.publishEvents(ctx, order)

	response := ToReviewOrderResponse(order)
	return &response, nil
}

// approveLinkedCartItems syncs linked cart items to "approved". The
// back-reference column is the primary path; when it fails, item
// identifiers resolved from the stored snapshot are used instead. Both
// paths are best-effort relative to the parent request.
func (s *ReviewOrderService) approveLinkedCartItems(ctx context.Context, order *review.ReviewOrder) {
	if _, err := s.cartRepo.MarkApprovedByReview(ctx, order.ID); err == nil {
		return
	} else {
		s.logger.Warn("cart approval via back-reference failed, falling back to snapshot ids",
			zap.String("review_id", order.ID.String()),
			zap.Error(err),
		)
	}

	itemIDs := order.SnapshotItemIDs()
	if len(itemIDs) == 0 {
		return
	}
	if _, err := s.cartRepo.MarkApprovedByIDs(ctx, itemIDs); err != nil {
		s.logger.Warn("cart approval via snapshot ids failed",
			zap.String("review_id", order.ID.String()),
			zap.Error(err),
		)
	}
}

// publishEvents fans the aggregate's pending events out to subscribers.
// Delivery is fire-and-forget: publish failures are logged and the
// events are dropped.
func (s *ReviewOrderService) publishEvents(ctx context.Context, order *review.ReviewOrder) {
	events := order.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	order.ClearDomainEvents()

	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish review events",
			zap.String("review_id", order.ID.String()),
			zap.Int("event_count", len(events)),
			zap.Error(err),
		)
	}
}

func applyFilterDefaults(filter *shared.Filter) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "submitted_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}
}
