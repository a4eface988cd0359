package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	reviewapp "github.com/stitchline/backend/internal/application/review"
	"github.com/stitchline/backend/internal/domain/review"
	"github.com/stitchline/backend/internal/domain/shared"
	"github.com/stitchline/backend/internal/interfaces/http/dto"
	"github.com/stitchline/backend/internal/interfaces/http/middleware"
)

// ReviewOrderHandler handles review order API endpoints
type ReviewOrderHandler struct {
	BaseHandler
	orderService *reviewapp.ReviewOrderService
}

// NewReviewOrderHandler creates a new ReviewOrderHandler
func NewReviewOrderHandler(orderService *reviewapp.ReviewOrderService) *ReviewOrderHandler {
	return &ReviewOrderHandler{orderService: orderService}
}

// SubmitItemRequest is one cart line in a submission
type SubmitItemRequest struct {
	ItemID        uuid.UUID            `json:"item_id" binding:"required"`
	ProductRef    string               `json:"product_ref" binding:"required,min=1,max=64" example:"hoodie-black"`
	Quantity      int                  `json:"quantity" binding:"required,min=1" example:"2"`
	Customization review.Customization `json:"customization"`
}

// SubmitReviewOrderRequest represents a cart submission
// @Description Request body for submitting the cart for review
type SubmitReviewOrderRequest struct {
	Items       []SubmitItemRequest `json:"items" binding:"required,min=1,dive"`
	Subtotal    decimal.Decimal     `json:"subtotal" binding:"required"`
	Shipping    decimal.Decimal     `json:"shipping"`
	Tax         decimal.Decimal     `json:"tax"`
	Total       decimal.Decimal     `json:"total" binding:"required"`
	SubmittedAt *time.Time          `json:"submitted_at"`
}

// AdminReviewDecisionRequest represents an admin review decision
// @Description Request body for the admin review decision
type AdminReviewDecisionRequest struct {
	Status     string `json:"status" binding:"required,reviewstatus" example:"approved"`
	AdminNotes string `json:"admin_notes" binding:"max=2000"`
}

// PictureReplyRequest is one proof image in an admin picture reply
type PictureReplyRequest struct {
	ItemID uuid.UUID `json:"item_id" binding:"required"`
	Image  string    `json:"image" binding:"required"`
	Notes  string    `json:"notes" binding:"max=2000"`
}

// UploadPictureRepliesRequest represents an admin picture reply upload
// @Description Request body for uploading proof pictures
type UploadPictureRepliesRequest struct {
	Replies []PictureReplyRequest `json:"picture_replies" binding:"required,min=1,dive"`
}

// ConfirmationRequest is one customer acknowledgment of a picture reply
type ConfirmationRequest struct {
	ItemID    uuid.UUID `json:"item_id" binding:"required"`
	Confirmed bool      `json:"confirmed"`
	Notes     string    `json:"notes" binding:"max=2000"`
}

// ConfirmPicturesRequest represents a customer picture confirmation
// @Description Request body for confirming proof pictures
type ConfirmPicturesRequest struct {
	Confirmations []ConfirmationRequest `json:"confirmations" binding:"required,min=1,dive"`
}

// Submit godoc
// @ID           submitReviewOrder
// @Summary      Submit the cart for review
// @Description  Create a review order from the authenticated customer's cart
// @Tags         review-orders
// @Accept       json
// @Produce      json
// @Param        request body SubmitReviewOrderRequest true "Submission"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Security     BearerAuth
// @Router       /review-orders [post]
func (h *ReviewOrderHandler) Submit(c *gin.Context) {
	customerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req SubmitReviewOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := reviewapp.SubmitReviewRequest{
		Items:       make([]reviewapp.SubmitItemInput, len(req.Items)),
		Subtotal:    req.Subtotal,
		Shipping:    req.Shipping,
		Tax:         req.Tax,
		Total:       req.Total,
		SubmittedAt: req.SubmittedAt,
	}
	for i, item := range req.Items {
		appReq.Items[i] = reviewapp.SubmitItemInput{
			ItemID:        item.ItemID,
			ProductRef:    item.ProductRef,
			Quantity:      item.Quantity,
			Customization: item.Customization,
		}
	}

	result, err := h.orderService.Submit(c.Request.Context(), customerID, getCustomerName(c), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// List godoc
// @ID           listReviewOrders
// @Summary      List my review orders
// @Description  List the authenticated customer's review orders
// @Tags         review-orders
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Param        status query string false "Status filter"
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Security     BearerAuth
// @Router       /review-orders [get]
func (h *ReviewOrderHandler) List(c *gin.Context) {
	customerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	filter, ok := h.bindListFilter(c)
	if !ok {
		return
	}

	orders, total, err := h.orderService.ListForCustomer(c.Request.Context(), customerID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// Get godoc
// @ID           getReviewOrder
// @Summary      Get one of my review orders
// @Description  Retrieve an owned review order by ID
// @Tags         review-orders
// @Produce      json
// @Param        id path string true "Review order ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /review-orders/{id} [get]
func (h *ReviewOrderHandler) Get(c *gin.Context) {
	customerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid review order ID")
		return
	}

	order, err := h.orderService.GetForCustomer(c.Request.Context(), customerID, reviewID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// ConfirmPictures godoc
// @ID           confirmPictures
// @Summary      Confirm proof pictures
// @Description  Record the customer's acknowledgment of uploaded proof pictures and move the order to pending-payment
// @Tags         review-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Review order ID"
// @Param        request body ConfirmPicturesRequest true "Confirmations"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /review-orders/{id}/confirm-pictures [post]
func (h *ReviewOrderHandler) ConfirmPictures(c *gin.Context) {
	customerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid review order ID")
		return
	}

	var req ConfirmPicturesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	confirmations := make([]reviewapp.ConfirmationInput, len(req.Confirmations))
	for i, conf := range req.Confirmations {
		confirmations[i] = reviewapp.ConfirmationInput{
			ItemID:    conf.ItemID,
			Confirmed: conf.Confirmed,
			Notes:     conf.Notes,
		}
	}

	order, err := h.orderService.ConfirmPictureReplies(c.Request.Context(), customerID, reviewID, confirmations)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// AdminList godoc
// @ID           adminListReviewOrders
// @Summary      List all review orders
// @Description  List review orders across all customers with optional filters
// @Tags         admin-review-orders
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Param        status query string false "Status filter"
// @Param        customer_id query string false "Customer filter"
// @Success      200 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Security     BearerAuth
// @Router       /admin/review-orders [get]
func (h *ReviewOrderHandler) AdminList(c *gin.Context) {
	filter, ok := h.bindListFilter(c)
	if !ok {
		return
	}

	if customerID := c.Query("customer_id"); customerID != "" {
		if _, err := uuid.Parse(customerID); err != nil {
			h.BadRequest(c, "Invalid customer ID")
			return
		}
		filter.Filters["customer_id"] = customerID
	}

	orders, total, err := h.orderService.ListAll(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// AdminGet godoc
// @ID           adminGetReviewOrder
// @Summary      Get any review order
// @Description  Retrieve a review order by ID regardless of owner
// @Tags         admin-review-orders
// @Produce      json
// @Param        id path string true "Review order ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /admin/review-orders/{id} [get]
func (h *ReviewOrderHandler) AdminGet(c *gin.Context) {
	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid review order ID")
		return
	}

	order, err := h.orderService.Get(c.Request.Context(), reviewID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// AdminReview godoc
// @ID           adminReviewOrder
// @Summary      Record a review decision
// @Description  Apply an admin review decision to a review order. An "approved" decision moves the order to pending-payment and marks the linked cart items approved.
// @Tags         admin-review-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Review order ID"
// @Param        request body AdminReviewDecisionRequest true "Decision"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /admin/review-orders/{id} [patch]
func (h *ReviewOrderHandler) AdminReview(c *gin.Context) {
	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid review order ID")
		return
	}

	var req AdminReviewDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.AdminReview(c.Request.Context(), reviewID, reviewapp.AdminReviewRequest{
		Status:     review.ReviewStatus(req.Status),
		AdminNotes: req.AdminNotes,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// AdminUploadPictures godoc
// @ID           adminUploadPictures
// @Summary      Upload proof pictures
// @Description  Replace the order's picture replies with a new set of proof images
// @Tags         admin-review-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Review order ID"
// @Param        request body UploadPictureRepliesRequest true "Picture replies"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /admin/review-orders/{id}/picture-reply [post]
func (h *ReviewOrderHandler) AdminUploadPictures(c *gin.Context) {
	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid review order ID")
		return
	}

	var req UploadPictureRepliesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	replies := make([]reviewapp.PictureReplyInput, len(req.Replies))
	for i, reply := range req.Replies {
		replies[i] = reviewapp.PictureReplyInput{
			ItemID: reply.ItemID,
			Image:  reply.Image,
			Notes:  reply.Notes,
		}
	}

	order, err := h.orderService.UploadPictureReplies(c.Request.Context(), reviewID, replies)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// bindListFilter parses common list query parameters into a filter.
// On binding failure a 400 has already been written.
func (h *ReviewOrderHandler) bindListFilter(c *gin.Context) (shared.Filter, bool) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return shared.Filter{}, false
	}

	filter := shared.DefaultFilter()
	filter.OrderBy = "submitted_at"
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	if req.Status != "" {
		filter.Filters["status"] = req.Status
	}

	return filter, true
}

// getCustomerName returns the display name carried in the JWT
func getCustomerName(c *gin.Context) string {
	return middleware.GetJWTUsername(c)
}

// RegisterRoutes registers the customer-facing review order routes
func (h *ReviewOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/review-orders")
	{
		orders.POST("", h.Submit)
		orders.GET("", h.List)
		orders.GET("/:id", h.Get)
		orders.POST("/:id/confirm-pictures", h.ConfirmPictures)
	}
}

// RegisterAdminRoutes registers the admin review order routes
func (h *ReviewOrderHandler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("/admin/review-orders")
	{
		admin.GET("", h.AdminList)
		admin.GET("/:id", h.AdminGet)
		admin.PATCH("/:id", h.AdminReview)
		admin.POST("/:id/picture-reply", h.AdminUploadPictures)
	}
}
