package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	reviewapp "github.com/stitchline/backend/internal/application/review"
	"github.com/stitchline/backend/internal/domain/review"
)

// CartHandler handles cart-related API endpoints
type CartHandler struct {
	BaseHandler
	cartService *reviewapp.CartService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService *reviewapp.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// AddCartItemRequest represents a request to add an item to the cart
// @Description Request body for adding a cart item
type AddCartItemRequest struct {
	ProductRef    string               `json:"product_ref" binding:"required,min=1,max=64" example:"hoodie-black"`
	Quantity      int                  `json:"quantity" binding:"required,min=1" example:"2"`
	Customization review.Customization `json:"customization"`
}

// UpdateCartItemRequest represents a request to edit a cart item
// @Description Request body for updating a cart item
type UpdateCartItemRequest struct {
	Quantity      *int                  `json:"quantity" binding:"omitempty,min=1" example:"3"`
	Customization *review.Customization `json:"customization"`
}

// Add godoc
// @ID           addCartItem
// @Summary      Add an item to the cart
// @Description  Add a product line to the authenticated customer's cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body AddCartItemRequest true "Cart item"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Security     BearerAuth
// @Router       /cart/items [post]
func (h *CartHandler) Add(c *gin.Context) {
	customerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	item, err := h.cartService.Add(c.Request.Context(), customerID, reviewapp.AddCartItemRequest{
		ProductRef:    req.ProductRef,
		Quantity:      req.Quantity,
		Customization: req.Customization,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, item)
}

// List godoc
// @ID           listCartItems
// @Summary      List cart items
// @Description  List every cart item owned by the authenticated customer
// @Tags         cart
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Security     BearerAuth
// @Router       /cart/items [get]
func (h *CartHandler) List(c *gin.Context) {
	customerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	items, err := h.cartService.List(c.Request.Context(), customerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, items)
}

// Update godoc
// @ID           updateCartItem
// @Summary      Update a cart item
// @Description  Edit the quantity or customization of an owned cart item
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        id path string true "Cart item ID"
// @Param        request body UpdateCartItemRequest true "Changes"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /cart/items/{id} [put]
func (h *CartHandler) Update(c *gin.Context) {
	customerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid cart item ID")
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	item, err := h.cartService.Update(c.Request.Context(), customerID, itemID, reviewapp.UpdateCartItemRequest{
		Quantity:      req.Quantity,
		Customization: req.Customization,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, item)
}

// Remove godoc
// @ID           removeCartItem
// @Summary      Remove a cart item
// @Description  Delete an owned cart item
// @Tags         cart
// @Param        id path string true "Cart item ID"
// @Success      204
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /cart/items/{id} [delete]
func (h *CartHandler) Remove(c *gin.Context) {
	customerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid cart item ID")
		return
	}

	if err := h.cartService.Remove(c.Request.Context(), customerID, itemID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Clear godoc
// @ID           clearCart
// @Summary      Clear the cart
// @Description  Remove every cart item owned by the authenticated customer
// @Tags         cart
// @Success      204
// @Failure      401 {object} dto.Response
// @Security     BearerAuth
// @Router       /cart/items [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	customerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.cartService.Clear(c.Request.Context(), customerID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers all cart routes
func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	cart := rg.Group("/cart")
	{
		cart.GET("/items", h.List)
		cart.POST("/items", h.Add)
		cart.PUT("/items/:id", h.Update)
		cart.DELETE("/items/:id", h.Remove)
		cart.DELETE("/items", h.Clear)
	}
}
