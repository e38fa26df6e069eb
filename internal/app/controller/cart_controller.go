package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/threadline/storefront-backend/internal/app/service"
	"github.com/threadline/storefront-backend/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Color     string `json:"color" binding:"max=50"`
	Size      string `json:"size" binding:"max=20"`
	Quantity  int    `json:"quantity" binding:"required,gt=0,lte=99"`
}

type AddComboToCartRequest struct {
	ComboID uint               `json:"combo_id" binding:"required"`
	Picks   []ComboPickRequest `json:"picks" binding:"required,min=1,dive"`
	Size    string             `json:"size" binding:"max=20"`
}

type UpdateCartRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0,lte=99"`
}

// GetCart returns the user's repriced cart
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	cart, err := ctrl.cartService.GetCart(userID)
	if err != nil {
		respondError(c, err, "get cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart": cart,
	})
}

// AddToCart adds a product line or bumps an existing one
// POST /api/v1/cart/items
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if !bindJSON(c, &req) {
		return
	}

	cart, err := ctrl.cartService.AddItem(userID, service.AddCartItemInput{
		ProductID: req.ProductID,
		Color:     req.Color,
		Size:      req.Size,
		Quantity:  req.Quantity,
	})
	if err != nil {
		respondError(c, err, "add to cart")
		return
	}

	log.Info("Item added to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": req.ProductID,
		"version":    cart.Version,
	})

	c.JSON(http.StatusOK, gin.H{
		"cart": cart,
	})
}

// AddComboToCart adds a completed bundle as one line
// POST /api/v1/cart/combos
func (ctrl *CartController) AddComboToCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req AddComboToCartRequest
	if !bindJSON(c, &req) {
		return
	}

	cart, err := ctrl.cartService.AddCombo(userID, service.AddComboInput{
		ComboID: req.ComboID,
		Picks:   toPicks(req.Picks),
		Size:    req.Size,
	})
	if err != nil {
		respondError(c, err, "add combo to cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart": cart,
	})
}

// UpdateCartItem sets a line's quantity
// PUT /api/v1/cart/items/:id
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req UpdateCartRequest
	if !bindJSON(c, &req) {
		return
	}

	cart, err := ctrl.cartService.UpdateItemQuantity(userID, c.Param("id"), req.Quantity)
	if err != nil {
		respondError(c, err, "update cart item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart": cart,
	})
}

// RemoveFromCart deletes a line
// DELETE /api/v1/cart/items/:id
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	cart, err := ctrl.cartService.RemoveItem(userID, c.Param("id"))
	if err != nil {
		respondError(c, err, "delete cart item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart": cart,
	})
}

// ClearCart empties the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := ctrl.cartService.ClearCart(userID); err != nil {
		respondError(c, err, "delete cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared",
	})
}
