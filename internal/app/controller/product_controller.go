package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/threadline/storefront-backend/internal/app/repository"
	"github.com/threadline/storefront-backend/internal/app/service"
	apperrors "github.com/threadline/storefront-backend/internal/errors"
	"github.com/threadline/storefront-backend/internal/middleware"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

type ListProductsQuery struct {
	Category string `form:"category"`
	Search   string `form:"search"`
	OnSale   bool   `form:"on_sale"`
	Sort     string `form:"sort" binding:"omitempty,oneof=price created_at title"`
	Order    string `form:"order" binding:"omitempty,oneof=asc desc"`
	Limit    int    `form:"limit" binding:"omitempty,gte=1,lte=100"`
	Offset   int    `form:"offset" binding:"omitempty,gte=0"`
}

type PriceQuery struct {
	Color string `form:"color"`
	Size  string `form:"size"`
}

// ListProducts returns active products with resolved prices
// GET /api/v1/products
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var q ListProductsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		log.Warn("Invalid product list query", map[string]interface{}{
			"error": err.Error(),
		})
		if fields := validationFields(err); len(fields) > 0 {
			apperrors.RespondWithValidationError(c, fields)
			return
		}
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "Invalid query parameters")
		return
	}

	products, total, err := ctrl.productService.ListProducts(service.ProductListOptions{
		Category:      q.Category,
		Search:        q.Search,
		OnSaleOnly:    q.OnSale,
		Sort:          repository.ProductSort(q.Sort),
		SortAscending: q.Order == "asc",
		Limit:         q.Limit,
		Offset:        q.Offset,
	})
	if err != nil {
		respondError(c, err, "list products")
		return
	}

	log.Info("Products fetched successfully", map[string]interface{}{
		"count": len(products),
		"total": total,
	})

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
		"total":    total,
	})
}

// GetProductByID returns a product by ID
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProductByID(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	product, err := ctrl.productService.GetProductByID(id)
	if err != nil {
		respondError(c, err, "get product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}

// GetProductBySlug returns a product by its URL slug
// GET /api/v1/products/slug/:slug
func (ctrl *ProductController) GetProductBySlug(c *gin.Context) {
	product, err := ctrl.productService.GetProductBySlug(c.Param("slug"))
	if err != nil {
		respondError(c, err, "get product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}

// QuotePrice resolves the variant for color/size and prices it
// GET /api/v1/products/:id/price
func (ctrl *ProductController) QuotePrice(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var q PriceQuery
	_ = c.ShouldBindQuery(&q)

	quote, err := ctrl.productService.QuotePrice(id, q.Color, q.Size)
	if err != nil {
		respondError(c, err, "quote product price")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quote": quote,
	})
}
