package service

import (
	"errors"

	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/internal/app/repository"
	"github.com/threadline/storefront-backend/internal/pricing"
	"github.com/threadline/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	defaultProductPageSize = 24
	maxProductPageSize     = 100
)

type ProductListOptions struct {
	Category      string
	Search        string
	OnSaleOnly    bool
	Sort          repository.ProductSort
	SortAscending bool
	Limit         int
	Offset        int
}

// ProductListing is a catalog product with its resolved shelf price.
type ProductListing struct {
	model.Product
	PriceCents int64  `json:"price_cents"`
	OnSale     bool   `json:"on_sale"`
	PriceLabel string `json:"price_label"`
}

// PriceQuote is the price for one product and optional color/size pick.
type PriceQuote struct {
	ProductID      uint   `json:"product_id"`
	VariantID      *uint  `json:"variant_id,omitempty"`
	VariantMatched bool   `json:"variant_matched"`
	PriceCents     int64  `json:"price_cents"`
	BasePriceCents int64  `json:"base_price_cents"`
	OnSale         bool   `json:"on_sale"`
	PriceLabel     string `json:"price_label"`
	Image          string `json:"image,omitempty"`
	InStock        bool   `json:"in_stock"`
	Inventory      *int   `json:"inventory,omitempty"`
}

type ProductService interface {
	ListProducts(opts ProductListOptions) ([]ProductListing, int64, error)
	GetProductByID(id uint) (*ProductListing, error)
	GetProductBySlug(slug string) (*ProductListing, error)
	QuotePrice(productID uint, color, size string) (*PriceQuote, error)
}

type productService struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

func newProductListing(p model.Product) ProductListing {
	price := pricing.ResolvePrice(p.PricingProduct(), nil)
	return ProductListing{
		Product:    p,
		PriceCents: price,
		OnSale:     p.PricingProduct().OnSale(),
		PriceLabel: pricing.FormatMoney(price),
	}
}

func (s *productService) ListProducts(opts ProductListOptions) ([]ProductListing, int64, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultProductPageSize
	}
	limit = min(limit, maxProductPageSize)

	logger.Debug("Listing products", map[string]interface{}{
		"category": opts.Category,
		"search":   opts.Search,
		"on_sale":  opts.OnSaleOnly,
		"sort":     opts.Sort,
		"limit":    limit,
		"offset":   opts.Offset,
	})

	products, total, err := s.productRepo.FindWithFilter(repository.ProductFilter{
		Category:      opts.Category,
		Search:        opts.Search,
		OnSaleOnly:    opts.OnSaleOnly,
		SortBy:        opts.Sort,
		SortAscending: opts.SortAscending,
		Limit:         limit,
		Offset:        max(opts.Offset, 0),
	})
	if err != nil {
		logger.Error("Failed to list products", err)
		return nil, 0, err
	}

	listings := make([]ProductListing, 0, len(products))
	for _, p := range products {
		listings = append(listings, newProductListing(p))
	}
	return listings, total, nil
}

func (s *productService) GetProductByID(id uint) (*ProductListing, error) {
	product, err := s.activeProduct(s.productRepo.FindByID(id))
	if err != nil {
		return nil, err
	}
	listing := newProductListing(*product)
	return &listing, nil
}

func (s *productService) GetProductBySlug(slug string) (*ProductListing, error) {
	product, err := s.activeProduct(s.productRepo.FindBySlug(slug))
	if err != nil {
		return nil, err
	}
	listing := newProductListing(*product)
	return &listing, nil
}

// activeProduct hides inactive products from shoppers.
func (s *productService) activeProduct(product *model.Product, err error) (*model.Product, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !product.IsActive {
		logger.Debug("Inactive product requested", map[string]interface{}{
			"product_id": product.ID,
		})
		return nil, ErrProductNotFound
	}
	return product, nil
}

// QuotePrice resolves the variant for color/size and prices it. When no
// variant matches the product's own price and image are used.
func (s *productService) QuotePrice(productID uint, color, size string) (*PriceQuote, error) {
	product, err := s.activeProduct(s.productRepo.FindByID(productID))
	if err != nil {
		return nil, err
	}

	variants := product.PricingVariants()
	variant := pricing.FindVariant(variants, color, size)
	price := pricing.ResolvePrice(product.PricingProduct(), variant)

	quote := &PriceQuote{
		ProductID:      product.ID,
		VariantMatched: variant != nil,
		PriceCents:     price,
		BasePriceCents: product.BasePriceCents,
		OnSale:         price < product.BasePriceCents,
		PriceLabel:     pricing.FormatMoney(price),
		Image:          product.PrimaryImage(),
	}

	if variant != nil {
		id := variant.ID
		inventory := variant.Inventory
		quote.VariantID = &id
		quote.Inventory = &inventory
		quote.InStock = variant.InStock()
		if variant.ImageURL != "" {
			quote.Image = variant.ImageURL
		}
	} else {
		quote.InStock = len(variants) == 0 || anyInStock(variants)
	}

	logger.Debug("Price quoted", map[string]interface{}{
		"product_id":      productID,
		"color":           color,
		"size":            size,
		"variant_matched": quote.VariantMatched,
		"price_cents":     price,
	})
	return quote, nil
}

func anyInStock(variants []pricing.Variant) bool {
	for _, v := range variants {
		if v.InStock() {
			return true
		}
	}
	return false
}
