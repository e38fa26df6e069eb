package repository

import (
	"strings"

	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProductSort string

const (
	ProductSortPrice     ProductSort = "price"
	ProductSortCreatedAt ProductSort = "created_at"
	ProductSortTitle     ProductSort = "title"
)

type ProductFilter struct {
	Category        string
	Search          string
	OnSaleOnly      bool
	IncludeInactive bool
	SortBy          ProductSort
	SortAscending   bool
	Limit           int
	Offset          int
}

type ProductRepository interface {
	Create(product *model.Product) error
	FindWithFilter(filter ProductFilter) ([]model.Product, int64, error)
	FindByID(id uint) (*model.Product, error)
	FindBySlug(slug string) (*model.Product, error)
	FindByIDs(ids []uint) ([]model.Product, error)
	Update(product *model.Product) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"title":    product.Title,
		"slug":     product.Slug,
		"variants": len(product.Variants),
	})

	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"title": product.Title,
			"slug":  product.Slug,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
		"slug":       product.Slug,
	})
	return nil
}

func (r *productRepository) FindWithFilter(filter ProductFilter) ([]model.Product, int64, error) {
	logger.Debug("Finding products with filter", map[string]interface{}{
		"category":  filter.Category,
		"search":    filter.Search,
		"on_sale":   filter.OnSaleOnly,
		"sort_by":   filter.SortBy,
		"ascending": filter.SortAscending,
		"limit":     filter.Limit,
		"offset":    filter.Offset,
	})

	query := r.db.Model(&model.Product{})
	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if filter.Category != "" {
		query = query.Where("LOWER(category) = ?", strings.ToLower(filter.Category))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if filter.OnSaleOnly {
		query = query.Where("sale_price_cents IS NOT NULL AND sale_price_cents < base_price_cents")
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count products", err)
		return nil, 0, err
	}

	query = query.Order(productOrder(filter.SortBy, filter.SortAscending))
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var products []model.Product
	if err := query.Preload("Variants").Find(&products).Error; err != nil {
		logger.Error("Failed to find products with filter", err)
		return nil, 0, err
	}

	logger.Debug("Products found with filter", map[string]interface{}{
		"count": len(products),
		"total": total,
	})
	return products, total, nil
}

func productOrder(sortBy ProductSort, ascending bool) string {
	dir := "DESC"
	if ascending {
		dir = "ASC"
	}
	switch sortBy {
	case ProductSortPrice:
		// effective price: sale when valid, else base
		return "CASE WHEN sale_price_cents IS NOT NULL AND sale_price_cents < base_price_cents " +
			"THEN sale_price_cents ELSE base_price_cents END " + dir + ", id " + dir
	case ProductSortTitle:
		return "title " + dir + ", id " + dir
	default:
		return "created_at " + dir + ", id " + dir
	}
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	logger.Debug("Finding product by ID in database", map[string]interface{}{
		"product_id": id,
	})

	var product model.Product
	if err := r.db.Preload("Variants").First(&product, id).Error; err != nil {
		logger.Error("Failed to find product by ID in database", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindBySlug(slug string) (*model.Product, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	logger.Debug("Finding product by slug in database", map[string]interface{}{
		"slug": slug,
	})

	var product model.Product
	if err := r.db.Preload("Variants").Where("slug = ?", slug).First(&product).Error; err != nil {
		logger.Error("Failed to find product by slug in database", err, map[string]interface{}{
			"slug": slug,
		})
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads products (active or not) with variants. Missing ids are
// simply absent from the result.
func (r *productRepository) FindByIDs(ids []uint) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	logger.Debug("Finding products by IDs in database", map[string]interface{}{
		"count": len(ids),
	})

	var products []model.Product
	if err := r.db.Preload("Variants").Where("id IN ?", ids).Find(&products).Error; err != nil {
		logger.Error("Failed to find products by IDs in database", err, map[string]interface{}{
			"ids": ids,
		})
		return nil, err
	}
	return products, nil
}

func (r *productRepository) Update(product *model.Product) error {
	logger.Debug("Updating product in database", map[string]interface{}{
		"product_id": product.ID,
	})

	if err := r.db.Omit("Variants").Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}
	return nil
}
