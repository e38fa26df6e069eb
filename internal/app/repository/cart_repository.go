package repository

import (
	"errors"
	"time"

	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrVersionConflict means the stored cart moved on since it was loaded.
var ErrVersionConflict = errors.New("cart version conflict")

type CartRepository interface {
	// Load returns the user's cart, or an empty version-0 cart if none exists.
	Load(userID string) (*model.Cart, error)
	// Save writes the cart if the stored version still equals cart.Version and
	// bumps cart.Version on success. Otherwise it returns ErrVersionConflict
	// and leaves the stored document untouched.
	Save(cart *model.Cart) error
}

type cartRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db, now: time.Now}
}

func (r *cartRepository) Load(userID string) (*model.Cart, error) {
	logger.Debug("Loading cart from database", map[string]interface{}{
		"user_id": userID,
	})

	var cart model.Cart
	err := r.db.Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.Cart{UserID: userID, Items: []model.CartItem{}}, nil
	}
	if err != nil {
		logger.Error("Failed to load cart from database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []model.CartItem{}
	}

	logger.Debug("Cart loaded from database", map[string]interface{}{
		"user_id": userID,
		"version": cart.Version,
		"lines":   len(cart.Items),
	})
	return &cart, nil
}

func (r *cartRepository) Save(cart *model.Cart) error {
	if cart.Items == nil {
		cart.Items = []model.CartItem{}
	}
	logger.Debug("Saving cart to database", map[string]interface{}{
		"user_id": cart.UserID,
		"version": cart.Version,
		"lines":   len(cart.Items),
	})

	next := *cart
	next.Version = cart.Version + 1
	next.UpdatedAt = r.now()

	var res *gorm.DB
	if cart.Version == 0 {
		next.CreatedAt = next.UpdatedAt
		res = r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&next)
	} else {
		res = r.db.Model(&model.Cart{}).
			Where("user_id = ? AND version = ?", cart.UserID, cart.Version).
			Select("items", "version", "updated_at").
			Updates(&next)
	}
	if res.Error != nil {
		logger.Error("Failed to save cart to database", res.Error, map[string]interface{}{
			"user_id": cart.UserID,
		})
		return res.Error
	}
	if res.RowsAffected == 0 {
		logger.Warn("Cart version conflict", map[string]interface{}{
			"user_id":          cart.UserID,
			"expected_version": cart.Version,
		})
		return ErrVersionConflict
	}

	cart.Version = next.Version
	cart.UpdatedAt = next.UpdatedAt
	logger.Debug("Cart saved to database", map[string]interface{}{
		"user_id": cart.UserID,
		"version": cart.Version,
	})
	return nil
}
