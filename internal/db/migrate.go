package db

import (
	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table the service owns, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.Product{},
		&model.ProductVariant{},
		&model.Coupon{},
		&model.ComboProduct{},
		&model.ComboProductItem{},
		&model.Cart{},
		&model.Address{},
		&model.Order{},
		&model.OrderItem{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	return MigrateDB(DB)
}

func MigrateDB(conn *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := conn.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}
