package repository

import (
	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type ComboRepository interface {
	Create(combo *model.ComboProduct) error
	FindAll(includeInactive bool) ([]model.ComboProduct, error)
	FindByID(id uint) (*model.ComboProduct, error)
	FindByIDs(ids []uint) ([]model.ComboProduct, error)
}

type comboRepository struct {
	db *gorm.DB
}

func NewComboRepository(db *gorm.DB) ComboRepository {
	return &comboRepository{db: db}
}

func (r *comboRepository) withItems() *gorm.DB {
	return r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC, id ASC")
	})
}

func (r *comboRepository) Create(combo *model.ComboProduct) error {
	logger.Debug("Creating combo in database", map[string]interface{}{
		"name":         combo.Name,
		"min_quantity": combo.MinQuantity,
		"items":        len(combo.Items),
	})

	if err := r.db.Create(combo).Error; err != nil {
		logger.Error("Failed to create combo in database", err, map[string]interface{}{
			"name": combo.Name,
		})
		return err
	}
	return nil
}

func (r *comboRepository) FindAll(includeInactive bool) ([]model.ComboProduct, error) {
	query := r.withItems()
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var combos []model.ComboProduct
	if err := query.Order("created_at DESC, id DESC").Find(&combos).Error; err != nil {
		logger.Error("Failed to find combos in database", err)
		return nil, err
	}

	logger.Debug("Combos found in database", map[string]interface{}{
		"count": len(combos),
	})
	return combos, nil
}

func (r *comboRepository) FindByID(id uint) (*model.ComboProduct, error) {
	logger.Debug("Finding combo by ID in database", map[string]interface{}{
		"combo_id": id,
	})

	var combo model.ComboProduct
	if err := r.withItems().First(&combo, id).Error; err != nil {
		logger.Error("Failed to find combo by ID in database", err, map[string]interface{}{
			"combo_id": id,
		})
		return nil, err
	}
	return &combo, nil
}

func (r *comboRepository) FindByIDs(ids []uint) ([]model.ComboProduct, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var combos []model.ComboProduct
	if err := r.withItems().Where("id IN ?", ids).Find(&combos).Error; err != nil {
		logger.Error("Failed to find combos by IDs in database", err, map[string]interface{}{
			"ids": ids,
		})
		return nil, err
	}
	return combos, nil
}
