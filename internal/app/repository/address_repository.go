package repository

import (
	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type AddressRepository interface {
	Create(address *model.Address) error
	FindByUserID(userID string) ([]model.Address, error)
	FindByID(userID string, id uint) (*model.Address, error)
	Delete(userID string, id uint) error
	SetDefault(userID string, addressID uint) error
}

type addressRepository struct {
	db *gorm.DB
}

func NewAddressRepository(db *gorm.DB) AddressRepository {
	return &addressRepository{db: db}
}

func (r *addressRepository) Create(address *model.Address) error {
	logger.Debug("Creating address in database", map[string]interface{}{
		"user_id":    address.UserID,
		"city":       address.City,
		"is_default": address.IsDefault,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if address.IsDefault {
			if err := tx.Model(&model.Address{}).
				Where("user_id = ?", address.UserID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(address).Error
	})
	if err != nil {
		logger.Error("Failed to create address in database", err, map[string]interface{}{
			"user_id": address.UserID,
		})
		return err
	}

	logger.Debug("Address created in database", map[string]interface{}{
		"address_id": address.ID,
		"user_id":    address.UserID,
	})
	return nil
}

func (r *addressRepository) FindByUserID(userID string) ([]model.Address, error) {
	logger.Debug("Finding addresses by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var addresses []model.Address
	err := r.db.Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC, id DESC").
		Find(&addresses).Error
	if err != nil {
		logger.Error("Failed to find addresses by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return addresses, nil
}

// FindByID only returns addresses owned by userID.
func (r *addressRepository) FindByID(userID string, id uint) (*model.Address, error) {
	var address model.Address
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&address).Error; err != nil {
		logger.Error("Failed to find address by ID in database", err, map[string]interface{}{
			"address_id": id,
			"user_id":    userID,
		})
		return nil, err
	}
	return &address, nil
}

func (r *addressRepository) Delete(userID string, id uint) error {
	logger.Debug("Deleting address from database", map[string]interface{}{
		"address_id": id,
		"user_id":    userID,
	})

	res := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Address{})
	if res.Error != nil {
		logger.Error("Failed to delete address from database", res.Error, map[string]interface{}{
			"address_id": id,
		})
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *addressRepository) SetDefault(userID string, addressID uint) error {
	logger.Debug("Setting default address", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})

	tx := r.db.Begin()
	if tx.Error != nil {
		logger.Error("Failed to begin transaction for setting default address", tx.Error)
		return tx.Error
	}

	if err := tx.Model(&model.Address{}).Where("user_id = ?", userID).Update("is_default", false).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to unset default addresses", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}

	res := tx.Model(&model.Address{}).Where("id = ? AND user_id = ?", addressID, userID).Update("is_default", true)
	if res.Error != nil {
		tx.Rollback()
		logger.Error("Failed to set address as default", res.Error, map[string]interface{}{
			"user_id":    userID,
			"address_id": addressID,
		})
		return res.Error
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return gorm.ErrRecordNotFound
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit transaction for setting default address", err)
		return err
	}

	logger.Debug("Default address set successfully", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})
	return nil
}
