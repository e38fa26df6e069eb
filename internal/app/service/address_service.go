package service

import (
	"errors"

	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/internal/app/repository"
	"github.com/threadline/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type AddressService interface {
	GetUserAddresses(userID string) ([]model.Address, error)
	GetAddress(userID string, addressID uint) (*model.Address, error)
	CreateAddress(userID string, address *model.Address) error
	DeleteAddress(userID string, addressID uint) error
	SetDefaultAddress(userID string, addressID uint) error
}

type addressService struct {
	addressRepo repository.AddressRepository
}

func NewAddressService(addressRepo repository.AddressRepository) AddressService {
	return &addressService{
		addressRepo: addressRepo,
	}
}

func (s *addressService) GetUserAddresses(userID string) ([]model.Address, error) {
	logger.Debug("Fetching user addresses", map[string]interface{}{
		"user_id": userID,
	})

	addresses, err := s.addressRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user addresses", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return addresses, nil
}

// GetAddress only returns addresses owned by userID; anything else reads as
// not found.
func (s *addressService) GetAddress(userID string, addressID uint) (*model.Address, error) {
	address, err := s.addressRepo.FindByID(userID, addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	return address, nil
}

func (s *addressService) CreateAddress(userID string, address *model.Address) error {
	logger.Info("Creating address", map[string]interface{}{
		"user_id": userID,
		"city":    address.City,
	})

	address.ID = 0
	address.UserID = userID
	if address.Country == "" {
		address.Country = "IN"
	}

	// The first address becomes the default.
	existing, err := s.addressRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to check existing addresses", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}
	if len(existing) == 0 {
		address.IsDefault = true
	}

	if err := s.addressRepo.Create(address); err != nil {
		logger.Error("Failed to create address", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}

	logger.Info("Address created successfully", map[string]interface{}{
		"address_id": address.ID,
		"user_id":    userID,
		"is_default": address.IsDefault,
	})
	return nil
}

func (s *addressService) DeleteAddress(userID string, addressID uint) error {
	logger.Info("Deleting address", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})

	if err := s.addressRepo.Delete(userID, addressID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Address not found for deletion", map[string]interface{}{
				"user_id":    userID,
				"address_id": addressID,
			})
			return ErrAddressNotFound
		}
		return err
	}
	return nil
}

func (s *addressService) SetDefaultAddress(userID string, addressID uint) error {
	logger.Info("Setting default address", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})

	if err := s.addressRepo.SetDefault(userID, addressID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAddressNotFound
		}
		logger.Error("Failed to set default address", err, map[string]interface{}{
			"user_id":    userID,
			"address_id": addressID,
		})
		return err
	}
	return nil
}
