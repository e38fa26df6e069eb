package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/internal/app/service"
)

type AddressController struct {
	addressService service.AddressService
}

func NewAddressController(addressService service.AddressService) *AddressController {
	return &AddressController{
		addressService: addressService,
	}
}

type CreateAddressRequest struct {
	FullName   string `json:"full_name" binding:"required,max=100"`
	Phone      string `json:"phone" binding:"required,min=7,max=30"`
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required,max=100"`
	State      string `json:"state" binding:"required,max=100"`
	PostalCode string `json:"postal_code" binding:"required,max=20"`
	Country    string `json:"country" binding:"omitempty,len=2"`
}

// GetAddresses returns the user's saved addresses
// GET /api/v1/addresses
func (ctrl *AddressController) GetAddresses(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	addresses, err := ctrl.addressService.GetUserAddresses(userID)
	if err != nil {
		respondError(c, err, "list addresses")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"addresses": addresses,
		"count":     len(addresses),
	})
}

// CreateAddress saves a shipping address
// POST /api/v1/addresses
func (ctrl *AddressController) CreateAddress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req CreateAddressRequest
	if !bindJSON(c, &req) {
		return
	}

	address := &model.Address{
		FullName:   req.FullName,
		Phone:      req.Phone,
		Line1:      req.Line1,
		Line2:      req.Line2,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
	}
	if err := ctrl.addressService.CreateAddress(userID, address); err != nil {
		respondError(c, err, "create address")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"address": address,
	})
}

// DeleteAddress removes a saved address
// DELETE /api/v1/addresses/:id
func (ctrl *AddressController) DeleteAddress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.addressService.DeleteAddress(userID, id); err != nil {
		respondError(c, err, "delete address")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Address deleted",
	})
}

// SetDefaultAddress marks an address as the default
// PUT /api/v1/addresses/:id/default
func (ctrl *AddressController) SetDefaultAddress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.addressService.SetDefaultAddress(userID, id); err != nil {
		respondError(c, err, "update address")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Default address updated",
	})
}
