package model

import (
	"time"

	"gorm.io/gorm"
)

// ShippingAddress is the address snapshot stored on orders and staged payments.
type ShippingAddress struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type Address struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     string         `gorm:"type:varchar(128);not null;index" json:"user_id"`
	FullName   string         `gorm:"size:100;not null" json:"full_name"`
	Phone      string         `gorm:"size:30;not null" json:"phone"`
	Line1      string         `gorm:"type:text;not null" json:"line1"`
	Line2      string         `gorm:"type:text" json:"line2"`
	City       string         `gorm:"size:100;not null" json:"city"`
	State      string         `gorm:"size:100;not null" json:"state"`
	PostalCode string         `gorm:"size:20;not null" json:"postal_code"`
	Country    string         `gorm:"size:60;not null;default:'IN'" json:"country"`
	IsDefault  bool           `gorm:"default:false" json:"is_default"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Address) TableName() string {
	return "addresses"
}

func (a Address) Snapshot() ShippingAddress {
	return ShippingAddress{
		FullName:   a.FullName,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}
