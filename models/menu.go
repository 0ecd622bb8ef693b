package models

import "time"

// Menu is one item a vendor sells. Its price is the authoritative price
// used when computing order totals.
type Menu struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	VendorID  string    `gorm:"size:64;not null;index" json:"vendorId"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Price     float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`
}
