package models

import "time"

// Vendor is a food stall. Students can only order from approved vendors.
type Vendor struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Approved  bool      `gorm:"not null;default:false" json:"approved"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`
}
