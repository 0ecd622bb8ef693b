package models

import (
	"time"
)

// Order status values. An order only ever moves forward:
// created -> pending_vendor_confirmation -> accepted | rejected.
const (
	OrderStatusCreated  = "created"
	OrderStatusPending  = "pending_vendor_confirmation"
	OrderStatusAccepted = "accepted"
	OrderStatusRejected = "rejected"
)

type Order struct {
	ID          string      `gorm:"primaryKey;size:36" json:"id"`
	StudentID   string      `gorm:"size:64;not null;index" json:"studentId"`
	VendorID    string      `gorm:"size:64;not null;index" json:"vendorId"`
	Items       []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items"`
	Total       float64     `gorm:"type:decimal(10,2);not null;default:0.00" json:"total"`
	Status      string      `gorm:"type:varchar(32);not null;default:'created'" json:"status"`
	QueueNumber *int        `json:"queueNumber,omitempty"`
	CreatedAt   time.Time   `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time   `gorm:"not null" json:"-"`
	PaidAt      *time.Time  `json:"paidAt,omitempty"`
}

// IsTerminal reports whether the vendor has already decided this order.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusAccepted || o.Status == OrderStatusRejected
}
