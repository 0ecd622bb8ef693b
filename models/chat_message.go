package models

import "time"

// ChatMessage is one line in an order's chat log. Messages are immutable;
// the only destructive operation is clearing the whole log of an order.
// Ordering within an order is by (Timestamp, ID).
type ChatMessage struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	OrderID   string    `gorm:"size:36;not null;index:idx_chat_order_ts,priority:1" json:"orderId"`
	From      string    `gorm:"size:64;not null" json:"from"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Timestamp time.Time `gorm:"not null;index:idx_chat_order_ts,priority:2" json:"ts"`
}
