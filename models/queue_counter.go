package models

// QueueCounter holds the next queue number to hand out for a vendor.
// Day is a YYYY-MM-DD bucket under the daily reset policy and the empty
// string under the global policy, so both policies share one table.
type QueueCounter struct {
	VendorID string `gorm:"primaryKey;size:64"`
	Day      string `gorm:"primaryKey;size:10"`
	Next     int    `gorm:"not null;default:1"`
}
