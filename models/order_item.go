package models

// OrderItem is a snapshot of one menu line at the moment the order was
// created. Name and price are copied from the menu so later menu edits
// never change a placed order.
type OrderItem struct {
	ID         uint    `gorm:"primaryKey" json:"-"`
	OrderID    string  `gorm:"size:36;not null;index" json:"-"`
	MenuItemID string  `gorm:"size:64;not null" json:"menuItemId"`
	Name       string  `gorm:"type:varchar(255);not null" json:"name"`
	Price      float64 `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity   int     `gorm:"not null" json:"qty"`
}

// Subtotal is price times quantity for this line.
func (i *OrderItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}
