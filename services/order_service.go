package services

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/warinyupha/sk-food-queue/models"
	"github.com/warinyupha/sk-food-queue/utils"
)

// Queue number reset policies. The source system never pinned this down,
// so it is plain configuration (QUEUE_RESET env).
const (
	QueueResetDaily  = "daily"
	QueueResetGlobal = "global"
)

// Broadcaster is the slice of the realtime hub the services need. The
// hub satisfies it; tests substitute a recorder.
type Broadcaster interface {
	OrderCreated(models.Order)
	OrderUpdated(models.Order)
	OrderPaid(models.Order)
	ChatMessage(models.ChatMessage)
	ChatCleared(orderID string, deleted int64)
}

// OrderService is the authoritative order state machine. All status
// mutations go through it and every successful transition broadcasts
// exactly one event carrying the full updated order.
type OrderService struct {
	DB         *gorm.DB
	Broadcast  Broadcaster
	QueueReset string
	Now        func() time.Time
}

func NewOrderService(db *gorm.DB, b Broadcaster, queueReset string) *OrderService {
	if queueReset != QueueResetGlobal {
		queueReset = QueueResetDaily
	}
	return &OrderService{DB: db, Broadcast: b, QueueReset: queueReset, Now: time.Now}
}

// CreateItem is one requested line of a new order. Only the menu item id
// and quantity are taken from the client; names and prices come from the
// vendor's menu so a tampered request cannot change the total.
type CreateItem struct {
	MenuItemID string `json:"menuItemId"`
	Quantity   int    `json:"qty"`
}

// Create validates the request, snapshots menu prices into order items
// and persists the order in status created.
func (s *OrderService) Create(studentID, vendorID string, items []CreateItem) (models.Order, error) {
	if studentID == "" {
		return models.Order{}, validationErrorf("studentId is required")
	}
	if len(items) == 0 {
		return models.Order{}, validationErrorf("order needs at least one item")
	}
	for _, it := range items {
		if it.Quantity < 1 {
			return models.Order{}, validationErrorf("quantity for %s must be at least 1", it.MenuItemID)
		}
	}

	var vendor models.Vendor
	if err := s.DB.First(&vendor, "id = ?", vendorID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.Order{}, validationErrorf("unknown vendor %s", vendorID)
		}
		return models.Order{}, err
	}
	if !vendor.Approved {
		return models.Order{}, validationErrorf("vendor %s is not approved", vendorID)
	}

	order := models.Order{
		ID:        uuid.NewString(),
		StudentID: studentID,
		VendorID:  vendorID,
		Status:    models.OrderStatusCreated,
		CreatedAt: s.Now(),
		UpdatedAt: s.Now(),
	}
	for _, it := range items {
		var menu models.Menu
		if err := s.DB.Where("id = ? AND vendor_id = ?", it.MenuItemID, vendorID).First(&menu).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.Order{}, validationErrorf("unknown menu item %s", it.MenuItemID)
			}
			return models.Order{}, err
		}
		line := models.OrderItem{
			OrderID:    order.ID,
			MenuItemID: menu.ID,
			Name:       menu.Name,
			Price:      menu.Price,
			Quantity:   it.Quantity,
		}
		order.Items = append(order.Items, line)
		order.Total += line.Subtotal()
	}

	if err := s.DB.Create(&order).Error; err != nil {
		return models.Order{}, err
	}
	utils.InfoLogger.Printf("order %s created by %s for vendor %s, total %.2f",
		order.ID, studentID, vendorID, order.Total)
	s.Broadcast.OrderCreated(order)
	return order, nil
}

// MarkPaid stamps PaidAt and moves the order to
// pending_vendor_confirmation. Legal only before a terminal state.
func (s *OrderService) MarkPaid(orderID string) (models.Order, error) {
	now := s.Now()
	res := s.DB.Model(&models.Order{}).
		Where("id = ? AND status IN ?", orderID,
			[]string{models.OrderStatusCreated, models.OrderStatusPending}).
		Updates(map[string]interface{}{
			"status":     models.OrderStatusPending,
			"paid_at":    now,
			"updated_at": now,
		})
	if res.Error != nil {
		return models.Order{}, res.Error
	}
	if res.RowsAffected == 0 {
		return models.Order{}, s.transitionConflict(orderID, "mark paid")
	}

	order, err := s.Get(orderID)
	if err != nil {
		return models.Order{}, err
	}
	utils.InfoLogger.Printf("order %s marked paid", orderID)
	s.Broadcast.OrderPaid(order)
	return order, nil
}

// Accept moves the order to accepted and hands out the vendor's next
// queue number. The status check and the counter increment commit in one
// transaction: if the compare-and-set loses to a concurrent terminal
// transition, the counter increment rolls back and no number is burned.
func (s *OrderService) Accept(orderID string) (models.Order, error) {
	var accepted models.Order
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			return err
		}
		if order.Status != models.OrderStatusPending {
			return &InvalidStateError{OrderID: orderID, Status: order.Status, Op: "accept"}
		}

		number, err := s.nextQueueNumber(tx, order.VendorID)
		if err != nil {
			return err
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, models.OrderStatusPending).
			Updates(map[string]interface{}{
				"status":       models.OrderStatusAccepted,
				"queue_number": number,
				"updated_at":   s.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &InvalidStateError{OrderID: orderID, Status: order.Status, Op: "accept"}
		}

		return tx.Preload("Items").First(&accepted, "id = ?", orderID).Error
	})
	if err != nil {
		return models.Order{}, err
	}
	utils.InfoLogger.Printf("order %s accepted, queue number %d", orderID, *accepted.QueueNumber)
	s.Broadcast.OrderUpdated(accepted)
	return accepted, nil
}

// Reject moves the order to rejected. No queue number is assigned.
func (s *OrderService) Reject(orderID string) (models.Order, error) {
	res := s.DB.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, models.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":     models.OrderStatusRejected,
			"updated_at": s.Now(),
		})
	if res.Error != nil {
		return models.Order{}, res.Error
	}
	if res.RowsAffected == 0 {
		return models.Order{}, s.transitionConflict(orderID, "reject")
	}

	order, err := s.Get(orderID)
	if err != nil {
		return models.Order{}, err
	}
	utils.InfoLogger.Printf("order %s rejected", orderID)
	s.Broadcast.OrderUpdated(order)
	return order, nil
}

// Get loads one order with its items.
func (s *OrderService) Get(orderID string) (models.Order, error) {
	var order models.Order
	err := s.DB.Preload("Items").First(&order, "id = ?", orderID).Error
	return order, err
}

// ListByStudent returns a student's orders, newest first.
func (s *OrderService) ListByStudent(studentID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.Preload("Items").
		Where("student_id = ?", studentID).
		Order("created_at DESC").Find(&orders).Error
	return orders, err
}

// ListByVendor returns a vendor's orders, newest first.
func (s *OrderService) ListByVendor(vendorID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.Preload("Items").
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").Find(&orders).Error
	return orders, err
}

// nextQueueNumber hands out the vendor's next number inside the accept
// transaction. The atomic increment keeps concurrent accepts of
// different orders from sharing a number; if the surrounding
// compare-and-set fails the increment rolls back with it.
func (s *OrderService) nextQueueNumber(tx *gorm.DB, vendorID string) (int, error) {
	day := s.queueDay()
	res := tx.Model(&models.QueueCounter{}).
		Where("vendor_id = ? AND day = ?", vendorID, day).
		Update("next", gorm.Expr("next + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		// First accept for this vendor (and day, under the daily policy).
		counter := models.QueueCounter{VendorID: vendorID, Day: day, Next: 2}
		if err := tx.Create(&counter).Error; err != nil {
			return 0, err
		}
		return 1, nil
	}
	var counter models.QueueCounter
	if err := tx.First(&counter, "vendor_id = ? AND day = ?", vendorID, day).Error; err != nil {
		return 0, err
	}
	return counter.Next - 1, nil
}

// transitionConflict turns a zero-row compare-and-set into the right
// error: not found if the order never existed, invalid state otherwise.
func (s *OrderService) transitionConflict(orderID, op string) error {
	var order models.Order
	if err := s.DB.First(&order, "id = ?", orderID).Error; err != nil {
		return err
	}
	return &InvalidStateError{OrderID: orderID, Status: order.Status, Op: op}
}

func (s *OrderService) queueDay() string {
	if s.QueueReset == QueueResetGlobal {
		return ""
	}
	return s.Now().Format("2006-01-02")
}
