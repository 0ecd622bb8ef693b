package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/warinyupha/sk-food-queue/models"
)

// recorder captures broadcasts so tests can assert on event emission
// without a live hub.
type recorder struct {
	created []models.Order
	updated []models.Order
	paid    []models.Order
	chat    []models.ChatMessage
	cleared []string
}

func (r *recorder) OrderCreated(o models.Order)  { r.created = append(r.created, o) }
func (r *recorder) OrderUpdated(o models.Order)  { r.updated = append(r.updated, o) }
func (r *recorder) OrderPaid(o models.Order)     { r.paid = append(r.paid, o) }
func (r *recorder) ChatMessage(m models.ChatMessage) {
	r.chat = append(r.chat, m)
}
func (r *recorder) ChatCleared(orderID string, deleted int64) {
	r.cleared = append(r.cleared, orderID)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Vendor{},
		&models.Menu{},
		&models.Order{},
		&models.OrderItem{},
		&models.ChatMessage{},
		&models.QueueCounter{},
	))

	// Seed one approved vendor with two menu items, plus an unapproved
	// vendor.
	require.NoError(t, db.Create(&models.Vendor{ID: "v1", Name: "Pad Thai Stall", Approved: true}).Error)
	require.NoError(t, db.Create(&models.Vendor{ID: "v2", Name: "Waiting Stall", Approved: false}).Error)
	require.NoError(t, db.Create(&models.Menu{ID: "m1", VendorID: "v1", Name: "Pad Thai", Price: 45}).Error)
	require.NoError(t, db.Create(&models.Menu{ID: "m2", VendorID: "v1", Name: "Iced Tea", Price: 20}).Error)
	return db
}

func newOrderService(t *testing.T) (*OrderService, *recorder) {
	t.Helper()
	rec := &recorder{}
	svc := NewOrderService(setupTestDB(t), rec, QueueResetDaily)
	return svc, rec
}

func TestCreateOrderComputesTotalFromMenuPrices(t *testing.T) {
	svc, rec := newOrderService(t)

	order, err := svc.Create("s1", "v1", []CreateItem{{MenuItemID: "m1", Quantity: 2}})
	require.NoError(t, err)

	assert.Equal(t, 90.0, order.Total)
	assert.Equal(t, models.OrderStatusCreated, order.Status)
	assert.Nil(t, order.QueueNumber)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Pad Thai", order.Items[0].Name)
	assert.Equal(t, 45.0, order.Items[0].Price)
	require.Len(t, rec.created, 1)
	assert.Equal(t, order.ID, rec.created[0].ID)
}

func TestCreateOrderMixedItems(t *testing.T) {
	svc, _ := newOrderService(t)

	order, err := svc.Create("s1", "v1", []CreateItem{
		{MenuItemID: "m1", Quantity: 1},
		{MenuItemID: "m2", Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 45.0+3*20.0, order.Total)
	assert.Len(t, order.Items, 2)
}

func TestCreateOrderValidation(t *testing.T) {
	svc, rec := newOrderService(t)

	cases := []struct {
		name      string
		studentID string
		vendorID  string
		items     []CreateItem
	}{
		{"no items", "s1", "v1", nil},
		{"zero quantity", "s1", "v1", []CreateItem{{MenuItemID: "m1", Quantity: 0}}},
		{"negative quantity", "s1", "v1", []CreateItem{{MenuItemID: "m1", Quantity: -2}}},
		{"unknown vendor", "s1", "nope", []CreateItem{{MenuItemID: "m1", Quantity: 1}}},
		{"unapproved vendor", "s1", "v2", []CreateItem{{MenuItemID: "m1", Quantity: 1}}},
		{"unknown menu item", "s1", "v1", []CreateItem{{MenuItemID: "m9", Quantity: 1}}},
		{"menu item of another vendor", "s1", "v2", []CreateItem{{MenuItemID: "m1", Quantity: 1}}},
		{"missing student", "", "v1", []CreateItem{{MenuItemID: "m1", Quantity: 1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(tc.studentID, tc.vendorID, tc.items)
			assert.True(t, IsValidation(err), "expected ValidationError, got %v", err)
		})
	}
	assert.Empty(t, rec.created)
}

func TestMarkPaidMovesToPending(t *testing.T) {
	svc, rec := newOrderService(t)
	order, err := svc.Create("s1", "v1", []CreateItem{{MenuItemID: "m1", Quantity: 1}})
	require.NoError(t, err)

	paid, err := svc.MarkPaid(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, paid.Status)
	require.NotNil(t, paid.PaidAt)
	require.Len(t, rec.paid, 1)
}

func TestMarkPaidRejectedAfterTerminal(t *testing.T) {
	svc, _ := newOrderService(t)
	order, err := svc.Create("s1", "v1", []CreateItem{{MenuItemID: "m1", Quantity: 1}})
	require.NoError(t, err)
	_, err = svc.MarkPaid(order.ID)
	require.NoError(t, err)
	_, err = svc.Accept(order.ID)
	require.NoError(t, err)

	_, err = svc.MarkPaid(order.ID)
	assert.True(t, IsInvalidState(err), "expected InvalidStateError, got %v", err)
}

func TestAcceptAssignsMonotonicQueueNumbers(t *testing.T) {
	svc, _ := newOrderService(t)

	var numbers []int
	for i := 0; i < 3; i++ {
		order, err := svc.Create("s1", "v1", []CreateItem{{MenuItemID: "m1", Quantity: 1}})
		require.NoError(t, err)
		_, err = svc.MarkPaid(order.ID)
		require.NoError(t, err)
		accepted, err := svc.Accept(order.ID)
		require.NoError(t, err)
		require.NotNil(t, accepted.QueueNumber)
		numbers = append(numbers, *accepted.QueueNumber)
	}
	assert.Equal(t, []int{1, 2, 3}, numbers)
}

func TestAcceptTwiceKeepsSingleQueueNumber(t *testing.T) {
	svc, rec := newOrderService(t)
	order, err := svc.Create("s1", "v1", []CreateItem{{MenuItemID: "m1", Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, 90.0, order.Total)

	_, err = svc.MarkPaid(order.ID)
	require.NoError(t, err)
	accepted, err := svc.Accept(order.ID)
	require.NoError(t, err)
	require.NotNil(t, accepted.QueueNumber)
	assert.Equal(t, 1, *accepted.QueueNumber)

	_, err = svc.Accept(order.ID)
	assert.True(t, IsInvalidState(err), "expected InvalidStateError, got %v", err)

	// Queue number unchanged, no duplicate event.
	reloaded, err := svc.Get(order.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.QueueNumber)
	assert.Equal(t, 1, *reloaded.QueueNumber)
	assert.Len(t, rec.updated, 1)

	// The burned attempt must not advance the next order's number past 2.
	second, err := svc.Create("s1", "v1", []CreateItem{{MenuItemID: "m2", Quantity: 1}})
	require.NoError(t, err)
	_, err = svc.MarkPaid(second.ID)
	require.NoError(t, err)
	acceptedSecond, err := svc.Accept(second.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, *acceptedSecond.QueueNumber)
}

func TestAcceptRequiresPendingStatus(t *testing.T) {
	svc, _ := newOrderService(t)
	order, err := svc.Create("s1", "v1", []CreateItem{{MenuItemID: "m1", Quantity: 1}})
	require.NoError(t, err)

	// Straight from created, without payment.
	_, err = svc.Accept(order.ID)
	assert.True(t, IsInvalidState(err))
}

func TestRejectIsTerminalWithoutQueueNumber(t *testing.T) {
	svc, _ := newOrderService(t)
	order, err := svc.Create("s1", "v1", []CreateItem{{MenuItemID: "m1", Quantity: 1}})
	require.NoError(t, err)
	_, err = svc.MarkPaid(order.ID)
	require.NoError(t, err)

	rejected, err := svc.Reject(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusRejected, rejected.Status)
	assert.Nil(t, rejected.QueueNumber)

	_, err = svc.Accept(order.ID)
	assert.True(t, IsInvalidState(err))
	_, err = svc.Reject(order.ID)
	assert.True(t, IsInvalidState(err))
}

func TestQueueNumbersIndependentPerVendor(t *testing.T) {
	svc, _ := newOrderService(t)
	db := svc.DB
	require.NoError(t, db.Create(&models.Vendor{ID: "v3", Name: "Second Stall", Approved: true}).Error)
	require.NoError(t, db.Create(&models.Menu{ID: "m3", VendorID: "v3", Name: "Rice", Price: 30}).Error)

	first, err := svc.Create("s1", "v1", []CreateItem{{MenuItemID: "m1", Quantity: 1}})
	require.NoError(t, err)
	other, err := svc.Create("s1", "v3", []CreateItem{{MenuItemID: "m3", Quantity: 1}})
	require.NoError(t, err)

	for _, id := range []string{first.ID, other.ID} {
		_, err = svc.MarkPaid(id)
		require.NoError(t, err)
	}
	a, err := svc.Accept(first.ID)
	require.NoError(t, err)
	b, err := svc.Accept(other.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, *a.QueueNumber)
	assert.Equal(t, 1, *b.QueueNumber)
}

func TestDailyResetStartsOverNextDay(t *testing.T) {
	svc, _ := newOrderService(t)
	day := time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return day }

	order, err := svc.Create("s1", "v1", []CreateItem{{MenuItemID: "m1", Quantity: 1}})
	require.NoError(t, err)
	_, err = svc.MarkPaid(order.ID)
	require.NoError(t, err)
	a, err := svc.Accept(order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, *a.QueueNumber)

	// Next operational day.
	day = day.Add(24 * time.Hour)
	order, err = svc.Create("s1", "v1", []CreateItem{{MenuItemID: "m1", Quantity: 1}})
	require.NoError(t, err)
	_, err = svc.MarkPaid(order.ID)
	require.NoError(t, err)
	b, err := svc.Accept(order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, *b.QueueNumber)
}

func TestGlobalResetKeepsCounting(t *testing.T) {
	rec := &recorder{}
	svc := NewOrderService(setupTestDB(t), rec, QueueResetGlobal)
	day := time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return day }

	for want := 1; want <= 2; want++ {
		order, err := svc.Create("s1", "v1", []CreateItem{{MenuItemID: "m1", Quantity: 1}})
		require.NoError(t, err)
		_, err = svc.MarkPaid(order.ID)
		require.NoError(t, err)
		accepted, err := svc.Accept(order.ID)
		require.NoError(t, err)
		assert.Equal(t, want, *accepted.QueueNumber)
		day = day.Add(24 * time.Hour)
	}
}

func TestListOrdersByParticipant(t *testing.T) {
	svc, _ := newOrderService(t)
	for i := 0; i < 2; i++ {
		_, err := svc.Create("s1", "v1", []CreateItem{{MenuItemID: "m1", Quantity: 1}})
		require.NoError(t, err)
	}
	_, err := svc.Create("s2", "v1", []CreateItem{{MenuItemID: "m2", Quantity: 1}})
	require.NoError(t, err)

	mine, err := svc.ListByStudent("s1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	vendors, err := svc.ListByVendor("v1")
	require.NoError(t, err)
	assert.Len(t, vendors, 3)
	require.NotEmpty(t, vendors[0].Items)
}
