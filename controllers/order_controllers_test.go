package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/warinyupha/sk-food-queue/controllers"
	"github.com/warinyupha/sk-food-queue/models"
	"github.com/warinyupha/sk-food-queue/services"
	"github.com/warinyupha/sk-food-queue/utils"
)

type nopBroadcaster struct{}

func (nopBroadcaster) OrderCreated(models.Order)           {}
func (nopBroadcaster) OrderUpdated(models.Order)           {}
func (nopBroadcaster) OrderPaid(models.Order)              {}
func (nopBroadcaster) ChatMessage(models.ChatMessage)      {}
func (nopBroadcaster) ChatCleared(orderID string, n int64) {}

func setupTestDBForOrders(t *testing.T) *gorm.DB {
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

	require.NoError(t, db.Create(&models.Vendor{ID: "v1", Name: "Pad Thai Stall", Approved: true}).Error)
	require.NoError(t, db.Create(&models.Menu{ID: "m1", VendorID: "v1", Name: "Pad Thai", Price: 45}).Error)
	require.NoError(t, db.Create(&models.Menu{ID: "m2", VendorID: "v1", Name: "Iced Tea", Price: 20}).Error)
	return db
}

func setupOrderRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	orderCtrl := controllers.NewOrderController(services.NewOrderService(db, nopBroadcaster{}, services.QueueResetDaily))
	router.POST("/orders", orderCtrl.CreateOrder)
	router.GET("/orders", orderCtrl.ListOrders)
	router.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	router.POST("/orders/:order_id/pay", orderCtrl.MarkPaid)
	router.POST("/orders/:order_id/accept", orderCtrl.AcceptOrder)
	router.POST("/orders/:order_id/reject", orderCtrl.RejectOrder)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, url string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %s", w.Body.String())
	return data
}

func TestCreateOrderEndpoint(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForOrders(t)
	router := setupOrderRouter(db)

	payload := map[string]interface{}{
		"studentId": "s1",
		"vendorId":  "v1",
		"items": []map[string]interface{}{
			{"menuItemId": "m1", "qty": 2},
		},
	}
	w := doJSON(t, router, "POST", "/orders", payload)

	require.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, 90.0, data["total"])
	assert.Equal(t, "created", data["status"])
	assert.Nil(t, data["queueNumber"])
	orderID := data["id"].(string)
	assert.NotEmpty(t, orderID)

	// Detail round-trip.
	w = doJSON(t, router, "GET", "/orders/"+orderID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, orderID, decodeData(t, w)["id"])
}

func TestCreateOrderRejectsBadBody(t *testing.T) {
	db := setupTestDBForOrders(t)
	router := setupOrderRouter(db)

	// Missing vendorId fails binding.
	w := doJSON(t, router, "POST", "/orders", map[string]interface{}{"studentId": "s1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Empty items fails validation.
	w = doJSON(t, router, "POST", "/orders", map[string]interface{}{
		"studentId": "s1", "vendorId": "v1", "items": []map[string]interface{}{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// Full lifecycle over HTTP: accepting before payment conflicts, paying
// unlocks acceptance, accept assigns queue number 1, a second accept
// conflicts.
func TestOrderLifecycleEndpoint(t *testing.T) {
	db := setupTestDBForOrders(t)
	router := setupOrderRouter(db)

	w := doJSON(t, router, "POST", "/orders", map[string]interface{}{
		"studentId": "s1",
		"vendorId":  "v1",
		"items":     []map[string]interface{}{{"menuItemId": "m1", "qty": 2}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := decodeData(t, w)["id"].(string)

	w = doJSON(t, router, "POST", "/orders/"+orderID+"/accept", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, "POST", "/orders/"+orderID+"/pay", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "pending_vendor_confirmation", data["status"])
	assert.NotNil(t, data["paidAt"])

	w = doJSON(t, router, "POST", "/orders/"+orderID+"/accept", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeData(t, w)
	assert.Equal(t, "accepted", data["status"])
	assert.Equal(t, 1.0, data["queueNumber"])

	w = doJSON(t, router, "POST", "/orders/"+orderID+"/accept", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRejectOrderEndpoint(t *testing.T) {
	db := setupTestDBForOrders(t)
	router := setupOrderRouter(db)

	w := doJSON(t, router, "POST", "/orders", map[string]interface{}{
		"studentId": "s1",
		"vendorId":  "v1",
		"items":     []map[string]interface{}{{"menuItemId": "m2", "qty": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := decodeData(t, w)["id"].(string)

	w = doJSON(t, router, "POST", "/orders/"+orderID+"/pay", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, "POST", "/orders/"+orderID+"/reject", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "rejected", data["status"])
	assert.Nil(t, data["queueNumber"])
}

func TestListOrdersEndpoint(t *testing.T) {
	db := setupTestDBForOrders(t)
	router := setupOrderRouter(db)

	for i := 0; i < 2; i++ {
		w := doJSON(t, router, "POST", "/orders", map[string]interface{}{
			"studentId": "s1",
			"vendorId":  "v1",
			"items":     []map[string]interface{}{{"menuItemId": "m1", "qty": 1}},
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, router, "GET", "/orders?studentId=s1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp["data"], 2)

	w = doJSON(t, router, "GET", "/orders?vendorId=v1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp["data"], 2)

	// Neither query param is an error.
	w = doJSON(t, router, "GET", "/orders", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUnknownOrderEndpoint(t *testing.T) {
	db := setupTestDBForOrders(t)
	router := setupOrderRouter(db)

	w := doJSON(t, router, "GET", "/orders/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
