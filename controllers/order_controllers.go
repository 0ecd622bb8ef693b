package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/warinyupha/sk-food-queue/services"
	"github.com/warinyupha/sk-food-queue/utils"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// CreateOrder -> student places an order; total is computed server-side
// from menu prices, any prices in the request body are ignored.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	type ReqBody struct {
		StudentID string                `json:"studentId" binding:"required"`
		VendorID  string                `json:"vendorId" binding:"required"`
		Items     []services.CreateItem `json:"items"`
	}
	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.Create(body.StudentID, body.VendorID, body.Items)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// MarkPaid -> student reports payment; legal only before the vendor has
// decided.
func (oc *OrderController) MarkPaid(c *gin.Context) {
	order, err := oc.Orders.MarkPaid(c.Param("order_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order marked paid", order)
}

// AcceptOrder -> vendor accepts and the order receives its queue number.
func (oc *OrderController) AcceptOrder(c *gin.Context) {
	order, err := oc.Orders.Accept(c.Param("order_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order accepted", order)
}

// RejectOrder -> vendor rejects; terminal, no queue number.
func (oc *OrderController) RejectOrder(c *gin.Context) {
	order, err := oc.Orders.Reject(c.Param("order_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order rejected", order)
}

// ListOrders -> ?studentId= or ?vendorId=, newest first.
func (oc *OrderController) ListOrders(c *gin.Context) {
	if studentID := c.Query("studentId"); studentID != "" {
		orders, err := oc.Orders.ListByStudent(studentID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
		return
	}
	if vendorID := c.Query("vendorId"); vendorID != "" {
		orders, err := oc.Orders.ListByVendor(vendorID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
		return
	}
	utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("studentId or vendorId query param is required"))
}

// GetOrderByID -> detail of one order.
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	order, err := oc.Orders.Get(c.Param("order_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}
