package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/warinyupha/sk-food-queue/config"
	"github.com/warinyupha/sk-food-queue/controllers"
	"github.com/warinyupha/sk-food-queue/middlewares"
	"github.com/warinyupha/sk-food-queue/realtime"
	"github.com/warinyupha/sk-food-queue/services"
	"github.com/warinyupha/sk-food-queue/utils"
)

func SetupRouter(db *gorm.DB, hub *realtime.Hub, cfg config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	orderSvc := services.NewOrderService(db, hub, cfg.QueueReset)
	chatSvc := services.NewChatService(db, hub)

	authCtrl := controllers.NewAuthController(db, cfg.AdminKey)
	orderCtrl := controllers.NewOrderController(orderSvc)
	chatCtrl := controllers.NewChatController(chatSvc)
	vendorCtrl := controllers.NewVendorController(db)
	menuCtrl := controllers.NewMenuController(db)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.GET("/config", func(c *gin.Context) {
		utils.RespondJSON(c, http.StatusOK, "Service config", gin.H{
			"bookingOpen": cfg.BookingOpen,
			"now":         time.Now().Format(time.RFC3339),
		})
	})

	r.POST("/auth/login", middlewares.NewStrictRateLimiter(), authCtrl.Login)

	r.GET("/vendors", vendorCtrl.ListVendors)
	r.GET("/menus", menuCtrl.ListMenus)

	// Realtime endpoint. Token is optional here; anonymous connections
	// identify over the socket.
	r.GET("/ws", middlewares.WebSocketAuthMiddleware(), controllers.WSHandler(hub))

	// ----------------------------------------------------------------
	//                      ORDERS + CHAT
	// ----------------------------------------------------------------
	orders := r.Group("/orders")
	{
		orders.POST("", orderCtrl.CreateOrder)
		orders.GET("", orderCtrl.ListOrders)
		orders.GET("/:order_id", orderCtrl.GetOrderByID)
		orders.POST("/:order_id/pay", orderCtrl.MarkPaid)
		orders.POST("/:order_id/accept", orderCtrl.AcceptOrder)
		orders.POST("/:order_id/reject", orderCtrl.RejectOrder)

		orders.GET("/:order_id/messages", chatCtrl.GetMessages)
		orders.POST("/:order_id/messages", chatCtrl.SendMessage)
		orders.DELETE("/:order_id/messages", chatCtrl.ClearMessages)
	}

	// ----------------------------------------------------------------
	//                      VENDOR MENU MANAGEMENT
	// ----------------------------------------------------------------
	vendorMenus := r.Group("/vendor/menus")
	vendorMenus.Use(middlewares.AuthMiddleware(), middlewares.RequireRole(realtime.RoleVendor))
	{
		vendorMenus.GET("", menuCtrl.ListMenus)
		vendorMenus.POST("", menuCtrl.CreateMenu)
		vendorMenus.PATCH("/:menu_id", menuCtrl.UpdateMenu)
		vendorMenus.DELETE("/:menu_id", menuCtrl.DeleteMenu)
	}

	// ----------------------------------------------------------------
	//                      ADMIN
	// ----------------------------------------------------------------
	admin := r.Group("/admin")
	admin.Use(middlewares.AuthMiddleware(), middlewares.RequireRole(realtime.RoleAdmin))
	{
		admin.GET("/vendors", vendorCtrl.AdminListVendors)
		admin.POST("/vendors", vendorCtrl.AdminUpsertVendor)
		admin.POST("/vendors/:vendor_id/approve", vendorCtrl.AdminApproveVendor)
		admin.POST("/vendors/:vendor_id/reject", vendorCtrl.AdminRejectVendor)
		admin.DELETE("/vendors/:vendor_id", vendorCtrl.AdminDeleteVendor)
	}

	return r
}
