package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/warinyupha/sk-food-queue/models"
	"github.com/warinyupha/sk-food-queue/utils"
)

type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

// ListMenus -> public menu of one vendor.
func (mc *MenuController) ListMenus(c *gin.Context) {
	vendorID := c.Query("vendorId")
	if vendorID == "" {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("vendorId query param is required"))
		return
	}
	var items []models.Menu
	if err := mc.DB.Where("vendor_id = ?", vendorID).Order("name").Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menu items", items)
}

// CreateMenu -> vendor adds an item to its menu.
func (mc *MenuController) CreateMenu(c *gin.Context) {
	type ReqBody struct {
		VendorID string  `json:"vendorId" binding:"required"`
		Name     string  `json:"name" binding:"required"`
		Price    float64 `json:"price"`
	}
	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if body.Price < 0 {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("price must not be negative"))
		return
	}
	if err := mc.DB.First(&models.Vendor{}, "id = ?", body.VendorID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("unknown vendor %s", body.VendorID))
		return
	}

	item := models.Menu{
		ID:        uuid.NewString(),
		VendorID:  body.VendorID,
		Name:      body.Name,
		Price:     body.Price,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := mc.DB.Create(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu item created", item)
}

// UpdateMenu -> change name or price. Placed orders keep their snapshot
// prices, so this never rewrites history.
func (mc *MenuController) UpdateMenu(c *gin.Context) {
	id := c.Param("menu_id")
	var item models.Menu
	if err := mc.DB.First(&item, "id = ?", id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("unknown menu item %s", id))
		return
	}

	type ReqBody struct {
		Name  *string  `json:"name"`
		Price *float64 `json:"price"`
	}
	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if body.Name != nil {
		item.Name = *body.Name
	}
	if body.Price != nil {
		if *body.Price < 0 {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("price must not be negative"))
			return
		}
		item.Price = *body.Price
	}
	item.UpdatedAt = time.Now()

	if err := mc.DB.Save(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item updated", item)
}

// DeleteMenu -> remove one menu item.
func (mc *MenuController) DeleteMenu(c *gin.Context) {
	id := c.Param("menu_id")
	if err := mc.DB.Delete(&models.Menu{}, "id = ?", id).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item deleted", gin.H{"id": id})
}
