package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/warinyupha/sk-food-queue/models"
	"github.com/warinyupha/sk-food-queue/utils"
)

type VendorController struct {
	DB *gorm.DB
}

func NewVendorController(db *gorm.DB) *VendorController {
	return &VendorController{DB: db}
}

// ListVendors -> public list of approved vendors students can order from.
func (vc *VendorController) ListVendors(c *gin.Context) {
	var vendors []models.Vendor
	if err := vc.DB.Where("approved = ?", true).Order("name").Find(&vendors).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of vendors", vendors)
}

// AdminListVendors -> all vendors, approved or not.
func (vc *VendorController) AdminListVendors(c *gin.Context) {
	var vendors []models.Vendor
	if err := vc.DB.Order("name").Find(&vendors).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of vendors", vendors)
}

// AdminUpsertVendor -> create or update a vendor record.
func (vc *VendorController) AdminUpsertVendor(c *gin.Context) {
	type ReqBody struct {
		ID       string `json:"id" binding:"required"`
		Name     string `json:"name" binding:"required"`
		Approved *bool  `json:"approved"`
	}
	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	vendor := models.Vendor{
		ID:        body.ID,
		Name:      body.Name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if body.Approved != nil {
		vendor.Approved = *body.Approved
	}
	err := vc.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "approved", "updated_at"}),
	}).Create(&vendor).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Vendor saved", vendor)
}

// AdminApproveVendor / AdminRejectVendor -> toggle the approval flag.
func (vc *VendorController) AdminApproveVendor(c *gin.Context) {
	vc.setApproval(c, true)
}

func (vc *VendorController) AdminRejectVendor(c *gin.Context) {
	vc.setApproval(c, false)
}

func (vc *VendorController) setApproval(c *gin.Context, approved bool) {
	id := c.Param("vendor_id")
	var vendor models.Vendor
	if err := vc.DB.First(&vendor, "id = ?", id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("unknown vendor %s", id))
		return
	}
	vendor.Approved = approved
	vendor.UpdatedAt = time.Now()
	if err := vc.DB.Save(&vendor).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Vendor updated", vendor)
}

// AdminDeleteVendor -> remove a vendor record. Orders keep their vendor
// id; history stays intact.
func (vc *VendorController) AdminDeleteVendor(c *gin.Context) {
	id := c.Param("vendor_id")
	if err := vc.DB.Delete(&models.Vendor{}, "id = ?", id).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Vendor deleted", gin.H{"id": id})
}
