package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/warinyupha/sk-food-queue/models"
	"github.com/warinyupha/sk-food-queue/realtime"
	"github.com/warinyupha/sk-food-queue/utils"
)

type AuthController struct {
	DB       *gorm.DB
	AdminKey string
}

func NewAuthController(db *gorm.DB, adminKey string) *AuthController {
	return &AuthController{DB: db, AdminKey: adminKey}
}

// Login -> one endpoint for all three roles. Students log in by id,
// vendors must exist, admins present the shared admin key.
func (ac *AuthController) Login(c *gin.Context) {
	type ReqBody struct {
		Type      string `json:"type" binding:"required"`
		StudentID string `json:"studentId"`
		VendorID  string `json:"vendorId"`
		AdminKey  string `json:"adminKey"`
	}
	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var participantID, role, name string
	switch body.Type {
	case realtime.RoleStudent:
		studentID := strings.TrimSpace(body.StudentID)
		if studentID == "" {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("studentId is required"))
			return
		}
		participantID, role, name = studentID, realtime.RoleStudent, "Student "+studentID

	case realtime.RoleVendor:
		var vendor models.Vendor
		if err := ac.DB.First(&vendor, "id = ?", body.VendorID).Error; err != nil {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("unknown vendor"))
			return
		}
		participantID, role, name = vendor.ID, realtime.RoleVendor, vendor.Name

	case realtime.RoleAdmin:
		if ac.AdminKey == "" || body.AdminKey != ac.AdminKey {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("invalid admin key"))
			return
		}
		participantID, role, name = realtime.RoleAdmin, realtime.RoleAdmin, "Administrator"

	default:
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown login type %q", body.Type))
		return
	}

	token, err := utils.GenerateToken(participantID, role)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token": token,
		"user": gin.H{
			"id":   participantID,
			"role": role,
			"name": name,
		},
	})
}
