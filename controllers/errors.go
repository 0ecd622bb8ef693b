package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/warinyupha/sk-food-queue/services"
	"github.com/warinyupha/sk-food-queue/utils"
)

// respondServiceError maps domain errors onto HTTP statuses: validation
// problems are 400, illegal transitions 409, unknown ids 404.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case services.IsValidation(err):
		utils.RespondError(c, http.StatusBadRequest, err)
	case services.IsInvalidState(err):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	default:
		utils.ErrorLogger.Printf("internal error: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, err)
	}
}
