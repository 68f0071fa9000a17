package controllers

import (
	"errors"
	"net/http"

	"invoiceflow-backend/models"
	"invoiceflow-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProfileController struct {
	DB *gorm.DB
}

func NewProfileController(db *gorm.DB) *ProfileController {
	return &ProfileController{DB: db}
}

type UpdateProfileInput struct {
	Username        *string `json:"username"`
	Email           *string `json:"email" binding:"omitempty,email"`
	BusinessName    *string `json:"businessName"`
	BusinessAddress *string `json:"businessAddress"`
	BusinessPhone   *string `json:"businessPhone"`
	BusinessLogoURL *string `json:"businessLogoUrl"`
}

func (p *ProfileController) GetProfile(c *gin.Context) {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var user models.User
	if err := p.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	c.JSON(http.StatusOK, user)
}

func (p *ProfileController) UpdateProfile(c *gin.Context) {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var user models.User
	if err := p.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	// Username and email must stay unique across users
	if input.Username != nil && *input.Username != user.Username {
		var existing models.User
		err := p.DB.Where("username = ? AND id <> ?", *input.Username, userID).First(&existing).Error
		if err == nil {
			utils.RespondWithError(c, http.StatusConflict, "Username already taken")
			return
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			return
		}
		user.Username = *input.Username
	}
	if input.Email != nil && *input.Email != user.Email {
		var existing models.User
		err := p.DB.Where("email = ? AND id <> ?", *input.Email, userID).First(&existing).Error
		if err == nil {
			utils.RespondWithError(c, http.StatusConflict, "Email already taken")
			return
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			return
		}
		user.Email = *input.Email
	}
	if input.BusinessName != nil {
		user.BusinessName = *input.BusinessName
	}
	if input.BusinessAddress != nil {
		user.BusinessAddress = *input.BusinessAddress
	}
	if input.BusinessPhone != nil {
		user.BusinessPhone = *input.BusinessPhone
	}
	if input.BusinessLogoURL != nil {
		user.BusinessLogoURL = *input.BusinessLogoURL
	}

	if err := p.DB.Save(&user).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, user)
}
