package controllers

import (
	"net/http"

	"bengkel-backend/config"
	"bengkel-backend/models"
	"bengkel-backend/repository"
	"bengkel-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type UpdateProfileInput struct {
	Name           string          `json:"name" binding:"required"`
	Address        string          `json:"address"`
	Phone          string          `json:"phone" binding:"omitempty,phone"`
	DefaultTaxRate decimal.Decimal `json:"defaultTaxRate" binding:"gte=0,lte=100"`
}

type NotificationSettingsInput struct {
	LowStockAlerts        bool `json:"lowStockAlerts"`
	ServiceReadyNotices   bool `json:"serviceReadyNotices"`
	WhatsAppNotifications bool `json:"whatsAppNotifications"`
	SMSNotifications      bool `json:"smsNotifications"`
}

// ProfileController edits the workshop profile row.
type ProfileController struct {
	workshops repository.WorkshopRepository
}

func NewProfileController(workshops repository.WorkshopRepository) *ProfileController {
	return &ProfileController{workshops: workshops}
}

func (pc *ProfileController) load(c *gin.Context, funcName string) (*models.Workshop, bool) {
	w, err := pc.workshops.Get(c.Request.Context())
	if err != nil {
		config.LogError(config.GetLogger(), "controllers", funcName, "load workshop", nil, err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load profile")
		return nil, false
	}
	return w, true
}

func (pc *ProfileController) save(c *gin.Context, funcName string, w *models.Workshop) bool {
	if err := pc.workshops.Save(c.Request.Context(), w); err != nil {
		config.LogError(config.GetLogger(), "controllers", funcName, "save workshop", nil, err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update profile")
		return false
	}
	return true
}

func (pc *ProfileController) GetProfile(c *gin.Context) {
	w, ok := pc.load(c, "GetProfile")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, w)
}

func (pc *ProfileController) UpdateProfile(c *gin.Context) {
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	w, ok := pc.load(c, "UpdateProfile")
	if !ok {
		return
	}

	w.Name = input.Name
	w.Address = input.Address
	w.DefaultTaxRate = input.DefaultTaxRate
	w.Phone = ""
	if input.Phone != "" {
		phone, err := utils.NormalizePhone(input.Phone)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		w.Phone = phone
	}

	if !pc.save(c, "UpdateProfile", w) {
		return
	}
	c.JSON(http.StatusOK, w)
}

func (pc *ProfileController) UpdateWorkingHours(c *gin.Context) {
	var input struct {
		OpeningHours models.JSONB `json:"openingHours" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}
	w, ok := pc.load(c, "UpdateWorkingHours")
	if !ok {
		return
	}
	w.OpeningHours = input.OpeningHours
	if !pc.save(c, "UpdateWorkingHours", w) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Opening hours updated"})
}

func (pc *ProfileController) UpdateNotificationSettings(c *gin.Context) {
	var input NotificationSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}
	w, ok := pc.load(c, "UpdateNotificationSettings")
	if !ok {
		return
	}
	w.LowStockAlerts = input.LowStockAlerts
	w.ServiceReadyNotices = input.ServiceReadyNotices
	w.WhatsAppNotifications = input.WhatsAppNotifications
	w.SMSNotifications = input.SMSNotifications
	if !pc.save(c, "UpdateNotificationSettings", w) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification settings updated"})
}
