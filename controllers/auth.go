package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"bengkel-backend/config"
	"bengkel-backend/models"
	"bengkel-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"omitempty,phone"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type CreateUserInput struct {
	RegisterInput
	Role string `json:"role" binding:"required,oneof=admin mechanic"`
}

type LoginInput struct {
	Identifier string `json:"identifier" binding:"required"` // email or phone
	Password   string `json:"password" binding:"required"`
}

func userResponse(u models.User) gin.H {
	return gin.H{
		"id":    u.ID,
		"email": u.Email,
		"name":  u.Name,
		"phone": u.Phone,
		"role":  u.Role,
	}
}

func createUser(c *gin.Context, input RegisterInput, role string) (*models.User, bool) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	phone := ""
	if input.Phone != "" {
		normalized, err := utils.NormalizePhone(input.Phone)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return nil, false
		}
		phone = normalized
	}

	user := models.User{
		Email:    email,
		Phone:    phone,
		Name:     input.Name,
		Password: input.Password, // hashed in BeforeCreate
		Role:     role,
		IsActive: true,
	}
	if err := config.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.RespondWithError(c, http.StatusConflict, "Email already registered")
			return nil, false
		}
		config.LogError(config.GetLogger(), "controllers", "createUser", "create user", gin.H{"email": email}, err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create user")
		return nil, false
	}
	return &user, true
}

// Register creates the owner account. It only works while no user exists;
// further accounts are added by the owner through CreateUser.
func Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var count int64
	if err := config.DB.Model(&models.User{}).Count(&count).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	if count > 0 {
		utils.RespondWithError(c, http.StatusForbidden, "Registration is closed")
		return
	}

	user, ok := createUser(c, input, models.RoleOwner)
	if !ok {
		return
	}

	token, err := utils.GenerateToken(user.ID.String(), user.Role)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	c.SetCookie("token", token, utils.TokenMaxAge(), "/", "", true, true)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"token":   token,
		"user":    userResponse(*user),
	})
}

func CreateUser(c *gin.Context) {
	var input CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	user, ok := createUser(c, input.RegisterInput, input.Role)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": userResponse(*user)})
}

func Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	identifier := strings.TrimSpace(input.Identifier)
	phone := identifier
	if normalized, err := utils.NormalizePhone(identifier); err == nil {
		phone = normalized
	}

	var user models.User
	err := config.DB.Where("(email = ? OR phone = ?) AND is_active = ?", strings.ToLower(identifier), phone, true).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if !utils.CheckPasswordHash(input.Password, user.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := utils.GenerateToken(user.ID.String(), user.Role)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	now := time.Now()
	config.DB.Model(&user).Update("last_login", &now)

	c.SetCookie("token", token, utils.TokenMaxAge(), "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userResponse(user),
	})
}

func Logout(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func Me(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusInternalServerError, "User ID not found in context")
		return
	}

	var user models.User
	if err := config.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userResponse(user)})
}
