package routes

import (
	"time"

	"bengkel-backend/config"
	"bengkel-backend/controllers"
	"bengkel-backend/models"
	"bengkel-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handlers groups the controllers the router dispatches to.
type Handlers struct {
	Customers     *controllers.CustomerController
	Services      *controllers.ServiceController
	Inventory     *controllers.InventoryController
	Invoices      *controllers.InvoiceController
	Reports       *controllers.ReportController
	Dashboard     *controllers.DashboardController
	Profile       *controllers.ProfileController
	Notifications *controllers.NotificationController
}

func SetupRouter(cfg *config.Config, logger *logrus.Logger, h Handlers) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(config.PerformanceLogger(logger))

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
		auth.POST("/logout", controllers.Logout)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		staff := utils.RequireRole(models.RoleOwner, models.RoleAdmin)

		api.POST("/users", utils.RequireRole(models.RoleOwner), controllers.CreateUser)

		customers := api.Group("/customers")
		{
			customers.POST("", h.Customers.CreateCustomer)
			customers.GET("", h.Customers.GetCustomers)
			customers.GET("/:id", h.Customers.GetCustomer)
			customers.PUT("/:id", h.Customers.UpdateCustomer)
			customers.DELETE("/:id", staff, h.Customers.DeleteCustomer)
		}

		vehicles := api.Group("/vehicles")
		{
			vehicles.POST("", h.Customers.CreateVehicle)
			vehicles.GET("", h.Customers.GetVehicles)
			vehicles.GET("/:id", h.Customers.GetVehicle)
			vehicles.PUT("/:id", h.Customers.UpdateVehicle)
			vehicles.DELETE("/:id", staff, h.Customers.DeleteVehicle)
		}

		services := api.Group("/services")
		{
			services.POST("", h.Services.CreateService)
			services.GET("", h.Services.GetServices)
			services.GET("/:id", h.Services.GetService)
			services.PUT("/:id", h.Services.UpdateService)
			services.PATCH("/:id/status", h.Services.UpdateServiceStatus)
			services.DELETE("/:id", staff, h.Services.DeleteService)
		}

		parts := api.Group("/spare-parts")
		{
			parts.POST("", staff, h.Inventory.CreateSparePart)
			parts.GET("", h.Inventory.GetSpareParts)
			parts.GET("/low-stock", h.Inventory.GetLowStock)
			parts.GET("/:id", h.Inventory.GetSparePart)
			parts.PUT("/:id", staff, h.Inventory.UpdateSparePart)
			parts.DELETE("/:id", staff, h.Inventory.DeleteSparePart)
			parts.POST("/:id/stock", staff, h.Inventory.AdjustStock)
			parts.GET("/:id/movements", h.Inventory.GetMovements)
		}

		invoices := api.Group("/invoices", staff)
		{
			invoices.POST("", h.Invoices.CreateInvoice)
			invoices.GET("", h.Invoices.GetInvoices)
			invoices.GET("/:id", h.Invoices.GetInvoice)
			invoices.POST("/:id/void", h.Invoices.VoidInvoice)
			invoices.POST("/:id/payments", h.Invoices.ProcessPayment)
			invoices.GET("/:id/payments", h.Invoices.GetPayments)
		}

		finance := api.Group("/finance", staff)
		{
			finance.GET("/summary", h.Reports.GetSummary)
			finance.GET("/trends", h.Reports.GetTrends)
			finance.GET("/monthly-trends", h.Reports.GetMonthlyTrends)
			finance.GET("/expense-breakdown", h.Reports.GetExpenseBreakdown)
			finance.GET("/export", h.Reports.ExportReport)
			finance.GET("/expenses", h.Reports.GetExpenses)
			finance.POST("/expenses", h.Reports.RecordExpense)
			finance.GET("/expense-categories", h.Reports.GetExpenseCategories)
		}

		api.GET("/dashboard", h.Dashboard.GetDashboardOverview)

		profile := api.Group("/profile")
		{
			profile.GET("", h.Profile.GetProfile)
			profile.PUT("", staff, h.Profile.UpdateProfile)
			profile.PUT("/hours", staff, h.Profile.UpdateWorkingHours)
			profile.PUT("/notifications", staff, h.Profile.UpdateNotificationSettings)
		}

		notifications := api.Group("/notifications", staff)
		{
			notifications.GET("", h.Notifications.GetNotificationLogs)
			notifications.POST("/low-stock", h.Notifications.SendLowStockAlert)
		}
	}

	return r
}
