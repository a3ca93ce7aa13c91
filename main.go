package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bengkel-backend/config"
	"bengkel-backend/controllers"
	"bengkel-backend/models"
	"bengkel-backend/repository"
	"bengkel-backend/routes"
	"bengkel-backend/services"
	"bengkel-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := config.SetupLogger(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			logger.Fatal("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = utils.GenerateJWTSecret()
		logger.Warn("JWT_SECRET not set, using a random secret for this run")
	}
	utils.ConfigureJWT(cfg.JWTSecret, cfg.JWTExpiryHours)
	utils.DefaultPhoneRegion = cfg.PhoneRegion
	if err := utils.RegisterValidators(); err != nil {
		logger.WithError(err).Fatal("register validators")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.WithError(err).Fatal("load timezone")
	}

	db, err := config.ConnectDB(cfg)
	if err != nil {
		logger.WithError(err).Fatal("connect database")
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Workshop{},
		&models.Customer{},
		&models.Vehicle{},
		&models.SparePart{},
		&models.StockMovement{},
		&models.Service{},
		&models.ServicePart{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.Payment{},
		&models.FinancialTransaction{},
		&models.NotificationLog{},
	); err != nil {
		logger.WithError(err).Fatal("migrate database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, lockClient, err := config.ConnectRedis(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("connect redis")
	}
	if rdb != nil {
		defer rdb.Close()
	} else {
		logger.Info("REDIS_URL not set, payment locking relies on the database only")
	}

	customerRepo := repository.NewCustomerRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	partRepo := repository.NewSparePartRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	reportRepo := repository.NewReportRepository(db)
	workshopRepo := repository.NewWorkshopRepository(db, decimal.NewFromFloat(cfg.DefaultTaxRate))
	notificationRepo := repository.NewNotificationRepository(db)

	var sender services.MessageSender
	if cfg.TwilioEnabled() {
		sender = services.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken)
	}

	inventory := services.NewInventoryService(db, partRepo, movementRepo, logger)
	notifications := services.NewNotificationService(sender, services.SenderNumbers{
		SMS:      cfg.TwilioPhoneNumber,
		WhatsApp: cfg.TwilioWhatsAppNumber,
	}, inventory, workshopRepo, notificationRepo, loc, logger)
	jobs := services.NewJobService(db, serviceRepo, vehicleRepo, invoiceRepo, notifications, logger)
	customers := services.NewCustomerService(customerRepo, vehicleRepo, logger)
	invoices := services.NewInvoiceService(db, invoiceRepo, paymentRepo, serviceRepo, transactionRepo, workshopRepo, inventory, logger)
	payments := services.NewPaymentService(db, invoiceRepo, paymentRepo, serviceRepo, transactionRepo, services.NewLocker(lockClient), logger)
	finance := services.NewFinanceService(reportRepo, transactionRepo, loc, logger)
	dashboard := services.NewDashboardService(customerRepo, invoiceRepo, jobs, inventory, finance)

	if err := notifications.StartScheduler(cfg.LowStockCron); err != nil {
		logger.WithError(err).Fatal("start scheduler")
	}
	defer notifications.StopScheduler()

	r := routes.SetupRouter(cfg, logger, routes.Handlers{
		Customers:     controllers.NewCustomerController(customers),
		Services:      controllers.NewServiceController(jobs),
		Inventory:     controllers.NewInventoryController(inventory),
		Invoices:      controllers.NewInvoiceController(invoices, payments, loc),
		Reports:       controllers.NewReportController(finance),
		Dashboard:     controllers.NewDashboardController(dashboard),
		Profile:       controllers.NewProfileController(workshopRepo),
		Notifications: controllers.NewNotificationController(notifications),
	})
	printRoutes(logger, r)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("http server")
		}
	}()
	logger.WithField("port", cfg.Port).Info("server started")

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown")
	}
	logger.Info("server stopped")
}

func printRoutes(logger *logrus.Logger, r *gin.Engine) {
	for _, route := range r.Routes() {
		logger.Debugf("%-6s %s", route.Method, route.Path)
	}
}
