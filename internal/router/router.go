package router

import (
	"database/sql"
	"fmt"

	"supplestore_backend/internal/config"
	"supplestore_backend/internal/handlers"
	"supplestore_backend/internal/middleware"
	"supplestore_backend/internal/repositories"
	"supplestore_backend/internal/services"
	"supplestore_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Setup wires repositories, services and handlers and registers every route.
// rdb may be nil, in which case carts live in process memory.
func Setup(engine *gin.Engine, db *sql.DB, rdb *redis.Client, cfg *config.Config) error {
	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(db)
	storeRepo := repositories.NewStoreRepository(db)
	productRepo := repositories.NewProductRepository(db)
	movementRepo := repositories.NewStockMovementRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	couponRepo := repositories.NewCouponRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	var cartRepo repositories.CartRepository
	if rdb != nil {
		cartRepo = repositories.NewRedisCartRepository(rdb, cfg.CartTTL)
	} else {
		cartRepo = repositories.NewMemoryCartRepository(cfg.CartTTL)
	}

	media, err := services.NewCloudinaryStorage(cfg.CloudinaryURL, cfg.CloudinaryFolder)
	if err != nil {
		return fmt.Errorf("configuring media storage: %w", err)
	}
	gateway := services.NewStripeGateway(cfg.StripeSecretKey)
	if cfg.StripeWebhookSecret == "" {
		utils.LogWarn("STRIPE_WEBHOOK_SECRET not set; every webhook will be rejected")
	}

	// Initialize Services
	region := cfg.DefaultPhoneRegion
	authService := services.NewAuthService(authRepo, storeRepo, db, cfg.TrialDays)
	storeService := services.NewStoreService(storeRepo, db, region)
	productService := services.NewProductService(productRepo, movementRepo, db, media)
	cartService := services.NewCartService(cartRepo, productRepo)
	couponService := services.NewCouponService(couponRepo, productRepo, orderRepo, db, region)
	checkoutService := services.NewCheckoutService(cartRepo, productRepo, orderRepo, customerRepo, movementRepo, couponService, db, region)
	orderService := services.NewOrderService(orderRepo, productRepo, movementRepo, transactionRepo, db, media, region)
	customerService := services.NewCustomerService(customerRepo, db, region)
	financeService := services.NewFinanceService(transactionRepo, db)
	reportService := services.NewReportService(reportRepo, storeRepo)
	subscriptionService := services.NewSubscriptionService(storeRepo, cfg.SubscriptionFailOpen)
	billingService := services.NewBillingService(gateway, storeRepo, db, cfg.StripePrices, cfg.StripeWebhookSecret, cfg.AppBaseURL)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	storeHandler := handlers.NewStoreHandler(storeService)
	storefrontHandler := handlers.NewStorefrontHandler(productService, cartService, checkoutService, couponService)
	productHandler := handlers.NewProductHandler(productService)
	orderHandler := handlers.NewOrderHandler(orderService)
	customerHandler := handlers.NewCustomerHandler(customerService)
	couponHandler := handlers.NewCouponHandler(couponService)
	financeHandler := handlers.NewFinanceHandler(financeService)
	dashboardHandler := handlers.NewDashboardHandler(reportService, subscriptionService)
	billingHandler := handlers.NewBillingHandler(billingService)

	api := engine.Group("/api")
	SetupBillingRoutes(api, billingHandler)

	apiV1 := api.Group("/v1")
	SetupAuthRoutes(apiV1, authHandler)
	SetupStorefrontRoutes(apiV1.Group("/storefront/:slug", middleware.ResolveStore(storeService)), storefrontHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		authenticated.GET("/subscription/status", dashboardHandler.SubscriptionStatus)

		admin := authenticated.Group("/admin")
		admin.Use(middleware.SubscriptionGate(subscriptionService))
		{
			SetupStoreRoutes(admin, storeHandler)
			SetupStaffRoutes(admin, authHandler)
			SetupProductRoutes(admin, productHandler)
			SetupOrderRoutes(admin, orderHandler)
			SetupCustomerRoutes(admin, customerHandler)
			SetupCouponRoutes(admin, couponHandler)
			SetupFinanceRoutes(admin, financeHandler)
			SetupDashboardRoutes(admin, dashboardHandler)
		}
	}
	return nil
}
