package router

import (
	"supplestore_backend/internal/handlers"
	"supplestore_backend/internal/middleware"
	"supplestore_backend/internal/models"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes sets up the authentication routes.
func SetupAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)

		authRequiredRoutes := authRoutes.Group("")
		authRequiredRoutes.Use(middleware.AuthMiddleware()) // Apply AuthMiddleware to this sub-group
		{
			authRequiredRoutes.POST("/logout", authHandler.Logout)
			authRequiredRoutes.GET("/me", authHandler.GetCurrentUser)
		}
	}
}

// SetupBillingRoutes registers the subscription checkout and the payment webhook.
// The webhook is authenticated by its signature, not by a JWT.
func SetupBillingRoutes(apiGroup *gin.RouterGroup, billingHandler *handlers.BillingHandler) {
	apiGroup.POST("/checkout", middleware.AuthMiddleware(), billingHandler.CreateCheckout)
	apiGroup.POST("/webhooks/stripe", billingHandler.StripeWebhook)
}

// SetupStorefrontRoutes sets up the public shop routes; the group already resolved the store.
func SetupStorefrontRoutes(storeGroup *gin.RouterGroup, h *handlers.StorefrontHandler) {
	storeGroup.GET("", h.GetStore)
	storeGroup.GET("/products", h.ListProducts)
	storeGroup.GET("/products/:id", h.GetProduct)

	cartRoutes := storeGroup.Group("/cart")
	{
		cartRoutes.GET("", h.GetCart)
		cartRoutes.DELETE("", h.ClearCart)
		cartRoutes.POST("/items", h.AddCartItem)
		cartRoutes.PUT("/items/:productId", h.SetCartQuantity)
		cartRoutes.DELETE("/items/:productId", h.RemoveCartItem)
		cartRoutes.PUT("/address", h.SetAddress)
	}

	storeGroup.POST("/coupons/validate", h.ValidateCoupon)
	storeGroup.POST("/checkout", h.Checkout)
}

// SetupStoreRoutes sets up the store settings routes.
func SetupStoreRoutes(adminGroup *gin.RouterGroup, storeHandler *handlers.StoreHandler) {
	adminGroup.GET("/store", storeHandler.GetStore)
	adminGroup.PUT("/store", middleware.RoleAuthMiddleware(models.RoleOwner), storeHandler.UpdateStore)
}

// SetupStaffRoutes lets the owner manage staff logins.
func SetupStaffRoutes(adminGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	staffRoutes := adminGroup.Group("/staff")
	staffRoutes.Use(middleware.RoleAuthMiddleware(models.RoleOwner))
	{
		staffRoutes.GET("", authHandler.ListStaff)
		staffRoutes.POST("", authHandler.CreateStaff)
	}
}

// SetupProductRoutes sets up the catalog and stock routes.
func SetupProductRoutes(adminGroup *gin.RouterGroup, productHandler *handlers.ProductHandler) {
	productRoutes := adminGroup.Group("/products")
	productRoutes.Use(middleware.RoleAuthMiddleware(models.RoleOwner, models.RoleStaff))
	{
		productRoutes.POST("", productHandler.CreateProduct)
		productRoutes.GET("", productHandler.ListProducts)
		productRoutes.GET("/barcode/:barcode", productHandler.GetProductByBarcode)
		productRoutes.GET("/:id", productHandler.GetProduct)
		productRoutes.PUT("/:id", productHandler.UpdateProduct)
		productRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleOwner), productHandler.DeleteProduct)
		productRoutes.POST("/:id/stock", productHandler.AdjustStock)
		productRoutes.POST("/:id/image", productHandler.UploadImage)
	}
	adminGroup.GET("/stock-movements", productHandler.ListStockMovements)
}

// SetupOrderRoutes sets up the order routes.
func SetupOrderRoutes(adminGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orderRoutes := adminGroup.Group("/orders")
	orderRoutes.Use(middleware.RoleAuthMiddleware(models.RoleOwner, models.RoleStaff))
	{
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.GET("/:id", orderHandler.GetOrder)
		orderRoutes.POST("/:id/advance", orderHandler.AdvanceOrder)
		orderRoutes.PATCH("/:id", orderHandler.UpdateOrder)
		orderRoutes.POST("/:id/invoice", orderHandler.UploadInvoice)
		orderRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleOwner), orderHandler.DeleteOrder)
	}
}

// SetupCustomerRoutes sets up the customer routes.
func SetupCustomerRoutes(adminGroup *gin.RouterGroup, customerHandler *handlers.CustomerHandler) {
	customerRoutes := adminGroup.Group("/customers")
	{
		customerRoutes.POST("", customerHandler.CreateCustomer)
		customerRoutes.GET("", customerHandler.GetCustomers)
		customerRoutes.GET("/:id", customerHandler.GetCustomer)
		customerRoutes.PUT("/:id", customerHandler.UpdateCustomer)
		customerRoutes.DELETE("/:id", customerHandler.DeleteCustomer)
	}
}

// SetupCouponRoutes sets up the coupon routes.
func SetupCouponRoutes(adminGroup *gin.RouterGroup, couponHandler *handlers.CouponHandler) {
	couponRoutes := adminGroup.Group("/coupons")
	couponRoutes.Use(middleware.RoleAuthMiddleware(models.RoleOwner))
	{
		couponRoutes.POST("", couponHandler.CreateCoupon)
		couponRoutes.GET("", couponHandler.ListCoupons)
		couponRoutes.GET("/:id", couponHandler.GetCoupon)
		couponRoutes.PUT("/:id", couponHandler.UpdateCoupon)
		couponRoutes.DELETE("/:id", couponHandler.DeleteCoupon)
	}
}

// SetupFinanceRoutes sets up the ledger, summary and export routes.
func SetupFinanceRoutes(adminGroup *gin.RouterGroup, financeHandler *handlers.FinanceHandler) {
	financeRoutes := adminGroup.Group("/finance")
	financeRoutes.Use(middleware.RoleAuthMiddleware(models.RoleOwner))
	{
		financeRoutes.GET("/summary", financeHandler.Summary)
		financeRoutes.GET("/export.csv", financeHandler.ExportCSV)
		financeRoutes.GET("/export.xlsx", financeHandler.ExportXLSX)

		financeRoutes.POST("/transactions", financeHandler.CreateTransaction)
		financeRoutes.GET("/transactions", financeHandler.ListTransactions)
		financeRoutes.GET("/transactions/:id", financeHandler.GetTransaction)
		financeRoutes.PUT("/transactions/:id", financeHandler.UpdateTransaction)
		financeRoutes.PATCH("/transactions/:id/pay", financeHandler.MarkPaid)
		financeRoutes.DELETE("/transactions/:id", financeHandler.DeleteTransaction)
	}
}

// SetupDashboardRoutes sets up the dashboard route.
func SetupDashboardRoutes(adminGroup *gin.RouterGroup, dashboardHandler *handlers.DashboardHandler) {
	adminGroup.GET("/dashboard", dashboardHandler.Summary)
}
