package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/IkingariSolorzano/cinepoints-be/controllers"
	"github.com/IkingariSolorzano/cinepoints-be/middleware"
	"github.com/IkingariSolorzano/cinepoints-be/models"
	"github.com/IkingariSolorzano/cinepoints-be/services"
	"github.com/IkingariSolorzano/cinepoints-be/websocket"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	JWTSecret    []byte
	RateLimiter  *middleware.RateLimiter
	Hub          *websocket.Hub
	Auth         *services.AuthService
	Audit        *services.AuditService
	Customers    *services.CustomerService
	Transactions *services.TransactionService
	Loyalty      *services.LoyaltyService
	Dashboard    *services.DashboardService
}

func SetupRoutes(deps Deps) *gin.Engine {
	r := gin.Default()
	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.Middleware())
	}

	authController := controllers.NewAuthController(deps.Auth)
	adminController := controllers.NewAdminController(deps.Auth, deps.Audit, deps.Loyalty)
	customerController := controllers.NewCustomerController(deps.Customers, deps.Audit)
	transactionController := controllers.NewTransactionController(deps.Transactions, deps.Audit)
	loyaltyController := controllers.NewLoyaltyController(deps.Loyalty, deps.Audit)
	dashboardController := controllers.NewDashboardController(deps.Dashboard)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if deps.Hub != nil {
		r.GET("/ws", websocket.HandleWebSocket(deps.Hub, func(token string) (string, error) {
			claims, err := middleware.ParseToken(token, deps.JWTSecret)
			if err != nil {
				return "", err
			}
			return claims.UserID, nil
		}))
	}

	// Public routes
	public := r.Group("/api/v1")
	{
		public.POST("/auth/login", authController.Login)
	}

	// Any authenticated staff member
	protected := r.Group("/api/v1")
	protected.Use(middleware.AuthMiddleware(deps.JWTSecret))
	{
		protected.GET("/auth/me", authController.Me)

		protected.GET("/customers", customerController.List)
		protected.GET("/customers/:id", customerController.Get)

		protected.GET("/transactions", transactionController.List)

		protected.GET("/loyalty/rules", loyaltyController.GetRules)
		protected.GET("/loyalty/rewards", loyaltyController.Rewards)
		protected.GET("/loyalty/ledger/:customerId", loyaltyController.Ledger)
		protected.GET("/loyalty/tiers/:customerId", loyaltyController.TierHistory)
		protected.GET("/loyalty/top-customers", loyaltyController.TopCustomers)
		protected.GET("/loyalty/reward-vouchers", loyaltyController.RewardVouchers)

		protected.GET("/dashboard/summary", dashboardController.GetSummary)
		protected.GET("/dashboard/revenue-series", dashboardController.GetRevenueSeries)
		protected.GET("/dashboard/revenue-split", dashboardController.GetRevenueSplit)
		protected.GET("/dashboard/top-customers", loyaltyController.TopCustomers)
		protected.GET("/dashboard/ops", dashboardController.GetOps)
	}

	// Operators and admins
	operator := r.Group("/api/v1")
	operator.Use(middleware.AuthMiddleware(deps.JWTSecret))
	operator.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleOperator))
	{
		operator.POST("/customers", customerController.Create)
		operator.PUT("/customers/:id", customerController.Update)

		operator.POST("/transactions", transactionController.Create)
		operator.PATCH("/transactions/:id/confirm", transactionController.Confirm)
		operator.PATCH("/transactions/:id/reject", transactionController.Reject)

		operator.POST("/loyalty/redeem", loyaltyController.RedeemPoints)
		operator.POST("/loyalty/redeem-voucher", loyaltyController.RedeemVoucher)
		operator.POST("/loyalty/reward-vouchers/:code/use", loyaltyController.UseRewardVoucher)
		operator.POST("/loyalty/tiers/:customerId/check", loyaltyController.CheckTier)
	}

	// Admin only routes
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.AuthMiddleware(deps.JWTSecret))
	admin.Use(middleware.AdminOnly())
	{
		admin.PUT("/loyalty/rules", loyaltyController.UpdateRules)
		admin.GET("/loyalty/reconcile/:customerId", loyaltyController.Reconcile)
		admin.POST("/jobs/points-expiry", adminController.RunPointsExpiry)
		admin.POST("/jobs/reward-voucher-expiry", adminController.RunRewardVoucherExpiry)

		admin.POST("/users", adminController.CreateUser)
		admin.GET("/users", adminController.GetUsers)
		admin.GET("/audit-logs", adminController.GetAuditLogs)
	}

	return r
}
