package router

import (
	"time"

	"messbill/internal/config"
	"messbill/internal/handler"
	"messbill/internal/middleware"
	"messbill/internal/model"
	"messbill/internal/repository"
	"messbill/internal/service"
	"messbill/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	mealRepo := repository.NewMealRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	balanceRepo := repository.NewBalanceRepository(db)
	adjRepo := repository.NewAdjustmentRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	balanceSvc := service.NewBalanceService(mealRepo, purchaseRepo, paymentRepo, balanceRepo, userRepo, adjRepo, rdb)
	mealSvc := service.NewMealService(mealRepo, userRepo, balanceSvc)
	purchaseSvc := service.NewPurchaseService(purchaseRepo, balanceSvc)
	paymentSvc := service.NewPaymentService(paymentRepo, userRepo, balanceSvc, dispatcher)
	adjSvc := service.NewAdjustmentService(adjRepo, userRepo, balanceSvc, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	mealsH := handler.NewMealsHandler(mealSvc)
	purchasesH := handler.NewPurchasesHandler(purchaseSvc)
	paymentsH := handler.NewPaymentsHandler(paymentSvc)
	balancesH := handler.NewBalancesHandler(balanceSvc, userRepo, dispatcher, cfg.MessName, cfg.PDFStoragePath)
	adjustmentsH := handler.NewAdjustmentsHandler(adjSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	adminOnly := middleware.RequireRole(model.RoleAdmin)
	anyMember := middleware.RequireRole(model.RoleMember, model.RoleAdmin)

	v1 := r.Group("/v1", jwtMW)
	{
		// Meals — every member records their own; admins on anyone's behalf
		v1.POST("/meals", anyMember, mealsH.Create)
		v1.GET("/meals", anyMember, mealsH.List)
		v1.DELETE("/meals/:id", anyMember, mealsH.Delete)

		// Purchases — any member may buy groceries for the pool
		v1.POST("/purchases", anyMember, purchasesH.Create)
		v1.GET("/purchases", anyMember, purchasesH.List)
		v1.PUT("/purchases/:id", anyMember, purchasesH.Update)
		v1.DELETE("/purchases/:id", anyMember, purchasesH.Delete)

		// Payments — admins author them, members can list their own
		v1.GET("/payments", anyMember, paymentsH.List)
		v1.POST("/payments", adminOnly, paymentsH.Create)
		v1.DELETE("/payments/:id", adminOnly, paymentsH.Delete)

		// Balances — per-member reads ownership-checked in the handler
		balances := v1.Group("/balances")
		{
			balances.GET("/user/:userID/weekly/:year/:month/:week", anyMember, balancesH.Weekly)
			balances.GET("/user/:userID/monthly/:year/:month", anyMember, balancesH.Monthly)
			balances.GET("/user/:userID/current-advance", anyMember, balancesH.CurrentAdvance)
			balances.GET("/user/:userID/statement/:year/:month", anyMember, balancesH.Statement)
			balances.POST("/recalculate", adminOnly, balancesH.Recalculate)
			balances.POST("/recalculate-async", adminOnly, balancesH.RecalculateAsync)
		}

		// Due adjustments — admin-only overlay on weekly balances
		adjustments := v1.Group("/adjustments", adminOnly)
		{
			adjustments.POST("", adjustmentsH.Apply)
			adjustments.GET("", adjustmentsH.List)
			adjustments.DELETE("/:id", adjustmentsH.Reverse)
		}

		// Members — admin-only administration
		users := v1.Group("/users", adminOnly)
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
			users.POST("/:id/reactivate", usersH.Reactivate)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
