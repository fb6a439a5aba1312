package server

import (
	"context"
	"net/http"

	"coachpay/internal/auth"
	"coachpay/internal/bankaccount"
	"coachpay/internal/billing"
	"coachpay/internal/config"
	"coachpay/internal/gateway"
	"coachpay/internal/notify"
	"coachpay/internal/payment"
	"coachpay/internal/payout"
	"coachpay/internal/rate"
	"coachpay/internal/user"
	"coachpay/internal/webhook"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	router *gin.Engine
	db     *sqlx.DB
	config *config.Config
	http   *http.Server
}

func New(db *sqlx.DB, cfg *config.Config, gw gateway.Port, cipher *bankaccount.Cipher, transferer payout.Transferer, mailer *notify.Service) *Server {
	router := gin.Default()
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(50, 100))

	userRepo := user.NewRepository(db)
	rateRepo := rate.NewRepository(db)
	billingRepo := billing.NewRepository(db)
	paymentRepo := payment.NewRepository(db)
	accountRepo := bankaccount.NewRepository(db)
	payoutRepo := payout.NewRepository(db)

	userService := user.NewService(userRepo, cfg.JWTSecret)
	rateService := rate.NewService(rateRepo, rate.NoopCatalog{})
	accountService := bankaccount.NewService(accountRepo, cipher)
	payoutService := payout.NewService(payoutRepo, accountRepo, paymentRepo, billingRepo, userRepo, transferer, cipher, mailer, cfg.Currency)
	paymentService := payment.NewService(paymentRepo, rateRepo, userRepo, billingRepo, gw, payoutService, mailer, payment.Config{
		PlatformFeeBps: cfg.PlatformFeeBps,
		Currency:       cfg.Currency,
		GatewayTimeout: cfg.GatewayTimeout,
	})
	webhookService := webhook.NewService(paymentService)

	userHandler := user.NewHandler(userService)
	rateHandler := rate.NewHandler(rateService)
	billingHandler := billing.NewHandler(billingRepo)
	paymentHandler := payment.NewHandler(paymentService)
	accountHandler := bankaccount.NewHandler(accountService)
	payoutHandler := payout.NewHandler(payoutService)
	webhookHandler := webhook.NewHandler(webhookService, cfg.WebhookSecret)

	public := router.Group("/auth")
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)
		protected.GET("/coaches/:coachID/rates", rateHandler.ListCoachRates)

		protected.POST("/payments", paymentHandler.Authorize)
		protected.GET("/payments", paymentHandler.ListPayments)
		protected.GET("/payments/:paymentID", paymentHandler.GetPayment)
		protected.POST("/payments/:paymentID/capture", paymentHandler.Capture)
		protected.POST("/payments/:paymentID/cancel", paymentHandler.Cancel)
		protected.POST("/payments/:paymentID/refund", paymentHandler.Refund)
		protected.GET("/payments/:paymentID/refunds", paymentHandler.ListRefunds)

		protected.GET("/billing/transactions", billingHandler.ListTransactions)
	}

	coach := router.Group("/coach")
	coach.Use(authMiddleware, auth.RequireRole("coach"))
	{
		coach.POST("/rates", rateHandler.CreateRate)
		coach.GET("/rates", rateHandler.ListMyRates)
		coach.PATCH("/rates/:rateID/deactivate", rateHandler.DeactivateRate)

		coach.POST("/bank-accounts", accountHandler.Create)
		coach.GET("/bank-accounts", accountHandler.List)
		coach.POST("/bank-accounts/:accountID/default", accountHandler.SetDefault)
		coach.DELETE("/bank-accounts/:accountID", accountHandler.Delete)

		coach.POST("/payouts", payoutHandler.Create)
		coach.GET("/payouts", payoutHandler.List)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole("admin"))
	{
		admin.POST("/bank-accounts/:accountID/verify", accountHandler.Verify)
		admin.GET("/payouts", payoutHandler.ListPending)
		admin.POST("/payouts/:payoutID/approve", payoutHandler.Approve)
		admin.POST("/payouts/:payoutID/reject", payoutHandler.Reject)
		admin.GET("/reports/coach/:coachID/earnings", billingHandler.CoachEarnings)
		admin.GET("/reports/revenue", billingHandler.PlatformRevenue)
	}

	router.POST("/webhooks/gateway", webhookHandler.Receive)

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())

	return &Server{
		router: router,
		db:     db,
		config: cfg,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
