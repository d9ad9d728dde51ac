package routes

import (
	"net/http"

	"raisevoice/internal/config"
	"raisevoice/internal/delivery/http/handler"
	"raisevoice/internal/identity"
	"raisevoice/internal/imagestore"
	"raisevoice/internal/infrastructure/database/postgres"
	"raisevoice/internal/logger"
	"raisevoice/internal/mailer"
	"raisevoice/internal/middleware"
	"raisevoice/internal/usecase/account"
	"raisevoice/internal/usecase/issue"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(cfg *config.Config, db *postgres.DB, imageStore *imagestore.S3Store) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware in order: recovery, request ID, logging, security headers,
	// CORS, request size limit, general rate limit
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(10 << 20))
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst))

	router.GET("/health", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": "Database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Service is running",
		})
	})

	accountRepository := postgres.NewAccountRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTP)
	googleVerifier := identity.NewGoogleVerifier(cfg.Google.ClientID)
	accountService := account.NewService(accountRepository, refreshTokenRepo, smtpMailer, googleVerifier, cfg)
	accountHandler := handler.NewAccountHandler(accountService)

	issueRepository := postgres.NewIssueRepository(db)
	issueService := issue.NewService(issueRepository, imageStore)
	issueHandler := handler.NewIssueHandler(issueService)

	uploadHandler := handler.NewUploadHandler(imageStore)

	v1 := router.Group("/api/v1")
	{
		accountHandler.RegisterAuthRoutes(v1)
		issueHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			accountHandler.RegisterProfileRoutes(protected)
			issueHandler.RegisterProtectedRoutes(protected)
			uploadHandler.RegisterRoutes(protected)

			admin := protected.Group("/admin")
			admin.Use(middleware.AdminOnly())
			{
				accountHandler.RegisterAdminRoutes(admin)
				issueHandler.RegisterAdminRoutes(admin)
			}
		}
	}

	logger.Info("All routes initialized")
	return router
}
