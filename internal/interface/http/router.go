package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/pdf-summarizer/internal/domain/auth"
	"github.com/yanqian/pdf-summarizer/internal/infra/config"
	"github.com/yanqian/pdf-summarizer/pkg/metrics"
)

// NewRouter wires up the HTTP handlers and returns a configured server. pipeline may be nil.
func NewRouter(cfg *config.Config, handler *Handler, authHandler *AuthHandler, authSvc auth.Service, pipeline *metrics.Pipeline, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.MaxMultipartMemory = int64(cfg.Summary.MaxPDFSizeMB+1) << 20
	router.Use(
		gin.Recovery(),
		requestLogger(logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(logger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, logger),
	)

	router.GET("/healthz", handler.Health)
	if cfg.Metrics.Enabled && pipeline != nil {
		router.GET(cfg.Metrics.Path, gin.WrapH(pipeline.Handler()))
	}

	cookieName := cfg.Auth.CookieName
	requireAuth := authMiddleware(authSvc, cookieName)
	optionalAuth := optionalAuthMiddleware(authSvc, cookieName)

	api := router.Group("/api")
	{
		api.POST("/summarize", optionalAuth, handler.SummarizeText)
		api.POST("/summarize-pdf", optionalAuth, handler.SummarizePDF)
		api.GET("/model-info", handler.ModelInfo)

		api.GET("/history", requireAuth, handler.History)
		api.GET("/keywords/top", requireAuth, handler.TopKeywords)

		account := api.Group("/auth")
		account.POST("/register", authHandler.Register)
		account.POST("/login", authHandler.Login)
		account.POST("/refresh", authHandler.Refresh)
		account.POST("/logout", optionalAuth, authHandler.Logout)
		account.GET("/me", requireAuth, authHandler.Me)
		account.PUT("/me", requireAuth, authHandler.UpdateMe)
		account.DELETE("/me", requireAuth, authHandler.DeleteMe)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
