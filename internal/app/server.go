// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"farmlink_backend/internal/auth"
	"farmlink_backend/internal/common"
	"farmlink_backend/internal/config"
	"farmlink_backend/internal/jobs"
	"farmlink_backend/internal/listing"
	"farmlink_backend/internal/message"
	"farmlink_backend/internal/middleware"
	"farmlink_backend/internal/request"
	"farmlink_backend/internal/shared"
	"farmlink_backend/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	// Handlers
	userHandler    *user.Handler
	authHandler    *auth.Handler
	listingHandler *listing.Handler
	requestHandler *request.Handler
	messageHandler *message.Handler

	// Jobs
	listingDeactivationJob *jobs.ListingDeactivationJob

	// Middleware instances
	authMW          gin.HandlerFunc
	farmerRoleMW    gin.HandlerFunc
	requesterRoleMW gin.HandlerFunc
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	userHandler *user.Handler,
	authHandler *auth.Handler,
	listingHandler *listing.Handler,
	requestHandler *request.Handler,
	messageHandler *message.Handler,
	listingDeactivationJob *jobs.ListingDeactivationJob,
	db *gorm.DB,
	tokenService shared.TokenService,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	// CORS Middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	// Create middleware instances
	authMW := middleware.AuthMiddleware(tokenService, logger.Named("AuthMiddleware"))
	farmerRoleMW := middleware.RoleAuthMiddleware(common.RoleFarmer.String())
	requesterRoleMW := middleware.RoleAuthMiddleware(common.RoleBuyer.String(), common.RoleFoodBank.String())

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "message": "Database is unreachable."})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "FarmLink API is healthy!"})
	})

	v1 := router.Group("/api/v1")

	authHandler.RegisterRoutes(v1, authMW)
	userHandler.RegisterRoutes(v1, authMW)
	listingHandler.RegisterRoutes(v1, authMW, farmerRoleMW)
	requestHandler.RegisterRoutes(v1, authMW, farmerRoleMW, requesterRoleMW)
	messageHandler.RegisterRoutes(v1, authMW)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:             httpServer,
		router:                 router,
		cfg:                    cfg,
		logger:                 logger,
		userHandler:            userHandler,
		authHandler:            authHandler,
		listingHandler:         listingHandler,
		requestHandler:         requestHandler,
		messageHandler:         messageHandler,
		listingDeactivationJob: listingDeactivationJob,
		authMW:                 authMW,
		farmerRoleMW:           farmerRoleMW,
		requesterRoleMW:        requesterRoleMW,
	}, nil
}

func (s *Server) Start() error {
	if s.listingDeactivationJob != nil {
		if err := s.listingDeactivationJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start listing deactivation job", zap.Error(err))
		}
	} else {
		s.logger.Info("Listing deactivation job is not configured, skipping start.")
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped gracefully or an error occurred")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.listingDeactivationJob != nil {
		s.listingDeactivationJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
