package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"firebase.google.com/go/v4/auth"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shinyyama/marketplace-inbox/internal/config"
	"github.com/shinyyama/marketplace-inbox/internal/directory"
	"github.com/shinyyama/marketplace-inbox/internal/handler"
	appmw "github.com/shinyyama/marketplace-inbox/internal/middleware"
	"github.com/shinyyama/marketplace-inbox/internal/reqctx"
	"github.com/shinyyama/marketplace-inbox/internal/repository"
	"github.com/shinyyama/marketplace-inbox/internal/service"
	"gorm.io/gorm"
)

type Options struct {
	Config *config.Config
	// DB may be nil; requests fail with 503 until SetDB is called.
	DB     *gorm.DB
	Logger *slog.Logger
	// Auth is nil when Firebase is not configured.
	Auth      *auth.Client
	SHA       string
	BuildTime string
}

type Server struct {
	e           *echo.Echo
	messageRepo repository.MessageStore
	listingRepo repository.ListingRepository
	dbReady     atomic.Bool
	logger      *slog.Logger
}

func New(opts Options) *Server {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, rid string) {
			req := c.Request()
			c.SetRequest(req.WithContext(reqctx.WithRID(req.Context(), rid)))
		},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError || v.Error != nil {
				level = slog.LevelError
			}
			logger.LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
				slog.Any("error", v.Error),
			)
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", appmw.DevUIDHeader},
		AllowCredentials: true,
		AllowOriginFunc:  allowOrigin,
	}))

	messageRepo := repository.NewMessageRepository(opts.DB)
	listingRepo := repository.NewListingRepository(opts.DB)

	var users service.UserDirectory = directory.PlaceholderUsers{}
	if opts.Auth != nil {
		users = directory.NewFirebaseUsers(opts.Auth)
	}
	users = directory.NewCachedUsers(users, cfg.Inbox.DirectoryCacheSize, cfg.Inbox.DirectoryCacheTTL)

	convSvc := service.NewConversationService(messageRepo, users, directory.NewListings(listingRepo), logger, service.Options{
		Strategy:               service.Strategy(cfg.Inbox.LatestStrategy),
		Concurrency:            cfg.Inbox.Concurrency,
		BulkMessagesPerPartner: cfg.Inbox.BulkMessagesPerPartner,
		BulkMaxRows:            cfg.Inbox.BulkMaxRows,
	})
	convHandler := handler.NewConversationHandler(convSvc, logger)
	userHandler := handler.NewUserHandler(users, logger)

	s := &Server{e: e, messageRepo: messageRepo, listingRepo: listingRepo, logger: logger}
	s.dbReady.Store(opts.DB != nil)

	e.GET("/healthz", func(c echo.Context) error {
		db := "pending"
		if s.dbReady.Load() {
			db = "ready"
		}
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"db":         db,
			"git_sha":    opts.SHA,
			"build_time": opts.BuildTime,
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	requireAuth := authMiddleware(cfg, opts.Auth, logger)
	api := e.Group("/api", requireAuth)
	api.GET("/conversations", convHandler.List)
	api.GET("/conversations/unread-count", convHandler.UnreadCount)
	api.GET("/users/:uid/public", userHandler.GetPublic)

	return s
}

func authMiddleware(cfg *config.Config, client *auth.Client, logger *slog.Logger) echo.MiddlewareFunc {
	if client != nil {
		return appmw.NewAuthMiddleware(client).RequireAuth
	}
	if cfg.Env == "dev" || cfg.Env == "local" {
		logger.Warn("firebase not configured; trusting " + appmw.DevUIDHeader + " header")
		return appmw.DevAuth
	}
	logger.Error("firebase not configured; api routes disabled", "env", cfg.Env)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return c.JSON(http.StatusServiceUnavailable, handler.NewErrorResponse("unavailable", "authentication is not configured"))
		}
	}
}

func allowOrigin(origin string) (bool, error) {
	low := strings.ToLower(origin)
	if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
		strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
		return true, nil
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false, nil
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false, nil
	}
	if strings.HasSuffix(u.Hostname(), "vercel.app") {
		return true, nil
	}
	return false, nil
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

// SetDB hands the connection to every repository once it becomes available.
func (s *Server) SetDB(db *gorm.DB) {
	s.messageRepo.SetDB(db)
	s.listingRepo.SetDB(db)
	s.dbReady.Store(db != nil)
	s.logger.Info("database attached to server")
}
