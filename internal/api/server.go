package api

import (
	"context"
	"net/http"

	"example.com/fieldwork/services/workorders/config"
	"example.com/fieldwork/services/workorders/internal/api/handlers"
	"example.com/fieldwork/services/workorders/internal/api/middleware"
	"example.com/fieldwork/services/workorders/internal/auth"
	"example.com/fieldwork/services/workorders/internal/metrics"
	"example.com/fieldwork/services/workorders/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Handlers bundles every route handler the server mounts
type Handlers struct {
	Auth        *handlers.AuthHandler
	WorkOrders  *handlers.WorkOrderHandler
	Reference   *handlers.ReferenceHandler
	Technicians *handlers.TechnicianHandler
	System      *handlers.SystemHandler
}

// Server is the HTTP front of the service
type Server struct {
	router *gin.Engine
	server *http.Server
}

// NewServer builds the router and wires every route
func NewServer(cfg *config.Config, sessions auth.Store, collector *metrics.Metrics, h Handlers) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.RequestMetrics(collector))
	router.Use(middleware.SessionLoader(sessions, cfg.Session.CookieName))

	registerRoutes(router, cfg, h)

	return &Server{
		router: router,
		server: &http.Server{
			Addr:         cfg.ServerAddress,
			Handler:      router,
			ReadTimeout:  cfg.ServerTimeout,
			WriteTimeout: cfg.ServerTimeout,
		},
	}
}

func registerRoutes(router *gin.Engine, cfg *config.Config, h Handlers) {
	router.GET("/", h.System.Root)
	router.GET("/health", h.System.Health)
	router.GET("/metrics", h.System.Metrics)

	// Attachment files are served straight off the upload root
	router.Static(cfg.Uploads.PublicPrefix, cfg.Uploads.Dir)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", h.Auth.Login)
		authGroup.GET("/me", middleware.RequireLogin(), h.Auth.Me)
		authGroup.POST("/logout", middleware.RequireLogin(), h.Auth.Logout)
	}

	admin := router.Group("/admin/work-orders", middleware.RequireRole(models.RoleAdmin))
	{
		admin.POST("", h.WorkOrders.CreateAdmin)
		admin.GET("", h.WorkOrders.List)
		admin.GET("/search", h.WorkOrders.Search)
		admin.GET("/by-number/:number", h.WorkOrders.GetByNumber)
		admin.PUT("/by-number/:number", h.WorkOrders.UpdateByNumber)
		admin.GET("/:id", h.WorkOrders.GetByID)
		admin.PUT("/:id", h.WorkOrders.UpdateByID)
	}

	router.GET("/dispatcher/work-orders",
		middleware.RequireRole(models.RoleDispatcher), h.WorkOrders.ListForDispatcher)
	router.GET("/team-leader/work-orders",
		middleware.RequireRole(models.RoleTeamLeader), h.WorkOrders.ListFiltered)

	// Dual-key detail routes, all dispatcher-only
	workOrders := router.Group("/work-orders")
	{
		workOrders.POST("", middleware.RequireRole(models.RoleAdmin), h.WorkOrders.Create)

		dispatcher := workOrders.Group("", middleware.RequireRole(models.RoleDispatcher))
		{
			dispatcher.GET("/:id/details", h.WorkOrders.DetailsByID)
			dispatcher.GET("/by-number/:number/details", h.WorkOrders.DetailsByNumber)

			dispatcher.GET("/:id/status", h.WorkOrders.GetStatusByID)
			dispatcher.PUT("/:id/status", h.WorkOrders.UpdateStatusByID)
			dispatcher.GET("/by-number/:number/status", h.WorkOrders.GetStatusByNumber)
			dispatcher.PUT("/by-number/:number/status", h.WorkOrders.UpdateStatusByNumber)

			dispatcher.POST("/:id/notes", h.WorkOrders.AddNoteByID)
			dispatcher.GET("/:id/notes", h.WorkOrders.ListNotesByID)
			dispatcher.POST("/by-number/:number/notes", h.WorkOrders.AddNoteByNumber)
			dispatcher.GET("/by-number/:number/notes", h.WorkOrders.ListNotesByNumber)

			dispatcher.POST("/:id/files", h.WorkOrders.UploadFileByID)
			dispatcher.GET("/:id/files", h.WorkOrders.ListFilesByID)
			dispatcher.POST("/by-number/:number/files", h.WorkOrders.UploadFileByNumber)
			dispatcher.GET("/by-number/:number/files", h.WorkOrders.ListFilesByNumber)
		}
	}

	reference := router.Group("", middleware.RequireLogin())
	{
		reference.GET("/clients", h.Reference.ListClients)
		reference.GET("/clients/:id", h.Reference.GetClient)
		reference.GET("/clients/:id/stores", h.Reference.ListClientStores)
		reference.GET("/stores", h.Reference.ListStores)
		reference.GET("/stores/:id", h.Reference.GetStore)
	}

	technicians := router.Group("/technicians",
		middleware.RequireAnyRole(models.RoleDispatcher, models.RoleAdmin))
	{
		technicians.GET("", h.Technicians.List)
		technicians.POST("", h.Technicians.Create)
		technicians.PUT("/:id", h.Technicians.Update)
	}

	router.GET("/users/dispatchers", h.Reference.ListDispatchers)
}

// Start begins serving; it blocks until the listener fails or closes
func (s *Server) Start() error {
	log.Info().Str("address", s.server.Addr).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "server failed")
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
