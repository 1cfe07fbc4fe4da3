package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/fieldwork/services/workorders/config"
	"example.com/fieldwork/services/workorders/internal/api"
	"example.com/fieldwork/services/workorders/internal/api/handlers"
	"example.com/fieldwork/services/workorders/internal/auth"
	"example.com/fieldwork/services/workorders/internal/cache"
	"example.com/fieldwork/services/workorders/internal/database"
	"example.com/fieldwork/services/workorders/internal/messaging"
	"example.com/fieldwork/services/workorders/internal/metrics"
	"example.com/fieldwork/services/workorders/internal/repositories"
	"example.com/fieldwork/services/workorders/internal/search"
	"example.com/fieldwork/services/workorders/internal/services"
	"example.com/fieldwork/services/workorders/internal/storage"
	"example.com/fieldwork/services/workorders/internal/tracing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server that fronts work orders, notes, attachments, and reference data`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}

	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
	}

	// Sessions live in Redis so restarts keep users logged in; fall back
	// to in-memory sessions when Redis is down.
	var sessions auth.Store
	if redisCache != nil && redisCache.Enabled() {
		sessions = auth.NewRedisStore(redisCache.Client(), cfg.Session.TTL)
	} else {
		log.Warn().Msg("Redis unavailable, using in-memory session store")
		sessions = auth.NewMemoryStore(cfg.Session.TTL)
	}

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
	}

	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search functionality")
	}

	var bus services.Publisher
	if cfg.Azure.QueueConnStr != "" {
		serviceBus, err := messaging.NewServiceBus(cfg.Azure)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Service Bus, continuing without events")
		} else {
			defer serviceBus.Close()
			bus = serviceBus
		}
	}

	metricsCollector := metrics.NewMetrics()
	repo := repositories.NewRepository(db)
	uploads := storage.NewUploadStore(cfg.Uploads)

	var indexer services.Indexer
	if elasticClient != nil {
		indexer = elasticClient
	}

	workOrderService := services.NewWorkOrderService(repo, uploads, indexer, bus, tracer)
	authService := services.NewAuthService(repo, sessions)
	referenceService := services.NewReferenceService(repo, redisCache)
	technicianService := services.NewTechnicianService(repo)

	server := api.NewServer(&cfg, sessions, metricsCollector, api.Handlers{
		Auth:        handlers.NewAuthHandler(authService, cfg.Session.CookieName, cfg.Session.TTL, cfg.Session.Secure),
		WorkOrders:  handlers.NewWorkOrderHandler(workOrderService, cfg.Uploads.PublicPrefix),
		Reference:   handlers.NewReferenceHandler(referenceService),
		Technicians: handlers.NewTechnicianHandler(technicianService),
		System:      handlers.NewSystemHandler(db, redisCache, metricsCollector),
	})

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
		}
	}()

	<-ctx.Done()

	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Shutting down API server")
	return nil
}
