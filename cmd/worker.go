package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/fieldwork/services/workorders/config"
	"example.com/fieldwork/services/workorders/internal/database"
	"example.com/fieldwork/services/workorders/internal/messaging"
	"example.com/fieldwork/services/workorders/internal/repositories"
	"example.com/fieldwork/services/workorders/internal/search"
	"example.com/fieldwork/services/workorders/internal/services"
	"example.com/fieldwork/services/workorders/internal/storage"
	"example.com/fieldwork/services/workorders/internal/tracing"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker that consumes work-order events and keeps the search projection current`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
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

	g, ctx := errgroup.WithContext(ctx)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
	}

	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search functionality")
	}

	repo := repositories.NewRepository(db)
	uploads := storage.NewUploadStore(cfg.Uploads)

	var indexer services.Indexer
	if elasticClient != nil {
		indexer = elasticClient
	}

	workOrderService := services.NewWorkOrderService(repo, uploads, indexer, nil, tracer)

	serviceBus, err := messaging.NewServiceBus(cfg.Azure)
	if err != nil {
		return err
	}
	defer serviceBus.Close()

	g.Go(func() error {
		log.Info().Str("queue", cfg.Azure.QueueName).Msg("Starting Service Bus processor")
		return serviceBus.ProcessMessages(ctx, workOrderService.HandleWorkOrderEvent)
	})

	// Periodic reindex catches events the consumer missed
	g.Go(func() error {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(5*time.Minute),
			gocron.NewTask(func() {
				since := time.Now().Add(-10 * time.Minute).Unix()
				if err := workOrderService.ReindexUpdatedSince(ctx, since); err != nil {
					log.Error().Err(err).Msg("Fallback reindex failed")
				}
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()

		<-ctx.Done()
		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}

	log.Info().Msg("Shutting down worker")
	return nil
}
