package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"example.com/backstage/services/orders/config"
	"example.com/backstage/services/orders/internal/cache"
	"example.com/backstage/services/orders/internal/messaging"
	"example.com/backstage/services/orders/internal/metrics"
	"example.com/backstage/services/orders/internal/services"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker to ingest order events from Azure Service Bus`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}

	// Configure logging
	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Create an error group to manage goroutines
	g, ctx := errgroup.WithContext(ctx)

	// Build the shared ingest pipeline
	p, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	// Initialize Azure Service Bus receiver
	serviceBus, err := messaging.NewServiceBus(cfg.Azure)
	if err != nil {
		return err
	}

	// Start the queue processor
	g.Go(func() error {
		log.Info().Str("queue", cfg.Azure.QueueName).Msg("Starting Azure Service Bus processor")
		return serviceBus.ProcessMessages(ctx, queueHandler(p.ingestService))
	})

	// Start the periodic health sweep
	g.Go(func() error {
		return runHealthSweep(ctx, p.db, p.cache, p.metrics)
	})

	// Wait for any goroutine to exit
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}

// queueHandler adapts the ingest pipeline to queue delivery semantics:
// only storage failures are worth a redelivery, every other outcome is
// final and completes the message.
func queueHandler(ingestService *services.IngestService) messaging.MessageHandler {
	return func(ctx context.Context, message *azservicebus.ReceivedMessage) error {
		result := ingestService.Ingest(ctx, message.Body)

		switch result.Status {
		case services.StatusStorageFailure:
			return resultFailure(result.Reason)
		case services.StatusRejected:
			log.Warn().
				Str("message_id", message.MessageID).
				Str("reason", result.Reason).
				Msg("Rejected event received from queue")
			return nil
		default:
			return nil
		}
	}
}

type resultFailure string

func (e resultFailure) Error() string {
	return string(e)
}

// runHealthSweep pings the database and cache on a schedule and
// publishes the outcome as health gauges.
func runHealthSweep(ctx context.Context, db *gorm.DB, redisCache *cache.RedisCache, metricsCollector *metrics.Metrics) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(func() {
			sqlDB, dbErr := db.DB()
			if dbErr == nil {
				dbErr = sqlDB.PingContext(ctx)
			}
			metricsCollector.SetHealth("database", dbErr == nil)

			if redisCache.Enabled() {
				redisErr := redisCache.Ping(ctx)
				metricsCollector.SetHealth("redis", redisErr == nil)
			}
		}),
	)
	if err != nil {
		return err
	}

	scheduler.Start()

	<-ctx.Done()

	return scheduler.Shutdown()
}
