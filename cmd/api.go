package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"example.com/backstage/services/orders/config"
	"example.com/backstage/services/orders/internal/api"
	"example.com/backstage/services/orders/internal/cache"
	"example.com/backstage/services/orders/internal/database"
	"example.com/backstage/services/orders/internal/metrics"
	"example.com/backstage/services/orders/internal/repositories"
	"example.com/backstage/services/orders/internal/schema"
	"example.com/backstage/services/orders/internal/search"
	"example.com/backstage/services/orders/internal/services"
	"example.com/backstage/services/orders/internal/tracing"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server to ingest incoming order events`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
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

	// Build the ingest pipeline
	p, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	// Initialize and start the server
	server := api.NewServer(cfg, p.ingestService, p.metrics, p.tracer)

	// Start the server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	// Shutdown the server
	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Shutting down API server")
	return nil
}

// pipeline bundles the wired ingest service with the shared resources
// the commands also need direct access to.
type pipeline struct {
	ingestService *services.IngestService
	metrics       *metrics.Metrics
	tracer        tracing.Tracer
	db            *gorm.DB
	cache         *cache.RedisCache
}

// buildPipeline wires the shared validate -> normalize -> persist
// pipeline used by both the API server and the queue worker.
func buildPipeline(ctx context.Context, cfg config.Config) (*pipeline, error) {
	// Initialize database connection
	db, err := database.Connect(cfg.DB)
	if err != nil {
		return nil, err
	}

	// Create the tables idempotently on every start
	repo := repositories.NewOrderRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	// Compile the input contract
	validator, err := schema.NewValidator(schema.DefaultDefinition())
	if err != nil {
		return nil, err
	}

	// Initialize cache
	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without duplicate pre-check")
		redisCache = nil
	}

	// Initialize tracer
	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		return nil, err
	}

	// Initialize Elasticsearch client
	var elasticClient *search.ElasticClient
	if cfg.Elastic.Enabled {
		elasticClient, err = search.NewElasticClient(cfg.Elastic)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search indexing")
			elasticClient = nil
		}
	}

	// Initialize metrics
	metricsCollector := metrics.NewMetrics()
	metricsCollector.SetHealth("database", true)

	ingestService := services.NewIngestService(validator, repo, redisCache, elasticClient, metricsCollector, tracer)

	return &pipeline{
		ingestService: ingestService,
		metrics:       metricsCollector,
		tracer:        tracer,
		db:            db,
		cache:         redisCache,
	}, nil
}
