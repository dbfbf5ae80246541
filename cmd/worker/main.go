package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"coverforge/internal/config"
	"coverforge/internal/logger"
	"coverforge/internal/pgmq"
	"coverforge/internal/pubsub"
	"coverforge/internal/repository"
	"coverforge/internal/service"
	"coverforge/internal/worker/analysis"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Initialize logger
	logger := logger.New()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	// Set up context with graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize DB connection pool
	dsn := cfg.DBConnectionString
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}
		dsn += separator + "sslmode=disable"
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Fatal().Msgf("Failed to create DB pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Msgf("Failed to ping DB: %v", err)
	}
	logger.Info().Msg("Database connection established")

	// Initialize PGMQ client
	queueClient := pgmq.New(pool)
	logger.Info().Msg("PGMQ client initialized")

	// Initialize S3 client for resume storage
	s3Config, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
	)
	if err != nil {
		logger.Fatal().Msgf("Failed to load S3 config: %v", err)
	}
	s3Client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	})

	// Initialize Pub/Sub publisher for analytics events (optional)
	var publisher pubsub.Publisher
	if cfg.GCPProjectID != "" {
		p, err := pubsub.NewPublisher(ctx, cfg.GCPProjectID)
		if err != nil {
			logger.Fatal().Msgf("Failed to create Pub/Sub publisher: %v", err)
		}
		publisher = p
	} else {
		logger.Warn().Msg("GCP project not configured; analytics events disabled")
	}

	// Wire repositories and services
	accountRepo := repository.NewAccountRepo(pool)
	referralRepo := repository.NewReferralRepo(pool)
	analysisRepo := repository.NewAnalysisRepo(pool)
	dlqRepo := repository.NewDLQRepository(pool)

	ledgerSvc := service.NewLedgerService(
		accountRepo, referralRepo,
		publisher, cfg.UsageEventsTopic, cfg.ReferralEventsTopic,
		cfg.FreeUsageLimit, cfg.ReferralBonus, cfg.ReferralCodeLength,
		logger,
	)
	resumeSvc := service.NewResumeService(ledgerSvc, analysisRepo, s3Client, cfg.S3Bucket, queueClient, cfg.AnalysisQueueName, logger)
	dlqSvc := service.NewDLQService(dlqRepo, queueClient, logger)

	w := analysis.New(cfg, queueClient, ledgerSvc, resumeSvc, analysisRepo, dlqSvc, logger)
	if err := w.Run(ctx); err != nil {
		logger.Fatal().Msgf("Analysis worker failed: %v", err)
	}

	logger.Info().Msg("Analysis worker stopped gracefully")
}
