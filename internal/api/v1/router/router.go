package router

import (
	"context"
	"net/http"
	"strings"

	"coverforge/internal/api/v1/handler"
	"coverforge/internal/config"
	"coverforge/internal/middleware"
	"coverforge/internal/pgmq"
	"coverforge/internal/pubsub"
	"coverforge/internal/repository"
	"coverforge/internal/service"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (http.Handler, *pgxpool.Pool, error) {
	// 1. Open DB connection pool
	dsn := cfg.DBConnectionString
	// In a development environment, ensure SSL is disabled for local
	// testing. In production, the connection string should be provided with
	// the correct SSL settings.
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}
		dsn += separator + "sslmode=disable"
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create DB pool")
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to ping DB")
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	// 2. Initialize S3 client for resume storage
	s3Config, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load S3 config")
		return nil, nil, err
	}
	s3Client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	})

	// 3. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 4. Initialize Pub/Sub publisher for analytics events (optional)
	var publisher pubsub.Publisher
	if cfg.GCPProjectID != "" {
		p, err := pubsub.NewPublisher(ctx, cfg.GCPProjectID)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create Pub/Sub publisher")
			return nil, nil, err
		}
		publisher = p
	} else {
		logger.Warn().Msg("GCP project not configured; analytics events disabled")
	}

	// 5. Initialize queue client, repositories, services, handlers
	queueClient := pgmq.New(pool)

	accountRepo := repository.NewAccountRepo(pool)
	referralRepo := repository.NewReferralRepo(pool)
	documentRepo := repository.NewDocumentRepo(pool)
	analysisRepo := repository.NewAnalysisRepo(pool)
	dlqRepo := repository.NewDLQRepository(pool)

	ledgerSvc := service.NewLedgerService(
		accountRepo, referralRepo,
		publisher, cfg.UsageEventsTopic, cfg.ReferralEventsTopic,
		cfg.FreeUsageLimit, cfg.ReferralBonus, cfg.ReferralCodeLength,
		logger,
	)
	generationSvc := service.NewGenerationService(ledgerSvc, documentRepo, analysisRepo, logger)
	resumeSvc := service.NewResumeService(ledgerSvc, analysisRepo, s3Client, cfg.S3Bucket, queueClient, cfg.AnalysisQueueName, logger)
	dlqSvc := service.NewDLQService(dlqRepo, queueClient, logger)

	accountHandler := handler.NewAccountHandler(ledgerSvc, validate, logger)
	generationHandler := handler.NewGenerationHandler(generationSvc, validate, logger)
	resumeHandler := handler.NewResumeHandler(resumeSvc, cfg.MaxResumeSizeMB, logger)
	dlqHandler := handler.NewDLQHandler(dlqSvc, validate, logger)

	// 6. Initialize middleware
	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret, logger)
	internalMiddleware := middleware.InternalAuthMiddleware(cfg.InternalAPIToken, logger)

	// 7. Create ServeMux router with the API v1 routes under /v1
	apiV1Mux := http.NewServeMux()
	accountHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	generationHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	resumeHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	dlqHandler.RegisterRoutes(apiV1Mux, internalMiddleware)

	mux := http.NewServeMux()
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	// Swagger documentation (generated into docs/swagger by swag)
	mux.HandleFunc("/swagger/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger/swagger.json")
	})
	mux.Handle("/swagger/", http.StripPrefix("/swagger/", http.FileServer(http.Dir("./docs/swagger/swagger-ui"))))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// 8. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(logger, c.Handler(mux)), pool, nil
}

// removeDisableGzip is a workaround for S3 signature errors with some
// S3-compatible services.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
