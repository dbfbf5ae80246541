package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`

	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`

	JWTSecret string `envconfig:"JWT_SECRET"`
	// When set, the JWT secret is resolved from Secret Manager at startup
	// instead of JWT_SECRET.
	JWTSecretName string `envconfig:"JWT_SECRET_NAME"`

	InternalAPIToken string `envconfig:"INTERNAL_API_TOKEN"`

	// Quota & referral settings
	FreeUsageLimit     int `envconfig:"FREE_USAGE_LIMIT" default:"3"`
	ReferralBonus      int `envconfig:"REFERRAL_BONUS" default:"10"`
	ReferralCodeLength int `envconfig:"REFERRAL_CODE_LENGTH" default:"6"`

	// GCP settings (Pub/Sub analytics events, Secret Manager)
	GCPProjectID        string `envconfig:"GCP_PROJECT_ID"`
	PubSubEmulatorHost  string `envconfig:"PUBSUB_EMULATOR_HOST"`
	UsageEventsTopic    string `envconfig:"USAGE_EVENTS_TOPIC" default:"usage-events"`
	ReferralEventsTopic string `envconfig:"REFERRAL_EVENTS_TOPIC" default:"referral-events"`

	// Resume object storage (S3-compatible)
	S3URL       string `envconfig:"S3_URL" required:"true"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"resumes"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" required:"true"`

	// Resume analysis worker settings
	AnalysisQueueName         string `envconfig:"ANALYSIS_QUEUE_NAME" default:"resume_analysis_queue"`
	AnalysisPollTimeoutSec    int    `envconfig:"ANALYSIS_POLL_TIMEOUT_SEC" default:"30"`
	AnalysisPollMaxMsg        int    `envconfig:"ANALYSIS_POLL_MAX_MSG" default:"1"`
	AnalysisMaxRetries        int    `envconfig:"ANALYSIS_MAX_RETRIES" default:"5"`
	AnalysisBackoffInitialSec int    `envconfig:"ANALYSIS_BACKOFF_INITIAL_SEC" default:"1"`
	AnalysisBackoffMaxSec     int    `envconfig:"ANALYSIS_BACKOFF_MAX_SEC" default:"60"`
	MaxResumeSizeMB           int    `envconfig:"MAX_RESUME_SIZE_MB" default:"5"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
