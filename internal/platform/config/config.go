package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix  = "PERFBOARD_"
	FileEnvVar = "PERFBOARD_CONFIG"
)

const (
	EvaluationStorePostgres = "postgres"
	EvaluationStoreMongo    = "mongo"
	BlobDriverLocal         = "local"
	BlobDriverS3            = "s3"
)

type Config struct {
	Addr        string `koanf:"addr"`
	Environment string `koanf:"env"`
	LogLevel    string `koanf:"log_level"`

	DatabaseURL   string `koanf:"database_url"`
	MigrationsDir string `koanf:"migrations_dir"`
	RunMigrations bool   `koanf:"run_migrations"`
	RunSeed       bool   `koanf:"run_seed"`

	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`

	SeedOrganizationName string `koanf:"seed_organization_name"`
	SeedAdminEmail       string `koanf:"seed_admin_email"`
	SeedAdminPassword    string `koanf:"seed_admin_password"`

	MaxBodyBytes       int64 `koanf:"max_body_bytes"`
	MaxUploadBytes     int64 `koanf:"max_upload_bytes"`
	RateLimitPerMinute int   `koanf:"rate_limit_per_minute"`
	MetricsEnabled     bool  `koanf:"metrics_enabled"`

	EvaluationStore string `koanf:"evaluation_store"`
	MongoURI        string `koanf:"mongo_uri"`
	MongoDatabase   string `koanf:"mongo_database"`

	BlobDriver        string        `koanf:"blob_driver"`
	BlobDir           string        `koanf:"blob_dir"`
	BlobBaseURL       string        `koanf:"blob_base_url"`
	BlobEncryptionKey string        `koanf:"blob_encryption_key"`
	S3Bucket          string        `koanf:"s3_bucket"`
	S3Region          string        `koanf:"s3_region"`
	S3Endpoint        string        `koanf:"s3_endpoint"`
	S3AccessKey       string        `koanf:"s3_access_key"`
	S3SecretKey       string        `koanf:"s3_secret_key"`
	PresignTTL        time.Duration `koanf:"presign_ttl"`

	JobInterval   time.Duration `koanf:"job_interval"`
	AwardCloseDay int           `koanf:"award_close_day"`
}

func Defaults() Config {
	return Config{
		Addr:                 ":8080",
		Environment:          "development",
		LogLevel:             "info",
		MigrationsDir:        "migrations",
		RunMigrations:        true,
		RunSeed:              true,
		TokenTTL:             8 * time.Hour,
		SeedOrganizationName: "Default Organization",
		MaxBodyBytes:         1048576,
		MaxUploadBytes:       8388608,
		RateLimitPerMinute:   120,
		MetricsEnabled:       true,
		EvaluationStore:      EvaluationStorePostgres,
		MongoDatabase:        "perfboard",
		BlobDriver:           BlobDriverLocal,
		BlobDir:              "data/blobs",
		BlobBaseURL:          "/files",
		S3Region:             "us-east-1",
		PresignTTL:           24 * time.Hour,
		JobInterval:          time.Hour,
		AwardCloseDay:        1,
	}
}

// Load layers defaults, the optional YAML file named by PERFBOARD_CONFIG and
// PERFBOARD_* environment variables, in that order of precedence.
func Load() (Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(FileEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("load env config: %w", err)
	}

	cfg := Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("PERFBOARD_DATABASE_URL is required")
	}
	if c.IsProduction() {
		if len(strings.TrimSpace(c.JWTSecret)) < 32 {
			return fmt.Errorf("PERFBOARD_JWT_SECRET must be at least 32 characters in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("PERFBOARD_SEED_ADMIN_PASSWORD must be set or PERFBOARD_RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("PERFBOARD_MAX_BODY_BYTES must be at least 1024")
	}
	if c.MaxUploadBytes < c.MaxBodyBytes {
		return fmt.Errorf("PERFBOARD_MAX_UPLOAD_BYTES must be at least PERFBOARD_MAX_BODY_BYTES")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("PERFBOARD_RATE_LIMIT_PER_MINUTE must be positive")
	}
	switch c.EvaluationStore {
	case EvaluationStorePostgres:
	case EvaluationStoreMongo:
		if strings.TrimSpace(c.MongoURI) == "" {
			return fmt.Errorf("PERFBOARD_MONGO_URI is required when the evaluation store is mongo")
		}
	default:
		return fmt.Errorf("unknown evaluation store %q", c.EvaluationStore)
	}
	switch c.BlobDriver {
	case BlobDriverLocal:
		if c.IsProduction() && strings.TrimSpace(c.BlobEncryptionKey) == "" {
			return fmt.Errorf("PERFBOARD_BLOB_ENCRYPTION_KEY must be set in production for the local blob driver")
		}
	case BlobDriverS3:
		if strings.TrimSpace(c.S3Bucket) == "" {
			return fmt.Errorf("PERFBOARD_S3_BUCKET is required when the blob driver is s3")
		}
	default:
		return fmt.Errorf("unknown blob driver %q", c.BlobDriver)
	}
	if c.AwardCloseDay < 1 || c.AwardCloseDay > 28 {
		return fmt.Errorf("PERFBOARD_AWARD_CLOSE_DAY must be between 1 and 28")
	}
	if c.JobInterval < time.Minute {
		return fmt.Errorf("PERFBOARD_JOB_INTERVAL must be at least 1m")
	}
	return nil
}
