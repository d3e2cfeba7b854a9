package config

import (
	"os"
	"strconv"
	"time"
)

type EnvConfig struct {
	Postgres struct {
		Host     string
		Database string
		Username string
		Password string
		Port     string
	}
	JWT struct {
		SecretKey string
		Algorithm string
	}
	CORS struct {
		AllowDomains string
	}
	Redis struct {
		Password string
		Database int
		Host     string
		Port     string
	}
	RabbitMQ struct {
		Host     string
		Port     string
		Username string
		Password string
	}
	Minio struct {
		Endpoint  string
		AccessKey string
		SecretKey string
		UseSSL    bool
	}
	GenerationWorker struct {
		URL         string
		CallbackURL string
	}
	Docgen struct {
		Bucket            string
		StalenessWindow   time.Duration
		SweepInterval     time.Duration
		TransferAttempts  int
		TransferBaseDelay time.Duration
		MaxUploadBytes    int64
	}
	PrivateKey string

	Environment struct {
		Mode string
	}
}

func LoadEnvConfig() *EnvConfig {
	var config EnvConfig

	// Postgres
	config.Postgres.Host = os.Getenv("PGPOOL_HOST")
	config.Postgres.Database = os.Getenv("PGPOOL_DB")
	config.Postgres.Username = os.Getenv("PGPOOL_USER")
	config.Postgres.Password = os.Getenv("PGPOOL_PASSWORD")
	config.Postgres.Port = os.Getenv("PGPOOL_PORT")
	if config.Postgres.Port == "" {
		config.Postgres.Port = "5432"
	}

	// JWT
	config.JWT.SecretKey = os.Getenv("JWT_SECRET_KEY")
	config.JWT.Algorithm = os.Getenv("JWT_ALGORITHM")

	config.CORS.AllowDomains = os.Getenv("ALLOWED_DOMAINS")

	config.Redis.Password = os.Getenv("REDIS_PASSWORD")
	config.Redis.Database, _ = strconv.Atoi(os.Getenv("REDIS_DB"))
	config.Redis.Host = os.Getenv("REDIS_HOST")
	if config.Redis.Host == "" {
		config.Redis.Host = "localhost"
	}
	config.Redis.Port = os.Getenv("REDIS_PORT")
	if config.Redis.Port == "" {
		config.Redis.Port = "6379"
	}

	// RabbitMQ
	config.RabbitMQ.Host = os.Getenv("RABBITMQ_HOST")
	if config.RabbitMQ.Host == "" {
		config.RabbitMQ.Host = "localhost"
	}
	config.RabbitMQ.Port = os.Getenv("RABBITMQ_PORT")
	if config.RabbitMQ.Port == "" {
		config.RabbitMQ.Port = "5672"
	}
	config.RabbitMQ.Username = os.Getenv("RABBITMQ_USER")
	if config.RabbitMQ.Username == "" {
		config.RabbitMQ.Username = "guest"
	}
	config.RabbitMQ.Password = os.Getenv("RABBITMQ_PASSWORD")
	if config.RabbitMQ.Password == "" {
		config.RabbitMQ.Password = "guest"
	}

	config.Minio.Endpoint = os.Getenv("MINIO_ENDPOINT")
	config.Minio.AccessKey = os.Getenv("MINIO_ACCESS_KEY")
	config.Minio.SecretKey = os.Getenv("MINIO_SECRET_KEY")
	config.Minio.UseSSL = os.Getenv("MINIO_USE_SSL") == "true"

	config.GenerationWorker.URL = os.Getenv("GENERATION_WORKER_URL")
	if config.GenerationWorker.URL == "" {
		config.GenerationWorker.URL = "http://localhost:8090"
	}
	config.GenerationWorker.CallbackURL = os.Getenv("GENERATION_CALLBACK_URL")
	if config.GenerationWorker.CallbackURL == "" {
		config.GenerationWorker.CallbackURL = "http://localhost:8080/api/v1/docgen/callback"
	}

	config.Docgen.Bucket = os.Getenv("DOCGEN_BUCKET")
	if config.Docgen.Bucket == "" {
		config.Docgen.Bucket = "docgen-artifacts"
	}
	config.Docgen.StalenessWindow = durationFromEnv("DOCGEN_STALENESS_WINDOW", 15*time.Minute)
	config.Docgen.SweepInterval = durationFromEnv("DOCGEN_SWEEP_INTERVAL", time.Minute)
	config.Docgen.TransferAttempts = intFromEnv("DOCGEN_TRANSFER_ATTEMPTS", 3)
	config.Docgen.TransferBaseDelay = durationFromEnv("DOCGEN_TRANSFER_BASE_DELAY", time.Second)
	config.Docgen.MaxUploadBytes = int64FromEnv("DOCGEN_MAX_UPLOAD_BYTES", 10*1024*1024)

	config.PrivateKey = os.Getenv("PRIVATE_KEY")

	config.Environment.Mode = os.Getenv("DEPLOY_ENV")
	if config.Environment.Mode == "" {
		config.Environment.Mode = "development"
	}

	return &config
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func intFromEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func int64FromEnv(key string, fallback int64) int64 {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
