package config

import (
	"fmt"
	"os"
	"strconv"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Config holds all configuration values from environment.
type Config struct {
	AppPort        string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioSSL       bool

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	RabbitHost     string
	RabbitPort     string
	RabbitUser     string
	RabbitPassword string

	// Shared secret with the identity provider for bearer token validation.
	JWTSecret string

	IdentityURL    string
	IdentityAPIKey string

	// Upload settings
	MaxUploadBytes int64 // Soft cap for model uploads (default: 50MB)

	// Compression settings
	CompressorPath string // gltfpack binary used by the compression worker
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	minioSSL := false
	if sslEnv := os.Getenv("MINIO_SSL"); sslEnv != "" {
		val, err := strconv.ParseBool(sslEnv)
		if err != nil {
			return nil, fmt.Errorf("invalid MINIO_SSL value: %v", err)
		}
		minioSSL = val
	}
	maxUpload := int64(50 << 20) // 50MB
	if sizeEnv := os.Getenv("MAX_UPLOAD_BYTES"); sizeEnv != "" {
		val, err := strconv.ParseInt(sizeEnv, 10, 64)
		if err == nil && val > 0 {
			maxUpload = val
		}
	}
	redisDB := 0
	if dbEnv := os.Getenv("REDIS_DB"); dbEnv != "" {
		val, err := strconv.Atoi(dbEnv)
		if err == nil {
			redisDB = val
		}
	}
	compressorPath := os.Getenv("COMPRESSOR_PATH")
	if compressorPath == "" {
		compressorPath = "gltfpack"
	}
	cfg := &Config{
		AppPort:        os.Getenv("VIEWER_PORT"),
		DBHost:         os.Getenv("DB_HOST"),
		DBPort:         os.Getenv("DB_PORT"),
		DBUser:         os.Getenv("DB_USER"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBName:         os.Getenv("DB_NAME"),
		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    os.Getenv("MINIO_BUCKET"),
		MinioSSL:       minioSSL,

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     os.Getenv("REDIS_PORT"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		RabbitHost:     os.Getenv("RABBITMQ_HOST"),
		RabbitPort:     os.Getenv("RABBITMQ_PORT"),
		RabbitUser:     os.Getenv("RABBITMQ_USER"),
		RabbitPassword: os.Getenv("RABBITMQ_PASSWORD"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		IdentityURL:    os.Getenv("IDENTITY_URL"),
		IdentityAPIKey: os.Getenv("IDENTITY_API_KEY"),

		MaxUploadBytes: maxUpload,
		CompressorPath: compressorPath,
	}
	// RabbitMQ defaults match a local broker
	if cfg.RabbitHost == "" {
		cfg.RabbitHost = "localhost"
	}
	if cfg.RabbitPort == "" {
		cfg.RabbitPort = "5672"
	}
	if cfg.RabbitUser == "" {
		cfg.RabbitUser = "guest"
	}
	if cfg.RabbitPassword == "" {
		cfg.RabbitPassword = "guest"
	}
	// Basic validation for required fields
	if cfg.DBHost == "" || cfg.DBUser == "" || cfg.DBName == "" {
		return nil, fmt.Errorf("database configuration is incomplete")
	}
	if cfg.MinioEndpoint == "" || cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" || cfg.MinioBucket == "" {
		return nil, fmt.Errorf("minio configuration is incomplete")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	return cfg, nil
}

// ConnectDatabase initializes a GORM database connection to PostgreSQL.
func ConnectDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return db, nil
}
