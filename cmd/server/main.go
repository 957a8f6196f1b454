package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/swagger"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	_ "bim-viewer-service/docs"
	"bim-viewer-service/internal/auth"
	"bim-viewer-service/internal/config"
	"bim-viewer-service/internal/handlers"
	"bim-viewer-service/internal/identity"
	"bim-viewer-service/internal/models"
	"bim-viewer-service/internal/queue"
	"bim-viewer-service/internal/repository"
	"bim-viewer-service/internal/services"
	"bim-viewer-service/internal/storage"
)

// @title BIM Viewer Service API
// @version 1.0
// @description Backend for the browser based BIM model viewer: project storage, object inspection and issue tracking.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment variables")
	}

	cfg := InitConfig()
	db := ConnectDatabase(cfg)
	MigrateDatabase(db)
	minioClient := InitMinIOClient(cfg)
	store := storage.NewMinioStore(minioClient, cfg.MinioBucket)
	redisClient := InitRedis(cfg)
	var cache services.Cache
	if redisClient != nil {
		cache = redisClient
		defer redisClient.Close()
	}
	rabbit, producer := InitRabbitMQ(cfg)
	if rabbit != nil {
		defer rabbit.Close()
	}

	projectRepo := repository.NewProjectRepository(db)
	permissionRepo := repository.NewPermissionRepository(db)
	issueRepo := repository.NewIssueRepository(db)

	identityClient := identity.NewClient(cfg)
	projectService := services.NewProjectService(
		projectRepo, permissionRepo, issueRepo,
		store, cache, producer, identityClient,
		cfg.MaxUploadBytes,
	)
	issueService := services.NewIssueService(issueRepo, permissionRepo)

	app := fiber.New(fiber.Config{
		BodyLimit: int(cfg.MaxUploadBytes) + 1<<20,
	})
	app.Use(cors.New())

	// Register Prometheus metrics endpoint
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	projectHandler := handlers.NewProjectHandler(projectService)
	issueHandler := handlers.NewIssueHandler(issueService)
	profileHandler := handlers.NewProfileHandler(identityClient)

	api := app.Group("/api")
	api.Get("/health", handlers.Health)
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Everything below requires a valid bearer token
	api.Use(auth.New(cfg.JWTSecret))

	api.Get("/projects", projectHandler.ListProjects)
	api.Post("/projects", projectHandler.CreateProject)
	api.Get("/projects/:id", projectHandler.GetProject)
	api.Put("/projects/:id", projectHandler.RenameProject)
	api.Delete("/projects/:id", projectHandler.DeleteProject)
	api.Post("/projects/:id/invite", projectHandler.InviteUser)
	api.Post("/projects/:id/inspect", projectHandler.InspectObject)

	api.Get("/issues", issueHandler.ListIssues)
	api.Post("/issues", issueHandler.CreateIssue)
	api.Get("/issues/stats", issueHandler.IssueStats)
	api.Put("/issues/:id", issueHandler.UpdateIssue)
	api.Delete("/issues/:id", issueHandler.DeleteIssue)

	api.Put("/profile", profileHandler.UpdateProfile)

	routes := app.GetRoutes()
	log.Println("Registered routes:")
	for _, r := range routes {
		log.Printf("  %s %s\n", r.Method, r.Path)
	}

	// Start the Fiber server
	port := cfg.AppPort
	if port == "" {
		port = "8080"
		log.Printf("Defaulting to port %s", port)
	}
	log.Printf("Server listening on port %s", port)
	// Return through main so the deferred Redis/RabbitMQ closes run.
	if err := app.Listen(":" + port); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}

func InitConfig() *config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	return cfg
}

func ConnectDatabase(cfg *config.Config) *gorm.DB {
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	return db
}

func MigrateDatabase(db *gorm.DB) {
	err := db.AutoMigrate(&models.Project{}, &models.Permission{}, &models.Issue{})
	if err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}
}

func InitMinIOClient(cfg *config.Config) *minio.Client {
	minioClient, err := storage.NewMinioClient(cfg)
	if err != nil {
		log.Fatalf("MinIO client initialization failed: %v", err)
	}
	return minioClient
}

// InitRedis connects the cache. The cache is optional: without Redis the
// service still works, just slower on repeated inspections.
func InitRedis(cfg *config.Config) *storage.RedisClient {
	if cfg.RedisHost == "" {
		log.Printf("REDIS_HOST not set, caching disabled")
		return nil
	}
	redisClient, err := storage.NewRedisClient(cfg)
	if err != nil {
		log.Printf("Redis unavailable, caching disabled: %v", err)
		return nil
	}
	return redisClient
}

// InitRabbitMQ connects the broker and declares the compression topology.
// Without a broker, uploads succeed but models stay uncompressed.
func InitRabbitMQ(cfg *config.Config) (*queue.RabbitMQClient, services.CompressionPublisher) {
	rabbit, err := queue.NewRabbitMQClient(cfg)
	if err != nil {
		log.Printf("RabbitMQ unavailable, compression disabled: %v", err)
		return nil, nil
	}
	producer, err := queue.NewCompressionProducer(rabbit.Channel)
	if err != nil {
		log.Printf("Failed to declare compression topology, compression disabled: %v", err)
		rabbit.Close()
		return nil, nil
	}
	return rabbit, producer
}
