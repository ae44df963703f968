package api

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/worrakit/vision_service/config"
	"github.com/worrakit/vision_service/infra/queue"
	"github.com/worrakit/vision_service/internal/api/rest/handlers"
	"github.com/worrakit/vision_service/internal/clients/gemini"
	"github.com/worrakit/vision_service/internal/clients/vision"
	"github.com/worrakit/vision_service/internal/domain"
	"github.com/worrakit/vision_service/internal/helper"
	"github.com/worrakit/vision_service/internal/repository"
	"github.com/worrakit/vision_service/internal/services"
	"github.com/worrakit/vision_service/pkg/cloudinary"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func StartServer(cfg config.Config) {
	app := fiber.New()

	// ---------- CORS ----------
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.BaseURL,
		AllowHeaders:     "Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// ---------- DB ----------
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseDSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("database connection error: %v", err)
	}
	log.Println("database connected")

	// ---------- MIGRATION (guarded by advisory lock) ----------
	const migrateLockID int64 = 20260901

	if err := db.Exec("SELECT pg_advisory_lock(?)", migrateLockID).Error; err != nil {
		log.Fatalf("migration lock error: %v", err)
	}
	defer func() {
		_ = db.Exec("SELECT pg_advisory_unlock(?)", migrateLockID).Error
	}()

	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Detection{},
	); err != nil {
		log.Fatalf("migration error: %v", err)
	}
	log.Println("migration successful")

	// ---------- Infra ----------
	kafkaProducer := queue.NewProducer(
		cfg.KafkaBroker,
		cfg.KafkaTopic,
		cfg.KafkaUsername,
		cfg.KafkaPassword,
	)
	cld, err := cloudinary.New()
	if err != nil {
		log.Fatalf("cloudinary init error: %v", err)
	}
	up := cloudinary.NewCloudinaryUploader(cld)

	visionClient, err := vision.New(context.Background(), cfg.GoogleCredentials)
	if err != nil {
		log.Fatalf("vision init error: %v", err)
	}
	geminiClient := gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)

	authHelper := helper.SetupAuth(cfg.AccessSecret)

	// ---------- Repositories ----------
	userRepo := repository.NewUserRepository(db)
	detectionRepo := repository.NewDetectionRepository(db)

	// ---------- Services ----------
	userSvc := services.NewUserService(userRepo, kafkaProducer, authHelper)
	detectSvc := services.NewDetectService(visionClient, geminiClient, up, detectionRepo)

	// ---------- Handlers ----------
	userHandler := handlers.NewUserHandler(userSvc, authHelper)
	userHandler.SetupRoutes(app)

	detectHandler := handlers.NewDetectHandler(detectSvc)
	detectHandler.SetupRoutes(app)

	// ---------- Health ----------
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// ---------- Listen ----------
	addr := cfg.ServerPort
	log.Println("listening on", addr)
	log.Fatal(app.Listen(addr))
}
