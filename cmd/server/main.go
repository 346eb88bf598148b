package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/fediplan/configs"
	"github.com/maheshrc27/fediplan/internal/api/handlers"
	"github.com/maheshrc27/fediplan/internal/api/middleware"
	job "github.com/maheshrc27/fediplan/internal/jobs"
	"github.com/maheshrc27/fediplan/internal/queue"
	"github.com/maheshrc27/fediplan/internal/repository"
	"github.com/maheshrc27/fediplan/internal/service"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	accountRepo := repository.NewFediAccountRepository(db)
	postRepo := repository.NewScheduledPostRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)
	settingsRepository := repository.NewSettingsRepository(db)
	apiKeyRepository := repository.NewApiKeyRepository(db)

	r2Service, err := service.NewR2Service(*cfg)
	if err != nil {
		log.Fatalf("Failed to create R2 client: %v", err)
	}

	authService := service.NewAuthService(*cfg, userRepo)
	accountService := service.NewAccountService(*cfg, accountRepo)
	scheduleService := service.NewScheduleService(accountService, postRepo)
	composeService := service.NewComposeService(accountService, mediaAssetRepo, r2Service)
	userService := service.NewUserService(userRepo, accountRepo, composeService)
	settingsService := service.NewSettingsService(settingsRepository)
	apiKeyService := service.NewApiKeyService(apiKeyRepository)

	authMiddleware := middleware.NewAuthMiddleware(*cfg, apiKeyService)

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)

	account := handlers.NewAccountHandler(*cfg, accountService)
	app.Get("/auth/fediverse/callback", account.CallbackHandler)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	api.Get("/auth/fediverse", account.AddAccount)
	api.Get("/accounts", account.ListAccounts)
	api.Post("/accounts/remove", account.DeleteAccount)

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)
	api.Post("/user/remove", user.RemoveUser)

	settings := handlers.NewSettingsHandler(settingsService)
	api.Get("/settings/info", settings.GetSettingsInfo)
	api.Post("/settings/update", settings.UpdateSettings)

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Post("/api_key/remove", apiKeys.RemoveAPIKey)

	session := handlers.NewSessionHandler(composeService, client)
	api.Post("/sessions", session.CreateSession)
	api.Post("/sessions/:id/media", session.UploadMedia)
	api.Get("/sessions/:id/state", session.GetState)
	api.Delete("/sessions/:id/media", session.RemoveMedia)
	api.Put("/sessions/:id/media/description", session.UpdateDescription)

	post := handlers.NewPostHandler(scheduleService)
	api.Post("/posts/create", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/edit", post.EditPost)
	api.Post("/posts/remove", post.RemovePost)

	// cron jobs
	cacheRefreshJob := job.NewCacheRefreshJob(accountRepo, scheduleService)

	//queue
	queueW := queue.NewQueue(composeService)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", cacheRefreshJob.RefreshCaches)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeExpireSession, queueW.HandleExpireSessionTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
