package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Abdou-Mdn/LinkUp-sub001/internal/cache"
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/handlers"
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/handlers/ws"
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/middleware"
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/repository"
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/service"
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	app := fiber.New(fiber.Config{
		AppName: "LinkUp Backend",
		// Support image uploads up to 8MB + overhead.
		BodyLimit: 10 * 1024 * 1024,
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("ALLOWED_ORIGINS"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PATCH, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// Database
	db, err := repository.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Redis cache (best-effort; the app runs without it)
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsedDB, err := strconv.Atoi(dbStr); err == nil {
			redisDB = parsedDB
		}
	}

	redisCache := cache.NewRedisCache(redisAddr, redisPassword, redisDB)
	if err := redisCache.Ping(); err != nil {
		log.Printf("WARNING: Redis connection failed: %v. Running without cache.", err)
		redisCache = nil
	} else {
		log.Println("Redis cache connected successfully")
	}

	userCache := cache.NewUserCache(redisCache)
	chatCache := cache.NewChatCache(redisCache)

	// Repositories
	seqRepo := repository.NewSequenceRepository(db)
	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendshipRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	chatRepo := repository.NewChatRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	txManager := repository.NewGormTxManager(db)

	// S3/MinIO storage (best-effort; image endpoints fail with 502 if missing)
	var uploader service.Uploader
	if cfg, err := storage.LoadS3ConfigFromEnv(); err != nil {
		log.Printf("WARNING: S3 storage not configured: %v", err)
	} else if st, err := storage.NewS3Storage(cfg); err != nil {
		log.Printf("WARNING: Failed to initialize S3 storage: %v", err)
	} else {
		uploader = storage.NewImageUploader(st, cfg.PublicBase)
		log.Printf("S3 storage initialized successfully (bucket=%s)", cfg.Bucket)
	}

	// The hub doubles as the broadcaster for everything the services push.
	hub := ws.NewHub()

	// Services
	authService := service.NewAuthService(userRepo, seqRepo, txManager)
	chatService := service.NewChatService(chatRepo, userRepo, seqRepo, txManager, chatCache)
	messageService := service.NewMessageService(messageRepo, chatRepo, groupRepo, seqRepo, txManager, chatService, hub, uploader, chatCache)
	groupService := service.NewGroupService(groupRepo, chatRepo, userRepo, seqRepo, txManager, messageService, chatCache)
	userService := service.NewUserService(userRepo, friendRepo, chatRepo, messageRepo, txManager, chatCache)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	chatHandler := handlers.NewChatHandler(chatService)
	messageHandler := handlers.NewMessageHandler(messageService)
	groupHandler := handlers.NewGroupHandler(groupService, uploader)
	wsHandler := handlers.NewWebSocketHandler(hub, chatService, messageService, userService, userCache)

	// Public routes
	api := app.Group("/api")
	auth := api.Group("/auth", limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/logout", authHandler.Logout)

	// Protected routes
	protected := api.Group("/", middleware.AuthRequired())
	protected.Get("/users/me", userHandler.GetCurrentUser)
	protected.Delete("/users/me", userHandler.DeleteAccount)
	protected.Get("/users/friends", userHandler.ListFriends)
	protected.Get("/users/friend-requests", userHandler.ListFriendRequests)
	protected.Get("/users/:id", userHandler.GetUser)
	protected.Post("/users/:id/friend-request", userHandler.SendFriendRequest)
	protected.Post("/users/:id/friend-request/accept", userHandler.AcceptFriendRequest)
	protected.Post("/users/:id/friend-request/decline", userHandler.DeclineFriendRequest)
	protected.Delete("/users/:id/friend-request", userHandler.CancelFriendRequest)
	protected.Delete("/users/:id/friend", userHandler.RemoveFriend)

	protected.Get("/chats", chatHandler.ListChats)
	protected.Post("/chats/private", chatHandler.ResolvePrivateChat)
	protected.Get("/chats/:id", chatHandler.GetChat)
	protected.Get("/chats/:id/messages", messageHandler.GetMessages)
	protected.Post("/chats/:id/seen", messageHandler.MarkSeen)

	protected.Post("/messages", messageHandler.SendMessage)
	protected.Patch("/messages/:id", messageHandler.EditMessage)
	protected.Delete("/messages/:id", messageHandler.DeleteMessage)

	protected.Post("/groups", groupHandler.CreateGroup)
	protected.Get("/groups/:id", groupHandler.GetGroup)
	protected.Patch("/groups/:id", groupHandler.UpdateGroup)
	protected.Delete("/groups/:id", groupHandler.DeleteGroup)
	protected.Post("/groups/:id/members", groupHandler.AddMembers)
	protected.Delete("/groups/:id/members/:userID", groupHandler.RemoveMember)
	protected.Post("/groups/:id/leave", groupHandler.Leave)
	protected.Post("/groups/:id/admins/:userID", groupHandler.PromoteAdmin)
	protected.Delete("/groups/:id/admins/:userID", groupHandler.DemoteAdmin)
	protected.Post("/groups/:id/join", groupHandler.SendJoinRequest)
	protected.Delete("/groups/:id/join", groupHandler.CancelJoinRequest)
	protected.Post("/groups/:id/requests/:userID/accept", groupHandler.AcceptJoinRequest)
	protected.Post("/groups/:id/requests/:userID/decline", groupHandler.DeclineJoinRequest)

	// WebSocket route (websocket upgrade needs special handling)
	app.Use(
		"/ws",
		middleware.AuthRequired(),
		func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		},
	)
	app.Get("/ws", websocket.New(wsHandler.HandleWebSocket))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"online": hub.Count(),
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Server starting on port %s...", port)
		return app.Listen(":" + port)
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Println("Shutting down...")
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("Server stopped:", err)
	}
}
