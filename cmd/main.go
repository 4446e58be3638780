package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docassist-backend/internal/assistant"
	"docassist-backend/internal/config"
	"docassist-backend/internal/diagram"
	"docassist-backend/internal/handler"
	"docassist-backend/internal/markdown"
	"docassist-backend/internal/service"
	"docassist-backend/internal/storage"
	"docassist-backend/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	store, err := newStorage(cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to init storage: %v", err)
	}
	defer store.Close()

	docs, err := storage.LoadSeedFile(cfg.Documents.SeedFile)
	if err != nil {
		logger.Fatalf("Failed to load documents: %v", err)
	}
	if _, err := storage.Seed(store, docs); err != nil {
		logger.Fatalf("Failed to seed documents: %v", err)
	}

	chatModel, err := assistant.NewChatModel(context.Background(), cfg)
	if err != nil {
		logger.Fatalf("Failed to create chat model: %v", err)
	}
	ai := assistant.New(chatModel, assistant.Options{
		ChatTemperature:   cfg.Assistant.ChatTemperature,
		ReviewTemperature: cfg.Assistant.ReviewTemperature,
	})

	documentService := service.NewDocumentService(store)
	chatService := service.NewChatService(ai, markdown.New(), diagram.NewRenderer(cfg.Diagram.CacheTTL))
	reviewService := service.NewReviewService(ai, cfg.Assistant.MaxDocumentChars)

	handlers := &handler.Handlers{
		Documents: handler.NewDocumentHandler(documentService),
		Chat:      handler.NewChatHandler(chatService),
		Review:    handler.NewReviewHandler(documentService, reviewService),
	}

	router := setupRouter(cfg, handlers)

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Infof("Server listening on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	if err := store.Backup(); err != nil {
		logger.Warnf("Backup on shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}

func newStorage(cfg config.StorageConfig) (storage.Storage, error) {
	var store storage.Storage
	switch cfg.Type {
	case "memory", "":
		store = storage.NewMemoryStorage()
	case "disk":
		store = storage.NewDiskStorage(cfg.DataDir, cfg.CacheSize)
	case "bolt":
		store = storage.NewBoltStorage(cfg.BoltPath)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}

	if err := store.Init(); err != nil {
		return nil, err
	}
	logger.Infof("Using %s storage", cfg.Type)
	return store, nil
}

func setupRouter(cfg *config.Config, handlers *handler.Handlers) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	handlers.Register(router.Group("/api"))

	return router
}
