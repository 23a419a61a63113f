package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"dotfile/internal/auth"
	"dotfile/internal/config"
	"dotfile/internal/filetypes"
	"dotfile/internal/handler"
	"dotfile/internal/middleware"
	"dotfile/internal/repository/postgres"
	postgresVFS "dotfile/internal/repository/postgres/vfs"
	serviceVFS "dotfile/internal/service/vfs"
	"dotfile/internal/storage"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOutput io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, cfg.MaxLogFiles)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier
	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Create repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	folderRepo := postgresVFS.NewFolderRepository(repoConfig)
	fileRepo := postgresVFS.NewFileRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Byte storage for permanent file deletes
	blobStore, err := storage.NewDiskStorage(cfg.StorageDir)
	if err != nil {
		log.Fatalf("Failed to set up byte storage: %v", err)
	}

	// Extension to category registry (embedded YAML)
	typeRegistry, err := filetypes.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize filetype registry: %v", err)
	}

	// Hierarchy components
	resolver := serviceVFS.NewNameResolver(folderRepo, fileRepo)
	paths := serviceVFS.NewPathMaterializer(folderRepo, fileRepo, logger)
	counts := serviceVFS.NewCountTracker(folderRepo)
	validator := serviceVFS.NewResourceValidator(folderRepo)
	trashEngine := serviceVFS.NewTrashEngine(folderRepo, fileRepo, counts, resolver, paths, validator, txManager, blobStore, logger)
	hierarchyService := serviceVFS.NewHierarchyService(
		folderRepo,
		fileRepo,
		resolver,
		paths,
		counts,
		validator,
		trashEngine,
		txManager,
		serviceVFS.NewOwnerOnlyPermissions(),
		typeRegistry,
		logger,
	)

	// Create handlers
	hierarchyHandler := handler.NewHierarchyHandler(hierarchyService, logger)
	trashHandler := handler.NewTrashHandler(trashEngine, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", handler.HealthCheck)

	// Listing
	mux.HandleFunc("GET /api/children", hierarchyHandler.ListChildren)

	// Folder routes
	mux.HandleFunc("POST /api/folders", hierarchyHandler.CreateFolder)
	mux.HandleFunc("GET /api/folders/{id}", hierarchyHandler.GetFolder)
	mux.HandleFunc("PATCH /api/folders/{id}", hierarchyHandler.PatchFolder)
	mux.HandleFunc("DELETE /api/folders/{id}", trashHandler.DeleteFolder)
	mux.HandleFunc("POST /api/folders/{id}/restore", trashHandler.RestoreFolder)
	mux.HandleFunc("DELETE /api/folders/{id}/permanent", trashHandler.PurgeFolder)

	// File routes
	mux.HandleFunc("POST /api/files", hierarchyHandler.CreateFile)
	mux.HandleFunc("GET /api/files/{id}", hierarchyHandler.GetFile)
	mux.HandleFunc("PATCH /api/files/{id}", hierarchyHandler.PatchFile)
	mux.HandleFunc("DELETE /api/files/{id}", trashHandler.DeleteFile)
	mux.HandleFunc("POST /api/files/{id}/restore", trashHandler.RestoreFile)
	mux.HandleFunc("DELETE /api/files/{id}/permanent", trashHandler.PurgeFile)

	// Trash routes
	mux.HandleFunc("GET /api/trash", trashHandler.ListTrash)
	mux.HandleFunc("DELETE /api/trash", trashHandler.EmptyTrash)

	// Build middleware chain
	var httpHandler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS -> Recovery -> Auth -> Routes
	httpHandler = middleware.Auth(jwtVerifier, logger)(httpHandler)
	httpHandler = middleware.Recovery(logger)(httpHandler)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
