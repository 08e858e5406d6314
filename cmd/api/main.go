package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/money-mngr/internal/api/handlers"
	"github.com/dvloznov/money-mngr/internal/api/middleware"
	"github.com/dvloznov/money-mngr/internal/backup"
	"github.com/dvloznov/money-mngr/internal/config"
	"github.com/dvloznov/money-mngr/internal/jobs"
	jobsmem "github.com/dvloznov/money-mngr/internal/jobs/inmemory"
	"github.com/dvloznov/money-mngr/internal/ledger"
	"github.com/dvloznov/money-mngr/internal/logger"
	"github.com/dvloznov/money-mngr/internal/magicbox"
	"github.com/dvloznov/money-mngr/internal/store"
)

// defaultUserID identifies the device owner. Single-user product; every
// record is tagged with it so a future multi-user backend can partition.
const defaultUserID = "local"

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("Failed to open database")
	}

	if err := store.SeedDefaults(ctx, db, defaultUserID); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed default data")
	}

	applier := ledger.NewApplier(db, log)

	// The oracle is optional: without an API key the magic box still parses
	// locally and manual entry works.
	var oracle magicbox.Oracle
	if os.Getenv("GEMINI_API_KEY") != "" {
		g, err := magicbox.NewGeminiOracle(ctx, cfg.GeminiModel)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create extraction oracle")
		}
		oracle = g
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set - oracle suggestions disabled")
	}

	orch := magicbox.NewOrchestrator(magicbox.NewMatcher(), oracle, log)

	// Backup infrastructure. Jobs run even without a bucket so the API
	// surface stays stable; they just fail fast with a clear error.
	jobStore := jobsmem.NewStore()
	jobQueue := jobsmem.NewQueue(100, jobStore)

	var blobs backup.BlobStore
	if cfg.BackupBucket != "" {
		blobs = backup.NewGCSBlobStore(cfg.BackupBucket)
	} else {
		log.Warn().Msg("BACKUP_BUCKET not set - cloud backup disabled")
	}
	backupSvc := backup.NewService(db, blobs, log)

	jobHandler := func(ctx context.Context, job *jobs.BackupJob) error {
		if blobs == nil {
			return fmt.Errorf("no backup bucket configured")
		}
		switch job.Kind {
		case jobs.JobKindBackup:
			object, err := backupSvc.Run(ctx)
			if err != nil {
				return err
			}
			job.Object = object
			return nil
		case jobs.JobKindRestore:
			return backupSvc.Restore(ctx, job.Object)
		default:
			return fmt.Errorf("unknown job kind %q", job.Kind)
		}
	}

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	go func() {
		log.Info().Msg("Starting backup worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Backup worker stopped with error")
		}
	}()

	// Handlers.
	accountsHandler := handlers.NewAccountsHandler(db, applier, defaultUserID, log)
	categoriesHandler := handlers.NewCategoriesHandler(db, defaultUserID, log)
	transactionsHandler := handlers.NewTransactionsHandler(db, applier, defaultUserID, cfg.Currency, log)
	magicBoxHandler := handlers.NewMagicBoxHandler(orch, db, applier, defaultUserID, cfg.Currency, log,
		magicbox.WithTick(cfg.CountdownTick),
		magicbox.WithTicks(cfg.CountdownTicks),
	)
	backupHandler := handlers.NewBackupHandler(jobQueue, jobStore, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/accounts", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			accountsHandler.List(w, r)
		case http.MethodPost:
			accountsHandler.Create(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/accounts/reconcile", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			accountsHandler.Reconcile(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			categoriesHandler.List(w, r)
		case http.MethodPost:
			categoriesHandler.Create(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			transactionsHandler.List(w, r)
		case http.MethodPost:
			transactionsHandler.Create(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		rest := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
		switch {
		case strings.HasSuffix(rest, "/confirm"):
			transactionsHandler.Confirm(w, r, strings.TrimSuffix(rest, "/confirm"))
		case strings.HasSuffix(rest, "/reject"):
			transactionsHandler.Reject(w, r, strings.TrimSuffix(rest, "/reject"))
		default:
			middleware.WriteError(w, http.StatusNotFound, "Not found")
		}
	})

	mux.HandleFunc("/api/magicbox", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			magicBoxHandler.Status(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	magicBoxActions := map[string]http.HandlerFunc{
		"/api/magicbox/parse":   magicBoxHandler.Parse,
		"/api/magicbox/suggest": magicBoxHandler.Suggest,
		"/api/magicbox/hold":    magicBoxHandler.Hold,
		"/api/magicbox/approve": magicBoxHandler.Approve,
		"/api/magicbox/reset":   magicBoxHandler.Reset,
	}
	for path, fn := range magicBoxActions {
		handler := fn
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				handler(w, r)
			} else {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		})
	}

	mux.HandleFunc("/api/backup", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			backupHandler.Run(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/backup/restore", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			backupHandler.Restore(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/backup/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			backupHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/backup/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/backup/jobs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		backupHandler.GetJob(w, r, jobID)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.Auth(mux),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
