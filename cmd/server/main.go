/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the envelope budgeting server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse flags
  2. Initialize the store backend (memory or sqlite)
  3. Create the coordinator and API handler
  4. Configure the HTTP router
  5. Start the server with graceful shutdown

CONFIGURATION:
  Flags override environment variables.

  -addr / ADDR             Listen address (default :8080; PORT also
                           honored for platform deployments)
  -db-backend / DB_BACKEND "memory" or "sqlite" (default sqlite)
  -db / DB_PATH            SQLite database path (default envelope.db,
                           ":memory:" for in-memory SQLite)
  CORS_ORIGINS             Comma-separated allowed origins
  SEED_ENABLED             "true" enables /api/seed and /api/reset

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/envelope.db"

  # Run fully in memory
  ./server -db-backend=memory

  # Run on a different port
  ./server -addr=:3000

SEE ALSO:
  - api/server.go: Router configuration
  - ledger/coordinator.go: Business logic
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/warp/envelope-engine/api"
	"github.com/warp/envelope-engine/ledger"
	memstore "github.com/warp/envelope-engine/ledger/store"
	"github.com/warp/envelope-engine/store/sqlite"
)

func main() {
	// .env is optional; real env vars win over file entries.
	_ = godotenv.Load()

	addr := flag.String("addr", envOr("ADDR", defaultAddr()), "HTTP listen address")
	backend := flag.String("db-backend", envOr("DB_BACKEND", "sqlite"), "store backend: memory or sqlite")
	dbPath := flag.String("db", envOr("DB_PATH", "envelope.db"), "SQLite database path")
	flag.Parse()

	coordinator, resetter, cleanup, err := buildStores(*backend, *dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer cleanup()

	handler := api.NewHandler(coordinator)
	if strings.EqualFold(os.Getenv("SEED_ENABLED"), "true") {
		handler.Resetter = resetter
	}

	router := api.NewRouter(handler, corsOrigins())

	server := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s (backend: %s)", *addr, *backend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// buildStores wires the coordinator onto the selected backend.
func buildStores(backend, dbPath string) (*ledger.Coordinator, api.Resetter, func(), error) {
	switch backend {
	case "memory":
		mem := memstore.NewMemory()
		c := ledger.NewCoordinator(mem.Pockets, mem.Budgets, mem.Expenses, mem.Rules)
		return c, mem, func() {}, nil

	case "sqlite":
		db, err := sqlite.Open(dbPath)
		if err != nil {
			return nil, nil, nil, err
		}
		c := ledger.NewCoordinator(db.Pockets, db.Budgets, db.Expenses, db.Rules)
		cleanup := func() {
			if err := db.Close(); err != nil {
				log.Printf("Warning: closing database: %v", err)
			}
		}
		return c, db, cleanup, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown db backend %q (want memory or sqlite)", backend)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// defaultAddr honors PORT so the server runs unmodified on platforms
// that inject it.
func defaultAddr() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8080"
}

func corsOrigins() []string {
	raw := os.Getenv("CORS_ORIGINS")
	if raw == "" {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
