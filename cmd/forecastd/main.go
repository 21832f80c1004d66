/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the forecasting engine's demo HTTP server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Optionally seed demo fixtures
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port     HTTP server port (default: 8080)
  -db       SQLite database path (default: forecast.db)
            Use ":memory:" for an in-memory database
  -fixture  Optional path to a fixtures JSON file to seed on startup

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./forecastd -db="./data/forecast.db"

  # Run with in-memory database seeded from a fixture
  ./forecastd -db=":memory:" -fixture="fixtures/testdata/household.json"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
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
	"syscall"
	"time"

	"github.com/warp/resource-engine/api"
	"github.com/warp/resource-engine/fixtures"
	"github.com/warp/resource-engine/store/sqlite"
)

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "forecast.db", "SQLite database path")
	fixturePath := flag.String("fixture", "", "optional fixtures JSON file to seed on startup")
	flag.Parse()

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close()

	if *fixturePath != "" {
		bundle, err := fixtures.LoadFile(*fixturePath)
		if err != nil {
			log.Fatalf("failed to load fixture %q: %v", *fixturePath, err)
		}
		if err := seedStore(context.Background(), db, bundle); err != nil {
			log.Fatalf("failed to seed fixture %q: %v", *fixturePath, err)
		}
		log.Printf("seeded %d accounts from %s", len(bundle.Accounts), *fixturePath)
	}

	handler := api.NewHandler(db)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("forecastd listening on http://localhost:%d", *port)
		log.Printf("api available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server stopped")
}

// seedStore persists a fixture bundle through the sqlite store's own
// Save* methods rather than memory.Store.Seed (which only the in-process
// store exposes), so -fixture works the same whether -db is a file or
// ":memory:".
func seedStore(ctx context.Context, db *sqlite.Store, bundle fixtures.Bundle) error {
	if err := db.SaveAccounts(ctx, bundle.Accounts); err != nil {
		return fmt.Errorf("accounts: %w", err)
	}
	if err := db.SaveSchedules(ctx, bundle.Schedules); err != nil {
		return fmt.Errorf("schedules: %w", err)
	}
	if err := db.SaveIncomes(ctx, bundle.Incomes); err != nil {
		return fmt.Errorf("incomes: %w", err)
	}
	if err := db.SaveOneOffs(ctx, bundle.OneOffs); err != nil {
		return fmt.Errorf("one-offs: %w", err)
	}
	for _, m := range bundle.ManualStates {
		if err := db.SaveManualState(ctx, m); err != nil {
			return fmt.Errorf("manual state %s: %w", m.ID, err)
		}
	}
	if err := db.SaveTags(ctx, bundle.Tags); err != nil {
		return fmt.Errorf("tags: %w", err)
	}
	if err := db.SaveScenarios(ctx, bundle.Scenarios); err != nil {
		return fmt.Errorf("scenarios: %w", err)
	}
	return nil
}
