// Command poolctl prints operational reports and runs one-off admin tasks against the
// portal database.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/vaidashi/pool-dealer-portal/internal/api"
	"github.com/vaidashi/pool-dealer-portal/internal/config"
	"github.com/vaidashi/pool-dealer-portal/internal/database"
	"github.com/vaidashi/pool-dealer-portal/internal/session"
	"github.com/vaidashi/pool-dealer-portal/internal/storage"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Reports go to stdout; only warnings and errors reach the log.
	l := logger.NewLogger("warn")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg, l)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	store, err := storage.New(cfg.Storage, l)
	if err != nil {
		log.Fatalf("Failed to configure storage: %v", err)
	}

	svc := api.BuildServices(db, store, session.NewMemoryStore(cfg.Auth.SessionTTL), l)

	if err := run(ctx, svc, os.Stdout, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "poolctl:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: poolctl <command> [flags]

commands:
  stock                         pool stock per factory and status
  low-stock                     inventory items below their minimum
  dealer-metrics -dealer ID     order counts of one dealer
  bootstrap-admin -email E -password P
                                create the first superadmin
  outbox                        outbox messages per status
  outbox-requeue                retry failed outbox messages`)
}
