package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"parkhub/internal/catalog"
	"parkhub/internal/config"
	"parkhub/internal/database"
	"parkhub/internal/export"
	"parkhub/internal/logging"
)

// Offline report generator: reads the booking ledger and writes an xlsx
// summary without touching the running API server.
func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	outDir := flag.String("out", "", "output directory (defaults to exports.path)")
	flag.Parse()

	if env := os.Getenv("CONFIG_PATH"); env != "" && *configPath == "configs/config.yaml" {
		*configPath = env
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer closer.Close()
	}
	logger := baseLogger.With().Str("component", "report").Logger()

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	bookings, err := db.ListBookings(ctx)
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}

	static, err := catalog.NewStatic(cfg.Spots)
	if err != nil {
		return fmt.Errorf("load spots: %w", err)
	}
	spots, err := static.ListSpots(ctx)
	if err != nil {
		return fmt.Errorf("list spots: %w", err)
	}

	dir := *outDir
	if dir == "" {
		dir = cfg.Exports.Path
	}
	if dir == "" {
		dir = "exports"
	}

	path, err := export.WriteReport(dir, bookings, spots, &logger)
	if err != nil {
		return err
	}

	fmt.Println(path)
	return nil
}
