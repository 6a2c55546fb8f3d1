// Package main is the entry point for the Faculty Files database migration tool.
// This tool applies the embedded schema migrations for PostgreSQL or SQLite.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prn-tf/faculty-files/internal/config"
	"github.com/prn-tf/faculty-files/internal/logging"
	"github.com/prn-tf/faculty-files/internal/repository/database"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	var err error
	switch command {
	case "version":
		fmt.Printf("Faculty Files Migration Tool\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "up":
		err = withDatabase(func(ctx context.Context, db database.Database) error {
			if err := db.Migrate(ctx); err != nil {
				return err
			}
			fmt.Println("Migrations applied")
			return nil
		})

	case "status":
		err = withDatabase(func(ctx context.Context, db database.Database) error {
			status, err := db.MigrationStatus(ctx)
			if err != nil {
				return err
			}
			for _, s := range status {
				state := "pending"
				if s.Applied {
					state = "applied"
				}
				fmt.Printf("%-32s %s\n", s.Version, state)
			}
			return nil
		})

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func withDatabase(fn func(ctx context.Context, db database.Database) error) error {
	cfg, err := config.Load(os.Getenv("FACULTY_CONFIG"))
	if err != nil {
		return err
	}

	cfg.Logging.Output = "stderr"
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}

	ctx := context.Background()
	res, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer res.Database.Close()

	logger.Info().Str("driver", res.Driver).Msg("database opened")
	return fn(ctx, res.Database)
}

func printUsage() {
	fmt.Println(`Faculty Files Migration Tool

Usage:
  faculty-migrate <command>

Commands:
  up          Run all pending migrations
  status      Show current migration status
  version     Print version information
  help        Show this help message

Environment Variables:
  FACULTY_CONFIG              Path to the configuration file
  FACULTY_DATABASE_DRIVER     postgres or sqlite
  FACULTY_DATABASE_PATH       SQLite database file
  FACULTY_DATABASE_HOST       PostgreSQL host (plus _PORT, _USER, _PASSWORD, _DATABASE)

Examples:
  faculty-migrate up
  faculty-migrate status

Migrations are embedded in the binary; rollbacks are applied by hand.`)
}
