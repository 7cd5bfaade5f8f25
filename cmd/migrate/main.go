package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/polymorphisma/userhub/internal/config"
	"github.com/polymorphisma/userhub/internal/migrations"
)

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		// Fall back to the service configuration
		cfg, err := config.LoadConfig(configPath())
		if err != nil {
			log.Fatal("failed to load config", zap.Error(err))
		}
		dbURL = cfg.DB.URL()
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		log.Fatal("failed to create migration driver", zap.Error(err))
	}

	runner, err := migrations.NewWithDriver(migrations.Embedded(), "", driver, log)
	if err != nil {
		log.Fatal("failed to create migration runner", zap.Error(err))
	}
	defer func() { _ = runner.Close() }()

	switch cmd := args[0]; cmd {
	case "up":
		if err := runner.Up(); err != nil {
			log.Fatal("up failed", zap.Error(err))
		}

	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				log.Fatal("invalid steps argument", zap.String("arg", args[1]))
			}
			steps = n
		}
		if err := runner.Down(steps); err != nil {
			log.Fatal("down failed", zap.Error(err))
		}
		log.Info("rollback completed", zap.Int("steps", steps))

	case "version":
		v, dirty, err := runner.Version()
		if err != nil {
			log.Fatal("version failed", zap.Error(err))
		}
		fmt.Printf("version: %d  dirty: %v\n", v, dirty)

	case "goto":
		if len(args) < 2 {
			log.Fatal("goto: version argument required")
		}
		v, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			log.Fatal("invalid version", zap.String("arg", args[1]))
		}
		if err := runner.Migrate(uint(v)); err != nil {
			log.Fatal("goto failed", zap.Error(err))
		}
		log.Info("migrated to version", zap.Uint64("version", v))

	case "force":
		if len(args) < 2 {
			log.Fatal("force: version argument required")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("invalid version", zap.String("arg", args[1]))
		}
		if err := runner.Force(v); err != nil {
			log.Fatal("force failed", zap.Error(err))
		}
		log.Info("forced version", zap.Int("version", v))

	default:
		usage()
		os.Exit(1)
	}
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "."
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate <command> [args]

Commands:
  up           Apply all pending migrations
  down [N]     Rollback N migrations (default: 1)
  version      Print current migration version
  goto <V>     Migrate to a specific version (up or down)
  force <V>    Set the version without running migrations (recovery)

Environment:
  DATABASE_URL   PostgreSQL connection URL (falls back to app.env)
  CONFIG_PATH    Directory containing app.env (default: .)`)
}
