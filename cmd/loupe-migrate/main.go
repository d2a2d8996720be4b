// loupe-migrate applies the document store schema. It supports both
// PostgreSQL and SQLite so a local setup needs no database server.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/loupe-search/loupe/internal/config"
	"github.com/loupe-search/loupe/internal/db"
)

const usage = `loupe-migrate applies the Loupe database schema.

Usage:
  loupe-migrate -driver=postgres -dsn="host=localhost user=loupe dbname=loupe"
  loupe-migrate -driver=sqlite -dsn=".loupe/loupe.db"
  loupe-migrate -config=config.yaml

Flags:
`

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}

	driver := flag.String("driver", "", `Database driver: "postgres" or "sqlite"`)
	dsn := flag.String("dsn", "", "Connection string (postgres DSN or sqlite file path)")
	configPath := flag.String("config", "", "Path to configuration file (used when -driver is unset)")
	flag.Parse()

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "loupe-migrate",
		Level: hclog.Info,
	})

	dbCfg, err := resolveDatabase(*driver, *dsn, *configPath)
	if err != nil {
		logger.Error("invalid arguments", "error", err)
		flag.Usage()
		os.Exit(1)
	}

	logger.Info("applying schema", "driver", dbCfg.Driver)
	if _, err := db.Migrate(dbCfg); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}
	logger.Info("schema up to date")
}

// resolveDatabase takes the connection settings from flags when given,
// otherwise from the config file.
func resolveDatabase(driver, dsn, configPath string) (config.Database, error) {
	if driver != "" {
		return config.Database{Driver: driver, DSN: dsn}, nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Database{}, err
	}
	return cfg.Database, nil
}
