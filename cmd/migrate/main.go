// Command migrate runs schema operations for the ledger database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"tribehub/internal/config"
	"tribehub/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <auto|check|status|lock>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0)))
	if cmd == "lock" {
		// Prints the manifest of the current models; commit it as schema.lock.json.
		manifest, err := database.SchemaManifest()
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(manifest)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx := context.Background()
	switch cmd {
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		log.Println("automigrations applied")
	case "check":
		if err := database.VerifySchema(); err != nil {
			return err
		}
		log.Println("schema is an append-only extension of the lock file")
	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		appendOnly := "ok"
		if status.AppendOnly != nil {
			appendOnly = status.AppendOnly.Error()
		}
		log.Printf("mode=%s env=%s tables=%d missing=%d append_only=%s",
			status.Mode, status.Environment, status.Tables, len(status.MissingTables), appendOnly)
		for _, t := range status.MissingTables {
			log.Printf("missing: %s", t)
		}
	default:
		return usage()
	}

	return nil
}
