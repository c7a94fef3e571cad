package database

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"tribehub/internal/config"
	"tribehub/internal/middleware"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

const (
	// SchemaModeAuto checks the append-only manifest, then runs AutoMigrate.
	SchemaModeAuto = "auto"
	// SchemaModeCheck only verifies the manifest; DDL is applied out of band.
	SchemaModeCheck = "check"
	// SchemaModeOff skips schema handling entirely.
	SchemaModeOff = "off"
)

// ColumnManifest describes one persisted column.
type ColumnManifest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TableManifest lists a table's columns in declaration order.
type TableManifest struct {
	Table   string           `json:"table"`
	Columns []ColumnManifest `json:"columns"`
}

//go:embed schema.lock.json
var lockedManifest []byte

// LockedManifest returns the committed schema manifest that deployed data was written against.
func LockedManifest() ([]TableManifest, error) {
	var out []TableManifest
	if err := json.Unmarshal(lockedManifest, &out); err != nil {
		return nil, fmt.Errorf("decode schema.lock.json: %w", err)
	}
	return out, nil
}

// SchemaManifest derives the manifest of every persistent model from its Go declaration.
func SchemaManifest() ([]TableManifest, error) {
	cache := &sync.Map{}
	namer := schema.NamingStrategy{}
	out := make([]TableManifest, 0, len(PersistentModels()))
	for _, model := range PersistentModels() {
		s, err := schema.Parse(model, cache, namer)
		if err != nil {
			return nil, fmt.Errorf("parse %T: %w", model, err)
		}
		tm := TableManifest{Table: s.Table}
		for _, f := range s.Fields {
			if f.DBName == "" {
				continue
			}
			tm.Columns = append(tm.Columns, ColumnManifest{Name: f.DBName, Type: goTypeName(f.FieldType)})
		}
		out = append(out, tm)
	}
	return out, nil
}

func goTypeName(t reflect.Type) string {
	return strings.ReplaceAll(t.String(), "uint8", "byte")
}

// CheckAppendOnly verifies that current only appends to locked: no table dropped,
// and every locked table keeps its columns as an unchanged prefix.
func CheckAppendOnly(locked, current []TableManifest) error {
	byTable := make(map[string]TableManifest, len(current))
	for _, tm := range current {
		byTable[tm.Table] = tm
	}

	var problems []string
	for _, old := range locked {
		cur, ok := byTable[old.Table]
		if !ok {
			problems = append(problems, fmt.Sprintf("table %s was removed", old.Table))
			continue
		}
		for i, col := range old.Columns {
			if i >= len(cur.Columns) {
				problems = append(problems, fmt.Sprintf("%s.%s was removed", old.Table, col.Name))
				continue
			}
			if cur.Columns[i] != col {
				problems = append(problems, fmt.Sprintf("%s column %d changed from %s %s to %s %s",
					old.Table, i, col.Name, col.Type, cur.Columns[i].Name, cur.Columns[i].Type))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("schema is not append-only: %s", strings.Join(problems, "; "))
	}
	return nil
}

// VerifySchema checks the current models against the committed lock file.
func VerifySchema() error {
	locked, err := LockedManifest()
	if err != nil {
		return err
	}
	current, err := SchemaManifest()
	if err != nil {
		return err
	}
	return CheckAppendOnly(locked, current)
}

func normalizedSchemaMode(cfg *config.Config) string {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		return SchemaModeAuto
	}
	return mode
}

func runAutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema enforces the append-only layout and migrates according to DB_SCHEMA_MODE.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	mode := normalizedSchemaMode(cfg)
	switch mode {
	case SchemaModeOff:
		return nil
	case SchemaModeAuto, SchemaModeCheck:
	default:
		return fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}

	if err := VerifySchema(); err != nil {
		return err
	}
	if mode == SchemaModeCheck {
		return nil
	}

	middleware.Logger.InfoContext(ctx, "Running GORM AutoMigrate", slog.String("mode", mode), slog.String("env", cfg.Env))
	if err := runAutoMigrate(db.WithContext(ctx)); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// SchemaStatus summarizes what ApplySchema would do.
type SchemaStatus struct {
	Mode          string
	Environment   string
	Tables        int
	MissingTables []string
	AppendOnly    error
}

// GetSchemaStatus reports the manifest check result and tables not yet created.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	current, err := SchemaManifest()
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{
		Mode:        normalizedSchemaMode(cfg),
		Environment: cfg.Env,
		Tables:      len(current),
		AppendOnly:  VerifySchema(),
	}
	migrator := db.WithContext(ctx).Migrator()
	for _, tm := range current {
		if !migrator.HasTable(tm.Table) {
			status.MissingTables = append(status.MissingTables, tm.Table)
		}
	}
	return status, nil
}
