package database

import (
	"context"
	"testing"

	"tribehub/internal/config"
	modelspkg "tribehub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesLedgerTables(t *testing.T) {
	t.Parallel()

	var head, events, sigs bool
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *modelspkg.LedgerHead:
			head = true
		case *modelspkg.Event:
			events = true
		case *modelspkg.UsedSignature:
			sigs = true
		}
	}
	assert.True(t, head, "PersistentModels should include LedgerHead")
	assert.True(t, events, "PersistentModels should include Event")
	assert.True(t, sigs, "PersistentModels should include UsedSignature")
}

func TestSchemaManifest_RoleDelegationTable(t *testing.T) {
	t.Parallel()

	manifest, err := SchemaManifest()
	require.NoError(t, err)
	tables := make(map[string]bool, len(manifest))
	for _, tm := range manifest {
		tables[tm.Table] = true
	}
	assert.True(t, tables["role_admins"], "role delegations keep their locked table name")
	assert.Equal(t, "role_admins", modelspkg.RoleAdminGrant{}.TableName())
	assert.True(t, modelspkg.RoleAdmin.Valid())
}

func TestSchemaIsAppendOnlyAgainstLockFile(t *testing.T) {
	t.Parallel()
	require.NoError(t, VerifySchema())
}

func TestSchemaManifestEndsWithSchemaVersion(t *testing.T) {
	t.Parallel()

	manifest, err := SchemaManifest()
	require.NoError(t, err)
	require.Len(t, manifest, len(PersistentModels()))
	for _, tm := range manifest {
		require.NotEmpty(t, tm.Columns, tm.Table)
		last := tm.Columns[len(tm.Columns)-1]
		assert.Equal(t, "schema_version", last.Name, "table %s", tm.Table)
	}
}

func TestCheckAppendOnly(t *testing.T) {
	t.Parallel()

	locked := []TableManifest{{
		Table: "tribes",
		Columns: []ColumnManifest{
			{Name: "id", Type: "uint"},
			{Name: "name", Type: "string"},
		},
	}}

	tests := []struct {
		name    string
		current []TableManifest
		wantErr string
	}{
		{
			name:    "unchanged",
			current: locked,
		},
		{
			name: "appended column and table",
			current: []TableManifest{
				{Table: "tribes", Columns: []ColumnManifest{{Name: "id", Type: "uint"}, {Name: "name", Type: "string"}, {Name: "banner", Type: "string"}}},
				{Table: "badges", Columns: []ColumnManifest{{Name: "id", Type: "uint"}}},
			},
		},
		{
			name:    "dropped table",
			current: []TableManifest{},
			wantErr: "table tribes was removed",
		},
		{
			name: "dropped column",
			current: []TableManifest{
				{Table: "tribes", Columns: []ColumnManifest{{Name: "id", Type: "uint"}}},
			},
			wantErr: "tribes.name was removed",
		},
		{
			name: "retyped column",
			current: []TableManifest{
				{Table: "tribes", Columns: []ColumnManifest{{Name: "id", Type: "uint"}, {Name: "name", Type: "int64"}}},
			},
			wantErr: "column 1 changed",
		},
		{
			name: "inserted column",
			current: []TableManifest{
				{Table: "tribes", Columns: []ColumnManifest{{Name: "id", Type: "uint"}, {Name: "slug", Type: "string"}, {Name: "name", Type: "string"}}},
			},
			wantErr: "column 1 changed",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := CheckAppendOnly(locked, tt.current)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplySchemaModes(t *testing.T) {
	t.Parallel()

	db, err := OpenMemory("apply-schema-modes")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, ApplySchema(ctx, db, &config.Config{DBSchemaMode: SchemaModeAuto}))
	require.NoError(t, ApplySchema(ctx, db, &config.Config{DBSchemaMode: SchemaModeCheck}))
	require.NoError(t, ApplySchema(ctx, db, &config.Config{DBSchemaMode: SchemaModeOff}))
	assert.Error(t, ApplySchema(ctx, db, &config.Config{DBSchemaMode: "sql"}))

	status, err := GetSchemaStatus(ctx, db, &config.Config{Env: "test"})
	require.NoError(t, err)
	assert.Empty(t, status.MissingTables)
	assert.NoError(t, status.AppendOnly)
}
