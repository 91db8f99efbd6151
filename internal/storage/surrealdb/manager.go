// Package surrealdb persists dashboard snapshots in SurrealDB.
package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bobmcallan/fidash/internal/common"
)

const snapshotTable = "dashboard_snapshot"

// Connect opens a SurrealDB connection, signs in and selects the namespace/database.
func Connect(ctx context.Context, config common.StorageConfig) (*surrealdb.DB, error) {
	db, err := surrealdb.New(config.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Username,
		"pass": config.Password,
	}); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, config.Namespace, config.Database); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	return db, nil
}

// defineTables ensures tables exist (SurrealDB v3 errors on querying non-existent tables).
func defineTables(ctx context.Context, db *surrealdb.DB) error {
	stmts := []string{
		fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", snapshotTable),
		fmt.Sprintf("DEFINE INDEX IF NOT EXISTS %s_session ON %s FIELDS session_id", snapshotTable, snapshotTable),
	}
	for _, sql := range stmts {
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return fmt.Errorf("failed to define %s: %w", snapshotTable, err)
		}
	}
	return nil
}
