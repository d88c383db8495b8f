package main

import (
	"log"
	"os"

	"github.com/thetahealth/mirobody-sub003/internal/model"
	"github.com/thetahealth/mirobody-sub003/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting Authoritative GORM Migration...")

	// 3. Pre-Migration: Schemas (Things GORM AutoMigrate doesn't do perfectly)
	log.Println("Step 1: Setting up Schemas...")

	setupSQL := []string{
		// th_files lives in the theta_ai schema; AutoMigrate will not create it.
		`CREATE SCHEMA IF NOT EXISTS theta_ai;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models (The Core Task)
	log.Println("Step 2: Running AutoMigrate for 3 Tables...")

	models := []interface{}{
		&model.WorkspaceItem{},
		&model.FileCache{},
		// th_files is owned by the upload pipeline in production; migrating it
		// here keeps development databases self-contained.
		&model.LibraryFile{},
	}

	// Migrate strictly
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: Indexes & Views
	log.Println("Step 3: Creating Indexes and Views...")

	postMigrationSQL := []string{
		// Prefix scans: namespace LIKE 'prefix%' and key LIKE 'prefix%' need
		// text_pattern_ops, the composite primary key only covers equality.
		`CREATE INDEX IF NOT EXISTS idx_workspace_items_ns_prefix ON agent_workspace_items (namespace text_pattern_ops);`,
		`CREATE INDEX IF NOT EXISTS idx_workspace_items_key_prefix ON agent_workspace_items (namespace, key text_pattern_ops);`,

		// Sweep scans filter on both columns together.
		`CREATE INDEX IF NOT EXISTS idx_file_cache_sweep ON agent_file_cache (last_accessed_at, reference_count);`,

		// View: what the next cache sweep would look at, oldest first
		`CREATE OR REPLACE VIEW agent_cache_sweep_candidates AS
		 SELECT content_hash, first_file_key, reference_count, char_count, last_accessed_at
		 FROM agent_file_cache
		 ORDER BY last_accessed_at ASC;`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
