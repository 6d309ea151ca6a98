package main

import (
	"log"
	"os"

	"email-onboarding-be/internal/model"
	"email-onboarding-be/pkg/database"

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
	db, err := database.NewGormDBFromDSN(dsn, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM migration...")

	// 3. Extensions (gen_random_uuid)
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Printf("Warn: Failed to create pgcrypto extension: %v. Continuing...", err)
	}

	// 4. AutoMigrate
	models := []interface{}{
		&model.TenantLabel{},
		&model.ReconciliationRun{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Views
	postMigrationSQL := []string{
		// Superseded by idx_tenant_labels_tenant_provider_path.
		`DROP INDEX IF EXISTS idx_tenant_labels_tenant_path;`,
		`CREATE OR REPLACE VIEW tenant_latest_runs AS
		 SELECT DISTINCT ON (tenant_id, provider) tenant_id, id AS run_id, provider, matched_count, created_count,
		        jsonb_array_length(failed) AS failed_count, interrupted, started_at, finished_at
		 FROM reconciliation_runs
		 ORDER BY tenant_id, provider, started_at DESC;`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Success: Database migration completed.")
}
