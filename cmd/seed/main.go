package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/thetahealth/mirobody-sub003/internal/dto"
	"github.com/thetahealth/mirobody-sub003/internal/entity"
	"github.com/thetahealth/mirobody-sub003/internal/repository/unitofwork"
	"github.com/thetahealth/mirobody-sub003/internal/service"
	"github.com/thetahealth/mirobody-sub003/pkg/database"
	"github.com/thetahealth/mirobody-sub003/pkg/utils"

	"github.com/joho/godotenv"
)

// Seeds a demo session workspace so local tooling has something to look at.
func main() {
	// Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(db)
	storeService := service.NewStoreService(uowFactory)
	cacheService := service.NewFileCacheService(uowFactory, true)

	ctx := context.Background()
	sessionId := "demo-session"
	userId := "demo-user"
	namespace := entity.NewNamespace(service.WorkspaceDomain, sessionId, userId)
	now := time.Now().UTC().Format(time.RFC3339)

	log.Println("Seeding demo workspace...")

	notes := &entity.FileRecord{
		Content:   []string{"# Meeting Notes", "", "- review ingest throughput", "- cache hit ratio looks healthy"},
		FileType:  "text",
		Parsed:    true,
		CreatedAt: now,
	}
	reportText := "Quarterly report body.\nNumbers are up."
	report := &entity.FileRecord{
		Content:       utils.SplitLines(reportText),
		FileKey:       "demo/report.pdf",
		ContentHash:   utils.ContentHash([]byte(reportText)),
		FileType:      "pdf",
		FileExtension: ".pdf",
		Parsed:        true,
		CreatedAt:     now,
	}
	reference := &entity.FileRecord{
		Url:         "https://example.com/handbook.html",
		FileType:    "html",
		IsReference: true,
		CreatedAt:   now,
	}

	records := map[string]*entity.FileRecord{
		"/uploads/notes.md":                     notes,
		"/uploads/report.pdf":                   report,
		"/workspace/global_files/handbook.html": reference,
	}

	for key, record := range records {
		existing, err := storeService.Get(ctx, namespace, key)
		if err != nil {
			log.Fatalf("Error: Failed to check '%s': %v", key, err)
		}
		if existing != nil {
			log.Printf("Record '%s' already exists, skipping...", key)
			continue
		}

		value, err := record.ToValue()
		if err != nil {
			log.Fatalf("Error: Failed to encode '%s': %v", key, err)
		}
		if err := storeService.Put(ctx, namespace, key, value); err != nil {
			log.Fatalf("Error: Failed to seed '%s': %v", key, err)
		}
		log.Printf("Created record: %s (%s)", key, record.State())
	}

	// Pre-warm the content cache with the parsed report so the first demo
	// session gets a cache hit.
	err = cacheService.SaveCachedFile(ctx, &dto.SaveCachedFileRequest{
		ContentHash:   report.ContentHash,
		Content:       reportText,
		FileType:      "pdf",
		FileExtension: ".pdf",
		OriginalSize:  int64(len(reportText)),
		ParseMethod:   "pdfplumber",
		SourceKey:     "demo/report.pdf",
	})
	if err != nil {
		log.Fatalf("Error: Failed to seed cache entry: %v", err)
	}
	log.Printf("Created cache entry: %s", report.ContentHash[:12])

	log.Println("Demo workspace seeding completed!")
}
