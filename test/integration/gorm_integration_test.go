package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/thetahealth/mirobody-sub003/internal/entity"
	"github.com/thetahealth/mirobody-sub003/internal/repository/specification"
	"github.com/thetahealth/mirobody-sub003/internal/repository/unitofwork"
	"github.com/thetahealth/mirobody-sub003/pkg/database"
	"github.com/thetahealth/mirobody-sub003/pkg/utils"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.WorkspaceItemRepository())
	assert.NotNil(t, uow.FileCacheRepository())
	assert.NotNil(t, uow.LibraryFileRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	// Everything below writes under one throwaway session id.
	sessionId := "it-" + uuid.New().String()
	userId := "user-integration"
	namespace := entity.NewNamespace("files", sessionId, userId)
	contentHash := utils.ContentHash([]byte("integration payload " + sessionId))

	t.Cleanup(func() {
		gormDB.Exec("DELETE FROM agent_workspace_items WHERE session_id = ?", sessionId)
		gormDB.Exec("DELETE FROM agent_file_cache WHERE content_hash = ?", contentHash)
	})

	t.Run("Check Workspace Item Upsert And Lookup", func(t *testing.T) {
		ctx := context.Background()
		item := &entity.WorkspaceItem{
			Namespace: namespace,
			Key:       "/uploads/report.pdf",
			Value:     map[string]interface{}{"content": "hello", "parsed": true},
			SessionId: sessionId,
			UserId:    userId,
		}
		err := uow.WorkspaceItemRepository().Upsert(ctx, item)
		assert.NoError(t, err)

		// Second upsert replaces the row instead of erroring on the key
		item.Value = map[string]interface{}{"content": "hello again", "parsed": false}
		err = uow.WorkspaceItemRepository().Upsert(ctx, item)
		assert.NoError(t, err)

		found, err := uow.WorkspaceItemRepository().FindOne(ctx,
			specification.ByNamespace{Namespace: namespace.String()},
			specification.ByKey{Key: "/uploads/report.pdf"},
		)
		assert.NoError(t, err)
		if assert.NotNil(t, found) {
			assert.Equal(t, "hello again", found.Value["content"])
			assert.Equal(t, false, found.Value["parsed"])
		}

		// Absent keys come back as (nil, nil), not an error
		missing, err := uow.WorkspaceItemRepository().FindOne(ctx,
			specification.ByNamespace{Namespace: namespace.String()},
			specification.ByKey{Key: "/uploads/ghost.pdf"},
		)
		assert.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("Check Key Ordering Over Prefix Scan", func(t *testing.T) {
		ctx := context.Background()
		for _, key := range []string{"/uploads/b.txt", "/uploads/a.txt", "/notes/z.txt"} {
			err := uow.WorkspaceItemRepository().Upsert(ctx, &entity.WorkspaceItem{
				Namespace: namespace,
				Key:       key,
				Value:     map[string]interface{}{"content": key},
				SessionId: sessionId,
				UserId:    userId,
			})
			assert.NoError(t, err)
		}

		items, err := uow.WorkspaceItemRepository().FindAll(ctx,
			specification.ByNamespace{Namespace: namespace.String()},
			specification.ByKeyPrefix{Prefix: "/uploads/"},
			specification.OrderBy{Field: "namespace"},
			specification.OrderBy{Field: "key"},
		)
		assert.NoError(t, err)
		if assert.Len(t, items, 3) {
			assert.Equal(t, "/uploads/a.txt", items[0].Key)
			assert.Equal(t, "/uploads/b.txt", items[1].Key)
			assert.Equal(t, "/uploads/report.pdf", items[2].Key)
		}
	})

	t.Run("Check Cache Upsert Accumulates References", func(t *testing.T) {
		ctx := context.Background()
		now := time.Now()
		cached := &entity.CachedFile{
			ContentHash:    contentHash,
			Content:        "line one\nline two",
			FileType:       "pdf",
			FileExtension:  ".pdf",
			OriginalSize:   17,
			ParseMethod:    "pdfplumber",
			LineCount:      2,
			CharCount:      17,
			FirstFileKey:   "it/report.pdf",
			ReferenceCount: 1,
			LastAccessedAt: &now,
			CreatedAt:      now,
		}

		assert.NoError(t, uow.FileCacheRepository().Save(ctx, cached))
		// Saving the same hash again bumps the counter, content stays put
		cached.Content = "this text must be ignored"
		assert.NoError(t, uow.FileCacheRepository().Save(ctx, cached))

		found, err := uow.FileCacheRepository().FindByHash(ctx, contentHash)
		assert.NoError(t, err)
		if assert.NotNil(t, found) {
			assert.Equal(t, "line one\nline two", found.Content)
			assert.EqualValues(t, 2, found.ReferenceCount)
		}

		assert.NoError(t, uow.FileCacheRepository().Touch(ctx, contentHash))
		found, err = uow.FileCacheRepository().FindByHash(ctx, contentHash)
		assert.NoError(t, err)
		if assert.NotNil(t, found) {
			assert.EqualValues(t, 3, found.ReferenceCount)
		}

		count, err := uow.FileCacheRepository().CountStale(ctx, time.Now().AddDate(0, 0, -90), 2)
		assert.NoError(t, err)
		assert.Zero(t, count, "a just-touched entry is never a sweep candidate")
	})

	t.Run("Check Transaction Rollback Leaves No Row", func(t *testing.T) {
		ctx := context.Background()
		txUow := uowFactory.NewUnitOfWork(ctx)
		assert.NoError(t, txUow.Begin(ctx))

		err := txUow.WorkspaceItemRepository().Upsert(ctx, &entity.WorkspaceItem{
			Namespace: namespace,
			Key:       "/uploads/rollback.txt",
			Value:     map[string]interface{}{"content": "never visible"},
			SessionId: sessionId,
			UserId:    userId,
		})
		assert.NoError(t, err)
		assert.NoError(t, txUow.Rollback())

		found, err := uow.WorkspaceItemRepository().FindOne(ctx,
			specification.ByNamespace{Namespace: namespace.String()},
			specification.ByKey{Key: "/uploads/rollback.txt"},
		)
		assert.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("Check Session Purge", func(t *testing.T) {
		ctx := context.Background()
		deleted, err := uow.WorkspaceItemRepository().DeleteByNamespace(ctx, namespace.String())
		assert.NoError(t, err)
		assert.True(t, deleted >= 4, "expected the rows written above to be purged, got %d", deleted)

		count, err := uow.WorkspaceItemRepository().Count(ctx,
			specification.ByNamespace{Namespace: namespace.String()},
		)
		assert.NoError(t, err)
		assert.Zero(t, count)
	})
}
