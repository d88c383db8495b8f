package contract

import (
	"context"
	"time"

	"github.com/thetahealth/mirobody-sub003/internal/entity"
)

type FileCacheRepository interface {
	// Save is the one-way accumulation upsert: the first save for a hash
	// creates the row with reference_count=1, every later save for the same
	// hash bumps reference_count and the access time without touching the
	// stored content. Must stay a single atomic statement.
	Save(ctx context.Context, cached *entity.CachedFile) error
	FindByHash(ctx context.Context, contentHash string) (*entity.CachedFile, error)
	// Touch records a cache hit: reference_count+1, last_accessed_at=now.
	Touch(ctx context.Context, contentHash string) error
	// DeleteStale removes entries last accessed before cutoff whose
	// reference_count is below minReferences. Returns rows deleted.
	DeleteStale(ctx context.Context, cutoff time.Time, minReferences int64) (int64, error)
	// CountStale counts the entries DeleteStale would remove.
	CountStale(ctx context.Context, cutoff time.Time, minReferences int64) (int64, error)
	Stats(ctx context.Context) (*entity.CacheStats, error)
}
