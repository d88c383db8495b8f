package implementation

import (
	"context"
	"errors"
	"time"

	"github.com/thetahealth/mirobody-sub003/internal/entity"
	"github.com/thetahealth/mirobody-sub003/internal/mapper"
	"github.com/thetahealth/mirobody-sub003/internal/model"
	"github.com/thetahealth/mirobody-sub003/internal/repository/contract"

	"gorm.io/gorm"
)

type FileCacheRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.FileCacheMapper
}

func NewFileCacheRepository(db *gorm.DB) contract.FileCacheRepository {
	return &FileCacheRepositoryImpl{
		db:     db,
		mapper: mapper.NewFileCacheMapper(),
	}
}

// Save must stay a single statement: concurrent first writes for the same
// hash race, and the ON CONFLICT increment is what makes that race safe.
func (r *FileCacheRepositoryImpl) Save(ctx context.Context, cached *entity.CachedFile) error {
	m := r.mapper.ToModel(cached)
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO agent_file_cache (
			content_hash, content, file_type, file_extension, original_size,
			parse_method, parse_model, parse_duration_ms, parse_timestamp,
			line_count, char_count, first_file_key, reference_count,
			last_accessed_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW(), ?, ?, ?, 1, NOW(), NOW(), NOW())
		ON CONFLICT (content_hash)
		DO UPDATE SET
			reference_count = agent_file_cache.reference_count + 1,
			last_accessed_at = NOW(),
			updated_at = NOW()
	`, m.ContentHash, m.Content, m.FileType, m.FileExtension, m.OriginalSize,
		m.ParseMethod, m.ParseModel, m.ParseDurationMs,
		m.LineCount, m.CharCount, m.FirstFileKey).Error
}

func (r *FileCacheRepositoryImpl) FindByHash(ctx context.Context, contentHash string) (*entity.CachedFile, error) {
	var m model.FileCache
	err := r.db.WithContext(ctx).Where("content_hash = ?", contentHash).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *FileCacheRepositoryImpl) Touch(ctx context.Context, contentHash string) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE agent_file_cache
		SET reference_count = reference_count + 1,
			last_accessed_at = NOW()
		WHERE content_hash = ?
	`, contentHash).Error
}

func (r *FileCacheRepositoryImpl) DeleteStale(ctx context.Context, cutoff time.Time, minReferences int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("last_accessed_at < ? AND reference_count < ?", cutoff, minReferences).
		Delete(&model.FileCache{})
	return result.RowsAffected, result.Error
}

func (r *FileCacheRepositoryImpl) CountStale(ctx context.Context, cutoff time.Time, minReferences int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.FileCache{}).
		Where("last_accessed_at < ? AND reference_count < ?", cutoff, minReferences).
		Count(&count).Error
	return count, err
}

func (r *FileCacheRepositoryImpl) Stats(ctx context.Context) (*entity.CacheStats, error) {
	var row struct {
		EntryCount int64
		TotalChars int64
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) AS entry_count, COALESCE(SUM(char_count), 0) AS total_chars
		FROM agent_file_cache
	`).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &entity.CacheStats{EntryCount: row.EntryCount, TotalChars: row.TotalChars}, nil
}
