package mapper

import (
	"time"

	"github.com/thetahealth/mirobody-sub003/internal/entity"
	"github.com/thetahealth/mirobody-sub003/internal/model"
)

type FileCacheMapper struct{}

func NewFileCacheMapper() *FileCacheMapper {
	return &FileCacheMapper{}
}

func (m *FileCacheMapper) ToEntity(c *model.FileCache) *entity.CachedFile {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.CachedFile{
		ContentHash:    c.ContentHash,
		Content:        c.Content,
		FileType:       c.FileType,
		FileExtension:  c.FileExtension,
		OriginalSize:   c.OriginalSize,
		ParseMethod:    c.ParseMethod,
		ParseModel:     c.ParseModel,
		ParseDuration:  c.ParseDurationMs,
		ParseTimestamp: c.ParseTimestamp,
		LineCount:      c.LineCount,
		CharCount:      c.CharCount,
		FirstFileKey:   c.FirstFileKey,
		ReferenceCount: c.ReferenceCount,
		LastAccessedAt: c.LastAccessedAt,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *FileCacheMapper) ToModel(c *entity.CachedFile) *model.FileCache {
	if c == nil {
		return nil
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.FileCache{
		ContentHash:     c.ContentHash,
		Content:         c.Content,
		FileType:        c.FileType,
		FileExtension:   c.FileExtension,
		OriginalSize:    c.OriginalSize,
		ParseMethod:     c.ParseMethod,
		ParseModel:      c.ParseModel,
		ParseDurationMs: c.ParseDuration,
		ParseTimestamp:  c.ParseTimestamp,
		LineCount:       c.LineCount,
		CharCount:       c.CharCount,
		FirstFileKey:    c.FirstFileKey,
		ReferenceCount:  c.ReferenceCount,
		LastAccessedAt:  c.LastAccessedAt,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}

func (m *FileCacheMapper) ToEntities(caches []*model.FileCache) []*entity.CachedFile {
	entities := make([]*entity.CachedFile, len(caches))
	for i, c := range caches {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
