// FILE: internal/service/file_cache_service.go
package service

import (
	"context"
	"time"

	"github.com/thetahealth/mirobody-sub003/internal/dto"
	"github.com/thetahealth/mirobody-sub003/internal/entity"
	"github.com/thetahealth/mirobody-sub003/internal/repository/unitofwork"
	"github.com/thetahealth/mirobody-sub003/pkg/utils"
)

type IFileCacheService interface {
	// GetCachedFile returns (nil, nil) on a miss or when cache reads are
	// disabled. A hit bumps reference_count and last_accessed_at.
	GetCachedFile(ctx context.Context, contentHash string) (*dto.CachedFileResponse, error)
	// SaveCachedFile always runs, even with reads disabled: the cache only
	// grows from real parses, the flag only gates reuse. Saving an existing
	// hash increments reference_count and leaves the content untouched.
	SaveCachedFile(ctx context.Context, req *dto.SaveCachedFileRequest) error
	// Cleanup deletes entries idle longer than maxAgeDays with fewer than
	// minReferences references. A no-op while cache reads are disabled.
	Cleanup(ctx context.Context, maxAgeDays int, minReferences int64) (int64, error)
	// PreviewCleanup counts what Cleanup would delete, without deleting.
	PreviewCleanup(ctx context.Context, maxAgeDays int, minReferences int64) (int64, error)
	Stats(ctx context.Context) (*dto.CacheStatsResponse, error)
	ReadEnabled() bool
}

type fileCacheService struct {
	uowFactory  unitofwork.RepositoryFactory
	readEnabled bool
}

func NewFileCacheService(uowFactory unitofwork.RepositoryFactory, readEnabled bool) IFileCacheService {
	return &fileCacheService{
		uowFactory:  uowFactory,
		readEnabled: readEnabled,
	}
}

func (c *fileCacheService) ReadEnabled() bool {
	return c.readEnabled
}

func (c *fileCacheService) GetCachedFile(ctx context.Context, contentHash string) (*dto.CachedFileResponse, error) {
	if !c.readEnabled {
		return nil, nil
	}
	uow := c.uowFactory.NewUnitOfWork(ctx)

	cached, err := uow.FileCacheRepository().FindByHash(ctx, contentHash)
	if err != nil {
		return nil, err
	}
	if cached == nil {
		return nil, nil
	}

	if err := uow.FileCacheRepository().Touch(ctx, contentHash); err != nil {
		return nil, err
	}

	return &dto.CachedFileResponse{
		ContentHash:   cached.ContentHash,
		Content:       cached.Content,
		FileType:      cached.FileType,
		FileExtension: cached.FileExtension,
		ParseMethod:   cached.ParseMethod,
		ParseModel:    cached.ParseModel,
		ParseDuration: cached.ParseDuration,
		LineCount:     cached.LineCount,
		CharCount:     cached.CharCount,
		// Report the count as of this hit, Touch included.
		ReferenceCount: cached.ReferenceCount + 1,
		AgeHours:       cached.AgeHours(time.Now()),
	}, nil
}

func (c *fileCacheService) SaveCachedFile(ctx context.Context, req *dto.SaveCachedFileRequest) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	now := time.Now()
	lines := utils.SplitLines(req.Content)
	cached := entity.CachedFile{
		ContentHash:    req.ContentHash,
		Content:        req.Content,
		FileType:       req.FileType,
		FileExtension:  req.FileExtension,
		OriginalSize:   req.OriginalSize,
		ParseMethod:    req.ParseMethod,
		ParseModel:     req.ParseModel,
		ParseDuration:  req.ParseDuration,
		ParseTimestamp: &now,
		LineCount:      int64(len(lines)),
		CharCount:      int64(len(req.Content)),
		FirstFileKey:   req.SourceKey,
		ReferenceCount: 1,
		LastAccessedAt: &now,
		CreatedAt:      now,
	}

	return uow.FileCacheRepository().Save(ctx, &cached)
}

func (c *fileCacheService) Cleanup(ctx context.Context, maxAgeDays int, minReferences int64) (int64, error) {
	if !c.readEnabled {
		return 0, nil
	}
	uow := c.uowFactory.NewUnitOfWork(ctx)

	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)
	return uow.FileCacheRepository().DeleteStale(ctx, cutoff, minReferences)
}

func (c *fileCacheService) PreviewCleanup(ctx context.Context, maxAgeDays int, minReferences int64) (int64, error) {
	if !c.readEnabled {
		return 0, nil
	}
	uow := c.uowFactory.NewUnitOfWork(ctx)

	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)
	return uow.FileCacheRepository().CountStale(ctx, cutoff, minReferences)
}

func (c *fileCacheService) Stats(ctx context.Context) (*dto.CacheStatsResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	stats, err := uow.FileCacheRepository().Stats(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.CacheStatsResponse{
		EntryCount: stats.EntryCount,
		TotalChars: stats.TotalChars,
	}, nil
}
