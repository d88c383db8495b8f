package implementation

import (
	"context"
	"errors"

	"github.com/thetahealth/mirobody-sub003/internal/entity"
	"github.com/thetahealth/mirobody-sub003/internal/mapper"
	"github.com/thetahealth/mirobody-sub003/internal/model"
	"github.com/thetahealth/mirobody-sub003/internal/repository/contract"
	"github.com/thetahealth/mirobody-sub003/internal/repository/specification"

	"gorm.io/gorm"
)

type LibraryFileRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.LibraryFileMapper
}

func NewLibraryFileRepository(db *gorm.DB) contract.LibraryFileRepository {
	return &LibraryFileRepositoryImpl{
		db:     db,
		mapper: mapper.NewLibraryFileMapper(),
	}
}

func (r *LibraryFileRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *LibraryFileRepositoryImpl) FindNewestByKey(ctx context.Context, fileKey string) (*entity.LibraryFile, error) {
	var m model.LibraryFile
	err := r.db.WithContext(ctx).
		Where("file_key = ? AND is_del = false", fileKey).
		Order("updated_at DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

// ListDistinct keeps the newest row per file_key (uploads append one row per
// referencing message), then orders the page newest-first.
func (r *LibraryFileRepositoryImpl) ListDistinct(ctx context.Context, specs ...specification.Specification) ([]*entity.LibraryFile, error) {
	inner := r.db.WithContext(ctx).Model(&model.LibraryFile{}).
		Select("DISTINCT ON (file_key) *").
		Order("file_key, updated_at DESC")

	var pagination *specification.Pagination
	for _, spec := range specs {
		if p, ok := spec.(specification.Pagination); ok {
			pagination = &p
			continue
		}
		inner = spec.Apply(inner)
	}

	outer := r.db.WithContext(ctx).
		Table("(?) AS deduplicated", inner).
		Order("updated_at DESC")
	if pagination != nil {
		outer = pagination.Apply(outer)
	}

	var models []*model.LibraryFile
	if err := outer.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *LibraryFileRepositoryImpl) CountDistinct(ctx context.Context, specs ...specification.Specification) (int64, error) {
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.LibraryFile{}), specs...)

	var count int64
	if err := query.Distinct("file_key").Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
