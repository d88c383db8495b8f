package mapper

import (
	"time"

	"github.com/thetahealth/mirobody-sub003/internal/entity"
	"github.com/thetahealth/mirobody-sub003/internal/model"
)

type LibraryFileMapper struct{}

func NewLibraryFileMapper() *LibraryFileMapper {
	return &LibraryFileMapper{}
}

func (m *LibraryFileMapper) ToEntity(f *model.LibraryFile) *entity.LibraryFile {
	if f == nil {
		return nil
	}

	var updatedAt *time.Time
	if !f.UpdatedAt.IsZero() {
		t := f.UpdatedAt
		updatedAt = &t
	}

	return &entity.LibraryFile{
		Id:          f.Id,
		FileKey:     f.FileKey,
		FileName:    f.FileName,
		FileType:    f.FileType,
		FileContent: map[string]interface{}(f.FileContent),
		QueryUserId: f.QueryUserId,
		IsDel:       f.IsDel,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *LibraryFileMapper) ToEntities(files []*model.LibraryFile) []*entity.LibraryFile {
	entities := make([]*entity.LibraryFile, len(files))
	for i, f := range files {
		entities[i] = m.ToEntity(f)
	}
	return entities
}
