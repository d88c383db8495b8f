package specification

import (
	"time"

	"gorm.io/gorm"
)

type ByFileKey struct {
	FileKey string
}

func (s ByFileKey) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("file_key = ?", s.FileKey)
}

type ByQueryUserId struct {
	UserId string
}

func (s ByQueryUserId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("query_user_id = ?", s.UserId)
}

// NotDeleted filters out rows flagged by the upload pipeline's soft delete.
type NotDeleted struct{}

func (s NotDeleted) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_del = false")
}

// UpdatedBetween bounds rows by update time; either bound may be nil.
type UpdatedBetween struct {
	Start *time.Time
	End   *time.Time
}

func (s UpdatedBetween) Apply(db *gorm.DB) *gorm.DB {
	if s.Start != nil {
		db = db.Where("updated_at >= ?", *s.Start)
	}
	if s.End != nil {
		db = db.Where("updated_at <= ?", *s.End)
	}
	return db
}
