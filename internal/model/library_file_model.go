package model

import (
	"time"

	"gorm.io/datatypes"
)

// LibraryFile maps the upload pipeline's th_files table. Read-only here:
// rows are written by the upload service, and one file_key may appear in
// several rows (one per chat message referencing it).
type LibraryFile struct {
	Id          int64             `gorm:"primaryKey;autoIncrement"`
	FileKey     string            `gorm:"type:varchar(512);index"`
	FileName    string            `gorm:"type:varchar(512)"`
	FileType    string            `gorm:"type:varchar(64)"`
	FileContent datatypes.JSONMap `gorm:"type:jsonb"`
	QueryUserId string            `gorm:"type:varchar(255);index"`
	IsDel       bool              `gorm:"default:false"`
	CreatedAt   time.Time         `gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time         `gorm:"default:CURRENT_TIMESTAMP"`
}

func (LibraryFile) TableName() string {
	return "theta_ai.th_files"
}
