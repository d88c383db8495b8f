package model

import "time"

// FileCache rows are shared across all sessions and users; content for a
// given hash is immutable once written.
type FileCache struct {
	ContentHash     string     `gorm:"type:varchar(64);primaryKey"`
	Content         string     `gorm:"type:text;not null"`
	FileType        string     `gorm:"type:varchar(32)"`
	FileExtension   string     `gorm:"type:varchar(32)"`
	OriginalSize    int64
	ParseMethod     string     `gorm:"type:varchar(64)"`
	ParseModel      string     `gorm:"type:varchar(128)"`
	ParseDurationMs int64
	ParseTimestamp  *time.Time
	LineCount       int64
	CharCount       int64
	FirstFileKey    string     `gorm:"type:varchar(512)"`
	ReferenceCount  int64      `gorm:"default:1"`
	LastAccessedAt  *time.Time `gorm:"index:idx_file_cache_last_accessed"`
	CreatedAt       time.Time  `gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time  `gorm:"default:CURRENT_TIMESTAMP"`
}

func (FileCache) TableName() string {
	return "agent_file_cache"
}
