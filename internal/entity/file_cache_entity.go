package entity

import "time"

// CachedFile is one row of the global parse cache: the extracted text of a
// distinct binary payload, keyed by content hash and shared across all
// sessions and users.
type CachedFile struct {
	ContentHash    string
	Content        string
	FileType       string
	FileExtension  string
	OriginalSize   int64
	ParseMethod    string
	ParseModel     string
	ParseDuration  int64
	ParseTimestamp *time.Time
	LineCount      int64
	CharCount      int64
	FirstFileKey   string
	ReferenceCount int64
	LastAccessedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// AgeHours is hours since the entry was created, for provenance reporting.
func (c *CachedFile) AgeHours(now time.Time) float64 {
	return now.Sub(c.CreatedAt).Hours()
}

// CacheStats summarizes the cache table for maintenance tooling.
type CacheStats struct {
	EntryCount int64
	TotalChars int64
}
