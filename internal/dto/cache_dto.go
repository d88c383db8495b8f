package dto

// CachedFileResponse is a cache hit: extracted text plus the provenance of
// the parse that produced it.
type CachedFileResponse struct {
	ContentHash    string  `json:"content_hash"`
	Content        string  `json:"content"`
	FileType       string  `json:"file_type,omitempty"`
	FileExtension  string  `json:"file_extension,omitempty"`
	ParseMethod    string  `json:"parse_method,omitempty"`
	ParseModel     string  `json:"parse_model,omitempty"`
	ParseDuration  int64   `json:"parse_duration_ms,omitempty"`
	LineCount      int64   `json:"line_count"`
	CharCount      int64   `json:"char_count"`
	ReferenceCount int64   `json:"reference_count"`
	AgeHours       float64 `json:"age_hours"`
}

// SaveCachedFileRequest records one successful parse into the global cache.
type SaveCachedFileRequest struct {
	ContentHash   string `json:"content_hash" validate:"required"`
	Content       string `json:"content"`
	FileType      string `json:"file_type,omitempty"`
	FileExtension string `json:"file_extension,omitempty"`
	OriginalSize  int64  `json:"original_size,omitempty"`
	ParseMethod   string `json:"parse_method,omitempty"`
	ParseModel    string `json:"parse_model,omitempty"`
	ParseDuration int64  `json:"parse_duration_ms,omitempty"`
	SourceKey     string `json:"source_key,omitempty"`
}

type CacheStatsResponse struct {
	EntryCount int64 `json:"entry_count"`
	TotalChars int64 `json:"total_chars"`
}

type CacheCleanupResponse struct {
	Deleted int64 `json:"deleted"`
}
