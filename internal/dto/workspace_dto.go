package dto

// FileInfo describes one workspace entry in list and glob results.
type FileInfo struct {
	Path       string `json:"path"`
	IsDir      bool   `json:"is_dir"`
	Size       int    `json:"size"` // parsed line count, 0 for unmaterialized references
	ModifiedAt string `json:"modified_at,omitempty"`
}

// GrepMatch is a single matching line. Line numbers are 1-based.
type GrepMatch struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// GrepResult carries either matches or a diagnostic string (e.g. for an
// invalid regex). Exactly one side is populated.
type GrepResult struct {
	Matches []GrepMatch `json:"matches,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type WriteResult struct {
	Path  string `json:"path,omitempty"`
	Error string `json:"error,omitempty"`
}

type EditResult struct {
	Path        string `json:"path,omitempty"`
	Occurrences int    `json:"occurrences,omitempty"`
	Error       string `json:"error,omitempty"`
}

// FileUpload is one (path, raw bytes) pair for binary upload.
type FileUpload struct {
	Path string
	Data []byte
}

// ParsedUpload is one already-parsed file heading into the workspace. The
// locator and provenance fields are optional and ride along on the record.
type ParsedUpload struct {
	Path          string
	Text          string
	FileKey       string
	Url           string
	ContentHash   string
	FileType      string
	FileExtension string
	Metadata      map[string]interface{}
}

type FileUploadResponse struct {
	Path  string `json:"path"`
	Error string `json:"error,omitempty"`
}

type FileDownloadResponse struct {
	Path    string `json:"path"`
	Content []byte `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AddReferenceResult reports where a fetched global file landed.
type AddReferenceResult struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
}

type WorkspaceStatsResponse struct {
	FileCount   int64 `json:"file_count"`
	ParsedCount int64 `json:"parsed_count"`
	TotalSize   int64 `json:"total_size"`
}
