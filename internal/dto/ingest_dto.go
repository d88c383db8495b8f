package dto

// InboundFile describes one file submitted to the ingestion pipeline.
// Either FileKey or Url must be present; FileName is derived from them when
// absent.
type InboundFile struct {
	FileName string `json:"file_name"`
	FileKey  string `json:"file_key" validate:"required_without=Url"`
	Url      string `json:"url" validate:"required_without=FileKey,omitempty,url"`
	FileType string `json:"file_type"`
	FileSize int64  `json:"file_size"`
}

type IngestFilesRequest struct {
	SessionId string        `json:"session_id" validate:"required"`
	UserId    string        `json:"user_id" validate:"required"`
	Files     []InboundFile `json:"files" validate:"required,min=1,dive"`
	// PreloadedContent short-circuits downloads: keyed by file_key first,
	// file_name second.
	PreloadedContent map[string][]byte `json:"-"`
}

type IngestFilesResponse struct {
	UploadedPaths []string          `json:"uploaded_paths"`
	Message       string            `json:"message"`
	Failed        []IngestFileError `json:"failed,omitempty"`
}

type IngestFileError struct {
	FileName string `json:"file_name"`
	Error    string `json:"error"`
}
