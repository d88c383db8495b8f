package dto

type ListLibraryFilesRequest struct {
	UserId string `json:"user_id" validate:"required"`
	// StartDate/EndDate are YYYY-MM-DD; each bound is widened by one day to
	// absorb timezone skew between client and database.
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Offset    int    `json:"offset"`
	Limit     int    `json:"limit"`
}

type LibraryFileInfo struct {
	FileKey  string `json:"file_key"`
	Date     string `json:"date"`
	FileType string `json:"file_type,omitempty"`
	Abstract string `json:"abstract,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type ListLibraryFilesResponse struct {
	Files   []LibraryFileInfo `json:"files"`
	Total   int64             `json:"total"`
	Offset  int               `json:"offset"`
	Limit   int               `json:"limit"`
	HasMore bool              `json:"has_more"`
}

// FetchFilesResponse aggregates per-item outcomes when pulling library files
// into a session workspace as references.
type FetchFilesResponse struct {
	Success []FetchFileSuccess `json:"success"`
	Failed  []FetchFileFailure `json:"failed"`
}

type FetchFileSuccess struct {
	FileKey string `json:"file_key,omitempty"`
	Url     string `json:"url,omitempty"`
	Path    string `json:"path"`
}

type FetchFileFailure struct {
	FileKey string `json:"file_key,omitempty"`
	Url     string `json:"url,omitempty"`
	Error   string `json:"error"`
}
