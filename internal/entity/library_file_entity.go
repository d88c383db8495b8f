package entity

import "time"

// LibraryFile is a row of the user-facing upload library (th_files). The
// table is owned by the upload pipeline; this side only reads it.
type LibraryFile struct {
	Id          int64
	FileKey     string
	FileName    string
	FileType    string
	FileContent map[string]interface{}
	QueryUserId string
	IsDel       bool
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// Abstract returns a short preview: the stored abstract when present, else
// the raw text, truncated to maxLen runes with an ellipsis.
func (f *LibraryFile) Abstract(maxLen int) string {
	text, _ := f.FileContent["file_abstract"].(string)
	if text == "" {
		text, _ = f.FileContent["raw"].(string)
	}
	runes := []rune(text)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return text
}
