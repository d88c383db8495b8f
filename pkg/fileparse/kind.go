// Package fileparse turns raw file bytes into text. Dispatch is a closed set
// of parsing kinds resolved from the file extension, with a content sniff as
// the fallback for unrecognized extensions.
package fileparse

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind selects the parsing strategy for a file.
type Kind int

const (
	KindText Kind = iota
	KindImage
	KindBinaryDocument
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindBinaryDocument:
		return "binary_document"
	default:
		return "unknown"
	}
}

var kindByExtension = map[string]Kind{
	// Document types
	".pdf":  KindBinaryDocument,
	".docx": KindBinaryDocument,
	".doc":  KindBinaryDocument,
	".csv":  KindBinaryDocument,
	".xlsx": KindBinaryDocument,
	".xls":  KindBinaryDocument,
	".pptx": KindBinaryDocument,
	".ppt":  KindBinaryDocument,
	// Image types
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".gif":  KindImage,
	".webp": KindImage,
	".bmp":  KindImage,
	// Text/Code types
	".txt":  KindText,
	".md":   KindText,
	".go":   KindText,
	".py":   KindText,
	".js":   KindText,
	".ts":   KindText,
	".jsx":  KindText,
	".tsx":  KindText,
	".java": KindText,
	".c":    KindText,
	".cpp":  KindText,
	".json": KindText,
	".xml":  KindText,
	".yaml": KindText,
	".yml":  KindText,
}

// typeLabelByExtension maps extensions to the stable labels persisted on file
// records and cache entries.
var typeLabelByExtension = map[string]string{
	".pdf":  "PDF",
	".docx": "DOCX",
	".doc":  "DOC",
	".png":  "IMAGE",
	".jpg":  "IMAGE",
	".jpeg": "IMAGE",
	".gif":  "IMAGE",
	".webp": "IMAGE",
	".bmp":  "IMAGE",
	".txt":  "TEXT",
	".md":   "TEXT",
	".csv":  "CSV",
	".xlsx": "EXCEL",
	".xls":  "EXCEL",
}

// KindForExtension resolves the parsing kind from an extension alone.
// Unrecognized extensions (including none) resolve to KindUnknown.
func KindForExtension(ext string) Kind {
	if k, ok := kindByExtension[normalizeExt(ext)]; ok {
		return k
	}
	return KindUnknown
}

// KindForContent resolves the parsing kind from the extension, sniffing the
// content when the extension is unrecognized.
func KindForContent(ext string, data []byte) Kind {
	if k := KindForExtension(ext); k != KindUnknown {
		return k
	}
	if len(data) == 0 {
		return KindUnknown
	}
	m := mimetype.Detect(data)
	switch {
	case m.Is("application/pdf"):
		return KindBinaryDocument
	case strings.HasPrefix(m.String(), "image/"):
		return KindImage
	case strings.HasPrefix(m.String(), "text/"):
		return KindText
	}
	return KindUnknown
}

// TypeLabel returns the stored file-type label for an extension, UNKNOWN when
// the extension is not in the map.
func TypeLabel(ext string) string {
	if label, ok := typeLabelByExtension[normalizeExt(ext)]; ok {
		return label
	}
	return "UNKNOWN"
}

// ExtensionOf extracts the lowercased extension (with leading dot) from a
// file name or path. Returns "" when there is none.
func ExtensionOf(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// InferContentType sniffs the MIME type from content, falling back to the
// extension for payloads the sniffer reports as plain octet streams.
func InferContentType(ext string, data []byte) string {
	if len(data) > 0 {
		if m := mimetype.Detect(data); !m.Is("application/octet-stream") {
			return m.String()
		}
	}
	if ct := mime.TypeByExtension(normalizeExt(ext)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
