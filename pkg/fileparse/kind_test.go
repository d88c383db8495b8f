package fileparse

import "testing"

func TestKindForExtension(t *testing.T) {
	tests := []struct {
		ext  string
		want Kind
	}{
		{".pdf", KindBinaryDocument},
		{"pdf", KindBinaryDocument},
		{".docx", KindBinaryDocument},
		{".xlsx", KindBinaryDocument},
		{".PNG", KindImage},
		{".jpeg", KindImage},
		{".txt", KindText},
		{".go", KindText},
		{".py", KindText},
		{".zzz", KindUnknown},
		{"", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := KindForExtension(tt.ext); got != tt.want {
				t.Errorf("KindForExtension(%q) = %v, want %v", tt.ext, got, tt.want)
			}
		})
	}
}

func TestKindForContentSniffsUnknownExtensions(t *testing.T) {
	pngHeader := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

	tests := []struct {
		name string
		ext  string
		data []byte
		want Kind
	}{
		{"extension wins", ".pdf", []byte("plain text"), KindBinaryDocument},
		{"pdf magic", ".dat", []byte("%PDF-1.4 something"), KindBinaryDocument},
		{"png magic", "", pngHeader, KindImage},
		{"plain text content", ".xyz", []byte("hello world\n"), KindText},
		{"empty data", ".xyz", nil, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindForContent(tt.ext, tt.data); got != tt.want {
				t.Errorf("KindForContent(%q) = %v, want %v", tt.ext, got, tt.want)
			}
		})
	}
}

func TestTypeLabel(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".pdf", "PDF"},
		{".docx", "DOCX"},
		{".doc", "DOC"},
		{".jpeg", "IMAGE"},
		{".webp", "IMAGE"},
		{".txt", "TEXT"},
		{".md", "TEXT"},
		{".csv", "CSV"},
		{".xlsx", "EXCEL"},
		{".py", "UNKNOWN"},
		{"", "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := TypeLabel(tt.ext); got != tt.want {
				t.Errorf("TypeLabel(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestExtensionOf(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"report.PDF", ".pdf"},
		{"/uploads/archive.tar.gz", ".gz"},
		{"noext", ""},
		{"notes.md", ".md"},
	}

	for _, tt := range tests {
		if got := ExtensionOf(tt.name); got != tt.want {
			t.Errorf("ExtensionOf(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestInferContentType(t *testing.T) {
	pngHeader := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

	if got := InferContentType(".png", pngHeader); got != "image/png" {
		t.Errorf("sniffed type = %q, want image/png", got)
	}
	if got := InferContentType(".pdf", []byte{0x01, 0x02, 0x03}); got != "application/pdf" {
		t.Errorf("extension fallback = %q, want application/pdf", got)
	}
	if got := InferContentType(".bin", []byte{0x01, 0x02, 0x03}); got != "application/octet-stream" {
		t.Errorf("default = %q, want application/octet-stream", got)
	}
}
