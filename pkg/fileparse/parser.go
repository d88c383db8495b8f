package fileparse

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/thetahealth/mirobody-sub003/pkg/extraction"
)

// Method labels persisted alongside parsed content for provenance.
const (
	MethodPDFLocal       = "pdf_local"
	MethodLLMFallback    = "llm_fallback"
	MethodUnifiedVision  = "unified_vision"
	MethodDirectRead     = "direct_read"
	MethodUnifiedExtract = "unified_extract"
)

// Local extraction output at or below this length is treated as a miss.
// Near-empty output usually means a scanned or image-only document.
const minUsefulLen = 50

const fullTextPrompt = `Please extract and return ALL the original text content from this file.
Return the complete text exactly as it appears in the document, preserving formatting where possible.
Do not summarize or modify the content - return the full original text.`

const fullImagePrompt = `Please extract and return ALL text content visible in this image.
Return the complete text exactly as it appears, preserving the order and structure where possible.
If there is no text or minimal text in the image, provide a detailed description of the visual content including main subjects, scene, colors, actions, and notable details.`

// Result carries extracted text plus the method and model that produced it.
type Result struct {
	Text   string
	Method string
	Model  string
}

// Parser extracts text from file content.
type Parser interface {
	Parse(ctx context.Context, data []byte, filename, ext string) (*Result, error)
}

// StrategyParser routes each file to one parsing strategy by kind:
//   - plain text and code decode directly, no service call
//   - PDFs try the local text layer first and fall back to the extraction
//     service when the local pass fails or yields too little text
//   - images always go to the extraction service
//   - everything else goes to the extraction service with a sniffed MIME type
type StrategyParser struct {
	extractor extraction.Provider
	localPDF  func(data []byte) (string, error)
}

// Ensure StrategyParser implements Parser
var _ Parser = &StrategyParser{}

func NewStrategyParser(extractor extraction.Provider) *StrategyParser {
	return &StrategyParser{
		extractor: extractor,
		localPDF:  extractPDFText,
	}
}

func (p *StrategyParser) Parse(ctx context.Context, data []byte, filename, ext string) (*Result, error) {
	if ext == "" {
		ext = ExtensionOf(filename)
	}
	ext = normalizeExt(ext)

	switch KindForContent(ext, data) {
	case KindText:
		return p.parseText(data)
	case KindImage:
		return p.parseImage(ctx, data, filename, ext)
	case KindBinaryDocument:
		if ext == ".pdf" {
			return p.parsePDF(ctx, data, filename)
		}
		return p.parseGeneric(ctx, data, filename, ext)
	default:
		return p.parseGeneric(ctx, data, filename, ext)
	}
}

func (p *StrategyParser) parseText(data []byte) (*Result, error) {
	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	return &Result{Text: text, Method: MethodDirectRead}, nil
}

// parsePDF tries the free local text layer before paying for the extraction
// service. The fallback triggers on local failure or insufficient output.
func (p *StrategyParser) parsePDF(ctx context.Context, data []byte, filename string) (*Result, error) {
	text, err := p.localPDF(data)
	if err == nil && len(strings.TrimSpace(text)) > minUsefulLen {
		return &Result{Text: text, Method: MethodPDFLocal}, nil
	}

	resp, err := p.extractor.Extract(ctx, extraction.Request{
		Data:        data,
		ContentType: "application/pdf",
		Filename:    filename,
		Prompt:      fullTextPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("pdf fallback extraction: %w", err)
	}
	return &Result{Text: resp.Text, Method: MethodLLMFallback, Model: resp.Model}, nil
}

func (p *StrategyParser) parseImage(ctx context.Context, data []byte, filename, ext string) (*Result, error) {
	resp, err := p.extractor.Extract(ctx, extraction.Request{
		Data:        data,
		ContentType: InferContentType(ext, data),
		Filename:    filename,
		Prompt:      fullImagePrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("image extraction: %w", err)
	}
	return &Result{Text: resp.Text, Method: MethodUnifiedVision, Model: resp.Model}, nil
}

func (p *StrategyParser) parseGeneric(ctx context.Context, data []byte, filename, ext string) (*Result, error) {
	resp, err := p.extractor.Extract(ctx, extraction.Request{
		Data:        data,
		ContentType: InferContentType(ext, data),
		Filename:    filename,
		Prompt:      fullTextPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("generic extraction: %w", err)
	}
	return &Result{Text: resp.Text, Method: MethodUnifiedExtract, Model: resp.Model}, nil
}
