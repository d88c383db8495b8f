package extraction

import "context"

// Provider defines the interface for the external content extraction service.
// Implementations turn raw file bytes into text using a vision or document
// model; which model served the request is reported back for provenance.
type Provider interface {
	Extract(ctx context.Context, req Request) (*Response, error)
}

type Request struct {
	Data        []byte
	ContentType string
	Filename    string
	Prompt      string
}

type Response struct {
	Text  string
	Model string
}
