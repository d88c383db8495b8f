package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPProvider implements Provider against the unified extraction gateway.
type HTTPProvider struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

// Ensure HTTPProvider implements Provider
var _ Provider = &HTTPProvider{}

func NewHTTPProvider(baseURL, apiKey, model string) *HTTPProvider {
	if model == "" {
		model = "gemini/doubao"
	}
	return &HTTPProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type extractRequest struct {
	Filename      string `json:"filename,omitempty"`
	ContentType   string `json:"content_type"`
	ContentBase64 string `json:"content_base64"`
	Prompt        string `json:"prompt,omitempty"`
	Model         string `json:"model,omitempty"`
}

type extractResponse struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

func (p *HTTPProvider) Extract(ctx context.Context, req Request) (*Response, error) {
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("empty payload")
	}

	reqPayload := extractRequest{
		Filename:      req.Filename,
		ContentType:   req.ContentType,
		ContentBase64: base64.StdEncoding.EncodeToString(req.Data),
		Prompt:        req.Prompt,
		Model:         p.Model,
	}
	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := p.BaseURL + "/v1/files/extract"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extraction error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var extractResp extractResponse
	if err := json.Unmarshal(bodyBytes, &extractResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	model := extractResp.Model
	if model == "" {
		model = p.Model
	}
	return &Response{Text: extractResp.Text, Model: model}, nil
}
