package objstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPClient implements Client against the storage gateway.
type HTTPClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// Ensure HTTPClient implements Client
var _ Client = &HTTPClient{}

func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *HTTPClient) Get(ctx context.Context, fileKey string) ([]byte, error) {
	if fileKey == "" {
		return nil, fmt.Errorf("empty file key")
	}

	// Keys contain slashes, so the key rides in a query parameter.
	endpoint := fmt.Sprintf("%s/v1/objects?key=%s", c.BaseURL, url.QueryEscape(fileKey))
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("storage error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}
	if len(bodyBytes) == 0 {
		return nil, fmt.Errorf("empty content from storage for key %s", fileKey)
	}
	return bodyBytes, nil
}

type signedURLResponse struct {
	Url string `json:"url"`
}

func (c *HTTPClient) SignedURL(ctx context.Context, fileKey string) (string, error) {
	if fileKey == "" {
		return "", fmt.Errorf("empty file key")
	}

	endpoint := fmt.Sprintf("%s/v1/objects/sign?key=%s", c.BaseURL, url.QueryEscape(fileKey))
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("storage error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var signed signedURLResponse
	if err := json.Unmarshal(bodyBytes, &signed); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	return signed.Url, nil
}
