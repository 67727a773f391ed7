package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

type apiRequest struct {
	Text       string `json:"text"`
	Dimensions int    `json:"dimensions"`
	Normalize  bool   `json:"normalize"`
}

type apiResponse struct {
	Embedding []float32 `json:"embedding"`
	Status    string    `json:"status,omitempty"`
}

// maxErrorBody bounds how much of a failed response is kept in a StatusError.
const maxErrorBody = 4096

// apiClient calls a remote embedding endpoint. Requests are never retried.
type apiClient struct {
	http    *http.Client
	limiter *rate.Limiter
}

func newAPIClient() *apiClient {
	return &apiClient{http: &http.Client{}}
}

func (c *apiClient) embed(ctx context.Context, cfg Config, text string) ([]float32, error) {
	if cfg.APIKey == "" || cfg.APIEndpoint == "" {
		return nil, ErrMissingCredentials
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout())
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Endpoint: cfg.APIEndpoint, Err: err}
		}
	}

	payload, err := json.Marshal(apiRequest{Text: text, Dimensions: cfg.Dim, Normalize: true})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embedding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("invalid API endpoint %q: %w", cfg.APIEndpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: cfg.APIEndpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &SchemaError{Expected: cfg.Dim, Err: err}
	}
	if len(out.Embedding) != cfg.Dim {
		return nil, &SchemaError{Expected: cfg.Dim, Actual: len(out.Embedding)}
	}
	return out.Embedding, nil
}
