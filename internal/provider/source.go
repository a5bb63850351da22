package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// Source returns the raw provider response.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// maxBodyBytes caps how much of a provider response is read.
const maxBodyBytes = 32 << 20

type HTTPSource struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
}

func NewHTTPSource(url, apiKey string) *HTTPSource {
	return &HTTPSource{
		URL:        url,
		APIKey:     apiKey,
		HTTPClient: http.DefaultClient,
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch schedules: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read provider reply: %w", err)
	}
	return body, nil
}

// FileSource serves a payload from disk, for local runs without an upstream.
type FileSource struct {
	Path string
}

func (s FileSource) Fetch(_ context.Context) ([]byte, error) {
	return os.ReadFile(s.Path)
}
