package filehub

import (
	"fmt"
	"os"
	"strings"

	"github.com/shodown96/filehub/internal/devseed"
)

const (
	envMode     = "FILEHUB_RUNTIME_MODE"
	envAPIURL   = "FILEHUB_API_URL"
	envMockSeed = "FILEHUB_MOCK_SEED"

	modeAuto = "auto"
	modeHTTP = "http"
	modeMock = "mock"
)

// NewFromEnv initialises a Client based on FileHub environment variables and
// returns the resolved mode ("http" or "mock").
func NewFromEnv() (client *Client, mode string, err error) {
	mode = strings.ToLower(strings.TrimSpace(os.Getenv(envMode)))
	baseURL := strings.TrimSpace(os.Getenv(envAPIURL))

	switch mode {
	case "", modeAuto:
		if baseURL != "" {
			return newHTTPClient(baseURL)
		}
		return newMockClient()
	case modeHTTP:
		if baseURL == "" {
			return nil, "", fmt.Errorf("filehub: HTTP mode requires %s", envAPIURL)
		}
		return newHTTPClient(baseURL)
	case modeMock:
		return newMockClient()
	default:
		return nil, "", fmt.Errorf("filehub: unsupported %s value %q", envMode, mode)
	}
}

func newHTTPClient(baseURL string) (*Client, string, error) {
	client, err := New(baseURL)
	if err != nil {
		return nil, "", fmt.Errorf("filehub: init HTTP client: %w", err)
	}
	return client, modeHTTP, nil
}

func newMockClient() (*Client, string, error) {
	backend := NewMockBackend()
	if path := strings.TrimSpace(os.Getenv(envMockSeed)); path != "" {
		entries, err := devseed.LoadEntries(path)
		if err != nil {
			return nil, "", fmt.Errorf("filehub: load mock seed: %w", err)
		}
		if err := backend.Seed(entries); err != nil {
			return nil, "", fmt.Errorf("filehub: apply mock seed: %w", err)
		}
	}
	return NewWithBackend(backend), modeMock, nil
}
