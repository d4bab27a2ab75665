package filehub

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/shodown96/filehub/internal/filehubapi"
	"github.com/shodown96/filehub/internal/httpx"
)

// Client provides access to the FileHub REST API.
type Client struct {
	backend Backend
}

// New constructs an HTTP-backed client for the provided base URL.
func New(baseURL string, opts ...httpx.Option) (*Client, error) {
	cl, err := httpx.NewClient(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return NewWithHTTPClient(cl), nil
}

// NewWithHTTPClient wraps an existing httpx.Client.
func NewWithHTTPClient(httpClient *httpx.Client) *Client {
	return &Client{backend: &httpBackend{client: httpClient}}
}

// NewWithBackend allows callers to provide a custom backend (e.g., mocks).
func NewWithBackend(b Backend) *Client {
	return &Client{backend: b}
}

// List fetches one page of entries matching the given selection.
func (c *Client) List(ctx context.Context, f Filters) (*Paginated[Entry], error) {
	if c == nil || c.backend == nil {
		return nil, fmt.Errorf("filehub: client is nil")
	}
	return c.backend.List(ctx, f.Query())
}

// Stats fetches the backend's deduplication savings figures.
func (c *Client) Stats(ctx context.Context) (*StorageStats, error) {
	if c == nil || c.backend == nil {
		return nil, fmt.Errorf("filehub: client is nil")
	}
	return c.backend.Stats(ctx)
}

// Upload creates a new entry named name from the given file content.
func (c *Client) Upload(ctx context.Context, name, filename string, data io.Reader) (*Entry, error) {
	if c == nil || c.backend == nil {
		return nil, fmt.Errorf("filehub: client is nil")
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("filehub: entry name is required")
	}
	if strings.TrimSpace(filename) == "" {
		return nil, fmt.Errorf("filehub: filename is required")
	}
	payload, err := io.ReadAll(data)
	if err != nil {
		return nil, fmt.Errorf("filehub: read upload payload: %w", err)
	}
	return c.backend.Upload(ctx, name, filename, payload)
}

// Delete removes the entry with the given id.
func (c *Client) Delete(ctx context.Context, id string) error {
	if c == nil || c.backend == nil {
		return fmt.Errorf("filehub: client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("filehub: entry id is required")
	}
	return c.backend.Delete(ctx, id)
}

// Download fetches the stored file's content out-of-band (independent of any
// cache) and writes it to w. It returns the number of bytes written.
func (c *Client) Download(ctx context.Context, file StoredFile, w io.Writer) (int64, error) {
	if c == nil || c.backend == nil {
		return 0, fmt.Errorf("filehub: client is nil")
	}
	if strings.TrimSpace(file.FileReference) == "" {
		return 0, fmt.Errorf("filehub: file reference is required")
	}
	data, err := c.backend.Download(ctx, file.FileReference)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	if err != nil {
		return int64(n), &Error{
			Info:  ErrorInfo{Title: "Download error", Message: "Failed to download file"},
			cause: err,
		}
	}
	return int64(n), nil
}

// SaveTo downloads the stored file into dir, named after its original
// filename, and returns the written path.
func (c *Client) SaveTo(ctx context.Context, file StoredFile, dir string) (string, error) {
	name := filepath.Base(file.OriginalFilename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("filehub: file has no usable original filename")
	}
	path := filepath.Join(dir, name)
	out, err := os.Create(path)
	if err != nil {
		return "", &Error{
			Info:  ErrorInfo{Title: "Download error", Message: "Failed to download file"},
			cause: err,
		}
	}
	defer out.Close()
	if _, err := c.Download(ctx, file, out); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// Backend abstracts the remote surface so tests and local development can
// substitute an in-memory implementation.
type Backend interface {
	List(ctx context.Context, query url.Values) (*Paginated[Entry], error)
	Stats(ctx context.Context) (*StorageStats, error)
	Upload(ctx context.Context, name, filename string, data []byte) (*Entry, error)
	Delete(ctx context.Context, id string) error
	Download(ctx context.Context, fileReference string) ([]byte, error)
}

type httpBackend struct {
	client *httpx.Client
}

func (b *httpBackend) List(ctx context.Context, query url.Values) (*Paginated[Entry], error) {
	if b == nil || b.client == nil {
		return nil, fmt.Errorf("filehub: http backend not configured")
	}
	resp, err := b.client.Do(ctx, &httpx.Request{
		Method: http.MethodGet,
		Path:   "files/",
		Query:  query,
	})
	if err != nil {
		return nil, normalizeError(err)
	}
	body, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		return nil, normalizeError(err)
	}
	var result Paginated[Entry]
	if err := filehubapi.DecodeData(body, &result); err != nil {
		return nil, fmt.Errorf("filehub: decode file listing: %w", err)
	}
	return &result, nil
}

func (b *httpBackend) Stats(ctx context.Context) (*StorageStats, error) {
	if b == nil || b.client == nil {
		return nil, fmt.Errorf("filehub: http backend not configured")
	}
	resp, err := b.client.Do(ctx, &httpx.Request{
		Method: http.MethodGet,
		Path:   "files/savings",
	})
	if err != nil {
		return nil, normalizeError(err)
	}
	body, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		return nil, normalizeError(err)
	}
	var stats StorageStats
	if err := filehubapi.DecodeData(body, &stats); err != nil {
		return nil, fmt.Errorf("filehub: decode storage stats: %w", err)
	}
	return &stats, nil
}

func (b *httpBackend) Upload(ctx context.Context, name, filename string, data []byte) (*Entry, error) {
	if b == nil || b.client == nil {
		return nil, fmt.Errorf("filehub: http backend not configured")
	}
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("filehub: build multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("filehub: build multipart body: %w", err)
	}
	if err := form.WriteField("name", name); err != nil {
		return nil, fmt.Errorf("filehub: build multipart body: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("filehub: build multipart body: %w", err)
	}

	encoded := body.Bytes()
	req := &httpx.Request{
		Method: http.MethodPost,
		Path:   "files/",
		Header: http.Header{"Content-Type": []string{form.FormDataContentType()}},
		Body:   bytes.NewReader(encoded),
		GetBody: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(encoded)), nil
		},
	}
	resp, err := b.client.Do(ctx, req)
	if err != nil {
		return nil, normalizeError(err)
	}
	respBody, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		return nil, normalizeError(err)
	}
	var entry Entry
	if err := filehubapi.DecodeData(respBody, &entry); err != nil {
		return nil, fmt.Errorf("filehub: decode upload response: %w", err)
	}
	return &entry, nil
}

func (b *httpBackend) Delete(ctx context.Context, id string) error {
	if b == nil || b.client == nil {
		return fmt.Errorf("filehub: http backend not configured")
	}
	resp, err := b.client.Do(ctx, &httpx.Request{
		Method: http.MethodDelete,
		Path:   "files/" + url.PathEscape(id) + "/",
	})
	if err != nil {
		return normalizeError(err)
	}
	_ = resp.Body.Close()
	return nil
}

func (b *httpBackend) Download(ctx context.Context, fileReference string) ([]byte, error) {
	if b == nil || b.client == nil {
		return nil, fmt.Errorf("filehub: http backend not configured")
	}
	resp, err := b.client.Do(ctx, &httpx.Request{
		Method: http.MethodGet,
		Path:   fileReference,
	})
	if err != nil {
		return nil, normalizeError(err)
	}
	data, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		return nil, normalizeError(err)
	}
	return data, nil
}
