package filehub

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/shodown96/filehub/internal/devseed"
)

const mockRefPrefix = "mock://files/"

// MockBackend is an in-memory Backend used by mock mode, the sandbox and
// tests. It reproduces the server's observable behaviour: filtering,
// server-side pagination and content deduplication (identical upload content
// is stored once and shared between entries).
type MockBackend struct {
	mu      sync.Mutex
	entries []*Entry          // newest first
	blobs   map[string][]byte // blob id -> content
	byHash  map[string]string // content hash -> blob id
}

// NewMockBackend returns an empty in-memory backend.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		blobs:  make(map[string][]byte),
		byHash: make(map[string]string),
	}
}

// Seed loads development entries, preserving their created_at timestamps.
func (m *MockBackend) Seed(entries []devseed.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range entries {
		createdAt := strings.TrimSpace(e.CreatedAt)
		if createdAt == "" {
			createdAt = time.Now().UTC().Format(time.RFC3339)
		} else if _, err := time.Parse(time.RFC3339, createdAt); err != nil {
			if _, err := time.Parse("2006-01-02", createdAt); err != nil {
				return fmt.Errorf("seed entry %d: bad created_at %q", i, e.CreatedAt)
			}
			createdAt += "T00:00:00Z"
		}
		fileType := e.FileType
		if fileType == "" {
			fileType = typeFromFilename(e.Filename)
		}
		m.add(e.Name, e.Filename, fileType, []byte(e.Content), createdAt)
	}
	return nil
}

// Len reports the number of entries currently stored.
func (m *MockBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MockBackend) List(ctx context.Context, query url.Values) (*Paginated[Entry], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := make([]*Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if matchesQuery(e, query) {
			matched = append(matched, e)
		}
	}

	page := queryInt(query, "page", 1)
	pageSize := queryInt(query, "page_size", DefaultPageSize)
	total := len(matched)
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	items := []Entry{}
	if start >= 0 && start < total {
		if end > total {
			end = total
		}
		for _, e := range matched[start:end] {
			items = append(items, *e)
		}
	}

	return &Paginated[Entry]{
		Items:       items,
		Page:        page,
		PageSize:    pageSize,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}, nil
}

func (m *MockBackend) Stats(ctx context.Context) (*StorageStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var actual, wouldBe uint64
	for _, data := range m.blobs {
		actual += uint64(len(data))
	}
	for _, e := range m.entries {
		wouldBe += uint64(e.File.Size)
	}
	saved := wouldBe - actual

	percentage := "0.0%"
	ratio := "1.00x"
	if wouldBe > 0 {
		percentage = fmt.Sprintf("%.1f%%", float64(saved)/float64(wouldBe)*100)
	}
	if actual > 0 {
		ratio = fmt.Sprintf("%.2fx", float64(wouldBe)/float64(actual))
	}

	return &StorageStats{
		ActualSpace:        humanize.Bytes(actual),
		WouldBeSpace:       humanize.Bytes(wouldBe),
		SpaceSaved:         humanize.Bytes(saved),
		SavingsPercentage:  percentage,
		DeduplicationRatio: ratio,
		TotalFiles:         len(m.blobs),
		TotalEntries:       len(m.entries),
	}, nil
}

func (m *MockBackend) Upload(ctx context.Context, name, filename string, data []byte) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := m.add(name, filename, typeFromFilename(filename), data, time.Now().UTC().Format(time.RFC3339))
	return entry, nil
}

func (m *MockBackend) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i, e := range m.entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &Error{
			Info:  ErrorInfo{Title: "Not Found", Message: "entry not found"},
			cause: ErrNotFound,
		}
	}

	removed := m.entries[idx]
	m.entries = append(m.entries[:idx], m.entries[idx+1:]...)

	// Drop the blob only when no surviving entry references it.
	for _, e := range m.entries {
		if e.File.ID == removed.File.ID {
			return nil
		}
	}
	delete(m.blobs, removed.File.ID)
	for hash, blobID := range m.byHash {
		if blobID == removed.File.ID {
			delete(m.byHash, hash)
			break
		}
	}
	return nil
}

func (m *MockBackend) Download(ctx context.Context, fileReference string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	blobID := strings.TrimPrefix(fileReference, mockRefPrefix)
	data, ok := m.blobs[blobID]
	if !ok {
		return nil, &Error{
			Info:  ErrorInfo{Title: "Download error", Message: "Failed to download file"},
			cause: ErrNotFound,
		}
	}
	return append([]byte(nil), data...), nil
}

// add stores an entry, deduplicating content by hash. Caller holds m.mu.
func (m *MockBackend) add(name, filename, fileType string, data []byte, createdAt string) *Entry {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	blobID, ok := m.byHash[hash]
	if !ok {
		blobID = uuid.NewString()
		m.byHash[hash] = blobID
		m.blobs[blobID] = append([]byte(nil), data...)
	}

	entry := &Entry{
		ID:   uuid.NewString(),
		Name: name,
		File: StoredFile{
			ID:               blobID,
			OriginalFilename: filename,
			FileType:         fileType,
			Size:             int64(len(data)),
			CreatedAt:        createdAt,
			FileReference:    mockRefPrefix + blobID,
		},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	m.entries = append(m.entries, entry)
	// Newest first, stable for equal timestamps.
	sort.SliceStable(m.entries, func(i, j int) bool {
		return m.entries[i].CreatedAt > m.entries[j].CreatedAt
	})
	return entry
}

func matchesQuery(e *Entry, query url.Values) bool {
	if search := query.Get("search"); search != "" {
		needle := strings.ToLower(search)
		if !strings.Contains(strings.ToLower(e.Name), needle) &&
			!strings.Contains(strings.ToLower(e.File.OriginalFilename), needle) {
			return false
		}
	}
	if fileType := query.Get("file_type"); fileType != "" {
		if !strings.EqualFold(e.File.FileType, fileType) {
			return false
		}
	}
	if raw := query.Get("min_size"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && e.File.Size < n {
			return false
		}
	}
	if raw := query.Get("max_size"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && e.File.Size > n {
			return false
		}
	}
	if after := query.Get("uploaded_after"); after != "" {
		if e.CreatedAt[:min(10, len(e.CreatedAt))] < after {
			return false
		}
	}
	if before := query.Get("uploaded_before"); before != "" {
		if e.CreatedAt[:min(10, len(e.CreatedAt))] > before {
			return false
		}
	}
	return true
}

func queryInt(query url.Values, key string, fallback int) int {
	raw := query.Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func typeFromFilename(filename string) string {
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	return strings.ToLower(ext)
}
