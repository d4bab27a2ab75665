package filehub

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Field names a single filter field. The values match the outgoing query
// parameter names.
type Field string

const (
	FieldSearch         Field = "search"
	FieldFileType       Field = "file_type"
	FieldMinSize        Field = "min_size"
	FieldMaxSize        Field = "max_size"
	FieldUploadedAfter  Field = "uploaded_after"
	FieldUploadedBefore Field = "uploaded_before"
	FieldPage           Field = "page"
	FieldPageSize       Field = "page_size"
)

// DefaultPageSize is the page size a fresh session starts with.
const DefaultPageSize = 10

// Filters is an immutable snapshot of the current filter, sort and page
// selection. Every change goes through Set, which returns a new snapshot;
// size bounds are kept as the raw user input (kibibytes) and only translated
// to byte thresholds when building the outgoing query.
type Filters struct {
	Search         string
	FileType       string
	MinSize        string
	MaxSize        string
	UploadedAfter  string
	UploadedBefore string
	Page           int
	PageSize       int
}

// NewFilters returns the all-empty default selection.
func NewFilters() Filters {
	return Filters{Page: 1, PageSize: DefaultPageSize}
}

// Set returns a new snapshot with the given field changed. Changing any
// content field resets Page to 1; changing page or page_size writes the
// parsed value into Page.
func (f Filters) Set(field Field, value string) Filters {
	next := f
	switch field {
	case FieldPage:
		next.Page = positiveInt(value, f.Page)
	case FieldPageSize:
		next.PageSize = positiveInt(value, f.PageSize)
		next.Page = positiveInt(value, 1)
	case FieldSearch:
		next.Search = value
		next.Page = 1
	case FieldFileType:
		next.FileType = value
		next.Page = 1
	case FieldMinSize:
		next.MinSize = value
		next.Page = 1
	case FieldMaxSize:
		next.MaxSize = value
		next.Page = 1
	case FieldUploadedAfter:
		next.UploadedAfter = value
		next.Page = 1
	case FieldUploadedBefore:
		next.UploadedBefore = value
		next.Page = 1
	}
	return next
}

// Clear resets every content filter to its empty default, keeps the current
// page size and returns to the first page.
func (f Filters) Clear() Filters {
	return Filters{Page: 1, PageSize: f.PageSize}
}

// HasActiveFilters reports whether any content filter is set. Pagination
// position does not count.
func (f Filters) HasActiveFilters() bool {
	return f.Search != "" ||
		f.FileType != "" ||
		f.MinSize != "" ||
		f.MaxSize != "" ||
		f.UploadedAfter != "" ||
		f.UploadedBefore != ""
}

// Query translates the snapshot into outgoing request parameters. Size bounds
// are entered in kibibytes and sent as byte thresholds; empty or malformed
// fields are omitted entirely rather than sent as empty values.
func (f Filters) Query() url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set(string(FieldSearch), f.Search)
	}
	if f.FileType != "" {
		q.Set(string(FieldFileType), f.FileType)
	}
	if b, ok := kibibytesToBytes(f.MinSize); ok {
		q.Set(string(FieldMinSize), strconv.FormatInt(b, 10))
	}
	if b, ok := kibibytesToBytes(f.MaxSize); ok {
		q.Set(string(FieldMaxSize), strconv.FormatInt(b, 10))
	}
	if d, ok := isoDate(f.UploadedAfter); ok {
		q.Set(string(FieldUploadedAfter), d)
	}
	if d, ok := isoDate(f.UploadedBefore); ok {
		q.Set(string(FieldUploadedBefore), d)
	}
	if f.Page > 0 {
		q.Set(string(FieldPage), strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 {
		q.Set(string(FieldPageSize), strconv.Itoa(f.PageSize))
	}
	return q
}

// Key derives the cache key for this selection. Two snapshots with identical
// field values produce the same key regardless of how they were built:
// url.Values.Encode emits parameters in sorted order.
func (f Filters) Key() string {
	return "files?" + f.Query().Encode()
}

func positiveInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func kibibytesToBytes(value string) (int64, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n * 1024, true
}

func isoDate(value string) (string, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", false
	}
	if _, err := time.Parse("2006-01-02", v); err != nil {
		return "", false
	}
	return v, true
}
