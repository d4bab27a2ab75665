package filehub

// StoredFile is the deduplicated blob a file entry points at. The backend
// stores identical content once; several entries may share one StoredFile.
type StoredFile struct {
	ID               string `json:"id"`
	OriginalFilename string `json:"original_filename"`
	FileType         string `json:"file_type"`
	Size             int64  `json:"size"`
	CreatedAt        string `json:"created_at"`
	FileReference    string `json:"file"`
}

// Entry is a named reference a user created, pointing at a stored file.
// Entries are immutable once fetched; a new fetch replaces the whole cached
// collection.
type Entry struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	File      StoredFile `json:"file"`
	CreatedAt string     `json:"created_at"`
	UpdatedAt string     `json:"updated_at"`
}

// Paginated captures one server-side page of a result set.
type Paginated[T any] struct {
	Items       []T  `json:"items"`
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// Showing returns the 1-based range of item positions covered by this page,
// for "showing X to Y of Z" displays. Both values are 0 for an empty page.
func (p Paginated[T]) Showing() (from, to int) {
	if p.Total == 0 || p.PageSize <= 0 || len(p.Items) == 0 {
		return 0, 0
	}
	from = (p.Page-1)*p.PageSize + 1
	to = p.Page * p.PageSize
	if to > p.Total {
		to = p.Total
	}
	return from, to
}

// StorageStats reports the backend's deduplication savings. All values are
// pre-formatted or pre-computed by the server and treated as opaque here.
type StorageStats struct {
	ActualSpace        string `json:"actual_space"`
	WouldBeSpace       string `json:"would_be_space"`
	SpaceSaved         string `json:"space_saved"`
	SavingsPercentage  string `json:"savings_percentage"`
	DeduplicationRatio string `json:"deduplication_ratio"`
	TotalFiles         int    `json:"total_files"`
	TotalEntries       int    `json:"total_entries"`
}
