package filehub

import (
	"context"
	"io"
	"sync"
	"time"
)

// statsKey is the single key of the storage statistics namespace.
const statsKey = "stats"

// Snapshot is the projection a view renders from: lifecycle status, the data
// to show (possibly stale), and the normalized error when there is one.
type Snapshot[T any] struct {
	Status    Status
	Data      *T
	Err       *ErrorInfo
	FetchedAt time.Time
}

// BrowserOptions tunes a browsing session. The zero value selects the
// built-in defaults.
type BrowserOptions struct {
	QuietPeriod time.Duration
	CacheSize   int
	CacheTTL    time.Duration
}

// Browser is one browsing session over the file listing: it owns the filter
// snapshot, the debounce controller that gates filter changes into the
// active query key, a listing cache and a stats cache (isolated per session,
// never global), and performs mutation-driven invalidation. Reads are
// non-blocking projections; change notification flows through Updates.
type Browser struct {
	client  *Client
	deb     *Debouncer
	listing *Cache[Paginated[Entry]]
	stats   *Cache[StorageStats]

	mu       sync.Mutex
	filters  Filters // what the user edits
	active   Filters // what queries run against (debounced)
	lastGood *Paginated[Entry]
	lastKey  string

	updates chan string
	done    chan struct{}
	once    sync.Once
}

// NewBrowser starts a browsing session against client.
func NewBrowser(client *Client, opts *BrowserOptions) *Browser {
	var o BrowserOptions
	if opts != nil {
		o = *opts
	}
	f := NewFilters()
	b := &Browser{
		client:  client,
		deb:     NewDebouncer(o.QuietPeriod),
		listing: NewCache[Paginated[Entry]](o.CacheSize, o.CacheTTL),
		stats:   NewCache[StorageStats](o.CacheSize, o.CacheTTL),
		filters: f,
		active:  f,
		updates: make(chan string, 16),
		done:    make(chan struct{}),
	}
	go b.loop()
	return b
}

// loop forwards debounced filter settles and cache changes into the
// session's update stream. All state writes happen under b.mu; logical
// operations interleave only between them.
func (b *Browser) loop() {
	for {
		select {
		case <-b.done:
			return
		case f := <-b.deb.C():
			b.mu.Lock()
			b.active = f
			b.mu.Unlock()
			b.notify("filters")
		case key := <-b.listing.Updates():
			b.notify(key)
		case key := <-b.stats.Updates():
			b.notify(key)
		}
	}
}

func (b *Browser) notify(what string) {
	select {
	case b.updates <- what:
	default:
	}
}

// Updates delivers a token for every state change worth re-rendering for:
// a debounced filter settle ("filters"), a listing key, or the stats key.
// Delivery is best-effort and never blocks.
func (b *Browser) Updates() <-chan string {
	return b.updates
}

// SetFilter records a single field change. The new snapshot becomes visible
// in Filters immediately but only reaches the active query key after the
// quiet period.
func (b *Browser) SetFilter(field Field, value string) {
	b.mu.Lock()
	b.filters = b.filters.Set(field, value)
	f := b.filters
	b.mu.Unlock()
	b.deb.Push(f)
}

// ClearFilters resets every content filter, keeping the page size.
func (b *Browser) ClearFilters() {
	b.mu.Lock()
	b.filters = b.filters.Clear()
	f := b.filters
	b.mu.Unlock()
	b.deb.Push(f)
}

// Filters returns the user's current (not yet debounced) selection.
func (b *Browser) Filters() Filters {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filters
}

// ActiveFilters returns the debounced selection queries run against.
func (b *Browser) ActiveFilters() Filters {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Entries returns the listing projection for the active selection, starting
// a fetch when needed. While a newly selected key's fetch is still pending,
// the last-known-good page of the previously observed key is served so the
// view never collapses to empty between keystrokes.
func (b *Browser) Entries(ctx context.Context) Snapshot[Paginated[Entry]] {
	b.mu.Lock()
	f := b.active
	b.mu.Unlock()

	key := f.Key()
	entry := b.listing.Observe(ctx, key, func(ctx context.Context) (*Paginated[Entry], error) {
		return b.client.List(ctx, f)
	})

	snap := Snapshot[Paginated[Entry]]{
		Status:    entry.Status,
		Data:      entry.Value,
		Err:       entry.Err,
		FetchedAt: entry.FetchedAt,
	}

	b.mu.Lock()
	if entry.Status == StatusSuccess {
		b.lastKey = key
		b.lastGood = entry.Value
	} else if snap.Data == nil && b.lastGood != nil {
		// Stale-while-loading across key changes.
		snap.Data = b.lastGood
	}
	b.mu.Unlock()
	return snap
}

// Stats returns the storage statistics projection, fetching when needed.
func (b *Browser) Stats(ctx context.Context) Snapshot[StorageStats] {
	entry := b.stats.Observe(ctx, statsKey, func(ctx context.Context) (*StorageStats, error) {
		return b.client.Stats(ctx)
	})
	return Snapshot[StorageStats]{
		Status:    entry.Status,
		Data:      entry.Value,
		Err:       entry.Err,
		FetchedAt: entry.FetchedAt,
	}
}

// Delete removes an entry. On success both the listing namespace (every
// cached key, not just the active one) and the stats namespace are marked
// stale, because a delete changes the listing and the aggregate savings
// figures. On failure nothing is invalidated and the normalized error is
// returned.
func (b *Browser) Delete(ctx context.Context, id string) error {
	if err := b.client.Delete(ctx, id); err != nil {
		return err
	}
	b.invalidateAfterMutation()
	return nil
}

// Upload creates an entry and invalidates the same namespaces as Delete.
func (b *Browser) Upload(ctx context.Context, name, filename string, data io.Reader) (*Entry, error) {
	entry, err := b.client.Upload(ctx, name, filename, data)
	if err != nil {
		return nil, err
	}
	b.invalidateAfterMutation()
	return entry, nil
}

// Download fetches the stored file out-of-band; the caches are not involved.
func (b *Browser) Download(ctx context.Context, file StoredFile, w io.Writer) (int64, error) {
	return b.client.Download(ctx, file, w)
}

func (b *Browser) invalidateAfterMutation() {
	b.listing.InvalidateAll()
	b.stats.InvalidateAll()
}

// Close tears the session down: the pending debounce timer (if any) is
// canceled and will not emit.
func (b *Browser) Close() {
	b.once.Do(func() {
		b.deb.Stop()
		close(b.done)
	})
}
