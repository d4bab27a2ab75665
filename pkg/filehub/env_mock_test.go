package filehub_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shodown96/filehub/internal/devseed"
	"github.com/shodown96/filehub/pkg/filehub"
)

func mockClientWithFiles(t *testing.T) (*filehub.Client, *filehub.MockBackend) {
	t.Helper()
	backend := filehub.NewMockBackend()
	client := filehub.NewWithBackend(backend)
	ctx := context.Background()

	uploads := []struct {
		name     string
		filename string
		content  string
	}{
		{"Quarterly report", "report.pdf", "pdf content shared"},
		{"Report copy", "report-copy.pdf", "pdf content shared"},
		{"Team photo", "team.png", "png content"},
		{"Notes", "notes.txt", "plain notes"},
	}
	for _, u := range uploads {
		if _, err := client.Upload(ctx, u.name, u.filename, strings.NewReader(u.content)); err != nil {
			t.Fatalf("upload %s: %v", u.name, err)
		}
	}
	return client, backend
}

func TestMockBackendDeduplicatesContent(t *testing.T) {
	client, backend := mockClientWithFiles(t)

	stats, err := client.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	// Four entries, but two share identical content.
	if stats.TotalEntries != 4 {
		t.Fatalf("TotalEntries = %d, want 4", stats.TotalEntries)
	}
	if stats.TotalFiles != 3 {
		t.Fatalf("TotalFiles = %d, want 3 (identical content stored once)", stats.TotalFiles)
	}
	if backend.Len() != 4 {
		t.Fatalf("Len = %d, want 4", backend.Len())
	}
	if stats.SpaceSaved == "" || stats.DeduplicationRatio == "" {
		t.Fatalf("stats missing display strings: %+v", stats)
	}
}

func TestMockBackendListFilters(t *testing.T) {
	client, _ := mockClientWithFiles(t)
	ctx := context.Background()

	cases := []struct {
		name      string
		filters   filehub.Filters
		wantNames []string
	}{
		{
			name:      "search matches entry name case-insensitively",
			filters:   filehub.NewFilters().Set(filehub.FieldSearch, "REPORT"),
			wantNames: []string{"Quarterly report", "Report copy"},
		},
		{
			name:      "search matches original filename",
			filters:   filehub.NewFilters().Set(filehub.FieldSearch, "team.png"),
			wantNames: []string{"Team photo"},
		},
		{
			name:      "file type filter",
			filters:   filehub.NewFilters().Set(filehub.FieldFileType, "pdf"),
			wantNames: []string{"Quarterly report", "Report copy"},
		},
		{
			name:      "no match yields an empty page",
			filters:   filehub.NewFilters().Set(filehub.FieldSearch, "nothing-here"),
			wantNames: []string{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := client.List(ctx, tc.filters)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			names := make([]string, 0, len(page.Items))
			for _, e := range page.Items {
				names = append(names, e.Name)
			}
			if len(names) != len(tc.wantNames) {
				t.Fatalf("got %v, want %v", names, tc.wantNames)
			}
			want := map[string]bool{}
			for _, n := range tc.wantNames {
				want[n] = true
			}
			for _, n := range names {
				if !want[n] {
					t.Fatalf("unexpected entry %q in %v", n, names)
				}
			}
			if page.Total != len(tc.wantNames) {
				t.Fatalf("Total = %d, want %d", page.Total, len(tc.wantNames))
			}
		})
	}
}

func TestMockBackendSizeFilterUsesBytes(t *testing.T) {
	backend := filehub.NewMockBackend()
	client := filehub.NewWithBackend(backend)
	ctx := context.Background()

	small := strings.Repeat("a", 512)
	large := strings.Repeat("b", 4096)
	if _, err := client.Upload(ctx, "small", "small.bin", strings.NewReader(small)); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, err := client.Upload(ctx, "large", "large.bin", strings.NewReader(large)); err != nil {
		t.Fatalf("upload: %v", err)
	}

	// min_size is expressed in KiB by the caller; 1 KiB excludes the 512-byte
	// file.
	page, err := client.List(ctx, filehub.NewFilters().Set(filehub.FieldMinSize, "1"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 1 || page.Items[0].Name != "large" {
		t.Fatalf("min_size page = %+v, want only the large file", page.Items)
	}

	page, err = client.List(ctx, filehub.NewFilters().Set(filehub.FieldMaxSize, "1"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 1 || page.Items[0].Name != "small" {
		t.Fatalf("max_size page = %+v, want only the small file", page.Items)
	}
}

func TestMockBackendPagination(t *testing.T) {
	backend := filehub.NewMockBackend()
	client := filehub.NewWithBackend(backend)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		name := string(rune('a' + i))
		if _, err := client.Upload(ctx, name, name+".txt", strings.NewReader("content "+name)); err != nil {
			t.Fatalf("upload: %v", err)
		}
	}

	f := filehub.NewFilters().Set(filehub.FieldPageSize, "3")
	page, err := client.List(ctx, f)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 7 || page.TotalPages != 3 {
		t.Fatalf("total=%d totalPages=%d, want 7 and 3", page.Total, page.TotalPages)
	}

	last, err := client.List(ctx, f.Set(filehub.FieldPage, "3"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(last.Items) != 1 {
		t.Fatalf("last page has %d items, want 1", len(last.Items))
	}
	if last.HasNext || !last.HasPrevious {
		t.Fatalf("last page navigation flags: next=%v previous=%v", last.HasNext, last.HasPrevious)
	}

	beyond, err := client.List(ctx, f.Set(filehub.FieldPage, "9"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(beyond.Items) != 0 {
		t.Fatalf("out-of-range page has %d items, want 0", len(beyond.Items))
	}
}

func TestMockBackendDeleteKeepsSharedBlob(t *testing.T) {
	client, _ := mockClientWithFiles(t)
	ctx := context.Background()

	page, err := client.List(ctx, filehub.NewFilters().Set(filehub.FieldSearch, "Report copy"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("lookup found %d entries", page.Total)
	}
	copyEntry := page.Items[0]

	if err := client.Delete(ctx, copyEntry.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// The surviving entry still downloads the shared content.
	survivor, err := client.List(ctx, filehub.NewFilters().Set(filehub.FieldSearch, "Quarterly"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var buf bytes.Buffer
	if _, err := client.Download(ctx, survivor.Items[0].File, &buf); err != nil {
		t.Fatalf("Download after sibling delete: %v", err)
	}
	if buf.String() != "pdf content shared" {
		t.Fatalf("downloaded %q", buf.String())
	}

	stats, err := client.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalEntries != 3 || stats.TotalFiles != 3 {
		t.Fatalf("stats after delete = %d entries / %d files, want 3/3", stats.TotalEntries, stats.TotalFiles)
	}
}

func TestMockBackendDeleteUnknownEntry(t *testing.T) {
	client, _ := mockClientWithFiles(t)
	err := client.Delete(context.Background(), "no-such-id")
	if err == nil {
		t.Fatal("expected error for unknown entry")
	}
	if !errors.Is(err, filehub.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound in the chain", err)
	}
}

func TestMockBackendSeedOrdersNewestFirst(t *testing.T) {
	backend := filehub.NewMockBackend()
	err := backend.Seed([]devseed.Entry{
		{Name: "old", Filename: "old.txt", Content: "old content", CreatedAt: "2025-01-01"},
		{Name: "new", Filename: "new.txt", Content: "new content", CreatedAt: "2026-05-01T12:00:00Z"},
		{Name: "mid", Filename: "mid.txt", Content: "mid content", CreatedAt: "2025-09-15"},
	})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	client := filehub.NewWithBackend(backend)
	page, err := client.List(context.Background(), filehub.NewFilters())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var names []string
	for _, e := range page.Items {
		names = append(names, e.Name)
	}
	want := []string{"new", "mid", "old"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("order = %v, want %v", names, want)
		}
	}
}

func TestMockBackendSeedRejectsBadTimestamp(t *testing.T) {
	backend := filehub.NewMockBackend()
	err := backend.Seed([]devseed.Entry{
		{Name: "bad", Filename: "bad.txt", Content: "x", CreatedAt: "January 1st"},
	})
	if err == nil {
		t.Fatal("expected error for unparseable created_at")
	}
}

func TestMockBackendDateFilters(t *testing.T) {
	backend := filehub.NewMockBackend()
	if err := backend.Seed([]devseed.Entry{
		{Name: "january", Filename: "jan.txt", Content: "jan", CreatedAt: "2026-01-15"},
		{Name: "march", Filename: "mar.txt", Content: "mar", CreatedAt: "2026-03-20"},
		{Name: "june", Filename: "jun.txt", Content: "jun", CreatedAt: "2026-06-05"},
	}); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	client := filehub.NewWithBackend(backend)
	ctx := context.Background()

	page, err := client.List(ctx, filehub.NewFilters().
		Set(filehub.FieldUploadedAfter, "2026-02-01").
		Set(filehub.FieldUploadedBefore, "2026-05-31"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 1 || page.Items[0].Name != "march" {
		t.Fatalf("date-filtered page = %+v, want only march", page.Items)
	}
}
