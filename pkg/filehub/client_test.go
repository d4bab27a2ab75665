package filehub_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shodown96/filehub/pkg/filehub"
)

func TestListSendsNormalizedQuery(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	srv := newAPIServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"code":    200,
			"message": "ok",
			"data": map[string]any{
				"items": []map[string]any{
					{
						"id":   "e1",
						"name": "Quarterly report",
						"file": map[string]any{
							"id":                "f1",
							"original_filename": "report.pdf",
							"file_type":         "pdf",
							"size":              20480,
							"created_at":        "2026-02-01T10:00:00Z",
							"file":              "/media/f1",
						},
						"created_at": "2026-02-01T10:00:00Z",
						"updated_at": "2026-02-01T10:00:00Z",
					},
				},
				"page":         1,
				"page_size":    10,
				"total":        1,
				"total_pages":  1,
				"has_next":     false,
				"has_previous": false,
			},
		})
	}))
	defer srv.Close()

	client, err := filehub.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	f := filehub.NewFilters().
		Set(filehub.FieldSearch, "report").
		Set(filehub.FieldMinSize, "10")
	page, err := client.List(context.Background(), f)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if gotPath != "/files/" {
		t.Fatalf("path mismatch: %q", gotPath)
	}
	if gotQuery["min_size"] != "10240" {
		t.Fatalf("min_size on the wire = %q, want KiB converted to bytes", gotQuery["min_size"])
	}
	if gotQuery["search"] != "report" || gotQuery["page"] != "1" {
		t.Fatalf("query mismatch: %v", gotQuery)
	}
	if len(page.Items) != 1 || page.Items[0].File.Size != 20480 {
		t.Fatalf("decoded page mismatch: %+v", page)
	}
	if from, to := page.Showing(); from != 1 || to != 1 {
		t.Fatalf("Showing() = %d..%d, want 1..1", from, to)
	}
}

func TestStatsDecodesEnvelope(t *testing.T) {
	srv := newAPIServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/savings" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"code": 200,
			"data": map[string]any{
				"actual_space":        "1.2 MB",
				"would_be_space":      "3.6 MB",
				"space_saved":         "2.4 MB",
				"savings_percentage":  "66.7%",
				"deduplication_ratio": "3.00x",
				"total_files":         4,
				"total_entries":       12,
			},
		})
	}))
	defer srv.Close()

	client, err := filehub.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	stats, err := client.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.SpaceSaved != "2.4 MB" || stats.TotalEntries != 12 {
		t.Fatalf("stats mismatch: %+v", stats)
	}
}

func TestUploadSendsMultipartForm(t *testing.T) {
	var gotName, gotFilename, gotContent string
	srv := newAPIServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/files/" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotName = r.FormValue("name")
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotFilename = header.Filename
		var buf bytes.Buffer
		buf.ReadFrom(file)
		gotContent = buf.String()

		// Upload responses carry the entry directly, without an envelope.
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id":   "e-new",
			"name": gotName,
			"file": map[string]any{
				"id":                "f-new",
				"original_filename": gotFilename,
				"file_type":         "txt",
				"size":              len(gotContent),
				"created_at":        "2026-03-01T00:00:00Z",
				"file":              "/media/f-new",
			},
			"created_at": "2026-03-01T00:00:00Z",
			"updated_at": "2026-03-01T00:00:00Z",
		})
	}))
	defer srv.Close()

	client, err := filehub.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	entry, err := client.Upload(context.Background(), "Notes", "notes.txt", strings.NewReader("hello filehub"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if gotName != "Notes" || gotFilename != "notes.txt" || gotContent != "hello filehub" {
		t.Fatalf("form mismatch: name=%q filename=%q content=%q", gotName, gotFilename, gotContent)
	}
	if entry.ID != "e-new" || entry.File.OriginalFilename != "notes.txt" {
		t.Fatalf("decoded entry mismatch: %+v", entry)
	}
}

func TestUploadRejectsBlankName(t *testing.T) {
	client := filehub.NewWithBackend(filehub.NewMockBackend())
	if _, err := client.Upload(context.Background(), "  ", "a.txt", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for blank entry name")
	}
	if _, err := client.Upload(context.Background(), "a", "", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for blank filename")
	}
}

func TestDeleteTargetsEntryPath(t *testing.T) {
	var gotMethod, gotPath string
	srv := newAPIServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client, err := filehub.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := client.Delete(context.Background(), "abc-123"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/files/abc-123/" {
		t.Fatalf("request mismatch: %s %s", gotMethod, gotPath)
	}
}

func TestDownloadFollowsFileReference(t *testing.T) {
	blobs := newAPIServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/media/blob-1" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("raw file bytes"))
	}))
	defer blobs.Close()

	// The API base differs from the blob host; the absolute reference wins.
	client, err := filehub.New("http://filehub.invalid/api")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	file := filehub.StoredFile{
		OriginalFilename: "blob.bin",
		FileReference:    blobs.URL + "/media/blob-1",
	}

	var buf bytes.Buffer
	n, err := client.Download(context.Background(), file, &buf)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if n != int64(len("raw file bytes")) || buf.String() != "raw file bytes" {
		t.Fatalf("downloaded %d bytes %q", n, buf.String())
	}

	dir := t.TempDir()
	path, err := client.SaveTo(context.Background(), file, dir)
	if err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	if filepath.Base(path) != "blob.bin" {
		t.Fatalf("saved as %q, want the original filename", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "raw file bytes" {
		t.Fatalf("saved content mismatch: %q", string(data))
	}
}

func TestServerErrorKeepsServerMessage(t *testing.T) {
	srv := newAPIServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"code": 404, "message": "entry not found"})
	}))
	defer srv.Close()

	client, err := filehub.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = client.Delete(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !errors.Is(err, filehub.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound in the chain", err)
	}
	info := filehub.AsErrorInfo(err)
	if info.Title != "Not Found" || info.Message != "entry not found" {
		t.Fatalf("info = %+v, want the server-provided message kept", info)
	}
}

func TestConnectivityFailureIsNormalized(t *testing.T) {
	srv := newAPIServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	base := srv.URL
	srv.Close() // nothing listens anymore

	client, err := filehub.New(base)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.List(context.Background(), filehub.NewFilters())
	if err == nil {
		t.Fatal("expected error against a closed server")
	}
	if info := filehub.AsErrorInfo(err); info != filehub.NetworkErrorInfo {
		t.Fatalf("info = %+v, want the fixed network payload", info)
	}
}

type apiServer struct {
	URL      string
	listener net.Listener
	server   *http.Server
}

func (s *apiServer) Close() {
	_ = s.server.Shutdown(context.Background())
	_ = s.listener.Close()
}

func newAPIServer(t *testing.T, handler http.Handler) *apiServer {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("network disabled for tests: %v", err)
	}
	srv := &http.Server{Handler: handler}
	ts := &apiServer{
		URL:      "http://" + ln.Addr().String(),
		listener: ln,
		server:   srv,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			t.Logf("test server serve error: %v", err)
		}
	}()
	return ts
}
