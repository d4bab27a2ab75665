// Command filehub-sandbox runs a local FileHub API against the in-memory
// backend, so the HTTP client and examples can be exercised without a real
// deployment. Latency and failure injection make cache and error handling
// observable from the outside.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gopkg.in/yaml.v3"

	"github.com/shodown96/filehub/internal/devseed"
	"github.com/shodown96/filehub/pkg/filehub"
)

type failConfig struct {
	Rate float64 `yaml:"rate"`
	Code int     `yaml:"code"`
}

type config struct {
	Addr    string        `yaml:"addr"`
	Seed    string        `yaml:"seed"`
	Latency time.Duration `yaml:"latency"`
	Fail    failConfig    `yaml:"fail"`
}

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	addr := flag.String("addr", ":8787", "listen address")
	seed := flag.String("seed", "", "path to JSON seed for the in-memory backend")
	latency := flag.Duration("latency", 0, "artificial latency to inject per request")
	fail := flag.String("fail", "", "failure injection (rate=<float>,code=<httpStatus>)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg := config{Addr: *addr}
	if *configPath != "" {
		loaded, err := loadConfig(*configPath)
		if err != nil {
			logger.Error("load config", "path", *configPath, "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	// Flags set on the command line win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "seed":
			cfg.Seed = *seed
		case "latency":
			cfg.Latency = *latency
		}
	})
	if *fail != "" {
		parsed, err := parseFailConfig(*fail)
		if err != nil {
			logger.Error("parse fail flag", "err", err)
			os.Exit(1)
		}
		cfg.Fail = parsed
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8787"
	}

	backend := filehub.NewMockBackend()
	if cfg.Seed != "" {
		entries, err := devseed.LoadEntries(cfg.Seed)
		if err != nil {
			logger.Error("load seed", "path", cfg.Seed, "err", err)
			os.Exit(1)
		}
		if err := backend.Seed(entries); err != nil {
			logger.Error("apply seed", "path", cfg.Seed, "err", err)
			os.Exit(1)
		}
		logger.Info("seeded backend", "entries", backend.Len())
	}

	s := &sandbox{backend: backend, logger: logger}

	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	r.Use(injection(cfg.Latency, cfg.Fail))
	r.Use(middleware.Recoverer)

	r.Get("/files/", s.handleList)
	r.Get("/files/savings", s.handleStats)
	r.Post("/files/", s.handleUpload)
	r.Delete("/files/{id}/", s.handleDelete)
	r.Get("/media/{blobID}", s.handleMedia)

	host := cfg.Addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	logger.Info("filehub-sandbox listening", "addr", cfg.Addr)
	fmt.Println()
	fmt.Println("export FILEHUB_RUNTIME_MODE=http")
	fmt.Printf("export FILEHUB_API_URL=http://%s\n", host)
	fmt.Println()

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}

type sandbox struct {
	backend *filehub.MockBackend
	logger  *slog.Logger
}

func (s *sandbox) handleList(w http.ResponseWriter, r *http.Request) {
	page, err := s.backend.List(r.Context(), r.URL.Query())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for i := range page.Items {
		rewriteReference(&page.Items[i])
	}
	writeEnvelope(w, http.StatusOK, page)
}

func (s *sandbox) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.backend.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeEnvelope(w, http.StatusOK, stats)
}

func (s *sandbox) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := r.FormValue("name")
	if strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := s.backend.Upload(r.Context(), name, header.Filename, data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	created := *entry
	rewriteReference(&created)

	// Upload responses carry the entry directly, without an envelope.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(created); err != nil {
		s.logger.Error("encode upload response", "err", err)
	}
}

func (s *sandbox) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.backend.Delete(r.Context(), id); err != nil {
		if errors.Is(err, filehub.ErrNotFound) {
			writeError(w, http.StatusNotFound, "entry not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *sandbox) handleMedia(w http.ResponseWriter, r *http.Request) {
	blobID := chi.URLParam(r, "blobID")
	data, err := s.backend.Download(r.Context(), blobID)
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := w.Write(data); err != nil {
		s.logger.Error("write media response", "err", err)
	}
}

// rewriteReference turns the backend's internal blob reference into a path
// the HTTP client can fetch from this server.
func rewriteReference(e *filehub.Entry) {
	e.File.FileReference = "/media/" + e.File.ID
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}

func injection(delay time.Duration, fail failConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if delay > 0 {
				time.Sleep(delay)
			}
			if fail.Rate > 0 && rand.Float64() < fail.Rate {
				code := fail.Code
				if code == 0 {
					code = http.StatusInternalServerError
				}
				writeError(w, code, "failure injected")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeEnvelope(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	payload := map[string]any{"code": code, "message": "ok", "data": data}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "message": message})
}

func loadConfig(path string) (config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return config{}, err
	}
	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func parseFailConfig(raw string) (failConfig, error) {
	cfg := failConfig{Code: http.StatusInternalServerError}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		keyVal := strings.SplitN(part, "=", 2)
		if len(keyVal) != 2 {
			return failConfig{}, fmt.Errorf("invalid fail segment %q", part)
		}
		switch strings.TrimSpace(keyVal[0]) {
		case "rate":
			val, err := strconv.ParseFloat(strings.TrimSpace(keyVal[1]), 64)
			if err != nil {
				return failConfig{}, err
			}
			cfg.Rate = val
		case "code":
			val, err := strconv.Atoi(strings.TrimSpace(keyVal[1]))
			if err != nil {
				return failConfig{}, err
			}
			cfg.Code = val
		default:
			return failConfig{}, fmt.Errorf("unknown fail key %q", keyVal[0])
		}
	}
	return cfg, nil
}
