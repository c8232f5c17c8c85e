package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/fiatops/custody-backoffice/internal/logging"
)

// In-memory voucher store for local development. Files are held for the
// lifetime of the process only.
type store struct {
	mu    sync.Mutex
	files map[string][]byte
}

func main() {
	logging.Init("mock-voucher-store", "info", os.Getenv("APP_ENV"))

	s := &store{files: make(map[string][]byte)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
			slog.Error("failed to write health response", "error", err)
		}
	})
	mux.HandleFunc("POST /vouchers", s.handleUpload)
	mux.HandleFunc("GET /vouchers/{id}", s.handleGet)

	slog.Info("mock voucher store started", "addr", ":8081")
	if err := http.ListenAndServe(":8081", mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func (s *store) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("voucher")
	if err != nil {
		http.Error(w, "voucher file required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, 10<<20))
	if err != nil {
		http.Error(w, "read failed", http.StatusInternalServerError)
		return
	}

	id := uuid.New().String()
	s.mu.Lock()
	s.files[id] = content
	s.mu.Unlock()

	path := fmt.Sprintf("/vouchers/%s", id)
	slog.Info("voucher stored", "path", path, "size", len(content))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]string{"path": path}); err != nil {
		slog.Error("failed to write upload response", "error", err)
	}
}

func (s *store) handleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	content, ok := s.files[r.PathValue("id")]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := w.Write(content); err != nil {
		slog.Error("failed to write voucher", "error", err)
	}
}
