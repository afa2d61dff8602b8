package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/TrashHobbit/modelkit/internal/descriptor"
	"github.com/TrashHobbit/modelkit/internal/logbook"
)

// ServerStatus reports runtime lifecycle states for the preview server.
type ServerStatus string

const (
	StatusStarting ServerStatus = "starting"
	StatusReady    ServerStatus = "ready"
	StatusDraining ServerStatus = "draining"
)

// Server exposes the descriptor output directory plus a small JSON API.
type Server struct {
	settings Settings
	dir      string
	log      *logbook.Logbook
	clock    func() time.Time

	mu        sync.RWMutex
	server    *http.Server
	listener  net.Listener
	status    ServerStatus
	startTime time.Time
}

// Option customizes server construction.
type Option func(*Server)

// WithLogbook attaches a run log.
func WithLogbook(log *logbook.Logbook) Option {
	return func(s *Server) { s.log = log }
}

// WithClock allows tests to control timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewServer prepares a preview server over the given descriptor directory.
func NewServer(settings Settings, dir string, opts ...Option) *Server {
	s := &Server{
		settings: settings,
		dir:      dir,
		clock:    func() time.Time { return time.Now().UTC() },
		status:   StatusStarting,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Start binds the TCP listener and begins serving HTTP traffic.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("preview: server is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("preview: server already started")
	}
	if _, err := os.Stat(s.dir); err != nil {
		return fmt.Errorf("preview: descriptor directory %s: %w", s.dir, err)
	}
	addr := s.settings.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("preview: listen %s: %w", addr, err)
	}
	s.listener = listener
	s.startTime = s.clock()

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/api/descriptor", s.handleDescriptor).Methods(http.MethodGet)
	router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.dir))).Methods(http.MethodGet, http.MethodHead)

	server := &http.Server{
		Handler:      corsMiddleware(router),
		ReadTimeout:  s.settings.ReadTimeout,
		WriteTimeout: s.settings.WriteTimeout,
		IdleTimeout:  s.settings.IdleTimeout,
	}
	if ctx != nil {
		server.BaseContext = func(net.Listener) context.Context { return ctx }
	}
	s.server = server
	s.status = StatusReady
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("preview: serve error: %v", err)
		}
	}()
	s.log.Info("preview: serving %s on %s", s.dir, listener.Addr().String())
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight requests to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil || s.server == nil {
		return nil
	}
	s.status = StatusDraining
	deadline := ctx
	if deadline == nil {
		var cancel context.CancelFunc
		deadline, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := s.server.Shutdown(deadline); err != nil {
		return err
	}
	s.listener = nil
	s.server = nil
	return nil
}

// Addr returns the bound TCP address once the server has started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the HTTP base URL for the running server.
func (s *Server) BaseURL() string {
	addr := s.Addr()
	if addr == "" {
		return s.settings.URL()
	}
	return "http://" + addr
}

// Status reports the server's lifecycle state.
func (s *Server) Status() ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Server) uptimeSeconds() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startTime.IsZero() {
		return 0
	}
	return int64(time.Since(s.startTime).Seconds())
}

type healthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        string(s.Status()),
		UptimeSeconds: s.uptimeSeconds(),
	})
}

type descriptorResponse struct {
	Format      string `json:"format"`
	GeneratedBy string `json:"generated_by"`
	Layers      int    `json:"layers"`
	Tensors     int    `json:"tensors"`
	BlobBytes   int64  `json:"blob_bytes"`
	Classes     int    `json:"classes"`
}

func (s *Server) handleDescriptor(w http.ResponseWriter, r *http.Request) {
	doc, err := descriptor.ReadFile(s.descriptorPath())
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "descriptor not found; run convert first"})
		return
	}
	entries := doc.Entries()
	resp := descriptorResponse{
		Format:      doc.Format,
		GeneratedBy: doc.GeneratedBy,
		Layers:      len(doc.ModelTopology.ModelConfig.Config.Layers),
		Tensors:     len(entries),
		BlobBytes:   doc.BlobBytes(),
	}
	// The classifier head is the last manifest tensor (its bias).
	if len(entries) > 0 {
		last := entries[len(entries)-1]
		if len(last.Shape) > 0 {
			resp.Classes = last.Shape[len(last.Shape)-1]
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) descriptorPath() string {
	return filepath.Join(s.dir, "model.json")
}

// corsMiddleware lets the browser app fetch model.json and weights.bin from
// any origin during development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
