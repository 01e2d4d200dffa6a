// Package server implements the HTTP façade over the clip Store.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/clipbridge/clipbridge/model"
	"github.com/clipbridge/clipbridge/storage"
)

const shutdownTimeout = 5 * time.Second

// Service translates HTTP requests to Store operations and validates payloads.
// It holds no state of its own besides the Store it delegates to.
type Service struct {
	store   *storage.Store
	logger  *zap.Logger
	metrics *metrics
	now     func() time.Time
}

// Router builds the HTTP handler.
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(permissiveCORS)
	r.Use(s.metrics.middleware)

	r.Get("/clip", s.getClip)
	r.Get("/clip/latest", s.getClip)
	r.Post("/clip", s.postClip)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusNotFound, "Not found")
	})

	return r
}

// ListenAndServe runs the façade until ctx is canceled, then drains in-flight
// requests so no persisted write is cut short.
func (s *Service) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return fmt.Errorf("listen (%s): %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

// getClip serves GET /clip and its /clip/latest alias.
func (s *Service) getClip(w http.ResponseWriter, r *http.Request) {
	clip, ok := s.store.Latest()
	if !ok {
		s.writeError(w, http.StatusNotFound, "No clip available")
		return
	}

	s.writeJSON(w, http.StatusOK, clip)
}

// postClip serves POST /clip: validate, stamp, persist.
func (s *Service) postClip(w http.ResponseWriter, r *http.Request) {
	req := model.PushRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			s.writeError(w, http.StatusBadRequest, "Missing body")
			return
		}
		s.writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	kind, err := model.ParseKind(req.Type)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "type must be 'text' or 'image'")
		return
	}
	if !req.HasData() {
		s.writeError(w, http.StatusBadRequest, "data is required")
		return
	}

	mime := req.Mime
	if mime == "" {
		mime = model.DefaultMime(kind)
	}
	source := model.Origin(req.Source)
	if source == model.UnknownOrigin {
		source = model.DesktopOrigin
	}

	clip := model.Clip{
		Type:      kind,
		Data:      req.Data,
		Mime:      mime,
		Source:    source,
		CreatedAt: s.now().Unix(),
	}

	if err := s.store.Put(r.Context(), clip); err != nil {
		s.logger.Warn("persisting clip", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Failed to persist clip")
		return
	}

	s.logger.Debug("clip stored",
		zap.String("type", string(clip.Type)),
		zap.String("source", string(clip.Source)),
	)
	s.writeJSON(w, http.StatusOK, model.AckResponse{Status: "ok"})
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("encoding response", zap.Error(err))
	}
}

func (s *Service) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// permissiveCORS stamps the permissive cross-origin header on every response
// and short-circuits preflight requests. The server is consumed by heterogeneous
// clients including browser-based ones, so the header must be unconditional.
func permissiveCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewService creates a new Service object.
func NewService(store *storage.Store, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%s: must be non-nil", "store")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:   store,
		logger:  logger,
		metrics: newMetrics(),
		now:     time.Now,
	}, nil
}
