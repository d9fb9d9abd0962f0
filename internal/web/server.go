package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"landlord-rl/internal/experience"
	"landlord-rl/internal/game"
)

// PipelineStatus is the subset of the training pipeline the status
// endpoints expose. It is satisfied by *training.Pipeline.
type PipelineStatus interface {
	TotalFrames() uint64
	PoolStats() [game.NumRoles]experience.Stats
	SnapshotVersions() [game.NumRoles]uint64
	LearnerFrames(role game.Role) uint64
	LearnerLoss(role game.Role) float64
}

// RoleStatus is the per-role slice of the /status payload.
type RoleStatus struct {
	Role            string  `json:"role"`
	Frames          uint64  `json:"frames"`
	Loss            float64 `json:"loss"`
	SnapshotVersion uint64  `json:"snapshot_version"`
	BufferCapacity  int     `json:"buffer_capacity"`
	BufferFull      int     `json:"buffer_full"`
	BufferFree      int     `json:"buffer_free"`
	TotalPushed     uint64  `json:"total_pushed"`
	TotalDrained    uint64  `json:"total_drained"`
}

// StatusPayload is the /status response body.
type StatusPayload struct {
	TotalFrames uint64       `json:"total_frames"`
	Roles       []RoleStatus `json:"roles"`
	ReportedAt  time.Time    `json:"reported_at"`
}

// Server serves training status over HTTP
type Server struct {
	srv    *http.Server
	logger zerolog.Logger
}

// NewServer builds a status server for the given pipeline
func NewServer(addr string, p PipelineStatus, logger zerolog.Logger) *Server {
	l := logger.With().Str("component", "web").Logger()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{"ok": true})
	})
	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, buildStatus(p))
	})

	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		logger: l,
	}
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("Status server listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func buildStatus(p PipelineStatus) StatusPayload {
	stats := p.PoolStats()
	versions := p.SnapshotVersions()
	payload := StatusPayload{
		TotalFrames: p.TotalFrames(),
		ReportedAt:  time.Now().UTC(),
	}
	for _, role := range game.Roles() {
		s := stats[role]
		payload.Roles = append(payload.Roles, RoleStatus{
			Role:            role.String(),
			Frames:          p.LearnerFrames(role),
			Loss:            p.LearnerLoss(role),
			SnapshotVersion: versions[role],
			BufferCapacity:  s.Capacity,
			BufferFull:      s.Full,
			BufferFree:      s.Free,
			TotalPushed:     s.TotalPushed,
			TotalDrained:    s.TotalDrained,
		})
	}
	return payload
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }
