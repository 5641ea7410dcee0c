// Package api exposes the assignment pipeline over HTTP.
//
// The server accepts inline control-flow graphs, runs the pipeline, and
// optionally persists each run to a store so results can be fetched later:
//
//	POST /v1/assign       run the pipeline on an inline graph
//	GET  /v1/runs         list persisted runs, newest first
//	GET  /v1/runs/{id}    fetch one persisted run
//	GET  /healthz         liveness probe
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/covtools/edgemark/pkg/assign"
	apperrors "github.com/covtools/edgemark/pkg/errors"
	"github.com/covtools/edgemark/pkg/pipeline"
	"github.com/covtools/edgemark/pkg/store"
)

const (
	maxBodyBytes     = 32 << 20 // 32 MiB of inline graph is plenty
	defaultListLimit = 50
)

// Server handles HTTP requests for the assignment pipeline.
type Server struct {
	runner *pipeline.Runner
	store  store.Store // nil disables run persistence
	logger *log.Logger
	router chi.Router
}

// NewServer wires the pipeline runner and an optional run store into a
// chi router. A nil store disables the /v1/runs endpoints.
func NewServer(runner *pipeline.Runner, st store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner: runner,
		store:  st,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/assign", s.handleAssign)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})

	s.router = r
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe starts the server and blocks until ctx is canceled or the
// listener fails. Shutdown waits for in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// =============================================================================
// Handlers
// =============================================================================

// assignResponse is the body returned by POST /v1/assign.
type assignResponse struct {
	ID        string            `json:"id,omitempty"`
	GraphHash string            `json:"graph_hash"`
	Blocks    int               `json:"blocks"`
	Edges     int               `json:"edges"`
	Table     json.RawMessage   `json:"table"`
	Artifacts map[string]string `json:"artifacts,omitempty"`
	CacheHit  bool              `json:"cache_hit"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&opts); err != nil {
		writeError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidInput, "invalid request body: "+err.Error())
		return
	}
	if opts.Graph == nil {
		writeError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidInput, "graph is required")
		return
	}
	if opts.GraphPath != "" {
		// The server never reads local files on behalf of clients.
		writeError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidInput, "graph_path is not allowed over the API")
		return
	}
	opts.Logger = s.logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		if errors.Is(err, assign.ErrInvalidRatio) || errors.Is(err, assign.ErrInvalidTableBits) {
			writeFailure(w, err)
		} else {
			writeError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidInput, err.Error())
		}
		return
	}

	start := time.Now()
	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeFailure(w, err)
		return
	}

	resp := assignResponse{
		GraphHash: result.GraphHash,
		Blocks:    result.Stats.BlockCount,
		Edges:     result.Stats.EdgeCount,
		Table:     result.Artifacts[pipeline.FormatJSON],
		CacheHit:  result.CacheInfo.AssignHit,
	}
	if dot, ok := result.Artifacts[pipeline.FormatDOT]; ok {
		if resp.Artifacts == nil {
			resp.Artifacts = make(map[string]string)
		}
		resp.Artifacts[pipeline.FormatDOT] = string(dot)
	}
	if svg, ok := result.Artifacts[pipeline.FormatSVG]; ok {
		if resp.Artifacts == nil {
			resp.Artifacts = make(map[string]string)
		}
		resp.Artifacts[pipeline.FormatSVG] = string(svg)
	}

	if s.store != nil {
		rec := store.NewRunRecord(result.GraphHash, opts.Assign, result.Table, time.Since(start))
		if err := s.store.Save(r.Context(), rec); err != nil {
			s.logger.Error("save run", "err", err)
		} else {
			resp.ID = rec.ID
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, apperrors.ErrCodeUnsupported, "run persistence is not enabled")
		return
	}
	recs, err := s.store.List(r.Context(), defaultListLimit)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": recs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, apperrors.ErrCodeUnsupported, "run persistence is not enabled")
		return
	}
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
