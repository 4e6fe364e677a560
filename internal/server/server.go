// Package server exposes viewer sessions over HTTP for a browser page that
// renders with 3Dmol.js.
//
// The page never runs styling logic itself. Each response carries the
// engine commands recorded while handling the request, and the page replays
// them in order. Hovers and clicks are posted back so the click state stays
// server-side.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/msalah0e/pdbview/internal/engine"
	"github.com/msalah0e/pdbview/internal/metrics"
	"github.com/msalah0e/pdbview/internal/store"
	"github.com/msalah0e/pdbview/internal/view"
	"github.com/msalah0e/pdbview/internal/viewer"
)

// CookieName is the session cookie.
const CookieName = "pdbview_session"

// Config holds server configuration.
type Config struct {
	Addr           string
	AllowedOrigins []string
	Defaults       view.State
	Fetcher        viewer.Fetcher
	OnLoad         func(session string, e viewer.LoadEvent)
}

// session is one browser tab's viewer. mu covers a controller call and the
// drain of the commands it recorded.
type session struct {
	id       string
	mu       sync.Mutex
	rec      *engine.Recorder
	store    *store.Memory
	ctrl     *viewer.Controller
	lastSeen time.Time
}

type structureText struct {
	raw  string
	name string
}

// Server serves viewer sessions.
type Server struct {
	cfg     Config
	log     *zap.Logger
	metrics *metrics.Collector

	mu       sync.Mutex
	sessions map[string]*session
	initial  *structureText
}

// New creates a server. A nil logger discards logs; a nil collector records
// nothing and serves no /metrics.
func New(cfg Config, log *zap.Logger, m *metrics.Collector) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Defaults == (view.State{}) {
		cfg.Defaults = view.Default()
	}
	return &Server{
		cfg:      cfg,
		log:      log,
		metrics:  m,
		sessions: make(map[string]*session),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.log))
	r.Use(s.instrument)

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleGetState)
		r.Post("/state", s.handleSetState)
		r.Get("/commands", s.handleCommands)
		r.Post("/load", s.handleLoad)
		r.Post("/fetch", s.handleFetch)
		r.Post("/custom", s.handleCustom)
		r.Post("/hover/{serial}", s.handleHover)
		r.Delete("/hover", s.handleUnhover)
		r.Post("/click/{serial}", s.handleClick)
		r.Delete("/session", s.handleEndSession)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("listening", zap.String("addr", s.cfg.Addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// session returns the caller's session, creating one (and setting the
// cookie) when the request carries no known id.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session, error) {
	if c, err := r.Cookie(CookieName); err == nil {
		s.mu.Lock()
		sess, ok := s.sessions[c.Value]
		s.mu.Unlock()
		if ok {
			return sess, nil
		}
	}

	id := uuid.NewString()
	sess, err := s.newSession(r.Context(), id)
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

func (s *Server) newSession(ctx context.Context, id string) (*session, error) {
	sess := &session{
		id:       id,
		rec:      engine.NewRecorder(),
		store:    store.NewMemory(),
		lastSeen: time.Now(),
	}
	opts := []viewer.Option{
		viewer.WithLogger(s.log.With(zap.String("session", id))),
		viewer.WithMetrics(s.metrics),
		viewer.WithDefaults(s.cfg.Defaults),
	}
	if s.cfg.Fetcher != nil {
		opts = append(opts, viewer.WithFetcher(s.cfg.Fetcher))
	}
	if s.cfg.OnLoad != nil {
		opts = append(opts, viewer.WithLoadHook(func(e viewer.LoadEvent) { s.cfg.OnLoad(id, e) }))
	}
	sess.ctrl = viewer.New(sess.rec, sess.store, opts...)

	if err := sess.ctrl.Restore(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	initial := s.initial
	s.sessions[id] = sess
	s.mu.Unlock()

	if initial != nil {
		if err := sess.ctrl.LoadText(ctx, initial.raw, initial.name); err != nil {
			s.log.Warn("initial structure not loaded", zap.String("session", id), zap.Error(err))
		}
	}
	s.log.Info("session started", zap.String("session", id))
	return sess, nil
}

func (s *Server) endSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Sessions returns the number of live sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Reload loads raw into every live session and into every session started
// afterwards. Errors are logged per session; the first one is returned.
func (s *Server) Reload(ctx context.Context, raw, name string) error {
	s.mu.Lock()
	s.initial = &structureText{raw: raw, name: name}
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	var first error
	for _, sess := range sessions {
		sess.mu.Lock()
		err := sess.ctrl.LoadText(ctx, raw, name)
		sess.mu.Unlock()
		if err != nil {
			s.log.Warn("reload failed", zap.String("session", sess.id), zap.Error(err))
			if first == nil {
				first = err
			}
		}
	}
	s.log.Info("structure reloaded", zap.String("name", name), zap.Int("sessions", len(sessions)))
	return first
}

// Prune drops sessions idle for longer than maxIdle.
func (s *Server) Prune(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := time.Since(sess.lastSeen)
		sess.mu.Unlock()
		if idle > maxIdle {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}
