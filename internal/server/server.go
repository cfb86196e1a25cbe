// Package server exposes the quiz backend over HTTP: catalog retrieval,
// registration, evaluation, transcription and learner summaries.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/abhisek/cefrquiz/internal/catalog"
	"github.com/abhisek/cefrquiz/internal/grading"
	"github.com/abhisek/cefrquiz/internal/store"
	"github.com/abhisek/cefrquiz/internal/transcribe"
)

// Config configures the HTTP server.
type Config struct {
	Addr string
	// JWTSecret enables bearer tokens. Empty disables authentication.
	JWTSecret string
	TokenTTL  time.Duration
	// CORSOrigins lists allowed browser origins. Empty allows all.
	CORSOrigins []string
	// AudioDir is served under /audio and /audio_files when set.
	AudioDir string
	// MaxUpload bounds transcription uploads in bytes.
	MaxUpload int64
}

// DefaultConfig returns the server defaults.
func DefaultConfig() Config {
	return Config{
		Addr:      ":8000",
		TokenTTL:  30 * 24 * time.Hour,
		MaxUpload: 25 << 20,
	}
}

// Server serves the backend API.
type Server struct {
	cfg         Config
	st          *store.Store
	grader      *grading.Grader
	transcriber transcribe.Transcriber
	metrics     *metrics
	catalog     atomic.Pointer[catalog.Catalog]
	engine      *gin.Engine
}

// New creates a server. A nil transcriber disables /transcribe.
func New(cfg Config, st *store.Store, grader *grading.Grader, tr transcribe.Transcriber) *Server {
	s := &Server{
		cfg:         cfg,
		st:          st,
		grader:      grader,
		transcriber: tr,
		metrics:     newMetrics(),
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), s.metrics.middleware())

	cc := cors.DefaultConfig()
	if len(s.cfg.CORSOrigins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = s.cfg.CORSOrigins
	}
	cc.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	cc.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	r.Use(cors.New(cc))

	r.GET("/", s.health)
	r.GET("/questions", s.questions)
	r.GET("/passages", s.passages)
	r.GET("/rubrics", s.rubrics)
	r.POST("/register_user", s.registerUser)
	r.POST("/transcribe", s.transcribe)
	r.GET("/metrics", s.metrics.handler())

	user := r.Group("/", s.authenticate())
	user.POST("/evaluate", s.evaluate)
	user.GET("/summary", s.summary)
	user.GET("/responses", s.responses)
	user.POST("/session_events", s.sessionEvent)

	if s.cfg.AudioDir != "" {
		r.Static("/audio", s.cfg.AudioDir)
		r.Static("/audio_files", s.cfg.AudioDir)
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Reload reads the catalog from the store and swaps it in. Requests served
// before Reload succeeds get 503 for catalog endpoints.
func (s *Server) Reload(ctx context.Context) error {
	cat, err := s.st.Catalog().Load(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	s.catalog.Store(cat)
	return nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// questionLookup adapts the current catalog to grading.Questions.
type questionLookup struct{ s *Server }

func (l questionLookup) Question(id string) (*catalog.Question, bool) {
	cat := l.s.catalog.Load()
	if cat == nil {
		return nil, false
	}
	return cat.Question(id)
}

func (l questionLookup) Rubric(id string) (string, bool) {
	cat := l.s.catalog.Load()
	if cat == nil {
		return "", false
	}
	return cat.Rubric(id)
}
