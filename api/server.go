// Package api implements the phonebook's HTTP boundary: one endpoint
// per storage operation, request-parameter parsing, the worker budget
// gate, and the ANSWER/TIME/ERROR response-header convention.
//
// Routing follows the teacher's gorilla/mux usage in main.go; the
// constructor-holding-its-collaborators shape follows entity_handler.go.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"phonebook/corpus"
	"phonebook/logger"
	"phonebook/storage"
)

// Server is the phonebook's HTTP boundary: it owns the database, the
// process-wide worker budget, the loaded name corpus, and the
// configuration values (default wait_time, corpus/data directories)
// every handler needs.
type Server struct {
	db       *storage.Database
	budget   *Budget
	corpus   *corpus.Corpus
	router   *mux.Router
	httpSrv  *http.Server
	stopChan chan struct{}
	stopOnce sync.Once

	defaultWaitTime time.Duration
	corpusDir       string
	dataDir         string
}

// Config bundles the values Server needs beyond the database itself.
type Config struct {
	ListenAddr      string
	DefaultWaitTime time.Duration
	CorpusDir       string
	DataDir         string
	BudgetCap       int
}

// NewServer builds a Server wired to db. The name corpus is loaded
// eagerly from cfg.CorpusDir so that /generate never pays the load cost
// on the request path only to fail after acquiring the gate.
func NewServer(db *storage.Database, cfg Config) (*Server, error) {
	corp, err := corpus.Load(cfg.CorpusDir)
	if err != nil {
		logger.Warn("failed to preload name corpus from %s: %v", cfg.CorpusDir, err)
	}

	s := &Server{
		db:              db,
		budget:          NewBudget(cfg.BudgetCap),
		corpus:          corp,
		stopChan:        make(chan struct{}),
		defaultWaitTime: cfg.DefaultWaitTime,
		corpusDir:       cfg.CorpusDir,
		dataDir:         cfg.DataDir,
	}

	s.router = mux.NewRouter()
	s.registerRoutes()

	s.httpSrv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // /print and bulk ops can run long
		IdleTimeout:  90 * time.Second,
		ErrorLog:     logger.SetHTTPServerErrorLog(),
	}

	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/hi", s.traced(s.handleHi)).Methods(http.MethodGet)
	s.router.HandleFunc("/generate", s.traced(s.handleGenerate)).Methods(http.MethodPost)
	s.router.HandleFunc("/save", s.traced(s.handleSave)).Methods(http.MethodPost)
	s.router.HandleFunc("/load", s.traced(s.handleLoad)).Methods(http.MethodPost)
	s.router.HandleFunc("/clear", s.traced(s.handleClear)).Methods(http.MethodPost)
	s.router.HandleFunc("/add", s.traced(s.handleAdd)).Methods(http.MethodPost)
	s.router.HandleFunc("/delete", s.traced(s.handleDelete)).Methods(http.MethodPost)
	s.router.HandleFunc("/find", s.traced(s.handleFind)).Methods(http.MethodPost)
	s.router.HandleFunc("/print", s.traced(s.handlePrint)).Methods(http.MethodGet)
	s.router.HandleFunc("/stop", s.traced(s.handleStop)).Methods(http.MethodGet)
}

// traced wraps a handler with the teacher's accept/handler trace
// logging (logger.LogHTTPAccept/LogHTTPHandler).
func (s *Server) traced(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Method + " " + r.URL.Path
		logger.LogHTTPAccept(r.Host, r.RemoteAddr)
		logger.LogHTTPHandler(traceID, r.Method, r.URL.Path, "start")
		h(w, r)
		logger.LogHTTPHandler(traceID, r.Method, r.URL.Path, "end")
	}
}

// ListenAndServe starts the HTTP server; it blocks until the server
// stops (via Shutdown, /stop, or an unrecoverable error).
func (s *Server) ListenAndServe() error {
	logger.Info("phonebook server listening on %s", s.httpSrv.Addr)
	go func() {
		<-s.stopChan
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			logger.Error("error during /stop-triggered shutdown: %v", err)
		}
	}()

	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// RequestStop triggers the shutdown goroutine started in
// ListenAndServe. Safe to call more than once.
func (s *Server) RequestStop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}
