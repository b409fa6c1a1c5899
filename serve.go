package main

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/kjk/common/httplogger"
	"github.com/kjk/common/log"

	"github.com/stevemurr/simple-contacts/config"
	"github.com/stevemurr/simple-contacts/handler"
	"github.com/stevemurr/simple-contacts/store"
)

// ServeCmd runs the contacts HTTP API.
type ServeCmd struct {
	Host string `help:"Interface to listen on (overrides config)."`
	Port int    `help:"Port to listen on (overrides config)."`
}

// Run executes the serve command.
func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	log.Verbose = cfg.Log.Verbose
	if cfg.Log.Dir != "" {
		log.Init(&log.Config{Dir: cfg.Log.Dir})
		defer log.Close()
	}

	s, err := store.New(cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("opening store (backend=%s): %w", cfg.Store.Backend, err)
	}
	defer store.Close(s)

	h, closeLog, err := newServer(cfg, s)
	if err != nil {
		return err
	}
	defer closeLog()

	addr := cfg.Server.Addr()
	log.Logf("Simple Contacts starting on %s (store=%s, path=%s)\n", addr, cfg.Store.Backend, cfg.Store.Path)
	if err := http.ListenAndServe(addr, h); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// newServer builds the full middleware chain around the API handler. The
// returned func flushes the request log.
func newServer(cfg *config.Config, s store.Store) (http.Handler, func(), error) {
	var h http.Handler = handler.New(s)
	h = corsMiddleware(h, cfg.Server.Origins())
	if cfg.Log.Dir == "" {
		return h, func() {}, nil
	}
	hl, err := httplogger.New(filepath.Join(cfg.Log.Dir, "http"), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("opening request log: %w", err)
	}
	closeLog := func() { log.IfErrf(hl.Close()) }
	return requestLogMiddleware(h, hl), closeLog, nil
}

// corsMiddleware wraps an http.Handler with CORS headers.
func corsMiddleware(next http.Handler, allowedOrigins []string) http.Handler {
	allowAll := len(allowedOrigins) == 1 && allowedOrigins[0] == "*"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case allowAll:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "":
			for _, o := range allowedOrigins {
				if o == origin {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Vary", "Origin")
					w.Header().Set("Access-Control-Allow-Credentials", "true")
					break
				}
			}
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger records one line per served request.
type requestLogger interface {
	LogReq(r *http.Request, code int, size int64, dur time.Duration) error
}

// statusRecorder captures the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	code int
	size int64
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.code == 0 {
		r.code = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += int64(n)
	return n, err
}

func requestLogMiddleware(next http.Handler, rl requestLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.code == 0 {
			rec.code = http.StatusOK
		}
		dur := time.Since(start)
		log.IfErrf(rl.LogReq(r, rec.code, rec.size, dur), "logging %s %s", r.Method, r.URL.Path)
		log.Verbosef("%s %s %d %s\n", r.Method, r.URL.Path, rec.code, dur)
	})
}
