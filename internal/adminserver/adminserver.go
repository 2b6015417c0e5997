// Package adminserver exposes the proxy's side-channel HTTP surface —
// health probes, Prometheus metrics, and build info — on a
// loopback-only address separate from the client-facing proxy port.
// Grounded on the teacher's server/server.go newServeMux (probe
// handlers, promhttp.HandlerFor, the /version JSON handler built from
// pkg/x/runtime.BuildInfo), narrowed to admin-only concerns since this
// proxy has no plugin router to mount.
package adminserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relayhttp/relay/contrib/log"
	xhttp "github.com/relayhttp/relay/pkg/x/http"
	"github.com/relayhttp/relay/pkg/x/runtime"
)

// Server implements contrib/transport.Server for the admin endpoints.
type Server struct {
	http.Server
}

// New builds an admin Server bound to addr (default "127.0.0.1:9090"
// when empty), never the client-facing proxy port.
func New(addr string) *Server {
	if addr == "" {
		addr = "127.0.0.1:9090"
	}
	s := &Server{Server: http.Server{Addr: addr, Handler: newMux()}}
	return s
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/healthz/liveness-probe", logged(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))
	mux.Handle("/healthz/readiness-probe", logged(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))
	mux.Handle("/metrics", logged(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})))
	mux.Handle("/version", logged(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		payload, _ := json.Marshal(runtime.BuildInfo)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
	})))

	return mux
}

// logged wraps h so every admin request is logged at DEBUG with its
// status and response size, using the teacher's ResponseRecorder to
// observe both without buffering the body.
func logged(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := xhttp.NewResponseRecorder(w)
		h.ServeHTTP(rec, r)
		log.Debugf("admin %s %s -> %d (%d bytes)", r.Method, r.URL.Path, rec.Status(), rec.Size())
	})
}

// Start runs the admin HTTP server until Stop shuts it down.
func (s *Server) Start(ctx context.Context) error {
	s.BaseContext = func(_ net.Listener) context.Context { return ctx }
	log.Infof("admin server listening on %s", s.Addr)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the admin server down, bounded by ctx.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}
