// Package kratos provides relay's minimal typed application lifecycle:
// start every contrib/transport.Server concurrently, wait for an OS
// shutdown signal (or ctx cancellation), then stop them all. The
// teacher's own contrib/kratos package was not present in the
// retrieved pack; this is rebuilt from main.go's call site
// (kratos.New(kratos.ID(...), kratos.Name(...), kratos.Version(...),
// kratos.StopTimeout(...), kratos.Logger(...), kratos.Server(...))
// followed by app.Run()), which fixes its option-functional
// constructor shape precisely enough to reconstruct.
package kratos

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/relayhttp/relay/contrib/log"
	"github.com/relayhttp/relay/contrib/transport"
)

// App is a named, versioned collection of transport.Server instances
// started and stopped together.
type App struct {
	id          string
	name        string
	version     string
	stopTimeout time.Duration
	logger      log.Logger
	servers     []transport.Server
}

// Option configures an App; see ID, Name, Version, StopTimeout,
// Logger, Server.
type Option func(*App)

// ID sets the instance identifier (the teacher passes os.Hostname()).
func ID(id string) Option { return func(a *App) { a.id = id } }

// Name sets the application name.
func Name(name string) Option { return func(a *App) { a.name = name } }

// Version sets the application version string.
func Version(version string) Option { return func(a *App) { a.version = version } }

// StopTimeout bounds how long Run waits for every server's Stop to
// return once shutdown begins.
func StopTimeout(d time.Duration) Option { return func(a *App) { a.stopTimeout = d } }

// Logger sets the Logger used for App-level lifecycle messages.
func Logger(logger log.Logger) Option { return func(a *App) { a.logger = logger } }

// Server appends one or more transport.Server instances to run.
func Server(servers ...transport.Server) Option {
	return func(a *App) { a.servers = append(a.servers, servers...) }
}

// New builds an App from opts.
func New(opts ...Option) *App {
	a := &App{stopTimeout: 30 * time.Second}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = log.DefaultLogger
	}
	return a
}

// Run starts every configured server concurrently via errgroup, then
// blocks until SIGINT/SIGTERM is received or any server's Start
// returns an error, at which point every server is stopped (in
// reverse start order) within StopTimeout.
func (a *App) Run() error {
	clog := log.NewHelper(a.logger)
	clog.Infof("starting %s id=%s version=%s", a.name, a.id, a.version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, gctx := errgroup.WithContext(ctx)
	for _, srv := range a.servers {
		srv := srv
		group.Go(func() error { return srv.Start(gctx) })
	}

	<-gctx.Done()
	clog.Infof("stopping %s", a.name)

	stopCtx, cancel := context.WithTimeout(context.Background(), a.stopTimeout)
	defer cancel()

	for i := len(a.servers) - 1; i >= 0; i-- {
		if err := a.servers[i].Stop(stopCtx); err != nil {
			clog.Errorf("server stop failed: %v", err)
		}
	}

	return group.Wait()
}
