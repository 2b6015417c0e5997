// Package listener owns the proxy's client-facing TCP socket: binding
// it through a cloudflare/tableflip.Upgrader (nothing in relay calls
// the Upgrader's Upgrade, so no signal hands the listening fd to
// another process), and running the accept loop that spawns one
// internal/proxyconn.Handler per connection. Grounded on the teacher's
// main.go (tableflip.New/flip.HasParent) and server/server.go's
// Start/Stop shape (transport.Server), generalized from an http.Server
// listener to a raw accept loop.
package listener

import (
	"context"
	"net"

	"github.com/cloudflare/tableflip"

	"github.com/relayhttp/relay/contrib/log"
	"github.com/relayhttp/relay/internal/proxyconn"
)

// Listener implements contrib/transport.Server for the proxy's
// client-facing socket.
type Listener struct {
	flip *tableflip.Upgrader
	addr string
	deps proxyconn.Deps

	ln net.Listener
}

// New builds a Listener bound to addr via flip once Start runs. deps
// is passed through unmodified to every accepted connection's Handler.
func New(flip *tableflip.Upgrader, addr string, deps proxyconn.Deps) *Listener {
	return &Listener{flip: flip, addr: addr, deps: deps}
}

// Start binds the socket through tableflip, signals readiness, and
// runs the accept loop until ctx is canceled or the listener is
// closed by Stop.
func (l *Listener) Start(ctx context.Context) error {
	ln, err := l.flip.Listen("tcp", l.addr)
	if err != nil {
		return err
	}
	l.ln = ln

	if err := l.flip.Ready(); err != nil {
		return err
	}
	log.Infof("proxy listening on %s", l.addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if l.deps.Shutdown.Requested() {
				return nil
			}
			log.Errorf("accept failed: %v", err)
			return err
		}

		handler := proxyconn.New(l.deps, conn)
		go handler.Serve(ctx)
	}
}

// Stop requests the shutdown flag and closes the listening socket,
// unblocking Start's Accept loop. In-flight connections are left to
// drain on their own (each one consults internal/shutdown.Flag at its
// next keep-alive wait).
func (l *Listener) Stop(_ context.Context) error {
	l.deps.Shutdown.Request()
	if l.ln != nil {
		return l.ln.Close()
	}
	return nil
}
