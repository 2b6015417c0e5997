// Package proxyconn implements the per-connection state machine of
// spec.md §4.5: read request, resolve host, check blacklist, check
// method, check cache, serve from cache or fetch upstream, forward,
// cache-store, wait for keep-alive reuse, close. Grounded on
// original_source/src/webproxy.c's handle_connection.
package proxyconn

import (
	"bufio"
	"context"
	"net"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/relayhttp/relay/contrib/log"
	"github.com/relayhttp/relay/internal/blacklist"
	"github.com/relayhttp/relay/internal/constants"
	"github.com/relayhttp/relay/internal/filecache"
	"github.com/relayhttp/relay/internal/resolver"
	"github.com/relayhttp/relay/internal/shutdown"
	"github.com/relayhttp/relay/metrics"
	"github.com/relayhttp/relay/pkg/httpcodec"
)

// KeepaliveTimeout is the original's KEEPALIVE_TIMEOUT_S: how long the
// handler waits, in one-second ticks, for the client to reuse a
// keep-alive connection before closing it.
const KeepaliveTimeout = 10 * time.Second

var threadCounter uint64

// nextThreadID assigns the monotonic per-connection identifier
// spec.md §4.5 calls thread_id, used only for log correlation.
func nextThreadID() uint64 {
	return atomic.AddUint64(&threadCounter, 1)
}

// Deps are the collaborators a Handler needs; all shared across
// connections and safe for concurrent use.
type Deps struct {
	Resolver  *resolver.Resolver
	Blacklist *blacklist.List
	Cache     *filecache.Cache
	Metrics   *metrics.Recorder
	Shutdown  *shutdown.Flag
	Dial      func(ctx context.Context, network, address string) (net.Conn, error)

	// KeepaliveTimeout overrides KeepaliveTimeout below when non-zero.
	KeepaliveTimeout time.Duration
}

func (d Deps) keepaliveTimeout() time.Duration {
	if d.KeepaliveTimeout > 0 {
		return d.KeepaliveTimeout
	}
	return KeepaliveTimeout
}

// Handler drives one accepted client connection through its full
// keep-alive lifetime.
type Handler struct {
	deps     Deps
	client   net.Conn
	reader   *bufio.Reader
	clientIP string
	threadID uint64

	upstream     net.Conn
	upstreamAddr string
}

// New builds a Handler for client, whose peer address is read via
// client.RemoteAddr().
func New(deps Deps, client net.Conn) *Handler {
	clientIP := client.RemoteAddr().String()
	if host, _, err := net.SplitHostPort(clientIP); err == nil {
		clientIP = host
	}
	return &Handler{deps: deps, client: client, reader: bufio.NewReader(client), clientIP: clientIP, threadID: nextThreadID()}
}

// Serve runs the keep-alive loop until the connection closes, the
// client goes idle past KeepaliveTimeout, or shutdown is requested.
func (h *Handler) Serve(ctx context.Context) {
	clog := log.Context(ctx)
	clog.Debugf("[%d] handling connection from %s", h.threadID, h.clientIP)

	defer h.close(clog)

	for {
		keepalive, ok := h.serveOne(ctx)
		if !ok || !keepalive {
			return
		}
		if !h.waitKeepalive(clog) {
			return
		}
	}
}

func (h *Handler) close(clog *log.Helper) {
	clog.Debugf("[%d] closing client connection", h.threadID)
	_ = h.client.Close()
	if h.upstream != nil {
		_ = h.upstream.Close()
	}
}

// serveOne runs exactly one request/response exchange. It returns
// whether the connection should be kept alive and whether the
// exchange itself succeeded (false means the caller should stop
// looping — a terminal error was already sent, the client closed the
// connection, or an upstream or client write failed).
func (h *Handler) serveOne(parentCtx context.Context) (keepalive bool, ok bool) {
	ctx, rm := metrics.WithRequestMetric(parentCtx, h.threadID, h.clientIP)
	ctx = log.ContextWithTraceID(ctx, rm.TraceID)
	clog := log.Context(ctx)

	req, status := httpcodec.ReadRequest(h.reader, h.clientIP, h.threadID)
	if status == httpcodec.StatusPeerClosed {
		return false, false
	}
	if status != httpcodec.StatusOK {
		h.sendError(status, req)
		return false, false
	}

	keepalive = req.IsKeepAlive()
	rm.Method = req.Method
	rm.URL = req.URL.Full
	rm.CacheStatus = constants.CacheStatusBypass

	defer func() {
		dur := time.Since(rm.StartAt)
		h.deps.Metrics.ObserveRequest(rm.Method, rm.CacheStatus, dur)
		clog.Infof("[%d] %s %s %s cache=%s dur=%s", h.threadID, rm.RemoteAddr, rm.Method, rm.URL, rm.CacheStatus, dur)
	}()

	ip, result, err := h.deps.Resolver.Lookup(ctx, req.URL.Host)
	if result == resolver.Invalid {
		clog.Debugf("[%d] resolve failed for %s: %v", h.threadID, req.URL.Host, err)
		h.sendError(404, req)
		return false, false
	}
	req.URL.IP = ip

	if h.deps.Blacklist.Has(req.URL.Host, req.URL.IP) {
		clog.Warnf("[%d] %s / %s is blacklisted", h.threadID, req.URL.Host, req.URL.IP)
		h.deps.Metrics.ObserveBlacklistRejection()
		h.sendError(403, req)
		return false, false
	}

	if req.Method != "GET" {
		h.sendError(405, req)
		return false, false
	}

	if path, hit := h.deps.Cache.Lookup(req.URL.Full); hit {
		rm.CacheStatus = constants.CacheStatusHit
		if err := h.serveFromCache(req, path); err != nil {
			clog.Debugf("[%d] cache serve failed for %s: %v", h.threadID, path, err)
			h.sendError(404, req)
			return false, false
		}
		return keepalive, true
	}
	rm.CacheStatus = constants.CacheStatusMiss

	if err := h.ensureUpstream(ctx, req, clog); err != nil {
		clog.Debugf("[%d] upstream connect failed: %v", h.threadID, err)
		h.deps.Metrics.ObserveUpstreamError()
		return false, false
	}

	if _, err := h.upstream.Write(req.Raw); err != nil {
		clog.Debugf("[%d] upstream write failed: %v", h.threadID, err)
		h.deps.Metrics.ObserveUpstreamError()
		h.closeUpstream()
		return false, false
	}

	resp, status := httpcodec.ReadResponse(h.upstream, req, h.threadID)
	if status != httpcodec.StatusOK {
		h.deps.Metrics.ObserveUpstreamError()
		h.sendError(500, req)
		h.closeUpstream()
		return false, false
	}

	if _, err := h.client.Write(resp.Raw); err != nil {
		clog.Debugf("[%d] forwarding response to client failed: %v", h.threadID, err)
		return false, false
	}

	if resp.StatusCode() >= 200 && resp.StatusCode() < 300 {
		if err := h.store(req, resp); err != nil {
			clog.Debugf("[%d] cache store failed: %v", h.threadID, err)
		}
	}

	return keepalive, true
}

func (h *Handler) sendError(status int, req *httpcodec.Request) {
	_, _ = h.client.Write(httpcodec.SerializeError(status, req))
}

func (h *Handler) serveFromCache(req *httpcodec.Request, path string) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out := httpcodec.SerializeResponse(req.HTTPVersion, 200, httpcodec.ConnectionToken(req), httpcodec.MIMEForPath(req.URL.Path), body)
	_, err = h.client.Write(out)
	return err
}

func (h *Handler) ensureUpstream(ctx context.Context, req *httpcodec.Request, clog *log.Helper) error {
	addr := net.JoinHostPort(req.URL.IP, strconv.Itoa(int(req.URL.Port)))
	if h.upstream != nil && addr == h.upstreamAddr {
		return nil
	}

	h.closeUpstream()

	dial := h.deps.Dial
	if dial == nil {
		dial = (&net.Dialer{}).DialContext
	}
	conn, err := dial(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	clog.Debugf("[%d] opened upstream socket to %s", h.threadID, addr)
	h.upstream = conn
	h.upstreamAddr = addr
	return nil
}

func (h *Handler) closeUpstream() {
	if h.upstream != nil {
		_ = h.upstream.Close()
		h.upstream = nil
		h.upstreamAddr = ""
	}
}

func (h *Handler) store(req *httpcodec.Request, resp *httpcodec.Response) error {
	body := resp.Content()
	if resp.IsChunked() {
		dechunked, err := httpcodec.Dechunk(body)
		if err != nil {
			return err
		}
		body = dechunked
	}
	_, err := h.deps.Cache.Store(req.URL.Full, req.URL.Host, req.URL.Path, body)
	return err
}

// waitKeepalive blocks, with one-second ticks, until the client
// socket becomes readable (signaling a new request) or the keepalive
// window elapses; a shutdown request ends the wait at the next
// one-second tick. It mirrors the
// original's pselect loop using a deadline'd Peek, which blocks for
// readability without consuming the byte it sees — the next request's
// parser reads it normally out of the same bufio.Reader.
func (h *Handler) waitKeepalive(clog *log.Helper) bool {
	deadline := time.Now().Add(h.deps.keepaliveTimeout())
	for {
		if h.deps.Shutdown.Requested() {
			return false
		}
		if time.Now().After(deadline) {
			clog.Debugf("[%d] keep-alive timeout", h.threadID)
			return false
		}

		_ = h.client.SetReadDeadline(time.Now().Add(time.Second))
		_, err := h.reader.Peek(1)
		_ = h.client.SetReadDeadline(time.Time{})

		if err == nil {
			clog.Debugf("[%d] reusing keep-alive socket", h.threadID)
			return true
		}
		if ne, isNetErr := err.(net.Error); isNetErr && ne.Timeout() {
			continue
		}
		return false
	}
}
