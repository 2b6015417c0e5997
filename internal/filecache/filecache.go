// Package filecache implements spec.md §3/§4.5/§4.6's file_cache: a
// URL->on-disk-path ttlmap.Map (Timeout = cache_timeout,
// Unlinker = os.Remove) plus the path-flattening scheme and the
// dedicated GC sweep worker. Grounded on
// original_source/src/webproxy.c's url_to_cache_path and cache_gc.
package filecache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulbellamy/ratecounter"

	"github.com/relayhttp/relay/contrib/log"
	"github.com/relayhttp/relay/internal/shutdown"
	"github.com/relayhttp/relay/pkg/ttlmap"
)

const (
	cacheDirPerms = 0o700
	sweepInterval = 100 * time.Millisecond
	sweepEveryN   = 10
)

// Cache wraps a ttlmap.Map keyed by a request URL's Full string, whose
// values are on-disk paths; the Unlinker removes the file when an
// entry expires.
type Cache struct {
	root  string
	m     *ttlmap.Map
	swept *ratecounter.RateCounter
}

// New builds a Cache rooted at root (created with 0700 permissions if
// missing), with entries expiring after timeout.
func New(root string, timeout time.Duration, bucketCount int) (*Cache, error) {
	if err := os.MkdirAll(root, cacheDirPerms); err != nil {
		return nil, err
	}

	c := &Cache{root: root, swept: ratecounter.NewRateCounter(time.Second)}
	m, err := ttlmap.New(bucketCount)
	if err != nil {
		return nil, err
	}
	m.Timeout = timeout
	m.Unlinker = c.unlink
	c.m = m
	return c, nil
}

func (c *Cache) unlink(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Errorw("msg", "failed to remove expired cache file", "path", path, "err", err)
	}
}

// PathFor computes the on-disk path for host/path per spec.md §4.5:
// "/" in the path is replaced with "_", and the file lives under
// <root>/<host>/<flattened>.
func (c *Cache) PathFor(host, urlPath string) string {
	flattened := strings.ReplaceAll(urlPath, "/", "_")
	return filepath.Join(c.root, host, flattened)
}

// Lookup returns the cached path for a full URL string, if present.
func (c *Cache) Lookup(urlFull string) (string, bool) {
	return c.m.Get(urlFull)
}

// Store writes body to the computed path (creating the per-host
// subdirectory if needed) and records urlFull -> path in the map.
func (c *Cache) Store(urlFull, host, urlPath string, body []byte) (string, error) {
	hostDir := filepath.Join(c.root, host)
	if err := os.MkdirAll(hostDir, cacheDirPerms); err != nil {
		return "", err
	}

	path := c.PathFor(host, urlPath)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		return "", err
	}

	if _, err := c.m.Put(urlFull, path); err != nil {
		return "", err
	}
	return path, nil
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	return c.m.Len()
}

// RunGC blocks running the sweep worker described in spec.md §4.6:
// wake every wakeInterval (100ms if zero), sweep on every tenth tick,
// exit once flag is set. Every ten sweeps it logs the observed
// eviction rate via paulbellamy/ratecounter, the same library and
// per-tick-log pattern the teacher's storage/bucket/disk.go loadLRU
// uses.
func (c *Cache) RunGC(ctx context.Context, flag *shutdown.Flag, wakeInterval time.Duration) {
	clog := log.Context(ctx)
	clog.Debug("cache GC running")

	if wakeInterval <= 0 {
		wakeInterval = sweepInterval
	}
	ticker := time.NewTicker(wakeInterval)
	defer ticker.Stop()

	tick := 0
	sweeps := 0
	for {
		select {
		case <-ctx.Done():
			clog.Debug("cache GC exiting: context cancelled")
			return
		case <-ticker.C:
		}
		if flag.Requested() {
			clog.Debug("cache GC exiting")
			return
		}

		tick++
		if tick%sweepEveryN != 0 {
			continue
		}

		before := c.Len()
		c.m.Sweep()
		evicted := before - c.Len()
		if evicted > 0 {
			c.swept.Incr(int64(evicted))
		}

		sweeps++
		if sweeps%sweepEveryN == 0 {
			clog.Infof("cache sweep: %d entries, eviction rate %d/s", c.Len(), c.swept.Rate())
		}
	}
}

// GCServer adapts RunGC to contrib/transport.Server so main.go can run
// it alongside the listener and admin server under one
// contrib/kratos.App.
type GCServer struct {
	Cache    *Cache
	Shutdown *shutdown.Flag
	// Interval is the configured sweep interval; RunGC wakes every
	// Interval/sweepEveryN to preserve its ~10-ticks-per-sweep shape.
	// Zero uses RunGC's own default.
	Interval time.Duration
}

// Start blocks running the GC sweep loop until ctx is canceled or
// Shutdown is requested.
func (g *GCServer) Start(ctx context.Context) error {
	var wake time.Duration
	if g.Interval > 0 {
		wake = g.Interval / sweepEveryN
	}
	g.Cache.RunGC(ctx, g.Shutdown, wake)
	return nil
}

// Stop is a no-op: RunGC returns once Start's ctx is canceled or the
// shared Shutdown flag (set by internal/listener.Stop, not owned by
// GCServer) is observed at its next wake-up.
func (g *GCServer) Stop(_ context.Context) error {
	return nil
}
