// Package resolver implements spec.md §4.4's lookup_host: a literal
// IPv4 fast path, a hostname cache consult, and a DNS fallback that
// populates the cache on miss. Grounded on
// original_source/src/request.c's request_lookup_host.
package resolver

import (
	"context"
	"net"

	"github.com/relayhttp/relay/pkg/ttlmap"
)

// Result enumerates lookup_host's four outcomes.
type Result int

const (
	// Literal means url.Host was already a dotted-quad IPv4 address.
	Literal Result = iota
	// Hit means the hostname cache already held an IP for the host.
	Hit
	// Miss means DNS was consulted and the cache was populated.
	Miss
	// Invalid means DNS resolution failed.
	Invalid
)

// Resolver wraps a hostname cache (pkg/ttlmap, Timeout == 0, no
// Unlinker — an immutable-enough map nothing ever removes from,
// matching the original's hashmap_add-only usage pattern).
type Resolver struct {
	cache *ttlmap.Map

	// lookupHost is indirected for testability; defaults to
	// net.DefaultResolver.LookupHost.
	lookupHost func(ctx context.Context, host string) ([]string, error)
}

// New builds a Resolver backed by a cache with the given bucket count.
func New(bucketCount int) (*Resolver, error) {
	cache, err := ttlmap.New(bucketCount)
	if err != nil {
		return nil, err
	}
	return &Resolver{cache: cache, lookupHost: net.DefaultResolver.LookupHost}, nil
}

// SetLookupForTest overrides the DNS lookup function used by Lookup,
// letting callers outside this package substitute a fake resolver in
// tests without a network.
func (r *Resolver) SetLookupForTest(fn func(ctx context.Context, host string) ([]string, error)) {
	r.lookupHost = fn
}

// Lookup resolves host, returning the selected IP and how it was
// obtained.
func (r *Resolver) Lookup(ctx context.Context, host string) (ip string, result Result, err error) {
	if net.ParseIP(host) != nil && isIPv4(host) {
		return host, Literal, nil
	}

	if cached, ok := r.cache.Get(host); ok {
		return cached, Hit, nil
	}

	addrs, lookupErr := r.lookupHost(ctx, host)
	if lookupErr != nil || len(addrs) == 0 {
		return "", Invalid, lookupErr
	}

	resolved := firstIPv4(addrs)
	if resolved == "" {
		return "", Invalid, nil
	}

	r.cache.Put(host, resolved)
	return resolved, Miss, nil
}

func isIPv4(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && ip.To4() != nil
}

func firstIPv4(addrs []string) string {
	for _, a := range addrs {
		if isIPv4(a) {
			return a
		}
	}
	return ""
}
