// Package urlparse implements the restricted absolute-URI parser the
// proxy uses to validate request targets: scheme must be http, the
// port must be numeric, and the path must never contain a `/../`
// traversal segment.
package urlparse

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultPort is used when the URI carries no explicit port.
const DefaultPort = 80

// URL is the structured result of a successful parse. Error is set on
// failure instead of returning a Go error so that partially built
// values stay safe to log and discard, mirroring the original C
// implementation's "error field on the struct" convention.
type URL struct {
	Full   string
	Scheme string
	Host   string
	IP     string
	Port   uint16
	Path   string
	Error  string
}

// Parse splits s into scheme/host/port/path, enforcing the invariants
// spec.md §4.1 requires. On failure the returned URL has Error set;
// only Full, and Scheme once the scheme check has passed, are filled
// in.
func Parse(s string) URL {
	u := URL{Full: s}

	rest := s
	scheme := "http"
	if idx := strings.Index(s, "://"); idx >= 0 {
		scheme = s[:idx]
		rest = s[idx+3:]
	}
	if scheme != "http" {
		u.Error = fmt.Sprintf("Invalid scheme `%s` - use http", scheme)
		return u
	}
	u.Scheme = scheme

	// Host/port split: look for the first ':' anywhere in the
	// remainder, exactly as the original strsep(&ptr, ":") does —
	// the split happens before any '/'-based path split is even
	// attempted, so a ':' that in truth belongs to the path (rare,
	// pathological input) still gets treated as a port separator.
	var host, tail string
	port := uint16(DefaultPort)
	havePort := false
	if idx := strings.IndexByte(rest, ':'); idx >= 0 {
		host = rest[:idx]
		tail = rest[idx+1:]
		havePort = true
	} else {
		host = rest
		tail = ""
	}

	var path string
	if havePort {
		portStr := tail
		if idx := strings.IndexByte(tail, '/'); idx >= 0 {
			portStr = tail[:idx]
			tail = tail[idx:]
		} else {
			tail = ""
		}
		p, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil || p == 0 {
			u.Error = fmt.Sprintf("Invalid port `%s`", portStr)
			return u
		}
		port = uint16(p)
		path = tail
	} else {
		if idx := strings.IndexByte(host, '/'); idx >= 0 {
			path = host[idx:]
			host = host[:idx]
		}
	}

	if host == "" {
		u.Error = "Invalid host `` - host is empty"
		return u
	}

	if path == "" {
		path = "/"
	} else if path[0] != '/' {
		path = "/" + path
	}

	if strings.Contains(path, "/../") {
		u.Error = "Invalid path includes `/../`"
		return u
	}

	u.Host = host
	u.Port = port
	u.Path = path
	return u
}

// OK reports whether the parse succeeded.
func (u URL) OK() bool {
	return u.Error == ""
}
