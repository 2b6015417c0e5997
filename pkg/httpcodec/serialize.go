package httpcodec

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/relayhttp/relay/pkg/errors"
)

// ServerToken is the fixed Server header value proxy-originated
// responses carry.
const ServerToken = "relay"

// dateHeader formats t in GMT as "%a, %d %b %Y %H:%M:%S %Z" per
// spec.md §4.3 — Go's RFC1123 layout prints the zone abbreviation it's
// handed, so UTC is formatted and "GMT" appended literally rather than
// relying on the time package to know the name.
func dateHeader(t time.Time) string {
	return t.UTC().Format("Mon, 02 Jan 2006 15:04:05") + " GMT"
}

// ConnectionToken computes the Connection header value a
// proxy-originated response should carry for req: copied from the
// request if present, else "keep-alive" for HTTP/1.1 and "close"
// otherwise.
func ConnectionToken(req *Request) string {
	if req == nil {
		return "close"
	}
	if req.Connection != "" {
		return req.Connection
	}
	if req.HTTPVersion == "HTTP/1.1" {
		return "keep-alive"
	}
	return "close"
}

// SerializeResponse builds a proxy-originated response (cache hits,
// error pages) in the canonical field order spec.md §4.3 specifies.
// httpVersion becomes the status line's leading token ("HTTP/1.1 200
// Success"), matching original_source/src/response.c's
// response_init_from_request ("%s %s", req->http_version, field).
// contentType is omitted from the output when empty; Content-Length
// is emitted whenever body is non-nil (including the empty body
// case, to match a real server's behavior for a zero-length 200).
func SerializeResponse(httpVersion string, status int, connection, contentType string, body []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(httpVersion)
	buf.WriteString(" ")
	buf.WriteString(errors.StatusLine(status))
	buf.WriteString("\r\n")
	buf.WriteString("Server: " + ServerToken + "\r\n")
	buf.WriteString("Date: " + dateHeader(time.Now()) + "\r\n")
	buf.WriteString("Connection: " + connection + "\r\n")
	if contentType != "" {
		buf.WriteString("Content-Type: " + contentType + "\r\n")
	}
	if body != nil {
		buf.WriteString("Content-Length: " + strconv.Itoa(len(body)) + "\r\n")
	}
	buf.WriteString("\r\n")
	buf.Write(body)
	return buf.Bytes()
}

// SerializeError builds a proxy error response for status, with a
// text/plain body holding the status line followed by a newline,
// deriving its Connection header from the request that triggered it
// (nil when the request never parsed far enough to have one, in
// which case the connection is not reusable and "close" is used).
func SerializeError(status int, req *Request) []byte {
	return SerializeResponse(httpVersionOf(req), status, ConnectionToken(req), "text/plain", []byte(errors.StatusLine(status)+"\n"))
}

// httpVersionOf returns req's HTTP version, defaulting to HTTP/1.1
// when req is nil or never got far enough to record one — a response
// still needs a well-formed status line even when the request didn't
// parse.
func httpVersionOf(req *Request) string {
	if req == nil || req.HTTPVersion == "" {
		return "HTTP/1.1"
	}
	return req.HTTPVersion
}

// mimeByExtension implements spec.md §4.5's MIME table for cached
// files, keyed by the original URL path's extension.
var mimeByExtension = map[string]string{
	".png": "image/png",
	".gif": "image/gif",
	".jpg": "image/jpg",
	".txt": "text/plain",
	".css": "text/css",
	".js":  "application/javascript",
}

// MIMEForPath returns the content type for a cached file's original
// URL path, defaulting to text/html when the extension is unknown.
func MIMEForPath(path string) string {
	dot := strings.LastIndexByte(path, '.')
	if dot < 0 {
		return "text/html"
	}
	if ctype, ok := mimeByExtension[path[dot:]]; ok {
		return ctype
	}
	return "text/html"
}
