package httpcodec

import (
	"bytes"
	"errors"
	"io"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/relayhttp/relay/pkg/ttlmap"
)

// MaxResponseBufferedSize caps the accumulated response buffer before
// it would otherwise grow without bound (spec.md §9).
const MaxResponseBufferedSize = 16 << 20 // 16 MiB

const chunkedTerminator = "\r\n0\r\n\r\n"

// Header holds a response's status line and field map. Fields reuses
// ttlmap.Map with Timeout == 0 and no Unlinker, exactly as spec.md
// §4.2 sanctions for the per-response field map — it is never shared
// across connections, so the mutex it carries is pure overhead but
// costs nothing worth special-casing away.
type Header struct {
	Complete   bool
	StatusLine string
	Fields     *ttlmap.Map
}

// Response accumulates an upstream (or proxy-originated) HTTP
// response. ContentOffset is a byte index into Raw rather than a
// pointer or sub-slice, so it stays valid across any Raw growth
// (spec.md §9, "record a byte offset rather than a pointer").
type Response struct {
	Complete      bool
	Raw           []byte
	ContentOffset int
	Header        Header
	Request       *Request
	ThreadID      uint64
}

// NewResponse builds a Response for the given originating request
// (retained only as a non-owning back-reference, per spec.md §9).
func NewResponse(request *Request, threadID uint64) *Response {
	fields, _ := ttlmap.New(16)
	return &Response{
		Header:   Header{Fields: fields},
		Request:  request,
		ThreadID: threadID,
	}
}

// Content returns the body bytes received so far, valid once
// Header.Complete is true.
func (r *Response) Content() []byte {
	if !r.Header.Complete || r.ContentOffset > len(r.Raw) {
		return nil
	}
	return r.Raw[r.ContentOffset:]
}

// Feed appends p to Raw, parses the header once its terminating blank
// line has arrived, and
// sets Complete once the body (content-length or chunked framed) has
// fully arrived. A non-zero status signals a fatal framing error.
func (r *Response) Feed(p []byte) (status int) {
	if r.Complete {
		return StatusOK
	}
	if len(r.Raw)+len(p) > MaxResponseBufferedSize {
		return 500
	}
	r.Raw = append(r.Raw, p...)

	if !r.Header.Complete {
		idx := bytes.Index(r.Raw, []byte("\r\n\r\n"))
		if idx < 0 {
			return StatusOK
		}
		r.parseHeader(r.Raw[:idx])
		r.Header.Complete = true
		r.ContentOffset = idx + 4
	}

	if r.IsChunked() {
		if bytes.Contains(r.Raw[r.ContentOffset:], []byte(chunkedTerminator)) {
			r.Complete = true
		}
		return StatusOK
	}

	if len(r.Raw)-r.ContentOffset == r.expectedContentLength() {
		r.Complete = true
	}
	return StatusOK
}

func (r *Response) parseHeader(header []byte) {
	lines := bytes.Split(header, []byte("\r\n"))
	for i, line := range lines {
		if i == 0 {
			r.Header.StatusLine = string(line)
			continue
		}
		key, value, found := bytes.Cut(line, []byte(":"))
		if !found {
			continue
		}
		v := strings.TrimPrefix(string(value), " ")
		r.Header.Fields.Put(textproto.CanonicalMIMEHeaderKey(string(key)), v)
	}
}

// IsChunked reports whether the response declared
// Transfer-Encoding: chunked.
func (r *Response) IsChunked() bool {
	v, _ := r.Header.Fields.Get("Transfer-Encoding")
	return v == "chunked"
}

func (r *Response) expectedContentLength() int {
	v, ok := r.Header.Fields.Get("Content-Length")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// StatusCode parses the numeric code out of Header.StatusLine (e.g.
// "HTTP/1.1 200 OK" -> 200), returning 0 if it cannot be parsed.
func (r *Response) StatusCode() int {
	fields := strings.Fields(r.Header.StatusLine)
	if len(fields) < 2 {
		return 0
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0
	}
	return code
}

const responseReadChunk = 8192

// ReadResponse loops reading from conn into a fixed-size buffer,
// feeding each read to a Response, until the response is complete,
// the peer closes, or a framing/read error occurs.
func ReadResponse(conn Reader, request *Request, threadID uint64) (*Response, int) {
	resp := NewResponse(request, threadID)
	buf := make([]byte, responseReadChunk)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if status := resp.Feed(buf[:n]); status != StatusOK {
				return resp, status
			}
			if resp.Complete {
				return resp, StatusOK
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if resp.Header.Complete && !resp.IsChunked() && resp.expectedContentLength() == 0 {
					resp.Complete = true
					return resp, StatusOK
				}
				return resp, StatusPeerClosed
			}
			return resp, 500
		}
	}
}
