package httpcodec

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRequest = "GET http://www.example.com:8080/path/to/resource.html HTTP/1.1\r\n" +
	"Host: www.example.com:8080\r\n" +
	"Connection: keep-alive\r\n" +
	"User-Agent: test-client\r\n" +
	"\r\n"

func TestRequestFeedSingleShot(t *testing.T) {
	req := NewRequest("127.0.0.1", 1)
	residual, status := req.Feed([]byte(sampleRequest))

	require.Equal(t, 0, status)
	assert.Equal(t, 0, residual)
	assert.True(t, req.Complete)
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "HTTP/1.1", req.HTTPVersion)
	assert.Equal(t, "keep-alive", req.Connection)
	assert.Equal(t, "www.example.com", req.URL.Host)
	assert.EqualValues(t, 8080, req.URL.Port)
	assert.Equal(t, "/path/to/resource.html", req.URL.Path)
}

func TestRequestFeedArbitrarySplit(t *testing.T) {
	for split := 1; split < len(sampleRequest); split++ {
		req := NewRequest("127.0.0.1", 1)
		_, status := req.Feed([]byte(sampleRequest[:split]))
		require.Equal(t, 0, status, "split=%d", split)

		if req.Complete {
			// whole message landed in the first fragment; nothing left to feed
			continue
		}
		_, status = req.Feed([]byte(sampleRequest[split:]))
		require.Equal(t, 0, status, "split=%d", split)
		require.True(t, req.Complete, "split=%d", split)
		assert.Equal(t, "GET", req.Method, "split=%d", split)
		assert.Equal(t, "www.example.com", req.URL.Host, "split=%d", split)
	}
}

func TestRequestFeedResidualThenComplete(t *testing.T) {
	cut := bytes.IndexByte([]byte(sampleRequest), '\n') - 3 // mid request-line
	require.Greater(t, cut, 0)

	req := NewRequest("127.0.0.1", 1)
	residual, status := req.Feed([]byte(sampleRequest[:cut]))
	require.Equal(t, 0, status)
	require.False(t, req.Complete)
	assert.Greater(t, residual, 0)

	_, status = req.Feed([]byte(sampleRequest[cut:]))
	require.Equal(t, 0, status)
	assert.True(t, req.Complete)
}

func TestRequestFeedMalformedRequestLine(t *testing.T) {
	req := NewRequest("127.0.0.1", 1)
	_, status := req.Feed([]byte("GET only-two-fields\r\n\r\n"))
	assert.Equal(t, 400, status)
}

func TestRequestFeedOversizeHeaderIsRejected(t *testing.T) {
	req := NewRequest("127.0.0.1", 1)
	oversized := bytes.Repeat([]byte("a"), MaxRequestHeaderSize+1)
	_, status := req.Feed(oversized)
	assert.Equal(t, 431, status)
}

func TestRequestIsKeepAlive(t *testing.T) {
	req := &Request{HTTPVersion: "HTTP/1.1"}
	assert.True(t, req.IsKeepAlive())

	req = &Request{HTTPVersion: "HTTP/1.0"}
	assert.False(t, req.IsKeepAlive())

	req = &Request{HTTPVersion: "HTTP/1.0", Connection: "Keep-Alive"}
	assert.True(t, req.IsKeepAlive())

	req = &Request{HTTPVersion: "HTTP/1.1", Connection: "close"}
	assert.False(t, req.IsKeepAlive())
}

type fakeConn struct {
	chunks [][]byte
	i      int
}

func (f *fakeConn) Read(p []byte) (int, error) {
	if f.i >= len(f.chunks) {
		return 0, io.EOF
	}
	n := copy(p, f.chunks[f.i])
	f.i++
	return n, nil
}

func TestReadRequestAcrossMultipleReads(t *testing.T) {
	mid := len(sampleRequest) / 2
	conn := &fakeConn{chunks: [][]byte{[]byte(sampleRequest[:mid]), []byte(sampleRequest[mid:])}}

	req, status := ReadRequest(conn, "10.0.0.1", 42)
	require.Equal(t, 0, status)
	assert.True(t, req.Complete)
	assert.Equal(t, "GET", req.Method)
	assert.EqualValues(t, 42, req.ThreadID)
}

func TestReadRequestPeerClosedBeforeComplete(t *testing.T) {
	conn := &fakeConn{chunks: [][]byte{[]byte("GET http://example.com/ HTTP/1.1\r\n")}}
	_, status := ReadRequest(conn, "10.0.0.1", 1)
	assert.Equal(t, StatusPeerClosed, status)
}
