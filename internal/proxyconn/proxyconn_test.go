package proxyconn

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayhttp/relay/internal/blacklist"
	"github.com/relayhttp/relay/internal/filecache"
	"github.com/relayhttp/relay/internal/resolver"
	"github.com/relayhttp/relay/internal/shutdown"
	"github.com/relayhttp/relay/metrics"
)

func testDeps(t *testing.T, upstream string) Deps {
	t.Helper()

	res, err := resolver.New(8)
	require.NoError(t, err)
	res.SetLookupForTest(func(_ context.Context, host string) ([]string, error) {
		return []string{"127.0.0.1"}, nil
	})

	cache, err := filecache.New(t.TempDir(), time.Minute, 8)
	require.NoError(t, err)

	deps := Deps{
		Resolver:  res,
		Blacklist: &blacklist.List{},
		Cache:     cache,
		Metrics:   metrics.NewRecorder(),
		Shutdown:  &shutdown.Flag{},
	}
	if upstream != "" {
		deps.Dial = func(ctx context.Context, network, address string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, upstream)
		}
	}
	return deps
}

func TestDepsKeepaliveTimeoutDefaultsWhenUnset(t *testing.T) {
	var d Deps
	assert.Equal(t, KeepaliveTimeout, d.keepaliveTimeout())

	d.KeepaliveTimeout = 5 * time.Second
	assert.Equal(t, 5*time.Second, d.keepaliveTimeout())
}

// fakeUpstream serves exactly one canned HTTP response per accepted
// connection and records how many connections it accepted.
func fakeUpstream(t *testing.T, response string) (addr string, accepts *int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	count := 0
	accepts = &count
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			count++
			go func() {
				defer conn.Close()
				buf := make([]byte, 4096)
				_, _ = conn.Read(buf) // discard forwarded request
				_, _ = conn.Write([]byte(response))
			}()
		}
	}()
	t.Cleanup(func() { ln.Close() })
	return ln.Addr().String(), accepts
}

func TestServeBlacklistedHostReturns403WithoutUpstreamContact(t *testing.T) {
	addr, accepts := fakeUpstream(t, "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n")
	deps := testDeps(t, addr)
	deps.Blacklist = blacklistWith(t, "example.com")

	client, server := net.Pipe()
	defer client.Close()

	go New(deps, server).Serve(context.Background())

	_, _ = client.Write([]byte("GET http://example.com/ HTTP/1.1\r\nConnection: close\r\n\r\n"))
	resp := readResponse(t, client)

	assert.Contains(t, resp, "403 Forbidden")
	assert.Equal(t, 0, *accepts)
}

func TestServeNonGetReturns405(t *testing.T) {
	deps := testDeps(t, "")

	client, server := net.Pipe()
	defer client.Close()

	go New(deps, server).Serve(context.Background())

	_, _ = client.Write([]byte("POST http://example.com/ HTTP/1.1\r\nConnection: close\r\n\r\n"))
	resp := readResponse(t, client)

	assert.Contains(t, resp, "405 Method Not Allowed")
}

func TestServeFetchesFromUpstreamAndCaches(t *testing.T) {
	body := "<html><body>hi</body></html>"
	upstreamResp := "HTTP/1.1 200 OK\r\nContent-Length: " + itoa(len(body)) + "\r\n\r\n" + body
	addr, accepts := fakeUpstream(t, upstreamResp)
	deps := testDeps(t, addr)

	client, server := net.Pipe()
	defer client.Close()

	go New(deps, server).Serve(context.Background())

	_, _ = client.Write([]byte("GET http://example.com/index.html HTTP/1.1\r\nConnection: close\r\n\r\n"))
	resp := readResponse(t, client)

	assert.Contains(t, resp, "200 OK")
	assert.Contains(t, resp, body)
	assert.Equal(t, 1, *accepts)

	_, hit := deps.Cache.Lookup("http://example.com/index.html")
	assert.True(t, hit)
}

func TestServeKeepAliveReusesUpstreamSocket(t *testing.T) {
	body := "ok"
	upstreamResp := "HTTP/1.1 200 OK\r\nContent-Length: " + itoa(len(body)) + "\r\n\r\n" + body
	addr, accepts := fakeUpstreamKeepAlive(t, upstreamResp)
	deps := testDeps(t, addr)

	client, server := net.Pipe()
	defer client.Close()

	go New(deps, server).Serve(context.Background())

	_, _ = client.Write([]byte("GET http://example.com/a.html HTTP/1.1\r\n\r\n"))
	readResponse(t, client)

	_, _ = client.Write([]byte("GET http://example.com/b.html HTTP/1.1\r\n\r\n"))
	readResponse(t, client)

	client.Close()
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, *accepts, "keep-alive requests to the same host should reuse one upstream connection")
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func blacklistWith(t *testing.T, entries ...string) *blacklist.List {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blacklist.txt")
	content := ""
	for _, e := range entries {
		content += e + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return blacklist.Load(path)
}

func readResponse(t *testing.T, conn net.Conn) string {
	t.Helper()
	var out []byte
	buf := make([]byte, 4096)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		n, err := conn.Read(buf)
		out = append(out, buf[:n]...)
		if err != nil {
			break
		}
	}
	return string(out)
}

func fakeUpstreamKeepAlive(t *testing.T, response string) (addr string, accepts *int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	count := 0
	accepts = &count
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			count++
			go func() {
				defer conn.Close()
				buf := make([]byte, 4096)
				for {
					n, err := conn.Read(buf)
					if n == 0 || err != nil {
						return
					}
					if _, err := conn.Write([]byte(response)); err != nil {
						return
					}
				}
			}()
		}
	}()
	t.Cleanup(func() { ln.Close() })
	return ln.Addr().String(), accepts
}
