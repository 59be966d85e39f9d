package server

import (
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/ValentinKolb/rKV/lib/db"
	"github.com/ValentinKolb/rKV/lib/db/engines/maple"
	"github.com/ValentinKolb/rKV/lib/resp"
	"github.com/ValentinKolb/rKV/lib/store/lstore"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/ValentinKolb/rKV/rpc/transport/tcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestServer serves on a random loopback port and returns the server and its address
func startTestServer(t *testing.T, mutate func(*common.ServerConfig), opts ...Option) (IRPCServer, string) {
	t.Helper()

	config := common.DefaultServerConfig()
	config.Transport.Endpoint = "127.0.0.1:0"
	if mutate != nil {
		mutate(&config)
	}

	tr := tcp.NewTCPServerTransport()
	srv := NewRPCServer(config, tr, opts...)

	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()
	require.Eventually(t, func() bool { return tr.Addr() != nil }, 2*time.Second, 5*time.Millisecond)

	t.Cleanup(func() {
		require.NoError(t, srv.Close())
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("Serve() did not return after Close()")
		}
	})
	return srv, tr.Addr().String()
}

func rawConn(t *testing.T, addr string) (net.Conn, *resp.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	return conn, resp.NewReader(conn, resp.Limits{})
}

// freeAddr returns a loopback address nothing listens on
func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestServerPipeline(t *testing.T) {
	_, addr := startTestServer(t, nil)
	conn, r := rawConn(t, addr)

	requests := []resp.Value{
		resp.Command("PING"),
		resp.Command("SET", "foo", "bar"),
		resp.Command("GET", "foo"),
		resp.Command("FOO"),
		resp.Command("GET", "missing"),
		resp.Command("ECHO", "hey"),
	}
	want := []resp.Value{
		resp.SimpleString("PONG"),
		resp.SimpleString("OK"),
		resp.BulkString("bar"),
		resp.Error("unknown command"),
		resp.Error("key not found"),
		resp.BulkString("hey"),
	}

	var batch []byte
	for _, req := range requests {
		batch = append(batch, resp.Encode(req)...)
	}
	_, err := conn.Write(batch)
	require.NoError(t, err)

	for i := range want {
		got, err := r.ReadValue()
		require.NoError(t, err)
		assert.Equal(t, want[i], got, "reply %d", i)
	}
}

func TestServerWireFormat(t *testing.T) {
	_, addr := startTestServer(t, nil)
	conn, _ := rawConn(t, addr)

	_, err := conn.Write([]byte("*1\r\n$4\r\nPING\r\n*2\r\n$3\r\nGET\r\n$1\r\nx\r\n"))
	require.NoError(t, err)

	want := "+PONG\r\n-key not found\r\n"
	buf := make([]byte, len(want))
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	assert.Equal(t, want, string(buf))
}

func TestServerExpiry(t *testing.T) {
	_, addr := startTestServer(t, nil)
	conn, r := rawConn(t, addr)

	_, err := conn.Write(resp.Encode(resp.Command("SET", "k", "v", "PX", "1")))
	require.NoError(t, err)
	v, err := r.ReadValue()
	require.NoError(t, err)
	require.Equal(t, resp.SimpleString("OK"), v)

	time.Sleep(20 * time.Millisecond)

	_, err = conn.Write(resp.Encode(resp.Command("GET", "k")))
	require.NoError(t, err)
	v, err = r.ReadValue()
	require.NoError(t, err)
	assert.Equal(t, resp.NullBulkString(), v)
}

func TestServerConnectionsShareStore(t *testing.T) {
	_, addr := startTestServer(t, nil)
	a, ra := rawConn(t, addr)
	b, rb := rawConn(t, addr)

	_, err := a.Write(resp.Encode(resp.Command("SET", "shared", "1")))
	require.NoError(t, err)
	_, err = ra.ReadValue()
	require.NoError(t, err)

	_, err = b.Write(resp.Encode(resp.Command("GET", "shared")))
	require.NoError(t, err)
	v, err := rb.ReadValue()
	require.NoError(t, err)
	assert.Equal(t, resp.BulkString("1"), v)
}

func TestServerProtocolErrorClosesConnection(t *testing.T) {
	_, addr := startTestServer(t, nil)
	conn, r := rawConn(t, addr)

	_, err := conn.Write([]byte("$-2\r\n"))
	require.NoError(t, err)

	v, err := r.ReadValue()
	require.NoError(t, err)
	assert.Equal(t, resp.Error("protocol error"), v)

	_, err = r.ReadValue()
	assert.ErrorIs(t, err, io.EOF)

	// other connections are unaffected
	conn2, r2 := rawConn(t, addr)
	_, err = conn2.Write(resp.Encode(resp.Command("PING")))
	require.NoError(t, err)
	v, err = r2.ReadValue()
	require.NoError(t, err)
	assert.Equal(t, resp.SimpleString("PONG"), v)
}

func TestServerLimits(t *testing.T) {
	_, addr := startTestServer(t, func(c *common.ServerConfig) {
		c.Protocol = resp.Limits{MaxBulkLen: 8}
	})
	conn, r := rawConn(t, addr)

	_, err := conn.Write(resp.Encode(resp.Command("ECHO", "this is too long")))
	require.NoError(t, err)

	v, err := r.ReadValue()
	require.NoError(t, err)
	assert.Equal(t, resp.Error("protocol error"), v)
}

func TestServerWithStore(t *testing.T) {
	s := lstore.NewLocalStore(func() db.KVDB { return maple.NewMapleDB(nil) })
	require.NoError(t, s.Set("preloaded", []byte("yes")))

	srv, addr := startTestServer(t, nil, WithStore(s))
	assert.Same(t, s, srv.Store())

	conn, r := rawConn(t, addr)
	_, err := conn.Write(resp.Encode(resp.Command("GET", "preloaded")))
	require.NoError(t, err)
	v, err := r.ReadValue()
	require.NoError(t, err)
	assert.Equal(t, resp.BulkString("yes"), v)
}

func TestServerMetricsEndpoint(t *testing.T) {
	metricsAddr := freeAddr(t)
	_, addr := startTestServer(t, func(c *common.ServerConfig) { c.MetricsEndpoint = metricsAddr })

	conn, r := rawConn(t, addr)
	_, err := conn.Write(resp.Encode(resp.Command("PING")))
	require.NoError(t, err)
	_, err = r.ReadValue()
	require.NoError(t, err)

	var body string
	require.Eventually(t, func() bool {
		res, err := http.Get("http://" + metricsAddr + "/metrics")
		if err != nil {
			return false
		}
		defer res.Body.Close()
		raw, err := io.ReadAll(res.Body)
		if err != nil {
			return false
		}
		body = string(raw)
		return res.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	assert.Contains(t, body, `rkv_commands_total{command="PING"} 1`)
	assert.Contains(t, body, `rkv_active_connections 1`)
	assert.Contains(t, body, `process_`)
}

func TestServerCloseIsIdempotent(t *testing.T) {
	config := common.DefaultServerConfig()
	config.Transport.Endpoint = "127.0.0.1:0"
	srv := NewRPCServer(config, tcp.NewTCPServerTransport())

	require.NoError(t, srv.Close())
	require.NoError(t, srv.Close())
}

// the transport handler signature must match Dispatcher.Step
var _ transport.ServerHandleFunc = (&Dispatcher{}).Step
