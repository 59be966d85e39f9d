package client

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/rKV/lib/db"
	"github.com/ValentinKolb/rKV/lib/resp"
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/server"
	"github.com/ValentinKolb/rKV/rpc/transport/tcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) IClient {
	t.Helper()

	config := common.DefaultServerConfig()
	config.Transport.Endpoint = "127.0.0.1:0"

	tr := tcp.NewTCPServerTransport()
	srv := server.NewRPCServer(config, tr)

	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()
	require.Eventually(t, func() bool { return tr.Addr() != nil }, 2*time.Second, 5*time.Millisecond)

	c, err := NewRPCClient(common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConfig{
			Endpoints:              []string{tr.Addr().String()},
			RetryCount:             3,
			ConnectionsPerEndpoint: 2,
		},
	}, tcp.NewTCPClientTransport())
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, c.Close())
		assert.NoError(t, srv.Close())
		<-done
	})
	return c
}

func TestClientPingEcho(t *testing.T) {
	c := newTestClient(t)

	require.NoError(t, c.Ping())

	for _, msg := range []string{"hello", "", "with\r\nnewline", strings.Repeat("z", 70_000)} {
		got, err := c.Echo([]byte(msg))
		require.NoError(t, err)
		assert.Equal(t, msg, string(got))
	}
}

func TestClientSetGet(t *testing.T) {
	c := newTestClient(t)

	require.NoError(t, c.Set("key", []byte("value")))

	value, status, err := c.Get("key")
	require.NoError(t, err)
	assert.Equal(t, db.StatusFound, status)
	assert.Equal(t, []byte("value"), value)

	// overwrite
	require.NoError(t, c.Set("key", []byte("other")))
	value, _, err = c.Get("key")
	require.NoError(t, err)
	assert.Equal(t, []byte("other"), value)
}

func TestClientGetMissing(t *testing.T) {
	c := newTestClient(t)

	value, status, err := c.Get("missing")
	require.NoError(t, err)
	assert.Equal(t, db.StatusNotFound, status)
	assert.Nil(t, value)
}

func TestClientSetE(t *testing.T) {
	c := newTestClient(t)

	require.NoError(t, c.SetE("short", []byte("v"), 1))
	require.NoError(t, c.SetE("long", []byte("v"), 60_000))

	time.Sleep(20 * time.Millisecond)

	_, status, err := c.Get("short")
	require.NoError(t, err)
	assert.Equal(t, db.StatusExpired, status)

	value, status, err := c.Get("long")
	require.NoError(t, err)
	assert.Equal(t, db.StatusFound, status)
	assert.Equal(t, []byte("v"), value)
}

func TestClientDo(t *testing.T) {
	c := newTestClient(t)

	tests := []struct {
		name string
		args []string
		want resp.Value
	}{
		{"ping", []string{"PING"}, resp.SimpleString("PONG")},
		{"mixed case", []string{"eChO", "x"}, resp.BulkString("x")},
		{"set with EX", []string{"SET", "k", "v", "EX", "10"}, resp.SimpleString("OK")},
		{"get", []string{"GET", "k"}, resp.BulkString("v")},
		{"unknown", []string{"FOO", "bar"}, resp.Error("unknown command")},
		{"missing", []string{"GET", "nope"}, resp.Error("key not found")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Do(tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClientGetDBInfoUnsupported(t *testing.T) {
	c := newTestClient(t)

	_, err := c.GetDBInfo()
	var storeErr *store.Error
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, store.RetCUnsupportedOperation, storeErr.Code)
}

func TestClientConcurrent(t *testing.T) {
	c := newTestClient(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i))
			for j := 0; j < 50; j++ {
				value := []byte(strings.Repeat(key, j+1))
				if !assert.NoError(t, c.Set(key, value)) {
					return
				}
				got, status, err := c.Get(key)
				if assert.NoError(t, err) {
					assert.Equal(t, db.StatusFound, status)
					assert.Equal(t, value, got)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestNewRPCClientWithoutEndpoints(t *testing.T) {
	_, err := NewRPCClient(common.ClientConfig{}, tcp.NewTCPClientTransport())
	assert.Error(t, err)
}
