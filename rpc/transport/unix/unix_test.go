package unix

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/rKV/lib/resp"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoFirstArg answers every command with its first argument
func echoFirstArg(dec *resp.Decoder) (resp.Value, transport.StepResult) {
	v, err := dec.Next()
	if errors.Is(err, resp.ErrIncomplete) {
		return resp.Value{}, transport.StepNeedMore
	}
	if err != nil || len(v.Array) < 2 {
		return resp.Error("bad request"), transport.StepReplyAndClose
	}
	arg, _ := v.Array[1].Text()
	return resp.BulkString(arg), transport.StepReply
}

func TestUnixRoundTrip(t *testing.T) {
	// unix socket paths are short, t.TempDir may exceed the limit
	dir, err := os.MkdirTemp("", "rkv")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	socket := filepath.Join(dir, "rkv.sock")

	// a stale socket file is replaced
	require.NoError(t, os.WriteFile(socket, nil, 0o600))

	config := common.DefaultServerConfig()
	config.Transport.Endpoint = socket
	config.Transport.ReadBufferSize = 32 * 1024

	srv := NewUnixServerTransportSize(4 * 1024)
	srv.RegisterHandler(echoFirstArg)

	done := make(chan error, 1)
	go func() { done <- srv.Listen(config) }()
	require.Eventually(t, func() bool { return srv.Addr() != nil }, 2*time.Second, 5*time.Millisecond)

	client := NewUnixClientTransport()
	require.NoError(t, client.Connect(common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConfig{
			Endpoints:  []string{socket},
			SocketConf: common.SocketConf{WriteBufferSize: 32 * 1024},
		},
	}))

	// larger than the server buffer, so the request arrives in several reads
	big := string(make([]byte, 20_000))
	for _, msg := range []string{"hello", big} {
		reply, err := client.Send(resp.Command("ECHO", msg))
		require.NoError(t, err)
		assert.Equal(t, resp.BulkString(msg), reply)
	}

	require.NoError(t, client.Close())
	require.NoError(t, srv.Close())
	require.NoError(t, <-done)
}
