package base

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/rKV/lib/resp"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/time/rate"
)

var Logger = logger.GetLogger("transport")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector  IServerConnector
	handler    transport.ServerHandleFunc
	config     common.ServerConfig
	bufferPool *sync.Pool
	bufferSize int

	// lifecycle
	mu       sync.Mutex
	listener net.Listener
	closed   atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc

	// open connections by id
	conns      *xsync.MapOf[uint64, net.Conn]
	nextConnID atomic.Uint64
	wg         sync.WaitGroup
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport. bufferSize is the size of the
// per connection read buffer and of the write buffer used to batch pipelined replies.
func NewBaseServerTransport(connector IServerConnector, bufferSize int) transport.IRPCServerTransport {
	if bufferSize <= 0 {
		bufferSize = 64 * 1024
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &serverTransport{
		connector:  connector,
		bufferSize: bufferSize,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				return make([]byte, bufferSize)
			},
		},
		ctx:    ctx,
		cancel: cancel,
		conns:  xsync.NewMapOf[uint64, net.Conn](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	if t.handler == nil {
		return fmt.Errorf("no handler registered")
	}
	t.config = config

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %v", err)
	}

	t.mu.Lock()
	if t.closed.Load() {
		t.mu.Unlock()
		return listener.Close()
	}
	t.listener = listener
	t.mu.Unlock()

	Logger.Infof("Starting %s server on %s", t.connector.GetName(), listener.Addr())

	// Accept connections
	for {
		conn, err := listener.Accept()
		if err != nil {
			if t.closed.Load() || errors.Is(err, net.ErrClosed) {
				t.wg.Wait()
				return nil
			}
			Logger.Errorf("Accept error: %v", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		if err := t.connector.UpgradeConnection(conn, config); err != nil {
			Logger.Warningf("Failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
			_ = conn.Close()
			continue
		}

		id := t.nextConnID.Add(1)
		t.conns.Store(id, conn)
		t.wg.Add(1)

		// a Close that raced with Accept may have missed this connection
		if t.closed.Load() {
			_ = conn.Close()
		}

		// Handle the connection in a goroutine
		go func() {
			defer t.wg.Done()
			defer t.conns.Delete(id)
			t.handleConnection(conn)
		}()
	}
}

func (t *serverTransport) Addr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener == nil {
		return nil
	}
	return t.listener.Addr()
}

func (t *serverTransport) Connections() int {
	return t.conns.Size()
}

func (t *serverTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	t.cancel()

	var err error
	if t.listener != nil {
		err = t.listener.Close()
	}

	t.conns.Range(func(_ uint64, conn net.Conn) bool {
		_ = conn.Close()
		return true
	})
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection serves one connection until the peer disconnects, an I/O error occurs,
// the handler asks to close it, or the transport is closed.
// Requests are handled strictly one after another, so replies leave in request order.
func (t *serverTransport) handleConnection(conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr()
	Logger.Debugf("Accepted connection from %s", remote)

	// Idle timeout in seconds
	timeout := time.Duration(t.config.TimeoutSecond) * time.Second

	// Per connection rate limit
	var limiter *rate.Limiter
	if t.config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(t.config.RateLimit), max(1, t.config.RateBurst))
	}

	// Get a buffer from the pool
	buf := t.bufferPool.Get().([]byte)
	defer t.bufferPool.Put(buf)

	dec := resp.NewDecoder(t.config.Protocol)
	w := bufio.NewWriterSize(conn, t.bufferSize)

	for {
		if timeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
				Logger.Errorf("Failed to set read deadline for %s: %v", remote, err)
				return
			}
		}

		n, readErr := conn.Read(buf)
		if n > 0 {
			dec.Feed(buf[:n])

			closeConn, err := t.serveBuffered(dec, w, limiter)
			if err != nil {
				if !t.closed.Load() {
					Logger.Warningf("Failed to write reply to %s: %v", remote, err)
				}
				return
			}
			if closeConn {
				Logger.Debugf("Closing connection to %s after protocol error", remote)
				return
			}
		}

		if readErr != nil {
			t.logReadError(remote, readErr, dec.Buffered())
			return
		}
	}
}

// serveBuffered answers every complete request held by dec and flushes the replies.
// It reports whether the connection must be closed.
func (t *serverTransport) serveBuffered(dec *resp.Decoder, w *bufio.Writer, limiter *rate.Limiter) (bool, error) {
	for {
		reply, result := t.handler(dec)
		if result == transport.StepNeedMore {
			return false, w.Flush()
		}

		if limiter != nil {
			// flush what is already answered before blocking
			if limiter.Tokens() < 1 {
				if err := w.Flush(); err != nil {
					return true, err
				}
			}
			if err := limiter.Wait(t.ctx); err != nil {
				return true, err
			}
		}

		if err := resp.Write(w, reply); err != nil {
			return true, err
		}

		if result == transport.StepReplyAndClose {
			return true, w.Flush()
		}
	}
}

// logReadError logs why reading from a connection stopped
func (t *serverTransport) logReadError(remote net.Addr, err error, buffered int) {
	var netErr net.Error
	switch {
	case t.closed.Load():
		// shutdown closed the connection
	case errors.Is(err, io.EOF):
		if buffered > 0 {
			Logger.Debugf("Connection %s closed with %d bytes of an incomplete request", remote, buffered)
		} else {
			Logger.Debugf("Connection closed by client %s", remote)
		}
	case errors.As(err, &netErr) && netErr.Timeout():
		Logger.Infof("Closing idle connection %s", remote)
	default:
		Logger.Errorf("Error reading from %s: %v", remote, err)
	}
}
