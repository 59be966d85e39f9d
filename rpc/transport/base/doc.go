// Package base provides a foundation for the stream transports of rKV, implementing the
// connection handling independent of the specific network protocol (TCP, Unix sockets).
// Protocol-specific connectors plug into it.
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific operations
//     (dialing, listening and socket tuning).
//
//   - serverTransport: Accepts connections and serves each in its own goroutine. Bytes
//     read from a connection are fed into a per connection resp.Decoder and the
//     registered handler is called until it reports that it needs more bytes. Requests of
//     one connection are handled strictly sequentially, so replies are written in request
//     order. Replies to pipelined requests that arrived in one read are batched into a
//     single write.
//
//   - clientTransport: Manages multiple connections per endpoint with round-robin load
//     balancing. RESP has no request ids, so every connection carries one request at a
//     time. Failed requests are retried on the next connection with exponential backoff,
//     and a broken connection is re-established on its next use.
//
// Connection lifecycle (server):
//
//   - An idle connection is closed once no bytes arrived for TimeoutSecond seconds.
//   - With RateLimit set, every connection gets its own token bucket
//     (golang.org/x/time/rate) and a reply is only written once a token is available.
//   - Every I/O error tears down only the affected connection. A reply marked
//     StepReplyAndClose is flushed before the connection is closed.
//   - Open connections are tracked in an xsync.MapOf so Close can shut them all down and
//     Connections can report their number.
//
// Buffer Pooling: The server uses a sync.Pool to reuse read buffers across connections.
package base
