// Package server implements the rKV RESP server: the command dispatcher and the server that
// binds it to a transport and a store.
//
// The package focuses on:
//   - Translating decoded RESP requests into commands and executing them against a store.IStore
//   - Driving the per connection request cycle (decode, translate, execute, encode)
//   - Exposing runtime metrics of the server and its store
//
// Key Components:
//
//   - Dispatcher: Stateless command executor. Its Step method is registered as the
//     transport handler and turns the bytes buffered for a connection into replies. Step
//     distinguishes three outcomes: more bytes are needed, a reply is ready, or a reply is
//     ready and the connection must be closed because the framing was violated.
//
//   - NewRPCServer: Factory function creating a server for a transport. Unless a store is
//     passed with WithStore, all connections share one local store backed by the maple engine.
//
//   - serverMetrics: Per server VictoriaMetrics set with command counters, a command
//     duration histogram and gauges for open connections and stored keys. If
//     MetricsEndpoint is configured, the metrics are served on http://<endpoint>/metrics.
//
// Command semantics:
//
//	PING                       -> +PONG
//	ECHO msg                   -> $msg
//	SET key value [EX s|PX ms] -> +OK
//	GET key                    -> $value, $-1 once the key expired, -key not found
//	anything else              -> -unknown command (the store is not touched)
//	malformed framing          -> -protocol error, then the connection is closed
//
// Usage Example:
//
//	config := common.DefaultServerConfig()
//	config.Transport.Endpoint = "0.0.0.0:6379"
//
//	s := server.NewRPCServer(config, tcp.NewTCPServerTransport())
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Thread Safety:
//
//	Requests of different connections are executed concurrently, requests of one
//	connection strictly in order. The store is the only shared state.
package server
