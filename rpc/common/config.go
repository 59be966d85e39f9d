package common

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ValentinKolb/rKV/lib/resp"
)

// --------------------------------------------------------------------------
// Shared transport configuration
// --------------------------------------------------------------------------

// SocketConf holds buffer settings applied to every stream socket
type SocketConf struct {
	WriteBufferSize int // in bytes, 0 = os default
	ReadBufferSize  int // in bytes, 0 = os default
}

// TCPConf holds settings only applied to tcp sockets
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int // 0 = disabled
	TCPLingerSec    int // < 0 = os default
}

// ServerTransportConfig configures the listening side of a transport
type ServerTransportConfig struct {
	Endpoint string
	SocketConf
	TCPConf
}

// ClientTransportConfig configures the dialing side of a transport
type ClientTransportConfig struct {
	Endpoints              []string
	RetryCount             int
	ConnectionsPerEndpoint int
	SocketConf
	TCPConf
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters of the rKV server.
type ServerConfig struct {
	Transport ServerTransportConfig

	// TimeoutSecond closes connections that were idle for this long (0 = never)
	TimeoutSecond int64

	// Protocol bounds the size of decoded requests
	Protocol resp.Limits

	// RateLimit is the number of commands per second a single connection may issue (0 = unlimited)
	RateLimit float64
	// RateBurst is the token bucket size of the per connection rate limiter
	RateBurst int

	// MetricsEndpoint is the address of the http metrics endpoint ("" = disabled)
	MetricsEndpoint string

	// Logging configuration
	LogLevel string
}

// DefaultServerConfig returns a config listening on the default redis port
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Transport: ServerTransportConfig{
			Endpoint: "0.0.0.0:6379",
			TCPConf: TCPConf{
				TCPNoDelay:   true,
				TCPLingerSec: -1,
			},
		},
		TimeoutSecond: 0,
		Protocol:      resp.DefaultLimits(),
		LogLevel:      "info",
	}
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Idle Timeout", durationOrOff(c.TimeoutSecond))
	addField("Write Buffer", bytesOrDefault(c.Transport.WriteBufferSize))
	addField("Read Buffer", bytesOrDefault(c.Transport.ReadBufferSize))
	addField("TCP No Delay", strconv.FormatBool(c.Transport.TCPNoDelay))
	addField("TCP Keep Alive", durationOrOff(int64(c.Transport.TCPKeepAliveSec)))

	// Protocol limits
	addSection("Protocol")
	addField("Max Bulk Length", fmt.Sprintf("%d bytes", c.Protocol.MaxBulkLen))
	addField("Max Array Length", strconv.FormatInt(c.Protocol.MaxArrayLen, 10))
	addField("Max Nesting Depth", strconv.Itoa(c.Protocol.MaxDepth))
	addField("Max Line Length", fmt.Sprintf("%d bytes", c.Protocol.MaxLineLen))

	// Rate limiting
	addSection("Rate Limit")
	if c.RateLimit > 0 {
		addField("Commands / sec", strconv.FormatFloat(c.RateLimit, 'f', -1, 64))
		addField("Burst", strconv.Itoa(c.RateBurst))
	} else {
		addField("Commands / sec", "unlimited")
	}

	// Metrics
	addSection("Metrics")
	if c.MetricsEndpoint != "" {
		addField("Endpoint", c.MetricsEndpoint)
	} else {
		addField("Endpoint", "disabled")
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

type ClientConfig struct {
	TimeoutSecond int
	Transport     ClientTransportConfig
	Protocol      resp.Limits
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Conn. Per Endpoint", strconv.Itoa(max(1, c.Transport.ConnectionsPerEndpoint)))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func durationOrOff(sec int64) string {
	if sec <= 0 {
		return "off"
	}
	return fmt.Sprintf("%d sec", sec)
}

func bytesOrDefault(n int) string {
	if n <= 0 {
		return "os default"
	}
	return fmt.Sprintf("%d KB", n/1024)
}
