package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/VictoriaMetrics/metrics"
)

// serverMetrics holds the metrics of one server. Every server registers its metrics in its
// own set, so several servers can live in one process. All methods accept a nil receiver.
type serverMetrics struct {
	set            *metrics.Set
	commands       map[common.CommandType]*metrics.Counter
	unknown        *metrics.Counter
	protocolErrors *metrics.Counter
	duration       *metrics.Histogram
}

// newServerMetrics creates the metric set. The gauges are evaluated at scrape time.
func newServerMetrics(s store.IStore, connections func() int) *serverMetrics {
	set := metrics.NewSet()

	m := &serverMetrics{
		set:            set,
		commands:       make(map[common.CommandType]*metrics.Counter),
		unknown:        set.NewCounter(`rkv_unknown_commands_total`),
		protocolErrors: set.NewCounter(`rkv_protocol_errors_total`),
		duration:       set.NewHistogram(`rkv_command_duration_seconds`),
	}
	for _, t := range []common.CommandType{common.CmdPing, common.CmdEcho, common.CmdSet, common.CmdGet} {
		m.commands[t] = set.NewCounter(fmt.Sprintf(`rkv_commands_total{command=%q}`, t.String()))
	}

	set.NewGauge(`rkv_active_connections`, func() float64 {
		return float64(connections())
	})
	set.NewGauge(`rkv_store_keys`, func() float64 {
		info, err := s.GetDBInfo()
		if err != nil {
			return 0
		}
		return float64(info.Keys)
	})
	set.NewGauge(`rkv_store_expired_keys`, func() float64 {
		info, err := s.GetDBInfo()
		if err != nil {
			return 0
		}
		return float64(info.ExpiredKeys)
	})

	return m
}

func (m *serverMetrics) commandDone(t common.CommandType, start time.Time) {
	if m == nil {
		return
	}
	if c, ok := m.commands[t]; ok {
		c.Inc()
	}
	m.duration.UpdateDuration(start)
}

func (m *serverMetrics) unknownCommand() {
	if m != nil {
		m.unknown.Inc()
	}
}

func (m *serverMetrics) protocolError() {
	if m != nil {
		m.protocolErrors.Inc()
	}
}

// WritePrometheus writes the server and process metrics in the prometheus text format
func (m *serverMetrics) WritePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
	metrics.WriteProcessMetrics(w)
}

// handler serves the metrics on /metrics
func (m *serverMetrics) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		m.WritePrometheus(w)
	})
	return mux
}
