package server

import (
	"net/http"

	"github.com/Tyrowin/roomchat/internal/chat"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Join rejection reasons used as metric labels.
const (
	reasonNotFound = "not_found"
	reasonFull     = "full"
	reasonJoined   = "already_joined"
)

// Metrics holds the Prometheus collectors for one server instance.
type Metrics struct {
	registry *prometheus.Registry

	connections    prometheus.Gauge
	messages       prometheus.Counter
	joinRejections *prometheus.CounterVec
	malformed      prometheus.Counter
}

// NewMetrics registers the server collectors on a private registry. The
// active room gauge reads rooms on scrape.
func NewMetrics(rooms *chat.Registry) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "roomchat",
			Name:      "connections_active",
			Help:      "WebSocket connections currently registered with the hub.",
		}),
		messages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roomchat",
			Name:      "messages_total",
			Help:      "Chat messages appended to rooms.",
		}),
		joinRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roomchat",
			Name:      "join_rejections_total",
			Help:      "join_room requests that were refused, by reason.",
		}, []string{"reason"}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roomchat",
			Name:      "malformed_envelopes_total",
			Help:      "Inbound envelopes dropped because they could not be decoded or validated.",
		}),
	}

	m.registry.MustRegister(
		m.connections,
		m.messages,
		m.joinRejections,
		m.malformed,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "roomchat",
			Name:      "rooms_active",
			Help:      "Rooms currently held by the registry, pending ones included.",
		}, func() float64 { return float64(rooms.Len()) }),
	)
	return m
}

// Handler exposes the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
