package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ttstream"

// Drop reasons for EventsDropped.
const (
	DropTranslation = "translation"
	DropDecode      = "decode"
	DropMalformed   = "malformed"
)

var (
	FramesReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dxlink",
		Name:      "frames_received_total",
		Help:      "Inbound streamer frames by type.",
	}, []string{"type"})

	FramesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dxlink",
		Name:      "frames_sent_total",
		Help:      "Outbound streamer frames by type.",
	}, []string{"type"})

	EventsDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dxlink",
		Name:      "events_dispatched_total",
		Help:      "Feed events delivered to a handler.",
	}, []string{"event_type"})

	EventsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dxlink",
		Name:      "events_dropped_total",
		Help:      "Feed events dropped before reaching a handler.",
	}, []string{"reason"})

	OpenSubscriptions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "dxlink",
		Name:      "open_subscriptions",
		Help:      "Subscriptions with a live receive loop.",
	})
)

// Register adds every collector to reg. Collectors already present are
// skipped so repeated calls are harmless.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{FramesReceived, FramesSent, EventsDispatched, EventsDropped, OpenSubscriptions} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
