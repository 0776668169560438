package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "classpulse_ws_active_connections",
		Help: "Currently open websocket connections.",
	})

	EventsBroadcast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classpulse_events_broadcast_total",
		Help: "Events fanned out to rooms, by event name.",
	}, []string{"event"})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classpulse_events_dropped_total",
		Help: "Events dropped because a client send buffer was full.",
	})

	NotificationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classpulse_notifications_created_total",
		Help: "Notification records persisted.",
	})
)
