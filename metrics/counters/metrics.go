package counters

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var connectionsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "server",
	Name:      "connections_active",
	Help:      "Number of active gateway ws connections",
}, []string{"gateway"})

var statusChangeCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "network",
	Name:      "status_change_count",
	Help:      "Total number of accepted status transitions.",
}, []string{"dimension", "status"})

var pushOutcomeCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "roaming",
	Name:      "push_outcome_count",
	Help:      "Total number of partner pushes by terminal state.",
}, []string{"partner", "state"})

var pushedUpdatesCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "roaming",
	Name:      "pushed_updates_count",
	Help:      "Total number of status updates delivered to partners.",
}, []string{"partner"})

func ObserveConnection(gateway string, delta int) {
	if len(gateway) == 0 {
		return
	}
	connectionsGauge.With(prometheus.Labels{"gateway": gateway}).Add(float64(delta))
}

func ObserveStatusChange(dimension, status string) {
	if len(dimension) == 0 || len(status) == 0 {
		return
	}
	statusChangeCounter.With(prometheus.Labels{"dimension": dimension, "status": status}).Inc()
}

func ObservePushOutcome(partner, state string) {
	if len(partner) == 0 || len(state) == 0 {
		return
	}
	pushOutcomeCounter.With(prometheus.Labels{"partner": partner, "state": state}).Inc()
}

func CountPushedUpdates(partner string, count int) {
	if len(partner) == 0 || count <= 0 {
		return
	}
	pushedUpdatesCounter.With(prometheus.Labels{"partner": partner}).Add(float64(count))
}
