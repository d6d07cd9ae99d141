package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardlab_upstream_requests_total",
			Help: "Outbound platform API calls by method and HTTP status",
		},
		[]string{"method", "status"},
	)

	Commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardlab_commands_total",
			Help: "Dispatched commands by action and outcome",
		},
		[]string{"action", "outcome"}, // setup|simulate|clear|balance|pay , ok|error
	)
)

var registerOnce sync.Once

func MustRegister(r prometheus.Registerer) {
	registerOnce.Do(func() {
		r.MustRegister(
			UpstreamRequests,
			Commands,
		)
	})
}
