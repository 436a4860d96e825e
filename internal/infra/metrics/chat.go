package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(chatTurnsTotal, classificationsTotal, sessionsCreatedTotal, rateLimitedTotal)
}

var (
	chatTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_turns_total",
			Help:      "Chat turns by outcome (replied, rejected, failed).",
		},
		[]string{"outcome"},
	)

	classificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Question classifications by result (educational, non_educational, fallback).",
		},
		[]string{"result"},
	)

	sessionsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Chat sessions created per grouping mode.",
		},
		[]string{"grouping"},
	)

	rateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_rate_limited_total",
			Help:      "Chat requests rejected by the per-user rate limiter.",
		},
	)
)

func IncChatTurn(outcome string) {
	chatTurnsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncClassification(result string) {
	classificationsTotal.WithLabelValues(norm(result)).Inc()
}

func IncSessionCreated(grouping string) {
	sessionsCreatedTotal.WithLabelValues(norm(grouping)).Inc()
}

func IncRateLimited() { rateLimitedTotal.Inc() }
