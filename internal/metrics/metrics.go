package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	fragmentMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fragment_mutations_total",
			Help: "Fragment writes and clears per kind.",
		},
		[]string{"kind", "op"},
	)

	commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Handled events by command (text, location for non-commands).",
		},
		[]string{"command"},
	)

	handlerErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_handler_errors_total",
			Help: "Events that failed with an internal error.",
		},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(fragmentMutations, commands, handlerErrors)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func FragmentMutation(kind, op string) {
	fragmentMutations.WithLabelValues(norm(kind), norm(op)).Inc()
}

func Command(name string) {
	commands.WithLabelValues(norm(name)).Inc()
}

func HandlerError() {
	handlerErrors.Inc()
}
