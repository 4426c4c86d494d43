// Package metrics exposes Prometheus counters for editor activity.
package metrics

import (
	"net/http"

	"github.com/dukex/operion-designer/pkg/editor"
	"github.com/dukex/operion-designer/pkg/graph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeNone      = "none"
)

// Collector holds the editor metrics and the registry they live in.
type Collector struct {
	registry *prometheus.Registry

	Transitions    *prometheus.CounterVec
	Mutations      *prometheus.CounterVec
	ActiveSessions prometheus.Gauge
	Changes        prometheus.Counter
}

// NewCollector creates a collector with its own registry, so several can
// coexist in one process.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	transitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "editor_transitions_total",
			Help:      "Total number of dispatched editor events",
		},
		[]string{"event", "from", "to"},
	)

	mutations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_mutations_total",
			Help:      "Total number of graph mutations requested by the editor",
		},
		[]string{"mutation", "outcome", "reason"},
	)

	activeSessions := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of open editing sessions",
		},
	)

	changes := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "definition_changes_total",
			Help:      "Total number of change notifications",
		},
	)

	registry.MustRegister(transitions, mutations, activeSessions, changes)

	return &Collector{
		registry:       registry,
		Transitions:    transitions,
		Mutations:      mutations,
		ActiveSessions: activeSessions,
		Changes:        changes,
	}
}

// Registry returns the registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Observe records one controller transition.
func (c *Collector) Observe(t editor.Transition) {
	event := "unknown"
	if t.Event != nil {
		event = string(t.Event.Kind())
	}

	c.Transitions.WithLabelValues(event, string(t.From.Mode), string(t.To.Mode)).Inc()

	mutation := string(t.Mutation)
	if t.Mutation == editor.MutationNone {
		if t.Err == nil {
			return
		}

		mutation = OutcomeNone
	}

	outcome := OutcomeCommitted
	if t.Err != nil {
		outcome = OutcomeRejected
	}

	reason := Reason(t.Err)
	if reason == "" {
		reason = OutcomeNone
	}

	c.Mutations.WithLabelValues(mutation, outcome, reason).Inc()
}

// Reason classifies an error into a low-cardinality label value.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case editor.IsReadOnly(err):
		return "read_only"
	case graph.IsProtectedNode(err):
		return "protected_node"
	case graph.IsDuplicateEdge(err):
		return "duplicate_connection"
	case graph.IsReferenceError(err):
		return "not_found"
	default:
		return "other"
	}
}
