// Package metrics exports conversation metrics to Prometheus. The Collector
// plugs into a groupchat.Controller as lifecycle callbacks.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/groupchat"
	"github.com/hupe1980/chatmesh/logging"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "chatmesh"

// Collector records conversation, turn and strategy metrics.
type Collector struct {
	conversationsTotal  *prometheus.CounterVec
	activeConversations prometheus.Gauge
	iterations          prometheus.Histogram
	turnsTotal          *prometheus.CounterVec
	turnDuration        *prometheus.HistogramVec
	overridesTotal      *prometheus.CounterVec
	verdictsTotal       *prometheus.CounterVec
	errorsTotal         prometheus.Counter

	logger logging.Logger
}

// NewCollector registers the metrics with reg. Pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewCollector(namespace string, reg prometheus.Registerer, logger logging.Logger) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	factory := promauto.With(reg)

	return &Collector{
		conversationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conversations_total",
				Help:      "Finished conversations by outcome",
			},
			[]string{"outcome"},
		),
		activeConversations: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "conversations_active",
				Help:      "Conversations currently running",
			},
		),
		iterations: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "conversation_iterations",
				Help:      "Agent turns per finished conversation",
				Buckets:   []float64{1, 2, 5, 10, 20, 50},
			},
		),
		turnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "turns_total",
				Help:      "Agent turns by speaker",
			},
			[]string{"agent"},
		),
		turnDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "turn_duration_seconds",
				Help:      "Time an agent took to produce its message",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"agent"},
		),
		overridesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "selection_overrides_total",
				Help:      "Selections corrected by the controller, by requested speaker",
			},
			[]string{"requested"},
		),
		verdictsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "termination_checks_total",
				Help:      "Termination checks by verdict",
			},
			[]string{"verdict"},
		),
		errorsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conversation_errors_total",
				Help:      "Conversations aborted by a fatal error",
			},
		),
		logger: logging.OrNoOp(logger),
	}
}

// Callbacks returns the lifecycle callbacks feeding the collector.
func (c *Collector) Callbacks() []groupchat.Callback {
	return []groupchat.Callback{
		groupchat.NewFunctionCallback(groupchat.CallbackConversationStart, c.onStart),
		groupchat.NewFunctionCallback(groupchat.CallbackAfterTurn, c.onTurn),
		groupchat.NewFunctionCallback(groupchat.CallbackSelectionOverride, c.onOverride),
		groupchat.NewFunctionCallback(groupchat.CallbackVerdict, c.onVerdict),
		groupchat.NewFunctionCallback(groupchat.CallbackOnError, c.onError),
		groupchat.NewFunctionCallback(groupchat.CallbackConversationEnd, c.onEnd),
	}
}

func (c *Collector) onStart(context.Context, *groupchat.CallbackContext) error {
	c.activeConversations.Inc()
	return nil
}

func (c *Collector) onTurn(_ context.Context, cc *groupchat.CallbackContext) error {
	c.turnsTotal.WithLabelValues(cc.Agent).Inc()
	c.turnDuration.WithLabelValues(cc.Agent).Observe(cc.Duration.Seconds())
	return nil
}

func (c *Collector) onOverride(_ context.Context, cc *groupchat.CallbackContext) error {
	requested := cc.Requested
	if requested == "" {
		requested = "none"
	}
	c.overridesTotal.WithLabelValues(requested).Inc()
	return nil
}

func (c *Collector) onVerdict(_ context.Context, cc *groupchat.CallbackContext) error {
	verdict := "continue"
	if _, ok := core.IsTerminate(cc.Verdict); ok {
		verdict = "terminate"
	}
	c.verdictsTotal.WithLabelValues(verdict).Inc()
	return nil
}

func (c *Collector) onError(context.Context, *groupchat.CallbackContext) error {
	c.errorsTotal.Inc()
	return nil
}

func (c *Collector) onEnd(_ context.Context, cc *groupchat.CallbackContext) error {
	c.activeConversations.Dec()
	c.conversationsTotal.WithLabelValues(cc.State.Outcome.String()).Inc()
	c.iterations.Observe(float64(cc.State.Iterations))

	c.logger.Debug("metrics.conversation.recorded",
		"conversation_id", cc.ConversationID,
		"outcome", cc.State.Outcome.String(),
		"iterations", cc.State.Iterations,
	)

	return nil
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
