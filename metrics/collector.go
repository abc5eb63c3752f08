package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector receives engine and oracle events. Implementations must be safe
// for concurrent use.
type Collector interface {
	OracleDecision(kind, source string, latency time.Duration)
	TurnStarted()
	TurnSkipped()
	ItemUsed(item string)
	CrownAwarded()
	GameWon()
}

type promCollector struct {
	decisions *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	turns     prometheus.Counter
	skips     prometheus.Counter
	items     *prometheus.CounterVec
	crowns    prometheus.Counter
	wins      prometheus.Counter
}

// NewPrometheusCollector registers the game metrics on reg.
func NewPrometheusCollector(reg prometheus.Registerer) (Collector, error) {
	c := &promCollector{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ladders",
			Name:      "oracle_decisions_total",
			Help:      "Automated-agent decisions by kind and by who answered.",
		}, []string{"kind", "source"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ladders",
			Name:      "oracle_decision_seconds",
			Help:      "Time spent waiting for a decision.",
			Buckets:   []float64{.001, .005, .025, .1, .5, 1, 2, 4, 8},
		}, []string{"kind"}),
		turns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ladders",
			Name:      "turns_total",
			Help:      "Turns started.",
		}),
		skips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ladders",
			Name:      "turns_skipped_total",
			Help:      "Turns skipped because the player was stunned.",
		}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ladders",
			Name:      "items_used_total",
			Help:      "Items consumed by name.",
		}, []string{"item"}),
		crowns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ladders",
			Name:      "crowns_total",
			Help:      "Crowns awarded for reaching the last tile.",
		}),
		wins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ladders",
			Name:      "games_won_total",
			Help:      "Sessions that ended with a winner.",
		}),
	}
	for _, col := range []prometheus.Collector{c.decisions, c.latency, c.turns, c.skips, c.items, c.crowns, c.wins} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *promCollector) OracleDecision(kind, source string, latency time.Duration) {
	c.decisions.WithLabelValues(kind, source).Inc()
	c.latency.WithLabelValues(kind).Observe(latency.Seconds())
}

func (c *promCollector) TurnStarted()         { c.turns.Inc() }
func (c *promCollector) TurnSkipped()         { c.skips.Inc() }
func (c *promCollector) ItemUsed(item string) { c.items.WithLabelValues(item).Inc() }
func (c *promCollector) CrownAwarded()        { c.crowns.Inc() }
func (c *promCollector) GameWon()             { c.wins.Inc() }

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) OracleDecision(kind, source string, latency time.Duration) {}
func (m *dummyCollector) TurnStarted()                                              {}
func (m *dummyCollector) TurnSkipped()                                              {}
func (m *dummyCollector) ItemUsed(item string)                                      {}
func (m *dummyCollector) CrownAwarded()                                             {}
func (m *dummyCollector) GameWon()                                                  {}
