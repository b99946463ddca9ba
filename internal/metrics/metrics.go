package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Event Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsPublished,
			Help: HelpTextEventsPublished,
		},
		[]string{LabelType},
	)

	EventHandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventHandlerErrors,
			Help: HelpTextEventHandlerErrors,
		},
		[]string{LabelType},
	)
)

// Business Metrics
var (
	NodesStudied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameNodesStudied,
			Help: HelpTextNodesStudied,
		},
		[]string{LabelTab},
	)

	NodesReset = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameNodesReset,
			Help: HelpTextNodesReset,
		},
		[]string{LabelTab},
	)

	TabsStudied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameTabsStudied,
			Help: HelpTextTabsStudied,
		},
		[]string{LabelTab},
	)

	TabsReset = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameTabsReset,
			Help: HelpTextTabsReset,
		},
		[]string{LabelTab},
	)

	LevelUps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameLevelUps,
			Help: HelpTextLevelUps,
		},
	)

	PointsSpent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePointsSpent,
			Help: HelpTextPointsSpent,
		},
		[]string{LabelCurrency},
	)

	PointsGranted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePointsGranted,
			Help: HelpTextPointsGranted,
		},
		[]string{LabelCurrency},
	)

	TreeReloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameTreeReloads,
			Help: HelpTextTreeReloads,
		},
	)

	CraftAccessChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameCraftAccessChecks,
			Help: HelpTextCraftAccessChecks,
		},
		[]string{LabelOutcome},
	)
)
