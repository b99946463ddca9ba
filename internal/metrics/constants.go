package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsPublished    = "events_published_total"
	MetricNameEventHandlerErrors = "event_handler_errors_total"
)

// Business metric names
const (
	MetricNameNodesStudied       = "progression_nodes_studied_total"
	MetricNameNodesReset         = "progression_nodes_reset_total"
	MetricNameTabsStudied        = "progression_tabs_studied_total"
	MetricNameTabsReset          = "progression_tabs_reset_total"
	MetricNameLevelUps           = "progression_level_ups_total"
	MetricNamePointsSpent        = "progression_points_spent_total"
	MetricNamePointsGranted      = "progression_points_granted_total"
	MetricNameTreeReloads        = "progression_tree_reloads_total"
	MetricNameCraftAccessChecks  = "progression_craft_access_checks_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Event metric help text
const (
	HelpTextEventsPublished    = "Total number of events published"
	HelpTextEventHandlerErrors = "Total number of event handler errors"
)

// Business metric help text
const (
	HelpTextNodesStudied      = "Total number of recipe nodes studied"
	HelpTextNodesReset        = "Total number of recipe nodes reset"
	HelpTextTabsStudied       = "Total number of tabs studied"
	HelpTextTabsReset         = "Total number of tabs reset"
	HelpTextLevelUps          = "Total number of player level ups"
	HelpTextPointsSpent       = "Total points debited, by currency"
	HelpTextPointsGranted     = "Total points credited, by currency"
	HelpTextTreeReloads       = "Total number of recipe tree reloads"
	HelpTextCraftAccessChecks = "Total craft access checks, by cache outcome"
)

// ============================================================================
// Metric Label Names
// ============================================================================

// Common label names used across metrics
const (
	LabelMethod   = "method"
	LabelPath     = "path"
	LabelStatus   = "status"
	LabelType     = "type"
	LabelTab      = "tab"
	LabelCurrency = "currency"
	LabelOutcome  = "outcome"
)

// ============================================================================
// Histogram Buckets
// ============================================================================

// HTTPLatencyBuckets defines the histogram buckets for HTTP request duration
// in seconds. These buckets range from 1ms to 10s to capture various latency
// patterns: fast (1-10ms), normal (10-100ms), slow (100ms-1s), very slow (1-10s)
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// ============================================================================
// Log Messages
// ============================================================================

// Debug log messages
const (
	LogMsgMetricsRecorded = "Metrics recorded for event"
)
