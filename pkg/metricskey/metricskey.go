package metricskey

import "github.com/effective-security/metrics"

// Stats
var (
	// StatsToolCallsSucceeded is base for counter metric for total tool calls succeeded
	StatsToolCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_succeeded",
		Help:         "stats_tool_calls_succeeded provides total tool calls succeeded",
		RequiredTags: []string{"server", "tool"},
	}

	StatsToolCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_failed",
		Help:         "stats_tool_calls_failed provides total tool calls failed",
		RequiredTags: []string{"server", "tool"},
	}

	StatsToolCallsTimedOut = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_timed_out",
		Help:         "stats_tool_calls_timed_out provides total tool calls timed out",
		RequiredTags: []string{"server", "tool"},
	}
)

// Perf
var (
	PerfToolCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_call",
		Help:         "perf_tool_call provides duration of tool call",
		RequiredTags: []string{"server", "tool"},
	}

	PerfServerInit = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_server_init",
		Help:         "perf_server_init provides duration of server initialization",
		RequiredTags: []string{"server"},
	}

	PerfRegistryInit = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_registry_init",
		Help:         "perf_registry_init provides duration of registry initialization",
	}
)

// Metrics returns slice of metrics from this repo
// keep sorted by name
var Metrics = []*metrics.Describe{
	&PerfRegistryInit,
	&PerfServerInit,
	&PerfToolCall,
	&StatsToolCallsFailed,
	&StatsToolCallsSucceeded,
	&StatsToolCallsTimedOut,
}
