package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eva_gateway_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "eva_gateway_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "endpoint"},
	)

	CommandsParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eva_gateway_commands_parsed_total",
			Help: "Total number of parsed commands by type",
		},
		[]string{"command_type"},
	)

	CommandFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eva_gateway_command_failures_total",
			Help: "Total number of failed command executions",
		},
	)

	LLMLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "eva_gateway_llm_latency_seconds",
			Help: "LLM chat latency in seconds",
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eva_gateway_notifications_sent_total",
			Help: "Total number of notifications delivered by channel",
		},
		[]string{"channel"},
	)

	MemoryOperations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eva_gateway_memory_operations_total",
			Help: "Total number of conversation memory operations",
		},
	)
)
