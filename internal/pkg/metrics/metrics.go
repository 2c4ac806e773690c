package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every kiwibot collector. It is served by the HTTP server at
// /metrics.
var Registry = prometheus.NewRegistry()

var (
	// MessagesSent counts messages accepted by a transport.
	MessagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kiwibot_messages_sent_total",
			Help: "Messages accepted by a channel transport.",
		},
		[]string{"channel", "command"},
	)

	// MessagesDropped counts inbound messages that never reached a mailbox.
	MessagesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kiwibot_messages_dropped_total",
			Help: "Inbound messages dropped before delivery.",
		},
		[]string{"channel", "reason"},
	)

	// CommandsDispatched counts coordinator sends by mode: single, multi, oneway.
	CommandsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kiwibot_commands_dispatched_total",
			Help: "Commands dispatched by the coordinator.",
		},
		[]string{"mode", "result"},
	)

	// RepliesReceived counts replies routed to a waiting coordinator.
	RepliesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kiwibot_replies_received_total",
			Help: "Replies delivered to a pending reply session.",
		},
		[]string{"command"},
	)

	// CommandTimeouts counts reply waits that ran out of time.
	CommandTimeouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kiwibot_command_timeouts_total",
			Help: "Reply waits that exceeded the coordinator timeout.",
		},
	)

	// CommandLatency observes the time from first send to final reply.
	CommandLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kiwibot_command_latency_seconds",
			Help:    "Time from dispatch to the last expected reply.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	// StatementsEvaluated counts script statements by resulting status.
	StatementsEvaluated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kiwibot_script_statements_total",
			Help: "Script statements evaluated, by status.",
		},
		[]string{"status"},
	)

	// ScriptHalts counts scripts that stopped, by reason.
	ScriptHalts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kiwibot_script_halts_total",
			Help: "Script runs that halted.",
		},
		[]string{"reason"},
	)

	// RobotState is 1 for the current robot state and 0 for the others.
	RobotState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kiwibot_robot_state",
			Help: "Current robot state (1 = active).",
		},
		[]string{"state"},
	)

	// DashboardValues mirrors numeric and boolean dashboard entries.
	DashboardValues = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kiwibot_dashboard_value",
			Help: "Numeric and boolean dashboard entries (true = 1).",
		},
		[]string{"key"},
	)

	// TransportConnected reports broker connectivity (1 = connected).
	TransportConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kiwibot_transport_connected",
			Help: "Broker connectivity of the MQTT transport (1 = connected).",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		MessagesSent,
		MessagesDropped,
		CommandsDispatched,
		RepliesReceived,
		CommandTimeouts,
		CommandLatency,
		StatementsEvaluated,
		ScriptHalts,
		RobotState,
		DashboardValues,
		TransportConnected,
	)
}
