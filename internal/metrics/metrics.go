// Package metrics holds the Prometheus instruments shared by the check-in
// pipeline.  All collectors are registered with the global registry, so
// importing this package is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CheckInAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frontdesk_checkin_attempts_total",
			Help: "Check-in attempts by outcome and entrance type.",
		}, []string{"outcome", "entrance_type"})

	ParseStrategy = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frontdesk_parse_strategy_total",
			Help: "Scan tokens resolved, by the recovery strategy that matched.",
		}, []string{"strategy"})

	AuditFallback = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "frontdesk_audit_fallback_total",
			Help: "Entrance logs written to the in-process fallback store because the durable store failed.",
		})

	AuditFlushed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "frontdesk_audit_flushed_total",
			Help: "Fallback entrance logs replayed into the durable store.",
		})

	AuditFallbackPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "frontdesk_audit_fallback_pending",
			Help: "Entrance logs held only in process memory.",
		})

	StationCaptureOK = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "frontdesk_station_capture_ok",
			Help: "1 when the station's capture device reported a healthy state.",
		}, []string{"station"})
)

func init() {
	prometheus.MustRegister(
		CheckInAttempts,
		ParseStrategy,
		AuditFallback,
		AuditFlushed,
		AuditFallbackPending,
		StationCaptureOK,
	)
}
