package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradepost_audit_events_total",
		Help: "Total number of audit events emitted, by action",
	}, []string{"action"})

	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradepost_audit_events_dropped_total",
		Help: "Total number of audit events dropped because the inbox was full",
	})

	deliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradepost_audit_delivery_failures_total",
		Help: "Total number of audit events that failed broker delivery",
	})
)
