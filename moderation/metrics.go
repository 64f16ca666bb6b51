package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventProcessDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "moderation_event_duration_sec",
	Help: "Total duration of message classification",
})

var eventProcessCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_event_processed",
	Help: "Number of messages processed",
}, []string{"allowed"})

var eventErrorCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "moderation_event_errors",
	Help: "Number of messages which failed processing",
})

var verdictReasonCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_verdict_reasons",
	Help: "Number of denials, by reason code",
}, []string{"reason"})

var sanctionActionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_sanction_actions",
	Help: "Number of sanctions applied, by action and source",
}, []string{"action", "source"})
