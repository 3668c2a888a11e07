package claims

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claim_decision_cycles_total",
			Help: "Total decision cycles run, labeled by risk tier and overall recommendation",
		},
		[]string{"risk_tier", "recommendation"},
	)

	siuReferralsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "claim_siu_referrals_total",
			Help: "Total claims referred to the special investigations unit",
		},
	)

	decisionCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "claim_decision_cycle_duration_seconds",
			Help:    "Duration of full decision cycles",
			Buckets: prometheus.DefBuckets,
		},
	)

	statusTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claim_status_transitions_total",
			Help: "Total claim status transitions, labeled by source and target status",
		},
		[]string{"from", "to"},
	)
)
