// Package metrics exposes the faucet's prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RegistrationsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "faucet_registrations_accepted_total",
		Help: "Memberships granted successfully.",
	})

	RegistrationsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "faucet_registrations_rejected_total",
		Help: "Registration requests rejected, by reason.",
	}, []string{"reason"})

	AlertsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "faucet_alerts_total",
		Help: "Operational alerts pushed to the alert channel.",
	})
)
