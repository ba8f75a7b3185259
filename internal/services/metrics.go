package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Confirmation outcomes feed operator alerting; commit_failed in particular
// means money moved with no durable record and must page someone.
var paymentConfirmations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "agritrace_payment_confirmations_total",
		Help: "Payment confirmation attempts by terminal outcome.",
	},
	[]string{"outcome"},
)

var signatureRejections = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "agritrace_payment_signature_rejections_total",
		Help: "Payment callbacks rejected for signature mismatch (security events).",
	},
)

var sweepCancellations = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "agritrace_sweep_duplicate_cancellations_total",
		Help: "Duplicate order rows cancelled by the reconciliation sweep.",
	},
)
