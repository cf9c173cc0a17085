// Package metrics defines and registers all custom Prometheus metrics for the
// lending API. It is the single source of truth for metric names, labels, and
// help strings.
//
// All metrics self-register with the default Prometheus registry via promauto
// at package load time; the /metrics endpoint exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lending"

// ── Loan metrics ──────────────────────────────────────────────────────────────

// LoanApplicationsTotal counts submitted loan applications.
var LoanApplicationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "loan_applications_total",
		Help:      "Total number of loan applications submitted.",
	},
)

// LoanDecisionsTotal counts admin decisions on loans.
// Label:
//   - decision: "approved" or "rejected"
var LoanDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "loan_decisions_total",
		Help:      "Total number of admin loan decisions, by outcome.",
	},
	[]string{"decision"},
)

// LoanAmountApplied observes the principal requested per application.
var LoanAmountApplied = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "loan_amount_applied",
		Help:      "Requested principal per loan application.",
		Buckets:   prometheus.ExponentialBuckets(10_000, 2, 8), // 10k … 1.28M
	},
)

// ── Installment metrics ───────────────────────────────────────────────────────

// EMIPaymentsTotal counts settled installments.
// Label:
//   - timeliness: "on_time" or "late"
var EMIPaymentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emi_payments_total",
		Help:      "Total number of installments settled, by timeliness.",
	},
	[]string{"timeliness"},
)

// LateFeesCollected sums late fees assessed at payment time.
var LateFeesCollected = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "late_fees_collected_total",
		Help:      "Cumulative late-fee amount assessed on settled installments.",
	},
)

// EMIsSweptOverdueTotal counts installments flipped to overdue by the sweep.
var EMIsSweptOverdueTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emis_swept_overdue_total",
		Help:      "Total number of installments marked overdue by the batch sweep.",
	},
)

// ── KYC metrics ───────────────────────────────────────────────────────────────

// VerificationDecisionsTotal counts admin KYC rulings.
// Label:
//   - status: the resulting verification status (e.g. "verified", "rejected")
var VerificationDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verification_decisions_total",
		Help:      "Total number of admin KYC decisions, by resulting status.",
	},
	[]string{"status"},
)
