// Package metrics exposes Prometheus counters for the auth subsystem.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Login outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeLocked   = "locked"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// Guard decisions.
const (
	DecisionAuthorized      = "authorized"
	DecisionUnauthenticated = "unauthenticated"
	DecisionForbidden       = "forbidden"
	DecisionError           = "error"
)

// Metrics holds the auth counters.
type Metrics struct {
	LoginAttempts  *prometheus.CounterVec
	Lockouts       prometheus.Counter
	GuardDecisions *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
// A nil reg leaves them unregistered, which tests rely on.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "login_attempts_total",
				Help:      "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		Lockouts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lockouts_total",
				Help:      "Accounts put into lockout",
			},
		),
		GuardDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "guard_decisions_total",
				Help:      "Access guard decisions",
			},
			[]string{"decision"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.LoginAttempts, m.Lockouts, m.GuardDecisions)
	}
	return m
}

// Login counts one login attempt.
func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

// Lockout counts one account entering lockout.
func (m *Metrics) Lockout() {
	if m == nil {
		return
	}
	m.Lockouts.Inc()
}

// Guard counts one access guard decision.
func (m *Metrics) Guard(decision string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(decision).Inc()
}
