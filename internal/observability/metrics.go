// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopcore Contributors

package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics contains the shop's Prometheus metrics. A nil *Metrics is valid
// and records nothing, so the engine can run unmetered.
type Metrics struct {
	TransactionsTotal  *prometheus.CounterVec
	BlockedTotal       *prometheus.CounterVec
	ExpiredTotal       prometheus.Counter
	LedgerEntriesTotal *prometheus.CounterVec
}

// NewMetrics creates and registers the shop metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TransactionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopcore_transactions_total",
				Help: "Total number of economic transactions by action and status",
			},
			[]string{"action", "status"},
		),
		BlockedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopcore_blocked_total",
				Help: "Total number of actions blocked by a before-hook",
			},
			[]string{"hook"},
		),
		ExpiredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "shopcore_expired_total",
				Help: "Total number of item expirations observed",
			},
		),
		LedgerEntriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopcore_ledger_entries_total",
				Help: "Total number of ledger entries recorded by backend mode",
			},
			[]string{"mode"},
		),
	}

	reg.MustRegister(m.TransactionsTotal)
	reg.MustRegister(m.BlockedTotal)
	reg.MustRegister(m.ExpiredTotal)
	reg.MustRegister(m.LedgerEntriesTotal)

	return m
}

// RecordTransaction increments the transaction counter.
func (m *Metrics) RecordTransaction(action, status string) {
	if m == nil {
		return
	}
	m.TransactionsTotal.WithLabelValues(action, status).Inc()
}

// RecordBlocked increments the blocked-hook counter.
func (m *Metrics) RecordBlocked(hook string) {
	if m == nil {
		return
	}
	m.BlockedTotal.WithLabelValues(hook).Inc()
}

// RecordExpiration increments the expiration counter.
func (m *Metrics) RecordExpiration() {
	if m == nil {
		return
	}
	m.ExpiredTotal.Inc()
}

// RecordLedgerEntry increments the ledger entry counter.
func (m *Metrics) RecordLedgerEntry(mode string) {
	if m == nil {
		return
	}
	m.LedgerEntriesTotal.WithLabelValues(mode).Inc()
}
