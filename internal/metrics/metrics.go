// Package metrics exposes Prometheus collectors for the scorewatch service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	changesObservedTotal *prometheus.CounterVec
	parseMissesTotal     *prometheus.CounterVec
	sourceRestartsTotal  *prometheus.CounterVec
	recordsAcceptedTotal *prometheus.CounterVec
	gamesWentFinalTotal  *prometheus.CounterVec
	sinkWriteErrorsTotal *prometheus.CounterVec
	notificationsTotal   *prometheus.CounterVec
	ledgerClearsTotal    *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		changesObservedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorewatch_changes_observed_total",
				Help: "Total scoreboard change events observed, labeled by sport.",
			},
			[]string{"sport"},
		)

		parseMissesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorewatch_parse_misses_total",
				Help: "Total snapshots with no contest rows, labeled by sport.",
			},
			[]string{"sport"},
		)

		sourceRestartsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorewatch_source_restarts_total",
				Help: "Total change source restarts, labeled by sport and reason.",
			},
			[]string{"sport", "reason"},
		)

		recordsAcceptedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorewatch_records_accepted_total",
				Help: "Total game records accepted by the diff layer, labeled by sport.",
			},
			[]string{"sport"},
		)

		gamesWentFinalTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorewatch_games_went_final_total",
				Help: "Total observed transitions into the Final status, labeled by sport.",
			},
			[]string{"sport"},
		)

		sinkWriteErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorewatch_sink_write_errors_total",
				Help: "Total sink write failures, labeled by sport.",
			},
			[]string{"sport"},
		)

		notificationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorewatch_notifications_total",
				Help: "Total legacy notification attempts, labeled by outcome (sent, duplicate, failed).",
			},
			[]string{"outcome"},
		)

		ledgerClearsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorewatch_ledger_clears_total",
				Help: "Total ledger clear attempts, labeled by outcome (cleared, failed).",
			},
			[]string{"outcome"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveChange increments the change counter for a sport.
func ObserveChange(sport string) {
	changesObservedTotal.WithLabelValues(sport).Inc()
}

// ObserveParseMiss increments the parse miss counter for a sport.
func ObserveParseMiss(sport string) {
	parseMissesTotal.WithLabelValues(sport).Inc()
}

// ObserveRestart increments the restart counter for a sport and reason.
func ObserveRestart(sport, reason string) {
	sourceRestartsTotal.WithLabelValues(sport, reason).Inc()
}

// ObserveAccepted increments the accepted record counter for a sport.
func ObserveAccepted(sport string) {
	recordsAcceptedTotal.WithLabelValues(sport).Inc()
}

// ObserveWentFinal increments the went-final counter for a sport.
func ObserveWentFinal(sport string) {
	gamesWentFinalTotal.WithLabelValues(sport).Inc()
}

// ObserveSinkError increments the sink error counter for a sport.
func ObserveSinkError(sport string) {
	sinkWriteErrorsTotal.WithLabelValues(sport).Inc()
}

// ObserveNotification increments the notification counter for an outcome.
func ObserveNotification(outcome string) {
	notificationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveLedgerClear increments the ledger clear counter for an outcome.
func ObserveLedgerClear(outcome string) {
	ledgerClearsTotal.WithLabelValues(outcome).Inc()
}
