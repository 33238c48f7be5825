// Package observability bundles the Prometheus collectors used across the
// venue daemon.
package observability

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"onre/native/common"
	"onre/native/governance"
	"onre/native/redemption"
	"onre/native/token"
	"onre/native/vault"
)

type gatewayMetrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// VenueMetrics tracks engine-level settlement activity.
type VenueMetrics struct {
	takes       *prometheus.CounterVec
	redemptions *prometheus.CounterVec
	errors      *prometheus.CounterVec
}

var (
	gatewayMetricsOnce sync.Once
	gatewayRegistry    *gatewayMetrics

	venueMetricsOnce sync.Once
	venueRegistry    *VenueMetrics
)

// Gateway returns the lazily-initialised metrics registry used to record HTTP
// gateway activity.
func Gateway() *gatewayMetrics {
	gatewayMetricsOnce.Do(func() {
		gatewayRegistry = &gatewayMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "onre",
				Subsystem: "gateway",
				Name:      "requests_total",
				Help:      "Total gateway requests segmented by route and outcome.",
			}, []string{"route", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "onre",
				Subsystem: "gateway",
				Name:      "errors_total",
				Help:      "Total gateway errors segmented by route and status code.",
			}, []string{"route", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "onre",
				Subsystem: "gateway",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for gateway handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"route"}),
		}
		prometheus.MustRegister(
			gatewayRegistry.requests,
			gatewayRegistry.errors,
			gatewayRegistry.latency,
		)
	})
	return gatewayRegistry
}

// Observe records the outcome of a gateway request. The status code should be
// the HTTP status that was ultimately written to the response writer.
func (m *gatewayMetrics) Observe(route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	outcome := "success"
	if status >= 400 {
		outcome = "error"
	}
	m.requests.WithLabelValues(route, outcome).Inc()
	if status >= 400 {
		m.errors.WithLabelValues(route, fmt.Sprintf("%d", status)).Inc()
	}
	m.latency.WithLabelValues(route).Observe(duration.Seconds())
}

// Venue returns the singleton metrics registry for engine settlements.
func Venue() *VenueMetrics {
	venueMetricsOnce.Do(func() {
		venueRegistry = &VenueMetrics{
			takes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "onre",
				Subsystem: "venue",
				Name:      "takes_total",
				Help:      "Count of vault offer takes segmented by settlement path.",
			}, []string{"path"}),
			redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "onre",
				Subsystem: "venue",
				Name:      "redemptions_total",
				Help:      "Count of redemption settlements segmented by kind.",
			}, []string{"kind"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "onre",
				Subsystem: "venue",
				Name:      "errors_total",
				Help:      "Count of engine failures segmented by operation and reason.",
			}, []string{"operation", "reason"}),
		}
		prometheus.MustRegister(
			venueRegistry.takes,
			venueRegistry.redemptions,
			venueRegistry.errors,
		)
	})
	return venueRegistry
}

// RecordTake increments the take counter. Minted and burned describe the
// settlement paths the take used.
func (m *VenueMetrics) RecordTake(minted, burned bool) {
	if m == nil {
		return
	}
	path := "transfer"
	switch {
	case minted && burned:
		path = "mint_burn"
	case minted:
		path = "mint"
	case burned:
		path = "burn"
	}
	m.takes.WithLabelValues(path).Inc()
}

// RecordRedemption increments the redemption counter for a settlement kind
// such as "single", "dual" or "fulfil".
func (m *VenueMetrics) RecordRedemption(kind string) {
	if m == nil {
		return
	}
	if kind = strings.TrimSpace(kind); kind == "" {
		kind = "unknown"
	}
	m.redemptions.WithLabelValues(kind).Inc()
}

// RecordError increments the error counter for the failure's reason class.
// The error is reduced to a fixed reason token so the label set stays bounded
// and dashboards and alerts remain consistent.
func (m *VenueMetrics) RecordError(operation string, err error) {
	if m == nil || err == nil {
		return
	}
	if operation = strings.TrimSpace(operation); operation == "" {
		operation = "unknown"
	}
	m.errors.WithLabelValues(operation, errorReason(err)).Inc()
}

// errorReason folds an engine error into one of a fixed set of reason tokens.
// Errors wrap their sentinels, so wrapped detail (amounts, symbols) never
// reaches the label value.
func errorReason(err error) string {
	switch {
	case errors.Is(err, common.ErrModuleHalted):
		return "module_halted"
	case errors.Is(err, vault.ErrInsufficientOfferBalance):
		return "insufficient_offer_balance"
	case errors.Is(err, token.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, token.ErrMaxSupplyExceeded),
		errors.Is(err, token.ErrSupplyOverflow):
		return "supply_cap"
	case errors.Is(err, vault.ErrCalculationOverflow):
		return "calculation_overflow"
	case errors.Is(err, vault.ErrNoActiveVector):
		return "no_active_vector"
	case errors.Is(err, redemption.ErrOfferExpired):
		return "offer_expired"
	case errors.Is(err, vault.ErrIntermediaryResidual):
		return "intermediary_residual"
	case errors.Is(err, vault.ErrOfferNotFound),
		errors.Is(err, redemption.ErrOfferNotFound),
		errors.Is(err, vault.ErrVectorNotFound),
		errors.Is(err, redemption.ErrRequestNotFound),
		errors.Is(err, token.ErrUnknownMint):
		return "not_found"
	case errors.Is(err, vault.ErrApprovalRequired),
		errors.Is(err, vault.ErrPermissionlessDisabled),
		errors.Is(err, governance.ErrCallerNotBoss),
		errors.Is(err, governance.ErrCallerNotAdmin),
		errors.Is(err, governance.ErrCallerNotRedemptionAdmin),
		errors.Is(err, redemption.ErrCallerNotRequester):
		return "unauthorized"
	case errors.Is(err, redemption.ErrRequestClosed),
		errors.Is(err, redemption.ErrOfferExists):
		return "conflict"
	case errors.Is(err, vault.ErrInvalidOffer),
		errors.Is(err, redemption.ErrInvalidOffer),
		errors.Is(err, vault.ErrInvalidVector),
		errors.Is(err, vault.ErrStartTimeNotIncreasing),
		errors.Is(err, vault.ErrMaxSegmentsReached),
		errors.Is(err, vault.ErrFeeOutOfRange),
		errors.Is(err, redemption.ErrFeeOutOfRange),
		errors.Is(err, vault.ErrZeroAmount),
		errors.Is(err, redemption.ErrZeroAmount),
		errors.Is(err, vault.ErrAmountTooSmall),
		errors.Is(err, redemption.ErrAmountTooSmall),
		errors.Is(err, vault.ErrInvalidCaller),
		errors.Is(err, redemption.ErrInvalidCaller):
		return "validation"
	default:
		return "internal"
	}
}
