// Package metrics provides Prometheus collectors for native handle lifecycle
// and callback dispatch in the obsdk binding.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Release outcomes recorded by RecordHandleReleased.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Reasons recorded by RecordCallbackDiscarded.
const (
	DiscardNoListener   = "no_listener"
	DiscardClosed       = "closed"
	DiscardUnknownToken = "unknown_token"
	DiscardWrapFailed   = "wrap_failed"
)

// Results recorded by RecordFrameWait.
const (
	WaitFrameset = "frameset"
	WaitTimeout  = "timeout"
	WaitError    = "error"
)

// BindingMetrics contains Prometheus metrics for the native binding layer.
type BindingMetrics struct {
	registry *prometheus.Registry

	handlesAcquiredTotal *prometheus.CounterVec
	handlesReleasedTotal *prometheus.CounterVec
	handlesLive          *prometheus.GaugeVec

	callbacksDeliveredTotal *prometheus.CounterVec
	callbacksDiscardedTotal *prometheus.CounterVec
	callbackDuration        *prometheus.HistogramVec

	nativeErrorsTotal *prometheus.CounterVec
	faultsTotal       *prometheus.CounterVec

	frameWaitDuration *prometheus.HistogramVec
}

// NewBindingMetrics creates and registers new binding metrics.
func NewBindingMetrics(registry *prometheus.Registry) (*BindingMetrics, error) {
	m := &BindingMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Registry returns the registry the collectors were registered with.
func (m *BindingMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *BindingMetrics) initMetrics() {
	m.handlesAcquiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obsdk_handles_acquired_total",
			Help: "Total number of native handles acquired",
		},
		[]string{"kind"},
	)

	m.handlesReleasedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obsdk_handles_released_total",
			Help: "Total number of native handles whose deleter ran",
		},
		[]string{"kind", "status"}, // status: ok, error
	)

	m.handlesLive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "obsdk_handles_live",
			Help: "Native handles currently owned by the binding",
		},
		[]string{"kind"},
	)

	m.callbacksDeliveredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obsdk_callbacks_delivered_total",
			Help: "Total number of native callbacks delivered to a listener",
		},
		[]string{"callback"},
	)

	m.callbacksDiscardedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obsdk_callbacks_discarded_total",
			Help: "Total number of native callbacks dropped by the bridge",
		},
		[]string{"callback", "reason"},
	)

	m.callbackDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "obsdk_callback_duration_seconds",
			Help:    "Time spent inside user callbacks",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 100us to ~1.6s
		},
		[]string{"callback"},
	)

	m.nativeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obsdk_native_errors_total",
			Help: "Total number of errors reported by the native layer",
		},
		[]string{"function", "category"},
	)

	m.faultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obsdk_faults_total",
			Help: "Total number of best-effort teardown and callback faults",
		},
		[]string{"op", "category"},
	)

	m.frameWaitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "obsdk_frame_wait_duration_seconds",
			Help:    "Time spent blocked waiting for a frameset",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"result"},
	)
}

// Describe implements prometheus.Collector.
func (m *BindingMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.handlesAcquiredTotal.Describe(ch)
	m.handlesReleasedTotal.Describe(ch)
	m.handlesLive.Describe(ch)
	m.callbacksDeliveredTotal.Describe(ch)
	m.callbacksDiscardedTotal.Describe(ch)
	m.callbackDuration.Describe(ch)
	m.nativeErrorsTotal.Describe(ch)
	m.faultsTotal.Describe(ch)
	m.frameWaitDuration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *BindingMetrics) Collect(ch chan<- prometheus.Metric) {
	m.handlesAcquiredTotal.Collect(ch)
	m.handlesReleasedTotal.Collect(ch)
	m.handlesLive.Collect(ch)
	m.callbacksDeliveredTotal.Collect(ch)
	m.callbacksDiscardedTotal.Collect(ch)
	m.callbackDuration.Collect(ch)
	m.nativeErrorsTotal.Collect(ch)
	m.faultsTotal.Collect(ch)
	m.frameWaitDuration.Collect(ch)
}

// RecordHandleAcquired counts a new native handle of the given kind.
func (m *BindingMetrics) RecordHandleAcquired(kind string) {
	if m == nil {
		return
	}
	m.handlesAcquiredTotal.WithLabelValues(kind).Inc()
	m.handlesLive.WithLabelValues(kind).Inc()
}

// RecordHandleReleased counts a deleter run. The handle is gone either way,
// so the live gauge drops even when the deleter failed.
func (m *BindingMetrics) RecordHandleReleased(kind string, err error) {
	if m == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.handlesReleasedTotal.WithLabelValues(kind, status).Inc()
	m.handlesLive.WithLabelValues(kind).Dec()
}

// RecordCallback records one delivered callback and the time spent in it.
func (m *BindingMetrics) RecordCallback(callback string, d time.Duration) {
	if m == nil {
		return
	}
	m.callbacksDeliveredTotal.WithLabelValues(callback).Inc()
	m.callbackDuration.WithLabelValues(callback).Observe(d.Seconds())
}

// RecordCallbackDiscarded records a callback the bridge dropped.
func (m *BindingMetrics) RecordCallbackDiscarded(callback, reason string) {
	if m == nil {
		return
	}
	m.callbacksDiscardedTotal.WithLabelValues(callback, reason).Inc()
}

// RecordNativeError records a translated native error.
func (m *BindingMetrics) RecordNativeError(function, category string) {
	if m == nil {
		return
	}
	m.nativeErrorsTotal.WithLabelValues(function, category).Inc()
}

// RecordFault records a fault routed to the diagnostic sink.
func (m *BindingMetrics) RecordFault(op, category string) {
	if m == nil {
		return
	}
	m.faultsTotal.WithLabelValues(op, category).Inc()
}

// RecordFrameWait records a blocking frameset wait.
func (m *BindingMetrics) RecordFrameWait(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.frameWaitDuration.WithLabelValues(result).Observe(d.Seconds())
}
