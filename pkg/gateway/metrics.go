// Package gateway implements the external collaborator-facing gateway
// facade: a front service that accepts connection/command/backup/
// reachability requests, delegates to the Device Communication Service,
// and records Prometheus metrics plus session-scoped structured logs
// around each operation. Authentication/authorization belongs to the
// caller, not this package.
//
// Metrics live in a package-level registry built once at init;
// counters/histograms/gauges register against it, and the small
// Observe*/Inc* helpers stay safe across ResetMetrics calls in tests.
package gateway

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricsMu sync.RWMutex
	registry  *prometheus.Registry

	requestsTotal            *prometheus.CounterVec
	errorsTotal              *prometheus.CounterVec
	deviceConnectionsTotal   *prometheus.CounterVec
	deviceCommandsTotal      *prometheus.CounterVec
	deviceBackupsTotal       *prometheus.CounterVec
	reachabilityChecksTotal  *prometheus.CounterVec
	connectedDevicesGauge    prometheus.Gauge
	endpointLatency          *prometheus.HistogramVec
	operationLatency         *prometheus.HistogramVec
	backupSizeBytes          prometheus.Histogram
)

func init() {
	resetLocked()
}

// ResetMetrics clears and reinitializes every collector. Used by tests to
// get clean state between runs.
func ResetMetrics() {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	resetLocked()
}

// MetricsHandler returns an HTTP handler exposing metrics in Prometheus
// exposition format.
func MetricsHandler() http.Handler {
	metricsMu.RLock()
	reg := registry
	metricsMu.RUnlock()
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func resetLocked() {
	reg := prometheus.NewRegistry()

	reqTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netraven",
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Total gateway requests by endpoint.",
	}, []string{"endpoint"})

	errTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netraven",
		Subsystem: "gateway",
		Name:      "errors_total",
		Help:      "Total gateway request errors by endpoint and error kind.",
	}, []string{"endpoint", "kind"})

	connTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netraven",
		Subsystem: "gateway",
		Name:      "device_connections_total",
		Help:      "Total device connection attempts by protocol.",
	}, []string{"protocol"})

	cmdTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netraven",
		Subsystem: "gateway",
		Name:      "device_commands_total",
		Help:      "Total device commands executed by protocol.",
	}, []string{"protocol"})

	backupTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netraven",
		Subsystem: "gateway",
		Name:      "device_backups_total",
		Help:      "Total device backup operations by result.",
	}, []string{"result"})

	reachTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netraven",
		Subsystem: "gateway",
		Name:      "device_reachability_checks_total",
		Help:      "Total device reachability checks by result.",
	}, []string{"result"})

	connGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "netraven",
		Subsystem: "gateway",
		Name:      "connected_devices",
		Help:      "Current number of devices with an active pooled session.",
	})

	endpointHist := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "netraven",
		Subsystem: "gateway",
		Name:      "endpoint_latency_seconds",
		Help:      "Latency of gateway endpoints.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"endpoint"})

	opHist := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "netraven",
		Subsystem: "gateway",
		Name:      "operation_latency_seconds",
		Help:      "Latency of device-communication operations.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"operation"})

	backupHist := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "netraven",
		Subsystem: "gateway",
		Name:      "backup_size_bytes",
		Help:      "Size in bytes of retrieved running-config backups.",
		Buckets:   prometheus.ExponentialBuckets(256, 4, 10),
	})

	reg.MustRegister(reqTotal, errTotal, connTotal, cmdTotal, backupTotal, reachTotal,
		connGauge, endpointHist, opHist, backupHist)

	registry = reg
	requestsTotal = reqTotal
	errorsTotal = errTotal
	deviceConnectionsTotal = connTotal
	deviceCommandsTotal = cmdTotal
	deviceBackupsTotal = backupTotal
	reachabilityChecksTotal = reachTotal
	connectedDevicesGauge = connGauge
	endpointLatency = endpointHist
	operationLatency = opHist
	backupSizeBytes = backupHist
}

func observeRequest(endpoint string, start time.Time, err error, errKind string) {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	requestsTotal.WithLabelValues(endpoint).Inc()
	endpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		errorsTotal.WithLabelValues(endpoint, errKind).Inc()
	}
}

func observeOperation(operation string, start time.Time) {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	operationLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func incConnection(protocol string) {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	deviceConnectionsTotal.WithLabelValues(protocol).Inc()
}

func incCommand(protocol string) {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	deviceCommandsTotal.WithLabelValues(protocol).Inc()
}

func incBackup(result string, sizeBytes int) {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	deviceBackupsTotal.WithLabelValues(result).Inc()
	if sizeBytes > 0 {
		backupSizeBytes.Observe(float64(sizeBytes))
	}
}

func incReachability(result string) {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	reachabilityChecksTotal.WithLabelValues(result).Inc()
}

// SetConnectedDevices sets the connected_devices gauge to n, e.g. from
// the connection pool's Status().Active.
func SetConnectedDevices(n int) {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	connectedDevicesGauge.Set(float64(n))
}
