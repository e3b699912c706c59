package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "aquarium_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	storeRequests *prometheus.CounterVec
	storeLatency  *prometheus.HistogramVec

	pollerCycles       *prometheus.CounterVec
	pollerStaleResults *prometheus.CounterVec
	pollerTasks        prometheus.Gauge

	alertsRendered    *prometheus.CounterVec
	dosingActivations *prometheus.CounterVec
	commandsSent      *prometheus.CounterVec

	ingestedReadings *prometheus.CounterVec
	wsSessions       prometheus.Gauge
)

// Init registers the service metrics with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		storeRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "store_requests_total",
				Help: "Total store requests by method and result",
			},
			[]string{"method", "result"},
		)
		storeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "store_request_duration_seconds",
				Help:    "Store request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "result"},
		)

		pollerCycles = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "poller_cycles_total",
				Help: "Total poll cycles by task and result",
			},
			[]string{"task", "result"},
		)
		pollerStaleResults = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "poller_stale_results_total",
				Help: "Poll results discarded because a newer cycle was already applied",
			},
			[]string{"task"},
		)
		pollerTasks = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "poller_tasks",
				Help: "Number of scheduled poll tasks",
			},
		)

		alertsRendered = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_rendered_total",
				Help: "Global alerts rendered by level",
			},
			[]string{"level"},
		)
		dosingActivations = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "dosing_activations_total",
				Help: "Dosing activations by result",
			},
			[]string{"result"},
		)
		commandsSent = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "commands_sent_total",
				Help: "Equipment commands by kind and result",
			},
			[]string{"kind", "result"},
		)

		ingestedReadings = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingested_readings_total",
				Help: "Readings received over MQTT by result",
			},
			[]string{"result"},
		)
		wsSessions = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "ws_sessions",
				Help: "Open dashboard websocket sessions",
			},
		)

		prometheus.MustRegister(
			storeRequests,
			storeLatency,
			pollerCycles,
			pollerStaleResults,
			pollerTasks,
			alertsRendered,
			dosingActivations,
			commandsSent,
			ingestedReadings,
			wsSessions,
		)
	})
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}

// ObserveStoreRequest records a store round trip.
func ObserveStoreRequest(method string, err error, duration time.Duration) {
	r := result(err)
	if storeRequests != nil {
		storeRequests.WithLabelValues(method, r).Inc()
	}
	if storeLatency != nil {
		storeLatency.WithLabelValues(method, r).Observe(duration.Seconds())
	}
}

// IncPollerCycle counts a finished poll cycle.
func IncPollerCycle(task string, err error) {
	if pollerCycles != nil {
		pollerCycles.WithLabelValues(task, result(err)).Inc()
	}
}

// IncStaleResult counts a poll result dropped as out of date.
func IncStaleResult(task string) {
	if pollerStaleResults != nil {
		pollerStaleResults.WithLabelValues(task).Inc()
	}
}

// SetPollerTasks sets the number of live scheduled tasks.
func SetPollerTasks(n int) {
	if pollerTasks != nil {
		pollerTasks.Set(float64(n))
	}
}

// IncAlertRendered counts a global alert render.
func IncAlertRendered(level string) {
	if level == "" {
		level = "unknown"
	}
	if alertsRendered != nil {
		alertsRendered.WithLabelValues(level).Inc()
	}
}

// IncDosing counts a dosing activation attempt.
func IncDosing(err error) {
	if dosingActivations != nil {
		dosingActivations.WithLabelValues(result(err)).Inc()
	}
}

// IncCommand counts an equipment command attempt.
func IncCommand(kind string, err error) {
	if commandsSent != nil {
		commandsSent.WithLabelValues(kind, result(err)).Inc()
	}
}

// IncIngested counts a reading handled by the ingestor.
func IncIngested(res string) {
	if res == "" {
		res = "unknown"
	}
	if ingestedReadings != nil {
		ingestedReadings.WithLabelValues(res).Inc()
	}
}

// AddWSSessions adjusts the open session gauge by delta.
func AddWSSessions(delta int) {
	if wsSessions != nil {
		wsSessions.Add(float64(delta))
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultInvalid = "invalid"
	ResultUnknown = "unknown_device"
)
