package metrics

import "github.com/prometheus/client_golang/prometheus"

// WidgetMetrics exposes counters/histograms for booking widget instances.
type WidgetMetrics struct {
	instancesActive prometheus.Gauge
	apiTotal        *prometheus.CounterVec
	apiLatency      *prometheus.HistogramVec
	notifications   *prometheus.CounterVec
	gestures        *prometheus.CounterVec
}

func NewWidgetMetrics(reg prometheus.Registerer) *WidgetMetrics {
	m := &WidgetMetrics{
		instancesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lsv",
			Subsystem: "widget",
			Name:      "instances_active",
			Help:      "Widget instances currently attached",
		}),
		apiTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lsv",
			Subsystem: "widget",
			Name:      "booking_api_requests_total",
			Help:      "Total booking API calls by operation and outcome",
		}, []string{"operation", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lsv",
			Subsystem: "widget",
			Name:      "booking_api_latency_seconds",
			Help:      "Latency of booking API calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lsv",
			Subsystem: "widget",
			Name:      "notifications_total",
			Help:      "Notifications emitted to host pages",
		}, []string{"event"}),
		gestures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lsv",
			Subsystem: "widget",
			Name:      "gestures_total",
			Help:      "User gestures received, split by whether they changed state",
		}, []string{"action", "applied"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.instancesActive, m.apiTotal, m.apiLatency, m.notifications, m.gestures)
	return m
}

func (m *WidgetMetrics) InstanceAttached() {
	if m == nil {
		return
	}
	m.instancesActive.Inc()
}

func (m *WidgetMetrics) InstanceDetached() {
	if m == nil {
		return
	}
	m.instancesActive.Dec()
}

func (m *WidgetMetrics) ObserveAPICall(operation, status string, seconds float64) {
	if m == nil {
		return
	}
	m.apiTotal.WithLabelValues(operation, status).Inc()
	m.apiLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *WidgetMetrics) ObserveNotification(event string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(event).Inc()
}

func (m *WidgetMetrics) ObserveGesture(action string, applied bool) {
	if m == nil {
		return
	}
	label := "false"
	if applied {
		label = "true"
	}
	m.gestures.WithLabelValues(action, label).Inc()
}
