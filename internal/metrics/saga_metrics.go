package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SagaMetrics содержит метрики пайплайна оформления заказа.
type SagaMetrics struct {
	// Счётчики операций
	ordersStarted     prometheus.Counter
	ordersConfirmed   prometheus.Counter
	ordersFailed      prometheus.Counter
	ordersCompensated prometheus.Counter
	paymentsPending   prometheus.Counter
	gatewayCallbacks  *prometheus.CounterVec

	// Гистограммы времени выполнения
	orderDuration prometheus.Histogram
	stepDuration  *prometheus.HistogramVec

	// Счётчик записей в outbox
	outboxEvents prometheus.Counter

	// Gauge для активных заказов в обработке
	activeOrders prometheus.Gauge
}

// NewSagaMetrics создаёт новый экземпляр метрик пайплайна.
func NewSagaMetrics() *SagaMetrics {
	return newSagaMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newSagaMetricsWithRegisterer(registerer prometheus.Registerer) *SagaMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &SagaMetrics{
		ordersStarted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "commerce_orders_started_total",
			Help: "Total number of order placements started",
		}),
		ordersConfirmed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "commerce_orders_confirmed_total",
			Help: "Total number of orders confirmed",
		}),
		ordersFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "commerce_orders_failed_total",
			Help: "Total number of orders failed",
		}),
		ordersCompensated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "commerce_orders_compensated_total",
			Help: "Total number of orders rolled back by compensation",
		}),
		paymentsPending: registerCounter(registerer, prometheus.CounterOpts{
			Name: "commerce_payments_pending_total",
			Help: "Total number of payments left pending gateway resolution",
		}),
		gatewayCallbacks: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "commerce_gateway_callbacks_total",
			Help: "Total number of gateway callbacks grouped by status",
		}, []string{"status"}),
		orderDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "commerce_order_duration_seconds",
			Help:    "Duration of order placement in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		stepDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "commerce_order_step_duration_seconds",
			Help:    "Duration of individual order placement steps in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"step"}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "commerce_outbox_events_total",
			Help: "Total number of events enqueued to the transactional outbox",
		}),
		activeOrders: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "commerce_active_orders",
			Help: "Number of order placements currently in flight",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderStarted увеличивает счётчик начатых оформлений.
func (m *SagaMetrics) RecordOrderStarted() {
	m.ordersStarted.Inc()
	m.activeOrders.Inc()
}

// RecordOrderFinished уменьшает количество активных оформлений.
func (m *SagaMetrics) RecordOrderFinished() {
	m.activeOrders.Dec()
}

// RecordOrderConfirmed увеличивает счётчик подтверждённых заказов.
func (m *SagaMetrics) RecordOrderConfirmed() {
	m.ordersConfirmed.Inc()
}

// RecordOrderFailed увеличивает счётчик проваленных заказов.
func (m *SagaMetrics) RecordOrderFailed() {
	m.ordersFailed.Inc()
}

// RecordOrderCompensated увеличивает счётчик компенсированных заказов.
func (m *SagaMetrics) RecordOrderCompensated() {
	m.ordersCompensated.Inc()
}

// RecordPaymentPending увеличивает счётчик платежей, зависших в ожидании шлюза.
func (m *SagaMetrics) RecordPaymentPending() {
	m.paymentsPending.Inc()
}

// RecordGatewayCallback увеличивает счётчик callback по статусу.
func (m *SagaMetrics) RecordGatewayCallback(status string) {
	m.gatewayCallbacks.WithLabelValues(status).Inc()
}

// RecordOrderDuration записывает время оформления заказа.
func (m *SagaMetrics) RecordOrderDuration(duration time.Duration) {
	m.orderDuration.Observe(duration.Seconds())
}

// RecordStepDuration записывает время выполнения шага оформления.
func (m *SagaMetrics) RecordStepDuration(step string, duration time.Duration) {
	m.stepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

// RecordOutboxEvent увеличивает счётчик записей в outbox.
func (m *SagaMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}
