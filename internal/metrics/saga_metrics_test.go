package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewSagaMetrics(t *testing.T) {
	metrics := newSagaMetricsWithRegisterer(prometheus.NewRegistry())

	if metrics == nil {
		t.Fatal("newSagaMetricsWithRegisterer should not return nil")
	}
	if metrics.ordersStarted == nil {
		t.Error("ordersStarted counter should not be nil")
	}
	if metrics.ordersConfirmed == nil {
		t.Error("ordersConfirmed counter should not be nil")
	}
	if metrics.ordersFailed == nil {
		t.Error("ordersFailed counter should not be nil")
	}
	if metrics.ordersCompensated == nil {
		t.Error("ordersCompensated counter should not be nil")
	}
	if metrics.paymentsPending == nil {
		t.Error("paymentsPending counter should not be nil")
	}
	if metrics.gatewayCallbacks == nil {
		t.Error("gatewayCallbacks counter vec should not be nil")
	}
	if metrics.orderDuration == nil {
		t.Error("orderDuration histogram should not be nil")
	}
	if metrics.stepDuration == nil {
		t.Error("stepDuration histogram vec should not be nil")
	}
	if metrics.outboxEvents == nil {
		t.Error("outboxEvents counter should not be nil")
	}
	if metrics.activeOrders == nil {
		t.Error("activeOrders gauge should not be nil")
	}
}

func TestNewSagaMetrics_ReregisterReturnsExisting(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := newSagaMetricsWithRegisterer(reg)
	second := newSagaMetricsWithRegisterer(reg)

	if first.ordersStarted != second.ordersStarted {
		t.Error("re-registration should reuse the existing collector")
	}
}

func TestRecordOrderStarted(t *testing.T) {
	reg := prometheus.NewRegistry()

	ordersStarted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_orders_started_total",
		Help: "Test counter",
	})
	activeOrders := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_active_orders",
		Help: "Test gauge",
	})
	reg.MustRegister(ordersStarted, activeOrders)

	metrics := &SagaMetrics{
		ordersStarted: ordersStarted,
		activeOrders:  activeOrders,
	}

	metrics.RecordOrderStarted()

	metric := &dto.Metric{}
	if err := ordersStarted.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1.0 {
		t.Errorf("expected counter value 1.0, got %f", metric.Counter.GetValue())
	}

	gaugeMetric := &dto.Metric{}
	if err := activeOrders.Write(gaugeMetric); err != nil {
		t.Fatalf("failed to write gauge: %v", err)
	}
	if gaugeMetric.Gauge.GetValue() != 1.0 {
		t.Errorf("expected active orders 1.0, got %f", gaugeMetric.Gauge.GetValue())
	}
}

func TestOrderLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()

	activeOrders := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_lifecycle_active",
		Help: "Test gauge",
	})
	ordersStarted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_lifecycle_started",
		Help: "Test counter",
	})
	ordersConfirmed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_lifecycle_confirmed",
		Help: "Test counter",
	})
	reg.MustRegister(activeOrders, ordersStarted, ordersConfirmed)

	metrics := &SagaMetrics{
		activeOrders:    activeOrders,
		ordersStarted:   ordersStarted,
		ordersConfirmed: ordersConfirmed,
	}

	metrics.RecordOrderStarted() // active: 1
	metrics.RecordOrderStarted() // active: 2

	metrics.RecordOrderConfirmed()
	metrics.RecordOrderFinished() // active: 1

	gaugeMetric := &dto.Metric{}
	if err := activeOrders.Write(gaugeMetric); err != nil {
		t.Fatalf("failed to write gauge: %v", err)
	}
	if gaugeMetric.Gauge.GetValue() != 1.0 {
		t.Errorf("expected 1 active order, got %f", gaugeMetric.Gauge.GetValue())
	}

	startedMetric := &dto.Metric{}
	if err := ordersStarted.Write(startedMetric); err != nil {
		t.Fatalf("failed to write started metric: %v", err)
	}
	if startedMetric.Counter.GetValue() != 2.0 {
		t.Errorf("expected 2 started orders, got %f", startedMetric.Counter.GetValue())
	}

	confirmedMetric := &dto.Metric{}
	if err := ordersConfirmed.Write(confirmedMetric); err != nil {
		t.Fatalf("failed to write confirmed metric: %v", err)
	}
	if confirmedMetric.Counter.GetValue() != 1.0 {
		t.Errorf("expected 1 confirmed order, got %f", confirmedMetric.Counter.GetValue())
	}
}

func TestRecordOrderDuration(t *testing.T) {
	reg := prometheus.NewRegistry()

	orderDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_order_duration_seconds",
		Help:    "Test histogram",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(orderDuration)

	metrics := &SagaMetrics{orderDuration: orderDuration}

	metrics.RecordOrderDuration(100 * time.Millisecond)
	metrics.RecordOrderDuration(500 * time.Millisecond)
	metrics.RecordOrderDuration(1 * time.Second)

	metric := &dto.Metric{}
	if err := orderDuration.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 3 {
		t.Errorf("expected 3 samples, got %d", metric.Histogram.GetSampleCount())
	}
	sum := metric.Histogram.GetSampleSum()
	if sum < 1.5 || sum > 1.7 {
		t.Errorf("expected sum around 1.6, got %f", sum)
	}
}

func TestRecordGatewayCallback(t *testing.T) {
	reg := prometheus.NewRegistry()

	gatewayCallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_gateway_callbacks_total",
		Help: "Test counter vec",
	}, []string{"status"})
	reg.MustRegister(gatewayCallbacks)

	metrics := &SagaMetrics{gatewayCallbacks: gatewayCallbacks}

	metrics.RecordGatewayCallback("SUCCESS")
	metrics.RecordGatewayCallback("SUCCESS")
	metrics.RecordGatewayCallback("FAILED")

	metric := &dto.Metric{}
	if err := gatewayCallbacks.WithLabelValues("SUCCESS").Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected 2 success callbacks, got %f", metric.Counter.GetValue())
	}
}

func TestRecordOutboxEvent(t *testing.T) {
	reg := prometheus.NewRegistry()

	outboxEvents := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_outbox_events_total",
		Help: "Test counter",
	})
	reg.MustRegister(outboxEvents)

	metrics := &SagaMetrics{outboxEvents: outboxEvents}

	metrics.RecordOutboxEvent()
	metrics.RecordOutboxEvent()

	metric := &dto.Metric{}
	if err := outboxEvents.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected counter value 2.0, got %f", metric.Counter.GetValue())
	}
}
