package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики операций над заказами.
type OrderMetrics struct {
	// Счётчики операций
	ordersCreated  prometheus.Counter
	ordersDeleted  prometheus.Counter
	linesAdded     prometheus.Counter
	linesRemoved   prometheus.Counter
	statusChanges  *prometheus.CounterVec
	stockRejected  prometheus.Counter
	orderRejected  *prometheus.CounterVec

	// Гистограмма времени выполнения операций
	opDuration *prometheus.HistogramVec

	// Гистограмма суммы созданных заказов
	orderTotal prometheus.Histogram
}

// NewOrderMetrics создаёт новый экземпляр метрик заказов.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_orders_created_total",
			Help: "Total number of orders created",
		}),
		ordersDeleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_orders_deleted_total",
			Help: "Total number of orders deleted",
		}),
		linesAdded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_order_lines_added_total",
			Help: "Total number of order lines added",
		}),
		linesRemoved: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_order_lines_removed_total",
			Help: "Total number of order lines removed",
		}),
		statusChanges: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_order_status_changes_total",
			Help: "Total number of order status changes",
		}, []string{"status"}),
		stockRejected: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_stock_rejections_total",
			Help: "Total number of operations rejected due to insufficient stock",
		}),
		orderRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_order_rejections_total",
			Help: "Total number of order operations rejected by validation",
		}, []string{"reason"}),
		opDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "storefront_order_op_duration_seconds",
			Help:    "Duration of order service operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"op"}),
		orderTotal: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "storefront_order_total_minor",
			Help:    "Distribution of created order totals in minor currency units",
			Buckets: prometheus.ExponentialBuckets(100, 10, 7),
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

// RecordOrderCreated фиксирует создание заказа и его сумму.
func (m *OrderMetrics) RecordOrderCreated(totalMinor int64) {
	m.ordersCreated.Inc()
	m.orderTotal.Observe(float64(totalMinor))
}

// RecordOrderDeleted увеличивает счётчик удалённых заказов.
func (m *OrderMetrics) RecordOrderDeleted() {
	m.ordersDeleted.Inc()
}

// RecordLineAdded увеличивает счётчик добавленных позиций.
func (m *OrderMetrics) RecordLineAdded() {
	m.linesAdded.Inc()
}

// RecordLineRemoved увеличивает счётчик удалённых позиций.
func (m *OrderMetrics) RecordLineRemoved() {
	m.linesRemoved.Inc()
}

// RecordStatusChange фиксирует смену статуса заказа.
func (m *OrderMetrics) RecordStatusChange(status string) {
	m.statusChanges.WithLabelValues(status).Inc()
}

// RecordStockRejection увеличивает счётчик отказов по остатку.
func (m *OrderMetrics) RecordStockRejection() {
	m.stockRejected.Inc()
}

// RecordRejection фиксирует отказ операции с указанием причины.
func (m *OrderMetrics) RecordRejection(reason string) {
	m.orderRejected.WithLabelValues(reason).Inc()
}

// RecordOpDuration записывает время выполнения операции сервиса заказов.
func (m *OrderMetrics) RecordOpDuration(op string, duration time.Duration) {
	m.opDuration.WithLabelValues(op).Observe(duration.Seconds())
}
