package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewOrderMetricsWithRegisterer(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newOrderMetricsWithRegisterer(registry)

	m.RecordOrderCreated(300)
	m.RecordOrderDeleted()
	m.RecordLineAdded()
	m.RecordLineRemoved()
	m.RecordStatusChange("approved")
	m.RecordStockRejection()
	m.RecordRejection("product_inactive")
	m.RecordOpDuration("create", 10*time.Millisecond)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected registered metric families")
	}
}

func TestNewOrderMetricsWithRegisterer_DoubleRegister(t *testing.T) {
	registry := prometheus.NewRegistry()

	first := newOrderMetricsWithRegisterer(registry)
	// Повторная регистрация должна вернуть существующие коллекторы, а не паниковать.
	second := newOrderMetricsWithRegisterer(registry)

	if first == nil || second == nil {
		t.Fatal("expected both metric sets to be constructed")
	}
	second.RecordOrderCreated(100)
}
