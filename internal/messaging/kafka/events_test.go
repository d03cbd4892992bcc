package kafka

import (
	"encoding/json"
	"testing"
)

func TestNewOrderEvent(t *testing.T) {
	event := NewOrderEvent(EventTypeOrderCreated, "order-1", "customer-1", "pending", map[string]interface{}{
		"total_minor": int64(300),
	})

	if event.EventType != EventTypeOrderCreated {
		t.Fatalf("unexpected event type: %s", event.EventType)
	}
	if event.Timestamp.IsZero() {
		t.Fatal("timestamp must be set")
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["order_id"] != "order-1" || decoded["status"] != "pending" {
		t.Fatalf("unexpected payload: %v", decoded)
	}
}

func TestNewStockEvent(t *testing.T) {
	event := NewStockEvent("product-1", -3, 7)

	if event.EventType != EventTypeStockAdjusted {
		t.Fatalf("unexpected event type: %s", event.EventType)
	}
	if event.Delta != -3 || event.Stock != 7 {
		t.Fatalf("unexpected payload: %+v", event)
	}
}
