package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// События заказов
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderUpdated       EventType = "order.updated"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
	EventTypeOrderDeleted       EventType = "order.deleted"
	EventTypeOrderLineAdded     EventType = "order.line_added"
	EventTypeOrderLineRemoved   EventType = "order.line_removed"

	// События каталога
	EventTypeStockAdjusted EventType = "product.stock_adjusted"
)

// Topics для Kafka
const (
	TopicOrderEvents   = "storefront.order.events"
	TopicCatalogEvents = "storefront.catalog.events"
)

// OrderEvent представляет событие жизненного цикла заказа.
type OrderEvent struct {
	EventType  EventType              `json:"event_type"`
	OrderID    string                 `json:"order_id"`
	CustomerID string                 `json:"customer_id"`
	Status     string                 `json:"status"`
	Timestamp  time.Time              `json:"timestamp"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// StockEvent представляет изменение остатка товара.
type StockEvent struct {
	EventType EventType `json:"event_type"`
	ProductID string    `json:"product_id"`
	Delta     int32     `json:"delta"`
	Stock     int32     `json:"stock"`
	Timestamp time.Time `json:"timestamp"`
}

// NewOrderEvent создает новое событие заказа.
func NewOrderEvent(eventType EventType, orderID, customerID, status string, metadata map[string]interface{}) *OrderEvent {
	return &OrderEvent{
		EventType:  eventType,
		OrderID:    orderID,
		CustomerID: customerID,
		Status:     status,
		Timestamp:  time.Now().UTC(),
		Metadata:   metadata,
	}
}

// NewStockEvent создает новое событие изменения остатка.
func NewStockEvent(productID string, delta, stock int32) *StockEvent {
	return &StockEvent{
		EventType: EventTypeStockAdjusted,
		ProductID: productID,
		Delta:     delta,
		Stock:     stock,
		Timestamp: time.Now().UTC(),
	}
}
