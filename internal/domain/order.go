package domain

import "time"

// OrderStatus описывает жизненный цикл заказа в магазине.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан и ожидает обработки.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusApproved — заказ подтверждён и готов к отгрузке.
	OrderStatusApproved OrderStatus = "approved"
	// OrderStatusCancelled — заказ отменён до доставки.
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusDelivered — заказ доставлен клиенту.
	OrderStatusDelivered OrderStatus = "delivered"
)

// Valid сообщает, является ли значение одним из известных статусов.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusApproved, OrderStatusCancelled, OrderStatusDelivered:
		return true
	default:
		return false
	}
}

// Final сообщает, является ли статус терминальным: такие заказы
// не принимают дальнейших правок.
func (s OrderStatus) Final() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// OrderLine представляет одну позицию заказа.
type OrderLine struct {
	// ID позиции нужен для однозначной идентификации при удалении.
	ID string
	// OrderID — заказ, которому принадлежит позиция.
	OrderID string
	// ProductID — идентификатор товара из каталога.
	ProductID string
	// Qty — количество единиц товара, всегда >= 1.
	Qty int32
	// UnitPriceMinor — цена за единицу в минимальных денежных единицах,
	// зафиксированная в момент добавления позиции. Позднейшие изменения
	// цены товара на позицию не влияют.
	UnitPriceMinor int64
	// SubtotalMinor = Qty * UnitPriceMinor.
	SubtotalMinor int64
	// CreatedAt фиксирует момент добавления позиции в заказ.
	CreatedAt time.Time
}

// Order агрегирует состояние заказа и его позиции.
type Order struct {
	ID         string
	CustomerID string
	Status     OrderStatus
	// TotalMinor — производная сумма заказа: всегда равна сумме
	// subtotal всех позиций и пересчитывается после каждой мутации позиций.
	TotalMinor int64
	Note       string
	Lines      []OrderLine
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LinesTotal выводит сумму заказа из полного текущего набора позиций.
// Сумма всегда деривируется заново, а не правится инкрементально: так она
// не расходится с позициями при пропущенном обновлении.
func LinesTotal(lines []OrderLine) int64 {
	var total int64
	for _, line := range lines {
		total += line.SubtotalMinor
	}
	return total
}

// RecalcTotal приводит TotalMinor в соответствие с позициями.
func (o *Order) RecalcTotal() {
	o.TotalMinor = LinesTotal(o.Lines)
}

// Finalized сообщает, находится ли заказ в терминальном статусе.
func (o *Order) Finalized() bool {
	return o.Status.Final()
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if len(o.Lines) == 0 {
		errs = append(errs, ErrLinesRequired)
	}
	if !o.Status.Valid() {
		errs = append(errs, ErrStatusUnknown)
	}
	if o.TotalMinor < 0 {
		errs = append(errs, ErrTotalNegative)
	}

	// Сверяем сумму заказа с суммой позиций: qty * price.
	var calc int64
	for _, line := range o.Lines {
		if line.Qty <= 0 {
			errs = append(errs, ErrLineQtyInvalid)
		}
		if line.UnitPriceMinor < 0 {
			errs = append(errs, ErrLinePriceInvalid)
		}
		if line.SubtotalMinor != int64(line.Qty)*line.UnitPriceMinor {
			errs = append(errs, ErrLineSubtotalMismatch)
		}
		calc += line.SubtotalMinor
	}
	if calc != o.TotalMinor {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}
