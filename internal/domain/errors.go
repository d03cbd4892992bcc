package domain

import (
	"errors"
	"fmt"
)

var (
	// Ошибка отсутствующего идентификатора клиента в заказе.
	ErrCustomerRequired = errors.New("customer_id is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrLinesRequired = errors.New("order must contain at least one line")
	// Ошибка неизвестного статуса заказа.
	ErrStatusUnknown = errors.New("unknown order status")
	// Ошибка отрицательной суммы заказа.
	ErrTotalNegative = errors.New("order total must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrTotalMismatch = errors.New("order total does not match lines sum")
	// Ошибка при некорректном количестве товара в позиции (<= 0).
	ErrLineQtyInvalid = errors.New("line qty must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrLinePriceInvalid = errors.New("line unit price must be non-negative")
	// Ошибка, если subtotal позиции не равен qty * unit price.
	ErrLineSubtotalMismatch = errors.New("line subtotal does not match qty * unit price")
	// Ошибка отсутствующего имени клиента.
	ErrCustomerNameRequired = errors.New("customer name is required")
	// Ошибка отсутствующего email клиента.
	ErrCustomerEmailRequired = errors.New("customer email is required")
	// Ошибка отсутствующего названия товара.
	ErrProductNameRequired = errors.New("product name is required")
	// Ошибка отрицательной цены товара.
	ErrProductPriceNegative = errors.New("product price must be non-negative")
	// Ошибка отрицательного остатка товара.
	ErrProductStockNegative = errors.New("product stock must be non-negative")

	// ErrCustomerNotFound возвращается, если клиент не найден в репозитории.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrProductNotFound возвращается, если товар не найден в репозитории.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderLineNotFound возвращается, если позиция не найдена в заказе.
	ErrOrderLineNotFound = errors.New("order line not found")
	// ErrOrderExists возвращается при попытке создать заказ с занятым ID.
	ErrOrderExists = errors.New("order already exists")

	// ErrEmailAlreadyRegistered — email занят другим клиентом.
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	// ErrProductNameTaken — название уже занято другим товаром.
	ErrProductNameTaken = errors.New("product name already registered")
	// ErrCustomerHasOrders — клиента нельзя удалить, пока на него ссылаются заказы.
	ErrCustomerHasOrders = errors.New("customer still has orders")
	// ErrProductInOrders — товар нельзя удалить, пока на него ссылаются позиции заказов.
	ErrProductInOrders = errors.New("product is referenced by order lines")

	// ErrProductInactive — бизнес-ошибка: неактивный товар нельзя добавлять в заказы.
	ErrProductInactive = errors.New("product is inactive")
	// ErrOrderFinalized — заказ в терминальном статусе нельзя изменять.
	ErrOrderFinalized = errors.New("cannot modify a finalized order")
	// ErrOrderDelivered — доставленный заказ нельзя удалить.
	ErrOrderDelivered = errors.New("delivered orders cannot be deleted")
	// ErrInsufficientStock — запрошенное количество превышает остаток.
	// Детали (доступно/запрошено) несёт InsufficientStockError.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError уточняет ErrInsufficientStock контекстом, достаточным
// для точного пользовательского сообщения на границе API.
type InsufficientStockError struct {
	ProductID string
	Available int32
	Requested int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

// Unwrap позволяет сравнивать ошибку с ErrInsufficientStock через errors.Is.
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// IsNotFound проверяет, относится ли ошибка к классу "не найдено".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrOrderLineNotFound)
}

// IsConflict проверяет, относится ли ошибка к классу "отклонено по состоянию":
// повтор без изменения входных данных не поможет.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrProductInactive) ||
		errors.Is(err, ErrOrderFinalized) ||
		errors.Is(err, ErrOrderDelivered) ||
		errors.Is(err, ErrEmailAlreadyRegistered) ||
		errors.Is(err, ErrProductNameTaken) ||
		errors.Is(err, ErrCustomerHasOrders) ||
		errors.Is(err, ErrProductInOrders)
}
