package memory

import (
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Store — in-memory хранилище для локальной разработки и тестов.
// Один мьютекс на все сущности: наборы записей, затрагивающие и заказ,
// и остатки товаров, применяются под одной блокировкой и потому атомарны —
// так мы моделируем транзакционную гарантию PostgreSQL-реализации.
type Store struct {
	mu        sync.RWMutex
	customers map[string]domain.Customer
	products  map[string]domain.Product
	orders    map[string]domain.Order
}

// NewStore создаёт пустое in-memory хранилище.
func NewStore() *Store {
	return &Store{
		customers: make(map[string]domain.Customer),
		products:  make(map[string]domain.Product),
		orders:    make(map[string]domain.Order),
	}
}

// adjustStockLocked применяет дельту к остатку товара. Вызывается только
// под записывающей блокировкой. Отклоняет операцию, если остаток ушёл бы в минус.
func (s *Store) adjustStockLocked(id string, delta int32) (domain.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if product.Stock+delta < 0 {
		return domain.Product{}, &domain.InsufficientStockError{
			ProductID: id,
			Available: product.Stock,
			Requested: -delta,
		}
	}
	product.Stock += delta
	s.products[id] = product
	return product, nil
}

// cloneOrder возвращает глубокую копию заказа, чтобы избежать
// непредсказуемых мутаций извне через разделяемый слайс позиций.
func cloneOrder(order domain.Order) domain.Order {
	clone := order
	clone.Lines = make([]domain.OrderLine, len(order.Lines))
	copy(clone.Lines, order.Lines)
	return clone
}

// containsFold — регистронезависимый contains для поиска по названию/имени.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// applyPage применяет skip/take к уже отсортированному срезу.
func applyPage[T any](items []T, page domain.Page) []T {
	skip := page.Skip
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if page.Take > 0 && len(items) > page.Take {
		items = items[:page.Take]
	}
	return items
}
