package memory

import (
	"sort"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// orderRepositoryInMemory — реализация OrderRepository поверх общего Store.
// Все мутации, затрагивающие заказ и остатки товаров, выполняются под одной
// записывающей блокировкой: либо весь набор записей виден, либо никакой.
type orderRepositoryInMemory struct {
	store *Store
}

// NewOrderRepository возвращает in-memory репозиторий заказов.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepositoryInMemory{store: store}
}

// Create сохраняет заказ с позициями и списывает остатки. Сначала проверяем
// все списания, затем применяем: частичного эффекта при отказе не остаётся.
func (r *orderRepositoryInMemory) Create(order domain.Order) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return domain.ErrOrderExists
	}

	// Заказ может содержать несколько позиций одного товара, поэтому
	// остаток сверяется с суммарным спросом по товару, а не с каждой
	// позицией по отдельности.
	requested := make(map[string]int32, len(order.Lines))
	for _, line := range order.Lines {
		product, ok := s.products[line.ProductID]
		if !ok {
			return domain.ErrProductNotFound
		}
		requested[line.ProductID] += line.Qty
		if product.Stock < requested[line.ProductID] {
			return &domain.InsufficientStockError{
				ProductID: line.ProductID,
				Available: product.Stock,
				Requested: requested[line.ProductID],
			}
		}
	}

	for _, line := range order.Lines {
		if _, err := s.adjustStockLocked(line.ProductID, -line.Qty); err != nil {
			return err
		}
	}
	s.orders[order.ID] = cloneOrder(order)
	return nil
}

// Get возвращает заказ с позициями или ErrOrderNotFound.
func (r *orderRepositoryInMemory) Get(id string) (domain.Order, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// List возвращает заказы по фильтру, новые первыми.
func (r *orderRepositoryInMemory) List(filter domain.OrderFilter) ([]domain.Order, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, 0, len(s.orders))
	for _, order := range s.orders {
		if !matchOrder(order, filter) {
			continue
		}
		result = append(result, cloneOrder(order))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	return applyPage(result, filter.Page), nil
}

// Count возвращает количество заказов под фильтром без учёта пагинации.
func (r *orderRepositoryInMemory) Count(filter domain.OrderFilter) (int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, order := range s.orders {
		if matchOrder(order, filter) {
			count++
		}
	}
	return count, nil
}

// Update перезаписывает поля шапки заказа, не трогая позиции и сумму.
func (r *orderRepositoryInMemory) Update(order domain.Order) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	current.CustomerID = order.CustomerID
	current.Status = order.Status
	current.Note = order.Note
	current.UpdatedAt = order.UpdatedAt
	s.orders[order.ID] = current
	return nil
}

// AddLine добавляет позицию, списывает остаток и пересчитывает сумму заказа.
func (r *orderRepositoryInMemory) AddLine(orderID string, line domain.OrderLine) (domain.Order, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	if _, err := s.adjustStockLocked(line.ProductID, -line.Qty); err != nil {
		return domain.Order{}, err
	}

	order = cloneOrder(order)
	line.OrderID = orderID
	order.Lines = append(order.Lines, line)
	order.RecalcTotal()
	order.UpdatedAt = time.Now().UTC()
	s.orders[orderID] = order
	return cloneOrder(order), nil
}

// RemoveLine удаляет позицию, возвращает остаток и пересчитывает сумму заказа.
func (r *orderRepositoryInMemory) RemoveLine(orderID, lineID string) (domain.OrderLine, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return domain.OrderLine{}, domain.ErrOrderNotFound
	}

	idx := -1
	for i, line := range order.Lines {
		if line.ID == lineID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.OrderLine{}, domain.ErrOrderLineNotFound
	}

	removed := order.Lines[idx]
	// Товар мог быть к этому моменту удалён из каталога; тогда возвращать
	// остаток некуда и позиция просто удаляется.
	if _, ok := s.products[removed.ProductID]; ok {
		if _, err := s.adjustStockLocked(removed.ProductID, removed.Qty); err != nil {
			return domain.OrderLine{}, err
		}
	}

	order = cloneOrder(order)
	order.Lines = append(order.Lines[:idx], order.Lines[idx+1:]...)
	order.RecalcTotal()
	order.UpdatedAt = time.Now().UTC()
	s.orders[orderID] = order
	return removed, nil
}

// Delete возвращает остатки по всем позициям и удаляет заказ с позициями.
func (r *orderRepositoryInMemory) Delete(id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}

	for _, line := range order.Lines {
		if _, ok := s.products[line.ProductID]; !ok {
			continue
		}
		if _, err := s.adjustStockLocked(line.ProductID, line.Qty); err != nil {
			return err
		}
	}
	delete(s.orders, id)
	return nil
}

func matchOrder(order domain.Order, filter domain.OrderFilter) bool {
	if filter.Status != "" && order.Status != filter.Status {
		return false
	}
	if filter.CustomerID != "" && order.CustomerID != filter.CustomerID {
		return false
	}
	return true
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
