package memory

import (
	"sort"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// productRepositoryInMemory — реализация ProductRepository поверх общего Store.
type productRepositoryInMemory struct {
	store *Store
}

// NewProductRepository возвращает in-memory репозиторий товаров.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepositoryInMemory{store: store}
}

// Create сохраняет новый товар, проверяя уникальность названия.
func (r *productRepositoryInMemory) Create(product domain.Product) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.products {
		if existing.Name == product.Name {
			return domain.ErrProductNameTaken
		}
	}
	s.products[product.ID] = product
	return nil
}

// Get возвращает товар или ErrProductNotFound.
func (r *productRepositoryInMemory) Get(id string) (domain.Product, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// FindByName возвращает товары с точным совпадением названия.
func (r *productRepositoryInMemory) FindByName(name string) ([]domain.Product, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Product, 0, 1)
	for _, product := range s.products {
		if product.Name == name {
			result = append(result, product)
		}
	}
	return result, nil
}

// List возвращает товары по фильтру, новые первыми.
func (r *productRepositoryInMemory) List(filter domain.ProductFilter) ([]domain.Product, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Product, 0, len(s.products))
	for _, product := range s.products {
		if !matchProduct(product, filter) {
			continue
		}
		result = append(result, product)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	return applyPage(result, filter.Page), nil
}

// Count возвращает количество товаров под фильтром без учёта пагинации.
func (r *productRepositoryInMemory) Count(filter domain.ProductFilter) (int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, product := range s.products {
		if matchProduct(product, filter) {
			count++
		}
	}
	return count, nil
}

// Update перезаписывает товар, сохраняя уникальность названия.
func (r *productRepositoryInMemory) Update(product domain.Product) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[product.ID]; !ok {
		return domain.ErrProductNotFound
	}
	for _, existing := range s.products {
		if existing.ID != product.ID && existing.Name == product.Name {
			return domain.ErrProductNameTaken
		}
	}
	s.products[product.ID] = product
	return nil
}

// Delete удаляет товар, если на него не ссылаются позиции заказов.
func (r *productRepositoryInMemory) Delete(id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	for _, order := range s.orders {
		for _, line := range order.Lines {
			if line.ProductID == id {
				return domain.ErrProductInOrders
			}
		}
	}
	delete(s.products, id)
	return nil
}

// AdjustStock применяет дельту к остатку атомарно.
func (r *productRepositoryInMemory) AdjustStock(id string, delta int32) (domain.Product, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.adjustStockLocked(id, delta)
}

func matchProduct(product domain.Product, filter domain.ProductFilter) bool {
	if filter.Name != "" && !containsFold(product.Name, filter.Name) {
		return false
	}
	if filter.Category != "" && product.Category != filter.Category {
		return false
	}
	if filter.Active != nil && product.Active != *filter.Active {
		return false
	}
	return true
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
