package memory

import (
	"sort"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// customerRepositoryInMemory — реализация CustomerRepository поверх общего Store.
type customerRepositoryInMemory struct {
	store *Store
}

// NewCustomerRepository возвращает in-memory репозиторий клиентов.
func NewCustomerRepository(store *Store) domain.CustomerRepository {
	return &customerRepositoryInMemory{store: store}
}

// Create сохраняет нового клиента, проверяя уникальность email.
func (r *customerRepositoryInMemory) Create(customer domain.Customer) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.customers {
		if existing.Email == customer.Email {
			return domain.ErrEmailAlreadyRegistered
		}
	}
	s.customers[customer.ID] = customer
	return nil
}

// Get возвращает клиента или ErrCustomerNotFound.
func (r *customerRepositoryInMemory) Get(id string) (domain.Customer, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, ok := s.customers[id]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return customer, nil
}

// GetByEmail возвращает клиента с точным совпадением email.
func (r *customerRepositoryInMemory) GetByEmail(email string) (domain.Customer, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, customer := range s.customers {
		if customer.Email == email {
			return customer, nil
		}
	}
	return domain.Customer{}, domain.ErrCustomerNotFound
}

// List возвращает клиентов по фильтру, новые первыми.
func (r *customerRepositoryInMemory) List(filter domain.CustomerFilter) ([]domain.Customer, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Customer, 0, len(s.customers))
	for _, customer := range s.customers {
		if !matchCustomer(customer, filter) {
			continue
		}
		result = append(result, customer)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	return applyPage(result, filter.Page), nil
}

// Count возвращает количество клиентов под фильтром без учёта пагинации.
func (r *customerRepositoryInMemory) Count(filter domain.CustomerFilter) (int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, customer := range s.customers {
		if matchCustomer(customer, filter) {
			count++
		}
	}
	return count, nil
}

// Update перезаписывает клиента, сохраняя уникальность email.
func (r *customerRepositoryInMemory) Update(customer domain.Customer) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[customer.ID]; !ok {
		return domain.ErrCustomerNotFound
	}
	for _, existing := range s.customers {
		if existing.ID != customer.ID && existing.Email == customer.Email {
			return domain.ErrEmailAlreadyRegistered
		}
	}
	s.customers[customer.ID] = customer
	return nil
}

// Delete удаляет клиента, если на него не ссылаются заказы.
func (r *customerRepositoryInMemory) Delete(id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[id]; !ok {
		return domain.ErrCustomerNotFound
	}
	for _, order := range s.orders {
		if order.CustomerID == id {
			return domain.ErrCustomerHasOrders
		}
	}
	delete(s.customers, id)
	return nil
}

func matchCustomer(customer domain.Customer, filter domain.CustomerFilter) bool {
	if filter.Name != "" && !containsFold(customer.Name, filter.Name) {
		return false
	}
	if filter.Email != "" && customer.Email != filter.Email {
		return false
	}
	return true
}

var _ domain.CustomerRepository = (*customerRepositoryInMemory)(nil)
