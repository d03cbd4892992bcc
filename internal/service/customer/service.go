package customer

import (
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// CreateRequest описывает запрос на регистрацию клиента.
type CreateRequest struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// Patch описывает частичное обновление клиента; nil-поле означает "не менять".
type Patch struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
}

// ListResult — страница клиентов вместе с полным количеством под фильтром.
type ListResult struct {
	Customers []domain.Customer
	Total     int
}

// Service управляет справочником клиентов. Уникальность email проверяется
// на уровне сервиса ради понятной ошибки и дублируется ограничением хранилища.
type Service struct {
	customers domain.CustomerRepository
	logger    *log.Entry
}

// NewService создаёт сервис клиентов.
func NewService(customers domain.CustomerRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "customer-service")
	}
	return &Service{customers: customers, logger: logger}
}

// Create регистрирует нового клиента. Email обязателен и уникален.
func (s *Service) Create(req CreateRequest) (domain.Customer, error) {
	now := time.Now().UTC()
	customer := domain.Customer{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errs := customer.ValidateInvariants(); len(errs) > 0 {
		return domain.Customer{}, errs[0]
	}

	if _, err := s.customers.GetByEmail(req.Email); err == nil {
		return domain.Customer{}, domain.ErrEmailAlreadyRegistered
	} else if !errors.Is(err, domain.ErrCustomerNotFound) {
		return domain.Customer{}, err
	}

	if err := s.customers.Create(customer); err != nil {
		s.logger.WithError(err).Error("failed to create customer")
		return domain.Customer{}, err
	}
	return customer, nil
}

// Get возвращает клиента по идентификатору.
func (s *Service) Get(id string) (domain.Customer, error) {
	return s.customers.Get(id)
}

// List возвращает страницу клиентов и полное количество под фильтром.
func (s *Service) List(filter domain.CustomerFilter) (ListResult, error) {
	customers, err := s.customers.List(filter)
	if err != nil {
		return ListResult{}, err
	}
	total, err := s.customers.Count(filter)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Customers: customers, Total: total}, nil
}

// Update применяет частичное обновление клиента. Смена email проходит
// ту же проверку уникальности, что и регистрация.
func (s *Service) Update(id string, patch Patch) (domain.Customer, error) {
	customer, err := s.customers.Get(id)
	if err != nil {
		return domain.Customer{}, err
	}

	if patch.Email != nil && *patch.Email != customer.Email {
		if existing, err := s.customers.GetByEmail(*patch.Email); err == nil && existing.ID != id {
			return domain.Customer{}, domain.ErrEmailAlreadyRegistered
		} else if err != nil && !errors.Is(err, domain.ErrCustomerNotFound) {
			return domain.Customer{}, err
		}
		customer.Email = *patch.Email
	}
	if patch.Name != nil {
		customer.Name = *patch.Name
	}
	if patch.Phone != nil {
		customer.Phone = *patch.Phone
	}
	if patch.Address != nil {
		customer.Address = *patch.Address
	}
	customer.UpdatedAt = time.Now().UTC()

	if errs := customer.ValidateInvariants(); len(errs) > 0 {
		return domain.Customer{}, errs[0]
	}

	if err := s.customers.Update(customer); err != nil {
		s.logger.WithError(err).WithField("customer_id", id).Error("failed to update customer")
		return domain.Customer{}, err
	}
	return customer, nil
}

// Delete удаляет клиента. Клиента с заказами удалить нельзя.
func (s *Service) Delete(id string) error {
	if err := s.customers.Delete(id); err != nil {
		if !errors.Is(err, domain.ErrCustomerNotFound) && !errors.Is(err, domain.ErrCustomerHasOrders) {
			s.logger.WithError(err).WithField("customer_id", id).Error("failed to delete customer")
		}
		return err
	}
	return nil
}
