package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

// CreateRequest описывает запрос на добавление товара в каталог.
type CreateRequest struct {
	Name        string
	Description string
	PriceMinor  int64
	Stock       int32
	Category    string
}

// Patch описывает частичное обновление товара; nil-поле означает "не менять".
// Остаток этим путём не меняется: для него есть AdjustStock.
type Patch struct {
	Name        *string
	Description *string
	PriceMinor  *int64
	Category    *string
	Active      *bool
}

// ListResult — страница товаров вместе с полным количеством под фильтром.
type ListResult struct {
	Products []domain.Product
	Total    int
}

// Service управляет каталогом товаров: уникальность имён, активация,
// ручные корректировки остатков.
type Service struct {
	products domain.ProductRepository

	logger        *log.Entry
	kafkaProducer *kafka.Producer // опциональный Kafka producer для событий каталога
}

// NewService создаёт сервис каталога.
func NewService(products domain.ProductRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "catalog-service")
	}
	return &Service{products: products, logger: logger}
}

// NewServiceWithKafka создаёт сервис, публикующий события каталога в Kafka.
func NewServiceWithKafka(products domain.ProductRepository, producer *kafka.Producer, logger *log.Entry) *Service {
	svc := NewService(products, logger)
	svc.kafkaProducer = producer
	return svc
}

// Create добавляет товар. Имя обязательно и уникально (точное совпадение).
// Новый товар сразу активен.
func (s *Service) Create(req CreateRequest) (domain.Product, error) {
	now := time.Now().UTC()
	product := domain.Product{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		PriceMinor:  req.PriceMinor,
		Stock:       req.Stock,
		Category:    req.Category,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if errs := product.ValidateInvariants(); len(errs) > 0 {
		return domain.Product{}, errs[0]
	}

	existing, err := s.products.FindByName(req.Name)
	if err != nil {
		return domain.Product{}, err
	}
	if len(existing) > 0 {
		return domain.Product{}, domain.ErrProductNameTaken
	}

	if err := s.products.Create(product); err != nil {
		s.logger.WithError(err).Error("failed to create product")
		return domain.Product{}, err
	}
	return product, nil
}

// Get возвращает товар по идентификатору.
func (s *Service) Get(id string) (domain.Product, error) {
	return s.products.Get(id)
}

// List возвращает страницу товаров и полное количество под фильтром.
func (s *Service) List(filter domain.ProductFilter) (ListResult, error) {
	products, err := s.products.List(filter)
	if err != nil {
		return ListResult{}, err
	}
	total, err := s.products.Count(filter)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Products: products, Total: total}, nil
}

// Update применяет частичное обновление товара. Смена имени проходит ту же
// проверку уникальности, что и создание.
func (s *Service) Update(id string, patch Patch) (domain.Product, error) {
	product, err := s.products.Get(id)
	if err != nil {
		return domain.Product{}, err
	}

	if patch.Name != nil && *patch.Name != product.Name {
		existing, err := s.products.FindByName(*patch.Name)
		if err != nil {
			return domain.Product{}, err
		}
		for _, p := range existing {
			if p.ID != id {
				return domain.Product{}, domain.ErrProductNameTaken
			}
		}
		product.Name = *patch.Name
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.PriceMinor != nil {
		product.PriceMinor = *patch.PriceMinor
	}
	if patch.Category != nil {
		product.Category = *patch.Category
	}
	if patch.Active != nil {
		product.Active = *patch.Active
	}
	product.UpdatedAt = time.Now().UTC()

	if errs := product.ValidateInvariants(); len(errs) > 0 {
		return domain.Product{}, errs[0]
	}

	if err := s.products.Update(product); err != nil {
		s.logger.WithError(err).WithField("product_id", id).Error("failed to update product")
		return domain.Product{}, err
	}
	return product, nil
}

// ToggleActive переключает доступность товара для новых заказов.
// Существующие заказы с этим товаром не затрагиваются.
func (s *Service) ToggleActive(id string) (domain.Product, error) {
	product, err := s.products.Get(id)
	if err != nil {
		return domain.Product{}, err
	}

	product.Active = !product.Active
	product.UpdatedAt = time.Now().UTC()
	if err := s.products.Update(product); err != nil {
		s.logger.WithError(err).WithField("product_id", id).Error("failed to toggle product")
		return domain.Product{}, err
	}
	return product, nil
}

// AdjustStock меняет остаток товара на delta (может быть отрицательной).
// Списание сверх доступного остатка отклоняется атомарно на уровне хранилища.
func (s *Service) AdjustStock(id string, delta int32) (domain.Product, error) {
	product, err := s.products.AdjustStock(id, delta)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			s.logger.WithFields(log.Fields{
				"product_id": id,
				"delta":      delta,
			}).Warn("stock adjustment rejected")
		}
		return domain.Product{}, err
	}

	s.publishStockEvent(product, delta)

	return product, nil
}

// Delete удаляет товар. Товар, на который ссылаются позиции заказов,
// удалить нельзя.
func (s *Service) Delete(id string) error {
	if err := s.products.Delete(id); err != nil {
		if !errors.Is(err, domain.ErrProductNotFound) && !errors.Is(err, domain.ErrProductInOrders) {
			s.logger.WithError(err).WithField("product_id", id).Error("failed to delete product")
		}
		return err
	}
	return nil
}

// publishStockEvent публикует событие корректировки остатка (если producer настроен).
func (s *Service) publishStockEvent(product domain.Product, delta int32) {
	if s.kafkaProducer == nil {
		return
	}

	event := kafka.NewStockEvent(product.ID, delta, product.Stock)
	if err := s.kafkaProducer.PublishEvent(kafka.TopicCatalogEvents, product.ID, event); err != nil {
		s.logger.WithError(err).WithField("product_id", product.ID).Warn("failed to publish stock event to kafka")
	}
}
