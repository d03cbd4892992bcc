package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// LineRequest описывает запрошенную позицию заказа.
type LineRequest struct {
	ProductID      string
	Qty            int32
	UnitPriceMinor int64
}

// CreateRequest описывает запрос на создание заказа.
type CreateRequest struct {
	CustomerID string
	Lines      []LineRequest
	Note       string
	// Status опционален; пустое значение означает pending.
	Status domain.OrderStatus
}

// Patch описывает частичное обновление шапки заказа.
// nil-поле означает "не менять".
type Patch struct {
	CustomerID *string
	Status     *domain.OrderStatus
	Note       *string
}

// ListResult — страница заказов вместе с полным количеством под фильтром.
type ListResult struct {
	Orders []domain.Order
	Total  int
}

// Service реализует бизнес-правила вокруг мутаций заказов: проверки
// существования и состояния, расчёт сумм и транзакционный учёт остатков.
// Сервис не хранит состояния между вызовами; вся сериализация конкурентных
// списаний делегирована условным обновлениям хранилища.
type Service struct {
	customers domain.CustomerRepository
	products  domain.ProductRepository
	orders    domain.OrderRepository

	logger        *log.Entry
	metrics       *metrics.OrderMetrics
	kafkaProducer *kafka.Producer // опциональный Kafka producer для событий заказов
}

// NewService создаёт рабочий экземпляр сервиса заказов.
func NewService(
	customers domain.CustomerRepository,
	products domain.ProductRepository,
	orders domain.OrderRepository,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "order-service")
	}
	return &Service{
		customers: customers,
		products:  products,
		orders:    orders,
		logger:    logger,
		metrics:   metrics.NewOrderMetrics(),
	}
}

// NewServiceWithKafka создаёт сервис, публикующий события заказов в Kafka.
func NewServiceWithKafka(
	customers domain.CustomerRepository,
	products domain.ProductRepository,
	orders domain.OrderRepository,
	producer *kafka.Producer,
	logger *log.Entry,
) *Service {
	svc := NewService(customers, products, orders, logger)
	svc.kafkaProducer = producer
	return svc
}

// NewServiceWithoutMetrics создаёт сервис без метрик (для тестов).
func NewServiceWithoutMetrics(
	customers domain.CustomerRepository,
	products domain.ProductRepository,
	orders domain.OrderRepository,
	logger *log.Entry,
) *Service {
	svc := NewService(customers, products, orders, logger)
	svc.metrics = nil
	return svc
}

// Create создаёт заказ: проверяет клиента и каждую позицию, считает сумму
// и отдаёт хранилищу единый набор записей "заказ + позиции + списания".
// Все позиции проверяются до каких-либо мутаций: при любой невалидной
// позиции операция отклоняется целиком и частичного заказа не остаётся.
func (s *Service) Create(req CreateRequest) (domain.Order, error) {
	start := time.Now()
	defer s.observe("create", start)

	if _, err := s.customers.Get(req.CustomerID); err != nil {
		return domain.Order{}, fmt.Errorf("customer %s: %w", req.CustomerID, err)
	}
	if len(req.Lines) == 0 {
		return domain.Order{}, domain.ErrLinesRequired
	}

	status := req.Status
	if status == "" {
		status = domain.OrderStatusPending
	}
	if !status.Valid() {
		return domain.Order{}, domain.ErrStatusUnknown
	}

	if err := s.validateLines(req.Lines); err != nil {
		s.recordRejection(err)
		return domain.Order{}, err
	}

	now := time.Now().UTC()
	orderID := uuid.NewString()
	lines := make([]domain.OrderLine, 0, len(req.Lines))
	for _, lr := range req.Lines {
		lines = append(lines, domain.OrderLine{
			ID:             uuid.NewString(),
			OrderID:        orderID,
			ProductID:      lr.ProductID,
			Qty:            lr.Qty,
			UnitPriceMinor: lr.UnitPriceMinor,
			SubtotalMinor:  int64(lr.Qty) * lr.UnitPriceMinor,
			CreatedAt:      now,
		})
	}

	order := domain.Order{
		ID:         orderID,
		CustomerID: req.CustomerID,
		Status:     status,
		TotalMinor: domain.LinesTotal(lines),
		Note:       req.Note,
		Lines:      lines,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return domain.Order{}, errs[0]
	}

	// Проверки выше — быстрый путь ради точного сообщения об ошибке.
	// Гарантию даёт само хранилище: списания условные и атомарные
	// вместе со вставкой заказа.
	if err := s.orders.Create(order); err != nil {
		s.recordRejection(err)
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("create order rejected by store")
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCreated(order.TotalMinor)
	}
	s.publishOrderEvent(kafka.EventTypeOrderCreated, order, map[string]interface{}{
		"total_minor": order.TotalMinor,
		"lines":       len(order.Lines),
	})

	return order, nil
}

// Get возвращает заказ с позициями.
func (s *Service) Get(orderID string) (domain.Order, error) {
	return s.orders.Get(orderID)
}

// List возвращает страницу заказов и полное количество под фильтром.
func (s *Service) List(filter domain.OrderFilter) (ListResult, error) {
	orders, err := s.orders.List(filter)
	if err != nil {
		return ListResult{}, err
	}
	total, err := s.orders.Count(filter)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Orders: orders, Total: total}, nil
}

// AddItem добавляет позицию в заказ: те же проверки товара, что и при
// создании, затем атомарные "вставка позиции + списание + пересчёт суммы".
func (s *Service) AddItem(orderID string, req LineRequest) (domain.OrderLine, error) {
	start := time.Now()
	defer s.observe("add_item", start)

	order, err := s.orders.Get(orderID)
	if err != nil {
		return domain.OrderLine{}, err
	}
	// Терминальные заказы закрыты и для позиционных правок — иначе
	// списания по ним расходились бы с их неизменяемой шапкой.
	if order.Finalized() {
		s.recordRejection(domain.ErrOrderFinalized)
		return domain.OrderLine{}, domain.ErrOrderFinalized
	}

	if err := s.validateLines([]LineRequest{req}); err != nil {
		s.recordRejection(err)
		return domain.OrderLine{}, err
	}

	now := time.Now().UTC()
	line := domain.OrderLine{
		ID:             uuid.NewString(),
		OrderID:        orderID,
		ProductID:      req.ProductID,
		Qty:            req.Qty,
		UnitPriceMinor: req.UnitPriceMinor,
		SubtotalMinor:  int64(req.Qty) * req.UnitPriceMinor,
		CreatedAt:      now,
	}

	updated, err := s.orders.AddLine(orderID, line)
	if err != nil {
		s.recordRejection(err)
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id":   orderID,
			"product_id": req.ProductID,
		}).Warn("add item rejected by store")
		return domain.OrderLine{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordLineAdded()
	}
	s.publishOrderEvent(kafka.EventTypeOrderLineAdded, updated, map[string]interface{}{
		"line_id":    line.ID,
		"product_id": line.ProductID,
		"qty":        line.Qty,
	})

	return line, nil
}

// RemoveItem удаляет позицию из заказа, возвращая остаток товара на склад.
func (s *Service) RemoveItem(orderID, lineID string) (domain.OrderLine, error) {
	start := time.Now()
	defer s.observe("remove_item", start)

	order, err := s.orders.Get(orderID)
	if err != nil {
		return domain.OrderLine{}, err
	}
	if order.Finalized() {
		s.recordRejection(domain.ErrOrderFinalized)
		return domain.OrderLine{}, domain.ErrOrderFinalized
	}

	removed, err := s.orders.RemoveLine(orderID, lineID)
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
			"line_id":  lineID,
		}).Warn("remove item failed")
		return domain.OrderLine{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordLineRemoved()
	}
	s.publishOrderEvent(kafka.EventTypeOrderLineRemoved, order, map[string]interface{}{
		"line_id":    removed.ID,
		"product_id": removed.ProductID,
		"qty":        removed.Qty,
	})

	return removed, nil
}

// UpdateStatus переводит заказ в новый статус. Таблица переходов не
// навязывается: допустим любой известный статус из любого текущего.
func (s *Service) UpdateStatus(orderID string, status domain.OrderStatus) (domain.Order, error) {
	start := time.Now()
	defer s.observe("update_status", start)

	if !status.Valid() {
		return domain.Order{}, domain.ErrStatusUnknown
	}

	order, err := s.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}

	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	if err := s.orders.Update(order); err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Error("failed to persist status")
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordStatusChange(string(status))
	}
	s.publishOrderEvent(kafka.EventTypeOrderStatusChanged, order, nil)

	return s.orders.Get(orderID)
}

// Update применяет частичное обновление шапки заказа. Терминальные заказы
// (доставленные и отменённые) правок не принимают. Остатки не пере-
// проверяются: позиции этим путём не меняются.
func (s *Service) Update(orderID string, patch Patch) (domain.Order, error) {
	start := time.Now()
	defer s.observe("update", start)

	order, err := s.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order.Finalized() {
		s.recordRejection(domain.ErrOrderFinalized)
		return domain.Order{}, domain.ErrOrderFinalized
	}

	if patch.CustomerID != nil {
		if _, err := s.customers.Get(*patch.CustomerID); err != nil {
			return domain.Order{}, fmt.Errorf("customer %s: %w", *patch.CustomerID, err)
		}
		order.CustomerID = *patch.CustomerID
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return domain.Order{}, domain.ErrStatusUnknown
		}
		order.Status = *patch.Status
	}
	if patch.Note != nil {
		order.Note = *patch.Note
	}
	order.UpdatedAt = time.Now().UTC()

	if err := s.orders.Update(order); err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Error("failed to update order")
		return domain.Order{}, err
	}

	s.publishOrderEvent(kafka.EventTypeOrderUpdated, order, nil)

	return s.orders.Get(orderID)
}

// Delete удаляет заказ, предварительно возвращая остатки по всем позициям.
// Доставленные заказы удалять нельзя.
func (s *Service) Delete(orderID string) error {
	start := time.Now()
	defer s.observe("delete", start)

	order, err := s.orders.Get(orderID)
	if err != nil {
		return err
	}
	if order.Status == domain.OrderStatusDelivered {
		s.recordRejection(domain.ErrOrderDelivered)
		return domain.ErrOrderDelivered
	}

	if err := s.orders.Delete(orderID); err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Error("failed to delete order")
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderDeleted()
	}
	s.publishOrderEvent(kafka.EventTypeOrderDeleted, order, map[string]interface{}{
		"lines": len(order.Lines),
	})

	return nil
}

// validateLines проверяет каждую запрошенную позицию: товар существует,
// активен и остатка хватает. Все позиции проверяются до первой мутации;
// ошибка всегда идентифицирует виновный товар.
func (s *Service) validateLines(lines []LineRequest) error {
	for _, line := range lines {
		if line.Qty <= 0 {
			return domain.ErrLineQtyInvalid
		}
		if line.UnitPriceMinor < 0 {
			return domain.ErrLinePriceInvalid
		}

		product, err := s.products.Get(line.ProductID)
		if err != nil {
			return fmt.Errorf("product %s: %w", line.ProductID, err)
		}
		if !product.Active {
			return fmt.Errorf("product %s: %w", line.ProductID, domain.ErrProductInactive)
		}
		if product.Stock < line.Qty {
			return &domain.InsufficientStockError{
				ProductID: line.ProductID,
				Available: product.Stock,
				Requested: line.Qty,
			}
		}
	}
	return nil
}

func (s *Service) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordOpDuration(op, time.Since(start))
	}
}

func (s *Service) recordRejection(err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		s.metrics.RecordStockRejection()
	case errors.Is(err, domain.ErrProductInactive):
		s.metrics.RecordRejection("product_inactive")
	case errors.Is(err, domain.ErrProductNotFound):
		s.metrics.RecordRejection("product_not_found")
	case errors.Is(err, domain.ErrOrderFinalized):
		s.metrics.RecordRejection("order_finalized")
	case errors.Is(err, domain.ErrOrderDelivered):
		s.metrics.RecordRejection("order_delivered")
	default:
		s.metrics.RecordRejection("other")
	}
}

// publishOrderEvent публикует событие заказа в Kafka (если producer настроен).
func (s *Service) publishOrderEvent(eventType kafka.EventType, order domain.Order, metadata map[string]interface{}) {
	if s.kafkaProducer == nil {
		return
	}

	event := kafka.NewOrderEvent(eventType, order.ID, order.CustomerID, string(order.Status), metadata)
	if err := s.kafkaProducer.PublishEvent(kafka.TopicOrderEvents, order.ID, event); err != nil {
		// Логируем ошибку, но не прерываем операцию — Kafka опциональный.
		s.logger.WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"order_id":   order.ID,
		}).Warn("failed to publish order event to kafka")
	}
}
