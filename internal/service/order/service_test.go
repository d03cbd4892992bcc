package order

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

type fixture struct {
	svc       *Service
	customers domain.CustomerRepository
	products  domain.ProductRepository
	orders    domain.OrderRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	customers := memory.NewCustomerRepository(store)
	products := memory.NewProductRepository(store)
	orders := memory.NewOrderRepository(store)

	logger := log.New()
	logger.SetOutput(io.Discard)

	return &fixture{
		svc:       NewServiceWithoutMetrics(customers, products, orders, logger.WithField("component", "order-service-test")),
		customers: customers,
		products:  products,
		orders:    orders,
	}
}

func (f *fixture) seedCustomer(t *testing.T, id string) {
	t.Helper()
	now := time.Now().UTC()
	err := f.customers.Create(domain.Customer{
		ID:        id,
		Name:      "Test Customer " + id,
		Email:     id + "@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
}

func (f *fixture) seedProduct(t *testing.T, id string, priceMinor int64, stock int32, active bool) {
	t.Helper()
	now := time.Now().UTC()
	err := f.products.Create(domain.Product{
		ID:         id,
		Name:       "Product " + id,
		PriceMinor: priceMinor,
		Stock:      stock,
		Active:     active,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	require.NoError(t, err)
}

func (f *fixture) productStock(t *testing.T, id string) int32 {
	t.Helper()
	p, err := f.products.Get(id)
	require.NoError(t, err)
	return p.Stock
}

func TestCreate_ComputesTotalAndDecrementsStock(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, "cust-1")
	f.seedProduct(t, "prod-1", 100, 10, true)

	order, err := f.svc.Create(CreateRequest{
		CustomerID: "cust-1",
		Lines:      []LineRequest{{ProductID: "prod-1", Qty: 3, UnitPriceMinor: 100}},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, int64(300), order.TotalMinor)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, int64(300), order.Lines[0].SubtotalMinor)
	assert.Equal(t, int32(7), f.productStock(t, "prod-1"))

	stored, err := f.svc.Get(order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.TotalMinor, stored.TotalMinor)
}

func TestCreate_UnknownCustomer(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "prod-1", 100, 10, true)

	_, err := f.svc.Create(CreateRequest{
		CustomerID: "no-such-customer",
		Lines:      []LineRequest{{ProductID: "prod-1", Qty: 1, UnitPriceMinor: 100}},
	})
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
	assert.Equal(t, int32(10), f.productStock(t, "prod-1"))
}

func TestCreate_NoLines(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, "cust-1")

	_, err := f.svc.Create(CreateRequest{CustomerID: "cust-1"})
	assert.ErrorIs(t, err, domain.ErrLinesRequired)
}

func TestCreate_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, "cust-1")
	f.seedProduct(t, "prod-1", 100, 10, true)

	_, err := f.svc.Create(CreateRequest{
		CustomerID: "cust-1",
		Lines:      []LineRequest{{ProductID: "prod-1", Qty: 11, UnitPriceMinor: 100}},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "prod-1", stockErr.ProductID)
	assert.Equal(t, int32(10), stockErr.Available)
	assert.Equal(t, int32(11), stockErr.Requested)

	assert.Equal(t, int32(10), f.productStock(t, "prod-1"))
}

func TestCreate_BadLineLeavesNoPartialState(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, "cust-1")
	f.seedProduct(t, "prod-good", 100, 10, true)
	f.seedProduct(t, "prod-short", 100, 1, true)

	_, err := f.svc.Create(CreateRequest{
		CustomerID: "cust-1",
		Lines: []LineRequest{
			{ProductID: "prod-good", Qty: 2, UnitPriceMinor: 100},
			{ProductID: "prod-short", Qty: 5, UnitPriceMinor: 100},
		},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// Ни одно списание не должно было примениться.
	assert.Equal(t, int32(10), f.productStock(t, "prod-good"))
	assert.Equal(t, int32(1), f.productStock(t, "prod-short"))

	res, err := f.svc.List(domain.OrderFilter{})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
}

func TestCreate_DuplicateProductLinesCheckedAgainstTotalDemand(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, "cust-1")
	f.seedProduct(t, "prod-1", 100, 10, true)

	// Каждая позиция по отдельности проходит по остатку, суммарно — нет:
	// заказ отклоняется целиком, списаний не остаётся.
	_, err := f.svc.Create(CreateRequest{
		CustomerID: "cust-1",
		Lines: []LineRequest{
			{ProductID: "prod-1", Qty: 6, UnitPriceMinor: 100},
			{ProductID: "prod-1", Qty: 6, UnitPriceMinor: 100},
		},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int32(10), f.productStock(t, "prod-1"))

	res, err := f.svc.List(domain.OrderFilter{})
	require.NoError(t, err)
	assert.Zero(t, res.Total)

	// Тот же товар двумя позициями в пределах остатка проходит.
	order, err := f.svc.Create(CreateRequest{
		CustomerID: "cust-1",
		Lines: []LineRequest{
			{ProductID: "prod-1", Qty: 6, UnitPriceMinor: 100},
			{ProductID: "prod-1", Qty: 4, UnitPriceMinor: 100},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), order.TotalMinor)
	assert.Equal(t, int32(0), f.productStock(t, "prod-1"))
}

func TestCreate_InactiveProduct(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, "cust-1")
	f.seedProduct(t, "prod-1", 100, 10, false)

	_, err := f.svc.Create(CreateRequest{
		CustomerID: "cust-1",
		Lines:      []LineRequest{{ProductID: "prod-1", Qty: 1, UnitPriceMinor: 100}},
	})
	assert.ErrorIs(t, err, domain.ErrProductInactive)
	assert.Contains(t, err.Error(), "prod-1")
}

func TestCreate_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, "cust-1")

	_, err := f.svc.Create(CreateRequest{
		CustomerID: "cust-1",
		Lines:      []LineRequest{{ProductID: "ghost", Qty: 1, UnitPriceMinor: 100}},
	})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestCreate_InvalidLineValues(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, "cust-1")
	f.seedProduct(t, "prod-1", 100, 10, true)

	_, err := f.svc.Create(CreateRequest{
		CustomerID: "cust-1",
		Lines:      []LineRequest{{ProductID: "prod-1", Qty: 0, UnitPriceMinor: 100}},
	})
	assert.ErrorIs(t, err, domain.ErrLineQtyInvalid)

	_, err = f.svc.Create(CreateRequest{
		CustomerID: "cust-1",
		Lines:      []LineRequest{{ProductID: "prod-1", Qty: 1, UnitPriceMinor: -5}},
	})
	assert.ErrorIs(t, err, domain.ErrLinePriceInvalid)
}

func TestCreate_UnknownStatus(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, "cust-1")
	f.seedProduct(t, "prod-1", 100, 10, true)

	_, err := f.svc.Create(CreateRequest{
		CustomerID: "cust-1",
		Lines:      []LineRequest{{ProductID: "prod-1", Qty: 1, UnitPriceMinor: 100}},
		Status:     domain.OrderStatus("shipped-to-mars"),
	})
	assert.ErrorIs(t, err, domain.ErrStatusUnknown)
}

func TestAddItem_DecrementsStockAndRecalcsTotal(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, "cust-1")
	f.seedProduct(t, "prod-1", 100, 10, true)
	f.seedProduct(t, "prod-2", 250, 4, true)

	order, err := f.svc.Create(CreateRequest{
		CustomerID: "cust-1",
		Lines:      []LineRequest{{ProductID: "prod-1", Qty: 2, UnitPriceMinor: 100}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(200), order.TotalMinor)

	line, err := f.svc.AddItem(order.ID, LineRequest{ProductID: "prod-2", Qty: 2, UnitPriceMinor: 250})
	require.NoError(t, err)
	assert.Equal(t, int64(500), line.SubtotalMinor)
	assert.Equal(t, int32(2), f.productStock(t, "prod-2"))

	updated, err := f.svc.Get(order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(700), updated.TotalMinor)
	assert.Len(t, updated.Lines, 2)
}

func TestAddItem_FinalizedOrderRejected(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, "cust-1")
	f.seedProduct(t, "prod-1", 100, 10, true)

	order, err := f.svc.Create(CreateRequest{
		CustomerID: "cust-1",
		Lines:      []LineRequest{{ProductID: "prod-1", Qty: 1, UnitPriceMinor: 100}},
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(order.ID, domain.OrderStatusDelivered)
	require.NoError(t, err)

	_, err = f.svc.AddItem(order.ID, LineRequest{ProductID: "prod-1", Qty: 1, UnitPriceMinor: 100})
	assert.ErrorIs(t, err, domain.ErrOrderFinalized)
	assert.Equal(t, int32(9), f.productStock(t, "prod-1"))
}

func TestRemoveItem_RestoresStockAndTotal(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, "cust-1")
	f.seedProduct(t, "prod-1", 100, 10, true)
	f.seedProduct(t, "prod-2", 150, 10, true)

	order, err := f.svc.Create(CreateRequest{
		CustomerID: "cust-1",
		Lines: []LineRequest{
			{ProductID: "prod-1", Qty: 3, UnitPriceMinor: 100},
			{ProductID: "prod-2", Qty: 2, UnitPriceMinor: 150},
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(600), order.TotalMinor)
	require.Equal(t, int32(7), f.productStock(t, "prod-1"))

	var lineID string
	for _, l := range order.Lines {
		if l.ProductID == "prod-1" {
			lineID = l.ID
		}
	}
	require.NotEmpty(t, lineID)

	removed, err := f.svc.RemoveItem(order.ID, lineID)
	require.NoError(t, err)
	assert.Equal(t, "prod-1", removed.ProductID)
	assert.Equal(t, int32(10), f.productStock(t, "prod-1"))

	updated, err := f.svc.Get(order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), updated.TotalMinor)
	assert.Len(t, updated.Lines, 1)
}

func TestRemoveItem_UnknownLine(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, "cust-1")
	f.seedProduct(t, "prod-1", 100, 10, true)

	order, err := f.svc.Create(CreateRequest{
		CustomerID: "cust-1",
		Lines:      []LineRequest{{ProductID: "prod-1", Qty: 1, UnitPriceMinor: 100}},
	})
	require.NoError(t, err)

	_, err = f.svc.RemoveItem(order.ID, "no-such-line")
	assert.ErrorIs(t, err, domain.ErrOrderLineNotFound)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, "cust-1")
	f.seedProduct(t, "prod-1", 100, 10, true)

	order, err := f.svc.Create(CreateRequest{
		CustomerID: "cust-1",
		Lines:      []LineRequest{{ProductID: "prod-1", Qty: 1, UnitPriceMinor: 100}},
	})
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(order.ID, domain.OrderStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusApproved, updated.Status)

	_, err = f.svc.UpdateStatus(order.ID, domain.OrderStatus("bogus"))
	assert.ErrorIs(t, err, domain.ErrStatusUnknown)

	_, err = f.svc.UpdateStatus("no-such-order", domain.OrderStatusApproved)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestUpdate_PatchFields(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, "cust-1")
	f.seedCustomer(t, "cust-2")
	f.seedProduct(t, "prod-1", 100, 10, true)

	order, err := f.svc.Create(CreateRequest{
		CustomerID: "cust-1",
		Lines:      []LineRequest{{ProductID: "prod-1", Qty: 2, UnitPriceMinor: 100}},
	})
	require.NoError(t, err)

	newCustomer := "cust-2"
	newNote := "leave at the door"
	updated, err := f.svc.Update(order.ID, Patch{CustomerID: &newCustomer, Note: &newNote})
	require.NoError(t, err)
	assert.Equal(t, "cust-2", updated.CustomerID)
	assert.Equal(t, "leave at the door", updated.Note)
	// Позиции и сумма не тронуты.
	assert.Equal(t, int64(200), updated.TotalMinor)
	assert.Len(t, updated.Lines, 1)
}

func TestUpdate_FinalizedRejected(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, "cust-1")
	f.seedProduct(t, "prod-1", 100, 10, true)

	for _, status := range []domain.OrderStatus{domain.OrderStatusDelivered, domain.OrderStatusCancelled} {
		order, err := f.svc.Create(CreateRequest{
			CustomerID: "cust-1",
			Lines:      []LineRequest{{ProductID: "prod-1", Qty: 1, UnitPriceMinor: 100}},
		})
		require.NoError(t, err)

		_, err = f.svc.UpdateStatus(order.ID, status)
		require.NoError(t, err)

		note := "too late"
		_, err = f.svc.Update(order.ID, Patch{Note: &note})
		assert.ErrorIsf(t, err, domain.ErrOrderFinalized, "status %s", status)
	}
}

func TestUpdate_UnknownPatchCustomer(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, "cust-1")
	f.seedProduct(t, "prod-1", 100, 10, true)

	order, err := f.svc.Create(CreateRequest{
		CustomerID: "cust-1",
		Lines:      []LineRequest{{ProductID: "prod-1", Qty: 1, UnitPriceMinor: 100}},
	})
	require.NoError(t, err)

	ghost := "ghost"
	_, err = f.svc.Update(order.ID, Patch{CustomerID: &ghost})
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestDelete_RestoresStock(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, "cust-1")
	f.seedProduct(t, "prod-1", 100, 10, true)

	order, err := f.svc.Create(CreateRequest{
		CustomerID: "cust-1",
		Lines:      []LineRequest{{ProductID: "prod-1", Qty: 4, UnitPriceMinor: 100}},
	})
	require.NoError(t, err)
	require.Equal(t, int32(6), f.productStock(t, "prod-1"))

	require.NoError(t, f.svc.Delete(order.ID))
	assert.Equal(t, int32(10), f.productStock(t, "prod-1"))

	_, err = f.svc.Get(order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestDelete_DeliveredRejected(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, "cust-1")
	f.seedProduct(t, "prod-1", 100, 10, true)

	order, err := f.svc.Create(CreateRequest{
		CustomerID: "cust-1",
		Lines:      []LineRequest{{ProductID: "prod-1", Qty: 4, UnitPriceMinor: 100}},
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(order.ID, domain.OrderStatusDelivered)
	require.NoError(t, err)

	err = f.svc.Delete(order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderDelivered)
	assert.Equal(t, int32(6), f.productStock(t, "prod-1"))

	// Отменённый заказ удалить можно, остаток возвращается.
	_, err = f.svc.UpdateStatus(order.ID, domain.OrderStatusCancelled)
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(order.ID))
	assert.Equal(t, int32(10), f.productStock(t, "prod-1"))
}

func TestList_FilterAndPagination(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, "cust-1")
	f.seedCustomer(t, "cust-2")
	f.seedProduct(t, "prod-1", 100, 100, true)

	for i := 0; i < 5; i++ {
		customer := "cust-1"
		if i%2 == 1 {
			customer = "cust-2"
		}
		_, err := f.svc.Create(CreateRequest{
			CustomerID: customer,
			Lines:      []LineRequest{{ProductID: "prod-1", Qty: 1, UnitPriceMinor: 100}},
		})
		require.NoError(t, err)
	}

	res, err := f.svc.List(domain.OrderFilter{CustomerID: "cust-1"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Len(t, res.Orders, 3)

	res, err = f.svc.List(domain.OrderFilter{Page: domain.Page{Skip: 0, Take: 2}})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Total)
	assert.Len(t, res.Orders, 2)
}

func TestConcurrentCreates_StockNeverNegative(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "prod-hot", 100, 50, true)

	const workers = 20
	for i := 0; i < workers; i++ {
		f.seedCustomer(t, fmt.Sprintf("cust-%d", i))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, err := f.svc.Create(CreateRequest{
					CustomerID: fmt.Sprintf("cust-%d", i),
					Lines:      []LineRequest{{ProductID: "prod-hot", Qty: 1, UnitPriceMinor: 100}},
				})
				if err == nil {
					mu.Lock()
					created++
					mu.Unlock()
				} else if !errors.Is(err, domain.ErrInsufficientStock) {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	// Ровно 50 заказов по одной единице могли пройти; остаток нулевой.
	assert.Equal(t, 50, created)
	assert.Equal(t, int32(0), f.productStock(t, "prod-hot"))

	res, err := f.svc.List(domain.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, 50, res.Total)
}

func TestConcurrentMixedOps_StockNeverNegative(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "prod-hot", 100, 40, true)
	f.seedProduct(t, "prod-base", 50, 100, true)

	const (
		creators       = 10
		createAttempts = 5
		jugglers       = 5
		juggleRounds   = 20
	)

	for i := 0; i < creators+jugglers; i++ {
		f.seedCustomer(t, fmt.Sprintf("cust-%d", i))
	}

	// Базовые заказы для add/remove-воркеров, чтобы горячий товар
	// дёргали только конкурирующие операции.
	baseOrders := make([]string, jugglers)
	for i := 0; i < jugglers; i++ {
		order, err := f.svc.Create(CreateRequest{
			CustomerID: fmt.Sprintf("cust-%d", creators+i),
			Lines:      []LineRequest{{ProductID: "prod-base", Qty: 1, UnitPriceMinor: 50}},
		})
		require.NoError(t, err)
		baseOrders[i] = order.ID
	}

	checkStock := func() {
		product, err := f.products.Get("prod-hot")
		if err != nil {
			t.Errorf("get product: %v", err)
			return
		}
		if product.Stock < 0 {
			t.Errorf("stock went negative: %d", product.Stock)
		}
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0

	for i := 0; i < creators; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < createAttempts; j++ {
				_, err := f.svc.Create(CreateRequest{
					CustomerID: fmt.Sprintf("cust-%d", i),
					Lines:      []LineRequest{{ProductID: "prod-hot", Qty: 1, UnitPriceMinor: 100}},
				})
				switch {
				case err == nil:
					mu.Lock()
					created++
					mu.Unlock()
				case !errors.Is(err, domain.ErrInsufficientStock):
					t.Errorf("unexpected create error: %v", err)
				}
				checkStock()
			}
		}(i)
	}

	for i := 0; i < jugglers; i++ {
		wg.Add(1)
		go func(orderID string) {
			defer wg.Done()
			for j := 0; j < juggleRounds; j++ {
				line, err := f.svc.AddItem(orderID, LineRequest{ProductID: "prod-hot", Qty: 2, UnitPriceMinor: 100})
				if err != nil {
					if !errors.Is(err, domain.ErrInsufficientStock) {
						t.Errorf("unexpected add error: %v", err)
					}
					continue
				}
				checkStock()
				if _, err := f.svc.RemoveItem(orderID, line.ID); err != nil {
					t.Errorf("remove added line: %v", err)
				}
			}
		}(baseOrders[i])
	}
	wg.Wait()

	// Add/remove-пары в сумме ничего не списывают: конечный остаток
	// горячего товара определяется только успешными заказами.
	require.LessOrEqual(t, created, 40)
	assert.Equal(t, int32(40-created), f.productStock(t, "prod-hot"))
	assert.Equal(t, int32(95), f.productStock(t, "prod-base"))
}
