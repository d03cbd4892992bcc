package rest

import (
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/customer"
	"github.com/vladislavdragonenkov/storefront/internal/service/order"
)

const (
	defaultPageTake = 20
	maxPageTake     = 100
)

// Server связывает HTTP-маршруты API с сервисами.
type Server struct {
	customers *customer.Service
	catalog   *catalog.Service
	orders    *order.Service

	logger      *log.Entry
	httpMetrics *metrics.HTTPMetrics
}

// NewServer создаёт HTTP-сервер API.
func NewServer(
	customers *customer.Service,
	catalogSvc *catalog.Service,
	orders *order.Service,
	logger *log.Entry,
) *Server {
	if logger == nil {
		logger = log.New().WithField("component", "rest-server")
	}
	return &Server{
		customers:   customers,
		catalog:     catalogSvc,
		orders:      orders,
		logger:      logger,
		httpMetrics: metrics.NewHTTPMetrics(),
	}
}

// Handler собирает маршрутизатор API со всеми middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/customers", s.handleCreateCustomer)
	mux.HandleFunc("GET /api/customers", s.handleListCustomers)
	mux.HandleFunc("GET /api/customers/{id}", s.handleGetCustomer)
	mux.HandleFunc("PATCH /api/customers/{id}", s.handleUpdateCustomer)
	mux.HandleFunc("DELETE /api/customers/{id}", s.handleDeleteCustomer)

	mux.HandleFunc("POST /api/products", s.handleCreateProduct)
	mux.HandleFunc("GET /api/products", s.handleListProducts)
	mux.HandleFunc("GET /api/products/{id}", s.handleGetProduct)
	mux.HandleFunc("PATCH /api/products/{id}", s.handleUpdateProduct)
	mux.HandleFunc("DELETE /api/products/{id}", s.handleDeleteProduct)
	mux.HandleFunc("PATCH /api/products/{id}/stock", s.handleAdjustStock)
	mux.HandleFunc("PATCH /api/products/{id}/toggle", s.handleToggleProduct)

	mux.HandleFunc("POST /api/orders", s.handleCreateOrder)
	mux.HandleFunc("GET /api/orders", s.handleListOrders)
	mux.HandleFunc("GET /api/orders/{id}", s.handleGetOrder)
	mux.HandleFunc("PATCH /api/orders/{id}", s.handleUpdateOrder)
	mux.HandleFunc("DELETE /api/orders/{id}", s.handleDeleteOrder)
	mux.HandleFunc("PATCH /api/orders/{id}/status", s.handleUpdateOrderStatus)
	mux.HandleFunc("POST /api/orders/{id}/items", s.handleAddOrderItem)
	mux.HandleFunc("DELETE /api/orders/{id}/items/{itemID}", s.handleRemoveOrderItem)

	return s.withObservability(mux)
}

// parsePage извлекает skip/take из query-параметров. Выход за допустимые
// границы молча приводится к значениям по умолчанию.
func parsePage(r *http.Request) domain.Page {
	page := domain.Page{Take: defaultPageTake}

	if raw := r.URL.Query().Get("skip"); raw != "" {
		if skip, err := strconv.Atoi(raw); err == nil && skip >= 0 {
			page.Skip = skip
		}
	}
	if raw := r.URL.Query().Get("take"); raw != "" {
		if take, err := strconv.Atoi(raw); err == nil && take > 0 && take <= maxPageTake {
			page.Take = take
		}
	}

	return page
}
