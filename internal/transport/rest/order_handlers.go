package rest

import (
	"net/http"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/order"
)

type orderLineRequest struct {
	ProductID      string `json:"product_id"`
	Qty            int32  `json:"qty"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
}

type createOrderRequest struct {
	CustomerID string             `json:"customer_id"`
	Lines      []orderLineRequest `json:"lines"`
	Note       string             `json:"note"`
	Status     string             `json:"status"`
}

type updateOrderRequest struct {
	CustomerID *string `json:"customer_id"`
	Status     *string `json:"status"`
	Note       *string `json:"note"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.CustomerID == "" {
		writeError(w, s.logger, domain.ErrCustomerRequired)
		return
	}

	lines := make([]order.LineRequest, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, order.LineRequest{
			ProductID:      l.ProductID,
			Qty:            l.Qty,
			UnitPriceMinor: l.UnitPriceMinor,
		})
	}

	created, err := s.orders.Create(order.CreateRequest{
		CustomerID: req.CustomerID,
		Lines:      lines,
		Note:       req.Note,
		Status:     domain.OrderStatus(req.Status),
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(created))
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	filter := domain.OrderFilter{
		Status:     domain.OrderStatus(r.URL.Query().Get("status")),
		CustomerID: r.URL.Query().Get("customer_id"),
		Page:       parsePage(r),
	}

	res, err := s.orders.List(filter)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeList(w, toOrderResponses(res.Orders), filter.Page, res.Total)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	got, err := s.orders.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(got))
}

func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	patch := order.Patch{
		CustomerID: req.CustomerID,
		Note:       req.Note,
	}
	if req.Status != nil {
		status := domain.OrderStatus(*req.Status)
		patch.Status = &status
	}

	updated, err := s.orders.Update(r.PathValue("id"), patch)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(updated))
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := s.orders.Delete(r.PathValue("id")); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateOrderStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	updated, err := s.orders.UpdateStatus(r.PathValue("id"), domain.OrderStatus(req.Status))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(updated))
}

func (s *Server) handleAddOrderItem(w http.ResponseWriter, r *http.Request) {
	var req orderLineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	line, err := s.orders.AddItem(r.PathValue("id"), order.LineRequest{
		ProductID:      req.ProductID,
		Qty:            req.Qty,
		UnitPriceMinor: req.UnitPriceMinor,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderLineResponse(line))
}

func (s *Server) handleRemoveOrderItem(w http.ResponseWriter, r *http.Request) {
	removed, err := s.orders.RemoveItem(r.PathValue("id"), r.PathValue("itemID"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderLineResponse(removed))
}
