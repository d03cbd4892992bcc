package rest

import (
	"net/http"
	"strconv"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
)

type createProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceMinor  int64  `json:"price_minor"`
	Stock       int32  `json:"stock"`
	Category    string `json:"category"`
}

type updateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PriceMinor  *int64  `json:"price_minor"`
	Category    *string `json:"category"`
	Active      *bool   `json:"active"`
}

type adjustStockRequest struct {
	Delta int32 `json:"delta"`
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	created, err := s.catalog.Create(catalog.CreateRequest{
		Name:        req.Name,
		Description: req.Description,
		PriceMinor:  req.PriceMinor,
		Stock:       req.Stock,
		Category:    req.Category,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(created))
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	filter := domain.ProductFilter{
		Name:     r.URL.Query().Get("name"),
		Category: r.URL.Query().Get("category"),
		Page:     parsePage(r),
	}
	if raw := r.URL.Query().Get("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.Active = &active
		}
	}

	res, err := s.catalog.List(filter)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeList(w, toProductResponses(res.Products), filter.Page, res.Total)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	got, err := s.catalog.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(got))
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	updated, err := s.catalog.Update(r.PathValue("id"), catalog.Patch{
		Name:        req.Name,
		Description: req.Description,
		PriceMinor:  req.PriceMinor,
		Category:    req.Category,
		Active:      req.Active,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(updated))
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Delete(r.PathValue("id")); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleAdjustStock(w http.ResponseWriter, r *http.Request) {
	var req adjustStockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Delta == 0 {
		writeBadRequest(w, "delta must not be zero")
		return
	}

	adjusted, err := s.catalog.AdjustStock(r.PathValue("id"), req.Delta)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(adjusted))
}

func (s *Server) handleToggleProduct(w http.ResponseWriter, r *http.Request) {
	toggled, err := s.catalog.ToggleActive(r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(toggled))
}
