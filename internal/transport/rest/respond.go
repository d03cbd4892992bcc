package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// errorResponse — единый формат ошибок API.
type errorResponse struct {
	Error string `json:"error"`
}

// paginationMeta сопровождает списочные ответы.
type paginationMeta struct {
	Skip  int `json:"skip"`
	Take  int `json:"take"`
	Total int `json:"total"`
}

// listEnvelope — конверт списочных ответов: данные плюс пагинация.
type listEnvelope struct {
	Data       interface{}    `json:"data"`
	Pagination paginationMeta `json:"pagination"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeList(w http.ResponseWriter, data interface{}, page domain.Page, total int) {
	writeJSON(w, http.StatusOK, listEnvelope{
		Data: data,
		Pagination: paginationMeta{
			Skip:  page.Skip,
			Take:  page.Take,
			Total: total,
		},
	})
}

// writeError переводит доменную ошибку в HTTP-статус. Неклассифицированные
// ошибки считаются внутренними: клиенту уходит нейтральное сообщение,
// детали остаются в логе вызывающего.
func writeError(w http.ResponseWriter, logger *log.Entry, err error) {
	switch {
	case domain.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case domain.IsConflict(err):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		logger.WithError(err).Error("internal error while handling request")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// decodeJSON читает тело запроса с ограничением размера.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is required")
		}
		return fmt.Errorf("malformed request body: %w", err)
	}
	return nil
}

func isValidationError(err error) bool {
	return errors.Is(err, domain.ErrCustomerRequired) ||
		errors.Is(err, domain.ErrLinesRequired) ||
		errors.Is(err, domain.ErrStatusUnknown) ||
		errors.Is(err, domain.ErrLineQtyInvalid) ||
		errors.Is(err, domain.ErrLinePriceInvalid) ||
		errors.Is(err, domain.ErrCustomerNameRequired) ||
		errors.Is(err, domain.ErrCustomerEmailRequired) ||
		errors.Is(err, domain.ErrProductNameRequired) ||
		errors.Is(err, domain.ErrProductPriceNegative) ||
		errors.Is(err, domain.ErrProductStockNegative)
}
