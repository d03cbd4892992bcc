package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestInsufficientStockError_Unwrap(t *testing.T) {
	err := &domain.InsufficientStockError{ProductID: "product-1", Available: 10, Requested: 11}

	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatal("expected errors.Is match with ErrInsufficientStock")
	}

	wrapped := fmt.Errorf("create order: %w", err)
	var stockErr *domain.InsufficientStockError
	if !errors.As(wrapped, &stockErr) {
		t.Fatal("expected errors.As to recover the typed error")
	}
	if stockErr.Available != 10 || stockErr.Requested != 11 {
		t.Fatalf("unexpected payload: %+v", stockErr)
	}
}

func TestIsNotFound(t *testing.T) {
	for _, err := range []error{
		domain.ErrCustomerNotFound,
		domain.ErrProductNotFound,
		domain.ErrOrderNotFound,
		domain.ErrOrderLineNotFound,
	} {
		if !domain.IsNotFound(fmt.Errorf("load: %w", err)) {
			t.Fatalf("expected %v to be classified as not found", err)
		}
	}

	if domain.IsNotFound(domain.ErrProductInactive) {
		t.Fatal("ErrProductInactive must not be classified as not found")
	}
}

func TestIsConflict(t *testing.T) {
	for _, err := range []error{
		domain.ErrProductInactive,
		domain.ErrOrderFinalized,
		domain.ErrOrderDelivered,
		domain.ErrEmailAlreadyRegistered,
		domain.ErrProductNameTaken,
		domain.ErrCustomerHasOrders,
		&domain.InsufficientStockError{ProductID: "product-1", Available: 1, Requested: 2},
	} {
		if !domain.IsConflict(err) {
			t.Fatalf("expected %v to be classified as conflict", err)
		}
	}

	if domain.IsConflict(domain.ErrOrderNotFound) {
		t.Fatal("ErrOrderNotFound must not be classified as conflict")
	}
}
