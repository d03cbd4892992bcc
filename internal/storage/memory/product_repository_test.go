package memory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func seedProduct(t *testing.T, repo domain.ProductRepository, id, name string, stock int32) {
	t.Helper()

	now := time.Now().UTC()
	if err := repo.Create(domain.Product{
		ID:         id,
		Name:       name,
		PriceMinor: 100,
		Stock:      stock,
		Category:   "misc",
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}); err != nil {
		t.Fatalf("seed product %s failed: %v", id, err)
	}
}

func TestProductRepository_CreateNameTaken(t *testing.T) {
	repo := memory.NewProductRepository(memory.NewStore())
	seedProduct(t, repo, "product-1", "keyboard", 1)

	err := repo.Create(domain.Product{ID: "product-2", Name: "keyboard"})
	if !errors.Is(err, domain.ErrProductNameTaken) {
		t.Fatalf("expected ErrProductNameTaken, got %v", err)
	}
}

func TestProductRepository_AdjustStock(t *testing.T) {
	repo := memory.NewProductRepository(memory.NewStore())
	seedProduct(t, repo, "product-1", "keyboard", 5)

	product, err := repo.AdjustStock("product-1", -3)
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if product.Stock != 2 {
		t.Fatalf("expected stock 2, got %d", product.Stock)
	}

	if _, err := repo.AdjustStock("product-1", -3); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	// Отказ не должен менять остаток.
	product, _ = repo.Get("product-1")
	if product.Stock != 2 {
		t.Fatalf("stock must stay 2, got %d", product.Stock)
	}

	if _, err := repo.AdjustStock("missing", 1); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestProductRepository_ListFilters(t *testing.T) {
	repo := memory.NewProductRepository(memory.NewStore())
	seedProduct(t, repo, "product-1", "Mechanical Keyboard", 1)
	seedProduct(t, repo, "product-2", "Mouse", 1)

	inactive := domain.Product{ID: "product-3", Name: "Old Keyboard", Category: "misc"}
	if err := repo.Create(inactive); err != nil {
		t.Fatalf("seed inactive failed: %v", err)
	}

	byName, err := repo.List(domain.ProductFilter{Name: "keyboard"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(byName) != 2 {
		t.Fatalf("expected 2 keyboards, got %d", len(byName))
	}

	active := true
	onlyActive, err := repo.List(domain.ProductFilter{Name: "keyboard", Active: &active})
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}
	if len(onlyActive) != 1 || onlyActive[0].ID != "product-1" {
		t.Fatalf("unexpected active filter result: %+v", onlyActive)
	}

	count, err := repo.Count(domain.ProductFilter{Category: "misc"})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected count 3, got %d", count)
	}
}

func TestProductRepository_DeleteReferenced(t *testing.T) {
	store := memory.NewStore()
	products := memory.NewProductRepository(store)
	orders := memory.NewOrderRepository(store)
	seedProduct(t, products, "product-1", "keyboard", 10)

	if err := orders.Create(newOrder(1)); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if err := products.Delete("product-1"); !errors.Is(err, domain.ErrProductInOrders) {
		t.Fatalf("expected ErrProductInOrders, got %v", err)
	}
}

func TestProductRepository_Pagination(t *testing.T) {
	repo := memory.NewProductRepository(memory.NewStore())
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		if err := repo.Create(domain.Product{
			ID:        string(rune('a' + i)),
			Name:      string(rune('a' + i)),
			Active:    true,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	page, err := repo.List(domain.ProductFilter{Page: domain.Page{Skip: 1, Take: 2}})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected page of 2, got %d", len(page))
	}
	// Новые первыми: пропустив одну запись, получаем вторую по новизне.
	if page[0].ID != "d" || page[1].ID != "c" {
		t.Fatalf("unexpected page order: %+v", page)
	}
}
