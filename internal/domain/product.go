package domain

import "time"

// Product представляет товарную позицию каталога.
type Product struct {
	ID string
	// Name уникально среди всех товаров (проверка — точное совпадение,
	// поиск в каталоге — регистронезависимый contains).
	Name        string
	Description string
	// PriceMinor — актуальная цена за единицу в минимальных денежных единицах.
	PriceMinor int64
	// Stock — доступный остаток. Никогда не уходит в минус через операции заказов.
	Stock    int32
	Category string
	// Active определяет, можно ли добавлять товар в новые заказы.
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateInvariants проверяет базовые инварианты товара.
func (p *Product) ValidateInvariants() []error {
	var errs []error

	if p.Name == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if p.PriceMinor < 0 {
		errs = append(errs, ErrProductPriceNegative)
	}
	if p.Stock < 0 {
		errs = append(errs, ErrProductStockNegative)
	}

	return errs
}
