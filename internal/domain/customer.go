package domain

import "time"

// Customer представляет клиента магазина.
type Customer struct {
	ID string
	// Name — отображаемое имя клиента.
	Name string
	// Email уникален в пределах всей таблицы клиентов.
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateInvariants проверяет обязательные поля клиента.
func (c *Customer) ValidateInvariants() []error {
	var errs []error

	if c.Name == "" {
		errs = append(errs, ErrCustomerNameRequired)
	}
	if c.Email == "" {
		errs = append(errs, ErrCustomerEmailRequired)
	}

	return errs
}
