package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

func (r *orderRepository) Create(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Сначала списания: условный UPDATE по каждой позиции сериализует
	// конкурентные заказы на уровне строк товаров и гарантирует
	// неотрицательный остаток без читающей проверки.
	for _, line := range order.Lines {
		if err = decrementStockTx(ctx, tx, line.ProductID, line.Qty); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, customer_id, status, total_minor, note, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		order.ID, order.CustomerID, string(order.Status), order.TotalMinor,
		order.Note, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOrderExists
		}
		if isForeignKeyViolation(err) {
			return domain.ErrCustomerNotFound
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for _, line := range order.Lines {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (
				id, order_id, product_id, qty, unit_price_minor, subtotal_minor, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
		`,
			line.ID, order.ID, line.ProductID, line.Qty,
			line.UnitPriceMinor, line.SubtotalMinor, line.CreatedAt,
		); err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrProductNotFound
			}
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create order: %w", err)
	}

	return nil
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var order domain.Order
	var status string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, status, total_minor, note, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id).Scan(
		&order.ID, &order.CustomerID, &status, &order.TotalMinor,
		&order.Note, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	order.Status = domain.OrderStatus(status)

	lines, err := r.loadLines(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Lines = lines

	return order, nil
}

func (r *orderRepository) List(filter domain.OrderFilter) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	where, args := orderFilterClauses(filter)
	query := `
		SELECT id, customer_id, status, total_minor, note, created_at, updated_at
		FROM orders
	` + where + `
		ORDER BY created_at DESC, id DESC
	` + pageClauses(filter.Page)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var order domain.Order
		var status string
		if err := rows.Scan(
			&order.ID, &order.CustomerID, &status, &order.TotalMinor,
			&order.Note, &order.CreatedAt, &order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		order.Status = domain.OrderStatus(status)

		lines, err := r.loadLines(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Lines = lines
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) Count(filter domain.OrderFilter) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	where, args := orderFilterClauses(filter)

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

func (r *orderRepository) Update(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET customer_id = $1,
		    status = $2,
		    note = $3,
		    updated_at = $4
		WHERE id = $5
	`,
		order.CustomerID, string(order.Status), order.Note, order.UpdatedAt, order.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrCustomerNotFound
		}
		return fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}

func (r *orderRepository) AddLine(orderID string, line domain.OrderLine) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = orderExistsTx(ctx, tx, orderID); err != nil {
		return domain.Order{}, err
	}
	if err = decrementStockTx(ctx, tx, line.ProductID, line.Qty); err != nil {
		return domain.Order{}, err
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO order_lines (
			id, order_id, product_id, qty, unit_price_minor, subtotal_minor, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		line.ID, orderID, line.ProductID, line.Qty,
		line.UnitPriceMinor, line.SubtotalMinor, line.CreatedAt,
	); err != nil {
		if isForeignKeyViolation(err) {
			return domain.Order{}, domain.ErrProductNotFound
		}
		return domain.Order{}, fmt.Errorf("insert order line: %w", err)
	}

	if err = recalcTotalTx(ctx, tx, orderID); err != nil {
		return domain.Order{}, err
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit add line: %w", err)
	}

	return r.Get(orderID)
}

func (r *orderRepository) RemoveLine(orderID, lineID string) (domain.OrderLine, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.OrderLine{}, fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = orderExistsTx(ctx, tx, orderID); err != nil {
		return domain.OrderLine{}, err
	}

	var line domain.OrderLine
	err = tx.QueryRowContext(ctx, `
		DELETE FROM order_lines
		WHERE id = $1 AND order_id = $2
		RETURNING id, order_id, product_id, qty, unit_price_minor, subtotal_minor, created_at
	`, lineID, orderID).Scan(
		&line.ID, &line.OrderID, &line.ProductID, &line.Qty,
		&line.UnitPriceMinor, &line.SubtotalMinor, &line.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.ErrOrderLineNotFound
			return domain.OrderLine{}, err
		}
		return domain.OrderLine{}, fmt.Errorf("delete order line: %w", err)
	}

	// Остаток возвращается, только если товар ещё существует.
	if _, err = tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1
	`, line.ProductID, line.Qty); err != nil {
		return domain.OrderLine{}, fmt.Errorf("restore stock: %w", err)
	}

	if err = recalcTotalTx(ctx, tx, orderID); err != nil {
		return domain.OrderLine{}, err
	}

	if err = tx.Commit(); err != nil {
		return domain.OrderLine{}, fmt.Errorf("commit remove line: %w", err)
	}

	return line, nil
}

func (r *orderRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Возврат остатков по всем позициям одним запросом.
	if _, err = tx.ExecContext(ctx, `
		UPDATE products p
		SET stock = p.stock + l.qty, updated_at = NOW()
		FROM (
			SELECT product_id, SUM(qty) AS qty
			FROM order_lines
			WHERE order_id = $1
			GROUP BY product_id
		) l
		WHERE p.id = l.product_id
	`, id); err != nil {
		return fmt.Errorf("restore stock on delete: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		err = domain.ErrOrderNotFound
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete order: %w", err)
	}

	return nil
}

func (r *orderRepository) loadLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, qty, unit_price_minor, subtotal_minor, created_at
		FROM order_lines
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.OrderLine, 0)
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(
			&line.ID, &line.OrderID, &line.ProductID, &line.Qty,
			&line.UnitPriceMinor, &line.SubtotalMinor, &line.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}

	return lines, nil
}

// decrementStockTx списывает qty единиц товара условным обновлением.
// Ноль затронутых строк означает либо нехватку остатка, либо отсутствие
// товара; различаем повторным чтением внутри той же транзакции.
func decrementStockTx(ctx context.Context, tx *sql.Tx, productID string, qty int32) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`, productID, qty)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var available int32
	err = tx.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("check product stock: %w", err)
	}

	return &domain.InsufficientStockError{
		ProductID: productID,
		Available: available,
		Requested: qty,
	}
}

// recalcTotalTx пересчитывает сумму заказа по полному набору его позиций.
func recalcTotalTx(ctx context.Context, tx *sql.Tx, orderID string) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET total_minor = COALESCE((
			SELECT SUM(subtotal_minor) FROM order_lines WHERE order_id = orders.id
		), 0),
		    updated_at = NOW()
		WHERE id = $1
	`, orderID); err != nil {
		return fmt.Errorf("recalc order total: %w", err)
	}
	return nil
}

func orderExistsTx(ctx context.Context, tx *sql.Tx, orderID string) error {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("check order exists: %w", err)
	}
	return nil
}

func orderFilterClauses(filter domain.OrderFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		conditions = append(conditions, "customer_id = $"+strconv.Itoa(len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// pageClauses переводит skip/take в OFFSET/LIMIT. Значения подставляются
// числами: они приходят из распарсенных int, а не из пользовательских строк.
func pageClauses(page domain.Page) string {
	clause := ""
	if page.Take > 0 {
		clause += " LIMIT " + strconv.Itoa(page.Take)
	}
	if page.Skip > 0 {
		clause += " OFFSET " + strconv.Itoa(page.Skip)
	}
	return clause
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

var _ domain.OrderRepository = (*orderRepository)(nil)
