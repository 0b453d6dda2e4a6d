// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/vishwajitsarnobat/Nxtcomm/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrOrderNotFound возвращается, если заказ с указанным идентификатором не найден.
var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrProductNotFound возвращается, если товар не найден.
	ErrProductNotFound = errors.New("product not found")
	// ErrCustomerNotFound возвращается, если покупатель не найден.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrEmployeeNotFound возвращается, если сотрудник не найден.
	ErrEmployeeNotFound = errors.New("employee not found")
	// ErrEmployeeExists возвращается при попытке создать сотрудника с занятым email.
	ErrEmployeeExists = errors.New("employee already exists")
	// ErrOutOfStock возвращается, если остаток товара исчерпан и списание невозможно.
	ErrOutOfStock = errors.New("product out of stock")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		// Если ошибка контекста — выходим сразу
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		// Повторяем только конкурентные конфликты: Serialization Failure и Deadlock.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		// Если это не pg-ошибка, но сетевая
		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// TransitionOrderStatus применяет статус к заказу и возвращает проекцию с данными покупателя.
// Переход в статус completed списывает единицу остатка товара в той же транзакции;
// повторное применение completed остаток не меняет.
func (r *PostgresRepository) TransitionOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus) (*model.OrderWithCustomer, error) {
	var result *model.OrderWithCustomer

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var (
			prevStatus string
			productID  int64
		)
		err = tx.QueryRow(ctx,
			`SELECT status, product_id FROM orders WHERE order_id = $1 FOR UPDATE`,
			orderID,
		).Scan(&prevStatus, &productID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("select order: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE orders SET status = $2 WHERE order_id = $1`,
			orderID, string(status),
		)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		if status == model.OrderStatusCompleted && model.OrderStatus(prevStatus) != model.OrderStatusCompleted {
			cmdTag, err := tx.Exec(ctx,
				`UPDATE products SET stock_quantity = stock_quantity - 1
				 WHERE product_id = $1 AND stock_quantity > 0`,
				productID,
			)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if cmdTag.RowsAffected() == 0 {
				return ErrOutOfStock
			}
		}

		o, err := scanOrderWithCustomer(tx.QueryRow(ctx,
			`SELECT o.order_id, o.customer_id, o.product_id, o.order_date,
			        o.total_amount_cents, o.status,
			        c.first_name, c.last_name, c.phone_number
			 FROM orders o
			 JOIN customers c ON o.customer_id = c.customer_id
			 WHERE o.order_id = $1`,
			orderID,
		))
		if err != nil {
			return fmt.Errorf("select updated order: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func scanOrderWithCustomer(row pgx.Row) (*model.OrderWithCustomer, error) {
	var (
		o           model.OrderWithCustomer
		amountCents int64
		status      string
	)
	err := row.Scan(&o.ID, &o.CustomerID, &o.ProductID, &o.OrderDate,
		&amountCents, &status,
		&o.CustomerFirstName, &o.CustomerLastName, &o.CustomerPhone)
	if err != nil {
		return nil, err
	}
	o.TotalAmount = float64(amountCents) / 100
	o.Status = model.OrderStatus(status)
	return &o, nil
}

// ListOrders возвращает все заказы с данными покупателей, новые первыми.
func (r *PostgresRepository) ListOrders(ctx context.Context) ([]model.OrderWithCustomer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT o.order_id, o.customer_id, o.product_id, o.order_date,
		        o.total_amount_cents, o.status,
		        c.first_name, c.last_name, c.phone_number
		 FROM orders o
		 JOIN customers c ON o.customer_id = c.customer_id
		 ORDER BY o.order_date DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.OrderWithCustomer
	for rows.Next() {
		o, err := scanOrderWithCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

// ListInventory возвращает товары с данными поставщиков, сначала малые остатки.
func (r *PostgresRepository) ListInventory(ctx context.Context) ([]model.InventoryItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.product_id, p.name, p.price_cents, p.stock_quantity, p.offer_id, p.supplier_id,
		        s.first_name, s.last_name, s.phone_number
		 FROM products p
		 LEFT JOIN suppliers s ON p.supplier_id = s.supplier_id
		 ORDER BY p.stock_quantity ASC, p.product_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select inventory: %w", err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		var (
			it         model.InventoryItem
			priceCents int64
		)
		err := rows.Scan(&it.ID, &it.Name, &priceCents, &it.StockQuantity, &it.OfferID, &it.SupplierID,
			&it.SupplierFirstName, &it.SupplierLastName, &it.SupplierPhone)
		if err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		it.Price = float64(priceCents) / 100
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// ListLowStock возвращает товары с остатком строго ниже порога,
// упорядоченные по остатку, затем по идентификатору.
func (r *PostgresRepository) ListLowStock(ctx context.Context, threshold int64) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT product_id, name, price_cents, stock_quantity, offer_id, supplier_id
		 FROM products
		 WHERE stock_quantity < $1
		 ORDER BY stock_quantity ASC, product_id ASC`,
		threshold,
	)
	if err != nil {
		return nil, fmt.Errorf("select low stock: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var (
		p          model.Product
		priceCents int64
	)
	err := row.Scan(&p.ID, &p.Name, &priceCents, &p.StockQuantity, &p.OfferID, &p.SupplierID)
	if err != nil {
		return nil, err
	}
	p.Price = float64(priceCents) / 100
	return &p, nil
}

// GetProduct возвращает товар по идентификатору.
func (r *PostgresRepository) GetProduct(ctx context.Context, productID int64) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`SELECT product_id, name, price_cents, stock_quantity, offer_id, supplier_id
		 FROM products
		 WHERE product_id = $1`,
		productID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// MonthlySales считает заказы и выручку за календарный месяц опорной даты.
// Сравнивается только номер месяца: заказы других лет с тем же месяцем
// также попадают в выборку (поведение исходной системы, сохранено намеренно).
func (r *PostgresRepository) MonthlySales(ctx context.Context, ref time.Time) (int64, int64, error) {
	var (
		orderCount   int64
		revenueCents int64
	)
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_amount_cents), 0)
		 FROM orders
		 WHERE EXTRACT(MONTH FROM order_date) = EXTRACT(MONTH FROM $1::timestamptz)`,
		ref,
	).Scan(&orderCount, &revenueCents)
	if err != nil {
		return 0, 0, fmt.Errorf("monthly sales: %w", err)
	}

	return orderCount, revenueCents, nil
}

// TopProducts возвращает не более limit товаров по убыванию числа заказов.
// При равном числе заказов раньше идёт меньший идентификатор.
func (r *PostgresRepository) TopProducts(ctx context.Context, limit int) ([]model.ProductRank, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.product_id, p.name, p.price_cents, COUNT(*) AS order_count
		 FROM orders o
		 JOIN products p ON o.product_id = p.product_id
		 GROUP BY p.product_id, p.name, p.price_cents
		 ORDER BY order_count DESC, p.product_id ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select top products: %w", err)
	}
	defer rows.Close()

	var ranks []model.ProductRank
	for rows.Next() {
		var (
			rank       model.ProductRank
			priceCents int64
		)
		if err := rows.Scan(&rank.ProductID, &rank.Name, &priceCents, &rank.OrderCount); err != nil {
			return nil, fmt.Errorf("scan product rank: %w", err)
		}
		rank.Price = float64(priceCents) / 100
		ranks = append(ranks, rank)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return ranks, nil
}

// CustomerGrowth считает покупателей, зарегистрированных в календарный месяц
// опорной даты. Сравнивается только номер месяца, как и в MonthlySales.
func (r *PostgresRepository) CustomerGrowth(ctx context.Context, ref time.Time) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM customers
		 WHERE EXTRACT(MONTH FROM registration_date) = EXTRACT(MONTH FROM $1::timestamptz)`,
		ref,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("customer growth: %w", err)
	}

	return count, nil
}

// DailyTransactions возвращает итоги транзакций за указанный день
// в разрезе статуса и способа оплаты.
func (r *PostgresRepository) DailyTransactions(ctx context.Context, day time.Time) ([]model.TransactionSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT COUNT(*), COALESCE(SUM(amount_cents), 0), transaction_status, payment_method
		 FROM transactions
		 WHERE transaction_date::date = $1::date
		 GROUP BY transaction_status, payment_method
		 ORDER BY transaction_status, payment_method`,
		day,
	)
	if err != nil {
		return nil, fmt.Errorf("select daily transactions: %w", err)
	}
	defer rows.Close()

	var res []model.TransactionSummary
	for rows.Next() {
		var (
			s           model.TransactionSummary
			amountCents int64
		)
		if err := rows.Scan(&s.TotalTransactions, &amountCents, &s.Status, &s.PaymentMethod); err != nil {
			return nil, fmt.Errorf("scan transaction summary: %w", err)
		}
		s.TotalAmount = float64(amountCents) / 100
		res = append(res, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// ListEmployees возвращает сотрудников, недавно нанятые первыми.
func (r *PostgresRepository) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT employee_id, first_name, last_name, role, email, phone_number, hire_date, salary_cents
		 FROM employees
		 ORDER BY hire_date DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select employees: %w", err)
	}
	defer rows.Close()

	var employees []model.Employee
	for rows.Next() {
		var (
			e           model.Employee
			salaryCents int64
		)
		err := rows.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Role, &e.Email,
			&e.PhoneNumber, &e.HireDate, &salaryCents)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		e.Salary = float64(salaryCents) / 100
		employees = append(employees, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return employees, nil
}

// CreateEmployee создаёт нового сотрудника и возвращает его идентификатор.
func (r *PostgresRepository) CreateEmployee(ctx context.Context, e model.Employee) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO employees (first_name, last_name, role, email, phone_number, hire_date, salary_cents)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING employee_id`,
		e.FirstName, e.LastName, e.Role, e.Email, e.PhoneNumber, e.HireDate, int64(e.Salary*100),
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrEmployeeExists, e.Email)
		}
		return 0, fmt.Errorf("create employee: %w", err)
	}
	return id, nil
}

// ListWarehouses возвращает склады с именами управляющих.
func (r *PostgresRepository) ListWarehouses(ctx context.Context) ([]model.WarehouseWithManager, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT w.warehouse_id, w.capacity, w.rent_cents, w.manager_id,
		        e.first_name, e.last_name
		 FROM warehouses w
		 LEFT JOIN employees e ON w.manager_id = e.employee_id
		 ORDER BY w.warehouse_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select warehouses: %w", err)
	}
	defer rows.Close()

	var warehouses []model.WarehouseWithManager
	for rows.Next() {
		var (
			w         model.WarehouseWithManager
			rentCents int64
		)
		err := rows.Scan(&w.ID, &w.Capacity, &rentCents, &w.ManagerID,
			&w.ManagerFirstName, &w.ManagerLastName)
		if err != nil {
			return nil, fmt.Errorf("scan warehouse: %w", err)
		}
		w.Rent = float64(rentCents) / 100
		warehouses = append(warehouses, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return warehouses, nil
}

// CreateWarehouse создаёт склад. Отсутствующий управляющий приводит к ErrEmployeeNotFound.
func (r *PostgresRepository) CreateWarehouse(ctx context.Context, w model.Warehouse) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO warehouses (capacity, rent_cents, manager_id)
		 VALUES ($1, $2, $3)
		 RETURNING warehouse_id`,
		w.Capacity, int64(w.Rent*100), w.ManagerID,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return 0, fmt.Errorf("%w: manager %d", ErrEmployeeNotFound, w.ManagerID)
		}
		return 0, fmt.Errorf("create warehouse: %w", err)
	}
	return id, nil
}

// ListProducts возвращает товары в наличии с данными действующих акций.
func (r *PostgresRepository) ListProducts(ctx context.Context) ([]model.ProductWithOffer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.product_id, p.name, p.price_cents, p.stock_quantity, p.offer_id, p.supplier_id,
		        o.offer_title, o.discount_value
		 FROM products p
		 LEFT JOIN offers o ON p.offer_id = o.offer_id
		 WHERE p.stock_quantity > 0
		 ORDER BY p.product_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var products []model.ProductWithOffer
	for rows.Next() {
		var (
			p          model.ProductWithOffer
			priceCents int64
		)
		err := rows.Scan(&p.ID, &p.Name, &priceCents, &p.StockQuantity, &p.OfferID, &p.SupplierID,
			&p.OfferTitle, &p.DiscountValue)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.Price = float64(priceCents) / 100
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

// ListReviews возвращает отзывы о товаре с именем автора, новые первыми.
func (r *PostgresRepository) ListReviews(ctx context.Context, productID int64) ([]model.ReviewWithCustomer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.review_id, r.product_id, r.customer_id, r.rating, r.comment, r.review_date,
		        c.first_name
		 FROM reviews r
		 JOIN customers c ON r.customer_id = c.customer_id
		 WHERE r.product_id = $1
		 ORDER BY r.review_date DESC`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("select reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.ReviewWithCustomer
	for rows.Next() {
		var rv model.ReviewWithCustomer
		err := rows.Scan(&rv.ID, &rv.ProductID, &rv.CustomerID, &rv.Rating, &rv.Comment,
			&rv.ReviewDate, &rv.CustomerFirstName)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return reviews, nil
}

// CreateReview сохраняет отзыв. Ссылки на отсутствующий товар или покупателя
// транслируются в ErrProductNotFound и ErrCustomerNotFound.
func (r *PostgresRepository) CreateReview(ctx context.Context, rv model.Review) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO reviews (product_id, customer_id, rating, comment)
		 VALUES ($1, $2, $3, $4)
		 RETURNING review_id`,
		rv.ProductID, rv.CustomerID, rv.Rating, rv.Comment,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			if strings.Contains(pgErr.ConstraintName, "customer") {
				return 0, fmt.Errorf("%w: %d", ErrCustomerNotFound, rv.CustomerID)
			}
			return 0, fmt.Errorf("%w: %d", ErrProductNotFound, rv.ProductID)
		}
		return 0, fmt.Errorf("create review: %w", err)
	}
	return id, nil
}

// ListOffers возвращает акции, действующие на указанную дату,
// по убыванию размера скидки.
func (r *PostgresRepository) ListOffers(ctx context.Context, now time.Time) ([]model.Offer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT offer_id, offer_title, discount_value, start_date, end_date
		 FROM offers
		 WHERE end_date >= $1
		 ORDER BY discount_value DESC, offer_id ASC`,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("select offers: %w", err)
	}
	defer rows.Close()

	var offers []model.Offer
	for rows.Next() {
		var o model.Offer
		err := rows.Scan(&o.ID, &o.Title, &o.DiscountValue, &o.StartDate, &o.EndDate)
		if err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		offers = append(offers, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return offers, nil
}
