// Package service реализует бизнес-логику ритейл-сервиса nxtcomm.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vishwajitsarnobat/Nxtcomm/internal/model"
)

// DefaultLowStockThreshold — порог остатка, ниже которого товар требует пополнения.
const DefaultLowStockThreshold = 10

// ErrInvalidStatus возвращается при попытке применить неизвестный статус заказа.
var (
	ErrInvalidStatus = errors.New("invalid order status")
	// ErrInvalidInput возвращается при некорректном или выходящем за допустимые границы поле.
	ErrInvalidInput = errors.New("invalid input")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	TransitionOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus) (*model.OrderWithCustomer, error)
	ListOrders(ctx context.Context) ([]model.OrderWithCustomer, error)
	ListInventory(ctx context.Context) ([]model.InventoryItem, error)
	ListLowStock(ctx context.Context, threshold int64) ([]model.Product, error)
	GetProduct(ctx context.Context, productID int64) (*model.Product, error)
	MonthlySales(ctx context.Context, ref time.Time) (int64, int64, error)
	TopProducts(ctx context.Context, limit int) ([]model.ProductRank, error)
	CustomerGrowth(ctx context.Context, ref time.Time) (int64, error)
	DailyTransactions(ctx context.Context, day time.Time) ([]model.TransactionSummary, error)
	ListEmployees(ctx context.Context) ([]model.Employee, error)
	CreateEmployee(ctx context.Context, e model.Employee) (int64, error)
	ListWarehouses(ctx context.Context) ([]model.WarehouseWithManager, error)
	CreateWarehouse(ctx context.Context, w model.Warehouse) (int64, error)
	ListProducts(ctx context.Context) ([]model.ProductWithOffer, error)
	ListReviews(ctx context.Context, productID int64) ([]model.ReviewWithCustomer, error)
	CreateReview(ctx context.Context, rv model.Review) (int64, error)
	ListOffers(ctx context.Context, now time.Time) ([]model.Offer, error)
}

// Service содержит бизнес-логику ритейл-сервиса nxtcomm.
type Service struct {
	repo Repository
}

// NewService создаёт новый сервис с указанным репозиторием.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// TransitionOrderStatus применяет новый статус к заказу. Статус трактуется как
// множество допустимых значений, а не конечный автомат: повторное применение
// того же статуса корректно и идемпотентно.
func (s *Service) TransitionOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus) (*model.OrderWithCustomer, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.repo.TransitionOrderStatus(ctx, orderID, status)
}

// ListOrders возвращает все заказы с данными покупателей.
func (s *Service) ListOrders(ctx context.Context) ([]model.OrderWithCustomer, error) {
	return s.repo.ListOrders(ctx)
}

// ListInventory возвращает складской обзор с данными поставщиков.
func (s *Service) ListInventory(ctx context.Context) ([]model.InventoryItem, error) {
	return s.repo.ListInventory(ctx)
}

// ListLowStock возвращает товары с остатком строго ниже порога.
// Неположительный порог даёт пустой результат: отрицательных остатков не бывает.
func (s *Service) ListLowStock(ctx context.Context, threshold int64) ([]model.Product, error) {
	if threshold <= 0 {
		return []model.Product{}, nil
	}
	return s.repo.ListLowStock(ctx, threshold)
}

// CheckStock возвращает текущий остаток товара и признак низкого остатка.
func (s *Service) CheckStock(ctx context.Context, productID int64) (*model.StockLevel, error) {
	p, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	return &model.StockLevel{
		ProductID:     p.ID,
		Name:          p.Name,
		StockQuantity: p.StockQuantity,
		Low:           p.StockQuantity < DefaultLowStockThreshold,
	}, nil
}

// DailyTransactions возвращает итоги транзакций за указанный день.
func (s *Service) DailyTransactions(ctx context.Context, day time.Time) ([]model.TransactionSummary, error) {
	return s.repo.DailyTransactions(ctx, day)
}

// ListEmployees возвращает сотрудников, недавно нанятые первыми.
func (s *Service) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	return s.repo.ListEmployees(ctx)
}

// CreateEmployee создаёт нового сотрудника.
func (s *Service) CreateEmployee(ctx context.Context, e model.Employee) (int64, error) {
	if e.FirstName == "" || e.LastName == "" || e.Role == "" || e.Email == "" {
		return 0, fmt.Errorf("%w: first name, last name, role and email are required", ErrInvalidInput)
	}
	if e.Salary < 0 {
		return 0, fmt.Errorf("%w: salary must not be negative", ErrInvalidInput)
	}
	if e.HireDate.IsZero() {
		e.HireDate = time.Now()
	}
	return s.repo.CreateEmployee(ctx, e)
}

// ListWarehouses возвращает склады с именами управляющих.
func (s *Service) ListWarehouses(ctx context.Context) ([]model.WarehouseWithManager, error) {
	return s.repo.ListWarehouses(ctx)
}

// CreateWarehouse создаёт склад. Управляющий должен существовать на момент записи.
func (s *Service) CreateWarehouse(ctx context.Context, w model.Warehouse) (int64, error) {
	if w.Capacity <= 0 {
		return 0, fmt.Errorf("%w: capacity must be positive", ErrInvalidInput)
	}
	if w.Rent < 0 {
		return 0, fmt.Errorf("%w: rent must not be negative", ErrInvalidInput)
	}
	return s.repo.CreateWarehouse(ctx, w)
}

// ListProducts возвращает товары в наличии с данными действующих акций.
func (s *Service) ListProducts(ctx context.Context) ([]model.ProductWithOffer, error) {
	return s.repo.ListProducts(ctx)
}

// ListReviews возвращает отзывы о товаре.
func (s *Service) ListReviews(ctx context.Context, productID int64) ([]model.ReviewWithCustomer, error) {
	return s.repo.ListReviews(ctx, productID)
}

// AddReview добавляет отзыв о товаре. Оценка ограничена диапазоном 1–5.
func (s *Service) AddReview(ctx context.Context, rv model.Review) (int64, error) {
	if rv.Rating < 1 || rv.Rating > 5 {
		return 0, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	return s.repo.CreateReview(ctx, rv)
}

// ListOffers возвращает акции, действующие на указанную дату.
func (s *Service) ListOffers(ctx context.Context, now time.Time) ([]model.Offer, error) {
	return s.repo.ListOffers(ctx, now)
}
