// Package model содержит доменные сущности ритейл-сервиса nxtcomm.
package model

import "time"

// OrderStatus описывает этап обработки заказа.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusInDelivery OrderStatus = "in_delivery"
	OrderStatusCompleted  OrderStatus = "completed"
)

// Valid сообщает, входит ли статус в допустимое множество значений.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusInDelivery, OrderStatusCompleted:
		return true
	}
	return false
}

// Customer представляет зарегистрированного покупателя.
type Customer struct {
	ID               int64
	FirstName        string
	LastName         string
	Email            string
	PhoneNumber      string
	RegistrationDate time.Time
}

// Product описывает товар каталога. StockQuantity — единственный
// авторитетный счётчик остатка, отрицательным не бывает.
type Product struct {
	ID            int64
	Name          string
	Price         float64
	StockQuantity int64
	OfferID       *int64
	SupplierID    *int64
}

// Offer описывает акцию со скидкой и окном действия.
type Offer struct {
	ID            int64
	Title         string
	DiscountValue float64
	StartDate     time.Time
	EndDate       time.Time
}

// Order описывает заказ покупателя. После создания меняется только статус.
type Order struct {
	ID          int64
	CustomerID  int64
	ProductID   int64
	OrderDate   time.Time
	TotalAmount float64
	Status      OrderStatus
}

// OrderWithCustomer — проекция заказа с данными покупателя для отображения.
type OrderWithCustomer struct {
	Order
	CustomerFirstName string
	CustomerLastName  string
	CustomerPhone     string
}

// Transaction описывает финансовую операцию. Записи неизменяемы.
type Transaction struct {
	ID              int64
	OrderID         int64
	Amount          float64
	Status          string
	PaymentMethod   string
	TransactionDate time.Time
}

// Review описывает отзыв покупателя о товаре. Отзывы только добавляются.
type Review struct {
	ID         int64
	ProductID  int64
	CustomerID int64
	Rating     int
	Comment    string
	ReviewDate time.Time
}

// ReviewWithCustomer — проекция отзыва с именем автора.
type ReviewWithCustomer struct {
	Review
	CustomerFirstName string
}

// Employee представляет сотрудника компании.
type Employee struct {
	ID          int64
	FirstName   string
	LastName    string
	Role        string
	Email       string
	PhoneNumber string
	HireDate    time.Time
	Salary      float64
}

// Supplier представляет поставщика товаров.
type Supplier struct {
	ID          int64
	FirstName   string
	LastName    string
	PhoneNumber string
}

// Warehouse описывает склад. ManagerID ссылается на существующего сотрудника.
type Warehouse struct {
	ID        int64
	Capacity  int64
	Rent      float64
	ManagerID int64
}

// WarehouseWithManager — проекция склада с именем управляющего.
type WarehouseWithManager struct {
	Warehouse
	ManagerFirstName *string
	ManagerLastName  *string
}

// InventoryItem — товар с данными поставщика для складского обзора.
type InventoryItem struct {
	Product
	SupplierFirstName *string
	SupplierLastName  *string
	SupplierPhone     *string
}

// ProductWithOffer — товар с действующей акцией для витрины.
type ProductWithOffer struct {
	Product
	OfferTitle    *string
	DiscountValue *float64
}

// StockLevel описывает текущий остаток товара.
type StockLevel struct {
	ProductID     int64
	Name          string
	StockQuantity int64
	Low           bool
}

// SalesSummary — свод продаж за календарный месяц.
type SalesSummary struct {
	OrderCount        int64   `json:"order_count"`
	TotalRevenue      float64 `json:"total_revenue"`
	AverageOrderValue float64 `json:"average_order_value"`
}

// ProductRank — позиция товара в рейтинге по числу заказов.
type ProductRank struct {
	ProductID  int64
	Name       string
	Price      float64
	OrderCount int64
}

// CustomerGrowth содержит число новых покупателей за месяц.
type CustomerGrowth struct {
	NewCustomers int64 `json:"new_customers"`
}

// AnalyticsReport объединяет аналитические срезы административной панели.
type AnalyticsReport struct {
	Sales          SalesSummary
	TopProducts    []ProductRank
	CustomerGrowth CustomerGrowth
	LowStock       []Product
}

// TransactionSummary — итоги транзакций за день в разрезе статуса и способа оплаты.
type TransactionSummary struct {
	TotalTransactions int64
	TotalAmount       float64
	Status            string
	PaymentMethod     string
}
