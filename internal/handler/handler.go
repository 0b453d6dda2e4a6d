// Package handler содержит HTTP-обработчики API ритейл-сервиса nxtcomm.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vishwajitsarnobat/Nxtcomm/internal/model"
	"github.com/vishwajitsarnobat/Nxtcomm/internal/repository"
	"github.com/vishwajitsarnobat/Nxtcomm/internal/service"
	"github.com/vishwajitsarnobat/Nxtcomm/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	TransitionOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus) (*model.OrderWithCustomer, error)
	ListOrders(ctx context.Context) ([]model.OrderWithCustomer, error)
	ListInventory(ctx context.Context) ([]model.InventoryItem, error)
	CheckStock(ctx context.Context, productID int64) (*model.StockLevel, error)
	DailyTransactions(ctx context.Context, day time.Time) ([]model.TransactionSummary, error)
	ListEmployees(ctx context.Context) ([]model.Employee, error)
	CreateEmployee(ctx context.Context, e model.Employee) (int64, error)
	ListWarehouses(ctx context.Context) ([]model.WarehouseWithManager, error)
	CreateWarehouse(ctx context.Context, w model.Warehouse) (int64, error)
	Analytics(ctx context.Context, ref time.Time) (*model.AnalyticsReport, error)
	ListProducts(ctx context.Context) ([]model.ProductWithOffer, error)
	ListReviews(ctx context.Context, productID int64) ([]model.ReviewWithCustomer, error)
	AddReview(ctx context.Context, rv model.Review) (int64, error)
	ListOffers(ctx context.Context, now time.Time) ([]model.Offer, error)
}

// Handler реализует HTTP-обработчики API ритейл-сервиса nxtcomm.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: s,
		logger:  logger,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError транслирует ошибку бизнес-логики в HTTP-статус.
// Внутренние подробности хранилища наружу не отдаются.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput) || errors.Is(err, service.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrOrderNotFound) ||
		errors.Is(err, repository.ErrProductNotFound) ||
		errors.Is(err, repository.ErrCustomerNotFound) ||
		errors.Is(err, repository.ErrEmployeeNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrOutOfStock) || errors.Is(err, repository.ErrEmployeeExists):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error(op, zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

type orderResponse struct {
	OrderID     int64   `json:"order_id"`
	CustomerID  int64   `json:"customer_id"`
	ProductID   int64   `json:"product_id"`
	OrderDate   string  `json:"order_date"`
	TotalAmount float64 `json:"total_amount"`
	Status      string  `json:"status"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	PhoneNumber string  `json:"phone_number"`
}

func toOrderResponse(o model.OrderWithCustomer) orderResponse {
	return orderResponse{
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		ProductID:   o.ProductID,
		OrderDate:   o.OrderDate.Format(time.RFC3339),
		TotalAmount: o.TotalAmount,
		Status:      string(o.Status),
		FirstName:   o.CustomerFirstName,
		LastName:    o.CustomerLastName,
		PhoneNumber: o.CustomerPhone,
	}
}

// GetOrders возвращает все заказы с данными покупателей.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "list orders")
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}

	writeJSON(w, http.StatusOK, resp)
}

type updateOrderRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus применяет новый статус к заказу и возвращает обновлённую проекцию.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "orderID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.TransitionOrderStatus(r.Context(), orderID, model.OrderStatus(req.Status))
	if err != nil {
		h.writeServiceError(w, err, "transition order status")
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

type inventoryItemResponse struct {
	ProductID         int64   `json:"product_id"`
	Name              string  `json:"name"`
	Price             float64 `json:"price"`
	StockQuantity     int64   `json:"stock_quantity"`
	SupplierFirstName *string `json:"supplier_first_name"`
	SupplierLastName  *string `json:"supplier_last_name"`
	SupplierPhone     *string `json:"supplier_phone"`
}

// GetInventory возвращает складской обзор с данными поставщиков.
func (h *Handler) GetInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListInventory(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "list inventory")
		return
	}

	resp := make([]inventoryItemResponse, 0, len(items))
	for _, it := range items {
		resp = append(resp, inventoryItemResponse{
			ProductID:         it.ID,
			Name:              it.Name,
			Price:             it.Price,
			StockQuantity:     it.StockQuantity,
			SupplierFirstName: it.SupplierFirstName,
			SupplierLastName:  it.SupplierLastName,
			SupplierPhone:     it.SupplierPhone,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type stockLevelResponse struct {
	ProductID     int64  `json:"product_id"`
	Name          string `json:"name"`
	StockQuantity int64  `json:"stock_quantity"`
	Low           bool   `json:"low"`
}

// GetStock возвращает текущий остаток одного товара.
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	level, err := h.service.CheckStock(r.Context(), productID)
	if err != nil {
		h.writeServiceError(w, err, "check stock")
		return
	}

	writeJSON(w, http.StatusOK, stockLevelResponse{
		ProductID:     level.ProductID,
		Name:          level.Name,
		StockQuantity: level.StockQuantity,
		Low:           level.Low,
	})
}

type transactionSummaryResponse struct {
	TotalTransactions int64   `json:"total_transactions"`
	TotalAmount       float64 `json:"total_amount"`
	TransactionStatus string  `json:"transaction_status"`
	PaymentMethod     string  `json:"payment_method"`
}

// GetDailyTransactions возвращает итоги транзакций за текущий день.
func (h *Handler) GetDailyTransactions(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.DailyTransactions(r.Context(), time.Now())
	if err != nil {
		h.writeServiceError(w, err, "daily transactions")
		return
	}

	resp := make([]transactionSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, transactionSummaryResponse{
			TotalTransactions: s.TotalTransactions,
			TotalAmount:       s.TotalAmount,
			TransactionStatus: s.Status,
			PaymentMethod:     s.PaymentMethod,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type employeeResponse struct {
	EmployeeID  int64   `json:"employee_id"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Role        string  `json:"role"`
	Email       string  `json:"email"`
	PhoneNumber string  `json:"phone_number"`
	HireDate    string  `json:"hire_date"`
	Salary      float64 `json:"salary"`
}

// GetEmployees возвращает сотрудников, недавно нанятые первыми.
func (h *Handler) GetEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.ListEmployees(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "list employees")
		return
	}

	resp := make([]employeeResponse, 0, len(employees))
	for _, e := range employees {
		resp = append(resp, employeeResponse{
			EmployeeID:  e.ID,
			FirstName:   e.FirstName,
			LastName:    e.LastName,
			Role:        e.Role,
			Email:       e.Email,
			PhoneNumber: e.PhoneNumber,
			HireDate:    e.HireDate.Format(time.RFC3339),
			Salary:      e.Salary,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type createEmployeeRequest struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Role        string  `json:"role"`
	Email       string  `json:"email"`
	PhoneNumber string  `json:"phone_number"`
	HireDate    string  `json:"hire_date"`
	Salary      float64 `json:"salary"`
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

type createdResponse struct {
	ID int64 `json:"id"`
}

// CreateEmployee создаёт нового сотрудника.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	hireDate, err := parseDate(req.HireDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hire date")
		return
	}

	id, err := h.service.CreateEmployee(r.Context(), model.Employee{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Role:        req.Role,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		HireDate:    hireDate,
		Salary:      req.Salary,
	})
	if err != nil {
		h.writeServiceError(w, err, "create employee")
		return
	}

	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

type warehouseResponse struct {
	WarehouseID      int64   `json:"warehouse_id"`
	Capacity         int64   `json:"capacity"`
	Rent             float64 `json:"rent"`
	ManagerID        int64   `json:"manager_id"`
	ManagerFirstName *string `json:"manager_first_name"`
	ManagerLastName  *string `json:"manager_last_name"`
}

// GetWarehouses возвращает склады с именами управляющих.
func (h *Handler) GetWarehouses(w http.ResponseWriter, r *http.Request) {
	warehouses, err := h.service.ListWarehouses(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "list warehouses")
		return
	}

	resp := make([]warehouseResponse, 0, len(warehouses))
	for _, wh := range warehouses {
		resp = append(resp, warehouseResponse{
			WarehouseID:      wh.ID,
			Capacity:         wh.Capacity,
			Rent:             wh.Rent,
			ManagerID:        wh.ManagerID,
			ManagerFirstName: wh.ManagerFirstName,
			ManagerLastName:  wh.ManagerLastName,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type createWarehouseRequest struct {
	Capacity  *float64 `json:"capacity"`
	Rent      *float64 `json:"rent"`
	ManagerID *float64 `json:"manager_id"`
}

// CreateWarehouse создаёт склад. Вместимость и идентификатор управляющего
// обязаны быть целыми числами, арендная плата — числом.
func (h *Handler) CreateWarehouse(w http.ResponseWriter, r *http.Request) {
	var req createWarehouseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Capacity == nil || req.Rent == nil || req.ManagerID == nil {
		writeError(w, http.StatusBadRequest, "capacity, rent and manager_id are required")
		return
	}

	if !validation.IsWholeNumber(*req.Capacity) || !validation.IsWholeNumber(*req.ManagerID) {
		writeError(w, http.StatusBadRequest, "invalid input types")
		return
	}

	id, err := h.service.CreateWarehouse(r.Context(), model.Warehouse{
		Capacity:  int64(*req.Capacity),
		Rent:      *req.Rent,
		ManagerID: int64(*req.ManagerID),
	})
	if err != nil {
		h.writeServiceError(w, err, "create warehouse")
		return
	}

	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

type productRankResponse struct {
	ProductID  int64   `json:"product_id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	OrderCount int64   `json:"order_count"`
}

type lowStockResponse struct {
	ProductID     int64  `json:"product_id"`
	Name          string `json:"name"`
	StockQuantity int64  `json:"stock_quantity"`
}

type analyticsResponse struct {
	Sales          model.SalesSummary    `json:"sales"`
	TopProducts    []productRankResponse `json:"topProducts"`
	CustomerGrowth model.CustomerGrowth  `json:"customerGrowth"`
	LowStock       []lowStockResponse    `json:"lowStock"`
}

// GetAnalytics возвращает аналитический отчёт административной панели.
func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Analytics(r.Context(), time.Now())
	if err != nil {
		h.writeServiceError(w, err, "analytics")
		return
	}

	top := make([]productRankResponse, 0, len(report.TopProducts))
	for _, p := range report.TopProducts {
		top = append(top, productRankResponse{
			ProductID:  p.ProductID,
			Name:       p.Name,
			Price:      p.Price,
			OrderCount: p.OrderCount,
		})
	}

	low := make([]lowStockResponse, 0, len(report.LowStock))
	for _, p := range report.LowStock {
		low = append(low, lowStockResponse{
			ProductID:     p.ID,
			Name:          p.Name,
			StockQuantity: p.StockQuantity,
		})
	}

	writeJSON(w, http.StatusOK, analyticsResponse{
		Sales:          report.Sales,
		TopProducts:    top,
		CustomerGrowth: report.CustomerGrowth,
		LowStock:       low,
	})
}

type productResponse struct {
	ProductID     int64    `json:"product_id"`
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	StockQuantity int64    `json:"stock_quantity"`
	OfferTitle    *string  `json:"offer_title"`
	DiscountValue *float64 `json:"discount_value"`
}

// GetProducts возвращает товары в наличии с данными действующих акций.
func (h *Handler) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "list products")
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, productResponse{
			ProductID:     p.ID,
			Name:          p.Name,
			Price:         p.Price,
			StockQuantity: p.StockQuantity,
			OfferTitle:    p.OfferTitle,
			DiscountValue: p.DiscountValue,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type reviewResponse struct {
	ReviewID   int64  `json:"review_id"`
	ProductID  int64  `json:"product_id"`
	CustomerID int64  `json:"customer_id"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
	ReviewDate string `json:"review_date"`
	FirstName  string `json:"first_name"`
}

// GetReviews возвращает отзывы о товаре, новые первыми.
func (h *Handler) GetReviews(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	reviews, err := h.service.ListReviews(r.Context(), productID)
	if err != nil {
		h.writeServiceError(w, err, "list reviews")
		return
	}

	resp := make([]reviewResponse, 0, len(reviews))
	for _, rv := range reviews {
		resp = append(resp, reviewResponse{
			ReviewID:   rv.ID,
			ProductID:  rv.ProductID,
			CustomerID: rv.CustomerID,
			Rating:     rv.Rating,
			Comment:    rv.Comment,
			ReviewDate: rv.ReviewDate.Format(time.RFC3339),
			FirstName:  rv.CustomerFirstName,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type addReviewRequest struct {
	ProductID  int64  `json:"product_id"`
	CustomerID int64  `json:"customer_id"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

// AddReview добавляет отзыв о товаре.
func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request) {
	var req addReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !validation.IsValidRating(req.Rating) {
		writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	id, err := h.service.AddReview(r.Context(), model.Review{
		ProductID:  req.ProductID,
		CustomerID: req.CustomerID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		h.writeServiceError(w, err, "add review")
		return
	}

	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

type offerResponse struct {
	OfferID       int64   `json:"offer_id"`
	OfferTitle    string  `json:"offer_title"`
	DiscountValue float64 `json:"discount_value"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
}

// GetOffers возвращает действующие акции по убыванию размера скидки.
func (h *Handler) GetOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.service.ListOffers(r.Context(), time.Now())
	if err != nil {
		h.writeServiceError(w, err, "list offers")
		return
	}

	resp := make([]offerResponse, 0, len(offers))
	for _, o := range offers {
		resp = append(resp, offerResponse{
			OfferID:       o.ID,
			OfferTitle:    o.Title,
			DiscountValue: o.DiscountValue,
			StartDate:     o.StartDate.Format(time.RFC3339),
			EndDate:       o.EndDate.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
