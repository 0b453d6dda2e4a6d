package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vishwajitsarnobat/Nxtcomm/internal/model"
	"github.com/vishwajitsarnobat/Nxtcomm/internal/repository"
	"github.com/vishwajitsarnobat/Nxtcomm/internal/service"
)

type stubService struct {
	transitionOrder *model.OrderWithCustomer
	transitionErr   error

	orders    []model.OrderWithCustomer
	ordersErr error

	inventory    []model.InventoryItem
	inventoryErr error

	stockLevel *model.StockLevel
	stockErr   error

	transactions    []model.TransactionSummary
	transactionsErr error

	employees        []model.Employee
	employeesErr     error
	createEmployeeID int64
	employeeErr      error

	warehouses        []model.WarehouseWithManager
	warehousesErr     error
	createWarehouseID int64
	warehouseErr      error
	warehouseCalls    int

	report    *model.AnalyticsReport
	reportErr error

	products    []model.ProductWithOffer
	productsErr error

	reviews     []model.ReviewWithCustomer
	reviewsErr  error
	addReviewID int64
	reviewErr   error

	offers    []model.Offer
	offersErr error
}

func (s *stubService) TransitionOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus) (*model.OrderWithCustomer, error) {
	return s.transitionOrder, s.transitionErr
}

func (s *stubService) ListOrders(ctx context.Context) ([]model.OrderWithCustomer, error) {
	return s.orders, s.ordersErr
}

func (s *stubService) ListInventory(ctx context.Context) ([]model.InventoryItem, error) {
	return s.inventory, s.inventoryErr
}

func (s *stubService) CheckStock(ctx context.Context, productID int64) (*model.StockLevel, error) {
	return s.stockLevel, s.stockErr
}

func (s *stubService) DailyTransactions(ctx context.Context, day time.Time) ([]model.TransactionSummary, error) {
	return s.transactions, s.transactionsErr
}

func (s *stubService) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	return s.employees, s.employeesErr
}

func (s *stubService) CreateEmployee(ctx context.Context, e model.Employee) (int64, error) {
	return s.createEmployeeID, s.employeeErr
}

func (s *stubService) ListWarehouses(ctx context.Context) ([]model.WarehouseWithManager, error) {
	return s.warehouses, s.warehousesErr
}

func (s *stubService) CreateWarehouse(ctx context.Context, w model.Warehouse) (int64, error) {
	s.warehouseCalls++
	return s.createWarehouseID, s.warehouseErr
}

func (s *stubService) Analytics(ctx context.Context, ref time.Time) (*model.AnalyticsReport, error) {
	return s.report, s.reportErr
}

func (s *stubService) ListProducts(ctx context.Context) ([]model.ProductWithOffer, error) {
	return s.products, s.productsErr
}

func (s *stubService) ListReviews(ctx context.Context, productID int64) ([]model.ReviewWithCustomer, error) {
	return s.reviews, s.reviewsErr
}

func (s *stubService) AddReview(ctx context.Context, rv model.Review) (int64, error) {
	return s.addReviewID, s.reviewErr
}

func (s *stubService) ListOffers(ctx context.Context, now time.Time) ([]model.Offer, error) {
	return s.offers, s.offersErr
}

func newTestRouter(t *testing.T, svc Service) http.Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	return NewHandler(svc, logger).SetupRouter("*")
}

func doRequest(t *testing.T, router http.Handler, method, path string, body []byte) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec.Result()
}

func TestUpdateOrderStatus_Success(t *testing.T) {
	svc := &stubService{
		transitionOrder: &model.OrderWithCustomer{
			Order: model.Order{
				ID:          5,
				CustomerID:  1,
				ProductID:   2,
				OrderDate:   time.Now(),
				TotalAmount: 99.5,
				Status:      model.OrderStatusInDelivery,
			},
			CustomerFirstName: "Anna",
			CustomerLastName:  "Ivanova",
			CustomerPhone:     "+70000000000",
		},
	}
	router := newTestRouter(t, svc)

	body, _ := json.Marshal(updateOrderRequest{Status: "in_delivery"})
	res := doRequest(t, router, http.MethodPut, "/api/employee-home/orders/5", body)
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var resp orderResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.OrderID != 5 || resp.Status != "in_delivery" || resp.FirstName != "Anna" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestUpdateOrderStatus_InvalidStatus(t *testing.T) {
	svc := &stubService{
		transitionErr: service.ErrInvalidStatus,
	}
	router := newTestRouter(t, svc)

	body := []byte(`{"status":"shipped"}`)
	res := doRequest(t, router, http.MethodPut, "/api/employee-home/orders/5", body)
	defer res.Body.Close()

	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}

	var resp errorResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == "" {
		t.Fatalf("expected error message in body")
	}
}

func TestUpdateOrderStatus_NotFound(t *testing.T) {
	svc := &stubService{
		transitionErr: repository.ErrOrderNotFound,
	}
	router := newTestRouter(t, svc)

	body := []byte(`{"status":"pending"}`)
	res := doRequest(t, router, http.MethodPut, "/api/employee-home/orders/404", body)
	defer res.Body.Close()

	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func TestUpdateOrderStatus_BadOrderID(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(t, svc)

	body := []byte(`{"status":"pending"}`)
	res := doRequest(t, router, http.MethodPut, "/api/employee-home/orders/abc", body)
	defer res.Body.Close()

	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestGetOrders_EmptyArray(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(t, svc)

	res := doRequest(t, router, http.MethodGet, "/api/employee-home/orders", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(res.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Fatalf("body = %q, want []", got)
	}
}

func TestCreateWarehouse_NonIntegerCapacity(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(t, svc)

	body := []byte(`{"capacity":3.5,"rent":1000,"manager_id":1}`)
	res := doRequest(t, router, http.MethodPost, "/api/admin-home/warehouses", body)
	defer res.Body.Close()

	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	if svc.warehouseCalls != 0 {
		t.Fatalf("service must not be called for non-integer capacity")
	}
}

func TestCreateWarehouse_Success(t *testing.T) {
	svc := &stubService{
		createWarehouseID: 12,
	}
	router := newTestRouter(t, svc)

	body := []byte(`{"capacity":100,"rent":2500.50,"manager_id":3}`)
	res := doRequest(t, router, http.MethodPost, "/api/admin-home/warehouses", body)
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusCreated)
	}

	var resp createdResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != 12 {
		t.Fatalf("ID = %d, want 12", resp.ID)
	}
}

func TestCreateWarehouse_ManagerNotFound(t *testing.T) {
	svc := &stubService{
		warehouseErr: repository.ErrEmployeeNotFound,
	}
	router := newTestRouter(t, svc)

	body := []byte(`{"capacity":100,"rent":2500,"manager_id":999}`)
	res := doRequest(t, router, http.MethodPost, "/api/admin-home/warehouses", body)
	defer res.Body.Close()

	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func TestGetAnalytics_JSONShape(t *testing.T) {
	svc := &stubService{
		report: &model.AnalyticsReport{
			Sales: model.SalesSummary{
				OrderCount:        4,
				TotalRevenue:      1000,
				AverageOrderValue: 250,
			},
			TopProducts: []model.ProductRank{
				{ProductID: 1, Name: "A", Price: 10, OrderCount: 5},
			},
			CustomerGrowth: model.CustomerGrowth{NewCustomers: 7},
			LowStock: []model.Product{
				{ID: 2, Name: "B", StockQuantity: 3},
			},
		},
	}
	router := newTestRouter(t, svc)

	res := doRequest(t, router, http.MethodGet, "/api/admin-home/analytics", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var resp struct {
		Sales          model.SalesSummary    `json:"sales"`
		TopProducts    []productRankResponse `json:"topProducts"`
		CustomerGrowth model.CustomerGrowth  `json:"customerGrowth"`
		LowStock       []lowStockResponse    `json:"lowStock"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Sales.OrderCount != 4 || resp.Sales.AverageOrderValue != 250 {
		t.Fatalf("unexpected sales: %+v", resp.Sales)
	}
	if len(resp.TopProducts) != 1 || resp.TopProducts[0].ProductID != 1 {
		t.Fatalf("unexpected top products: %+v", resp.TopProducts)
	}
	if resp.CustomerGrowth.NewCustomers != 7 {
		t.Fatalf("NewCustomers = %d, want 7", resp.CustomerGrowth.NewCustomers)
	}
	if len(resp.LowStock) != 1 || resp.LowStock[0].StockQuantity != 3 {
		t.Fatalf("unexpected low stock: %+v", resp.LowStock)
	}
}

func TestAddReview_InvalidRating(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(t, svc)

	body := []byte(`{"product_id":1,"customer_id":2,"rating":6,"comment":"great"}`)
	res := doRequest(t, router, http.MethodPost, "/api/user-home/reviews", body)
	defer res.Body.Close()

	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestGetStock_Success(t *testing.T) {
	svc := &stubService{
		stockLevel: &model.StockLevel{ProductID: 3, Name: "widget", StockQuantity: 4, Low: true},
	}
	router := newTestRouter(t, svc)

	res := doRequest(t, router, http.MethodGet, "/api/employee-home/inventory/3", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var resp stockLevelResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ProductID != 3 || !resp.Low {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestGetStock_NotFound(t *testing.T) {
	svc := &stubService{
		stockErr: repository.ErrProductNotFound,
	}
	router := newTestRouter(t, svc)

	res := doRequest(t, router, http.MethodGet, "/api/employee-home/inventory/77", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func TestGetOffers_Success(t *testing.T) {
	now := time.Now().UTC()
	svc := &stubService{
		offers: []model.Offer{
			{ID: 1, Title: "spring sale", DiscountValue: 30, StartDate: now, EndDate: now.Add(24 * time.Hour)},
		},
	}
	router := newTestRouter(t, svc)

	res := doRequest(t, router, http.MethodGet, "/api/user-home/offers", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q, want application/json", ct)
	}

	var resp []offerResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].OfferTitle != "spring sale" {
		t.Fatalf("unexpected offers: %+v", resp)
	}
}

func TestInternalErrorNotLeaked(t *testing.T) {
	svc := &stubService{
		ordersErr: context.DeadlineExceeded,
	}
	router := newTestRouter(t, svc)

	res := doRequest(t, router, http.MethodGet, "/api/employee-home/orders", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusInternalServerError)
	}

	var resp errorResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "internal server error" {
		t.Fatalf("error = %q, internals must not leak", resp.Error)
	}
}
