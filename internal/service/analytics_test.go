package service

import (
	"context"
	"testing"
	"time"

	"github.com/vishwajitsarnobat/Nxtcomm/internal/model"
)

func TestComputeMonthlySales_ZeroOrders(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	summary, err := svc.ComputeMonthlySales(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("ComputeMonthlySales error: %v", err)
	}
	if summary.OrderCount != 0 {
		t.Fatalf("OrderCount = %d, want 0", summary.OrderCount)
	}
	if summary.TotalRevenue != 0 {
		t.Fatalf("TotalRevenue = %v, want 0", summary.TotalRevenue)
	}
	if summary.AverageOrderValue != 0 {
		t.Fatalf("AverageOrderValue = %v, want 0", summary.AverageOrderValue)
	}
}

func TestComputeMonthlySales_Average(t *testing.T) {
	repo := &stubRepo{
		salesCount:   4,
		salesRevenue: 100000, // 1000.00 в центах
	}
	svc := NewService(repo)

	summary, err := svc.ComputeMonthlySales(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("ComputeMonthlySales error: %v", err)
	}
	if summary.TotalRevenue != 1000 {
		t.Fatalf("TotalRevenue = %v, want 1000", summary.TotalRevenue)
	}
	if summary.AverageOrderValue != 250 {
		t.Fatalf("AverageOrderValue = %v, want 250", summary.AverageOrderValue)
	}
}

func TestTopProducts_LimitAndTieBreak(t *testing.T) {
	// Репозиторий отдаёт уже упорядоченный рейтинг: количество по убыванию,
	// при равенстве меньший идентификатор раньше.
	repo := &stubRepo{
		topProducts: []model.ProductRank{
			{ProductID: 1, Name: "A", OrderCount: 5},
			{ProductID: 2, Name: "B", OrderCount: 5},
			{ProductID: 3, Name: "C", OrderCount: 3},
			{ProductID: 4, Name: "D", OrderCount: 1},
		},
	}
	svc := NewService(repo)

	top, err := svc.TopProducts(context.Background(), 3)
	if err != nil {
		t.Fatalf("TopProducts error: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("len = %d, want 3", len(top))
	}
	want := []int64{1, 2, 3}
	for i, id := range want {
		if top[i].ProductID != id {
			t.Fatalf("top[%d].ProductID = %d, want %d", i, top[i].ProductID, id)
		}
	}
}

func TestTopProducts_NonPositiveN(t *testing.T) {
	repo := &stubRepo{
		topProducts: []model.ProductRank{{ProductID: 1, OrderCount: 5}},
	}
	svc := NewService(repo)

	top, err := svc.TopProducts(context.Background(), 0)
	if err != nil {
		t.Fatalf("TopProducts error: %v", err)
	}
	if len(top) != 0 {
		t.Fatalf("expected empty result for n=0, got %d", len(top))
	}
}

func TestAnalytics_AssemblesReport(t *testing.T) {
	repo := &stubRepo{
		salesCount:   2,
		salesRevenue: 5000,
		topProducts: []model.ProductRank{
			{ProductID: 1, Name: "A", OrderCount: 2},
		},
		growth: 3,
		lowStock: []model.Product{
			{ID: 9, Name: "scarce", StockQuantity: 1},
		},
	}
	svc := NewService(repo)

	report, err := svc.Analytics(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Analytics error: %v", err)
	}

	if report.Sales.OrderCount != 2 || report.Sales.TotalRevenue != 50 {
		t.Fatalf("unexpected sales summary: %+v", report.Sales)
	}
	if report.Sales.AverageOrderValue != 25 {
		t.Fatalf("AverageOrderValue = %v, want 25", report.Sales.AverageOrderValue)
	}
	if len(report.TopProducts) != 1 || report.TopProducts[0].ProductID != 1 {
		t.Fatalf("unexpected top products: %+v", report.TopProducts)
	}
	if report.CustomerGrowth.NewCustomers != 3 {
		t.Fatalf("NewCustomers = %d, want 3", report.CustomerGrowth.NewCustomers)
	}
	if len(report.LowStock) != 1 || report.LowStock[0].ID != 9 {
		t.Fatalf("unexpected low stock: %+v", report.LowStock)
	}
	if repo.lowStockThreshold != DefaultLowStockThreshold {
		t.Fatalf("low stock threshold = %d, want %d", repo.lowStockThreshold, DefaultLowStockThreshold)
	}
}

func TestAnalytics_PropagatesError(t *testing.T) {
	repo := &stubRepo{
		salesErr: context.DeadlineExceeded,
	}
	svc := NewService(repo)

	_, err := svc.Analytics(context.Background(), time.Now())
	if err == nil {
		t.Fatalf("expected error from failed aggregation")
	}
}
