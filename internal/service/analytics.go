package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vishwajitsarnobat/Nxtcomm/internal/model"
)

// topProductsLimit — размер рейтинга товаров в аналитическом отчёте.
const topProductsLimit = 5

// ComputeMonthlySales считает свод продаж за календарный месяц опорной даты.
// При отсутствии заказов возвращается нулевой свод без деления на ноль.
func (s *Service) ComputeMonthlySales(ctx context.Context, ref time.Time) (*model.SalesSummary, error) {
	orderCount, revenueCents, err := s.repo.MonthlySales(ctx, ref)
	if err != nil {
		return nil, err
	}

	summary := &model.SalesSummary{
		OrderCount:   orderCount,
		TotalRevenue: float64(revenueCents) / 100,
	}
	if orderCount > 0 {
		summary.AverageOrderValue = summary.TotalRevenue / float64(orderCount)
	}

	return summary, nil
}

// TopProducts возвращает не более n товаров по убыванию числа заказов.
func (s *Service) TopProducts(ctx context.Context, n int) ([]model.ProductRank, error) {
	if n <= 0 {
		return []model.ProductRank{}, nil
	}
	return s.repo.TopProducts(ctx, n)
}

// CustomerGrowth считает покупателей, зарегистрированных в календарный месяц
// опорной даты.
func (s *Service) CustomerGrowth(ctx context.Context, ref time.Time) (int64, error) {
	return s.repo.CustomerGrowth(ctx, ref)
}

// Analytics собирает аналитический отчёт административной панели.
// Четыре среза независимы и читаются параллельно.
func (s *Service) Analytics(ctx context.Context, ref time.Time) (*model.AnalyticsReport, error) {
	var report model.AnalyticsReport

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sales, err := s.ComputeMonthlySales(ctx, ref)
		if err != nil {
			return err
		}
		report.Sales = *sales
		return nil
	})

	g.Go(func() error {
		top, err := s.TopProducts(ctx, topProductsLimit)
		if err != nil {
			return err
		}
		report.TopProducts = top
		return nil
	})

	g.Go(func() error {
		growth, err := s.CustomerGrowth(ctx, ref)
		if err != nil {
			return err
		}
		report.CustomerGrowth = model.CustomerGrowth{NewCustomers: growth}
		return nil
	})

	g.Go(func() error {
		low, err := s.ListLowStock(ctx, DefaultLowStockThreshold)
		if err != nil {
			return err
		}
		report.LowStock = low
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &report, nil
}
