package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/foodpick-ng/backend/internal/order"
	"github.com/foodpick-ng/backend/internal/pricing"
)

// OrderSource yields the order history analytics aggregates over.
type OrderSource interface {
	List(ctx context.Context) ([]order.Order, error)
}

// Revenue summarizes order revenue over a window.
type Revenue struct {
	From    time.Time     `json:"from"`
	To      time.Time     `json:"to"`
	Orders  int           `json:"orders"`
	Revenue pricing.Money `json:"revenue"`
}

// CategoryRank is one entry of the top-categories leaderboard.
type CategoryRank struct {
	Category string `json:"category"`
	Units    int    `json:"units"`
}

// DailyPoint is one day of the sales chart.
type DailyPoint struct {
	Date    string        `json:"date"`
	Orders  int           `json:"orders"`
	Revenue pricing.Money `json:"revenue"`
}

// Service provides cached aggregates over order history.
type Service struct {
	Orders OrderSource
	R      *redis.Client
	TTL    time.Duration
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts)+1)
	formatted = append(formatted, "fp:an")
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// RevenueInRange sums order totals for orders created in [from, to).
func (s *Service) RevenueInRange(ctx context.Context, from, to time.Time) (Revenue, error) {
	if s == nil || s.Orders == nil {
		return Revenue{}, fmt.Errorf("analytics service not configured")
	}
	key := cacheKey("rev", from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached Revenue
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	orders, err := s.Orders.List(ctx)
	if err != nil {
		return Revenue{}, err
	}
	out := Revenue{From: from, To: to}
	for _, o := range orders {
		if o.CreatedAt.Before(from) || !o.CreatedAt.Before(to) {
			continue
		}
		out.Orders++
		out.Revenue += o.Total
	}
	s.store(ctx, key, out)
	return out, nil
}

// TopCategories ranks menu categories by units sold across all orders.
func (s *Service) TopCategories(ctx context.Context, limit int) ([]CategoryRank, error) {
	if s == nil || s.Orders == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	if limit <= 0 {
		limit = 5
	}
	key := cacheKey("top", limit)
	var cached []CategoryRank
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	orders, err := s.Orders.List(ctx)
	if err != nil {
		return nil, err
	}
	units := map[string]int{}
	for _, o := range orders {
		for _, l := range o.Lines {
			units[l.MenuItem.Category] += l.Quantity
		}
	}
	ranks := make([]CategoryRank, 0, len(units))
	for category, n := range units {
		ranks = append(ranks, CategoryRank{Category: category, Units: n})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Units != ranks[j].Units {
			return ranks[i].Units > ranks[j].Units
		}
		return ranks[i].Category < ranks[j].Category
	})
	if len(ranks) > limit {
		ranks = ranks[:limit]
	}
	s.store(ctx, key, ranks)
	return ranks, nil
}

// DailySeries returns per-day order counts and revenue for the trailing
// window, oldest day first. Days without orders appear with zeros so the
// chart has no gaps.
func (s *Service) DailySeries(ctx context.Context, days int) ([]DailyPoint, error) {
	if s == nil || s.Orders == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	if days <= 0 {
		days = 7
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	key := cacheKey("daily", days, today.Format("2006-01-02"))
	var cached []DailyPoint
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	orders, err := s.Orders.List(ctx)
	if err != nil {
		return nil, err
	}
	byDay := map[string]*DailyPoint{}
	series := make([]DailyPoint, days)
	for i := 0; i < days; i++ {
		date := today.AddDate(0, 0, i-days+1).Format("2006-01-02")
		series[i] = DailyPoint{Date: date}
		byDay[date] = &series[i]
	}
	for _, o := range orders {
		point, ok := byDay[o.CreatedAt.UTC().Format("2006-01-02")]
		if !ok {
			continue
		}
		point.Orders++
		point.Revenue += o.Total
	}
	s.store(ctx, key, series)
	return series, nil
}

func (s *Service) fromCache(ctx context.Context, key string, dst any) bool {
	if s.R == nil || s.TTL <= 0 {
		return false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}
