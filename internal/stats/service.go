package stats

import (
	"context"
	"fmt"

	"github.com/fdg312/diet-hub/internal/diet"
	"github.com/fdg312/diet-hub/internal/storage"
	"golang.org/x/sync/errgroup"
)

// Dashboard is the admin overview.
type Dashboard struct {
	TotalUsers      int            `json:"total_users"`
	AdminUsers      int            `json:"admin_users"`
	RegularUsers    int            `json:"regular_users"`
	TotalFoods      int            `json:"total_foods"`
	FoodsByCategory map[string]int `json:"foods_by_category"`
}

// Service aggregates counts from the user and catalog stores.
type Service struct {
	users storage.UsersStorage
	foods storage.FoodsStorage
}

func NewService(users storage.UsersStorage, foods storage.FoodsStorage) *Service {
	return &Service{users: users, foods: foods}
}

// Dashboard runs the three count queries concurrently.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var (
		d          Dashboard
		byCategory map[string]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, admins, err := s.users.CountUsers(gctx)
		if err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		d.TotalUsers, d.AdminUsers = total, admins
		return nil
	})
	g.Go(func() error {
		total, err := s.foods.CountFoods(gctx)
		if err != nil {
			return fmt.Errorf("count foods: %w", err)
		}
		d.TotalFoods = total
		return nil
	})
	g.Go(func() error {
		counts, err := s.foods.CountFoodsByCategory(gctx)
		if err != nil {
			return fmt.Errorf("count foods by category: %w", err)
		}
		byCategory = counts
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d.RegularUsers = d.TotalUsers - d.AdminUsers
	// every slot is reported, including empty ones
	d.FoodsByCategory = make(map[string]int, len(diet.Slots))
	for _, slot := range diet.Slots {
		d.FoodsByCategory[string(slot)] = byCategory[string(slot)]
	}
	return d, nil
}
