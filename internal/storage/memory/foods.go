package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fdg312/diet-hub/internal/storage"
	"github.com/google/uuid"
)

type foodsStorage struct {
	mu    sync.RWMutex
	foods map[string]*storage.Food // key: id
	byKey map[string]string        // search key -> id
}

func newFoodsStorage() *foodsStorage {
	return &foodsStorage{
		foods: make(map[string]*storage.Food),
		byKey: make(map[string]string),
	}
}

func (s *foodsStorage) ListFoods(ctx context.Context, filter storage.FoodFilter) ([]storage.Food, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []storage.Food
	for _, f := range s.foods {
		if filter.Category != "" && f.Category != filter.Category {
			continue
		}
		if filter.Query != "" && !strings.Contains(f.SearchKey, filter.Query) {
			continue
		}
		if filter.MinKcal != nil && f.Calories < *filter.MinKcal {
			continue
		}
		if filter.MaxKcal != nil && f.Calories > *filter.MaxKcal {
			continue
		}
		results = append(results, *f)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].SearchKey != results[j].SearchKey {
			return results[i].SearchKey < results[j].SearchKey
		}
		return results[i].ID < results[j].ID
	})

	return paginate(results, filter.Limit, filter.Offset), len(results), nil
}

func (s *foodsStorage) GetFood(ctx context.Context, id string) (*storage.Food, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.foods[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *f
	return &out, nil
}

func (s *foodsStorage) CreateFood(ctx context.Context, food *storage.Food) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byKey[food.SearchKey]; taken {
		return storage.ErrConflict
	}
	if food.ID == "" {
		food.ID = uuid.New().String()
	}
	now := time.Now()
	food.CreatedAt = now
	food.UpdatedAt = now

	f := *food
	s.foods[f.ID] = &f
	s.byKey[f.SearchKey] = f.ID
	return nil
}

func (s *foodsStorage) UpdateFood(ctx context.Context, food *storage.Food) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.foods[food.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if owner, taken := s.byKey[food.SearchKey]; taken && owner != food.ID {
		return storage.ErrConflict
	}

	delete(s.byKey, existing.SearchKey)
	existing.Name = food.Name
	existing.SearchKey = food.SearchKey
	existing.Calories = food.Calories
	existing.Category = food.Category
	existing.UpdatedAt = time.Now()
	s.byKey[existing.SearchKey] = existing.ID

	*food = *existing
	return nil
}

func (s *foodsStorage) SetFoodImage(ctx context.Context, id string, key, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.foods[id]
	if !ok {
		return storage.ErrNotFound
	}
	f.ImageKey = &key
	f.ImageContentType = &contentType
	f.UpdatedAt = time.Now()
	return nil
}

func (s *foodsStorage) DeleteFood(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.foods[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(s.byKey, f.SearchKey)
	delete(s.foods, id)
	return nil
}

func (s *foodsStorage) CountFoods(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.foods), nil
}

func (s *foodsStorage) CountFoodsByCategory(ctx context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, f := range s.foods {
		counts[f.Category]++
	}
	return counts, nil
}
