package memory

import (
	"context"

	"github.com/fdg312/diet-hub/internal/storage"
)

// MemoryStorage: in-memory реализация storage.Storage
type MemoryStorage struct {
	users     *usersStorage
	foods     *foodsStorage
	profiles  *healthProfilesStorage
	mealPlans *mealPlansStorage
}

// New создаёт пустой MemoryStorage
func New() *MemoryStorage {
	profiles := newHealthProfilesStorage()
	plans := newMealPlansStorage()
	return &MemoryStorage{
		users:     newUsersStorage(profiles, plans),
		foods:     newFoodsStorage(),
		profiles:  profiles,
		mealPlans: plans,
	}
}

func (m *MemoryStorage) GetUsersStorage() storage.UsersStorage {
	return m.users
}

func (m *MemoryStorage) GetFoodsStorage() storage.FoodsStorage {
	return m.foods
}

func (m *MemoryStorage) GetHealthProfilesStorage() storage.HealthProfilesStorage {
	return m.profiles
}

func (m *MemoryStorage) GetMealPlansStorage() storage.MealPlansStorage {
	return m.mealPlans
}

func (m *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

// paginate slices results the way LIMIT/OFFSET would. limit 0 means no limit.
func paginate[T any](results []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(results) {
		return []T{}
	}
	end := len(results)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return results[offset:end]
}
