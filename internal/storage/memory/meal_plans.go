package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/diet-hub/internal/storage"
	"github.com/google/uuid"
)

type mealPlansStorage struct {
	mu      sync.RWMutex
	plans   map[string]*storage.MealPlan       // key: owner user id
	entries map[string][]storage.MealPlanEntry // key: plan id
}

func newMealPlansStorage() *mealPlansStorage {
	return &mealPlansStorage{
		plans:   make(map[string]*storage.MealPlan),
		entries: make(map[string][]storage.MealPlanEntry),
	}
}

func (s *mealPlansStorage) GetMealPlan(ctx context.Context, ownerUserID string) (storage.MealPlan, []storage.MealPlanEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, ok := s.plans[ownerUserID]
	if !ok {
		return storage.MealPlan{}, nil, false, nil
	}
	return *plan, s.sortedEntriesLocked(plan.ID), true, nil
}

func (s *mealPlansStorage) ReplaceMealPlan(ctx context.Context, ownerUserID string, targetKcal float64, goal string, upserts []storage.MealPlanEntryUpsert) (storage.MealPlan, []storage.MealPlanEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	plan := &storage.MealPlan{
		ID:          uuid.New().String(),
		OwnerUserID: ownerUserID,
		TargetKcal:  targetKcal,
		Goal:        goal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if old, ok := s.plans[ownerUserID]; ok {
		plan.CreatedAt = old.CreatedAt
		delete(s.entries, old.ID)
	}
	s.plans[ownerUserID] = plan

	for _, u := range upserts {
		s.appendLocked(plan.ID, u, now)
	}

	return *plan, s.sortedEntriesLocked(plan.ID), nil
}

func (s *mealPlansStorage) AddMealPlanEntry(ctx context.Context, ownerUserID string, upsert storage.MealPlanEntryUpsert) (storage.MealPlanEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, ok := s.plans[ownerUserID]
	if !ok {
		return storage.MealPlanEntry{}, storage.ErrNotFound
	}
	now := time.Now()
	plan.UpdatedAt = now
	return s.appendLocked(plan.ID, upsert, now), nil
}

func (s *mealPlansStorage) DeleteMealPlanEntry(ctx context.Context, ownerUserID string, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, ok := s.plans[ownerUserID]
	if !ok {
		return storage.ErrNotFound
	}
	entries := s.entries[plan.ID]
	for i, e := range entries {
		if e.ID == entryID {
			s.entries[plan.ID] = append(entries[:i:i], entries[i+1:]...)
			plan.UpdatedAt = time.Now()
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *mealPlansStorage) DeleteMealPlan(ctx context.Context, ownerUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, ok := s.plans[ownerUserID]
	if !ok {
		return nil // nothing to delete
	}
	delete(s.entries, plan.ID)
	delete(s.plans, ownerUserID)
	return nil
}

// Helper methods (must be called with lock held)
func (s *mealPlansStorage) appendLocked(planID string, u storage.MealPlanEntryUpsert, now time.Time) storage.MealPlanEntry {
	position := 0
	for _, e := range s.entries[planID] {
		if e.Slot == u.Slot && e.Position >= position {
			position = e.Position + 1
		}
	}
	entry := storage.MealPlanEntry{
		ID:        uuid.New().String(),
		PlanID:    planID,
		Slot:      u.Slot,
		FoodID:    u.FoodID,
		FoodName:  u.FoodName,
		Calories:  u.Calories,
		Position:  position,
		CreatedAt: now,
	}
	s.entries[planID] = append(s.entries[planID], entry)
	return entry
}

func (s *mealPlansStorage) sortedEntriesLocked(planID string) []storage.MealPlanEntry {
	out := append([]storage.MealPlanEntry{}, s.entries[planID]...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := storage.SlotRank(out[i].Slot), storage.SlotRank(out[j].Slot)
		if ri != rj {
			return ri < rj
		}
		return out[i].Position < out[j].Position
	})
	return out
}
