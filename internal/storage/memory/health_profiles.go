package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fdg312/diet-hub/internal/storage"
)

type healthProfilesStorage struct {
	mu       sync.RWMutex
	profiles map[string]storage.HealthProfile // key: owner user id
}

func newHealthProfilesStorage() *healthProfilesStorage {
	return &healthProfilesStorage{
		profiles: make(map[string]storage.HealthProfile),
	}
}

func (s *healthProfilesStorage) GetHealthProfile(ctx context.Context, ownerUserID string) (*storage.HealthProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[ownerUserID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &p, nil
}

func (s *healthProfilesStorage) UpsertHealthProfile(ctx context.Context, profile *storage.HealthProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.profiles[profile.OwnerUserID]; ok {
		profile.CreatedAt = existing.CreatedAt
	} else {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	s.profiles[profile.OwnerUserID] = *profile
	return nil
}

func (s *healthProfilesStorage) DeleteHealthProfile(ctx context.Context, ownerUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.profiles, ownerUserID)
	return nil
}
