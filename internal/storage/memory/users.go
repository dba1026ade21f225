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

type usersStorage struct {
	mu      sync.RWMutex
	users   map[string]*storage.User // key: id
	byEmail map[string]string        // email -> id

	profiles *healthProfilesStorage
	plans    *mealPlansStorage
}

func newUsersStorage(profiles *healthProfilesStorage, plans *mealPlansStorage) *usersStorage {
	return &usersStorage{
		users:    make(map[string]*storage.User),
		byEmail:  make(map[string]string),
		profiles: profiles,
		plans:    plans,
	}
}

func (s *usersStorage) CreateUser(ctx context.Context, user *storage.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, taken := s.byEmail[email]; taken {
		return storage.ErrConflict
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.Email = email
	user.CreatedAt = now
	user.UpdatedAt = now

	u := *user
	s.users[u.ID] = &u
	s.byEmail[email] = u.ID
	return nil
}

func (s *usersStorage) GetUser(ctx context.Context, id string) (*storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *usersStorage) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *s.users[id]
	return &out, nil
}

func (s *usersStorage) ListUsers(ctx context.Context, query string, limit, offset int) ([]storage.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	var results []storage.User
	for _, u := range s.users {
		if q != "" && !strings.Contains(u.Email, q) {
			continue
		}
		results = append(results, *u)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Email < results[j].Email
	})

	return paginate(results, limit, offset), len(results), nil
}

func (s *usersStorage) UpdateUserRole(ctx context.Context, id string, role string) (*storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now()
	out := *u
	return &out, nil
}

func (s *usersStorage) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	u, ok := s.users[id]
	if !ok {
		s.mu.Unlock()
		return storage.ErrNotFound
	}
	delete(s.byEmail, u.Email)
	delete(s.users, id)
	s.mu.Unlock()

	// Dependent rows live in their own stores with their own locks.
	if err := s.profiles.DeleteHealthProfile(ctx, id); err != nil {
		return err
	}
	return s.plans.DeleteMealPlan(ctx, id)
}

func (s *usersStorage) CountUsers(ctx context.Context) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	admins := 0
	for _, u := range s.users {
		if u.Role == storage.RoleAdmin {
			admins++
		}
	}
	return len(s.users), admins, nil
}
