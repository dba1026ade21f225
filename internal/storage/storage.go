package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound возвращается, когда запись не существует
	ErrNotFound = errors.New("not found")
	// ErrConflict возвращается при нарушении уникальности (email, имя блюда)
	ErrConflict = errors.New("already exists")
)

// Storage: корневой интерфейс хранилища: отдаёт доменные хранилища и
// закрывает соединение
type Storage interface {
	GetUsersStorage() UsersStorage
	GetFoodsStorage() FoodsStorage
	GetHealthProfilesStorage() HealthProfilesStorage
	GetMealPlansStorage() MealPlansStorage

	// Ping проверяет доступность бэкенда
	Ping(ctx context.Context) error

	// Close закрывает соединение (для Postgres и SQLite)
	Close() error
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User: учётная запись
type User struct {
	ID           string
	Email        string // всегда в нижнем регистре
	Name         string
	Role         string // "user" или "admin"
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UsersStorage: интерфейс для работы с пользователями
type UsersStorage interface {
	// CreateUser создаёт пользователя; ErrConflict если email занят
	CreateUser(ctx context.Context, user *User) error

	// GetUser возвращает пользователя по ID
	GetUser(ctx context.Context, id string) (*User, error)

	// GetUserByEmail возвращает пользователя по email
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// ListUsers возвращает пользователей, email которых содержит query, и общее число
	ListUsers(ctx context.Context, query string, limit, offset int) ([]User, int, error)

	// UpdateUserRole меняет роль пользователя
	UpdateUserRole(ctx context.Context, id string, role string) (*User, error)

	// DeleteUser удаляет пользователя вместе с профилем здоровья и планом питания
	DeleteUser(ctx context.Context, id string) error

	// CountUsers возвращает общее число пользователей и число администраторов
	CountUsers(ctx context.Context) (total int, admins int, err error)
}

// Food is a catalog entry.
type Food struct {
	ID               string
	Name             string
	SearchKey        string // folded name, unique across the catalog
	Calories         float64
	Category         string // breakfast|lunch|dinner|snack
	ImageKey         *string
	ImageContentType *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FoodFilter narrows ListFoods. Query must already be folded the same way
// as SearchKey. Limit 0 means no limit.
type FoodFilter struct {
	Category string
	Query    string
	MinKcal  *float64
	MaxKcal  *float64
	Limit    int
	Offset   int
}

// FoodsStorage manages the shared food catalog.
type FoodsStorage interface {
	// ListFoods returns matching foods ordered by name and the total match count
	ListFoods(ctx context.Context, filter FoodFilter) ([]Food, int, error)
	GetFood(ctx context.Context, id string) (*Food, error)
	// CreateFood returns ErrConflict when SearchKey is taken
	CreateFood(ctx context.Context, food *Food) error
	// UpdateFood replaces name, search key, calories and category
	UpdateFood(ctx context.Context, food *Food) error
	SetFoodImage(ctx context.Context, id string, key, contentType string) error
	DeleteFood(ctx context.Context, id string) error
	CountFoods(ctx context.Context) (int, error)
	CountFoodsByCategory(ctx context.Context) (map[string]int, error)
}

// HealthProfile holds the calculator inputs saved by a user.
type HealthProfile struct {
	OwnerUserID string
	Sex         string
	AgeYears    float64
	HeightCm    float64
	WeightKg    float64
	Activity    string
	Goal        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HealthProfilesStorage: один профиль здоровья на пользователя
type HealthProfilesStorage interface {
	// GetHealthProfile возвращает ErrNotFound, если профиль не сохранён
	GetHealthProfile(ctx context.Context, ownerUserID string) (*HealthProfile, error)
	// UpsertHealthProfile создаёт или обновляет профиль
	UpsertHealthProfile(ctx context.Context, profile *HealthProfile) error
	DeleteHealthProfile(ctx context.Context, ownerUserID string) error
}

// MealPlansStorage manages the single persisted meal plan of each user.
type MealPlansStorage interface {
	// GetMealPlan returns the plan with entries in slot/position order
	GetMealPlan(ctx context.Context, ownerUserID string) (MealPlan, []MealPlanEntry, bool, error)
	// ReplaceMealPlan atomically replaces plan header and entries
	ReplaceMealPlan(ctx context.Context, ownerUserID string, targetKcal float64, goal string, entries []MealPlanEntryUpsert) (MealPlan, []MealPlanEntry, error)
	// AddMealPlanEntry appends to an existing plan; ErrNotFound without one
	AddMealPlanEntry(ctx context.Context, ownerUserID string, entry MealPlanEntryUpsert) (MealPlanEntry, error)
	// DeleteMealPlanEntry removes one entry of the owner's plan
	DeleteMealPlanEntry(ctx context.Context, ownerUserID string, entryID string) error
	// DeleteMealPlan removes the plan and its entries
	DeleteMealPlan(ctx context.Context, ownerUserID string) error
}

type MealPlan struct {
	ID          string
	OwnerUserID string
	TargetKcal  float64
	Goal        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MealPlanEntry snapshots the food name and calories at the time it was
// added so later catalog edits do not rewrite a saved plan.
type MealPlanEntry struct {
	ID        string
	PlanID    string
	Slot      string
	FoodID    string
	FoodName  string
	Calories  float64
	Position  int
	CreatedAt time.Time
}

type MealPlanEntryUpsert struct {
	Slot     string
	FoodID   string
	FoodName string
	Calories float64
}

var slotRanks = map[string]int{"breakfast": 0, "lunch": 1, "dinner": 2, "snack": 3}

// SlotRank orders meal slots breakfast, lunch, dinner, snack. Unknown slots sort last.
func SlotRank(slot string) int {
	if r, ok := slotRanks[slot]; ok {
		return r
	}
	return len(slotRanks)
}
