package stats

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fdg312/diet-hub/internal/storage"
	"github.com/fdg312/diet-hub/internal/storage/memory"
)

func TestDashboard(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	for _, u := range []storage.User{
		{Email: "a@example.com", Role: storage.RoleAdmin},
		{Email: "b@example.com", Role: storage.RoleUser},
		{Email: "c@example.com", Role: storage.RoleUser},
	} {
		u := u
		if err := store.GetUsersStorage().CreateUser(ctx, &u); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range []storage.Food{
		{Name: "Oats", SearchKey: "oats", Calories: 350, Category: "breakfast"},
		{Name: "Eggs", SearchKey: "eggs", Calories: 250, Category: "breakfast"},
		{Name: "Soup", SearchKey: "soup", Calories: 300, Category: "dinner"},
	} {
		f := f
		if err := store.GetFoodsStorage().CreateFood(ctx, &f); err != nil {
			t.Fatal(err)
		}
	}

	rr := httptest.NewRecorder()
	NewHandler(NewService(store.GetUsersStorage(), store.GetFoodsStorage())).
		HandleDashboard(rr, httptest.NewRequest(http.MethodGet, "/v1/admin/stats", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var d Dashboard
	if err := json.NewDecoder(rr.Body).Decode(&d); err != nil {
		t.Fatal(err)
	}
	if d.TotalUsers != 3 || d.AdminUsers != 1 || d.RegularUsers != 2 {
		t.Errorf("unexpected user counts %+v", d)
	}
	if d.TotalFoods != 3 {
		t.Errorf("expected 3 foods, got %d", d.TotalFoods)
	}
	want := map[string]int{"breakfast": 2, "lunch": 0, "dinner": 1, "snack": 0}
	for k, v := range want {
		got, ok := d.FoodsByCategory[k]
		if !ok || got != v {
			t.Errorf("foods_by_category[%s] = %d (present=%v), want %d", k, got, ok, v)
		}
	}
}

type failingFoods struct {
	storage.FoodsStorage
}

func (failingFoods) CountFoods(ctx context.Context) (int, error) {
	return 0, errors.New("boom")
}

func (failingFoods) CountFoodsByCategory(ctx context.Context) (map[string]int, error) {
	return map[string]int{}, nil
}

func TestDashboardPropagatesErrors(t *testing.T) {
	store := memory.New()
	service := NewService(store.GetUsersStorage(), failingFoods{})

	if _, err := service.Dashboard(context.Background()); err == nil {
		t.Fatal("expected error from failing store")
	}

	rr := httptest.NewRecorder()
	NewHandler(service).HandleDashboard(rr, httptest.NewRequest(http.MethodGet, "/v1/admin/stats", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}
