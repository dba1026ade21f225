// Package storagetest runs the same behavioural checks against every
// storage.Storage implementation.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/fdg312/diet-hub/internal/storage"
)

// Run exercises store. newStore must return an empty storage.
func Run(t *testing.T, newStore func(t *testing.T) storage.Storage) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("foods", func(t *testing.T) { testFoods(t, newStore(t)) })
	t.Run("health_profiles", func(t *testing.T) { testHealthProfiles(t, newStore(t)) })
	t.Run("meal_plans", func(t *testing.T) { testMealPlans(t, newStore(t)) })
	t.Run("delete_user_cascades", func(t *testing.T) { testDeleteUserCascades(t, newStore(t)) })
}

func testUsers(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	users := s.GetUsersStorage()

	u := &storage.User{Email: "Chef@Example.com", Name: "Chef", Role: storage.RoleAdmin, PasswordHash: "h"}
	if err := users.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" || u.Email != "chef@example.com" {
		t.Fatalf("expected id and lower-cased email, got %+v", u)
	}

	dup := &storage.User{Email: "chef@example.com", Role: storage.RoleUser, PasswordHash: "h"}
	if err := users.CreateUser(ctx, dup); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate email, got %v", err)
	}

	for _, email := range []string{"ann@example.com", "bob@test.org"} {
		if err := users.CreateUser(ctx, &storage.User{Email: email, Role: storage.RoleUser, PasswordHash: "h"}); err != nil {
			t.Fatalf("CreateUser(%s): %v", email, err)
		}
	}

	got, err := users.GetUserByEmail(ctx, "CHEF@example.com")
	if err != nil || got.ID != u.ID {
		t.Fatalf("GetUserByEmail: %+v, %v", got, err)
	}

	list, total, err := users.ListUsers(ctx, "example", 10, 0)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if total != 2 || len(list) != 2 || list[0].Email != "ann@example.com" {
		t.Fatalf("expected ann and chef ordered by email, got total=%d %+v", total, list)
	}

	page, total, err := users.ListUsers(ctx, "", 1, 1)
	if err != nil || total != 3 || len(page) != 1 || page[0].Email != "bob@test.org" {
		t.Fatalf("expected second page [bob], got total=%d %+v err=%v", total, page, err)
	}

	updated, err := users.UpdateUserRole(ctx, list[0].ID, storage.RoleAdmin)
	if err != nil || updated.Role != storage.RoleAdmin {
		t.Fatalf("UpdateUserRole: %+v, %v", updated, err)
	}

	totalUsers, admins, err := users.CountUsers(ctx)
	if err != nil || totalUsers != 3 || admins != 2 {
		t.Fatalf("CountUsers: total=%d admins=%d err=%v", totalUsers, admins, err)
	}

	if _, err := users.GetUser(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := users.UpdateUserRole(ctx, "missing", storage.RoleUser); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on role update, got %v", err)
	}
}

func float(v float64) *float64 { return &v }

func testFoods(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	foods := s.GetFoodsStorage()

	seed := []storage.Food{
		{Name: "Crème brûlée", SearchKey: "creme brulee", Calories: 350, Category: "snack"},
		{Name: "Oatmeal", SearchKey: "oatmeal", Calories: 300, Category: "breakfast"},
		{Name: "Omelette", SearchKey: "omelette", Calories: 250, Category: "breakfast"},
		{Name: "Salmon", SearchKey: "salmon", Calories: 500, Category: "dinner"},
	}
	ids := map[string]string{}
	for i := range seed {
		if err := foods.CreateFood(ctx, &seed[i]); err != nil {
			t.Fatalf("CreateFood(%s): %v", seed[i].Name, err)
		}
		ids[seed[i].SearchKey] = seed[i].ID
	}

	if err := foods.CreateFood(ctx, &storage.Food{Name: "OATMEAL", SearchKey: "oatmeal", Calories: 1, Category: "breakfast"}); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate search key, got %v", err)
	}

	list, total, err := foods.ListFoods(ctx, storage.FoodFilter{})
	if err != nil || total != 4 || len(list) != 4 || list[0].Name != "Crème brûlée" {
		t.Fatalf("expected all foods ordered by key, got total=%d %+v err=%v", total, list, err)
	}

	list, total, err = foods.ListFoods(ctx, storage.FoodFilter{Category: "breakfast", MaxKcal: float(280)})
	if err != nil || total != 1 || list[0].Name != "Omelette" {
		t.Fatalf("expected [Omelette], got total=%d %+v err=%v", total, list, err)
	}

	list, _, err = foods.ListFoods(ctx, storage.FoodFilter{Query: "brul"})
	if err != nil || len(list) != 1 || list[0].ID != ids["creme brulee"] {
		t.Fatalf("expected query match on search key, got %+v err=%v", list, err)
	}

	list, total, err = foods.ListFoods(ctx, storage.FoodFilter{MinKcal: float(300), Limit: 1, Offset: 1})
	if err != nil || total != 3 || len(list) != 1 || list[0].Name != "Oatmeal" {
		t.Fatalf("expected page [Oatmeal] of 3, got total=%d %+v err=%v", total, list, err)
	}

	upd := &storage.Food{ID: ids["salmon"], Name: "Grilled salmon", SearchKey: "grilled salmon", Calories: 520, Category: "dinner"}
	if err := foods.UpdateFood(ctx, upd); err != nil {
		t.Fatalf("UpdateFood: %v", err)
	}
	if upd.Calories != 520 || upd.CreatedAt.IsZero() {
		t.Fatalf("expected refreshed record, got %+v", upd)
	}

	clash := &storage.Food{ID: ids["salmon"], Name: "Oatmeal", SearchKey: "oatmeal", Calories: 1, Category: "dinner"}
	if err := foods.UpdateFood(ctx, clash); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict on rename clash, got %v", err)
	}

	if err := foods.SetFoodImage(ctx, ids["oatmeal"], "foods/"+ids["oatmeal"], "image/png"); err != nil {
		t.Fatalf("SetFoodImage: %v", err)
	}
	f, err := foods.GetFood(ctx, ids["oatmeal"])
	if err != nil || f.ImageKey == nil || *f.ImageContentType != "image/png" {
		t.Fatalf("expected image metadata, got %+v err=%v", f, err)
	}

	counts, err := foods.CountFoodsByCategory(ctx)
	if err != nil || counts["breakfast"] != 2 || counts["dinner"] != 1 || counts["lunch"] != 0 {
		t.Fatalf("unexpected category counts %v err=%v", counts, err)
	}

	if err := foods.DeleteFood(ctx, ids["omelette"]); err != nil {
		t.Fatalf("DeleteFood: %v", err)
	}
	if err := foods.DeleteFood(ctx, ids["omelette"]); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if n, err := foods.CountFoods(ctx); err != nil || n != 3 {
		t.Fatalf("expected 3 foods, got %d err=%v", n, err)
	}
}

func testHealthProfiles(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	profiles := s.GetHealthProfilesStorage()

	if _, err := profiles.GetHealthProfile(ctx, "u1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	p := &storage.HealthProfile{OwnerUserID: "u1", Sex: "male", AgeYears: 30, HeightCm: 170, WeightKg: 70, Activity: "moderate", Goal: "lose"}
	if err := profiles.UpsertHealthProfile(ctx, p); err != nil {
		t.Fatalf("UpsertHealthProfile: %v", err)
	}

	p.WeightKg = 68
	if err := profiles.UpsertHealthProfile(ctx, p); err != nil {
		t.Fatalf("UpsertHealthProfile (update): %v", err)
	}

	got, err := profiles.GetHealthProfile(ctx, "u1")
	if err != nil || got.WeightKg != 68 || got.Goal != "lose" {
		t.Fatalf("unexpected profile %+v err=%v", got, err)
	}
}

func testMealPlans(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	plans := s.GetMealPlansStorage()

	if _, _, ok, err := plans.GetMealPlan(ctx, "u1"); ok || err != nil {
		t.Fatalf("expected no plan, got ok=%v err=%v", ok, err)
	}
	if _, err := plans.AddMealPlanEntry(ctx, "u1", storage.MealPlanEntryUpsert{Slot: "snack", FoodID: "f", FoodName: "Apple", Calories: 95}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound without a plan, got %v", err)
	}

	_, entries, err := plans.ReplaceMealPlan(ctx, "u1", 2000, "lose", []storage.MealPlanEntryUpsert{
		{Slot: "snack", FoodID: "s1", FoodName: "Apple", Calories: 95},
		{Slot: "breakfast", FoodID: "b1", FoodName: "Oatmeal", Calories: 300},
		{Slot: "breakfast", FoodID: "b2", FoodName: "Eggs", Calories: 250},
	})
	if err != nil {
		t.Fatalf("ReplaceMealPlan: %v", err)
	}
	if len(entries) != 3 || entries[0].FoodName != "Oatmeal" || entries[1].FoodName != "Eggs" || entries[2].Slot != "snack" {
		t.Fatalf("expected slot/position order, got %+v", entries)
	}

	added, err := plans.AddMealPlanEntry(ctx, "u1", storage.MealPlanEntryUpsert{Slot: "breakfast", FoodID: "b3", FoodName: "Toast", Calories: 180})
	if err != nil || added.Position != 2 {
		t.Fatalf("expected position 2, got %+v err=%v", added, err)
	}

	if err := plans.DeleteMealPlanEntry(ctx, "someone-else", added.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign entry, got %v", err)
	}
	if err := plans.DeleteMealPlanEntry(ctx, "u1", entries[0].ID); err != nil {
		t.Fatalf("DeleteMealPlanEntry: %v", err)
	}

	plan, entries, ok, err := plans.GetMealPlan(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("GetMealPlan: ok=%v err=%v", ok, err)
	}
	if plan.TargetKcal != 2000 || plan.Goal != "lose" || len(entries) != 3 || entries[0].FoodName != "Eggs" || entries[1].FoodName != "Toast" {
		t.Fatalf("unexpected plan %+v entries %+v", plan, entries)
	}

	_, entries, err = plans.ReplaceMealPlan(ctx, "u1", 1800, "maintain", nil)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty plan after replace, got %+v err=%v", entries, err)
	}

	if err := plans.DeleteMealPlan(ctx, "u1"); err != nil {
		t.Fatalf("DeleteMealPlan: %v", err)
	}
	if _, _, ok, _ := plans.GetMealPlan(ctx, "u1"); ok {
		t.Fatal("expected plan to be gone")
	}
}

func testDeleteUserCascades(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u := &storage.User{Email: "gone@example.com", Role: storage.RoleUser, PasswordHash: "h"}
	if err := s.GetUsersStorage().CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := s.GetHealthProfilesStorage().UpsertHealthProfile(ctx, &storage.HealthProfile{
		OwnerUserID: u.ID, Sex: "female", AgeYears: 40, HeightCm: 165, WeightKg: 60, Activity: "light", Goal: "maintain",
	}); err != nil {
		t.Fatalf("UpsertHealthProfile: %v", err)
	}
	if _, _, err := s.GetMealPlansStorage().ReplaceMealPlan(ctx, u.ID, 1900, "maintain", []storage.MealPlanEntryUpsert{
		{Slot: "lunch", FoodID: "l1", FoodName: "Soup", Calories: 400},
	}); err != nil {
		t.Fatalf("ReplaceMealPlan: %v", err)
	}

	if err := s.GetUsersStorage().DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := s.GetHealthProfilesStorage().GetHealthProfile(ctx, u.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected profile to be deleted, got %v", err)
	}
	if _, _, ok, _ := s.GetMealPlansStorage().GetMealPlan(ctx, u.ID); ok {
		t.Fatal("expected meal plan to be deleted")
	}
	if err := s.GetUsersStorage().DeleteUser(ctx, u.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
