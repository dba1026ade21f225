package users

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fdg312/diet-hub/internal/storage"
	"github.com/fdg312/diet-hub/internal/storage/memory"
	"github.com/fdg312/diet-hub/internal/userctx"
)

func setupUsers(t *testing.T) (*memory.MemoryStorage, http.Handler, []*storage.User) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	var created []*storage.User
	for _, u := range []storage.User{
		{ID: "admin-1", Email: "admin@example.com", Role: storage.RoleAdmin},
		{ID: "user-1", Email: "ann@example.com", Role: storage.RoleUser},
		{ID: "user-2", Email: "bob@test.org", Role: storage.RoleUser},
	} {
		u := u
		u.CreatedAt = time.Now()
		u.UpdatedAt = u.CreatedAt
		if err := store.GetUsersStorage().CreateUser(ctx, &u); err != nil {
			t.Fatal(err)
		}
		created = append(created, &u)
	}

	h := NewHandler(NewService(store.GetUsersStorage()))
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/admin/users", h.HandleList)
	mux.HandleFunc("PATCH /v1/admin/users/{id}", h.HandleUpdateRole)
	mux.HandleFunc("DELETE /v1/admin/users/{id}", h.HandleDelete)
	return store, mux, created
}

func asAdmin(t *testing.T, mux http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req = req.WithContext(userctx.WithUser(req.Context(), "admin-1", storage.RoleAdmin))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestListUsers(t *testing.T) {
	_, mux, _ := setupUsers(t)

	rr := asAdmin(t, mux, http.MethodGet, "/v1/admin/users", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp ListUsersResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Total != 3 || len(resp.Users) != 3 {
		t.Fatalf("expected 3 users, got %d/%d", resp.Total, len(resp.Users))
	}
	if resp.Limit != defaultLimit {
		t.Errorf("expected default limit, got %d", resp.Limit)
	}

	rr = asAdmin(t, mux, http.MethodGet, "/v1/admin/users?q=EXAMPLE.com&limit=1", nil)
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Total != 2 || len(resp.Users) != 1 {
		t.Fatalf("expected 1 of 2 matches, got %d/%d", len(resp.Users), resp.Total)
	}
	if resp.Users[0].Email != "admin@example.com" {
		t.Errorf("expected email order, got %s", resp.Users[0].Email)
	}
}

func TestUpdateRole(t *testing.T) {
	_, mux, _ := setupUsers(t)

	rr := asAdmin(t, mux, http.MethodPatch, "/v1/admin/users/user-1", UpdateRoleRequest{Role: "Admin"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var user UserDTO
	json.NewDecoder(rr.Body).Decode(&user)
	if user.Role != storage.RoleAdmin {
		t.Errorf("expected admin, got %s", user.Role)
	}

	tests := []struct {
		name string
		path string
		role string
		want int
	}{
		{"invalid role", "/v1/admin/users/user-1", "owner", http.StatusBadRequest},
		{"self demotion", "/v1/admin/users/admin-1", "user", http.StatusConflict},
		{"unknown user", "/v1/admin/users/ghost", "user", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := asAdmin(t, mux, http.MethodPatch, tt.path, UpdateRoleRequest{Role: tt.role})
			if rr.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rr.Code)
			}
		})
	}
}

func TestDeleteUser(t *testing.T) {
	store, mux, _ := setupUsers(t)
	ctx := context.Background()

	if err := store.GetHealthProfilesStorage().UpsertHealthProfile(ctx, &storage.HealthProfile{OwnerUserID: "user-2", Sex: "male", Activity: "light", Goal: "maintain"}); err != nil {
		t.Fatal(err)
	}

	rr := asAdmin(t, mux, http.MethodDelete, "/v1/admin/users/admin-1", nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("self deletion: expected 409, got %d", rr.Code)
	}

	rr = asAdmin(t, mux, http.MethodDelete, "/v1/admin/users/user-2", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if _, err := store.GetHealthProfilesStorage().GetHealthProfile(ctx, "user-2"); err != storage.ErrNotFound {
		t.Errorf("expected profile removed with user, got %v", err)
	}

	rr = asAdmin(t, mux, http.MethodDelete, "/v1/admin/users/user-2", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rr.Code)
	}
}
