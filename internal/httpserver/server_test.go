package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fdg312/diet-hub/internal/blob"
	"github.com/fdg312/diet-hub/internal/config"
	"github.com/fdg312/diet-hub/internal/storage/memory"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:               "local",
		Port:              8080,
		StorageDriver:     config.StorageMemory,
		AuthMode:          config.AuthModeNone,
		JWTSecret:         "test-secret",
		JWTIssuer:         "diet-hub",
		JWTTTLMinutes:     60,
		PasswordMinLength: 6,
		FoodsMaxItems:     1000,
		FoodImageMaxMB:    1,
		MealPlanMaxItems:  40,
	}
}

func newTestServer(cfg *config.Config) *Server {
	return NewWithStorage(cfg, memory.New(), blob.NewMemoryStore())
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("expected status=ok, got %s", resp["status"])
	}
}

func TestHealthzMethodNotAllowed(t *testing.T) {
	srv := newTestServer(testConfig())

	req := httptest.NewRequest(http.MethodPost, "/healthz", nil)
	w := httptest.NewRecorder()

	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

func TestAnonymousMealPlanFlow(t *testing.T) {
	h := newTestServer(testConfig()).Handler()

	// the anonymous identity is an admin, so it may edit the catalog
	var ids []string
	for _, f := range []map[string]any{
		{"name": "Phở bò", "calories": 450, "category": "breakfast"},
		{"name": "Cơm tấm", "calories": 600, "category": "lunch"},
		{"name": "Bún chả", "calories": 500, "category": "dinner"},
		{"name": "Chè", "calories": 150, "category": "snack"},
	} {
		rr := doJSON(t, h, http.MethodPost, "/v1/foods", "", f)
		if rr.Code != http.StatusCreated {
			t.Fatalf("create food: expected 201, got %d: %s", rr.Code, rr.Body.String())
		}
		ids = append(ids, decode[struct {
			ID string `json:"id"`
		}](t, rr).ID)
	}

	rr := doJSON(t, h, http.MethodPost, "/v1/health/calculate", "", map[string]any{
		"sex": "male", "age_years": 30, "height_cm": 175, "weight_kg": 70,
		"activity": "moderate", "goal": "maintain", "save": true,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("calculate: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, h, http.MethodPost, "/v1/meal/plan/suggest", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("suggest: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	suggested := decode[struct {
		TargetKcal float64 `json:"target_kcal"`
		ItemCount  int     `json:"item_count"`
		Saved      bool    `json:"saved"`
	}](t, rr)
	if suggested.TargetKcal <= 0 || suggested.ItemCount != 4 || suggested.Saved {
		t.Errorf("unexpected suggestion: %+v", suggested)
	}

	items := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		items = append(items, map[string]string{"food_id": id})
	}
	rr = doJSON(t, h, http.MethodPut, "/v1/meal/plan", "", map[string]any{
		"target_kcal": 2000, "goal": "maintain", "items": items,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("replace plan: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, h, http.MethodGet, "/v1/meal/plan/export?format=csv", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	csv := rr.Body.String()
	if !strings.HasPrefix(csv, "slot,name,calories\n") || !strings.HasSuffix(csv, "total,,1700\n") {
		t.Errorf("unexpected export:\n%s", csv)
	}
}

func TestJWTModeAdminRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.AuthMode = config.AuthModeJWT
	cfg.AuthRequired = true
	cfg.AdminEmails = []string{"boss@example.com"}
	h := newTestServer(cfg).Handler()

	signup := func(email string) string {
		rr := doJSON(t, h, http.MethodPost, "/v1/auth/signup", "", map[string]string{
			"email": email, "password": "secret123", "name": "Test",
		})
		if rr.Code != http.StatusCreated {
			t.Fatalf("signup %s: expected 201, got %d: %s", email, rr.Code, rr.Body.String())
		}
		return decode[struct {
			AccessToken string `json:"access_token"`
		}](t, rr).AccessToken
	}
	userToken := signup("eater@example.com")
	adminToken := signup("boss@example.com")

	if rr := doJSON(t, h, http.MethodGet, "/v1/foods", "", nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("anonymous catalog: expected 401, got %d", rr.Code)
	}
	if rr := doJSON(t, h, http.MethodGet, "/v1/foods", userToken, nil); rr.Code != http.StatusOK {
		t.Errorf("user catalog: expected 200, got %d", rr.Code)
	}

	food := map[string]any{"name": "Xôi", "calories": 350, "category": "breakfast"}
	if rr := doJSON(t, h, http.MethodPost, "/v1/foods", userToken, food); rr.Code != http.StatusForbidden {
		t.Errorf("user create food: expected 403, got %d", rr.Code)
	}
	if rr := doJSON(t, h, http.MethodPost, "/v1/foods", adminToken, food); rr.Code != http.StatusCreated {
		t.Errorf("admin create food: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	if rr := doJSON(t, h, http.MethodGet, "/v1/admin/stats", userToken, nil); rr.Code != http.StatusForbidden {
		t.Errorf("user stats: expected 403, got %d", rr.Code)
	}
	rr := doJSON(t, h, http.MethodGet, "/v1/admin/stats", adminToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("admin stats: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	dash := decode[struct {
		TotalUsers int `json:"total_users"`
		AdminUsers int `json:"admin_users"`
		TotalFoods int `json:"total_foods"`
	}](t, rr)
	if dash.TotalUsers != 2 || dash.AdminUsers != 1 || dash.TotalFoods != 1 {
		t.Errorf("unexpected dashboard: %+v", dash)
	}
}

func TestNew_SeedsCatalog(t *testing.T) {
	cfg := testConfig()
	cfg.SeedCatalog = true
	cfg.Blob = config.BlobConfig{Mode: config.BlobModeLocal, LocalDir: t.TempDir()}

	srv := New(cfg)
	defer srv.Close()

	rr := doJSON(t, srv.Handler(), http.MethodGet, "/v1/foods?limit=1", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	list := decode[struct {
		Total int `json:"total"`
	}](t, rr)
	if list.Total != 27 {
		t.Errorf("expected 27 seeded foods, got %d", list.Total)
	}
}
