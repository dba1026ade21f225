package foods

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fdg312/diet-hub/internal/blob"
	"github.com/fdg312/diet-hub/internal/config"
	"github.com/fdg312/diet-hub/internal/storage/memory"
)

// minimal PNG header, enough for content sniffing
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func newTestHandler(t *testing.T) (*Handler, *Service, *blob.MemoryStore, *http.ServeMux) {
	t.Helper()
	store := memory.New()
	blobs := blob.NewMemoryStore()
	cfg := &config.Config{
		FoodsMaxItems:        100,
		FoodImageMaxMB:       1,
		FoodImageAllowedMime: "image/jpeg,image/png,image/webp",
	}
	service := NewService(store.GetFoodsStorage(), blobs, cfg)
	h := NewHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/foods", h.HandleList)
	mux.HandleFunc("POST /v1/foods", h.HandleCreate)
	mux.HandleFunc("GET /v1/foods/suggestions", h.HandleSuggestions)
	mux.HandleFunc("GET /v1/foods/{id}", h.HandleGet)
	mux.HandleFunc("PUT /v1/foods/{id}", h.HandleUpdate)
	mux.HandleFunc("DELETE /v1/foods/{id}", h.HandleDelete)
	mux.HandleFunc("PUT /v1/foods/{id}/image", h.HandlePutImage)
	mux.HandleFunc("GET /v1/foods/{id}/image", h.HandleGetImage)
	return h, service, blobs, mux
}

func do(t *testing.T, mux http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func mustCreate(t *testing.T, service *Service, name string, kcal float64, category string) FoodDTO {
	t.Helper()
	food, err := service.Create(context.Background(), FoodRequest{Name: name, Calories: &kcal, Category: category})
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return ToDTO(*food)
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code
}

func TestFold(t *testing.T) {
	tests := map[string]string{
		"Phở Bò":        "pho bo",
		"  Bánh   mì  ": "banh mi",
		"Đậu hũ":        "dau hu",
		"Crème Brûlée":  "creme brulee",
		"plain":         "plain",
		"":              "",
	}
	for in, want := range tests {
		if got := Fold(in); got != want {
			t.Errorf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCreateAndGet(t *testing.T) {
	_, _, _, mux := newTestHandler(t)

	rr := do(t, mux, http.MethodPost, "/v1/foods", map[string]any{"name": "Phở bò", "calories": 450, "category": "Breakfast"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var created FoodDTO
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.Category != "breakfast" || created.Calories != 450 {
		t.Errorf("unexpected food %+v", created)
	}

	rr = do(t, mux, http.MethodGet, "/v1/foods/"+created.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr = do(t, mux, http.MethodGet, "/v1/foods/missing", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestCreateValidation(t *testing.T) {
	_, _, _, mux := newTestHandler(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{"calories": 100, "category": "snack"}},
		{"missing calories", map[string]any{"name": "Tea", "category": "snack"}},
		{"negative calories", map[string]any{"name": "Tea", "calories": -5, "category": "snack"}},
		{"unknown category", map[string]any{"name": "Tea", "calories": 5, "category": "brunch"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, mux, http.MethodPost, "/v1/foods", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			if code := errorCode(t, rr); code != "invalid_request" {
				t.Errorf("expected invalid_request, got %q", code)
			}
		})
	}
}

func TestCreateDuplicateNameIgnoresAccentsAndCase(t *testing.T) {
	_, service, _, mux := newTestHandler(t)
	mustCreate(t, service, "Phở bò", 450, "breakfast")

	rr := do(t, mux, http.MethodPost, "/v1/foods", map[string]any{"name": "PHO  BO", "calories": 400, "category": "lunch"})
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	if code := errorCode(t, rr); code != "duplicate_name" {
		t.Errorf("expected duplicate_name, got %q", code)
	}
}

func TestCreateLimitReached(t *testing.T) {
	_, service, _, mux := newTestHandler(t)
	service.config.FoodsMaxItems = 1
	mustCreate(t, service, "Tea", 5, "snack")

	rr := do(t, mux, http.MethodPost, "/v1/foods", map[string]any{"name": "Coffee", "calories": 5, "category": "snack"})
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	if code := errorCode(t, rr); code != "limit_reached" {
		t.Errorf("expected limit_reached, got %q", code)
	}
}

func TestListFilters(t *testing.T) {
	_, service, _, mux := newTestHandler(t)
	mustCreate(t, service, "Phở bò", 450, "breakfast")
	mustCreate(t, service, "Phở cuốn", 400, "lunch")
	mustCreate(t, service, "Bún chả", 450, "lunch")
	mustCreate(t, service, "Bánh flan", 150, "snack")

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Bánh flan", "Bún chả", "Phở bò", "Phở cuốn"}},
		{"q=pho", []string{"Phở bò", "Phở cuốn"}},
		{"q=PH%E1%BB%9E", []string{"Phở bò", "Phở cuốn"}},
		{"category=lunch", []string{"Bún chả", "Phở cuốn"}},
		{"q=pho&category=lunch", []string{"Phở cuốn"}},
		{"min_kcal=400&max_kcal=450", []string{"Bún chả", "Phở bò", "Phở cuốn"}},
		{"max_kcal=200", []string{"Bánh flan"}},
		{"limit=2&offset=1", []string{"Bún chả", "Phở bò"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := do(t, mux, http.MethodGet, "/v1/foods?"+tt.query, nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
			}
			var resp ListFoodsResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, item := range resp.Items {
				got = append(got, item.Name)
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	for _, bad := range []string{"category=brunch", "min_kcal=abc", "min_kcal=500&max_kcal=100"} {
		rr := do(t, mux, http.MethodGet, "/v1/foods?"+bad, nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", bad, rr.Code)
		}
	}
}

func TestUpdateAndDelete(t *testing.T) {
	_, service, blobs, mux := newTestHandler(t)
	food := mustCreate(t, service, "Tea", 5, "snack")
	mustCreate(t, service, "Coffee", 5, "snack")

	rr := do(t, mux, http.MethodPut, "/v1/foods/"+food.ID, map[string]any{"name": "Green tea", "calories": 2, "category": "breakfast"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var updated FoodDTO
	json.NewDecoder(rr.Body).Decode(&updated)
	if updated.Name != "Green tea" || updated.Calories != 2 || updated.Category != "breakfast" {
		t.Errorf("unexpected update result %+v", updated)
	}

	rr = do(t, mux, http.MethodPut, "/v1/foods/"+food.ID, map[string]any{"name": "coffee", "calories": 2, "category": "snack"})
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 renaming onto existing name, got %d", rr.Code)
	}

	if _, err := service.PutImage(context.Background(), food.ID, pngBytes, ""); err != nil {
		t.Fatal(err)
	}
	if blobs.Len() != 1 {
		t.Fatalf("expected 1 stored image, got %d", blobs.Len())
	}

	rr = do(t, mux, http.MethodDelete, "/v1/foods/"+food.ID, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if blobs.Len() != 0 {
		t.Errorf("expected image to be deleted with the food")
	}
	rr = do(t, mux, http.MethodDelete, "/v1/foods/"+food.ID, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rr.Code)
	}
}

func TestImageUploadAndDownload(t *testing.T) {
	_, service, _, mux := newTestHandler(t)
	food := mustCreate(t, service, "Tea", 5, "snack")

	rr := do(t, mux, http.MethodGet, "/v1/foods/"+food.ID+"/image", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before upload, got %d", rr.Code)
	}

	// raw body
	req := httptest.NewRequest(http.MethodPut, "/v1/foods/"+food.ID+"/image", bytes.NewReader(pngBytes))
	req.Header.Set("Content-Type", "image/png")
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var dto FoodDTO
	json.NewDecoder(rr.Body).Decode(&dto)
	if dto.ImageURL == nil || *dto.ImageURL != "/v1/foods/"+food.ID+"/image" {
		t.Errorf("expected image_url, got %v", dto.ImageURL)
	}

	rr = do(t, mux, http.MethodGet, "/v1/foods/"+food.ID+"/image", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "image/png" {
		t.Errorf("expected image/png, got %q", rr.Header().Get("Content-Type"))
	}
	if !bytes.Equal(rr.Body.Bytes(), pngBytes) {
		t.Error("downloaded bytes differ from upload")
	}

	// multipart
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "tea.png")
	part.Write(pngBytes)
	mw.Close()
	req = httptest.NewRequest(http.MethodPut, "/v1/foods/"+food.ID+"/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("multipart: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestImageRejected(t *testing.T) {
	_, service, _, mux := newTestHandler(t)
	food := mustCreate(t, service, "Tea", 5, "snack")

	req := httptest.NewRequest(http.MethodPut, "/v1/foods/"+food.ID+"/image", strings.NewReader("<html>not an image</html>"))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rr.Code)
	}

	big := append(append([]byte{}, pngBytes...), make([]byte, 2<<20)...)
	req = httptest.NewRequest(http.MethodPut, "/v1/foods/"+food.ID+"/image", bytes.NewReader(big))
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
}

func TestImageWithoutBlobStore(t *testing.T) {
	store := memory.New()
	service := NewService(store.GetFoodsStorage(), nil, &config.Config{FoodImageMaxMB: 1, FoodImageAllowedMime: "image/png"})
	food := mustCreate(t, service, "Tea", 5, "snack")

	if _, err := service.PutImage(context.Background(), food.ID, pngBytes, ""); err != ErrBlobUnavailable {
		t.Fatalf("expected ErrBlobUnavailable, got %v", err)
	}
}

func TestSuggestions(t *testing.T) {
	_, service, _, mux := newTestHandler(t)
	mustCreate(t, service, "Small", 450, "breakfast")
	mustCreate(t, service, "Huge", 700, "breakfast")
	mustCreate(t, service, "Exact", 600, "breakfast")
	mustCreate(t, service, "Close", 650, "breakfast")
	mustCreate(t, service, "Soup", 250, "lunch")

	tests := []struct {
		goal string
		want string
	}{
		{"maintain", "[Exact Close Small]"},
		{"lose", "[Small Exact Close]"},
		{"gain", "[Close Exact Small]"},
	}
	for _, tt := range tests {
		t.Run(tt.goal, func(t *testing.T) {
			rr := do(t, mux, http.MethodGet, "/v1/foods/suggestions?target_kcal=2000&category=breakfast&goal="+tt.goal, nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
			}
			var resp SuggestionsResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if len(resp.Slots) != 1 || resp.Slots[0].Slot != "breakfast" {
				t.Fatalf("expected breakfast only, got %+v", resp.Slots)
			}
			if resp.Slots[0].BudgetKcal != 600 {
				t.Errorf("expected budget 600, got %v", resp.Slots[0].BudgetKcal)
			}
			var names []string
			for _, item := range resp.Slots[0].Items {
				names = append(names, item.Name)
			}
			if fmt.Sprint(names) != tt.want {
				t.Errorf("got %v, want %s", names, tt.want)
			}
		})
	}

	rr := do(t, mux, http.MethodGet, "/v1/foods/suggestions?target_kcal=2000", nil)
	var all SuggestionsResponse
	json.NewDecoder(rr.Body).Decode(&all)
	if len(all.Slots) != 4 {
		t.Fatalf("expected all four slots, got %d", len(all.Slots))
	}
	if all.Goal != "maintain" {
		t.Errorf("expected default goal maintain, got %q", all.Goal)
	}

	for _, bad := range []string{"", "target_kcal=0", "target_kcal=2000&goal=bulk", "target_kcal=2000&category=brunch"} {
		rr := do(t, mux, http.MethodGet, "/v1/foods/suggestions?"+bad, nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%q: expected 400, got %d", bad, rr.Code)
		}
	}
}

func TestSeed(t *testing.T) {
	_, service, _, _ := newTestHandler(t)
	ctx := context.Background()

	created, err := service.Seed(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// one dish is listed under two slots and is only stored once
	if created != 27 {
		t.Errorf("expected 27 seeded foods, got %d", created)
	}

	again, err := service.Seed(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if again != 0 {
		t.Errorf("expected no-op on non-empty catalog, got %d", again)
	}

	catalog, err := service.Catalog(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(catalog) != 27 {
		t.Errorf("expected 27 catalog items, got %d", len(catalog))
	}
}
