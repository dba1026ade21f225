package foods

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/fdg312/diet-hub/internal/blob"
	"github.com/fdg312/diet-hub/internal/config"
	"github.com/fdg312/diet-hub/internal/diet"
	"github.com/fdg312/diet-hub/internal/storage"
)

//go:embed seed.json
var seedJSON []byte

var (
	ErrNotFound         = errors.New("food not found")
	ErrDuplicateName    = errors.New("food with this name already exists")
	ErrLimitReached     = errors.New("catalog limit reached")
	ErrNoImage          = errors.New("food has no image")
	ErrImageTooLarge    = errors.New("image too large")
	ErrUnsupportedMedia = errors.New("unsupported image type")
	ErrBlobUnavailable  = errors.New("image storage not configured")
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Service handles the shared food catalog.
type Service struct {
	foods  storage.FoodsStorage
	blobs  blob.Store
	config *config.Config
}

// NewService creates a new catalog service. blobs may be nil, in which
// case image endpoints report ErrBlobUnavailable.
func NewService(foods storage.FoodsStorage, blobs blob.Store, cfg *config.Config) *Service {
	return &Service{foods: foods, blobs: blobs, config: cfg}
}

// List returns catalog entries matching the params, ordered by name.
func (s *Service) List(ctx context.Context, p ListParams) ([]storage.Food, int, error) {
	p.Limit, p.Offset = normalizePage(p.Limit, p.Offset)
	if p.Category != "" {
		slot, err := diet.ParseSlot(p.Category)
		if err != nil {
			return nil, 0, err
		}
		p.Category = string(slot)
	}
	if p.MinKcal != nil && p.MaxKcal != nil && *p.MinKcal > *p.MaxKcal {
		return nil, 0, fmt.Errorf("%w: min_kcal must not exceed max_kcal", diet.ErrInvalidInput)
	}

	return s.foods.ListFoods(ctx, storage.FoodFilter{
		Category: p.Category,
		Query:    Fold(p.Query),
		MinKcal:  p.MinKcal,
		MaxKcal:  p.MaxKcal,
		Limit:    p.Limit,
		Offset:   p.Offset,
	})
}

// Get returns a single catalog entry.
func (s *Service) Get(ctx context.Context, id string) (*storage.Food, error) {
	food, err := s.foods.GetFood(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return food, err
}

// Catalog returns the whole catalog in planner form.
func (s *Service) Catalog(ctx context.Context) ([]diet.FoodItem, error) {
	all, _, err := s.foods.ListFoods(ctx, storage.FoodFilter{})
	if err != nil {
		return nil, err
	}
	items := make([]diet.FoodItem, 0, len(all))
	for _, f := range all {
		items = append(items, toItem(f))
	}
	return items, nil
}

// Create validates and stores a new catalog entry.
func (s *Service) Create(ctx context.Context, req FoodRequest) (*storage.Food, error) {
	item, err := buildItem("", req)
	if err != nil {
		return nil, err
	}

	if s.config.FoodsMaxItems > 0 {
		total, err := s.foods.CountFoods(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count foods: %w", err)
		}
		if total >= s.config.FoodsMaxItems {
			return nil, fmt.Errorf("%w (%d)", ErrLimitReached, s.config.FoodsMaxItems)
		}
	}

	food := &storage.Food{
		Name:      item.Name,
		SearchKey: Fold(item.Name),
		Calories:  item.Calories,
		Category:  string(item.Category),
	}
	if err := s.foods.CreateFood(ctx, food); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return food, nil
}

// Update replaces the editable fields of a catalog entry.
func (s *Service) Update(ctx context.Context, id string, req FoodRequest) (*storage.Food, error) {
	item, err := buildItem(id, req)
	if err != nil {
		return nil, err
	}

	food := &storage.Food{
		ID:        id,
		Name:      item.Name,
		SearchKey: Fold(item.Name),
		Calories:  item.Calories,
		Category:  string(item.Category),
	}
	if err := s.foods.UpdateFood(ctx, food); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, storage.ErrConflict):
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return food, nil
}

// Delete removes a catalog entry and its image.
func (s *Service) Delete(ctx context.Context, id string) error {
	food, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.foods.DeleteFood(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if food.ImageKey != nil && s.blobs != nil {
		if err := s.blobs.DeleteObject(ctx, *food.ImageKey); err != nil {
			log.Printf("WARN foods: delete image %s: %v", *food.ImageKey, err)
		}
	}
	return nil
}

// PutImage stores an image for a food. The content type is sniffed from
// the bytes; declared is used only when sniffing is inconclusive.
func (s *Service) PutImage(ctx context.Context, id string, data []byte, declared string) (*storage.Food, error) {
	if s.blobs == nil {
		return nil, ErrBlobUnavailable
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if limit := s.maxImageBytes(); limit > 0 && int64(len(data)) > limit {
		return nil, ErrImageTooLarge
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", diet.ErrInvalidInput)
	}

	contentType := http.DetectContentType(data)
	if contentType == "application/octet-stream" && declared != "" {
		contentType = declared
	}
	contentType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	if !s.mimeAllowed(contentType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, contentType)
	}

	key := "foods/" + id
	if _, err := s.blobs.PutObject(ctx, key, data, contentType); err != nil {
		return nil, err
	}
	if err := s.foods.SetFoodImage(ctx, id, key, contentType); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// Image resolves a food image either to a direct URL (when the blob store
// can sign one) or to its bytes.
func (s *Service) Image(ctx context.Context, id string) (url string, data []byte, contentType string, err error) {
	food, err := s.Get(ctx, id)
	if err != nil {
		return "", nil, "", err
	}
	if food.ImageKey == nil {
		return "", nil, "", ErrNoImage
	}
	if s.blobs == nil {
		return "", nil, "", ErrBlobUnavailable
	}
	if food.ImageContentType != nil {
		contentType = *food.ImageContentType
	}

	if signer, ok := s.blobs.(blob.URLSigner); ok {
		url, err := signer.ObjectURL(ctx, *food.ImageKey)
		if err == nil {
			return url, nil, contentType, nil
		}
		log.Printf("WARN foods: sign image url %s: %v", *food.ImageKey, err)
	}

	data, err = s.blobs.GetObject(ctx, *food.ImageKey)
	if errors.Is(err, blob.ErrObjectNotFound) {
		return "", nil, "", ErrNoImage
	}
	if err != nil {
		return "", nil, "", err
	}
	return "", data, contentType, nil
}

// Suggestions lists, per slot, the catalog items whose calories fit within
// the slot's budget ceiling, best fit first for the goal.
func (s *Service) Suggestions(ctx context.Context, goalRaw string, target float64, category string) (*SuggestionsResponse, error) {
	goal, err := diet.ParseGoal(goalRaw)
	if err != nil {
		return nil, err
	}
	if target <= 0 {
		return nil, fmt.Errorf("%w: target_kcal must be positive", diet.ErrInvalidInput)
	}
	budgets, err := diet.Allocate(target)
	if err != nil {
		return nil, err
	}

	slots := diet.Slots
	if category != "" {
		slot, err := diet.ParseSlot(category)
		if err != nil {
			return nil, err
		}
		slots = []diet.Slot{slot}
	}

	all, _, err := s.foods.ListFoods(ctx, storage.FoodFilter{})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]storage.Food, len(all))
	for _, f := range all {
		byID[f.ID] = f
	}

	resp := &SuggestionsResponse{Goal: string(goal), TargetKcal: target}
	for _, slot := range slots {
		budget, _ := diet.BudgetFor(budgets, slot)
		ceiling := diet.Ceiling(budget)

		var fits []diet.FoodItem
		for _, f := range all {
			if f.Category == string(slot) && f.Calories <= ceiling {
				fits = append(fits, toItem(f))
			}
		}

		dtos := make([]FoodDTO, 0, len(fits))
		for _, item := range diet.Rank(goal, budget, fits) {
			dtos = append(dtos, ToDTO(byID[item.ID]))
		}
		resp.Slots = append(resp.Slots, SlotSuggestions{
			Slot:        string(slot),
			BudgetKcal:  budget,
			CeilingKcal: ceiling,
			Items:       dtos,
		})
	}
	return resp, nil
}

// Seed fills an empty catalog from the embedded list. Names that fold to
// an existing key are skipped.
func (s *Service) Seed(ctx context.Context) (int, error) {
	total, err := s.foods.CountFoods(ctx)
	if err != nil {
		return 0, err
	}
	if total > 0 {
		return 0, nil
	}

	var seeds []seedFood
	if err := json.Unmarshal(seedJSON, &seeds); err != nil {
		return 0, fmt.Errorf("decode seed catalog: %w", err)
	}

	created := 0
	for _, sf := range seeds {
		kcal := sf.Calories
		_, err := s.Create(ctx, FoodRequest{Name: sf.Name, Calories: &kcal, Category: sf.Category})
		if errors.Is(err, ErrDuplicateName) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed %q: %w", sf.Name, err)
		}
		created++
	}
	return created, nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *Service) maxImageBytes() int64 {
	return int64(s.config.FoodImageMaxMB) << 20
}

func (s *Service) mimeAllowed(contentType string) bool {
	for _, allowed := range strings.Split(s.config.FoodImageAllowedMime, ",") {
		if strings.EqualFold(strings.TrimSpace(allowed), contentType) {
			return true
		}
	}
	return false
}

func buildItem(id string, req FoodRequest) (diet.FoodItem, error) {
	b := diet.NewFoodBuilder().ID(id).Name(req.Name).Category(req.Category)
	if req.Calories != nil {
		b.Calories(*req.Calories)
	}
	return b.Build()
}

func toItem(f storage.Food) diet.FoodItem {
	return diet.FoodItem{
		ID:       f.ID,
		Name:     f.Name,
		Calories: f.Calories,
		Category: diet.Slot(f.Category),
	}
}

// ToDTO converts storage.Food to FoodDTO.
func ToDTO(f storage.Food) FoodDTO {
	dto := FoodDTO{
		ID:        f.ID,
		Name:      f.Name,
		Calories:  f.Calories,
		Category:  f.Category,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
	if f.ImageKey != nil {
		url := "/v1/foods/" + f.ID + "/image"
		dto.ImageURL = &url
	}
	return dto
}
