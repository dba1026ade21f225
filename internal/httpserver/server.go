package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/fdg312/diet-hub/internal/auth"
	"github.com/fdg312/diet-hub/internal/blob"
	"github.com/fdg312/diet-hub/internal/config"
	"github.com/fdg312/diet-hub/internal/diet"
	"github.com/fdg312/diet-hub/internal/foods"
	"github.com/fdg312/diet-hub/internal/mealplans"
	"github.com/fdg312/diet-hub/internal/nutrition"
	"github.com/fdg312/diet-hub/internal/reports"
	"github.com/fdg312/diet-hub/internal/stats"
	"github.com/fdg312/diet-hub/internal/storage"
	"github.com/fdg312/diet-hub/internal/storage/memory"
	"github.com/fdg312/diet-hub/internal/storage/postgres"
	"github.com/fdg312/diet-hub/internal/storage/sqlite"
	"github.com/fdg312/diet-hub/internal/users"
)

// Server представляет HTTP сервер
type Server struct {
	config         *config.Config
	mux            *http.ServeMux
	storage        storage.Storage
	blobs          blob.Store
	authMiddleware *auth.Middleware
	handler        http.Handler
}

// New создаёт новый HTTP сервер: хранилище и blob store выбираются по конфигурации
func New(cfg *config.Config) *Server {
	st := initStorage(cfg)

	blobs, mode, err := blob.NewBlobStore(cfg.Blob, log.Default())
	if err != nil {
		log.Fatalf("FATAL blob: failed to initialize store: %v", err)
	}
	log.Printf("INFO blob: food images mode: %s", mode)

	return NewWithStorage(cfg, st, blobs)
}

// NewWithStorage собирает сервер поверх готовых хранилищ
func NewWithStorage(cfg *config.Config, st storage.Storage, blobs blob.Store) *Server {
	s := &Server{
		config:  cfg,
		mux:     http.NewServeMux(),
		storage: st,
		blobs:   blobs,
	}

	// Регистрируем маршруты
	s.routes()

	// Цепочка middleware (внешний первым): CORS -> Rate Limit -> Auth -> Router
	var handler http.Handler = s.mux
	handler = s.authMiddleware.Handler(handler)
	handler = RateLimitMiddleware(cfg, handler)
	handler = CORSMiddleware(cfg, handler)
	s.handler = handler

	return s
}

// initStorage выбирает хранилище по STORAGE_DRIVER; при ошибке подключения
// используется in-memory storage
func initStorage(cfg *config.Config) storage.Storage {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	driver := cfg.StorageDriver
	if driver == "" || driver == config.StorageAuto {
		driver = config.StorageMemory
		if cfg.DatabaseURL != "" {
			driver = config.StoragePostgres
		}
	}

	switch driver {
	case config.StoragePostgres:
		log.Println("Подключение к PostgreSQL...")
		pgStorage, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("Ошибка подключения к PostgreSQL: %v", err)
			log.Println("Fallback на in-memory storage")
			return memory.New()
		}
		log.Println("PostgreSQL подключен успешно")
		return pgStorage

	case config.StorageSQLite:
		log.Printf("Открытие SQLite: %s", cfg.SQLitePath)
		sqliteStorage, err := sqlite.New(ctx, cfg.SQLitePath)
		if err != nil {
			log.Printf("Ошибка открытия SQLite: %v", err)
			log.Println("Fallback на in-memory storage")
			return memory.New()
		}
		log.Println("SQLite открыт успешно")
		return sqliteStorage

	default:
		log.Println("Используется in-memory storage")
		return memory.New()
	}
}

// routes регистрирует маршруты
func (s *Server) routes() {
	// Health check (no auth required)
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	// Auth API
	authService := auth.NewService(s.config, s.storage.GetUsersStorage())
	authHandler := auth.NewHandlers(authService)
	s.authMiddleware = auth.NewMiddleware(s.config, authService)

	s.mux.HandleFunc("POST /v1/auth/signup", authHandler.HandleSignUp)
	s.mux.HandleFunc("POST /v1/auth/login", authHandler.HandleLogin)
	s.mux.HandleFunc("POST /v1/auth/dev", authHandler.HandleDevAuth)
	s.mux.HandleFunc("GET /v1/auth/me", authHandler.HandleMe)

	// Foods catalog
	foodsService := foods.NewService(s.storage.GetFoodsStorage(), s.blobs, s.config)
	foodsHandler := foods.NewHandler(foodsService)
	if s.config.SeedCatalog {
		s.seedCatalog(foodsService)
	}

	s.mux.HandleFunc("GET /v1/foods", foodsHandler.HandleList)
	s.mux.HandleFunc("GET /v1/foods/suggestions", foodsHandler.HandleSuggestions)
	s.mux.HandleFunc("GET /v1/foods/{id}", foodsHandler.HandleGet)
	s.mux.HandleFunc("GET /v1/foods/{id}/image", foodsHandler.HandleGetImage)
	s.mux.HandleFunc("POST /v1/foods", auth.RequireAdminFunc(foodsHandler.HandleCreate))
	s.mux.HandleFunc("PUT /v1/foods/{id}", auth.RequireAdminFunc(foodsHandler.HandleUpdate))
	s.mux.HandleFunc("DELETE /v1/foods/{id}", auth.RequireAdminFunc(foodsHandler.HandleDelete))
	s.mux.HandleFunc("PUT /v1/foods/{id}/image", auth.RequireAdminFunc(foodsHandler.HandlePutImage))

	// Health profile & calculator
	policy := diet.CaloriePolicy{MinCalories: s.config.NutritionMinRecommendedKcal}
	nutritionService := nutrition.NewService(s.storage.GetHealthProfilesStorage(), policy)
	nutritionHandler := nutrition.NewHandler(nutritionService)

	s.mux.HandleFunc("POST /v1/health/calculate", nutritionHandler.HandleCalculate)
	s.mux.HandleFunc("GET /v1/health/profile", nutritionHandler.HandleGetProfile)
	s.mux.HandleFunc("PUT /v1/health/profile", nutritionHandler.HandlePutProfile)
	s.mux.HandleFunc("DELETE /v1/health/profile", nutritionHandler.HandleDeleteProfile)
	s.mux.HandleFunc("GET /v1/health/summary", nutritionHandler.HandleSummary)

	// Meal plan
	mealPlansService := mealplans.NewService(
		s.storage.GetMealPlansStorage(),
		foodsService,
		nutritionService,
		s.config.MealPlanMaxItems,
	)
	mealPlansHandler := mealplans.NewHandler(mealPlansService)
	reportsHandler := reports.NewHandlers(mealPlansService)

	s.mux.HandleFunc("POST /v1/meal/plan/suggest", mealPlansHandler.HandleSuggest)
	s.mux.HandleFunc("GET /v1/meal/plan", mealPlansHandler.HandleGet)
	s.mux.HandleFunc("PUT /v1/meal/plan", mealPlansHandler.HandleReplace)
	s.mux.HandleFunc("DELETE /v1/meal/plan", mealPlansHandler.HandleDelete)
	s.mux.HandleFunc("POST /v1/meal/plan/items", mealPlansHandler.HandleAddItem)
	s.mux.HandleFunc("DELETE /v1/meal/plan/items/{id}", mealPlansHandler.HandleRemoveItem)
	s.mux.HandleFunc("GET /v1/meal/plan/export", reportsHandler.HandleExport)

	// Admin API
	usersHandler := users.NewHandler(users.NewService(s.storage.GetUsersStorage()))
	statsHandler := stats.NewHandler(stats.NewService(s.storage.GetUsersStorage(), s.storage.GetFoodsStorage()))

	s.mux.HandleFunc("GET /v1/admin/users", auth.RequireAdminFunc(usersHandler.HandleList))
	s.mux.HandleFunc("PATCH /v1/admin/users/{id}", auth.RequireAdminFunc(usersHandler.HandleUpdateRole))
	s.mux.HandleFunc("DELETE /v1/admin/users/{id}", auth.RequireAdminFunc(usersHandler.HandleDelete))
	s.mux.HandleFunc("GET /v1/admin/stats", auth.RequireAdminFunc(statsHandler.HandleDashboard))
}

// seedCatalog заполняет пустой каталог встроенным списком блюд
func (s *Server) seedCatalog(svc *foods.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := svc.Seed(ctx)
	if err != nil {
		log.Printf("WARN seed: catalog seeding failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("INFO seed: added %d foods to the catalog", n)
	}
}

// handleHealthz проверяет доступность хранилища
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.storage.Ping(ctx); err != nil {
		log.Printf("WARN healthz: storage ping failed: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "unavailable",
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// Handler возвращает корневой обработчик со всей цепочкой middleware
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start запускает HTTP сервер
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("Сервер запущен на http://localhost%s\n", addr)
	log.Printf("Health check: http://localhost%s/healthz\n", addr)
	log.Printf("Foods API: http://localhost%s/v1/foods\n", addr)

	return srv.ListenAndServe()
}

// Close закрывает соединение с хранилищем
func (s *Server) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
