package main

import (
	"fmt"
	"log"
	"strings"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fdg312/diet-hub/internal/config"
	"github.com/fdg312/diet-hub/internal/dbmigrate"
	"github.com/fdg312/diet-hub/internal/httpserver"
)

func main() {
	cfg := config.Load()

	printStartupBanner(cfg)

	// SQLite applies its migrations when the storage opens; memory has none.
	if cfg.RunMigrationsOnStartup && usesPostgres(cfg) {
		target, _, err := dbmigrate.SelectTarget(cfg, true)
		if err != nil {
			log.Fatalf("FATAL startup migrations: %v", err)
		}

		log.Printf("startup migrations: command=up using=%s", target.Source)
		if err := dbmigrate.Run("up", target); err != nil {
			log.Fatalf("FATAL startup migrations failed: %v", err)
		}
		log.Printf("startup migrations: completed")
	}

	validateProductionConfig(cfg)

	server := httpserver.New(cfg)
	defer server.Close()

	log.Fatal(server.Start())
}

// printStartupBanner logs a one-time summary of the resolved configuration.
// Secrets are shown only as "set" / "not set".
func printStartupBanner(cfg *config.Config) {
	log.Println("========== Diet Hub API ==========")
	log.Printf("  env              = %s", cfg.Env)
	log.Printf("  port             = %d", cfg.Port)

	// ---- Storage ----
	log.Println("---- storage ----")
	log.Printf("  driver           = %s", cfg.StorageDriver)
	switch cfg.StorageDriver {
	case config.StorageSQLite:
		log.Printf("  sqlite_path      = %s", cfg.SQLitePath)
	case config.StorageMemory:
	default:
		log.Printf("  runtime_url      = %s", describeDBURL(cfg.DatabaseURL, cfg.DatabaseURLPooled))
		log.Printf("  pooled           = %s", setOrNot(cfg.DatabaseURLPooled))
		log.Printf("  direct           = %s", setOrNot(cfg.DatabaseURLDirect))
		log.Printf("  migrations_on_startup = %t", cfg.RunMigrationsOnStartup)
		if cfg.RunMigrationsOnStartup && cfg.DatabaseURLDirect == "" {
			log.Printf("  migrations_via   = (will fail: DATABASE_URL_DIRECT not set)")
		}
	}

	// ---- Auth ----
	log.Println("---- auth ----")
	log.Printf("  auth_mode        = %s", cfg.AuthMode)
	log.Printf("  auth_required    = %t", cfg.AuthRequired)
	log.Printf("  jwt_secret       = %s", secretStatus(cfg.JWTSecret, "change_me"))
	log.Printf("  jwt_ttl_minutes  = %d", cfg.JWTTTLMinutes)
	log.Printf("  admin_emails     = %d", len(cfg.AdminEmails))

	// ---- Catalog & plans ----
	log.Println("---- catalog ----")
	log.Printf("  seed_catalog     = %t", cfg.SeedCatalog)
	log.Printf("  foods_max_items  = %d", cfg.FoodsMaxItems)
	log.Printf("  image_max_mb     = %d", cfg.FoodImageMaxMB)
	log.Printf("  min_recommended  = %.0f kcal", cfg.NutritionMinRecommendedKcal)
	log.Printf("  plan_max_items   = %d", cfg.MealPlanMaxItems)

	// ---- Blob / S3 ----
	log.Println("---- blob ----")
	log.Printf("  blob_mode        = %s", cfg.Blob.Mode)
	if cfg.Blob.Mode == config.BlobModeS3 || cfg.Blob.Mode == config.BlobModeAuto {
		log.Printf("  s3: %s", cfg.Blob.S3.DiagnosticsSummary())
	} else {
		log.Printf("  local_dir        = %s", cfg.Blob.LocalDir)
	}

	log.Println("==================================")
}

// validateProductionConfig performs fatal checks that only matter in non-local envs.
func validateProductionConfig(cfg *config.Config) {
	isProd := cfg.Env == "production" || cfg.Env == "staging"

	// S3 hard-mode validation
	if cfg.Blob.Mode == config.BlobModeS3 {
		if missing := cfg.Blob.S3.MissingRequired(); len(missing) > 0 {
			log.Fatalf("FATAL blob: BLOB_MODE is 's3' but S3 config is incomplete, missing: %s", strings.Join(missing, ", "))
		}
	}

	// JWT_SECRET must not be default in production
	if isProd && cfg.AuthMode == config.AuthModeJWT && cfg.JWTSecret == "change_me" {
		log.Fatalf("FATAL auth: JWT_SECRET must not be 'change_me' in %s with AUTH_MODE=jwt", cfg.Env)
	}

	// an open admin surface is only acceptable locally
	if isProd && cfg.AuthMode == config.AuthModeNone {
		log.Fatalf("FATAL auth: AUTH_MODE=none is not allowed in %s", cfg.Env)
	}

	// persistent storage is required in production
	if isProd && cfg.StorageDriver != config.StorageSQLite && cfg.DatabaseURL == "" {
		log.Fatalf("FATAL db: no DATABASE_URL configured in %s", cfg.Env)
	}
}

// ---- helpers (no secrets) ----

func usesPostgres(cfg *config.Config) bool {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		return true
	case config.StorageAuto:
		return cfg.DatabaseURL != ""
	}
	return false
}

func setOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

func secretStatus(v, insecureDefault string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "not set"
	}
	if v == insecureDefault {
		return fmt.Sprintf("set (DEFAULT, insecure '%s')", insecureDefault)
	}
	return "set (custom)"
}

func describeDBURL(runtime, pooled string) string {
	if runtime == "" {
		return "not set (will use in-memory storage)"
	}
	if pooled != "" && runtime == pooled {
		return "set (via DATABASE_URL_POOLED)"
	}
	return "set"
}
