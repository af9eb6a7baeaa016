// cmd/storefront/main.go
//
// Scoping service entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (jail-wide file → .env fallback).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Load and validate the typed configuration.
//
//  4. Open the control-plane DB and log the tenant count.
//
//  5. Build the cache backend (memory or Redis), the entity-changed bus,
//     and the tenant, mapping, and ACL stores.
//
//  6. Expose /metrics and /healthz on the ops listener.
//
// The stores built here are the library surface the catalog, topic, and
// messaging services consume; this binary only hosts the ops endpoints
// around them.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanizio/storefront/internal/acl"
	"github.com/yanizio/storefront/internal/cache"
	"github.com/yanizio/storefront/internal/config"
	"github.com/yanizio/storefront/internal/database"
	"github.com/yanizio/storefront/internal/event"
	"github.com/yanizio/storefront/internal/logger"
	"github.com/yanizio/storefront/internal/middleware"
	"github.com/yanizio/storefront/internal/scope"
	"github.com/yanizio/storefront/internal/server"
	"github.com/yanizio/storefront/internal/tenant"
)

const serverEnvPath = "/usr/local/etc/storefront/global.env"

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	rootDir, _ := os.Getwd()
	logOut, err := logger.New(rootDir, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logOut.Fatalw("load config", "err", err)
	}

	//
	// ── 1.  Control-plane DB ────────────────────────────────────────────
	//
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		logOut.Fatalw("connect control-plane DB", "err", err)
	}
	defer db.Close()
	logOut.Info("control-plane DB online")

	//
	// ── 2.  Cache backend ───────────────────────────────────────────────
	//
	var store cache.Store
	switch cfg.Cache.Backend {
	case "redis":
		r := cache.NewRedis(cache.RedisOptions{
			Addr:      cfg.Cache.Redis.Addr,
			Password:  cfg.Cache.Redis.Password,
			DB:        cfg.Cache.Redis.DB,
			KeyPrefix: cfg.Cache.Redis.KeyPrefix,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := r.Ping(pingCtx)
		cancel()
		if err != nil {
			// Degraded, not fatal; the managers compute directly until
			// Redis comes back.
			logOut.Warnw("redis unreachable, cache degraded", "addr", cfg.Cache.Redis.Addr, "err", err)
		}
		store = r
	default:
		store = cache.NewMemory()
	}
	defer store.Close()
	cm := cache.NewManager(store, cfg.Cache.TTL, logOut)

	//
	// ── 3.  Event bus and stores ────────────────────────────────────────
	//
	bus := event.NewBus(cfg.Events.Buffer, logOut)
	defer bus.Close()

	directory := tenant.NewDirectory(tenant.NewSQLRepository(db), cm, bus, logOut)
	mappings := scope.NewStore(scope.NewSQLRepository(db), cm, bus, logOut)
	aclStore := acl.NewStore(acl.NewSQLRepository(db), cm, bus, logOut)

	// Audit feed: log every entity-changed event the stores publish.
	go func() {
		for ev := range bus.Subscribe() {
			logOut.Infow("entity changed",
				"action", ev.Action, "entity_type", ev.EntityType, "entity_id", ev.EntityID)
		}
	}()

	// Early sanity check; an empty directory cannot serve anything.
	all, err := directory.All(context.Background())
	if err != nil {
		logOut.Fatalw("load tenant directory", "err", err)
	}
	if len(all) == 0 {
		logOut.Fatal("no tenant configured; seed the tenant table before starting")
	}
	logOut.Infow("tenant directory online", "tenants", len(all))

	//
	// ── 4.  Ops endpoints ───────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(middleware.Security)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := store.Ping(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	// Read-only admin lookups, used by ops tooling.
	r.Get("/tenants", func(w http.ResponseWriter, req *http.Request) {
		all, err := directory.All(req.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, all)
	})
	r.Get("/resolve", func(w http.ResponseWriter, req *http.Request) {
		res := tenant.NewResolver(directory, req.URL.Query().Get("host"))
		cur, err := res.Current(req.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, cur)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.WithTenant(directory, logOut))
		r.Get("/whoami", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, middleware.TenantFrom(req.Context()))
		})
	})
	r.Get("/mappings/{id}", idLookup(func(ctx context.Context, id int64) (any, error) {
		m, err := mappings.ByID(ctx, id)
		if err != nil || m == nil {
			return nil, err
		}
		return m, nil
	}))
	r.Get("/acl/{id}", idLookup(func(ctx context.Context, id int64) (any, error) {
		rec, err := aclStore.ByID(ctx, id)
		if err != nil || rec == nil {
			return nil, err
		}
		return rec, nil
	}))

	logOut.Infow("ops listener starting", "addr", cfg.HTTP.ListenAddr)
	if err := server.New(cfg.HTTP.ListenAddr, r).ListenAndServe(); err != nil {
		logOut.Fatalw("ops listener failed", "err", err)
	}
}

// writeJSON writes v as a JSON response body.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// idLookup adapts a by-id store lookup into a chi handler.  A nil value
// (absent row) maps to 404.
func idLookup(fn func(ctx context.Context, id int64) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		v, err := fn(req.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if v == nil {
			http.NotFound(w, req)
			return
		}
		writeJSON(w, v)
	}
}
