package main // Entry point package

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/crittertrack/crittertrack-server/internal/auth"
	"github.com/crittertrack/crittertrack-server/internal/config"
	"github.com/crittertrack/crittertrack-server/internal/database"
	"github.com/crittertrack/crittertrack-server/internal/handler"
	"github.com/crittertrack/crittertrack-server/internal/middleware"
	"github.com/crittertrack/crittertrack-server/internal/router"
	"github.com/crittertrack/crittertrack-server/internal/service"
	"github.com/crittertrack/crittertrack-server/internal/store"
	"github.com/crittertrack/crittertrack-server/internal/store/memstore"
	"github.com/crittertrack/crittertrack-server/internal/store/mysqlstore"
	"github.com/crittertrack/crittertrack-server/internal/store/reststore"
)

func main() {
	// A .env file is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	st, err := openStore(cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("create upload dir: %v", err)
	}

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTAudience, cfg.JWTIssuer, cfg.AccessTTLMin)
	events := service.NewEventPublisher(cfg.AMQPURL)

	h := router.Handlers{
		Auth: &handler.AuthHandler{
			Users:      st,
			Tokens:     issuer,
			Events:     events,
			BcryptCost: cfg.BcryptCost,
			Timeout:    cfg.StoreTimeout,
		},
		Animals: &handler.AnimalHandler{Animals: st, Timeout: cfg.StoreTimeout},
		Litters: &handler.LitterHandler{Litters: st, Timeout: cfg.StoreTimeout},
		Public:  &handler.PublicHandler{Users: st, Animals: st, Timeout: cfg.StoreTimeout},
		Upload:  &handler.UploadHandler{Dir: cfg.UploadDir},
	}

	e := echo.New()

	// Rate limiting degrades to a pass-through without Redis. The
	// limiter is handed to the router so protected routes apply it
	// after token verification.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting disabled")
	}
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.Register(e, h, issuer, limit)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, store=%s)", addr, cfg.Env, cfg.StoreBackend)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// openStore builds the store backend selected in the configuration.
func openStore(cfg config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMySQL:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBPoolSize)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureSchema(context.Background(), db); err != nil {
			return nil, err
		}
		return mysqlstore.New(db), nil
	case config.BackendRest:
		return reststore.New(cfg.RestAPIURL, cfg.RestAPIKey), nil
	default: // config.BackendMemory, validated in config.Load
		return memstore.New(), nil
	}
}
