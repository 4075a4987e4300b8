package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/chowline/chowline/internal/application/availability"
	appingredient "github.com/chowline/chowline/internal/application/ingredient"
	appmenu "github.com/chowline/chowline/internal/application/menu"
	apporder "github.com/chowline/chowline/internal/application/order"
	domingredient "github.com/chowline/chowline/internal/domain/ingredient"
	dommenu "github.com/chowline/chowline/internal/domain/menu"
	domorder "github.com/chowline/chowline/internal/domain/order"
	domshop "github.com/chowline/chowline/internal/domain/shop"
	"github.com/chowline/chowline/internal/infrastructure/alert"
	httpapi "github.com/chowline/chowline/internal/infrastructure/http"
	"github.com/chowline/chowline/internal/infrastructure/id"
	"github.com/chowline/chowline/internal/infrastructure/memory"
	"github.com/chowline/chowline/internal/infrastructure/notify"
	infraobs "github.com/chowline/chowline/internal/infrastructure/observability"
	"github.com/chowline/chowline/internal/infrastructure/observability/oteltrace"
	"github.com/chowline/chowline/internal/infrastructure/observability/prometrics"
	"github.com/chowline/chowline/internal/infrastructure/observability/zaplogger"
	"github.com/chowline/chowline/internal/infrastructure/outbox"
	"github.com/chowline/chowline/internal/infrastructure/postgres"
	"github.com/chowline/chowline/internal/observability"
	"github.com/chowline/chowline/internal/pkg/logging"
	"github.com/chowline/chowline/internal/pkg/shoplock"
)

const shutdownTimeout = 10 * time.Second

type repositories struct {
	shops       domshop.Repository
	ingredients domingredient.Repository
	menu        dommenu.Repository
	orders      domorder.Repository
}

func main() {
	serviceName := getenvDefault("SERVICE_NAME", "chowline")
	env := getenvDefault("ENV", "dev")
	addr := getenvDefault("ADDR", ":8080")
	defaultFee := getenvFloat("DELIVERY_FEE", 5)

	baseLogger := logging.MustNewLogger(serviceName, env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	tel := infraobs.New(
		oteltrace.New(serviceName),
		zaplogger.Wrap(baseLogger),
		prometrics.New(serviceName, prometheus.DefaultRegisterer),
	)
	log := tel.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, cleanup, err := buildRepositories(ctx, log)
	if err != nil {
		log.Error("storage_init_failed", observability.F("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	bus := outbox.NewBus(log)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	alert.NewWorker(bus, tel).Start()
	notify.NewWorker(bus, tel).Start()

	idGen := id.NewUUIDGenerator()
	locks := shoplock.New()
	ownership := domshop.NewEmailOwnership(repos.shops)
	reconciler := availability.New(repos.menu, repos.ingredients, tel)

	ingredientSvc := appingredient.NewService(repos.ingredients, ownership, reconciler, bus, idGen, locks, tel)
	menuSvc := appmenu.NewService(repos.menu, repos.ingredients, ownership, idGen, locks, tel)
	placeOrder := apporder.NewPlaceOrderUseCase(repos.orders, repos.menu, repos.shops, idGen, bus, defaultFee, tel)
	orderSvc := apporder.NewService(repos.orders, ownership, bus, tel)

	handler := httpapi.NewHandler(ingredientSvc, menuSvc, placeOrder, orderSvc, tel)
	root := http.NewServeMux()
	root.Handle("/metrics", promhttp.Handler())
	root.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    addr,
		Handler: cors.Default().Handler(root),
	}

	go func() {
		log.Info("http_server_start", observability.F("addr", addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_server_error", observability.F("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http_server_shutdown_error", observability.F("error", err.Error()))
	} else {
		log.Info("http_server_stopped")
	}
}

// buildRepositories selects Postgres when DATABASE_URL is set and falls back
// to the in-memory implementations otherwise. Memory mode seeds a demo shop
// so the API is usable out of the box.
func buildRepositories(ctx context.Context, log observability.Logger) (repositories, func(), error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		menuRepo := memory.NewMenuRepository()
		repos := repositories{
			shops:       memory.NewShopRepository(),
			ingredients: memory.NewIngredientRepository(menuRepo),
			menu:        menuRepo,
			orders:      memory.NewOrderRepository(),
		}
		seedDemoShop(ctx, repos.shops, log)
		return repos, func() {}, nil
	}

	db, err := postgres.Open(ctx, dsn)
	if err != nil {
		return repositories{}, nil, err
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return repositories{}, nil, err
	}
	log.Info("storage_ready", observability.F("driver", "postgres"))
	return repositories{
		shops:       postgres.NewShopRepository(db),
		ingredients: postgres.NewIngredientRepository(db),
		menu:        postgres.NewMenuRepository(db),
		orders:      postgres.NewOrderRepository(db),
	}, func() { _ = db.Close() }, nil
}

func seedDemoShop(ctx context.Context, shops domshop.Repository, log observability.Logger) {
	shopID := getenvDefault("DEMO_SHOP_ID", "demo-shop")
	ownerEmail := getenvDefault("OWNER_EMAIL", "owner@example.com")
	s, err := domshop.New(shopID, "Demo Shop", ownerEmail)
	if err != nil {
		log.Warn("seed_shop_invalid", observability.F("error", err.Error()))
		return
	}
	if err := shops.Insert(ctx, s); err != nil {
		log.Warn("seed_shop_failed", observability.F("error", err.Error()))
		return
	}
	log.Info("seed_shop_ready",
		observability.F("shop_id", shopID),
		observability.F("owner_email", ownerEmail),
	)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return def
	}
	return f
}
