package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shopease/shopease-backend/internal/cart"
	"github.com/shopease/shopease-backend/internal/catalog"
	"github.com/shopease/shopease-backend/internal/config"
	"github.com/shopease/shopease-backend/internal/db"
	shopHttp "github.com/shopease/shopease-backend/internal/handler/http"
	"github.com/shopease/shopease-backend/internal/order"
	"github.com/shopease/shopease-backend/internal/realtime"
	"github.com/shopease/shopease-backend/internal/user"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	log.Info().Msg("Starting shopease backend...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	if err := db.ApplyMigrations(cfg.Postgres, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	pool, err := db.New(context.Background(), cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	feed := realtime.NewHub()

	catalogRepo := catalog.NewRepository(pool.Pool)
	catalogSvc := catalog.NewService(catalogRepo, feed)

	cartRepo := cart.NewRepository(pool.Pool)
	cartSvc := cart.NewService(cartRepo, catalogRepo, feed)

	orderRepo := order.NewRepository(pool.Pool)
	orderSvc := order.NewService(orderRepo, cartSvc, catalogRepo, feed)

	userRepo := user.NewRepository(pool.Pool)
	userSvc := user.NewService(userRepo)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	shopHttp.NewCatalogHandler(catalogSvc).RegisterRoutes(router)
	shopHttp.NewCartHandler(cartSvc, feed).RegisterRoutes(router)
	shopHttp.NewOrderHandler(orderSvc, cartSvc, feed).RegisterRoutes(router)
	shopHttp.NewUserHandler(userSvc).RegisterRoutes(router)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout: 10 * time.Second,
		// No write timeout: /cart/stream and /orders/stream hold the
		// connection open for the life of the client.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Str("port", cfg.App.Port).Msg("Could not listen")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown failed")
	}

	pool.Close()

	log.Info().Msg("Shopease backend stopped gracefully.")
}
