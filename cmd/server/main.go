package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldvisit-backend/internal/auth"
	"fieldvisit-backend/internal/cache"
	"fieldvisit-backend/internal/config"
	"fieldvisit-backend/internal/database"
	"fieldvisit-backend/internal/db"
	"fieldvisit-backend/internal/events"
	"fieldvisit-backend/internal/geocode"
	"fieldvisit-backend/internal/handlers"
	"fieldvisit-backend/internal/health"
	h "fieldvisit-backend/internal/http"
	"fieldvisit-backend/internal/memstore"
	"fieldvisit-backend/internal/middleware"
	"fieldvisit-backend/internal/mysqlstore"
	"fieldvisit-backend/internal/realtime"
	"fieldvisit-backend/internal/repositories"
	"fieldvisit-backend/internal/services"
	"fieldvisit-backend/internal/storage"
	"fieldvisit-backend/migrations"
)

// backend is the set of stores behind the services for one database driver.
type backend struct {
	visits   services.VisitStore
	users    services.UserStore
	clients  services.ClientStore
	settings services.SettingStore
	pinger   health.Pinger
	close    func()
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Database.Driver {
	case "postgres", "":
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := database.NewMigratorWithFS(pool, migrations.FS, ".").RunMigrations(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		return &backend{
			visits:   repositories.NewVisitRepository(pool),
			users:    repositories.NewUserRepository(pool),
			clients:  repositories.NewClientRepository(pool),
			settings: repositories.NewSystemSettingRepository(pool),
			pinger:   pool,
			close:    pool.Close,
		}, nil

	case "mysql":
		sqlDB, err := db.ConnectMySQL(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := mysqlstore.Migrate(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		return &backend{
			visits:   mysqlstore.NewVisitStore(sqlDB),
			users:    mysqlstore.NewUserStore(sqlDB),
			clients:  mysqlstore.NewClientStore(sqlDB),
			settings: mysqlstore.NewSettingStore(sqlDB),
			pinger:   health.PingFunc(sqlDB.PingContext),
			close:    func() { sqlDB.Close() },
		}, nil

	case "memory":
		log.Println("[DB] WARNING: using in-memory store, data is lost on restart")
		store := memstore.New()
		return &backend{
			visits:   store.Visits(),
			users:    store.Users(),
			clients:  store.Clients(),
			settings: store.Settings(),
			pinger:   store,
			close:    func() {},
		}, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}

func newGeocoder(cfg *config.Config, redisCache *cache.Cache) geocode.Geocoder {
	geocoder := geocode.New(cfg.Geocoding.Provider, cfg.Geocoding.APIKey, cfg.Geocoding.BaseURL, cfg.Geocoding.Timeout)
	if redisCache != nil {
		geocoder = geocode.NewCachedGeocoder(geocoder, redisCache, cfg.Redis.GeoTTL)
	}
	return geocoder
}

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("[DB] %v", err)
	}
	defer store.close()
	log.Printf("[DB] Using %s backend", cfg.Database.Driver)

	// Redis is optional; without it geocoding goes straight to the provider
	var redisCache *cache.Cache
	if cfg.Redis.Enabled {
		redisCache, err = cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			log.Printf("[Redis] Connection failed, continuing without cache: %v", err)
			redisCache = nil
		} else {
			log.Printf("[Redis] Connected to %s", cfg.Redis.Addr)
			defer redisCache.Close()
		}
	}
	geocoder := newGeocoder(cfg, redisCache)

	// Event fan-out: live dashboard always, broker when configured
	hub := realtime.NewHub()
	go hub.Run()
	defer hub.Close()

	publishers := events.Multi{hub}
	if cfg.AMQP.URL != "" {
		amqpPublisher := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
		defer amqpPublisher.Close()
		publishers = append(publishers, amqpPublisher)
		log.Printf("[AMQP] Publishing visit events to queue %s", cfg.AMQP.Queue)
	}

	var pictures services.ProfilePicStore
	if cfg.Storage.Bucket != "" {
		s3Store, err := storage.NewS3Store(ctx, storage.Options{
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			log.Printf("[S3] Disabled, profile pictures stored inline: %v", err)
		} else {
			pictures = s3Store
		}
	}

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpirationHours)

	// Initialize services
	settingService := services.NewSystemSettingService(store.settings)
	visitService := services.NewVisitService(store.visits, store.clients, settingService, geocoder, publishers)
	userService := services.NewUserService(store.users, jwtManager, pictures)
	clientService := services.NewClientService(store.clients)

	var reminders *services.ReminderService
	if cfg.Reminder.Enabled {
		reminders = services.NewReminderService(visitService, publishers, cfg.Reminder.Interval)
		reminders.Start()
		defer reminders.Stop()
	}

	healthChecker := health.NewHealthChecker(store.pinger)
	if redisCache != nil {
		healthChecker.AddDependency("redis", redisCache)
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, store.users)
	router := h.NewRouter(h.Handlers{
		Auth:     handlers.NewAuthHandler(userService),
		Users:    handlers.NewUserHandler(userService),
		Visits:   handlers.NewVisitHandler(visitService),
		Clients:  handlers.NewClientHandler(clientService),
		Settings: handlers.NewSystemSettingHandler(settingService),
		Geocode:  handlers.NewGeocodeHandler(geocoder),
		Reports:  handlers.NewReportHandler(visitService),
		Health:   handlers.NewHealthHandler(healthChecker),
		Live:     hub.ServeWS,
	}, authMiddleware)

	corsMiddleware := middleware.NewCORS(cfg)
	handler := middleware.RequestID(middleware.PanicRecovery(corsMiddleware(router)))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server running on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
