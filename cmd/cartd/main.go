package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/cart-engine/internal/cart"
	"github.com/fjod/cart-engine/internal/catalog"
	"github.com/fjod/cart-engine/internal/checkout"
	"github.com/fjod/cart-engine/internal/config"
	h "github.com/fjod/cart-engine/internal/http"
	"github.com/fjod/cart-engine/internal/identity"
	"github.com/fjod/cart-engine/internal/publisher"
	"github.com/fjod/cart-engine/internal/storage"
	"github.com/fjod/cart-engine/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Options{Service: "cartd", Env: cfg.Log.Env, Level: cfg.Log.Level})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := printToken(cfg, os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "token: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("cartd failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				log.Warn("close failed", zap.Error(err))
			}
		}
	}()

	kv, err := openStorage(ctx, cfg, log, &closers)
	if err != nil {
		return err
	}

	products, err := openCatalog(cfg)
	if err != nil {
		return err
	}

	var sink checkout.ConfirmationSink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := publisher.NewKafkaPublisher(publisher.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		}, log.Named("publisher"))
		closers = append(closers, kafkaPublisher)
		sink = kafkaPublisher
		log.Info("publishing confirmations to kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	} else {
		sink = publisher.NewRecorder(log.Named("publisher"))
	}

	store := cart.NewStore(kv, log.Named("cart"))
	session := identity.NewSession()
	binding := identity.NewBinding(store, session, log.Named("identity"))
	binding.Start(ctx)
	defer binding.Stop()

	controller := checkout.NewController(store, sink, cfg.Pricing, log.Named("checkout"))

	handler := h.NewHandler(h.Deps{
		Cart:        store,
		Checkout:    controller,
		Sessions:    session,
		Catalog:     products,
		Rates:       cfg.Pricing,
		JWTSecret:   []byte(cfg.Auth.JWTSecret),
		Timeout:     cfg.HTTP.RequestTimeout,
		MaxBodySize: cfg.HTTP.MaxRequestBodySize,
		Log:         log.Named("http"),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      h.NewRouter(handler),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("cartd listening", zap.String("addr", srv.Addr), zap.String("storage", cfg.Storage.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server exited")
	return nil
}

func openCatalog(cfg *config.Config) (catalog.Provider, error) {
	switch {
	case cfg.Catalog.URL != "":
		return catalog.NewHTTPProvider(catalog.HTTPConfig{
			BaseURL:     cfg.Catalog.URL,
			Timeout:     cfg.Catalog.Timeout,
			MaxFailures: cfg.Storage.Breaker.MaxFailures,
			OpenTimeout: cfg.Storage.Breaker.OpenTimeout,
		}), nil
	case cfg.Catalog.File != "":
		return catalog.LoadFile(cfg.Catalog.File)
	default:
		return catalog.NewMemoryCatalog(), nil
	}
}

// openStorage returns the configured backend, breaker-guarded when remote and fronted by the
// Redis cache when enabled.
func openStorage(ctx context.Context, cfg *config.Config, log *zap.Logger, closers *[]io.Closer) (storage.KeyValueStore, error) {
	sc := cfg.Storage
	breaker := func(name string, kv storage.KeyValueStore) storage.KeyValueStore {
		return storage.NewBreakerStore(kv, storage.BreakerSettings{
			Name:        name,
			MaxFailures: sc.Breaker.MaxFailures,
			OpenTimeout: sc.Breaker.OpenTimeout,
		})
	}

	var kv storage.KeyValueStore
	switch sc.Backend {
	case config.BackendMemory:
		log.Warn("memory storage: carts are lost on restart")
		kv = storage.NewMemoryStore()

	case config.BackendRedis:
		client, err := connectRedis(ctx, sc.Redis)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, client)
		kv = breaker("redis", storage.NewRedisStore(client))

	case config.BackendMongo:
		db, err := storage.ConnectMongoDB(ctx, sc.Mongo.URI, sc.Mongo.Database)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, closerFunc(func() error { return db.Client().Disconnect(context.Background()) }))
		mongoStore := storage.NewMongoStore(db, sc.Mongo.RecordTTL)
		if err := mongoStore.CreateIndexes(ctx); err != nil {
			return nil, err
		}
		kv = breaker("mongo", mongoStore)

	case config.BackendSQLite:
		sqlStore, err := storage.OpenSQLite(ctx, sc.SQLitePath)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, sqlStore)
		kv = sqlStore

	case config.BackendPostgres:
		sqlStore, err := storage.OpenPostgres(ctx, &storage.Credentials{
			Host:     sc.Postgres.Host,
			Port:     sc.Postgres.Port,
			User:     sc.Postgres.User,
			Password: sc.Postgres.Password,
			DBName:   sc.Postgres.DBName,
		})
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, sqlStore)
		kv = breaker("postgres", sqlStore)

	default:
		return nil, fmt.Errorf("unknown storage backend %q", sc.Backend)
	}

	if cfg.UsesCache() {
		client, err := connectRedis(ctx, sc.Redis)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, client)
		cache := breaker("redis-cache", storage.NewRedisCache(client, sc.Cache.TTL, sc.Cache.Jitter))
		cached := storage.NewCachedStore(kv, cache, log.Named("cache"))
		*closers = append(*closers, closerFunc(func() error { cached.Wait(); return nil }))
		kv = cached
		log.Info("redis cache enabled", zap.Duration("ttl", sc.Cache.TTL))
	}
	return kv, nil
}

func connectRedis(ctx context.Context, rc config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// printToken writes a session token for the subject in args, signed with the configured secret.
func printToken(cfg *config.Config, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return errors.New("usage: cartd token <subject>")
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	token, err := identity.IssueToken([]byte(cfg.Auth.JWTSecret), args[0], 24*time.Hour)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
