package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lealre/ratebeer-backend/internal/api"
	"github.com/lealre/ratebeer-backend/internal/catalog"
	"github.com/lealre/ratebeer-backend/internal/config"
	"github.com/lealre/ratebeer-backend/internal/mongodb"
	"github.com/lealre/ratebeer-backend/internal/server"
	"github.com/lealre/ratebeer-backend/internal/services/observer"
	"github.com/lealre/ratebeer-backend/internal/services/ratings"
	"github.com/lealre/ratebeer-backend/internal/services/sessions"
	"github.com/lealre/ratebeer-backend/internal/services/users"
	"github.com/lealre/ratebeer-backend/internal/store"
)

type collections struct {
	sessions     store.Collection[mongodb.SessionDb]
	groupRatings store.Collection[mongodb.GroupRatingDb]
	users        store.Collection[mongodb.UserDb]
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	colls, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()

	var lookup catalog.Lookup = catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogTimeout)
	if cfg.RedisAddr != "" {
		redisClient := catalog.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Redis at %s is not reachable, lookups will skip the cache until it is: %v", cfg.RedisAddr, err)
		}
		lookup = catalog.NewCached(lookup, redisClient, cfg.CatalogCacheTTL)
	}

	a := api.NewAPI(
		sessions.NewManager(colls.sessions, sessions.WithPinAttempts(cfg.PinAttempts)),
		ratings.NewAggregator(colls.groupRatings),
		observer.NewObserver(colls.sessions, colls.groupRatings),
		lookup,
		users.NewService(colls.users, cfg.TokenSecret, cfg.TokenTTL),
	)

	if err := server.ListenAndServe(ctx, cfg.Port, server.NewServer(a)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// openStore returns the collections of the configured backend and a function
// releasing it.
func openStore(ctx context.Context, cfg *config.Config) (collections, func(), error) {
	if cfg.StoreBackend == config.StoreMemory {
		log.Println("Using the in-memory store, data is lost on restart")
		return collections{
			sessions:     store.NewMemory[mongodb.SessionDb](mongodb.SessionMemoryIndexes...),
			groupRatings: store.NewMemory[mongodb.GroupRatingDb](),
			users:        store.NewMemory[mongodb.UserDb](mongodb.UserMemoryIndexes...),
		}, func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	dbClient, err := mongodb.Connect(connectCtx, cfg.MongoURI)
	if err != nil {
		return collections{}, nil, err
	}

	db := mongodb.NewDB(dbClient, cfg.MongoDB)
	if err := mongodb.CreateAllIndexes(ctx, dbClient.Database(db.GetDatabaseName()), false); err != nil {
		_ = dbClient.Disconnect(context.Background())
		return collections{}, nil, err
	}

	closeFn := func() {
		if err := dbClient.Disconnect(context.Background()); err != nil {
			log.Printf("Failed to disconnect from MongoDB: %v", err)
		}
	}

	return collections{
		sessions:     mongodb.NewCollection[mongodb.SessionDb](db, mongodb.SessionsCollection, cfg.StoreMaxRetries),
		groupRatings: mongodb.NewCollection[mongodb.GroupRatingDb](db, mongodb.GroupRatingsCollection, cfg.StoreMaxRetries),
		users:        mongodb.NewCollection[mongodb.UserDb](db, mongodb.UsersCollection, cfg.StoreMaxRetries),
	}, closeFn, nil
}
