package main

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/lealre/ratebeer-backend/internal/catalog"
	"github.com/lealre/ratebeer-backend/internal/config"
	"github.com/lealre/ratebeer-backend/internal/logx"
	"github.com/lealre/ratebeer-backend/internal/mongodb"
	"github.com/lealre/ratebeer-backend/internal/store"
)

const workerCount = 5

// Warms the catalog cache with every item that has been rated in any
// session, so results screens do not wait on the catalog API.
func main() {
	log.Println("")
	log.Println("==========================================")
	log.Println("Starting catalog cache warm-up...")
	log.Println("==========================================")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.StoreBackend != config.StoreMongo || cfg.RedisAddr == "" {
		log.Fatalf("the warm-up needs STORE_BACKEND=%s and REDIS_ADDR", config.StoreMongo)
	}

	ctx := context.Background()
	dbClient, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer dbClient.Disconnect(ctx)

	db := mongodb.NewDB(dbClient, cfg.MongoDB)
	ratingsColl := mongodb.NewCollection[mongodb.GroupRatingDb](db, mongodb.GroupRatingsCollection, cfg.StoreMaxRetries)

	redisClient := catalog.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
	defer redisClient.Close()
	lookup := catalog.NewCached(catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogTimeout), redisClient, cfg.CatalogCacheTTL)

	log.Println("Fetching rated item ids from database...")
	itemIds, err := ratedItemIds(ctx, ratingsColl)
	if err != nil {
		log.Fatalf("Failed to fetch rated items: %v", err)
	}
	log.Printf("Found %d items to cache", len(itemIds))

	cached := warmUp(ctx, lookup, itemIds)
	log.Printf("Warm-up completed: %d/%d items cached", cached, len(itemIds))
}

func ratedItemIds(ctx context.Context, ratingsColl store.Collection[mongodb.GroupRatingDb]) ([]int, error) {
	groupRatings, err := ratingsColl.FindEqual(ctx, map[string]any{})
	if err != nil {
		return nil, err
	}

	var itemIds []int
	for _, groupRating := range groupRatings {
		itemIds = append(itemIds, groupRating.ItemId)
	}
	slices.Sort(itemIds)
	return slices.Compact(itemIds), nil
}

func warmUp(ctx context.Context, lookup catalog.Lookup, itemIds []int) int64 {
	jobs := make(chan int, len(itemIds))
	wg := sync.WaitGroup{}
	var cached atomic.Int64

	// start workers
	for i := 0; i < workerCount; i++ {
		wg.Add(1)

		go func(worker int) {
			defer wg.Done()
			workerCtx := logx.WithScope(ctx, fmt.Sprintf("worker %d", worker))
			logger := logx.FromContext(workerCtx)

			for itemId := range jobs {
				if _, err := lookup.GetItem(workerCtx, itemId); err != nil {
					logger.Printf("failed caching item %d: %v", itemId, err)
					continue
				}
				cached.Add(1)
			}
		}(i)
	}

	// feed jobs
	for _, itemId := range itemIds {
		jobs <- itemId
	}

	close(jobs)
	wg.Wait()

	return cached.Load()
}
