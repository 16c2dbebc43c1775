package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/garage-ledger/internal/adapter/storage"
	"github.com/rl1809/garage-ledger/internal/config"
	"github.com/rl1809/garage-ledger/internal/core/domain"
	"github.com/rl1809/garage-ledger/internal/core/service"
)

const (
	distinctKeys  = 20
	totalRequests = 50
)

// loadConfig reads the environment like the server does; MYSQL_DSN must be set.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func main() {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	db, err := storage.OpenMySQL(ctx, cfg.MySQL.DSN, storage.PoolOptions{MaxOpenConns: 50, MaxIdleConns: 25})
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	defer db.Close()
	store := storage.NewMySQLAdapter(db)
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	orders := service.NewWorkOrderService(store, storage.NewRedisAdapter(rdb), zap.NewNop(), nil)

	// keys and plates are unique per run, so reruns need no cleanup
	run := uuid.NewString()[:8]
	plate := "STRESS-" + run

	var created, duplicates, failed atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			key := fmt.Sprintf("stress-%s-%d", run, n%distinctKeys)
			_, err := orders.Create(ctx, key, service.WorkOrderInput{
				Plate:      plate,
				PartsValue: decimal.NewFromInt(100),
				LaborValue: decimal.NewFromInt(50),
				Commission: domain.PercentPlusBonus(decimal.NewFromInt(10), decimal.NewFromInt(5)),
			})
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, domain.ErrDuplicateRequest):
				duplicates.Add(1)
			default:
				failed.Add(1)
				log.Printf("request %d: %v", n, err)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Distinct Keys:    %d\n", distinctKeys)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Created:          %d\n", created.Load())
	fmt.Printf("Duplicates:       %d\n", duplicates.Load())
	fmt.Printf("Failed:           %d\n", failed.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if created.Load() == distinctKeys && duplicates.Load() == totalRequests-distinctKeys {
		fmt.Printf("PASS: exactly %d orders created, %d duplicates rejected\n", distinctKeys, totalRequests-distinctKeys)
	} else {
		fmt.Printf("FAIL: expected %d created/%d duplicates, got %d/%d\n",
			distinctKeys, totalRequests-distinctKeys, created.Load(), duplicates.Load())
	}

	all, err := store.ListWorkOrders(ctx)
	if err != nil {
		log.Fatalf("list work orders: %v", err)
	}
	stored := 0
	for _, o := range all {
		if strings.EqualFold(o.Plate, plate) {
			stored++
		}
	}
	fmt.Printf("Stored Orders:    %d\n", stored)
	if stored == distinctKeys {
		fmt.Println("PASS: store holds one order per key")
	} else {
		fmt.Printf("FAIL: expected %d stored orders, got %d\n", distinctKeys, stored)
	}
}
