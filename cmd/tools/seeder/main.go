package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"

	"github.com/foodpick-ng/backend/internal/catalog"
	"github.com/foodpick-ng/backend/internal/config"
	"github.com/foodpick-ng/backend/internal/coupon"
	"github.com/foodpick-ng/backend/internal/store"
)

func main() {
	force := flag.Bool("force", false, "drop existing menu and coupon collections before seeding")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to ping Redis: %v", err)
	}

	st := store.New(client, cfg.LockTTL)

	if *force {
		log.Println("Dropping existing menu and coupon collections...")
		for _, key := range []string{store.KeyMenu, store.KeyCoupons, store.KeyMeta} {
			if err := st.Delete(ctx, key); err != nil {
				log.Fatalf("Failed to drop %s: %v", key, err)
			}
		}
	}

	seedMenu(ctx, st)
	seedCoupons(ctx, st, cfg.CouponEnforceLimits)

	log.Println("Seeding completed successfully!")
}

func seedMenu(ctx context.Context, st *store.Store) {
	log.Println("Seeding menu...")
	seeded, err := catalog.NewService(st).Seed(ctx, time.Now())
	if err != nil {
		log.Fatalf("Failed to seed menu: %v", err)
	}
	if !seeded {
		log.Println("Menu already present, skipped (use -force to reseed)")
		return
	}
	log.Printf("Seeded %d menu items", len(catalog.DemoMenu()))
}

func seedCoupons(ctx context.Context, st *store.Store, enforceLimits bool) {
	log.Println("Seeding coupons...")
	seeded, err := coupon.NewService(st, enforceLimits).Seed(ctx)
	if err != nil {
		log.Fatalf("Failed to seed coupons: %v", err)
	}
	if !seeded {
		log.Println("Coupons already present, skipped (use -force to reseed)")
		return
	}
	log.Printf("Seeded %d coupons", len(coupon.DemoCoupons()))
}
