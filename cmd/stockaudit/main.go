// stockaudit initializes the client mirror against the configured backend
// and prints the derived inventory and debt views. It is a diagnostic
// harness for the sync core: if its numbers disagree with the backend's,
// the fold logic is broken.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"geraipos/client/internal/cache"
	"geraipos/client/internal/config"
	"geraipos/client/internal/domain"
	"geraipos/client/internal/gateway"
	"geraipos/client/internal/gateway/memory"
	pggateway "geraipos/client/internal/gateway/postgres"
	"geraipos/client/internal/reorder"
	"geraipos/client/internal/service"
	"geraipos/client/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := config.NewLogger()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var gw gateway.Gateway
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pggateway.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to fall back to seeded data", err)
		}
		gw = pg
		closers = append(closers, pg.Close)
		logger.Info("gateway: postgres")
	} else {
		gw = memory.NewSeeded(cfg.StoreID)
		logger.Info("gateway: seeded in-memory")
	}

	cacheStore := cache.SuggestionCache(cache.NoopSuggestionCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisSuggestionCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			logger.WithError(err).Warn("redis unavailable, using noop cache")
		} else {
			cacheStore = redisCache
			closers = append(closers, redisCache.Close)
			logger.Info("cache: redis")
		}
	}

	engine := reorder.NewEngine(cacheStore, time.Duration(cfg.ReorderTTLSeconds)*time.Second)
	svc := service.New(gw, engine, logger)
	if err := svc.SetPriceTier(domain.PriceTier(cfg.DefaultPriceTier)); err != nil {
		log.Fatalf("invalid default price tier: %v", err)
	}

	storeID := cfg.StoreID
	if token := os.Getenv("AUTH_TOKEN"); token != "" {
		sess, err := session.Parse(cfg.AuthSecret, token)
		if err != nil {
			log.Fatalf("AUTH_TOKEN rejected: %v", err)
		}
		storeID = sess.StoreID
		svc.SetUser(sess.UserID)
		logger.WithFields(map[string]interface{}{
			"user":     sess.Username,
			"store_id": sess.StoreID,
		}).Info("session parsed")
	}

	if err := svc.Init(ctx, storeID); err != nil {
		log.Fatalf("mirror init failed: %v", err)
	}
	defer func() {
		svc.Teardown()
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				logger.WithError(err).Warn("close error")
			}
		}
	}()

	printAudit(ctx, svc)
}

func printAudit(ctx context.Context, svc *service.Service) {
	products := svc.Products()
	productNames := make(map[string]string, len(products))
	for _, p := range products {
		productNames[p.ID] = p.Name
	}

	stock := svc.StockMap()
	fmt.Printf("store %s: %d products, %d variants, %d sales, %d returns\n\n",
		svc.StoreID(), len(products), len(svc.Variants()), len(svc.Sales()), len(svc.Returns()))

	fmt.Println("derived stock:")
	low := map[string]bool{}
	for _, v := range svc.LowStockVariants() {
		low[v.ID] = true
	}
	for _, v := range svc.Variants() {
		marker := ""
		if low[v.ID] {
			marker = "  LOW"
		}
		fmt.Printf("  %-28s %-12s %10s%s\n", productNames[v.ProductID], v.Name, stock[v.ID], marker)
	}

	customerDebt := svc.DebtByCustomer()
	if len(customerDebt) > 0 {
		fmt.Println("\noutstanding customer debt:")
		for _, c := range svc.Customers() {
			if d, ok := customerDebt[c.ID]; ok {
				fmt.Printf("  %-28s %12s\n", c.Name, d)
			}
		}
	}

	supplierDebt := svc.DebtBySupplier()
	if len(supplierDebt) > 0 {
		fmt.Println("\noutstanding supplier debt:")
		for _, sup := range svc.Suppliers() {
			if d, ok := supplierDebt[sup.ID]; ok {
				fmt.Printf("  %-28s %12s\n", sup.Name, d)
			}
		}
	}

	suggestions, err := svc.ReorderSuggestions(ctx)
	if err != nil {
		fmt.Printf("\nreorder suggestions unavailable: %v\n", err)
		return
	}
	if len(suggestions) > 0 {
		fmt.Println("\nreorder suggestions:")
		for _, sg := range suggestions {
			fmt.Printf("  %-28s on hand %8s, order %8s (est. %s)\n",
				sg.Name, sg.CurrentStock, sg.RecommendedQty, sg.EstimatedCost)
		}
	}
}
