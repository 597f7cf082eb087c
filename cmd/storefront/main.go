package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/Samryeshetu/amazon-full-stack/internal/basket"
	"github.com/Samryeshetu/amazon-full-stack/internal/checkout"
	"github.com/Samryeshetu/amazon-full-stack/internal/domain"
	"github.com/Samryeshetu/amazon-full-stack/internal/feed"
	"github.com/Samryeshetu/amazon-full-stack/internal/orders"
	"github.com/Samryeshetu/amazon-full-stack/internal/processor"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Demo storefront session: wires the basket container, the checkout
// orchestrator and the live order feed against the real backing services,
// then runs one scripted checkout.
func main() {
	log.Println("storefront starting...")
	_ = godotenv.Load()

	mongoURI := getEnv("MONGO_URI", "mongodb://localhost:27017")
	mongoDB := getEnv("MONGO_DB", "amazon")
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	kafkaBrokers := getEnv("KAFKA_BROKERS", "localhost:9092")
	paymentServiceURL := getEnv("PAYMENT_SERVICE_URL", "http://localhost:4000")
	stripeKey := os.Getenv("STRIPE_KEY")
	paymentMethod := getEnv("PAYMENT_METHOD", "pm_card_visa")

	if stripeKey == "" {
		log.Fatal("STRIPE_KEY is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Order store: mongo + redis cache + kafka events
	connectCtx, connectCancel := context.WithTimeout(ctx, 15*time.Second)
	db, err := orders.ConnectMongoDB(connectCtx, mongoURI, mongoDB)
	connectCancel()
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	repo := orders.NewMongoStore(db)
	defer repo.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer redisClient.Close()
	cache := orders.NewRedisCache(redisClient)

	publisher := orders.NewKafkaPublisher(strings.Split(kafkaBrokers, ",")...)
	defer publisher.Close()

	orderService := orders.NewService(repo, cache, publisher)

	// Client-side session state
	basketStore := basket.NewStore()
	stripeClient := processor.NewStripeClient(stripeKey)
	intentClient := checkout.NewIntentClient(paymentServiceURL, 30*time.Second)
	orchestrator := checkout.NewOrchestrator(intentClient, stripeClient, orderService, basketStore)

	orderFeed := feed.NewFeed(orderService, basketStore)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		orderFeed.Run(ctx)
	}()

	// Scripted session: sign in, fill the basket, check out.
	basketStore.Dispatch(basket.SetShopper{Shopper: &domain.ShopperRef{
		ID:    getEnv("SHOPPER_ID", "demo-shopper"),
		Email: getEnv("SHOPPER_EMAIL", "demo@example.com"),
	}})
	basketStore.Dispatch(basket.AddItem{Item: domain.BasketItem{ID: 1, Title: "USB-C cable", Price: 1299, Quantity: 2}})
	basketStore.Dispatch(basket.AddItem{Item: domain.BasketItem{ID: 2, Title: "Paperback", Price: 899, Quantity: 1}})

	log.Printf("submitting checkout, basket total %d", basketStore.Total())
	if err := orchestrator.Submit(ctx, processor.CardDetails{PaymentMethod: paymentMethod}); err != nil {
		log.Printf("checkout failed: %v", err)
	} else {
		log.Println("checkout complete, waiting for order history...")
		time.Sleep(time.Second)
		for _, order := range orderFeed.Orders() {
			log.Printf("order %s: total %d, %d items, placed %s",
				order.ID, order.Total, len(order.Items), order.CreatedAt.Format(time.RFC3339))
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	cancel()
	wg.Wait()
}
