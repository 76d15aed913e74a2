package cache

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func NewRedisClient(cfg *RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// InvoiceKey is the cache key for an invoice looked up by gateway id.
func InvoiceKey(invoiceID string) string {
	return "invoice:" + invoiceID
}

// OrderKey is the cache key for the latest invoice of a merchant order.
func OrderKey(orderID string) string {
	return "invoice:order:" + orderID
}
