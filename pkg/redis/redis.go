package redis

import (
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/tsel-ticketmaster/tm-registration/config"
)

var (
	client *redis.Client
	once   sync.Once
)

// GetClient returns the shared redis client.
func GetClient() *redis.Client {
	once.Do(func() {
		c := config.Get()

		client = redis.NewClient(&redis.Options{
			Addr:     c.Redis.Address,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})
	})

	return client
}
