package realtime

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// NewRedis creates a new Redis client
func NewRedis() *redis.Client {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	log.Printf("Redis client created (addr: %s)\n", redisAddr)
	return rdb
}

// Publisher pushes notification payloads onto per-user Redis channels so
// other instances (and the push pipeline) see events from this one.
type Publisher struct {
	RDB *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{RDB: rdb}
}

func (p *Publisher) PublishToUser(ctx context.Context, userID uuid.UUID, data interface{}) {
	if p == nil || p.RDB == nil {
		return
	}
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error marshaling notification: %v", err)
		return
	}
	if err := p.RDB.Publish(ctx, "notifications:"+userID.String(), payload).Err(); err != nil {
		log.Printf("Redis publish failed for user %s: %v", userID, err)
	}
}
