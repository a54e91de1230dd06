package realtime

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Subscribe bridges Redis notification channels into the local hub so
// events published by other instances reach clients connected here.
// Blocks; run it in its own goroutine.
func Subscribe(ctx context.Context, rdb *redis.Client, hub *Hub) {
	sub := rdb.PSubscribe(ctx, "notifications:*")
	defer sub.Close()

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Redis subscribe error: %v", err)
			continue
		}

		raw := strings.TrimPrefix(msg.Channel, "notifications:")
		userID, err := uuid.Parse(raw)
		if err != nil {
			continue
		}

		hub.SendRawToUser(userID, []byte(msg.Payload))
	}
}
