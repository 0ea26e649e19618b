package realtime

import (
	"context"
	"log"

	"github.com/go-redis/redis/v8"
)

// RedisBroker fans broadcasts out across server instances through Redis
// pub/sub.
type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(url string) (*RedisBroker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	log.Printf("redis broker connected addr=%s", opts.Addr)
	return &RedisBroker{client: client}, nil
}

func (b *RedisBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.client.Publish(ctx, channel, payload).Err()
}

// Subscribe consumes the channel until ctx is cancelled. Redis drops
// messages for briefly disconnected subscribers; clients recover by
// resyncing from the durable store, not from the broker.
func (b *RedisBroker) Subscribe(ctx context.Context, channel string, handler func(payload []byte)) error {
	pubsub := b.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return err
	}
	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler([]byte(msg.Payload))
			}
		}
	}()
	return nil
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
