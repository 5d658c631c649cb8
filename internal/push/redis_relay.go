package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-redis/redis/v8"
)

const channelPrefix = "push:user:"

// RedisRelay forwards events between instances. Publish writes to Redis;
// Run subscribes and hands every event to the local channel, so a user
// connected to any instance receives it.
type RedisRelay struct {
	client *redis.Client
	local  Channel
	log    *slog.Logger
}

func NewRedisRelay(client *redis.Client, local Channel, logger *slog.Logger) *RedisRelay {
	return &RedisRelay{client: client, local: local, log: logger}
}

func ChannelFor(userID uint) string {
	return channelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// ParseChannel extracts the user id from a relay channel name.
func ParseChannel(name string) (uint, error) {
	raw, ok := strings.CutPrefix(name, channelPrefix)
	if !ok {
		return 0, fmt.Errorf("unexpected channel %q", name)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("unexpected channel %q", name)
	}
	return uint(id), nil
}

func (r *RedisRelay) Publish(ctx context.Context, userID uint, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, ChannelFor(userID), data).Err()
}

// Run blocks until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.forward(ctx, msg.Channel, msg.Payload)
		}
	}
}

func (r *RedisRelay) forward(ctx context.Context, channel, payload string) {
	userID, err := ParseChannel(channel)
	if err != nil {
		r.log.Warn("relay: dropping event", "error", err)
		return
	}
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		r.log.Warn("relay: bad payload", "channel", channel, "error", err)
		return
	}
	if err := r.local.Publish(ctx, userID, ev); err != nil {
		r.log.Warn("relay: local delivery failed", "user_id", userID, "error", err)
	}
}
