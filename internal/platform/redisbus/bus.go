package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
)

const defaultChannel = "skillsdna.events"

type Config struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// Event is the envelope published on the channel.
type Event struct {
	Type       string          `json:"type"`
	UserID     uint            `json:"userId,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data,omitempty"`
}

type Bus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// New connects to Redis. An empty Addr means no bus is configured and yields nil, nil.
func New(cfg Config, log *logger.Logger) (*Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("redisbus: logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, nil
	}
	ch := strings.TrimSpace(cfg.Channel)
	if ch == "" {
		ch = defaultChannel
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Bus{
		log:     log.With("client", "RedisBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

// Client exposes the underlying connection for health checks.
func (b *Bus) Client() *goredis.Client {
	if b == nil {
		return nil
	}
	return b.rdb
}

// Publish encodes data into an Event of the given type and publishes it.
func (b *Bus) Publish(ctx context.Context, eventType string, userID uint, data any) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis bus not initialized")
	}
	raw, err := encodeEvent(eventType, userID, data, time.Now().UTC())
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func encodeEvent(eventType string, userID uint, data any, at time.Time) ([]byte, error) {
	ev := Event{Type: eventType, UserID: userID, OccurredAt: at}
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode event data: %w", err)
		}
		ev.Data = payload
	}
	return json.Marshal(ev)
}

// Subscribe forwards events to onEvent until ctx is done. It returns once the
// subscription is confirmed.
func (b *Bus) Subscribe(ctx context.Context, onEvent func(Event)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis bus not initialized")
	}
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					b.log.Warn("bad redis event payload", "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()
	return nil
}

func (b *Bus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
