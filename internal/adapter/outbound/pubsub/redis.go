// Package pubsub triggers reloads across every chat-cleaner process that
// subscribes to the same redis channel.
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReloadFunc performs one reload.
type ReloadFunc func(ctx context.Context)

// Options configures the redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// Notice is the message published on the reload channel.
type Notice struct {
	Origin string    `json:"origin"`
	SentAt time.Time `json:"sent_at"`
}

// Subscriber listens on a redis channel and reloads on every message.
type Subscriber struct {
	client  *redis.Client
	channel string
	reload  ReloadFunc
	logger  *slog.Logger
	origin  string

	wg       sync.WaitGroup
	stopOnce sync.Once
	cancel   context.CancelFunc
}

// NewClient creates a redis client from opts.
func NewClient(opts Options) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

// NewSubscriber creates a Subscriber. Nothing is contacted until Start.
func NewSubscriber(opts Options, reload ReloadFunc, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{
		client:  NewClient(opts),
		channel: opts.Channel,
		reload:  reload,
		logger:  logger,
		origin:  Origin(),
	}
}

// Start subscribes and consumes messages in a goroutine until ctx is done or
// Stop is called. It fails when redis is unreachable.
func (s *Subscriber) Start(ctx context.Context) error {
	ps := s.client.Subscribe(ctx, s.channel)
	// Receive waits for the subscription confirmation.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.logger.Info("listening for reload notices", "channel", s.channel)

	ch := ps.Channel()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ps.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				s.handle(ctx, msg)
			}
		}
	}()
	return nil
}

// handle reloads for one received message.
func (s *Subscriber) handle(ctx context.Context, msg *redis.Message) {
	if msg == nil {
		return
	}
	var n Notice
	if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
		// Plain-text payloads such as "reload" are accepted too.
		n.Origin = msg.Payload
	}
	s.logger.Info("received reload notice", "channel", msg.Channel, "origin", n.Origin)
	s.reload(ctx)
}

// Stop ends the subscription and closes the client.
func (s *Subscriber) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
		err = s.client.Close()
		if errors.Is(err, redis.ErrClosed) {
			err = nil
		}
	})
	return err
}

// Publish sends a reload notice and returns the number of subscribers that
// received it.
func Publish(ctx context.Context, client *redis.Client, channel, origin string) (int64, error) {
	body, err := json.Marshal(Notice{Origin: origin, SentAt: time.Now().UTC()})
	if err != nil {
		return 0, err
	}
	n, err := client.Publish(ctx, channel, body).Result()
	if err != nil {
		return 0, fmt.Errorf("publish reload notice: %w", err)
	}
	return n, nil
}

// Origin identifies this process in reload notices.
func Origin() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s/%d", host, os.Getpid())
}
