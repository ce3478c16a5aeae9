package redisdoc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gesushell/core"
	syncsvc "gesushell/sync"
)

// Config holds Redis connection configuration.
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Store implements sync.DocumentStore on Redis. Data structure:
// - doc:{user} -> JSON sync.Document
// - doc:{user}:events -> pub/sub channel carrying the written document
type Store struct {
	client *redis.Client
}

// New creates a Redis-backed document store with the provided configuration.
func New(config Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Store{client: client}, nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing).
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func docKey(user core.UserID) string {
	return fmt.Sprintf("doc:%s", user)
}

func docChannel(user core.UserID) string {
	return docKey(user) + ":events"
}

// Get returns the user's document, or nil when none has been written.
func (s *Store) Get(ctx context.Context, user core.UserID) (*syncsvc.Document, error) {
	raw, err := s.client.Get(ctx, docKey(user)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	var doc syncsvc.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &doc, nil
}

// Set upserts the document and publishes it to subscribers.
func (s *Store) Set(ctx context.Context, user core.UserID, doc syncsvc.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, docKey(user), raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to set document: %w", err)
	}
	// best-effort change notification; the document itself is durable
	if err := s.client.Publish(ctx, docChannel(user), raw).Err(); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

// Subscribe streams remote writes for the user until the returned func is
// called. Undecodable messages are skipped.
func (s *Store) Subscribe(ctx context.Context, user core.UserID, fn func(syncsvc.Document)) (func(), error) {
	pubsub := s.client.Subscribe(ctx, docChannel(user))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	ch := pubsub.Channel()
	go func() {
		for msg := range ch {
			var doc syncsvc.Document
			if err := json.Unmarshal([]byte(msg.Payload), &doc); err != nil {
				continue
			}
			fn(doc)
		}
	}()
	return func() { _ = pubsub.Close() }, nil
}

var _ syncsvc.DocumentStore = (*Store)(nil)
