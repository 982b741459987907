// Package cart keeps a table session's in-progress order in Redis so that
// every device at the table sees the same cart.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrInvalidItem = errors.New("cart items need a menu_id and quantity >= 1")

type Item struct {
	MenuID    int64  `json:"menu_id"`
	Quantity  int32  `json:"quantity"`
	DrinkType string `json:"drink_type,omitempty"`
}

type Cart struct {
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is a Redis-backed cart store. Carts expire with the table token.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func Key(tableNumber, token string) string {
	return "cart:" + tableNumber + ":" + token
}

// Get returns the session's cart. A missing cart is empty, not an error.
func (s *Store) Get(ctx context.Context, tableNumber, token string) (Cart, error) {
	raw, err := s.client.Get(ctx, Key(tableNumber, token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Cart{Items: []Item{}}, nil
		}
		return Cart{}, fmt.Errorf("get cart: %w", err)
	}
	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cart{}, fmt.Errorf("decode cart: %w", err)
	}
	if c.Items == nil {
		c.Items = []Item{}
	}
	return c, nil
}

// Put replaces the session's cart and resets its expiry.
func (s *Store) Put(ctx context.Context, tableNumber, token string, items []Item) (Cart, error) {
	for _, it := range items {
		if it.MenuID <= 0 || it.Quantity < 1 {
			return Cart{}, ErrInvalidItem
		}
	}
	if items == nil {
		items = []Item{}
	}
	c := Cart{Items: items, UpdatedAt: time.Now().UTC()}
	raw, err := json.Marshal(c)
	if err != nil {
		return Cart{}, fmt.Errorf("encode cart: %w", err)
	}
	if err := s.client.Set(ctx, Key(tableNumber, token), raw, s.ttl).Err(); err != nil {
		return Cart{}, fmt.Errorf("set cart: %w", err)
	}
	return c, nil
}

// Clear deletes the session's cart.
func (s *Store) Clear(ctx context.Context, tableNumber, token string) error {
	if err := s.client.Del(ctx, Key(tableNumber, token)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
