package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iamsonukr/storefront/internal/domain"
	apperrors "github.com/iamsonukr/storefront/pkg/errors"
)

const keyPrefix = "cart:"

// errVersionMismatch aborts a Watch transaction when the stored cart's
// version does not match the caller's expectation.
var errVersionMismatch = errors.New("cart version mismatch")

// CartStore implements repository.CartStore using Redis. Carts are keyed by
// owner ID, which is a session ID for guests and a user ID for signed-in
// customers.
type CartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartStore creates a new Redis-backed cart store.
func NewCartStore(client *redis.Client, ttl time.Duration) *CartStore {
	return &CartStore{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a cart by owner ID from Redis.
func (s *CartStore) Get(ctx context.Context, ownerID string) (*domain.Cart, error) {
	key := keyPrefix + ownerID

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart", ownerID)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}

	return &cart, nil
}

// SaveIfVersion persists the cart only if the stored version still equals
// expectedVersion, bumping the version by one on success. A missing key
// counts as version zero. It returns false without error when another writer
// got there first.
func (s *CartStore) SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (bool, error) {
	key := keyPrefix + cart.OwnerID

	txn := func(tx *redis.Tx) error {
		currentVersion := 0

		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			// No stored cart: treated as version zero.
		case err != nil:
			return fmt.Errorf("redis get cart: %w", err)
		default:
			var stored domain.Cart
			if err := json.Unmarshal(data, &stored); err != nil {
				return fmt.Errorf("unmarshal cart: %w", err)
			}
			currentVersion = stored.Version
		}

		if currentVersion != expectedVersion {
			return errVersionMismatch
		}

		cart.Version = expectedVersion + 1
		cart.UpdatedAt = time.Now().UTC()

		payload, err := json.Marshal(cart)
		if err != nil {
			return fmt.Errorf("marshal cart: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		return err
	}

	err := s.client.Watch(ctx, txn, key)
	if err != nil {
		if errors.Is(err, errVersionMismatch) || errors.Is(err, redis.TxFailedErr) {
			return false, nil
		}
		return false, fmt.Errorf("redis save cart: %w", err)
	}

	return true, nil
}

// Delete removes a cart from Redis by owner ID. Deleting a missing key is
// not an error.
func (s *CartStore) Delete(ctx context.Context, ownerID string) error {
	key := keyPrefix + ownerID

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}

	return nil
}
