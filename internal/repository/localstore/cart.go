package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/iamsonukr/storefront/internal/domain"
	apperrors "github.com/iamsonukr/storefront/pkg/errors"
)

// CartStore implements repository.CartStore on the local filesystem, one
// JSON file per owner. It exists for development and single-node setups
// where running Redis is not worth the trouble; the versioning semantics
// match the Redis store so services cannot tell them apart.
type CartStore struct {
	dir string

	mu sync.Mutex
}

// NewCartStore creates a file-backed cart store rooted at dir, creating the
// directory if needed.
func NewCartStore(dir string) (*CartStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cart store dir: %w", err)
	}
	return &CartStore{dir: dir}, nil
}

// Get retrieves a cart by owner ID. Expired carts are treated as missing.
func (s *CartStore) Get(ctx context.Context, ownerID string) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.read(ownerID)
	if err != nil {
		return nil, err
	}

	if !cart.ExpiresAt.IsZero() && time.Now().UTC().After(cart.ExpiresAt) {
		// Lazy expiry: Redis drops the key itself, here we drop it on read.
		_ = os.Remove(s.path(ownerID))
		return nil, apperrors.NotFound("cart", ownerID)
	}

	return cart, nil
}

// SaveIfVersion persists the cart only if the stored version still equals
// expectedVersion, bumping the version by one on success. A missing file
// counts as version zero.
func (s *CartStore) SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	currentVersion := 0
	stored, err := s.read(cart.OwnerID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		// No stored cart: treated as version zero.
	case err != nil:
		return false, err
	default:
		currentVersion = stored.Version
	}

	if currentVersion != expectedVersion {
		return false, nil
	}

	cart.Version = expectedVersion + 1
	cart.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(cart)
	if err != nil {
		return false, fmt.Errorf("marshal cart: %w", err)
	}

	// Write to a temp file then rename so readers never see a torn write.
	path := s.path(cart.OwnerID)
	tmp, err := os.CreateTemp(s.dir, "cart-*.tmp")
	if err != nil {
		return false, fmt.Errorf("create temp cart file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return false, fmt.Errorf("write cart file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return false, fmt.Errorf("close cart file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return false, fmt.Errorf("rename cart file: %w", err)
	}

	return true, nil
}

// Delete removes a cart file by owner ID. Deleting a missing file is not an
// error.
func (s *CartStore) Delete(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(ownerID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete cart file: %w", err)
	}
	return nil
}

func (s *CartStore) read(ownerID string) (*domain.Cart, error) {
	data, err := os.ReadFile(s.path(ownerID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NotFound("cart", ownerID)
		}
		return nil, fmt.Errorf("read cart file: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}

	return &cart, nil
}

func (s *CartStore) path(ownerID string) string {
	// Owner IDs are UUIDs or opaque user IDs, but sanitize anyway so a
	// hostile header cannot escape the store directory.
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, ownerID)

	return filepath.Join(s.dir, safe+".json")
}
