package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crmsim/consortium-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and invalidate the company's list
// keys; reads check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) CreateAdministrator(ctx context.Context, a *model.Administrator) error {
	if err := s.primary.CreateAdministrator(ctx, a); err != nil {
		return err
	}
	s.rdb.Del(ctx, listKey("administrators", a.CompanyID))
	s.set(ctx, recordKey("administrator", a.CompanyID, a.ID), a)
	return nil
}

func (s *CachedStore) CreateProduct(ctx context.Context, p *model.Product) error {
	if err := s.primary.CreateProduct(ctx, p); err != nil {
		return err
	}
	s.rdb.Del(ctx, listKey("products", p.CompanyID))
	s.set(ctx, recordKey("product", p.CompanyID, p.ID), p)
	return nil
}

func (s *CachedStore) CreateProperty(ctx context.Context, p *model.Property) error {
	if err := s.primary.CreateProperty(ctx, p); err != nil {
		return err
	}
	s.rdb.Del(ctx, listKey("properties", p.CompanyID))
	s.set(ctx, recordKey("property", p.CompanyID, p.ID), p)
	return nil
}

func (s *CachedStore) CreateProposal(ctx context.Context, p *model.Proposal) error {
	if err := s.primary.CreateProposal(ctx, p); err != nil {
		return err
	}
	s.set(ctx, recordKey("proposal", p.CompanyID, p.ID), p)
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetAdministrator(ctx context.Context, companyID, id string) (*model.Administrator, error) {
	return readThrough(ctx, s, recordKey("administrator", companyID, id), func() (*model.Administrator, error) {
		return s.primary.GetAdministrator(ctx, companyID, id)
	})
}

func (s *CachedStore) ListAdministrators(ctx context.Context, companyID string) ([]model.Administrator, error) {
	list, err := readThrough(ctx, s, listKey("administrators", companyID), func() (*[]model.Administrator, error) {
		l, err := s.primary.ListAdministrators(ctx, companyID)
		return &l, err
	})
	if err != nil {
		return nil, err
	}
	return *list, nil
}

func (s *CachedStore) GetProduct(ctx context.Context, companyID, id string) (*model.Product, error) {
	return readThrough(ctx, s, recordKey("product", companyID, id), func() (*model.Product, error) {
		return s.primary.GetProduct(ctx, companyID, id)
	})
}

func (s *CachedStore) ListProducts(ctx context.Context, companyID string) ([]model.Product, error) {
	list, err := readThrough(ctx, s, listKey("products", companyID), func() (*[]model.Product, error) {
		l, err := s.primary.ListProducts(ctx, companyID)
		return &l, err
	})
	if err != nil {
		return nil, err
	}
	return *list, nil
}

func (s *CachedStore) GetProperty(ctx context.Context, companyID, id string) (*model.Property, error) {
	return readThrough(ctx, s, recordKey("property", companyID, id), func() (*model.Property, error) {
		return s.primary.GetProperty(ctx, companyID, id)
	})
}

func (s *CachedStore) ListProperties(ctx context.Context, companyID string) ([]model.Property, error) {
	list, err := readThrough(ctx, s, listKey("properties", companyID), func() (*[]model.Property, error) {
		l, err := s.primary.ListProperties(ctx, companyID)
		return &l, err
	})
	if err != nil {
		return nil, err
	}
	return *list, nil
}

func (s *CachedStore) GetProposal(ctx context.Context, companyID, id string) (*model.Proposal, error) {
	return readThrough(ctx, s, recordKey("proposal", companyID, id), func() (*model.Proposal, error) {
		return s.primary.GetProposal(ctx, companyID, id)
	})
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListProposals(ctx context.Context, companyID string) ([]model.Proposal, error) {
	return s.primary.ListProposals(ctx, companyID)
}

// --- Cache helpers ---

// readThrough returns the cached value at key, or loads it from the primary
// and caches it. Redis errors are treated as misses.
func readThrough[T any](ctx context.Context, s *CachedStore, key string, load func() (*T, error)) (*T, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var v T
		if json.Unmarshal(data, &v) == nil {
			return &v, nil
		}
	}

	// Cache miss: read from primary.
	v, err := load()
	if err != nil {
		return nil, err
	}
	s.set(ctx, key, v)
	return v, nil
}

func (s *CachedStore) set(ctx context.Context, key string, v any) {
	if data, err := json.Marshal(v); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
}

func recordKey(kind, companyID, id string) string {
	return fmt.Sprintf("%s:%s:%s", kind, companyID, id)
}

func listKey(kind, companyID string) string {
	return fmt.Sprintf("%s:%s", kind, companyID)
}
