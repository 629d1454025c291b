package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/crmsim/consortium-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu             sync.RWMutex
	administrators map[string]model.Administrator
	products       map[string]model.Product
	properties     map[string]model.Property
	proposals      map[string]model.Proposal
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		administrators: make(map[string]model.Administrator),
		products:       make(map[string]model.Product),
		properties:     make(map[string]model.Property),
		proposals:      make(map[string]model.Proposal),
	}
}

func (s *MemoryStore) CreateAdministrator(_ context.Context, a *model.Administrator) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.administrators[a.ID]; exists {
		return fmt.Errorf("administrator %s already exists", a.ID)
	}
	// Store a copy to avoid external mutation.
	copy := *a
	copy.AvailableBidTypes = append([]model.BidType(nil), a.AvailableBidTypes...)
	s.administrators[a.ID] = copy
	return nil
}

func (s *MemoryStore) GetAdministrator(_ context.Context, companyID, id string) (*model.Administrator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.administrators[id]
	if !ok || a.CompanyID != companyID {
		return nil, fmt.Errorf("administrator %s: %w", id, ErrNotFound)
	}
	a.AvailableBidTypes = append([]model.BidType(nil), a.AvailableBidTypes...)
	return &a, nil
}

func (s *MemoryStore) ListAdministrators(_ context.Context, companyID string) ([]model.Administrator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []model.Administrator{}
	for _, a := range s.administrators {
		if a.CompanyID == companyID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *MemoryStore) CreateProduct(_ context.Context, p *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[p.ID]; exists {
		return fmt.Errorf("product %s already exists", p.ID)
	}
	s.products[p.ID] = *p
	return nil
}

func (s *MemoryStore) GetProduct(_ context.Context, companyID, id string) (*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok || p.CompanyID != companyID {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return &p, nil
}

func (s *MemoryStore) ListProducts(_ context.Context, companyID string) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []model.Product{}
	for _, p := range s.products {
		if p.CompanyID == companyID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *MemoryStore) CreateProperty(_ context.Context, p *model.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.properties[p.ID]; exists {
		return fmt.Errorf("property %s already exists", p.ID)
	}
	s.properties[p.ID] = *p
	return nil
}

func (s *MemoryStore) GetProperty(_ context.Context, companyID, id string) (*model.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.properties[id]
	if !ok || p.CompanyID != companyID {
		return nil, fmt.Errorf("property %s: %w", id, ErrNotFound)
	}
	return &p, nil
}

func (s *MemoryStore) ListProperties(_ context.Context, companyID string) ([]model.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []model.Property{}
	for _, p := range s.properties {
		if p.CompanyID == companyID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *MemoryStore) CreateProposal(_ context.Context, p *model.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.proposals[p.ID]; exists {
		return fmt.Errorf("proposal %s already exists", p.ID)
	}
	s.proposals[p.ID] = *p
	return nil
}

func (s *MemoryStore) GetProposal(_ context.Context, companyID, id string) (*model.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.proposals[id]
	if !ok || p.CompanyID != companyID {
		return nil, fmt.Errorf("proposal %s: %w", id, ErrNotFound)
	}
	return &p, nil
}

func (s *MemoryStore) ListProposals(_ context.Context, companyID string) ([]model.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []model.Proposal{}
	for _, p := range s.proposals {
		if p.CompanyID == companyID {
			p.Result = model.SimulationResult{Summary: p.Result.Summary}
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}
