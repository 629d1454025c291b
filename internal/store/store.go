// Package store defines the persistence interface for catalog records and
// saved proposals. Every call is scoped by company (tenant) ID.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
package store

import (
	"context"
	"errors"

	"github.com/crmsim/consortium-engine/internal/model"
)

// ErrNotFound is returned when a record does not exist for the company.
var ErrNotFound = errors.New("store: record not found")

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer.
type Store interface {
	// --- Administrators ---

	CreateAdministrator(ctx context.Context, a *model.Administrator) error
	GetAdministrator(ctx context.Context, companyID, id string) (*model.Administrator, error)
	ListAdministrators(ctx context.Context, companyID string) ([]model.Administrator, error)

	// --- Products ---

	CreateProduct(ctx context.Context, p *model.Product) error
	GetProduct(ctx context.Context, companyID, id string) (*model.Product, error)
	ListProducts(ctx context.Context, companyID string) ([]model.Product, error)

	// --- Properties ---

	CreateProperty(ctx context.Context, p *model.Property) error
	GetProperty(ctx context.Context, companyID, id string) (*model.Property, error)
	ListProperties(ctx context.Context, companyID string) ([]model.Property, error)

	// --- Proposals (saved simulations) ---

	// CreateProposal persists a proposal. Proposals are never updated.
	CreateProposal(ctx context.Context, p *model.Proposal) error
	GetProposal(ctx context.Context, companyID, id string) (*model.Proposal, error)
	// ListProposals returns proposals newest first. Listed proposals carry
	// only the summary of their result, not the monthly series.
	ListProposals(ctx context.Context, companyID string) ([]model.Proposal, error)
}
