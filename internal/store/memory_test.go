package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crmsim/consortium-engine/internal/model"
	"github.com/crmsim/consortium-engine/internal/store"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func seedAdministrator(t *testing.T, ms *store.MemoryStore, companyID, id, name string) *model.Administrator {
	t.Helper()
	a := &model.Administrator{
		ID:                    id,
		CompanyID:             companyID,
		Name:                  name,
		UpdateIndex:           model.IndexINCC,
		UpdateMonth:           8,
		UpdateGracePeriod:     12,
		MaxEmbeddedPercentage: d(25),
		AvailableBidTypes:     []model.BidType{{Name: "Embutido", Kind: model.BidEmbedded, Percentage: d(25)}},
		CreatedAt:             time.Now().UTC(),
	}
	if err := ms.CreateAdministrator(context.Background(), a); err != nil {
		t.Fatalf("failed to seed administrator: %v", err)
	}
	return a
}

func TestMemoryStore_AdministratorRoundTrip(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()
	seedAdministrator(t, ms, "acme", "adm-1", "Porto")

	got, err := ms.GetAdministrator(ctx, "acme", "adm-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Porto" || got.UpdateMonth != 8 {
		t.Errorf("unexpected administrator: %+v", got)
	}
	if len(got.AvailableBidTypes) != 1 || !got.AvailableBidTypes[0].Percentage.Equal(d(25)) {
		t.Errorf("bid types not preserved: %+v", got.AvailableBidTypes)
	}

	// Mutating the returned copy must not leak into the store.
	got.AvailableBidTypes[0].Name = "changed"
	again, _ := ms.GetAdministrator(ctx, "acme", "adm-1")
	if again.AvailableBidTypes[0].Name != "Embutido" {
		t.Errorf("store was mutated through returned value")
	}
}

func TestMemoryStore_DuplicateID(t *testing.T) {
	ms := store.NewMemoryStore()
	seedAdministrator(t, ms, "acme", "adm-1", "Porto")
	err := ms.CreateAdministrator(context.Background(), &model.Administrator{ID: "adm-1", CompanyID: "acme"})
	if err == nil {
		t.Fatal("expected error for duplicate id")
	}
}

func TestMemoryStore_TenantIsolation(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()
	seedAdministrator(t, ms, "acme", "adm-1", "Porto")
	seedAdministrator(t, ms, "globex", "adm-2", "Itaú")

	if _, err := ms.GetAdministrator(ctx, "globex", "adm-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound across tenants, got %v", err)
	}

	list, err := ms.ListAdministrators(ctx, "acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 || list[0].ID != "adm-1" {
		t.Errorf("expected only acme's administrator, got %+v", list)
	}
}

func TestMemoryStore_NotFound(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()

	if _, err := ms.GetProduct(ctx, "acme", "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("product: expected ErrNotFound, got %v", err)
	}
	if _, err := ms.GetProperty(ctx, "acme", "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("property: expected ErrNotFound, got %v", err)
	}
	if _, err := ms.GetProposal(ctx, "acme", "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("proposal: expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_ListsSortedByName(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()
	for _, name := range []string{"Zeta", "Alpha", "Mid"} {
		p := &model.Product{ID: "p-" + name, CompanyID: "acme", Name: name, NominalCreditValue: d(100000), TermMonths: 120}
		if err := ms.CreateProduct(ctx, p); err != nil {
			t.Fatalf("create product: %v", err)
		}
	}

	list, _ := ms.ListProducts(ctx, "acme")
	if len(list) != 3 || list[0].Name != "Alpha" || list[2].Name != "Zeta" {
		t.Errorf("unexpected order: %+v", list)
	}

	empty, _ := ms.ListProperties(ctx, "acme")
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", empty)
	}
}

func TestMemoryStore_ProposalsNewestFirstWithSummaryOnly(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "new"} {
		p := &model.Proposal{
			ID:        id,
			CompanyID: "acme",
			LeadName:  "Lead " + id,
			Result: model.SimulationResult{
				Schedule: []model.InstallmentCalculation{{Month: 1}},
			},
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		p.Result.Summary.FinalCreditValue = d(300000)
		if err := ms.CreateProposal(ctx, p); err != nil {
			t.Fatalf("create proposal: %v", err)
		}
	}

	list, err := ms.ListProposals(ctx, "acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[0].ID != "new" {
		t.Fatalf("expected newest first, got %+v", list)
	}
	if list[0].Result.Schedule != nil {
		t.Errorf("listed proposal should not carry the schedule")
	}
	if !list[0].Result.Summary.FinalCreditValue.Equal(d(300000)) {
		t.Errorf("listed proposal should keep its summary")
	}

	full, err := ms.GetProposal(ctx, "acme", "old")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(full.Result.Schedule) != 1 {
		t.Errorf("GetProposal should return the full result")
	}
}
