package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crmsim/consortium-engine/internal/model"
	"github.com/crmsim/consortium-engine/internal/store"
	"github.com/crmsim/consortium-engine/internal/validation"
)

// CreateAdministrator handles POST /api/v1/administrators
func (s *Service) CreateAdministrator(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}

	var a model.Administrator
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	idx, err := validation.ParseIndex(string(a.UpdateIndex))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.UpdateIndex = idx
	if err := validation.Administrator(a); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	a.ID = uuid.New().String()
	a.CompanyID = companyID
	a.CreatedAt = s.now()
	if a.AvailableBidTypes == nil {
		a.AvailableBidTypes = []model.BidType{}
	}

	if err := s.store.CreateAdministrator(r.Context(), &a); err != nil {
		slog.Error("create administrator", "company", companyID, "err", err)
		writeError(w, "failed to create administrator", http.StatusInternalServerError)
		return
	}

	slog.Info("administrator created",
		"id", a.ID,
		"company", companyID,
		"index", string(a.UpdateIndex),
		"update_month", a.UpdateMonth,
	)
	writeJSON(w, http.StatusCreated, a)
}

// ListAdministrators handles GET /api/v1/administrators
func (s *Service) ListAdministrators(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}
	list, err := s.store.ListAdministrators(r.Context(), companyID)
	if err != nil {
		writeError(w, "failed to list administrators", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetAdministrator handles GET /api/v1/administrators/{id}
func (s *Service) GetAdministrator(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}
	a, err := s.store.GetAdministrator(r.Context(), companyID, chi.URLParam(r, "id"))
	if err != nil {
		writeLookupError(w, "administrator", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// CreateProduct handles POST /api/v1/products
// The referenced administrator must belong to the same company.
func (s *Service) CreateProduct(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}

	var p model.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.Product(p); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if _, err := s.store.GetAdministrator(ctx, companyID, p.AdministratorID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "unknown administrator_id: "+p.AdministratorID, http.StatusBadRequest)
			return
		}
		writeError(w, "failed to load administrator", http.StatusInternalServerError)
		return
	}

	p.ID = uuid.New().String()
	p.CompanyID = companyID
	p.CreatedAt = s.now()

	if err := s.store.CreateProduct(ctx, &p); err != nil {
		slog.Error("create product", "company", companyID, "err", err)
		writeError(w, "failed to create product", http.StatusInternalServerError)
		return
	}

	slog.Info("product created",
		"id", p.ID,
		"company", companyID,
		"administrator", p.AdministratorID,
		"credit", p.NominalCreditValue.String(),
		"term", p.TermMonths,
	)
	writeJSON(w, http.StatusCreated, p)
}

// ListProducts handles GET /api/v1/products
func (s *Service) ListProducts(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}
	list, err := s.store.ListProducts(r.Context(), companyID)
	if err != nil {
		writeError(w, "failed to list products", http.StatusInternalServerError)
		return
	}

	// Optional filter by administrator.
	if adminID := r.URL.Query().Get("administrator_id"); adminID != "" {
		filtered := []model.Product{}
		for _, p := range list {
			if p.AdministratorID == adminID {
				filtered = append(filtered, p)
			}
		}
		list = filtered
	}
	writeJSON(w, http.StatusOK, list)
}

// GetProduct handles GET /api/v1/products/{id}
func (s *Service) GetProduct(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}
	p, err := s.store.GetProduct(r.Context(), companyID, chi.URLParam(r, "id"))
	if err != nil {
		writeLookupError(w, "product", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreateProperty handles POST /api/v1/properties
func (s *Service) CreateProperty(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}

	var p model.Property
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.Property(p); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	p.ID = uuid.New().String()
	p.CompanyID = companyID
	p.CreatedAt = s.now()

	if err := s.store.CreateProperty(r.Context(), &p); err != nil {
		slog.Error("create property", "company", companyID, "err", err)
		writeError(w, "failed to create property", http.StatusInternalServerError)
		return
	}

	slog.Info("property created",
		"id", p.ID,
		"company", companyID,
		"type", string(p.Type),
	)
	writeJSON(w, http.StatusCreated, p)
}

// ListProperties handles GET /api/v1/properties
func (s *Service) ListProperties(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}
	list, err := s.store.ListProperties(r.Context(), companyID)
	if err != nil {
		writeError(w, "failed to list properties", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetProperty handles GET /api/v1/properties/{id}
func (s *Service) GetProperty(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}
	p, err := s.store.GetProperty(r.Context(), companyID, chi.URLParam(r, "id"))
	if err != nil {
		writeLookupError(w, "property", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func writeLookupError(w http.ResponseWriter, kind string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, kind+" not found", http.StatusNotFound)
		return
	}
	slog.Error("lookup failed", "kind", kind, "err", err)
	writeError(w, "failed to load "+kind, http.StatusInternalServerError)
}
