// Package api provides the HTTP handlers for the catalog, simulations and
// saved proposals.
//
// All monetary values use shopspring/decimal.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crmsim/consortium-engine/internal/auth"
	"github.com/crmsim/consortium-engine/internal/metrics"
	"github.com/crmsim/consortium-engine/internal/model"
	"github.com/crmsim/consortium-engine/internal/simulation"
	"github.com/crmsim/consortium-engine/internal/store"
	"github.com/crmsim/consortium-engine/internal/validation"
)

// Service handles catalog, simulation and proposal requests. Handlers are
// safe for concurrent use; the memo serializes its own cache access.
type Service struct {
	store store.Store
	memo  *simulation.Memo
	wsHub *WSHub // optional WebSocket hub for real-time broadcasts
	now   func() time.Time
}

// NewService creates a new API service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(st store.Store, memo *simulation.Memo, hub *WSHub) *Service {
	return &Service{
		store: st,
		memo:  memo,
		wsHub: hub,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// --- Request/Response types ---

// SimulationRequest is the JSON body for POST /simulations/run. Catalog IDs
// take precedence over inline records; the administrator defaults to the
// product's administrator when only a product ID is given.
type SimulationRequest struct {
	AdministratorID string `json:"administrator_id,omitempty"`
	ProductID       string `json:"product_id,omitempty"`
	PropertyID      string `json:"property_id,omitempty"`

	Administrator *model.Administrator `json:"administrator,omitempty"`
	Product       *model.Product       `json:"product,omitempty"`
	Property      *model.Property      `json:"property,omitempty"`

	ContemplationMonth       int             `json:"contemplation_month"`
	InstallmentType          string          `json:"installment_type"`
	CapitalGainDiscount      decimal.Decimal `json:"capital_gain_discount"`
	CapitalGainPurchaseMonth int             `json:"capital_gain_purchase_month,omitempty"`
	EmbeddedBidPct           decimal.Decimal `json:"embedded_bid_pct"`
}

// SimulationResponse wraps a result with its resolved input.
type SimulationResponse struct {
	Input  model.SimulationInput   `json:"input"`
	Result *model.SimulationResult `json:"result"`
	Cached bool                    `json:"cached"`
}

// --- HTTP Handlers ---

// RunSimulation handles POST /api/v1/simulations/run.
// The result is not persisted.
func (s *Service) RunSimulation(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}

	var req SimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	in, err := s.resolveInput(r.Context(), companyID, req)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	result, hit := s.simulate(in)

	slog.Info("simulation run",
		"company", companyID,
		"credit", in.Product.NominalCreditValue.String(),
		"term", in.Product.TermMonths,
		"contemplation", in.ContemplationMonth,
		"installment_type", string(in.InstallmentType),
		"cached", hit,
	)

	writeJSON(w, http.StatusOK, SimulationResponse{Input: in, Result: result, Cached: hit})
}

// simulate runs the engine through the memo and records metrics.
func (s *Service) simulate(in model.SimulationInput) (*model.SimulationResult, bool) {
	start := time.Now()
	result, hit := s.memo.Run(in)
	metrics.SimulationLatency.Observe(time.Since(start).Seconds())
	metrics.SimulationsTotal.WithLabelValues(string(in.InstallmentType)).Inc()
	metrics.MemoLookups.WithLabelValues(metrics.MemoOutcome(hit)).Inc()
	return result, hit
}

var errMissingConfig = errors.New("administrator and product are required (inline or by id)")

// resolveInput loads catalog records and validates the assembled input.
func (s *Service) resolveInput(ctx context.Context, companyID string, req SimulationRequest) (model.SimulationInput, error) {
	var in model.SimulationInput

	switch {
	case req.ProductID != "":
		p, err := s.store.GetProduct(ctx, companyID, req.ProductID)
		if err != nil {
			return in, err
		}
		in.Product = *p
		if req.AdministratorID == "" && req.Administrator == nil {
			req.AdministratorID = p.AdministratorID
		}
	case req.Product != nil:
		in.Product = *req.Product
	default:
		return in, errMissingConfig
	}

	switch {
	case req.AdministratorID != "":
		a, err := s.store.GetAdministrator(ctx, companyID, req.AdministratorID)
		if err != nil {
			return in, err
		}
		in.Administrator = *a
	case req.Administrator != nil:
		in.Administrator = *req.Administrator
		idx, err := validation.ParseIndex(string(in.Administrator.UpdateIndex))
		if err != nil {
			return in, err
		}
		in.Administrator.UpdateIndex = idx
	default:
		return in, errMissingConfig
	}

	switch {
	case req.PropertyID != "":
		p, err := s.store.GetProperty(ctx, companyID, req.PropertyID)
		if err != nil {
			return in, err
		}
		in.Property = p
	case req.Property != nil:
		in.Property = req.Property
	}

	installmentType, err := validation.ParseInstallmentType(req.InstallmentType)
	if err != nil {
		return in, err
	}
	in.InstallmentType = installmentType
	in.ContemplationMonth = req.ContemplationMonth
	in.CapitalGainDiscount = req.CapitalGainDiscount
	in.CapitalGainPurchaseMonth = req.CapitalGainPurchaseMonth
	in.EmbeddedBidPct = req.EmbeddedBidPct

	if err := validation.Input(in); err != nil {
		return in, err
	}
	return in, nil
}

// writeResolveError maps input resolution failures to status codes.
func writeResolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, errMissingConfig), validation.IsRejection(err):
		metrics.ValidationRejections.Inc()
		writeError(w, err.Error(), http.StatusBadRequest)
	default:
		slog.Error("resolve simulation input", "err", err)
		writeError(w, "failed to load simulation input", http.StatusInternalServerError)
	}
}

// requireCompany reads the caller's company from the request context.
func requireCompany(w http.ResponseWriter, r *http.Request) (string, bool) {
	companyID := auth.CompanyIDFromContext(r.Context())
	if companyID == "" {
		writeError(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return companyID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
