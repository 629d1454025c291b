package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crmsim/consortium-engine/internal/export"
	"github.com/crmsim/consortium-engine/internal/metrics"
	"github.com/crmsim/consortium-engine/internal/model"
)

// ProposalRequest is the JSON body for POST /api/v1/proposals.
type ProposalRequest struct {
	LeadName string `json:"lead_name"`
	SimulationRequest
}

// CreateProposal handles POST /api/v1/proposals
// Runs the simulation, persists the proposal and broadcasts it to the
// company's WebSocket clients.
func (s *Service) CreateProposal(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}

	var req ProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.LeadName = strings.TrimSpace(req.LeadName)
	if req.LeadName == "" {
		writeError(w, "lead_name is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	in, err := s.resolveInput(ctx, companyID, req.SimulationRequest)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	result, _ := s.simulate(in)

	proposal := &model.Proposal{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		LeadName:  req.LeadName,
		Input:     in,
		Result:    *result,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateProposal(ctx, proposal); err != nil {
		slog.Error("save proposal", "company", companyID, "err", err)
		writeError(w, "failed to save proposal", http.StatusInternalServerError)
		return
	}
	metrics.ProposalsSaved.Inc()

	slog.Info("proposal saved",
		"id", proposal.ID,
		"company", companyID,
		"lead", proposal.LeadName,
		"final_credit", result.Summary.FinalCreditValue.String(),
		"total_paid", result.Summary.TotalPaidByConsortium.String(),
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:            "proposal_saved",
			CompanyID:       companyID,
			ProposalID:      proposal.ID,
			LeadName:        proposal.LeadName,
			InstallmentType: string(in.InstallmentType),
			FinalCredit:     result.Summary.FinalCreditValue.StringFixed(2),
			TotalPaid:       result.Summary.TotalPaidByConsortium.StringFixed(2),
			TotalCashFlow:   result.Summary.TotalCashFlow.StringFixed(2),
		})
	}

	writeJSON(w, http.StatusCreated, proposal)
}

// ListProposals handles GET /api/v1/proposals
// Listed proposals carry only their summary indicators.
func (s *Service) ListProposals(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}
	list, err := s.store.ListProposals(r.Context(), companyID)
	if err != nil {
		writeError(w, "failed to list proposals", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetProposal handles GET /api/v1/proposals/{id}
func (s *Service) GetProposal(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}
	p, err := s.store.GetProposal(r.Context(), companyID, chi.URLParam(r, "id"))
	if err != nil {
		writeLookupError(w, "proposal", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ExportProposalXLSX handles GET /api/v1/proposals/{id}/export.xlsx
func (s *Service) ExportProposalXLSX(w http.ResponseWriter, r *http.Request) {
	s.exportProposal(w, r, "xlsx",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		export.BuildProposalXLSX)
}

// ExportProposalPDF handles GET /api/v1/proposals/{id}/export.pdf
func (s *Service) ExportProposalPDF(w http.ResponseWriter, r *http.Request) {
	s.exportProposal(w, r, "pdf", "application/pdf", export.BuildProposalPDF)
}

func (s *Service) exportProposal(w http.ResponseWriter, r *http.Request, format, contentType string,
	build func(*model.Proposal) ([]byte, error)) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}
	p, err := s.store.GetProposal(r.Context(), companyID, chi.URLParam(r, "id"))
	if err != nil {
		writeLookupError(w, "proposal", err)
		return
	}

	data, err := build(p)
	if err != nil {
		slog.Error("export proposal", "id", p.ID, "format", format, "err", err)
		writeError(w, "failed to export proposal", http.StatusInternalServerError)
		return
	}
	metrics.ExportsTotal.WithLabelValues(format).Inc()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="proposal-`+p.ID+`.`+format+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
