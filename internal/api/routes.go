package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// Mount registers the /api/v1 routes on r. Without a hub the WebSocket
// endpoint is not exposed.
func (s *Service) Mount(r chi.Router, upgrader websocket.Upgrader) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/administrators", s.CreateAdministrator)
		r.Get("/administrators", s.ListAdministrators)
		r.Get("/administrators/{id}", s.GetAdministrator)

		r.Post("/products", s.CreateProduct)
		r.Get("/products", s.ListProducts)
		r.Get("/products/{id}", s.GetProduct)

		r.Post("/properties", s.CreateProperty)
		r.Get("/properties", s.ListProperties)
		r.Get("/properties/{id}", s.GetProperty)

		r.Post("/simulations/run", s.RunSimulation)

		r.Post("/proposals", s.CreateProposal)
		r.Get("/proposals", s.ListProposals)
		r.Get("/proposals/{id}", s.GetProposal)
		r.Get("/proposals/{id}/export.xlsx", s.ExportProposalXLSX)
		r.Get("/proposals/{id}/export.pdf", s.ExportProposalPDF)

		if s.wsHub != nil {
			r.Get("/ws", s.wsHub.HandleWS(upgrader))
		}
	})
}
