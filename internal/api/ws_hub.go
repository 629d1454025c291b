package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/crmsim/consortium-engine/internal/metrics"
)

// WSMessage is a JSON message sent to WebSocket clients. CompanyID selects
// the recipients and is not sent on the wire.
type WSMessage struct {
	Type            string `json:"type"`
	CompanyID       string `json:"-"`
	ProposalID      string `json:"proposal_id"`
	LeadName        string `json:"lead_name,omitempty"`
	InstallmentType string `json:"installment_type,omitempty"`
	FinalCredit     string `json:"final_credit,omitempty"`
	TotalPaid       string `json:"total_paid,omitempty"`
	TotalCashFlow   string `json:"total_cash_flow,omitempty"`
}

type wsClient struct {
	conn      *websocket.Conn
	companyID string
}

type wsEnvelope struct {
	companyID string
	data      []byte
}

// WSHub manages WebSocket connections and pushes proposal events to the
// clients of the company that saved them.
type WSHub struct {
	clients    map[*websocket.Conn]string
	broadcast  chan wsEnvelope
	register   chan wsClient
	unregister chan *websocket.Conn
	mu         sync.RWMutex
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*websocket.Conn]string),
		broadcast:  make(chan wsEnvelope, 256),
		register:   make(chan wsClient),
		unregister: make(chan *websocket.Conn),
	}
}

// Run starts the hub's main event loop. Must be called in a goroutine.
func (h *WSHub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.conn] = c.companyID
			total := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketClients.Set(float64(total))
			slog.Info("ws client connected", "company", c.companyID, "total", total)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			total := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketClients.Set(float64(total))

		case env := <-h.broadcast:
			h.mu.Lock()
			for conn, companyID := range h.clients {
				if companyID != env.companyID {
					continue
				}
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, env.data); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			total := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketClients.Set(float64(total))
		}
	}
}

// Broadcast sends a message to the connected clients of msg.CompanyID.
func (h *WSHub) Broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- wsEnvelope{companyID: msg.CompanyID, data: data}:
	default:
		// Drop if buffer full so saving a proposal never blocks.
	}
}

// ClientCount returns the number of connected clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NewUpgrader returns an upgrader accepting the given origins. A "*" entry
// or an empty list accepts any origin.
func NewUpgrader(origins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return len(allowed) == 0 || allowed["*"] || origin == "" || allowed[origin]
		},
	}
}

// HandleWS returns the handler for WebSocket upgrades at GET /api/v1/ws.
// The caller must already be authenticated.
func (h *WSHub) HandleWS(upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, ok := requireCompany(w, r)
		if !ok {
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("ws upgrade failed", "err", err)
			return
		}

		h.register <- wsClient{conn: conn, companyID: companyID}

		// Read pump: keep connection alive and detect disconnects.
		go func() {
			defer func() { h.unregister <- conn }()
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			conn.SetPongHandler(func(string) error {
				conn.SetReadDeadline(time.Now().Add(60 * time.Second))
				return nil
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					break
				}
			}
		}()

		// Ping ticker to keep connection alive through proxies.
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for range ticker.C {
				h.mu.Lock()
				_, ok := h.clients[conn]
				var err error
				if ok {
					err = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
				}
				h.mu.Unlock()
				if !ok || err != nil {
					return
				}
			}
		}()
	}
}
