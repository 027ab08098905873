package websocket

import "github.com/bimuz/bimuz-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError         Event = "error"
	EventConnected     Event = "connected"
	EventInvoiceStatus Event = "invoice_status"
	EventPong          Event = "pong"
)

// ConnectedResponse greets a freshly upgraded connection.
type ConnectedResponse struct {
	Event    Event  `json:"event"`
	Employee int64  `json:"employee_id"`
	Scope    string `json:"scope"`
}

// InvoiceStatusResponse carries one invoice status change.
type InvoiceStatusResponse struct {
	Event   Event              `json:"event"`
	Invoice model.InvoiceEvent `json:"invoice"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
