package model

import "time"

// InvoiceEvent is published whenever an invoice changes status.
type InvoiceEvent struct {
	InvoiceID int64         `json:"invoice_id"`
	StudentID int64         `json:"student_id"`
	GroupID   int64         `json:"group_id"`
	MentorID  *int64        `json:"mentor_id,omitempty"`
	Amount    int64         `json:"amount"`
	From      InvoiceStatus `json:"from"`
	To        InvoiceStatus `json:"to"`
	Source    string        `json:"source"`
	At        time.Time     `json:"at"`
}

// Event sources.
const (
	EventSourceGateway  = "gateway"
	EventSourceManual   = "manual"
	EventSourceBooking  = "booking"
	EventSourceSync     = "sync"
	EventSourceCheckout = "checkout"
)
