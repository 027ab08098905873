package model

import "time"

// InvoiceStatus is the payment state of an invoice.
type InvoiceStatus string

const (
	InvoiceCreated   InvoiceStatus = "created"
	InvoicePending   InvoiceStatus = "pending"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// invoiceStage orders statuses along the only direction they may move.
var invoiceStage = map[InvoiceStatus]int{
	InvoiceCreated:   0,
	InvoicePending:   1,
	InvoicePaid:      2,
	InvoiceCancelled: 2,
}

// Valid reports whether s is a known status.
func (s InvoiceStatus) Valid() bool {
	_, ok := invoiceStage[s]
	return ok
}

// IsFinal reports whether no further transition is possible.
func (s InvoiceStatus) IsFinal() bool {
	return s == InvoicePaid || s == InvoiceCancelled
}

// CanBeUpdated reports whether the amount may still change.
func (s InvoiceStatus) CanBeUpdated() bool {
	return s == InvoiceCreated || s == InvoicePending
}

// CanTransitionTo reports whether s may move to next. Statuses only move
// forward; pending may be re-entered when a new checkout link is issued.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	if !s.Valid() || !next.Valid() || s.IsFinal() {
		return false
	}
	if s == InvoicePending && next == InvoicePending {
		return true
	}
	return invoiceStage[next] > invoiceStage[s]
}

// UnpaidStatuses are the statuses that still expect money.
var UnpaidStatuses = []InvoiceStatus{InvoiceCreated, InvoicePending}

// Invoice is a student's payment obligation for a group. Amounts are in tiyin.
type Invoice struct {
	ID                 int64         `json:"id"`
	StudentID          int64         `json:"student_id"`
	StudentName        string        `json:"student_name"`
	StudentPhone       string        `json:"student_phone"`
	GroupID            int64         `json:"group_id"`
	GroupSpeciality    Speciality    `json:"group_speciality"`
	MentorID           *int64        `json:"mentor_id"`
	Amount             int64         `json:"amount"`
	Status             InvoiceStatus `json:"status"`
	MulticardUUID      *string       `json:"multicard_uuid"`
	MulticardInvoiceID *string       `json:"multicard_invoice_id"`
	CheckoutURL        *string       `json:"checkout_url"`
	ReceiptURL         *string       `json:"receipt_url"`
	PaymentTime        *time.Time    `json:"payment_time"`
	PaymentMethod      *string       `json:"payment_method"`
	CardPAN            *string       `json:"card_pan"`
	Notes              *string       `json:"notes"`
	CanBeUpdated       bool          `json:"can_be_updated"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// PaymentDetails are the gateway facts recorded when an invoice is paid.
type PaymentDetails struct {
	PaymentTime   time.Time
	ReceiptURL    string
	PaymentMethod string
	CardPAN       string
	GatewayUUID   string
}

// CreatePaymentRequest asks for a gateway checkout link.
type CreatePaymentRequest struct {
	Lang           string `json:"lang" binding:"omitempty,oneof=uz ru en"`
	ReturnURL      string `json:"return_url" binding:"omitempty,url"`
	ReturnErrorURL string `json:"return_error_url" binding:"omitempty,url"`
	SendSMS        bool   `json:"send_sms"`
}

// PaymentLink is returned once a checkout link exists.
type PaymentLink struct {
	InvoiceID   int64  `json:"invoice_id"`
	CheckoutURL string `json:"checkout_url"`
	ShortLink   string `json:"short_link,omitempty"`
	UUID        string `json:"uuid"`
}

// InvoiceStatusResult is returned by a gateway status check.
type InvoiceStatusResult struct {
	InvoiceID     int64         `json:"invoice_id"`
	Status        InvoiceStatus `json:"status"`
	GatewayStatus string        `json:"multicard_status"`
	CheckoutURL   *string       `json:"checkout_url"`
	ReceiptURL    *string       `json:"receipt_url"`
	PaymentTime   *time.Time    `json:"payment_time"`
	StatusChanged bool          `json:"status_changed"`
}

// MarkPaidRequest marks several invoices paid by hand.
type MarkPaidRequest struct {
	InvoiceIDs    []int64    `json:"invoice_ids" binding:"required,min=1,max=500,dive,min=1"`
	PaymentTime   *time.Time `json:"payment_time"`
	PaymentMethod string     `json:"payment_method" binding:"omitempty,max=50"`
}

// MarkPaidResult reports how many invoices actually changed.
type MarkPaidResult struct {
	UpdatedCount int     `json:"updated_count"`
	TotalCount   int     `json:"total_count"`
	SkippedIDs   []int64 `json:"skipped_ids"`
}

// InvoiceFilter narrows invoice listings.
type InvoiceFilter struct {
	Status    InvoiceStatus
	StudentID *int64
	GroupID   *int64
	MentorID  *int64
	Search    string
	Ordering  string
	Page      int
	Limit     int
}

// InvoiceOrderings maps the accepted ordering values to SQL.
var InvoiceOrderings = map[string]string{
	"created_at":    "i.created_at ASC, i.id ASC",
	"-created_at":   "i.created_at DESC, i.id DESC",
	"amount":        "i.amount ASC, i.id ASC",
	"-amount":       "i.amount DESC, i.id DESC",
	"payment_time":  "i.payment_time ASC NULLS LAST, i.id ASC",
	"-payment_time": "i.payment_time DESC NULLS LAST, i.id DESC",
}
