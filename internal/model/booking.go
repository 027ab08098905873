package model

// BookGroupRequest books a student into a group. StudentID is ignored for
// student self-service.
type BookGroupRequest struct {
	StudentID int64 `json:"student_id" binding:"omitempty,min=1"`
	GroupID   int64 `json:"group_id" binding:"required,min=1"`
}

// CancelBookingRequest cancels a student's booking.
type CancelBookingRequest struct {
	StudentID int64 `json:"student_id" binding:"required,min=1"`
}

// ChangeGroupRequest moves a student to another group.
type ChangeGroupRequest struct {
	StudentID  int64 `json:"student_id" binding:"required,min=1"`
	NewGroupID int64 `json:"new_group_id" binding:"required,min=1"`
}

// PaymentInfo explains the installment plan of a booking. The first
// installment is due at the midpoint lesson and the rest at the last one.
type PaymentInfo struct {
	TotalPrice        int64    `json:"total_price"`
	FirstInstallment  int64    `json:"first_installment"`
	SecondInstallment int64    `json:"second_installment"`
	MidpointLesson    *int     `json:"midpoint_lesson"`
	FinalLesson       *int     `json:"final_lesson"`
	FirstInvoice      *Invoice `json:"first_invoice"`
}

// NewPaymentInfo splits price into two installments. The first is half the
// price rounded down; the second takes the odd tiyin.
func NewPaymentInfo(price int64, totalLessons *int) PaymentInfo {
	first := FirstInstallment(price)
	info := PaymentInfo{
		TotalPrice:        price,
		FirstInstallment:  first,
		SecondInstallment: price - first,
		FinalLesson:       totalLessons,
	}
	if totalLessons != nil {
		mid := *totalLessons / 2
		info.MidpointLesson = &mid
	}
	return info
}

// FirstInstallment is the amount of the invoice raised at booking time.
func FirstInstallment(price int64) int64 {
	return price / 2
}

// Invoiceable reports whether booking at price raises an invoice. Prices
// whose first installment rounds down to zero are treated as free.
func Invoiceable(price int64) bool {
	return FirstInstallment(price) > 0
}

// RepricesInvoices reports whether moving a group from oldPrice to newPrice
// rewrites its unpaid invoices. A change to a free price leaves them as they
// are.
func RepricesInvoices(oldPrice, newPrice int64) bool {
	return newPrice != oldPrice && Invoiceable(newPrice)
}

// BookingResult is returned after a successful booking.
type BookingResult struct {
	Student     Student     `json:"student"`
	Group       GroupView   `json:"group"`
	PaymentInfo PaymentInfo `json:"payment_info"`
}

// CancelBookingResult reports a cancelled booking.
type CancelBookingResult struct {
	StudentID         int64 `json:"student_id"`
	GroupID           int64 `json:"group_id"`
	CancelledInvoices int64 `json:"cancelled_invoices"`
}

// ChangeGroupResult reports a group change and any money owed back.
type ChangeGroupResult struct {
	Student           Student     `json:"student"`
	OldGroupID        int64       `json:"old_group_id"`
	NewGroup          GroupView   `json:"new_group"`
	CancelledInvoices int64       `json:"cancelled_invoices"`
	PaidTotal         int64       `json:"paid_total"`
	PriceDifference   int64       `json:"price_difference"`
	RefundAmount      int64       `json:"refund_amount"`
	PaymentInfo       PaymentInfo `json:"payment_info"`
}
