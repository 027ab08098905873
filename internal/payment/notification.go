package payment

// Notification is a status push from the gateway. The success callback and
// the status webhook share this shape; the callback names the payment
// system payment_method while the webhook calls it ps.
type Notification struct {
	UUID          string `json:"uuid" form:"uuid"`
	InvoiceID     string `json:"invoice_id" form:"invoice_id"`
	Status        string `json:"status" form:"status"`
	Amount        int64  `json:"amount" form:"amount"`
	Sign          string `json:"sign" form:"sign"`
	PaymentTime   string `json:"payment_time" form:"payment_time"`
	ReceiptURL    string `json:"receipt_url" form:"receipt_url"`
	PaymentMethod string `json:"payment_method" form:"payment_method"`
	PS            string `json:"ps" form:"ps"`
	CardPAN       string `json:"card_pan" form:"card_pan"`
}

// Method returns the payment system reported by either notification kind.
func (n Notification) Method() string {
	if n.PaymentMethod != "" {
		return n.PaymentMethod
	}
	return n.PS
}
