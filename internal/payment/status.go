package payment

import (
	"strings"
	"time"

	"github.com/bimuz/bimuz-backend/internal/model"
)

// Gateway payment statuses.
const (
	StatusDraft    = "draft"
	StatusProgress = "progress"
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusRevert   = "revert"
)

// MapStatus translates a gateway status into an invoice status. ok is false
// for statuses with no local equivalent, such as a revert.
func MapStatus(gateway string) (status model.InvoiceStatus, ok bool) {
	switch strings.ToLower(strings.TrimSpace(gateway)) {
	case StatusDraft:
		return model.InvoiceCreated, true
	case StatusProgress:
		return model.InvoicePending, true
	case StatusSuccess, "paid":
		return model.InvoicePaid, true
	case StatusError:
		return model.InvoiceCancelled, true
	default:
		return "", false
	}
}

// paymentTimeLayouts are the formats the gateway uses for payment_time.
var paymentTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// ParsePaymentTime parses a gateway timestamp. Zone-less values are read in
// loc. The zero time is returned for empty or unknown input.
func ParsePaymentTime(s string, loc *time.Location) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range paymentTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

// SMSPhone normalizes a phone number to the 998XXXXXXXXX form the gateway
// accepts. It returns "" for numbers outside Uzbekistan.
func SMSPhone(phone string) string {
	r := strings.NewReplacer("+", "", " ", "", "-", "", "(", "", ")", "")
	p := r.Replace(phone)
	if strings.HasPrefix(p, "998") && len(p) == 12 {
		return p
	}
	return ""
}
