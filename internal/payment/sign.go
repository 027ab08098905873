package payment

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"strings"
)

// CallbackSign computes md5(store_id + invoice_id + amount + secret), the
// signature the gateway attaches to success callbacks.
func CallbackSign(storeID, invoiceID string, amount int64, secret string) string {
	sum := md5.Sum([]byte(storeID + invoiceID + strconv.FormatInt(amount, 10) + secret))
	return hex.EncodeToString(sum[:])
}

// WebhookSign computes sha1(uuid + invoice_id + amount + secret), the
// signature of status webhooks.
func WebhookSign(uuid, invoiceID string, amount int64, secret string) string {
	sum := sha1.Sum([]byte(uuid + invoiceID + strconv.FormatInt(amount, 10) + secret))
	return hex.EncodeToString(sum[:])
}

// VerifyCallbackSign checks a callback signature case-insensitively.
func VerifyCallbackSign(storeID, invoiceID string, amount int64, secret, sign string) bool {
	return equalHex(CallbackSign(storeID, invoiceID, amount, secret), sign)
}

// VerifyWebhookSign checks a webhook signature case-insensitively.
func VerifyWebhookSign(uuid, invoiceID string, amount int64, secret, sign string) bool {
	return equalHex(WebhookSign(uuid, invoiceID, amount, secret), sign)
}

func equalHex(expected, got string) bool {
	got = strings.ToLower(strings.TrimSpace(got))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}
