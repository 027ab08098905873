package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/config"
	"github.com/bimuz/bimuz-backend/internal/database"
	"github.com/bimuz/bimuz-backend/internal/logger"
	"github.com/bimuz/bimuz-backend/internal/model"
	"github.com/bimuz/bimuz-backend/internal/payment"
	"github.com/bimuz/bimuz-backend/internal/repository"
)

// Sentinel errors for invoices.
var (
	ErrInvoicePaid        = errors.New("invoice is already paid")
	ErrInvoiceCancelled   = errors.New("invoice is cancelled")
	ErrInvalidTransition  = errors.New("invalid invoice status transition")
	ErrNoGatewayInvoice   = errors.New("invoice has no gateway checkout")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrNothingToPay       = errors.New("invoice amount is zero")
)

// defaultManualMethod is recorded when staff mark an invoice paid by hand.
const defaultManualMethod = "manual"

// Gateway is the subset of the payment client the invoice flow needs.
type Gateway interface {
	Configured() bool
	CreateInvoice(ctx context.Context, p payment.CreateInvoiceParams) (*payment.CreatedInvoice, error)
	GetInvoice(ctx context.Context, uuid string) (*payment.InvoiceInfo, error)
	CancelInvoice(ctx context.Context, uuid string) error
}

// NotificationResult is what the gateway receives back from a callback or
// webhook. The HTTP status is always 200 so the gateway does not retry.
type NotificationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// InvoiceService owns the invoice state machine and the gateway flows.
type InvoiceService struct {
	db       database.TxRunner
	invoices *repository.InvoiceRepository
	gateway  Gateway
	events   EventPublisher
	cfg      *config.Config
	log      zerolog.Logger
	now      func() time.Time
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(db database.TxRunner, invoices *repository.InvoiceRepository, gateway Gateway,
	events EventPublisher, cfg *config.Config, log zerolog.Logger) *InvoiceService {
	return &InvoiceService{
		db:       db,
		invoices: invoices,
		gateway:  gateway,
		events:   events,
		cfg:      cfg,
		log:      logger.Component(log, "invoice_service"),
		now:      time.Now,
	}
}

// List returns a page of invoices visible in scope.
func (s *InvoiceService) List(ctx context.Context, f model.InvoiceFilter, scope Scope) ([]model.Invoice, int, error) {
	if scope.MentorID != nil {
		f.MentorID = scope.MentorID
	}
	if scope.StudentID != nil {
		f.StudentID = scope.StudentID
	}
	if f.Limit <= 0 {
		f.Limit = s.cfg.PageSize
	}
	return s.invoices.List(ctx, f)
}

// Get returns one invoice. Invoices outside the scope are reported as missing.
func (s *InvoiceService) Get(ctx context.Context, id int64, scope Scope) (*model.Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.AllowsInvoice(inv) {
		return nil, repository.ErrNotFound
	}
	return inv, nil
}

// CreatePayment opens a gateway checkout for the invoice and moves it to
// pending. Asking again while pending issues a fresh checkout.
func (s *InvoiceService) CreatePayment(ctx context.Context, id int64, scope Scope, req model.CreatePaymentRequest) (*model.PaymentLink, error) {
	inv, err := s.Get(ctx, id, scope)
	if err != nil {
		return nil, err
	}
	if err := checkCheckout(inv); err != nil {
		return nil, err
	}
	if !s.gateway.Configured() {
		return nil, ErrGatewayUnavailable
	}

	params := payment.CreateInvoiceParams{
		InvoiceID:      strconv.FormatInt(inv.ID, 10),
		Amount:         inv.Amount,
		Lang:           req.Lang,
		ReturnURL:      req.ReturnURL,
		ReturnErrorURL: req.ReturnErrorURL,
	}
	if params.Lang == "" {
		params.Lang = "ru"
	}
	if req.SendSMS {
		params.SMS = payment.SMSPhone(inv.StudentPhone)
	}

	// The gateway call happens outside the transaction so a slow gateway
	// never holds the row lock.
	created, err := s.gateway.CreateInvoice(ctx, params)
	if err != nil {
		s.log.Error().Err(err).Int64("invoice_id", inv.ID).Msg("Gateway rejected checkout")
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	var from model.InvoiceStatus
	err = database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		repo := s.invoices.WithTx(tx)
		locked, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		// A callback may have settled the invoice while we were waiting.
		if err := checkCheckout(locked); err != nil {
			return err
		}
		from = locked.Status
		return repo.SetCheckout(ctx, id, created.UUID, params.InvoiceID, created.CheckoutURL)
	})
	if err != nil {
		return nil, err
	}

	if from != model.InvoicePending {
		s.publish(ctx, inv, from, model.InvoicePending, model.EventSourceCheckout)
	}
	s.log.Info().Int64("invoice_id", inv.ID).Str("uuid", created.UUID).Int64("amount", inv.Amount).Msg("Checkout created")

	return &model.PaymentLink{
		InvoiceID:   inv.ID,
		CheckoutURL: created.CheckoutURL,
		ShortLink:   created.ShortLink,
		UUID:        created.UUID,
	}, nil
}

// checkCheckout refuses checkouts for settled invoices and for amounts the
// gateway would reject.
func checkCheckout(inv *model.Invoice) error {
	if err := checkPayable(inv.Status); err != nil {
		return err
	}
	if inv.Amount <= 0 {
		return ErrNothingToPay
	}
	return nil
}

func checkPayable(status model.InvoiceStatus) error {
	switch status {
	case model.InvoicePaid:
		return ErrInvoicePaid
	case model.InvoiceCancelled:
		return ErrInvoiceCancelled
	}
	return nil
}

// CheckStatus asks the gateway for the invoice's checkout state and applies it.
func (s *InvoiceService) CheckStatus(ctx context.Context, id int64, scope Scope) (*model.InvoiceStatusResult, error) {
	inv, err := s.Get(ctx, id, scope)
	if err != nil {
		return nil, err
	}
	if inv.MulticardUUID == nil || *inv.MulticardUUID == "" {
		return nil, ErrNoGatewayInvoice
	}
	return s.syncFromGateway(ctx, inv, model.EventSourceGateway)
}

// SyncPending reconciles one pending invoice with the gateway. Used by the
// invoice sync worker; the invoice is touched when nothing changed so the
// worker rotates through the backlog.
func (s *InvoiceService) SyncPending(ctx context.Context, inv *model.Invoice) (*model.InvoiceStatusResult, error) {
	res, err := s.syncFromGateway(ctx, inv, model.EventSourceSync)
	if err != nil {
		_ = s.invoices.Touch(ctx, inv.ID)
		return nil, err
	}
	if !res.StatusChanged {
		if err := s.invoices.Touch(ctx, inv.ID); err != nil {
			return res, err
		}
	}
	return res, nil
}

// StalePending lists pending checkouts untouched for at least minAge.
func (s *InvoiceService) StalePending(ctx context.Context, minAge time.Duration, limit int) ([]model.Invoice, error) {
	return s.invoices.ListStalePending(ctx, s.now().Add(-minAge), limit)
}

func (s *InvoiceService) syncFromGateway(ctx context.Context, inv *model.Invoice, source string) (*model.InvoiceStatusResult, error) {
	info, err := s.gateway.GetInvoice(ctx, *inv.MulticardUUID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	res := &model.InvoiceStatusResult{
		InvoiceID:     inv.ID,
		Status:        inv.Status,
		GatewayStatus: info.Payment.Status,
		CheckoutURL:   inv.CheckoutURL,
		ReceiptURL:    inv.ReceiptURL,
		PaymentTime:   inv.PaymentTime,
	}

	target, ok := payment.MapStatus(info.Payment.Status)
	if !ok {
		s.log.Warn().Int64("invoice_id", inv.ID).Str("gateway_status", info.Payment.Status).Msg("Ignoring unmapped gateway status")
		return res, nil
	}

	details := model.PaymentDetails{
		PaymentTime:   payment.ParsePaymentTime(info.Payment.PaymentTime, s.cfg.Location),
		ReceiptURL:    firstNonEmpty(info.Payment.ReceiptURL, info.ReceiptURL),
		PaymentMethod: info.Payment.PS,
		CardPAN:       info.Payment.CardPAN,
	}
	updated, changed, err := s.transition(ctx, func(repo *repository.InvoiceRepository) (*model.Invoice, error) {
		return repo.GetByIDForUpdate(ctx, inv.ID)
	}, target, details, source)
	if err != nil {
		// A stale local view that cannot move is not an error for a poll.
		if errors.Is(err, ErrInvalidTransition) {
			return res, nil
		}
		return nil, err
	}

	res.Status = updated.Status
	res.StatusChanged = changed
	res.ReceiptURL = updated.ReceiptURL
	res.PaymentTime = updated.PaymentTime
	return res, nil
}

// transition locks an invoice through lock and moves it to target inside
// one transaction. changed is false when the invoice was already there.
func (s *InvoiceService) transition(ctx context.Context, lock func(*repository.InvoiceRepository) (*model.Invoice, error),
	target model.InvoiceStatus, details model.PaymentDetails, source string) (*model.Invoice, bool, error) {
	var (
		before  *model.Invoice
		changed bool
	)
	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		repo := s.invoices.WithTx(tx)
		inv, err := lock(repo)
		if err != nil {
			return err
		}
		before = inv
		if inv.Status == target {
			return nil
		}
		if !inv.Status.CanTransitionTo(target) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inv.Status, target)
		}

		if target == model.InvoicePaid {
			if details.PaymentTime.IsZero() {
				details.PaymentTime = s.now()
			}
			err = repo.MarkPaid(ctx, inv.ID, details)
		} else {
			err = repo.SetStatus(ctx, inv.ID, target)
		}
		if err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if changed {
		s.publish(ctx, before, before.Status, target, source)
	}
	after, err := s.invoices.GetByID(ctx, before.ID)
	if err != nil {
		return nil, changed, err
	}
	return after, changed, nil
}

// HandleCallback processes the gateway's success callback. Only success or
// paid statuses change anything; others are acknowledged.
func (s *InvoiceService) HandleCallback(ctx context.Context, n payment.Notification) NotificationResult {
	log := s.log.With().Str("notification", "callback").Str("invoice_id", n.InvoiceID).Str("uuid", n.UUID).Logger()

	if n.InvoiceID == "" || n.UUID == "" {
		log.Warn().Msg("Callback without uuid or invoice_id")
		return NotificationResult{Message: "Missing required parameters"}
	}
	if s.cfg.Multicard.VerifySign &&
		!payment.VerifyCallbackSign(s.cfg.Multicard.StoreID, n.InvoiceID, n.Amount, s.cfg.Multicard.Secret, n.Sign) {
		log.Warn().Msg("Callback signature mismatch")
		return NotificationResult{Message: "Invalid signature"}
	}

	target, ok := payment.MapStatus(n.Status)
	if n.Status == "" {
		target, ok = model.InvoicePaid, true
	}
	if !ok || target != model.InvoicePaid {
		log.Info().Str("status", n.Status).Msg("Callback acknowledged without status change")
		return NotificationResult{Success: true, Message: "Callback received"}
	}

	return s.applyNotification(ctx, log, n, target, func(repo *repository.InvoiceRepository) (*model.Invoice, error) {
		return repo.GetByGatewayInvoiceIDForUpdate(ctx, n.InvoiceID)
	})
}

// HandleWebhook processes a gateway status webhook.
func (s *InvoiceService) HandleWebhook(ctx context.Context, n payment.Notification) NotificationResult {
	log := s.log.With().Str("notification", "webhook").Str("invoice_id", n.InvoiceID).Str("uuid", n.UUID).Logger()

	if n.InvoiceID == "" || n.UUID == "" {
		log.Warn().Msg("Webhook without uuid or invoice_id")
		return NotificationResult{Message: "Missing required parameters"}
	}
	if s.cfg.Multicard.VerifySign &&
		!payment.VerifyWebhookSign(n.UUID, n.InvoiceID, n.Amount, s.cfg.Multicard.Secret, n.Sign) {
		log.Warn().Msg("Webhook signature mismatch")
		return NotificationResult{Message: "Invalid signature"}
	}

	target, ok := payment.MapStatus(n.Status)
	if !ok {
		// There is no refund state, so a revert is only recorded in the log.
		log.Warn().Str("status", n.Status).Msg("Webhook status has no local equivalent, ignoring")
		return NotificationResult{Success: true, Message: "Webhook received"}
	}

	return s.applyNotification(ctx, log, n, target, func(repo *repository.InvoiceRepository) (*model.Invoice, error) {
		inv, err := repo.GetByGatewayInvoiceIDForUpdate(ctx, n.InvoiceID)
		if errors.Is(err, repository.ErrNotFound) {
			return repo.GetByGatewayUUIDForUpdate(ctx, n.UUID)
		}
		return inv, err
	})
}

func (s *InvoiceService) applyNotification(ctx context.Context, log zerolog.Logger, n payment.Notification,
	target model.InvoiceStatus, lock func(*repository.InvoiceRepository) (*model.Invoice, error)) NotificationResult {
	details := model.PaymentDetails{
		PaymentTime:   payment.ParsePaymentTime(n.PaymentTime, s.cfg.Location),
		ReceiptURL:    n.ReceiptURL,
		PaymentMethod: n.Method(),
		CardPAN:       n.CardPAN,
		GatewayUUID:   n.UUID,
	}

	inv, changed, err := s.transition(ctx, lock, target, details, model.EventSourceGateway)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		log.Warn().Msg("Notification for unknown invoice")
		return NotificationResult{Message: "Invoice not found"}
	case errors.Is(err, ErrInvalidTransition):
		log.Info().Err(err).Msg("Notification does not move the invoice")
		return NotificationResult{Success: true, Message: "Status not applied"}
	case err != nil:
		log.Error().Err(err).Msg("Failed to apply notification")
		return NotificationResult{Message: "Error processing notification"}
	}

	if inv.Amount != n.Amount && n.Amount != 0 {
		log.Warn().Int64("expected", inv.Amount).Int64("got", n.Amount).Msg("Notification amount differs from invoice")
	}
	if !changed {
		return NotificationResult{Success: true, Message: "Status unchanged"}
	}
	log.Info().Str("status", string(inv.Status)).Msg("Invoice updated from gateway")
	return NotificationResult{Success: true, Message: "Invoice status updated"}
}

// MarkPaid marks invoices paid by hand. Invoices that are missing, already
// paid or cancelled are skipped rather than failing the batch.
func (s *InvoiceService) MarkPaid(ctx context.Context, req model.MarkPaidRequest) (*model.MarkPaidResult, error) {
	details := model.PaymentDetails{PaymentMethod: req.PaymentMethod}
	if details.PaymentMethod == "" {
		details.PaymentMethod = defaultManualMethod
	}
	if req.PaymentTime != nil {
		details.PaymentTime = *req.PaymentTime
	}

	res := &model.MarkPaidResult{TotalCount: len(req.InvoiceIDs), SkippedIDs: []int64{}}
	seen := make(map[int64]bool, len(req.InvoiceIDs))
	for _, id := range req.InvoiceIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		_, changed, err := s.transition(ctx, func(repo *repository.InvoiceRepository) (*model.Invoice, error) {
			return repo.GetByIDForUpdate(ctx, id)
		}, model.InvoicePaid, details, model.EventSourceManual)
		switch {
		case err == nil && changed:
			res.UpdatedCount++
		case err == nil, errors.Is(err, repository.ErrNotFound), errors.Is(err, ErrInvalidTransition):
			res.SkippedIDs = append(res.SkippedIDs, id)
		default:
			return nil, err
		}
	}

	s.log.Info().Int("updated", res.UpdatedCount).Int("total", res.TotalCount).Msg("Invoices marked paid")
	return res, nil
}

// Cancel cancels an unpaid invoice and its gateway checkout, if any.
func (s *InvoiceService) Cancel(ctx context.Context, id int64) (*model.Invoice, error) {
	inv, _, err := s.transition(ctx, func(repo *repository.InvoiceRepository) (*model.Invoice, error) {
		inv, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := checkPayable(inv.Status); err != nil {
			return nil, err
		}
		return inv, nil
	}, model.InvoiceCancelled, model.PaymentDetails{}, model.EventSourceManual)
	if err != nil {
		return nil, err
	}

	s.cancelCheckout(ctx, inv.ID, inv.MulticardUUID)
	return inv, nil
}

// cancelCheckout closes the gateway side of a cancelled invoice. Failures
// are logged: the local cancellation already stands.
func (s *InvoiceService) cancelCheckout(ctx context.Context, invoiceID int64, uuid *string) {
	if uuid == nil || *uuid == "" || !s.gateway.Configured() {
		return
	}
	if err := s.gateway.CancelInvoice(ctx, *uuid); err != nil {
		s.log.Warn().Err(err).Int64("invoice_id", invoiceID).Str("uuid", *uuid).Msg("Failed to cancel gateway checkout")
	}
}

// CancelledByBooking publishes and closes gateway checkouts for invoices
// cancelled as part of a booking change. Each invoice carries the status it
// had before the cancellation.
func (s *InvoiceService) CancelledByBooking(ctx context.Context, cancelled []model.Invoice) {
	for i := range cancelled {
		inv := &cancelled[i]
		s.publish(ctx, inv, inv.Status, model.InvoiceCancelled, model.EventSourceBooking)
		s.cancelCheckout(ctx, inv.ID, inv.MulticardUUID)
	}
}

// Created publishes the creation of a new invoice.
func (s *InvoiceService) Created(ctx context.Context, inv *model.Invoice) {
	s.publish(ctx, inv, "", model.InvoiceCreated, model.EventSourceBooking)
}

func (s *InvoiceService) publish(ctx context.Context, inv *model.Invoice, from, to model.InvoiceStatus, source string) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, model.InvoiceEvent{
		InvoiceID: inv.ID,
		StudentID: inv.StudentID,
		GroupID:   inv.GroupID,
		MentorID:  inv.MentorID,
		Amount:    inv.Amount,
		From:      from,
		To:        to,
		Source:    source,
		At:        s.now(),
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
