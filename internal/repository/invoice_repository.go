package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bimuz/bimuz-backend/internal/model"
)

const invoiceSelect = `SELECT i.id, i.student_id, s.full_name, s.phone, i.group_id, g.speciality, g.mentor_id,
	i.amount, i.status, i.multicard_uuid, i.multicard_invoice_id, i.checkout_url, i.receipt_url,
	i.payment_time, i.payment_method, i.card_pan, i.notes, i.created_at, i.updated_at
FROM invoices i
JOIN students s ON s.id = i.student_id
JOIN groups g ON g.id = i.group_id`

// InvoiceRepository handles invoice data access.
type InvoiceRepository struct {
	db DBTX
}

// NewInvoiceRepository creates a new InvoiceRepository.
func NewInvoiceRepository(pool *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{db: pool}
}

// WithTx returns a copy bound to tx.
func (r *InvoiceRepository) WithTx(tx pgx.Tx) *InvoiceRepository {
	return &InvoiceRepository{db: tx}
}

func scanInvoice(row pgx.Row) (*model.Invoice, error) {
	inv := &model.Invoice{}
	err := row.Scan(&inv.ID, &inv.StudentID, &inv.StudentName, &inv.StudentPhone, &inv.GroupID,
		&inv.GroupSpeciality, &inv.MentorID, &inv.Amount, &inv.Status, &inv.MulticardUUID,
		&inv.MulticardInvoiceID, &inv.CheckoutURL, &inv.ReceiptURL, &inv.PaymentTime,
		&inv.PaymentMethod, &inv.CardPAN, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, mapErr(err, nil)
	}
	inv.CanBeUpdated = inv.Status.CanBeUpdated()
	return inv, nil
}

// GetByID retrieves an invoice by ID.
func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*model.Invoice, error) {
	return scanInvoice(r.db.QueryRow(ctx, invoiceSelect+` WHERE i.id = $1`, id))
}

// GetByIDForUpdate locks the invoice row until the transaction ends.
func (r *InvoiceRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Invoice, error) {
	return scanInvoice(r.db.QueryRow(ctx, invoiceSelect+` WHERE i.id = $1 FOR UPDATE OF i`, id))
}

// GetByGatewayInvoiceIDForUpdate finds and locks the invoice registered at
// the gateway under gatewayID.
func (r *InvoiceRepository) GetByGatewayInvoiceIDForUpdate(ctx context.Context, gatewayID string) (*model.Invoice, error) {
	return scanInvoice(r.db.QueryRow(ctx,
		invoiceSelect+` WHERE i.multicard_invoice_id = $1 ORDER BY i.id DESC LIMIT 1 FOR UPDATE OF i`, gatewayID))
}

// GetByGatewayUUIDForUpdate finds and locks the invoice by gateway transaction uuid.
func (r *InvoiceRepository) GetByGatewayUUIDForUpdate(ctx context.Context, uuid string) (*model.Invoice, error) {
	return scanInvoice(r.db.QueryRow(ctx,
		invoiceSelect+` WHERE i.multicard_uuid = $1 ORDER BY i.id DESC LIMIT 1 FOR UPDATE OF i`, uuid))
}

// List retrieves invoices matching the filter.
func (r *InvoiceRepository) List(ctx context.Context, f model.InvoiceFilter) ([]model.Invoice, int, error) {
	var q filter
	if f.Status != "" {
		q.add("i.status = %s", f.Status)
	}
	if f.StudentID != nil {
		q.add("i.student_id = %s", *f.StudentID)
	}
	if f.GroupID != nil {
		q.add("i.group_id = %s", *f.GroupID)
	}
	if f.MentorID != nil {
		q.add("g.mentor_id = %s", *f.MentorID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q.add("(s.full_name ILIKE %[1]s OR s.phone ILIKE %[1]s OR i.multicard_uuid ILIKE %[1]s)", "%"+s+"%")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM invoices i JOIN students s ON s.id = i.student_id JOIN groups g ON g.id = i.group_id`
	if err := r.db.QueryRow(ctx, countQuery+q.where(), q.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order, ok := model.InvoiceOrderings[f.Ordering]
	if !ok {
		order = model.InvoiceOrderings["-created_at"]
	}
	rows, err := r.db.Query(ctx, invoiceSelect+q.where()+` ORDER BY `+order+q.page(f.Limit, offset(f.Page, f.Limit)), q.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	invoices := []model.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, total, rows.Err()
}

// Create inserts a new invoice.
func (r *InvoiceRepository) Create(ctx context.Context, inv *model.Invoice) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO invoices (student_id, group_id, amount, status, notes)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		inv.StudentID, inv.GroupID, inv.Amount, inv.Status, inv.Notes,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return mapErr(err, nil)
	}
	inv.CanBeUpdated = inv.Status.CanBeUpdated()
	return nil
}

// HasOpenOrPaid reports whether the student already has a created, pending
// or paid invoice for the group.
func (r *InvoiceRepository) HasOpenOrPaid(ctx context.Context, studentID, groupID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM invoices
			WHERE student_id = $1 AND group_id = $2 AND status IN ('created', 'pending', 'paid'))`,
		studentID, groupID,
	).Scan(&ok)
	return ok, err
}

// SetCheckout records the gateway invoice and moves the invoice to pending.
func (r *InvoiceRepository) SetCheckout(ctx context.Context, id int64, uuid, gatewayID, checkoutURL string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE invoices
		 SET multicard_uuid = $1, multicard_invoice_id = $2, checkout_url = $3, status = 'pending',
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = $4`,
		uuid, gatewayID, checkoutURL, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus changes the status of an invoice.
func (r *InvoiceRepository) SetStatus(ctx context.Context, id int64, status model.InvoiceStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE invoices SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPaid records a completed payment. Empty detail strings keep the stored values.
func (r *InvoiceRepository) MarkPaid(ctx context.Context, id int64, d model.PaymentDetails) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE invoices
		 SET status = 'paid',
		     payment_time = $1,
		     receipt_url = COALESCE(NULLIF($2, ''), receipt_url),
		     payment_method = COALESCE(NULLIF($3, ''), payment_method),
		     card_pan = COALESCE(NULLIF($4, ''), card_pan),
		     multicard_uuid = COALESCE(NULLIF($5, ''), multicard_uuid),
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = $6`,
		d.PaymentTime, d.ReceiptURL, d.PaymentMethod, d.CardPAN, d.GatewayUUID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CancelUnpaid cancels every created or pending invoice of a student for a
// group. The returned rows carry the status each invoice had before.
func (r *InvoiceRepository) CancelUnpaid(ctx context.Context, studentID, groupID int64) ([]model.Invoice, error) {
	rows, err := r.db.Query(ctx,
		`WITH prev AS (
			SELECT id, status FROM invoices
			WHERE student_id = $1 AND group_id = $2 AND status IN ('created', 'pending')
			FOR UPDATE
		)
		UPDATE invoices i SET status = 'cancelled', updated_at = CURRENT_TIMESTAMP
		FROM prev
		WHERE i.id = prev.id
		RETURNING i.id, i.student_id, i.group_id, i.amount, i.multicard_uuid, prev.status`,
		studentID, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cancelled []model.Invoice
	for rows.Next() {
		var inv model.Invoice
		if err := rows.Scan(&inv.ID, &inv.StudentID, &inv.GroupID, &inv.Amount, &inv.MulticardUUID, &inv.Status); err != nil {
			return nil, err
		}
		cancelled = append(cancelled, inv)
	}
	return cancelled, rows.Err()
}

// RepriceUnpaid sets the amount of every unpaid invoice of a group.
func (r *InvoiceRepository) RepriceUnpaid(ctx context.Context, groupID, amount int64) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE invoices SET amount = $1, updated_at = CURRENT_TIMESTAMP
		 WHERE group_id = $2 AND status IN ('created', 'pending') AND amount <> $1`,
		amount, groupID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SumPaid returns what a student has paid for a group.
func (r *InvoiceRepository) SumPaid(ctx context.Context, studentID, groupID int64) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM invoices WHERE student_id = $1 AND group_id = $2 AND status = 'paid'`,
		studentID, groupID,
	).Scan(&total)
	return total, err
}

// ListStalePending returns pending invoices with a gateway uuid that have
// not changed since before.
func (r *InvoiceRepository) ListStalePending(ctx context.Context, before time.Time, limit int) ([]model.Invoice, error) {
	rows, err := r.db.Query(ctx,
		invoiceSelect+` WHERE i.status = 'pending' AND i.multicard_uuid IS NOT NULL AND i.updated_at < $1
		ORDER BY i.updated_at ASC LIMIT $2`,
		before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []model.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

// Touch bumps updated_at so the sync worker rotates through pending invoices.
func (r *InvoiceRepository) Touch(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE invoices SET updated_at = CURRENT_TIMESTAMP WHERE id = $1`, id)
	return err
}
