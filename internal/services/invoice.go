package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dimitrije/orbit-api/internal/cache"
	"github.com/dimitrije/orbit-api/internal/config"
	"github.com/dimitrije/orbit-api/internal/database"
	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/dimitrije/orbit-api/internal/money"
	"github.com/dimitrije/orbit-api/internal/policy"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const unknownTaskTitle = "Unknown Task"

const invoiceColumns = `id, organization_id, client_id, creator_id, invoice_number, status,
	issue_date, due_date, tax_rate, currency, subtotal, total, created_at, updated_at`

const invoiceColumnsI = `i.id, i.organization_id, i.client_id, i.creator_id, i.invoice_number, i.status,
	i.issue_date, i.due_date, i.tax_rate, i.currency, i.subtotal, i.total, i.created_at, i.updated_at`

type CreateInvoiceInput struct {
	ClientID uuid.UUID
	DueDate  time.Time
	TaxRate  *decimal.Decimal
	Currency string
}

type AddItemInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

type InvoiceService struct {
	db         *database.DB
	dashboards cache.DashboardCache
	hourlyRate decimal.Decimal
	currency   string
	retries    int
	now        func() time.Time
}

func NewInvoiceService(db *database.DB, billing config.BillingConfig, dashboards cache.DashboardCache) *InvoiceService {
	retries := billing.InvoiceNumberRetries
	if retries < 1 {
		retries = 1
	}
	currency := billing.DefaultCurrency
	if currency == "" {
		currency = "USD"
	}
	return &InvoiceService{
		db:         db,
		dashboards: dashboards,
		hourlyRate: billing.DefaultHourlyRate,
		currency:   currency,
		retries:    retries,
		now:        time.Now,
	}
}

// InvoiceNumber formats the per-organization, per-year invoice number.
func InvoiceNumber(year, seq int) string {
	return fmt.Sprintf("INV-%d-%03d", year, seq)
}

// Create opens a DRAFT invoice for a client of the organization. The number is
// derived from the count of this year's invoices; a collision on the unique
// (organization, number) constraint is retried with a fresh count.
func (s *InvoiceService) Create(ctx context.Context, orgID, creatorID uuid.UUID, input CreateInvoiceInput) (*models.Invoice, error) {
	taxRate := decimal.Zero
	if input.TaxRate != nil {
		taxRate = *input.TaxRate
	}
	if !money.ValidTaxRate(taxRate) {
		return nil, InvalidInput("tax rate must be between 0 and 100")
	}

	lastSeq := 0
	for attempt := 0; attempt < s.retries; attempt++ {
		invoice, seq, err := s.create(ctx, orgID, creatorID, input, taxRate, lastSeq)
		if err == nil {
			return invoice, nil
		}
		if !database.IsUniqueViolation(err, database.ConstraintInvoiceNumber) {
			return nil, err
		}
		lastSeq = seq
	}

	return nil, Conflict("could not allocate an invoice number, please retry")
}

func (s *InvoiceService) create(ctx context.Context, orgID, creatorID uuid.UUID, input CreateInvoiceInput, taxRate decimal.Decimal, lastSeq int) (*models.Invoice, int, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var clientCurrency string
	err = tx.QueryRow(ctx, `
		SELECT currency FROM clients WHERE id = $1 AND organization_id = $2
	`, input.ClientID, orgID).Scan(&clientCurrency)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, NotFound("client not found")
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get client: %w", err)
	}

	now := s.now().UTC()
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	var count int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM invoices WHERE organization_id = $1 AND issue_date >= $2
	`, orgID, yearStart).Scan(&count)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	seq := count + 1
	if seq <= lastSeq {
		seq = lastSeq + 1
	}

	currency := input.Currency
	if currency == "" {
		currency = clientCurrency
	}
	if currency == "" {
		currency = s.currency
	}

	var invoice models.Invoice
	err = scanInvoice(tx.QueryRow(ctx, `
		INSERT INTO invoices (organization_id, client_id, creator_id, invoice_number, status,
			issue_date, due_date, tax_rate, currency, subtotal, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, 0)
		RETURNING `+invoiceColumns,
		orgID, input.ClientID, creatorID, InvoiceNumber(now.Year(), seq), models.InvoiceStatusDraft,
		now, input.DueDate, taxRate, strings.ToUpper(currency),
	), &invoice)
	if err != nil {
		return nil, seq, fmt.Errorf("failed to create invoice: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, seq, fmt.Errorf("failed to commit transaction: %w", err)
	}

	invoice.Items = []models.InvoiceItem{}
	return &invoice, seq, nil
}

// AddItem appends a manual line to a DRAFT invoice and recomputes its totals.
func (s *InvoiceService) AddItem(ctx context.Context, orgID, invoiceID uuid.UUID, input AddItemInput) (*models.Invoice, error) {
	if strings.TrimSpace(input.Description) == "" {
		return nil, InvalidInput("description is required")
	}
	if !input.Quantity.IsPositive() {
		return nil, InvalidInput("quantity must be greater than zero")
	}
	if input.UnitPrice.IsNegative() {
		return nil, InvalidInput("unit price cannot be negative")
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	invoice, err := lockDraftInvoice(ctx, tx, orgID, invoiceID)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO invoice_items (invoice_id, description, quantity, unit_price, amount)
		VALUES ($1, $2, $3, $4, $5)
	`, invoice.ID, input.Description, input.Quantity, input.UnitPrice, money.LineAmount(input.Quantity, input.UnitPrice))
	if err != nil {
		return nil, fmt.Errorf("failed to add invoice item: %w", err)
	}

	if err := recalculateTotal(ctx, tx, invoice); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return invoice, nil
}

type billableEntry struct {
	id        uuid.UUID
	duration  int64
	taskTitle string
}

// AddTimeEntries bills unbilled, stopped time entries of the organization onto
// a DRAFT invoice, one line per entry at the configured hourly rate. Either
// every requested entry is billed or none is.
func (s *InvoiceService) AddTimeEntries(ctx context.Context, orgID, invoiceID uuid.UUID, timeEntryIDs []uuid.UUID) (*models.Invoice, error) {
	ids := uniqueIDs(timeEntryIDs)
	if len(ids) == 0 {
		return nil, InvalidInput("at least one time entry is required")
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	invoice, err := lockDraftInvoice(ctx, tx, orgID, invoiceID)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT te.id, te.duration, t.title
		FROM time_entries te
		JOIN tasks t ON t.id = te.task_id
		JOIN projects p ON p.id = t.project_id
		WHERE te.id = ANY($1) AND p.organization_id = $2
			AND te.invoice_item_id IS NULL AND te.end_time IS NOT NULL
		ORDER BY te.start_time
		FOR UPDATE OF te
	`, ids, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to get time entries: %w", err)
	}

	var entries []billableEntry
	for rows.Next() {
		var e billableEntry
		var duration *int64
		var title *string
		if err := rows.Scan(&e.id, &duration, &title); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan time entry: %w", err)
		}
		if duration != nil {
			e.duration = *duration
		}
		e.taskTitle = unknownTaskTitle
		if title != nil && *title != "" {
			e.taskTitle = *title
		}
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate time entries: %w", err)
	}

	if len(entries) != len(ids) {
		return nil, InvalidInput("some time entries are invalid, already billed or still running")
	}

	for _, e := range entries {
		hours := money.Hours(e.duration)

		var itemID uuid.UUID
		err := tx.QueryRow(ctx, `
			INSERT INTO invoice_items (invoice_id, description, quantity, unit_price, amount)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, invoice.ID, "Time Entry: "+e.taskTitle, hours, s.hourlyRate, money.LineAmount(hours, s.hourlyRate)).Scan(&itemID)
		if err != nil {
			return nil, fmt.Errorf("failed to add invoice item: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE time_entries SET invoice_item_id = $1, updated_at = NOW() WHERE id = $2
		`, itemID, e.id)
		if err != nil {
			return nil, fmt.Errorf("failed to mark time entry billed: %w", err)
		}
	}

	if err := recalculateTotal(ctx, tx, invoice); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return invoice, nil
}

// UpdateStatus sets any known status. There is no transition graph.
func (s *InvoiceService) UpdateStatus(ctx context.Context, orgID, invoiceID uuid.UUID, status string) (*models.Invoice, error) {
	if !policy.ValidInvoiceStatus(status) {
		return nil, InvalidInput("invalid invoice status: %s", status)
	}

	var invoice models.Invoice
	err := scanInvoice(s.db.Pool.QueryRow(ctx, `
		UPDATE invoices SET status = $1, updated_at = NOW()
		WHERE id = $2 AND organization_id = $3
		RETURNING `+invoiceColumns,
		status, invoiceID, orgID,
	), &invoice)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("invoice not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update invoice status: %w", err)
	}

	s.dashboards.Invalidate(ctx, orgID)

	return &invoice, nil
}

func (s *InvoiceService) List(ctx context.Context, orgID uuid.UUID, page models.Page) (*models.Paginated[models.Invoice], error) {
	var total int64
	err := s.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoices WHERE organization_id = $1`, orgID).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count invoices: %w", err)
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+invoiceColumnsI+`, c.name
		FROM invoices i
		JOIN clients c ON c.id = i.client_id
		WHERE i.organization_id = $1
		ORDER BY i.issue_date DESC, i.invoice_number DESC
		LIMIT $2 OFFSET $3
	`, orgID, page.Limit, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		var inv models.Invoice
		if err := scanInvoice(rows, &inv, &inv.ClientName); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoices: %w", err)
	}

	return models.NewPaginated(invoices, total, page), nil
}

func (s *InvoiceService) Get(ctx context.Context, orgID, invoiceID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := scanInvoice(s.db.Pool.QueryRow(ctx, `
		SELECT `+invoiceColumnsI+`, c.name
		FROM invoices i
		JOIN clients c ON c.id = i.client_id
		WHERE i.id = $1 AND i.organization_id = $2
	`, invoiceID, orgID), &invoice, &invoice.ClientName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("invoice not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	items, err := listInvoiceItems(ctx, s.db.Pool, invoice.ID)
	if err != nil {
		return nil, err
	}
	invoice.Items = items

	return &invoice, nil
}

// lockDraftInvoice loads the invoice FOR UPDATE and requires it to be a DRAFT.
func lockDraftInvoice(ctx context.Context, tx pgx.Tx, orgID, invoiceID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := scanInvoice(tx.QueryRow(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE id = $1 AND organization_id = $2
		FOR UPDATE
	`, invoiceID, orgID), &invoice)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("invoice not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	if !policy.CanModifyInvoice(invoice.Status) {
		return nil, InvalidState("can only modify DRAFT invoices")
	}

	return &invoice, nil
}

// recalculateTotal recomputes subtotal and total from every stored line,
// never incrementally, and loads the lines onto invoice.
func recalculateTotal(ctx context.Context, tx pgx.Tx, invoice *models.Invoice) error {
	items, err := listInvoiceItems(ctx, tx, invoice.ID)
	if err != nil {
		return err
	}

	amounts := make([]decimal.Decimal, len(items))
	for i, item := range items {
		amounts[i] = item.Amount
	}
	subtotal := money.Sum(amounts...)
	total := money.ApplyTax(subtotal, invoice.TaxRate)

	err = tx.QueryRow(ctx, `
		UPDATE invoices SET subtotal = $1, total = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`, subtotal, total, invoice.ID).Scan(&invoice.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update invoice totals: %w", err)
	}

	invoice.Subtotal = subtotal
	invoice.Total = total
	invoice.Items = items
	return nil
}

func listInvoiceItems(ctx context.Context, q database.Querier, invoiceID uuid.UUID) ([]models.InvoiceItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, invoice_id, description, quantity, unit_price, amount, created_at
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY created_at, id
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice items: %w", err)
	}
	defer rows.Close()

	items := []models.InvoiceItem{}
	for rows.Next() {
		var item models.InvoiceItem
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Description, &item.Quantity,
			&item.UnitPrice, &item.Amount, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan invoice item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoice items: %w", err)
	}

	return items, nil
}

func scanInvoice(row pgx.Row, inv *models.Invoice, extra ...any) error {
	dest := []any{
		&inv.ID, &inv.OrganizationID, &inv.ClientID, &inv.CreatorID, &inv.InvoiceNumber, &inv.Status,
		&inv.IssueDate, &inv.DueDate, &inv.TaxRate, &inv.Currency, &inv.Subtotal, &inv.Total,
		&inv.CreatedAt, &inv.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
