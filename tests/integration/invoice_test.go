package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/dimitrije/orbit-api/internal/services"
	"github.com/dimitrije/orbit-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type billingFixture struct {
	svc    *services.InvoiceService
	owner  *models.User
	org    *models.Organization
	member *models.Member
	client *models.Client
	task   *models.Task
}

func newBillingFixture(t *testing.T, tdb *testutil.TestDB) billingFixture {
	t.Helper()
	fixtures := testutil.NewFixtures(tdb.DB)

	owner := fixtures.CreateUser(t)
	org, member := fixtures.CreateOrganization(t, owner)
	client := fixtures.CreateClient(t, org)
	project := fixtures.CreateProject(t, org, client)

	return billingFixture{
		svc:    services.NewInvoiceService(tdb.DB, billingConfig(), newDashboardCache()),
		owner:  owner,
		org:    org,
		member: member,
		client: client,
		task:   fixtures.CreateTask(t, project),
	}
}

func (f billingFixture) createInvoice(t *testing.T, taxRate string) *models.Invoice {
	t.Helper()
	rate := decimal.RequireFromString(taxRate)
	invoice, err := f.svc.Create(context.Background(), f.org.ID, f.owner.ID, services.CreateInvoiceInput{
		ClientID: f.client.ID,
		DueDate:  time.Now().AddDate(0, 0, 30),
		TaxRate:  &rate,
	})
	require.NoError(t, err)
	return invoice
}

func TestInvoice_Integration_TotalsIncludeTax(t *testing.T) {
	tdb := setupTest(t)
	f := newBillingFixture(t, tdb)
	ctx := context.Background()

	invoice := f.createInvoice(t, "20")
	assert.Equal(t, models.InvoiceStatusDraft, invoice.Status)
	assert.True(t, invoice.Subtotal.IsZero())

	updated, err := f.svc.AddItem(ctx, f.org.ID, invoice.ID, services.AddItemInput{
		Description: "Design work",
		Quantity:    decimal.NewFromInt(2),
		UnitPrice:   decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(200).Equal(updated.Subtotal), "subtotal = %s", updated.Subtotal)
	assert.True(t, decimal.NewFromInt(240).Equal(updated.Total), "total = %s", updated.Total)

	stored, err := f.svc.Get(ctx, f.org.ID, invoice.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.True(t, decimal.NewFromInt(200).Equal(stored.Items[0].Amount))
	assert.True(t, decimal.NewFromInt(240).Equal(stored.Total))
}

func TestInvoice_Integration_AddItemRequiresDraft(t *testing.T) {
	tdb := setupTest(t)
	f := newBillingFixture(t, tdb)
	ctx := context.Background()

	invoice := f.createInvoice(t, "0")
	_, err := f.svc.UpdateStatus(ctx, f.org.ID, invoice.ID, models.InvoiceStatusSent)
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, f.org.ID, invoice.ID, services.AddItemInput{
		Description: "Late addition",
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, services.ErrInvalidState)
}

func TestInvoice_Integration_BillingIsAllOrNothing(t *testing.T) {
	tdb := setupTest(t)
	f := newBillingFixture(t, tdb)
	fixtures := testutil.NewFixtures(tdb.DB)
	ctx := context.Background()

	var valid []uuid.UUID
	for i := 0; i < 3; i++ {
		entry := fixtures.CreateStoppedEntry(t, f.task, f.member, 90*time.Minute, true)
		valid = append(valid, entry.ID)
	}
	billed := fixtures.CreateStoppedEntry(t, f.task, f.member, time.Hour, true)

	first := f.createInvoice(t, "0")
	_, err := f.svc.AddTimeEntries(ctx, f.org.ID, first.ID, []uuid.UUID{billed.ID})
	require.NoError(t, err)

	second := f.createInvoice(t, "0")
	_, err = f.svc.AddTimeEntries(ctx, f.org.ID, second.ID, append(valid, billed.ID))
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	var items int
	err = tdb.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoice_items WHERE invoice_id = $1`, second.ID).Scan(&items)
	require.NoError(t, err)
	assert.Equal(t, 0, items)

	var unbilled int
	err = tdb.DB.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM time_entries WHERE id = ANY($1) AND invoice_item_id IS NULL
	`, valid).Scan(&unbilled)
	require.NoError(t, err)
	assert.Equal(t, 3, unbilled)

	stored, err := f.svc.Get(ctx, f.org.ID, second.ID)
	require.NoError(t, err)
	assert.True(t, stored.Subtotal.IsZero())
}

func TestInvoice_Integration_BillsTimeAtHourlyRate(t *testing.T) {
	tdb := setupTest(t)
	f := newBillingFixture(t, tdb)
	fixtures := testutil.NewFixtures(tdb.DB)
	ctx := context.Background()

	entry := fixtures.CreateStoppedEntry(t, f.task, f.member, 90*time.Minute, true)
	invoice := f.createInvoice(t, "0")

	updated, err := f.svc.AddTimeEntries(ctx, f.org.ID, invoice.ID, []uuid.UUID{entry.ID})
	require.NoError(t, err)

	// 1.5h at the configured 50/h.
	assert.True(t, decimal.NewFromInt(75).Equal(updated.Subtotal), "subtotal = %s", updated.Subtotal)

	var itemID *uuid.UUID
	err = tdb.DB.Pool.QueryRow(ctx, `SELECT invoice_item_id FROM time_entries WHERE id = $1`, entry.ID).Scan(&itemID)
	require.NoError(t, err)
	assert.NotNil(t, itemID)
}

func TestInvoice_Integration_ConcurrentNumbersAreUnique(t *testing.T) {
	tdb := setupTest(t)
	f := newBillingFixture(t, tdb)
	ctx := context.Background()

	const workers = 5
	numbers := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			invoice, err := f.svc.Create(ctx, f.org.ID, f.owner.ID, services.CreateInvoiceInput{
				ClientID: f.client.ID,
				DueDate:  time.Now().AddDate(0, 0, 14),
			})
			if assert.NoError(t, err) {
				numbers <- invoice.InvoiceNumber
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for n := range numbers {
		assert.False(t, seen[n], "duplicate invoice number %s", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers)
}
