package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/billfold/billfold/internal/billing"
	"github.com/billfold/billfold/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInvoiceService(t *testing.T) (*InvoiceService, *QuoteService, *quoteFixtures) {
	t.Helper()
	quotes, fx := newQuoteService(t)
	return NewInvoiceService(fx.db, testCache(), testLogger()), quotes, fx
}

func (fx *quoteFixtures) invoiceInput(lines ...LineInput) InvoiceInput {
	return InvoiceInput{DocumentInput: fx.docInput(lines...)}
}

func TestInvoiceCreateDefaultsDueDate(t *testing.T) {
	svc, _, fx := newInvoiceService(t)
	ctx := context.Background()

	inv, err := svc.Create(ctx, fx.user.ID, fx.invoiceInput(LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 1}))
	require.NoError(t, err)

	assert.Equal(t, billing.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, fmt.Sprintf("I-%d0001", time.Now().Year()), inv.InvoiceNumber)
	wantDue := inv.IssueDate.AddDate(0, 0, 30)
	assert.WithinDuration(t, wantDue, inv.DueDate, 24*time.Hour)
}

func TestInvoiceStatusHistoryAppends(t *testing.T) {
	svc, _, fx := newInvoiceService(t)
	ctx := context.Background()

	inv, err := svc.Create(ctx, fx.user.ID, fx.invoiceInput(LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 1}))
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, fx.user.ID, inv.ID, billing.InvoiceStatusSent)
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, fx.user.ID, inv.ID, billing.InvoiceStatusPaid)
	require.NoError(t, err)

	rows, err := svc.History(ctx, fx.user.ID, inv.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, billing.InvoiceStatusDraft, rows[0].FromStatus)
	assert.Equal(t, billing.InvoiceStatusSent, rows[0].ToStatus)
	assert.Equal(t, billing.InvoiceStatusSent, rows[1].FromStatus)
	assert.Equal(t, billing.InvoiceStatusPaid, rows[1].ToStatus)
}

func TestInvoiceSameStatusNoHistoryRow(t *testing.T) {
	svc, _, fx := newInvoiceService(t)
	ctx := context.Background()

	inv, err := svc.Create(ctx, fx.user.ID, fx.invoiceInput(LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 1}))
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, fx.user.ID, inv.ID, billing.InvoiceStatusDraft)
	require.NoError(t, err)

	rows, err := svc.History(ctx, fx.user.ID, inv.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestInvoiceRejectsOverdueAsStoredStatus(t *testing.T) {
	svc, _, fx := newInvoiceService(t)
	ctx := context.Background()

	inv, err := svc.Create(ctx, fx.user.ID, fx.invoiceInput(LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 1}))
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, fx.user.ID, inv.ID, billing.InvoiceStatusOverdue)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestPaidInvoiceRejectsUpdate(t *testing.T) {
	svc, _, fx := newInvoiceService(t)
	ctx := context.Background()

	inv, err := svc.Create(ctx, fx.user.ID, fx.invoiceInput(LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 1}))
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, fx.user.ID, inv.ID, billing.InvoiceStatusPaid)
	require.NoError(t, err)

	_, err = svc.Update(ctx, fx.user.ID, inv.ID, fx.invoiceInput(LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 2}))
	assert.ErrorIs(t, err, ErrInvoicePaid)
}

func TestConvertFromQuote(t *testing.T) {
	svc, quotes, fx := newInvoiceService(t)
	ctx := context.Background()

	in := fx.docInput(
		LineInput{ItemID: fx.service.ID, Price: dec(t, "100.00"), Qty: 2},
		LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 1},
	)
	in.DiscountType = billing.DiscountFixed
	in.DiscountValue = dec(t, "25.00")
	in.TaxRate = dec(t, "20.00")
	in.Terms = "Net 30"
	q, err := quotes.Create(ctx, fx.user.ID, in)
	require.NoError(t, err)

	inv, err := svc.ConvertFromQuote(ctx, fx.user.ID, q.ID)
	require.NoError(t, err)

	assert.Equal(t, billing.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, q.CustomerID, inv.CustomerID)
	require.NotNil(t, inv.QuoteID)
	assert.Equal(t, q.ID, *inv.QuoteID)
	assert.Equal(t, "Net 30", inv.Terms)
	assert.Equal(t, fmt.Sprintf("I-%d0001", time.Now().Year()), inv.InvoiceNumber)

	require.Len(t, inv.Items, 2)
	assert.True(t, inv.SubTotal.Equal(q.SubTotal), "sub_total %s != %s", inv.SubTotal, q.SubTotal)
	assert.True(t, inv.DiscountAmount.Equal(q.DiscountAmount))
	assert.True(t, inv.Total.Equal(q.Total), "total %s != %s", inv.Total, q.Total)

	reloaded, err := quotes.Get(ctx, fx.user.ID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.QuoteStatusConverted, reloaded.Status)
}

func TestConvertTwiceFails(t *testing.T) {
	svc, quotes, fx := newInvoiceService(t)
	ctx := context.Background()

	q, err := quotes.Create(ctx, fx.user.ID, fx.docInput(LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 1}))
	require.NoError(t, err)

	_, err = svc.ConvertFromQuote(ctx, fx.user.ID, q.ID)
	require.NoError(t, err)
	_, err = svc.ConvertFromQuote(ctx, fx.user.ID, q.ID)
	assert.ErrorIs(t, err, ErrQuoteConverted)
}

func TestConvertForeignQuoteFails(t *testing.T) {
	svc, quotes, fx := newInvoiceService(t)
	ctx := context.Background()

	q, err := quotes.Create(ctx, fx.user.ID, fx.docInput(LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 1}))
	require.NoError(t, err)

	other := seedUser(t, fx.db, "other@example.com")
	_, err = svc.ConvertFromQuote(ctx, other.ID, q.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvoiceDeleteRemovesChildren(t *testing.T) {
	svc, _, fx := newInvoiceService(t)
	ctx := context.Background()

	inv, err := svc.Create(ctx, fx.user.ID, fx.invoiceInput(LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 1}))
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, fx.user.ID, inv.ID, billing.InvoiceStatusSent)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, fx.user.ID, inv.ID))

	var items, history int64
	require.NoError(t, fx.db.Model(&models.InvoiceItem{}).Where("invoice_id = ?", inv.ID).Count(&items).Error)
	require.NoError(t, fx.db.Model(&models.InvoiceStatusHistory{}).Where("invoice_id = ?", inv.ID).Count(&history).Error)
	assert.Zero(t, items)
	assert.Zero(t, history)
}
