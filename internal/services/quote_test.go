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
	"gorm.io/gorm"
)

type quoteFixtures struct {
	db       *gorm.DB
	user     models.User
	customer models.Customer
	service  models.Item
	part     models.Item
}

func newQuoteService(t *testing.T) (*QuoteService, *quoteFixtures) {
	t.Helper()
	dbi := testDB(t)
	fx := &quoteFixtures{db: dbi}
	fx.user = seedUser(t, dbi, "owner@example.com")
	fx.customer = seedCustomer(t, dbi, fx.user.ID, "Acme")
	fx.service = seedItem(t, dbi, fx.user.ID, "Consulting", "100.00")
	fx.part = seedItem(t, dbi, fx.user.ID, "Widget", "50.00")
	return NewQuoteService(dbi, testCache(), testLogger()), fx
}

func (fx *quoteFixtures) docInput(lines ...LineInput) DocumentInput {
	return DocumentInput{
		CustomerID:   fx.customer.ID,
		Title:        "Website build",
		Currency:     "EUR",
		DiscountType: billing.DiscountNone,
		Lines:        lines,
	}
}

func TestQuoteCreateComputesTotals(t *testing.T) {
	svc, fx := newQuoteService(t)
	ctx := context.Background()

	in := fx.docInput(
		LineInput{ItemID: fx.service.ID, Price: dec(t, "100.00"), Qty: 2},
		LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 1},
	)
	in.DiscountType = billing.DiscountFixed
	in.DiscountValue = dec(t, "25.00")

	q, err := svc.Create(ctx, fx.user.ID, in)
	require.NoError(t, err)

	assert.True(t, q.SubTotal.Equal(dec(t, "250.00")), "sub_total = %s", q.SubTotal)
	assert.True(t, q.DiscountAmount.Equal(dec(t, "25.00")), "discount = %s", q.DiscountAmount)
	assert.True(t, q.Total.Equal(dec(t, "225.00")), "total = %s", q.Total)
	assert.Equal(t, billing.QuoteStatusDraft, q.Status)
	assert.Len(t, q.Items, 2)

	want := fmt.Sprintf("Q-%d0001", time.Now().Year())
	assert.Equal(t, want, q.QuoteNumber)
}

func TestQuoteNumbersIncrement(t *testing.T) {
	svc, fx := newQuoteService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, fx.user.ID, fx.docInput(LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 1}))
	require.NoError(t, err)
	second, err := svc.Create(ctx, fx.user.ID, fx.docInput(LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 1}))
	require.NoError(t, err)

	year := time.Now().Year()
	assert.Equal(t, fmt.Sprintf("Q-%d0001", year), first.QuoteNumber)
	assert.Equal(t, fmt.Sprintf("Q-%d0002", year), second.QuoteNumber)
}

func TestQuoteNumbersPerUser(t *testing.T) {
	svc, fx := newQuoteService(t)
	ctx := context.Background()

	other := seedUser(t, fx.db, "second@example.com")
	otherCustomer := seedCustomer(t, fx.db, other.ID, "Globex")
	otherItem := seedItem(t, fx.db, other.ID, "Hours", "80.00")

	mine, err := svc.Create(ctx, fx.user.ID, fx.docInput(LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 1}))
	require.NoError(t, err)

	theirs, err := svc.Create(ctx, other.ID, DocumentInput{
		CustomerID:   otherCustomer.ID,
		Currency:     "EUR",
		DiscountType: billing.DiscountNone,
		Lines:        []LineInput{{ItemID: otherItem.ID, Price: dec(t, "80.00"), Qty: 1}},
	})
	require.NoError(t, err)

	// both users start their own sequence
	assert.Equal(t, mine.QuoteNumber, theirs.QuoteNumber)
}

func TestQuoteUpdateReplacesLines(t *testing.T) {
	svc, fx := newQuoteService(t)
	ctx := context.Background()

	q, err := svc.Create(ctx, fx.user.ID, fx.docInput(
		LineInput{ItemID: fx.service.ID, Price: dec(t, "100.00"), Qty: 2},
		LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 1},
	))
	require.NoError(t, err)
	number := q.QuoteNumber

	updated, err := svc.Update(ctx, fx.user.ID, q.ID, fx.docInput(
		LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 3},
	))
	require.NoError(t, err)

	assert.Len(t, updated.Items, 1)
	assert.True(t, updated.Total.Equal(dec(t, "150.00")), "total = %s", updated.Total)
	assert.Equal(t, number, updated.QuoteNumber, "number must not change on update")

	var count int64
	require.NoError(t, fx.db.Model(&models.QuoteItem{}).Where("quote_id = ?", q.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestQuoteSetStatus(t *testing.T) {
	svc, fx := newQuoteService(t)
	ctx := context.Background()

	q, err := svc.Create(ctx, fx.user.ID, fx.docInput(LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 1}))
	require.NoError(t, err)

	q, err = svc.SetStatus(ctx, fx.user.ID, q.ID, billing.QuoteStatusSent)
	require.NoError(t, err)
	assert.Equal(t, billing.QuoteStatusSent, q.Status)

	_, err = svc.SetStatus(ctx, fx.user.ID, q.ID, "shipped")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestQuoteStatusChangeAuditRecordsTransition(t *testing.T) {
	svc, fx := newQuoteService(t)
	ctx := context.Background()

	q, err := svc.Create(ctx, fx.user.ID, fx.docInput(LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 1}))
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, fx.user.ID, q.ID, billing.QuoteStatusSent)
	require.NoError(t, err)

	var entry models.AuditLog
	require.NoError(t, fx.db.Where("action = ?", "status_changed").First(&entry).Error)
	assert.Equal(t, "draft->sent", entry.Detail)

	// repeating the current status is a no-op and leaves no trail
	_, err = svc.SetStatus(ctx, fx.user.ID, q.ID, billing.QuoteStatusSent)
	require.NoError(t, err)
	var count int64
	require.NoError(t, fx.db.Model(&models.AuditLog{}).Where("action = ?", "status_changed").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestQuoteNumbersGrowPastPadding(t *testing.T) {
	svc, fx := newQuoteService(t)
	ctx := context.Background()
	year := time.Now().Year()

	// once the sequence outgrows its zero padding, Q-<year>9999 sorts above
	// Q-<year>10000 as a plain string; the next number must still advance
	for _, number := range []string{
		fmt.Sprintf("Q-%d9999", year),
		fmt.Sprintf("Q-%d10000", year),
	} {
		seeded := models.Quote{
			UserID:       fx.user.ID,
			CustomerID:   fx.customer.ID,
			QuoteNumber:  number,
			Date:         time.Now(),
			Currency:     "EUR",
			Status:       billing.QuoteStatusDraft,
			DiscountType: billing.DiscountNone,
		}
		require.NoError(t, fx.db.Create(&seeded).Error)
	}

	q, err := svc.Create(ctx, fx.user.ID, fx.docInput(LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 1}))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Q-%d10001", year), q.QuoteNumber)
}

// stealNumber registers a create callback that claims the generated quote
// number inside the same transaction just before the insert, simulating a
// concurrent creation winning the race. When every is false only the first
// insert is sabotaged.
func stealNumber(t *testing.T, fx *quoteFixtures, every bool) *int {
	t.Helper()
	attempts := 0
	seeding := false
	err := fx.db.Callback().Create().Before("gorm:create").Register("steal_quote_number", func(tx *gorm.DB) {
		q, ok := tx.Statement.Dest.(*models.Quote)
		if !ok || seeding {
			return
		}
		attempts++
		if !every && attempts > 1 {
			return
		}
		seeding = true
		defer func() { seeding = false }()
		rival := models.Quote{
			UserID:       q.UserID,
			CustomerID:   q.CustomerID,
			QuoteNumber:  q.QuoteNumber,
			Date:         time.Now(),
			Currency:     "EUR",
			Status:       billing.QuoteStatusDraft,
			DiscountType: billing.DiscountNone,
		}
		if err := tx.Session(&gorm.Session{NewDB: true}).Create(&rival).Error; err != nil {
			t.Errorf("seed rival quote: %v", err)
		}
	})
	require.NoError(t, err)
	return &attempts
}

func TestQuoteCreateRetriesOnNumberCollision(t *testing.T) {
	svc, fx := newQuoteService(t)
	ctx := context.Background()
	attempts := stealNumber(t, fx, false)

	q, err := svc.Create(ctx, fx.user.ID, fx.docInput(LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 1}))
	require.NoError(t, err)
	assert.Equal(t, 2, *attempts, "first insert must collide, second must succeed")
	assert.Equal(t, fmt.Sprintf("Q-%d0001", time.Now().Year()), q.QuoteNumber)
}

func TestQuoteCreateConflictAfterRetry(t *testing.T) {
	svc, fx := newQuoteService(t)
	ctx := context.Background()
	attempts := stealNumber(t, fx, true)

	_, err := svc.Create(ctx, fx.user.ID, fx.docInput(LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 1}))
	assert.ErrorIs(t, err, ErrNumberConflict)
	assert.Equal(t, 2, *attempts, "generation retries exactly once")
}

func TestQuoteCreateRejectsForeignCustomer(t *testing.T) {
	svc, fx := newQuoteService(t)
	ctx := context.Background()

	other := seedUser(t, fx.db, "other@example.com")
	foreign := seedCustomer(t, fx.db, other.ID, "NotYours")

	in := fx.docInput(LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 1})
	in.CustomerID = foreign.ID
	_, err := svc.Create(ctx, fx.user.ID, in)
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestQuoteCreateRejectsForeignItem(t *testing.T) {
	svc, fx := newQuoteService(t)
	ctx := context.Background()

	other := seedUser(t, fx.db, "other@example.com")
	foreignItem := seedItem(t, fx.db, other.ID, "Stolen", "10.00")

	_, err := svc.Create(ctx, fx.user.ID, fx.docInput(LineInput{ItemID: foreignItem.ID, Price: dec(t, "10.00"), Qty: 1}))
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestQuoteOwnershipIsolation(t *testing.T) {
	svc, fx := newQuoteService(t)
	ctx := context.Background()

	q, err := svc.Create(ctx, fx.user.ID, fx.docInput(LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 1}))
	require.NoError(t, err)

	other := seedUser(t, fx.db, "intruder@example.com")
	_, err = svc.Get(ctx, other.ID, q.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, other.ID, q.ID), ErrNotFound)
}

func TestQuoteDeleteRemovesLines(t *testing.T) {
	svc, fx := newQuoteService(t)
	ctx := context.Background()

	q, err := svc.Create(ctx, fx.user.ID, fx.docInput(LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 2}))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, fx.user.ID, q.ID))

	var count int64
	require.NoError(t, fx.db.Model(&models.QuoteItem{}).Where("quote_id = ?", q.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestQuoteListSearch(t *testing.T) {
	svc, fx := newQuoteService(t)
	ctx := context.Background()

	in := fx.docInput(LineInput{ItemID: fx.part.ID, Price: dec(t, "50.00"), Qty: 1})
	in.Title = "Roof repair"
	_, err := svc.Create(ctx, fx.user.ID, in)
	require.NoError(t, err)
	in.Title = "Garden work"
	_, err = svc.Create(ctx, fx.user.ID, in)
	require.NoError(t, err)

	quotes, total, err := svc.List(ctx, fx.user.ID, "roof", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, quotes, 1)
	assert.Equal(t, "Roof repair", quotes[0].Title)
}
