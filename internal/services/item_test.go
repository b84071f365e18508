package services

import (
	"context"
	"testing"

	"github.com/billfold/billfold/internal/billing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemCreateRoundsPrice(t *testing.T) {
	dbi := testDB(t)
	svc := NewItemService(dbi, testCache(), testLogger())
	user := seedUser(t, dbi, "owner@example.com")
	ctx := context.Background()

	item, err := svc.Create(ctx, user.ID, ItemInput{Name: "Hours", UnitPrice: dec(t, "99.999"), Currency: "EUR"})
	require.NoError(t, err)
	assert.True(t, item.UnitPrice.Equal(dec(t, "100.00")), "price = %s", item.UnitPrice)
}

func TestItemDeleteBlockedByLineItems(t *testing.T) {
	dbi := testDB(t)
	items := NewItemService(dbi, testCache(), testLogger())
	quotes := NewQuoteService(dbi, testCache(), testLogger())
	user := seedUser(t, dbi, "owner@example.com")
	customer := seedCustomer(t, dbi, user.ID, "Acme")
	item := seedItem(t, dbi, user.ID, "Widget", "50.00")
	ctx := context.Background()

	_, err := quotes.Create(ctx, user.ID, DocumentInput{
		CustomerID:   customer.ID,
		Currency:     "EUR",
		DiscountType: billing.DiscountNone,
		Lines:        []LineInput{{ItemID: item.ID, Price: dec(t, "50.00"), Qty: 1}},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, items.Delete(ctx, user.ID, item.ID), ErrItemInUse)
}

func TestItemPriceChangeKeepsSnapshots(t *testing.T) {
	dbi := testDB(t)
	items := NewItemService(dbi, testCache(), testLogger())
	quotes := NewQuoteService(dbi, testCache(), testLogger())
	user := seedUser(t, dbi, "owner@example.com")
	customer := seedCustomer(t, dbi, user.ID, "Acme")
	item := seedItem(t, dbi, user.ID, "Widget", "50.00")
	ctx := context.Background()

	q, err := quotes.Create(ctx, user.ID, DocumentInput{
		CustomerID:   customer.ID,
		Currency:     "EUR",
		DiscountType: billing.DiscountNone,
		Lines:        []LineInput{{ItemID: item.ID, Price: dec(t, "50.00"), Qty: 2}},
	})
	require.NoError(t, err)

	_, err = items.Update(ctx, user.ID, item.ID, ItemInput{Name: "Widget", UnitPrice: dec(t, "80.00"), Currency: "EUR"})
	require.NoError(t, err)

	reloaded, err := quotes.Get(ctx, user.ID, q.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.True(t, reloaded.Items[0].Price.Equal(dec(t, "50.00")), "snapshot = %s", reloaded.Items[0].Price)
	assert.True(t, reloaded.Total.Equal(dec(t, "100.00")), "total = %s", reloaded.Total)
}

func TestSoldQuantities(t *testing.T) {
	dbi := testDB(t)
	items := NewItemService(dbi, testCache(), testLogger())
	invoices := NewInvoiceService(dbi, testCache(), testLogger())
	user := seedUser(t, dbi, "owner@example.com")
	customer := seedCustomer(t, dbi, user.ID, "Acme")
	item := seedItem(t, dbi, user.ID, "Widget", "50.00")
	ctx := context.Background()

	_, err := invoices.Create(ctx, user.ID, InvoiceInput{DocumentInput: DocumentInput{
		CustomerID:   customer.ID,
		Currency:     "EUR",
		DiscountType: billing.DiscountNone,
		Lines:        []LineInput{{ItemID: item.ID, Price: dec(t, "50.00"), Qty: 3}},
	}})
	require.NoError(t, err)
	_, err = invoices.Create(ctx, user.ID, InvoiceInput{DocumentInput: DocumentInput{
		CustomerID:   customer.ID,
		Currency:     "EUR",
		DiscountType: billing.DiscountNone,
		Lines:        []LineInput{{ItemID: item.ID, Price: dec(t, "50.00"), Qty: 2}},
	}})
	require.NoError(t, err)

	sold, err := items.SoldQuantities(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, sold[item.ID])
}
