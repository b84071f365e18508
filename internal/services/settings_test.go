package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsLazyCreate(t *testing.T) {
	dbi := testDB(t)
	svc := NewSettingsService(dbi, testLogger())
	user := seedUser(t, dbi, "owner@example.com")
	ctx := context.Background()

	st, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "EUR", st.DefaultCurrency)
	assert.Equal(t, "classic", st.PDFTemplate)
	assert.Equal(t, 10, st.PDFFontSize)
	assert.True(t, st.PDFShowTerms)

	// second call returns the same row, not a new one
	again, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, st.ID, again.ID)
}

func TestSettingsUpdate(t *testing.T) {
	dbi := testDB(t)
	svc := NewSettingsService(dbi, testLogger())
	user := seedUser(t, dbi, "owner@example.com")
	ctx := context.Background()

	st, err := svc.Update(ctx, user.ID, SettingsInput{
		CompanyName:     "Billfold GmbH",
		DefaultCurrency: "USD",
		DefaultTerms:    "Net 14",
		PDFTemplate:     "compact",
		PDFFontSize:     9,
		PDFMarginLeft:   20,
		PDFMarginTop:    12,
		PDFShowTerms:    true,
		PDFShowNotes:    false,
	})
	require.NoError(t, err)
	assert.Equal(t, "Billfold GmbH", st.CompanyName)
	assert.Equal(t, "USD", st.DefaultCurrency)
	assert.Equal(t, "compact", st.PDFTemplate)
	assert.False(t, st.PDFShowNotes)
}

func TestUserRegisterAndAuthenticate(t *testing.T) {
	dbi := testDB(t)
	svc := NewUserService(dbi, testLogger())
	ctx := context.Background()

	u, err := svc.Register(ctx, "Alex", "Alex@Example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "alex@example.com", u.Email, "email is normalized")
	assert.NotEqual(t, "correct-horse", u.Password)

	_, err = svc.Register(ctx, "Alex", "alex@example.com", "another-pass")
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, err := svc.Authenticate(ctx, "alex@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "alex@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.True(t, svc.Exists(ctx, u.ID))
	assert.False(t, svc.Exists(ctx, u.ID+100))
}
