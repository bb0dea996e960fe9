package service

import (
	"context"
	"testing"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCurrencyStartsWithZeroSchedule(t *testing.T) {
	f := newFixture(t)
	gbp, err := f.catalog.CreateCurrency(context.Background(), "  GBP ")
	require.NoError(t, err)

	assert.Equal(t, "GBP", gbp.Title)
	assert.Equal(t, []string{"PayPal"}, gbp.BuyCommissions.Titles())
	assert.Equal(t, []string{"PayPal"}, gbp.SellCommissions.Titles())
	assert.Equal(t, []string{"USD", "EUR"}, gbp.ExchangeCommissions.Titles())
}

func TestCatalogRejectsDuplicatesAndBlankTitles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.CreateCurrency(ctx, "USD")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	_, err = f.catalog.CreatePaymentMethod(ctx, "PayPal", false)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	_, err = f.catalog.CreateCurrency(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)

	require.NoError(t, f.catalog.ArchiveCurrency(ctx, f.usd.ID))
	_, err = f.catalog.CreateCurrency(ctx, "USD")
	assert.NoError(t, err, "archived titles can be reused")
}

func TestUpdateCurrencyValidatesCommissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	negative := domain.Commissions{{Title: "PayPal", Percentage: dec("-1"), Fixed: dec("0")}}
	_, err := f.catalog.UpdateCurrency(ctx, f.usd.ID, CurrencyUpdate{BuyCommissions: &negative})
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)

	dup := domain.Commissions{
		{Title: "PayPal", Percentage: dec("1"), Fixed: dec("0")},
		{Title: "PayPal", Percentage: dec("2"), Fixed: dec("0")},
	}
	_, err = f.catalog.UpdateCurrency(ctx, f.usd.ID, CurrencyUpdate{SellCommissions: &dup})
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)

	stored, err := f.store.GetCurrency(ctx, f.usd.ID)
	require.NoError(t, err)
	entry, ok := stored.BuyCommissions.Find("PayPal")
	require.True(t, ok)
	assert.True(t, dec("2").Equal(entry.Percentage))
}

func TestPaymentMethodLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pm, err := f.catalog.SetBankingEnabled(ctx, f.paypal.ID, true)
	require.NoError(t, err)
	assert.True(t, pm.IsBankingEnabled)
	assert.Equal(t, "PayPal", pm.Title)

	title := "PayPal Business"
	pm, err = f.catalog.UpdatePaymentMethod(ctx, f.paypal.ID, PaymentMethodUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, pm.Title)
	assert.True(t, pm.IsBankingEnabled)

	page, err := f.catalog.ListPaymentMethods(ctx, models.ListParams{Search: "business"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	require.NoError(t, f.catalog.ArchivePaymentMethod(ctx, f.paypal.ID))
	err = f.catalog.ArchivePaymentMethod(ctx, f.paypal.ID)
	assert.ErrorIs(t, err, domain.ErrPaymentMethodNotFound)
}

func TestListCurrenciesSortsAndPages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.catalog.CreateCurrency(ctx, "GBP")
	require.NoError(t, err)

	page, err := f.catalog.ListCurrencies(ctx, models.ListParams{SortBy: "title", PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "EUR", page.Items[0].Title)
	assert.Equal(t, "GBP", page.Items[1].Title)

	page, err = f.catalog.ListCurrencies(ctx, models.ListParams{SortBy: "title", PageSize: 2, Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "USD", page.Items[0].Title)
}
