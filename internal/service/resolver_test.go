package service

import (
	"context"
	"testing"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAccountsPicksNewestActiveMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	newer := f.addAccount(t, domain.AccountTypeECurrency, f.usd.ID)
	newest := f.addAccount(t, domain.AccountTypeECurrency, f.usd.ID)
	require.NoError(t, f.accounts.ArchiveAccount(ctx, f.customer.ID, newest.ID))

	resolved, err := NewAccountResolver(f.store).ResolveAccounts(ctx, f.customer.ID, domain.BuyQuote{PaymentMethod: "PayPal", Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, newer.ID, resolved.Destination.ID)
	assert.Equal(t, domain.AccountTypePaymentMethod, resolved.Source.AccountType)
	assert.Equal(t, "PayPal", resolved.Source.AssetTitle)
}

func TestResolveAccountsNamesMissingAsset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resolver := NewAccountResolver(f.store)

	_, err := resolver.ResolveAccounts(ctx, uuid.New(), domain.ExchangeQuote{From: "USD", To: "EUR"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.Contains(t, err.Error(), "no ecurrency account for USD")

	require.NoError(t, f.catalog.ArchivePaymentMethod(ctx, f.paypal.ID))
	_, err = resolver.ResolveAccounts(ctx, f.customer.ID, domain.SellQuote{Currency: "USD", PaymentMethod: "PayPal"})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound, "accounts of archived assets do not match")
	assert.Contains(t, err.Error(), "PayPal")
}
