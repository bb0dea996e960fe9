package service

import (
	"context"
	"testing"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreateAccountFillsPlaceholders(t *testing.T) {
	f := newFixture(t)
	acct := f.addAccount(t, domain.AccountTypeECurrency, f.eur.ID)

	assert.Equal(t, "EUR", acct.AssetTitle)
	require.NotNil(t, acct.CurrencyID)
	assert.Nil(t, acct.PaymentMethodID)
	assert.Equal(t, "Ada Obi", acct.AccountName)
	assert.Equal(t, domain.AccountFieldPlaceholder, acct.AccountNumber)
	assert.Equal(t, domain.AccountFieldPlaceholder, acct.Details)
}

func TestCreateAccountValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.CreateAccount(ctx, f.customer.ID, CreateAccountInput{AccountType: "crypto", AssetID: f.usd.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidAccountType)

	_, err = f.accounts.CreateAccount(ctx, f.customer.ID, CreateAccountInput{AccountType: "ecurrency", AssetID: f.paypal.ID})
	assert.ErrorIs(t, err, domain.ErrCurrencyNotFound, "asset must match the account type")

	wire, err := f.catalog.CreatePaymentMethod(ctx, "Wire", true)
	require.NoError(t, err)
	_, err = f.accounts.CreateAccount(ctx, f.customer.ID, CreateAccountInput{
		AccountType:   "paymentmethod",
		AssetID:       wire.ID,
		AccountFields: AccountFields{BankName: strPtr("First Bank")},
	})
	require.ErrorIs(t, err, domain.ErrInvalidParameters)
	assert.Contains(t, err.Error(), "bank address")

	acct, err := f.accounts.CreateAccount(ctx, f.customer.ID, CreateAccountInput{
		AccountType: "paymentmethod",
		AssetID:     wire.ID,
		AccountFields: AccountFields{
			BankName:      strPtr("First Bank"),
			BankAddress:   strPtr("1 Marina, Lagos"),
			BankSwiftCode: strPtr("FBNINGLA"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Wire", acct.AssetTitle)
}

func TestAccountsAreScopedToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acct := f.addAccount(t, domain.AccountTypeECurrency, f.usd.ID)
	stranger := uuid.New()

	_, err := f.accounts.UpdateAccount(ctx, stranger, acct.ID, AccountFields{Details: strPtr("x")})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.ErrorIs(t, f.accounts.ArchiveAccount(ctx, stranger, acct.ID), domain.ErrAccountNotFound)

	list, err := f.accounts.ListAccounts(ctx, stranger)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	mine, err := f.accounts.ListAccounts(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 4)
	assert.Equal(t, acct.ID, mine[0].ID, "newest first")
}

func TestUpdateAccountEditsIdentifyingFieldsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acct := f.addAccount(t, domain.AccountTypeECurrency, f.usd.ID)

	updated, err := f.accounts.UpdateAccount(ctx, f.customer.ID, acct.ID, AccountFields{
		AccountNumber: strPtr("U123"),
		AccountName:   strPtr(" "),
	})
	require.NoError(t, err)
	assert.Equal(t, "U123", updated.AccountNumber)
	assert.Equal(t, domain.AccountFieldPlaceholder, updated.AccountName)
	assert.Equal(t, domain.AccountTypeECurrency, updated.AccountType)
	assert.Equal(t, f.usd.ID, updated.AssetID())

	stored, err := f.store.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "U123", stored.AccountNumber)
}
