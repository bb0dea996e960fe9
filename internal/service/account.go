package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccountFields are the free-form identifying fields of an account. Nil
// leaves a field unchanged on edit; blank values become the placeholder.
type AccountFields struct {
	AccountName   *string
	AccountNumber *string
	BankName      *string
	BankAddress   *string
	BankSwiftCode *string
	Details       *string
}

// CreateAccountInput registers a settlement account for one asset.
type CreateAccountInput struct {
	AccountType string
	AssetID     uuid.UUID
	AccountFields
}

type accountStore interface {
	AccountStore
	GetPaymentMethod(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
	GetCurrency(ctx context.Context, id uuid.UUID) (*models.Currency, error)
}

// AccountService manages a customer's own settlement accounts.
type AccountService struct {
	store accountStore
}

func NewAccountService(store accountStore) *AccountService {
	return &AccountService{store: store}
}

func (s *AccountService) ListAccounts(ctx context.Context, ownerID uuid.UUID) ([]models.Account, error) {
	accounts, err := s.store.ListAccounts(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	return accounts, nil
}

func (s *AccountService) CreateAccount(ctx context.Context, ownerID uuid.UUID, in CreateAccountInput) (*models.Account, error) {
	accountType, ok := domain.ParseAccountType(strings.TrimSpace(in.AccountType))
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAccountType, in.AccountType)
	}

	acct := &models.Account{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		AccountType: accountType,
	}
	applyFields(acct, in.AccountFields)

	var bankingEnabled bool
	switch accountType {
	case domain.AccountTypePaymentMethod:
		pm, err := s.store.GetPaymentMethod(ctx, in.AssetID)
		if err != nil {
			return nil, err
		}
		acct.PaymentMethodID = &pm.ID
		acct.AssetTitle = pm.Title
		bankingEnabled = pm.IsBankingEnabled
	case domain.AccountTypeECurrency:
		c, err := s.store.GetCurrency(ctx, in.AssetID)
		if err != nil {
			return nil, err
		}
		acct.CurrencyID = &c.ID
		acct.AssetTitle = c.Title
	}
	if bankingEnabled {
		if err := requireBankDetails(acct); err != nil {
			return nil, err
		}
	}

	if err := s.store.CreateAccount(ctx, acct); err != nil {
		return nil, err
	}
	zap.L().Info("account created",
		zap.String("account_id", acct.ID.String()),
		zap.String("owner_id", ownerID.String()),
		zap.String("type", string(accountType)),
		zap.String("asset", acct.AssetTitle),
	)
	return acct, nil
}

// UpdateAccount edits identifying fields only. Type, asset and owner are
// fixed at creation.
func (s *AccountService) UpdateAccount(ctx context.Context, ownerID, accountID uuid.UUID, in AccountFields) (*models.Account, error) {
	acct, err := s.owned(ctx, ownerID, accountID)
	if err != nil {
		return nil, err
	}
	applyFields(acct, in)

	if acct.PaymentMethodID != nil {
		pm, err := s.store.GetPaymentMethod(ctx, *acct.PaymentMethodID)
		if err == nil && pm.IsBankingEnabled {
			if err := requireBankDetails(acct); err != nil {
				return nil, err
			}
		}
	}

	if err := s.store.UpdateAccount(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

func (s *AccountService) ArchiveAccount(ctx context.Context, ownerID, accountID uuid.UUID) error {
	if _, err := s.owned(ctx, ownerID, accountID); err != nil {
		return err
	}
	return s.store.ArchiveAccount(ctx, accountID)
}

// owned hides other customers' accounts behind ErrAccountNotFound.
func (s *AccountService) owned(ctx context.Context, ownerID, accountID uuid.UUID) (*models.Account, error) {
	acct, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acct.OwnerID != ownerID {
		return nil, domain.ErrAccountNotFound
	}
	return acct, nil
}

func applyFields(acct *models.Account, in AccountFields) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = placeholder(*src)
		} else if *dst == "" {
			*dst = domain.AccountFieldPlaceholder
		}
	}
	set(&acct.AccountName, in.AccountName)
	set(&acct.AccountNumber, in.AccountNumber)
	set(&acct.BankName, in.BankName)
	set(&acct.BankAddress, in.BankAddress)
	set(&acct.BankSwiftCode, in.BankSwiftCode)
	set(&acct.Details, in.Details)
}

func placeholder(v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return domain.AccountFieldPlaceholder
	}
	return v
}

func requireBankDetails(acct *models.Account) error {
	for _, f := range []struct{ name, value string }{
		{"bank name", acct.BankName},
		{"bank address", acct.BankAddress},
		{"bank swift code", acct.BankSwiftCode},
	} {
		if f.value == domain.AccountFieldPlaceholder {
			return fmt.Errorf("%w: %s is required for %s accounts", domain.ErrInvalidParameters, f.name, acct.AssetTitle)
		}
	}
	return nil
}
