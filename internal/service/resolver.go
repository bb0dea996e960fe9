package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/google/uuid"
)

type accountFinder interface {
	FindActiveAccount(ctx context.Context, ownerID uuid.UUID, t domain.AccountType, assetTitle string) (*models.Account, error)
}

// ResolvedAccounts are the two settlement accounts of one trade.
type ResolvedAccounts struct {
	Source      models.Account
	Destination models.Account
}

// AccountResolver maps a trade onto the customer's registered accounts.
type AccountResolver struct {
	accounts accountFinder
}

func NewAccountResolver(accounts accountFinder) *AccountResolver {
	return &AccountResolver{accounts: accounts}
}

// ResolveAccounts finds the newest active account for each side of req. A
// missing side yields ErrAccountNotFound naming the asset to register.
func (r *AccountResolver) ResolveAccounts(ctx context.Context, userID uuid.UUID, req domain.TradeRequest) (*ResolvedAccounts, error) {
	src, err := r.find(ctx, userID, req.Source())
	if err != nil {
		return nil, err
	}
	dst, err := r.find(ctx, userID, req.Destination())
	if err != nil {
		return nil, err
	}
	return &ResolvedAccounts{Source: *src, Destination: *dst}, nil
}

func (r *AccountResolver) find(ctx context.Context, userID uuid.UUID, ref domain.AssetRef) (*models.Account, error) {
	acct, err := r.accounts.FindActiveAccount(ctx, userID, ref.Type, ref.Title)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: no %s account for %s; add one before placing an order", domain.ErrAccountNotFound, ref.Type, ref.Title)
		}
		return nil, fmt.Errorf("find %s account for %s: %w", ref.Type, ref.Title, err)
	}
	return acct, nil
}
