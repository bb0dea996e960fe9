package service

import (
	"context"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/google/uuid"
)

// CurrencyStore persists currencies and their commission schedules.
type CurrencyStore interface {
	ListCurrencies(ctx context.Context, p models.ListParams) ([]models.Currency, int, error)
	ListActiveCurrencies(ctx context.Context) ([]models.Currency, error)
	GetCurrency(ctx context.Context, id uuid.UUID) (*models.Currency, error)
	GetCurrencyByTitle(ctx context.Context, title string) (*models.Currency, error)
	CreateCurrency(ctx context.Context, c *models.Currency) error
	UpdateCurrency(ctx context.Context, c *models.Currency) error
	UpdateCurrencyCommissions(ctx context.Context, id uuid.UUID, s domain.CommissionSchedule) error
	ArchiveCurrency(ctx context.Context, id uuid.UUID) error
}

type PaymentMethodStore interface {
	ListPaymentMethods(ctx context.Context, p models.ListParams) ([]models.PaymentMethod, int, error)
	ListActivePaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
	GetPaymentMethod(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, pm *models.PaymentMethod) error
	UpdatePaymentMethod(ctx context.Context, pm *models.PaymentMethod) error
	ArchivePaymentMethod(ctx context.Context, id uuid.UUID) error
}

type AccountStore interface {
	ListAccounts(ctx context.Context, ownerID uuid.UUID) ([]models.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindActiveAccount(ctx context.Context, ownerID uuid.UUID, t domain.AccountType, assetTitle string) (*models.Account, error)
	CreateAccount(ctx context.Context, a *models.Account) error
	UpdateAccount(ctx context.Context, a *models.Account) error
	ArchiveAccount(ctx context.Context, id uuid.UUID) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, int, error)
	TransitionOrderStatus(ctx context.Context, id uuid.UUID, next domain.OrderStatus, actorID *uuid.UUID, check func(current domain.OrderStatus) (bool, error)) (*models.Order, error)
	AmendOrder(ctx context.Context, id uuid.UUID, actorID *uuid.UUID, amend func(o *models.Order) (bool, error)) (*models.Order, error)
	ArchiveOrder(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) error
}

type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// UserDirectory keeps the local mirror of identity-service principals.
type UserDirectory interface {
	UserStore
	UpsertUser(ctx context.Context, u *models.User) error
}

type SiteConfigStore interface {
	ListSiteConfigs(ctx context.Context, limit int) ([]models.SiteConfig, error)
	CreateSiteConfig(ctx context.Context, c *models.SiteConfig) error
	UpdateSiteConfig(ctx context.Context, c *models.SiteConfig) error
}

// Store is the full data access contract, satisfied by *repository.Store.
type Store interface {
	CurrencyStore
	PaymentMethodStore
	AccountStore
	OrderStore
	UserDirectory
	SiteConfigStore
}

// OrderNotifier is told about order lifecycle changes. Implementations must
// not block and must not fail the caller.
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, order models.Order, customer models.User)
	OrderStatusChanged(ctx context.Context, order models.Order, customer models.User, previous domain.OrderStatus)
}
