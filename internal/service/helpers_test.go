package service

import (
	"context"
	"sync"
	"testing"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/ayo6706/exchange-brokerage/internal/testutil/memstore"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type recordingNotifier struct {
	mu      sync.Mutex
	placed  []models.Order
	changed []statusChange
}

type statusChange struct {
	order    models.Order
	customer models.User
	previous domain.OrderStatus
}

func (n *recordingNotifier) OrderPlaced(_ context.Context, order models.Order, _ models.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.placed = append(n.placed, order)
}

func (n *recordingNotifier) OrderStatusChanged(_ context.Context, order models.Order, customer models.User, previous domain.OrderStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, statusChange{order: order, customer: customer, previous: previous})
}

// fixture is a catalog of USD and EUR plus PayPal, with one customer who has
// accounts for all three assets.
type fixture struct {
	store    *memstore.Store
	notifier *recordingNotifier
	catalog  *CatalogService
	resync   *CommissionService
	orders   *OrderService
	accounts *AccountService

	customer models.User
	usd      *models.Currency
	eur      *models.Currency
	paypal   *models.PaymentMethod
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memstore.New()
	f := &fixture{
		store:    store,
		notifier: &recordingNotifier{},
		catalog:  NewCatalogService(store),
		resync:   NewCommissionService(store),
		accounts: NewAccountService(store),
		customer: models.User{ID: uuid.New(), Email: "ada@example.com", FirstName: "Ada", LastName: "Obi", Role: domain.RoleCustomer},
	}
	f.orders = NewOrderService(store, NewQuoteService(store), NewAccountResolver(store), f.notifier)
	store.AddUser(f.customer)

	var err error
	f.paypal, err = f.catalog.CreatePaymentMethod(ctx, "PayPal", false)
	require.NoError(t, err)
	f.usd, err = f.catalog.CreateCurrency(ctx, "USD")
	require.NoError(t, err)
	f.eur, err = f.catalog.CreateCurrency(ctx, "EUR")
	require.NoError(t, err)
	require.NoError(t, f.resync.Resync(ctx))

	f.setCommission(t, f.usd.ID, domain.OrderTypeBuy, "PayPal", "2", "1")
	f.setCommission(t, f.usd.ID, domain.OrderTypeSell, "PayPal", "2", "1")
	f.setCommission(t, f.usd.ID, domain.OrderTypeExchange, "EUR", "1", "0")

	f.addAccount(t, domain.AccountTypePaymentMethod, f.paypal.ID)
	f.addAccount(t, domain.AccountTypeECurrency, f.usd.ID)
	f.addAccount(t, domain.AccountTypeECurrency, f.eur.ID)
	return f
}

func (f *fixture) setCommission(t *testing.T, currencyID uuid.UUID, dir domain.OrderType, title, pct, fixed string) {
	t.Helper()
	c, err := f.store.GetCurrency(context.Background(), currencyID)
	require.NoError(t, err)

	sched := c.Schedule()
	list := append(domain.Commissions(nil), sched.For(dir)...)
	for i := range list {
		if list[i].Title == title {
			list[i].Percentage = dec(pct)
			list[i].Fixed = dec(fixed)
		}
	}
	upd := CurrencyUpdate{}
	switch dir {
	case domain.OrderTypeBuy:
		upd.BuyCommissions = &list
	case domain.OrderTypeSell:
		upd.SellCommissions = &list
	case domain.OrderTypeExchange:
		upd.ExchangeCommissions = &list
	}
	_, err = f.catalog.UpdateCurrency(context.Background(), currencyID, upd)
	require.NoError(t, err)
}

func (f *fixture) addAccount(t *testing.T, accountType domain.AccountType, assetID uuid.UUID) *models.Account {
	t.Helper()
	name := "Ada Obi"
	acct, err := f.accounts.CreateAccount(context.Background(), f.customer.ID, CreateAccountInput{
		AccountType:   string(accountType),
		AssetID:       assetID,
		AccountFields: AccountFields{AccountName: &name},
	})
	require.NoError(t, err)
	return acct
}
