package models

import (
	"fmt"
	"time"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User mirrors a principal owned by the identity service.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// FullName joins first and last name for greetings.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type Currency struct {
	ID                  uuid.UUID          `json:"id"`
	Title               string             `json:"title"`
	BuyCommissions      domain.Commissions `json:"buy_commissions"`
	SellCommissions     domain.Commissions `json:"sell_commissions"`
	ExchangeCommissions domain.Commissions `json:"exchange_commissions"`
	IsArchived          bool               `json:"is_archived"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// Schedule returns the three commission lists as one value.
func (c Currency) Schedule() domain.CommissionSchedule {
	return domain.CommissionSchedule{
		Buy:      c.BuyCommissions,
		Sell:     c.SellCommissions,
		Exchange: c.ExchangeCommissions,
	}
}

// SetSchedule replaces the three commission lists.
func (c *Currency) SetSchedule(s domain.CommissionSchedule) {
	c.BuyCommissions = s.Buy
	c.SellCommissions = s.Sell
	c.ExchangeCommissions = s.Exchange
}

type PaymentMethod struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	IsBankingEnabled bool      `json:"is_banking_enabled"`
	IsArchived       bool      `json:"is_archived"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Account is a customer's registered settlement account for one asset.
// Exactly one of PaymentMethodID or CurrencyID is set, matching AccountType.
type Account struct {
	ID              uuid.UUID          `json:"id"`
	OwnerID         uuid.UUID          `json:"owner_id"`
	AccountType     domain.AccountType `json:"account_type"`
	PaymentMethodID *uuid.UUID         `json:"payment_method_id,omitempty"`
	CurrencyID      *uuid.UUID         `json:"currency_id,omitempty"`
	AssetTitle      string             `json:"asset_title"`
	AccountName     string             `json:"account_name"`
	AccountNumber   string             `json:"account_number"`
	BankName        string             `json:"bank_name"`
	BankAddress     string             `json:"bank_address"`
	BankSwiftCode   string             `json:"bank_swift_code"`
	Details         string             `json:"details"`
	IsArchived      bool               `json:"is_archived"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// AssetID returns whichever asset reference the account carries.
func (a Account) AssetID() uuid.UUID {
	if a.PaymentMethodID != nil {
		return *a.PaymentMethodID
	}
	if a.CurrencyID != nil {
		return *a.CurrencyID
	}
	return uuid.Nil
}

// Snapshot captures the account's asset identity at this instant.
func (a Account) Snapshot() AssetSnapshot {
	return AssetSnapshot{
		Model:     a.AccountType.Model(),
		ID:        a.AssetID(),
		Title:     a.AssetTitle,
		AccountID: a.ID,
	}
}

// AssetSnapshot is the immutable copy of one side of an order.
type AssetSnapshot struct {
	Model     domain.AssetModel `json:"model"`
	ID        uuid.UUID         `json:"id"`
	Title     string            `json:"title"`
	AccountID uuid.UUID         `json:"accountId"`
}

type Order struct {
	ID             uuid.UUID          `json:"id"`
	UserID         uuid.UUID          `json:"user_id"`
	Type           domain.OrderType   `json:"type"`
	Status         domain.OrderStatus `json:"status"`
	FirstAmount    decimal.Decimal    `json:"first_amount"`
	SecondAmount   decimal.Decimal    `json:"second_amount"`
	ServiceCharges string             `json:"service_charges"`
	SentFrom       AssetSnapshot      `json:"sent_from"`
	ReceivedIn     AssetSnapshot      `json:"received_in"`
	IsArchived     bool               `json:"is_archived"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// PricingSummary renders the amendable pricing fields for the audit trail.
func (o Order) PricingSummary() string {
	return fmt.Sprintf("first_amount=%s second_amount=%s service_charges=%q",
		o.FirstAmount.String(), o.SecondAmount.StringFixed(2), o.ServiceCharges)
}

// SiteConfig is the operational settings singleton.
type SiteConfig struct {
	ID                         uuid.UUID `json:"id"`
	EmailAddress               string    `json:"email_address,omitempty"`
	EmailPassword              string    `json:"email_password,omitempty"`
	BuyOrderConfirmedText      string    `json:"buy_order_confirmed_text"`
	SellOrderConfirmedText     string    `json:"sell_order_confirmed_text"`
	ExchangeOrderConfirmedText string    `json:"exchange_order_confirmed_text"`
	UpdatedAt                  time.Time `json:"updated_at"`
}

// Public drops mail credentials for customer-facing reads.
func (c SiteConfig) Public() SiteConfig {
	c.EmailAddress = ""
	c.EmailPassword = ""
	return c
}

// ConfirmationText returns the template for the order type.
func (c SiteConfig) ConfirmationText(t domain.OrderType) string {
	switch t {
	case domain.OrderTypeBuy:
		return c.BuyOrderConfirmedText
	case domain.OrderTypeSell:
		return c.SellOrderConfirmedText
	case domain.OrderTypeExchange:
		return c.ExchangeOrderConfirmedText
	}
	return ""
}

// AuditEntry records one administrative change.
type AuditEntry struct {
	ID         int64      `json:"id"`
	EntityType string     `json:"entity_type"`
	EntityID   uuid.UUID  `json:"entity_id"`
	ActorID    *uuid.UUID `json:"actor_id,omitempty"`
	Action     string     `json:"action"`
	PrevState  string     `json:"prev_state"`
	NextState  string     `json:"next_state"`
	CreatedAt  time.Time  `json:"created_at"`
}
