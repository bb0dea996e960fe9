package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AssetRef names one side of a trade by asset kind and title.
type AssetRef struct {
	Type  AccountType
	Title string
}

// TradeRequest is the closed set of quote shapes. Each variant knows which
// side is a currency and which is a payment method, so callers never branch
// on the raw type string after ParseTradeRequest.
type TradeRequest interface {
	Type() OrderType
	// QuotedCurrency is the currency whose schedule prices the trade.
	QuotedCurrency() string
	// Counterparty is the commission entry title looked up in that schedule.
	Counterparty() string
	Source() AssetRef
	Destination() AssetRef
	// Settle applies the commission to the offered amount.
	Settle(first, commission decimal.Decimal) decimal.Decimal

	sealed()
}

// BuyQuote pays with a payment method to receive a currency.
type BuyQuote struct {
	PaymentMethod string
	Currency      string
}

func (BuyQuote) Type() OrderType                                 { return OrderTypeBuy }
func (q BuyQuote) QuotedCurrency() string                        { return q.Currency }
func (q BuyQuote) Counterparty() string                          { return q.PaymentMethod }
func (q BuyQuote) Source() AssetRef                              { return AssetRef{Type: AccountTypePaymentMethod, Title: q.PaymentMethod} }
func (q BuyQuote) Destination() AssetRef                         { return AssetRef{Type: AccountTypeECurrency, Title: q.Currency} }
func (BuyQuote) Settle(first, c decimal.Decimal) decimal.Decimal { return first.Add(c) }
func (BuyQuote) sealed()                                         {}

// SellQuote sells a currency into a payment method.
type SellQuote struct {
	Currency      string
	PaymentMethod string
}

func (SellQuote) Type() OrderType                                 { return OrderTypeSell }
func (q SellQuote) QuotedCurrency() string                        { return q.Currency }
func (q SellQuote) Counterparty() string                          { return q.PaymentMethod }
func (q SellQuote) Source() AssetRef                              { return AssetRef{Type: AccountTypeECurrency, Title: q.Currency} }
func (q SellQuote) Destination() AssetRef                         { return AssetRef{Type: AccountTypePaymentMethod, Title: q.PaymentMethod} }
func (SellQuote) Settle(first, c decimal.Decimal) decimal.Decimal { return first.Sub(c) }
func (SellQuote) sealed()                                         {}

// ExchangeQuote swaps one currency for another.
type ExchangeQuote struct {
	From string
	To   string
}

func (ExchangeQuote) Type() OrderType                                 { return OrderTypeExchange }
func (q ExchangeQuote) QuotedCurrency() string                        { return q.From }
func (q ExchangeQuote) Counterparty() string                          { return q.To }
func (q ExchangeQuote) Source() AssetRef                              { return AssetRef{Type: AccountTypeECurrency, Title: q.From} }
func (q ExchangeQuote) Destination() AssetRef                         { return AssetRef{Type: AccountTypeECurrency, Title: q.To} }
func (ExchangeQuote) Settle(first, c decimal.Decimal) decimal.Decimal { return first.Sub(c) }
func (ExchangeQuote) sealed()                                         {}

// ParseTradeRequest builds the variant for a raw (type, from, to) triple.
func ParseTradeRequest(rawType, from, to string) (TradeRequest, error) {
	t, ok := ParseOrderType(strings.TrimSpace(rawType))
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidParameters, rawType)
	}
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" || to == "" {
		return nil, fmt.Errorf("%w: from and to are required", ErrInvalidParameters)
	}

	switch t {
	case OrderTypeBuy:
		return BuyQuote{PaymentMethod: from, Currency: to}, nil
	case OrderTypeSell:
		return SellQuote{Currency: from, PaymentMethod: to}, nil
	default:
		return ExchangeQuote{From: from, To: to}, nil
	}
}

// Quote is the side-effect-free pricing of a trade.
type Quote struct {
	Type             OrderType
	FirstAmount      decimal.Decimal
	CommissionAmount decimal.Decimal
	SecondAmount     decimal.Decimal
	ServiceCharges   string
}

// PriceTrade applies the schedule entry to firstAmount.
func PriceTrade(req TradeRequest, entry Commission, firstAmount decimal.Decimal) (Quote, error) {
	if !firstAmount.IsPositive() {
		return Quote{}, ErrInvalidAmount
	}
	commission := entry.Amount(firstAmount)
	second := req.Settle(firstAmount, commission).Round(2)
	if !second.IsPositive() {
		return Quote{}, fmt.Errorf("%w: amount does not cover the commission of %s", ErrInvalidParameters, commission.StringFixed(2))
	}
	return Quote{
		Type:             req.Type(),
		FirstAmount:      firstAmount,
		CommissionAmount: commission,
		SecondAmount:     second,
		ServiceCharges:   entry.Breakdown(commission),
	}, nil
}
