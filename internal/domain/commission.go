package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Commission is one counterparty entry of a currency's fee schedule.
// Title names a payment method (buy/sell) or another currency (exchange).
type Commission struct {
	Title      string          `json:"title"`
	Percentage decimal.Decimal `json:"percentage"`
	Fixed      decimal.Decimal `json:"fixed"`
}

// Amount returns amount * percentage / 100 + fixed.
func (c Commission) Amount(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(c.Percentage).Div(decimal.NewFromInt(100)).Add(c.Fixed)
}

// Breakdown renders the human readable fee line, e.g. "2% + 1 = 3.00".
func (c Commission) Breakdown(commission decimal.Decimal) string {
	return fmt.Sprintf("%s%% + %s = %s", c.Percentage.String(), c.Fixed.String(), commission.StringFixed(2))
}

// Commissions is an ordered, title keyed commission list.
type Commissions []Commission

// Find returns the entry whose title equals title.
func (cs Commissions) Find(title string) (Commission, bool) {
	for _, c := range cs {
		if c.Title == title {
			return c, true
		}
	}
	return Commission{}, false
}

// Titles lists entry titles in order.
func (cs Commissions) Titles() []string {
	titles := make([]string, 0, len(cs))
	for _, c := range cs {
		titles = append(titles, c.Title)
	}
	return titles
}

// Validate rejects negative values and duplicate or blank titles.
func (cs Commissions) Validate() error {
	seen := make(map[string]struct{}, len(cs))
	for _, c := range cs {
		title := strings.TrimSpace(c.Title)
		if title == "" {
			return fmt.Errorf("%w: commission title is required", ErrInvalidParameters)
		}
		if _, dup := seen[title]; dup {
			return fmt.Errorf("%w: duplicate commission for %s", ErrInvalidParameters, title)
		}
		seen[title] = struct{}{}
		if c.Percentage.IsNegative() || c.Fixed.IsNegative() {
			return fmt.Errorf("%w: commission for %s must be non-negative", ErrInvalidParameters, title)
		}
	}
	return nil
}

// Reconcile rebuilds the list so that it holds exactly one entry per target
// title, in target order. Entries already present keep their configured
// values, new targets get zero defaults and titles outside targets are dropped.
func (cs Commissions) Reconcile(targets []string) Commissions {
	out := make(Commissions, 0, len(targets))
	for _, title := range targets {
		if existing, ok := cs.Find(title); ok {
			out = append(out, existing)
			continue
		}
		out = append(out, Commission{Title: title, Percentage: decimal.Zero, Fixed: decimal.Zero})
	}
	return out
}

// Equal compares titles and numeric values position by position.
func (cs Commissions) Equal(other Commissions) bool {
	if len(cs) != len(other) {
		return false
	}
	for i := range cs {
		if cs[i].Title != other[i].Title || !cs[i].Percentage.Equal(other[i].Percentage) || !cs[i].Fixed.Equal(other[i].Fixed) {
			return false
		}
	}
	return true
}

// CommissionSchedule groups a currency's three directional lists.
type CommissionSchedule struct {
	Buy      Commissions
	Sell     Commissions
	Exchange Commissions
}

// For returns the list consulted for the given order type.
func (s CommissionSchedule) For(t OrderType) Commissions {
	switch t {
	case OrderTypeBuy:
		return s.Buy
	case OrderTypeSell:
		return s.Sell
	case OrderTypeExchange:
		return s.Exchange
	}
	return nil
}

// ScheduleTargets computes the counterparty titles a currency must quote.
func ScheduleTargets(self string, paymentMethods, currencies []string) (buySell, exchange []string) {
	buySell = append([]string(nil), paymentMethods...)
	exchange = make([]string, 0, len(currencies))
	for _, title := range currencies {
		if title != self {
			exchange = append(exchange, title)
		}
	}
	return buySell, exchange
}

// Reconcile returns the schedule restored against the active catalog.
func (s CommissionSchedule) Reconcile(self string, paymentMethods, currencies []string) CommissionSchedule {
	buySell, exchange := ScheduleTargets(self, paymentMethods, currencies)
	return CommissionSchedule{
		Buy:      s.Buy.Reconcile(buySell),
		Sell:     s.Sell.Reconcile(buySell),
		Exchange: s.Exchange.Reconcile(exchange),
	}
}

// Equal reports whether all three lists match.
func (s CommissionSchedule) Equal(other CommissionSchedule) bool {
	return s.Buy.Equal(other.Buy) && s.Sell.Equal(other.Sell) && s.Exchange.Equal(other.Exchange)
}
