package domain

// OrderType is the direction of a customer trade.
type OrderType string

const (
	OrderTypeBuy      OrderType = "buy"
	OrderTypeSell     OrderType = "sell"
	OrderTypeExchange OrderType = "exchange"
)

// OrderStatus values are set by admins only.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRejected  OrderStatus = "rejected"
)

// AccountType selects which asset reference an account carries.
type AccountType string

const (
	AccountTypePaymentMethod AccountType = "paymentmethod"
	AccountTypeECurrency     AccountType = "ecurrency"
)

// AssetModel tags an order snapshot with the kind of asset it captured.
type AssetModel string

const (
	AssetModelPaymentMethod AssetModel = "paymentMethod"
	AssetModelECurrency     AssetModel = "eCurrency"
)

const (
	RoleAdmin    = "admin"
	RoleCustomer = "user"

	// AccountFieldPlaceholder fills optional identifying fields left blank.
	AccountFieldPlaceholder = "N/A"
)

// ParseOrderType validates a raw type string.
func ParseOrderType(raw string) (OrderType, bool) {
	switch t := OrderType(raw); t {
	case OrderTypeBuy, OrderTypeSell, OrderTypeExchange:
		return t, true
	}
	return "", false
}

// ParseOrderStatus validates a raw status string.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	switch s := OrderStatus(raw); s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled, OrderStatusRejected:
		return s, true
	}
	return "", false
}

// ParseAccountType validates a raw account type string.
func ParseAccountType(raw string) (AccountType, bool) {
	switch t := AccountType(raw); t {
	case AccountTypePaymentMethod, AccountTypeECurrency:
		return t, true
	}
	return "", false
}

// Model returns the snapshot tag for assets referenced by this account type.
func (t AccountType) Model() AssetModel {
	if t == AccountTypePaymentMethod {
		return AssetModelPaymentMethod
	}
	return AssetModelECurrency
}

// IsTerminal reports whether no further status change is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled || s == OrderStatusRejected
}
