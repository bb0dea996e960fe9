package service

import "github.com/ayo6706/exchange-brokerage/internal/domain"

// orderTransitions lists the allowed moves. Terminal states have no entry.
var orderTransitions = map[domain.OrderStatus]map[domain.OrderStatus]struct{}{
	domain.OrderStatusPending: {
		domain.OrderStatusCompleted: {},
		domain.OrderStatusCancelled: {},
		domain.OrderStatusRejected:  {},
	},
}

func canTransition(current, next domain.OrderStatus) bool {
	nextStates, ok := orderTransitions[current]
	if !ok {
		return false
	}
	_, ok = nextStates[next]
	return ok
}
