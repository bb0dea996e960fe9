package handler

import (
	"encoding/json"
	"time"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/models"
)

type quoteResponse struct {
	Type             domain.OrderType `json:"type"`
	FirstAmount      string           `json:"first_amount"`
	ServiceCharges   string           `json:"service_charges"`
	SecondAmount     string           `json:"second_amount"`
	CommissionAmount json.Number      `json:"commission_amount"`
}

func toQuoteResponse(q domain.Quote) quoteResponse {
	return quoteResponse{
		Type:             q.Type,
		FirstAmount:      q.FirstAmount.String(),
		ServiceCharges:   q.ServiceCharges,
		SecondAmount:     domain.FormatSettlement(q.SecondAmount),
		CommissionAmount: json.Number(q.CommissionAmount.String()),
	}
}

type orderResponse struct {
	ID             string               `json:"id"`
	UserID         string               `json:"user_id"`
	Type           domain.OrderType     `json:"type"`
	Status         domain.OrderStatus   `json:"status"`
	FirstAmount    string               `json:"first_amount"`
	SecondAmount   string               `json:"second_amount"`
	ServiceCharges string               `json:"service_charges"`
	SentFrom       models.AssetSnapshot `json:"sent_from"`
	ReceivedIn     models.AssetSnapshot `json:"received_in"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

func toOrderResponse(o *models.Order) orderResponse {
	return orderResponse{
		ID:             o.ID.String(),
		UserID:         o.UserID.String(),
		Type:           o.Type,
		Status:         o.Status,
		FirstAmount:    o.FirstAmount.String(),
		SecondAmount:   domain.FormatSettlement(o.SecondAmount),
		ServiceCharges: o.ServiceCharges,
		SentFrom:       o.SentFrom,
		ReceivedIn:     o.ReceivedIn,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func toOrderPage(p models.Page[models.Order]) models.Page[orderResponse] {
	items := make([]orderResponse, 0, len(p.Items))
	for i := range p.Items {
		items = append(items, toOrderResponse(&p.Items[i]))
	}
	return models.Page[orderResponse]{Items: items, Total: p.Total, Page: p.Page, PageSize: p.PageSize}
}
