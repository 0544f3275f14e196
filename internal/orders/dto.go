package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/servistore/servistore-backend/pkg/db/models"
	"github.com/servistore/servistore-backend/pkg/enums"
	"github.com/servistore/servistore-backend/pkg/types"
)

// ItemResponse is one frozen order line.
type ItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ServiceID   uuid.UUID       `json:"service_id"`
	ServiceName string          `json:"service_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	ItemTotal   decimal.Decimal `json:"item_total"`
	ExtraData   types.JSONMap   `json:"extra_data"`
}

// OrderResponse is the public shape of an order.
type OrderResponse struct {
	ID               uuid.UUID         `json:"id"`
	Customer         string            `json:"customer"`
	Status           enums.OrderStatus `json:"status"`
	Items            []ItemResponse    `json:"items"`
	Total            decimal.Decimal   `json:"total"`
	PaymentAuthority *string           `json:"payment_authority,omitempty"`
	PaymentRefID     *string           `json:"payment_ref_id,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// PayResponse carries the gateway redirect for a freshly opened session.
type PayResponse struct {
	PaymentURL string `json:"payment_url"`
}

// CallbackResult reports the settled state after a gateway callback.
// Message carries the failure text when the order ends up canceled.
type CallbackResult struct {
	Status  enums.OrderStatus `json:"status"`
	RefID   *string           `json:"ref_id,omitempty"`
	Message string            `json:"-"`
}

// Total sums frozen line prices; live catalog prices never participate.
func Total(order *models.Order) decimal.Decimal {
	total := decimal.Zero
	for i := range order.Items {
		item := &order.Items[i]
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

func toOrderResponse(order *models.Order) OrderResponse {
	resp := OrderResponse{
		ID:               order.ID,
		Status:           order.Status,
		Items:            make([]ItemResponse, 0, len(order.Items)),
		Total:            Total(order),
		PaymentAuthority: order.PaymentAuthority,
		PaymentRefID:     order.PaymentRefID,
		CreatedAt:        order.CreatedAt,
	}
	if order.Customer != nil {
		resp.Customer = order.Customer.Username
	}
	for i := range order.Items {
		item := &order.Items[i]
		line := ItemResponse{
			ID:        item.ID,
			ServiceID: item.ServiceID,
			Price:     item.Price,
			Quantity:  item.Quantity,
			ItemTotal: item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
			ExtraData: item.ExtraData,
		}
		if item.Service != nil {
			line.ServiceName = item.Service.Name
		}
		resp.Items = append(resp.Items, line)
	}
	return resp
}
