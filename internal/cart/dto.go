package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/servistore/servistore-backend/internal/catalog"
	"github.com/servistore/servistore-backend/pkg/db/models"
	"github.com/servistore/servistore-backend/pkg/types"
)

// AddItemInput carries a request to put a service into a cart.
// ExtraDataNull distinguishes an explicit null payload from an absent one.
type AddItemInput struct {
	CartID        uuid.UUID
	ServiceID     uuid.UUID
	Quantity      int
	ExtraData     types.JSONMap
	ExtraDataNull bool
}

// UpdateItemInput mutates quantity and/or extra data of an existing item.
type UpdateItemInput struct {
	CartID        uuid.UUID
	ItemID        uuid.UUID
	Quantity      *int
	ExtraData     types.JSONMap
	ExtraDataSet  bool
	ExtraDataNull bool
}

// ItemResponse is one cart line with live pricing.
type ItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ServiceID   uuid.UUID       `json:"service_id"`
	ServiceName string          `json:"service_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	ExtraData   types.JSONMap   `json:"extra_data"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// CartResponse is the full cart with its current total.
type CartResponse struct {
	ID    uuid.UUID       `json:"id"`
	Items []ItemResponse  `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func toItemResponse(item *models.CartItem) ItemResponse {
	resp := ItemResponse{
		ID:        item.ID,
		ServiceID: item.ServiceID,
		Quantity:  item.Quantity,
		ExtraData: item.ExtraData,
	}
	if item.Service != nil {
		resp.ServiceName = item.Service.Name
		resp.UnitPrice = catalog.EffectivePrice(item.Service)
		resp.LineTotal = catalog.LineTotal(item.Service, item.Quantity)
	}
	return resp
}

func toCartResponse(cart *models.Cart) CartResponse {
	resp := CartResponse{
		ID:    cart.ID,
		Items: make([]ItemResponse, 0, len(cart.Items)),
		Total: decimal.Zero,
	}
	for i := range cart.Items {
		item := toItemResponse(&cart.Items[i])
		resp.Items = append(resp.Items, item)
		resp.Total = resp.Total.Add(item.LineTotal)
	}
	return resp
}
