package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/servistore/servistore-backend/pkg/db/models"
)

var oneHundred = decimal.NewFromInt(100)

// EffectivePrice applies the attached discount to the list price. Without a
// discount the list price is returned unchanged.
func EffectivePrice(svc *models.Service) decimal.Decimal {
	if svc == nil {
		return decimal.Zero
	}
	if svc.Discount == nil {
		return svc.Price
	}
	factor := decimal.NewFromInt(1).Sub(svc.Discount.Percent.Div(oneHundred))
	price := svc.Price.Mul(factor)
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// LineTotal is quantity times the service's current effective price.
func LineTotal(svc *models.Service, quantity int) decimal.Decimal {
	return EffectivePrice(svc).Mul(decimal.NewFromInt(int64(quantity)))
}
