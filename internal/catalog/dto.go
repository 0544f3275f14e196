package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/servistore/servistore-backend/pkg/db/models"
	"github.com/servistore/servistore-backend/pkg/enums"
)

// ApplicationResponse is the public shape of an application.
type ApplicationResponse struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	TopServiceID *uuid.UUID `json:"top_service_id,omitempty"`
	TopService   *string    `json:"top_service,omitempty"`
}

// ServiceFieldResponse describes one declared input of a service.
type ServiceFieldResponse struct {
	FieldName  string          `json:"field_name"`
	FieldType  enums.FieldType `json:"field_type"`
	IsRequired bool            `json:"is_required"`
	Label      string          `json:"label"`
}

// ServiceResponse is the public shape of a service, including the price the
// buyer actually pays.
type ServiceResponse struct {
	ID              uuid.UUID              `json:"id"`
	Name            string                 `json:"name"`
	Description     string                 `json:"description"`
	Price           decimal.Decimal        `json:"price"`
	Discount        *string                `json:"discount,omitempty"`
	DiscountedPrice decimal.Decimal        `json:"discounted_price"`
	RequiredFields  []ServiceFieldResponse `json:"required_fields"`
}

// CommentResponse is one approved review on a service.
type CommentResponse struct {
	ID        uuid.UUID `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// DiscountResponse is the public shape of a reusable discount.
type DiscountResponse struct {
	ID      uuid.UUID       `json:"id"`
	Name    string          `json:"name"`
	Percent decimal.Decimal `json:"percent"`
}

// CreateApplicationInput carries the staff-editable application fields.
type CreateApplicationInput struct {
	Title       string
	Description string
}

// UpdateApplicationInput patches an application. Nil fields are untouched.
type UpdateApplicationInput struct {
	Title       *string
	Description *string
}

// CreateServiceInput creates a service under an application.
type CreateServiceInput struct {
	ApplicationID uuid.UUID
	Name          string
	Description   string
	Price         decimal.Decimal
	DiscountID    *uuid.UUID
}

// UpdateServiceInput patches a service. ClearDiscount detaches the discount;
// it wins over DiscountID.
type UpdateServiceInput struct {
	ServiceID     uuid.UUID
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	DiscountID    *uuid.UUID
	ClearDiscount bool
}

// CreateDiscountInput creates a reusable percentage discount.
type CreateDiscountInput struct {
	Name    string
	Percent decimal.Decimal
}

// UpdateDiscountInput patches a discount. Nil fields are untouched.
type UpdateDiscountInput struct {
	DiscountID uuid.UUID
	Name       *string
	Percent    *decimal.Decimal
}

// SetTopServiceInput selects the highlighted service for an application.
type SetTopServiceInput struct {
	ApplicationID uuid.UUID
	ServiceID     *uuid.UUID
}

// CreateCommentInput adds a pending review on a service.
type CreateCommentInput struct {
	ServiceID  uuid.UUID
	CustomerID uuid.UUID
	Body       string
}

func toDiscountResponse(discount *models.Discount) DiscountResponse {
	return DiscountResponse{
		ID:      discount.ID,
		Name:    discount.Name,
		Percent: discount.Percent,
	}
}

func toApplicationResponse(app *models.Application) ApplicationResponse {
	resp := ApplicationResponse{
		ID:           app.ID,
		Title:        app.Title,
		Description:  app.Description,
		TopServiceID: app.TopServiceID,
	}
	if app.TopService != nil {
		name := app.TopService.Name
		resp.TopService = &name
	}
	return resp
}

func toServiceResponse(svc *models.Service) ServiceResponse {
	resp := ServiceResponse{
		ID:              svc.ID,
		Name:            svc.Name,
		Description:     svc.Description,
		Price:           svc.Price,
		DiscountedPrice: EffectivePrice(svc),
		RequiredFields:  make([]ServiceFieldResponse, 0, len(svc.RequiredFields)),
	}
	if svc.Discount != nil {
		name := svc.Discount.Name
		resp.Discount = &name
	}
	for _, field := range svc.RequiredFields {
		resp.RequiredFields = append(resp.RequiredFields, ServiceFieldResponse{
			FieldName:  field.FieldName,
			FieldType:  field.FieldType,
			IsRequired: field.IsRequired,
			Label:      field.Label,
		})
	}
	return resp
}

func toCommentResponse(comment *models.Comment) CommentResponse {
	resp := CommentResponse{
		ID:        comment.ID,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	}
	if comment.Customer != nil {
		resp.Author = comment.Customer.Username
	}
	return resp
}
