package customers

import (
	"time"

	"github.com/google/uuid"

	"github.com/servistore/servistore-backend/pkg/db/models"
)

// CustomerResponse is the public shape of a customer profile.
type CustomerResponse struct {
	ID              uuid.UUID `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	PhoneNumber     *string   `json:"phone_number"`
	IsPhoneVerified bool      `json:"is_phone_verified"`
	CreatedAt       time.Time `json:"created_at"`
}

// UpdateMeInput carries the patchable profile fields. A new phone number is
// never saved directly; it starts the verification flow instead.
type UpdateMeInput struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,e164|numeric"`
}

// UpdateMeResponse reports the profile after a patch. Detail is set when a
// verification code was sent for a pending phone change.
type UpdateMeResponse struct {
	Detail   string           `json:"detail,omitempty"`
	Customer CustomerResponse `json:"customer"`
}

// VerifyPhoneInput carries the code the customer received over SMS.
type VerifyPhoneInput struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// VerifyPhoneResponse reports the promoted profile.
type VerifyPhoneResponse struct {
	Detail   string           `json:"detail"`
	Customer CustomerResponse `json:"customer"`
}

func toCustomerResponse(customer *models.Customer) CustomerResponse {
	return CustomerResponse{
		ID:              customer.ID,
		Username:        customer.Username,
		Email:           customer.Email,
		PhoneNumber:     customer.PhoneNumber,
		IsPhoneVerified: customer.IsPhoneVerified,
		CreatedAt:       customer.CreatedAt,
	}
}
