package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is the buyer identity orders belong to. Authentication lives
// outside this service; the JWT middleware supplies the customer id.
type Customer struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Username        string    `gorm:"column:username;not null;uniqueIndex"`
	Email           string    `gorm:"column:email;not null"`
	PhoneNumber     *string   `gorm:"column:phone_number;uniqueIndex"`
	IsPhoneVerified bool      `gorm:"column:is_phone_verified;not null;default:false"`
	IsStaff         bool      `gorm:"column:is_staff;not null;default:false"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
