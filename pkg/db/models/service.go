package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/servistore/servistore-backend/pkg/enums"
)

// Service is a purchasable offering under an application.
type Service struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ApplicationID  uuid.UUID       `gorm:"column:application_id;type:uuid;not null"`
	Name           string          `gorm:"column:name;not null"`
	Slug           string          `gorm:"column:slug;not null"`
	Description    string          `gorm:"column:description;not null;default:''"`
	Price          decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	DiscountID     *uuid.UUID      `gorm:"column:discount_id;type:uuid"`
	Discount       *Discount       `gorm:"foreignKey:DiscountID;constraint:OnDelete:SET NULL"`
	RequiredFields []ServiceField  `gorm:"foreignKey:ServiceID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// ServiceField declares one named input a service collects from the buyer.
type ServiceField struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ServiceID  uuid.UUID       `gorm:"column:service_id;type:uuid;not null;uniqueIndex:ux_service_fields_name,priority:1"`
	FieldName  string          `gorm:"column:field_name;not null;uniqueIndex:ux_service_fields_name,priority:2"`
	FieldType  enums.FieldType `gorm:"column:field_type;not null;default:'text'"`
	IsRequired bool            `gorm:"column:is_required;not null;default:true"`
	Label      string          `gorm:"column:label;not null;default:''"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
