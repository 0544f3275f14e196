package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/servistore/servistore-backend/pkg/enums"
	"github.com/servistore/servistore-backend/pkg/types"
)

// Order is the durable record materialized from a cart. Immutable after
// creation except for the status and payment columns.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID       uuid.UUID         `gorm:"column:customer_id;type:uuid;not null"`
	Customer         *Customer         `gorm:"foreignKey:CustomerID;constraint:OnDelete:RESTRICT"`
	Status           enums.OrderStatus `gorm:"column:status;not null;default:'u'"`
	PaymentAuthority *string           `gorm:"column:payment_authority"`
	PaymentRefID     *string           `gorm:"column:payment_ref_id"`
	Items            []OrderItem       `gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots one cart line at materialization time. Price is frozen
// here; later catalog changes never touch it.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ServiceID uuid.UUID       `gorm:"column:service_id;type:uuid;not null"`
	Service   *Service        `gorm:"foreignKey:ServiceID;constraint:OnDelete:RESTRICT"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null;default:1"`
	ExtraData types.JSONMap   `gorm:"column:extra_data;type:jsonb;serializer:json"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
