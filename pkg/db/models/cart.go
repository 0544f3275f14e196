package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/servistore/servistore-backend/pkg/types"
)

// Cart is an anonymous collection of items addressed only by its random id.
// Possession of the id is the access control.
type Cart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// CartItem is one service line in a cart. The (cart, service, extra_data)
// triple is unique: re-adding with identical extra data bumps the quantity.
type CartItem struct {
	ID        uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID    uuid.UUID     `gorm:"column:cart_id;type:uuid;not null"`
	ServiceID uuid.UUID     `gorm:"column:service_id;type:uuid;not null"`
	Service   *Service      `gorm:"foreignKey:ServiceID;constraint:OnDelete:CASCADE"`
	Quantity  int           `gorm:"column:quantity;not null;default:1"`
	ExtraData types.JSONMap `gorm:"column:extra_data;type:jsonb;serializer:json"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
