package models

import (
	"time"

	"github.com/google/uuid"
)

// Application is a storefront grouping of services (e.g. one SaaS product).
type Application struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title        string     `gorm:"column:title;not null"`
	Description  string     `gorm:"column:description;not null;default:''"`
	TopServiceID *uuid.UUID `gorm:"column:top_service_id;type:uuid"`
	TopService   *Service   `gorm:"foreignKey:TopServiceID;constraint:OnDelete:SET NULL"`
	Services     []Service  `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
