package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/servistore/servistore-backend/pkg/enums"
)

// Comment is a moderated customer review on a service.
type Comment struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ServiceID  uuid.UUID           `gorm:"column:service_id;type:uuid;not null"`
	CustomerID uuid.UUID           `gorm:"column:customer_id;type:uuid;not null"`
	Customer   *Customer           `gorm:"foreignKey:CustomerID"`
	Body       string              `gorm:"column:body;not null"`
	Status     enums.CommentStatus `gorm:"column:status;not null;default:'w'"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
