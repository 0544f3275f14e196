package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servistore/servistore-backend/pkg/db/models"
)

// Repository defines persistence operations for catalog tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListApplications(ctx context.Context) ([]models.Application, error)
	FindApplicationByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
	CreateApplication(ctx context.Context, app *models.Application) (*models.Application, error)
	UpdateApplication(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteApplication(ctx context.Context, id uuid.UUID) error
	ListServicesByApplication(ctx context.Context, applicationID uuid.UUID) ([]models.Service, error)
	FindServiceByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
	CreateService(ctx context.Context, svc *models.Service) (*models.Service, error)
	UpdateService(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteService(ctx context.Context, id uuid.UUID) error
	ListServiceFields(ctx context.Context, serviceID uuid.UUID) ([]models.ServiceField, error)
	ListDiscounts(ctx context.Context) ([]models.Discount, error)
	FindDiscountByID(ctx context.Context, id uuid.UUID) (*models.Discount, error)
	CreateDiscount(ctx context.Context, discount *models.Discount) (*models.Discount, error)
	UpdateDiscount(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteDiscount(ctx context.Context, id uuid.UUID) error
	CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	ListApprovedComments(ctx context.Context, serviceID uuid.UUID) ([]models.Comment, error)
}
