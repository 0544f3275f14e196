package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/servistore/servistore-backend/pkg/db/models"
	pkgerrors "github.com/servistore/servistore-backend/pkg/errors"
)

// Service exposes catalog reads plus the few writes the storefront needs.
type Service interface {
	ListApplications(ctx context.Context) ([]ApplicationResponse, error)
	GetApplication(ctx context.Context, id uuid.UUID) (*ApplicationResponse, error)
	CreateApplication(ctx context.Context, input CreateApplicationInput) (*ApplicationResponse, error)
	UpdateApplication(ctx context.Context, id uuid.UUID, input UpdateApplicationInput) (*ApplicationResponse, error)
	DeleteApplication(ctx context.Context, id uuid.UUID) error
	ListServices(ctx context.Context, applicationID uuid.UUID) ([]ServiceResponse, error)
	GetService(ctx context.Context, id uuid.UUID) (*ServiceResponse, error)
	CreateService(ctx context.Context, input CreateServiceInput) (*ServiceResponse, error)
	UpdateService(ctx context.Context, input UpdateServiceInput) (*ServiceResponse, error)
	DeleteService(ctx context.Context, id uuid.UUID) error
	SetTopService(ctx context.Context, input SetTopServiceInput) error
	ListDiscounts(ctx context.Context) ([]DiscountResponse, error)
	CreateDiscount(ctx context.Context, input CreateDiscountInput) (*DiscountResponse, error)
	UpdateDiscount(ctx context.Context, input UpdateDiscountInput) (*DiscountResponse, error)
	DeleteDiscount(ctx context.Context, id uuid.UUID) error
	CreateComment(ctx context.Context, input CreateCommentInput) (*CommentResponse, error)
	ListComments(ctx context.Context, serviceID uuid.UUID) ([]CommentResponse, error)
}

type service struct {
	repo Repository
}

// NewService builds the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListApplications(ctx context.Context) ([]ApplicationResponse, error) {
	rows, err := s.repo.ListApplications(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list applications")
	}
	out := make([]ApplicationResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toApplicationResponse(&rows[i]))
	}
	return out, nil
}

func (s *service) GetApplication(ctx context.Context, id uuid.UUID) (*ApplicationResponse, error) {
	app, err := s.repo.FindApplicationByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load application")
	}
	resp := toApplicationResponse(app)
	return &resp, nil
}

func (s *service) ListServices(ctx context.Context, applicationID uuid.UUID) ([]ServiceResponse, error) {
	rows, err := s.repo.ListServicesByApplication(ctx, applicationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list services")
	}
	out := make([]ServiceResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toServiceResponse(&rows[i]))
	}
	return out, nil
}

func (s *service) GetService(ctx context.Context, id uuid.UUID) (*ServiceResponse, error) {
	svc, err := s.repo.FindServiceByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}
	resp := toServiceResponse(svc)
	return &resp, nil
}

func (s *service) CreateApplication(ctx context.Context, input CreateApplicationInput) (*ApplicationResponse, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "application title required")
	}

	app, err := s.repo.CreateApplication(ctx, &models.Application{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create application")
	}
	resp := toApplicationResponse(app)
	return &resp, nil
}

func (s *service) UpdateApplication(ctx context.Context, id uuid.UUID, input UpdateApplicationInput) (*ApplicationResponse, error) {
	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "application title required")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}

	if _, err := s.repo.FindApplicationByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load application")
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateApplication(ctx, id, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update application")
		}
	}
	return s.GetApplication(ctx, id)
}

func (s *service) DeleteApplication(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindApplicationByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load application")
	}
	if err := s.repo.DeleteApplication(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete application")
	}
	return nil
}

func (s *service) CreateService(ctx context.Context, input CreateServiceInput) (*ServiceResponse, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service name required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service price must not be negative")
	}

	if _, err := s.repo.FindApplicationByID(ctx, input.ApplicationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load application")
	}
	if input.DiscountID != nil {
		if _, err := s.repo.FindDiscountByID(ctx, *input.DiscountID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount")
		}
	}

	created, err := s.repo.CreateService(ctx, &models.Service{
		ApplicationID: input.ApplicationID,
		Name:          name,
		Slug:          slugify(name),
		Description:   strings.TrimSpace(input.Description),
		Price:         input.Price,
		DiscountID:    input.DiscountID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create service")
	}
	return s.GetService(ctx, created.ID)
}

func (s *service) UpdateService(ctx context.Context, input UpdateServiceInput) (*ServiceResponse, error) {
	if _, err := s.repo.FindServiceByID(ctx, input.ServiceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "service name required")
		}
		updates["name"] = name
		updates["slug"] = slugify(name)
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "service price must not be negative")
		}
		updates["price"] = *input.Price
	}
	switch {
	case input.ClearDiscount:
		updates["discount_id"] = nil
	case input.DiscountID != nil:
		if _, err := s.repo.FindDiscountByID(ctx, *input.DiscountID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount")
		}
		updates["discount_id"] = *input.DiscountID
	}

	if len(updates) > 0 {
		if err := s.repo.UpdateService(ctx, input.ServiceID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update service")
		}
	}
	return s.GetService(ctx, input.ServiceID)
}

func (s *service) DeleteService(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindServiceByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}
	if err := s.repo.DeleteService(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete service")
	}
	return nil
}

func (s *service) ListDiscounts(ctx context.Context) ([]DiscountResponse, error) {
	rows, err := s.repo.ListDiscounts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list discounts")
	}
	out := make([]DiscountResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toDiscountResponse(&rows[i]))
	}
	return out, nil
}

func (s *service) CreateDiscount(ctx context.Context, input CreateDiscountInput) (*DiscountResponse, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount name required")
	}
	if err := validatePercent(input.Percent); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateDiscount(ctx, &models.Discount{
		Name:    name,
		Percent: input.Percent,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create discount")
	}
	resp := toDiscountResponse(created)
	return &resp, nil
}

func (s *service) UpdateDiscount(ctx context.Context, input UpdateDiscountInput) (*DiscountResponse, error) {
	if _, err := s.repo.FindDiscountByID(ctx, input.DiscountID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount name required")
		}
		updates["name"] = name
	}
	if input.Percent != nil {
		if err := validatePercent(*input.Percent); err != nil {
			return nil, err
		}
		updates["percent"] = *input.Percent
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateDiscount(ctx, input.DiscountID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update discount")
		}
	}

	discount, err := s.repo.FindDiscountByID(ctx, input.DiscountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount")
	}
	resp := toDiscountResponse(discount)
	return &resp, nil
}

func (s *service) DeleteDiscount(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindDiscountByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "discount not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount")
	}
	if err := s.repo.DeleteDiscount(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete discount")
	}
	return nil
}

func validatePercent(percent decimal.Decimal) error {
	if percent.IsNegative() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
	}
	return nil
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")
	return slug
}

// SetTopService highlights one of the application's own services. A service
// belonging to a different application is rejected.
func (s *service) SetTopService(ctx context.Context, input SetTopServiceInput) error {
	if input.ApplicationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "application id required")
	}

	if _, err := s.repo.FindApplicationByID(ctx, input.ApplicationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load application")
	}

	if input.ServiceID == nil {
		if err := s.repo.UpdateApplication(ctx, input.ApplicationID, map[string]any{"top_service_id": nil}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear top service")
		}
		return nil
	}

	svc, err := s.repo.FindServiceByID(ctx, *input.ServiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}
	if svc.ApplicationID != input.ApplicationID {
		return pkgerrors.New(pkgerrors.CodeValidation, "the selected top service must belong to this application")
	}

	if err := s.repo.UpdateApplication(ctx, input.ApplicationID, map[string]any{"top_service_id": svc.ID}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set top service")
	}
	return nil
}

func (s *service) CreateComment(ctx context.Context, input CreateCommentInput) (*CommentResponse, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if strings.TrimSpace(input.Body) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment body required")
	}

	if _, err := s.repo.FindServiceByID(ctx, input.ServiceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}

	comment, err := s.repo.CreateComment(ctx, &models.Comment{
		ServiceID:  input.ServiceID,
		CustomerID: input.CustomerID,
		Body:       strings.TrimSpace(input.Body),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create comment")
	}
	resp := toCommentResponse(comment)
	return &resp, nil
}

func (s *service) ListComments(ctx context.Context, serviceID uuid.UUID) ([]CommentResponse, error) {
	rows, err := s.repo.ListApprovedComments(ctx, serviceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list comments")
	}
	out := make([]CommentResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toCommentResponse(&rows[i]))
	}
	return out, nil
}
