package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servistore/servistore-backend/internal/fields"
	"github.com/servistore/servistore-backend/pkg/db/models"
	pkgerrors "github.com/servistore/servistore-backend/pkg/errors"
	"github.com/servistore/servistore-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// serviceLoader fetches a service with its discount and field declarations.
// Satisfied by the catalog repository.
type serviceLoader interface {
	FindServiceByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
}

// Service exposes cart lifecycle and item mutations. Carts are anonymous;
// callers authenticate by knowing the cart id.
type Service interface {
	Create(ctx context.Context) (*CartResponse, error)
	Get(ctx context.Context, cartID uuid.UUID) (*CartResponse, error)
	Delete(ctx context.Context, cartID uuid.UUID) error
	AddItem(ctx context.Context, input AddItemInput) (*ItemResponse, error)
	UpdateItem(ctx context.Context, input UpdateItemInput) (*ItemResponse, error)
	RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error
}

type service struct {
	repo     Repository
	services serviceLoader
	tx       txRunner
}

// NewService builds a cart service with the required dependencies.
func NewService(repo Repository, services serviceLoader, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if services == nil {
		return nil, fmt.Errorf("service loader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, services: services, tx: tx}, nil
}

// Create mints a cart with a random unguessable id.
func (s *service) Create(ctx context.Context) (*CartResponse, error) {
	cart, err := s.repo.Create(ctx, &models.Cart{ID: uuid.New()})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	resp := toCartResponse(cart)
	return &resp, nil
}

func (s *service) Get(ctx context.Context, cartID uuid.UUID) (*CartResponse, error) {
	cart, err := s.loadCart(ctx, s.repo, cartID)
	if err != nil {
		return nil, err
	}
	resp := toCartResponse(cart)
	return &resp, nil
}

func (s *service) Delete(ctx context.Context, cartID uuid.UUID) error {
	if _, err := s.loadCart(ctx, s.repo, cartID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, cartID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
	}
	return nil
}

// AddItem validates the extra data against the service's declared fields and
// either merges into an existing line (same service, same extra data) or
// creates a new one.
func (s *service) AddItem(ctx context.Context, input AddItemInput) (*ItemResponse, error) {
	if input.ExtraDataNull {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fields.NullPayloadMessage)
	}
	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	var result *models.CartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// Lock the cart row so concurrent mutations of the same cart
		// serialize; without it two adds can race past the sibling scan
		// and insert the same (service, extra_data) line twice.
		if _, err := s.loadCartForUpdate(ctx, repo, input.CartID); err != nil {
			return err
		}

		svc, err := s.loadService(ctx, input.ServiceID)
		if err != nil {
			return err
		}

		cleaned, err := validateExtraData(svc, input.ExtraData)
		if err != nil {
			return err
		}

		siblings, err := repo.ListItemsByService(ctx, input.CartID, input.ServiceID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
		}
		for i := range siblings {
			if siblings[i].ExtraData.Equal(cleaned) {
				siblings[i].Quantity += quantity
				updated, err := repo.UpdateItem(ctx, &siblings[i])
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
				}
				updated.Service = svc
				result = updated
				return nil
			}
		}

		created, err := repo.CreateItem(ctx, &models.CartItem{
			CartID:    input.CartID,
			ServiceID: input.ServiceID,
			Quantity:  quantity,
			ExtraData: cleaned,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
		}
		created.Service = svc
		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toItemResponse(result)
	return &resp, nil
}

// UpdateItem changes quantity and/or extra data, re-running the same field
// validation as AddItem when extra data is supplied. When the new extra data
// matches another line of the same service, the two lines are folded into one
// so the (cart, service, extra_data) triple stays unique.
func (s *service) UpdateItem(ctx context.Context, input UpdateItemInput) (*ItemResponse, error) {
	if input.ExtraDataNull {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fields.NullPayloadMessage)
	}
	if input.Quantity != nil && *input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	var result *models.CartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := s.loadCartForUpdate(ctx, repo, input.CartID); err != nil {
			return err
		}

		item, err := repo.FindItem(ctx, input.CartID, input.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}
		if item.Service == nil {
			return pkgerrors.New(pkgerrors.CodeDependency, "cart item has no service loaded")
		}

		quantity := item.Quantity
		if input.Quantity != nil {
			quantity = *input.Quantity
		}

		if input.ExtraDataSet {
			cleaned, err := validateExtraData(item.Service, input.ExtraData)
			if err != nil {
				return err
			}
			if !item.ExtraData.Equal(cleaned) {
				merged, err := s.mergeIntoSibling(ctx, repo, item, cleaned, quantity)
				if err != nil {
					return err
				}
				if merged != nil {
					result = merged
					return nil
				}
			}
			item.ExtraData = cleaned
		}
		item.Quantity = quantity

		updated, err := repo.UpdateItem(ctx, item)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toItemResponse(result)
	return &resp, nil
}

func (s *service) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	if _, err := s.repo.FindItem(ctx, cartID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if err := s.repo.DeleteItem(ctx, cartID, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	return nil
}

// mergeIntoSibling folds item into an existing line of the same service whose
// extra data equals cleaned, summing quantities and deleting the original row.
// Returns nil when no such sibling exists.
func (s *service) mergeIntoSibling(ctx context.Context, repo Repository, item *models.CartItem, cleaned types.JSONMap, quantity int) (*models.CartItem, error) {
	siblings, err := repo.ListItemsByService(ctx, item.CartID, item.ServiceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}
	for i := range siblings {
		if siblings[i].ID == item.ID || !siblings[i].ExtraData.Equal(cleaned) {
			continue
		}
		siblings[i].Quantity += quantity
		merged, err := repo.UpdateItem(ctx, &siblings[i])
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		if err := repo.DeleteItem(ctx, item.CartID, item.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
		merged.Service = item.Service
		return merged, nil
	}
	return nil, nil
}

func (s *service) loadCart(ctx context.Context, repo Repository, cartID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart expired or invalid")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) loadCartForUpdate(ctx context.Context, repo Repository, cartID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindByIDForUpdate(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart expired or invalid")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) loadService(ctx context.Context, serviceID uuid.UUID) (*models.Service, error) {
	svc, err := s.services.FindServiceByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}
	return svc, nil
}

func validateExtraData(svc *models.Service, payload types.JSONMap) (types.JSONMap, error) {
	decls := fields.FromServiceFields(svc.RequiredFields)
	cleaned := fields.Clean(payload, decls)
	if missing := fields.MissingRequired(cleaned, decls); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fields.MissingMessage(svc.Name, missing))
	}
	return cleaned, nil
}
