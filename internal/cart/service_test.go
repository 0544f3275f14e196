package cart

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/servistore/servistore-backend/pkg/db/models"
	pkgerrors "github.com/servistore/servistore-backend/pkg/errors"
	"github.com/servistore/servistore-backend/pkg/types"
)

func testService() *models.Service {
	return &models.Service{
		ID:    uuid.New(),
		Name:  "VPN Pro",
		Price: decimal.RequireFromString("100.00"),
		RequiredFields: []models.ServiceField{
			{FieldName: "username", Label: "Account Name", IsRequired: true},
			{FieldName: "note", IsRequired: false},
		},
	}
}

func TestAddItem_MergesIdenticalExtraData(t *testing.T) {
	t.Parallel()

	svc := testService()
	cartID := uuid.New()
	repo := newStubCartRepo(cartID)
	service := newTestCartService(t, repo, svc)

	first, err := service.AddItem(context.Background(), AddItemInput{
		CartID:    cartID,
		ServiceID: svc.ID,
		Quantity:  1,
		ExtraData: types.JSONMap{"username": "alice"},
	})
	if err != nil {
		t.Fatalf("first add: %v", err)
	}

	second, err := service.AddItem(context.Background(), AddItemInput{
		CartID:    cartID,
		ServiceID: svc.ID,
		Quantity:  2,
		ExtraData: types.JSONMap{"username": "alice"},
	})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("expected merge into one row, got %s and %s", first.ID, second.ID)
	}
	if second.Quantity != 3 {
		t.Fatalf("expected summed quantity 3, got %d", second.Quantity)
	}
	if len(repo.items) != 1 {
		t.Fatalf("expected one stored item, got %d", len(repo.items))
	}
}

func TestAddItem_DistinctExtraDataCreatesNewRow(t *testing.T) {
	t.Parallel()

	svc := testService()
	cartID := uuid.New()
	repo := newStubCartRepo(cartID)
	service := newTestCartService(t, repo, svc)

	if _, err := service.AddItem(context.Background(), AddItemInput{
		CartID:    cartID,
		ServiceID: svc.ID,
		ExtraData: types.JSONMap{"username": "alice"},
	}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := service.AddItem(context.Background(), AddItemInput{
		CartID:    cartID,
		ServiceID: svc.ID,
		ExtraData: types.JSONMap{"username": "bob"},
	}); err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(repo.items) != 2 {
		t.Fatalf("expected two rows, got %d", len(repo.items))
	}
}

func TestAddItem_DropsUndeclaredKeys(t *testing.T) {
	t.Parallel()

	svc := testService()
	cartID := uuid.New()
	repo := newStubCartRepo(cartID)
	service := newTestCartService(t, repo, svc)

	item, err := service.AddItem(context.Background(), AddItemInput{
		CartID:    cartID,
		ServiceID: svc.ID,
		ExtraData: types.JSONMap{"username": "alice", "is_admin": true},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, ok := item.ExtraData["is_admin"]; ok {
		t.Fatalf("undeclared key should be dropped, got %v", item.ExtraData)
	}
}

func TestAddItem_MissingRequiredField(t *testing.T) {
	t.Parallel()

	svc := testService()
	cartID := uuid.New()
	repo := newStubCartRepo(cartID)
	service := newTestCartService(t, repo, svc)

	_, err := service.AddItem(context.Background(), AddItemInput{
		CartID:    cartID,
		ServiceID: svc.ID,
		ExtraData: types.JSONMap{"username": "   "},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(typed.Message(), "Account Name") {
		t.Fatalf("message should name the label, got %q", typed.Message())
	}
	if !strings.Contains(typed.Message(), "VPN Pro") {
		t.Fatalf("message should name the service, got %q", typed.Message())
	}
	if len(repo.items) != 0 {
		t.Fatalf("no item should be created")
	}
}

func TestAddItem_NullExtraData(t *testing.T) {
	t.Parallel()

	svc := testService()
	cartID := uuid.New()
	repo := newStubCartRepo(cartID)
	service := newTestCartService(t, repo, svc)

	_, err := service.AddItem(context.Background(), AddItemInput{
		CartID:        cartID,
		ServiceID:     svc.ID,
		ExtraDataNull: true,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
	if typed.Message() != "Please enter the required information." {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestAddItem_CartNotFound(t *testing.T) {
	t.Parallel()

	svc := testService()
	repo := newStubCartRepo(uuid.New())
	service := newTestCartService(t, repo, svc)

	_, err := service.AddItem(context.Background(), AddItemInput{
		CartID:    uuid.New(),
		ServiceID: svc.ID,
		ExtraData: types.JSONMap{"username": "alice"},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateItem_MergesIntoMatchingSibling(t *testing.T) {
	t.Parallel()

	svc := testService()
	cartID := uuid.New()
	repo := newStubCartRepo(cartID)
	service := newTestCartService(t, repo, svc)

	kept, err := service.AddItem(context.Background(), AddItemInput{
		CartID:    cartID,
		ServiceID: svc.ID,
		Quantity:  1,
		ExtraData: types.JSONMap{"username": "alice"},
	})
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	other, err := service.AddItem(context.Background(), AddItemInput{
		CartID:    cartID,
		ServiceID: svc.ID,
		Quantity:  2,
		ExtraData: types.JSONMap{"username": "bob"},
	})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	merged, err := service.UpdateItem(context.Background(), UpdateItemInput{
		CartID:       cartID,
		ItemID:       other.ID,
		ExtraData:    types.JSONMap{"username": "alice"},
		ExtraDataSet: true,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if merged.ID != kept.ID {
		t.Fatalf("expected merge into existing row %s, got %s", kept.ID, merged.ID)
	}
	if merged.Quantity != 3 {
		t.Fatalf("expected summed quantity 3, got %d", merged.Quantity)
	}
	if len(repo.items) != 1 {
		t.Fatalf("expected one stored item after merge, got %d", len(repo.items))
	}
}

func TestUpdateItem_MergeUsesRequestedQuantity(t *testing.T) {
	t.Parallel()

	svc := testService()
	cartID := uuid.New()
	repo := newStubCartRepo(cartID)
	service := newTestCartService(t, repo, svc)

	if _, err := service.AddItem(context.Background(), AddItemInput{
		CartID:    cartID,
		ServiceID: svc.ID,
		Quantity:  1,
		ExtraData: types.JSONMap{"username": "alice"},
	}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	other, err := service.AddItem(context.Background(), AddItemInput{
		CartID:    cartID,
		ServiceID: svc.ID,
		Quantity:  2,
		ExtraData: types.JSONMap{"username": "bob"},
	})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	qty := 5
	merged, err := service.UpdateItem(context.Background(), UpdateItemInput{
		CartID:       cartID,
		ItemID:       other.ID,
		Quantity:     &qty,
		ExtraData:    types.JSONMap{"username": "alice"},
		ExtraDataSet: true,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if merged.Quantity != 6 {
		t.Fatalf("expected quantity 1+5=6, got %d", merged.Quantity)
	}
}

func TestUpdateItem_QuantityBelowOne(t *testing.T) {
	t.Parallel()

	svc := testService()
	cartID := uuid.New()
	repo := newStubCartRepo(cartID)
	service := newTestCartService(t, repo, svc)

	qty := 0
	_, err := service.UpdateItem(context.Background(), UpdateItemInput{
		CartID:   cartID,
		ItemID:   uuid.New(),
		Quantity: &qty,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func newTestCartService(t *testing.T, repo Repository, svc *models.Service) Service {
	t.Helper()
	service, err := NewService(repo, serviceLoaderFunc(func(ctx context.Context, id uuid.UUID) (*models.Service, error) {
		if svc != nil && id == svc.ID {
			return svc, nil
		}
		return nil, gorm.ErrRecordNotFound
	}), stubTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

type serviceLoaderFunc func(ctx context.Context, id uuid.UUID) (*models.Service, error)

func (fn serviceLoaderFunc) FindServiceByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	return fn(ctx, id)
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubCartRepo struct {
	cartID uuid.UUID
	items  map[uuid.UUID]*models.CartItem
}

func newStubCartRepo(cartID uuid.UUID) *stubCartRepo {
	return &stubCartRepo{cartID: cartID, items: map[uuid.UUID]*models.CartItem{}}
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubCartRepo) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	return cart, nil
}

func (s *stubCartRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	if id != s.cartID {
		return nil, gorm.ErrRecordNotFound
	}
	cart := &models.Cart{ID: s.cartID}
	for _, item := range s.items {
		cart.Items = append(cart.Items, *item)
	}
	return cart, nil
}

func (s *stubCartRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	return s.FindByID(ctx, id)
}

func (s *stubCartRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s.items = map[uuid.UUID]*models.CartItem{}
	return nil
}

func (s *stubCartRepo) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	item, ok := s.items[itemID]
	if !ok || cartID != s.cartID {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (s *stubCartRepo) ListItemsByService(ctx context.Context, cartID, serviceID uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	for _, item := range s.items {
		if item.CartID == cartID && item.ServiceID == serviceID {
			rows = append(rows, *item)
		}
	}
	return rows, nil
}

func (s *stubCartRepo) CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	item.ID = uuid.New()
	s.items[item.ID] = item
	return item, nil
}

func (s *stubCartRepo) UpdateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	s.items[item.ID] = item
	return item, nil
}

func (s *stubCartRepo) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	delete(s.items, itemID)
	return nil
}
