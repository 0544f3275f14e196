package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/servistore/servistore-backend/api/controllers"
	"github.com/servistore/servistore-backend/internal/cart"
	"github.com/servistore/servistore-backend/internal/catalog"
	"github.com/servistore/servistore-backend/internal/customers"
	ordersvc "github.com/servistore/servistore-backend/internal/orders"
	pkgauth "github.com/servistore/servistore-backend/pkg/auth"
	"github.com/servistore/servistore-backend/pkg/config"
	"github.com/servistore/servistore-backend/pkg/enums"
	"github.com/servistore/servistore-backend/pkg/logger"
	"github.com/servistore/servistore-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCatalogService struct{}

func (stubCatalogService) ListApplications(ctx context.Context) ([]catalog.ApplicationResponse, error) {
	return []catalog.ApplicationResponse{}, nil
}

func (stubCatalogService) GetApplication(ctx context.Context, id uuid.UUID) (*catalog.ApplicationResponse, error) {
	return &catalog.ApplicationResponse{ID: id}, nil
}

func (stubCatalogService) ListServices(ctx context.Context, applicationID uuid.UUID) ([]catalog.ServiceResponse, error) {
	return []catalog.ServiceResponse{}, nil
}

func (stubCatalogService) GetService(ctx context.Context, id uuid.UUID) (*catalog.ServiceResponse, error) {
	return &catalog.ServiceResponse{ID: id}, nil
}

func (stubCatalogService) CreateApplication(ctx context.Context, input catalog.CreateApplicationInput) (*catalog.ApplicationResponse, error) {
	return &catalog.ApplicationResponse{ID: uuid.New(), Title: input.Title}, nil
}

func (stubCatalogService) UpdateApplication(ctx context.Context, id uuid.UUID, input catalog.UpdateApplicationInput) (*catalog.ApplicationResponse, error) {
	return &catalog.ApplicationResponse{ID: id}, nil
}

func (stubCatalogService) DeleteApplication(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (stubCatalogService) CreateService(ctx context.Context, input catalog.CreateServiceInput) (*catalog.ServiceResponse, error) {
	return &catalog.ServiceResponse{ID: uuid.New(), Name: input.Name}, nil
}

func (stubCatalogService) UpdateService(ctx context.Context, input catalog.UpdateServiceInput) (*catalog.ServiceResponse, error) {
	return &catalog.ServiceResponse{ID: input.ServiceID}, nil
}

func (stubCatalogService) DeleteService(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (stubCatalogService) SetTopService(ctx context.Context, input catalog.SetTopServiceInput) error {
	return nil
}

func (stubCatalogService) ListDiscounts(ctx context.Context) ([]catalog.DiscountResponse, error) {
	return []catalog.DiscountResponse{}, nil
}

func (stubCatalogService) CreateDiscount(ctx context.Context, input catalog.CreateDiscountInput) (*catalog.DiscountResponse, error) {
	return &catalog.DiscountResponse{ID: uuid.New(), Name: input.Name, Percent: input.Percent}, nil
}

func (stubCatalogService) UpdateDiscount(ctx context.Context, input catalog.UpdateDiscountInput) (*catalog.DiscountResponse, error) {
	return &catalog.DiscountResponse{ID: input.DiscountID}, nil
}

func (stubCatalogService) DeleteDiscount(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (stubCatalogService) CreateComment(ctx context.Context, input catalog.CreateCommentInput) (*catalog.CommentResponse, error) {
	return &catalog.CommentResponse{ID: uuid.New()}, nil
}

func (stubCatalogService) ListComments(ctx context.Context, serviceID uuid.UUID) ([]catalog.CommentResponse, error) {
	return []catalog.CommentResponse{}, nil
}

type stubCartService struct {
	created uuid.UUID
}

func (s *stubCartService) Create(ctx context.Context) (*cart.CartResponse, error) {
	return &cart.CartResponse{ID: s.created}, nil
}

func (s *stubCartService) Get(ctx context.Context, cartID uuid.UUID) (*cart.CartResponse, error) {
	return &cart.CartResponse{ID: cartID}, nil
}

func (s *stubCartService) Delete(ctx context.Context, cartID uuid.UUID) error {
	return nil
}

func (s *stubCartService) AddItem(ctx context.Context, input cart.AddItemInput) (*cart.ItemResponse, error) {
	return &cart.ItemResponse{ID: uuid.New(), ServiceID: input.ServiceID}, nil
}

func (s *stubCartService) UpdateItem(ctx context.Context, input cart.UpdateItemInput) (*cart.ItemResponse, error) {
	return &cart.ItemResponse{ID: input.ItemID}, nil
}

func (s *stubCartService) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	return nil
}

type stubOrdersService struct {
	callback func(ctx context.Context, orderID uuid.UUID, authority, statusFlag string) (*ordersvc.CallbackResult, error)
}

func (s stubOrdersService) Materialize(ctx context.Context, cartID, customerID uuid.UUID) (*ordersvc.OrderResponse, error) {
	return &ordersvc.OrderResponse{ID: uuid.New(), Status: enums.OrderStatusUnpaid}, nil
}

func (s stubOrdersService) Pay(ctx context.Context, orderID, customerID uuid.UUID, isStaff bool) (*ordersvc.PayResponse, error) {
	return &ordersvc.PayResponse{PaymentURL: "https://gateway.example/pay/A1"}, nil
}

func (s stubOrdersService) Callback(ctx context.Context, orderID uuid.UUID, authority, statusFlag string) (*ordersvc.CallbackResult, error) {
	if s.callback != nil {
		return s.callback(ctx, orderID, authority, statusFlag)
	}
	return &ordersvc.CallbackResult{Status: enums.OrderStatusPaid}, nil
}

func (s stubOrdersService) List(ctx context.Context, customerID uuid.UUID, isStaff bool, params pagination.Params) ([]ordersvc.OrderResponse, error) {
	return []ordersvc.OrderResponse{}, nil
}

func (s stubOrdersService) Get(ctx context.Context, orderID, customerID uuid.UUID, isStaff bool) (*ordersvc.OrderResponse, error) {
	return &ordersvc.OrderResponse{ID: orderID, Status: enums.OrderStatusUnpaid}, nil
}

type stubCustomerService struct{}

func (stubCustomerService) Me(ctx context.Context, customerID uuid.UUID) (*customers.CustomerResponse, error) {
	return &customers.CustomerResponse{ID: customerID}, nil
}

func (stubCustomerService) UpdateMe(ctx context.Context, customerID uuid.UUID, input customers.UpdateMeInput) (*customers.UpdateMeResponse, error) {
	return &customers.UpdateMeResponse{}, nil
}

func (stubCustomerService) VerifyPhone(ctx context.Context, customerID uuid.UUID, input customers.VerifyPhoneInput) (*customers.VerifyPhoneResponse, error) {
	return &customers.VerifyPhoneResponse{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config, orders ordersvc.Service) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	if orders == nil {
		orders = stubOrdersService{}
	}
	return NewRouter(Deps{
		Config:    cfg,
		Logger:    logg,
		Health:    map[string]controllers.Pinger{"database": stubPinger{}},
		Registry:  prometheus.NewRegistry(),
		Catalog:   stubCatalogService{},
		Carts:     &stubCartService{created: uuid.New()},
		Orders:    orders,
		Customers: stubCustomerService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, isStaff bool) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		CustomerID: uuid.New(),
		IsStaff:    isStaff,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestCartRoutesArePublic(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/carts/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 without token got %d", resp.Code)
	}
}

func TestOrderRoutesRejectMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestOrderRoutesSucceedWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, false))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token got %d", resp.Code)
	}
}

func TestTopServiceRequiresStaff(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, nil)
	appID := uuid.New()
	body := strings.NewReader(`{"service_id":"` + uuid.NewString() + `"}`)

	nonStaff := httptest.NewRequest(http.MethodPut, "/api/v1/applications/"+appID.String()+"/top-service", body)
	nonStaff.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, false))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonStaff)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-staff got %d", resp.Code)
	}

	body = strings.NewReader(`{"service_id":"` + uuid.NewString() + `"}`)
	staff := httptest.NewRequest(http.MethodPut, "/api/v1/applications/"+appID.String()+"/top-service", body)
	staff.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, true))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, staff)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for staff got %d", resp.Code)
	}
}

func TestPaymentCallbackIsPublic(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	orderID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String()+"/payment/callback?Authority=A1&Status=OK", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 without token got %d", resp.Code)
	}

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["success"] == "" {
		t.Fatal("expected success message in payload")
	}
}

func TestPaymentCallbackRejectedMapsTo400(t *testing.T) {
	orders := stubOrdersService{
		callback: func(ctx context.Context, orderID uuid.UUID, authority, statusFlag string) (*ordersvc.CallbackResult, error) {
			return &ordersvc.CallbackResult{Status: enums.OrderStatusCanceled, Message: "Payment was canceled by the gateway"}, nil
		},
	}
	router := newTestRouter(testConfig(), orders)
	orderID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String()+"/payment/callback?Authority=A1&Status=NOK", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for rejected payment got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Message != "Payment was canceled by the gateway" {
		t.Fatalf("unexpected error message: %q", envelope.Error.Message)
	}
}

func TestDiscountWritesRequireStaff(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, nil)

	public := httptest.NewRequest(http.MethodGet, "/api/v1/discounts/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, public)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public list got %d", resp.Code)
	}

	nonStaff := httptest.NewRequest(http.MethodPost, "/api/v1/discounts/", strings.NewReader(`{"name":"launch","percent":10}`))
	nonStaff.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, false))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, nonStaff)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-staff got %d", resp.Code)
	}

	staff := httptest.NewRequest(http.MethodPost, "/api/v1/discounts/", strings.NewReader(`{"name":"launch","percent":10}`))
	staff.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, true))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, staff)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for staff got %d", resp.Code)
	}
}

func TestCustomerRoutesRejectMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers/me", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
