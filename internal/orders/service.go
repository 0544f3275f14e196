package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/servistore/servistore-backend/internal/cart"
	"github.com/servistore/servistore-backend/internal/catalog"
	"github.com/servistore/servistore-backend/internal/fields"
	"github.com/servistore/servistore-backend/pkg/config"
	"github.com/servistore/servistore-backend/pkg/db/models"
	"github.com/servistore/servistore-backend/pkg/enums"
	pkgerrors "github.com/servistore/servistore-backend/pkg/errors"
	"github.com/servistore/servistore-backend/pkg/metrics"
	"github.com/servistore/servistore-backend/pkg/pagination"
	"github.com/servistore/servistore-backend/pkg/types"
	"github.com/servistore/servistore-backend/pkg/zarinpal"
)

const callbackStatusOK = "OK"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type customerLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

// paymentGateway is the outbound surface of the payment integration.
// Satisfied by the zarinpal client.
type paymentGateway interface {
	CreateSession(ctx context.Context, req zarinpal.SessionRequest) (*zarinpal.Session, error)
	Verify(ctx context.Context, authority string, amount int64) (*zarinpal.VerifyResult, error)
}

// Service governs the order lifecycle: cart materialization, gateway
// session creation, and callback settlement.
type Service interface {
	Materialize(ctx context.Context, cartID, customerID uuid.UUID) (*OrderResponse, error)
	Pay(ctx context.Context, orderID, customerID uuid.UUID, isStaff bool) (*PayResponse, error)
	Callback(ctx context.Context, orderID uuid.UUID, authority, statusFlag string) (*CallbackResult, error)
	List(ctx context.Context, customerID uuid.UUID, isStaff bool, params pagination.Params) ([]OrderResponse, error)
	Get(ctx context.Context, orderID, customerID uuid.UUID, isStaff bool) (*OrderResponse, error)
}

type service struct {
	repo      Repository
	carts     cart.Repository
	customers customerLoader
	tx        txRunner
	gateway   paymentGateway
	cfg       config.PaymentConfig
	metrics   *metrics.PaymentMetrics
}

// NewService builds the order service with the required dependencies.
func NewService(
	repo Repository,
	carts cart.Repository,
	customers customerLoader,
	tx txRunner,
	gateway paymentGateway,
	cfg config.PaymentConfig,
	paymentMetrics *metrics.PaymentMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if customers == nil {
		return nil, fmt.Errorf("customer loader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if cfg.SubunitFactor <= 0 {
		return nil, fmt.Errorf("payment subunit factor must be positive")
	}
	return &service{
		repo:      repo,
		carts:     carts,
		customers: customers,
		tx:        tx,
		gateway:   gateway,
		cfg:       cfg,
		metrics:   paymentMetrics,
	}, nil
}

// Materialize converts a cart into an unpaid order in one transaction:
// validate every item, snapshot prices, create the order, delete the cart.
// The cart row is locked so a concurrent duplicate checkout waits and then
// fails on the missing cart.
func (s *service) Materialize(ctx context.Context, cartID, customerID uuid.UUID) (*OrderResponse, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}

	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	if customer.PhoneNumber == nil || strings.TrimSpace(*customer.PhoneNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			"You must enter a phone number to place an order. Please register your phone number first.").
			WithDetails(map[string]string{"code": "phone_number_required"})
	}

	var created *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		repo := s.repo.WithTx(tx)

		sourceCart, err := carts.FindByIDForUpdate(ctx, cartID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound,
					"There is no shopping cart with this ID. It may have expired.")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(sourceCart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation,
				"The shopping cart is empty. Please add a service first.")
		}

		// All items are re-validated here: required-field declarations may
		// have changed since the items were added.
		if err := validateCartItems(sourceCart.Items); err != nil {
			return err
		}

		order, err := repo.CreateOrder(ctx, &models.Order{
			CustomerID: customerID,
			Status:     enums.OrderStatusUnpaid,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		items := make([]models.OrderItem, 0, len(sourceCart.Items))
		for i := range sourceCart.Items {
			src := &sourceCart.Items[i]
			extra := src.ExtraData
			if extra == nil {
				extra = types.JSONMap{}
			}
			items = append(items, models.OrderItem{
				OrderID:   order.ID,
				ServiceID: src.ServiceID,
				Price:     catalog.EffectivePrice(src.Service),
				Quantity:  src.Quantity,
				ExtraData: extra,
			})
		}
		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}

		if err := carts.Delete(ctx, cartID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
		}

		for i := range items {
			for j := range sourceCart.Items {
				if sourceCart.Items[j].ServiceID == items[i].ServiceID {
					items[i].Service = sourceCart.Items[j].Service
					break
				}
			}
		}
		order.Items = items
		order.Customer = customer
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toOrderResponse(created)
	return &resp, nil
}

// Pay opens a gateway payment session for an unpaid order and stores the
// returned authority. The order stays unpaid until the callback settles it.
func (s *service) Pay(ctx context.Context, orderID, customerID uuid.UUID, isStaff bool) (*PayResponse, error) {
	order, err := s.loadOrderFor(ctx, orderID, customerID, isStaff)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusUnpaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			"The order has already been paid for or cancelled.")
	}

	amount := s.gatewayAmount(order)
	email := ""
	if order.Customer != nil {
		email = order.Customer.Email
	}

	start := time.Now()
	session, err := s.gateway.CreateSession(ctx, zarinpal.SessionRequest{
		Amount:      amount,
		CallbackURL: s.callbackURL(order.ID),
		Description: fmt.Sprintf("Payment for order number %s - Premium Services Store", order.ID),
		OrderID:     order.ID.String(),
		Email:       email,
	})
	if err != nil {
		var rejection *zarinpal.RejectionError
		if errors.As(err, &rejection) {
			s.metrics.ObserveGateway("request", "rejected", time.Since(start))
			return nil, pkgerrors.New(pkgerrors.CodePaymentRejected, rejection.Message)
		}
		s.metrics.ObserveGateway("request", "error", time.Since(start))
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentUnavailable, err, "create payment session")
	}
	s.metrics.ObserveGateway("request", "success", time.Since(start))

	if err := s.repo.UpdateOrder(ctx, order.ID, map[string]any{
		"payment_authority": session.Authority,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payment authority")
	}

	return &PayResponse{PaymentURL: session.StartPayURL}, nil
}

// Callback settles an order after the customer returns from the gateway.
// The order row is locked for the whole handler so duplicate deliveries
// serialize; a callback against an already settled order is a no-op.
func (s *service) Callback(ctx context.Context, orderID uuid.UUID, authority, statusFlag string) (*CallbackResult, error) {
	var result CallbackResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if order.Status.IsTerminal() {
			result = CallbackResult{Status: order.Status, RefID: order.PaymentRefID}
			return nil
		}

		storedAuthority := ""
		if order.PaymentAuthority != nil {
			storedAuthority = *order.PaymentAuthority
		}
		if statusFlag != callbackStatusOK || storedAuthority == "" || storedAuthority != authority {
			if err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusCanceled); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
			}
			s.metrics.IncTransition(enums.OrderStatusCanceled.String())
			result = CallbackResult{
				Status:  enums.OrderStatusCanceled,
				Message: "Payment unsuccessful or canceled",
			}
			return nil
		}

		amount := s.gatewayAmount(order)
		start := time.Now()
		verify, err := s.gateway.Verify(ctx, authority, amount)
		if err != nil {
			s.metrics.ObserveGateway("verify", "error", time.Since(start))
			if s.cfg.CancelOnGatewayError {
				if cancelErr := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusCanceled); cancelErr != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, cancelErr, "cancel order")
				}
				s.metrics.IncTransition(enums.OrderStatusCanceled.String())
				result = CallbackResult{
					Status:  enums.OrderStatusCanceled,
					Message: "Payment confirmation failed",
				}
				return nil
			}
			// Order stays unpaid so the gateway can redeliver the callback.
			return pkgerrors.Wrap(pkgerrors.CodePaymentUnavailable, err, "verify payment")
		}

		if !verify.Verified {
			s.metrics.ObserveGateway("verify", "rejected", time.Since(start))
			if err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusCanceled); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
			}
			s.metrics.IncTransition(enums.OrderStatusCanceled.String())
			message := verify.Message
			if message == "" {
				message = "Payment unsuccessful or canceled"
			}
			result = CallbackResult{Status: enums.OrderStatusCanceled, Message: message}
			return nil
		}

		s.metrics.ObserveGateway("verify", "success", time.Since(start))
		refID := verify.RefID
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"status":         enums.OrderStatusPaid,
			"payment_ref_id": refID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		s.metrics.IncTransition(enums.OrderStatusPaid.String())
		result = CallbackResult{Status: enums.OrderStatusPaid, RefID: &refID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) List(ctx context.Context, customerID uuid.UUID, isStaff bool, params pagination.Params) ([]OrderResponse, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	var rows []models.Order
	var err error
	if isStaff {
		rows, err = s.repo.ListAll(ctx, params)
	} else {
		rows, err = s.repo.ListByCustomer(ctx, customerID, params)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	if len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]OrderResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toOrderResponse(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, orderID, customerID uuid.UUID, isStaff bool) (*OrderResponse, error) {
	order, err := s.loadOrderFor(ctx, orderID, customerID, isStaff)
	if err != nil {
		return nil, err
	}
	resp := toOrderResponse(order)
	return &resp, nil
}

func (s *service) loadOrderFor(ctx context.Context, orderID, customerID uuid.UUID, isStaff bool) (*models.Order, error) {
	var (
		order *models.Order
		err   error
	)
	if isStaff {
		order, err = s.repo.FindByID(ctx, orderID)
	} else {
		if customerID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
		}
		order, err = s.repo.FindByIDAndCustomer(ctx, orderID, customerID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// gatewayAmount converts the order total into the gateway's integer subunit.
func (s *service) gatewayAmount(order *models.Order) int64 {
	return Total(order).Mul(decimal.NewFromInt(s.cfg.SubunitFactor)).IntPart()
}

func (s *service) callbackURL(orderID uuid.UUID) string {
	return strings.ReplaceAll(s.cfg.CallbackURL, "{order_id}", orderID.String())
}

// validateCartItems aggregates every per-service required-field failure into
// one composite message so the buyer sees the full picture at once.
func validateCartItems(items []models.CartItem) error {
	var lines []string
	for i := range items {
		item := &items[i]
		if item.Service == nil {
			continue
		}
		decls := fields.FromServiceFields(item.Service.RequiredFields)
		missing := fields.MissingRequired(item.ExtraData, decls)
		if len(missing) > 0 {
			lines = append(lines, fmt.Sprintf("Service «%s»: %s", item.Service.Name, strings.Join(missing, ", ")))
		}
	}
	if len(lines) == 0 {
		return nil
	}
	message := "The following mandatory fields in the shopping cart are not filled:\n" +
		strings.Join(lines, "\n") +
		"\n\nPlease return to the shopping cart and enter the necessary information."
	return pkgerrors.New(pkgerrors.CodeValidation, message)
}
