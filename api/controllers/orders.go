package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/servistore/servistore-backend/api/responses"
	"github.com/servistore/servistore-backend/api/validators"
	"github.com/servistore/servistore-backend/internal/orders"
	"github.com/servistore/servistore-backend/pkg/enums"
	pkgerrors "github.com/servistore/servistore-backend/pkg/errors"
	"github.com/servistore/servistore-backend/pkg/logger"
	"github.com/servistore/servistore-backend/pkg/pagination"
)

type createOrderRequest struct {
	CartID string `json:"cart_id" validate:"required"`
}

// CreateOrder materializes the cart named in the body into an unpaid order.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, _, err := requireCustomer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cartID, err := uuid.Parse(req.CartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart id"))
			return
		}

		order, err := svc.Materialize(r.Context(), cartID, customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, isStaff, err := requireCustomer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		list, err := svc.List(r.Context(), customerID, isStaff, pagination.Params{
			Limit:  limit,
			Cursor: cursor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, isStaff, err := requireCustomer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID, customerID, isStaff)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// PayOrder opens a payment session and returns the gateway redirect URL.
func PayOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, isStaff, err := requireCustomer(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Pay(r.Context(), orderID, customerID, isStaff)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// PaymentCallback settles an order when the customer returns from the
// gateway. The gateway redirects here without our auth token, so the route
// is unauthenticated; the order id and authority pair is the credential.
func PaymentCallback(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		authority := strings.TrimSpace(r.URL.Query().Get("Authority"))
		statusFlag := strings.TrimSpace(r.URL.Query().Get("Status"))

		result, err := svc.Callback(r.Context(), orderID, authority, statusFlag)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if result.Status != enums.OrderStatusPaid {
			message := result.Message
			if message == "" {
				message = "Payment unsuccessful or canceled"
			}
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodePaymentRejected, message))
			return
		}

		payload := map[string]any{"success": "Payment successfully confirmed"}
		if result.RefID != nil {
			payload["ref_id"] = *result.RefID
		}
		responses.WriteSuccess(w, payload)
	}
}
