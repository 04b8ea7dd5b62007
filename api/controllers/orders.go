package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pageturn/bookmarket-backend/api/middleware"
	"github.com/pageturn/bookmarket-backend/api/responses"
	"github.com/pageturn/bookmarket-backend/api/validators"
	ordersvc "github.com/pageturn/bookmarket-backend/internal/orders"
	"github.com/pageturn/bookmarket-backend/pkg/enums"
	"github.com/pageturn/bookmarket-backend/pkg/logger"
	"github.com/pageturn/bookmarket-backend/pkg/types"
)

type checkoutRequest struct {
	Items         []uuid.UUID    `json:"items" validate:"required,min=1"`
	Shipping      types.Shipping `json:"shipping" validate:"required"`
	PaymentMethod string         `json:"payment_method" validate:"required"`
}

// Checkout places an order for the listed books. Each book is a single
// physical copy, so a lost reservation race surfaces as a conflict.
func Checkout(svc *ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), ordersvc.CheckoutInput{
			BuyerID:       buyerID,
			Items:         payload.Items,
			Shipping:      payload.Shipping,
			PaymentMethod: payload.PaymentMethod,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// OrdersPurchases lists the caller's orders as a buyer, newest first.
func OrdersPurchases(svc *ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, err := svc.ListPurchases(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

// OrdersSales lists orders where the caller is the seller.
func OrdersSales(svc *ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, err := svc.ListSales(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

// AdminOrdersList exposes every order for back-office review.
func AdminOrdersList(svc *ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

// OrderCancel returns the order's books to the market and removes the order.
func OrderCancel(svc *ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role := enums.UserRole(middleware.RoleFromContext(r.Context()))
		if err := svc.Cancel(r.Context(), orderID, userID, role); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "order canceled"})
	}
}
