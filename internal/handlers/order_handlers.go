package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sanket-rajput/agritraceDep/internal/middleware"
	"github.com/sanket-rajput/agritraceDep/internal/services"
)

// OrderHandler serves read access to settled orders and the explicit admin
// status transitions. Nothing here may insert an order; commits happen only
// through the reconciliation coordinator.
type OrderHandler struct {
	store      *services.OrderStore
	reconciler *services.ReconciliationService
}

func NewOrderHandler(store *services.OrderStore, reconciler *services.ReconciliationService) *OrderHandler {
	return &OrderHandler{store: store, reconciler: reconciler}
}

// ListOrders returns the authenticated user's orders, newest first.
// ?role=seller switches to the seller view; the default is buyer.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	uid := middleware.UserUID(c)

	var (
		orders interface{}
		err    error
	)
	if c.QueryParam("role") == "seller" {
		orders, err = h.store.QueryBySeller(c.Request().Context(), uid)
	} else {
		orders, err = h.store.QueryByBuyer(c.Request().Context(), uid)
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orders)
}

// ListDuplicateOrders exposes derived keys holding more than one live order,
// for the reconciliation sweep and operator tooling.
func (h *OrderHandler) ListDuplicateOrders(c echo.Context) error {
	groups, err := h.store.ListDuplicateDerivedKeys(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, groups)
}

// CompleteOrder marks a pending order completed after downstream confirmation.
func (h *OrderHandler) CompleteOrder(c echo.Context) error {
	orderID, err := parseOrderID(c)
	if err != nil {
		return err
	}
	if err := h.store.MarkCompleted(c.Request().Context(), orderID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// CancelOrder cancels an order on dispute and drops the reconciliation
// fast-path entry so a later callback consults the store again.
func (h *OrderHandler) CancelOrder(c echo.Context) error {
	orderID, err := parseOrderID(c)
	if err != nil {
		return err
	}

	order, err := h.store.GetByID(c.Request().Context(), orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Order not found")
	}

	if err := h.store.MarkCancelled(c.Request().Context(), orderID); err != nil {
		return err
	}
	h.reconciler.ForgetCommitted(c.Request().Context(), order.ListingID, order.BuyerID, order.OrderHandle)

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func parseOrderID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid order ID")
	}
	return uint(id), nil
}
