// Package handler exposes the billing endpoints: checkout, portal, and the
// subscription overview.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"strategypilot/backend/internal/billing"
	"strategypilot/backend/internal/billing/service"
	"strategypilot/backend/internal/billing/stripe"
	"strategypilot/backend/internal/platform/rbac"
	"strategypilot/backend/internal/server/respond"
	"strategypilot/backend/internal/telemetry"
	teldomain "strategypilot/backend/internal/telemetry/domain"
)

// BillingAPI is the slice of the billing service the handler needs.
type BillingAPI interface {
	StartCheckout(ctx context.Context, orgID, planID string, annual, nonprofit bool) (*service.CheckoutResult, error)
	OpenPortal(ctx context.Context, orgID, returnURL string) (string, error)
	GetOverview(ctx context.Context, orgID string) (*service.Overview, error)
}

type Handler struct {
	billing BillingAPI
	emitter telemetry.EventEmitter
}

func New(api BillingAPI, emitter telemetry.EventEmitter) *Handler {
	return &Handler{billing: api, emitter: emitter}
}

// Plans handles GET /api/v1/billing/plans. The catalog is static.
func (h *Handler) Plans(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, billing.Plans())
}

// Checkout handles POST /api/v1/billing/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlanID    string `json:"planId"`
		Annual    bool   `json:"annual"`
		Nonprofit bool   `json:"nonprofit"`
	}
	if !respond.Decode(w, r, &req) {
		return
	}
	id, _ := rbac.IdentityFrom(r.Context())
	res, err := h.billing.StartCheckout(r.Context(), id.OrgID, req.PlanID, req.Annual, req.Nonprofit)
	if err != nil {
		writeBillingError(w, err)
		return
	}
	telemetry.EmitAsync(h.emitter, teldomain.Event{
		OrgID:     id.OrgID,
		UserID:    id.UserID,
		EventType: teldomain.EventCheckoutStarted,
		Source:    "api",
		Metadata:  map[string]string{"plan": req.PlanID},
	})
	respond.JSON(w, http.StatusCreated, map[string]any{
		"sessionId":   res.SessionID,
		"redirectUrl": res.RedirectURL,
		"amountCents": res.AmountCents,
	})
}

// Portal handles POST /api/v1/billing/portal.
func (h *Handler) Portal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReturnURL string `json:"returnUrl"`
	}
	if !respond.Decode(w, r, &req) {
		return
	}
	id, _ := rbac.IdentityFrom(r.Context())
	url, err := h.billing.OpenPortal(r.Context(), id.OrgID, req.ReturnURL)
	if err != nil {
		writeBillingError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"url": url})
}

// Overview handles GET /api/v1/billing.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	id, _ := rbac.IdentityFrom(r.Context())
	ov, err := h.billing.GetOverview(r.Context(), id.OrgID)
	if err != nil {
		writeBillingError(w, err)
		return
	}
	resp := map[string]any{
		"seatCount": ov.SeatCount,
	}
	if ov.Subscription != nil {
		sub := map[string]any{
			"planId":    ov.Subscription.PlanID,
			"status":    string(ov.Subscription.Status),
			"annual":    ov.Subscription.Annual,
			"nonprofit": ov.Subscription.Nonprofit,
		}
		if ov.Subscription.CurrentPeriodEnd != nil {
			sub["currentPeriodEnd"] = ov.Subscription.CurrentPeriodEnd.Format(time.RFC3339)
		}
		resp["subscription"] = sub
	}
	if ov.Warning != nil {
		resp["warning"] = ov.Warning
	}
	if ov.Downgrade != "" {
		resp["suggestedDowngrade"] = ov.Downgrade
	}
	respond.JSON(w, http.StatusOK, resp)
}

func writeBillingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownPlan):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNoSubscription):
		respond.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, stripe.ErrProvider):
		respond.Error(w, http.StatusBadGateway, "payment provider unavailable")
	default:
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}
