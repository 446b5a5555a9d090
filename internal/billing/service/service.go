package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"strategypilot/backend/internal/billing"
	"strategypilot/backend/internal/billing/domain"
	"strategypilot/backend/internal/billing/stripe"
)

// Sentinel errors for the billing service; handlers map them to HTTP codes.
var (
	ErrUnknownPlan    = errors.New("unknown plan")
	ErrNoSubscription = errors.New("organization has no subscription")
)

// SubscriptionRepo is the minimal subscription repository needed by the billing service.
type SubscriptionRepo interface {
	GetByOrg(ctx context.Context, orgID string) (*domain.Subscription, error)
	Upsert(ctx context.Context, s *domain.Subscription) error
}

// MembershipCounter supplies the org's seat count.
type MembershipCounter interface {
	CountByOrg(ctx context.Context, orgID string) (int64, error)
}

// CheckoutProvider creates checkout and portal sessions against the payment
// provider.
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, planID string, amountCents int64, orgID, successURL, cancelURL string) (*stripe.CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (*stripe.PortalSession, error)
}

// Service prices plans and starts provider sessions. Pricing is pure; the
// provider call is the only side effect besides the subscription upsert.
type Service struct {
	subs       SubscriptionRepo
	members    MembershipCounter
	provider   CheckoutProvider
	successURL string
	cancelURL  string
}

// NewService returns a billing Service with the given dependencies.
func NewService(subs SubscriptionRepo, members MembershipCounter, provider CheckoutProvider, successURL, cancelURL string) *Service {
	return &Service{subs: subs, members: members, provider: provider, successURL: successURL, cancelURL: cancelURL}
}

// CheckoutResult is the outcome of StartCheckout.
type CheckoutResult struct {
	SessionID   string
	RedirectURL string
	AmountCents int64
}

// StartCheckout prices the plan for the org's current seat count and flags,
// creates a provider checkout session, and records the pending subscription.
// Provider failure propagates; nothing is recorded in that case.
func (s *Service) StartCheckout(ctx context.Context, orgID, planID string, annual, nonprofit bool) (*CheckoutResult, error) {
	if _, ok := billing.PlanByID(planID); !ok {
		return nil, ErrUnknownPlan
	}
	seats, err := s.members.CountByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	amount, err := billing.CalculatePlanPrice(planID, int(seats), annual, nonprofit)
	if err != nil {
		return nil, ErrUnknownPlan
	}
	sess, err := s.provider.CreateCheckoutSession(ctx, planID, amount, orgID, s.successURL, s.cancelURL)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	existing, err := s.subs.GetByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	sub := &domain.Subscription{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		PlanID:    planID,
		Status:    domain.StatusTrialing,
		Annual:    annual,
		Nonprofit: nonprofit,
		SeatCount: int(seats),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing != nil {
		sub.ID = existing.ID
		sub.Status = existing.Status
		sub.ProviderCustomerID = existing.ProviderCustomerID
		sub.CreatedAt = existing.CreatedAt
	}
	if err := s.subs.Upsert(ctx, sub); err != nil {
		return nil, err
	}
	return &CheckoutResult{SessionID: sess.ID, RedirectURL: sess.URL, AmountCents: amount}, nil
}

// OpenPortal creates a billing portal session for the org's provider
// customer. Fails with ErrNoSubscription when the org has never checked out.
func (s *Service) OpenPortal(ctx context.Context, orgID, returnURL string) (string, error) {
	sub, err := s.subs.GetByOrg(ctx, orgID)
	if err != nil {
		return "", err
	}
	if sub == nil || sub.ProviderCustomerID == "" {
		return "", ErrNoSubscription
	}
	sess, err := s.provider.CreatePortalSession(ctx, sub.ProviderCustomerID, returnURL)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

// Overview summarizes the org's subscription for display.
type Overview struct {
	Subscription *domain.Subscription
	SeatCount    int
	Warning      *billing.UsageWarning
	Downgrade    string
}

// GetOverview returns the subscription, seat count, usage warning, and any
// suggested downgrade for the org. A missing subscription is not an error.
func (s *Service) GetOverview(ctx context.Context, orgID string) (*Overview, error) {
	sub, err := s.subs.GetByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	seats, err := s.members.CountByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	o := &Overview{Subscription: sub, SeatCount: int(seats)}
	if sub != nil {
		o.Warning = billing.CheckUsage(sub.PlanID, int(seats))
		o.Downgrade = billing.SuggestedDowngrade(sub.PlanID, int(seats))
	}
	return o, nil
}
