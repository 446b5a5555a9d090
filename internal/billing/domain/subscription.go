package domain

import "time"

// Subscription is the billing state of one organization. At most one row per
// org; ProviderCustomerID links it to the payment provider's customer.
type Subscription struct {
	ID                 string
	OrgID              string
	PlanID             string
	Status             Status
	ProviderCustomerID string
	Annual             bool
	Nonprofit          bool
	SeatCount          int
	CurrentPeriodEnd   *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Status string

const (
	StatusTrialing Status = "trialing"
	StatusActive   Status = "active"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
)
