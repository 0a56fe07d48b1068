package domain

import (
	"time"
)

// PlanType identifies a subscription plan
type PlanType string

const (
	PlanMonthly     PlanType = "monthly"
	PlanThreeMonths PlanType = "3months"
	PlanYearly      PlanType = "yearly"
)

// DefaultPlan is used when neither payment metadata nor the caller supply a
// plan type.
const DefaultPlan = PlanMonthly

// ParsePlanType validates a plan identifier against the closed set of plans
func ParsePlanType(s string) (PlanType, error) {
	switch PlanType(s) {
	case PlanMonthly, PlanThreeMonths, PlanYearly:
		return PlanType(s), nil
	default:
		return "", ErrInvalidPlanType
	}
}

// AddPeriod returns t advanced by one plan period. Calendar-based addition,
// so month-length and leap-year variation follow time.AddDate semantics.
func (p PlanType) AddPeriod(t time.Time) time.Time {
	switch p {
	case PlanThreeMonths:
		return t.AddDate(0, 3, 0)
	case PlanYearly:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// Price returns the plan price in rubles
func (p PlanType) Price() float64 {
	switch p {
	case PlanThreeMonths:
		return 2490
	case PlanYearly:
		return 7990
	default:
		return 999
	}
}

// Subscription is the subscription sub-object of a user record. It is created
// on first successful payment, extended on renewal and never deleted; whether
// it still grants access is computed lazily from EndDate on every read.
type Subscription struct {
	Active    bool      `json:"active"`
	Type      PlanType  `json:"type"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	PaymentID string    `json:"paymentId"`
	Amount    float64   `json:"amount"`
}

// EffectivelyActive reports whether the subscription grants access at the
// given moment. The Active flag is never flipped back on expiry, so the
// EndDate comparison is what actually decides.
func (s *Subscription) EffectivelyActive(now time.Time) bool {
	if s == nil {
		return false
	}
	return s.Active && s.EndDate.After(now)
}

// GrantsAccess is the read-time activity rule every access decision shares.
// It is EffectivelyActive plus one leniency: an Active flag with a zero
// EndDate keeps granting access rather than locking the user out over an end
// date that never parsed.
func (s *Subscription) GrantsAccess(now time.Time) bool {
	if s == nil {
		return false
	}
	if s.Active && s.EndDate.IsZero() {
		return true
	}
	return s.EffectivelyActive(now)
}

// Extend computes the window produced by a payment for the given plan.
// A still-active subscription is renewed in place: StartDate is preserved and
// the period is added to the existing EndDate. Anything else is a fresh
// purchase starting at now.
func (s *Subscription) Extend(plan PlanType, now time.Time) (start, end time.Time) {
	if s.EffectivelyActive(now) {
		return s.StartDate, plan.AddPeriod(s.EndDate)
	}
	return now, plan.AddPeriod(now)
}
