/**
 * @description
 * This file defines the subscription model and its state machine:
 * none -> pending -> active | expired. Activation happens out-of-band (back
 * office confirms the manual payment), so this service only ever moves a
 * subscription into 'pending' and later observes the new status on refetch.
 */
package domain

import "time"

// PlanType identifies a subscription plan tier.
type PlanType string

const (
	PlanFree    PlanType = "free"
	PlanPremium PlanType = "premium"
)

// BillingCycle is the billing period of a premium subscription.
type BillingCycle string

const (
	CycleMonthly BillingCycle = "monthly"
	CycleAnnual  BillingCycle = "annual"
)

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	StatusNone    SubscriptionStatus = "none"
	StatusPending SubscriptionStatus = "pending"
	StatusActive  SubscriptionStatus = "active"
	StatusExpired SubscriptionStatus = "expired"
)

// Subscription is the single subscription record owned by a profile.
type Subscription struct {
	ProfileID        string             `json:"profile_id,omitempty"`
	Plan             PlanType           `json:"plan"`
	Status           SubscriptionStatus `json:"status"`
	BillingCycle     BillingCycle       `json:"billing_cycle,omitempty"`
	PaymentReference string             `json:"payment_reference,omitempty"`
	StartDate        *time.Time         `json:"start_date,omitempty"`
	EndDate          *time.Time         `json:"end_date,omitempty"`
}

// FreeSubscription is the subscription every profile starts with.
func FreeSubscription(profileID string) Subscription {
	return Subscription{
		ProfileID: profileID,
		Plan:      PlanFree,
		Status:    StatusNone,
	}
}

// IsPremium reports whether the subscription currently grants premium
// capabilities. A pending upgrade does not: the user is mid-payment and not
// yet entitled.
func (s Subscription) IsPremium() bool {
	return s.Plan == PlanPremium && s.Status == StatusActive
}

// Bundle is the unit in which an identity's state is fetched and refetched:
// the profile, its ordered link list, and its subscription.
type Bundle struct {
	Profile      Profile      `json:"profile"`
	Links        []SocialLink `json:"links"`
	Subscription Subscription `json:"subscription"`
}

// IsPremium is the bundle-level shortcut for the subscription check.
func (b Bundle) IsPremium() bool {
	return b.Subscription.IsPremium()
}
