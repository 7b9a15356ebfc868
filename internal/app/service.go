/**
 * @description
 * This file contains the core business logic for the card service. The
 * Service layer orchestrates the record store gateway and applies the
 * synchronization discipline: every mutation is persisted first and the
 * authoritative bundle is refetched afterwards, never trusting an optimistic
 * local merge as final truth.
 */
package app

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/Ghavvvo/pulpy/internal/domain"
)

// Repository defines the record store gateway operations the service needs.
type Repository interface {
	Authenticate(ctx context.Context, email, password string) (*domain.Profile, error)
	Register(ctx context.Context, data domain.SignupRequest) (*domain.Profile, error)
	GetProfileByHandle(ctx context.Context, handle string) (*domain.Profile, error)
	GetSocialLinks(ctx context.Context, profileID string) ([]domain.SocialLink, error)
	GetBundle(ctx context.Context, profileID string) (*domain.Bundle, error)
	UpdateProfileFields(ctx context.Context, profileID string, patch domain.ProfilePatch) error
	ReplaceSocialLinks(ctx context.Context, profileID string, links []domain.SocialLink) error
	UpsertSubscription(ctx context.Context, sub domain.Subscription) error
}

// Publisher is the interface implemented by types that can publish events.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

const (
	eventsExchange      = "pulpy.events"
	upgradeRequestedKey = "subscription.upgrade_requested"
)

// UpgradeRequestedEvent is the payload published when a user asks for a
// premium upgrade, so the back office can match the incoming manual payment.
type UpgradeRequestedEvent struct {
	ProfileID        string              `json:"profile_id"`
	Handle           string              `json:"handle"`
	Name             string              `json:"name"`
	PaymentReference string              `json:"payment_reference"`
	BillingCycle     domain.BillingCycle `json:"billing_cycle"`
	Amount           int                 `json:"amount"`
}

// AuthResult is returned by Login and Signup: the authoritative bundle plus a
// freshly minted session token.
type AuthResult struct {
	Bundle *domain.Bundle `json:"bundle"`
	Token  string         `json:"token"`
}

// Service provides the business logic for profile and subscription
// management.
type Service struct {
	repo     Repository
	tokens   *TokenManager
	producer Publisher
}

// NewService creates a new Service. producer may be nil when RabbitMQ is
// unavailable; upgrade events are then skipped.
func NewService(repo Repository, tokens *TokenManager, producer Publisher) *Service {
	return &Service{repo: repo, tokens: tokens, producer: producer}
}

// Login authenticates an email/password pair, fetches the full bundle and
// mints a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	profile, err := s.repo.Authenticate(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, err
	}
	return s.authResult(ctx, profile.ID)
}

// Signup registers a new profile and then behaves exactly like a successful
// login.
func (s *Service) Signup(ctx context.Context, data domain.SignupRequest) (*AuthResult, error) {
	data.Email = strings.TrimSpace(data.Email)
	if data.Email == "" {
		return nil, domain.NewValidationError("email", "email is required")
	}
	if data.Password == "" {
		return nil, domain.NewValidationError("password", "password is required")
	}

	profile, err := s.repo.Register(ctx, data)
	if err != nil {
		return nil, err
	}
	return s.authResult(ctx, profile.ID)
}

func (s *Service) authResult(ctx context.Context, profileID string) (*AuthResult, error) {
	bundle, err := s.repo.GetBundle(ctx, profileID)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(profileID)
	if err != nil {
		return nil, domain.NewStoreError("issue token", err)
	}
	return &AuthResult{Bundle: bundle, Token: token}, nil
}

// Bundle fetches the authoritative bundle for a profile.
func (s *Service) Bundle(ctx context.Context, profileID string) (*domain.Bundle, error) {
	return s.repo.GetBundle(ctx, profileID)
}

// UpdateProfile applies a partial profile update. Provided fields are merged
// field-by-field; a non-nil link list triggers an atomic full replace with
// recomputed positions. The refetched bundle is returned as the new truth.
func (s *Service) UpdateProfile(ctx context.Context, profileID string, patch domain.ProfilePatch) (*domain.Bundle, error) {
	if err := s.repo.UpdateProfileFields(ctx, profileID, patch); err != nil {
		return nil, err
	}

	if patch.Links != nil {
		links := make([]domain.SocialLink, len(patch.Links))
		copy(links, patch.Links)
		for i := range links {
			if links[i].ID == "" {
				links[i].ID = uuid.NewString()
			}
			links[i].Position = i
		}
		if err := s.repo.ReplaceSocialLinks(ctx, profileID, links); err != nil {
			return nil, err
		}
	}

	return s.repo.GetBundle(ctx, profileID)
}

// RequestUpgrade moves the profile's subscription to plan=premium,
// status=pending with the given payment reference (a fresh one is generated
// when empty), persists it and refetches the bundle. Activation happens
// out-of-band.
func (s *Service) RequestUpgrade(ctx context.Context, profileID, reference string, cycle domain.BillingCycle) (*domain.Bundle, error) {
	if cycle != domain.CycleMonthly && cycle != domain.CycleAnnual {
		return nil, domain.NewValidationError("billing_cycle", "must be monthly or annual")
	}
	if reference == "" {
		reference = domain.GeneratePaymentReference()
	}

	sub := domain.Subscription{
		ProfileID:        profileID,
		Plan:             domain.PlanPremium,
		Status:           domain.StatusPending,
		BillingCycle:     cycle,
		PaymentReference: reference,
	}
	if err := s.repo.UpsertSubscription(ctx, sub); err != nil {
		return nil, err
	}

	bundle, err := s.repo.GetBundle(ctx, profileID)
	if err != nil {
		return nil, err
	}

	s.publishUpgradeRequested(ctx, bundle, reference, cycle)
	return bundle, nil
}

func (s *Service) publishUpgradeRequested(ctx context.Context, bundle *domain.Bundle, reference string, cycle domain.BillingCycle) {
	if s.producer == nil {
		return
	}
	event := UpgradeRequestedEvent{
		ProfileID:        bundle.Profile.ID,
		Handle:           bundle.Profile.Handle,
		Name:             bundle.Profile.Name,
		PaymentReference: reference,
		BillingCycle:     cycle,
		Amount:           domain.Plans[domain.PlanPremium].Price(cycle),
	}
	if err := s.producer.Publish(ctx, eventsExchange, upgradeRequestedKey, event); err != nil {
		// The upgrade itself is already persisted; the back office can still
		// match the payment manually.
		log.Printf("WARN: failed publishing upgrade event for profile %s: %v", bundle.Profile.ID, err)
	}
}

// ResolvePublicProfile resolves a handle to its public projection. It works
// identically whether or not the viewer is authenticated.
func (s *Service) ResolvePublicProfile(ctx context.Context, handle string) (*domain.PublicProfile, error) {
	profile, err := s.repo.GetProfileByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	links, err := s.repo.GetSocialLinks(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	view := profile.PublicView(links)
	return &view, nil
}
