/**
 * @description
 * This file implements the client-held session state machine. A State starts
 * unresolved, resolves to anonymous or authenticated at startup, and from
 * there every mutation goes through the gateway first; the in-memory bundle
 * is only replaced by the store's authoritative response. The durable mirror
 * keeps the session alive across restarts and is cleared on logout.
 */
package session

import (
	"context"
	"sync"

	"github.com/Ghavvvo/pulpy/internal/domain"
)

// Phase is the lifecycle state of a session.
type Phase string

const (
	PhaseUnresolved    Phase = "unresolved"
	PhaseAnonymous     Phase = "anonymous"
	PhaseAuthenticated Phase = "authenticated"
)

// Gateway is the remote contract the session state talks to. pkg/cardclient
// implements it over HTTP against the card service.
type Gateway interface {
	Login(ctx context.Context, email, password string) (*domain.Bundle, string, error)
	Signup(ctx context.Context, data domain.SignupRequest) (*domain.Bundle, string, error)
	FetchBundle(ctx context.Context, token string) (*domain.Bundle, error)
	UpdateProfile(ctx context.Context, token string, patch domain.ProfilePatch) (*domain.Bundle, error)
	RequestUpgrade(ctx context.Context, token, reference string, cycle domain.BillingCycle) (*domain.Bundle, error)
}

// Snapshot is the serialized session blob held by the durable mirror.
type Snapshot struct {
	Token  string        `json:"token"`
	Bundle domain.Bundle `json:"bundle"`
}

// Mirror persists one session snapshot under a fixed key. Load returns
// (nil, nil) when no snapshot exists.
type Mirror interface {
	Load() (*Snapshot, error)
	Save(snap *Snapshot) error
	Clear() error
}

// State is the session store. Constructed once at application start and
// reset only via Logout.
type State struct {
	mu      sync.Mutex
	gateway Gateway
	mirror  Mirror

	phase  Phase
	token  string
	bundle *domain.Bundle

	onChange func(domain.Bundle)
}

// New creates a session State in the unresolved phase.
func New(gateway Gateway, mirror Mirror) *State {
	return &State{
		gateway: gateway,
		mirror:  mirror,
		phase:   PhaseUnresolved,
	}
}

// SetOnChange registers a callback invoked with the new authoritative bundle
// after every successful refresh. Draft holders use it to re-seed
// explicitly instead of relying on implicit reactivity.
func (s *State) SetOnChange(fn func(domain.Bundle)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Resume resolves the startup session: if the mirror holds a token that the
// gateway still accepts, the state becomes authenticated with a freshly
// fetched bundle; otherwise it becomes anonymous.
func (s *State) Resume(ctx context.Context) error {
	snap, err := s.mirror.Load()
	if err != nil || snap == nil || snap.Token == "" {
		s.setAnonymous()
		return err
	}

	bundle, err := s.gateway.FetchBundle(ctx, snap.Token)
	if err != nil {
		if domain.IsStoreError(err) {
			// The store is unreachable, not the token invalid; keep the
			// mirror for the next startup.
			s.setAnonymous()
			return err
		}
		_ = s.mirror.Clear()
		s.setAnonymous()
		return nil
	}

	s.setAuthenticated(snap.Token, bundle)
	return nil
}

// Login authenticates against the gateway. On failure the state remains
// anonymous and nothing is written to the mirror.
func (s *State) Login(ctx context.Context, email, password string) error {
	bundle, token, err := s.gateway.Login(ctx, email, password)
	if err != nil {
		s.mu.Lock()
		if s.phase == PhaseUnresolved {
			s.phase = PhaseAnonymous
		}
		s.mu.Unlock()
		return err
	}
	s.setAuthenticated(token, bundle)
	return nil
}

// Signup registers a new profile and then behaves like a successful login.
func (s *State) Signup(ctx context.Context, data domain.SignupRequest) error {
	bundle, token, err := s.gateway.Signup(ctx, data)
	if err != nil {
		s.mu.Lock()
		if s.phase == PhaseUnresolved {
			s.phase = PhaseAnonymous
		}
		s.mu.Unlock()
		return err
	}
	s.setAuthenticated(token, bundle)
	return nil
}

// Logout clears the in-memory identity and the durable mirror. Idempotent.
func (s *State) Logout() error {
	s.mu.Lock()
	s.phase = PhaseAnonymous
	s.token = ""
	s.bundle = nil
	s.mu.Unlock()
	return s.mirror.Clear()
}

// UpdateProfile persists a partial profile update through the gateway and
// replaces the in-memory bundle with the refetched authoritative one. On
// failure the previous state is left untouched.
func (s *State) UpdateProfile(ctx context.Context, patch domain.ProfilePatch) (*domain.Bundle, error) {
	token, err := s.requireAuthenticated()
	if err != nil {
		return nil, err
	}

	bundle, err := s.gateway.UpdateProfile(ctx, token, patch)
	if err != nil {
		return nil, err
	}

	s.replaceBundle(bundle)
	return bundle, nil
}

// RequestUpgrade moves the subscription to premium/pending through the
// gateway and refreshes the bundle.
func (s *State) RequestUpgrade(ctx context.Context, reference string, cycle domain.BillingCycle) (*domain.Bundle, error) {
	token, err := s.requireAuthenticated()
	if err != nil {
		return nil, err
	}

	bundle, err := s.gateway.RequestUpgrade(ctx, token, reference, cycle)
	if err != nil {
		return nil, err
	}

	s.replaceBundle(bundle)
	return bundle, nil
}

// Refresh refetches the authoritative bundle, picking up out-of-band changes
// such as a back-office subscription activation.
func (s *State) Refresh(ctx context.Context) (*domain.Bundle, error) {
	token, err := s.requireAuthenticated()
	if err != nil {
		return nil, err
	}

	bundle, err := s.gateway.FetchBundle(ctx, token)
	if err != nil {
		return nil, err
	}

	s.replaceBundle(bundle)
	return bundle, nil
}

// Phase returns the current lifecycle phase.
func (s *State) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// IsAuthenticated reports whether a user is logged in.
func (s *State) IsAuthenticated() bool {
	return s.Phase() == PhaseAuthenticated
}

// IsPremium reports whether the current user holds an active premium
// subscription. A pending upgrade does not count.
func (s *State) IsPremium() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bundle != nil && s.bundle.IsPremium()
}

// Bundle returns a copy of the current bundle, or nil when anonymous.
func (s *State) Bundle() *domain.Bundle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bundle == nil {
		return nil
	}
	b := *s.bundle
	b.Links = append([]domain.SocialLink(nil), s.bundle.Links...)
	return &b
}

// Token returns the current session token, empty when anonymous.
func (s *State) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *State) requireAuthenticated() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseAuthenticated || s.bundle == nil {
		return "", domain.ErrNotAuthenticated
	}
	return s.token, nil
}

func (s *State) setAnonymous() {
	s.mu.Lock()
	s.phase = PhaseAnonymous
	s.token = ""
	s.bundle = nil
	s.mu.Unlock()
}

func (s *State) setAuthenticated(token string, bundle *domain.Bundle) {
	s.mu.Lock()
	s.phase = PhaseAuthenticated
	s.token = token
	s.bundle = bundle
	notify := s.onChange
	s.mu.Unlock()

	_ = s.mirror.Save(&Snapshot{Token: token, Bundle: *bundle})
	if notify != nil {
		notify(*bundle)
	}
}

func (s *State) replaceBundle(bundle *domain.Bundle) {
	s.mu.Lock()
	s.bundle = bundle
	token := s.token
	notify := s.onChange
	s.mu.Unlock()

	_ = s.mirror.Save(&Snapshot{Token: token, Bundle: *bundle})
	if notify != nil {
		notify(*bundle)
	}
}
