package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Ghavvvo/pulpy/internal/app"
	"github.com/Ghavvvo/pulpy/internal/domain"
	"github.com/Ghavvvo/pulpy/pkg/whatsapp"
)

// fakeRepo is a minimal in-memory app.Repository for handler tests.
type fakeRepo struct {
	profiles  map[string]*domain.Profile
	passwords map[string]string
	links     map[string][]domain.SocialLink
	subs      map[string]domain.Subscription
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		profiles:  make(map[string]*domain.Profile),
		passwords: make(map[string]string),
		links:     make(map[string][]domain.SocialLink),
		subs:      make(map[string]domain.Subscription),
	}
}

func (f *fakeRepo) addProfile(id, handle, email, password string) {
	f.profiles[id] = &domain.Profile{ID: id, Handle: handle, Email: email, Name: handle}
	f.passwords[email] = password
	f.subs[id] = domain.FreeSubscription(id)
}

func (f *fakeRepo) Authenticate(_ context.Context, email, password string) (*domain.Profile, error) {
	if stored, ok := f.passwords[email]; !ok || stored != password {
		return nil, domain.ErrInvalidCredentials
	}
	for _, p := range f.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRepo) Register(_ context.Context, data domain.SignupRequest) (*domain.Profile, error) {
	id := "p-" + data.Email
	f.addProfile(id, domain.DeriveHandle(data.Email), data.Email, data.Password)
	f.profiles[id].Name = data.Name
	return f.profiles[id], nil
}

func (f *fakeRepo) GetProfileByHandle(_ context.Context, handle string) (*domain.Profile, error) {
	for _, p := range f.profiles {
		if p.Handle == handle {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRepo) GetSocialLinks(_ context.Context, profileID string) ([]domain.SocialLink, error) {
	return f.links[profileID], nil
}

func (f *fakeRepo) GetBundle(_ context.Context, profileID string) (*domain.Bundle, error) {
	p, ok := f.profiles[profileID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.Bundle{Profile: *p, Links: f.links[profileID], Subscription: f.subs[profileID]}, nil
}

func (f *fakeRepo) UpdateProfileFields(_ context.Context, profileID string, patch domain.ProfilePatch) error {
	p, ok := f.profiles[profileID]
	if !ok {
		return domain.ErrNotFound
	}
	if patch.Bio != nil {
		p.Bio = *patch.Bio
	}
	return nil
}

func (f *fakeRepo) ReplaceSocialLinks(_ context.Context, profileID string, links []domain.SocialLink) error {
	f.links[profileID] = links
	return nil
}

func (f *fakeRepo) UpsertSubscription(_ context.Context, sub domain.Subscription) error {
	f.subs[sub.ProfileID] = sub
	return nil
}

func newTestRouter(repo *fakeRepo) (*app.TokenManager, http.Handler) {
	tokens := app.NewTokenManager("test-secret", time.Hour)
	service := app.NewService(repo, tokens, nil)
	handler := NewHandler(service, tokens, whatsapp.Support{Number: "+5352123456"})
	return tokens, NewRouter(handler, tokens)
}

func TestDashboardGuardRedirectsUnauthenticated(t *testing.T) {
	repo := newFakeRepo()
	repo.addProfile("p-1", "alice", "alice@example.com", "pw")
	_, router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/alice/dashboard", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	location := rec.Header().Get("Location")
	if !strings.HasPrefix(location, "/alice?") {
		t.Fatalf("expected redirect to /alice, got %q", location)
	}
	if !strings.Contains(location, "login_prompt=true") {
		t.Fatalf("expected login prompt flag, got %q", location)
	}
	if !strings.Contains(location, "next=%2Falice%2Fdashboard") {
		t.Fatalf("expected intended destination, got %q", location)
	}
}

func TestDashboardGuardRedirectsWrongOwner(t *testing.T) {
	repo := newFakeRepo()
	repo.addProfile("p-1", "alice", "alice@example.com", "pw")
	repo.addProfile("p-2", "bob", "bob@example.com", "pw")
	tokens, router := newTestRouter(repo)

	bobToken, err := tokens.Issue("p-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/alice/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+bobToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if location := rec.Header().Get("Location"); location != "/bob" {
		t.Fatalf("expected redirect to /bob, got %q", location)
	}
}

func TestDashboardGuardAllowsOwner(t *testing.T) {
	repo := newFakeRepo()
	repo.addProfile("p-1", "alice", "alice@example.com", "pw")
	tokens, router := newTestRouter(repo)

	token, err := tokens.Issue("p-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/alice/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestLoginWrongPasswordReturns401(t *testing.T) {
	repo := newFakeRepo()
	repo.addProfile("p-1", "alice", "alice@example.com", "pw")
	_, router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"alice@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestPublicProfileOmitsEmail(t *testing.T) {
	repo := newFakeRepo()
	repo.addProfile("p-1", "alice", "alice@example.com", "pw")
	_, router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/p/alice", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "alice@example.com") {
		t.Fatalf("public projection must not leak the email: %s", body)
	}

	var view domain.PublicProfile
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("response is not a public profile: %v", err)
	}
	if view.Handle != "alice" {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestPublicProfileUnknownHandleReturns404(t *testing.T) {
	_, router := newTestRouter(newFakeRepo())

	req := httptest.NewRequest(http.MethodGet, "/p/nobody", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestMeRequiresSessionToken(t *testing.T) {
	repo := newFakeRepo()
	repo.addProfile("p-1", "alice", "alice@example.com", "pw")
	_, router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestUpgradeReturnsHandoffURL(t *testing.T) {
	repo := newFakeRepo()
	repo.addProfile("p-1", "alice", "alice@example.com", "pw")
	tokens, router := newTestRouter(repo)

	token, err := tokens.Issue("p-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/me/upgrade",
		strings.NewReader(`{"billing_cycle":"monthly"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Bundle      *domain.Bundle `json:"bundle"`
		WhatsAppURL string         `json:"whatsapp_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected response: %v", err)
	}
	if resp.Bundle.Subscription.Status != domain.StatusPending {
		t.Fatalf("expected pending subscription, got %+v", resp.Bundle.Subscription)
	}
	if !strings.HasPrefix(resp.WhatsAppURL, "https://wa.me/") {
		t.Fatalf("expected a wa.me handoff URL, got %q", resp.WhatsAppURL)
	}
}

func TestUpdateProfileRoundTrip(t *testing.T) {
	repo := newFakeRepo()
	repo.addProfile("p-1", "alice", "alice@example.com", "pw")
	tokens, router := newTestRouter(repo)

	token, err := tokens.Issue("p-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/me/profile",
		strings.NewReader(`{"bio":"new bio","social_links":[{"platform":"github","url":"https://github.com/alice","label":"GitHub"}]}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var bundle domain.Bundle
	if err := json.Unmarshal(rec.Body.Bytes(), &bundle); err != nil {
		t.Fatalf("unexpected response: %v", err)
	}
	if bundle.Profile.Bio != "new bio" {
		t.Fatalf("expected refetched bio, got %q", bundle.Profile.Bio)
	}
	if len(bundle.Links) != 1 || bundle.Links[0].ID == "" || bundle.Links[0].Position != 0 {
		t.Fatalf("expected one link with id and position 0, got %+v", bundle.Links)
	}
}
