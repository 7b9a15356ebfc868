package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Ghavvvo/pulpy/internal/domain"
)

// fakeRepo is an in-memory Repository for service tests.
type fakeRepo struct {
	profiles      map[string]*domain.Profile // by id
	passwords     map[string]string          // email -> password
	links         map[string][]domain.SocialLink
	subscriptions map[string]domain.Subscription

	failUpdate     error
	failReplace    error
	failUpsert     error
	replacedWith   []domain.SocialLink
	updatedPatches []domain.ProfilePatch
	bundleFetches  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		profiles:      make(map[string]*domain.Profile),
		passwords:     make(map[string]string),
		links:         make(map[string][]domain.SocialLink),
		subscriptions: make(map[string]domain.Subscription),
	}
}

func (f *fakeRepo) addProfile(id, handle, email, password string) *domain.Profile {
	p := &domain.Profile{ID: id, Handle: handle, Email: email, Name: handle}
	f.profiles[id] = p
	f.passwords[email] = password
	f.subscriptions[id] = domain.FreeSubscription(id)
	return p
}

func (f *fakeRepo) Authenticate(_ context.Context, email, password string) (*domain.Profile, error) {
	stored, ok := f.passwords[email]
	if !ok || stored != password {
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
	for _, p := range f.profiles {
		if p.Email == data.Email {
			return nil, domain.ErrDuplicateEmail
		}
	}
	id := "p-" + data.Email
	p := &domain.Profile{ID: id, Handle: domain.DeriveHandle(data.Email), Email: data.Email, Name: data.Name}
	f.profiles[id] = p
	f.passwords[data.Email] = data.Password
	f.subscriptions[id] = domain.FreeSubscription(id)
	return p, nil
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
	f.bundleFetches++
	p, ok := f.profiles[profileID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.Bundle{Profile: *p, Links: f.links[profileID], Subscription: f.subscriptions[profileID]}, nil
}

func (f *fakeRepo) UpdateProfileFields(_ context.Context, profileID string, patch domain.ProfilePatch) error {
	if f.failUpdate != nil {
		return f.failUpdate
	}
	p, ok := f.profiles[profileID]
	if !ok {
		return domain.ErrNotFound
	}
	f.updatedPatches = append(f.updatedPatches, patch)
	if patch.Bio != nil {
		p.Bio = *patch.Bio
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	return nil
}

func (f *fakeRepo) ReplaceSocialLinks(_ context.Context, profileID string, links []domain.SocialLink) error {
	if f.failReplace != nil {
		return f.failReplace
	}
	f.replacedWith = links
	f.links[profileID] = links
	return nil
}

func (f *fakeRepo) UpsertSubscription(_ context.Context, sub domain.Subscription) error {
	if f.failUpsert != nil {
		return f.failUpsert
	}
	f.subscriptions[sub.ProfileID] = sub
	return nil
}

type recordingPublisher struct {
	exchange string
	key      string
	body     interface{}
}

func (r *recordingPublisher) Publish(_ context.Context, exchange, routingKey string, body interface{}) error {
	r.exchange = exchange
	r.key = routingKey
	r.body = body
	return nil
}

func newTestService(repo Repository, producer Publisher) *Service {
	return NewService(repo, NewTokenManager("test-secret", time.Hour), producer)
}

func TestLoginSuccessReturnsBundleAndToken(t *testing.T) {
	repo := newFakeRepo()
	repo.addProfile("p-1", "alice", "alice@example.com", "password123")
	svc := newTestService(repo, nil)

	result, err := svc.Login(context.Background(), "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Bundle.Profile.Handle != "alice" {
		t.Fatalf("expected alice's bundle, got %+v", result.Bundle.Profile)
	}
	if result.Token == "" {
		t.Fatal("expected a session token")
	}
}

func TestLoginWrongPasswordReturnsInvalidCredentials(t *testing.T) {
	repo := newFakeRepo()
	repo.addProfile("p-1", "alice", "alice@example.com", "password123")
	svc := newTestService(repo, nil)

	_, err := svc.Login(context.Background(), "alice@example.com", "nope")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSignupDerivesHandleAndBehavesAsLogin(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)

	result, err := svc.Signup(context.Background(), domain.SignupRequest{
		Name:     "María García",
		Email:    "Maria.Garcia@techcorp.com",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Bundle.Profile.Handle != "mariagarcia" {
		t.Fatalf("expected handle mariagarcia, got %q", result.Bundle.Profile.Handle)
	}
	if result.Token == "" {
		t.Fatal("expected a session token")
	}
	if result.Bundle.Subscription.Plan != domain.PlanFree {
		t.Fatalf("new signups start on the free plan, got %s", result.Bundle.Subscription.Plan)
	}
}

func TestSignupRejectsMissingFields(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)

	if _, err := svc.Signup(context.Background(), domain.SignupRequest{Password: "x"}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for missing email, got %v", err)
	}
	if _, err := svc.Signup(context.Background(), domain.SignupRequest{Email: "a@b.com"}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for missing password, got %v", err)
	}
}

func TestUpdateProfileRefetchesBundle(t *testing.T) {
	repo := newFakeRepo()
	repo.addProfile("p-1", "alice", "alice@example.com", "pw")
	svc := newTestService(repo, nil)

	bio := "new bio"
	bundle, err := svc.UpdateProfile(context.Background(), "p-1", domain.ProfilePatch{Bio: &bio})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.Profile.Bio != "new bio" {
		t.Fatalf("expected refetched bio, got %q", bundle.Profile.Bio)
	}
	if repo.replacedWith != nil {
		t.Fatal("link list must not be touched when the patch has no links")
	}
}

func TestUpdateProfileReplacesLinksWithRecomputedPositions(t *testing.T) {
	repo := newFakeRepo()
	repo.addProfile("p-1", "alice", "alice@example.com", "pw")
	svc := newTestService(repo, nil)

	patch := domain.ProfilePatch{Links: []domain.SocialLink{
		{ID: "l-b", Platform: "github", URL: "https://github.com/alice", Position: 7},
		{ID: "", Platform: "twitter", URL: "https://twitter.com/alice", Position: 3},
	}}
	bundle, err := svc.UpdateProfile(context.Background(), "p-1", patch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bundle.Links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(bundle.Links))
	}
	if bundle.Links[0].ID != "l-b" || bundle.Links[0].Position != 0 {
		t.Fatalf("existing id must be preserved and positions recomputed, got %+v", bundle.Links[0])
	}
	if bundle.Links[1].ID == "" || bundle.Links[1].Position != 1 {
		t.Fatalf("new link must get an id and position 1, got %+v", bundle.Links[1])
	}
}

func TestUpdateProfileStoreFailurePropagates(t *testing.T) {
	repo := newFakeRepo()
	repo.addProfile("p-1", "alice", "alice@example.com", "pw")
	repo.failUpdate = domain.NewStoreError("update profile", errors.New("network down"))
	svc := newTestService(repo, nil)

	bio := "new bio"
	_, err := svc.UpdateProfile(context.Background(), "p-1", domain.ProfilePatch{Bio: &bio})
	if !domain.IsStoreError(err) {
		t.Fatalf("expected a store error, got %v", err)
	}
}

func TestRequestUpgradeSetsPendingAndPublishes(t *testing.T) {
	repo := newFakeRepo()
	repo.addProfile("p-1", "alice", "alice@example.com", "pw")
	producer := &recordingPublisher{}
	svc := newTestService(repo, producer)

	bundle, err := svc.RequestUpgrade(context.Background(), "p-1", "PLP-REF-0001", domain.CycleMonthly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub := bundle.Subscription
	if sub.Plan != domain.PlanPremium || sub.Status != domain.StatusPending {
		t.Fatalf("expected premium/pending, got %s/%s", sub.Plan, sub.Status)
	}
	if sub.PaymentReference != "PLP-REF-0001" {
		t.Fatalf("expected the supplied reference, got %q", sub.PaymentReference)
	}
	if bundle.IsPremium() {
		t.Fatal("a pending upgrade must not grant premium yet")
	}

	event, ok := producer.body.(UpgradeRequestedEvent)
	if !ok {
		t.Fatalf("expected an UpgradeRequestedEvent, got %T", producer.body)
	}
	if event.PaymentReference != "PLP-REF-0001" || event.Amount != 500 {
		t.Fatalf("unexpected event payload: %+v", event)
	}
}

func TestRequestUpgradeGeneratesReferenceWhenEmpty(t *testing.T) {
	repo := newFakeRepo()
	repo.addProfile("p-1", "alice", "alice@example.com", "pw")
	svc := newTestService(repo, nil)

	bundle, err := svc.RequestUpgrade(context.Background(), "p-1", "", domain.CycleAnnual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.Subscription.PaymentReference == "" {
		t.Fatal("expected a generated payment reference")
	}
}

func TestRequestUpgradeRejectsUnknownCycle(t *testing.T) {
	repo := newFakeRepo()
	repo.addProfile("p-1", "alice", "alice@example.com", "pw")
	svc := newTestService(repo, nil)

	_, err := svc.RequestUpgrade(context.Background(), "p-1", "", domain.BillingCycle("weekly"))
	if !domain.IsValidation(err) {
		t.Fatalf("expected a validation error, got %v", err)
	}
}

func TestResolvePublicProfile(t *testing.T) {
	repo := newFakeRepo()
	repo.addProfile("p-1", "alice", "alice@example.com", "pw")
	repo.links["p-1"] = []domain.SocialLink{
		{ID: "l-1", Platform: "github", URL: "https://github.com/alice", Position: 0},
	}
	svc := newTestService(repo, nil)

	view, err := svc.ResolvePublicProfile(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Handle != "alice" || len(view.Links) != 1 {
		t.Fatalf("unexpected public view: %+v", view)
	}

	if _, err := svc.ResolvePublicProfile(context.Background(), "nobody"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
