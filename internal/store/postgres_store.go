/**
 * @description
 * This file implements the data access layer for the card service. It contains
 * all the SQL for the three collections (profiles, social_links,
 * subscriptions) plus email/password authentication against the profiles
 * table.
 */
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ghavvvo/pulpy/internal/domain"
)

// PostgresStore is the PostgreSQL implementation of the record store gateway.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore backed by the given pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const profileColumns = `
    id, handle, email, name, title, company, bio, location, phone, avatar,
    cover_type, cover_color, cover_image, card_style, created_at, updated_at
`

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(
		&p.ID, &p.Handle, &p.Email, &p.Name, &p.Title, &p.Company, &p.Bio,
		&p.Location, &p.Phone, &p.Avatar, &p.CoverType, &p.CoverColor,
		&p.CoverImage, &p.CardStyle, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Authenticate verifies an email/password pair and returns the matching
// profile. Unknown emails and wrong passwords are indistinguishable to the
// caller.
func (s *PostgresStore) Authenticate(ctx context.Context, email, password string) (*domain.Profile, error) {
	var hash string
	var profileID string
	err := s.db.QueryRow(ctx,
		`SELECT id, password_hash FROM profiles WHERE lower(email) = lower($1)`,
		email,
	).Scan(&profileID, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.NewStoreError("authenticate", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.GetProfile(ctx, profileID)
}

// Register creates a new profile with a handle derived from the email
// local-part and seeds its free subscription. Duplicate emails or handles
// surface as the corresponding auth errors.
func (s *PostgresStore) Register(ctx context.Context, data domain.SignupRequest) (*domain.Profile, error) {
	handle := domain.DeriveHandle(data.Email)
	if handle == "" {
		return nil, domain.NewValidationError("email", "cannot derive a handle from this address")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(data.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.NewStoreError("register", err)
	}

	query := `
        INSERT INTO profiles (handle, email, name, password_hash, cover_type, cover_color, card_style)
        VALUES ($1, $2, $3, $4, 'color', 'linear-gradient(135deg, #667eea 0%, #764ba2 100%)', 'professional')
        RETURNING id
    `
	var profileID string
	err = s.db.QueryRow(ctx, query, handle, data.Email, data.Name, string(hash)).Scan(&profileID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			log.Printf("Registration rejected: unique constraint violation on %s", pgErr.ConstraintName)
			if strings.Contains(pgErr.ConstraintName, "handle") {
				return nil, domain.ErrDuplicateHandle
			}
			return nil, domain.ErrDuplicateEmail
		}
		return nil, domain.NewStoreError("register", err)
	}

	if err := s.UpsertSubscription(ctx, domain.FreeSubscription(profileID)); err != nil {
		log.Printf("WARN: failed seeding free subscription for profile %s: %v", profileID, err)
	}

	return s.GetProfile(ctx, profileID)
}

// GetProfile fetches one profile by its identity key.
func (s *PostgresStore) GetProfile(ctx context.Context, profileID string) (*domain.Profile, error) {
	row := s.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, profileID)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.NewStoreError("get profile", err)
	}
	return p, nil
}

// GetProfileByHandle fetches one profile by its public handle. This is the
// unauthenticated lookup path.
func (s *PostgresStore) GetProfileByHandle(ctx context.Context, handle string) (*domain.Profile, error) {
	row := s.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE handle = $1`, handle)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.NewStoreError("get profile by handle", err)
	}
	return p, nil
}

// GetSocialLinks returns a profile's links ordered by position.
func (s *PostgresStore) GetSocialLinks(ctx context.Context, profileID string) ([]domain.SocialLink, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, profile_id, platform, url, label, position
        FROM social_links
        WHERE profile_id = $1
        ORDER BY position
    `, profileID)
	if err != nil {
		return nil, domain.NewStoreError("get social links", err)
	}
	defer rows.Close()

	var links []domain.SocialLink
	for rows.Next() {
		var l domain.SocialLink
		if err := rows.Scan(&l.ID, &l.ProfileID, &l.Platform, &l.URL, &l.Label, &l.Position); err != nil {
			return nil, domain.NewStoreError("get social links", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError("get social links", err)
	}
	return links, nil
}

// ReplaceSocialLinks atomically replaces a profile's link list: all prior
// entries are deleted and the supplied ones inserted with positions 0..n-1 in
// the order given. Link ids supplied by the caller are preserved so they stay
// stable across reorders.
func (s *PostgresStore) ReplaceSocialLinks(ctx context.Context, profileID string, links []domain.SocialLink) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return domain.NewStoreError("replace social links", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM social_links WHERE profile_id = $1`, profileID); err != nil {
		return domain.NewStoreError("replace social links", err)
	}

	for i, link := range links {
		_, err := tx.Exec(ctx, `
            INSERT INTO social_links (id, profile_id, platform, url, label, position)
            VALUES ($1, $2, $3, $4, $5, $6)
        `, link.ID, profileID, domain.NormalizePlatform(link.Platform), link.URL, link.Label, i)
		if err != nil {
			return domain.NewStoreError("replace social links", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.NewStoreError("replace social links", err)
	}
	return nil
}

// UpdateProfileFields applies a partial update. Only the fields present in
// the patch are written; the link list is handled separately via
// ReplaceSocialLinks.
func (s *PostgresStore) UpdateProfileFields(ctx context.Context, profileID string, patch domain.ProfilePatch) error {
	set := []string{}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Company != nil {
		add("company", *patch.Company)
	}
	if patch.Bio != nil {
		add("bio", *patch.Bio)
	}
	if patch.Location != nil {
		add("location", *patch.Location)
	}
	if patch.Phone != nil {
		add("phone", *patch.Phone)
	}
	if patch.Avatar != nil {
		add("avatar", *patch.Avatar)
	}
	if patch.CoverType != nil {
		add("cover_type", string(*patch.CoverType))
	}
	if patch.CoverColor != nil {
		add("cover_color", *patch.CoverColor)
	}
	if patch.CoverImage != nil {
		add("cover_image", *patch.CoverImage)
	}
	if patch.CardStyle != nil {
		add("card_style", string(*patch.CardStyle))
	}

	if len(set) == 0 {
		return nil
	}

	args = append(args, profileID)
	query := fmt.Sprintf(
		`UPDATE profiles SET %s, updated_at = NOW() WHERE id = $%d`,
		strings.Join(set, ", "), len(args),
	)

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return domain.NewStoreError("update profile", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetSubscription returns a profile's subscription, defaulting to the free
// tier when no record exists yet.
func (s *PostgresStore) GetSubscription(ctx context.Context, profileID string) (domain.Subscription, error) {
	var sub domain.Subscription
	err := s.db.QueryRow(ctx, `
        SELECT profile_id, plan, status, COALESCE(billing_cycle, ''), COALESCE(payment_reference, ''), start_date, end_date
        FROM subscriptions
        WHERE profile_id = $1
    `, profileID).Scan(
		&sub.ProfileID, &sub.Plan, &sub.Status, &sub.BillingCycle,
		&sub.PaymentReference, &sub.StartDate, &sub.EndDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.FreeSubscription(profileID), nil
		}
		return domain.Subscription{}, domain.NewStoreError("get subscription", err)
	}
	return sub, nil
}

// UpsertSubscription creates or replaces the single subscription record of a
// profile.
func (s *PostgresStore) UpsertSubscription(ctx context.Context, sub domain.Subscription) error {
	query := `
        INSERT INTO subscriptions (profile_id, plan, status, billing_cycle, payment_reference, start_date, end_date)
        VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7)
        ON CONFLICT (profile_id) DO UPDATE SET
            plan = EXCLUDED.plan,
            status = EXCLUDED.status,
            billing_cycle = EXCLUDED.billing_cycle,
            payment_reference = EXCLUDED.payment_reference,
            start_date = EXCLUDED.start_date,
            end_date = EXCLUDED.end_date,
            updated_at = NOW()
    `
	_, err := s.db.Exec(ctx, query,
		sub.ProfileID, sub.Plan, sub.Status, string(sub.BillingCycle),
		sub.PaymentReference, sub.StartDate, sub.EndDate,
	)
	if err != nil {
		return domain.NewStoreError("upsert subscription", err)
	}
	return nil
}

// GetBundle fetches a profile's full state (profile, ordered links,
// subscription) as one unit. This is the refetch path after every mutation.
func (s *PostgresStore) GetBundle(ctx context.Context, profileID string) (*domain.Bundle, error) {
	profile, err := s.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	links, err := s.GetSocialLinks(ctx, profileID)
	if err != nil {
		return nil, err
	}
	sub, err := s.GetSubscription(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return &domain.Bundle{Profile: *profile, Links: links, Subscription: sub}, nil
}

// ExpireLapsedSubscriptions flips every active subscription whose period has
// ended to expired and reports how many rows changed.
func (s *PostgresStore) ExpireLapsedSubscriptions(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE subscriptions
        SET status = 'expired',
            updated_at = NOW()
        WHERE status = 'active'
          AND end_date IS NOT NULL
          AND end_date <= NOW()
    `)
	if err != nil {
		return 0, domain.NewStoreError("expire subscriptions", err)
	}
	return tag.RowsAffected(), nil
}
