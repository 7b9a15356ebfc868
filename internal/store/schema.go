package store

import "context"

// EnsureSchema creates the tables the service needs if they do not exist yet.
// Safe to run at every startup.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS profiles (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            handle TEXT NOT NULL UNIQUE,
            email TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            name TEXT NOT NULL DEFAULT '',
            title TEXT NOT NULL DEFAULT '',
            company TEXT NOT NULL DEFAULT '',
            bio TEXT NOT NULL DEFAULT '',
            location TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT '',
            avatar TEXT NOT NULL DEFAULT '',
            cover_type TEXT NOT NULL DEFAULT 'color',
            cover_color TEXT NOT NULL DEFAULT '',
            cover_image TEXT NOT NULL DEFAULT '',
            card_style TEXT NOT NULL DEFAULT 'professional',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE TABLE IF NOT EXISTS social_links (
            id UUID PRIMARY KEY,
            profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            platform TEXT NOT NULL,
            url TEXT NOT NULL,
            label TEXT NOT NULL DEFAULT '',
            position INT NOT NULL
        );
        CREATE TABLE IF NOT EXISTS subscriptions (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            profile_id UUID NOT NULL UNIQUE REFERENCES profiles(id) ON DELETE CASCADE,
            plan TEXT NOT NULL DEFAULT 'free',
            status TEXT NOT NULL DEFAULT 'none',
            billing_cycle TEXT,
            payment_reference TEXT,
            start_date TIMESTAMPTZ,
            end_date TIMESTAMPTZ,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
    `)
	return err
}
