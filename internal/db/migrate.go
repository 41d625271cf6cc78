package db

import (
	"context"
	"database/sql"
)

type DB struct {
	*sql.DB
}

const usersMigration = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS users (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    email text NOT NULL,
    name text NOT NULL DEFAULT '',
    password_hash text,
    role text NOT NULL DEFAULT 'USER',
    provider text,
    provider_user_id text,
    email_verified boolean NOT NULL DEFAULT false,
    active boolean NOT NULL DEFAULT true,
    last_login_at timestamptz,
    version bigint NOT NULL DEFAULT 1,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW(),
    CONSTRAINT users_auth_path CHECK (
        password_hash IS NOT NULL OR provider_user_id IS NOT NULL
    )
);

CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_unique
ON users (LOWER(email));

CREATE UNIQUE INDEX IF NOT EXISTS users_provider_unique
ON users (provider, provider_user_id)
WHERE provider_user_id IS NOT NULL;
`

// RunMigration creates the users table. Every account keeps at least one
// authentication path: a password hash, a federated provider id, or both.
func RunMigration(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, usersMigration)
	return err
}
