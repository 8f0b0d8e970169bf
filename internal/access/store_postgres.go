package access

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "mintledger/pkg/domain"
)

// PostgresRoleStore persists role grants in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE role_grants (
//	    principal UUID NOT NULL,
//	    role      TEXT NOT NULL,
//	    granted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    PRIMARY KEY (principal, role)
//	);
type PostgresRoleStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed role store.
func NewPostgres(db *sql.DB) *PostgresRoleStore {
	return &PostgresRoleStore{db: db}
}

func (s *PostgresRoleStore) Grant(ctx context.Context, principal id.Principal, role Role) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO role_grants (principal, role) VALUES ($1, $2)
		 ON CONFLICT (principal, role) DO NOTHING`,
		uuid.UUID(principal), string(role),
	)
	if err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	return nil
}

func (s *PostgresRoleStore) Revoke(ctx context.Context, principal id.Principal, role Role) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM role_grants WHERE principal = $1 AND role = $2`,
		uuid.UUID(principal), string(role),
	)
	if err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	return nil
}

func (s *PostgresRoleStore) HasRole(ctx context.Context, principal id.Principal, role Role) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM role_grants WHERE principal = $1 AND role = $2)`,
		uuid.UUID(principal), string(role),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check role: %w", err)
	}
	return exists, nil
}

func (s *PostgresRoleStore) Roles(ctx context.Context, principal id.Principal) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role FROM role_grants WHERE principal = $1 ORDER BY role`,
		uuid.UUID(principal),
	)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var out []Role
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		out = append(out, Role(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}
	return out, nil
}
