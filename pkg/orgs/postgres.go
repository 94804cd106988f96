package orgs

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresDirectory implements Directory against the CRM database.
type PostgresDirectory struct {
	db *sql.DB
}

// NewPostgresDirectory creates a new PostgresDirectory
func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

const organizationColumns = `id, name, slug, is_active, created_at, updated_at`

func (d *PostgresDirectory) scanOrganization(row *sql.Row) (*Organization, error) {
	org := &Organization{}
	err := row.Scan(&org.ID, &org.Name, &org.Slug, &org.IsActive, &org.CreatedAt, &org.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan organization: %w", err)
	}
	return org, nil
}

// OrganizationByID retrieves an organization by primary key.
func (d *PostgresDirectory) OrganizationByID(ctx context.Context, id int64) (*Organization, error) {
	query := `
		SELECT ` + organizationColumns + `
		FROM organizations
		WHERE id = $1
	`
	return d.scanOrganization(d.db.QueryRowContext(ctx, query, id))
}

// OrganizationBySlug retrieves an organization by its unique slug.
func (d *PostgresDirectory) OrganizationBySlug(ctx context.Context, slug string) (*Organization, error) {
	query := `
		SELECT ` + organizationColumns + `
		FROM organizations
		WHERE slug = $1
	`
	return d.scanOrganization(d.db.QueryRowContext(ctx, query, slug))
}

const userColumns = `id, username, email, full_name, password_hash, is_active, is_staff, is_superuser, organization_id, created_at, last_login_at`

func (d *PostgresDirectory) scanUser(row *sql.Row) (*User, error) {
	user := &User{}
	var email, fullName sql.NullString
	err := row.Scan(
		&user.ID, &user.Username, &email, &fullName, &user.PasswordHash,
		&user.IsActive, &user.IsStaff, &user.IsSuperuser, &user.OrganizationID,
		&user.CreatedAt, &user.LastLoginAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	user.Email = email.String
	user.FullName = fullName.String
	return user, nil
}

// UserByID retrieves a user by primary key.
func (d *PostgresDirectory) UserByID(ctx context.Context, id int64) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`
	return d.scanUser(d.db.QueryRowContext(ctx, query, id))
}

// UserByUsername retrieves a user by username.
func (d *PostgresDirectory) UserByUsername(ctx context.Context, username string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = $1
	`
	return d.scanUser(d.db.QueryRowContext(ctx, query, username))
}
