package contacts

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const contactColumns = "id, organization_id, first_name, last_name, email, phone, company, created_at, updated_at"

// PostgresRepository is the Postgres-backed Repository.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a repository on db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListByOrganization implements Repository.
func (r *PostgresRepository) ListByOrganization(ctx context.Context, orgID int64) ([]*Contact, error) {
	query := "SELECT " + contactColumns + " FROM contacts WHERE organization_id = $1 ORDER BY last_name, first_name"
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var result []*Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read contacts: %w", err)
	}
	return result, nil
}

// ByID implements Repository. The organization id is part of the predicate,
// so a contact belonging to another organization reads as absent.
func (r *PostgresRepository) ByID(ctx context.Context, orgID, id int64) (*Contact, error) {
	query := "SELECT " + contactColumns + " FROM contacts WHERE organization_id = $1 AND id = $2"
	contact, err := scanContact(r.db.QueryRowContext(ctx, query, orgID, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact %d: %w", id, err)
	}
	return contact, nil
}

// Create implements Repository.
func (r *PostgresRepository) Create(ctx context.Context, contact *Contact) error {
	now := time.Now().UTC()
	query := `INSERT INTO contacts (organization_id, first_name, last_name, email, phone, company, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7) RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		contact.OrganizationID, contact.FirstName, contact.LastName,
		contact.Email, nullable(contact.Phone), nullable(contact.Company), now,
	).Scan(&contact.ID)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	contact.CreatedAt = now
	contact.UpdatedAt = now
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContact(row rowScanner) (*Contact, error) {
	var c Contact
	var phone, company sql.NullString
	err := row.Scan(&c.ID, &c.OrganizationID, &c.FirstName, &c.LastName,
		&c.Email, &phone, &company, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Phone = phone.String
	c.Company = company.String
	return &c, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
