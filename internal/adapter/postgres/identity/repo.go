// Package identity implements the Identity repository using PostgreSQL.
package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	postgres "github.com/heartmarshall/coral-backend/internal/adapter/postgres"
	"github.com/heartmarshall/coral-backend/internal/domain"
)

// Repo provides identity persistence backed by PostgreSQL.
type Repo struct {
	db postgres.DB
}

// New creates a new identity repository.
func New(db postgres.DB) *Repo {
	return &Repo{db: db}
}

// ---------------------------------------------------------------------------
// SQL
// ---------------------------------------------------------------------------

const identityColumns = `id, name, notes, created_at, updated_at`

const createSQL = `
INSERT INTO identities (id, name, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
RETURNING ` + identityColumns

const getByIDSQL = `SELECT ` + identityColumns + ` FROM identities WHERE id = $1`

const updateSQL = `
UPDATE identities SET name = $2, notes = $3, updated_at = $4
WHERE id = $1
RETURNING ` + identityColumns

const deleteSQL = `DELETE FROM identities WHERE id = $1`

// listSummariesSQL returns every identity with its account count and its newest
// event (by created_at, then id) in one round trip.
const listSummariesSQL = `
SELECT
    i.id, i.name, i.notes, i.created_at, i.updated_at,
    (SELECT count(*) FROM accounts a WHERE a.identity_id = i.id) AS account_count,
    e.id, e.account_id, e.identity_id, e.platform, e.username, e.event_type,
    e.summary, e.payload, e.event_time, e.created_at
FROM identities i
LEFT JOIN LATERAL (
    SELECT * FROM events ev
    WHERE ev.identity_id = i.id
    ORDER BY ev.created_at DESC, ev.id DESC
    LIMIT 1
) e ON true
ORDER BY lower(i.name)`

const countSQL = `SELECT count(*) FROM identities`

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns an identity by primary key.
// Returns domain.ErrNotFound if it does not exist.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	ident, err := scanIdentity(q.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "identity", id)
	}
	return ident, nil
}

// ListSummaries returns all identities ordered by name, each with its account
// count and latest event. Returns an empty slice (not nil) when there are none.
func (r *Repo) ListSummaries(ctx context.Context) ([]domain.IdentitySummary, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	rows, err := q.Query(ctx, listSummariesSQL)
	if err != nil {
		return nil, fmt.Errorf("list identity summaries: %w", err)
	}
	defer rows.Close()

	result := make([]domain.IdentitySummary, 0)
	for rows.Next() {
		var (
			s  domain.IdentitySummary
			ev latestEventColumns
		)
		if err := rows.Scan(
			&s.ID, &s.Name, &s.Notes, &s.CreatedAt, &s.UpdatedAt,
			&s.AccountCount,
			&ev.ID, &ev.AccountID, &ev.IdentityID, &ev.Platform, &ev.Username, &ev.Type,
			&ev.Summary, &ev.Payload, &ev.EventTime, &ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan identity summary: %w", err)
		}
		s.LatestEvent = ev.toDomain()
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list identity summaries: %w", err)
	}

	return result, nil
}

// Count returns the number of identities.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, countSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new identity. Returns domain.ErrAlreadyExists if the name
// is taken (case-insensitive).
func (r *Repo) Create(ctx context.Context, ident *domain.Identity) (*domain.Identity, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	created, err := scanIdentity(q.QueryRow(ctx, createSQL, ident.ID, ident.Name, ident.Notes, ident.CreatedAt))
	if err != nil {
		return nil, postgres.MapError(err, "identity", ident.Name)
	}
	return created, nil
}

// Update replaces name and notes. Returns domain.ErrNotFound if the identity
// does not exist and domain.ErrAlreadyExists if the new name is taken.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, name, notes string, now time.Time) (*domain.Identity, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	updated, err := scanIdentity(q.QueryRow(ctx, updateSQL, id, name, notes, now))
	if err != nil {
		return nil, postgres.MapError(err, "identity", id)
	}
	return updated, nil
}

// Delete removes an identity; its accounts go with it via ON DELETE CASCADE.
// Returns domain.ErrNotFound if nothing was deleted.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, deleteSQL, id)
	if err != nil {
		return postgres.MapError(err, "identity", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("identity %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Scanning
// ---------------------------------------------------------------------------

func scanIdentity(row pgx.Row) (*domain.Identity, error) {
	var i domain.Identity
	if err := row.Scan(&i.ID, &i.Name, &i.Notes, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return nil, err
	}
	return &i, nil
}

// latestEventColumns holds the nullable LEFT JOIN columns of the latest event.
type latestEventColumns struct {
	ID         *uuid.UUID
	AccountID  *uuid.UUID
	IdentityID *uuid.UUID
	Platform   *string
	Username   *string
	Type       *string
	Summary    *string
	Payload    []byte
	EventTime  *time.Time
	CreatedAt  *time.Time
}

func (c latestEventColumns) toDomain() *domain.Event {
	if c.ID == nil {
		return nil
	}
	e := &domain.Event{
		ID:         *c.ID,
		AccountID:  c.AccountID,
		IdentityID: c.IdentityID,
		Payload:    c.Payload,
		EventTime:  c.EventTime,
	}
	if c.Platform != nil {
		e.Platform = domain.Platform(*c.Platform)
	}
	if c.Username != nil {
		e.Username = *c.Username
	}
	if c.Type != nil {
		e.Type = domain.EventType(*c.Type)
	}
	if c.Summary != nil {
		e.Summary = *c.Summary
	}
	if c.CreatedAt != nil {
		e.CreatedAt = *c.CreatedAt
	}
	return e
}
