// Package event implements the append-only Event repository using PostgreSQL.
// Rows are never updated by this package; listing is newest first with the
// time-ordered id as tiebreaker.
package event

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/coral-backend/internal/adapter/postgres"
	"github.com/heartmarshall/coral-backend/internal/domain"
)

// Repo provides event persistence backed by PostgreSQL.
type Repo struct {
	db postgres.DB
}

// New creates a new event repository.
func New(db postgres.DB) *Repo {
	return &Repo{db: db}
}

var eventColumns = []string{
	"id", "account_id", "identity_id", "platform", "username", "event_type",
	"summary", "payload", "event_time", "created_at",
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// InsertBatch appends events in a single statement. An empty slice is a no-op.
func (r *Repo) InsertBatch(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	query := postgres.Builder().Insert("events").Columns(eventColumns...)
	for _, e := range events {
		payload := []byte(e.Payload)
		if len(payload) == 0 {
			payload = []byte("{}")
		}
		query = query.Values(
			e.ID, e.AccountID, e.IdentityID, string(e.Platform), e.Username, string(e.Type),
			e.Summary, payload, e.EventTime, e.CreatedAt,
		)
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert events: %w", err)
	}
	if _, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, sqlStr, args...); err != nil {
		return postgres.MapError(err, "event", events[0].ID)
	}
	return nil
}

// DeleteByAccount purges all events of an account. Used only by the purge
// retention policy, in the same transaction that deletes the account.
func (r *Repo) DeleteByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	return r.deleteWhere(ctx, sq.Eq{"account_id": accountID})
}

// DeleteByIdentity purges all events of an identity's accounts.
func (r *Repo) DeleteByIdentity(ctx context.Context, identityID uuid.UUID) (int64, error) {
	return r.deleteWhere(ctx, sq.Eq{"identity_id": identityID})
}

func (r *Repo) deleteWhere(ctx context.Context, where sq.Eq) (int64, error) {
	sqlStr, args, err := postgres.Builder().Delete("events").Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete events: %w", err)
	}
	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("delete events: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// List returns one page of events matching f, newest first, plus the total
// number of matching events. f is normalized before use.
func (r *Repo) List(ctx context.Context, f domain.EventFilter) (domain.EventPage, error) {
	f = f.Normalize()
	q := postgres.QuerierFromCtx(ctx, r.db)
	where := filterWhere(f)

	countSQL, countArgs, err := postgres.Builder().Select("count(*)").From("events").Where(where).ToSql()
	if err != nil {
		return domain.EventPage{}, fmt.Errorf("build count events: %w", err)
	}
	var total int
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return domain.EventPage{}, fmt.Errorf("count events: %w", err)
	}

	listSQL, listArgs, err := postgres.Builder().
		Select(eventColumns...).
		From("events").
		Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset)).
		ToSql()
	if err != nil {
		return domain.EventPage{}, fmt.Errorf("build list events: %w", err)
	}

	var rows []eventRow
	if err := pgxscan.Select(ctx, q, &rows, listSQL, listArgs...); err != nil {
		return domain.EventPage{}, fmt.Errorf("list events: %w", err)
	}

	events := make([]domain.Event, len(rows))
	for i, row := range rows {
		events[i] = row.toDomain()
	}

	return domain.EventPage{Events: events, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// CountByTypeSince returns the number of events per type created at or after since.
func (r *Repo) CountByTypeSince(ctx context.Context, since time.Time) (map[domain.EventType]int, error) {
	sqlStr, args, err := postgres.Builder().
		Select("event_type", "count(*) AS n").
		From("events").
		Where(sq.GtOrEq{"created_at": since}).
		GroupBy("event_type").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count events by type: %w", err)
	}

	var rows []struct {
		EventType string `db:"event_type"`
		N         int    `db:"n"`
	}
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("count events by type: %w", err)
	}

	out := make(map[domain.EventType]int, len(rows))
	for _, row := range rows {
		out[domain.EventType(row.EventType)] = row.N
	}
	return out, nil
}

func filterWhere(f domain.EventFilter) sq.And {
	where := sq.And{}
	if f.Platform != nil {
		where = append(where, sq.Eq{"platform": string(*f.Platform)})
	}
	if f.IdentityID != nil {
		where = append(where, sq.Eq{"identity_id": *f.IdentityID})
	}
	if f.AccountID != nil {
		where = append(where, sq.Eq{"account_id": *f.AccountID})
	}
	if f.Type != nil {
		where = append(where, sq.Eq{"event_type": string(*f.Type)})
	}
	if f.Since != nil {
		where = append(where, sq.GtOrEq{"created_at": *f.Since})
	}
	if f.Until != nil {
		where = append(where, sq.Lt{"created_at": *f.Until})
	}
	return where
}

type eventRow struct {
	ID         uuid.UUID  `db:"id"`
	AccountID  *uuid.UUID `db:"account_id"`
	IdentityID *uuid.UUID `db:"identity_id"`
	Platform   string     `db:"platform"`
	Username   string     `db:"username"`
	EventType  string     `db:"event_type"`
	Summary    string     `db:"summary"`
	Payload    []byte     `db:"payload"`
	EventTime  *time.Time `db:"event_time"`
	CreatedAt  time.Time  `db:"created_at"`
}

func (r eventRow) toDomain() domain.Event {
	return domain.Event{
		ID:         r.ID,
		AccountID:  r.AccountID,
		IdentityID: r.IdentityID,
		Platform:   domain.Platform(r.Platform),
		Username:   r.Username,
		Type:       domain.EventType(r.EventType),
		Summary:    r.Summary,
		Payload:    r.Payload,
		EventTime:  r.EventTime,
		CreatedAt:  r.CreatedAt,
	}
}
