// Package account implements the Account repository using PostgreSQL.
// (platform, lower(username)) is unique across the table.
package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/coral-backend/internal/adapter/postgres"
	"github.com/heartmarshall/coral-backend/internal/domain"
)

// Repo provides account persistence backed by PostgreSQL.
type Repo struct {
	db postgres.DB
}

// New creates a new account repository.
func New(db postgres.DB) *Repo {
	return &Repo{db: db}
}

var accountColumns = []string{
	"id", "identity_id", "platform", "username", "enabled", "config", "last_state",
	"last_checked", "error_count", "last_error", "created_at", "updated_at",
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns an account by primary key.
// Returns domain.ErrNotFound if it does not exist.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return r.getOne(ctx, sq.Eq{"id": id}, false, id)
}

// GetByIDForUpdate is GetByID with a row lock; it must run inside RunInTx.
func (r *Repo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return r.getOne(ctx, sq.Eq{"id": id}, true, id)
}

// LockByIdentity takes row locks on every account of identityID and returns
// how many were locked. It must run inside RunInTx.
func (r *Repo) LockByIdentity(ctx context.Context, identityID uuid.UUID) (int, error) {
	sqlStr, args, err := postgres.Builder().
		Select("id").
		From("accounts").
		Where(sq.Eq{"identity_id": identityID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build lock accounts: %w", err)
	}

	var ids []uuid.UUID
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &ids, sqlStr, args...); err != nil {
		return 0, postgres.MapError(err, "account", identityID)
	}
	return len(ids), nil
}

// GetByPlatformUsername looks an account up by its natural key (username is
// matched case-insensitively). Returns domain.ErrNotFound if it does not exist.
func (r *Repo) GetByPlatformUsername(ctx context.Context, platform domain.Platform, username string) (*domain.Account, error) {
	where := sq.And{
		sq.Eq{"platform": string(platform)},
		sq.Expr("lower(username) = lower(?)", username),
	}
	return r.getOne(ctx, where, false, string(platform)+"/"+username)
}

// List returns accounts matching f ordered by platform then username.
// Returns an empty slice (not nil) when nothing matches.
func (r *Repo) List(ctx context.Context, f domain.AccountFilter) ([]domain.Account, error) {
	query := postgres.Builder().
		Select(accountColumns...).
		From("accounts").
		OrderBy("platform", "lower(username)")

	if f.IdentityID != nil {
		query = query.Where(sq.Eq{"identity_id": *f.IdentityID})
	}
	if f.Platform != nil {
		query = query.Where(sq.Eq{"platform": string(*f.Platform)})
	}
	if f.Enabled != nil {
		query = query.Where(sq.Eq{"enabled": *f.Enabled})
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list accounts: %w", err)
	}

	var rows []accountRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	result := make([]domain.Account, 0, len(rows))
	for _, row := range rows {
		acc, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		result = append(result, *acc)
	}
	return result, nil
}

// Count returns account totals. An account is failing when its error_count
// has reached failingThreshold.
func (r *Repo) Count(ctx context.Context, failingThreshold int) (domain.AccountCounts, error) {
	query := postgres.Builder().
		Select(
			"count(*) AS total",
			"count(*) FILTER (WHERE enabled) AS enabled",
		).
		Column(sq.Expr("count(*) FILTER (WHERE error_count >= ?) AS failing", failingThreshold)).
		From("accounts")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return domain.AccountCounts{}, fmt.Errorf("build count accounts: %w", err)
	}

	var c countsRow
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &c, sqlStr, args...); err != nil {
		return domain.AccountCounts{}, fmt.Errorf("count accounts: %w", err)
	}
	return domain.AccountCounts{Total: c.Total, Enabled: c.Enabled, Failing: c.Failing}, nil
}

type countsRow struct {
	Total   int `db:"total"`
	Enabled int `db:"enabled"`
	Failing int `db:"failing"`
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new account. Returns domain.ErrAlreadyExists if the
// (platform, username) pair is already linked and domain.ErrNotFound if the
// identity does not exist.
func (r *Repo) Create(ctx context.Context, acc *domain.Account) (*domain.Account, error) {
	cfg, err := domain.EncodePlatformConfig(acc.Config)
	if err != nil {
		return nil, fmt.Errorf("account encode config: %w", err)
	}

	query := postgres.Builder().
		Insert("accounts").
		Columns("id", "identity_id", "platform", "username", "enabled", "config", "created_at", "updated_at").
		Values(acc.ID, acc.IdentityID, string(acc.Platform), acc.Username, acc.Enabled, cfg, acc.CreatedAt, acc.CreatedAt).
		Suffix("RETURNING " + strings.Join(accountColumns, ", "))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build create account: %w", err)
	}

	var row accountRow
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &row, sqlStr, args...); err != nil {
		return nil, postgres.MapError(err, "account", string(acc.Platform)+"/"+acc.Username)
	}
	return row.toDomain()
}

// UpdateCheckState persists the outcome of a check or webhook ingestion:
// snapshot, last_checked and the error streak.
func (r *Repo) UpdateCheckState(ctx context.Context, acc *domain.Account, now time.Time) error {
	var state []byte
	if acc.LastState != nil {
		b, err := json.Marshal(acc.LastState)
		if err != nil {
			return fmt.Errorf("account encode state: %w", err)
		}
		state = b
	}

	query := postgres.Builder().
		Update("accounts").
		Set("last_state", state).
		Set("last_checked", acc.LastChecked).
		Set("error_count", acc.ErrorCount).
		Set("last_error", acc.LastError).
		Set("updated_at", now).
		Where(sq.Eq{"id": acc.ID})

	return r.execOne(ctx, query, acc.ID)
}

// UpdateSettings changes the operator-controlled fields of an account.
func (r *Repo) UpdateSettings(ctx context.Context, id uuid.UUID, enabled bool, cfg domain.PlatformConfig, now time.Time) error {
	raw, err := domain.EncodePlatformConfig(cfg)
	if err != nil {
		return fmt.Errorf("account encode config: %w", err)
	}

	query := postgres.Builder().
		Update("accounts").
		Set("enabled", enabled).
		Set("config", raw).
		Set("updated_at", now).
		Where(sq.Eq{"id": id})

	return r.execOne(ctx, query, id)
}

// Delete removes an account. Returns domain.ErrNotFound if nothing was deleted.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	query := postgres.Builder().Delete("accounts").Where(sq.Eq{"id": id})
	return r.execOne(ctx, query, id)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (r *Repo) getOne(ctx context.Context, where sq.Sqlizer, forUpdate bool, key any) (*domain.Account, error) {
	query := postgres.Builder().Select(accountColumns...).From("accounts").Where(where)
	if forUpdate {
		query = query.Suffix("FOR UPDATE")
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get account: %w", err)
	}

	var row accountRow
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &row, sqlStr, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, fmt.Errorf("account %v: %w", key, domain.ErrNotFound)
		}
		return nil, postgres.MapError(err, "account", key)
	}
	return row.toDomain()
}

type sqlizer interface {
	ToSql() (string, []any, error)
}

func (r *Repo) execOne(ctx context.Context, query sqlizer, id uuid.UUID) error {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build account statement: %w", err)
	}
	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, sqlStr, args...)
	if err != nil {
		return postgres.MapError(err, "account", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// accountRow mirrors the accounts table for pgxscan.
type accountRow struct {
	ID          uuid.UUID  `db:"id"`
	IdentityID  uuid.UUID  `db:"identity_id"`
	Platform    string     `db:"platform"`
	Username    string     `db:"username"`
	Enabled     bool       `db:"enabled"`
	Config      []byte     `db:"config"`
	LastState   []byte     `db:"last_state"`
	LastChecked *time.Time `db:"last_checked"`
	ErrorCount  int        `db:"error_count"`
	LastError   *string    `db:"last_error"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

var errCorruptRow = errors.New("corrupt account row")

func (r accountRow) toDomain() (*domain.Account, error) {
	platform := domain.Platform(r.Platform)

	cfg, err := domain.DecodePlatformConfig(platform, r.Config)
	if err != nil {
		return nil, fmt.Errorf("account %s config: %w: %v", r.ID, errCorruptRow, err)
	}

	var state *domain.PlatformState
	if len(r.LastState) > 0 {
		state = &domain.PlatformState{}
		if err := json.Unmarshal(r.LastState, state); err != nil {
			return nil, fmt.Errorf("account %s state: %w: %v", r.ID, errCorruptRow, err)
		}
	}

	return &domain.Account{
		ID:          r.ID,
		IdentityID:  r.IdentityID,
		Platform:    platform,
		Username:    r.Username,
		Enabled:     r.Enabled,
		Config:      cfg,
		LastState:   state,
		LastChecked: r.LastChecked,
		ErrorCount:  r.ErrorCount,
		LastError:   r.LastError,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}
