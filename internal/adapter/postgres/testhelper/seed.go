package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedIdentity inserts an identity with a unique name.
func SeedIdentity(t *testing.T, pool *pgxpool.Pool) domain.Identity {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	ident := domain.Identity{
		ID:        uuid.New(),
		Name:      "Identity " + uniqueSuffix(),
		Notes:     "seeded",
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO identities (id, name, notes, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		ident.ID, ident.Name, ident.Notes, ident.CreatedAt, ident.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedIdentity: %v", err)
	}
	return ident
}

// SeedAccount inserts an enabled account for identityID with a unique username.
func SeedAccount(t *testing.T, pool *pgxpool.Pool, identityID uuid.UUID, platform domain.Platform) domain.Account {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	acc := domain.Account{
		ID:         uuid.New(),
		IdentityID: identityID,
		Platform:   platform,
		Username:   "user_" + uniqueSuffix(),
		Enabled:    true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO accounts (id, identity_id, platform, username, enabled, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		acc.ID, acc.IdentityID, string(acc.Platform), acc.Username, acc.Enabled, now,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedAccount: %v", err)
	}
	return acc
}

// SeedEvent appends a follower_change event for acc created at createdAt.
func SeedEvent(t *testing.T, pool *pgxpool.Pool, acc domain.Account, createdAt time.Time) domain.Event {
	t.Helper()

	accountID, identityID := acc.ID, acc.IdentityID
	e := domain.Event{
		ID:         uuid.UUID(ulid.Make()),
		AccountID:  &accountID,
		IdentityID: &identityID,
		Platform:   acc.Platform,
		Username:   acc.Username,
		Type:       domain.EventFollowerChange,
		Summary:    "Followers: 1 -> 2 (+1)",
		Payload:    []byte(`{"old": 1, "new": 2}`),
		CreatedAt:  createdAt.UTC().Truncate(time.Microsecond),
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO events (id, account_id, identity_id, platform, username, event_type, summary, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.AccountID, e.IdentityID, string(e.Platform), e.Username, string(e.Type), e.Summary, []byte(e.Payload), e.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedEvent: %v", err)
	}
	return e
}

// CountEvents returns how many events reference accountID.
func CountEvents(t *testing.T, pool *pgxpool.Pool, accountID uuid.UUID) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(context.Background(),
		`SELECT count(*) FROM events WHERE account_id = $1`, accountID,
	).Scan(&n); err != nil {
		t.Fatalf("testhelper: CountEvents: %v", err)
	}
	return n
}

// CountEventsByUsername returns how many events (orphaned or not) carry username.
func CountEventsByUsername(t *testing.T, pool *pgxpool.Pool, platform domain.Platform, username string) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(context.Background(),
		`SELECT count(*) FROM events WHERE platform = $1 AND username = $2`, string(platform), username,
	).Scan(&n); err != nil {
		t.Fatalf("testhelper: CountEventsByUsername: %v", err)
	}
	return n
}
