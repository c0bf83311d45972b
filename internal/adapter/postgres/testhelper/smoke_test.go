package testhelper

import (
	"context"
	"testing"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

func TestSetupTestDB_Smoke(t *testing.T) {
	pool := SetupTestDB(t)

	ident := SeedIdentity(t, pool)
	acc := SeedAccount(t, pool, ident.ID, domain.PlatformSpotify)

	var username string
	err := pool.QueryRow(
		context.Background(),
		`SELECT username FROM accounts WHERE id = $1`,
		acc.ID,
	).Scan(&username)
	if err != nil {
		t.Fatalf("expected account in DB, got error: %v", err)
	}

	if username != acc.Username {
		t.Fatalf("expected username %q, got %q", acc.Username, username)
	}
}
