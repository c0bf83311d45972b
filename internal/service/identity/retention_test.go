package identity_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/coral-backend/internal/adapter/checker"
	"github.com/heartmarshall/coral-backend/internal/adapter/postgres"
	accountrepo "github.com/heartmarshall/coral-backend/internal/adapter/postgres/account"
	eventrepo "github.com/heartmarshall/coral-backend/internal/adapter/postgres/event"
	identityrepo "github.com/heartmarshall/coral-backend/internal/adapter/postgres/identity"
	"github.com/heartmarshall/coral-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/coral-backend/internal/domain"
	"github.com/heartmarshall/coral-backend/internal/service/identity"
	"github.com/heartmarshall/coral-backend/internal/service/monitor"
)

// holdingTx runs fn in a real transaction and, before committing, reports
// that fn finished and waits to be resumed.
type holdingTx struct {
	inner  *postgres.TxManager
	held   chan struct{}
	resume chan struct{}
}

func (h *holdingTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return h.inner.RunInTx(ctx, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return err
		}
		close(h.held)
		<-h.resume
		return nil
	})
}

func followers(n int) *domain.PlatformState {
	return &domain.PlatformState{Followers: &n}
}

// startHeldIngest sets a baseline for acc, then ingests a follower change
// whose transaction stays open until the returned resume func is called.
func startHeldIngest(t *testing.T, acc domain.Account, accounts *accountrepo.Repo, events *eventrepo.Repo, tx *postgres.TxManager) (resume func(), done <-chan error) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	baseline := monitor.NewService(logger, accounts, events, tx, checker.NewRegistry(), nil, monitor.Config{})
	_, err := baseline.IngestWebhook(ctx, monitor.WebhookInput{Platform: acc.Platform, Username: acc.Username, State: followers(100)})
	require.NoError(t, err)

	held := &holdingTx{inner: tx, held: make(chan struct{}), resume: make(chan struct{})}
	svc := monitor.NewService(logger, accounts, events, held, checker.NewRegistry(), nil, monitor.Config{})

	errc := make(chan error, 1)
	go func() {
		got, err := svc.IngestWebhook(ctx, monitor.WebhookInput{Platform: acc.Platform, Username: acc.Username, State: followers(103)})
		if err == nil && len(got) != 1 {
			t.Errorf("expected one event from the held ingest, got %d", len(got))
		}
		errc <- err
	}()

	select {
	case <-held.held:
	case <-time.After(10 * time.Second):
		t.Fatal("ingest never reached commit")
	}
	return func() { close(held.resume) }, errc
}

func TestDeleteAccount_PurgeWaitsForConcurrentIngest(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	ident := testhelper.SeedIdentity(t, pool)
	acc := testhelper.SeedAccount(t, pool, ident.ID, domain.PlatformInstagram)

	accounts, events, tx := accountrepo.New(pool), eventrepo.New(pool), postgres.NewTxManager(pool)
	resume, ingestDone := startHeldIngest(t, acc, accounts, events, tx)

	svc := identity.NewService(slog.Default(), identityrepo.New(pool), accounts, events, tx, domain.RetentionPurge)
	deleteDone := make(chan error, 1)
	go func() { deleteDone <- svc.DeleteAccount(context.Background(), acc.ID) }()

	// Give the delete time to queue behind the ingest's row lock.
	time.Sleep(100 * time.Millisecond)
	resume()

	require.NoError(t, <-ingestDone)
	require.NoError(t, <-deleteDone)
	assert.Equal(t, 0, testhelper.CountEventsByUsername(t, pool, acc.Platform, acc.Username))
}

func TestDeleteIdentity_PurgeWaitsForConcurrentIngest(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	ident := testhelper.SeedIdentity(t, pool)
	acc := testhelper.SeedAccount(t, pool, ident.ID, domain.PlatformSpotify)

	accounts, events, tx := accountrepo.New(pool), eventrepo.New(pool), postgres.NewTxManager(pool)
	resume, ingestDone := startHeldIngest(t, acc, accounts, events, tx)

	svc := identity.NewService(slog.Default(), identityrepo.New(pool), accounts, events, tx, domain.RetentionPurge)
	deleteDone := make(chan error, 1)
	go func() { deleteDone <- svc.DeleteIdentity(context.Background(), ident.ID) }()

	time.Sleep(100 * time.Millisecond)
	resume()

	require.NoError(t, <-ingestDone)
	require.NoError(t, <-deleteDone)
	assert.Equal(t, 0, testhelper.CountEventsByUsername(t, pool, acc.Platform, acc.Username))
}

func TestDeleteAccount_OrphanKeepsEvents(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	ident := testhelper.SeedIdentity(t, pool)
	acc := testhelper.SeedAccount(t, pool, ident.ID, domain.PlatformPinterest)
	testhelper.SeedEvent(t, pool, acc, time.Now())

	accounts, events, tx := accountrepo.New(pool), eventrepo.New(pool), postgres.NewTxManager(pool)
	svc := identity.NewService(slog.Default(), identityrepo.New(pool), accounts, events, tx, domain.RetentionOrphan)

	require.NoError(t, svc.DeleteAccount(context.Background(), acc.ID))
	assert.Equal(t, 1, testhelper.CountEventsByUsername(t, pool, acc.Platform, acc.Username))
	assert.Equal(t, 0, testhelper.CountEvents(t, pool, acc.ID))
}
