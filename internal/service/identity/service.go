// Package identity implements identity management and account linking.
// It owns the Domain Store invariants that span repositories: account
// uniqueness surfaced as ErrDuplicateAccount and event retention on delete.
package identity

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

type identityRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error)
	Create(ctx context.Context, ident *domain.Identity) (*domain.Identity, error)
	Update(ctx context.Context, id uuid.UUID, name, notes string, now time.Time) (*domain.Identity, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type accountRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	LockByIdentity(ctx context.Context, identityID uuid.UUID) (int, error)
	List(ctx context.Context, f domain.AccountFilter) ([]domain.Account, error)
	Create(ctx context.Context, acc *domain.Account) (*domain.Account, error)
	UpdateSettings(ctx context.Context, id uuid.UUID, enabled bool, cfg domain.PlatformConfig, now time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type eventRepo interface {
	DeleteByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
	DeleteByIdentity(ctx context.Context, identityID uuid.UUID) (int64, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service provides identity and account operations.
type Service struct {
	identities identityRepo
	accounts   accountRepo
	events     eventRepo
	tx         txManager
	retention  domain.RetentionPolicy
	now        func() time.Time
	log        *slog.Logger
}

// NewService creates a new Identity service. retention decides whether
// events are purged or orphaned when their account goes away.
func NewService(
	log *slog.Logger,
	identities identityRepo,
	accounts accountRepo,
	events eventRepo,
	tx txManager,
	retention domain.RetentionPolicy,
) *Service {
	if !retention.IsValid() {
		retention = domain.RetentionOrphan
	}
	return &Service{
		identities: identities,
		accounts:   accounts,
		events:     events,
		tx:         tx,
		retention:  retention,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log.With("service", "identity"),
	}
}
