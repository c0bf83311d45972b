package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

// LinkAccount attaches (platform, username) to an identity. The pair may be
// linked only once across the store; a second attempt fails with
// ErrDuplicateAccount and leaves the existing link untouched.
func (s *Service) LinkAccount(ctx context.Context, in LinkAccountInput) (*domain.Account, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	in = in.normalize()

	cfg, err := domain.DecodePlatformConfig(in.Platform, in.Config)
	if err != nil {
		return nil, err
	}

	if _, err := s.identities.GetByID(ctx, in.IdentityID); err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}

	now := s.now()
	created, err := s.accounts.Create(ctx, &domain.Account{
		ID:         uuid.New(),
		IdentityID: in.IdentityID,
		Platform:   in.Platform,
		Username:   in.Username,
		Enabled:    true,
		Config:     cfg,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s/%s: %w", in.Platform, in.Username, domain.ErrDuplicateAccount)
		}
		return nil, fmt.Errorf("link account: %w", err)
	}

	s.log.InfoContext(ctx, "account linked",
		slog.String("account_id", created.ID.String()),
		slog.String("identity_id", in.IdentityID.String()),
		slog.String("platform", string(in.Platform)),
		slog.String("username", in.Username),
	)
	return created, nil
}

// ListAccounts returns the accounts of an identity.
func (s *Service) ListAccounts(ctx context.Context, identityID uuid.UUID) ([]domain.Account, error) {
	if _, err := s.identities.GetByID(ctx, identityID); err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}
	accounts, err := s.accounts.List(ctx, domain.AccountFilter{IdentityID: &identityID})
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// UpdateAccount changes the enabled flag and/or the platform config.
func (s *Service) UpdateAccount(ctx context.Context, in UpdateAccountInput) (*domain.Account, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.Account
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		acc, err := s.accounts.GetByID(ctx, in.ID)
		if err != nil {
			return err
		}

		if in.Enabled != nil {
			acc.Enabled = *in.Enabled
		}
		if in.Config != nil {
			cfg, err := domain.DecodePlatformConfig(acc.Platform, in.Config)
			if err != nil {
				return err
			}
			acc.Config = cfg
		}

		now := s.now()
		if err := s.accounts.UpdateSettings(ctx, acc.ID, acc.Enabled, acc.Config, now); err != nil {
			return err
		}
		acc.UpdatedAt = now
		updated = acc
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	return updated, nil
}

// DeleteAccount unlinks an account. Events follow the retention policy.
// The account row is locked first, so an ingestion already holding it
// commits its events before they are purged.
func (s *Service) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	var purged int64
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.accounts.GetByIDForUpdate(ctx, id); err != nil {
			return err
		}
		if s.retention == domain.RetentionPurge {
			n, err := s.events.DeleteByAccount(ctx, id)
			if err != nil {
				return fmt.Errorf("purge events: %w", err)
			}
			purged = n
		}
		return s.accounts.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	s.log.InfoContext(ctx, "account deleted",
		slog.String("account_id", id.String()),
		slog.String("retention", s.retention.String()),
		slog.Int64("events_purged", purged),
	)
	return nil
}
