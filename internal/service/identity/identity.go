package identity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

// CreateIdentity creates a new identity. Names are unique case-insensitively.
func (s *Service) CreateIdentity(ctx context.Context, in CreateIdentityInput) (*domain.Identity, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	in = in.normalize()

	now := s.now()
	created, err := s.identities.Create(ctx, &domain.Identity{
		ID:        uuid.New(),
		Name:      in.Name,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("create identity %q: %w", in.Name, err)
	}

	s.log.InfoContext(ctx, "identity created",
		slog.String("identity_id", created.ID.String()),
		slog.String("name", created.Name),
	)
	return created, nil
}

// GetIdentity returns an identity by id.
func (s *Service) GetIdentity(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	ident, err := s.identities.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}
	return ident, nil
}

// UpdateIdentity changes the name and/or notes of an identity.
func (s *Service) UpdateIdentity(ctx context.Context, in UpdateIdentityInput) (*domain.Identity, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	in = in.normalize()

	current, err := s.identities.GetByID(ctx, in.ID)
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}

	name, notes := current.Name, current.Notes
	if in.Name != nil {
		name = *in.Name
	}
	if in.Notes != nil {
		notes = *in.Notes
	}

	updated, err := s.identities.Update(ctx, in.ID, name, notes, s.now())
	if err != nil {
		return nil, fmt.Errorf("update identity %q: %w", name, err)
	}
	return updated, nil
}

// DeleteIdentity removes an identity together with all of its accounts.
// Under the purge retention policy their events are deleted as well;
// otherwise they stay in the feed with their references cleared. The
// account rows are locked before events are touched.
func (s *Service) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	var purged int64
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.accounts.LockByIdentity(ctx, id); err != nil {
			return fmt.Errorf("lock accounts: %w", err)
		}
		if s.retention == domain.RetentionPurge {
			n, err := s.events.DeleteByIdentity(ctx, id)
			if err != nil {
				return fmt.Errorf("purge events: %w", err)
			}
			purged = n
		}
		return s.identities.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}

	s.log.InfoContext(ctx, "identity deleted",
		slog.String("identity_id", id.String()),
		slog.String("retention", s.retention.String()),
		slog.Int64("events_purged", purged),
	)
	return nil
}
