// Package monitor implements the Ingestion Coordinator: it applies webhook
// payloads and checker results to accounts, classifies changes into events,
// persists them atomically with the account row and hands them to the
// notification channels.
//
// All ingestion for one account is serialized; different accounts proceed in
// parallel.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

type accountRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByPlatformUsername(ctx context.Context, platform domain.Platform, username string) (*domain.Account, error)
	List(ctx context.Context, f domain.AccountFilter) ([]domain.Account, error)
	UpdateCheckState(ctx context.Context, acc *domain.Account, now time.Time) error
}

type eventRepo interface {
	InsertBatch(ctx context.Context, events []domain.Event) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type checker interface {
	Check(ctx context.Context, acc domain.Account) (*domain.PlatformState, error)
	ClassifyFailure(platform domain.Platform, err error) (domain.EventType, bool)
}

type notifier interface {
	Notify(ctx context.Context, e domain.Event) map[string]bool
}

// Config tunes checking.
type Config struct {
	CheckTimeout time.Duration
	Workers      int
}

// Service coordinates ingestion.
type Service struct {
	accounts accountRepo
	events   eventRepo
	tx       txManager
	checker  checker
	notifier notifier
	cfg      Config

	locks  *keyedMutex
	checks singleflight.Group

	// bg outlives requests: detached checks and notifications run on it.
	bg       context.Context
	cancelBg context.CancelFunc
	wg       sync.WaitGroup

	now func() time.Time
	log *slog.Logger
}

// NewService creates a new Monitor service. notifier may be nil.
func NewService(
	log *slog.Logger,
	accounts accountRepo,
	events eventRepo,
	tx txManager,
	checker checker,
	notifier notifier,
	cfg Config,
) *Service {
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = 60 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	bg, cancel := context.WithCancel(context.Background())
	return &Service{
		accounts: accounts,
		events:   events,
		tx:       tx,
		checker:  checker,
		notifier: notifier,
		cfg:      cfg,
		locks:    newKeyedMutex(),
		bg:       bg,
		cancelBg: cancel,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log.With("service", "monitor"),
	}
}

// Shutdown cancels detached work and waits for it to finish or for ctx to end.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancelBg()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// detach runs fn on the service lifetime context.
func (s *Service) detach(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.bg)
	}()
}
