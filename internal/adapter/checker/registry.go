// Package checker holds the Platform Checker registry and its implementations.
// A checker fetches an account's current observable state; scraping itself is
// delegated to a bridge service that speaks a small JSON protocol.
package checker

import (
	"context"
	"fmt"
	"sync"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

// Checker fetches the current state of one account.
type Checker interface {
	Check(ctx context.Context, acc domain.Account) (*domain.PlatformState, error)
}

// Registry maps platforms to checkers and failure classifiers.
type Registry struct {
	mu          sync.RWMutex
	checkers    map[domain.Platform]Checker
	classifiers map[domain.Platform]FailureClassifier
}

// NewRegistry creates a Registry preloaded with the default failure
// classifiers for every known platform.
func NewRegistry() *Registry {
	r := &Registry{
		checkers:    make(map[domain.Platform]Checker),
		classifiers: make(map[domain.Platform]FailureClassifier),
	}
	for p, c := range DefaultClassifiers() {
		r.classifiers[p] = c
	}
	return r
}

// Register sets the checker for platform, replacing any previous one.
func (r *Registry) Register(platform domain.Platform, c Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[platform] = c
}

// RegisterClassifier sets the failure classifier for platform.
func (r *Registry) RegisterClassifier(platform domain.Platform, c FailureClassifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classifiers[platform] = c
}

// Check runs the checker registered for acc.Platform.
func (r *Registry) Check(ctx context.Context, acc domain.Account) (*domain.PlatformState, error) {
	r.mu.RLock()
	c, ok := r.checkers[acc.Platform]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", acc.Platform, domain.ErrNoChecker)
	}
	return c.Check(ctx, acc)
}

// ClassifyFailure decides whether a checker error deserves a synthetic alert
// event and which type it should carry.
func (r *Registry) ClassifyFailure(platform domain.Platform, err error) (domain.EventType, bool) {
	r.mu.RLock()
	c, ok := r.classifiers[platform]
	r.mu.RUnlock()
	if !ok {
		c = AuthFailureClassifier(domain.EventAuthFailed)
	}
	return c(err)
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context, acc domain.Account) (*domain.PlatformState, error)

func (f CheckerFunc) Check(ctx context.Context, acc domain.Account) (*domain.PlatformState, error) {
	return f(ctx, acc)
}
