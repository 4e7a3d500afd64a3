package session

import (
	"context"
	"fmt"

	"github.com/nfrund/studybuddy/internal/database"
	"github.com/nfrund/studybuddy/internal/domain"
)

// Authenticator decides whether an identifier may hold a session. The core
// never checks credentials itself; deployments that need them plug in their
// own implementation.
type Authenticator interface {
	Authenticate(ctx context.Context, identifier string) (domain.User, error)
}

// LookupAuthenticator accepts any identifier that belongs to a registered user.
type LookupAuthenticator struct {
	store database.Store
}

// NewLookupAuthenticator returns an Authenticator backed by store.
func NewLookupAuthenticator(store database.Store) *LookupAuthenticator {
	return &LookupAuthenticator{store: store}
}

// Authenticate returns the user for identifier, or an error wrapping
// domain.ErrNotFound.
func (a *LookupAuthenticator) Authenticate(ctx context.Context, identifier string) (domain.User, error) {
	user, err := database.View(ctx, a.store, func(gw domain.Gateway) (domain.User, error) {
		return gw.GetUserByEmail(ctx, identifier)
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("authenticate %q: %w", identifier, err)
	}
	return user, nil
}
