// Package role resolves the caller's role from its profile. The result picks
// the query scope every other service uses, so there is no default role.
package role

import (
	"context"
	"errors"
	"fmt"

	"hirecircle/internal/domain"
	"hirecircle/internal/gateway"
)

type Resolver interface {
	Resolve(ctx context.Context, session *domain.Session) (domain.Role, error)
	Profile(ctx context.Context, session *domain.Session) (*domain.Profile, error)
	Require(ctx context.Context, session *domain.Session, role domain.Role) (*domain.Profile, error)
}

type resolver struct {
	gw gateway.Gateway
}

func NewResolver(gw gateway.Gateway) Resolver {
	return &resolver{gw: gw}
}

func (r *resolver) Resolve(ctx context.Context, session *domain.Session) (domain.Role, error) {
	profile, err := r.Profile(ctx, session)
	if err != nil {
		return "", err
	}
	return profile.UserType, nil
}

func (r *resolver) Profile(ctx context.Context, session *domain.Session) (*domain.Profile, error) {
	if session == nil || session.UserID == "" {
		return nil, domain.NewError(domain.ErrUnauthenticated, "no session", nil)
	}

	var profile domain.Profile
	err := r.gw.Query(ctx, gateway.Query{
		Collection: gateway.Profiles,
		Filters:    []gateway.Filter{gateway.Eq("id", session.UserID)},
	}, &profile)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewError(domain.ErrProfileMissing, "no profile for user "+session.UserID, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve role: %w", err)
	}

	return &profile, nil
}

func (r *resolver) Require(ctx context.Context, session *domain.Session, role domain.Role) (*domain.Profile, error) {
	profile, err := r.Profile(ctx, session)
	if err != nil {
		return nil, err
	}
	if profile.UserType != role {
		return nil, domain.Forbidden(fmt.Sprintf("this action requires the %s role", role))
	}
	return profile, nil
}
