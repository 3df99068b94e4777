package services

import (
	"context"

	"github.com/magdyelboushy-stack/platform/domain"
)

// IdentityResolverImpl implements domain.IdentityResolver. Both
// credential paths land on the same session and user records; neither
// trusts its input beyond what those records confirm.
type IdentityResolverImpl struct {
	tokenSvc    domain.TokenService
	sessionRepo domain.SessionRepository
	userRepo    domain.UserRepository
}

// NewIdentityResolver creates a new identity resolver
func NewIdentityResolver(tokenSvc domain.TokenService, sessionRepo domain.SessionRepository, userRepo domain.UserRepository) domain.IdentityResolver {
	return &IdentityResolverImpl{
		tokenSvc:    tokenSvc,
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
	}
}

// ResolveBearer implements domain.IdentityResolver. The token must be
// valid and its session must still exist and belong to the same user.
func (r *IdentityResolverImpl) ResolveBearer(ctx context.Context, token string) (*domain.Identity, error) {
	claims, err := r.tokenSvc.ValidateAccessToken(token)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	if claims.SessionID == "" {
		return nil, domain.ErrUnauthorized
	}

	session, err := r.sessionRepo.FindByID(ctx, claims.SessionID)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	if session.UserID != claims.UserID {
		return nil, domain.ErrUnauthorized
	}

	return &domain.Identity{
		UserID:    claims.UserID,
		Role:      claims.Role,
		SessionID: claims.SessionID,
	}, nil
}

// ResolveSession implements domain.IdentityResolver. Access through a
// session cookie refreshes the sliding expiry.
func (r *IdentityResolverImpl) ResolveSession(ctx context.Context, sessionID string) (*domain.Identity, error) {
	if sessionID == "" {
		return nil, domain.ErrUnauthorized
	}

	session, err := r.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	user, err := r.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	// Sliding refresh; failure to extend is not fatal for this request.
	_ = r.sessionRepo.Touch(ctx, sessionID)

	return &domain.Identity{
		UserID:    user.ID,
		Role:      user.Role,
		SessionID: session.ID,
	}, nil
}
