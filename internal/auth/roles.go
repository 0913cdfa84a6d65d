package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"adminBackend/models"
)

var (
	// ErrUnauthenticated is returned when no principal is present.
	ErrUnauthenticated = errors.New("missing principal")
	// ErrForbidden is returned when the principal lacks the required role.
	ErrForbidden = errors.New("permission denied")
)

// UserLookup is the subset of the user repository needed for role checks.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// RequirePrincipal ensures a principal is present in context.
func RequirePrincipal(ctx context.Context) (*Principal, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return p, nil
}

// RequireKind ensures the principal has one of the given kinds (lowercased compare).
func RequireKind(ctx context.Context, kinds ...string) (*Principal, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	for _, k := range kinds {
		if p.Kind == strings.ToLower(k) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: only %s can perform this action", ErrForbidden, strings.Join(kinds, " or "))
}

// RequireAdmin ensures the caller is an admin principal AND that the underlying
// user exists with role 'admin'. This prevents spoofing by a non-admin.
func RequireAdmin(ctx context.Context, users UserLookup) (*Principal, error) {
	p, err := RequireKind(ctx, KindAdmin)
	if err != nil {
		return nil, err
	}
	if err := checkRole(ctx, users, p, models.RoleAdmin); err != nil {
		return nil, err
	}
	return p, nil
}

// RequireStaff accepts admins and support agents whose DB role matches their token.
func RequireStaff(ctx context.Context, users UserLookup) (*Principal, error) {
	p, err := RequireKind(ctx, KindAdmin, KindSupport)
	if err != nil {
		return nil, err
	}
	if err := checkRole(ctx, users, p, models.RoleAdmin, models.RoleSupport); err != nil {
		return nil, err
	}
	return p, nil
}

// RequireServiceOrAdmin lets scheduled callers (service tokens) and admins through.
func RequireServiceOrAdmin(ctx context.Context, users UserLookup) (*Principal, error) {
	p, err := RequireKind(ctx, KindService, KindAdmin)
	if err != nil {
		return nil, err
	}
	if p.Kind == KindService {
		return p, nil
	}
	return RequireAdmin(ctx, users)
}

func checkRole(ctx context.Context, users UserLookup, p *Principal, roles ...string) error {
	if users == nil {
		return errors.New("users repository not configured")
	}
	u, err := users.GetByUsername(ctx, p.Name)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return fmt.Errorf("%w: unknown user %s", ErrForbidden, p.Name)
	}
	role := strings.ToLower(strings.TrimSpace(u.Role))
	for _, r := range roles {
		if role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: role %s not allowed", ErrForbidden, role)
}
