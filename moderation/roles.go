package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/deanogram/yagamerbot2.0/moderation/ledger"
)

var (
	ErrNotAuthorized = errors.New("not authorized")
	ErrUnknownRole   = errors.New("unknown role")
)

// Roles implements the three-level authority model: a single configured
// owner (implicit, never stored), a stored admin set, and a stored
// moderator set. Authority is a lattice for permission checks only; the
// stored sets are disjoint.
type Roles struct {
	// configured owner identity; 0 means no owner is configured
	OwnerID int64
	Store   ledger.Store
}

func (r *Roles) IsOwner(userID int64) bool {
	return r.OwnerID != 0 && userID == r.OwnerID
}

func (r *Roles) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	if r.IsOwner(userID) {
		return true, nil
	}
	return r.Store.HasRole(ctx, userID, ledger.RoleAdmin)
}

// IsStaff reports whether the user has at least moderator authority.
func (r *Roles) IsStaff(ctx context.Context, userID int64) (bool, error) {
	admin, err := r.IsAdmin(ctx, userID)
	if err != nil || admin {
		return admin, err
	}
	return r.Store.HasRole(ctx, userID, ledger.RoleModerator)
}

func validRole(role string) error {
	switch role {
	case ledger.RoleAdmin, ledger.RoleModerator:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownRole, role)
}

// Promote grants a role. Only the owner may change role membership.
func (r *Roles) Promote(ctx context.Context, actorID, userID int64, role string) error {
	if !r.IsOwner(actorID) {
		return ErrNotAuthorized
	}
	if err := validRole(role); err != nil {
		return err
	}
	return r.Store.Grant(ctx, userID, role)
}

// Demote revokes a role; revoking a role the user doesn't hold is a no-op.
func (r *Roles) Demote(ctx context.Context, actorID, userID int64, role string) error {
	if !r.IsOwner(actorID) {
		return ErrNotAuthorized
	}
	if err := validRole(role); err != nil {
		return err
	}
	return r.Store.Revoke(ctx, userID, role)
}

func (r *Roles) ListAdmins(ctx context.Context) ([]int64, error) {
	return r.Store.ListRole(ctx, ledger.RoleAdmin)
}

func (r *Roles) ListModerators(ctx context.Context) ([]int64, error) {
	return r.Store.ListRole(ctx, ledger.RoleModerator)
}
