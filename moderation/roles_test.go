package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deanogram/yagamerbot2.0/moderation/ledger"
)

func TestRoleHierarchy(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	roles := &Roles{OwnerID: 1, Store: ledger.NewMemStore()}

	// owner has every authority without being stored anywhere
	assert.True(roles.IsOwner(1))
	admin, err := roles.IsAdmin(ctx, 1)
	require.NoError(err)
	assert.True(admin)
	staff, err := roles.IsStaff(ctx, 1)
	require.NoError(err)
	assert.True(staff)
	admins, err := roles.ListAdmins(ctx)
	require.NoError(err)
	assert.Empty(admins)

	require.NoError(roles.Promote(ctx, 1, 2, ledger.RoleAdmin))
	require.NoError(roles.Promote(ctx, 1, 3, ledger.RoleModerator))

	// admins are staff; moderators are staff but not admins
	admin, err = roles.IsAdmin(ctx, 2)
	require.NoError(err)
	assert.True(admin)
	staff, err = roles.IsStaff(ctx, 2)
	require.NoError(err)
	assert.True(staff)
	admin, err = roles.IsAdmin(ctx, 3)
	require.NoError(err)
	assert.False(admin)
	staff, err = roles.IsStaff(ctx, 3)
	require.NoError(err)
	assert.True(staff)

	staff, err = roles.IsStaff(ctx, 99)
	require.NoError(err)
	assert.False(staff)
}

func TestPromoteOwnerOnly(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	roles := &Roles{OwnerID: 1, Store: ledger.NewMemStore()}

	require.NoError(roles.Promote(ctx, 1, 2, ledger.RoleAdmin))

	// even admins cannot change role membership
	assert.ErrorIs(roles.Promote(ctx, 2, 3, ledger.RoleModerator), ErrNotAuthorized)
	assert.ErrorIs(roles.Demote(ctx, 2, 2, ledger.RoleAdmin), ErrNotAuthorized)

	assert.ErrorIs(roles.Promote(ctx, 1, 3, "superuser"), ErrUnknownRole)

	require.NoError(roles.Demote(ctx, 1, 2, ledger.RoleAdmin))
	admin, err := roles.IsAdmin(ctx, 2)
	require.NoError(err)
	assert.False(admin)

	// demoting a role the user does not hold is a no-op
	require.NoError(roles.Demote(ctx, 1, 2, ledger.RoleAdmin))
}

func TestNoOwnerConfigured(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	roles := &Roles{OwnerID: 0, Store: ledger.NewMemStore()}

	assert.False(roles.IsOwner(0))
	assert.ErrorIs(roles.Promote(ctx, 0, 2, ledger.RoleAdmin), ErrNotAuthorized)
}
