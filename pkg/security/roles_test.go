package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgsentry/tgsentry/pkg/permission"
)

func newTestRoles(t *testing.T) *RoleResolver {
	t.Helper()
	roles, err := NewRoleResolver(context.Background(), newTestStore(t), testBotID)
	require.NoError(t, err)
	return roles
}

func TestRoleMembership(t *testing.T) {
	ctx := context.Background()
	roles := newTestRoles(t)

	require.NoError(t, roles.Add(ctx, GroupSudo, 100))
	require.NoError(t, roles.Add(ctx, GroupSudo, 100)) // idempotent
	require.NoError(t, roles.Add(ctx, GroupSupport, 200))

	assert.Equal(t, []int64{100}, roles.Members(GroupSudo))
	assert.Equal(t, []int64{200}, roles.Members(GroupSupport))

	require.NoError(t, roles.Remove(ctx, GroupSudo, 100))
	assert.Empty(t, roles.Members(GroupSudo))
	require.NoError(t, roles.Remove(ctx, GroupSudo, 100)) // already gone
}

func TestBotIsImplicitOwner(t *testing.T) {
	ctx := context.Background()
	roles := newTestRoles(t)

	assert.True(t, roles.IsOwner(testBotID))
	assert.Equal(t, []int64{testBotID}, roles.Members(GroupOwners))

	require.NoError(t, roles.Add(ctx, GroupOwners, 500))
	assert.Equal(t, []int64{testBotID, 500}, roles.Members(GroupOwners))
	assert.True(t, roles.IsOwner(500))

	// Adding the bot to owner is a harmless no-op; anywhere else is an error.
	assert.NoError(t, roles.Add(ctx, GroupOwners, testBotID))
	assert.ErrorIs(t, roles.Add(ctx, GroupSudo, testBotID), ErrTargetIsOwner)
	assert.ErrorIs(t, roles.Remove(ctx, GroupOwners, testBotID), ErrTargetIsOwner)
}

func TestMembershipPersistsAcrossReload(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	roles, err := NewRoleResolver(ctx, store, testBotID)
	require.NoError(t, err)
	require.NoError(t, roles.Add(ctx, GroupSudo, 100))

	reloaded, err := NewRoleResolver(ctx, store, testBotID)
	require.NoError(t, err)
	assert.Equal(t, []int64{100}, reloaded.Members(GroupSudo))
}

func TestRoleBits(t *testing.T) {
	ctx := context.Background()
	roles := newTestRoles(t)
	require.NoError(t, roles.Add(ctx, GroupSudo, 100))

	tests := []struct {
		name     string
		caller   CallerContext
		isInline bool
		want     permission.Mask
	}{
		{
			name:   "private chat",
			caller: CallerContext{UserID: 1, IsPrivate: true},
			want:   permission.PM,
		},
		{
			name:   "plain group member",
			caller: CallerContext{UserID: 1},
			want:   permission.GroupMember,
		},
		{
			name:   "group owner",
			caller: CallerContext{UserID: 1, IsGroupOwner: true},
			want:   permission.GroupMember | permission.GroupOwner,
		},
		{
			name:   "admin rights map to specific bits",
			caller: CallerContext{UserID: 1, CanBanUsers: true, CanPinMessages: true},
			want:   permission.GroupMember | permission.GroupAdminBanUsers | permission.GroupAdminPinMessages,
		},
		{
			name:   "sudo listing adds sudo",
			caller: CallerContext{UserID: 100, IsPrivate: true},
			want:   permission.PM | permission.Sudo,
		},
		{
			name:   "bot account is owner",
			caller: CallerContext{UserID: testBotID, IsPrivate: true},
			want:   permission.PM | permission.Owner,
		},
		{
			name:     "inline adds everyone",
			caller:   CallerContext{UserID: 1},
			isInline: true,
			want:     permission.GroupMember | permission.Everyone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, roles.RoleBits(tt.caller, tt.isInline))
		})
	}
}
