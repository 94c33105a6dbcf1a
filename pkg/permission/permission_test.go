package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitsAreDistinct(t *testing.T) {
	bits := []Bit{
		Owner, Sudo, Support, GroupOwner,
		GroupAdminAddAdmins, GroupAdminChangeInfo, GroupAdminBanUsers,
		GroupAdminDeleteMessages, GroupAdminPinMessages, GroupAdminInviteUsers,
		GroupMember, PM, Everyone,
	}
	seen := make(map[Bit]bool)
	for _, b := range bits {
		assert.NotZero(t, b)
		assert.Zero(t, b&(b-1), "bit %s is not a power of two", b)
		assert.False(t, seen[b], "bit %s duplicated", b)
		seen[b] = true
	}
}

func TestGroupAdminIsUnionOfAdminBits(t *testing.T) {
	admin := GroupAdminAddAdmins | GroupAdminChangeInfo | GroupAdminBanUsers |
		GroupAdminDeleteMessages | GroupAdminPinMessages | GroupAdminInviteUsers
	assert.Equal(t, admin, GroupAdmin)
}

func TestDefaultPermissionsExcludesEveryone(t *testing.T) {
	assert.False(t, Intersects(DefaultPermissions, Everyone))
	assert.False(t, Intersects(DefaultPermissions, Owner))
	assert.True(t, Intersects(DefaultPermissions, Sudo))
	assert.True(t, Intersects(DefaultPermissions, PM))
}

func TestCombine(t *testing.T) {
	assert.Equal(t, Mask(0), Combine())
	assert.Equal(t, Sudo|PM, Combine(Sudo, PM))
	assert.Equal(t, Sudo|PM, Combine(Sudo, PM, Sudo))
}

func TestRestrict(t *testing.T) {
	assert.Equal(t, Sudo, Restrict(Sudo|PM, Sudo|Support))
	assert.Equal(t, Mask(0), Restrict(Owner, DefaultPermissions))
}

func TestSet(t *testing.T) {
	m := DefaultPermissions

	m = Set(m, Everyone, true)
	assert.True(t, Intersects(m, Everyone))

	// Setting an already-set bit is a no-op.
	assert.Equal(t, m, Set(m, Everyone, true))

	m = Set(m, Everyone, false)
	assert.Equal(t, DefaultPermissions, m)
	assert.Equal(t, m, Set(m, Everyone, false))
}

func TestBitNameRoundTrip(t *testing.T) {
	for _, b := range []Bit{Owner, Sudo, Support, GroupOwner, GroupAdmin, GroupMember, PM, Everyone} {
		got, ok := FromName(b.String())
		assert.True(t, ok, "name %q did not resolve", b.String())
		assert.Equal(t, b, got)
	}

	_, ok := FromName("no_such_bit")
	assert.False(t, ok)

	got, ok := FromName("GROUP_ADMIN")
	assert.True(t, ok)
	assert.Equal(t, GroupAdmin, got)
}
