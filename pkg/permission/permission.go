package permission

import "strings"

// Bit is a single capability class. Each value occupies a distinct bit in a
// Mask so that caller roles and command policies compose with plain bitwise
// arithmetic.
type Bit uint32

// Mask is a combination of permission bits.
type Mask = Bit

const (
	Owner Bit = 1 << iota
	Sudo
	Support
	GroupOwner
	GroupAdminAddAdmins
	GroupAdminChangeInfo
	GroupAdminBanUsers
	GroupAdminDeleteMessages
	GroupAdminPinMessages
	GroupAdminInviteUsers
	GroupMember
	PM
	// Everyone is reserved for inline/anonymous contexts. It is never
	// implied by any other bit.
	Everyone
)

// GroupAdmin is any of the specific group-admin rights.
const GroupAdmin = GroupAdminAddAdmins |
	GroupAdminChangeInfo |
	GroupAdminBanUsers |
	GroupAdminDeleteMessages |
	GroupAdminPinMessages |
	GroupAdminInviteUsers

// DefaultPermissions is the policy applied to a command with no explicit
// override. Everyone is excluded so inline contexts stay opt-in.
const DefaultPermissions = Sudo | Support | GroupOwner | GroupAdmin | GroupMember | PM

var bitNames = map[Bit]string{
	Owner:                    "owner",
	Sudo:                     "sudo",
	Support:                  "support",
	GroupOwner:               "group_owner",
	GroupAdminAddAdmins:      "group_admin_add_admins",
	GroupAdminChangeInfo:     "group_admin_change_info",
	GroupAdminBanUsers:       "group_admin_ban_users",
	GroupAdminDeleteMessages: "group_admin_delete_messages",
	GroupAdminPinMessages:    "group_admin_pin_messages",
	GroupAdminInviteUsers:    "group_admin_invite_users",
	GroupAdmin:               "group_admin",
	GroupMember:              "group_member",
	PM:                       "pm",
	Everyone:                 "everyone",
}

var namedBits = func() map[string]Bit {
	m := make(map[string]Bit, len(bitNames))
	for bit, name := range bitNames {
		m[name] = bit
	}
	return m
}()

// String returns the canonical name of a single bit, or "unknown" for values
// that are not in the enumeration.
func (b Bit) String() string {
	if name, ok := bitNames[b]; ok {
		return name
	}
	return "unknown"
}

// FromName resolves a canonical bit name (case-insensitive) back to its bit.
func FromName(name string) (Bit, bool) {
	bit, ok := namedBits[strings.ToLower(name)]
	return bit, ok
}

// Combine returns the union of the given masks.
func Combine(masks ...Mask) Mask {
	var out Mask
	for _, m := range masks {
		out |= m
	}
	return out
}

// Restrict clamps mask to ceiling. A bit absent from the ceiling is
// unreachable regardless of mask.
func Restrict(mask, ceiling Mask) Mask {
	return mask & ceiling
}

// Intersects reports whether the two masks share at least one bit.
func Intersects(a, b Mask) bool {
	return a&b != 0
}

// Set returns mask with exactly one bit set or cleared; all other bits are
// unchanged.
func Set(mask Mask, bit Bit, enabled bool) Mask {
	if enabled {
		return mask | bit
	}
	return mask &^ bit
}
