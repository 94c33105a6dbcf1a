package security

import "github.com/tgsentry/tgsentry/pkg/permission"

// CallerContext is the identity resolver's description of who is acting and
// where. The evaluator consumes it as-is; how the flags were derived from
// the chat is the resolver's business.
type CallerContext struct {
	UserID    int64 `json:"user_id"`
	ChatID    int64 `json:"chat_id"`
	IsPrivate bool  `json:"is_private"`

	// Role of the caller in the current chat.
	IsGroupOwner      bool `json:"is_group_owner"`
	CanAddAdmins      bool `json:"can_add_admins"`
	CanChangeInfo     bool `json:"can_change_info"`
	CanBanUsers       bool `json:"can_ban_users"`
	CanDeleteMessages bool `json:"can_delete_messages"`
	CanPinMessages    bool `json:"can_pin_messages"`
	CanInviteUsers    bool `json:"can_invite_users"`
}

// chatBits derives the bits the caller holds by virtue of the current chat
// alone, before any membership-list bits.
func (c CallerContext) chatBits() permission.Mask {
	if c.IsPrivate {
		return permission.PM
	}

	bits := permission.Mask(permission.GroupMember)
	if c.IsGroupOwner {
		bits |= permission.GroupOwner
	}
	if c.CanAddAdmins {
		bits |= permission.GroupAdminAddAdmins
	}
	if c.CanChangeInfo {
		bits |= permission.GroupAdminChangeInfo
	}
	if c.CanBanUsers {
		bits |= permission.GroupAdminBanUsers
	}
	if c.CanDeleteMessages {
		bits |= permission.GroupAdminDeleteMessages
	}
	if c.CanPinMessages {
		bits |= permission.GroupAdminPinMessages
	}
	if c.CanInviteUsers {
		bits |= permission.GroupAdminInviteUsers
	}
	return bits
}
