package security

import (
	"context"
	"errors"
	"sync"

	"github.com/tgsentry/tgsentry/pkg/permission"
	"github.com/tgsentry/tgsentry/pkg/storage"
)

// Group is one of the fixed membership lists that feed role bits.
type Group string

const (
	GroupOwners  Group = "owner"
	GroupSudo    Group = "sudo"
	GroupSupport Group = "support"
)

func (g Group) valid() bool {
	return g == GroupOwners || g == GroupSudo || g == GroupSupport
}

func (g Group) bit() permission.Bit {
	switch g {
	case GroupOwners:
		return permission.Owner
	case GroupSudo:
		return permission.Sudo
	default:
		return permission.Support
	}
}

// RoleResolver owns the persisted owner/sudo/support membership lists and
// turns a CallerContext into the caller's role bits. The bot's own account
// id is always an owner, whether or not it appears in the stored list.
type RoleResolver struct {
	store storage.Store
	botID int64

	mu      sync.RWMutex
	members map[Group][]int64
}

// NewRoleResolver loads the membership lists from the store. Absent keys
// mean empty lists.
func NewRoleResolver(ctx context.Context, store storage.Store, botID int64) (*RoleResolver, error) {
	r := &RoleResolver{
		store:   store,
		botID:   botID,
		members: make(map[Group][]int64, 3),
	}

	for _, group := range []Group{GroupOwners, GroupSudo, GroupSupport} {
		var ids []int64
		err := store.Get(ctx, string(group), &ids)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, storeErr(err)
		}
		r.members[group] = ids
	}

	return r, nil
}

// BotID returns the bot's own account id.
func (r *RoleResolver) BotID() int64 {
	return r.botID
}

// Add appends id to the group and persists the list. Adding the bot id to
// owner is a no-op (it is an implicit member); putting it in any other group
// is rejected, the owner account's rights are not managed through lists.
func (r *RoleResolver) Add(ctx context.Context, group Group, id int64) error {
	if !group.valid() {
		return ErrInvalidTarget
	}
	if id == r.botID {
		if group == GroupOwners {
			return nil
		}
		return ErrTargetIsOwner
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.members[group]
	for _, existing := range current {
		if existing == id {
			return nil
		}
	}

	next := make([]int64, len(current), len(current)+1)
	copy(next, current)
	next = append(next, id)

	if err := r.store.Set(ctx, string(group), next); err != nil {
		return storeErr(err)
	}
	r.members[group] = next
	return nil
}

// Remove drops id from the group and persists the list. The bot's own id
// cannot be demoted out of owner.
func (r *RoleResolver) Remove(ctx context.Context, group Group, id int64) error {
	if !group.valid() {
		return ErrInvalidTarget
	}
	if id == r.botID && group == GroupOwners {
		return ErrTargetIsOwner
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.members[group]
	next := make([]int64, 0, len(current))
	for _, existing := range current {
		if existing != id {
			next = append(next, existing)
		}
	}
	if len(next) == len(current) {
		return nil
	}

	if err := r.store.Set(ctx, string(group), next); err != nil {
		return storeErr(err)
	}
	r.members[group] = next
	return nil
}

// Members lists the group. For owner the bot's own id comes first, mirroring
// its implicit membership.
func (r *RoleResolver) Members(group Group) []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []int64
	if group == GroupOwners {
		out = append(out, r.botID)
	}
	for _, id := range r.members[group] {
		if id != r.botID {
			out = append(out, id)
		}
	}
	return out
}

// IsOwner reports whether id is the bot itself or a listed owner.
func (r *RoleResolver) IsOwner(id int64) bool {
	return r.inGroup(GroupOwners, id) || id == r.botID
}

func (r *RoleResolver) inGroup(group Group, id int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, existing := range r.members[group] {
		if existing == id {
			return true
		}
	}
	return false
}

// RoleBits computes the full set of permission bits applicable to the
// caller: membership-list bits, chat-role bits, and Everyone for inline
// contexts.
func (r *RoleResolver) RoleBits(caller CallerContext, isInline bool) permission.Mask {
	bits := caller.chatBits()

	if r.IsOwner(caller.UserID) {
		bits |= permission.Owner
	}
	if r.inGroup(GroupSudo, caller.UserID) {
		bits |= permission.Sudo
	}
	if r.inGroup(GroupSupport, caller.UserID) {
		bits |= permission.Support
	}

	if isInline {
		bits |= permission.Everyone
	}

	return bits
}
