package security

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tgsentry/tgsentry/pkg/storage"
)

const (
	keyChatRules = "tsec_chat"
	keyUserRules = "tsec_user"
)

// TargetType scopes a targeted rule to a user or a chat.
type TargetType string

const (
	TargetUser TargetType = "user"
	TargetChat TargetType = "chat"
)

func (t TargetType) valid() bool {
	return t == TargetUser || t == TargetChat
}

// TargetedRule is an explicit, optionally time-limited grant of one rule to
// one user or chat, independent of the bitmask system.
type TargetedRule struct {
	TargetType TargetType `json:"target_type"`
	TargetID   int64      `json:"target_id"`
	Rule       string     `json:"rule"`
	GrantedAt  time.Time  `json:"granted_at"`
	// ExpiresAt nil means the grant is permanent.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// Display metadata cached at grant time; not load-bearing for
	// authorization.
	EntityName string `json:"entity_name,omitempty"`
	EntityURL  string `json:"entity_url,omitempty"`
}

// Expired reports whether the rule is logically absent at now.
func (r TargetedRule) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && !r.ExpiresAt.After(now)
}

// EntityMeta is the optional display metadata attached to a grant.
type EntityMeta struct {
	Name string
	URL  string
}

// TargetedRuleStore owns the two persisted targeted-rule sequences. Expired
// entries are evicted lazily whenever a read encounters them; no sweep is
// required for correctness, though the daemon runs one to keep the persisted
// lists short.
type TargetedRuleStore struct {
	store storage.Store
	roles *RoleResolver

	mu        sync.Mutex
	chatRules []TargetedRule
	userRules []TargetedRule

	now func() time.Time
}

// NewTargetedRuleStore loads persisted rules from the store.
func NewTargetedRuleStore(ctx context.Context, store storage.Store, roles *RoleResolver) (*TargetedRuleStore, error) {
	s := &TargetedRuleStore{
		store: store,
		roles: roles,
		now:   time.Now,
	}

	for key, dest := range map[string]*[]TargetedRule{
		keyChatRules: &s.chatRules,
		keyUserRules: &s.userRules,
	} {
		err := store.Get(ctx, key, dest)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, storeErr(err)
		}
	}

	return s, nil
}

// AddRule grants rule to the target. ttlSeconds <= 0 stores a permanent
// grant. A duplicate (type, id, rule) grant overwrites the existing entry in
// place rather than accumulating. Owner accounts can never be targets.
func (s *TargetedRuleStore) AddRule(ctx context.Context, targetType TargetType, targetID int64, rule string, ttlSeconds int64, meta EntityMeta) error {
	if !targetType.valid() {
		return ErrInvalidTarget
	}
	if targetType == TargetUser && s.roles != nil && s.roles.IsOwner(targetID) {
		return ErrTargetIsOwner
	}

	now := s.now()
	entry := TargetedRule{
		TargetType: targetType,
		TargetID:   targetID,
		Rule:       rule,
		GrantedAt:  now,
		EntityName: meta.Name,
		EntityURL:  meta.URL,
	}
	if ttlSeconds > 0 {
		expires := now.Add(time.Duration(ttlSeconds) * time.Second)
		entry.ExpiresAt = &expires
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.list(targetType)
	next := make([]TargetedRule, len(current))
	copy(next, current)

	replaced := false
	for i, existing := range next {
		if existing.TargetID == targetID && existing.Rule == rule {
			next[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		next = append(next, entry)
	}

	if err := s.persist(ctx, targetType, next); err != nil {
		return err
	}
	s.setList(targetType, next)
	return nil
}

// HasGrant reports whether a non-expired grant of rule exists for the
// target at now. Expired entries found along the way are evicted.
func (s *TargetedRuleStore) HasGrant(ctx context.Context, targetType TargetType, targetID int64, rule string, now time.Time) bool {
	if !targetType.valid() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpired(ctx, targetType, now)

	for _, entry := range s.list(targetType) {
		if entry.TargetID == targetID && entry.Rule == rule {
			return true
		}
	}
	return false
}

// RemoveRules revokes every grant for the target, regardless of rule, and
// returns how many were removed. Zero means the target had no rules.
func (s *TargetedRuleStore) RemoveRules(ctx context.Context, targetType TargetType, targetID int64) (int, error) {
	if !targetType.valid() {
		return 0, ErrInvalidTarget
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.list(targetType)
	next := make([]TargetedRule, 0, len(current))
	for _, entry := range current {
		if entry.TargetID != targetID {
			next = append(next, entry)
		}
	}

	removed := len(current) - len(next)
	if removed == 0 {
		return 0, nil
	}

	if err := s.persist(ctx, targetType, next); err != nil {
		return 0, err
	}
	s.setList(targetType, next)
	return removed, nil
}

// ListActive returns the non-expired chat and user rules in insertion
// order, evicting any expired entries it finds.
func (s *TargetedRuleStore) ListActive(ctx context.Context, now time.Time) (chatRules, userRules []TargetedRule) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpired(ctx, TargetChat, now)
	s.evictExpired(ctx, TargetUser, now)

	chatRules = append(chatRules, s.chatRules...)
	userRules = append(userRules, s.userRules...)
	return chatRules, userRules
}

// Sweep proactively evicts expired entries from both sequences and returns
// how many were dropped. Optional hardening on top of lazy eviction.
func (s *TargetedRuleStore) Sweep(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.chatRules) + len(s.userRules)
	s.evictExpired(ctx, TargetChat, now)
	s.evictExpired(ctx, TargetUser, now)
	return before - len(s.chatRules) - len(s.userRules)
}

// evictExpired drops expired entries from one sequence and persists the
// pruned list. A failed persist keeps the pruned list in memory: expired
// entries are logically absent either way, the durable copy just catches up
// on the next successful write. Caller holds s.mu.
func (s *TargetedRuleStore) evictExpired(ctx context.Context, targetType TargetType, now time.Time) {
	current := s.list(targetType)
	next := make([]TargetedRule, 0, len(current))
	for _, entry := range current {
		if !entry.Expired(now) {
			next = append(next, entry)
		}
	}
	if len(next) == len(current) {
		return
	}

	_ = s.persist(ctx, targetType, next)
	s.setList(targetType, next)
}

func (s *TargetedRuleStore) list(targetType TargetType) []TargetedRule {
	if targetType == TargetChat {
		return s.chatRules
	}
	return s.userRules
}

func (s *TargetedRuleStore) setList(targetType TargetType, rules []TargetedRule) {
	if targetType == TargetChat {
		s.chatRules = rules
	} else {
		s.userRules = rules
	}
}

func (s *TargetedRuleStore) persist(ctx context.Context, targetType TargetType, rules []TargetedRule) error {
	key := keyUserRules
	if targetType == TargetChat {
		key = keyChatRules
	}
	if err := s.store.Set(ctx, key, rules); err != nil {
		return storeErr(err)
	}
	return nil
}
