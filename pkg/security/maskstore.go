package security

import (
	"context"
	"errors"
	"strconv"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tgsentry/tgsentry/pkg/permission"
	"github.com/tgsentry/tgsentry/pkg/rules"
	"github.com/tgsentry/tgsentry/pkg/storage"
)

const (
	keyBoundingMask = "bounding_mask"
	keyCommandMasks = "masks"

	effectiveMaskCacheSize = 512
)

// MaskStore owns the global bounding mask and the per-command override
// masks. Mutations persist synchronously before they become visible;
// a failed persist leaves the in-memory state untouched.
type MaskStore struct {
	store storage.Store

	mu       sync.RWMutex
	bounding permission.Mask
	masks    map[string]permission.Mask

	// effective-mask results, invalidated wholesale on any mutation
	cache *lru.Cache[string, permission.Mask]
}

// NewMaskStore loads persisted masks from the store. An absent bounding
// mask means the default policy; an absent masks map means no overrides.
func NewMaskStore(ctx context.Context, store storage.Store) (*MaskStore, error) {
	cache, err := lru.New[string, permission.Mask](effectiveMaskCacheSize)
	if err != nil {
		return nil, err
	}

	s := &MaskStore{
		store:    store,
		bounding: permission.DefaultPermissions,
		masks:    make(map[string]permission.Mask),
		cache:    cache,
	}

	var bounding uint32
	switch err := store.Get(ctx, keyBoundingMask, &bounding); {
	case err == nil:
		s.bounding = permission.Mask(bounding)
	case !errors.Is(err, storage.ErrNotFound):
		return nil, storeErr(err)
	}

	var masks map[string]uint32
	switch err := store.Get(ctx, keyCommandMasks, &masks); {
	case err == nil:
		for id, mask := range masks {
			s.masks[id] = permission.Mask(mask)
		}
	case !errors.Is(err, storage.ErrNotFound):
		return nil, storeErr(err)
	}

	return s, nil
}

// BoundingMask returns the current global ceiling.
func (s *MaskStore) BoundingMask() permission.Mask {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounding
}

// CommandMask returns the stored override for commandID, or fallback when no
// override exists. A zero fallback means permission.DefaultPermissions.
func (s *MaskStore) CommandMask(commandID string, fallback permission.Mask) permission.Mask {
	if fallback == 0 {
		fallback = permission.DefaultPermissions
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if mask, ok := s.masks[commandID]; ok {
		return mask
	}
	return fallback
}

// EffectiveMask resolves the mask that actually governs commandID: its
// override (or the default policy) clamped by the bounding mask.
func (s *MaskStore) EffectiveMask(commandID string) permission.Mask {
	return s.effectiveMask(commandID, 0)
}

// EffectiveMaskFor is EffectiveMask honoring a command's intrinsic default
// mask when it carries one.
func (s *MaskStore) EffectiveMaskFor(cmd rules.Command) permission.Mask {
	return s.effectiveMask(cmd.QualifiedID(), cmd.DefaultMask)
}

func (s *MaskStore) effectiveMask(commandID string, fallback permission.Mask) permission.Mask {
	if fallback == 0 {
		fallback = permission.DefaultPermissions
	}

	// The fallback is part of the key: the same command id can be
	// re-registered with a different intrinsic default.
	key := commandID + "#" + strconv.FormatUint(uint64(fallback), 16)
	if mask, ok := s.cache.Get(key); ok {
		return mask
	}

	// Read and cache under one read lock. Mutators hold the write lock
	// and purge after updating state, so an entry added here can never
	// outlive a completed mutation.
	s.mu.RLock()
	defer s.mu.RUnlock()

	override, ok := s.masks[commandID]
	if !ok {
		override = fallback
	}
	mask := permission.Restrict(override, s.bounding)
	s.cache.Add(key, mask)
	return mask
}

// SetCommandBit toggles one bit of a command's override mask and persists
// the full mapping. The override is materialized from fallback (the
// command's intrinsic default, or the default policy) on first toggle.
func (s *MaskStore) SetCommandBit(ctx context.Context, commandID string, bit permission.Bit, enabled bool, fallback permission.Mask) error {
	if fallback == 0 {
		fallback = permission.DefaultPermissions
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.masks[commandID]
	if !ok {
		current = fallback
	}

	next := make(map[string]permission.Mask, len(s.masks)+1)
	for id, mask := range s.masks {
		next[id] = mask
	}
	next[commandID] = permission.Set(current, bit, enabled)

	if err := s.store.Set(ctx, keyCommandMasks, encodeMasks(next)); err != nil {
		return storeErr(err)
	}

	s.masks = next
	s.cache.Purge()
	return nil
}

// SetBoundingBit toggles one bit of the global bounding mask and persists
// it.
func (s *MaskStore) SetBoundingBit(ctx context.Context, bit permission.Bit, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := permission.Set(s.bounding, bit, enabled)
	if err := s.store.Set(ctx, keyBoundingMask, uint32(next)); err != nil {
		return storeErr(err)
	}

	s.bounding = next
	s.cache.Purge()
	return nil
}

func encodeMasks(masks map[string]permission.Mask) map[string]uint32 {
	out := make(map[string]uint32, len(masks))
	for id, mask := range masks {
		out[id] = uint32(mask)
	}
	return out
}
