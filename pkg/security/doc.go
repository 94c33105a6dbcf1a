// Package security implements the authorization evaluator: the single
// decision point that answers, for every incoming action, whether the actor
// may execute it.
//
// # Overview
//
// Authorization is layered:
//
//  1. Every command resolves to an effective bitmask: its per-command
//     override (or the default policy) clamped by the global bounding mask.
//     A bit cleared in the bounding mask is unreachable everywhere; that
//     ceiling governs owners like anyone else.
//  2. The caller's role bits come from the persisted owner/sudo/support
//     membership lists plus the caller's standing in the current chat
//     (group owner, specific admin rights, plain member, private chat) and,
//     for inline contexts only, the Everyone bit.
//  3. If the role bits do not intersect the effective mask, targeted rules
//     are the fallback: explicit, optionally time-limited grants of one
//     rule ("module/<Name>" or "command/<name>") to one user or chat.
//
// # Stores
//
// MaskStore owns the bounding mask and the per-command overrides.
// TargetedRuleStore owns the two targeted-rule sequences and prunes expired
// entries lazily on read. RoleResolver owns the membership lists; the bot's
// own account is always an owner and can never be the target of a rule.
// All three persist synchronously through the opaque storage.Store: state
// is applied to a copy, committed, then swapped, so a store failure never
// leaves half-mutated masks behind (ErrStoreUnavailable, memory unchanged).
//
// # Grants
//
// Targeted grants are two-phase. The first GrantTargeted call returns a
// GrantProposal and stores nothing; only an explicit confirmed=true call
// mutates. A grant proceeds Proposed → Confirmed → Active and leaves Active
// by expiry (discovered lazily) or revocation; re-granting creates a fresh
// entry, overwriting the old key.
//
// Free-text rule lookup can be ambiguous when a token names both a module
// and a command. The evaluator never guesses: it returns every candidate
// in an AmbiguousRuleError and the caller disambiguates.
//
// Every check outcome and every mutation lands in the audit trail; every
// error path denies.
package security
