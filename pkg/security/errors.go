package security

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the recoverable, user-facing failure modes. Every
// error path in this package resolves to deny; none is fatal.
var (
	// ErrInvalidTarget means the resolved entity is not a user or chat as
	// the operation requires.
	ErrInvalidTarget = errors.New("security: invalid target")

	// ErrTargetIsOwner means a grant was attempted against the bot's own
	// owner identity.
	ErrTargetIsOwner = errors.New("security: owner accounts cannot be targeted")

	// ErrNoMatchingRule means rule lookup produced zero candidates.
	ErrNoMatchingRule = errors.New("security: no matching rule")

	// ErrNoActiveRules means removal or listing found nothing.
	ErrNoActiveRules = errors.New("security: no active rules")

	// ErrStoreUnavailable wraps a persistence failure. In-memory state is
	// guaranteed unchanged when it is returned.
	ErrStoreUnavailable = errors.New("security: persistent store unavailable")
)

// AmbiguousRuleError signals that a free-text lookup produced more than one
// rule candidate and the caller must disambiguate. It is control flow, not a
// hard failure.
type AmbiguousRuleError struct {
	Candidates []string
}

func (e *AmbiguousRuleError) Error() string {
	return fmt.Sprintf("security: ambiguous rule, candidates: %s", strings.Join(e.Candidates, ", "))
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
