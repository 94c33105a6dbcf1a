package security

import (
	"context"
	"fmt"
	"time"

	"github.com/tgsentry/tgsentry/pkg/audit"
	"github.com/tgsentry/tgsentry/pkg/duration"
	"github.com/tgsentry/tgsentry/pkg/observability"
	"github.com/tgsentry/tgsentry/pkg/permission"
	"github.com/tgsentry/tgsentry/pkg/rules"
)

// Decision is the outcome of a single authorization check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	// Source names what decided an allowed check: "mask",
	// "targeted_user" or "targeted_chat".
	Source    string    `json:"source,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// GrantProposal is the unconfirmed first phase of a targeted grant. Nothing
// has been stored yet; the presentation layer shows it and calls
// GrantTargeted again with confirmed=true.
type GrantProposal struct {
	TargetType TargetType `json:"target_type"`
	TargetID   int64      `json:"target_id"`
	Rule       string     `json:"rule"`
	TTLSeconds int64      `json:"ttl_seconds"`
	Duration   string     `json:"duration"`
}

// Evaluator is the single decision point: it composes the mask store, the
// targeted-rule store and the role resolver to answer "may this caller
// invoke this command now", and hosts the confirmation-guarded mutations.
type Evaluator struct {
	registry *rules.Registry
	masks    *MaskStore
	tsec     *TargetedRuleStore
	roles    *RoleResolver

	logger   *observability.Logger
	metrics  *observability.Metrics
	auditLog audit.Logger

	now func() time.Time
}

// EvaluatorOption customizes an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithMetrics attaches prometheus metrics.
func WithMetrics(m *observability.Metrics) EvaluatorOption {
	return func(e *Evaluator) { e.metrics = m }
}

// WithAuditLog attaches an audit trail.
func WithAuditLog(l audit.Logger) EvaluatorOption {
	return func(e *Evaluator) { e.auditLog = l }
}

// NewEvaluator builds the evaluator over its stores.
func NewEvaluator(registry *rules.Registry, masks *MaskStore, tsec *TargetedRuleStore, roles *RoleResolver, logger *observability.Logger, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		registry: registry,
		masks:    masks,
		tsec:     tsec,
		roles:    roles,
		logger:   logger,
		auditLog: audit.NopLogger{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check decides whether the caller may invoke the named command in the
// current context. The effective mask is consulted first; on
// non-intersection the targeted-rule store is checked for an explicit,
// unexpired grant to the acting user or the current chat. Unknown commands
// and internal failures deny.
func (e *Evaluator) Check(ctx context.Context, caller CallerContext, command string, isInline bool) Decision {
	start := e.now()
	decision := e.check(ctx, caller, command, isInline)
	decision.CheckedAt = start

	if e.metrics != nil {
		outcome := "denied"
		if decision.Allowed {
			outcome = "allowed"
		}
		e.metrics.ChecksTotal.WithLabelValues(outcome, decision.Source).Inc()
		e.metrics.CheckDuration.WithLabelValues(outcome).Observe(e.now().Sub(start).Seconds())
	}

	status := audit.EventStatusDenied
	if decision.Allowed {
		status = audit.EventStatusAllowed
	}
	e.record(&audit.Event{
		EventType: audit.EventTypeCheck,
		Status:    status,
		ActorID:   caller.UserID,
		ChatID:    caller.ChatID,
		Command:   command,
		Message:   decision.Reason,
	})

	e.logger.WithFields(map[string]interface{}{
		"user_id": caller.UserID,
		"chat_id": caller.ChatID,
		"command": command,
		"inline":  isInline,
		"allowed": decision.Allowed,
		"source":  decision.Source,
	}).Debug("authorization check")

	return decision
}

func (e *Evaluator) check(ctx context.Context, caller CallerContext, command string, isInline bool) Decision {
	cmd, ok := e.registry.Command(command)
	if !ok {
		return Decision{Reason: fmt.Sprintf("unknown command %q", command)}
	}

	effective := e.masks.EffectiveMaskFor(cmd)
	callerBits := e.roles.RoleBits(caller, isInline)

	if permission.Intersects(effective, callerBits) {
		return Decision{
			Allowed: true,
			Source:  "mask",
			Reason:  "caller role intersects effective mask",
		}
	}

	now := e.now()
	for _, rule := range e.registry.RulesFor(cmd.Name) {
		if e.tsec.HasGrant(ctx, TargetUser, caller.UserID, rule, now) {
			return Decision{
				Allowed: true,
				Source:  "targeted_user",
				Reason:  fmt.Sprintf("user grant for %s", rule),
			}
		}
		if e.tsec.HasGrant(ctx, TargetChat, caller.ChatID, rule, now) {
			return Decision{
				Allowed: true,
				Source:  "targeted_chat",
				Reason:  fmt.Sprintf("chat grant for %s", rule),
			}
		}
	}

	return Decision{Reason: "no role bit or targeted grant applies"}
}

// ResolveRules maps free-text tokens to rule candidates: zero candidates is
// ErrNoMatchingRule, more than one is an AmbiguousRuleError for the caller
// to disambiguate, exactly one is returned.
func (e *Evaluator) ResolveRules(tokens []string) (string, error) {
	candidates := e.registry.ResolveAll(tokens)
	switch len(candidates) {
	case 0:
		return "", ErrNoMatchingRule
	case 1:
		return candidates[0], nil
	default:
		return "", &AmbiguousRuleError{Candidates: candidates}
	}
}

// GrantTargeted is the two-phase targeted grant. With confirmed=false it
// validates and returns a proposal without mutating anything; with
// confirmed=true it stores the rule. The two calls are separate user
// interactions; the evaluator keeps no state between them.
func (e *Evaluator) GrantTargeted(ctx context.Context, targetType TargetType, targetID int64, rule string, ttlSeconds int64, confirmed bool, meta EntityMeta) (*GrantProposal, error) {
	if !targetType.valid() {
		return nil, ErrInvalidTarget
	}
	if targetType == TargetUser && e.roles.IsOwner(targetID) {
		return nil, ErrTargetIsOwner
	}

	proposal := &GrantProposal{
		TargetType: targetType,
		TargetID:   targetID,
		Rule:       rule,
		TTLSeconds: ttlSeconds,
		Duration:   duration.Format(ttlSeconds),
	}

	if !confirmed {
		return proposal, nil
	}

	if err := e.tsec.AddRule(ctx, targetType, targetID, rule, ttlSeconds, meta); err != nil {
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.RuleOpsTotal.WithLabelValues("grant").Inc()
	}
	e.record(&audit.Event{
		EventType:  audit.EventTypeRuleGranted,
		Status:     audit.EventStatusSuccess,
		Rule:       rule,
		TargetType: string(targetType),
		TargetID:   targetID,
		Message:    fmt.Sprintf("granted %s", proposal.Duration),
	})

	return proposal, nil
}

// RevokeTargeted removes every targeted rule for the target. A target with
// no rules yields ErrNoActiveRules.
func (e *Evaluator) RevokeTargeted(ctx context.Context, targetType TargetType, targetID int64) (int, error) {
	removed, err := e.tsec.RemoveRules(ctx, targetType, targetID)
	if err != nil {
		return 0, err
	}
	if removed == 0 {
		return 0, ErrNoActiveRules
	}

	if e.metrics != nil {
		e.metrics.RuleOpsTotal.WithLabelValues("revoke").Inc()
	}
	e.record(&audit.Event{
		EventType:  audit.EventTypeRuleRevoked,
		Status:     audit.EventStatusSuccess,
		TargetType: string(targetType),
		TargetID:   targetID,
		Message:    fmt.Sprintf("removed %d rules", removed),
	})

	return removed, nil
}

// SetCommandBit toggles one permission bit of a command's mask.
func (e *Evaluator) SetCommandBit(ctx context.Context, command string, bit permission.Bit, enabled bool) error {
	cmd, ok := e.registry.Command(command)
	if !ok {
		return ErrNoMatchingRule
	}

	if err := e.masks.SetCommandBit(ctx, cmd.QualifiedID(), bit, enabled, cmd.DefaultMask); err != nil {
		return err
	}

	if e.metrics != nil {
		e.metrics.MaskMutationsTotal.WithLabelValues("command").Inc()
	}
	e.record(&audit.Event{
		EventType: audit.EventTypeCommandBit,
		Status:    audit.EventStatusSuccess,
		Command:   cmd.QualifiedID(),
		Message:   fmt.Sprintf("%s=%t", bit, enabled),
	})
	return nil
}

// SetBoundingBit toggles one permission bit of the global bounding mask.
func (e *Evaluator) SetBoundingBit(ctx context.Context, bit permission.Bit, enabled bool) error {
	if err := e.masks.SetBoundingBit(ctx, bit, enabled); err != nil {
		return err
	}

	if e.metrics != nil {
		e.metrics.MaskMutationsTotal.WithLabelValues("bounding").Inc()
	}
	e.record(&audit.Event{
		EventType: audit.EventTypeBoundingBit,
		Status:    audit.EventStatusSuccess,
		Message:   fmt.Sprintf("%s=%t", bit, enabled),
	})
	return nil
}

// AddGroupMember adds id to a membership group.
func (e *Evaluator) AddGroupMember(ctx context.Context, group Group, id int64) error {
	if err := e.roles.Add(ctx, group, id); err != nil {
		return err
	}

	if e.metrics != nil {
		e.metrics.RuleOpsTotal.WithLabelValues("member_add").Inc()
	}
	e.record(&audit.Event{
		EventType: audit.EventTypeGroupAdded,
		Status:    audit.EventStatusSuccess,
		TargetID:  id,
		Message:   string(group),
	})
	return nil
}

// RemoveGroupMember drops id from a membership group.
func (e *Evaluator) RemoveGroupMember(ctx context.Context, group Group, id int64) error {
	if err := e.roles.Remove(ctx, group, id); err != nil {
		return err
	}

	if e.metrics != nil {
		e.metrics.RuleOpsTotal.WithLabelValues("member_remove").Inc()
	}
	e.record(&audit.Event{
		EventType: audit.EventTypeGroupRemoved,
		Status:    audit.EventStatusSuccess,
		TargetID:  id,
		Message:   string(group),
	})
	return nil
}

// ListActiveRules returns the active chat and user targeted rules and
// refreshes the active-rule gauges.
func (e *Evaluator) ListActiveRules(ctx context.Context) (chatRules, userRules []TargetedRule) {
	chatRules, userRules = e.tsec.ListActive(ctx, e.now())

	if e.metrics != nil {
		e.metrics.ActiveTargetedRules.WithLabelValues(string(TargetChat)).Set(float64(len(chatRules)))
		e.metrics.ActiveTargetedRules.WithLabelValues(string(TargetUser)).Set(float64(len(userRules)))
	}
	return chatRules, userRules
}

func (e *Evaluator) record(event *audit.Event) {
	if err := e.auditLog.Log(event); err != nil {
		e.logger.WithError(err).Warn("failed to write audit event")
	}
}
