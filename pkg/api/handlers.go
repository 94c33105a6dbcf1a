package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tgsentry/tgsentry/pkg/duration"
	"github.com/tgsentry/tgsentry/pkg/httputil"
	"github.com/tgsentry/tgsentry/pkg/permission"
	"github.com/tgsentry/tgsentry/pkg/rules"
	"github.com/tgsentry/tgsentry/pkg/security"
)

// CheckRequest is the body of POST /api/v1/check.
type CheckRequest struct {
	Caller   security.CallerContext `json:"caller"`
	Command  string                 `json:"command"`
	IsInline bool                   `json:"is_inline"`
}

// GrantRequest is the body of POST /api/v1/rules. Rule takes either an exact
// rule identifier or free-text tokens; TTL takes either seconds or duration
// tokens like "3d".
type GrantRequest struct {
	TargetType string   `json:"target_type"`
	TargetID   int64    `json:"target_id"`
	Rule       string   `json:"rule,omitempty"`
	RuleTokens []string `json:"rule_tokens,omitempty"`
	TTLSeconds int64    `json:"ttl_seconds,omitempty"`
	TTLTokens  []string `json:"ttl_tokens,omitempty"`
	Confirmed  bool     `json:"confirmed"`
	EntityName string   `json:"entity_name,omitempty"`
	EntityURL  string   `json:"entity_url,omitempty"`
}

// ResolveRequest is the body of POST /api/v1/rules/resolve.
type ResolveRequest struct {
	Tokens []string `json:"tokens"`
}

// BitRequest is the body of the mask mutation endpoints.
type BitRequest struct {
	Bit     string `json:"bit"`
	Enabled bool   `json:"enabled"`
}

// MemberRequest is the body of POST /api/v1/groups/{group}/members.
type MemberRequest struct {
	ID int64 `json:"id"`
}

// check handles POST /api/v1/check
func (s *Server) check(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Command, "command") {
		return
	}
	if !httputil.RequireNonZero(w, req.Caller.UserID, "caller.user_id") {
		return
	}

	decision := s.evaluator.Check(r.Context(), req.Caller, req.Command, req.IsInline)
	httputil.WriteSuccess(w, decision)
}

// listCommands handles GET /api/v1/commands
func (s *Server) listCommands(w http.ResponseWriter, r *http.Request) {
	type commandInfo struct {
		Name          string `json:"name"`
		Module        string `json:"module"`
		EffectiveMask uint32 `json:"effective_mask"`
	}

	commands := s.registry.Commands()
	out := make([]commandInfo, 0, len(commands))
	for _, cmd := range commands {
		out = append(out, commandInfo{
			Name:          cmd.Name,
			Module:        cmd.Module,
			EffectiveMask: uint32(s.masks.EffectiveMaskFor(cmd)),
		})
	}
	httputil.WriteSuccess(w, out)
}

// RegisterCommandRequest is the body of POST /api/v1/commands. The bot
// process announces its loaded commands here so rule lookup can resolve them.
type RegisterCommandRequest struct {
	Name        string `json:"name"`
	Module      string `json:"module"`
	DefaultMask uint32 `json:"default_mask,omitempty"`
}

// registerCommand handles POST /api/v1/commands
func (s *Server) registerCommand(w http.ResponseWriter, r *http.Request) {
	var req RegisterCommandRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Module, "module") {
		return
	}

	s.registry.RegisterModule(req.Module)
	s.registry.RegisterCommand(rules.Command{
		Name:        req.Name,
		Module:      req.Module,
		DefaultMask: permission.Mask(req.DefaultMask),
	})
	httputil.WriteCreated(w, map[string]string{
		"id": rules.QualifiedID(req.Module, req.Name),
	})
}

// unregisterModule handles DELETE /api/v1/modules/{module}
func (s *Server) unregisterModule(w http.ResponseWriter, r *http.Request) {
	module, ok := httputil.ParsePathStringOrError(w, r, "module")
	if !ok {
		return
	}

	s.registry.UnregisterModule(module)
	httputil.WriteSuccess(w, map[string]string{"module": module})
}

// resolveRules handles POST /api/v1/rules/resolve
func (s *Server) resolveRules(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	rule, err := s.evaluator.ResolveRules(req.Tokens)
	if err != nil {
		s.writeSecurityError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]string{"rule": rule})
}

// listRules handles GET /api/v1/rules
func (s *Server) listRules(w http.ResponseWriter, r *http.Request) {
	chatRules, userRules := s.evaluator.ListActiveRules(r.Context())
	httputil.WriteSuccess(w, map[string]interface{}{
		"chat_rules": chatRules,
		"user_rules": userRules,
	})
}

// grantRule handles POST /api/v1/rules
func (s *Server) grantRule(w http.ResponseWriter, r *http.Request) {
	var req GrantRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonZero(w, req.TargetID, "target_id") {
		return
	}

	rule := req.Rule
	if rule == "" {
		resolved, err := s.evaluator.ResolveRules(req.RuleTokens)
		if err != nil {
			s.writeSecurityError(w, err)
			return
		}
		rule = resolved
	}

	ttl := req.TTLSeconds
	if ttl == 0 && len(req.TTLTokens) > 0 {
		ttl = duration.Parse(req.TTLTokens)
	}

	proposal, err := s.evaluator.GrantTargeted(
		r.Context(),
		security.TargetType(req.TargetType),
		req.TargetID,
		rule,
		ttl,
		req.Confirmed,
		security.EntityMeta{Name: req.EntityName, URL: req.EntityURL},
	)
	if err != nil {
		s.writeSecurityError(w, err)
		return
	}

	if !req.Confirmed {
		// Nothing was stored; the client repeats the call with
		// confirmed=true to commit.
		httputil.WriteSuccess(w, map[string]interface{}{
			"proposal":              proposal,
			"confirmation_required": true,
		})
		return
	}
	httputil.WriteCreated(w, proposal)
}

// revokeRules handles DELETE /api/v1/rules/{target_type}/{target_id}
func (s *Server) revokeRules(w http.ResponseWriter, r *http.Request) {
	targetType, ok := httputil.ParsePathStringOrError(w, r, "target_type")
	if !ok {
		return
	}
	targetID, ok := httputil.ParsePathInt64OrError(w, r, "target_id")
	if !ok {
		return
	}

	removed, err := s.evaluator.RevokeTargeted(r.Context(), security.TargetType(targetType), targetID)
	if err != nil {
		s.writeSecurityError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]int{"removed": removed})
}

// getMasks handles GET /api/v1/masks
func (s *Server) getMasks(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, map[string]uint32{
		"bounding_mask": uint32(s.masks.BoundingMask()),
	})
}

// setBoundingBit handles PUT /api/v1/masks/bounding
func (s *Server) setBoundingBit(w http.ResponseWriter, r *http.Request) {
	var req BitRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	bit, ok := permission.FromName(req.Bit)
	if !ok {
		httputil.WriteBadRequest(w, "unknown permission bit: "+req.Bit)
		return
	}

	if err := s.evaluator.SetBoundingBit(r.Context(), bit, req.Enabled); err != nil {
		s.writeSecurityError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]uint32{
		"bounding_mask": uint32(s.masks.BoundingMask()),
	})
}

// setCommandBit handles PUT /api/v1/masks/commands/{command}
func (s *Server) setCommandBit(w http.ResponseWriter, r *http.Request) {
	command, ok := httputil.ParsePathStringOrError(w, r, "command")
	if !ok {
		return
	}

	var req BitRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	bit, ok := permission.FromName(req.Bit)
	if !ok {
		httputil.WriteBadRequest(w, "unknown permission bit: "+req.Bit)
		return
	}

	if err := s.evaluator.SetCommandBit(r.Context(), command, bit, req.Enabled); err != nil {
		s.writeSecurityError(w, err)
		return
	}

	cmd, _ := s.registry.Command(command)
	httputil.WriteSuccess(w, map[string]uint32{
		"effective_mask": uint32(s.masks.EffectiveMaskFor(cmd)),
	})
}

// listMembers handles GET /api/v1/groups/{group}/members
func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	group, ok := httputil.ParsePathStringOrError(w, r, "group")
	if !ok {
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"group":   group,
		"members": s.roles.Members(security.Group(group)),
	})
}

// addMember handles POST /api/v1/groups/{group}/members
func (s *Server) addMember(w http.ResponseWriter, r *http.Request) {
	group, ok := httputil.ParsePathStringOrError(w, r, "group")
	if !ok {
		return
	}

	var req MemberRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonZero(w, req.ID, "id") {
		return
	}

	if err := s.evaluator.AddGroupMember(r.Context(), security.Group(group), req.ID); err != nil {
		s.writeSecurityError(w, err)
		return
	}
	httputil.WriteCreated(w, map[string]interface{}{
		"group":   group,
		"members": s.roles.Members(security.Group(group)),
	})
}

// removeMember handles DELETE /api/v1/groups/{group}/members/{id}
func (s *Server) removeMember(w http.ResponseWriter, r *http.Request) {
	group, ok := httputil.ParsePathStringOrError(w, r, "group")
	if !ok {
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.evaluator.RemoveGroupMember(r.Context(), security.Group(group), id); err != nil {
		s.writeSecurityError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{
		"group":   group,
		"members": s.roles.Members(security.Group(group)),
	})
}

// writeSecurityError maps evaluator errors onto HTTP status codes.
func (s *Server) writeSecurityError(w http.ResponseWriter, err error) {
	var ambiguous *security.AmbiguousRuleError
	switch {
	case errors.As(err, &ambiguous):
		httputil.WriteDetailedError(w, http.StatusConflict, err, map[string]string{
			"candidates": strings.Join(ambiguous.Candidates, ", "),
		})
	case errors.Is(err, security.ErrTargetIsOwner):
		httputil.WriteForbidden(w, err.Error())
	case errors.Is(err, security.ErrInvalidTarget):
		httputil.WriteBadRequest(w, err.Error())
	case errors.Is(err, security.ErrNoMatchingRule), errors.Is(err, security.ErrNoActiveRules):
		httputil.WriteNotFoundError(w, err.Error())
	case errors.Is(err, security.ErrStoreUnavailable):
		httputil.WriteServiceUnavailable(w, err.Error())
	default:
		httputil.WriteInternalError(w, err)
	}
}
