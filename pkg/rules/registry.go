package rules

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tgsentry/tgsentry/pkg/permission"
)

// Command describes a registered command: its name, the module it belongs to
// and an optional intrinsic default mask overriding the global default.
type Command struct {
	Name        string
	Module      string
	DefaultMask permission.Mask // 0 means "use permission.DefaultPermissions"
}

// QualifiedID returns the mask-store key for the command, qualified by its
// owning module.
func (c Command) QualifiedID() string {
	return QualifiedID(c.Module, c.Name)
}

// QualifiedID builds the "<module>.<command>" identifier used as the
// per-command mask key.
func QualifiedID(module, command string) string {
	return fmt.Sprintf("%s.%s", module, strings.ToLower(command))
}

// Registry tracks loaded modules and registered commands, and resolves
// free-text tokens to addressable rule identifiers.
type Registry struct {
	mu       sync.RWMutex
	prefix   string
	modules  map[string]string  // lowercased display name -> canonical name
	commands map[string]Command // lowercased command name -> command
}

// NewRegistry creates an empty registry. prefix is the command-prefix
// character ("." in the classic setup); tokens starting with it never resolve
// to a module.
func NewRegistry(prefix string) *Registry {
	if prefix == "" {
		prefix = "."
	}
	return &Registry{
		prefix:   prefix,
		modules:  make(map[string]string),
		commands: make(map[string]Command),
	}
}

// Prefix returns the command-prefix character.
func (r *Registry) Prefix() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prefix
}

// RegisterModule records a loaded module by display name.
func (r *Registry) RegisterModule(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[strings.ToLower(name)] = name
}

// RegisterCommand records a command. Re-registering the same name overwrites
// the previous entry, matching loader reload behavior.
func (r *Registry) RegisterCommand(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[strings.ToLower(cmd.Name)] = cmd
}

// UnregisterModule drops a module and every command it owns.
func (r *Registry) UnregisterModule(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.modules, strings.ToLower(name))
	for key, cmd := range r.commands {
		if strings.EqualFold(cmd.Module, name) {
			delete(r.commands, key)
		}
	}
}

// Command looks up a registered command by name, with any command prefix
// stripped first.
func (r *Registry) Command(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[r.normalize(name)]
	return cmd, ok
}

// Commands returns all registered commands sorted by qualified id, for
// display.
func (r *Registry) Commands() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].QualifiedID() < out[j].QualifiedID()
	})
	return out
}

// Resolve maps a free-text token to zero, one or two rule identifiers:
// "module/<Name>" when the token names a loaded module (skipped when the
// token starts with the command prefix), and "command/<name>" when the token,
// prefix stripped, names a registered command. A token naming both yields
// both, module first.
func (r *Registry) Resolve(token string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	lower := strings.ToLower(token)

	if !strings.HasPrefix(lower, r.prefix) {
		if canonical, ok := r.modules[lower]; ok {
			out = append(out, "module/"+canonical)
		}
	}

	if cmd, ok := r.commands[r.normalize(token)]; ok {
		out = append(out, "command/"+strings.ToLower(cmd.Name))
	}

	return out
}

// ResolveAll concatenates Resolve over every token, preserving token order
// and keeping duplicates. The caller owns the 0/1/many policy.
func (r *Registry) ResolveAll(tokens []string) []string {
	var out []string
	for _, tok := range tokens {
		out = append(out, r.Resolve(tok)...)
	}
	return out
}

// RulesFor returns the addressable rules a command answers to: its own
// command rule and its module rule. Used by the evaluator's targeted-grant
// fallback.
func (r *Registry) RulesFor(commandName string) []string {
	cmd, ok := r.Command(commandName)
	if !ok {
		return nil
	}
	return []string{
		"command/" + strings.ToLower(cmd.Name),
		"module/" + cmd.Module,
	}
}

func (r *Registry) normalize(token string) string {
	return strings.TrimPrefix(strings.ToLower(token), r.prefix)
}
