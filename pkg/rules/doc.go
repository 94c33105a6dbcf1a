// Package rules maintains the registry of loaded modules and registered
// commands, and resolves free-text tokens to addressable rule identifiers.
//
// A rule is the unit of targeted authorization: either a whole module,
// written "module/<Name>", or a single command, written "command/<name>".
// A token can legitimately resolve to both at once (a module and a command
// sharing a name); Resolve returns every candidate and the evaluator refuses
// to guess between them.
package rules
