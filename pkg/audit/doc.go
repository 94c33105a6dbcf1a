// Package audit records an append-only trail of authorization decisions and
// security mutations: every Check outcome, every mask bit toggle, every
// targeted-rule grant and revocation, every membership change.
//
// Events are written as JSON lines to a size-rotated file. The Logger
// interface keeps the trail pluggable; NopLogger disables it.
package audit
