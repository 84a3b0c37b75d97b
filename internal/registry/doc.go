// Package registry holds the four per-session lookup tables the
// session engine mutates on every control-message and request: the
// track-alias bijection, the in-flight request table, the active
// subscription table, and the active publication table. Each follows
// the mutex-guarded-map-plus-slog-component-logger shape used
// throughout this codebase for shared in-memory state.
package registry
