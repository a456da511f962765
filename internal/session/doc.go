// Package session holds the conversation state threaded through one
// orchestration run: the ordered message history and the per-session
// context (credential, timezone, pending action).
//
// Nothing in this package is shared between runs. Callers build a fresh
// Context for every request and pass it by pointer into the orchestrator.
package session
