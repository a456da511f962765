// Package agent runs the planning loop: it alternates between the model and
// the tool executor until the model answers without a tool command, the
// turn bound is reached, or the run's time budget runs out.
//
// One Orchestrator serves many concurrent runs. Everything a run mutates
// (its history, the session context) is passed in by the caller, and the
// caller's history slice is copied, never modified.
//
// State machine of one run:
//
//	AwaitingModel -> Parsing -> Dispatching -> AwaitingModel
//	                         \-> Terminal (no command, turn bound, budget)
package agent
