// Package tools turns parsed tool commands into calendar operations.
//
// A Registry maps every command.Name to a Handler and is checked for
// completeness when it is built. The Executor looks up the handler, builds a
// calendar Service bound to the caller's credential, runs the handler and
// renders the outcome as text for the model. Execution never fails: every
// error becomes descriptive text so the conversation can continue.
//
// The handlers themselves live in the calendar_tools subpackage; argument
// helpers and instrumentation live in common; the bounded worker pool used
// by range deletion lives in batch.
package tools
