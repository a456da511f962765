// Package common provides helpers shared by the tool handlers: typed
// argument extraction from the model's loosely typed JSON and the
// instrumentation wrapper applied to every handler.
package common
