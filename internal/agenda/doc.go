// Package agenda builds the short "what's coming up" view shown next to the
// chat: the timed events from the start of today through the next few days,
// labelled relative to today in a display zone.
package agenda
