// Package calendar is a thin client for the Google Calendar v3 events
// collection, authenticated with a caller-supplied OAuth bearer credential.
//
// It exposes the four primitives the tool layer needs (list, create, patch,
// delete) on the caller's primary calendar, and converts every failure into
// one of three typed errors:
//
//   - *ProviderError: the API answered with a non-2xx status
//   - *NetworkError: the API could not be reached or the call timed out
//   - *AuthError: the credential was rejected before any calendar call
//
// Reads are retried with exponential backoff; writes are sent once.
// No etag or version check is sent with writes, so concurrent edits made by
// other clients are silently overwritten (last writer wins).
//
//	client, err := calendar.NewClient(ctx, credential, calendar.Options{})
//	if err != nil {
//	    return err
//	}
//	events, err := client.ListEvents(ctx, "2026-01-20T00:00:00+05:30", "2026-01-27T00:00:00+05:30")
package calendar
