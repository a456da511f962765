// Package google supplies Google OAuth credentials to the command-line
// surfaces of the planner (chat, upcoming, mcp).
//
// The HTTP API never uses this package: browsers send their own bearer
// token with every request. On a terminal the credential comes from one of
// three TokenProvider implementations:
//
//   - StaticTokenProvider: an access token passed on the command line
//   - FileTokenProvider: a token saved by "planner auth login", refreshed on use
//   - DefaultCredentialsProvider: Application Default Credentials
//
// Saved tokens live under the user cache directory, one file per named
// account, so several Google accounts can be used side by side.
package google
