package instrumentation

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Cardinality helpers keep per-user values out of metric labels and logs.

// ZoneRegion reduces an IANA zone name to its region.
//
//	ZoneRegion("Asia/Kolkata")                    // "Asia"
//	ZoneRegion("America/Argentina/Buenos_Aires")  // "America"
//	ZoneRegion("UTC")                             // "UTC"
//	ZoneRegion("")                                // "unknown"
func ZoneRegion(zone string) string {
	if zone == "" {
		return StatusUnknown
	}
	region, _, _ := strings.Cut(zone, "/")
	return region
}

// CredentialFingerprint returns a short stable identifier for a bearer
// credential so audit lines can be correlated without logging the token.
func CredentialFingerprint(credential string) string {
	if credential == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:6])
}

// Calendar API operation names.
const (
	OperationList      = "list"
	OperationCreate    = "create"
	OperationPatch     = "patch"
	OperationDelete    = "delete"
	OperationTokenInfo = "tokeninfo"
)
