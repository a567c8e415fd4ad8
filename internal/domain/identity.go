package domain

import "strings"

// NormalizeUserID returns the canonical string form of an opaque user id.
// Ids are compared byte-wise after trimming, so no case folding is applied.
func NormalizeUserID(id string) string {
	return strings.TrimSpace(id)
}
