// Package guard provides analysis fingerprinting and the ownership check
// that every read of analysis data passes through.
package guard

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// FingerprintInput identifies one analysis run: the exact audio content, the
// analyzer version that processed it, and the parameters it ran with. Two
// runs with equal inputs produce the same fingerprint and are duplicates.
type FingerprintInput struct {
	ContentHash     string
	AnalyzerVersion string
	Params          map[string]string
}

// Fingerprint computes the hex-encoded SHA-256 fingerprint of the input.
// Params are canonicalized by key order, so map iteration order never leaks
// into the result.
func Fingerprint(in FingerprintInput) string {
	keys := make([]string, 0, len(in.Params))
	for k := range in.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(in.ContentHash)
	b.WriteByte('\n')
	b.WriteString(in.AnalyzerVersion)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n%s=%s", k, in.Params[k])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
