// Package cachekey derives cache keys from a report's request parameters.
package cachekey

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// maxPlain is the longest canonical parameter string kept verbatim in a key.
// Longer ones are replaced by their SHA-256 digest.
const maxPlain = 160

// Params are the logical inputs of one report request.
type Params map[string]string

// Build returns the cache key for endpoint and params.
//
// Values are trimmed and empty values are dropped, so an absent optional
// filter and an empty one share a key. Names are sorted, which makes the key
// independent of construction order. Names and values are query-escaped so
// separators inside values cannot collide with the ones between pairs.
func Build(endpoint string, params Params) string {
	canonical := Canonical(params)
	if canonical == "" {
		return endpoint
	}
	if len(canonical) > maxPlain {
		return endpoint + ":" + Digest(canonical)
	}
	return endpoint + ":" + canonical
}

// Canonical returns the normalized "name=value&..." form of params.
func Canonical(params Params) string {
	names := make([]string, 0, len(params))
	for name, value := range params {
		if strings.TrimSpace(value) == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(strings.TrimSpace(params[name])))
	}
	return b.String()
}

// Digest creates a deterministic hex digest of s using SHA-256.
func Digest(s string) string {
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:])
}
