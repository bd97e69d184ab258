package utils

import (
	"strings"
)

// Coalesce returns the first non-blank string among candidates.
func Coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// DefaultIfEmpty returns def if s is empty (after TrimSpace), otherwise s.
func DefaultIfEmpty(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// SplitAndTrim splits by sep and trims each part, dropping empty parts when dropEmpty is true.
func SplitAndTrim(s, sep string, dropEmpty bool) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if dropEmpty && p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ContainsLower reports whether lowerSubstr occurs in s compared case-insensitively.
// lowerSubstr must already be lowercased; callers hoist that out of loops.
func ContainsLower(s, lowerSubstr string) bool {
	if s == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), lowerSubstr)
}
