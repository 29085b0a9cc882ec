package utils

import "strings"

// ContainsString returns true iff the provided string slice hay contains string
// needle.
func ContainsString(hay []string, needle string) bool {
	for _, str := range hay {
		if str == needle {
			return true
		}
	}
	return false
}

// ConcateUrlBaseAndRelativePath joins base and path with exactly one slash.
func ConcateUrlBaseAndRelativePath(base string, path string) string {
	for strings.HasSuffix(base, "/") {
		base = base[:len(base)-1]
	}
	for strings.HasPrefix(path, "/") {
		path = path[1:]
	}
	return base + "/" + path
}

// IsAbsoluteUrl reports whether s already carries a scheme.
func IsAbsoluteUrl(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
