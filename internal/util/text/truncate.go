package text

import "unicode/utf8"

// Truncate returns the longest prefix of s that is at most n bytes long and
// does not split a UTF-8 encoded rune.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	if n <= 0 {
		return ""
	}

	// s[n] starts the first dropped rune; back up until it is a rune start
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}

	return s[:n]
}
