package desktop

import (
	"regexp"
	"strings"
)

// safeShellChars matches strings that need no quoting at all.
var safeShellChars = regexp.MustCompile(`^[A-Za-z0-9@%+=:,./-]+$`)

// quoteString escapes s for interpolation into a POSIX shell command line,
// using the single-quote convention: the whole string is wrapped in single
// quotes and embedded single quotes become '"'"'.
func quoteString(s string) string {
	if s == "" {
		return "''"
	}
	if safeShellChars.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
