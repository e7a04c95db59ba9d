package pipeline

import (
	"regexp"
	"strings"
)

const (
	mdLinkPattern = `\[[^\]]+\]\([^\)]+\)`
	rawURLPattern = `https?://[^\s)]+`
)

var linkToken = `(?:` + mdLinkPattern + `|` + rawURLPattern + `)`

var (
	sourcesLineRe = regexp.MustCompile(
		`(?i)(?:^|\n)[ \t]*(?:sources|references):[ \t]*` + linkToken +
			`(?:[ \t]*[,·|][ \t]*` + linkToken + `)*[ \t]*$`)

	trailingParenRe = regexp.MustCompile(
		`\([ \t]*` + linkToken + `(?:[ \t]*,[ \t]*` + linkToken + `)*[ \t]*\)[ \t]*$`)
)

const trimChars = " \t\r\n—–-|·,"

// StripTrailingCitations removes, from the end of the text only, a
// trailing "Sources:"/"References:" line of comma/middle-dot/pipe
// separated links or a trailing parenthetical group whose entire
// contents are links, repeating until the text no longer ends in either.
// Mid-text links and parentheses with non-link contents are preserved.
// The operation is idempotent.
func StripTrailingCitations(s string) string {
	for {
		if loc := sourcesLineRe.FindStringIndex(s); loc != nil {
			s = strings.TrimRight(s[:loc[0]], trimChars)
			continue
		}
		if loc := trailingParenRe.FindStringIndex(s); loc != nil {
			s = strings.TrimRight(s[:loc[0]], trimChars)
			continue
		}
		return s
	}
}
