package markdown

import (
	"html"
	"strings"
)

// EscapeHTML escapes the characters & < > " and ' for insertion into HTML text
// or a quoted attribute value.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

// reescape escapes s for HTML after undoing any escaping already applied.
// Inline rules run over block HTML whose text is already escaped, so their
// captures must not be escaped a second time.
func reescape(s string) string {
	return html.EscapeString(html.UnescapeString(s))
}

var jsReplacer = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// EscapeForJS escapes s for use inside a single- or double-quoted JavaScript
// string literal. Backslash, both quote characters, newline, carriage return
// and tab are escaped.
func EscapeForJS(s string) string {
	return jsReplacer.Replace(s)
}
