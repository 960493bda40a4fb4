package format

import "regexp"

var (
	mdV1Re = regexp.MustCompile("([_*`\\[])")
	mdV2Re = regexp.MustCompile(`([_*\[\]()~` + "`" + `>#+\-=|{}.!\\])`)
)

// EscapeMD escapes characters Telegram treats as Markdown markup.
// User-supplied text must pass through it before being embedded in a
// message sent with Markdown parse mode.
func EscapeMD(s string) string {
	return mdV1Re.ReplaceAllString(s, `\$1`)
}

// EscapeMDV2 escapes the extended MarkdownV2 character set.
func EscapeMDV2(s string) string {
	return mdV2Re.ReplaceAllString(s, `\$1`)
}
