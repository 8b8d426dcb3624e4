package utils

import (
	"strings"
)

// non-breaking space spellings found in scraped board cells
var nbspReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&NBSP;", " ",
	"&#160;", " ",
	"&#xa0;", " ",
	"&#xA0;", " ",
)

// NormalizeStatus collapses whitespace and non-breaking spaces into single spaces and trims
// the result. It is idempotent.
func NormalizeStatus(s string) string {
	if s == "" {
		return ""
	}
	// strings.Fields splits on unicode.IsSpace, which covers U+00A0
	return strings.Join(strings.Fields(nbspReplacer.Replace(s)), " ")
}
