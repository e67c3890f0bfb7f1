package admin

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var dotless = strings.NewReplacer("ı", "i")

// fold lowers s with Turkish rules and then drops the dotted/dotless
// distinction, so "İŞE", "IŞE" and "işe" all compare equal.
func fold(s string) string {
	return dotless.Replace(cases.Lower(language.Turkish).String(s))
}
