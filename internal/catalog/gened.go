package catalog

import (
	"strings"
	"unicode"
)

// GenEdCategories are the recognized general-education categories.
var GenEdCategories = []string{
	"Aesthetics and Culture",
	"Ethics and Civics",
	"Histories, Societies, Individuals",
	"Science and Technology in Society",
}

// DeriveGenEdCategory returns the category named in distribution text, or ""
// when none is recognized. Matching ignores case and punctuation.
func DeriveGenEdCategory(distribution string) string {
	text := foldCategory(distribution)
	if text == "" {
		return ""
	}
	for _, c := range GenEdCategories {
		if strings.Contains(text, foldCategory(c)) {
			return c
		}
	}
	return ""
}

// SameGenEdCategory compares two category names ignoring case and punctuation.
func SameGenEdCategory(a, b string) bool {
	fa := foldCategory(a)
	return fa != "" && fa == foldCategory(b)
}

func foldCategory(s string) string {
	s = strings.ReplaceAll(s, "&", " and ")
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
