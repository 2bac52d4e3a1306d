// Package naming converts a raw unit name into the case forms used for file
// names, exported Go identifiers, package names, and HTML selectors.
//
// All transforms split the input into words first. Word boundaries are
// '-', '_', '.', whitespace, and case changes:
//
//	Dasherize("UserProfile")  → "user-profile"
//	Classify("user-profile")  → "UserProfile"
//	Classify("api_client")    → "APIClient"
//	Camelize("user-profile")  → "userProfile"
//	Underscore("userProfile") → "user_profile"
package naming

import (
	"go/token"
	"strings"
	"text/template"
	"unicode"

	"github.com/simonhull/firebird-suite/hatch/internal/errs"
)

// acronyms are rendered all-caps in exported identifiers.
var acronyms = map[string]string{
	"id":    "ID",
	"url":   "URL",
	"uri":   "URI",
	"http":  "HTTP",
	"https": "HTTPS",
	"api":   "API",
	"uuid":  "UUID",
	"sql":   "SQL",
	"html":  "HTML",
	"css":   "CSS",
	"json":  "JSON",
	"xml":   "XML",
	"ip":    "IP",
	"db":    "DB",
	"ui":    "UI",
}

// Validate fails fast on names no transform can make sense of.
func Validate(raw string) error {
	s := strings.TrimSpace(raw)
	if s == "" {
		return errs.New(errs.KindValidation, "name", "must not be empty")
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || isSeparator(r) {
			continue
		}
		return errs.New(errs.KindValidation, "name", "invalid character %q in %q", r, raw)
	}
	words := Words(s)
	if len(words) == 0 {
		return errs.New(errs.KindValidation, "name", "%q contains no letters", raw)
	}
	if !unicode.IsLetter([]rune(words[0])[0]) {
		return errs.New(errs.KindValidation, "name", "%q must start with a letter", raw)
	}
	return nil
}

func isSeparator(r rune) bool {
	return r == '-' || r == '_' || r == '.' || unicode.IsSpace(r)
}

// Words splits s into its words, preserving each word's original case.
// Runs of capitals are kept together as an acronym ("HTTPServer" → "HTTP", "Server").
func Words(s string) []string {
	var words []string
	var cur []rune

	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if isSeparator(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(cur) > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()

	return words
}

// Dasherize returns the lower-case, dash-separated form used for file names
// and selectors.
func Dasherize(s string) string {
	return joinLower(Words(s), "-")
}

// Underscore returns the snake_case form.
func Underscore(s string) string {
	return joinLower(Words(s), "_")
}

// Classify returns the PascalCase form used for exported symbols.
func Classify(s string) string {
	var b strings.Builder
	for _, w := range Words(s) {
		b.WriteString(capitalizeWord(w))
	}
	return b.String()
}

// Camelize returns the camelCase form.
func Camelize(s string) string {
	words := Words(s)
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(words[0]))
	for _, w := range words[1:] {
		b.WriteString(capitalizeWord(w))
	}
	return b.String()
}

// Capitalize upper-cases the first rune of s and leaves the rest untouched.
func Capitalize(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// keywordSuffix is appended to package names that collide with a Go keyword.
const keywordSuffix = "component"

// PackageName returns a Go package identifier: all words lower-cased and
// concatenated ("user-profile" → "userprofile"). Keywords get a suffix
// ("select" → "selectcomponent").
func PackageName(s string) string {
	p := joinLower(Words(s), "")
	if token.IsKeyword(p) {
		return p + keywordSuffix
	}
	return p
}

func capitalizeWord(w string) string {
	lower := strings.ToLower(w)
	if acronym, ok := acronyms[lower]; ok {
		return acronym
	}
	return Capitalize(lower)
}

func joinLower(words []string, sep string) string {
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, sep)
}

// FuncMap exposes the transforms to templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"dasherize":   Dasherize,
		"classify":    Classify,
		"camelize":    Camelize,
		"underscore":  Underscore,
		"capitalize":  Capitalize,
		"packageName": PackageName,
		"upper":       strings.ToUpper,
		"lower":       strings.ToLower,
	}
}

// Transform looks up a transform by its template name.
func Transform(name string) (func(string) string, bool) {
	fn, ok := FuncMap()[name].(func(string) string)
	return fn, ok
}
