// Package redact blinds CV text and detects proxy signals that can leak
// identity, prestige or locale into a score.
package redact

import (
	"regexp"
	"strings"
)

// Placeholders written by Blind.
const (
	NamePlaceholder   = "<NAME>"
	EmailPlaceholder  = "<EMAIL>"
	PhonePlaceholder  = "<PHONE>"
	SchoolPlaceholder = "<SCHOOL>"
)

type pass struct {
	re   *regexp.Regexp
	repl string
}

var (
	namePattern  = regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+\b`)
	emailPattern = regexp.MustCompile(`\S+@\S+`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\-\s()]{7,}\d`)
	// The leading group keeps placeholder text such as "<NAME> University" out of the match.
	institutionPattern = regexp.MustCompile(`(^|[^<\w])((?:[A-Z][a-zA-Z]+ )+)(University|College|Institute)\b`)

	eliteTokens   = []string{"MIT", "Stanford", "Harvard", "Oxford", "Cambridge"}
	elitePatterns = compileElite(eliteTokens)

	localeTokens = []string{
		"native speaker", "native english", "citizenship", "us citizen",
		"visa sponsorship", "relocation", "silicon valley", "bay area",
		"new york", "london", "bangalore", "lagos",
	}
	localePatterns = compileLocale(localeTokens)
)

// passes run in order; each placeholder is inert for every later pass.
var passes = []pass{
	{namePattern, NamePlaceholder},
	{emailPattern, EmailPlaceholder},
	{phonePattern, PhonePlaceholder},
	{institutionPattern, "${1}" + SchoolPlaceholder},
}

func compileElite(tokens []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, regexp.MustCompile(`\b`+regexp.QuoteMeta(t)+`\b`))
	}
	return out
}

func compileLocale(tokens []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, tokenPattern(t))
	}
	return out
}

// tokenPattern matches tok case-insensitively between non-alphanumeric boundaries.
func tokenPattern(tok string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(tok) + `(?:[^\p{L}\p{N}_]|$)`)
}

// Blind replaces names, emails, phone numbers and school names with placeholders.
// Blind(Blind(t)) == Blind(t).
//
// The name pass is naive: any two adjacent capitalized words are treated as a
// full name, so "Stanford University" becomes "<NAME>" and lower-case names
// survive.
//
// A placeholder can end a word that an earlier pass skipped ("Lopez2125551234"
// becomes "Lopez<PHONE>"), so the passes repeat until the text is stable. Each
// pass only removes text its own pattern needs and placeholders never add
// letters, digits or '@', so the loop terminates.
func Blind(text string) string {
	out := text
	for {
		next := blindOnce(out)
		if next == out {
			return out
		}
		out = next
	}
}

func blindOnce(text string) string {
	out := text
	for _, p := range passes {
		out = p.re.ReplaceAllString(out, p.repl)
	}
	for _, re := range elitePatterns {
		out = re.ReplaceAllString(out, SchoolPlaceholder)
	}
	return out
}

// DetectProxies returns the labels of proxy signals found in text, in
// detection order: elite schools, generic institutions, email, phone, locale.
// Labels are unique; PII values are never returned, only "email" and "phone".
func DetectProxies(text string) []string {
	var labels []string
	seen := map[string]struct{}{}
	add := func(label string) {
		if _, ok := seen[label]; ok {
			return
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}

	for i, re := range elitePatterns {
		if re.MatchString(text) {
			add(eliteTokens[i])
		}
	}
	for _, m := range institutionPattern.FindAllStringSubmatch(text, -1) {
		add(strings.TrimSpace(m[2]) + " " + m[3])
	}
	if emailPattern.MatchString(text) {
		add("email")
	}
	if phonePattern.MatchString(text) {
		add("phone")
	}
	for i, re := range localePatterns {
		if re.MatchString(text) {
			add(localeTokens[i])
		}
	}
	return labels
}

// RemovedProxies returns the proxies present in raw but absent from blinded,
// in detection order.
func RemovedProxies(raw, blinded string) []string {
	after := map[string]struct{}{}
	for _, l := range DetectProxies(blinded) {
		after[l] = struct{}{}
	}
	var removed []string
	for _, l := range DetectProxies(raw) {
		if _, ok := after[l]; !ok {
			removed = append(removed, l)
		}
	}
	return removed
}

// CitesProxy reports which of the given proxy labels appear in span.
// Matching is case-insensitive; "email" and "phone" match the PII patterns.
func CitesProxy(span string, labels []string) []string {
	if strings.TrimSpace(span) == "" || len(labels) == 0 {
		return nil
	}
	var cited []string
	for _, l := range labels {
		switch l {
		case "email":
			if emailPattern.MatchString(span) {
				cited = append(cited, l)
			}
		case "phone":
			if phonePattern.MatchString(span) {
				cited = append(cited, l)
			}
		default:
			if tokenPattern(l).MatchString(span) {
				cited = append(cited, l)
			}
		}
	}
	return cited
}
