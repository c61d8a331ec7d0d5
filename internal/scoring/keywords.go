// Package scoring holds the keyword/signal model, the bucket scorer, the
// weighted aggregator and the heuristic criterion scorer built on them.
package scoring

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/ai-cv-fairness/internal/domain"
)

//go:embed signals.yaml
var signalsYAML []byte

// Detector matches one labeled token in free text.
type Detector struct {
	Label   string
	Pattern *regexp.Regexp
}

// Match returns the lowercased text of the first hit, which may be the plural
// form of Label.
func (d Detector) Match(text string) (string, bool) {
	if d.Pattern == nil {
		return "", false
	}
	m := d.Pattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}

// CooccurrencePair grants a bonus when both tokens occur close together.
type CooccurrencePair struct {
	A string
	B string
}

type overlay struct {
	Mode   string   `yaml:"mode"`
	Tokens []string `yaml:"tokens"`
}

type discipline struct {
	Name         string                `yaml:"name"`
	Triggers     []string              `yaml:"triggers"`
	Overlays     map[string]overlay    `yaml:"overlays"`
	Cooccurrence map[string][][]string `yaml:"cooccurrence"`
}

type weightTable struct {
	Precedence []string                      `yaml:"precedence"`
	Presets    map[string]map[string]float64 `yaml:"presets"`
}

type signalTable struct {
	Buckets      map[string][]string   `yaml:"buckets"`
	Cooccurrence map[string][][]string `yaml:"cooccurrence"`
	Disciplines  []discipline          `yaml:"disciplines"`
	Weights      weightTable           `yaml:"weights"`
}

var (
	tableOnce sync.Once
	table     signalTable

	patternMu    sync.Mutex
	patternCache = map[string]*regexp.Regexp{}
)

func loadTable(raw []byte) (signalTable, error) {
	var t signalTable
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return signalTable{}, fmt.Errorf("op=scoring.loadTable: yaml parse: %w", err)
	}
	for _, k := range domain.BucketKeys {
		if len(t.Buckets[k]) == 0 {
			return signalTable{}, fmt.Errorf("op=scoring.loadTable: bucket %q has no tokens", k)
		}
	}
	for _, d := range t.Disciplines {
		for key, ov := range d.Overlays {
			if !domain.IsBucketKey(key) {
				return signalTable{}, fmt.Errorf("op=scoring.loadTable: discipline %s: unknown bucket %q", d.Name, key)
			}
			if ov.Mode != "append" && ov.Mode != "replace" {
				return signalTable{}, fmt.Errorf("op=scoring.loadTable: discipline %s: bad mode %q", d.Name, ov.Mode)
			}
		}
	}
	if _, ok := t.Weights.Presets["default"]; !ok {
		return signalTable{}, fmt.Errorf("op=scoring.loadTable: missing default weight preset")
	}
	return t, nil
}

// signals returns the embedded table. It panics on a malformed table since the
// file ships inside the binary.
func signals() signalTable {
	tableOnce.Do(func() {
		t, err := loadTable(signalsYAML)
		if err != nil {
			panic(err)
		}
		table = t
	})
	return table
}

// tokenPattern compiles a case-insensitive literal match bounded by
// non-alphanumerics. Tokens of 4+ runes ending in a letter also accept a plural "s".
func tokenPattern(token string) *regexp.Regexp {
	patternMu.Lock()
	defer patternMu.Unlock()
	if re, ok := patternCache[token]; ok {
		return re
	}
	plural := ""
	r := []rune(token)
	if len(r) >= 4 && unicode.IsLetter(r[len(r)-1]) {
		plural = "(?:s)?"
	}
	re := regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])(` + regexp.QuoteMeta(token) + plural + `)(?:[^\p{L}\p{N}_]|$)`)
	patternCache[token] = re
	return re
}

// Disciplines returns the discipline names triggered by roleContext, in check order.
func Disciplines(roleContext string) []string {
	rc := strings.ToLower(roleContext)
	var out []string
	for _, d := range signals().Disciplines {
		if hasAny(rc, d.Triggers) {
			out = append(out, d.Name)
		}
	}
	return out
}

func hasAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// BuildKeywords derives the detectors per bucket for a role context.
func BuildKeywords(roleContext string) map[string][]Detector {
	t := signals()
	tokens := make(map[string][]string, len(domain.BucketKeys))
	for _, k := range domain.BucketKeys {
		tokens[k] = append([]string(nil), t.Buckets[k]...)
	}
	rc := strings.ToLower(roleContext)
	for _, d := range t.Disciplines {
		if !hasAny(rc, d.Triggers) {
			continue
		}
		for _, k := range domain.BucketKeys {
			ov, ok := d.Overlays[k]
			if !ok {
				continue
			}
			if ov.Mode == "replace" {
				tokens[k] = append([]string(nil), ov.Tokens...)
			} else {
				tokens[k] = append(tokens[k], ov.Tokens...)
			}
		}
	}

	out := make(map[string][]Detector, len(tokens))
	for _, k := range domain.BucketKeys {
		seen := map[string]struct{}{}
		dets := make([]Detector, 0, len(tokens[k]))
		for _, tok := range tokens[k] {
			label := strings.ToLower(strings.TrimSpace(tok))
			if label == "" {
				continue
			}
			if _, dup := seen[label]; dup {
				continue
			}
			seen[label] = struct{}{}
			dets = append(dets, Detector{Label: label, Pattern: tokenPattern(label)})
		}
		out[k] = dets
	}
	return out
}

// BuildCooccurrence derives the co-occurrence pairs per bucket for a role context.
func BuildCooccurrence(roleContext string) map[string][]CooccurrencePair {
	t := signals()
	out := make(map[string][]CooccurrencePair, len(domain.BucketKeys))
	add := func(src map[string][][]string) {
		for _, k := range domain.BucketKeys {
			for _, p := range src[k] {
				if len(p) != 2 {
					continue
				}
				out[k] = append(out[k], CooccurrencePair{A: strings.ToLower(p[0]), B: strings.ToLower(p[1])})
			}
		}
	}
	add(t.Cooccurrence)
	rc := strings.ToLower(roleContext)
	for _, d := range t.Disciplines {
		if hasAny(rc, d.Triggers) {
			add(d.Cooccurrence)
		}
	}
	return out
}

// Model bundles the detectors and pairs for one role context.
type Model struct {
	Detectors map[string][]Detector
	Pairs     map[string][]CooccurrencePair
}

// BuildModel builds the full keyword model for a role context.
func BuildModel(roleContext string) Model {
	return Model{
		Detectors: BuildKeywords(roleContext),
		Pairs:     BuildCooccurrence(roleContext),
	}
}
