package anonymizer

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultReplacement is written in place of every scrubbed keyword.
const DefaultReplacement = "[REDACTADO]"

// DefaultKeywords and DefaultPatterns are used when no redaction file is
// configured. They cover record-identifier labels that commonly precede data
// the entity pass misses.
var DefaultKeywords = []string{
	"Número de historia clínica",
	"Nº historia clínica",
	"Tarjeta sanitaria",
}

// Short codes would hit inside ordinary words ("principal"), so they are only
// matched at the start of a word; trailing digits are still scrubbed (NHC12345).
var DefaultPatterns = []string{
	`(?i)\bNHC`,
	`(?i)\bNUSS`,
	`(?i)\bCIP`,
}

// KeywordList is the on-disk format of the redaction file:
//
//	keywords: ["Hospital Universitario X", "NHC"]
//	patterns: ['\bEXP-\d+\b']
//	replacement: "[REDACTADO]"
type KeywordList struct {
	Keywords    []string `yaml:"keywords"`
	Patterns    []string `yaml:"patterns"`
	Replacement string   `yaml:"replacement"`
}

// KeywordRedactor scrubs a fixed set of literals (case-insensitive) and patterns.
type KeywordRedactor struct {
	res         []*regexp.Regexp
	replacement string
}

// NewKeywordRedactor compiles the list. Literals are matched case-insensitively;
// patterns use RE2 syntax as written.
func NewKeywordRedactor(list KeywordList) (*KeywordRedactor, error) {
	r := &KeywordRedactor{replacement: list.Replacement}
	if r.replacement == "" {
		r.replacement = DefaultReplacement
	}
	for _, kw := range list.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		r.res = append(r.res, regexp.MustCompile(literalExpr(kw)))
	}
	for _, expr := range list.Patterns {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile redaction pattern %q: %w", expr, err)
		}
		r.res = append(r.res, re)
	}
	return r, nil
}

// literalExpr matches every occurrence of kw, case-insensitively, including
// occurrences glued to digits or to a longer word.
func literalExpr(kw string) string {
	return `(?i)` + regexp.QuoteMeta(kw)
}

// LoadKeywordRedactor reads a YAML redaction file; an empty path selects
// DefaultKeywords and DefaultPatterns.
func LoadKeywordRedactor(path string) (*KeywordRedactor, error) {
	if path == "" {
		return NewKeywordRedactor(KeywordList{Keywords: DefaultKeywords, Patterns: DefaultPatterns})
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read redaction file: %w", err)
	}
	var list KeywordList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode redaction file: %w", err)
	}
	return NewKeywordRedactor(list)
}

// Len reports how many keywords and patterns are active.
func (r *KeywordRedactor) Len() int { return len(r.res) }

// Redact replaces every occurrence of each keyword or pattern.
func (r *KeywordRedactor) Redact(text string) string {
	for _, re := range r.res {
		text = re.ReplaceAllLiteralString(text, r.replacement)
	}
	return text
}
