// Package anonymizer removes personal data from report text.
// Redaction runs in two passes:
//  1. Entity pass: compiled patterns for structured identifiers (e-mail,
//     phone, DNI/NIE, IBAN, card numbers, IPs, dates) and labelled person names.
//     Each match is replaced by a typed placeholder such as <PERSON>.
//  2. Keyword pass: a fixed list of literals and patterns loaded from
//     configuration is scrubbed from whatever the entity pass left.
package anonymizer

import (
	"regexp"
	"strings"
)

// EntityType classifies the kind of personal data found.
type EntityType string

// Supported entity types; the placeholder written into the text is "<" + type + ">".
const (
	EntityEmail      EntityType = "EMAIL_ADDRESS"
	EntityPhone      EntityType = "PHONE_NUMBER"
	EntityIDNumber   EntityType = "ID_NUMBER"
	EntityIBAN       EntityType = "IBAN_CODE"
	EntityCreditCard EntityType = "CREDIT_CARD"
	EntityIPAddress  EntityType = "IP_ADDRESS"
	EntityDate       EntityType = "DATE_TIME"
	EntityPerson     EntityType = "PERSON"
)

// Placeholder returns the token that replaces an entity of type t.
func (t EntityType) Placeholder() string { return "<" + string(t) + ">" }

// pattern pairs a compiled regex with its entity type. When group is non-zero
// only that capture group is replaced, keeping labels such as "Paciente:".
type pattern struct {
	re     *regexp.Regexp
	entity EntityType
	group  int
}

// Order matters: long structured identifiers go first so shorter patterns
// (phones, DNI) cannot eat part of them.
var entitySpecs = []struct {
	expr   string
	entity EntityType
	group  int
}{
	{`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`, EntityEmail, 0},
	{`\b[A-Z]{2}\d{2}(?:[ ]?[A-Z0-9]{4}){4,7}(?:[ ]?[A-Z0-9]{1,3})?\b`, EntityIBAN, 0},
	{`\b(?:\d{4}[ \-]?){3}\d{4}\b`, EntityCreditCard, 0},
	{`\b[XYZxyz][ \-]?\d{7}[ \-]?[A-Za-z]\b`, EntityIDNumber, 0},
	{`\b\d{8}[ \-]?[A-Za-z]\b`, EntityIDNumber, 0},
	{`(?:\+34[ .\-]?|\b)[6789]\d{2}[ .\-]?\d{3}[ .\-]?\d{3}\b`, EntityPhone, 0},
	{`(?:\+34[ .\-]?|\b)[89]\d[ .\-]?\d{3}[ .\-]?\d{2}[ .\-]?\d{2}\b`, EntityPhone, 0},
	{`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`, EntityIPAddress, 0},
	{`\b\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4}\b`, EntityDate, 0},
	{`\b(?:[Pp]aciente|[Nn]ombre|[Aa]pellidos|Sr\.|Sra\.|Dr\.|Dra\.|Don|Doña)[ \t]*:?[ \t]*` +
		`(\p{Lu}[\p{Ll}'\-]+(?:[ \t]+(?:de[ \t]+(?:la[ \t]+)?|del[ \t]+)?\p{Lu}[\p{Ll}'\-]+){0,3})`, EntityPerson, 1},
}

// EntityRedactor replaces detected entities with typed placeholders.
type EntityRedactor struct {
	patterns []pattern
}

// NewEntityRedactor compiles the built-in entity patterns.
func NewEntityRedactor() *EntityRedactor {
	r := &EntityRedactor{}
	for _, s := range entitySpecs {
		r.patterns = append(r.patterns, pattern{re: regexp.MustCompile(s.expr), entity: s.entity, group: s.group})
	}
	return r
}

// Redact returns text with every detected entity replaced.
func (r *EntityRedactor) Redact(text string) string {
	if text == "" {
		return text
	}
	result := text
	for _, p := range r.patterns {
		if p.group == 0 {
			result = p.re.ReplaceAllLiteralString(result, p.entity.Placeholder())
			continue
		}
		result = replaceGroup(p.re, result, p.group, p.entity.Placeholder())
	}
	return result
}

// replaceGroup replaces capture group g of every match of re in s.
func replaceGroup(re *regexp.Regexp, s string, g int, repl string) string {
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[2*g], m[2*g+1]
		if start < 0 {
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(repl)
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}

// Anonymizer chains the entity pass and the keyword pass.
type Anonymizer struct {
	entities *EntityRedactor
	keywords *KeywordRedactor
}

// New returns an Anonymizer applying the entity pass and then keywords.
func New(keywords *KeywordRedactor) *Anonymizer {
	if keywords == nil {
		keywords = &KeywordRedactor{}
	}
	return &Anonymizer{entities: NewEntityRedactor(), keywords: keywords}
}

// Anonymize runs the entity pass followed by the keyword pass.
func (a *Anonymizer) Anonymize(text string) string {
	return a.keywords.Redact(a.entities.Redact(text))
}
