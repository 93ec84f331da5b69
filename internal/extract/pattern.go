package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/contract"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

// topicPattern maps a clause topic to the keywords that identify it.
type topicPattern struct {
	topic   string
	pattern *regexp.Regexp
}

var topicPatterns = []topicPattern{
	{"Indemnification", regexp.MustCompile(`(?i)indemnif\w*|hold\s+harmless`)},
	{"Liability", regexp.MustCompile(`(?i)limitation\s+of\s+liability|liability\s+(cap|limit)`)},
	{"Confidentiality", regexp.MustCompile(`(?i)confidential\w*|non-disclosure|\bNDA\b`)},
	{"Termination", regexp.MustCompile(`(?i)terminat\w*|cancel\w*`)},
	{"IP Rights", regexp.MustCompile(`(?i)intellectual\s+property|\bIP\s+rights|copyright|patent`)},
}

var (
	sectionHeading = regexp.MustCompile(`(?m)^[ \t]*(\d+)\.[ \t]+`)
	partyPattern   = regexp.MustCompile(`(?i)\b(Developer|Client|Contractor|Company|Vendor|Provider|Customer|Supplier|Licensor|Licensee)\b`)
	sectionRef     = regexp.MustCompile(`(?i)\bSection\s+(\d+)\b`)
)

var (
	obligationWords     = []string{"agrees to", "shall", "must", "will"}
	unlimitedWords      = []string{"unlimited", "without limit"}
	liabilityCapWords   = []string{"limited to", "cap", "shall not exceed"}
	contradictionAdvice = "Immediate legal review required."
)

// PartyType is the entity type assigned to detected parties.
const PartyType = "Party"

// PatternExtractor finds clauses, parties and relationships with keyword
// patterns. It needs no network access and is deterministic.
type PatternExtractor struct{}

// NewPatternExtractor creates a pattern extractor.
func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{}
}

type section struct {
	number string
	text   string
}

// Extract splits text into numbered sections and classifies each one.
// Sections without a recognised topic produce no clause.
func (e *PatternExtractor) Extract(ctx context.Context, text string) (contract.Extraction, error) {
	if err := ctx.Err(); err != nil {
		return contract.Extraction{}, types.NewExtractionError("extraction cancelled", text, err)
	}
	if strings.TrimSpace(text) == "" {
		return contract.Extraction{}, types.NewExtractionError("contract text is empty", "", nil)
	}

	var out contract.Extraction
	seenParty := make(map[string]bool)

	for _, sec := range splitSections(text) {
		if topic, ok := classify(sec.text); ok {
			out.Clauses = append(out.Clauses, contract.Clause{
				ID:            fmt.Sprintf("%d", len(out.Clauses)+1),
				Text:          sec.text,
				Topic:         topic,
				SectionNumber: sec.number,
			})
		}
		for _, m := range partyPattern.FindAllStringSubmatch(sec.text, -1) {
			name := titleCase(m[1])
			if seenParty[name] {
				continue
			}
			seenParty[name] = true
			out.Entities = append(out.Entities, contract.Entity{Name: name, Type: PartyType})
		}
	}

	out.Relationships = append(out.Relationships, linkParties(out.Clauses, out.Entities)...)
	out.Relationships = append(out.Relationships, crossReferences(out.Clauses)...)

	if rel, risk, ok := detectContradiction(out.Clauses); ok {
		out.Relationships = append(out.Relationships, rel)
		out.Risks = append(out.Risks, risk)
	}
	return out, nil
}

// splitSections cuts text at numbered headings such as "3. ". Text before
// the first heading becomes a section with no number.
func splitSections(text string) []section {
	matches := sectionHeading.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []section{{text: strings.TrimSpace(text)}}
	}

	var out []section
	if pre := strings.TrimSpace(text[:matches[0][0]]); pre != "" {
		out = append(out, section{text: pre})
	}
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(text[m[1]:end])
		if body == "" {
			continue
		}
		out = append(out, section{number: text[m[2]:m[3]], text: body})
	}
	return out
}

// classify picks the topic whose keywords appear earliest in text, so a
// "Limitation of Liability" section that mentions indemnification further
// down is still a Liability clause. Ties go to the earlier pattern.
func classify(text string) (string, bool) {
	best, bestAt := "", -1
	for _, tp := range topicPatterns {
		loc := tp.pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if bestAt < 0 || loc[0] < bestAt {
			best, bestAt = tp.topic, loc[0]
		}
	}
	return best, bestAt >= 0
}

// linkParties emits PARTY_TO for every party a clause mentions and
// OBLIGATES when that clause also uses obligation language.
func linkParties(clauses []contract.Clause, parties []contract.Entity) []contract.Relationship {
	var out []contract.Relationship
	for _, c := range clauses {
		lower := strings.ToLower(c.Text)
		obliges := containsAny(lower, obligationWords)
		for _, p := range parties {
			if !mentions(lower, strings.ToLower(p.Name)) {
				continue
			}
			out = append(out, contract.PartyTo(p.Name, c.ID))
			if obliges {
				out = append(out, contract.Obligation(c.ID, p.Name))
			}
		}
	}
	return out
}

// crossReferences emits REFERENCES for "Section N" mentions that resolve
// to another extracted clause.
func crossReferences(clauses []contract.Clause) []contract.Relationship {
	bySection := make(map[string]string, len(clauses))
	for _, c := range clauses {
		if c.SectionNumber != "" {
			bySection[c.SectionNumber] = c.ID
		}
	}

	var out []contract.Relationship
	for _, c := range clauses {
		seen := make(map[string]bool)
		for _, m := range sectionRef.FindAllStringSubmatch(c.Text, -1) {
			target, ok := bySection[m[1]]
			if !ok || target == c.ID || seen[target] {
				continue
			}
			seen[target] = true
			out = append(out, contract.ClauseLink(c.ID, target, contract.RelReferences, nil))
		}
	}
	return out
}

// detectContradiction flags an indemnity clause promising unlimited
// indemnification against a liability clause whose cap covers indemnity
// claims. The last clause of each topic is compared.
func detectContradiction(clauses []contract.Clause) (contract.Relationship, contract.Risk, bool) {
	var indemnity, liability *contract.Clause
	for i := range clauses {
		switch clauses[i].Topic {
		case "Indemnification":
			indemnity = &clauses[i]
		case "Liability":
			liability = &clauses[i]
		}
	}
	if indemnity == nil || liability == nil {
		return contract.Relationship{}, contract.Risk{}, false
	}

	indem := strings.ToLower(indemnity.Text)
	liab := strings.ToLower(liability.Text)
	if !containsAny(indem, unlimitedWords) || !containsAny(liab, liabilityCapWords) || !strings.Contains(liab, "indemnif") {
		return contract.Relationship{}, contract.Risk{}, false
	}

	reason := fmt.Sprintf("The %s clause states unlimited indemnification, while the %s clause caps all liability including indemnification claims. This creates legal ambiguity.",
		indemnity.Topic, liability.Topic)
	rel := contract.ClauseLink(indemnity.ID, liability.ID, contract.RelContradicts, map[string]any{
		"reason":   reason,
		"severity": string(contract.SeverityCritical),
	})
	risk := contract.Risk{
		ID:             fmt.Sprintf("risk-%s-%s", indemnity.ID, liability.ID),
		Severity:       contract.SeverityCritical,
		Description:    reason,
		Recommendation: contradictionAdvice,
		ClauseID:       indemnity.ID,
	}
	return rel, risk, true
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// mentions reports whether word appears in s on word boundaries.
func mentions(s, word string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], word)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(word)
		if (start == 0 || !isWordByte(s[start-1])) && (end == len(s) || !isWordByte(s[end])) {
			return true
		}
		i = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b < 0x80 && (unicode.IsLetter(rune(b)) || unicode.IsDigit(rune(b)))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
