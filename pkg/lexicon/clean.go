package lexicon

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/dkoutso/lexitheras/pkg/betacode"
)

var (
	reGramNoise  = regexp.MustCompile(`(?i)\b(c\. gen\.|c\. acc\.|folld\. by|cf\.)\s*`)
	reSemicolons = regexp.MustCompile(`;+`)
	reSpaces     = regexp.MustCompile(`\s+`)
	// Beta Code diacritic markers; prose containing these needs decoding.
	reBetaMarker = regexp.MustCompile(`[\\/=|]`)
)

// translation fragments that are bibliographic filler, not glosses
var fillerTranslations = map[string]struct{}{
	"ib": {}, "id": {}, "ibid": {}, "op. cit.": {}, "loc. cit.": {},
}

// cleanProse strips grammatical shorthand and collapses whitespace, then
// decodes any embedded Beta Code tokens back to Greek.
func cleanProse(text string, conv *betacode.Converter) string {
	if text == "" {
		return ""
	}
	text = reGramNoise.ReplaceAllString(text, "")
	text = reSemicolons.ReplaceAllString(text, ";")
	text = reSpaces.ReplaceAllString(text, " ")

	if reBetaMarker.MatchString(text) {
		fields := strings.Split(text, " ")
		for i, tok := range fields {
			if tok != "" && reBetaMarker.MatchString(tok) {
				fields[i] = conv.Decode(tok)
			}
		}
		text = strings.Join(fields, " ")
	}
	return strings.TrimSpace(text)
}

// CleanDefinition deduplicates and de-noises a definition by its
// semicolon-delimited clauses: over-short capitalized filler, bracketed
// cross-references and journal-reference fragments are dropped.
func CleanDefinition(text string) string {
	if text == "" {
		return ""
	}
	parts := strings.Split(text, ";")
	var clean []string
	seen := make(map[string]struct{})
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if isShortBiblFiller(part) {
			continue
		}
		if strings.Contains(part, "Études") || strings.Contains(part, "Rev.") {
			continue
		}
		if strings.Contains(part, "[") && strings.Contains(part, "]") {
			continue
		}
		if _, dup := seen[part]; dup {
			continue
		}
		seen[part] = struct{}{}
		clean = append(clean, part)
	}
	out := strings.Join(clean, "; ")
	// Dangling articles left by clause surgery.
	if strings.HasSuffix(out, " the") {
		out = strings.TrimSuffix(out, " the")
	} else if strings.HasSuffix(out, " a") {
		out = strings.TrimSuffix(out, " a")
	}
	return out
}

// isShortBiblFiller matches clauses like "Hdt." or "Lys." that survive
// prose extraction: short, starts uppercase, ends with a period.
func isShortBiblFiller(part string) bool {
	if len(part) >= 20 || !strings.HasSuffix(part, ".") {
		return false
	}
	r := []rune(part)[0]
	return unicode.IsUpper(r)
}

// cleanTranslation strips padding from an inter-sibling prose fragment and
// rejects filler tokens and fragments shorter than 2 characters.
func cleanTranslation(text string) string {
	text = strings.Trim(text, " [](),;.")
	if len([]rune(text)) < 2 {
		return ""
	}
	if _, filler := fillerTranslations[strings.ToLower(text)]; filler {
		return ""
	}
	return text
}

// isGreek reports whether text contains at least one Greek codepoint
// (basic or extended polytonic block).
func isGreek(text string) bool {
	for _, r := range text {
		if (r >= 0x0370 && r <= 0x03FF) || (r >= 0x1F00 && r <= 0x1FFF) {
			return true
		}
	}
	return false
}
