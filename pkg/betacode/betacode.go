package betacode

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Converter translates polytonic Greek to and from Beta Code, the legacy
// 7-bit transliteration used by the LSJ source files. The two mapping tables
// are loaded from disk once at construction; they are structural inverses of
// each other (betaToUni keys may be multi-character, uniToBeta keys are
// single runes).
type Converter struct {
	betaToUni map[string]string
	uniToBeta map[string]string
	// Longest betaToUni key, in runes. Bounds the greedy scan in Decode.
	maxBetaKeyLen int
}

// NewConverter loads the two mapping files. A missing or unparseable file is
// an error; callers are expected to fail fast rather than run with a partial
// codec.
func NewConverter(betaToUniPath, uniToBetaPath string) (*Converter, error) {
	betaToUni, err := loadMapping(betaToUniPath)
	if err != nil {
		return nil, fmt.Errorf("beta-to-unicode mapping: %w", err)
	}
	uniToBeta, err := loadMapping(uniToBetaPath)
	if err != nil {
		return nil, fmt.Errorf("unicode-to-beta mapping: %w", err)
	}

	maxLen := 0
	for k := range betaToUni {
		if n := len([]rune(k)); n > maxLen {
			maxLen = n
		}
	}

	return &Converter{
		betaToUni:     betaToUni,
		uniToBeta:     uniToBeta,
		maxBetaKeyLen: maxLen,
	}, nil
}

func loadMapping(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string)
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}

// Encode converts Unicode Greek to Beta Code. Input is NFC-normalized and
// each rune is mapped through the table; unmapped runes pass through
// verbatim. Encode is total: every input produces output.
func (c *Converter) Encode(greek string) string {
	if greek == "" {
		return ""
	}
	normalized := norm.NFC.String(greek)
	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		if beta, ok := c.uniToBeta[string(r)]; ok {
			b.WriteString(beta)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Decode converts Beta Code back to Unicode Greek with a greedy
// longest-match scan: at each position the longest known key wins, and an
// unmatched rune is copied through unchanged. Decode never fails and never
// drops input, at the cost of being approximate for malformed text.
//
// Decode(Encode(s)) == s holds for NFC input whose runes are covered by the
// tables; decomposed/precomposed diacritic ambiguity is a known exception.
func (c *Converter) Decode(beta string) string {
	if beta == "" {
		return ""
	}
	runes := []rune(norm.NFC.String(beta))
	n := len(runes)

	var b strings.Builder
	b.Grow(len(beta))
	i := 0
	for i < n {
		matched := false
		limit := c.maxBetaKeyLen
		if rest := n - i; rest < limit {
			limit = rest
		}
		for length := limit; length > 0; length-- {
			if uni, ok := c.betaToUni[string(runes[i:i+length])]; ok {
				b.WriteString(uni)
				i += length
				matched = true
				break
			}
		}
		if !matched {
			b.WriteRune(runes[i])
			i++
		}
	}
	return b.String()
}

// Canonicalize derives the diacritic- and case-insensitive join key from a
// Beta Code string: NFD-decompose, keep only Letter-category runes (Beta
// Code diacritic markers are punctuation and fall out here), lowercase,
// recompose. Idempotent, and insensitive to combining-mark order since NFD
// reorders marks canonically.
func (c *Converter) Canonicalize(beta string) string {
	if beta == "" {
		return ""
	}
	decomposed := norm.NFD.String(beta)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return norm.NFC.String(strings.ToLower(b.String()))
}

// SanitizeGreek strips editorial vowel-length marks (macron U+0304 and
// breve U+0306) that appear in dictionary headwords but never in running
// text. Other diacritics are kept.
func SanitizeGreek(word string) string {
	if word == "" {
		return ""
	}
	decomposed := norm.NFD.String(word)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if r == 0x0304 || r == 0x0306 {
			continue
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}
