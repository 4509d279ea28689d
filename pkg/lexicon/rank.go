package lexicon

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Candidate is one piece of citation evidence gathered for a sense. It is
// ephemeral: candidates exist to be ranked and formatted, and only the
// formatted gallery strings are persisted.
type Candidate struct {
	Quote          string
	Translation    string
	Author         string // raw bibliographic label, abbreviations intact
	Tier           int    // 1 best .. 5 discard
	Length         int    // word count of Quote
	HasTranslation bool
}

// RankConfig carries the editorial author-prestige lists and the
// abbreviation expansions. The tier lists encode judgment calls we do not
// second-guess; they are supplied as external, versioned configuration and
// injected into the indexer rather than living in package globals.
type RankConfig struct {
	Tier1         []string          `json:"tier1"` // poets
	Tier2         []string          `json:"tier2"` // philosophers
	Tier3         []string          `json:"tier3"` // historians
	Noise         []string          `json:"noise"` // forced to tier 5
	Abbreviations map[string]string `json:"abbreviations"`
}

// DefaultRankConfig returns the built-in tier lists.
func DefaultRankConfig() RankConfig {
	return RankConfig{
		Tier1: []string{"Soph.", "S.", "Aesch.", "A.", "Eur.", "E.", "Hom.", "Il.", "Od.", "Pind.", "Pi.", "Hes."},
		Tier2: []string{"Pl.", "Arist.", "X."},
		Tier3: []string{"Hdt.", "Th.", "D.H.", "Plb."},
		Noise: []string{"IG", "Schol."},
	}
}

// LoadRankConfig reads a RankConfig from a JSON file.
func LoadRankConfig(path string) (RankConfig, error) {
	var cfg RankConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse rank config %s: %w", path, err)
	}
	return cfg, nil
}

// AuthorTier maps a raw bibliographic label to its prestige tier. Unknown
// authors default to tier 4; known noise sources are forced to tier 5.
func (cfg RankConfig) AuthorTier(author string) int {
	if author == "" {
		return 4
	}
	for _, a := range cfg.Tier1 {
		if strings.Contains(author, a) {
			return 1
		}
	}
	for _, a := range cfg.Tier2 {
		if strings.Contains(author, a) {
			return 2
		}
	}
	for _, a := range cfg.Tier3 {
		if strings.Contains(author, a) {
			return 3
		}
	}
	for _, a := range cfg.Noise {
		if strings.Contains(author, a) {
			return 5
		}
	}
	return 4
}

// ExpandAuthor rewrites each token of a bibliographic label through the
// abbreviation map, so "Pl. Rep." can render as "Plato Republic".
func (cfg RankConfig) ExpandAuthor(label string) string {
	if label == "" || len(cfg.Abbreviations) == 0 {
		return label
	}
	tokens := strings.Fields(label)
	expanded := make([]string, 0, len(tokens))
	for _, t := range tokens {
		key := strings.Trim(t, ".,;") + "."
		if v, ok := cfg.Abbreviations[key]; ok {
			expanded = append(expanded, v)
		} else if v, ok := cfg.Abbreviations[t]; ok {
			expanded = append(expanded, v)
		} else {
			expanded = append(expanded, t)
		}
	}
	return strings.Join(expanded, " ")
}

// Rank applies the waterfall sort and drops disqualified candidates:
// tier ascending, translated before untranslated at equal tier, longer
// quotes first at equal tier and translation status. Tier-5 and zero-length
// candidates never survive. The sort is stable, so ranking an already
// ranked list is a no-op.
func Rank(candidates []Candidate) []Candidate {
	ranked := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Tier < 5 && c.Length > 0 {
			ranked = append(ranked, c)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Tier != b.Tier {
			return a.Tier < b.Tier
		}
		if a.HasTranslation != b.HasTranslation {
			return a.HasTranslation
		}
		return a.Length > b.Length
	})
	return ranked
}

// Gallery curates up to k formatted citations from ranked candidates,
// preferring author diversity: a candidate whose primary author already
// appears is skipped, unless fewer than k distinct authors exist among the
// qualifying candidates — sparse evidence still fills the gallery.
func (cfg RankConfig) Gallery(ranked []Candidate, k int) []string {
	if len(ranked) == 0 || k <= 0 {
		return nil
	}

	distinct := make(map[string]struct{})
	for _, c := range ranked {
		distinct[cfg.primaryAuthor(c.Author)] = struct{}{}
	}
	enforceDiversity := len(distinct) >= k

	var gallery []string
	seen := make(map[string]struct{})
	for _, c := range ranked {
		if len(gallery) >= k {
			break
		}
		main := cfg.primaryAuthor(c.Author)
		if _, dup := seen[main]; dup && enforceDiversity {
			continue
		}
		gallery = append(gallery, cfg.FormatCitation(c))
		seen[main] = struct{}{}
	}
	return gallery
}

// FormatCitation renders a candidate as "{quote} '{translation}' ({author})",
// omitting the quoted translation segment when absent.
func (cfg RankConfig) FormatCitation(c Candidate) string {
	var b strings.Builder
	b.WriteString(c.Quote)
	if c.Translation != "" {
		b.WriteString(" '")
		b.WriteString(c.Translation)
		b.WriteString("'")
	}
	b.WriteString(" (")
	b.WriteString(cfg.ExpandAuthor(c.Author))
	b.WriteString(")")
	return b.String()
}

func (cfg RankConfig) primaryAuthor(label string) string {
	expanded := cfg.ExpandAuthor(label)
	fields := strings.Fields(expanded)
	if len(fields) == 0 {
		return "Unknown"
	}
	return fields[0]
}
