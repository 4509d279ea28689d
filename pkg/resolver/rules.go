package resolver

// MutationRule reverses one modern→ancient phonetic shift: when the modern
// form carries Suffix, each Replacement is substituted in turn to synthesize
// a candidate ancient spelling. Rules are probed strictly in table order, so
// new rules can be added and tested without touching resolver control flow.
type MutationRule struct {
	Suffix       string
	Replacements []string
}

// SuffixRule normalizes an inflected modern surface form toward its
// citation form. These are declarative string rewrites, not morphology.
type SuffixRule struct {
	Suffix      string
	Replacement string
}

// DefaultMutationRules restores contracted verb endings, the -νυμι nasal
// class, and neuter/adjective endings, in decreasing specificity.
func DefaultMutationRules() []MutationRule {
	return []MutationRule{
		{Suffix: "ιώνω", Replacements: []string{"οέω", "έω", "όω"}},
		{Suffix: "ώνω", Replacements: []string{"όω", "έω"}},
		{Suffix: "νύω", Replacements: []string{"νυμι"}},
		{Suffix: "άω", Replacements: []string{"ῶ", "άω"}},
		{Suffix: "ώ", Replacements: []string{"έω", "όω", "άω", "ω"}},
		{Suffix: "ον", Replacements: []string{"ος"}},
		{Suffix: "ο", Replacements: []string{"ος"}},
	}
}

// DefaultSurfaceRules maps common modern inflection endings back toward the
// dictionary citation form for the hail-mary retry.
func DefaultSurfaceRules() []SuffixRule {
	return []SuffixRule{
		{Suffix: "οί", Replacement: "ός"},
		{Suffix: "οι", Replacement: "ος"},
		{Suffix: "ές", Replacement: "ή"},
		{Suffix: "ες", Replacement: "η"},
		{Suffix: "ων", Replacement: "ος"},
		{Suffix: "ους", Replacement: "ος"},
		{Suffix: "εις", Replacement: "η"},
		{Suffix: "α", Replacement: "ος"},
	}
}

// DefaultProtheticVowels are tried as prefixes when modern aphaeresis has
// eaten the ancient initial vowel (μέρα ← ἡμέρα).
func DefaultProtheticVowels() []string {
	return []string{"ε", "α", "ο", "η"}
}

// DefaultPrefixes are derivational prefixes stripped during compound
// decomposition to expose a bare root.
func DefaultPrefixes() []string {
	return []string{
		"προσ", "προ", "ανα", "κατα", "δια", "επι", "παρα", "περι",
		"υπερ", "υπο", "συν", "εκ", "εισ", "απο", "μετα", "αντι",
	}
}

// DefaultAnchors flag an ancient-Greek ancestry statement in free-text
// etymology; DefaultBlacklist holds generic terms that follow anchors
// without naming the source word.
func DefaultAnchors() []string {
	return []string{"αρχαία", "αρχ", "ελληνική", "ελλ", "grc", "ancient", "greek"}
}

func DefaultBlacklist() []string {
	return []string{
		"ελληνικός", "ελληνική", "αρχαίος", "αρχαία", "κοινός", "κοινή",
		"νέα", "νέος", "μεσαιωνικός", "ancient", "greek",
	}
}
