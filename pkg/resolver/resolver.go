// Package resolver links modern Greek lemmas to ancient dictionary entries.
// Strategies run as a strict cascade: the first hit wins and later strategies
// never fire, so the mapping is deterministic for a fixed index and rule set.
package resolver

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/dkoutso/lexitheras/pkg/betacode"
	"github.com/dkoutso/lexitheras/pkg/lemma"
)

// Index is the read-only dictionary surface the resolver probes. Keys are
// canonical Beta Code join keys.
type Index interface {
	Contains(key string) bool
}

// Config carries the rule tables. All fields have working defaults from
// DefaultConfig; tests swap in smaller tables.
type Config struct {
	MaxHops         int
	Anchors         []string
	Blacklist       []string
	SourceLang      string
	MutationRules   []MutationRule
	SurfaceRules    []SuffixRule
	ProtheticVowels []string
	Prefixes        []string
}

// DefaultConfig returns the production rule set with a two-hop hunt bound.
func DefaultConfig() Config {
	return Config{
		MaxHops:         2,
		Anchors:         DefaultAnchors(),
		Blacklist:       DefaultBlacklist(),
		SourceLang:      "grc",
		MutationRules:   DefaultMutationRules(),
		SurfaceRules:    DefaultSurfaceRules(),
		ProtheticVowels: DefaultProtheticVowels(),
		Prefixes:        DefaultPrefixes(),
	}
}

// Resolver holds the shared read-only state. Safe for concurrent use once
// constructed: nothing here mutates after New.
type Resolver struct {
	conv      *betacode.Converter
	index     Index
	known     lemma.Set
	cfg       Config
	anchors   map[string]struct{}
	blacklist map[string]struct{}
}

// New builds a resolver over a populated index and the known-lemma set used
// by the recursive hunt. known may be nil when hunting is not wanted.
func New(conv *betacode.Converter, index Index, known lemma.Set, cfg Config) *Resolver {
	r := &Resolver{
		conv:      conv,
		index:     index,
		known:     known,
		cfg:       cfg,
		anchors:   make(map[string]struct{}, len(cfg.Anchors)),
		blacklist: make(map[string]struct{}, len(cfg.Blacklist)),
	}
	for _, a := range cfg.Anchors {
		r.anchors[sanitizeToken(a)] = struct{}{}
	}
	for _, b := range cfg.Blacklist {
		r.blacklist[sanitizeToken(b)] = struct{}{}
	}
	return r
}

// Resolve runs the full cascade for one lemma. The returned key is the
// canonical dictionary key; ok is false when every strategy misses, which is
// the normal outcome for loanwords and is not logged per word.
func (r *Resolver) Resolve(l *lemma.Lemma) (string, bool) {
	if l == nil || l.Text == "" {
		return "", false
	}
	if key, ok := r.resolveShallow(l.Text, l.EtymologyText, l.Templates); ok {
		return key, true
	}
	if key, ok := r.hunt(l.Text, l.EtymologyText, r.cfg.MaxHops); ok {
		return key, true
	}
	if key, ok := r.mutate(l.Text); ok {
		return key, true
	}
	return r.decompose(l.Text)
}

// resolveShallow is the non-recursive front of the cascade: direct probe,
// etymology extraction, then suffix-normalized retry.
func (r *Resolver) resolveShallow(text, etym string, templates []lemma.Template) (string, bool) {
	if key, ok := r.probe(text); ok {
		return key, true
	}
	if key, ok := r.fromEtymology(text, etym, templates); ok {
		return key, true
	}
	for _, rule := range r.cfg.SurfaceRules {
		if !strings.HasSuffix(text, rule.Suffix) {
			continue
		}
		cand := strings.TrimSuffix(text, rule.Suffix) + rule.Replacement
		if key, ok := r.probe(cand); ok {
			return key, true
		}
	}
	return "", false
}

// probe canonicalizes a surface form and asks the index for it.
func (r *Resolver) probe(word string) (string, bool) {
	clean := betacode.SanitizeGreek(word)
	key := r.conv.Canonicalize(r.conv.Encode(clean))
	if key == "" {
		return "", false
	}
	if r.index.Contains(key) {
		return key, true
	}
	return "", false
}

type etymCandidate struct {
	word string
	key  string
	sim  float64
	pos  int
}

// fromEtymology mines both etymology surfaces. Structured templates name the
// ancestor outright; free text is scanned for anchor phrases ("αρχαία
// ελληνική ...") with a bounded lookahead past the anchor. When several
// candidates survive the index probe, the one most similar to the modern
// form wins, ties broken by extraction order.
func (r *Resolver) fromEtymology(text, etym string, templates []lemma.Template) (string, bool) {
	var cands []etymCandidate
	add := func(word string) {
		word = sanitizeToken(word)
		if len([]rune(word)) < 2 {
			return
		}
		if _, banned := r.blacklist[word]; banned {
			return
		}
		if key, ok := r.probe(word); ok {
			cands = append(cands, etymCandidate{
				word: word,
				key:  key,
				sim:  similarity(text, word),
				pos:  len(cands),
			})
		}
	}

	for _, tpl := range templates {
		if w := templateAncestor(tpl, r.cfg.SourceLang); w != "" {
			add(w)
		}
	}

	tokens := strings.Fields(etym)
	for i, tok := range tokens {
		if _, ok := r.anchors[sanitizeToken(tok)]; !ok {
			continue
		}
		// The source word sits within a few tokens of the anchor.
		for off := 1; off <= 3 && i+off < len(tokens); off++ {
			add(tokens[i+off])
		}
	}

	if len(cands) == 0 {
		return "", false
	}
	sort.SliceStable(cands, func(a, b int) bool {
		if cands[a].sim != cands[b].sim {
			return cands[a].sim > cands[b].sim
		}
		return cands[a].pos < cands[b].pos
	})
	return cands[0].key, true
}

// templateAncestor pulls the ancestor word out of one etymology template.
// Positional templates put the source language in arg "2" and the word in
// arg "3"; named-argument templates use "word" or "term".
func templateAncestor(tpl lemma.Template, sourceLang string) string {
	if tpl.Args == nil {
		return ""
	}
	if tpl.Args["2"] == sourceLang {
		return tpl.Args["3"]
	}
	for _, k := range []string{"word", "term", "3"} {
		if v := tpl.Args[k]; v != "" && tpl.Args["2"] == "" {
			return v
		}
	}
	return ""
}

// hunt walks form_of style ancestry: any etymology token that is itself a
// known modern lemma gets the shallow cascade applied to it, then its own
// etymology, down to hops levels. Depth is bounded so cyclic etymologies
// cannot loop.
func (r *Resolver) hunt(text, etym string, hops int) (string, bool) {
	if hops <= 0 || etym == "" || r.known == nil {
		return "", false
	}
	for _, tok := range strings.Fields(etym) {
		clean := sanitizeToken(tok)
		if len([]rune(clean)) < 3 || clean == text {
			continue
		}
		parent, ok := r.known[clean]
		if !ok {
			continue
		}
		if key, ok := r.resolveShallow(parent.Text, parent.EtymologyText, parent.Templates); ok {
			return key, true
		}
		if key, ok := r.hunt(parent.Text, parent.EtymologyText, hops-1); ok {
			return key, true
		}
	}
	return "", false
}

// mutate synthesizes ancient spellings from the rule table and probes each
// in order. Prothetic vowels are then tried against the raw form and every
// synthesized candidate, covering aphaeresis on top of a suffix shift.
func (r *Resolver) mutate(text string) (string, bool) {
	candidates := []string{}
	for _, rule := range r.cfg.MutationRules {
		if !strings.HasSuffix(text, rule.Suffix) {
			continue
		}
		stem := strings.TrimSuffix(text, rule.Suffix)
		for _, repl := range rule.Replacements {
			candidates = append(candidates, stem+repl)
		}
	}
	for _, cand := range candidates {
		if key, ok := r.probe(cand); ok {
			return key, true
		}
	}
	for _, v := range r.cfg.ProtheticVowels {
		if key, ok := r.probe(v + text); ok {
			return key, true
		}
		for _, cand := range candidates {
			if key, ok := r.probe(v + cand); ok {
				return key, true
			}
		}
	}
	return "", false
}

// decompose strips one derivational prefix and probes the remaining root.
// Roots shorter than three runes are too ambiguous to trust.
func (r *Resolver) decompose(text string) (string, bool) {
	for _, p := range r.cfg.Prefixes {
		if !strings.HasPrefix(text, p) {
			continue
		}
		root := strings.TrimPrefix(text, p)
		if len([]rune(root)) < 3 {
			continue
		}
		if key, ok := r.probe(root); ok {
			return key, true
		}
	}
	return "", false
}

// sanitizeToken lowercases and strips everything that is not a letter, so
// punctuation-wrapped etymology tokens ("θεολόγος," or "*qeo/s") compare
// cleanly against anchors, blacklist, and the known-lemma set.
func sanitizeToken(tok string) string {
	var b strings.Builder
	for _, r := range tok {
		if unicode.IsLetter(r) || unicode.IsMark(r) {
			b.WriteRune(r)
		}
	}
	return strings.ToLower(b.String())
}

// similarity is a normalized Levenshtein ratio in [0, 1].
func similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	max := la
	if lb > max {
		max = lb
	}
	if max == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(max)
}
