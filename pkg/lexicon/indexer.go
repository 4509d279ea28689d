package lexicon

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/dkoutso/lexitheras/pkg/betacode"
)

// siblingWindow bounds the forward scan from a standalone quote element to
// its bibliography sibling.
const siblingWindow = 5

// DefaultGallerySize is K, the number of citations kept per entry.
const DefaultGallerySize = 3

var reDigits = regexp.MustCompile(`\d+`)

// Sense is one sense of a dictionary entry: a cleaned prose definition and
// its ranked citations, truncated to the gallery size.
type Sense struct {
	ID         string
	Definition string
	Citations  []Candidate
}

// Entry is one dictionary entry under its canonical join key. Entries whose
// key recurs across source files are merged: first non-empty value per
// field wins, list fields concatenate.
type Entry struct {
	CanonicalKey string
	Headword     string // original polytonic form
	OriginalKeys []string
	Definition   string
	Aorist       string
	Senses       []Sense
	// Citations holds the merged raw candidates from every file that
	// contributed to this key; the persisted gallery is derived from it.
	Citations []Candidate
}

// Indexer walks a directory of LSJ XML files and builds the in-memory
// canonical-key index the resolver matches against. Build the index fully
// before resolving; it is read-only afterwards and safe to share across
// resolver workers without locking.
type Indexer struct {
	conv        *betacode.Converter
	cfg         RankConfig
	GallerySize int
	// Logger receives skip diagnostics for malformed files/entries.
	// nil means no logging.
	Logger *log.Logger

	entries map[string]*Entry
}

func NewIndexer(conv *betacode.Converter, cfg RankConfig) *Indexer {
	return &Indexer{
		conv:        conv,
		cfg:         cfg,
		GallerySize: DefaultGallerySize,
		entries:     make(map[string]*Entry),
	}
}

// IndexDir parses every *.xml file under dir in name order. A file that
// fails to parse is logged and skipped; the batch continues.
func (ix *Indexer) IndexDir(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("lexicon dir: %w", err)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.xml"))
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			ix.logf("skipping %s: %v", path, err)
			continue
		}
		err = ix.IndexReader(f)
		f.Close()
		if err != nil {
			ix.logf("skipping %s: %v", path, err)
		}
	}
	return nil
}

// IndexReader parses one XML document and merges its entries into the index.
func (ix *Indexer) IndexReader(r io.Reader) error {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return err
	}
	for _, entry := range xmlquery.Find(doc, "//*[local-name()='entryFree']") {
		ix.processEntry(entry)
	}
	return nil
}

// Lookup returns the entry for a canonical key.
func (ix *Indexer) Lookup(key string) (*Entry, bool) {
	e, ok := ix.entries[key]
	return e, ok
}

// Contains reports whether a canonical key exists in the index.
func (ix *Indexer) Contains(key string) bool {
	_, ok := ix.entries[key]
	return ok
}

// Entries exposes the finished index. Treat as read-only.
func (ix *Indexer) Entries() map[string]*Entry { return ix.entries }

func (ix *Indexer) Len() int { return len(ix.entries) }

// GalleryFor derives the persisted citation gallery for an entry from its
// merged candidates.
func (ix *Indexer) GalleryFor(e *Entry) []string {
	return ix.cfg.Gallery(Rank(e.Citations), ix.GallerySize)
}

func (ix *Indexer) processEntry(node *xmlquery.Node) {
	headword := node.SelectAttr("headword")
	if headword == "" {
		if orth := findFirst(node, "orth"); orth != nil {
			headword = strings.TrimSpace(orth.InnerText())
		}
	}

	key := node.SelectAttr("key")
	var canon string
	if key != "" {
		canon = ix.conv.Canonicalize(key)
	} else if headword != "" {
		canon = ix.conv.Canonicalize(ix.conv.Encode(headword))
	}
	if canon == "" {
		ix.logf("skipping entry with empty canonical key (headword %q)", headword)
		return
	}
	if headword == "" && key != "" {
		headword = ix.conv.Decode(key)
	}

	senseNodes := findAll(node, "sense")
	senses := make([]Sense, 0, len(senseNodes))

	// Entry definition: the first sense that yields cleaned prose.
	entryDef := ""
	for _, sn := range senseNodes {
		def := CleanDefinition(cleanProse(proseText(sn), ix.conv))
		senses = append(senses, Sense{
			ID:         senseID(sn),
			Definition: def,
		})
		if entryDef == "" {
			entryDef = def
		}
	}

	// Citation evidence. The running translation is seeded with the entry
	// definition so implicit citations in a sense without local prose still
	// get a gloss.
	quote := ix.headwordQuote(key, headword)
	var all []Candidate
	lastTrans := entryDef
	for i, sn := range senseNodes {
		cands := ix.senseCandidates(sn, quote, &lastTrans)
		all = append(all, cands...)
		senses[i].Citations = truncate(Rank(cands), ix.GallerySize)
	}

	ix.merge(&Entry{
		CanonicalKey: canon,
		Headword:     headword,
		OriginalKeys: nonEmpty(key),
		Definition:   entryDef,
		Aorist:       ix.extractAorist(node),
		Senses:       senses,
		Citations:    all,
	})
}

// senseCandidates gathers citation evidence for one sense via the three
// structural strategies. Quote, translation and bibliography are not
// reliably parent-child in the source, so position matters more than tags.
func (ix *Indexer) senseCandidates(sense *xmlquery.Node, headQuote string, lastTrans *string) []Candidate {
	var cands []Candidate

	// Explicit containers: a cit element holding everything together. The
	// walk stops at nested senses, whose citations are gathered when the
	// nested sense itself is visited; one cit yields one candidate.
	for _, cit := range findAllUntil(sense, "cit", "sense") {
		if c, ok := ix.explicitCitation(cit); ok {
			cands = append(cands, c)
		}
	}

	children := elementChildren(sense)
	for i, child := range children {
		switch child.Data {
		case "tr":
			if t := strings.TrimSpace(child.InnerText()); t != "" {
				*lastTrans = t
			}

		case "foreign":
			// Sibling-window: standalone quote, bibliography within reach.
			bibl := scanForBibl(children, i)
			if bibl == nil {
				continue
			}
			greek := ix.decodeQuote(child.InnerText())
			raw := strings.TrimSpace(bibl.InnerText())
			trans := cleanTranslation(reSpaces.ReplaceAllString(textBetween(child, bibl), " "))
			cands = append(cands, Candidate{
				Quote:          greek,
				Translation:    trans,
				Author:         raw,
				Tier:           ix.cfg.AuthorTier(raw),
				Length:         len(strings.Fields(greek)),
				HasTranslation: trans != "",
			})

		case "bibl":
			// Implicit: a bare reference with no adjacent quote. Only
			// prestigious authors earn a citation built from the headword
			// and the running prose.
			if i > 0 && children[i-1].Data == "foreign" {
				continue // handled by the sibling-window strategy
			}
			raw := strings.TrimSpace(child.InnerText())
			tier := ix.cfg.AuthorTier(raw)
			if tier > 2 || *lastTrans == "" || headQuote == "" {
				continue
			}
			cands = append(cands, Candidate{
				Quote:          headQuote,
				Translation:    *lastTrans,
				Author:         raw,
				Tier:           tier,
				Length:         1,
				HasTranslation: true,
			})
		}
	}
	return cands
}

func (ix *Indexer) explicitCitation(cit *xmlquery.Node) (Candidate, bool) {
	quoteNode := findFirst(cit, "quote")
	if quoteNode == nil {
		return Candidate{}, false
	}
	greek := ix.decodeQuote(quoteNode.InnerText())
	if greek == "" {
		return Candidate{}, false
	}

	trans := ""
	if tr := findFirst(cit, "tr"); tr != nil {
		trans = strings.TrimSpace(tr.InnerText())
	} else if tr := findFirst(cit, "translation"); tr != nil {
		trans = strings.TrimSpace(tr.InnerText())
	}

	raw := ""
	if bibl := findFirst(cit, "bibl"); bibl != nil {
		raw = strings.TrimSpace(bibl.InnerText())
	}

	return Candidate{
		Quote:          greek,
		Translation:    trans,
		Author:         raw,
		Tier:           ix.cfg.AuthorTier(raw),
		Length:         len(strings.Fields(greek)),
		HasTranslation: trans != "",
	}, true
}

// extractAorist finds the aorist principal part: a tns marker mentioning
// "aor" followed by a quote that decodes to Greek, scanning in document
// order and resetting at the next bibliography or sense.
func (ix *Indexer) extractAorist(entry *xmlquery.Node) string {
	armed := false
	aorist := ""
	walk(entry, func(n *xmlquery.Node) bool {
		switch n.Data {
		case "tns":
			if strings.Contains(n.InnerText(), "aor") {
				armed = true
			}
		case "quote":
			if armed {
				if g := ix.conv.Decode(strings.TrimSpace(n.InnerText())); isGreek(g) {
					aorist = g
					return false
				}
			}
		case "bibl", "sense":
			armed = false
		}
		return true
	})
	return aorist
}

// decodeQuote decodes a Beta Code quote and drops editorial brackets.
func (ix *Indexer) decodeQuote(beta string) string {
	g := ix.conv.Decode(strings.TrimSpace(beta))
	g = strings.ReplaceAll(g, "[", "")
	g = strings.ReplaceAll(g, "]", "")
	return strings.TrimSpace(g)
}

// headwordQuote derives the quote used for implicit citations: the decoded
// entry key with homograph digits and vowel-length carets stripped.
func (ix *Indexer) headwordQuote(key, headword string) string {
	base := headword
	if key != "" {
		base = ix.conv.Decode(key)
	}
	base = strings.ReplaceAll(base, "^", "")
	return strings.TrimSpace(reDigits.ReplaceAllString(base, ""))
}

// merge folds a freshly parsed entry into the index. First-seen values win
// per field; lists concatenate (dedup for keys, re-ranked on demand for
// citations).
func (ix *Indexer) merge(e *Entry) {
	existing, ok := ix.entries[e.CanonicalKey]
	if !ok {
		ix.entries[e.CanonicalKey] = e
		return
	}
	if existing.Headword == "" {
		existing.Headword = e.Headword
	}
	switch {
	case existing.Definition == "":
		existing.Definition = e.Definition
	case e.Definition != "" && !strings.Contains(existing.Definition, e.Definition):
		existing.Definition += " | " + e.Definition
	}
	switch {
	case existing.Aorist == "":
		existing.Aorist = e.Aorist
	case e.Aorist != "" && e.Aorist != existing.Aorist:
		existing.Aorist += " / " + e.Aorist
	}
	for _, k := range e.OriginalKeys {
		if !contains(existing.OriginalKeys, k) {
			existing.OriginalKeys = append(existing.OriginalKeys, k)
		}
	}
	existing.Senses = append(existing.Senses, e.Senses...)
	existing.Citations = append(existing.Citations, e.Citations...)
}

func (ix *Indexer) logf(format string, args ...interface{}) {
	if ix.Logger != nil {
		ix.Logger.Printf(format, args...)
	}
}

// --- node helpers ---

// scanForBibl looks ahead up to siblingWindow element siblings for a bibl,
// aborting early if another quote begins first.
func scanForBibl(children []*xmlquery.Node, from int) *xmlquery.Node {
	for offset := 1; offset <= siblingWindow; offset++ {
		i := from + offset
		if i >= len(children) {
			return nil
		}
		switch children[i].Data {
		case "bibl":
			return children[i]
		case "foreign":
			return nil
		}
	}
	return nil
}

// textBetween collects all text positioned between two sibling elements,
// regardless of what tags it sits in.
func textBetween(start, end *xmlquery.Node) string {
	var parts []string
	for n := start.NextSibling; n != nil && n != end; n = n.NextSibling {
		switch n.Type {
		case xmlquery.TextNode, xmlquery.CharDataNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		case xmlquery.ElementNode:
			if t := strings.TrimSpace(n.InnerText()); t != "" {
				parts = append(parts, t)
			}
		}
	}
	joined := strings.Join(parts, " ")
	joined = strings.ReplaceAll(joined, " ,", ",")
	return strings.ReplaceAll(joined, " .", ".")
}

// proseText concatenates the readable prose of a subtree, skipping embedded
// citation and bibliography subtrees.
func proseText(n *xmlquery.Node) string {
	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.TextNode, xmlquery.CharDataNode:
			if t := strings.TrimSpace(c.Data); t != "" {
				parts = append(parts, t)
			}
		case xmlquery.ElementNode:
			if c.Data == "cit" || c.Data == "bibl" {
				continue
			}
			if t := proseText(c); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " ")
}

func senseID(n *xmlquery.Node) string {
	if id := n.SelectAttr("id"); id != "" {
		return id
	}
	return n.SelectAttr("n")
}

func elementChildren(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// findAll returns descendant elements with the given local name, in
// document order.
func findAll(n *xmlquery.Node, name string) []*xmlquery.Node {
	var out []*xmlquery.Node
	walk(n, func(d *xmlquery.Node) bool {
		if d != n && d.Data == name {
			out = append(out, d)
		}
		return true
	})
	return out
}

// findAllUntil returns descendant elements with the given local name, in
// document order, without descending into nested boundary elements.
func findAllUntil(n *xmlquery.Node, name, boundary string) []*xmlquery.Node {
	var out []*xmlquery.Node
	var rec func(*xmlquery.Node)
	rec = func(p *xmlquery.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != xmlquery.ElementNode || c.Data == boundary {
				continue
			}
			if c.Data == name {
				out = append(out, c)
			}
			rec(c)
		}
	}
	rec(n)
	return out
}

func findFirst(n *xmlquery.Node, name string) *xmlquery.Node {
	var found *xmlquery.Node
	walk(n, func(d *xmlquery.Node) bool {
		if d != n && d.Data == name {
			found = d
			return false
		}
		return true
	})
	return found
}

// walk visits element descendants in document order until fn returns false.
func walk(n *xmlquery.Node, fn func(*xmlquery.Node) bool) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		if !fn(c) {
			return false
		}
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func truncate(cands []Candidate, k int) []Candidate {
	if len(cands) > k {
		return cands[:k]
	}
	return cands
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
