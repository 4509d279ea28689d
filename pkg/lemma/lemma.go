// Package lemma reads the modern-Greek lemma dump: newline-delimited JSON,
// one kaikki-style record per line, carrying free-text etymology and/or
// structured etymology templates for the resolver.
package lemma

import (
	"bufio"
	"encoding/json"
	"io"
	"log"
	"os"
	"strings"
)

// Template is one structured etymology record: a template name plus a
// mapping of positional ("1", "2", ...) and named argument keys to values.
type Template struct {
	Name string            `json:"name"`
	Args map[string]string `json:"args"`
}

// Lemma is one modern headword with its resolver inputs. LinkedKey starts
// empty and is filled (at most once) by the resolver.
type Lemma struct {
	Text          string
	POS           string
	IPA           string
	EtymologyText string
	Templates     []Template
	Glosses       []string
	Forms         []string
	LinkedKey     string
}

// RelationEdge links a child lemma to the modern parent it is a form of.
// The edges form a directed graph consulted by the resolver's recursive
// hunt; traversal is hop-bounded, never a full graph walk.
type RelationEdge struct {
	Child        string
	ParentText   string
	RelationType string
}

// rawRecord mirrors the kaikki JSONL shape, only the fields we consume.
type rawRecord struct {
	Word               string     `json:"word"`
	POS                string     `json:"pos"`
	EtymologyText      string     `json:"etymology_text"`
	EtymologyTemplates []Template `json:"etymology_templates"`
	Sounds             []struct {
		IPA string `json:"ipa"`
	} `json:"sounds"`
	Senses []struct {
		Glosses      []string  `json:"glosses"`
		FormOf       []wordRef `json:"form_of"`
		AltOf        []wordRef `json:"alt_of"`
		InflectionOf []wordRef `json:"inflection_of"`
	} `json:"senses"`
	Forms []struct {
		Form string `json:"form"`
	} `json:"forms"`
}

type wordRef struct {
	Word string `json:"word"`
}

// ReadFile streams a JSONL dump. Invalid lines are logged and skipped; the
// batch continues (logger may be nil).
func ReadFile(path string, logger *log.Logger) ([]Lemma, []RelationEdge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return Read(f, logger)
}

// Read parses newline-delimited JSON records from r.
func Read(r io.Reader, logger *log.Logger) ([]Lemma, []RelationEdge, error) {
	scanner := bufio.NewScanner(r)
	// Kaikki lines routinely exceed the default 64K token limit.
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	var lemmas []Lemma
	var edges []RelationEdge
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec rawRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			if logger != nil {
				logger.Printf("skipping line %d: %v", lineNo, err)
			}
			continue
		}
		if rec.Word == "" {
			continue
		}

		l := Lemma{
			Text:          rec.Word,
			POS:           rec.POS,
			EtymologyText: rec.EtymologyText,
			Templates:     rec.EtymologyTemplates,
		}
		for _, s := range rec.Sounds {
			if s.IPA != "" {
				l.IPA = s.IPA
				break
			}
		}

		parents := make(map[string]struct{})
		for _, sense := range rec.Senses {
			l.Glosses = append(l.Glosses, sense.Glosses...)
			for _, refs := range [][]wordRef{sense.FormOf, sense.AltOf, sense.InflectionOf} {
				for _, ref := range refs {
					if ref.Word != "" {
						parents[ref.Word] = struct{}{}
					}
				}
			}
		}
		for _, form := range rec.Forms {
			if form.Form != "" {
				l.Forms = append(l.Forms, form.Form)
			}
		}

		lemmas = append(lemmas, l)
		for parent := range parents {
			edges = append(edges, RelationEdge{
				Child:        rec.Word,
				ParentText:   parent,
				RelationType: "form_of",
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return lemmas, edges, err
	}
	return lemmas, edges, nil
}

// Set indexes lemmas by surface text for the resolver's known-lemma checks.
type Set map[string]*Lemma

// NewSet builds the known-lemma lookup. Later duplicates are ignored.
func NewSet(lemmas []Lemma) Set {
	set := make(Set, len(lemmas))
	for i := range lemmas {
		if _, ok := set[lemmas[i].Text]; !ok {
			set[lemmas[i].Text] = &lemmas[i]
		}
	}
	return set
}

// Gloss joins the record's glosses for persistence.
func (l *Lemma) Gloss() string {
	return strings.Join(l.Glosses, " | ")
}
