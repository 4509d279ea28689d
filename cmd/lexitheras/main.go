package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/dkoutso/lexitheras/pkg/betacode"
	"github.com/dkoutso/lexitheras/pkg/db"
	"github.com/dkoutso/lexitheras/pkg/ingest"
	"github.com/dkoutso/lexitheras/pkg/lemma"
	"github.com/dkoutso/lexitheras/pkg/lexicon"
	"github.com/dkoutso/lexitheras/pkg/resolver"
	"github.com/dkoutso/lexitheras/pkg/translate"
)

func main() {
	dbFlag := flag.String("db", "lexitheras.db", "Path to SQLite database")
	lexiconDir := flag.String("lexicon-dir", "", "Directory of LSJ TEI XML files to index")
	betaToUni := flag.String("beta-to-uni", "beta_to_unicode.json", "Beta Code to Unicode mapping file")
	uniToBeta := flag.String("uni-to-beta", "unicode_to_beta.json", "Unicode to Beta Code mapping file")
	lemmasFlag := flag.String("lemmas", "", "Modern lemma dump (JSONL) to load and link")
	rankConfig := flag.String("rank-config", "", "Optional citation ranking config (JSON); defaults built in")
	workers := flag.Int("workers", runtime.NumCPU(), "Resolver worker count")
	translateURL := flag.String("translate-url", "", "Translation endpoint; empty skips augmentation")
	translateKey := flag.String("translate-key", "", "Translation API key")
	checkpoint := flag.String("translate-checkpoint", "translate.checkpoint", "Translation progress file")
	flag.Parse()

	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	conn, err := db.Open(*dbFlag)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer conn.Close()
	fmt.Printf("Database initialized at %s\n", *dbFlag)

	conv, err := betacode.NewConverter(*betaToUni, *uniToBeta)
	if err != nil {
		log.Fatalf("Failed to load Beta Code mappings: %v", err)
	}

	cfg := lexicon.DefaultRankConfig()
	if *rankConfig != "" {
		cfg, err = lexicon.LoadRankConfig(*rankConfig)
		if err != nil {
			log.Fatalf("Failed to load rank config: %v", err)
		}
	}

	if *lexiconDir == "" && *lemmasFlag == "" {
		log.Fatal("Please provide -lexicon-dir and/or -lemmas")
	}

	ix := lexicon.NewIndexer(conv, cfg)
	ix.Logger = logger
	if *lexiconDir != "" {
		fmt.Printf("Indexing lexicon from %s...\n", *lexiconDir)
		start := time.Now()
		if err := ix.IndexDir(*lexiconDir); err != nil {
			log.Fatalf("Indexing failed: %v", err)
		}
		fmt.Printf("Indexed %d entries in %v\n", ix.Len(), time.Since(start))

		n, err := ingest.PersistEntries(ctx, conn, ix, 200)
		if err != nil {
			log.Fatalf("Failed to persist entries: %v", err)
		}
		fmt.Printf("Persisted %d entries.\n", n)
	}

	if *lemmasFlag != "" {
		fmt.Printf("Loading lemmas from %s...\n", *lemmasFlag)
		lemmas, edges, err := lemma.ReadFile(*lemmasFlag, logger)
		if err != nil {
			log.Fatalf("Failed to read lemma dump: %v", err)
		}
		fmt.Printf("Loaded %d lemmas, %d form edges.\n", len(lemmas), len(edges))

		if _, err := ingest.PersistLemmas(ctx, conn, lemmas, edges, 200); err != nil {
			log.Fatalf("Failed to persist lemmas: %v", err)
		}

		if ix.Len() == 0 {
			fmt.Println("No lexicon indexed; skipping resolution.")
		} else {
			res := resolver.New(conv, ix, lemma.NewSet(lemmas), resolver.DefaultConfig())
			linker := ingest.NewLinker(conn, res)
			linker.Workers = *workers
			linker.Logger = logger
			linker.OnProgress = func(current, total int) {
				fmt.Printf("\rResolving %d/%d", current, total)
				if current == total {
					fmt.Println()
				}
			}

			linked, err := linker.Run(ctx, lemmas)
			if err != nil {
				log.Fatalf("Resolution failed: %v", err)
			}
			linkedTotal, total, err := db.LinkStats(conn)
			if err != nil {
				log.Fatalf("Failed to read link stats: %v", err)
			}
			fmt.Printf("Linked %d new lemmas (%d/%d total).\n", linked, linkedTotal, total)
		}
	}

	if *translateURL != "" {
		fmt.Println("Translating missing definitions...")
		aug := translate.NewAugmenter(conn, translate.NewHTTPClient(*translateURL, *translateKey), *checkpoint)
		aug.Logger = logger
		updated, err := aug.Run(ctx)
		if err != nil {
			log.Fatalf("Translation failed after %d updates: %v", updated, err)
		}
		fmt.Printf("Translated %d definitions.\n", updated)
	}

	fmt.Println("Processing complete.")
}
