package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/tunogya/soicau/pkg/config"
	"github.com/tunogya/soicau/pkg/feature"
	"github.com/tunogya/soicau/pkg/rerank"
	"github.com/tunogya/soicau/pkg/store/duckdb"
	"github.com/tunogya/soicau/pkg/store/milvus"
)

type Config struct {
	RunID     string
	SameTable bool
	Segments  bool
	MinScore  float64

	DuckDBPath string
	MilvusAddr string
	Collection string
	TopK       int
	ConfigPath string
}

func main() {
	cfg := parseFlags()

	ctx := context.Background()

	// Initialize DuckDB
	log.Println("Connecting to DuckDB...")
	duckClient, err := duckdb.NewClient(cfg.DuckDBPath)
	if err != nil {
		log.Fatalf("Failed to connect to DuckDB: %v", err)
	}
	defer duckClient.Close()

	runRepo := duckdb.NewRunRepo(duckClient)

	run, err := runRepo.GetByID(ctx, cfg.RunID)
	if err != nil {
		log.Fatalf("Failed to load run %s: %v", cfg.RunID, err)
	}
	log.Printf("Query run: %s (table %s, pattern %s, %d matches)", run.RunID, run.TableName, run.Pattern, run.TotalMatches)

	pairSets, err := runRepo.GetPairSets(ctx, cfg.RunID)
	if err != nil {
		log.Fatalf("Failed to load pair sets: %v", err)
	}

	extractor := feature.NewExtractor()
	profile, stats := extractor.Extract(pairSets)
	if stats.TotalPairs == 0 {
		log.Fatalf("Run %s has no pairs to search with", cfg.RunID)
	}
	log.Printf("Profile: %d pairs, %d distinct, top %s x%d", stats.TotalPairs, stats.DistinctPairs, stats.TopPair, stats.TopCount)

	// Initialize Milvus
	log.Println("Connecting to Milvus...")
	milvusClient, err := milvus.NewClient(ctx, milvus.Config{Address: cfg.MilvusAddr})
	if err != nil {
		log.Fatalf("Failed to connect to Milvus: %v", err)
	}
	defer milvusClient.Close()

	if err := milvusClient.LoadCollection(ctx, cfg.Collection); err != nil {
		log.Fatalf("Failed to load collection: %v", err)
	}

	// Search
	filter := ""
	if cfg.SameTable {
		filter = milvus.TableFilter(run.TableName)
	}
	filter = milvus.ExcludeRunFilter(filter, run.RunID)

	log.Printf("Searching for %d most similar runs...", cfg.TopK)
	results, err := milvusClient.Search(ctx, cfg.Collection, profile, filter, cfg.TopK, milvus.DefaultCollectionConfig().NProbe)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	decay := rerank.DefaultTimeDecayConfig()
	if cfg.Segments {
		decay = rerank.SegmentConfig()
	}
	now := time.Now()
	ranked := rerank.NewReranker(decay).Rerank(results, rerank.Query{RunID: run.RunID, ExactMatch: run.ExactMatch}, now)
	ranked = rerank.FilterByMinScore(ranked, cfg.MinScore)

	// Local is recomputed from the pair sets stored in DuckDB; a gap against Sim
	// means the Milvus row is stale or the run was never stored.
	fmt.Printf("%-5s %-32s %-20s %-8s %-8s %-8s %-8s\n", "Rank", "RunID", "Table", "Sim", "Local", "Age(d)", "Final")
	fmt.Println("-------------------------------------------------------------------------------------------")

	for i, r := range ranked {
		local := "-"
		if sets, err := runRepo.GetPairSets(ctx, r.RunID); err == nil {
			hitProfile, _ := extractor.Extract(sets)
			local = fmt.Sprintf("%.4f", feature.CosineSimilarity(profile, hitProfile))
		}
		fmt.Printf("%-5d %-32s %-20s %-8.4f %-8s %-8.1f %-8.4f\n", i+1, r.RunID, r.TableName, r.OriginalScore, local, r.AgeDays(now), r.FinalScore)
	}
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.RunID, "run", "", "Run ID to search with")
	flag.BoolVar(&cfg.SameTable, "same-table", false, "Only search runs of the same table")
	flag.BoolVar(&cfg.Segments, "segments", false, "Use segment weights instead of exponential decay")
	flag.Float64Var(&cfg.MinScore, "min-score", 0, "Drop hits below this final score")
	flag.StringVar(&cfg.DuckDBPath, "duckdb", "soicau.duckdb", "DuckDB path")
	flag.StringVar(&cfg.MilvusAddr, "milvus", "localhost:19530", "Milvus address")
	flag.StringVar(&cfg.Collection, "collection", milvus.DefaultCollectionName, "Milvus collection")
	flag.IntVar(&cfg.TopK, "topk", 20, "Top K results")
	flag.StringVar(&cfg.ConfigPath, "config", "", "YAML config file")

	flag.Parse()

	file, err := config.Load(cfg.ConfigPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	flags := cfg
	cfg.DuckDBPath = file.DuckDB.Path
	cfg.MilvusAddr = file.Milvus.Address
	cfg.Collection = file.Milvus.Collection
	cfg.TopK = file.Milvus.TopK
	config.ApplyFlags(flag.CommandLine, map[string]func(){
		"duckdb":     func() { cfg.DuckDBPath = flags.DuckDBPath },
		"milvus":     func() { cfg.MilvusAddr = flags.MilvusAddr },
		"collection": func() { cfg.Collection = flags.Collection },
		"topk":       func() { cfg.TopK = flags.TopK },
	})

	if cfg.RunID == "" {
		fmt.Println("Usage: search -run <id> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	return cfg
}
