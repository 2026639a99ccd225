package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/tunogya/soicau/pkg/analysis"
	"github.com/tunogya/soicau/pkg/config"
	"github.com/tunogya/soicau/pkg/data"
	"github.com/tunogya/soicau/pkg/feature"
	"github.com/tunogya/soicau/pkg/level"
	"github.com/tunogya/soicau/pkg/logging"
	"github.com/tunogya/soicau/pkg/model"
	"github.com/tunogya/soicau/pkg/queue/nats"
	"github.com/tunogya/soicau/pkg/store/duckdb"
	"github.com/tunogya/soicau/pkg/store/milvus"
)

// Config holds analyze configuration
type Config struct {
	// Table source: a CSV file, or a table stored in DuckDB
	CSVPath   string
	TableName string
	Width     int

	// Analysis
	AnchorRow     int
	AnchorColumn  string
	PatternCount  int
	ExactMatch    bool
	Bucket        string
	Levels        string
	ReferenceYear int

	// Outputs
	Store      bool
	Index      bool
	Remote     bool
	DuckDBPath string
	MilvusAddr string
	Collection string
	NATSUrl    string
	Timeout    time.Duration

	ConfigPath string
	Verbose    bool
}

func main() {
	cfg := parseFlags()

	if cfg.Verbose {
		logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	var bucket *model.BucketKey
	if cfg.Bucket != "" {
		k, err := model.ParseBucketKey(cfg.Bucket)
		if err != nil {
			log.Fatalf("Invalid -bucket: %v", err)
		}
		bucket = &k
	}

	selections, err := level.ParseSelections(cfg.Levels)
	if err != nil {
		log.Fatalf("Invalid -levels: %v", err)
	}

	// DuckDB is needed to read a stored table or to store the run
	var duckClient *duckdb.Client
	if cfg.CSVPath == "" || cfg.Store {
		duckClient, err = duckdb.NewClient(cfg.DuckDBPath)
		if err != nil {
			log.Fatalf("Failed to connect to DuckDB: %v", err)
		}
		defer duckClient.Close()

		if err := duckdb.InitializeSchema(ctx, duckClient); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
	}

	table, err := loadTable(ctx, cfg, duckClient)
	if err != nil {
		log.Fatalf("Failed to load table: %v", err)
	}

	anchorRow := resolveAnchorRow(table, cfg.AnchorRow)
	req := analysis.Request{
		AnchorRow:    anchorRow,
		AnchorColumn: cfg.AnchorColumn,
		PatternCount: cfg.PatternCount,
		ExactMatch:   cfg.ExactMatch,
		Bucket:       bucket,
	}

	if cfg.Remote {
		runRemote(ctx, cfg, table, req)
		return
	}

	engine := analysis.NewEngine(analysis.Config{
		PatternCount:  cfg.PatternCount,
		ReferenceYear: cfg.ReferenceYear,
	})
	result, err := engine.Run(table, req)
	if err != nil {
		fmt.Println(analysis.UserMessage(err))
		os.Exit(1)
	}

	if result.Pattern.IsEmpty() {
		log.Printf("Warning: pattern before row %d is empty, nothing can match", anchorRow)
	}

	printResult(result)

	if cfg.Levels != "" {
		final, err := result.FinalLevels(selections)
		if err != nil {
			log.Fatalf("Failed to build final levels: %v", err)
		}
		fmt.Println("=== Kết quả cuối ===")
		fmt.Print(level.FormatLevels(final))
	}

	if cfg.Store {
		runRepo := duckdb.NewRunRepo(duckClient)
		if err := runRepo.Save(ctx, result); err != nil {
			log.Fatalf("Failed to store run: %v", err)
		}
		log.Printf("Stored run %s", result.RunID)
	}

	if cfg.Index {
		if err := indexRun(ctx, cfg, result); err != nil {
			log.Fatalf("Failed to index run: %v", err)
		}
		log.Printf("Indexed run %s in Milvus", result.RunID)
	}
}

// resolveAnchorRow picks the last row when -row was not given
func resolveAnchorRow(t *model.Table, row int) int {
	if row >= 0 {
		return row
	}
	return max(t.NumRows()-1, 0)
}

func loadTable(ctx context.Context, cfg Config, duckClient *duckdb.Client) (*model.Table, error) {
	var provider data.TableProvider
	if cfg.CSVPath != "" {
		log.Printf("Loading table from %s...", cfg.CSVPath)
		provider = data.NewCSVProvider(cfg.CSVPath, cfg.Width)
	} else {
		log.Printf("Loading table %q from DuckDB...", cfg.TableName)
		provider = duckdb.NewTableRepo(duckClient)
	}
	return provider.FetchTable(ctx, cfg.TableName)
}

func printResult(res *analysis.Result) {
	fmt.Printf("Run: %s\n", res.RunID)
	fmt.Printf("Cầu: %s\n", res.Pattern)
	if res.Reference != "" {
		fmt.Printf("Cột tham chiếu: %s\n", res.Reference)
	}
	fmt.Printf("Bỏ qua cột: %s\n", strings.Join(res.Consumed, ","))
	windows, predictions := res.Highlights()
	fmt.Printf("Ô cầu: %d, ô dự đoán: %d\n\n", windows.Len(), predictions.Len())

	fmt.Println("=== Thống kê ===")
	fmt.Println(res.StatsText())
	fmt.Println()

	levels := res.Levels()
	for i := range res.Buckets {
		b := &res.Buckets[i]
		if !b.Scanned || b.Matches == 0 {
			continue
		}
		fmt.Printf("[%d] %s\n", i, b.Key.Label())
		fmt.Print(level.FormatLevels(levels[i]))
		fmt.Println()
	}
}

func indexRun(ctx context.Context, cfg Config, res *analysis.Result) error {
	milvusClient, err := milvus.NewClient(ctx, milvus.Config{Address: cfg.MilvusAddr})
	if err != nil {
		return err
	}
	defer milvusClient.Close()

	collectionCfg := milvus.DefaultCollectionConfig()
	collectionCfg.Name = cfg.Collection
	if err := milvusClient.EnsureCollection(ctx, collectionCfg); err != nil {
		return err
	}

	profile, stats := feature.NewExtractor().Extract(res.PairSets())
	logging.Logger().Debug("pair profile",
		"run_id", res.RunID,
		"total_pairs", stats.TotalPairs,
		"distinct_pairs", stats.DistinctPairs,
		"top_pair", stats.TopPair,
	)

	err = milvusClient.Insert(ctx, cfg.Collection, &milvus.ProfileData{
		RunID:        res.RunID,
		Embedding:    profile,
		TableName:    res.TableName,
		CreatedAt:    res.CreatedAt,
		PatternCount: int32(len(res.Pattern)),
		ExactMatch:   res.Request.ExactMatch,
	})
	if err != nil {
		return err
	}
	return milvusClient.Flush(ctx, cfg.Collection)
}

func runRemote(ctx context.Context, cfg Config, table *model.Table, req analysis.Request) {
	natsCfg := nats.DefaultConfig()
	natsCfg.URL = cfg.NATSUrl

	log.Println("Connecting to NATS...")
	natsClient, err := nats.NewClient(natsCfg)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer natsClient.Close()

	if err := natsClient.CreateStream(ctx, nats.Subjects()); err != nil {
		log.Fatalf("Failed to create stream: %v", err)
	}

	msg := &nats.AnalysisRequestMsg{
		RequestID:    fmt.Sprintf("%s-%d", table.Name, time.Now().UnixNano()),
		TableName:    table.Name,
		AnchorRow:    req.AnchorRow,
		AnchorColumn: req.AnchorColumn,
		PatternCount: req.PatternCount,
		ExactMatch:   req.ExactMatch,
		Bucket:       req.Bucket,
	}
	if cfg.CSVPath != "" {
		msg.Table = table
	}

	log.Printf("Publishing request %s...", msg.RequestID)
	res, err := natsClient.Request(ctx, msg)
	if err != nil {
		log.Fatalf("Remote analysis failed: %v", err)
	}
	if res.Failed() {
		fmt.Println(res.Error)
		os.Exit(1)
	}

	fmt.Printf("Run: %s\n", res.RunID)
	fmt.Printf("Cầu: %s\n", res.Pattern)
	fmt.Printf("Ô cầu: %d, ô dự đoán: %d\n\n", res.WindowCells, res.PredictionCells)
	fmt.Println("=== Thống kê ===")
	fmt.Println(strings.Join(res.Summaries, "\n\n"))
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.CSVPath, "csv", "", "Path to CSV file with draw results")
	flag.StringVar(&cfg.TableName, "table", "", "Stored table name (when -csv is not given)")
	flag.IntVar(&cfg.Width, "width", data.DefaultCellWidth, "Zero-pad numeric cells to this width")
	flag.IntVar(&cfg.AnchorRow, "row", -1, "Anchor row (default: the last row)")
	flag.StringVar(&cfg.AnchorColumn, "col", "", "Anchor month column, e.g. TH3 (cross-period tables)")
	flag.IntVar(&cfg.PatternCount, "count", 2, "Pattern length")
	flag.BoolVar(&cfg.ExactMatch, "exact", false, "Exact matching (default: loose)")
	flag.StringVar(&cfg.Bucket, "bucket", "", "Scan only one bucket, e.g. inside:2")
	flag.StringVar(&cfg.Levels, "levels", "", "Final report selections bucket:count, e.g. 0:3,6:2")
	flag.IntVar(&cfg.ReferenceYear, "year", time.Now().Year(), "Reference year column for sequential tables")
	flag.BoolVar(&cfg.Store, "store", false, "Store the run in DuckDB")
	flag.BoolVar(&cfg.Index, "index", false, "Index the run's pair profile in Milvus")
	flag.BoolVar(&cfg.Remote, "remote", false, "Send the request to a worker over NATS")
	flag.StringVar(&cfg.DuckDBPath, "duckdb", "soicau.duckdb", "DuckDB file path")
	flag.StringVar(&cfg.MilvusAddr, "milvus", "localhost:19530", "Milvus server address")
	flag.StringVar(&cfg.Collection, "collection", milvus.DefaultCollectionName, "Milvus collection")
	flag.StringVar(&cfg.NATSUrl, "nats", "nats://localhost:4222", "NATS server URL")
	flag.DurationVar(&cfg.Timeout, "timeout", time.Minute, "Overall timeout")
	flag.StringVar(&cfg.ConfigPath, "config", "", "YAML config file")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "Debug logging")

	flag.Parse()

	fileCfg, err := config.Load(cfg.ConfigPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyFileConfig(&cfg, fileCfg)

	if cfg.CSVPath == "" && cfg.TableName == "" {
		fmt.Println("Usage: analyze (-csv <path> | -table <name>) [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	return cfg
}

// applyFileConfig fills cfg from the file; flags given on the command line win
func applyFileConfig(cfg *Config, file config.Config) {
	flags := *cfg

	cfg.Width = file.Analysis.CellWidth
	cfg.PatternCount = file.Analysis.PatternCount
	cfg.ExactMatch = file.Analysis.ExactMatch
	cfg.ReferenceYear = file.Analysis.ReferenceYear
	cfg.DuckDBPath = file.DuckDB.Path
	cfg.MilvusAddr = file.Milvus.Address
	cfg.Collection = file.Milvus.Collection
	cfg.NATSUrl = file.NATS.URL
	cfg.Verbose = cfg.Verbose || file.Verbose

	config.ApplyFlags(flag.CommandLine, map[string]func(){
		"width":      func() { cfg.Width = flags.Width },
		"count":      func() { cfg.PatternCount = flags.PatternCount },
		"exact":      func() { cfg.ExactMatch = flags.ExactMatch },
		"year":       func() { cfg.ReferenceYear = flags.ReferenceYear },
		"duckdb":     func() { cfg.DuckDBPath = flags.DuckDBPath },
		"milvus":     func() { cfg.MilvusAddr = flags.MilvusAddr },
		"collection": func() { cfg.Collection = flags.Collection },
		"nats":       func() { cfg.NATSUrl = flags.NATSUrl },
	})
}
