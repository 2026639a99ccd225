package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/tunogya/soicau/pkg/analysis"
	"github.com/tunogya/soicau/pkg/config"
	"github.com/tunogya/soicau/pkg/feature"
	"github.com/tunogya/soicau/pkg/logging"
	"github.com/tunogya/soicau/pkg/queue/nats"
	"github.com/tunogya/soicau/pkg/store/duckdb"
	"github.com/tunogya/soicau/pkg/store/milvus"
)

// Config holds analysis worker configuration
type Config struct {
	NATSUrl      string
	Consumer     string
	DuckDBPath   string
	MilvusAddr   string
	Collection   string
	Index        bool
	PatternCount int
	ConfigPath   string
	Verbose      bool

	file config.Config
}

func main() {
	cfg := parseFlags()

	if cfg.Verbose {
		logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	log.Println("Starting Analysis Worker...")
	log.Printf("NATS: %s, DuckDB: %s", cfg.NATSUrl, cfg.DuckDBPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize DuckDB
	log.Println("Connecting to DuckDB...")
	duckClient, err := duckdb.NewClient(cfg.DuckDBPath)
	if err != nil {
		log.Fatalf("Failed to connect to DuckDB: %v", err)
	}
	defer duckClient.Close()

	if err := duckdb.InitializeSchema(ctx, duckClient); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	log.Println("DuckDB schema initialized")

	// Initialize NATS
	log.Println("Connecting to NATS...")
	natsCfg := nats.DefaultConfig()
	natsCfg.URL = cfg.NATSUrl
	natsCfg.StreamName = cfg.file.NATS.Stream
	natsCfg.AckWait = cfg.file.NATS.AckWait
	natsCfg.MaxDeliver = cfg.file.NATS.MaxDeliver
	natsClient, err := nats.NewClient(natsCfg)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer natsClient.Close()

	if err := natsClient.CreateStream(ctx, nats.Subjects()); err != nil {
		log.Fatalf("Failed to create stream: %v", err)
	}
	log.Println("NATS stream ready")

	h := &handler{
		engine: analysis.NewEngine(analysis.Config{
			PatternCount:  cfg.PatternCount,
			ReferenceYear: cfg.file.Analysis.ReferenceYear,
		}),
		tables: duckdb.NewTableRepo(duckClient),
		runs:   duckdb.NewRunRepo(duckClient),
		pub:    natsClient,
	}

	// Milvus indexing is optional
	if cfg.Index {
		log.Println("Connecting to Milvus...")
		milvusClient, err := milvus.NewClient(ctx, milvus.Config{Address: cfg.MilvusAddr})
		if err != nil {
			log.Fatalf("Failed to connect to Milvus: %v", err)
		}
		defer milvusClient.Close()

		collectionCfg := milvus.DefaultCollectionConfig()
		collectionCfg.Name = cfg.Collection
		if err := milvusClient.EnsureCollection(ctx, collectionCfg); err != nil {
			log.Fatalf("Failed to prepare Milvus collection: %v", err)
		}

		extractor := feature.NewExtractor()
		h.index = func(ctx context.Context, res *analysis.Result) error {
			profile, _ := extractor.Extract(res.PairSets())
			return milvusClient.Insert(ctx, cfg.Collection, &milvus.ProfileData{
				RunID:        res.RunID,
				Embedding:    profile,
				TableName:    res.TableName,
				CreatedAt:    res.CreatedAt,
				PatternCount: int32(len(res.Pattern)),
				ExactMatch:   res.Request.ExactMatch,
			})
		}
	}

	consumer, err := natsClient.Subscribe(ctx, nats.SubjectAnalysisRequest, cfg.Consumer, func(msg jetstream.Msg) error {
		msgCtx, cancel := context.WithTimeout(ctx, 25*time.Second)
		defer cancel()
		if err := h.Handle(msgCtx, msg.Data()); err != nil {
			log.Printf("Failed to handle request: %v", err)
			return err
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to subscribe to analysis requests: %v", err)
	}
	defer consumer.Stop()

	log.Println("Analysis Worker started, waiting for requests...")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down Analysis Worker...")
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.NATSUrl, "nats", "nats://localhost:4222", "NATS server URL")
	flag.StringVar(&cfg.Consumer, "consumer", "soicau-worker", "Durable consumer name")
	flag.StringVar(&cfg.DuckDBPath, "duckdb", "soicau.duckdb", "DuckDB file path")
	flag.StringVar(&cfg.MilvusAddr, "milvus", "localhost:19530", "Milvus server address")
	flag.StringVar(&cfg.Collection, "collection", milvus.DefaultCollectionName, "Milvus collection")
	flag.BoolVar(&cfg.Index, "index", false, "Index every run's pair profile in Milvus")
	flag.IntVar(&cfg.PatternCount, "count", 2, "Pattern length when a request leaves it unset")
	flag.StringVar(&cfg.ConfigPath, "config", "", "YAML config file")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "Debug logging")

	flag.Parse()

	file, err := config.Load(cfg.ConfigPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.file = file

	flags := cfg
	cfg.NATSUrl = file.NATS.URL
	cfg.Consumer = file.NATS.Consumer
	cfg.DuckDBPath = file.DuckDB.Path
	cfg.MilvusAddr = file.Milvus.Address
	cfg.Collection = file.Milvus.Collection
	cfg.PatternCount = file.Analysis.PatternCount
	cfg.Verbose = cfg.Verbose || file.Verbose
	config.ApplyFlags(flag.CommandLine, map[string]func(){
		"nats":       func() { cfg.NATSUrl = flags.NATSUrl },
		"consumer":   func() { cfg.Consumer = flags.Consumer },
		"duckdb":     func() { cfg.DuckDBPath = flags.DuckDBPath },
		"milvus":     func() { cfg.MilvusAddr = flags.MilvusAddr },
		"collection": func() { cfg.Collection = flags.Collection },
		"count":      func() { cfg.PatternCount = flags.PatternCount },
	})

	if cfg.DuckDBPath == "" {
		fmt.Println("Usage: worker [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	return cfg
}
