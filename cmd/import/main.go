package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tunogya/soicau/pkg/config"
	"github.com/tunogya/soicau/pkg/data"
	"github.com/tunogya/soicau/pkg/store/duckdb"
)

// Config holds import configuration
type Config struct {
	CSVPath    string
	Name       string
	Width      int
	DuckDBPath string
	ConfigPath string
	List       bool
	Reset      bool
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

	if cfg.Reset {
		log.Println("Dropping all stored tables and runs...")
		if err := duckdb.DropAllTables(ctx, duckClient); err != nil {
			log.Fatalf("Failed to reset database: %v", err)
		}
	}

	if err := duckdb.InitializeSchema(ctx, duckClient); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	tableRepo := duckdb.NewTableRepo(duckClient)

	if cfg.List {
		listTables(ctx, tableRepo)
		return
	}

	// Load and clean
	log.Printf("Loading table from %s...", cfg.CSVPath)
	provider := data.NewCSVProvider(cfg.CSVPath, cfg.Width)
	table, err := provider.FetchTable(ctx, "")
	if err != nil {
		log.Fatalf("Failed to load table: %v", err)
	}
	if cfg.Name != "" {
		table.Name = cfg.Name
	}
	log.Printf("Loaded %q: %d rows, %d columns, mode %s", table.Name, table.NumRows(), len(table.Columns), table.Mode())

	// Store
	if err := tableRepo.Save(ctx, table); err != nil {
		log.Fatalf("Failed to store table: %v", err)
	}

	log.Printf("Import completed: %s (fingerprint %s)", table.Name, table.Fingerprint())
}

func listTables(ctx context.Context, repo *duckdb.TableRepo) {
	tables, err := repo.List(ctx)
	if err != nil {
		log.Fatalf("Failed to list tables: %v", err)
	}

	fmt.Printf("%-24s %-14s %-6s %-8s %-20s\n", "Name", "Mode", "Rows", "Columns", "Imported")
	fmt.Println("--------------------------------------------------------------------------------")
	for _, t := range tables {
		fmt.Printf("%-24s %-14s %-6d %-8d %-20s\n", t.Name, t.Mode, t.RowCount, len(t.Columns), t.ImportedAt.Format("2006-01-02 15:04"))
	}
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.CSVPath, "csv", "", "Path to CSV file with draw results")
	flag.StringVar(&cfg.Name, "name", "", "Table name (defaults to the file name)")
	flag.IntVar(&cfg.Width, "width", data.DefaultCellWidth, "Zero-pad numeric cells to this width")
	flag.StringVar(&cfg.DuckDBPath, "duckdb", "soicau.duckdb", "DuckDB file path")
	flag.StringVar(&cfg.ConfigPath, "config", "", "YAML config file")
	flag.BoolVar(&cfg.List, "list", false, "List stored tables and exit")
	flag.BoolVar(&cfg.Reset, "reset", false, "Drop every stored table and run before importing")

	flag.Parse()

	fileCfg, err := config.Load(cfg.ConfigPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	// file values apply unless the flag was given
	duckdbPath, width := cfg.DuckDBPath, cfg.Width
	cfg.DuckDBPath, cfg.Width = fileCfg.DuckDB.Path, fileCfg.Analysis.CellWidth
	config.ApplyFlags(flag.CommandLine, map[string]func(){
		"duckdb": func() { cfg.DuckDBPath = duckdbPath },
		"width":  func() { cfg.Width = width },
	})

	if cfg.CSVPath == "" && !cfg.List {
		fmt.Println("Usage: import -csv <path> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	return cfg
}
