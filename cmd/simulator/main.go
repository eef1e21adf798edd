package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"storelab/internal"
	"storelab/internal/block"
	"storelab/internal/record"
	"storelab/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (optional)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	cfg := internal.DefaultConfig()
	if *configPath != "" {
		loaded, err := internal.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}

	if err := run(cfg); err != nil {
		slog.Error("pipeline failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg *internal.SimulatorConfig) error {
	registry := block.Builtin()
	collector := metrics.NewCollector()

	store, err := registry.New("heap_store")
	if err != nil {
		return err
	}
	if err := store.Initialize(block.Config{
		"page_size":   cfg.Storage.PageSize,
		"fill_factor": cfg.Storage.FillFactor,
	}); err != nil {
		return fmt.Errorf("heap_store: %w", err)
	}

	index, err := registry.New("btree_index")
	if err != nil {
		return err
	}
	if err := index.Initialize(block.Config{
		"fanout":     cfg.Index.Fanout,
		"key_column": cfg.Index.KeyColumn,
	}); err != nil {
		return fmt.Errorf("btree_index: %w", err)
	}

	pageCache, err := registry.New("page_cache")
	if err != nil {
		return err
	}
	if err := pageCache.Initialize(block.Config{
		"size":      cfg.Cache.Size,
		"page_size": cfg.Cache.PageSize,
	}); err != nil {
		return fmt.Errorf("page_cache: %w", err)
	}

	// synthesize the input stream
	rows := make([]record.Record, 0, cfg.Pipeline.Records)
	for i := range cfg.Pipeline.Records {
		rows = append(rows, record.Record{
			cfg.Index.KeyColumn: i,
			"name":              fmt.Sprintf("row-%06d", i),
			"active":            i%2 == 0,
		})
	}

	// stage 1: heap store assigns tuple identifiers
	storeCtx := block.NewContext()
	storeCtx.Inputs[block.StreamRecords] = rows
	warnOn(store, storeCtx)
	if err := store.Execute(storeCtx); err != nil {
		return fmt.Errorf("heap_store: %w", err)
	}
	collector.ObserveAll(storeCtx.Metrics)
	slog.Info("heap store done",
		"records", storeCtx.Metrics["records_inserted"],
		"pages", storeCtx.Metrics["pages"],
	)

	// stage 2: ordered index consumes the annotated stream
	indexCtx := block.NewContext()
	indexCtx.Inputs[block.StreamRecords] = storeCtx.Outputs[block.StreamRecords]
	warnOn(index, indexCtx)
	if err := index.Execute(indexCtx); err != nil {
		return fmt.Errorf("btree_index: %w", err)
	}
	collector.ObserveAll(indexCtx.Metrics)
	slog.Info("index built",
		"keys", indexCtx.Metrics["key_count"],
		"depth", indexCtx.Metrics["tree_depth"],
	)

	// stage 3: page cache replays the record -> page access pattern twice;
	// the second sweep shows the warmed-up hit rate
	requests := make([]record.Record, 0, len(storeCtx.Outputs[block.StreamRecords]))
	for _, rec := range storeCtx.Outputs[block.StreamRecords] {
		requests = append(requests, record.Record{block.FieldPageID: rec[block.FieldPageID]})
	}

	for pass := 1; pass <= 2; pass++ {
		cacheCtx := block.NewContext()
		cacheCtx.Inputs[block.StreamRequests] = requests
		warnOn(pageCache, cacheCtx)
		if err := pageCache.Execute(cacheCtx); err != nil {
			return fmt.Errorf("page_cache: %w", err)
		}
		collector.ObserveAll(cacheCtx.Metrics)
		slog.Info("cache sweep done",
			"pass", pass,
			"hits", cacheCtx.Metrics["cache_hits"],
			"misses", cacheCtx.Metrics["cache_misses"],
			"evictions", cacheCtx.Metrics["evictions"],
			"hit_rate_pct", fmt.Sprintf("%.1f", cacheCtx.Metrics["hit_rate_pct"]),
		)
	}

	if rate, ok := collector.Last("hit_rate_pct"); ok {
		slog.Info("pipeline complete",
			"observations", len(collector.Snapshot()),
			"final_hit_rate_pct", fmt.Sprintf("%.1f", rate),
		)
	}
	return nil
}

func warnOn(b block.Block, ctx *block.Context) {
	for _, w := range b.Validate(ctx.InputNames()) {
		slog.Warn(w)
	}
}
