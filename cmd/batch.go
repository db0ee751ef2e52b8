package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/finmetrics/internal/fetcher"
	"github.com/sells-group/finmetrics/internal/model"
	"github.com/sells-group/finmetrics/internal/report"
	"github.com/sells-group/finmetrics/internal/store"
)

var (
	batchPolicy string
	batchSheet  string
	batchLimit  int
	batchJSON   bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir-or-file.xlsx>",
	Short: "Analyze many fact sets concurrently",
	Long:  "Reads fact sets from a directory of JSON files or from an XLSX workbook, analyzes each one concurrently, and prints a per-source summary line.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("batch"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sets, err := loadBatch(args[0])
		if err != nil {
			return err
		}

		return processBatch(ctx, st, sets, batchLimit, cfg.Batch.MaxConcurrent)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchPolicy, "policy", "", "scoring policy (confidence_weighted, completeness)")
	batchCmd.Flags().StringVar(&batchSheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of fact sets to process (0 = all)")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "print results as a JSON array")
	rootCmd.AddCommand(batchCmd)
}

// batchItem pairs a fact set with the source label used in runs and output.
type batchItem struct {
	source string
	raw    *model.RawFactSet
}

// loadBatch reads fact sets from a JSON directory or an XLSX workbook.
func loadBatch(path string) ([]batchItem, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		byName, names, err := fetcher.LoadJSONDir(path)
		if err != nil {
			return nil, err
		}
		items := make([]batchItem, 0, len(names))
		for _, name := range names {
			items = append(items, batchItem{source: name, raw: byName[name]})
		}
		return items, nil
	}

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		sets, err := fetcher.LoadXLSX(path, fetcher.XLSXOptions{SheetName: batchSheet})
		if err != nil {
			return nil, err
		}
		items := make([]batchItem, 0, len(sets))
		for i, raw := range sets {
			source := raw.Context.SeriesID
			if source == "" {
				source = fmt.Sprintf("%s#%d", filepath.Base(path), i+1)
			}
			items = append(items, batchItem{source: source, raw: raw})
		}
		return items, nil
	}

	raw, err := fetcher.LoadJSON(path)
	if err != nil {
		return nil, err
	}
	return []batchItem{{source: path, raw: raw}}, nil
}

// processBatch analyzes items concurrently. Individual failures are logged
// and counted, never abort the batch; summaries print in input order.
func processBatch(ctx context.Context, st store.Store, items []batchItem, limit, concurrency int) error {
	if len(items) == 0 {
		zap.L().Info("no fact sets found")
		return nil
	}

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	zap.L().Info("processing batch",
		zap.Int("fact_sets", len(items)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64
	var mu sync.Mutex
	summaries := make(map[int]string, len(items))
	results := make(map[int]*model.AnalysisResult, len(items))

	for i, item := range items {
		g.Go(func() error {
			result, err := analyzeAndRecord(gctx, st, item.source, item.raw, batchPolicy)
			if err != nil {
				failed.Add(1)
				zap.L().Error("analysis failed", zap.String("source", item.source), zap.Error(err))
				mu.Lock()
				summaries[i] = fmt.Sprintf("%s: failed (%v)", item.source, err)
				mu.Unlock()
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			mu.Lock()
			summaries[i] = report.Summary(item.source, result)
			results[i] = result
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	order := make([]int, 0, len(summaries))
	for i := range summaries {
		order = append(order, i)
	}
	sort.Ints(order)

	if batchJSON {
		type entry struct {
			Source string                `json:"source"`
			Error  string                `json:"error,omitempty"`
			Result *model.AnalysisResult `json:"result,omitempty"`
		}
		out := make([]entry, 0, len(order))
		for _, i := range order {
			e := entry{Source: items[i].source, Result: results[i]}
			if results[i] == nil {
				e.Error = summaries[i]
			}
			out = append(out, e)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	} else {
		for _, i := range order {
			fmt.Println(summaries[i])
		}
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}
