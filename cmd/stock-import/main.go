// Command stock-import reconciles supplier inventory feeds into the catalog.
// Suppliers ship huge gzipped SKU lists that overlap; a SKU line is trusted
// only when the SKU appears in at least two independent feeds, which filters
// out the typos and stale rows each supplier is known to carry. Verified
// quantities are added to the stock of matching catalog products.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/diezydiez/watchstore/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 1_000_000
	minSKULen     = 4
	maxSKULen     = 32
)

// fileResult holds SKU candidates found in a single feed during pass 2.
type fileResult struct {
	candidates map[string]uint
	quantities map[string]int
}

func main() {
	var (
		dataDir     string
		numFeeds    int
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing supplierN.gz feeds")
	flag.IntVar(&numFeeds, "feeds", 3, "number of supplier feeds to reconcile")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if numFeeds < 2 {
		slog.Error("at least two feeds are required for cross-verification")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, numFeeds, databaseURL); err != nil {
		slog.Error("stock import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("stock import completed successfully")
}

func run(ctx context.Context, dataDir string, numFeeds int, databaseURL string) error {
	files := make([]string, numFeeds)
	for i := range numFeeds {
		files[i] = filepath.Join(dataDir, fmt.Sprintf("supplier%d.gz", i+1))
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	// Pass 1: build one bloom filter of SKUs per feed, concurrently.
	slog.Info("pass 1: building bloom filters", slog.Int("feeds", numFeeds))

	filters, err := buildBloomFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	// Pass 2: collect SKUs appearing in 2+ feeds with their quantities.
	slog.Info("pass 2: cross-verifying SKUs")

	verified, err := findVerifiedStock(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "find verified stock")
	}

	slog.Info("verified SKUs found", slog.Int("count", len(verified)))

	if len(verified) == 0 {
		slog.Info("no verified stock to import")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	return writeStock(ctx, pool, verified)
}

// buildBloomFilters creates one bloom filter per feed, concurrently.
func buildBloomFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(buildFilterForFeed(ctx, i, f, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

func buildFilterForFeed(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamGzFile(ctx, path, func(line string) {
			sku, _, ok := parseFeedLine(line)
			if !ok {
				return
			}
			filter.AddString(sku)
			count++
			if count%progressEvery == 0 {
				slog.Info("pass 1 progress",
					slog.Int("feed", idx+1),
					slog.Uint64("skus", count),
				)
			}
		}); err != nil {
			return errors.Wrapf(err, "build filter for feed %d", idx+1)
		}

		slog.Info("pass 1 complete",
			slog.Int("feed", idx+1),
			slog.Uint64("total_skus", count),
		)

		filters[idx] = filter
		return nil
	}
}

// findVerifiedStock re-streams each feed and checks SKUs against OTHER feeds'
// bloom filters. A SKU is verified when it appears in 2 or more feeds; its
// imported quantity is the maximum any single feed reported.
func findVerifiedStock(ctx context.Context, files []string, filters []*bloom.BloomFilter) (map[string]int, error) {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(findCandidatesInFeed(ctx, i, f, filters, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge feed bitmasks and quantities.
	merged := make(map[string]uint)
	quantities := make(map[string]int)
	for _, r := range results {
		for sku, mask := range r.candidates {
			merged[sku] |= mask
			if q := r.quantities[sku]; q > quantities[sku] {
				quantities[sku] = q
			}
		}
	}

	// Keep SKUs appearing in 2+ feeds.
	verified := make(map[string]int)
	for sku, mask := range merged {
		if bits.OnesCount(mask) >= 2 {
			verified[sku] = quantities[sku]
		}
	}

	return verified, nil
}

func findCandidatesInFeed(
	ctx context.Context,
	idx int,
	path string,
	filters []*bloom.BloomFilter,
	results []fileResult,
) func() error {
	return func() error {
		candidates := make(map[string]uint)
		quantities := make(map[string]int)
		feedBit := uint(1) << uint(idx)
		var count uint64

		if err := streamGzFile(ctx, path, func(line string) {
			sku, qty, ok := parseFeedLine(line)
			if !ok {
				return
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("pass 2 progress",
					slog.Int("feed", idx+1),
					slog.Uint64("skus", count),
				)
			}

			// Check if this SKU appears in any OTHER feed's bloom filter.
			for j, f := range filters {
				if j == idx {
					continue
				}
				if f.TestString(sku) {
					candidates[sku] |= feedBit
					if qty > quantities[sku] {
						quantities[sku] = qty
					}
					break
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "scan feed %d for candidates", idx+1)
		}

		slog.Info("pass 2 complete",
			slog.Int("feed", idx+1),
			slog.Uint64("total_skus", count),
			slog.Int("candidates", len(candidates)),
		)

		results[idx] = fileResult{candidates: candidates, quantities: quantities}
		return nil
	}
}

// parseFeedLine parses a "sku,quantity" feed line. Lines with malformed SKUs
// or non-positive quantities are dropped.
func parseFeedLine(line string) (sku string, qty int, ok bool) {
	sku, qtyStr, found := strings.Cut(strings.TrimSpace(line), ",")
	if !found {
		return "", 0, false
	}
	if len(sku) < minSKULen || len(sku) > maxSKULen {
		return "", 0, false
	}
	qty, err := strconv.Atoi(strings.TrimSpace(qtyStr))
	if err != nil || qty <= 0 {
		return "", 0, false
	}
	return sku, qty, true
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

const addStockSQL = `UPDATE products SET quantity = quantity + $2 WHERE id = $1`

// writeStock adds the verified quantities to matching catalog products. SKUs
// without a catalog entry are counted and skipped; the import never creates
// products.
func writeStock(ctx context.Context, pool *pgxpool.Pool, verified map[string]int) error {
	slog.Info("writing stock to database", slog.Int("skus", len(verified)))

	var matched, skipped int
	for sku, qty := range verified {
		tag, err := pool.Exec(ctx, addStockSQL, sku, qty)
		if err != nil {
			return errors.Wrapf(err, "add stock for %s", sku)
		}
		if tag.RowsAffected() == 0 {
			skipped++
			continue
		}
		matched++
	}

	slog.Info("stock import written",
		slog.Int("matched", matched),
		slog.Int("skipped_unknown", skipped),
	)
	return nil
}
