// mrc-fit detects recession segments in well hydrographs and fits one master
// recession curve per well.
//
//	mrc-fit [flags] well1.csv well2.csv ...
//
// Each file holds time,level rows with depths below ground. The well takes
// the file's base name.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"text/tabwriter"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chrissnell/wellmrc/internal/hydro"
	"github.com/chrissnell/wellmrc/internal/log"
	"github.com/chrissnell/wellmrc/internal/selection"
	"github.com/chrissnell/wellmrc/internal/store"
)

// wellResult is the outcome of one well
type wellResult struct {
	Well   string
	Series hydro.Series
	Peaks  []int
	Model  *hydro.RecessionModel
	Err    error
}

// options are the batch settings shared by every well
type options struct {
	deltan  int
	despike int
	fit     hydro.FitOptions
	workers int
}

func main() {
	var (
		deltan  = flag.Int("deltan", 20, "Extremum scale in samples")
		despike = flag.Int("despike", 0, "Odd running median window applied before detection (0 = off)")
		mode    = flag.String("mode", "exponential", "Recession law: exponential or linear")
		norm    = flag.String("norm", "mae", "Residual norm: rmse, mae or absme")
		csvDir  = flag.String("csv", "", "Optional directory for <well>_mrc.csv curve exports")
		dbPath  = flag.String("db", "", "Optional SQLite database to record the fits in")
		workers = flag.Int("workers", runtime.NumCPU(), "Wells fitted concurrently")
		debug   = flag.Bool("debug", false, "Turn on debugging output")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] well.csv...\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger := log.GetSugaredLogger()

	opts := options{deltan: *deltan, despike: *despike, fit: hydro.DefaultFitOptions(), workers: *workers}
	var err error
	if opts.fit.Mode, err = hydro.ParseMode(*mode); err != nil {
		log.Fatalf("%v", err)
	}
	if opts.fit.Norm, err = hydro.ParseNorm(*norm); err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := fitWells(ctx, flag.Args(), opts, logger)
	printSummary(results)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}

	if *csvDir != "" {
		if err := exportCurves(*csvDir, results); err != nil {
			log.Errorf("CSV export failed: %v", err)
			failed++
		}
	}

	if *dbPath != "" {
		if err := recordFits(ctx, *dbPath, results, logger); err != nil {
			log.Errorf("Recording fits failed: %v", err)
			failed++
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// fitWells processes every file concurrently. A failing well does not stop
// the others; its error is kept in its result.
func fitWells(ctx context.Context, paths []string, opts options, logger *zap.SugaredLogger) []wellResult {
	results := make([]wellResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if opts.workers > 0 {
		g.SetLimit(opts.workers)
	}

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			results[i] = fitWell(ctx, path, opts, logger)
			// Only cancellation stops the batch.
			if hydro.IsCancelled(results[i].Err) {
				return results[i].Err
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func fitWell(ctx context.Context, path string, opts options, logger *zap.SugaredLogger) wellResult {
	well, series, err := loadSeries(path)
	r := wellResult{Well: well, Series: series}
	if err != nil {
		r.Err = err
		return r
	}

	detectOn, err := hydro.Despike(series.Level, opts.despike)
	if err != nil {
		r.Err = err
		return r
	}
	extrema, _, err := hydro.FindExtrema(ctx, detectOn, opts.deltan)
	if err != nil {
		r.Err = err
		return r
	}
	r.Peaks = selection.TrimToRecessions(extrema)

	wlog := logger.With("well", well)
	wlog.Debugw("detected recessions", "extrema", len(extrema), "peaks", len(r.Peaks))

	r.Model, r.Err = hydro.NewFitter(opts.fit, wlog).Fit(ctx, series.Time, series.Level, r.Peaks)
	return r
}

func printSummary(results []wellResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WELL\tSAMPLES\tSEGMENTS\tB\tC\tRMSE\tOUTER\tINNER\tERROR")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%s\t%d\t-\t-\t-\t-\t-\t-\t%v\n", r.Well, r.Series.Len(), r.Err)
			continue
		}
		m := r.Model
		fmt.Fprintf(w, "%s\t%d\t%d\t%.6g\t%.6g\t%.4g\t%d\t%d\t\n",
			r.Well, r.Series.Len(), len(m.Segments), m.B, m.C, m.RMSE, m.OuterIterations, m.InnerIterations)
	}
	w.Flush()
}

func exportCurves(dir string, results []wellResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		path := filepath.Join(dir, r.Well+"_mrc.csv")
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := writeCurve(f, r.Series, r.Model.Predicted); err != nil {
			f.Close()
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

func recordFits(ctx context.Context, dbPath string, results []wellResult, logger *zap.SugaredLogger) error {
	fits, err := store.Open(ctx, store.BackendSQLite, dbPath, logger.Named("store"))
	if err != nil {
		return err
	}
	defer fits.Close()

	if err := fits.Migrate(ctx); err != nil {
		return err
	}
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		rec := store.NewFitRecord(r.Well, r.Peaks, r.Model)
		if err := fits.SaveFit(ctx, rec); err != nil {
			return err
		}
		logger.Infof("recorded fit %s for well %s", rec.ID, r.Well)
	}
	return nil
}
