package main

import (
	"context"
	"os"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Someblueman/phpattr/internal/config"
	"github.com/Someblueman/phpattr/internal/filesource"
	"github.com/Someblueman/phpattr/internal/logging"
	"github.com/Someblueman/phpattr/internal/metadata"
	"github.com/Someblueman/phpattr/internal/rewrite"
)

// errFailed is returned when at least one file could not be migrated.
var errFailed = errors.New("some files could not be migrated")

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Rewrite doc-comment annotations into attributes",
	Long:  "Scan the configured directories for PHP files and rewrite the annotations known to the metadata index into PHP 8 attributes.",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	flags := migrateCmd.Flags()
	flags.StringArray("dir", nil, "directory to scan (repeatable)")
	flags.BoolP("dry-run", "d", false, "report changes without writing files")
	flags.BoolP("annotation-rewrite", "a", false, "use the reprint strategy")
	flags.String("strategy", "", "rewrite strategy ("+strings.Join(rewrite.DefaultStrategyRegistry().Names(), "|")+")")
	flags.Bool("error-continue", true, "continue after a file whose annotations carry arguments their constructor does not accept")
	flags.Bool("catch-continue", true, "continue after any other per-file error")
	flags.String("index", "", "metadata index (YAML or compiled msgpack)")
	flags.String("cache-dir", "", "compiled index cache directory")
	flags.Int("jobs", 0, "files generated in parallel (0 uses the configured value)")
	flags.Bool("promote-types", false, "write @var types as native property types")
	flags.BoolP("verbose", "v", false, "print per-file warnings")
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyMigrateFlags(cmd, &cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logging.Sync(log) }()

	colored, err := useColor(cmd)
	if err != nil {
		return err
	}
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}

	renderer := NewRenderer(cmd.OutOrStdout(), colored, verbose)
	summary, err := migrate(cmd.Context(), cfg, log, renderer)
	if err != nil {
		return err
	}
	renderer.Summary(summary, cfg.DryRun)
	if summary.Failed > 0 {
		return errFailed
	}
	return nil
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Root().PersistentFlags()
	path, err := flags.GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	cfg, _, err := config.Load(path, flags.Changed("config"))
	if err != nil {
		return cfg, err
	}
	if flags.Changed("log-level") {
		if cfg.LogLevel, err = flags.GetString("log-level"); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// applyMigrateFlags overrides configuration values with explicitly set
// flags.
func applyMigrateFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("dir") {
		if cfg.Dirs, err = flags.GetStringArray("dir"); err != nil {
			return err
		}
	}
	if flags.Changed("dry-run") {
		if cfg.DryRun, err = flags.GetBool("dry-run"); err != nil {
			return err
		}
	}
	if rewriteAll, _ := flags.GetBool("annotation-rewrite"); rewriteAll {
		cfg.Strategy = rewrite.StrategyReprint
	}
	if flags.Changed("strategy") {
		if cfg.Strategy, err = flags.GetString("strategy"); err != nil {
			return err
		}
	}
	if flags.Changed("catch-continue") {
		if cfg.CatchContinue, err = flags.GetBool("catch-continue"); err != nil {
			return err
		}
	}
	if flags.Changed("error-continue") {
		if cfg.ErrorContinue, err = flags.GetBool("error-continue"); err != nil {
			return err
		}
	}
	if flags.Changed("index") {
		if cfg.Index, err = flags.GetString("index"); err != nil {
			return err
		}
	}
	if flags.Changed("cache-dir") {
		if cfg.CacheDir, err = flags.GetString("cache-dir"); err != nil {
			return err
		}
	}
	if jobs, _ := flags.GetInt("jobs"); jobs > 0 {
		cfg.Jobs = jobs
	}
	if flags.Changed("promote-types") {
		if cfg.PromoteCommentTypes, err = flags.GetBool("promote-types"); err != nil {
			return err
		}
	}
	return nil
}

type fileOutcome struct {
	record filesource.Record
	result *rewrite.Result
	err    error
}

// migrate generates every file of the configured directories and writes or
// reports the results in file order.
func migrate(ctx context.Context, cfg config.Config, log *zap.SugaredLogger, out *Renderer) (Summary, error) {
	var summary Summary

	index, cached, err := metadata.LoadCached(cfg.Index, cfg.CacheDir, cfg.MetadataOptions())
	if err != nil {
		return summary, err
	}
	log.Debugw("metadata index loaded", "path", cfg.Index, "declarations", index.Declarations(), "cache_hit", cached)

	files, err := filesource.Build(ctx, cfg.Dirs...)
	if err != nil {
		return summary, err
	}

	opts := cfg.RewriteOptions()
	opts.Logger = log
	outcomes, err := generateAll(ctx, files.Files, index, opts, cfg.Jobs)
	if err != nil {
		return summary, err
	}

	for _, o := range outcomes {
		status, err := settle(o, cfg.DryRun)
		var warnings []string
		if o.result != nil {
			warnings = o.result.Warnings
		}
		if err != nil {
			log.Errorw("file could not be migrated", "file", o.record.AbsPath, "error", err)
		}
		out.File(status, o.record.AbsPath, warnings, err)
		summary.add(status)

		if err == nil {
			continue
		}
		if halts(err, cfg) {
			return summary, nil
		}
	}
	return summary, nil
}

// halts reports whether a failed file ends the run. Mapping aborts follow
// ErrorContinue, every other failure follows CatchContinue.
func halts(err error, cfg config.Config) bool {
	if errors.Is(err, rewrite.ErrAbort) {
		return !cfg.ErrorContinue
	}
	return !cfg.CatchContinue
}

// generateAll runs the generators of files with at most jobs in flight.
// Per-file failures are kept in the outcomes; only cancellation fails the
// whole run.
func generateAll(ctx context.Context, files []filesource.Record, provider metadata.Provider, opts rewrite.Options, jobs int) ([]fileOutcome, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	outcomes := make([]fileOutcome, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, rec := range files {
		outcomes[i].record = rec
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := rewrite.NewGenerator(rec.AbsPath, provider, opts).Generate(gctx)
			outcomes[i].result, outcomes[i].err = res, err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "generate files")
	}
	return outcomes, nil
}

// settle writes a modified result back unless dryRun is set.
func settle(o fileOutcome, dryRun bool) (Status, error) {
	if o.err != nil {
		return StatusError, o.err
	}
	if !o.result.Modified {
		return StatusSkip, nil
	}
	if dryRun {
		return StatusRewrite, nil
	}
	if err := o.record.Unchanged(); err != nil {
		return StatusError, err
	}
	info, err := os.Stat(o.record.AbsPath)
	if err != nil {
		return StatusError, errors.Wrapf(err, "stat %s", o.record.AbsPath)
	}
	if err := os.WriteFile(o.record.AbsPath, o.result.Source, info.Mode().Perm()); err != nil {
		return StatusError, errors.Wrapf(err, "write %s", o.record.AbsPath)
	}
	return StatusRewrite, nil
}
