package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"quickbuild/internal/core/version"
	"quickbuild/internal/modkit"
	kitmodule "quickbuild/internal/modkit/module"
	"quickbuild/internal/platform/config"
	perr "quickbuild/internal/platform/errors"
	"quickbuild/internal/platform/logger"
	"quickbuild/internal/services/runs/domain"
	runsmod "quickbuild/internal/services/runs/module"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type flags struct {
	repo       string
	maxPages   int
	perPage    int
	scratchDir string
	outDir     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Get().Error().
			Err(err).
			Str("code", perr.CodeOf(err).String()).
			Msg("quickbuild-runs failed")
		os.Exit(perr.ExitCode(err))
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "quickbuild-runs",
		Short: "Export successful \"build \" workflow runs of a repository to Parquet",
		Long: `quickbuild-runs pages through the GitHub Actions runs of one repository,
caching each page in a scratch directory, keeps the successful runs whose head
commit message starts with "build ", sorts them by duration and writes
runs.parquet into the current directory.`,
		Version:       version.Info().String(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, f, out)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return perr.Wrap(err, perr.ErrorCodeInvalidArgument, "bad flags")
	})

	fs := cmd.Flags()
	fs.StringVar(&f.repo, "repo", "", "repository as owner/name (env RUNS_REPO)")
	fs.IntVar(&f.maxPages, "max-pages", 0, "highest page to request (env RUNS_MAX_PAGES)")
	fs.IntVar(&f.perPage, "per-page", 0, "runs per page, 0 for the API default (env RUNS_PER_PAGE)")
	fs.StringVar(&f.scratchDir, "scratch-dir", "", "page cache directory (env RUNS_SCRATCH_DIR)")
	fs.StringVar(&f.outDir, "out-dir", "", "directory receiving the output file (default: current directory)")
	return cmd
}

func run(cmd *cobra.Command, f flags, out io.Writer) error {
	if err := loadDotEnv(); err != nil {
		return err
	}

	wd, err := os.Getwd()
	if err != nil {
		return perr.IOf(err, "resolve working directory")
	}

	m, err := runsmod.New(cmd.Context(), modkit.Deps{Log: *logger.Get(), Cfg: config.New()}, applyFlags(cmd, f, wd))
	if err != nil {
		return err
	}
	ctx := logger.WithRun(cmd.Context(), uuid.NewString(), m.Options().Repo)
	log := logger.C(ctx)
	defer func() {
		if cerr := m.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("closing sinks")
		}
	}()

	rep, err := kitmodule.MustPortsOf[domain.RunnerPort](m).Run(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "%s\t%d rows\n", rep.OutputPath, rep.Kept)
	return nil
}

// applyFlags overlays explicitly set flags on env-derived options.
// The output directory is never read from env; it defaults to wd
func applyFlags(cmd *cobra.Command, f flags, wd string) func(*runsmod.Options) {
	fs := cmd.Flags()
	return func(o *runsmod.Options) {
		if fs.Changed("repo") {
			o.Repo = f.repo
		}
		if fs.Changed("max-pages") {
			o.MaxPages = f.maxPages
		}
		if fs.Changed("per-page") {
			o.PerPage = f.perPage
		}
		if fs.Changed("scratch-dir") {
			o.ScratchDir = f.scratchDir
		}
		o.OutDir = f.outDir
		if o.OutDir == "" {
			o.OutDir = wd
		}
	}
}

// loadDotEnv reads .env from the working directory when there is one
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return perr.Wrap(err, perr.ErrorCodeInvalidArgument, "load .env file")
		}
	}
	return nil
}
