package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"squeeze/internal/assets"
	"squeeze/internal/codec"
	"squeeze/internal/config"
	"squeeze/internal/logging"
	"squeeze/internal/minify"
	"squeeze/internal/processor"
	"squeeze/internal/tui"
)

var errRunFailed = errors.New("some files could not be optimized")

type runFlags struct {
	mode             string
	input            string
	output           string
	subPath          string
	quality          int
	tool             string
	verbose          bool
	exclude          []string
	jobs             int
	includeRootFiles bool
}

var optimizeFlags runFlags

var optimizeCmd = &cobra.Command{
	Use:   "optimize -i <path> [flags]",
	Short: "Minify CSS/JS and recompress images in place",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}
		opts, err := optimizeFlags.options()
		if err != nil {
			return err
		}

		wd, err := os.Getwd()
		if err != nil {
			return err
		}

		logger := logging.Discard()
		if optimizeFlags.verbose {
			logger = logging.New(os.Stderr, true)
		}

		deps := processor.Deps{
			Config:   cfg,
			Minifier: minify.New(),
			Runner:   &codec.ExecRunner{Logger: logger},
			Binaries: codec.Binaries{WorkDir: wd, Caesium: cfg.CaesiumBinary, Magick: cfg.MagickBinary},
			Logger:   logger,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		var result processor.RunResult
		if optimizeFlags.verbose {
			result, err = processor.Run(ctx, opts, deps, nil)
		} else {
			result, err = runWithProgress(ctx, opts, deps, cmd.ErrOrStderr())
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, tui.RenderSummary(tui.RunSummary(result)))
		if problems := tui.RenderProblems(result); problems != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), problems)
		}
		if result.HasErrors() {
			return errRunFailed
		}
		return nil
	},
}

// progressUI is the part of a bubbletea program the run needs.
type progressUI interface {
	Run() (tea.Model, error)
}

var newProgressUI = func(updates <-chan processor.ProgressUpdate) progressUI {
	return tea.NewProgram(tui.NewModel(updates), tea.WithOutput(os.Stderr))
}

// runWithProgress drives the bubbletea progress view while the run
// executes. Quitting the view cancels the run between files. If the view
// cannot start (no terminal), the run carries on without it.
func runWithProgress(ctx context.Context, opts processor.Options, deps processor.Deps, errOut io.Writer) (processor.RunResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan processor.ProgressUpdate, 64)
	ui := newProgressUI(updates)

	uiDone := make(chan struct{})
	go func() {
		defer close(uiDone)
		final, err := ui.Run()
		switch {
		case errors.Is(err, tea.ErrInterrupted):
			cancel()
		case err != nil:
			fmt.Fprintf(errOut, "progress view unavailable, continuing without it: %v\n", err)
		case userQuit(final):
			cancel()
		}
		for range updates {
		}
	}()

	result, err := processor.Run(ctx, opts, deps, updates)
	close(updates)
	<-uiDone
	return result, err
}

func userQuit(final tea.Model) bool {
	m, ok := final.(tui.Model)
	return ok && m.Interrupted()
}

func (f runFlags) options() (processor.Options, error) {
	if f.input == "" {
		return processor.Options{}, fmt.Errorf("--inputpath is required")
	}
	mode, err := assets.ParseMode(f.mode)
	if err != nil {
		return processor.Options{}, err
	}
	tool, err := codec.ParseTool(f.tool)
	if err != nil {
		return processor.Options{}, err
	}
	if f.quality < 0 || f.quality > 100 {
		return processor.Options{}, fmt.Errorf("--quality must be between 0 and 100, got %d", f.quality)
	}
	if f.jobs < 1 {
		return processor.Options{}, fmt.Errorf("--jobs must be at least 1, got %d", f.jobs)
	}
	return processor.Options{
		Mode:             mode,
		InputPath:        f.input,
		OutputDir:        f.output,
		SubPath:          f.subPath,
		Quality:          f.quality,
		Tool:             tool,
		Exclude:          f.exclude,
		Jobs:             f.jobs,
		IncludeRootFiles: f.includeRootFiles,
	}, nil
}

func bindRunFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().StringVarP(&f.mode, "mode", "m", string(assets.ModeManifest), "FO: walk the input folder recursively, FI: read paths from the input file")
	cmd.Flags().StringVarP(&f.input, "inputpath", "i", "", "folder or manifest file to read")
	cmd.Flags().StringArrayVar(&f.exclude, "exclude", nil, "glob of paths to leave alone (repeatable, ** supported)")
	cmd.Flags().BoolVar(&f.includeRootFiles, "include-root-files", false, "in FO mode, also take files directly inside the input folder")
}

func init() {
	f := &optimizeFlags
	bindRunFlags(optimizeCmd, f)
	optimizeCmd.Flags().StringVarP(&f.output, "outputpath", "o", "", "codec output folder (default DEFAULT_OUT_PATH); image backups go to <outputpath>/backup")
	optimizeCmd.Flags().StringVarP(&f.subPath, "subpath", "s", "", "prefix removed from image paths inside the backup folder (default the input path)")
	optimizeCmd.Flags().IntVarP(&f.quality, "quality", "q", codec.DefaultQuality, "JPEG quality passed to the codec")
	optimizeCmd.Flags().StringVarP(&f.tool, "tool", "t", string(codec.Caesium), "codec: C (caesiumclt) or M (ImageMagick)")
	optimizeCmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "log every file instead of showing progress")
	optimizeCmd.Flags().IntVarP(&f.jobs, "jobs", "j", 1, "files processed at once per group")
	_ = optimizeCmd.MarkFlagRequired("inputpath")

	rootCmd.AddCommand(optimizeCmd)
}
