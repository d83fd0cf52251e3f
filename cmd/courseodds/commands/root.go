package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"courseodds/internal/app"
	"courseodds/internal/components/telemetry"
	"courseodds/internal/config"
	"courseodds/internal/querycourse"
	"courseodds/internal/report"
	"courseodds/internal/ui"
	"courseodds/lib/osutil"

	"github.com/spf13/cobra"
)

const pausePrompt = "按下 Enter 鍵結束執行..."

// errReported is returned by the command after the diagnostic was printed.
var errReported = errors.New("reported")

type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

func StdStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

type flags struct {
	config         string
	semester       string
	maxConcurrency int
	noPause        bool
	verbose        bool
	noProgress     bool
}

type runner struct {
	streams Streams
	flags   flags
	// pause is resolved from the config once it is loaded.
	pause bool
}

func newRootCmd(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "courseodds <file>",
		Short: "courseodds estimates the admission odds of every NTUST course code found in a file.",
		Long: "courseodds reads a saved course selection page (or any text file), looks up every " +
			"course code it contains and prints the choice rate and admission odds of each course.",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd.Context(), args[0])
		},
	}
	cmd.SetIn(r.streams.In)
	cmd.SetOut(r.streams.Out)
	cmd.SetErr(r.streams.Err)

	f := cmd.Flags()
	f.StringVar(&r.flags.config, "config", "", "path to a config file, by default courseodds.json5 is searched upward from the working directory")
	f.StringVar(&r.flags.semester, "semester", "", "semester to query (e.g. 1131), skips the semester lookup")
	f.IntVar(&r.flags.maxConcurrency, "max-concurrency", -1, "maximum lookups in flight, 0 means unbounded (overrides config)")
	f.BoolVar(&r.flags.noPause, "no-pause", false, "exit without waiting for Enter")
	f.BoolVarP(&r.flags.verbose, "verbose", "v", false, "enable debug logging")
	f.BoolVar(&r.flags.noProgress, "no-progress", false, "do not draw the progress spinner")
	return cmd
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string, streams Streams) int {
	r := &runner{streams: streams, pause: true}
	cmd := newRootCmd(r)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errReported) {
		report.Fatal(streams.Err, "參數錯誤", err)
		fmt.Fprint(streams.Err, cmd.UsageString())
	}

	if r.pause && !r.flags.noPause {
		osutil.WaitForEnter(streams.In, streams.Out, pausePrompt)
	}
	if err != nil {
		return 1
	}
	return 0
}

func (r *runner) fatal(message string, err error) error {
	report.Fatal(r.streams.Err, message, err)
	return errReported
}

func (r *runner) run(ctx context.Context, path string) error {
	cfg, err := config.Load(config.Options{Path: r.flags.config})
	if err != nil {
		return r.fatal("設定檔讀取失敗", err)
	}
	r.pause = cfg.ShouldPause()
	if r.flags.verbose {
		cfg.Log.Level = "debug"
	}
	if r.flags.maxConcurrency >= 0 {
		cfg.MaxConcurrency = r.flags.maxConcurrency
	}

	tel := telemetry.NewZerologAPI(r.streams.Err, cfg.TelemetryLog())

	otel, err := telemetry.SetupOtel(ctx, config.ServiceName, cfg.Telemetry)
	if err != nil {
		tel.ReportBroken("otel.setup", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := otel.Shutdown(shutdownCtx)
		if err != nil {
			tel.ReportBroken("otel.shutdown", err)
		}
	}()

	client, err := querycourse.NewClient(querycourse.ClientOptions{
		BaseUrl:          cfg.BaseUrl,
		Language:         cfg.Language,
		Timeout:          time.Duration(cfg.Timeout),
		UserAgent:        cfg.UserAgent,
		CloudflareBypass: cfg.CloudflareBypass,
	}, tel)
	if err != nil {
		return r.fatal("設定檔讀取失敗", err)
	}

	opts := app.Options{
		Path:           path,
		Semester:       r.flags.semester,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	if !r.flags.noProgress {
		opts.NewProgress = func(total int) app.Progress {
			return ui.NewProgress(r.streams.Err, total)
		}
	}

	outcome, err := app.New(client, tel).Run(ctx, opts)
	var readErr *app.ReadFileError
	var semesterErr *app.SemesterError
	switch {
	case errors.As(err, &readErr):
		return r.fatal("檔案開啟失敗", readErr.Err)
	case errors.As(err, &semesterErr):
		return r.fatal("無法取得學期資訊", semesterErr.Err)
	case err != nil:
		return r.fatal("執行失敗", err)
	}

	report.Warnings(r.streams.Err, outcome.Result.Unresolved)
	if len(outcome.Codes) == 0 {
		report.Note(r.streams.Err, report.NoCourseCodes)
	}
	report.Table(r.streams.Out, outcome.Semester, outcome.Result.Uncertain, outcome.Result.Certain)
	return nil
}
