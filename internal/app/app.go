// Package app runs one analysis: read the document, extract course codes,
// resolve the semester, then look up every course.
package app

import (
	"context"
	"fmt"
	"os"

	"courseodds/internal/assert"
	"courseodds/internal/components/telemetry"
	"courseodds/internal/extract"
	"courseodds/internal/fetch"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("courseodds/app")

const (
	report_app_read_file = "app.read-file"
	report_app_extract   = "app.extract"
	report_app_semester  = "app.semester"
)

// Client is what a run needs from the remote API, *querycourse.Client
// implements it.
type Client interface {
	fetch.Lookup
	GetSemester(ctx context.Context) (string, error)
}

// ReadFileError means the input document could not be read.
type ReadFileError struct {
	Path string
	Err  error
}

func (e *ReadFileError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadFileError) Unwrap() error {
	return e.Err
}

// SemesterError means the current semester could not be resolved.
type SemesterError struct {
	Err error
}

func (e *SemesterError) Error() string {
	return fmt.Sprintf("resolve semester: %v", e.Err)
}

func (e *SemesterError) Unwrap() error {
	return e.Err
}

// Progress observes the fan-out, it is started once the number of codes is
// known and stopped before Run returns.
type Progress interface {
	fetch.Observer
	Start()
	Stop()
}

type Options struct {
	Path string
	// Semester skips the semester lookup when set.
	Semester       string
	MaxConcurrency int
	// NewProgress may be nil, it is only called when there is at least one code.
	NewProgress func(total int) Progress
}

type Outcome struct {
	Semester string
	Codes    []string
	// Result has both course buckets sorted by descending choice rate.
	Result fetch.Result
}

type App struct {
	client       Client
	orchestrator *fetch.Orchestrator
	tel          telemetry.API
}

func New(client Client, tel telemetry.API) *App {
	assert.NotNil(client, "client")
	assert.NotNil(tel, "tel")

	return &App{
		client:       client,
		orchestrator: fetch.NewOrchestrator(client, tel),
		tel:          telemetry.NewScopedAPI("app", tel),
	}
}

func (a *App) Run(ctx context.Context, opts Options) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "app:Run")
	defer span.End()

	content, err := os.ReadFile(opts.Path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read file")
		a.tel.ReportBroken(report_app_read_file, err, opts.Path)
		return Outcome{}, &ReadFileError{Path: opts.Path, Err: err}
	}

	outcome := Outcome{Codes: extract.CourseCodes(string(content))}
	a.tel.ReportDebug(report_app_extract, "path", opts.Path, "codes", len(outcome.Codes))
	span.SetAttributes(attribute.Int("codes", len(outcome.Codes)))

	outcome.Semester = opts.Semester
	if outcome.Semester == "" {
		outcome.Semester, err = a.client.GetSemester(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to resolve semester")
			return Outcome{}, &SemesterError{Err: err}
		}
	}
	a.tel.ReportDebug(report_app_semester, "semester", outcome.Semester, "override", opts.Semester != "")
	span.SetAttributes(attribute.String("semester", outcome.Semester))

	fetchOpts := fetch.Options{MaxConcurrency: opts.MaxConcurrency}
	if opts.NewProgress != nil && len(outcome.Codes) > 0 {
		progress := opts.NewProgress(len(outcome.Codes))
		progress.Start()
		defer progress.Stop()
		fetchOpts.Observer = progress
	}

	outcome.Result = a.orchestrator.FetchAll(ctx, outcome.Semester, outcome.Codes, fetchOpts)
	outcome.Result.Sort()
	return outcome, nil
}
