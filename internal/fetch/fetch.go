// Package fetch looks up every course code concurrently and partitions the
// outcomes by admission certainty.
package fetch

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"courseodds/internal/components/telemetry"
	"courseodds/internal/querycourse"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/errgroup"
)

var (
	tracer = otel.Tracer("courseodds/fetch")
	meter  = otel.Meter("courseodds/fetch")
)

const (
	report_orchestrator_certain    = "orchestrator.certain"
	report_orchestrator_uncertain  = "orchestrator.uncertain"
	report_orchestrator_unresolved = "orchestrator.unresolved"
)

// Lookup resolves a single course code, *querycourse.Client implements it.
type Lookup interface {
	GetCourse(ctx context.Context, semester, code string) (querycourse.Course, error)
}

type LookupFunc func(ctx context.Context, semester, code string) (querycourse.Course, error)

func (f LookupFunc) GetCourse(ctx context.Context, semester, code string) (querycourse.Course, error) {
	return f(ctx, semester, code)
}

// Failure is a course code that could not be resolved.
type Failure struct {
	Code string
	Err  error
}

// NotFound reports whether the API has no course under the code.
func (f Failure) NotFound() bool {
	return errors.Is(f.Err, querycourse.ErrNotFound)
}

// Result holds three disjoint buckets, together they contain one entry per
// input code.
type Result struct {
	Certain    []querycourse.Course
	Uncertain  []querycourse.Course
	Unresolved []Failure
}

func (r Result) Total() int {
	return len(r.Certain) + len(r.Uncertain) + len(r.Unresolved)
}

// Sort orders both course buckets by descending choice rate.
func (r Result) Sort() {
	SortByChoiceRate(r.Certain)
	SortByChoiceRate(r.Uncertain)
}

// SortByChoiceRate sorts courses by descending choice rate, ties keep their order.
func SortByChoiceRate(courses []querycourse.Course) {
	slices.SortStableFunc(courses, func(a, b querycourse.Course) int {
		return cmp.Compare(b.ChoiceRate, a.ChoiceRate)
	})
}

// Observer is notified once per input code after its lookup settles. Calls
// are never concurrent.
type Observer interface {
	Settled(code string, err error)
}

type ObserverFunc func(code string, err error)

func (f ObserverFunc) Settled(code string, err error) {
	f(code, err)
}

type Options struct {
	// MaxConcurrency caps the lookups in flight, 0 or less means one
	// goroutine per code with no cap.
	MaxConcurrency int
	// Observer may be nil.
	Observer Observer
}

type Orchestrator struct {
	lookup  Lookup
	tel     telemetry.API
	lookups metric.Int64Counter
}

func NewOrchestrator(lookup Lookup, tel telemetry.API) *Orchestrator {
	tel = telemetry.NewScopedAPI("fetch", tel)

	lookups, err := meter.Int64Counter(
		"courseodds.lookups",
		metric.WithDescription("Course lookups by outcome."),
	)
	if err != nil {
		tel.ReportBroken("orchestrator.new", err)
		lookups = noop.Int64Counter{}
	}
	return &Orchestrator{lookup: lookup, tel: tel, lookups: lookups}
}

type settled struct {
	code   string
	course querycourse.Course
	err    error
}

func outcome(s settled) string {
	switch {
	case s.err == nil && s.course.Certain():
		return "certain"
	case s.err == nil:
		return "uncertain"
	case errors.Is(s.err, querycourse.ErrNotFound):
		return "not_found"
	case errors.Is(s.err, querycourse.ErrMalformed):
		return "malformed"
	case errors.Is(s.err, querycourse.ErrInvalidLimit):
		return "invalid_limit"
	default:
		return "error"
	}
}

// FetchAll runs one lookup per code and waits for all of them. A failed
// lookup never affects the others, it lands in Result.Unresolved. Buckets are
// filled in completion order, call Result.Sort to order them.
func (o *Orchestrator) FetchAll(ctx context.Context, semester string, codes []string, opts Options) Result {
	ctx, span := tracer.Start(ctx, "orchestrator:FetchAll")
	defer span.End()
	span.SetAttributes(
		attribute.String("semester", semester),
		attribute.Int("codes", len(codes)),
		attribute.Int("max_concurrency", opts.MaxConcurrency),
	)

	results := make(chan settled, len(codes))

	go func() {
		g := errgroup.Group{}
		if opts.MaxConcurrency > 0 {
			g.SetLimit(opts.MaxConcurrency)
		}
		for _, code := range codes {
			code := code
			g.Go(func() error {
				course, err := o.lookup.GetCourse(ctx, semester, code)
				results <- settled{code: code, course: course, err: err}
				return nil
			})
		}
		g.Wait()
		close(results)
	}()

	result := Result{}
	for s := range results {
		o.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome(s))))
		if opts.Observer != nil {
			opts.Observer.Settled(s.code, s.err)
		}

		if s.err != nil {
			result.Unresolved = append(result.Unresolved, Failure{Code: s.code, Err: s.err})
			continue
		}
		if s.course.Certain() {
			result.Certain = append(result.Certain, s.course)
			continue
		}
		result.Uncertain = append(result.Uncertain, s.course)
	}

	o.tel.ReportCount(report_orchestrator_certain, int64(len(result.Certain)))
	o.tel.ReportCount(report_orchestrator_uncertain, int64(len(result.Uncertain)))
	o.tel.ReportCount(report_orchestrator_unresolved, int64(len(result.Unresolved)))
	return result
}
